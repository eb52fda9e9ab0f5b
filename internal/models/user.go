package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей.
const (
	RoleUser      = "user"      // преподаватель
	RoleModerator = "moderator" // методист
	RoleAdmin     = "admin"
)

// IsModerator сообщает, дает ли роль права модерации карточек.
func IsModerator(role string) bool {
	return role == RoleModerator || role == RoleAdmin
}

// User - учетная запись преподавателя.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenPair - пара access/refresh токенов, выдаваемая при логине.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
