// Package service содержит бизнес-логику приложения.
package service

import (
	"context"

	"github.com/google/uuid"

	"lesson-server/internal/models"
)

// AuthService управляет регистрацией, входом и жизненным циклом токенов.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	// Login принимает username или email.
	Login(ctx context.Context, login, password string) (*models.TokenDetails, error)
	// Logout отзывает access-токен текущей сессии и, если передан,
	// парный refresh-токен.
	Logout(ctx context.Context, userID uuid.UUID, accessUUID, refreshTokenString string) error
	Refresh(ctx context.Context, refreshTokenString string) (*models.TokenDetails, error)
	// VerifyAccessToken проверяет подпись, тип и наличие токена в Redis.
	VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
}
