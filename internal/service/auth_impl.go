package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"lesson-server/internal/config"
	"lesson-server/internal/models"
	"lesson-server/internal/repository"
)

// Compile-time check to ensure authServiceImpl implements AuthService
var _ AuthService = (*authServiceImpl)(nil)

const (
	minUsernameLength = 3
	maxUsernameLength = 150
	minPasswordLength = 6
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

type authServiceImpl struct {
	db        repository.DBTX
	userRepo  repository.UserRepository
	tokenRepo repository.TokenRepository
	audit     AuditLogger
	cfg       *config.Config
	logger    *zap.Logger
}

// NewAuthService создает сервис аутентификации.
func NewAuthService(
	db repository.DBTX,
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	audit AuditLogger,
	cfg *config.Config,
	logger *zap.Logger,
) AuthService {
	return &authServiceImpl{
		db:        db,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		audit:     audit,
		cfg:       cfg,
		logger:    logger.Named("AuthService"),
	}
}

// Register создает нового пользователя с ролью "user".
func (s *authServiceImpl) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	logFields := []zap.Field{zap.String("username", username), zap.String("email", email)}
	s.logger.Info("Registering new user", logFields...)

	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return nil, fmt.Errorf("%w: длина имени пользователя должна быть от %d до %d символов",
			models.ErrValidation, minUsernameLength, maxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return nil, fmt.Errorf("%w: имя пользователя содержит недопустимые символы", models.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: некорректный email", models.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: пароль должен быть не короче %d символов", models.ErrValidation, minPasswordLength)
	}

	hash, err := hashPassword(password, s.cfg.PasswordPepper)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, s.db, user); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &user.ID, models.AuditActionCreate, models.EntityUser, user.ID.String(), nil)
	s.logger.Info("User registered", zap.String("userID", user.ID.String()))
	return user, nil
}

// Login проверяет учетные данные и выдает пару токенов.
func (s *authServiceImpl) Login(ctx context.Context, login, password string) (*models.TokenDetails, error) {
	login = strings.TrimSpace(login)
	user, err := s.userRepo.GetByLogin(ctx, s.db, login)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Не раскрываем, существует ли пользователь.
			return nil, models.ErrInvalidCredentials
		}
		return nil, err
	}

	if !checkPasswordHash(password, user.PasswordHash, s.cfg.PasswordPepper) {
		s.logger.Warn("Invalid password attempt", zap.String("userID", user.ID.String()))
		return nil, models.ErrInvalidCredentials
	}

	td, err := s.createTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.tokenRepo.SetToken(ctx, user.ID, td); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &user.ID, models.AuditActionLogin, models.EntityUser, user.ID.String(), nil)
	s.logger.Info("User logged in", zap.String("userID", user.ID.String()))
	return td, nil
}

// Logout отзывает access-токен сессии и парный refresh-токен, если он передан.
func (s *authServiceImpl) Logout(ctx context.Context, userID uuid.UUID, accessUUID, refreshTokenString string) error {
	refreshUUID := ""
	if refreshTokenString != "" {
		claims, err := s.parseToken(refreshTokenString)
		if err == nil && claims.TokenType == models.TokenTypeRefresh && claims.UserID == userID {
			refreshUUID = claims.ID
		}
	}

	deleted, err := s.tokenRepo.DeleteTokens(ctx, userID, accessUUID, refreshUUID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		s.logger.Warn("Logout with no tokens deleted", zap.String("userID", userID.String()))
	}
	return nil
}

// Refresh меняет refresh-токен на новую пару. Старая пара отзывается.
func (s *authServiceImpl) Refresh(ctx context.Context, refreshTokenString string) (*models.TokenDetails, error) {
	claims, err := s.parseToken(refreshTokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != models.TokenTypeRefresh {
		return nil, models.ErrInvalidToken
	}

	userID, err := s.tokenRepo.GetUserIDByRefreshUUID(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if userID != claims.UserID {
		s.logger.Warn("Refresh token user mismatch",
			zap.String("claimsUserID", claims.UserID.String()),
			zap.String("storedUserID", userID.String()))
		return nil, models.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	// Старый refresh одноразовый.
	if _, err := s.tokenRepo.DeleteTokens(ctx, userID, "", claims.ID); err != nil {
		s.logger.Warn("Failed to revoke old refresh token", zap.Error(err), zap.String("userID", userID.String()))
	}

	td, err := s.createTokens(user)
	if err != nil {
		return nil, err
	}
	if err := s.tokenRepo.SetToken(ctx, user.ID, td); err != nil {
		return nil, err
	}
	return td, nil
}

// VerifyAccessToken проверяет подпись и наличие access-токена в Redis.
func (s *authServiceImpl) VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != models.TokenTypeAccess {
		return nil, models.ErrInvalidToken
	}

	userID, err := s.tokenRepo.GetUserIDByAccessUUID(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if userID != claims.UserID {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}

func (s *authServiceImpl) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, s.db, userID)
}

func (s *authServiceImpl) parseToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("неожиданный метод подписи: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrInvalidToken
	}
	if !token.Valid {
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}

// createTokens генерирует новую пару access/refresh токенов.
func (s *authServiceImpl) createTokens(user *models.User) (*models.TokenDetails, error) {
	now := time.Now()
	td := &models.TokenDetails{
		AccessUUID:  uuid.New().String(),
		RefreshUUID: uuid.New().String(),
		AtExpires:   now.Add(s.cfg.AccessTokenTTL).Unix(),
		RtExpires:   now.Add(s.cfg.RefreshTokenTTL).Unix(),
	}

	sign := func(tokenType, tokenUUID string, expiresAt int64) (string, error) {
		claims := &models.Claims{
			UserID:    user.ID,
			Role:      user.Role,
			TokenType: tokenType,
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        tokenUUID,
				Subject:   user.ID.String(),
				Issuer:    "lesson-server",
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(time.Unix(expiresAt, 0)),
			},
		}
		return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	}

	var err error
	if td.AccessToken, err = sign(models.TokenTypeAccess, td.AccessUUID, td.AtExpires); err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	if td.RefreshToken, err = sign(models.TokenTypeRefresh, td.RefreshUUID, td.RtExpires); err != nil {
		s.logger.Error("Failed to sign refresh token", zap.Error(err), zap.String("userID", user.ID.String()))
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return td, nil
}

// applyPepper подмешивает серверный секрет в пароль через HMAC-SHA256,
// затем результат хешируется bcrypt.
func applyPepper(password, pepper string) []byte {
	h := hmac.New(sha256.New, []byte(pepper))
	h.Write([]byte(password))
	return h.Sum(nil)
}

func hashPassword(password, pepper string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword(applyPepper(password, pepper), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash, pepper string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), applyPepper(password, pepper)) == nil
}
