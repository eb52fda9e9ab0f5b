package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lesson-server/internal/config"
	"lesson-server/internal/models"
	"lesson-server/internal/repository/mocks"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret-for-unit-tests",
		PasswordPepper:  "test-pepper",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}
}

func newAuthService(userRepo *mocks.UserRepository, tokenRepo *mocks.TokenRepository) AuthService {
	return NewAuthService(nil, userRepo, tokenRepo, relaxedAudit(), testAuthConfig(), zap.NewNop())
}

func TestHashAndCheckPassword(t *testing.T) {
	password := "mysecretpassword"
	pepper := "pepper-for-tests"

	hash, err := hashPassword(password, pepper)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, password, hash)

	assert.True(t, checkPasswordHash(password, hash, pepper))
	assert.False(t, checkPasswordHash("wrongpassword", hash, pepper))
	// Без правильного pepper хеш не сходится даже при верном пароле.
	assert.False(t, checkPasswordHash(password, hash, "another-pepper"))
	assert.False(t, checkPasswordHash(password, "not-a-bcrypt-hash", pepper))
}

func TestAuthServiceRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("Successful registration", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		svc := newAuthService(userRepo, new(mocks.TokenRepository))

		userRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			assert.Equal(t, "teacher1", u.Username)
			assert.Equal(t, "teacher1@example.com", u.Email)
			assert.Equal(t, models.RoleUser, u.Role)
			assert.NotEqual(t, "password123", u.PasswordHash)
			u.ID = uuid.New()
			return true
		})).Return(nil).Once()

		user, err := svc.Register(ctx, "teacher1", "Teacher1@Example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, "teacher1@example.com", user.Email)
		userRepo.AssertExpectations(t)
	})

	t.Run("Short username is rejected", func(t *testing.T) {
		svc := newAuthService(new(mocks.UserRepository), new(mocks.TokenRepository))
		_, err := svc.Register(ctx, "ab", "a@b.com", "password123")
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("Username with invalid characters is rejected", func(t *testing.T) {
		svc := newAuthService(new(mocks.UserRepository), new(mocks.TokenRepository))
		_, err := svc.Register(ctx, "пользователь", "a@b.com", "password123")
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("Invalid email is rejected", func(t *testing.T) {
		svc := newAuthService(new(mocks.UserRepository), new(mocks.TokenRepository))
		_, err := svc.Register(ctx, "teacher1", "not-an-email", "password123")
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("Short password is rejected", func(t *testing.T) {
		svc := newAuthService(new(mocks.UserRepository), new(mocks.TokenRepository))
		_, err := svc.Register(ctx, "teacher1", "a@b.com", "12345")
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("Six character password passes", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		svc := newAuthService(userRepo, new(mocks.TokenRepository))
		userRepo.On("Create", ctx, mock.Anything, mock.Anything).Return(nil).Once()

		_, err := svc.Register(ctx, "ann", "ann@x.com", "secret1")
		require.NoError(t, err)
		userRepo.AssertExpectations(t)
	})

	t.Run("Duplicate username error is passed through", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		svc := newAuthService(userRepo, new(mocks.TokenRepository))

		userRepo.On("Create", ctx, mock.Anything, mock.Anything).
			Return(models.ErrUsernameTaken).Once()

		_, err := svc.Register(ctx, "teacher1", "a@b.com", "password123")
		assert.True(t, errors.Is(err, models.ErrUsernameTaken))
	})
}

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()
	pepper := testAuthConfig().PasswordPepper

	storedUser := func(t *testing.T) *models.User {
		t.Helper()
		hash, err := hashPassword("password123", pepper)
		require.NoError(t, err)
		return &models.User{
			ID:           uuid.New(),
			Username:     "teacher1",
			Email:        "teacher1@example.com",
			PasswordHash: hash,
			Role:         models.RoleUser,
		}
	}

	t.Run("Successful login issues token pair", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		tokenRepo := new(mocks.TokenRepository)
		svc := newAuthService(userRepo, tokenRepo)

		user := storedUser(t)
		userRepo.On("GetByLogin", ctx, mock.Anything, "teacher1").Return(user, nil).Once()
		tokenRepo.On("SetToken", ctx, user.ID, mock.MatchedBy(func(td *models.TokenDetails) bool {
			return td.AccessToken != "" && td.RefreshToken != "" && td.AccessUUID != td.RefreshUUID
		})).Return(nil).Once()

		td, err := svc.Login(ctx, "teacher1", "password123")
		require.NoError(t, err)
		assert.NotEmpty(t, td.AccessToken)
		assert.NotEmpty(t, td.RefreshToken)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("Wrong password yields generic error", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		tokenRepo := new(mocks.TokenRepository)
		svc := newAuthService(userRepo, tokenRepo)

		userRepo.On("GetByLogin", ctx, mock.Anything, "teacher1").Return(storedUser(t), nil).Once()

		_, err := svc.Login(ctx, "teacher1", "wrongpassword")
		assert.True(t, errors.Is(err, models.ErrInvalidCredentials))
		tokenRepo.AssertNotCalled(t, "SetToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown login yields the same generic error", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		svc := newAuthService(userRepo, new(mocks.TokenRepository))

		userRepo.On("GetByLogin", ctx, mock.Anything, "nobody").
			Return(nil, models.ErrUserNotFound).Once()

		_, err := svc.Login(ctx, "nobody", "password123")
		assert.True(t, errors.Is(err, models.ErrInvalidCredentials))
	})
}

func TestAuthServiceVerifyAccessToken(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Username: "teacher1", Role: models.RoleUser}

	issueTokens := func(t *testing.T, svc AuthService, userRepo *mocks.UserRepository, tokenRepo *mocks.TokenRepository) *models.TokenDetails {
		t.Helper()
		hash, err := hashPassword("password123", testAuthConfig().PasswordPepper)
		require.NoError(t, err)
		stored := *user
		stored.PasswordHash = hash
		userRepo.On("GetByLogin", ctx, mock.Anything, "teacher1").Return(&stored, nil).Once()
		tokenRepo.On("SetToken", ctx, user.ID, mock.Anything).Return(nil).Once()
		td, err := svc.Login(ctx, "teacher1", "password123")
		require.NoError(t, err)
		return td
	}

	t.Run("Valid access token passes", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		tokenRepo := new(mocks.TokenRepository)
		svc := newAuthService(userRepo, tokenRepo)

		td := issueTokens(t, svc, userRepo, tokenRepo)
		tokenRepo.On("GetUserIDByAccessUUID", ctx, td.AccessUUID).Return(user.ID, nil).Once()

		claims, err := svc.VerifyAccessToken(ctx, td.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, user.ID, claims.UserID)
		assert.Equal(t, models.TokenTypeAccess, claims.TokenType)
	})

	t.Run("Refresh token is not an access token", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		tokenRepo := new(mocks.TokenRepository)
		svc := newAuthService(userRepo, tokenRepo)

		td := issueTokens(t, svc, userRepo, tokenRepo)

		_, err := svc.VerifyAccessToken(ctx, td.RefreshToken)
		assert.True(t, errors.Is(err, models.ErrInvalidToken))
	})

	t.Run("Revoked token is rejected", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		tokenRepo := new(mocks.TokenRepository)
		svc := newAuthService(userRepo, tokenRepo)

		td := issueTokens(t, svc, userRepo, tokenRepo)
		tokenRepo.On("GetUserIDByAccessUUID", ctx, td.AccessUUID).
			Return(uuid.Nil, models.ErrInvalidToken).Once()

		_, err := svc.VerifyAccessToken(ctx, td.AccessToken)
		assert.True(t, errors.Is(err, models.ErrInvalidToken))
	})

	t.Run("Garbage token is rejected", func(t *testing.T) {
		svc := newAuthService(new(mocks.UserRepository), new(mocks.TokenRepository))
		_, err := svc.VerifyAccessToken(ctx, "not.a.jwt")
		assert.True(t, errors.Is(err, models.ErrInvalidToken))
	})
}

func TestAuthServiceRefresh(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Username: "teacher1", Role: models.RoleUser}

	login := func(t *testing.T, svc AuthService, userRepo *mocks.UserRepository, tokenRepo *mocks.TokenRepository) *models.TokenDetails {
		t.Helper()
		hash, err := hashPassword("password123", testAuthConfig().PasswordPepper)
		require.NoError(t, err)
		stored := *user
		stored.PasswordHash = hash
		userRepo.On("GetByLogin", ctx, mock.Anything, "teacher1").Return(&stored, nil).Once()
		tokenRepo.On("SetToken", ctx, user.ID, mock.Anything).Return(nil)
		td, err := svc.Login(ctx, "teacher1", "password123")
		require.NoError(t, err)
		return td
	}

	t.Run("Refresh rotates the pair and revokes the old refresh", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		tokenRepo := new(mocks.TokenRepository)
		svc := newAuthService(userRepo, tokenRepo)

		td := login(t, svc, userRepo, tokenRepo)

		tokenRepo.On("GetUserIDByRefreshUUID", ctx, td.RefreshUUID).Return(user.ID, nil).Once()
		userRepo.On("GetByID", ctx, mock.Anything, user.ID).Return(user, nil).Once()
		tokenRepo.On("DeleteTokens", ctx, user.ID, "", td.RefreshUUID).Return(int64(1), nil).Once()

		newTD, err := svc.Refresh(ctx, td.RefreshToken)
		require.NoError(t, err)
		assert.NotEqual(t, td.RefreshUUID, newTD.RefreshUUID)
		tokenRepo.AssertExpectations(t)
	})

	t.Run("Access token cannot be used for refresh", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		tokenRepo := new(mocks.TokenRepository)
		svc := newAuthService(userRepo, tokenRepo)

		td := login(t, svc, userRepo, tokenRepo)

		_, err := svc.Refresh(ctx, td.AccessToken)
		assert.True(t, errors.Is(err, models.ErrInvalidToken))
	})

	t.Run("Unknown refresh UUID is rejected", func(t *testing.T) {
		userRepo := new(mocks.UserRepository)
		tokenRepo := new(mocks.TokenRepository)
		svc := newAuthService(userRepo, tokenRepo)

		td := login(t, svc, userRepo, tokenRepo)

		tokenRepo.On("GetUserIDByRefreshUUID", ctx, td.RefreshUUID).
			Return(uuid.Nil, models.ErrInvalidToken).Once()

		_, err := svc.Refresh(ctx, td.RefreshToken)
		assert.True(t, errors.Is(err, models.ErrInvalidToken))
	})
}
