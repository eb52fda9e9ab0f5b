package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"lesson-server/internal/models"
	"lesson-server/internal/service"
)

const (
	ctxUserID     = "user_id"
	ctxUserRole   = "user_role"
	ctxAccessUUID = "access_uuid"
)

// AuthMiddleware проверяет Bearer-токен и кладет данные пользователя в контекст.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrInvalidToken)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			zap.L().Warn("Invalid Authorization header format")
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrInvalidToken)
			return
		}

		claims, err := authService.VerifyAccessToken(c.Request.Context(), parts[1])
		if err != nil {
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, err)
			return
		}

		tokenVerificationsTotal.WithLabelValues("success").Inc()
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserRole, claims.Role)
		c.Set(ctxAccessUUID, claims.ID)
		c.Next()
	}
}

// OptionalAuthMiddleware пускает анонимов дальше, но валидный Bearer-токен
// всё равно кладет в контекст. Битый токен отклоняется как обычно.
func OptionalAuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	required := AuthMiddleware(authService)
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		required(c)
	}
}

// RequireModerator пропускает только модераторов и администраторов.
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !models.IsModerator(c.GetString(ctxUserRole)) {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Code:    models.ErrCodeForbidden,
				Message: "Требуется роль модератора",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin пропускает только администраторов.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxUserRole) != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, models.ErrorResponse{
				Code:    models.ErrCodeForbidden,
				Message: "Требуется роль администратора",
			})
			return
		}
		c.Next()
	}
}

// actorFromContext собирает пользователя из данных, положенных AuthMiddleware.
// Сервисам достаточно ID и роли.
func actorFromContext(c *gin.Context) (*models.User, bool) {
	rawID, ok := c.Get(ctxUserID)
	if !ok {
		return nil, false
	}
	userID, ok := rawID.(uuid.UUID)
	if !ok {
		return nil, false
	}
	return &models.User{
		ID:   userID,
		Role: c.GetString(ctxUserRole),
	}, true
}
