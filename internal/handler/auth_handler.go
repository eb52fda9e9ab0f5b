package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lesson-server/internal/models"
	"lesson-server/internal/service"
)

// AuthHandler обслуживает регистрацию, вход и работу с токенами.
type AuthHandler struct {
	authService     service.AuthService
	scenarioService service.ScenarioService
	logger          *zap.Logger
}

// NewAuthHandler создает хендлер аутентификации.
func NewAuthHandler(authService service.AuthService, scenarioService service.ScenarioService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		scenarioService: scenarioService,
		logger:          logger.Named("AuthHandler"),
	}
}

// RegisterRoutes регистрирует маршруты аутентификации.
func (h *AuthHandler) RegisterRoutes(router *gin.Engine) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", h.register)
		auth.POST("/login", h.login)
		auth.POST("/refresh", h.refresh)
	}

	protected := router.Group("/api/auth")
	protected.Use(AuthMiddleware(h.authService))
	{
		protected.POST("/logout", h.logout)
		protected.GET("/me", h.me)
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "username, email и password обязательны",
		})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	// Рабочий сценарий заводится сразу, чтобы первый визит в конструктор
	// не начинался с пустого экрана. GetDefault идемпотентен, так что
	// ошибка здесь не мешает регистрации.
	if _, err := h.scenarioService.GetDefault(c.Request.Context(), user); err != nil {
		h.logger.Warn("Failed to create default scenario on registration",
			zap.String("userID", user.ID.String()), zap.Error(err))
	}

	registrationsTotal.Inc()
	c.JSON(http.StatusCreated, user)
}

type loginRequest struct {
	// Login принимает username или email.
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "login и password обязательны",
		})
		return
	}

	td, err := h.authService.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		loginsTotal.WithLabelValues("failure").Inc()
		handleServiceError(c, err)
		return
	}

	loginsTotal.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, models.TokenPair{
		AccessToken:  td.AccessToken,
		RefreshToken: td.RefreshToken,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "refresh_token обязателен",
		})
		return
	}

	td, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TokenPair{
		AccessToken:  td.AccessToken,
		RefreshToken: td.RefreshToken,
	})
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) logout(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}

	var req logoutRequest
	_ = c.ShouldBindJSON(&req) // refresh_token опционален

	err := h.authService.Logout(c.Request.Context(), actor.ID, c.GetString(ctxAccessUUID), req.RefreshToken)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.StatusResponse{Status: "logged_out"})
}

func (h *AuthHandler) me(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), actor.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
