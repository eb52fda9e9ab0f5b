package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lesson-server/internal/models"
	"lesson-server/internal/service"
)

// AIHandler обслуживает генерацию план-конспектов и настройки AI-сервиса.
type AIHandler struct {
	generationService service.GenerationService
	authService       service.AuthService
	logger            *zap.Logger
}

// NewAIHandler создает хендлер генерации.
func NewAIHandler(generationService service.GenerationService, authService service.AuthService, logger *zap.Logger) *AIHandler {
	return &AIHandler{
		generationService: generationService,
		authService:       authService,
		logger:            logger.Named("AIHandler"),
	}
}

// RegisterRoutes регистрирует маршруты AI.
func (h *AIHandler) RegisterRoutes(router *gin.Engine) {
	ai := router.Group("/api/ai")
	ai.Use(AuthMiddleware(h.authService))
	{
		ai.POST("/generate-plan", h.generatePlan)
		ai.GET("/providers", h.listProviders)
		ai.GET("/history", h.history)
		ai.GET("/settings", h.getSettings)
	}

	admin := router.Group("/api/ai")
	admin.Use(AuthMiddleware(h.authService), RequireAdmin())
	{
		admin.PUT("/settings", h.updateSettings)
	}
}

func (h *AIHandler) generatePlan(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}

	var req service.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ScenarioID <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "scenario_id обязателен",
		})
		return
	}

	result, err := h.generationService.Generate(c.Request.Context(), actor, req)
	if err != nil {
		generationsTotal.WithLabelValues(req.Provider, "error").Inc()
		handleServiceError(c, err)
		return
	}

	generationsTotal.WithLabelValues(result.Provider, "success").Inc()
	c.JSON(http.StatusOK, gin.H{
		"scenario_id": req.ScenarioID,
		"plan_text":   result.PlanText,
		"meta": gin.H{
			"provider":        result.Provider,
			"model":           result.Model,
			"remaining_today": result.Remaining,
		},
	})
}

func (h *AIHandler) listProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.generationService.ListProviders()})
}

func (h *AIHandler) history(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.generationService.History(c.Request.Context(), actor, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []*models.AIGenerationLog{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *AIHandler) getSettings(c *gin.Context) {
	settings, err := h.generationService.GetSettings(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type updateSettingsRequest struct {
	IsEnabled           *bool `json:"is_enabled"`
	DailyLimitPerUser   *int  `json:"daily_limit_per_user"`
	BypassLimitForStaff *bool `json:"bypass_limit_for_staff"`
}

func (h *AIHandler) updateSettings(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}

	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "некорректное тело запроса",
		})
		return
	}

	// Частичное обновление поверх текущих значений.
	current, err := h.generationService.GetSettings(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if req.IsEnabled != nil {
		current.IsEnabled = *req.IsEnabled
	}
	if req.DailyLimitPerUser != nil {
		current.DailyLimitPerUser = *req.DailyLimitPerUser
	}
	if req.BypassLimitForStaff != nil {
		current.BypassLimitForStaff = *req.BypassLimitForStaff
	}

	updated, err := h.generationService.UpdateSettings(c.Request.Context(), actor, current)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
