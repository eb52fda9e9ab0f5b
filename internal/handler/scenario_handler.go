package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lesson-server/internal/models"
	"lesson-server/internal/service"
)

// ScenarioHandler обслуживает конструктор сценариев.
type ScenarioHandler struct {
	scenarioService service.ScenarioService
	authService     service.AuthService
	logger          *zap.Logger
}

// NewScenarioHandler создает хендлер сценариев.
func NewScenarioHandler(scenarioService service.ScenarioService, authService service.AuthService, logger *zap.Logger) *ScenarioHandler {
	return &ScenarioHandler{
		scenarioService: scenarioService,
		authService:     authService,
		logger:          logger.Named("ScenarioHandler"),
	}
}

// RegisterRoutes регистрирует маршруты сценариев.
func (h *ScenarioHandler) RegisterRoutes(router *gin.Engine) {
	scenarios := router.Group("/api/scenarios")
	scenarios.Use(AuthMiddleware(h.authService))
	{
		scenarios.GET("", h.list)
		scenarios.GET("/default", h.getDefault)
		// Legacy-вариант save-as работает с рабочим сценарием напрямую.
		scenarios.POST("/save-as", h.saveAs)
		scenarios.GET("/:id", h.get)
		scenarios.PATCH("/:id", h.patch)
		scenarios.DELETE("/:id", h.delete)
		scenarios.POST("/:id/save-as", h.saveAsDetail)
		scenarios.POST("/:id/duplicate", h.duplicate)
		scenarios.PUT("/:id/autosave-items", h.autosaveItems)
	}
}

func scenarioID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "некорректный идентификатор сценария",
		})
		return 0, false
	}
	return id, true
}

func (h *ScenarioHandler) list(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}

	scenarios, err := h.scenarioService.ListNamed(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if scenarios == nil {
		scenarios = []*models.Scenario{}
	}
	c.JSON(http.StatusOK, scenarios)
}

func (h *ScenarioHandler) getDefault(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}

	scenario, err := h.scenarioService.GetDefault(c.Request.Context(), actor)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scenario)
}

func (h *ScenarioHandler) get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}
	id, ok := scenarioID(c)
	if !ok {
		return
	}

	scenario, err := h.scenarioService.Get(c.Request.Context(), actor, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scenario)
}

func (h *ScenarioHandler) patch(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}
	id, ok := scenarioID(c)
	if !ok {
		return
	}

	var patch service.ScenarioPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "некорректное тело запроса",
		})
		return
	}

	scenario, err := h.scenarioService.Patch(c.Request.Context(), actor, id, patch)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scenario)
}

func (h *ScenarioHandler) delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}
	id, ok := scenarioID(c)
	if !ok {
		return
	}

	if err := h.scenarioService.Delete(c.Request.Context(), actor, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type saveAsRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *ScenarioHandler) saveAs(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}

	var req saveAsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "name обязателен",
		})
		return
	}

	// Старый контракт фронтенда: save-as без id работает с рабочим
	// сценарием и не падает, если тот еще не создан.
	if _, err := h.scenarioService.GetDefault(c.Request.Context(), actor); err != nil {
		handleServiceError(c, err)
		return
	}

	scenario, err := h.scenarioService.SaveAs(c.Request.Context(), actor, req.Name)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scenario)
}

// saveAsDetail принимает id, но по контракту работает только с рабочим
// сценарием, поэтому проверяет, что id совпадает с ним.
func (h *ScenarioHandler) saveAsDetail(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}
	id, ok := scenarioID(c)
	if !ok {
		return
	}

	current, err := h.scenarioService.Get(c.Request.Context(), actor, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if !current.IsDefault() {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "save-as доступен только для рабочего сценария",
		})
		return
	}

	h.saveAs(c)
}

func (h *ScenarioHandler) duplicate(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}
	id, ok := scenarioID(c)
	if !ok {
		return
	}

	scenario, err := h.scenarioService.Duplicate(c.Request.Context(), actor, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, scenario)
}

type autosaveItemsRequest struct {
	Items []service.ScenarioItemInput `json:"items"`
}

func (h *ScenarioHandler) autosaveItems(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}
	id, ok := scenarioID(c)
	if !ok {
		return
	}

	var req autosaveItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "некорректное тело запроса",
		})
		return
	}

	scenario, err := h.scenarioService.AutosaveItems(c.Request.Context(), actor, id, req.Items)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, scenario)
}
