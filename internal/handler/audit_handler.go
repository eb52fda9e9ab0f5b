package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lesson-server/internal/models"
	"lesson-server/internal/service"
)

// AuditHandler отдает журнал аудита модераторам и администраторам.
type AuditHandler struct {
	auditService service.AuditQueryService
	authService  service.AuthService
	logger       *zap.Logger
}

// NewAuditHandler создает хендлер журнала аудита.
func NewAuditHandler(auditService service.AuditQueryService, authService service.AuthService, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		authService:  authService,
		logger:       logger.Named("AuditHandler"),
	}
}

// RegisterRoutes регистрирует маршруты журнала аудита.
func (h *AuditHandler) RegisterRoutes(router *gin.Engine) {
	audit := router.Group("/api/audit")
	audit.Use(AuthMiddleware(h.authService), RequireModerator())
	{
		audit.GET("", h.listRecent)
		audit.GET("/:entity_type/:entity_id", h.listByEntity)
	}
}

func (h *AuditHandler) listRecent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.auditService.ListRecent(c.Request.Context(), actor, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []*models.AuditEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *AuditHandler) listByEntity(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.auditService.ListByEntity(c.Request.Context(), actor,
		c.Param("entity_type"), c.Param("entity_id"), limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []*models.AuditEntry{}
	}
	c.JSON(http.StatusOK, entries)
}
