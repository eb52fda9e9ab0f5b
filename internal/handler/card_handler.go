package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lesson-server/internal/models"
	"lesson-server/internal/service"
)

// CardHandler обслуживает каталог карточек и модерацию.
type CardHandler struct {
	cardService service.CardService
	authService service.AuthService
	logger      *zap.Logger
}

// NewCardHandler создает хендлер карточек.
func NewCardHandler(cardService service.CardService, authService service.AuthService, logger *zap.Logger) *CardHandler {
	return &CardHandler{
		cardService: cardService,
		authService: authService,
		logger:      logger.Named("CardHandler"),
	}
}

// RegisterRoutes регистрирует маршруты карточек.
func (h *CardHandler) RegisterRoutes(router *gin.Engine) {
	// Каталог и просмотр доступны без токена: аноним видит только публичные.
	catalog := router.Group("/api/cards")
	catalog.Use(OptionalAuthMiddleware(h.authService))
	{
		catalog.GET("", h.list)
		catalog.GET("/:id", h.get)
	}

	cards := router.Group("/api/cards")
	cards.Use(AuthMiddleware(h.authService))
	{
		cards.POST("", h.create)
		cards.PATCH("/:id", h.update)
		cards.DELETE("/:id", h.archive)
		cards.POST("/:id/submit", h.submit)
	}

	moderation := router.Group("/api/cards")
	moderation.Use(AuthMiddleware(h.authService), RequireModerator())
	{
		moderation.POST("/:id/approve", h.approve)
		moderation.POST("/:id/reject", h.reject)
	}
}

func cardID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "некорректный идентификатор карточки",
		})
		return 0, false
	}
	return id, true
}

type cardListResponse struct {
	Items []*models.TechniqueCard `json:"items"`
	Total int                     `json:"total"`
}

func (h *CardHandler) list(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		actor = &models.User{}
	}

	filter, err := parseCardFilter(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	cards, total, err := h.cardService.List(c.Request.Context(), actor, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if cards == nil {
		cards = []*models.TechniqueCard{}
	}
	c.JSON(http.StatusOK, cardListResponse{Items: cards, Total: total})
}

func (h *CardHandler) create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}

	var input service.CardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "некорректное тело запроса",
		})
		return
	}

	card, err := h.cardService.Create(c.Request.Context(), actor, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

func (h *CardHandler) get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		actor = &models.User{}
	}
	id, ok := cardID(c)
	if !ok {
		return
	}

	card, err := h.cardService.Get(c.Request.Context(), actor, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *CardHandler) update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}
	id, ok := cardID(c)
	if !ok {
		return
	}

	var input service.CardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Code:    models.ErrCodeValidation,
			Message: "некорректное тело запроса",
		})
		return
	}

	card, err := h.cardService.Update(c.Request.Context(), actor, id, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *CardHandler) archive(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}
	id, ok := cardID(c)
	if !ok {
		return
	}

	if err := h.cardService.Archive(c.Request.Context(), actor, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CardHandler) submit(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}
	id, ok := cardID(c)
	if !ok {
		return
	}

	card, err := h.cardService.Submit(c.Request.Context(), actor, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": card.Status})
}

func (h *CardHandler) approve(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}
	id, ok := cardID(c)
	if !ok {
		return
	}

	card, err := h.cardService.Approve(c.Request.Context(), actor, id)
	if err != nil {
		cardModerationsTotal.WithLabelValues("error").Inc()
		handleServiceError(c, err)
		return
	}

	cardModerationsTotal.WithLabelValues("approved").Inc()
	c.JSON(http.StatusOK, gin.H{"status": card.Status})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *CardHandler) reject(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		handleServiceError(c, models.ErrInvalidToken)
		return
	}
	id, ok := cardID(c)
	if !ok {
		return
	}

	var req rejectRequest
	_ = c.ShouldBindJSON(&req) // причина опциональна

	card, err := h.cardService.Reject(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		cardModerationsTotal.WithLabelValues("error").Inc()
		handleServiceError(c, err)
		return
	}

	cardModerationsTotal.WithLabelValues("rejected").Inc()
	c.JSON(http.StatusOK, gin.H{"status": card.Status})
}
