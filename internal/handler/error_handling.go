package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lesson-server/internal/models"
)

// handleServiceError транслирует ошибки сервисного слоя в HTTP-ответы.
func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.Is(err, models.ErrValidation),
		errors.Is(err, models.ErrDuplicatePosition),
		errors.Is(err, models.ErrCardNotUsable),
		errors.Is(err, models.ErrUnknownProvider):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeValidation, Message: err.Error()}
	case errors.Is(err, models.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeBadCredentials, Message: "Неверный логин или пароль"}
	case errors.Is(err, models.ErrUsernameTaken), errors.Is(err, models.ErrEmailTaken):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{Code: models.ErrCodeUserExists, Message: err.Error()}
	case errors.Is(err, models.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeTokenExpired, Message: "Срок действия токена истек"}
	case errors.Is(err, models.ErrInvalidToken):
		statusCode = http.StatusUnauthorized
		errResp = models.ErrorResponse{Code: models.ErrCodeInvalidToken, Message: "Токен недействителен или отозван"}
	case errors.Is(err, models.ErrPermissionDenied):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "Недостаточно прав"}
	case errors.Is(err, models.ErrNotFound),
		errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrCardNotFound),
		errors.Is(err, models.ErrScenarioNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: err.Error()}
	// Нарушения бизнес-правил для клиента такие же 400, как и ошибки
	// валидации: различаются только машинным кодом.
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrCardNotEditable),
		errors.Is(err, models.ErrScenarioIsDefault),
		errors.Is(err, models.ErrCardInUse):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeInvalidTransition, Message: err.Error()}
	case errors.Is(err, models.ErrGenerationDisabled):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeAIDisabled, Message: err.Error()}
	case errors.Is(err, models.ErrDailyLimitReached):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeLimitReached, Message: err.Error()}
	// Сбой провайдера не отдельный 5xx класс: наружу уходит 400 с текстом
	// исходной ошибки.
	case errors.Is(err, models.ErrProviderFailure):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeProviderFailure, Message: err.Error()}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "Внутренняя ошибка сервера"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}
