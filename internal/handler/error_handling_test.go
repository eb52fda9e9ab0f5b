package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"lesson-server/internal/models"
)

func errorStatus(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	handleServiceError(c, err)
	return rec.Code
}

func TestHandleServiceErrorStatuses(t *testing.T) {
	t.Run("Business rule violations are client errors", func(t *testing.T) {
		for _, err := range []error{
			models.ErrValidation,
			models.ErrInvalidTransition,
			models.ErrCardNotEditable,
			models.ErrScenarioIsDefault,
			models.ErrDuplicatePosition,
			models.ErrGenerationDisabled,
			models.ErrDailyLimitReached,
			models.ErrUnknownProvider,
		} {
			assert.Equal(t, http.StatusBadRequest, errorStatus(t, err), "error %v", err)
		}
	})

	t.Run("Provider failure is not a 5xx", func(t *testing.T) {
		wrapped := fmt.Errorf("%w: deepseek: connection reset", models.ErrProviderFailure)
		assert.Equal(t, http.StatusBadRequest, errorStatus(t, wrapped))
	})

	t.Run("Auth and access errors keep their classes", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, errorStatus(t, models.ErrInvalidCredentials))
		assert.Equal(t, http.StatusUnauthorized, errorStatus(t, models.ErrInvalidToken))
		assert.Equal(t, http.StatusForbidden, errorStatus(t, models.ErrPermissionDenied))
		assert.Equal(t, http.StatusConflict, errorStatus(t, models.ErrUsernameTaken))
		assert.Equal(t, http.StatusNotFound, errorStatus(t, models.ErrCardNotFound))
	})

	t.Run("Unknown errors fall back to 500", func(t *testing.T) {
		assert.Equal(t, http.StatusInternalServerError, errorStatus(t, fmt.Errorf("boom")))
	})
}
