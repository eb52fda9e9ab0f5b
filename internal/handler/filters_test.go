package handler

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lesson-server/internal/models"
)

func filterContext(t *testing.T, query string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/cards?"+query, nil)
	return c
}

func TestParseCardFilterDefaults(t *testing.T) {
	f, err := parseCardFilter(filterContext(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "public", f.Scope)
	assert.Equal(t, models.MatchAny, f.AgeMatch)
	assert.Equal(t, models.MatchAny, f.StageMatch)
	assert.Equal(t, 20, f.Limit)
	assert.Equal(t, 0, f.Offset)
	assert.Empty(t, f.Ages)
	assert.Nil(t, f.DurationMax)
}

func TestParseCardFilterGroups(t *testing.T) {
	f, err := parseCardFilter(filterContext(t,
		"q=штурм&age_levels=a1,a2&work_format=group&skills_4k=critical,creative&lesson_stage=core&bloom_level=apply,create&card_kind=technique&activity_type=active&duration_max=15"))
	require.NoError(t, err)

	assert.Equal(t, "штурм", f.Search)
	assert.Equal(t, []string{"a1", "a2"}, f.Ages)
	assert.Equal(t, []string{"group"}, f.WorkForms)
	assert.Equal(t, []string{"critical", "creative"}, f.Competencies)
	assert.Equal(t, []string{"core"}, f.Stages)
	assert.Equal(t, []string{"apply", "create"}, f.BloomLevels)
	assert.Equal(t, []string{"technique"}, f.CardKinds)
	assert.Equal(t, "active", f.ActivityType)
	require.NotNil(t, f.DurationMax)
	assert.Equal(t, 15, *f.DurationMax)
}

func TestParseCardFilterLogicOverrides(t *testing.T) {
	t.Run("Base logic applies to all groups", func(t *testing.T) {
		f, err := parseCardFilter(filterContext(t, "logic=all"))
		require.NoError(t, err)
		assert.Equal(t, models.MatchAll, f.AgeMatch)
		assert.Equal(t, models.MatchAll, f.WorkMatch)
		assert.Equal(t, models.MatchAll, f.CompMatch)
		assert.Equal(t, models.MatchAll, f.StageMatch)
	})

	t.Run("Per-group logic overrides the base", func(t *testing.T) {
		f, err := parseCardFilter(filterContext(t, "logic=all&logic_4k=any"))
		require.NoError(t, err)
		assert.Equal(t, models.MatchAll, f.AgeMatch)
		assert.Equal(t, models.MatchAny, f.CompMatch)
	})

	t.Run("Unknown logic value falls back to any", func(t *testing.T) {
		f, err := parseCardFilter(filterContext(t, "logic=sometimes"))
		require.NoError(t, err)
		assert.Equal(t, models.MatchAny, f.AgeMatch)
	})
}

func TestParseCardFilterKindsSimple(t *testing.T) {
	t.Run("main expands to the main kind", func(t *testing.T) {
		f, err := parseCardFilter(filterContext(t, "kinds_simple=main"))
		require.NoError(t, err)
		assert.Equal(t, []string{models.CardKindTechnique}, f.CardKinds)
	})

	t.Run("aux expands to all auxiliary kinds", func(t *testing.T) {
		f, err := parseCardFilter(filterContext(t, "kinds_simple=aux"))
		require.NoError(t, err)
		assert.Len(t, f.CardKinds, 4)
		assert.Contains(t, f.CardKinds, models.CardKindAuxWarmup)
	})

	t.Run("unknown value is rejected", func(t *testing.T) {
		_, err := parseCardFilter(filterContext(t, "kinds_simple=extra"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrValidation))
		assert.Contains(t, err.Error(), "kinds_simple")
	})
}

func TestParseCardFilterUnknownValues(t *testing.T) {
	t.Run("Unknown age level is listed in the error", func(t *testing.T) {
		_, err := parseCardFilter(filterContext(t, "age_levels=a1,a9"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrValidation))
		assert.Contains(t, err.Error(), "a9")
		assert.Contains(t, err.Error(), "a1,a2,a3")
	})

	t.Run("Unknown scope is rejected", func(t *testing.T) {
		_, err := parseCardFilter(filterContext(t, "scope=everything"))
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("Unknown skill is rejected", func(t *testing.T) {
		_, err := parseCardFilter(filterContext(t, "skills_4k=leadership"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "skills_4k")
	})

	t.Run("Non-numeric duration_max is rejected", func(t *testing.T) {
		_, err := parseCardFilter(filterContext(t, "duration_max=abc"))
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("Zero duration_max is rejected", func(t *testing.T) {
		_, err := parseCardFilter(filterContext(t, "duration_max=0"))
		assert.True(t, errors.Is(err, models.ErrValidation))
	})
}
