package handler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"lesson-server/internal/models"
)

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// logicValue читает режим any/all. Неизвестное значение откатывается к default.
func logicValue(v, fallback string) models.MatchMode {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "any" || v == "all" {
		return models.MatchMode(v)
	}
	return models.MatchMode(fallback)
}

// checkValues валидирует значения группового фильтра, перечисляя неизвестные
// значения и допустимый набор в тексте ошибки.
func checkValues(param string, values []string, allowed map[string]struct{}) error {
	var unknown []string
	for _, v := range values {
		if _, ok := allowed[v]; !ok {
			unknown = append(unknown, v)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	allowedList := make([]string, 0, len(allowed))
	for v := range allowed {
		allowedList = append(allowedList, v)
	}
	sort.Strings(allowedList)
	return fmt.Errorf("%w: %s: неизвестные значения %v, допустимы: %s",
		models.ErrValidation, param, unknown, strings.Join(allowedList, ","))
}

func allowedSet(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

var (
	allowedAges       = allowedSet("a1", "a2", "a3")
	allowedWorkForms  = allowedSet("individual", "group")
	allowedSkills     = allowedSet("critical", "creative", "communication", "collaboration")
	allowedStages     = allowedSet("start", "core", "final")
	allowedBloom      = allowedSet(models.BloomRemember, models.BloomUnderstand, models.BloomApply, models.BloomAnalyze, models.BloomEvaluate, models.BloomCreate)
	allowedKinds      = allowedSet(models.CardKindTechnique, models.CardKindAuxTeamSplit, models.CardKindAuxWarmup, models.CardKindAuxOrg, models.CardKindAuxReflection)
	allowedActivities = allowedSet(models.ActivityActive, models.ActivityCalm)
	allowedScopes     = allowedSet("public", "mine", "moderation")
	allowedSimple     = allowedSet("main", "aux")
)

// auxKinds перечисляет вспомогательные виды карточек для kinds_simple=aux.
var auxKinds = []string{
	models.CardKindAuxTeamSplit,
	models.CardKindAuxWarmup,
	models.CardKindAuxOrg,
	models.CardKindAuxReflection,
}

// parseCardFilter разбирает параметры каталога карточек.
// Общий параметр logic задает режим по умолчанию, per-group параметры
// (logic_age, logic_work, logic_4k, logic_stage) его переопределяют.
func parseCardFilter(c *gin.Context) (models.CardFilter, error) {
	var f models.CardFilter

	baseLogic := string(logicValue(c.Query("logic"), "any"))

	f.Search = strings.TrimSpace(c.Query("q"))

	f.Scope = c.DefaultQuery("scope", "public")
	if err := checkValues("scope", []string{f.Scope}, allowedScopes); err != nil {
		return f, err
	}

	f.Ages = splitCSV(c.Query("age_levels"))
	if err := checkValues("age_levels", f.Ages, allowedAges); err != nil {
		return f, err
	}
	f.AgeMatch = logicValue(c.Query("logic_age"), baseLogic)

	f.WorkForms = splitCSV(c.Query("work_format"))
	if err := checkValues("work_format", f.WorkForms, allowedWorkForms); err != nil {
		return f, err
	}
	f.WorkMatch = logicValue(c.Query("logic_work"), baseLogic)

	f.Competencies = splitCSV(c.Query("skills_4k"))
	if err := checkValues("skills_4k", f.Competencies, allowedSkills); err != nil {
		return f, err
	}
	f.CompMatch = logicValue(c.Query("logic_4k"), baseLogic)

	f.Stages = splitCSV(c.Query("lesson_stage"))
	if err := checkValues("lesson_stage", f.Stages, allowedStages); err != nil {
		return f, err
	}
	f.StageMatch = logicValue(c.Query("logic_stage"), baseLogic)

	f.BloomLevels = splitCSV(c.Query("bloom_level"))
	if err := checkValues("bloom_level", f.BloomLevels, allowedBloom); err != nil {
		return f, err
	}

	f.CardKinds = splitCSV(c.Query("card_kind"))
	if err := checkValues("card_kind", f.CardKinds, allowedKinds); err != nil {
		return f, err
	}

	// kinds_simple это укрупненный фильтр для фронтенда: main раскрывается
	// в основной вид, aux во все вспомогательные.
	simple := splitCSV(c.Query("kinds_simple"))
	if err := checkValues("kinds_simple", simple, allowedSimple); err != nil {
		return f, err
	}
	for _, s := range simple {
		if s == "main" {
			f.CardKinds = append(f.CardKinds, models.CardKindTechnique)
		} else {
			f.CardKinds = append(f.CardKinds, auxKinds...)
		}
	}

	if at := c.Query("activity_type"); at != "" {
		if err := checkValues("activity_type", []string{at}, allowedActivities); err != nil {
			return f, err
		}
		f.ActivityType = at
	}

	if dm := c.Query("duration_max"); dm != "" {
		v, err := strconv.Atoi(dm)
		if err != nil || v < 1 {
			return f, fmt.Errorf("%w: duration_max должен быть положительным числом", models.ErrValidation)
		}
		f.DurationMax = &v
	}

	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
	f.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f, nil
}
