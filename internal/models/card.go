package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы методической карточки.
const (
	CardStatusDraft    = "draft"
	CardStatusPending  = "pending"
	CardStatusRejected = "rejected"
	CardStatusPublic   = "public"
	CardStatusArchived = "archived"
)

// Типы активности.
const (
	ActivityActive = "active"
	ActivityCalm   = "calm"
)

// Уровни таксономии Блума.
const (
	BloomRemember   = "remember"
	BloomUnderstand = "understand"
	BloomApply      = "apply"
	BloomAnalyze    = "analyze"
	BloomEvaluate   = "evaluate"
	BloomCreate     = "create"
)

// Виды карточек.
const (
	CardKindTechnique     = "technique"
	CardKindAuxTeamSplit  = "aux_team_split"
	CardKindAuxWarmup     = "aux_warmup"
	CardKindAuxOrg        = "aux_org"
	CardKindAuxReflection = "aux_reflection"
)

// ValidActivityType проверяет допустимость типа активности.
func ValidActivityType(v string) bool {
	return v == ActivityActive || v == ActivityCalm
}

// ValidBloomLevel проверяет допустимость уровня Блума.
func ValidBloomLevel(v string) bool {
	switch v {
	case BloomRemember, BloomUnderstand, BloomApply, BloomAnalyze, BloomEvaluate, BloomCreate:
		return true
	}
	return false
}

// ValidCardKind проверяет допустимость вида карточки.
func ValidCardKind(v string) bool {
	switch v {
	case CardKindTechnique, CardKindAuxTeamSplit, CardKindAuxWarmup, CardKindAuxOrg, CardKindAuxReflection:
		return true
	}
	return false
}

// TechniqueCard - методическая карточка (прием/техника урока).
type TechniqueCard struct {
	ID              int64  `json:"id"`
	OwnerID         uuid.UUID `json:"owner_id"`
	AuthorID        uuid.UUID `json:"author_id"`
	Title           string `json:"title"`
	DescriptionHTML string `json:"description_html"`
	DurationMin     int    `json:"duration_min"`

	// Возрастные группы: 1-4, 5-8 и 9-11 классы.
	AgeA1 bool `json:"age_a1"`
	AgeA2 bool `json:"age_a2"`
	AgeA3 bool `json:"age_a3"`

	ActivityType string `json:"activity_type"`

	WorkIndividual bool `json:"work_individual"`
	WorkGroup      bool `json:"work_group"`

	BloomLevel string `json:"bloom_level"`

	KCritical      bool `json:"k_critical"`
	KCreative      bool `json:"k_creative"`
	KCommunication bool `json:"k_communication"`
	KCollaboration bool `json:"k_collaboration"`

	StageStart bool `json:"stage_start"`
	StageCore  bool `json:"stage_core"`
	StageFinal bool `json:"stage_final"`

	CardKind string `json:"card_kind"`
	Status   string `json:"status"`

	ModeratedBy *uuid.UUID `json:"moderated_by,omitempty"`
	ModeratedAt *time.Time `json:"moderated_at,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UsableInScenario сообщает, может ли карточка попасть в сценарий пользователя.
func (c *TechniqueCard) UsableInScenario(userID uuid.UUID) bool {
	if c.Status == CardStatusPublic {
		return true
	}
	return c.OwnerID == userID && c.Status != CardStatusArchived
}

// MatchMode задает логику сопоставления множественных значений фильтра.
type MatchMode string

const (
	MatchAny MatchMode = "any"
	MatchAll MatchMode = "all"
)

// CardFilter описывает параметры поиска по каталогу карточек.
type CardFilter struct {
	Search       string
	Ages         []string // значения a1, a2, a3
	AgeMatch     MatchMode
	ActivityType string
	WorkForms    []string // individual, group
	WorkMatch    MatchMode
	BloomLevels  []string
	Competencies []string // critical, creative, communication, collaboration
	CompMatch    MatchMode
	Stages       []string // start, core, final
	StageMatch   MatchMode
	CardKinds    []string
	DurationMax  *int

	// Scope ограничивает выборку: "public", "mine" или "moderation".
	Scope string

	Limit  int
	Offset int
}
