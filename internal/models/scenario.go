package models

import (
	"time"

	"github.com/google/uuid"
)

// Эмоциональное состояние класса.
const (
	EmotionalityCalm         = "calm"
	EmotionalityModerate     = "moderate"
	EmotionalityVeryActive   = "very_active"
	EmotionalityTiresFast    = "tires_fast"
	EmotionalityAnxious      = "anxious"
	EmotionalityDisconnected = "disconnected"
)

// Время дня, на которое приходится занятие.
const (
	DayTimeBegin  = "begin"
	DayTimeMiddle = "middle"
	DayTimeEnd    = "end"
)

// Режимы следования AI сценарию.
const (
	AIModeStrict   = "strict"
	AIModeBalanced = "balanced"
	AIModeFree     = "free"
)

// ValidEmotionality проверяет допустимость значения эмоциональности.
func ValidEmotionality(v string) bool {
	switch v {
	case EmotionalityCalm, EmotionalityModerate, EmotionalityVeryActive,
		EmotionalityTiresFast, EmotionalityAnxious, EmotionalityDisconnected:
		return true
	}
	return false
}

// ValidDayTime проверяет допустимость времени дня.
func ValidDayTime(v string) bool {
	return v == DayTimeBegin || v == DayTimeMiddle || v == DayTimeEnd
}

// ValidAIMode проверяет допустимость режима AI.
func ValidAIMode(v string) bool {
	return v == AIModeStrict || v == AIModeBalanced || v == AIModeFree
}

// Scenario - конструктор занятия. Запись с name == nil является рабочим
// (default) сценарием владельца, у каждого владельца она ровно одна.
type Scenario struct {
	ID      int64     `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`

	Name *string `json:"name"`
	Note string  `json:"note"`

	Grade   *int    `json:"grade"`
	Subject *string `json:"subject"`
	Goal    *string `json:"goal"`

	Emotionality string `json:"emotionality"`
	DayTime      string `json:"day_time"`
	GroupSize    int    `json:"group_size"`
	DurationMin  int    `json:"duration_min"`
	TeacherNotes string `json:"teacher_notes"`

	SubjectContent string `json:"subject_content"`
	PlanText       string `json:"plan_text"`
	AIMode         string `json:"ai_mode"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items []ScenarioItem `json:"items,omitempty"`
}

// IsDefault сообщает, является ли сценарий рабочим (безымянным).
func (s *Scenario) IsDefault() bool {
	return s.Name == nil
}

// ScenarioItem - позиция карточки в сценарии.
type ScenarioItem struct {
	ID                int64     `json:"id"`
	ScenarioID        int64     `json:"scenario_id"`
	TechniqueCardID   int64     `json:"technique_card_id"`
	Position          int       `json:"position"`
	CustomDurationMin *int      `json:"custom_duration_min"`
	CreatedAt         time.Time `json:"created_at"`

	// Card подтягивается при чтении сценария целиком.
	Card *TechniqueCard `json:"card,omitempty"`
}
