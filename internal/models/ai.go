package models

import (
	"time"

	"github.com/google/uuid"
)

// AIServiceSettings - глобальные настройки генерации. В таблице ровно одна
// строка с id = 1, читается на каждый запрос генерации.
type AIServiceSettings struct {
	IsEnabled           bool      `json:"is_enabled"`
	DailyLimitPerUser   int       `json:"daily_limit_per_user"`
	BypassLimitForStaff bool      `json:"bypass_limit_for_staff"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// AIGenerationLog - запись об одной генерации план-конспекта.
// Используется и для аудита, и для подсчета суточного лимита.
type AIGenerationLog struct {
	ID         int64     `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	ScenarioID int64     `json:"scenario_id"`

	Provider string `json:"provider"`
	Model    string `json:"model"`
	AIMode   string `json:"ai_mode"`

	Prompt string         `json:"-"`
	Result string         `json:"-"`
	Params map[string]any `json:"params"`

	CreatedAt time.Time `json:"created_at"`
}

// GenerationResult возвращается клиенту после успешной генерации.
type GenerationResult struct {
	PlanText  string `json:"plan_text"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Remaining int    `json:"remaining_today"`
}
