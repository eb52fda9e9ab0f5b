package models

import (
	"time"

	"github.com/google/uuid"
)

// Действия, фиксируемые в журнале аудита.
const (
	AuditActionLogin    = "login"
	AuditActionCreate   = "create"
	AuditActionUpdate   = "update"
	AuditActionDelete   = "delete"
	AuditActionSubmit   = "submit"
	AuditActionApprove  = "approve"
	AuditActionReject   = "reject"
	AuditActionArchive  = "archive"
	AuditActionGenerate = "generate"
)

// Типы сущностей журнала аудита.
const (
	EntityUser         = "user"
	EntityCard         = "card"
	EntityScenario     = "scenario"
	EntityAIGeneration = "ai_generation"
)

// AuditEntry - запись журнала аудита. EntityID хранится строкой, так как
// сущности используют разные типы ключей.
type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	ActorID    *uuid.UUID     `json:"actor_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Meta       map[string]any `json:"meta"`
	CreatedAt  time.Time      `json:"created_at"`
}
