package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lesson-server/internal/models"
	"lesson-server/internal/repository"
)

// AuditLogger пишет события в журнал аудита. Запись не должна ломать
// основную операцию: ошибки журналирования только логируются.
type AuditLogger interface {
	Log(ctx context.Context, actorID *uuid.UUID, action, entityType, entityID string, meta map[string]any)
	// LogTx пишет событие в рамках уже открытой транзакции, ошибка
	// возвращается вызывающему и откатывает транзакцию.
	LogTx(ctx context.Context, tx repository.DBTX, actorID *uuid.UUID, action, entityType, entityID string, meta map[string]any) error
}

// Compile-time check
var _ AuditLogger = (*auditLogger)(nil)

type auditLogger struct {
	db     repository.DBTX
	repo   repository.AuditRepository
	logger *zap.Logger
}

// NewAuditLogger создает журнал аудита поверх AuditRepository.
func NewAuditLogger(db repository.DBTX, repo repository.AuditRepository, logger *zap.Logger) AuditLogger {
	return &auditLogger{
		db:     db,
		repo:   repo,
		logger: logger.Named("Audit"),
	}
}

func (a *auditLogger) Log(ctx context.Context, actorID *uuid.UUID, action, entityType, entityID string, meta map[string]any) {
	entry := &models.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Meta:       meta,
	}
	if err := a.repo.Insert(ctx, a.db, entry); err != nil {
		a.logger.Error("Failed to write audit entry",
			zap.Error(err),
			zap.String("action", action),
			zap.String("entityType", entityType),
			zap.String("entityID", entityID))
	}
}

func (a *auditLogger) LogTx(ctx context.Context, tx repository.DBTX, actorID *uuid.UUID, action, entityType, entityID string, meta map[string]any) error {
	entry := &models.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Meta:       meta,
	}
	return a.repo.Insert(ctx, tx, entry)
}
