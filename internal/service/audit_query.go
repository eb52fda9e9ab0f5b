package service

import (
	"context"

	"go.uber.org/zap"

	"lesson-server/internal/models"
	"lesson-server/internal/repository"
)

// AuditQueryService - чтение журнала аудита для модераторов и админов.
type AuditQueryService interface {
	ListRecent(ctx context.Context, actor *models.User, limit, offset int) ([]*models.AuditEntry, error)
	ListByEntity(ctx context.Context, actor *models.User, entityType, entityID string, limit, offset int) ([]*models.AuditEntry, error)
}

// Compile-time check
var _ AuditQueryService = (*auditQueryServiceImpl)(nil)

type auditQueryServiceImpl struct {
	db     repository.DBTX
	repo   repository.AuditRepository
	logger *zap.Logger
}

// NewAuditQueryService создает сервис чтения журнала аудита.
func NewAuditQueryService(db repository.DBTX, repo repository.AuditRepository, logger *zap.Logger) AuditQueryService {
	return &auditQueryServiceImpl{
		db:     db,
		repo:   repo,
		logger: logger.Named("AuditQueryService"),
	}
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (s *auditQueryServiceImpl) ListRecent(ctx context.Context, actor *models.User, limit, offset int) ([]*models.AuditEntry, error) {
	if !models.IsModerator(actor.Role) {
		return nil, models.ErrPermissionDenied
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListRecent(ctx, s.db, limit, offset)
}

func (s *auditQueryServiceImpl) ListByEntity(ctx context.Context, actor *models.User, entityType, entityID string, limit, offset int) ([]*models.AuditEntry, error) {
	if !models.IsModerator(actor.Role) {
		return nil, models.ErrPermissionDenied
	}
	switch entityType {
	case models.EntityUser, models.EntityCard, models.EntityScenario, models.EntityAIGeneration:
	default:
		return nil, models.ErrValidation
	}
	limit, offset = clampPage(limit, offset)
	return s.repo.ListByEntity(ctx, s.db, entityType, entityID, limit, offset)
}
