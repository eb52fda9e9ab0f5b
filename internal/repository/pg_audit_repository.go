package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"lesson-server/internal/models"
)

// Compile-time check to ensure pgAuditRepository implements AuditRepository
var _ AuditRepository = (*pgAuditRepository)(nil)

type pgAuditRepository struct {
	logger *zap.Logger
}

// NewPgAuditRepository создает Postgres-реализацию AuditRepository.
func NewPgAuditRepository(logger *zap.Logger) AuditRepository {
	return &pgAuditRepository{logger: logger.Named("PgAuditRepo")}
}

func (r *pgAuditRepository) Insert(ctx context.Context, querier DBTX, entry *models.AuditEntry) error {
	meta := entry.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	query := `INSERT INTO audit_log (actor_id, action, entity_type, entity_id, meta)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING id, created_at`
	err := querier.QueryRow(ctx, query, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID, meta).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert audit entry", zap.Error(err),
			zap.String("action", entry.Action), zap.String("entityType", entry.EntityType))
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

const auditColumns = `id, actor_id, action, entity_type, entity_id, meta, created_at`

func (r *pgAuditRepository) scanEntries(rows pgx.Rows) ([]*models.AuditEntry, error) {
	defer rows.Close()
	var entries []*models.AuditEntry
	for rows.Next() {
		var e models.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Meta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit rows iteration error: %w", err)
	}
	return entries, nil
}

func (r *pgAuditRepository) ListByEntity(ctx context.Context, querier DBTX, entityType, entityID string, limit, offset int) ([]*models.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_log
              WHERE entity_type = $1 AND entity_id = $2
              ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := querier.Query(ctx, query, entityType, entityID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list audit entries by entity", zap.Error(err), zap.String("entityType", entityType))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return r.scanEntries(rows)
}

func (r *pgAuditRepository) ListRecent(ctx context.Context, querier DBTX, limit, offset int) ([]*models.AuditEntry, error) {
	query := `SELECT ` + auditColumns + ` FROM audit_log ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list recent audit entries", zap.Error(err))
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return r.scanEntries(rows)
}
