package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lesson-server/internal/models"
)

// Compile-time check to ensure pgAIRepository implements AIRepository
var _ AIRepository = (*pgAIRepository)(nil)

type pgAIRepository struct {
	logger *zap.Logger
}

// NewPgAIRepository создает Postgres-реализацию AIRepository.
func NewPgAIRepository(logger *zap.Logger) AIRepository {
	return &pgAIRepository{logger: logger.Named("PgAIRepo")}
}

// GetSettings читает единственную строку настроек (id = 1).
func (r *pgAIRepository) GetSettings(ctx context.Context, querier DBTX) (models.AIServiceSettings, error) {
	var s models.AIServiceSettings
	query := `SELECT is_enabled, daily_limit_per_user, bypass_limit_for_staff, updated_at
              FROM ai_service_settings WHERE id = 1`
	err := querier.QueryRow(ctx, query).Scan(&s.IsEnabled, &s.DailyLimitPerUser, &s.BypassLimitForStaff, &s.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to get AI settings", zap.Error(err))
		return models.AIServiceSettings{}, fmt.Errorf("failed to get ai settings: %w", err)
	}
	return s, nil
}

func (r *pgAIRepository) UpdateSettings(ctx context.Context, querier DBTX, settings models.AIServiceSettings) error {
	query := `UPDATE ai_service_settings
              SET is_enabled = $1, daily_limit_per_user = $2, bypass_limit_for_staff = $3, updated_at = now()
              WHERE id = 1`
	if _, err := querier.Exec(ctx, query, settings.IsEnabled, settings.DailyLimitPerUser, settings.BypassLimitForStaff); err != nil {
		r.logger.Error("Failed to update AI settings", zap.Error(err))
		return fmt.Errorf("failed to update ai settings: %w", err)
	}
	return nil
}

func (r *pgAIRepository) CountGenerationsBetween(ctx context.Context, querier DBTX, userID uuid.UUID, from, to time.Time) (int, error) {
	var n int
	query := `SELECT count(*) FROM ai_generation_log
              WHERE user_id = $1 AND created_at >= $2 AND created_at < $3`
	if err := querier.QueryRow(ctx, query, userID, from, to).Scan(&n); err != nil {
		r.logger.Error("Failed to count generations", zap.Error(err), zap.String("userID", userID.String()))
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return n, nil
}

func (r *pgAIRepository) InsertGeneration(ctx context.Context, querier DBTX, entry *models.AIGenerationLog) error {
	params := entry.Params
	if params == nil {
		params = map[string]any{}
	}
	query := `INSERT INTO ai_generation_log (user_id, scenario_id, provider, model, ai_mode, prompt, result, params)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
              RETURNING id, created_at`
	err := querier.QueryRow(ctx, query,
		entry.UserID, entry.ScenarioID, entry.Provider, entry.Model, entry.AIMode,
		entry.Prompt, entry.Result, params,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert generation log", zap.Error(err), zap.String("userID", entry.UserID.String()))
		return fmt.Errorf("failed to insert generation log: %w", err)
	}
	return nil
}

func (r *pgAIRepository) UpdateGeneration(ctx context.Context, querier DBTX, entry *models.AIGenerationLog) error {
	query := `UPDATE ai_generation_log SET result = $2, model = $3 WHERE id = $1`
	if _, err := querier.Exec(ctx, query, entry.ID, entry.Result, entry.Model); err != nil {
		r.logger.Error("Failed to update generation log", zap.Error(err), zap.Int64("entryID", entry.ID))
		return fmt.Errorf("failed to update generation log: %w", err)
	}
	return nil
}

func (r *pgAIRepository) ListGenerations(ctx context.Context, querier DBTX, userID uuid.UUID, limit, offset int) ([]*models.AIGenerationLog, error) {
	query := `SELECT id, user_id, scenario_id, provider, model, ai_mode, params, created_at
              FROM ai_generation_log WHERE user_id = $1
              ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := querier.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list generations", zap.Error(err), zap.String("userID", userID.String()))
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var entries []*models.AIGenerationLog
	for rows.Next() {
		var e models.AIGenerationLog
		if err := rows.Scan(&e.ID, &e.UserID, &e.ScenarioID, &e.Provider, &e.Model, &e.AIMode, &e.Params, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation log: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("generation rows iteration error: %w", err)
	}
	return entries, nil
}
