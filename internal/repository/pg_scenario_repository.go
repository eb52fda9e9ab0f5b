package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"lesson-server/internal/models"
)

// Compile-time check to ensure pgScenarioRepository implements ScenarioRepository
var _ ScenarioRepository = (*pgScenarioRepository)(nil)

type pgScenarioRepository struct {
	logger *zap.Logger
}

// NewPgScenarioRepository создает Postgres-реализацию ScenarioRepository.
func NewPgScenarioRepository(logger *zap.Logger) ScenarioRepository {
	return &pgScenarioRepository{logger: logger.Named("PgScenarioRepo")}
}

const scenarioColumns = `id, owner_id, name, note, grade, subject, goal,
	emotionality, day_time, group_size, duration_min, teacher_notes,
	subject_content, plan_text, ai_mode, created_at, updated_at`

func scanScenario(row pgx.Row) (*models.Scenario, error) {
	var s models.Scenario
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Name, &s.Note, &s.Grade, &s.Subject, &s.Goal,
		&s.Emotionality, &s.DayTime, &s.GroupSize, &s.DurationMin, &s.TeacherNotes,
		&s.SubjectContent, &s.PlanText, &s.AIMode, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *pgScenarioRepository) Create(ctx context.Context, querier DBTX, scenario *models.Scenario) error {
	query := `INSERT INTO scenarios (
		owner_id, name, note, grade, subject, goal,
		emotionality, day_time, group_size, duration_min, teacher_notes,
		subject_content, plan_text, ai_mode)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	RETURNING id, created_at, updated_at`
	err := querier.QueryRow(ctx, query,
		scenario.OwnerID, scenario.Name, scenario.Note, scenario.Grade, scenario.Subject, scenario.Goal,
		scenario.Emotionality, scenario.DayTime, scenario.GroupSize, scenario.DurationMin, scenario.TeacherNotes,
		scenario.SubjectContent, scenario.PlanText, scenario.AIMode,
	).Scan(&scenario.ID, &scenario.CreatedAt, &scenario.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "uniq_default_scenario_per_owner" {
			// Рабочий сценарий у владельца уже есть.
			return models.ErrScenarioIsDefault
		}
		r.logger.Error("Failed to create scenario", zap.Error(err), zap.String("ownerID", scenario.OwnerID.String()))
		return fmt.Errorf("failed to create scenario: %w", err)
	}
	return nil
}

func (r *pgScenarioRepository) GetByID(ctx context.Context, querier DBTX, id int64) (*models.Scenario, error) {
	query := `SELECT ` + scenarioColumns + ` FROM scenarios WHERE id = $1`
	s, err := scanScenario(querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrScenarioNotFound
		}
		r.logger.Error("Failed to get scenario", zap.Error(err), zap.Int64("scenarioID", id))
		return nil, fmt.Errorf("failed to get scenario: %w", err)
	}
	return s, nil
}

func (r *pgScenarioRepository) GetDefault(ctx context.Context, querier DBTX, ownerID uuid.UUID) (*models.Scenario, error) {
	return r.getDefault(ctx, querier, ownerID, "")
}

func (r *pgScenarioRepository) GetDefaultForUpdate(ctx context.Context, querier DBTX, ownerID uuid.UUID) (*models.Scenario, error) {
	return r.getDefault(ctx, querier, ownerID, " FOR UPDATE")
}

func (r *pgScenarioRepository) getDefault(ctx context.Context, querier DBTX, ownerID uuid.UUID, suffix string) (*models.Scenario, error) {
	query := `SELECT ` + scenarioColumns + ` FROM scenarios WHERE owner_id = $1 AND name IS NULL` + suffix
	s, err := scanScenario(querier.QueryRow(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrScenarioNotFound
		}
		r.logger.Error("Failed to get default scenario", zap.Error(err), zap.String("ownerID", ownerID.String()))
		return nil, fmt.Errorf("failed to get default scenario: %w", err)
	}
	return s, nil
}

func (r *pgScenarioRepository) ListNamed(ctx context.Context, querier DBTX, ownerID uuid.UUID) ([]*models.Scenario, error) {
	query := `SELECT ` + scenarioColumns + ` FROM scenarios
              WHERE owner_id = $1 AND name IS NOT NULL
              ORDER BY updated_at DESC, id DESC`
	rows, err := querier.Query(ctx, query, ownerID)
	if err != nil {
		r.logger.Error("Failed to list scenarios", zap.Error(err), zap.String("ownerID", ownerID.String()))
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	defer rows.Close()

	var result []*models.Scenario
	for rows.Next() {
		s, err := scanScenario(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario row: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scenario rows iteration error: %w", err)
	}
	return result, nil
}

func (r *pgScenarioRepository) Update(ctx context.Context, querier DBTX, scenario *models.Scenario) error {
	query := `UPDATE scenarios SET
		name = $2, note = $3, grade = $4, subject = $5, goal = $6,
		emotionality = $7, day_time = $8, group_size = $9, duration_min = $10,
		teacher_notes = $11, subject_content = $12, plan_text = $13, ai_mode = $14,
		updated_at = now()
	WHERE id = $1`
	tag, err := querier.Exec(ctx, query,
		scenario.ID, scenario.Name, scenario.Note, scenario.Grade, scenario.Subject, scenario.Goal,
		scenario.Emotionality, scenario.DayTime, scenario.GroupSize, scenario.DurationMin,
		scenario.TeacherNotes, scenario.SubjectContent, scenario.PlanText, scenario.AIMode,
	)
	if err != nil {
		r.logger.Error("Failed to update scenario", zap.Error(err), zap.Int64("scenarioID", scenario.ID))
		return fmt.Errorf("failed to update scenario: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrScenarioNotFound
	}
	return nil
}

func (r *pgScenarioRepository) Delete(ctx context.Context, querier DBTX, id int64) error {
	tag, err := querier.Exec(ctx, `DELETE FROM scenarios WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete scenario", zap.Error(err), zap.Int64("scenarioID", id))
		return fmt.Errorf("failed to delete scenario: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrScenarioNotFound
	}
	return nil
}

func (r *pgScenarioRepository) ListItems(ctx context.Context, querier DBTX, scenarioID int64) ([]models.ScenarioItem, error) {
	query := `SELECT id, scenario_id, technique_card_id, position, custom_duration_min, created_at
              FROM scenario_items WHERE scenario_id = $1 ORDER BY position`
	rows, err := querier.Query(ctx, query, scenarioID)
	if err != nil {
		r.logger.Error("Failed to list scenario items", zap.Error(err), zap.Int64("scenarioID", scenarioID))
		return nil, fmt.Errorf("failed to list scenario items: %w", err)
	}
	defer rows.Close()

	var items []models.ScenarioItem
	for rows.Next() {
		var it models.ScenarioItem
		if err := rows.Scan(&it.ID, &it.ScenarioID, &it.TechniqueCardID, &it.Position, &it.CustomDurationMin, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scenario item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scenario item rows iteration error: %w", err)
	}
	return items, nil
}

func (r *pgScenarioRepository) ListItemsWithCards(ctx context.Context, querier DBTX, scenarioID int64) ([]models.ScenarioItem, error) {
	query := `SELECT i.id, i.scenario_id, i.technique_card_id, i.position, i.custom_duration_min, i.created_at,
	                 ` + prefixColumns("c", cardColumns) + `
              FROM scenario_items i
              JOIN technique_cards c ON c.id = i.technique_card_id
              WHERE i.scenario_id = $1
              ORDER BY i.position`
	rows, err := querier.Query(ctx, query, scenarioID)
	if err != nil {
		r.logger.Error("Failed to list scenario items with cards", zap.Error(err), zap.Int64("scenarioID", scenarioID))
		return nil, fmt.Errorf("failed to list scenario items with cards: %w", err)
	}
	defer rows.Close()

	var items []models.ScenarioItem
	for rows.Next() {
		var (
			it models.ScenarioItem
			c  models.TechniqueCard
		)
		err := rows.Scan(
			&it.ID, &it.ScenarioID, &it.TechniqueCardID, &it.Position, &it.CustomDurationMin, &it.CreatedAt,
			&c.ID, &c.OwnerID, &c.AuthorID, &c.Title, &c.DescriptionHTML, &c.DurationMin,
			&c.AgeA1, &c.AgeA2, &c.AgeA3, &c.ActivityType, &c.WorkIndividual, &c.WorkGroup, &c.BloomLevel,
			&c.KCritical, &c.KCreative, &c.KCommunication, &c.KCollaboration,
			&c.StageStart, &c.StageCore, &c.StageFinal, &c.CardKind, &c.Status,
			&c.ModeratedBy, &c.ModeratedAt, &c.ArchivedAt, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenario item with card: %w", err)
		}
		it.Card = &c
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("scenario item rows iteration error: %w", err)
	}
	return items, nil
}

func (r *pgScenarioRepository) ReplaceItems(ctx context.Context, querier DBTX, scenarioID int64, items []models.ScenarioItem) error {
	if err := r.DeleteItems(ctx, querier, scenarioID); err != nil {
		return err
	}
	for i := range items {
		query := `INSERT INTO scenario_items (scenario_id, technique_card_id, position, custom_duration_min)
                  VALUES ($1, $2, $3, $4)
                  RETURNING id, created_at`
		err := querier.QueryRow(ctx, query,
			scenarioID, items[i].TechniqueCardID, items[i].Position, items[i].CustomDurationMin,
		).Scan(&items[i].ID, &items[i].CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return models.ErrDuplicatePosition
			}
			r.logger.Error("Failed to insert scenario item", zap.Error(err), zap.Int64("scenarioID", scenarioID))
			return fmt.Errorf("failed to insert scenario item: %w", err)
		}
		items[i].ScenarioID = scenarioID
	}
	return nil
}

func (r *pgScenarioRepository) CopyItems(ctx context.Context, querier DBTX, fromID, toID int64) error {
	query := `INSERT INTO scenario_items (scenario_id, technique_card_id, position, custom_duration_min)
              SELECT $2, technique_card_id, position, custom_duration_min
              FROM scenario_items WHERE scenario_id = $1`
	if _, err := querier.Exec(ctx, query, fromID, toID); err != nil {
		r.logger.Error("Failed to copy scenario items", zap.Error(err),
			zap.Int64("fromID", fromID), zap.Int64("toID", toID))
		return fmt.Errorf("failed to copy scenario items: %w", err)
	}
	return nil
}

// prefixColumns добавляет алиас таблицы к каждому имени колонки в списке.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func (r *pgScenarioRepository) DeleteItems(ctx context.Context, querier DBTX, scenarioID int64) error {
	if _, err := querier.Exec(ctx, `DELETE FROM scenario_items WHERE scenario_id = $1`, scenarioID); err != nil {
		r.logger.Error("Failed to delete scenario items", zap.Error(err), zap.Int64("scenarioID", scenarioID))
		return fmt.Errorf("failed to delete scenario items: %w", err)
	}
	return nil
}
