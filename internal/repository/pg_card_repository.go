package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"lesson-server/internal/models"
)

// Compile-time check to ensure pgCardRepository implements CardRepository
var _ CardRepository = (*pgCardRepository)(nil)

type pgCardRepository struct {
	logger *zap.Logger
}

// NewPgCardRepository создает Postgres-реализацию CardRepository.
func NewPgCardRepository(logger *zap.Logger) CardRepository {
	return &pgCardRepository{logger: logger.Named("PgCardRepo")}
}

const cardColumns = `id, owner_id, author_id, title, description_html, duration_min,
	age_a1, age_a2, age_a3, activity_type, work_individual, work_group, bloom_level,
	k_critical, k_creative, k_communication, k_collaboration,
	stage_start, stage_core, stage_final, card_kind, status,
	moderated_by, moderated_at, archived_at, created_at, updated_at`

func scanCard(row pgx.Row) (*models.TechniqueCard, error) {
	var c models.TechniqueCard
	err := row.Scan(
		&c.ID, &c.OwnerID, &c.AuthorID, &c.Title, &c.DescriptionHTML, &c.DurationMin,
		&c.AgeA1, &c.AgeA2, &c.AgeA3, &c.ActivityType, &c.WorkIndividual, &c.WorkGroup, &c.BloomLevel,
		&c.KCritical, &c.KCreative, &c.KCommunication, &c.KCollaboration,
		&c.StageStart, &c.StageCore, &c.StageFinal, &c.CardKind, &c.Status,
		&c.ModeratedBy, &c.ModeratedAt, &c.ArchivedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pgCardRepository) Create(ctx context.Context, querier DBTX, card *models.TechniqueCard) error {
	query := `INSERT INTO technique_cards (
		owner_id, author_id, title, description_html, duration_min,
		age_a1, age_a2, age_a3, activity_type, work_individual, work_group, bloom_level,
		k_critical, k_creative, k_communication, k_collaboration,
		stage_start, stage_core, stage_final, card_kind, status)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
	RETURNING id, created_at, updated_at`
	err := querier.QueryRow(ctx, query,
		card.OwnerID, card.AuthorID, card.Title, card.DescriptionHTML, card.DurationMin,
		card.AgeA1, card.AgeA2, card.AgeA3, card.ActivityType, card.WorkIndividual, card.WorkGroup, card.BloomLevel,
		card.KCritical, card.KCreative, card.KCommunication, card.KCollaboration,
		card.StageStart, card.StageCore, card.StageFinal, card.CardKind, card.Status,
	).Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to create card", zap.Error(err), zap.String("title", card.Title))
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

func (r *pgCardRepository) GetByID(ctx context.Context, querier DBTX, id int64) (*models.TechniqueCard, error) {
	query := `SELECT ` + cardColumns + ` FROM technique_cards WHERE id = $1`
	c, err := scanCard(querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrCardNotFound
		}
		r.logger.Error("Failed to get card", zap.Error(err), zap.Int64("cardID", id))
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return c, nil
}

func (r *pgCardRepository) Update(ctx context.Context, querier DBTX, card *models.TechniqueCard) error {
	query := `UPDATE technique_cards SET
		title = $2, description_html = $3, duration_min = $4,
		age_a1 = $5, age_a2 = $6, age_a3 = $7, activity_type = $8,
		work_individual = $9, work_group = $10, bloom_level = $11,
		k_critical = $12, k_creative = $13, k_communication = $14, k_collaboration = $15,
		stage_start = $16, stage_core = $17, stage_final = $18, card_kind = $19,
		status = $20, moderated_by = $21, moderated_at = $22, archived_at = $23,
		updated_at = now()
	WHERE id = $1`
	tag, err := querier.Exec(ctx, query,
		card.ID, card.Title, card.DescriptionHTML, card.DurationMin,
		card.AgeA1, card.AgeA2, card.AgeA3, card.ActivityType,
		card.WorkIndividual, card.WorkGroup, card.BloomLevel,
		card.KCritical, card.KCreative, card.KCommunication, card.KCollaboration,
		card.StageStart, card.StageCore, card.StageFinal, card.CardKind,
		card.Status, card.ModeratedBy, card.ModeratedAt, card.ArchivedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update card", zap.Error(err), zap.Int64("cardID", card.ID))
		return fmt.Errorf("failed to update card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrCardNotFound
	}
	return nil
}

func (r *pgCardRepository) Delete(ctx context.Context, querier DBTX, id int64) error {
	tag, err := querier.Exec(ctx, `DELETE FROM technique_cards WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete card", zap.Error(err), zap.Int64("cardID", id))
		return fmt.Errorf("failed to delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrCardNotFound
	}
	return nil
}

func (r *pgCardRepository) CountScenarioUsage(ctx context.Context, querier DBTX, cardID int64) (int, error) {
	var n int
	err := querier.QueryRow(ctx, `SELECT count(*) FROM scenario_items WHERE technique_card_id = $1`, cardID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count scenario usage: %w", err)
	}
	return n, nil
}

// boolGroup собирает условие по группе булевых колонок с учетом режима any/all.
func boolGroup(cols []string, match models.MatchMode) string {
	if len(cols) == 0 {
		return ""
	}
	op := " OR "
	if match == models.MatchAll {
		op = " AND "
	}
	return "(" + strings.Join(cols, op) + ")"
}

var ageColumns = map[string]string{
	"a1": "age_a1",
	"a2": "age_a2",
	"a3": "age_a3",
}

var workColumns = map[string]string{
	"individual": "work_individual",
	"group":      "work_group",
}

var competencyColumns = map[string]string{
	"critical":      "k_critical",
	"creative":      "k_creative",
	"communication": "k_communication",
	"collaboration": "k_collaboration",
}

var stageColumns = map[string]string{
	"start": "stage_start",
	"core":  "stage_core",
	"final": "stage_final",
}

func (r *pgCardRepository) List(ctx context.Context, querier DBTX, viewerID uuid.UUID, filter models.CardFilter) ([]*models.TechniqueCard, int, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch filter.Scope {
	case "mine":
		conds = append(conds, "owner_id = "+arg(viewerID), "archived_at IS NULL")
	case "moderation":
		conds = append(conds, "status = 'pending'")
	default:
		// Каталог: публичные карточки плюс собственные неархивные.
		// Для анонима viewerID нулевой и вторая ветка не срабатывает.
		conds = append(conds, "(status = 'public' OR (owner_id = "+arg(viewerID)+" AND status <> 'archived'))")
	}

	if filter.Search != "" {
		pattern := arg("%" + filter.Search + "%")
		conds = append(conds, "(title ILIKE "+pattern+" OR description_html ILIKE "+pattern+")")
	}
	if filter.ActivityType != "" {
		conds = append(conds, "activity_type = "+arg(filter.ActivityType))
	}
	if len(filter.BloomLevels) > 0 {
		conds = append(conds, "bloom_level = ANY("+arg(filter.BloomLevels)+")")
	}
	if len(filter.CardKinds) > 0 {
		conds = append(conds, "card_kind = ANY("+arg(filter.CardKinds)+")")
	}
	if filter.DurationMax != nil {
		conds = append(conds, "duration_min <= "+arg(*filter.DurationMax))
	}

	if cond := boolGroup(mapColumns(filter.Ages, ageColumns), filter.AgeMatch); cond != "" {
		conds = append(conds, cond)
	}
	if cond := boolGroup(mapColumns(filter.WorkForms, workColumns), filter.WorkMatch); cond != "" {
		conds = append(conds, cond)
	}
	if cond := boolGroup(mapColumns(filter.Competencies, competencyColumns), filter.CompMatch); cond != "" {
		conds = append(conds, cond)
	}
	if cond := boolGroup(mapColumns(filter.Stages, stageColumns), filter.StageMatch); cond != "" {
		conds = append(conds, cond)
	}

	where := "WHERE " + strings.Join(conds, " AND ")

	var total int
	countQuery := `SELECT count(*) FROM technique_cards ` + where
	if err := querier.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count cards", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to count cards: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	listQuery := `SELECT ` + cardColumns + ` FROM technique_cards ` + where +
		` ORDER BY title, id LIMIT ` + arg(limit) + ` OFFSET ` + arg(filter.Offset)

	rows, err := querier.Query(ctx, listQuery, args...)
	if err != nil {
		r.logger.Error("Failed to list cards", zap.Error(err))
		return nil, 0, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []*models.TechniqueCard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("card rows iteration error: %w", err)
	}
	return cards, total, nil
}

// mapColumns переводит значения фильтра в имена колонок, неизвестные значения
// отбрасываются (валидация происходит на уровне хендлера).
func mapColumns(values []string, mapping map[string]string) []string {
	cols := make([]string, 0, len(values))
	for _, v := range values {
		if col, ok := mapping[v]; ok {
			cols = append(cols, col)
		}
	}
	return cols
}
