package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lesson-server/internal/ai"
	"lesson-server/internal/models"
	"lesson-server/internal/repository"
)

// GenerateRequest - параметры запроса генерации план-конспекта.
type GenerateRequest struct {
	ScenarioID int64  `json:"scenario_id"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	// SubjectContent подменяет предметное содержание сценария только в
	// промпте, сам сценарий не меняется.
	SubjectContent string   `json:"subject_content"`
	Temperature    *float64 `json:"temperature"`
}

// GenerationService запускает генерацию план-конспекта с учетом глобальных
// настроек и суточного лимита пользователя.
type GenerationService interface {
	Generate(ctx context.Context, actor *models.User, req GenerateRequest) (*models.GenerationResult, error)
	GetSettings(ctx context.Context) (models.AIServiceSettings, error)
	UpdateSettings(ctx context.Context, actor *models.User, settings models.AIServiceSettings) (models.AIServiceSettings, error)
	History(ctx context.Context, actor *models.User, limit, offset int) ([]*models.AIGenerationLog, error)
	ListProviders() []string
}

// Compile-time check
var _ GenerationService = (*generationServiceImpl)(nil)

type generationServiceImpl struct {
	db           repository.DBTX
	scenarioRepo repository.ScenarioRepository
	aiRepo       repository.AIRepository
	registry     *ai.Registry
	audit        AuditLogger
	logger       *zap.Logger
	now          func() time.Time
}

// NewGenerationService создает сервис генерации.
func NewGenerationService(
	db repository.DBTX,
	scenarioRepo repository.ScenarioRepository,
	aiRepo repository.AIRepository,
	registry *ai.Registry,
	audit AuditLogger,
	logger *zap.Logger,
) GenerationService {
	return &generationServiceImpl{
		db:           db,
		scenarioRepo: scenarioRepo,
		aiRepo:       aiRepo,
		registry:     registry,
		audit:        audit,
		logger:       logger.Named("GenerationService"),
		now:          time.Now,
	}
}

// todayRange возвращает границы текущих суток в локальном времени [start, end).
func todayRange(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

func (s *generationServiceImpl) Generate(ctx context.Context, actor *models.User, req GenerateRequest) (*models.GenerationResult, error) {
	scenario, err := s.scenarioRepo.GetByID(ctx, s.db, req.ScenarioID)
	if err != nil {
		return nil, err
	}
	if scenario.OwnerID != actor.ID {
		return nil, models.ErrScenarioNotFound
	}

	// Настройки читаются на каждый запрос: правка админа действует сразу.
	settings, err := s.aiRepo.GetSettings(ctx, s.db)
	if err != nil {
		return nil, err
	}

	staff := models.IsModerator(actor.Role) && settings.BypassLimitForStaff

	if !settings.IsEnabled && !staff {
		return nil, models.ErrGenerationDisabled
	}

	start, end := todayRange(s.now())
	used, err := s.aiRepo.CountGenerationsBetween(ctx, s.db, actor.ID, start, end)
	if err != nil {
		return nil, err
	}
	if !staff && used >= settings.DailyLimitPerUser {
		return nil, fmt.Errorf("%w: %d в сутки", models.ErrDailyLimitReached, settings.DailyLimitPerUser)
	}

	provider, err := s.registry.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	items, err := s.scenarioRepo.ListItemsWithCards(ctx, s.db, scenario.ID)
	if err != nil {
		return nil, err
	}

	input := ai.BuildLessonInput(scenario, items)
	if req.SubjectContent != "" {
		input.SubjectContent = req.SubjectContent
	}
	prompt, userContent, err := ai.BuildPrompt(input, scenario.AIMode)
	if err != nil {
		return nil, err
	}

	params := ai.Params{
		AIMode:      scenario.AIMode,
		Temperature: req.Temperature,
		Model:       req.Model,
		UserContent: userContent,
	}

	promptTokens := ai.EstimatePromptTokens(req.Model, prompt)
	ai.ObservePromptTokens(req.Model, promptTokens)
	s.logger.Info("Starting plan generation",
		zap.Int64("scenarioID", scenario.ID),
		zap.String("userID", actor.ID.String()),
		zap.String("provider", provider.Name()),
		zap.Int("promptTokensEstimate", promptTokens))

	// Запись в журнал создается до обращения к провайдеру: неудачная
	// попытка тоже расходует лимит.
	entry := &models.AIGenerationLog{
		UserID:     actor.ID,
		ScenarioID: scenario.ID,
		Provider:   provider.Name(),
		AIMode:     scenario.AIMode,
		Prompt:     prompt,
		Params: map[string]any{
			"requested_model": req.Model,
		},
	}
	if err := s.aiRepo.InsertGeneration(ctx, s.db, entry); err != nil {
		return nil, err
	}

	result, genErr := provider.GeneratePlan(ctx, prompt, params)
	if genErr != nil {
		entry.Result = "ERROR: " + genErr.Error()
		// Ошибка записи результата не должна заслонить ошибку провайдера.
		if updErr := s.aiRepo.UpdateGeneration(ctx, s.db, entry); updErr != nil {
			s.logger.Error("Failed to record generation error", zap.Error(updErr))
		}
		s.logger.Warn("Plan generation failed",
			zap.Int64("scenarioID", scenario.ID),
			zap.String("provider", provider.Name()),
			zap.Error(genErr))
		return nil, genErr
	}

	entry.Result = result.Text
	entry.Model = result.Model
	if err := s.aiRepo.UpdateGeneration(ctx, s.db, entry); err != nil {
		return nil, err
	}

	scenario.PlanText = result.Text
	if err := s.scenarioRepo.Update(ctx, s.db, scenario); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &actor.ID, models.AuditActionGenerate, models.EntityAIGeneration,
		fmt.Sprintf("%d", entry.ID), map[string]any{
			"scenario_id": scenario.ID,
			"provider":    provider.Name(),
			"model":       result.Model,
		})

	remaining := settings.DailyLimitPerUser - used - 1
	if remaining < 0 {
		remaining = 0
	}

	return &models.GenerationResult{
		PlanText:  result.Text,
		Provider:  provider.Name(),
		Model:     result.Model,
		Remaining: remaining,
	}, nil
}

func (s *generationServiceImpl) GetSettings(ctx context.Context) (models.AIServiceSettings, error) {
	return s.aiRepo.GetSettings(ctx, s.db)
}

func (s *generationServiceImpl) UpdateSettings(ctx context.Context, actor *models.User, settings models.AIServiceSettings) (models.AIServiceSettings, error) {
	if actor.Role != models.RoleAdmin {
		return models.AIServiceSettings{}, models.ErrPermissionDenied
	}
	if settings.DailyLimitPerUser < 0 {
		return models.AIServiceSettings{}, fmt.Errorf("%w: лимит не может быть отрицательным", models.ErrValidation)
	}
	if err := s.aiRepo.UpdateSettings(ctx, s.db, settings); err != nil {
		return models.AIServiceSettings{}, err
	}
	s.audit.Log(ctx, &actor.ID, models.AuditActionUpdate, models.EntityAIGeneration, "settings", map[string]any{
		"is_enabled":           settings.IsEnabled,
		"daily_limit_per_user": settings.DailyLimitPerUser,
	})
	return s.aiRepo.GetSettings(ctx, s.db)
}

func (s *generationServiceImpl) History(ctx context.Context, actor *models.User, limit, offset int) ([]*models.AIGenerationLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.aiRepo.ListGenerations(ctx, s.db, actor.ID, limit, offset)
}

func (s *generationServiceImpl) ListProviders() []string {
	return s.registry.List()
}
