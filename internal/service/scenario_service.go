package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lesson-server/internal/models"
	"lesson-server/internal/repository"
)

// ScenarioPatch - частичное обновление сценария. nil означает "не менять".
type ScenarioPatch struct {
	Name           *string `json:"name"`
	Note           *string `json:"note"`
	Grade          *int    `json:"grade"`
	Subject        *string `json:"subject"`
	Goal           *string `json:"goal"`
	Emotionality   *string `json:"emotionality"`
	DayTime        *string `json:"day_time"`
	GroupSize      *int    `json:"group_size"`
	DurationMin    *int    `json:"duration_min"`
	TeacherNotes   *string `json:"teacher_notes"`
	SubjectContent *string `json:"subject_content"`
	PlanText       *string `json:"plan_text"`
	AIMode         *string `json:"ai_mode"`
}

// ScenarioItemInput - одна позиция в autosave-запросе.
type ScenarioItemInput struct {
	TechniqueCardID   int64 `json:"technique_card"`
	Position          int   `json:"position"`
	CustomDurationMin *int  `json:"custom_duration_min"`
}

// ScenarioService управляет сценариями: рабочим (default), именованными,
// копированием и автосохранением позиций.
type ScenarioService interface {
	// GetDefault возвращает рабочий сценарий пользователя, создавая его при
	// первом обращении.
	GetDefault(ctx context.Context, actor *models.User) (*models.Scenario, error)
	Get(ctx context.Context, actor *models.User, id int64) (*models.Scenario, error)
	ListNamed(ctx context.Context, actor *models.User) ([]*models.Scenario, error)
	Patch(ctx context.Context, actor *models.User, id int64, patch ScenarioPatch) (*models.Scenario, error)
	// Delete удаляет именованный сценарий. Рабочий сценарий удалить нельзя.
	Delete(ctx context.Context, actor *models.User, id int64) error
	// SaveAs снимает именованную копию рабочего сценария и очищает его позиции.
	SaveAs(ctx context.Context, actor *models.User, name string) (*models.Scenario, error)
	// Duplicate создает копию именованного сценария с именем "<name> (копия)".
	Duplicate(ctx context.Context, actor *models.User, id int64) (*models.Scenario, error)
	// AutosaveItems полностью заменяет позиции сценария.
	AutosaveItems(ctx context.Context, actor *models.User, id int64, items []ScenarioItemInput) (*models.Scenario, error)
}

// Compile-time check
var _ ScenarioService = (*scenarioServiceImpl)(nil)

type scenarioServiceImpl struct {
	db           repository.DBTX
	tx           repository.TxManager
	scenarioRepo repository.ScenarioRepository
	cardRepo     repository.CardRepository
	audit        AuditLogger
	logger       *zap.Logger
}

// NewScenarioService создает сервис сценариев.
func NewScenarioService(
	db repository.DBTX,
	tx repository.TxManager,
	scenarioRepo repository.ScenarioRepository,
	cardRepo repository.CardRepository,
	audit AuditLogger,
	logger *zap.Logger,
) ScenarioService {
	return &scenarioServiceImpl{
		db:           db,
		tx:           tx,
		scenarioRepo: scenarioRepo,
		cardRepo:     cardRepo,
		audit:        audit,
		logger:       logger.Named("ScenarioService"),
	}
}

func (s *scenarioServiceImpl) GetDefault(ctx context.Context, actor *models.User) (*models.Scenario, error) {
	scenario, err := s.scenarioRepo.GetDefault(ctx, s.db, actor.ID)
	if err == nil {
		return s.withItems(ctx, scenario)
	}
	if !errors.Is(err, models.ErrScenarioNotFound) {
		return nil, err
	}

	scenario = &models.Scenario{
		OwnerID:      actor.ID,
		Emotionality: models.EmotionalityModerate,
		DayTime:      models.DayTimeMiddle,
		DurationMin:  45,
		AIMode:       models.AIModeBalanced,
	}
	if err := s.scenarioRepo.Create(ctx, s.db, scenario); err != nil {
		// Конкурентное создание: рабочий сценарий уже появился.
		if errors.Is(err, models.ErrScenarioIsDefault) {
			existing, getErr := s.scenarioRepo.GetDefault(ctx, s.db, actor.ID)
			if getErr != nil {
				return nil, getErr
			}
			return s.withItems(ctx, existing)
		}
		return nil, err
	}

	s.audit.Log(ctx, &actor.ID, models.AuditActionCreate, models.EntityScenario,
		fmt.Sprintf("%d", scenario.ID), map[string]any{"default": true})
	scenario.Items = []models.ScenarioItem{}
	return scenario, nil
}

func (s *scenarioServiceImpl) withItems(ctx context.Context, scenario *models.Scenario) (*models.Scenario, error) {
	items, err := s.scenarioRepo.ListItemsWithCards(ctx, s.db, scenario.ID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.ScenarioItem{}
	}
	scenario.Items = items
	return scenario, nil
}

// getOwned возвращает сценарий, только если он принадлежит актору.
func (s *scenarioServiceImpl) getOwned(ctx context.Context, querier repository.DBTX, actorID uuid.UUID, id int64) (*models.Scenario, error) {
	scenario, err := s.scenarioRepo.GetByID(ctx, querier, id)
	if err != nil {
		return nil, err
	}
	if scenario.OwnerID != actorID {
		// Чужие сценарии неотличимы от отсутствующих.
		return nil, models.ErrScenarioNotFound
	}
	return scenario, nil
}

func (s *scenarioServiceImpl) Get(ctx context.Context, actor *models.User, id int64) (*models.Scenario, error) {
	scenario, err := s.getOwned(ctx, s.db, actor.ID, id)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, scenario)
}

func (s *scenarioServiceImpl) ListNamed(ctx context.Context, actor *models.User) ([]*models.Scenario, error) {
	return s.scenarioRepo.ListNamed(ctx, s.db, actor.ID)
}

func applyScenarioPatch(scenario *models.Scenario, patch ScenarioPatch) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return fmt.Errorf("%w: имя сценария не может быть пустым", models.ErrValidation)
		}
		if scenario.IsDefault() {
			return fmt.Errorf("%w: рабочему сценарию нельзя присвоить имя напрямую, используйте save-as", models.ErrValidation)
		}
		scenario.Name = &name
	}
	if patch.Note != nil {
		scenario.Note = *patch.Note
	}
	if patch.Grade != nil {
		if *patch.Grade < 1 || *patch.Grade > 11 {
			return fmt.Errorf("%w: класс должен быть от 1 до 11", models.ErrValidation)
		}
		scenario.Grade = patch.Grade
	}
	if patch.Subject != nil {
		scenario.Subject = patch.Subject
	}
	if patch.Goal != nil {
		scenario.Goal = patch.Goal
	}
	if patch.Emotionality != nil {
		if !models.ValidEmotionality(*patch.Emotionality) {
			return fmt.Errorf("%w: неизвестная эмоциональность %q", models.ErrValidation, *patch.Emotionality)
		}
		scenario.Emotionality = *patch.Emotionality
	}
	if patch.DayTime != nil {
		if !models.ValidDayTime(*patch.DayTime) {
			return fmt.Errorf("%w: неизвестное время дня %q", models.ErrValidation, *patch.DayTime)
		}
		scenario.DayTime = *patch.DayTime
	}
	if patch.GroupSize != nil {
		if *patch.GroupSize < 0 {
			return fmt.Errorf("%w: размер группы не может быть отрицательным", models.ErrValidation)
		}
		scenario.GroupSize = *patch.GroupSize
	}
	if patch.DurationMin != nil {
		if *patch.DurationMin < 1 {
			return fmt.Errorf("%w: длительность должна быть положительной", models.ErrValidation)
		}
		scenario.DurationMin = *patch.DurationMin
	}
	if patch.TeacherNotes != nil {
		scenario.TeacherNotes = *patch.TeacherNotes
	}
	if patch.SubjectContent != nil {
		scenario.SubjectContent = *patch.SubjectContent
	}
	if patch.PlanText != nil {
		scenario.PlanText = *patch.PlanText
	}
	if patch.AIMode != nil {
		if !models.ValidAIMode(*patch.AIMode) {
			return fmt.Errorf("%w: неизвестный режим AI %q", models.ErrValidation, *patch.AIMode)
		}
		scenario.AIMode = *patch.AIMode
	}
	return nil
}

func (s *scenarioServiceImpl) Patch(ctx context.Context, actor *models.User, id int64, patch ScenarioPatch) (*models.Scenario, error) {
	scenario, err := s.getOwned(ctx, s.db, actor.ID, id)
	if err != nil {
		return nil, err
	}
	if err := applyScenarioPatch(scenario, patch); err != nil {
		return nil, err
	}
	if err := s.scenarioRepo.Update(ctx, s.db, scenario); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &actor.ID, models.AuditActionUpdate, models.EntityScenario,
		fmt.Sprintf("%d", scenario.ID), nil)
	return s.withItems(ctx, scenario)
}

func (s *scenarioServiceImpl) Delete(ctx context.Context, actor *models.User, id int64) error {
	scenario, err := s.getOwned(ctx, s.db, actor.ID, id)
	if err != nil {
		return err
	}
	if scenario.IsDefault() {
		return fmt.Errorf("%w: нельзя удалить рабочий сценарий", models.ErrScenarioIsDefault)
	}
	if err := s.scenarioRepo.Delete(ctx, s.db, id); err != nil {
		return err
	}

	s.audit.Log(ctx, &actor.ID, models.AuditActionDelete, models.EntityScenario,
		fmt.Sprintf("%d", id), nil)
	s.logger.Info("Scenario deleted", zap.Int64("scenarioID", id), zap.String("ownerID", actor.ID.String()))
	return nil
}

// nameExists проверяет занятость имени среди сценариев владельца.
func (s *scenarioServiceImpl) nameExists(ctx context.Context, querier repository.DBTX, actor *models.User, name string) (bool, error) {
	named, err := s.scenarioRepo.ListNamed(ctx, querier, actor.ID)
	if err != nil {
		return false, err
	}
	for _, sc := range named {
		if sc.Name != nil && *sc.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *scenarioServiceImpl) SaveAs(ctx context.Context, actor *models.User, name string) (*models.Scenario, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: имя сценария обязательно", models.ErrValidation)
	}

	var created *models.Scenario
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		// Блокируем рабочий сценарий: параллельный save-as не должен
		// разнести позиции по двум копиям.
		defaultScenario, err := s.scenarioRepo.GetDefaultForUpdate(ctx, tx, actor.ID)
		if err != nil {
			if errors.Is(err, models.ErrScenarioNotFound) {
				return fmt.Errorf("%w: рабочий сценарий пуст", models.ErrValidation)
			}
			return err
		}

		taken, err := s.nameExists(ctx, tx, actor, name)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: сценарий с именем %q уже существует", models.ErrValidation, name)
		}

		clone := *defaultScenario
		clone.ID = 0
		clone.Name = &name
		if err := s.scenarioRepo.Create(ctx, tx, &clone); err != nil {
			return err
		}
		if err := s.scenarioRepo.CopyItems(ctx, tx, defaultScenario.ID, clone.ID); err != nil {
			return err
		}
		// Рабочий сценарий остается той же записью, но очищается.
		if err := s.scenarioRepo.DeleteItems(ctx, tx, defaultScenario.ID); err != nil {
			return err
		}

		if err := s.audit.LogTx(ctx, tx, &actor.ID, models.AuditActionCreate, models.EntityScenario,
			fmt.Sprintf("%d", clone.ID), map[string]any{"save_as": true, "from_default": defaultScenario.ID}); err != nil {
			return err
		}
		created = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Scenario saved as named copy",
		zap.Int64("scenarioID", created.ID),
		zap.String("ownerID", actor.ID.String()))
	return s.withItems(ctx, created)
}

func (s *scenarioServiceImpl) Duplicate(ctx context.Context, actor *models.User, id int64) (*models.Scenario, error) {
	var created *models.Scenario
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		src, err := s.getOwned(ctx, tx, actor.ID, id)
		if err != nil {
			return err
		}
		if src.IsDefault() {
			return fmt.Errorf("%w: нельзя дублировать рабочий сценарий", models.ErrValidation)
		}

		base := *src.Name + " (копия)"
		newName := base
		for i := 2; ; i++ {
			taken, err := s.nameExists(ctx, tx, actor, newName)
			if err != nil {
				return err
			}
			if !taken {
				break
			}
			newName = fmt.Sprintf("%s %d", base, i)
		}

		clone := *src
		clone.ID = 0
		clone.Name = &newName
		if err := s.scenarioRepo.Create(ctx, tx, &clone); err != nil {
			return err
		}
		if err := s.scenarioRepo.CopyItems(ctx, tx, src.ID, clone.ID); err != nil {
			return err
		}

		if err := s.audit.LogTx(ctx, tx, &actor.ID, models.AuditActionCreate, models.EntityScenario,
			fmt.Sprintf("%d", clone.ID), map[string]any{"duplicate": true, "from": src.ID}); err != nil {
			return err
		}
		created = &clone
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Scenario duplicated",
		zap.Int64("sourceID", id),
		zap.Int64("scenarioID", created.ID))
	return s.withItems(ctx, created)
}

func (s *scenarioServiceImpl) AutosaveItems(ctx context.Context, actor *models.User, id int64, items []ScenarioItemInput) (*models.Scenario, error) {
	// Дубли позиций отсекаются до записи, чтобы клиент получил чистую
	// ошибку валидации, а не нарушение ограничения БД.
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if it.Position < 0 {
			return nil, fmt.Errorf("%w: позиция не может быть отрицательной", models.ErrValidation)
		}
		if it.CustomDurationMin != nil && *it.CustomDurationMin < 1 {
			return nil, fmt.Errorf("%w: длительность позиции должна быть положительной", models.ErrValidation)
		}
		if _, dup := seen[it.Position]; dup {
			return nil, fmt.Errorf("%w: позиция %d", models.ErrDuplicatePosition, it.Position)
		}
		seen[it.Position] = struct{}{}
	}

	var scenario *models.Scenario
	err := s.tx.WithTransaction(ctx, func(ctx context.Context, tx repository.DBTX) error {
		var err error
		scenario, err = s.getOwned(ctx, tx, actor.ID, id)
		if err != nil {
			return err
		}

		newItems := make([]models.ScenarioItem, 0, len(items))
		for _, it := range items {
			card, err := s.cardRepo.GetByID(ctx, tx, it.TechniqueCardID)
			if err != nil {
				if errors.Is(err, models.ErrCardNotFound) {
					return fmt.Errorf("%w: карточка %d не найдена", models.ErrValidation, it.TechniqueCardID)
				}
				return err
			}
			if !card.UsableInScenario(actor.ID) {
				return fmt.Errorf("%w: карточка %d", models.ErrCardNotUsable, it.TechniqueCardID)
			}
			newItems = append(newItems, models.ScenarioItem{
				TechniqueCardID:   it.TechniqueCardID,
				Position:          it.Position,
				CustomDurationMin: it.CustomDurationMin,
			})
		}

		if err := s.scenarioRepo.ReplaceItems(ctx, tx, scenario.ID, newItems); err != nil {
			return err
		}
		return s.audit.LogTx(ctx, tx, &actor.ID, models.AuditActionUpdate, models.EntityScenario,
			fmt.Sprintf("%d", scenario.ID), map[string]any{"autosave_items": true, "count": len(items)})
	})
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, scenario)
}
