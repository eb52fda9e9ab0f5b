package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lesson-server/internal/models"
	"lesson-server/internal/repository/mocks"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// passthroughTx настраивает мок транзакций на прямой прогон функции.
func passthroughTx() *mocks.TxManager {
	tx := new(mocks.TxManager)
	tx.On("WithTransaction", mock.Anything, mock.Anything).Return(nil).Maybe()
	return tx
}

func newScenarioService(scenarioRepo *mocks.ScenarioRepository, cardRepo *mocks.CardRepository) ScenarioService {
	return NewScenarioService(nil, passthroughTx(), scenarioRepo, cardRepo, relaxedAudit(), zap.NewNop())
}

func TestScenarioServiceGetDefault(t *testing.T) {
	ctx := context.Background()
	actor := testUser(models.RoleUser)

	t.Run("Existing default is returned with items", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		existing := &models.Scenario{ID: 3, OwnerID: actor.ID}
		scenarioRepo.On("GetDefault", ctx, mock.Anything, actor.ID).Return(existing, nil).Once()
		scenarioRepo.On("ListItemsWithCards", ctx, mock.Anything, int64(3)).
			Return([]models.ScenarioItem{{ID: 1, Position: 0}}, nil).Once()

		scenario, err := svc.GetDefault(ctx, actor)
		require.NoError(t, err)
		assert.Equal(t, int64(3), scenario.ID)
		assert.Len(t, scenario.Items, 1)
	})

	t.Run("Missing default is created on first access", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		scenarioRepo.On("GetDefault", ctx, mock.Anything, actor.ID).
			Return(nil, models.ErrScenarioNotFound).Once()
		scenarioRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(s *models.Scenario) bool {
			assert.Nil(t, s.Name)
			assert.Equal(t, actor.ID, s.OwnerID)
			assert.Equal(t, models.AIModeBalanced, s.AIMode)
			return true
		})).Return(nil).Once()

		scenario, err := svc.GetDefault(ctx, actor)
		require.NoError(t, err)
		assert.True(t, scenario.IsDefault())
		assert.NotNil(t, scenario.Items)
	})

	t.Run("Concurrent create falls back to existing default", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		existing := &models.Scenario{ID: 8, OwnerID: actor.ID}
		scenarioRepo.On("GetDefault", ctx, mock.Anything, actor.ID).
			Return(nil, models.ErrScenarioNotFound).Once()
		scenarioRepo.On("Create", ctx, mock.Anything, mock.Anything).
			Return(models.ErrScenarioIsDefault).Once()
		scenarioRepo.On("GetDefault", ctx, mock.Anything, actor.ID).Return(existing, nil).Once()
		scenarioRepo.On("ListItemsWithCards", ctx, mock.Anything, int64(8)).
			Return([]models.ScenarioItem{}, nil).Once()

		scenario, err := svc.GetDefault(ctx, actor)
		require.NoError(t, err)
		assert.Equal(t, int64(8), scenario.ID)
	})
}

func TestScenarioServicePatch(t *testing.T) {
	ctx := context.Background()
	actor := testUser(models.RoleUser)
	stranger := testUser(models.RoleUser)

	named := func() *models.Scenario {
		return &models.Scenario{ID: 4, OwnerID: actor.ID, Name: strPtr("Урок 1"), AIMode: models.AIModeBalanced}
	}

	t.Run("Patch updates fields", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(4)).Return(named(), nil).Once()
		scenarioRepo.On("Update", ctx, mock.Anything, mock.MatchedBy(func(s *models.Scenario) bool {
			return s.Grade != nil && *s.Grade == 5 && s.AIMode == models.AIModeStrict
		})).Return(nil).Once()
		scenarioRepo.On("ListItemsWithCards", ctx, mock.Anything, int64(4)).
			Return([]models.ScenarioItem{}, nil).Once()

		scenario, err := svc.Patch(ctx, actor, 4, ScenarioPatch{
			Grade:  intPtr(5),
			AIMode: strPtr(models.AIModeStrict),
		})
		require.NoError(t, err)
		assert.Equal(t, 5, *scenario.Grade)
	})

	t.Run("Foreign scenario looks like missing", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(4)).Return(named(), nil).Once()

		_, err := svc.Patch(ctx, stranger, 4, ScenarioPatch{Grade: intPtr(5)})
		assert.True(t, errors.Is(err, models.ErrScenarioNotFound))
	})

	t.Run("Default scenario cannot be renamed directly", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		def := &models.Scenario{ID: 1, OwnerID: actor.ID}
		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(1)).Return(def, nil).Once()

		_, err := svc.Patch(ctx, actor, 1, ScenarioPatch{Name: strPtr("Новое имя")})
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("Grade outside 1..11 is rejected", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(4)).Return(named(), nil).Once()

		_, err := svc.Patch(ctx, actor, 4, ScenarioPatch{Grade: intPtr(12)})
		assert.True(t, errors.Is(err, models.ErrValidation))
	})
}

func TestScenarioServiceDelete(t *testing.T) {
	ctx := context.Background()
	actor := testUser(models.RoleUser)

	t.Run("Named scenario is deleted", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		named := &models.Scenario{ID: 4, OwnerID: actor.ID, Name: strPtr("Урок 1")}
		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(4)).Return(named, nil).Once()
		scenarioRepo.On("Delete", ctx, mock.Anything, int64(4)).Return(nil).Once()

		assert.NoError(t, svc.Delete(ctx, actor, 4))
	})

	t.Run("Default scenario cannot be deleted", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		def := &models.Scenario{ID: 1, OwnerID: actor.ID}
		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(1)).Return(def, nil).Once()

		err := svc.Delete(ctx, actor, 1)
		assert.True(t, errors.Is(err, models.ErrScenarioIsDefault))
		scenarioRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestScenarioServiceSaveAs(t *testing.T) {
	ctx := context.Background()
	actor := testUser(models.RoleUser)

	defaultScenario := func() *models.Scenario {
		return &models.Scenario{
			ID:      1,
			OwnerID: actor.ID,
			Grade:   intPtr(7),
			AIMode:  models.AIModeBalanced,
		}
	}

	t.Run("Save-as copies default and clears its items", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		scenarioRepo.On("GetDefaultForUpdate", ctx, mock.Anything, actor.ID).
			Return(defaultScenario(), nil).Once()
		scenarioRepo.On("ListNamed", ctx, mock.Anything, actor.ID).
			Return([]*models.Scenario{}, nil).Once()
		scenarioRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(s *models.Scenario) bool {
			require.NotNil(t, s.Name)
			assert.Equal(t, "Открытый урок", *s.Name)
			// Настройки рабочего сценария переносятся в копию.
			assert.Equal(t, 7, *s.Grade)
			s.ID = 10
			return true
		})).Return(nil).Once()
		scenarioRepo.On("CopyItems", ctx, mock.Anything, int64(1), int64(10)).Return(nil).Once()
		scenarioRepo.On("DeleteItems", ctx, mock.Anything, int64(1)).Return(nil).Once()
		scenarioRepo.On("ListItemsWithCards", ctx, mock.Anything, int64(10)).
			Return([]models.ScenarioItem{}, nil).Once()

		scenario, err := svc.SaveAs(ctx, actor, "Открытый урок")
		require.NoError(t, err)
		assert.Equal(t, "Открытый урок", *scenario.Name)
		scenarioRepo.AssertExpectations(t)
	})

	t.Run("Empty name is rejected", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		_, err := svc.SaveAs(ctx, actor, "  ")
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("Taken name is rejected", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		scenarioRepo.On("GetDefaultForUpdate", ctx, mock.Anything, actor.ID).
			Return(defaultScenario(), nil).Once()
		scenarioRepo.On("ListNamed", ctx, mock.Anything, actor.ID).
			Return([]*models.Scenario{{ID: 2, Name: strPtr("Открытый урок")}}, nil).Once()

		_, err := svc.SaveAs(ctx, actor, "Открытый урок")
		assert.True(t, errors.Is(err, models.ErrValidation))
		scenarioRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Missing default maps to validation error", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		scenarioRepo.On("GetDefaultForUpdate", ctx, mock.Anything, actor.ID).
			Return(nil, models.ErrScenarioNotFound).Once()

		_, err := svc.SaveAs(ctx, actor, "Открытый урок")
		assert.True(t, errors.Is(err, models.ErrValidation))
	})
}

func TestScenarioServiceDuplicate(t *testing.T) {
	ctx := context.Background()
	actor := testUser(models.RoleUser)

	source := func() *models.Scenario {
		return &models.Scenario{ID: 4, OwnerID: actor.ID, Name: strPtr("Урок 1")}
	}

	t.Run("Duplicate appends copy suffix", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(4)).Return(source(), nil).Once()
		scenarioRepo.On("ListNamed", ctx, mock.Anything, actor.ID).
			Return([]*models.Scenario{}, nil).Once()
		scenarioRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(s *models.Scenario) bool {
			assert.Equal(t, "Урок 1 (копия)", *s.Name)
			s.ID = 11
			return true
		})).Return(nil).Once()
		scenarioRepo.On("CopyItems", ctx, mock.Anything, int64(4), int64(11)).Return(nil).Once()
		scenarioRepo.On("ListItemsWithCards", ctx, mock.Anything, int64(11)).
			Return([]models.ScenarioItem{}, nil).Once()

		scenario, err := svc.Duplicate(ctx, actor, 4)
		require.NoError(t, err)
		assert.Equal(t, "Урок 1 (копия)", *scenario.Name)
	})

	t.Run("Counter grows while the name is taken", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		taken := []*models.Scenario{
			{ID: 5, Name: strPtr("Урок 1 (копия)")},
			{ID: 6, Name: strPtr("Урок 1 (копия) 2")},
		}
		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(4)).Return(source(), nil).Once()
		scenarioRepo.On("ListNamed", ctx, mock.Anything, actor.ID).Return(taken, nil).Times(3)
		scenarioRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(s *models.Scenario) bool {
			assert.Equal(t, "Урок 1 (копия) 3", *s.Name)
			s.ID = 12
			return true
		})).Return(nil).Once()
		scenarioRepo.On("CopyItems", ctx, mock.Anything, int64(4), int64(12)).Return(nil).Once()
		scenarioRepo.On("ListItemsWithCards", ctx, mock.Anything, int64(12)).
			Return([]models.ScenarioItem{}, nil).Once()

		scenario, err := svc.Duplicate(ctx, actor, 4)
		require.NoError(t, err)
		assert.Equal(t, "Урок 1 (копия) 3", *scenario.Name)
	})

	t.Run("Default scenario cannot be duplicated", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		def := &models.Scenario{ID: 1, OwnerID: actor.ID}
		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(1)).Return(def, nil).Once()

		_, err := svc.Duplicate(ctx, actor, 1)
		assert.True(t, errors.Is(err, models.ErrValidation))
	})
}

func TestScenarioServiceAutosaveItems(t *testing.T) {
	ctx := context.Background()
	actor := testUser(models.RoleUser)

	owned := func() *models.Scenario {
		return &models.Scenario{ID: 4, OwnerID: actor.ID, Name: strPtr("Урок 1")}
	}
	publicCard := &models.TechniqueCard{ID: 100, Status: models.CardStatusPublic}

	t.Run("Items are replaced atomically", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		cardRepo := new(mocks.CardRepository)
		svc := newScenarioService(scenarioRepo, cardRepo)

		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(4)).Return(owned(), nil).Once()
		cardRepo.On("GetByID", ctx, mock.Anything, int64(100)).Return(publicCard, nil).Twice()
		scenarioRepo.On("ReplaceItems", ctx, mock.Anything, int64(4), mock.MatchedBy(func(items []models.ScenarioItem) bool {
			return len(items) == 2 && items[0].Position == 0 && items[1].Position == 1
		})).Return(nil).Once()
		scenarioRepo.On("ListItemsWithCards", ctx, mock.Anything, int64(4)).
			Return([]models.ScenarioItem{{Position: 0}, {Position: 1}}, nil).Once()

		scenario, err := svc.AutosaveItems(ctx, actor, 4, []ScenarioItemInput{
			{TechniqueCardID: 100, Position: 0},
			{TechniqueCardID: 100, Position: 1, CustomDurationMin: intPtr(15)},
		})
		require.NoError(t, err)
		assert.Len(t, scenario.Items, 2)
	})

	t.Run("Duplicate positions are rejected before writing", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		_, err := svc.AutosaveItems(ctx, actor, 4, []ScenarioItemInput{
			{TechniqueCardID: 100, Position: 0},
			{TechniqueCardID: 101, Position: 0},
		})
		assert.True(t, errors.Is(err, models.ErrDuplicatePosition))
		scenarioRepo.AssertNotCalled(t, "ReplaceItems", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Negative position is rejected", func(t *testing.T) {
		svc := newScenarioService(new(mocks.ScenarioRepository), new(mocks.CardRepository))

		_, err := svc.AutosaveItems(ctx, actor, 4, []ScenarioItemInput{
			{TechniqueCardID: 100, Position: -1},
		})
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("Foreign non-public card is not usable", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		cardRepo := new(mocks.CardRepository)
		svc := newScenarioService(scenarioRepo, cardRepo)

		other := testUser(models.RoleUser)
		foreignDraft := &models.TechniqueCard{ID: 101, OwnerID: other.ID, Status: models.CardStatusDraft}

		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(4)).Return(owned(), nil).Once()
		cardRepo.On("GetByID", ctx, mock.Anything, int64(101)).Return(foreignDraft, nil).Once()

		_, err := svc.AutosaveItems(ctx, actor, 4, []ScenarioItemInput{
			{TechniqueCardID: 101, Position: 0},
		})
		assert.True(t, errors.Is(err, models.ErrCardNotUsable))
	})

	t.Run("Missing card maps to validation error", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		cardRepo := new(mocks.CardRepository)
		svc := newScenarioService(scenarioRepo, cardRepo)

		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(4)).Return(owned(), nil).Once()
		cardRepo.On("GetByID", ctx, mock.Anything, int64(999)).
			Return(nil, models.ErrCardNotFound).Once()

		_, err := svc.AutosaveItems(ctx, actor, 4, []ScenarioItemInput{
			{TechniqueCardID: 999, Position: 0},
		})
		assert.True(t, errors.Is(err, models.ErrValidation))
	})

	t.Run("Empty list clears the scenario", func(t *testing.T) {
		scenarioRepo := new(mocks.ScenarioRepository)
		svc := newScenarioService(scenarioRepo, new(mocks.CardRepository))

		scenarioRepo.On("GetByID", ctx, mock.Anything, int64(4)).Return(owned(), nil).Once()
		scenarioRepo.On("ReplaceItems", ctx, mock.Anything, int64(4), mock.MatchedBy(func(items []models.ScenarioItem) bool {
			return len(items) == 0
		})).Return(nil).Once()
		scenarioRepo.On("ListItemsWithCards", ctx, mock.Anything, int64(4)).
			Return([]models.ScenarioItem{}, nil).Once()

		scenario, err := svc.AutosaveItems(ctx, actor, 4, nil)
		require.NoError(t, err)
		assert.Empty(t, scenario.Items)
	})
}
