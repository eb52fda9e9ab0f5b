// Package mocks содержит testify-моки интерфейсов слоя repository
// для юнит-тестов сервисов.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"lesson-server/internal/models"
	"lesson-server/internal/repository"
)

// Mock UserRepository
type UserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (m *UserRepository) Create(ctx context.Context, querier repository.DBTX, user *models.User) error {
	args := m.Called(ctx, querier, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, querier repository.DBTX, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, querier, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) GetByLogin(ctx context.Context, querier repository.DBTX, login string) (*models.User, error) {
	args := m.Called(ctx, querier, login)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *UserRepository) UpdateRole(ctx context.Context, querier repository.DBTX, id uuid.UUID, role string) error {
	args := m.Called(ctx, querier, id, role)
	return args.Error(0)
}

// Mock CardRepository
type CardRepository struct {
	mock.Mock
}

var _ repository.CardRepository = (*CardRepository)(nil)

func (m *CardRepository) Create(ctx context.Context, querier repository.DBTX, card *models.TechniqueCard) error {
	args := m.Called(ctx, querier, card)
	return args.Error(0)
}

func (m *CardRepository) GetByID(ctx context.Context, querier repository.DBTX, id int64) (*models.TechniqueCard, error) {
	args := m.Called(ctx, querier, id)
	card, _ := args.Get(0).(*models.TechniqueCard)
	return card, args.Error(1)
}

func (m *CardRepository) Update(ctx context.Context, querier repository.DBTX, card *models.TechniqueCard) error {
	args := m.Called(ctx, querier, card)
	return args.Error(0)
}

func (m *CardRepository) Delete(ctx context.Context, querier repository.DBTX, id int64) error {
	args := m.Called(ctx, querier, id)
	return args.Error(0)
}

func (m *CardRepository) List(ctx context.Context, querier repository.DBTX, viewerID uuid.UUID, filter models.CardFilter) ([]*models.TechniqueCard, int, error) {
	args := m.Called(ctx, querier, viewerID, filter)
	cards, _ := args.Get(0).([]*models.TechniqueCard)
	return cards, args.Int(1), args.Error(2)
}

func (m *CardRepository) CountScenarioUsage(ctx context.Context, querier repository.DBTX, cardID int64) (int, error) {
	args := m.Called(ctx, querier, cardID)
	return args.Int(0), args.Error(1)
}

// Mock ScenarioRepository
type ScenarioRepository struct {
	mock.Mock
}

var _ repository.ScenarioRepository = (*ScenarioRepository)(nil)

func (m *ScenarioRepository) Create(ctx context.Context, querier repository.DBTX, scenario *models.Scenario) error {
	args := m.Called(ctx, querier, scenario)
	return args.Error(0)
}

func (m *ScenarioRepository) GetByID(ctx context.Context, querier repository.DBTX, id int64) (*models.Scenario, error) {
	args := m.Called(ctx, querier, id)
	scenario, _ := args.Get(0).(*models.Scenario)
	return scenario, args.Error(1)
}

func (m *ScenarioRepository) GetDefault(ctx context.Context, querier repository.DBTX, ownerID uuid.UUID) (*models.Scenario, error) {
	args := m.Called(ctx, querier, ownerID)
	scenario, _ := args.Get(0).(*models.Scenario)
	return scenario, args.Error(1)
}

func (m *ScenarioRepository) GetDefaultForUpdate(ctx context.Context, querier repository.DBTX, ownerID uuid.UUID) (*models.Scenario, error) {
	args := m.Called(ctx, querier, ownerID)
	scenario, _ := args.Get(0).(*models.Scenario)
	return scenario, args.Error(1)
}

func (m *ScenarioRepository) ListNamed(ctx context.Context, querier repository.DBTX, ownerID uuid.UUID) ([]*models.Scenario, error) {
	args := m.Called(ctx, querier, ownerID)
	scenarios, _ := args.Get(0).([]*models.Scenario)
	return scenarios, args.Error(1)
}

func (m *ScenarioRepository) Update(ctx context.Context, querier repository.DBTX, scenario *models.Scenario) error {
	args := m.Called(ctx, querier, scenario)
	return args.Error(0)
}

func (m *ScenarioRepository) Delete(ctx context.Context, querier repository.DBTX, id int64) error {
	args := m.Called(ctx, querier, id)
	return args.Error(0)
}

func (m *ScenarioRepository) ListItems(ctx context.Context, querier repository.DBTX, scenarioID int64) ([]models.ScenarioItem, error) {
	args := m.Called(ctx, querier, scenarioID)
	items, _ := args.Get(0).([]models.ScenarioItem)
	return items, args.Error(1)
}

func (m *ScenarioRepository) ListItemsWithCards(ctx context.Context, querier repository.DBTX, scenarioID int64) ([]models.ScenarioItem, error) {
	args := m.Called(ctx, querier, scenarioID)
	items, _ := args.Get(0).([]models.ScenarioItem)
	return items, args.Error(1)
}

func (m *ScenarioRepository) ReplaceItems(ctx context.Context, querier repository.DBTX, scenarioID int64, items []models.ScenarioItem) error {
	args := m.Called(ctx, querier, scenarioID, items)
	return args.Error(0)
}

func (m *ScenarioRepository) CopyItems(ctx context.Context, querier repository.DBTX, fromID, toID int64) error {
	args := m.Called(ctx, querier, fromID, toID)
	return args.Error(0)
}

func (m *ScenarioRepository) DeleteItems(ctx context.Context, querier repository.DBTX, scenarioID int64) error {
	args := m.Called(ctx, querier, scenarioID)
	return args.Error(0)
}

// Mock AuditRepository
type AuditRepository struct {
	mock.Mock
}

var _ repository.AuditRepository = (*AuditRepository)(nil)

func (m *AuditRepository) Insert(ctx context.Context, querier repository.DBTX, entry *models.AuditEntry) error {
	args := m.Called(ctx, querier, entry)
	return args.Error(0)
}

func (m *AuditRepository) ListByEntity(ctx context.Context, querier repository.DBTX, entityType, entityID string, limit, offset int) ([]*models.AuditEntry, error) {
	args := m.Called(ctx, querier, entityType, entityID, limit, offset)
	entries, _ := args.Get(0).([]*models.AuditEntry)
	return entries, args.Error(1)
}

func (m *AuditRepository) ListRecent(ctx context.Context, querier repository.DBTX, limit, offset int) ([]*models.AuditEntry, error) {
	args := m.Called(ctx, querier, limit, offset)
	entries, _ := args.Get(0).([]*models.AuditEntry)
	return entries, args.Error(1)
}

// Mock AIRepository
type AIRepository struct {
	mock.Mock
}

var _ repository.AIRepository = (*AIRepository)(nil)

func (m *AIRepository) GetSettings(ctx context.Context, querier repository.DBTX) (models.AIServiceSettings, error) {
	args := m.Called(ctx, querier)
	settings, _ := args.Get(0).(models.AIServiceSettings)
	return settings, args.Error(1)
}

func (m *AIRepository) UpdateSettings(ctx context.Context, querier repository.DBTX, settings models.AIServiceSettings) error {
	args := m.Called(ctx, querier, settings)
	return args.Error(0)
}

func (m *AIRepository) CountGenerationsBetween(ctx context.Context, querier repository.DBTX, userID uuid.UUID, from, to time.Time) (int, error) {
	args := m.Called(ctx, querier, userID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *AIRepository) InsertGeneration(ctx context.Context, querier repository.DBTX, entry *models.AIGenerationLog) error {
	args := m.Called(ctx, querier, entry)
	return args.Error(0)
}

func (m *AIRepository) UpdateGeneration(ctx context.Context, querier repository.DBTX, entry *models.AIGenerationLog) error {
	args := m.Called(ctx, querier, entry)
	return args.Error(0)
}

func (m *AIRepository) ListGenerations(ctx context.Context, querier repository.DBTX, userID uuid.UUID, limit, offset int) ([]*models.AIGenerationLog, error) {
	args := m.Called(ctx, querier, userID, limit, offset)
	entries, _ := args.Get(0).([]*models.AIGenerationLog)
	return entries, args.Error(1)
}

// Mock TokenRepository
type TokenRepository struct {
	mock.Mock
}

var _ repository.TokenRepository = (*TokenRepository)(nil)

func (m *TokenRepository) SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error {
	args := m.Called(ctx, userID, td)
	return args.Error(0)
}

func (m *TokenRepository) GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	args := m.Called(ctx, accessUUID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}

func (m *TokenRepository) GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	args := m.Called(ctx, refreshUUID)
	id, _ := args.Get(0).(uuid.UUID)
	return id, args.Error(1)
}

func (m *TokenRepository) DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error) {
	args := m.Called(ctx, userID, accessUUID, refreshUUID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TokenRepository) DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// Mock TxManager прогоняет функцию напрямую, без настоящей транзакции.
type TxManager struct {
	mock.Mock
}

var _ repository.TxManager = (*TxManager)(nil)

func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.DBTX) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx, nil)
}
