// Package repository содержит интерфейсы и Postgres/Redis-реализации
// слоя доступа к данным.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"lesson-server/internal/models"
)

// DBTX - минимальный контракт исполнителя запросов. Ему удовлетворяют
// и *pgxpool.Pool, и pgx.Tx, поэтому методы репозиториев можно вызывать
// как вне, так и внутри транзакции.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager выполняет функцию в рамках одной транзакции.
type TxManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// UserRepository - хранилище учетных записей.
type UserRepository interface {
	Create(ctx context.Context, querier DBTX, user *models.User) error
	GetByID(ctx context.Context, querier DBTX, id uuid.UUID) (*models.User, error)
	// GetByLogin ищет пользователя по username или email.
	GetByLogin(ctx context.Context, querier DBTX, login string) (*models.User, error)
	UpdateRole(ctx context.Context, querier DBTX, id uuid.UUID, role string) error
}

// CardRepository - хранилище методических карточек.
type CardRepository interface {
	Create(ctx context.Context, querier DBTX, card *models.TechniqueCard) error
	GetByID(ctx context.Context, querier DBTX, id int64) (*models.TechniqueCard, error)
	Update(ctx context.Context, querier DBTX, card *models.TechniqueCard) error
	Delete(ctx context.Context, querier DBTX, id int64) error
	// List возвращает страницу карточек и общее число совпадений.
	List(ctx context.Context, querier DBTX, viewerID uuid.UUID, filter models.CardFilter) ([]*models.TechniqueCard, int, error)
	// CountScenarioUsage считает, в скольких позициях сценариев занята карточка.
	CountScenarioUsage(ctx context.Context, querier DBTX, cardID int64) (int, error)
}

// ScenarioRepository - хранилище сценариев и их позиций.
type ScenarioRepository interface {
	Create(ctx context.Context, querier DBTX, scenario *models.Scenario) error
	GetByID(ctx context.Context, querier DBTX, id int64) (*models.Scenario, error)
	// GetDefault возвращает рабочий (безымянный) сценарий владельца.
	GetDefault(ctx context.Context, querier DBTX, ownerID uuid.UUID) (*models.Scenario, error)
	// GetDefaultForUpdate дополнительно берет блокировку FOR UPDATE.
	GetDefaultForUpdate(ctx context.Context, querier DBTX, ownerID uuid.UUID) (*models.Scenario, error)
	// ListNamed возвращает сохраненные (именованные) сценарии владельца.
	ListNamed(ctx context.Context, querier DBTX, ownerID uuid.UUID) ([]*models.Scenario, error)
	Update(ctx context.Context, querier DBTX, scenario *models.Scenario) error
	Delete(ctx context.Context, querier DBTX, id int64) error

	ListItems(ctx context.Context, querier DBTX, scenarioID int64) ([]models.ScenarioItem, error)
	// ListItemsWithCards подтягивает карточку для каждой позиции.
	ListItemsWithCards(ctx context.Context, querier DBTX, scenarioID int64) ([]models.ScenarioItem, error)
	// ReplaceItems удаляет текущие позиции сценария и вставляет новые.
	ReplaceItems(ctx context.Context, querier DBTX, scenarioID int64, items []models.ScenarioItem) error
	// CopyItems копирует все позиции из одного сценария в другой.
	CopyItems(ctx context.Context, querier DBTX, fromID, toID int64) error
	DeleteItems(ctx context.Context, querier DBTX, scenarioID int64) error
}

// AuditRepository - журнал аудита.
type AuditRepository interface {
	Insert(ctx context.Context, querier DBTX, entry *models.AuditEntry) error
	ListByEntity(ctx context.Context, querier DBTX, entityType, entityID string, limit, offset int) ([]*models.AuditEntry, error)
	ListRecent(ctx context.Context, querier DBTX, limit, offset int) ([]*models.AuditEntry, error)
}

// AIRepository - настройки и журнал AI-генераций.
type AIRepository interface {
	GetSettings(ctx context.Context, querier DBTX) (models.AIServiceSettings, error)
	UpdateSettings(ctx context.Context, querier DBTX, settings models.AIServiceSettings) error
	// CountGenerationsBetween считает генерации пользователя в интервале [from, to).
	CountGenerationsBetween(ctx context.Context, querier DBTX, userID uuid.UUID, from, to time.Time) (int, error)
	InsertGeneration(ctx context.Context, querier DBTX, entry *models.AIGenerationLog) error
	// UpdateGeneration дописывает результат и модель в существующую запись журнала.
	UpdateGeneration(ctx context.Context, querier DBTX, entry *models.AIGenerationLog) error
	ListGenerations(ctx context.Context, querier DBTX, userID uuid.UUID, limit, offset int) ([]*models.AIGenerationLog, error)
}

// TokenRepository - хранилище выданных токенов (Redis).
type TokenRepository interface {
	SetToken(ctx context.Context, userID uuid.UUID, td *models.TokenDetails) error
	GetUserIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error)
	GetUserIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error)
	DeleteTokens(ctx context.Context, userID uuid.UUID, accessUUID, refreshUUID string) (int64, error)
	DeleteTokensByUserID(ctx context.Context, userID uuid.UUID) (int64, error)
}
