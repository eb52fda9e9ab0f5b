package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"lesson-server/internal/models"
	"lesson-server/internal/repository"
)

// mockAuditLogger - мок журнала аудита для юнит-тестов сервисов.
type mockAuditLogger struct {
	mock.Mock
}

var _ AuditLogger = (*mockAuditLogger)(nil)

func (m *mockAuditLogger) Log(ctx context.Context, actorID *uuid.UUID, action, entityType, entityID string, meta map[string]any) {
	m.Called(ctx, actorID, action, entityType, entityID, meta)
}

func (m *mockAuditLogger) LogTx(ctx context.Context, tx repository.DBTX, actorID *uuid.UUID, action, entityType, entityID string, meta map[string]any) error {
	args := m.Called(ctx, tx, actorID, action, entityType, entityID, meta)
	return args.Error(0)
}

// relaxedAudit возвращает мок, принимающий любые записи аудита.
func relaxedAudit() *mockAuditLogger {
	a := new(mockAuditLogger)
	a.On("Log", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	a.On("LogTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	return a
}

func testUser(role string) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "teacher1",
		Email:    "teacher1@example.com",
		Role:     role,
	}
}
