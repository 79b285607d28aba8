package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kyuwon/physioprep/internal/models"
)

// MockExamRepository is a mock implementation of repository.ExamRepository
type MockExamRepository struct {
	mock.Mock
}

func (m *MockExamRepository) InsertTestRecord(ctx context.Context, record models.TestRecord) (int64, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExamRepository) TestRecords(ctx context.Context, userID string, limit int) ([]models.TestRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TestRecord), args.Error(1)
}

func (m *MockExamRepository) TrimTestRecords(ctx context.Context, userID string, keep int) error {
	args := m.Called(ctx, userID, keep)
	return args.Error(0)
}

func (m *MockExamRepository) UpsertUserLevel(ctx context.Context, level models.UserLevel) error {
	args := m.Called(ctx, level)
	return args.Error(0)
}

func (m *MockExamRepository) GetUserLevel(ctx context.Context, userID string) (*models.UserLevel, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserLevel), args.Error(1)
}
