package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kyuwon/physioprep/internal/models"
)

// MockMasteryService is a mock implementation of services.MasteryService
type MockMasteryService struct {
	mock.Mock
}

func (m *MockMasteryService) GetOrCreate(ctx context.Context, userID string) (*models.MasteryRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MasteryRecord), args.Error(1)
}

func (m *MockMasteryService) UpdateWithAnswer(ctx context.Context, userID string, question models.QuestionInfo, isCorrect bool) (*models.UpdateResult, error) {
	args := m.Called(ctx, userID, question, isCorrect)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UpdateResult), args.Error(1)
}

func (m *MockMasteryService) WeakTypes(ctx context.Context, userID string, threshold float64) ([]models.WeakType, error) {
	args := m.Called(ctx, userID, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WeakType), args.Error(1)
}

func (m *MockMasteryService) MasteryReport(ctx context.Context, userID string) (*models.MasteryReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MasteryReport), args.Error(1)
}

func (m *MockMasteryService) TypeSummary(ctx context.Context, userID string) (*models.TypeSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TypeSummary), args.Error(1)
}

func (m *MockMasteryService) TypePerformance(ctx context.Context, userID, qtype string) (*models.TypePerformance, error) {
	args := m.Called(ctx, userID, qtype)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TypePerformance), args.Error(1)
}

func (m *MockMasteryService) AvailableTypes(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMasteryService) Reset(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}
