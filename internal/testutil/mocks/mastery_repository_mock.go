package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kyuwon/physioprep/internal/models"
)

// MockMasteryRepository is a mock implementation of repository.MasteryRepository
type MockMasteryRepository struct {
	mock.Mock
}

func (m *MockMasteryRepository) Get(ctx context.Context, userID string) (*models.MasteryRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MasteryRecord), args.Error(1)
}

func (m *MockMasteryRepository) Upsert(ctx context.Context, record *models.MasteryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockMasteryRepository) Delete(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}
