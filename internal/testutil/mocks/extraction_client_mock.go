package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kyuwon/physioprep/internal/extraction"
)

// MockExtractionClient is a mock implementation of extraction.ClientInterface
type MockExtractionClient struct {
	mock.Mock
}

func (m *MockExtractionClient) ParseQuestions(ctx context.Context, filename string, pdf []byte) ([]extraction.ParsedQuestion, error) {
	args := m.Called(ctx, filename, pdf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]extraction.ParsedQuestion), args.Error(1)
}

func (m *MockExtractionClient) ParseAnswerKeys(ctx context.Context, filename string, pdf []byte) ([]extraction.ParsedAnswer, error) {
	args := m.Called(ctx, filename, pdf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]extraction.ParsedAnswer), args.Error(1)
}
