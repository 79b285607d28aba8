package extraction

import "context"

// ClientInterface defines the interface for the PDF extraction service.
// This interface enables testability by allowing mock implementations.
type ClientInterface interface {
	ParseQuestions(ctx context.Context, filename string, pdf []byte) ([]ParsedQuestion, error)
	ParseAnswerKeys(ctx context.Context, filename string, pdf []byte) ([]ParsedAnswer, error)
}

// Ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)
