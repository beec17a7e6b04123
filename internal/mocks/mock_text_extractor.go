package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joseph-ayodele/offers-tracker/internal/extract"
)

// MockTextExtractor is a mock implementation of extract.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, path string) (extract.TextExtractionResult, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(extract.TextExtractionResult), args.Error(1)
}
