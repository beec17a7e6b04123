package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joseph-ayodele/offers-tracker/internal/extract"
)

// MockFieldExtractor is a mock implementation of extract.FieldExtractor.
type MockFieldExtractor struct {
	mock.Mock
}

func (m *MockFieldExtractor) ExtractFields(ctx context.Context, text, filename string) (extract.FieldsResult, error) {
	args := m.Called(ctx, text, filename)
	return args.Get(0).(extract.FieldsResult), args.Error(1)
}
