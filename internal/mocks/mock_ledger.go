package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/joseph-ayodele/offers-tracker/internal/record"
)

// MockLedger is a mock implementation of ledger.Ledger.
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Append(ctx context.Context, rec record.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockLedger) Path() string {
	args := m.Called()
	return args.String(0)
}
