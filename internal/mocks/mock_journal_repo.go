package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/joseph-ayodele/offers-tracker/internal/repository"
)

// MockJournalRepo is a mock implementation of repository.JournalRepository.
type MockJournalRepo struct {
	mock.Mock
}

func (m *MockJournalRepo) Insert(ctx context.Context, e repository.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockJournalRepo) Get(ctx context.Context, id uuid.UUID) (repository.Entry, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(repository.Entry), args.Error(1)
}

func (m *MockJournalRepo) ListRecent(ctx context.Context, limit int) ([]repository.Entry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.Entry), args.Error(1)
}

func (m *MockJournalRepo) CountByStatus(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}
