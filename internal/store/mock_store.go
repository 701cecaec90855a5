package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of Store using testify/mock.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateReport(ctx context.Context, report Report) (Report, error) {
	args := m.Called(ctx, report)
	return args.Get(0).(Report), args.Error(1)
}

func (m *MockStore) GetReport(ctx context.Context, id uuid.UUID) (Report, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Report), args.Error(1)
}

func (m *MockStore) ListReports(ctx context.Context, email string, limit int) ([]Report, error) {
	args := m.Called(ctx, email, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Report), args.Error(1)
}

func (m *MockStore) UpdateReportStatus(ctx context.Context, id uuid.UUID, status ReportStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockStore) CompleteReport(ctx context.Context, id uuid.UUID, outcome Outcome) error {
	args := m.Called(ctx, id, outcome)
	return args.Error(0)
}
