package models

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSource replays the models given to Return and then the error.
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Models(ctx context.Context, visit func(Model) error) error {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]Model)
	for _, model := range list {
		if err := visit(model); err != nil {
			return err
		}
	}
	return args.Error(1)
}
