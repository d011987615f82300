package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/relay-api/internal/domain"
	"github.com/phrazzld/relay-api/internal/task"
	"github.com/stretchr/testify/mock"
)

// MockTaskStore mocks the store.TaskStore interface
type MockTaskStore struct {
	mock.Mock
}

func (m *MockTaskStore) Create(ctx context.Context, t *domain.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Task), args.Error(1)
}

func (m *MockTaskStore) Update(ctx context.Context, t *domain.Task) error {
	// Record a copy so later mutations by the caller do not rewrite history.
	snapshot := *t
	args := m.Called(ctx, &snapshot)
	return args.Error(0)
}

// MockTaskRunner mocks the TaskRunner interface
type MockTaskRunner struct {
	mock.Mock
}

func (m *MockTaskRunner) Submit(t task.Task) error {
	args := m.Called(t)
	return args.Error(0)
}

// MockTaskFactory mocks the UploadTaskFactory interface
type MockTaskFactory struct {
	mock.Mock
}

func (m *MockTaskFactory) CreateTask(taskID uuid.UUID) (task.Task, error) {
	args := m.Called(taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(task.Task), args.Error(1)
}
