package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/relay-api/internal/domain"
)

// TaskStore defines the interface for persisting upload tasks.
// Implementations must be safe for concurrent use.
type TaskStore interface {
	// Create saves a new task. The task must be valid and pending.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update persists the task's status, result fields, and updated_at in place.
	// The write only happens if the stored status is the legal predecessor of
	// task.Status; otherwise it returns ErrTaskNotFound or domain.ErrInvalidTransition.
	Update(ctx context.Context, task *domain.Task) error
}

// ValidateForCreate checks that a task can be inserted as a new record.
func ValidateForCreate(task *domain.Task) error {
	if task == nil {
		return NewStoreError("task", "create", "task cannot be nil", ErrInvalidEntity)
	}
	if err := task.Validate(); err != nil {
		return NewStoreError("task", "create", "task failed validation", errors.Join(ErrInvalidEntity, err))
	}
	if task.Status != domain.TaskStatusPending {
		return NewStoreError("task", "create", "new tasks must be pending", ErrInvalidEntity)
	}
	return nil
}

// ValidateForUpdate checks that a task can be written over its stored record
// and returns the status the stored record must currently hold.
func ValidateForUpdate(task *domain.Task) (domain.TaskStatus, error) {
	if task == nil {
		return "", NewStoreError("task", "update", "task cannot be nil", ErrInvalidEntity)
	}
	if err := task.Validate(); err != nil {
		return "", NewStoreError("task", "update", "task failed validation", errors.Join(ErrInvalidEntity, err))
	}
	prev, ok := task.Status.Predecessor()
	if !ok {
		return "", fmt.Errorf("%w: cannot write %s over a stored task", domain.ErrInvalidTransition, task.Status)
	}
	return prev, nil
}
