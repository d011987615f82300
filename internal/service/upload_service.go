package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/relay-api/internal/domain"
	"github.com/phrazzld/relay-api/internal/store"
	"github.com/phrazzld/relay-api/internal/task"
)

// queueFullMessage is recorded on tasks that could not be scheduled.
const queueFullMessage = "task queue is full"

// TaskRunner defines the interface for submitting background tasks
type TaskRunner interface {
	// Submit adds a task to the processing queue without blocking
	Submit(task task.Task) error
}

// UploadTaskFactory creates the background unit for a stored task
type UploadTaskFactory interface {
	// CreateTask creates a new task for the stored record taskID
	CreateTask(taskID uuid.UUID) (task.Task, error)
}

// UploadService provides upload-related operations
type UploadService interface {
	// Submit records a pending task for rawURL and schedules it.
	// It returns as soon as the task is queued.
	Submit(ctx context.Context, rawURL string, forceDocument bool) (*domain.Task, error)

	// Get returns the current state of a task
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)
}

type uploadServiceImpl struct {
	store   store.TaskStore
	runner  TaskRunner
	factory UploadTaskFactory
	logger  *slog.Logger
}

// NewUploadService creates a new UploadService.
// It returns an error if any of the required dependencies are nil.
func NewUploadService(
	taskStore store.TaskStore,
	runner TaskRunner,
	factory UploadTaskFactory,
	logger *slog.Logger,
) (UploadService, error) {
	if taskStore == nil {
		return nil, &UploadServiceError{Operation: "create_service", Message: "taskStore cannot be nil"}
	}
	if runner == nil {
		return nil, &UploadServiceError{Operation: "create_service", Message: "runner cannot be nil"}
	}
	if factory == nil {
		return nil, &UploadServiceError{Operation: "create_service", Message: "factory cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &uploadServiceImpl{
		store:   taskStore,
		runner:  runner,
		factory: factory,
		logger:  logger.With("component", "upload_service"),
	}, nil
}

// Submit creates the pending record first so that a client can always poll
// the returned ID, then queues the background unit.
func (s *uploadServiceImpl) Submit(ctx context.Context, rawURL string, forceDocument bool) (*domain.Task, error) {
	record, err := domain.NewTask(rawURL, forceDocument)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, record); err != nil {
		s.logger.Error("failed to save task", "task_id", record.ID, "error", err)
		return nil, NewUploadServiceError("submit", "failed to save task", err)
	}

	unit, err := s.factory.CreateTask(record.ID)
	if err != nil {
		s.failUnscheduled(ctx, record, err.Error())
		return nil, NewUploadServiceError("submit", "failed to create task", err)
	}

	if err := s.runner.Submit(unit); err != nil {
		message := err.Error()
		if errors.Is(err, ErrQueueFull) {
			message = queueFullMessage
		}
		s.logger.Warn("task could not be queued", "task_id", record.ID, "error", err)
		s.failUnscheduled(ctx, record, message)
		return nil, NewUploadServiceError("submit", "failed to queue task", err)
	}

	s.logger.Info("task queued", "task_id", record.ID, "force_document", forceDocument)
	return record, nil
}

// failUnscheduled drives a record that never reached a worker through
// processing to failed, keeping the transition chain intact.
func (s *uploadServiceImpl) failUnscheduled(ctx context.Context, record *domain.Task, message string) {
	failed := *record
	if err := failed.StartProcessing(); err == nil {
		err = s.store.Update(ctx, &failed)
		if err == nil {
			if err = failed.Fail(message); err == nil {
				err = s.store.Update(ctx, &failed)
			}
		}
		if err != nil {
			s.logger.Error("failed to record unscheduled task", "task_id", record.ID, "error", err)
		}
	}
}

// Get retrieves a task by ID
func (s *uploadServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	record, err := s.store.GetByID(ctx, id)
	if err != nil {
		if !store.IsNotFoundError(err) {
			s.logger.Error("failed to load task", "task_id", id, "error", err)
		}
		return nil, NewUploadServiceError("get", "failed to load task", err)
	}
	return record, nil
}
