package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/phrazzld/relay-api/internal/domain"
	"github.com/phrazzld/relay-api/internal/fetch"
	"github.com/phrazzld/relay-api/internal/relay"
)

// Common errors
var (
	ErrNilTaskStore = errors.New("task store cannot be nil")
	ErrNilFetcher   = errors.New("fetcher cannot be nil")
	ErrNilUploader  = errors.New("uploader cannot be nil")
	ErrNilLogger    = errors.New("logger cannot be nil")
	ErrEmptyTaskID  = errors.New("task ID cannot be empty")
)

// TaskRepository is the slice of store.TaskStore an upload needs.
type TaskRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
}

// Fetcher downloads the file behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Download, error)
}

// Uploader relays a staged file to the destination channel.
type Uploader interface {
	Upload(ctx context.Context, req relay.UploadRequest) (*relay.Result, error)
}

// Caption returns the caption attached to every relayed file.
func Caption(id uuid.UUID) string {
	return "Task ID: " + id.String()
}

// UploadTask relays one stored task's URL to the channel and records the
// outcome. It is the only writer of its task record after creation.
type UploadTask struct {
	taskID   uuid.UUID
	store    TaskRepository
	fetcher  Fetcher
	uploader Uploader
	logger   *slog.Logger
}

// NewUploadTask creates a new upload task for the stored task taskID
func NewUploadTask(
	taskID uuid.UUID,
	store TaskRepository,
	fetcher Fetcher,
	uploader Uploader,
	logger *slog.Logger,
) (*UploadTask, error) {
	if store == nil {
		return nil, ErrNilTaskStore
	}
	if fetcher == nil {
		return nil, ErrNilFetcher
	}
	if uploader == nil {
		return nil, ErrNilUploader
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if taskID == uuid.Nil {
		return nil, ErrEmptyTaskID
	}

	return &UploadTask{
		taskID:   taskID,
		store:    store,
		fetcher:  fetcher,
		uploader: uploader,
		logger:   logger.With("task_type", TaskTypeUpload, "task_id", taskID),
	}, nil
}

// ID returns the task's unique identifier
func (t *UploadTask) ID() uuid.UUID {
	return t.taskID
}

// Type returns the task type identifier
func (t *UploadTask) Type() string {
	return TaskTypeUpload
}

// Execute moves the record to processing, fetches and relays the file, and
// writes exactly one terminal status. Fetch and upload failures, including
// panics, are recorded verbatim on the record and also returned.
func (t *UploadTask) Execute(ctx context.Context) (err error) {
	record, err := t.store.GetByID(ctx, t.taskID)
	if err != nil {
		t.logger.Error("failed to load task", "error", err)
		return fmt.Errorf("failed to load task: %w", err)
	}

	if err := record.StartProcessing(); err != nil {
		t.logger.Error("task cannot start processing", "status", record.Status, "error", err)
		return err
	}
	if err := t.store.Update(ctx, record); err != nil {
		t.logger.Error("failed to update task status to processing", "error", err)
		return fmt.Errorf("failed to update task status to processing: %w", err)
	}
	t.logger.Info("processing task", "force_document", record.ForceDocument)

	defer func() {
		if r := recover(); r != nil {
			err = t.fail(ctx, record, fmt.Errorf("internal error: %v", r))
		}
	}()

	download, err := t.fetcher.Fetch(ctx, record.URL)
	if err != nil {
		return t.fail(ctx, record, err)
	}

	result, err := t.uploader.Upload(ctx, relay.UploadRequest{
		Path:          download.Path,
		Filename:      download.Filename,
		Caption:       Caption(record.ID),
		ForceDocument: record.ForceDocument,
	})
	if err != nil {
		return t.fail(ctx, record, err)
	}

	if err := record.Complete(strconv.Itoa(result.MessageID)); err != nil {
		return t.fail(ctx, record, err)
	}
	if err := t.store.Update(ctx, record); err != nil {
		t.logger.Error("failed to record completed task", "error", err)
		return fmt.Errorf("failed to record completed task: %w", err)
	}

	t.logger.Info("task completed",
		"channel_message_id", result.MessageID,
		"file_type", result.FileType)
	return nil
}

// fail records cause on the record and returns it.
func (t *UploadTask) fail(ctx context.Context, record *domain.Task, cause error) error {
	t.logger.Error("task failed", "error", cause)

	if err := record.Fail(cause.Error()); err != nil {
		t.logger.Error("task cannot be marked failed", "status", record.Status, "error", err)
		return errors.Join(cause, err)
	}
	if err := t.store.Update(ctx, record); err != nil {
		t.logger.Error("failed to record failed task", "error", err)
		return errors.Join(cause, err)
	}
	return cause
}

// UploadTaskFactory creates UploadTask instances sharing one set of dependencies
type UploadTaskFactory struct {
	store    TaskRepository
	fetcher  Fetcher
	uploader Uploader
	logger   *slog.Logger
}

// NewUploadTaskFactory creates a new factory for UploadTasks
func NewUploadTaskFactory(
	store TaskRepository,
	fetcher Fetcher,
	uploader Uploader,
	logger *slog.Logger,
) *UploadTaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadTaskFactory{
		store:    store,
		fetcher:  fetcher,
		uploader: uploader,
		logger:   logger.With("component", "upload_task_factory"),
	}
}

// CreateTask creates a new UploadTask for the stored task taskID
func (f *UploadTaskFactory) CreateTask(taskID uuid.UUID) (Task, error) {
	task, err := NewUploadTask(taskID, f.store, f.fetcher, f.uploader, f.logger)
	if err != nil {
		return nil, err
	}
	return task, nil
}
