package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/relay-api/internal/domain"
	"github.com/phrazzld/relay-api/internal/platform/logger"
	"github.com/phrazzld/relay-api/internal/store"
)

const timeLayout = time.RFC3339Nano

// TaskStore implements the store.TaskStore interface using SQLite.
type TaskStore struct {
	db *sql.DB
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

var _ store.TaskStore = (*TaskStore)(nil)

// Create inserts a new pending task.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := store.ValidateForCreate(task); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, url, status, channel_message_id, error_message, force_document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID.String(),
		task.URL,
		string(task.Status),
		nullString(task.ChannelMessageID),
		nullString(task.ErrorMessage),
		task.ForceDocument,
		task.CreatedAt.UTC().Format(timeLayout),
		task.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		log.Error("failed to save task",
			"task_id", task.ID,
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", MapError(err))
	}

	return nil
}

// GetByID retrieves a task by ID.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, url, status, channel_message_id, error_message, force_document, created_at, updated_at
		FROM tasks
		WHERE id = ?`,
		id.String(),
	)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTaskNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to load task",
			"task_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to load task: %w", MapError(err))
	}

	return task, nil
}

// Update writes the task's new status and result fields. The write is
// conditional on the stored status being the task's legal predecessor.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	prev, err := store.ValidateForUpdate(task)
	if err != nil {
		return err
	}

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE tasks
			SET status = ?, channel_message_id = ?, error_message = ?, updated_at = ?
			WHERE id = ? AND status = ?`,
			string(task.Status),
			nullString(task.ChannelMessageID),
			nullString(task.ErrorMessage),
			task.UpdatedAt.UTC().Format(timeLayout),
			task.ID.String(),
			string(prev),
		)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", MapError(err))
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows > 0 {
			return nil
		}

		var current string
		err = tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, task.ID.String()).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrTaskNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to read task status: %w", err)
		}
		return fmt.Errorf("%w: stored status is %s, cannot move to %s",
			domain.ErrInvalidTransition, current, task.Status)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		id, url, status      string
		messageID, errorMsg  sql.NullString
		forceDocument        bool
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &url, &status, &messageID, &errorMsg, &forceDocument, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid stored task id %q: %w", id, err)
	}
	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid stored created_at %q: %w", createdAt, err)
	}
	updated, err := time.Parse(timeLayout, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid stored updated_at %q: %w", updatedAt, err)
	}

	return &domain.Task{
		ID:               parsedID,
		URL:              url,
		Status:           domain.TaskStatus(status),
		ChannelMessageID: stringPtr(messageID),
		ErrorMessage:     stringPtr(errorMsg),
		ForceDocument:    forceDocument,
		CreatedAt:        created,
		UpdatedAt:        updated,
	}, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
