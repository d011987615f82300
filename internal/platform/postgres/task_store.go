package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/relay-api/internal/domain"
	"github.com/phrazzld/relay-api/internal/platform/logger"
	"github.com/phrazzld/relay-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using PostgreSQL
type PostgresTaskStore struct {
	db *sql.DB
}

// NewPostgresTaskStore creates a new PostgresTaskStore
func NewPostgresTaskStore(db *sql.DB) *PostgresTaskStore {
	return &PostgresTaskStore{
		db: db,
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// Create persists a new pending task to the database
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContext(ctx)

	if err := store.ValidateForCreate(task); err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (id, url, status, channel_message_id, error_message, force_document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.URL,
		task.Status,
		task.ChannelMessageID,
		task.ErrorMessage,
		task.ForceDocument,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to save task",
			"task_id", task.ID,
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", MapError(err))
	}

	return nil
}

// GetByID retrieves a task by its ID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `
		SELECT id, url, status, channel_message_id, error_message, force_document, created_at, updated_at
		FROM tasks
		WHERE id = $1
	`

	var (
		task      domain.Task
		messageID sql.NullString
		errorMsg  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID,
		&task.URL,
		&task.Status,
		&messageID,
		&errorMsg,
		&task.ForceDocument,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrTaskNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to load task",
			"task_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to load task: %w", MapError(err))
	}

	if messageID.Valid {
		task.ChannelMessageID = &messageID.String
	}
	if errorMsg.Valid {
		task.ErrorMessage = &errorMsg.String
	}

	return &task, nil
}

// Update writes the task's status and result fields, guarded by the stored
// status being the legal predecessor of the new one
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	prev, err := store.ValidateForUpdate(task)
	if err != nil {
		return err
	}

	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		query := `
			UPDATE tasks
			SET status = $1, channel_message_id = $2, error_message = $3, updated_at = $4
			WHERE id = $5 AND status = $6
		`

		result, err := tx.ExecContext(ctx, query,
			task.Status,
			task.ChannelMessageID,
			task.ErrorMessage,
			task.UpdatedAt,
			task.ID,
			prev,
		)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", MapError(err))
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected > 0 {
			return nil
		}

		var current domain.TaskStatus
		err = tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = $1`, task.ID).Scan(&current)
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
