package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the processing state of a task
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// unknownFailure is recorded when a task fails with an empty error message,
// so that a failed task always carries a non-empty error.
const unknownFailure = "unknown error"

// IsValid reports whether s is one of the known task states.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusProcessing, TaskStatusCompleted, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions can follow s.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Predecessor returns the only status a task may move to s from.
// Pending has no predecessor; it is only ever assigned at creation.
func (s TaskStatus) Predecessor() (TaskStatus, bool) {
	switch s {
	case TaskStatusProcessing:
		return TaskStatusPending, true
	case TaskStatusCompleted, TaskStatusFailed:
		return TaskStatusProcessing, true
	default:
		return "", false
	}
}

// CanTransitionTo reports whether a task in status s may move to next.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	prev, ok := next.Predecessor()
	return ok && prev == s
}

// Task is one URL-to-channel upload request and its lifecycle record.
type Task struct {
	ID               uuid.UUID  `json:"id"`
	URL              string     `json:"url"`
	Status           TaskStatus `json:"status"`
	ChannelMessageID *string    `json:"channel_message_id"`
	ErrorMessage     *string    `json:"error_message"`
	ForceDocument    bool       `json:"force_document"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewTask creates a pending Task for the given URL.
// It generates a new UUID and sets the creation/update timestamps.
func NewTask(url string, forceDocument bool) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:            uuid.New(),
		URL:           strings.TrimSpace(url),
		Status:        TaskStatusPending,
		ForceDocument: forceDocument,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks that the Task is internally consistent, including the
// rule that exactly one of ChannelMessageID and ErrorMessage is set once the
// task is terminal and neither is set before that.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrValidation, ErrInvalidID)
	}
	if t.URL == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyURL)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrInvalidTaskStatus, t.Status)
	}

	hasMessage := t.ChannelMessageID != nil && *t.ChannelMessageID != ""
	hasError := t.ErrorMessage != nil && *t.ErrorMessage != ""

	switch t.Status {
	case TaskStatusCompleted:
		if !hasMessage || hasError {
			return fmt.Errorf("%w: completed task must carry only a channel message ID", ErrValidation)
		}
	case TaskStatusFailed:
		if !hasError || hasMessage {
			return fmt.Errorf("%w: failed task must carry only an error message", ErrValidation)
		}
	default:
		if hasMessage || hasError {
			return fmt.Errorf("%w: %s task cannot carry a result", ErrValidation, t.Status)
		}
	}

	return nil
}

// StartProcessing moves a pending task to processing.
func (t *Task) StartProcessing() error {
	return t.transition(TaskStatusProcessing)
}

// Complete moves a processing task to completed and records the channel message ID.
func (t *Task) Complete(channelMessageID string) error {
	if channelMessageID == "" {
		return ErrEmptyMessageID
	}
	if err := t.transition(TaskStatusCompleted); err != nil {
		return err
	}
	t.ChannelMessageID = &channelMessageID
	return nil
}

// Fail moves a processing task to failed and records the error message verbatim.
func (t *Task) Fail(errorMessage string) error {
	if errorMessage == "" {
		errorMessage = unknownFailure
	}
	if err := t.transition(TaskStatusFailed); err != nil {
		return err
	}
	t.ErrorMessage = &errorMessage
	return nil
}

// IsTerminal reports whether the task has reached completed or failed.
func (t *Task) IsTerminal() bool {
	return t.Status.IsTerminal()
}

func (t *Task) transition(next TaskStatus) error {
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = time.Now().UTC()
	return nil
}
