package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	t.Run("valid_task", func(t *testing.T) {
		task, err := NewTask("https://example.com/a.pdf", true)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, "https://example.com/a.pdf", task.URL)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.True(t, task.ForceDocument)
		assert.Nil(t, task.ChannelMessageID)
		assert.Nil(t, task.ErrorMessage)
		assert.False(t, task.CreatedAt.IsZero())
		assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	})

	t.Run("empty_url", func(t *testing.T) {
		task, err := NewTask("   ", false)
		assert.ErrorIs(t, err, ErrEmptyURL)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Nil(t, task)
	})

	t.Run("unique_ids", func(t *testing.T) {
		a, err := NewTask("https://example.com/a", false)
		require.NoError(t, err)
		b, err := NewTask("https://example.com/a", false)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})
}

func TestTaskStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to TaskStatus
		allowed  bool
	}{
		{TaskStatusPending, TaskStatusProcessing, true},
		{TaskStatusProcessing, TaskStatusCompleted, true},
		{TaskStatusProcessing, TaskStatusFailed, true},
		{TaskStatusPending, TaskStatusCompleted, false},
		{TaskStatusPending, TaskStatusFailed, false},
		{TaskStatusProcessing, TaskStatusPending, false},
		{TaskStatusCompleted, TaskStatusProcessing, false},
		{TaskStatusCompleted, TaskStatusFailed, false},
		{TaskStatusFailed, TaskStatusCompleted, false},
		{TaskStatusFailed, TaskStatusPending, false},
		{TaskStatusPending, TaskStatusPending, false},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestTask_Lifecycle(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		task, err := NewTask("https://example.com/a.png", false)
		require.NoError(t, err)
		created := task.UpdatedAt

		time.Sleep(time.Millisecond)
		require.NoError(t, task.StartProcessing())
		assert.Equal(t, TaskStatusProcessing, task.Status)
		assert.True(t, task.UpdatedAt.After(created))
		require.NoError(t, task.Validate())

		require.NoError(t, task.Complete("42"))
		assert.Equal(t, TaskStatusCompleted, task.Status)
		require.NotNil(t, task.ChannelMessageID)
		assert.Equal(t, "42", *task.ChannelMessageID)
		assert.Nil(t, task.ErrorMessage)
		assert.True(t, task.IsTerminal())
		require.NoError(t, task.Validate())
	})

	t.Run("failed", func(t *testing.T) {
		task, err := NewTask("https://example.com/a.png", false)
		require.NoError(t, err)

		require.NoError(t, task.StartProcessing())
		require.NoError(t, task.Fail("failed to download file: HTTP 404"))
		assert.Equal(t, TaskStatusFailed, task.Status)
		require.NotNil(t, task.ErrorMessage)
		assert.Equal(t, "failed to download file: HTTP 404", *task.ErrorMessage)
		assert.Nil(t, task.ChannelMessageID)
		require.NoError(t, task.Validate())
	})

	t.Run("empty_failure_message_is_replaced", func(t *testing.T) {
		task, err := NewTask("https://example.com/a.png", false)
		require.NoError(t, err)
		require.NoError(t, task.StartProcessing())

		require.NoError(t, task.Fail(""))
		require.NotNil(t, task.ErrorMessage)
		assert.NotEmpty(t, *task.ErrorMessage)
	})

	t.Run("cannot_skip_processing", func(t *testing.T) {
		task, err := NewTask("https://example.com/a.png", false)
		require.NoError(t, err)

		assert.ErrorIs(t, task.Fail("boom"), ErrInvalidTransition)
		assert.ErrorIs(t, task.Complete("1"), ErrInvalidTransition)
		assert.Equal(t, TaskStatusPending, task.Status)
		assert.Nil(t, task.ErrorMessage)
		assert.Nil(t, task.ChannelMessageID)
	})

	t.Run("terminal_is_final", func(t *testing.T) {
		task, err := NewTask("https://example.com/a.png", false)
		require.NoError(t, err)
		require.NoError(t, task.StartProcessing())
		require.NoError(t, task.Complete("7"))

		assert.ErrorIs(t, task.Fail("late"), ErrInvalidTransition)
		assert.ErrorIs(t, task.StartProcessing(), ErrInvalidTransition)
		assert.Nil(t, task.ErrorMessage)
		assert.Equal(t, TaskStatusCompleted, task.Status)
	})

	t.Run("complete_requires_message_id", func(t *testing.T) {
		task, err := NewTask("https://example.com/a.png", false)
		require.NoError(t, err)
		require.NoError(t, task.StartProcessing())

		assert.ErrorIs(t, task.Complete(""), ErrEmptyMessageID)
		assert.Equal(t, TaskStatusProcessing, task.Status)
	})
}

func TestTask_Validate(t *testing.T) {
	msg := "1"
	errMsg := "boom"

	tests := []struct {
		name    string
		mutate  func(*Task)
		wantErr bool
	}{
		{name: "pending_ok", mutate: func(*Task) {}},
		{name: "nil_id", mutate: func(task *Task) { task.ID = uuid.Nil }, wantErr: true},
		{name: "bad_status", mutate: func(task *Task) { task.Status = "queued" }, wantErr: true},
		{name: "pending_with_message", mutate: func(task *Task) { task.ChannelMessageID = &msg }, wantErr: true},
		{name: "processing_with_error", mutate: func(task *Task) {
			task.Status = TaskStatusProcessing
			task.ErrorMessage = &errMsg
		}, wantErr: true},
		{name: "completed_without_message", mutate: func(task *Task) { task.Status = TaskStatusCompleted }, wantErr: true},
		{name: "completed_with_both", mutate: func(task *Task) {
			task.Status = TaskStatusCompleted
			task.ChannelMessageID = &msg
			task.ErrorMessage = &errMsg
		}, wantErr: true},
		{name: "failed_with_error", mutate: func(task *Task) {
			task.Status = TaskStatusFailed
			task.ErrorMessage = &errMsg
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task, err := NewTask("https://example.com/x", false)
			require.NoError(t, err)
			tc.mutate(task)

			err = task.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
