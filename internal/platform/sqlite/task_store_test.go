package sqlite_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/relay-api/internal/domain"
	"github.com/phrazzld/relay-api/internal/platform/migrate"
	"github.com/phrazzld/relay-api/internal/platform/sqlite"
	"github.com/phrazzld/relay-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.TaskStore {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlite.Migrate(ctx, db, nil))
	return sqlite.NewTaskStore(db)
}

func newPendingTask(t *testing.T) *domain.Task {
	t.Helper()
	task, err := domain.NewTask("https://example.com/a.png", false)
	require.NoError(t, err)
	return task
}

func TestTaskStore_CreateAndGet(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	task := newPendingTask(t)
	task.ForceDocument = true

	require.NoError(t, s.Create(ctx, task))

	got, err := s.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, task.URL, got.URL)
	assert.Equal(t, domain.TaskStatusPending, got.Status)
	assert.True(t, got.ForceDocument)
	assert.Nil(t, got.ChannelMessageID)
	assert.Nil(t, got.ErrorMessage)
	assert.True(t, task.CreatedAt.Equal(got.CreatedAt))
}

func TestTaskStore_CreateRejects(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	t.Run("duplicate", func(t *testing.T) {
		task := newPendingTask(t)
		require.NoError(t, s.Create(ctx, task))
		assert.ErrorIs(t, s.Create(ctx, task), store.ErrDuplicate)
	})

	t.Run("non_pending", func(t *testing.T) {
		task := newPendingTask(t)
		require.NoError(t, task.StartProcessing())
		assert.ErrorIs(t, s.Create(ctx, task), store.ErrInvalidEntity)
	})

	t.Run("nil", func(t *testing.T) {
		assert.ErrorIs(t, s.Create(ctx, nil), store.ErrInvalidEntity)
	})
}

func TestTaskStore_GetMissing(t *testing.T) {
	s := newStore(t)

	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
	assert.True(t, store.IsNotFoundError(err))
}

func TestTaskStore_UpdateLifecycle(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	task := newPendingTask(t)
	require.NoError(t, s.Create(ctx, task))

	require.NoError(t, task.StartProcessing())
	require.NoError(t, s.Update(ctx, task))

	got, err := s.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusProcessing, got.Status)

	require.NoError(t, task.Complete("1234"))
	require.NoError(t, s.Update(ctx, task))

	got, err = s.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	require.NotNil(t, got.ChannelMessageID)
	assert.Equal(t, "1234", *got.ChannelMessageID)
	assert.Nil(t, got.ErrorMessage)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func TestTaskStore_UpdateRejectsIllegalTransitions(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	t.Run("missing_task", func(t *testing.T) {
		task := newPendingTask(t)
		require.NoError(t, task.StartProcessing())
		assert.ErrorIs(t, s.Update(ctx, task), store.ErrTaskNotFound)
	})

	t.Run("skipping_processing", func(t *testing.T) {
		task := newPendingTask(t)
		require.NoError(t, s.Create(ctx, task))

		stale := *task
		stale.Status = domain.TaskStatusProcessing
		require.NoError(t, stale.Fail("boom"))
		// stored row is still pending
		assert.ErrorIs(t, s.Update(ctx, &stale), domain.ErrInvalidTransition)
	})

	t.Run("terminal_written_twice", func(t *testing.T) {
		task := newPendingTask(t)
		require.NoError(t, s.Create(ctx, task))
		require.NoError(t, task.StartProcessing())
		require.NoError(t, s.Update(ctx, task))
		require.NoError(t, task.Complete("9"))
		require.NoError(t, s.Update(ctx, task))

		assert.ErrorIs(t, s.Update(ctx, task), domain.ErrInvalidTransition)

		got, err := s.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, "9", *got.ChannelMessageID)
	})

	t.Run("pending_cannot_be_written", func(t *testing.T) {
		task := newPendingTask(t)
		require.NoError(t, s.Create(ctx, task))
		assert.ErrorIs(t, s.Update(ctx, task), domain.ErrInvalidTransition)
	})
}

func TestTaskStore_ConcurrentTerminalWrites(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	task := newPendingTask(t)
	require.NoError(t, s.Create(ctx, task))
	require.NoError(t, task.StartProcessing())
	require.NoError(t, s.Update(ctx, task))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := *task
			if i == 0 {
				errs[i] = c.Complete("77")
			} else {
				errs[i] = c.Fail("boom")
			}
			if errs[i] == nil {
				errs[i] = s.Update(ctx, &c)
			}
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one terminal write must win")
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, sqlite.MemoryPath)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, sqlite.Migrate(ctx, db, nil))
	require.NoError(t, sqlite.Migrate(ctx, db, nil))

	version, err := migrate.CurrentVersion(ctx, db, sqlite.Dialect)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}
