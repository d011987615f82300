package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/relay-api/internal/domain"
	"github.com/phrazzld/relay-api/internal/platform/logger"
	"github.com/phrazzld/relay-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// taskDocument is the BSON shape of a stored task.
type taskDocument struct {
	ID               string    `bson:"_id"`
	URL              string    `bson:"url"`
	Status           string    `bson:"status"`
	ChannelMessageID *string   `bson:"channel_message_id"`
	ErrorMessage     *string   `bson:"error_message"`
	ForceDocument    bool      `bson:"force_document"`
	CreatedAt        time.Time `bson:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func toDocument(task *domain.Task) taskDocument {
	return taskDocument{
		ID:               task.ID.String(),
		URL:              task.URL,
		Status:           string(task.Status),
		ChannelMessageID: task.ChannelMessageID,
		ErrorMessage:     task.ErrorMessage,
		ForceDocument:    task.ForceDocument,
		CreatedAt:        task.CreatedAt.UTC(),
		UpdatedAt:        task.UpdatedAt.UTC(),
	}
}

func (d taskDocument) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid stored task id %q: %w", d.ID, err)
	}
	return &domain.Task{
		ID:               id,
		URL:              d.URL,
		Status:           domain.TaskStatus(d.Status),
		ChannelMessageID: d.ChannelMessageID,
		ErrorMessage:     d.ErrorMessage,
		ForceDocument:    d.ForceDocument,
		CreatedAt:        d.CreatedAt.UTC(),
		UpdatedAt:        d.UpdatedAt.UTC(),
	}, nil
}

// TaskStore implements the store.TaskStore interface using a MongoDB collection.
type TaskStore struct {
	col *mongo.Collection
}

// NewTaskStore creates a new TaskStore over col.
func NewTaskStore(col *mongo.Collection) *TaskStore {
	return &TaskStore{col: col}
}

var _ store.TaskStore = (*TaskStore)(nil)

// Create inserts a new pending task document.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := store.ValidateForCreate(task); err != nil {
		return err
	}

	if _, err := s.col.InsertOne(ctx, toDocument(task)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		}
		logger.FromContext(ctx).Error("failed to save task",
			"task_id", task.ID,
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", err)
	}

	return nil
}

// GetByID retrieves a task document by ID.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var doc taskDocument
	err := s.col.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrTaskNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to load task",
			"task_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to load task: %w", err)
	}

	return doc.toDomain()
}

// Update sets the task's status and result fields. The filter matches only
// when the stored status is the legal predecessor, so the check and the
// write are a single atomic operation.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	prev, err := store.ValidateForUpdate(task)
	if err != nil {
		return err
	}

	doc := toDocument(task)
	result, err := s.col.UpdateOne(ctx,
		bson.M{"_id": doc.ID, "status": string(prev)},
		bson.M{"$set": bson.M{
			"status":             doc.Status,
			"channel_message_id": doc.ChannelMessageID,
			"error_message":      doc.ErrorMessage,
			"updated_at":         doc.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}

	var current taskDocument
	err = s.col.FindOne(ctx, bson.M{"_id": doc.ID},
		options.FindOne().SetProjection(bson.M{"status": 1})).Decode(&current)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read task status: %w", err)
	}
	return fmt.Errorf("%w: stored status is %s, cannot move to %s",
		domain.ErrInvalidTransition, current.Status, task.Status)
}
