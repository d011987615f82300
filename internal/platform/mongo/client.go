package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// DefaultDatabase is used when the connection URI names no database.
const DefaultDatabase = "relay"

// CollectionName is the collection holding task documents.
const CollectionName = "tasks"

// Connect establishes a connection to MongoDB and verifies it with a ping.
// The returned client should be closed with Disconnect.
func Connect(ctx context.Context, uri string) (*mongo.Client, string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, "", fmt.Errorf("mongo: invalid connection string: %w", err)
	}
	database := cs.Database
	if database == "" {
		database = DefaultDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create MongoDB client: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, "", fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, database, nil
}

// Disconnect closes the MongoDB connection.
func Disconnect(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return client.Disconnect(ctx)
}

// TasksCollection returns the task collection and makes sure its status
// index exists.
func TasksCollection(ctx context.Context, client *mongo.Client, database string) (*mongo.Collection, error) {
	col := client.Database(database).Collection(CollectionName)

	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "status", Value: 1}},
		Options: options.Index().SetName("idx_tasks_status"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task index: %w", err)
	}

	return col, nil
}
