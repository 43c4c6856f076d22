package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskflow/domain/repositories"
	"taskflow/pkg/logger"
)

const (
	usersCollection = "users"
	tasksCollection = "tasks"
)

type DatabaseConfig struct {
	URI      string
	Database string
}

// NewDatabase connect + ping แล้วคืน database handle ที่ใช้ uuid codec
func NewDatabase(ctx context.Context, config DatabaseConfig) (*mongo.Client, *mongo.Database, error) {
	clientOptions := options.Client().
		ApplyURI(config.URI).
		SetRegistry(NewRegistry())

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info("Connected to MongoDB", "database", config.Database)
	return client, client.Database(config.Database), nil
}

// EnsureIndexes เทียบเท่า AutoMigrate ฝั่ง postgres
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create users.email index: %w", err)
	}

	_, err = db.Collection(tasksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "dueDate", Value: 1}, {Key: "isCompleted", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create tasks indexes: %w", err)
	}
	return nil
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repositories.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", repositories.ErrDuplicateKey, err)
	default:
		return err
	}
}
