package repository

import (
	"context"
	"time"

	"fitbook/pkg/config"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SessionLockRepository provides operations for advisory slot locks
type SessionLockRepository interface {
	Create(ctx context.Context, lock *model.SessionLock) (*model.SessionLock, error)
	Delete(ctx context.Context, lockID string) error
}

type mongoSessionLockRepository struct {
	collection *mongo.Collection
}

func NewSessionLockRepository(cfg *config.Config) SessionLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSessionLockRepository{
		collection: db.Collection("Session_locks"),
	}
}

// Returns duplicate key error if lock already exists
func (r *mongoSessionLockRepository) Create(ctx context.Context, lock *model.SessionLock) (*model.SessionLock, error) {
	lock.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		return nil, err
	}

	return lock, nil
}

// Delete removes an advisory lock
func (r *mongoSessionLockRepository) Delete(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
