package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	recurringerrors "fitbook/internal/recurring/errors"
	"fitbook/pkg/config"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ScheduleCollectionName = "Recurring_schedules"
)

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *model.RecurringSchedule) error
	FindByID(ctx context.Context, id string) (*model.RecurringSchedule, error)
	// FindByIdempotencyKey returns the schedule created by a previous confirm
	// with the same key, or ErrScheduleNotFound.
	FindByIdempotencyKey(ctx context.Context, key string) (*model.RecurringSchedule, error)
	Delete(ctx context.Context, id string) error
}

type mongoScheduleRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoScheduleRepository(cfg *config.Config) ScheduleRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoScheduleRepository{
		cfg:        cfg,
		collection: db.Collection(ScheduleCollectionName),
	}
}

// withTimeout wraps the context with a timeout if not already in a transaction.
// SessionContext cannot be wrapped without breaking transaction semantics.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, timeout)
	}

	remaining := time.Until(deadline)
	if remaining < timeout {
		return context.WithTimeout(ctx, remaining)
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoScheduleRepository) Create(ctx context.Context, schedule *model.RecurringSchedule) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	schedule.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, schedule)
	if err != nil {
		return fmt.Errorf("failed to create recurring schedule: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		schedule.ID = oid.Hex()
	}
	return nil
}

func (r *mongoScheduleRepository) FindByID(ctx context.Context, id string) (*model.RecurringSchedule, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", recurringerrors.ErrInvalidID, id)
	}

	var schedule model.RecurringSchedule
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, recurringerrors.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to find recurring schedule: %w", err)
	}

	return &schedule, nil
}

func (r *mongoScheduleRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.RecurringSchedule, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var schedule model.RecurringSchedule
	err := r.collection.FindOne(ctx, bson.M{"idempotency_key": key}).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, recurringerrors.ErrScheduleNotFound
		}
		return nil, fmt.Errorf("failed to find recurring schedule by key: %w", err)
	}

	return &schedule, nil
}

func (r *mongoScheduleRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", recurringerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete recurring schedule: %w", err)
	}

	if result.DeletedCount == 0 {
		return recurringerrors.ErrScheduleNotFound
	}

	return nil
}
