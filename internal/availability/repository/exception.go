package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	availerrors "fitbook/internal/availability/errors"
	"fitbook/pkg/config"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ExceptionCollectionName = "Availability_exceptions"
)

type ExceptionRepository interface {
	Create(ctx context.Context, exception *model.AvailabilityException) error
	FindByID(ctx context.Context, id string) (*model.AvailabilityException, error)
	FindByTrainerAndDate(ctx context.Context, trainerID string, date string) ([]*model.AvailabilityException, error)
	FindByTrainer(ctx context.Context, trainerID string, limit int, offset int64) ([]*model.AvailabilityException, error)
	Delete(ctx context.Context, id string) error
}

type mongoExceptionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoExceptionRepository(cfg *config.Config) ExceptionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoExceptionRepository{
		cfg:        cfg,
		collection: db.Collection(ExceptionCollectionName),
	}
}

func (r *mongoExceptionRepository) Create(ctx context.Context, exception *model.AvailabilityException) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	exception.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, exception)
	if err != nil {
		return fmt.Errorf("failed to create availability exception: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		exception.ID = oid.Hex()
	}
	return nil
}

func (r *mongoExceptionRepository) FindByID(ctx context.Context, id string) (*model.AvailabilityException, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", availerrors.ErrInvalidID, id)
	}

	var exception model.AvailabilityException
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&exception)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availerrors.ErrExceptionNotFound
		}
		return nil, fmt.Errorf("failed to find availability exception: %w", err)
	}

	return &exception, nil
}

func (r *mongoExceptionRepository) FindByTrainerAndDate(ctx context.Context, trainerID string, date string) ([]*model.AvailabilityException, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"trainer_id": trainerID,
		"date":       date,
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability exceptions: %w", err)
	}
	defer cursor.Close(ctx)

	var exceptions []*model.AvailabilityException
	if err = cursor.All(ctx, &exceptions); err != nil {
		return nil, fmt.Errorf("failed to decode availability exceptions: %w", err)
	}

	return exceptions, nil
}

func (r *mongoExceptionRepository) FindByTrainer(ctx context.Context, trainerID string, limit int, offset int64) ([]*model.AvailabilityException, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{"trainer_id": trainerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability exceptions: %w", err)
	}
	defer cursor.Close(ctx)

	var exceptions []*model.AvailabilityException
	if err = cursor.All(ctx, &exceptions); err != nil {
		return nil, fmt.Errorf("failed to decode availability exceptions: %w", err)
	}

	return exceptions, nil
}

func (r *mongoExceptionRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", availerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete availability exception: %w", err)
	}

	if result.DeletedCount == 0 {
		return availerrors.ErrExceptionNotFound
	}

	return nil
}
