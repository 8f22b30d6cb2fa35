package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	entitlementerrors "fitbook/internal/entitlement/errors"
	"fitbook/pkg/config"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	PackCollectionName = "Session_packs"
)

type PackRepository interface {
	FindByID(ctx context.Context, id string) (*model.SessionPack, error)
	FindScoped(ctx context.Context, id string, clientID string, trainerID string) (*model.SessionPack, error)
	// DecrementRemaining performs a guarded compare-and-swap: the update only
	// applies while sessions_remaining still equals expected. ErrStaleCounter
	// on a lost race.
	DecrementRemaining(ctx context.Context, id string, expected int, n int) error
	// IncrementRemaining is the CAS mirror used by cancellation reversal.
	IncrementRemaining(ctx context.Context, id string, expected int, n int) error
}

type mongoPackRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPackRepository(cfg *config.Config) PackRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPackRepository{
		cfg:        cfg,
		collection: db.Collection(PackCollectionName),
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

func (r *mongoPackRepository) FindByID(ctx context.Context, id string) (*model.SessionPack, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entitlementerrors.ErrInvalidID, id)
	}

	var pack model.SessionPack
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&pack)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entitlementerrors.ErrPackNotFound
		}
		return nil, fmt.Errorf("failed to find session pack: %w", err)
	}

	return &pack, nil
}

func (r *mongoPackRepository) FindScoped(ctx context.Context, id string, clientID string, trainerID string) (*model.SessionPack, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entitlementerrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":        objectID,
		"client_id":  clientID,
		"trainer_id": trainerID,
	}

	var pack model.SessionPack
	err = r.collection.FindOne(ctx, filter).Decode(&pack)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entitlementerrors.ErrPackNotFound
		}
		return nil, fmt.Errorf("failed to find session pack: %w", err)
	}

	return &pack, nil
}

func (r *mongoPackRepository) DecrementRemaining(ctx context.Context, id string, expected int, n int) error {
	if n <= 0 {
		return fmt.Errorf("decrement count must be positive, got %d", n)
	}
	if expected-n < 0 {
		return entitlementerrors.ErrStaleCounter
	}
	return r.swapRemaining(ctx, id, expected, expected-n)
}

func (r *mongoPackRepository) IncrementRemaining(ctx context.Context, id string, expected int, n int) error {
	if n <= 0 {
		return fmt.Errorf("increment count must be positive, got %d", n)
	}
	return r.swapRemaining(ctx, id, expected, expected+n)
}

// swapRemaining writes the new counter value only if the stored value still
// matches what the caller read. ModifiedCount 0 with a matching _id means a
// concurrent writer got there first.
func (r *mongoPackRepository) swapRemaining(ctx context.Context, id string, expected int, next int) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", entitlementerrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":                objectID,
		"sessions_remaining": expected,
		"status":             bson.M{"$ne": model.PackCancelled},
	}

	set := bson.M{"sessions_remaining": next}
	if next == 0 {
		set["status"] = model.PackExhausted
	} else {
		set["status"] = model.PackActive
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update session pack counter: %w", err)
	}

	if result.ModifiedCount == 0 {
		return entitlementerrors.ErrStaleCounter
	}

	return nil
}
