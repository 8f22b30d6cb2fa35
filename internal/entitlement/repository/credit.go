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
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CreditCollectionName = "Session_credits"
)

type CreditRepository interface {
	Create(ctx context.Context, credit *model.SessionCredit) error
	FindByID(ctx context.Context, id string) (*model.SessionCredit, error)
	// FindAvailable returns the oldest available credit for the subscription
	// and service type, or ErrCreditNotFound.
	FindAvailable(ctx context.Context, subscriptionID string, serviceTypeID string) (*model.SessionCredit, error)
	// MarkUsed flips available -> used_for_session; a lost race returns
	// ErrStaleCounter.
	MarkUsed(ctx context.Context, id string) error
	// Release flips used_for_session -> available and clears used_at.
	Release(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type mongoCreditRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCreditRepository(cfg *config.Config) CreditRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCreditRepository{
		cfg:        cfg,
		collection: db.Collection(CreditCollectionName),
	}
}

func (r *mongoCreditRepository) Create(ctx context.Context, credit *model.SessionCredit) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	credit.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, credit)
	if err != nil {
		return fmt.Errorf("failed to create session credit: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		credit.ID = oid.Hex()
	}
	return nil
}

func (r *mongoCreditRepository) FindByID(ctx context.Context, id string) (*model.SessionCredit, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entitlementerrors.ErrInvalidID, id)
	}

	var credit model.SessionCredit
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&credit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entitlementerrors.ErrCreditNotFound
		}
		return nil, fmt.Errorf("failed to find session credit: %w", err)
	}

	return &credit, nil
}

func (r *mongoCreditRepository) FindAvailable(ctx context.Context, subscriptionID string, serviceTypeID string) (*model.SessionCredit, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"subscription_id": subscriptionID,
		"service_type_id": serviceTypeID,
		"status":          model.CreditAvailable,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})

	var credit model.SessionCredit
	err := r.collection.FindOne(ctx, filter, opts).Decode(&credit)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entitlementerrors.ErrCreditNotFound
		}
		return nil, fmt.Errorf("failed to find available credit: %w", err)
	}

	return &credit, nil
}

func (r *mongoCreditRepository) MarkUsed(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", entitlementerrors.ErrInvalidID, id)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	filter := bson.M{
		"_id":    objectID,
		"status": model.CreditAvailable,
	}
	update := bson.M{"$set": bson.M{
		"status":  model.CreditUsedForSession,
		"used_at": now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark credit used: %w", err)
	}

	if result.ModifiedCount == 0 {
		return entitlementerrors.ErrStaleCounter
	}

	return nil
}

func (r *mongoCreditRepository) Release(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", entitlementerrors.ErrInvalidID, id)
	}

	filter := bson.M{
		"_id":    objectID,
		"status": model.CreditUsedForSession,
	}
	update := bson.M{
		"$set":   bson.M{"status": model.CreditAvailable},
		"$unset": bson.M{"used_at": ""},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release credit: %w", err)
	}

	if result.ModifiedCount == 0 {
		return entitlementerrors.ErrStaleCounter
	}

	return nil
}

func (r *mongoCreditRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", entitlementerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete session credit: %w", err)
	}

	if result.DeletedCount == 0 {
		return entitlementerrors.ErrCreditNotFound
	}

	return nil
}
