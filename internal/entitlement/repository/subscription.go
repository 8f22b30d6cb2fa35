package repository

import (
	"context"
	"errors"
	"fmt"

	entitlementerrors "fitbook/internal/entitlement/errors"
	"fitbook/pkg/config"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	SubscriptionCollectionName = "Subscriptions"
)

type SubscriptionRepository interface {
	FindByID(ctx context.Context, id string) (*model.Subscription, error)
	FindScoped(ctx context.Context, id string, clientID string, trainerID string) (*model.Subscription, error)
}

type mongoSubscriptionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSubscriptionRepository(cfg *config.Config) SubscriptionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSubscriptionRepository{
		cfg:        cfg,
		collection: db.Collection(SubscriptionCollectionName),
	}
}

func (r *mongoSubscriptionRepository) FindByID(ctx context.Context, id string) (*model.Subscription, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", entitlementerrors.ErrInvalidID, id)
	}

	var subscription model.Subscription
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&subscription)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entitlementerrors.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}

	return &subscription, nil
}

func (r *mongoSubscriptionRepository) FindScoped(ctx context.Context, id string, clientID string, trainerID string) (*model.Subscription, error) {
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

	var subscription model.Subscription
	err = r.collection.FindOne(ctx, filter).Decode(&subscription)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entitlementerrors.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}

	return &subscription, nil
}
