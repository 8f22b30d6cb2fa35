package repository

import (
	"context"
	"errors"
	"fmt"

	bookingerrors "fitbook/internal/booking/errors"
	"fitbook/pkg/config"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PartyRepository looks up the people on either side of a session, mainly for
// notification preferences and contact details.
type PartyRepository interface {
	FindTrainer(ctx context.Context, id string) (*model.Trainer, error)
	FindClient(ctx context.Context, id string) (*model.Client, error)
}

type mongoPartyRepository struct {
	cfg      *config.Config
	trainers *mongo.Collection
	clients  *mongo.Collection
}

func NewMongoPartyRepository(cfg *config.Config) PartyRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPartyRepository{
		cfg:      cfg,
		trainers: db.Collection("Trainers"),
		clients:  db.Collection("Clients"),
	}
}

func (r *mongoPartyRepository) FindTrainer(ctx context.Context, id string) (*model.Trainer, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	var trainer model.Trainer
	err = r.trainers.FindOne(ctx, bson.M{"_id": objectID}).Decode(&trainer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find trainer: %w", err)
	}

	return &trainer, nil
}

func (r *mongoPartyRepository) FindClient(ctx context.Context, id string) (*model.Client, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	var client model.Client
	err = r.clients.FindOne(ctx, bson.M{"_id": objectID}).Decode(&client)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find client: %w", err)
	}

	return &client, nil
}
