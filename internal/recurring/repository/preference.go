package repository

import (
	"context"
	"fmt"

	recurringerrors "fitbook/internal/recurring/errors"
	"fitbook/pkg/config"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	PreferenceCollectionName = "Client_time_preferences"
)

type PreferenceRepository interface {
	// FindByIDs loads the client's preferences for the given ids; every id
	// must resolve or ErrPreferenceNotFound is returned.
	FindByIDs(ctx context.Context, clientID string, ids []string) ([]*model.ClientTimePreference, error)
	FindByClient(ctx context.Context, clientID string) ([]*model.ClientTimePreference, error)
}

type mongoPreferenceRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoPreferenceRepository(cfg *config.Config) PreferenceRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPreferenceRepository{
		cfg:        cfg,
		collection: db.Collection(PreferenceCollectionName),
	}
}

func (r *mongoPreferenceRepository) FindByIDs(ctx context.Context, clientID string, ids []string) ([]*model.ClientTimePreference, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", recurringerrors.ErrInvalidID, id)
		}
		objectIDs = append(objectIDs, objectID)
	}

	filter := bson.M{
		"_id":       bson.M{"$in": objectIDs},
		"client_id": clientID,
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find time preferences: %w", err)
	}
	defer cursor.Close(ctx)

	var preferences []*model.ClientTimePreference
	if err = cursor.All(ctx, &preferences); err != nil {
		return nil, fmt.Errorf("failed to decode time preferences: %w", err)
	}

	if len(preferences) != len(ids) {
		return nil, recurringerrors.ErrPreferenceNotFound
	}

	return preferences, nil
}

func (r *mongoPreferenceRepository) FindByClient(ctx context.Context, clientID string) ([]*model.ClientTimePreference, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "weekday", Value: 1}, {Key: "start_time", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"client_id": clientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find time preferences: %w", err)
	}
	defer cursor.Close(ctx)

	var preferences []*model.ClientTimePreference
	if err = cursor.All(ctx, &preferences); err != nil {
		return nil, fmt.Errorf("failed to decode time preferences: %w", err)
	}

	return preferences, nil
}
