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
	TemplateCollectionName = "Availability_templates"
)

type TemplateRepository interface {
	Create(ctx context.Context, template *model.AvailabilityTemplate) error
	FindByID(ctx context.Context, id string) (*model.AvailabilityTemplate, error)
	FindByTrainer(ctx context.Context, trainerID string) ([]*model.AvailabilityTemplate, error)
	FindByTrainerAndWeekday(ctx context.Context, trainerID string, weekday model.Weekday) ([]*model.AvailabilityTemplate, error)
	Delete(ctx context.Context, id string) error
}

type mongoTemplateRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTemplateRepository(cfg *config.Config) TemplateRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTemplateRepository{
		cfg:        cfg,
		collection: db.Collection(TemplateCollectionName),
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

func (r *mongoTemplateRepository) Create(ctx context.Context, template *model.AvailabilityTemplate) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	template.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, template)
	if err != nil {
		return fmt.Errorf("failed to create availability template: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		template.ID = oid.Hex()
	}
	return nil
}

func (r *mongoTemplateRepository) FindByID(ctx context.Context, id string) (*model.AvailabilityTemplate, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", availerrors.ErrInvalidID, id)
	}

	var template model.AvailabilityTemplate
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, availerrors.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to find availability template: %w", err)
	}

	return &template, nil
}

func (r *mongoTemplateRepository) FindByTrainer(ctx context.Context, trainerID string) ([]*model.AvailabilityTemplate, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "weekday", Value: 1}, {Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"trainer_id": trainerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []*model.AvailabilityTemplate
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode availability templates: %w", err)
	}

	return templates, nil
}

func (r *mongoTemplateRepository) FindByTrainerAndWeekday(ctx context.Context, trainerID string, weekday model.Weekday) ([]*model.AvailabilityTemplate, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"trainer_id": trainerID,
		"weekday":    weekday,
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find availability templates: %w", err)
	}
	defer cursor.Close(ctx)

	var templates []*model.AvailabilityTemplate
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, fmt.Errorf("failed to decode availability templates: %w", err)
	}

	return templates, nil
}

func (r *mongoTemplateRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", availerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete availability template: %w", err)
	}

	if result.DeletedCount == 0 {
		return availerrors.ErrTemplateNotFound
	}

	return nil
}
