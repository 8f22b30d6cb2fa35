package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingerrors "fitbook/internal/booking/errors"
	"fitbook/pkg/config"
	mongotx "fitbook/pkg/db/mongo"
	"fitbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	SessionCollectionName = "Sessions"
)

// SessionFilter narrows listing queries. Zero values mean "no constraint".
type SessionFilter struct {
	TrainerID string
	ClientID  string
	Status    string
	From      *time.Time
	To        *time.Time
}

type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	CreateMany(ctx context.Context, sessions []*model.Session) error
	FindByID(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByRecurringSchedule(ctx context.Context, scheduleID string) (int64, error)

	// FindOverlapping returns non-cancelled sessions for the trainer whose
	// [start_time, start_time+duration) window intersects [start, end).
	// excludeID skips one session, used when rescheduling.
	FindOverlapping(ctx context.Context, trainerID string, start time.Time, end time.Time, excludeID string) ([]*model.Session, error)

	// CountPackConsumption counts sessions that consume the pack's capacity:
	// live statuses plus penalized cancellations.
	CountPackConsumption(ctx context.Context, packID string) (int64, error)

	UpdateStatus(ctx context.Context, id string, status string, cancellationReason string) error
	Reschedule(ctx context.Context, id string, start time.Time, notes *string) error

	Search(ctx context.Context, filter SessionFilter, limit int, offset int64) ([]*model.Session, error)
	CountBySearch(ctx context.Context, filter SessionFilter) (int64, error)

	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoSessionRepository struct {
	cfg        *config.Config
	db         *mongo.Database
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoSessionRepository(cfg *config.Config) SessionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSessionRepository{
		cfg:        cfg,
		db:         db,
		collection: db.Collection(SessionCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
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

func (r *mongoSessionRepository) Create(ctx context.Context, session *model.Session) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	session.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		session.ID = oid.Hex()
	}
	return nil
}

func (r *mongoSessionRepository) CreateMany(ctx context.Context, sessions []*model.Session) error {
	if len(sessions) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]interface{}, len(sessions))
	for i, session := range sessions {
		session.CreatedAt = now
		docs[i] = session
	}

	result, err := r.collection.InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("failed to create sessions: %w", err)
	}

	for i, insertedID := range result.InsertedIDs {
		if oid, ok := insertedID.(primitive.ObjectID); ok {
			sessions[i].ID = oid.Hex()
		}
	}
	return nil
}

func (r *mongoSessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	var session model.Session
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return &session, nil
}

func (r *mongoSessionRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if result.DeletedCount == 0 {
		return bookingerrors.ErrNotFound
	}

	return nil
}

func (r *mongoSessionRepository) DeleteByRecurringSchedule(ctx context.Context, scheduleID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"recurring_schedule_id": scheduleID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions for schedule: %w", err)
	}

	return result.DeletedCount, nil
}

func (r *mongoSessionRepository) FindOverlapping(ctx context.Context, trainerID string, start time.Time, end time.Time, excludeID string) ([]*model.Session, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	// Sessions store start_time + duration_min, so the end-side bound is
	// expressed against the widest possible session span and the precise
	// overlap is confirmed in code below.
	const maxDurationMin = 480
	filter := bson.M{
		"trainer_id": trainerID,
		"status":     bson.M{"$nin": []string{model.SessionCancelled, model.SessionNoShow}},
		"start_time": bson.M{
			"$lt": end,
			"$gt": start.Add(-maxDurationMin * time.Minute),
		},
	}
	if excludeID != "" {
		objectID, err := primitive.ObjectIDFromHex(excludeID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, excludeID)
		}
		filter["_id"] = bson.M{"$ne": objectID}
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var candidates []*model.Session
	if err = cursor.All(ctx, &candidates); err != nil {
		return nil, fmt.Errorf("failed to decode overlapping sessions: %w", err)
	}

	var overlapping []*model.Session
	for _, s := range candidates {
		if s.StartTime.Before(end) && s.EndTime().After(start) {
			overlapping = append(overlapping, s)
		}
	}
	return overlapping, nil
}

func (r *mongoSessionRepository) CountPackConsumption(ctx context.Context, packID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"source_pack_id": packID,
		"$or": []bson.M{
			{"status": bson.M{"$in": []string{
				model.SessionScheduled,
				model.SessionCompleted,
				model.SessionNoShow,
				model.SessionPendingApproval,
			}}},
			{
				"status":              model.SessionCancelled,
				"cancellation_reason": model.CancelPenalty,
			},
		},
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count pack consumption: %w", err)
	}
	return count, nil
}

func (r *mongoSessionRepository) UpdateStatus(ctx context.Context, id string, status string, cancellationReason string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	set := bson.M{
		"status":     status,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if cancellationReason != "" {
		set["cancellation_reason"] = cancellationReason
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	if result.MatchedCount == 0 {
		return bookingerrors.ErrNotFound
	}

	return nil
}

func (r *mongoSessionRepository) Reschedule(ctx context.Context, id string, start time.Time, notes *string) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingerrors.ErrInvalidID, id)
	}

	set := bson.M{
		"start_time": start,
		"updated_at": time.Now().UTC().Truncate(time.Millisecond),
	}
	if notes != nil {
		set["notes"] = *notes
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to reschedule session: %w", err)
	}

	if result.MatchedCount == 0 {
		return bookingerrors.ErrNotFound
	}

	return nil
}

func (r *mongoSessionRepository) Search(ctx context.Context, filter SessionFilter, limit int, offset int64) ([]*model.Session, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetLimit(int64(limit)).
		SetSkip(offset).
		SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctx, buildSearchFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*model.Session
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	return sessions, nil
}

func (r *mongoSessionRepository) CountBySearch(ctx context.Context, filter SessionFilter) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildSearchFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions by search: %w", err)
	}
	return count, nil
}

func buildSearchFilter(f SessionFilter) bson.M {
	filter := bson.M{}

	if f.TrainerID != "" {
		filter["trainer_id"] = f.TrainerID
	}
	if f.ClientID != "" {
		filter["client_id"] = f.ClientID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	if f.From != nil || f.To != nil {
		timeFilter := bson.M{}
		if f.From != nil {
			timeFilter["$gte"] = *f.From
		}
		if f.To != nil {
			timeFilter["$lt"] = *f.To
		}
		filter["start_time"] = timeFilter
	}

	return filter
}

func (r *mongoSessionRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
