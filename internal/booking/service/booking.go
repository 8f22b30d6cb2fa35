package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingerrors "fitbook/internal/booking/errors"
	"fitbook/internal/booking/repository"
	"fitbook/internal/booking/validator"
	entitlement "fitbook/internal/entitlement/service"
	"fitbook/internal/notify"
	"fitbook/pkg/config"
	apperrors "fitbook/pkg/errors"
	"fitbook/pkg/model"
	"fitbook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRequest is the payload of POST /api/v1/sessions.
type BookingRequest struct {
	TrainerID      string    `json:"trainerId"`
	ClientID       string    `json:"clientId"`
	ServiceTypeID  string    `json:"serviceTypeId"`
	StartTime      time.Time `json:"sessionDate"`
	Method         string    `json:"bookingMethod"`
	PackID         string    `json:"sourcePackId,omitempty"`
	SubscriptionID string    `json:"sourceSubscriptionId,omitempty"`
	Notes          string    `json:"notes,omitempty"`
}

type BookingResult struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
	Warning   string `json:"warning,omitempty"`
}

type BookingService interface {
	Book(ctx context.Context, req *BookingRequest) (*BookingResult, error)
	GetByID(ctx context.Context, id string) (*model.Session, error)
	List(ctx context.Context, filter repository.SessionFilter, limit int, offset int64) ([]*model.Session, int64, error)

	Cancel(ctx context.Context, id string, req *CancelRequest) (*model.Session, error)
	Edit(ctx context.Context, id string, req *EditRequest) (*model.Session, error)
	Approve(ctx context.Context, id string, actorID string, actorRole string) error
	Complete(ctx context.Context, id string, actorID string, actorRole string) error
	NoShow(ctx context.Context, id string, actorID string, actorRole string) error
}

type bookingService struct {
	repo        repository.SessionRepository
	lockRepo    repository.SessionLockRepository
	parties     repository.PartyRepository
	validator   *validator.SessionValidator
	conflicts   ConflictChecker
	entitlement entitlement.EntitlementService
	dispatcher  notify.Dispatcher
	cfg         *config.Config
}

func NewBookingService(
	repo repository.SessionRepository,
	lockRepo repository.SessionLockRepository,
	parties repository.PartyRepository,
	validator *validator.SessionValidator,
	conflicts ConflictChecker,
	entitlement entitlement.EntitlementService,
	dispatcher notify.Dispatcher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:        repo,
		lockRepo:    lockRepo,
		parties:     parties,
		validator:   validator,
		conflicts:   conflicts,
		entitlement: entitlement,
		dispatcher:  dispatcher,
		cfg:         cfg,
	}
}

// Book runs the full orchestration: entitlement validation, advisory slot
// lock, conflict check, session insert, entitlement consumption. Any failure
// after the insert compensates by deleting the session, so a lost CAS race
// leaves no half-booked state behind.
func (s *bookingService) Book(ctx context.Context, req *BookingRequest) (*BookingResult, error) {
	session := s.buildSession(req)

	ent, err := s.entitlement.Validate(ctx, entitlement.Request{
		ClientID:       req.ClientID,
		TrainerID:      req.TrainerID,
		ServiceTypeID:  req.ServiceTypeID,
		Method:         req.Method,
		PackID:         req.PackID,
		SubscriptionID: req.SubscriptionID,
		Quantity:       1,
	})
	if err != nil {
		return nil, err
	}
	applyEntitlementSource(session, ent)

	if err := s.validate(session); err != nil {
		return nil, err
	}

	// Advisory lock on the trainer timeslot to serialize racing requests.
	lockID, err := s.acquireSlotLock(ctx, session.TrainerID, session.StartTime)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseSlotLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	check, err := s.conflicts.Check(ctx, session.TrainerID, session.StartTime, session.DurationMin, "")
	if err != nil {
		return nil, err
	}
	if check.Status == CheckConflict {
		return nil, apperrors.Conflict(check.Message)
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, apperrors.Internal("Failed to create session", err)
	}

	if err := s.entitlement.Consume(ctx, ent, 1); err != nil {
		// Compensate: the session must not survive a failed consumption.
		if delErr := s.repo.Delete(ctx, session.ID); delErr != nil {
			s.cfg.Log.Error("Failed to roll back session after consumption failure",
				"session_id", session.ID,
				"error", delErr,
			)
		}
		return nil, err
	}

	s.cfg.Log.Info("Session booked",
		"session_id", session.ID,
		"trainer_id", session.TrainerID,
		"client_id", session.ClientID,
		"start_time", session.StartTime,
		"method", session.BookingMethod,
		"status", session.Status,
	)

	eventType := notify.EventSessionBooked
	if session.Status == model.SessionPendingApproval {
		eventType = notify.EventSessionPendingApproval
	}
	s.notifyBoth(ctx, session, eventType)

	result := &BookingResult{SessionID: session.ID, Status: session.Status}
	if check.Status == CheckWarning {
		result.Warning = check.Message
	}
	return result, nil
}

func (s *bookingService) buildSession(req *BookingRequest) *model.Session {
	status := model.SessionScheduled
	if req.Method == model.MethodOneOff {
		// One-off bookings wait for the trainer's approval.
		status = model.SessionPendingApproval
	}

	return &model.Session{
		TrainerID:     req.TrainerID,
		ClientID:      req.ClientID,
		ServiceTypeID: req.ServiceTypeID,
		StartTime:     req.StartTime.UTC().Truncate(time.Minute),
		DurationMin:   int(s.cfg.SessionDuration.Minutes()),
		Status:        status,
		BookingMethod: req.Method,
		Notes:         sanitizer.NormalizeNote(req.Notes),
	}
}

func applyEntitlementSource(session *model.Session, ent *entitlement.Entitlement) {
	switch ent.Method {
	case model.MethodPack:
		session.SourcePackID = ent.PackID
	case model.MethodSubscription:
		if ent.CreditID != "" {
			session.SourceCreditID = ent.CreditID
		} else {
			session.SourceSubscription = ent.SubscriptionID
		}
	}
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Session, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Session ID cannot be empty")
	}

	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Session", id)
		}
		if errors.Is(err, bookingerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid session ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve session", err)
	}

	return session, nil
}

func (s *bookingService) List(ctx context.Context, filter repository.SessionFilter, limit int, offset int64) ([]*model.Session, int64, error) {
	var count int64
	var sessions []*model.Session
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		sessions, errFind = s.repo.Search(ctx, filter, limit, offset)
	}()

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountBySearch(ctx, filter)
	}()

	wg.Wait()

	if errFind != nil {
		return nil, 0, apperrors.Internal("Failed to retrieve sessions", errFind)
	}
	if errCount != nil {
		return nil, 0, apperrors.Internal("Failed to count sessions", errCount)
	}

	return sessions, count, nil
}

func (s *bookingService) validate(session *model.Session) error {
	if err := s.validator.Validate(session); err != nil {
		s.cfg.Log.Warn("Session validation failed", "error", err)
		return apperrors.Validation("Session validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

// acquireSlotLock creates an advisory lock keyed by trainer and UTC instant.
// A duplicate key means another request is mid-booking on the same slot.
func (s *bookingService) acquireSlotLock(ctx context.Context, trainerID string, startTime time.Time) (string, error) {
	lockID := fmt.Sprintf("session_lock_%s_%d", sanitizer.SanitizeSlug(trainerID), startTime.UTC().Unix())

	lock := &model.SessionLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This time slot is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire slot lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseSlotLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

// notifyBoth dispatches the event to trainer and client, honoring whatever
// preferences can be loaded. A missing party document just means no opt-out.
func (s *bookingService) notifyBoth(ctx context.Context, session *model.Session, eventType string) {
	data := map[string]any{
		"session_id":      session.ID,
		"trainer_id":      session.TrainerID,
		"client_id":       session.ClientID,
		"service_type_id": session.ServiceTypeID,
		"start_time":      session.StartTime,
		"status":          session.Status,
	}

	var trainerPrefs, clientPrefs *model.NotificationPrefs
	if trainer, err := s.parties.FindTrainer(ctx, session.TrainerID); err == nil {
		trainerPrefs = &trainer.Notifications
	}
	if client, err := s.parties.FindClient(ctx, session.ClientID); err == nil {
		clientPrefs = &client.Notifications
	}

	s.dispatcher.Dispatch(ctx, notify.Notification{
		To:    session.TrainerID,
		Type:  eventType,
		Data:  data,
		Prefs: trainerPrefs,
	})
	s.dispatcher.Dispatch(ctx, notify.Notification{
		To:    session.ClientID,
		Type:  eventType,
		Data:  data,
		Prefs: clientPrefs,
	})
}
