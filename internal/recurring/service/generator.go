package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	availability "fitbook/internal/availability/service"
	bookingrepo "fitbook/internal/booking/repository"
	booking "fitbook/internal/booking/service"
	entitlement "fitbook/internal/entitlement/service"
	recurringerrors "fitbook/internal/recurring/errors"
	"fitbook/internal/recurring/repository"
	"fitbook/pkg/config"
	apperrors "fitbook/pkg/errors"
	"fitbook/pkg/model"
	"fitbook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ActionPreview = "preview"
	ActionConfirm = "confirm"
)

// GenerateRequest is the payload of POST /api/v1/recurring.
type GenerateRequest struct {
	Action           string      `json:"action"`
	TrainerID        string      `json:"trainerId"`
	ClientID         string      `json:"clientId"`
	PreferenceIDs    []string    `json:"preferenceIds"`
	StartDate        string      `json:"startDate"`
	EndDate          string      `json:"endDate"`
	BookingMethod    string      `json:"bookingMethod"`
	PackID           string      `json:"sessionPackId,omitempty"`
	SubscriptionID   string      `json:"subscriptionId,omitempty"`
	ServiceTypeID    string      `json:"serviceTypeId"`
	ExcludedSessions []time.Time `json:"excludedSessions,omitempty"`
}

// ProposedSession is one expanded instant with its conflict annotation.
type ProposedSession struct {
	StartTime    time.Time `json:"startTime"`
	PreferenceID string    `json:"preferenceId"`
	Status       string    `json:"status"`
	Message      string    `json:"message,omitempty"`
}

type PreviewResult struct {
	Proposed []ProposedSession `json:"proposed"`
}

type ConfirmResult struct {
	RecurringScheduleID string `json:"recurringScheduleId"`
	SessionsCreated     int    `json:"sessionsCreated"`
}

type RecurringService interface {
	// Preview expands the preferences and annotates each instant with the
	// conflict checker's verdict without persisting anything.
	Preview(ctx context.Context, req *GenerateRequest) (*PreviewResult, error)
	// Confirm creates the schedule and its non-conflicting sessions behind a
	// deterministic idempotency key; a replayed confirm returns the existing
	// schedule with zero new sessions.
	Confirm(ctx context.Context, req *GenerateRequest) (*ConfirmResult, error)
}

type recurringService struct {
	schedules   repository.ScheduleRepository
	preferences repository.PreferenceRepository
	sessions    bookingrepo.SessionRepository
	locks       bookingrepo.SessionLockRepository
	conflicts   booking.ConflictChecker
	entitlement entitlement.EntitlementService
	cfg         *config.Config
}

func NewRecurringService(
	schedules repository.ScheduleRepository,
	preferences repository.PreferenceRepository,
	sessions bookingrepo.SessionRepository,
	locks bookingrepo.SessionLockRepository,
	conflicts booking.ConflictChecker,
	entitlementService entitlement.EntitlementService,
	cfg *config.Config,
) RecurringService {
	return &recurringService{
		schedules:   schedules,
		preferences: preferences,
		sessions:    sessions,
		locks:       locks,
		conflicts:   conflicts,
		entitlement: entitlementService,
		cfg:         cfg,
	}
}

func (s *recurringService) Preview(ctx context.Context, req *GenerateRequest) (*PreviewResult, error) {
	proposed, err := s.expand(ctx, req)
	if err != nil {
		return nil, err
	}

	annotated, err := s.annotate(ctx, req.TrainerID, proposed)
	if err != nil {
		return nil, err
	}

	return &PreviewResult{Proposed: annotated}, nil
}

func (s *recurringService) Confirm(ctx context.Context, req *GenerateRequest) (*ConfirmResult, error) {
	proposed, err := s.expand(ctx, req)
	if err != nil {
		return nil, err
	}

	key := deriveIdempotencyKey(req)

	if existing, findErr := s.schedules.FindByIdempotencyKey(ctx, key); findErr == nil {
		s.cfg.Log.Info("Recurring confirm replayed",
			"schedule_id", existing.ID,
			"idempotency_key", key,
		)
		return &ConfirmResult{RecurringScheduleID: existing.ID, SessionsCreated: 0}, nil
	} else if !errors.Is(findErr, recurringerrors.ErrScheduleNotFound) {
		return nil, apperrors.Internal("Failed to look up recurring schedule", findErr)
	}

	// The advisory slot locks the single-booking path holds are taken for
	// every instant before the conflict checks, so nothing can book one of
	// these slots between the check and the bulk insert.
	held, release, err := s.lockSlots(ctx, req.TrainerID, proposed)
	if err != nil {
		return nil, err
	}
	defer release()

	annotated, err := s.annotate(ctx, req.TrainerID, proposed)
	if err != nil {
		return nil, err
	}

	var bookable []ProposedSession
	for _, p := range annotated {
		if p.Status == booking.CheckConflict || !held[p.StartTime.Unix()] {
			continue
		}
		bookable = append(bookable, p)
	}
	if len(bookable) == 0 {
		return nil, apperrors.Conflict("Every proposed session conflicts with existing bookings or availability")
	}

	// Capacity must cover the whole batch up front.
	ent, err := s.entitlement.Validate(ctx, entitlement.Request{
		ClientID:       req.ClientID,
		TrainerID:      req.TrainerID,
		ServiceTypeID:  req.ServiceTypeID,
		Method:         req.BookingMethod,
		PackID:         req.PackID,
		SubscriptionID: req.SubscriptionID,
		Quantity:       len(bookable),
	})
	if err != nil {
		return nil, err
	}
	// A banked credit covers a single session; batch generation always draws
	// on the subscription allocation directly.
	ent.CreditID = ""

	schedule := &model.RecurringSchedule{
		TrainerID:              req.TrainerID,
		ClientID:               req.ClientID,
		StartDate:              req.StartDate,
		EndDate:                req.EndDate,
		BookingMethod:          req.BookingMethod,
		ServiceTypeID:          req.ServiceTypeID,
		SourcePackID:           req.PackID,
		SourceSubscriptionID:   req.SubscriptionID,
		PreferenceIDs:          sortedCopy(req.PreferenceIDs),
		IdempotencyKey:         key,
		TotalSessionsGenerated: len(bookable),
	}
	if err := s.schedules.Create(ctx, schedule); err != nil {
		// A racing confirm with the same key may have won the unique index.
		if mongo.IsDuplicateKeyError(err) {
			if existing, findErr := s.schedules.FindByIdempotencyKey(ctx, key); findErr == nil {
				return &ConfirmResult{RecurringScheduleID: existing.ID, SessionsCreated: 0}, nil
			}
		}
		return nil, apperrors.Internal("Failed to create recurring schedule", err)
	}

	sessions := make([]*model.Session, 0, len(bookable))
	for _, p := range bookable {
		sessions = append(sessions, s.buildSession(req, ent, schedule.ID, p.StartTime))
	}

	if err := s.sessions.CreateMany(ctx, sessions); err != nil {
		s.rollback(ctx, schedule.ID, false)
		return nil, apperrors.Internal("Failed to create recurring sessions", err)
	}

	if err := s.entitlement.Consume(ctx, ent, len(sessions)); err != nil {
		s.rollback(ctx, schedule.ID, true)
		return nil, err
	}

	s.cfg.Log.Info("Recurring schedule confirmed",
		"schedule_id", schedule.ID,
		"trainer_id", req.TrainerID,
		"client_id", req.ClientID,
		"sessions_created", len(sessions),
	)

	return &ConfirmResult{RecurringScheduleID: schedule.ID, SessionsCreated: len(sessions)}, nil
}

// expand turns the preferences into sorted UTC instants over the inclusive
// range, dropping caller exclusions. The wall-clock conversion goes through
// time.Date in the business zone, so DST transitions land correctly.
func (s *recurringService) expand(ctx context.Context, req *GenerateRequest) ([]ProposedSession, error) {
	if req.TrainerID == "" || req.ClientID == "" {
		return nil, apperrors.InvalidInput("trainerId and clientId are required")
	}
	if len(req.PreferenceIDs) == 0 || len(req.PreferenceIDs) > s.cfg.MaxPreferencesPerSchedule {
		return nil, apperrors.InvalidInput(fmt.Sprintf("preferenceIds must contain 1 to %d entries", s.cfg.MaxPreferencesPerSchedule))
	}

	start, err := time.ParseInLocation(availability.DateLayout, req.StartDate, s.cfg.Location)
	if err != nil {
		return nil, apperrors.InvalidInput("startDate must be formatted YYYY-MM-DD")
	}
	end, err := time.ParseInLocation(availability.DateLayout, req.EndDate, s.cfg.Location)
	if err != nil {
		return nil, apperrors.InvalidInput("endDate must be formatted YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, apperrors.InvalidInput("endDate must not precede startDate")
	}

	preferences, err := s.preferences.FindByIDs(ctx, req.ClientID, req.PreferenceIDs)
	if err != nil {
		if errors.Is(err, recurringerrors.ErrPreferenceNotFound) {
			return nil, apperrors.InvalidInput("One or more time preferences do not exist for this client")
		}
		if errors.Is(err, recurringerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid time preference ID format")
		}
		return nil, apperrors.Internal("Failed to load time preferences", err)
	}

	excluded := make(map[int64]bool, len(req.ExcludedSessions))
	for _, ex := range req.ExcludedSessions {
		excluded[ex.UTC().Unix()] = true
	}

	var proposed []ProposedSession
	for _, pref := range preferences {
		if !pref.Active {
			return nil, apperrors.InvalidInput(fmt.Sprintf("Time preference %s is inactive", pref.ID))
		}

		minutes, err := availability.ParseClock(pref.StartTime)
		if err != nil {
			return nil, apperrors.Internal("Time preference has a malformed start time", err)
		}

		// First date on/after range start matching the weekday, then +7d.
		day := start
		for day.Weekday() != pref.Weekday.Time() {
			day = day.AddDate(0, 0, 1)
		}
		for !day.After(end) {
			instant := time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, s.cfg.Location).UTC()
			if !excluded[instant.Unix()] {
				proposed = append(proposed, ProposedSession{
					StartTime:    instant,
					PreferenceID: pref.ID,
				})
			}
			day = day.AddDate(0, 0, 7)
		}
	}

	sort.Slice(proposed, func(i, j int) bool {
		return proposed[i].StartTime.Before(proposed[j].StartTime)
	})

	if len(proposed) > s.cfg.MaxSessionsPerSchedule {
		return nil, apperrors.InvalidInput(fmt.Sprintf(
			"Schedule would generate %d sessions, the maximum is %d",
			len(proposed), s.cfg.MaxSessionsPerSchedule,
		))
	}

	return proposed, nil
}

func (s *recurringService) annotate(ctx context.Context, trainerID string, proposed []ProposedSession) ([]ProposedSession, error) {
	durationMin := int(s.cfg.SessionDuration.Minutes())
	out := make([]ProposedSession, len(proposed))
	for i, p := range proposed {
		check, err := s.conflicts.Check(ctx, trainerID, p.StartTime, durationMin, "")
		if err != nil {
			return nil, err
		}
		p.Status = check.Status
		p.Message = check.Message
		out[i] = p
	}
	return out, nil
}

func (s *recurringService) buildSession(req *GenerateRequest, ent *entitlement.Entitlement, scheduleID string, start time.Time) *model.Session {
	status := model.SessionScheduled
	if req.BookingMethod == model.MethodOneOff {
		status = model.SessionPendingApproval
	}

	session := &model.Session{
		TrainerID:           req.TrainerID,
		ClientID:            req.ClientID,
		ServiceTypeID:       req.ServiceTypeID,
		StartTime:           start,
		DurationMin:         int(s.cfg.SessionDuration.Minutes()),
		Status:              status,
		BookingMethod:       req.BookingMethod,
		RecurringScheduleID: scheduleID,
	}

	switch ent.Method {
	case model.MethodPack:
		session.SourcePackID = ent.PackID
	case model.MethodSubscription:
		session.SourceSubscription = ent.SubscriptionID
	}

	return session
}

// lockSlots takes the same advisory lock per instant that single bookings
// hold. An instant whose lock is already taken is mid-booking elsewhere and
// gets reported unheld so the caller skips it; any acquired lock is released
// by the returned func.
func (s *recurringService) lockSlots(ctx context.Context, trainerID string, proposed []ProposedSession) (map[int64]bool, func(), error) {
	held := make(map[int64]bool, len(proposed))
	var lockIDs []string

	release := func() {
		for _, id := range lockIDs {
			if err := s.locks.Delete(ctx, id); err != nil {
				s.cfg.Log.Warn("Failed to release slot lock", "lock_id", id, "error", err)
			}
		}
	}

	for _, p := range proposed {
		lockID := fmt.Sprintf("session_lock_%s_%d", sanitizer.SanitizeSlug(trainerID), p.StartTime.UTC().Unix())
		_, err := s.locks.Create(ctx, &model.SessionLock{
			ID:        lockID,
			ExpiresAt: time.Now().Add(s.cfg.SlotLockTTL),
		})
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			release()
			return nil, nil, apperrors.Internal("Failed to acquire slot locks", err)
		}
		lockIDs = append(lockIDs, lockID)
		held[p.StartTime.Unix()] = true
	}

	return held, release, nil
}

// rollback unwinds a failed confirm in reverse creation order: sessions
// first, then the schedule record.
func (s *recurringService) rollback(ctx context.Context, scheduleID string, deleteSessions bool) {
	if deleteSessions {
		if deleted, err := s.sessions.DeleteByRecurringSchedule(ctx, scheduleID); err != nil {
			s.cfg.Log.Error("Failed to roll back recurring sessions",
				"schedule_id", scheduleID,
				"error", err,
			)
		} else {
			s.cfg.Log.Warn("Rolled back recurring sessions", "schedule_id", scheduleID, "deleted", deleted)
		}
	}

	if err := s.schedules.Delete(ctx, scheduleID); err != nil {
		s.cfg.Log.Error("Failed to roll back recurring schedule",
			"schedule_id", scheduleID,
			"error", err,
		)
	}
}

// deriveIdempotencyKey hashes the booking-defining fields; the same confirm
// payload always maps to the same key.
func deriveIdempotencyKey(req *GenerateRequest) string {
	entitlementID := req.PackID
	if req.BookingMethod == model.MethodSubscription {
		entitlementID = req.SubscriptionID
	}

	parts := []string{
		req.TrainerID,
		req.ClientID,
		strings.Join(sortedCopy(req.PreferenceIDs), ","),
		req.StartDate,
		req.EndDate,
		req.BookingMethod,
		entitlementID,
		req.ServiceTypeID,
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func sortedCopy(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}
