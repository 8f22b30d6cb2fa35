package service

import (
	"context"
	"time"

	"fitbook/internal/notify"
	apperrors "fitbook/pkg/errors"
	"fitbook/pkg/model"
	"fitbook/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	RoleTrainer = "trainer"
	RoleClient  = "client"
)

// CancelRequest is the payload of PUT /api/v1/sessions/id/:id/cancel.
// Penalize overrides the lateness default; nil keeps it.
type CancelRequest struct {
	ActorID   string `json:"actorId"`
	ActorRole string `json:"actorRole"`
	Penalize  *bool  `json:"penalize,omitempty"`
}

// EditRequest is the payload of PATCH /api/v1/sessions/id/:id.
type EditRequest struct {
	ActorID   string     `json:"actorId"`
	ActorRole string     `json:"actorRole"`
	StartTime *time.Time `json:"sessionDate,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}

// Cancel applies the refund rules: lateness defaults the penalty, an explicit
// override is honored except a client waiving their own late penalty, and a
// no-penalty outcome reverses whatever the booking consumed.
func (s *bookingService) Cancel(ctx context.Context, id string, req *CancelRequest) (*model.Session, error) {
	session, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorizeActor(session, req.ActorID, req.ActorRole); err != nil {
		return nil, err
	}

	switch session.Status {
	case model.SessionScheduled, model.SessionPendingApproval:
	default:
		return nil, apperrors.Conflict("Only scheduled or pending sessions can be cancelled")
	}

	late := time.Until(session.StartTime) <= s.cfg.LateCancelWindow
	penalize := late
	if req.Penalize != nil {
		if req.ActorRole == RoleClient && late && !*req.Penalize {
			return nil, apperrors.Forbidden("Clients cannot waive the late cancellation penalty")
		}
		penalize = *req.Penalize
	}

	reason := model.CancelNoPenalty
	if penalize {
		reason = model.CancelPenalty
	}

	// Reversal and the status flip commit together so a crash between them
	// cannot refund a session that is still scheduled.
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if !penalize {
			if err := s.entitlement.Reverse(sessCtx, session); err != nil {
				return err
			}
		}
		return s.repo.UpdateStatus(sessCtx, session.ID, model.SessionCancelled, reason)
	})
	if err != nil {
		if appErr, ok := err.(*apperrors.AppError); ok {
			return nil, appErr
		}
		return nil, apperrors.Internal("Failed to cancel session", err)
	}
	session.Status = model.SessionCancelled
	session.CancellationReason = reason

	s.cfg.Log.Info("Session cancelled",
		"session_id", session.ID,
		"actor_id", req.ActorID,
		"actor_role", req.ActorRole,
		"reason", reason,
		"late", late,
	)

	s.notifyBoth(ctx, session, notify.EventSessionCancelled)
	return session, nil
}

// Edit reschedules or annotates a session. Rescheduling is locked inside the
// late-cancel window and re-runs the conflict checker excluding the session
// itself.
func (s *bookingService) Edit(ctx context.Context, id string, req *EditRequest) (*model.Session, error) {
	session, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := authorizeActor(session, req.ActorID, req.ActorRole); err != nil {
		return nil, err
	}

	switch session.Status {
	case model.SessionScheduled, model.SessionPendingApproval:
	default:
		return nil, apperrors.Conflict("Only scheduled or pending sessions can be edited")
	}

	if req.StartTime == nil {
		if req.Notes == nil {
			return nil, apperrors.InvalidInput("Nothing to update")
		}
		notes := sanitizer.NormalizeNote(*req.Notes)
		if err := s.repo.Reschedule(ctx, session.ID, session.StartTime, &notes); err != nil {
			return nil, apperrors.Internal("Failed to update session", err)
		}
		session.Notes = notes
		return session, nil
	}

	if time.Until(session.StartTime) <= s.cfg.LateCancelWindow {
		return nil, apperrors.Forbidden("Sessions within the 24-hour window cannot be rescheduled")
	}

	newStart := req.StartTime.UTC().Truncate(time.Minute)
	check, err := s.conflicts.Check(ctx, session.TrainerID, newStart, session.DurationMin, session.ID)
	if err != nil {
		return nil, err
	}
	if check.Status == CheckConflict {
		return nil, apperrors.Conflict(check.Message)
	}

	var notes *string
	if req.Notes != nil {
		normalized := sanitizer.NormalizeNote(*req.Notes)
		notes = &normalized
	}

	if err := s.repo.Reschedule(ctx, session.ID, newStart, notes); err != nil {
		return nil, apperrors.Internal("Failed to reschedule session", err)
	}
	session.StartTime = newStart
	if notes != nil {
		session.Notes = *notes
	}

	s.cfg.Log.Info("Session rescheduled",
		"session_id", session.ID,
		"actor_id", req.ActorID,
		"new_start", newStart,
	)

	s.notifyBoth(ctx, session, notify.EventSessionRescheduled)
	return session, nil
}

// Approve moves a one-off booking from pending_approval to scheduled.
func (s *bookingService) Approve(ctx context.Context, id string, actorID string, actorRole string) error {
	return s.transition(ctx, id, actorID, actorRole,
		model.SessionPendingApproval, model.SessionScheduled, notify.EventSessionApproved)
}

func (s *bookingService) Complete(ctx context.Context, id string, actorID string, actorRole string) error {
	return s.transition(ctx, id, actorID, actorRole,
		model.SessionScheduled, model.SessionCompleted, "")
}

func (s *bookingService) NoShow(ctx context.Context, id string, actorID string, actorRole string) error {
	return s.transition(ctx, id, actorID, actorRole,
		model.SessionScheduled, model.SessionNoShow, "")
}

// transition applies a trainer-only status change guarded by the current
// status.
func (s *bookingService) transition(ctx context.Context, id string, actorID string, actorRole string, from string, to string, eventType string) error {
	session, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if actorRole != RoleTrainer || actorID != session.TrainerID {
		return apperrors.Forbidden("Only the session's trainer can perform this action")
	}
	if session.Status != from {
		return apperrors.Conflict("Session is " + session.Status + ", expected " + from)
	}

	if err := s.repo.UpdateStatus(ctx, session.ID, to, ""); err != nil {
		return apperrors.Internal("Failed to update session status", err)
	}
	session.Status = to

	s.cfg.Log.Info("Session status changed",
		"session_id", session.ID,
		"from", from,
		"to", to,
		"actor_id", actorID,
	)

	if eventType != "" {
		s.notifyBoth(ctx, session, eventType)
	}
	return nil
}

func authorizeActor(session *model.Session, actorID string, actorRole string) error {
	switch actorRole {
	case RoleTrainer:
		if actorID != session.TrainerID {
			return apperrors.Forbidden("Trainer does not own this session")
		}
	case RoleClient:
		if actorID != session.ClientID {
			return apperrors.Forbidden("Client does not own this session")
		}
	default:
		return apperrors.InvalidInput("actorRole must be trainer or client")
	}
	return nil
}
