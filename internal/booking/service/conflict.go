package service

import (
	"context"
	"time"

	availability "fitbook/internal/availability/service"
	"fitbook/internal/booking/repository"
	"fitbook/pkg/config"
	apperrors "fitbook/pkg/errors"
)

const (
	CheckOK       = "ok"
	CheckConflict = "conflict"
	CheckWarning  = "warning"
)

// CheckResult is the outcome of a conflict check. Only conflict blocks the
// booking; warning is advisory and travels back in the response.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// DayResolver is the slice of the availability service the checker needs.
type DayResolver interface {
	ResolveDay(ctx context.Context, trainerID string, date string) ([]availability.Interval, error)
}

type ConflictChecker interface {
	// Check runs the full pipeline: session overlap, availability window,
	// lead time. excludeID skips one session when rescheduling.
	Check(ctx context.Context, trainerID string, start time.Time, durationMin int, excludeID string) (*CheckResult, error)
}

type conflictChecker struct {
	sessions repository.SessionRepository
	resolver DayResolver
	cfg      *config.Config
}

func NewConflictChecker(sessions repository.SessionRepository, resolver DayResolver, cfg *config.Config) ConflictChecker {
	return &conflictChecker{
		sessions: sessions,
		resolver: resolver,
		cfg:      cfg,
	}
}

func (c *conflictChecker) Check(ctx context.Context, trainerID string, start time.Time, durationMin int, excludeID string) (*CheckResult, error) {
	end := start.Add(time.Duration(durationMin) * time.Minute)

	overlapping, err := c.sessions.FindOverlapping(ctx, trainerID, start, end, excludeID)
	if err != nil {
		return nil, apperrors.Internal("Failed to check existing sessions", err)
	}
	if len(overlapping) > 0 {
		return &CheckResult{Status: CheckConflict, Message: "Timeslot already booked"}, nil
	}

	available, err := c.withinAvailability(ctx, trainerID, start, durationMin)
	if err != nil {
		return nil, err
	}
	if !available {
		return &CheckResult{Status: CheckConflict, Message: "Trainer not available at this time"}, nil
	}

	// Short-notice bookings go through but the caller is told.
	until := time.Until(start)
	if until > 0 && until < c.cfg.LateCancelWindow {
		return &CheckResult{Status: CheckWarning, Message: "Session starts in less than 24 hours"}, nil
	}

	return &CheckResult{Status: CheckOK}, nil
}

// withinAvailability converts the UTC instant to the trainer's wall clock and
// requires the whole session window to sit inside one resolved interval.
// Sessions already on the books are never re-validated against availability;
// this check only gates new placements.
func (c *conflictChecker) withinAvailability(ctx context.Context, trainerID string, start time.Time, durationMin int) (bool, error) {
	local := start.In(c.cfg.Location)
	date := local.Format(availability.DateLayout)

	startMin := local.Hour()*60 + local.Minute()
	endMin := startMin + durationMin

	intervals, err := c.resolver.ResolveDay(ctx, trainerID, date)
	if err != nil {
		return false, apperrors.Internal("Failed to resolve trainer availability", err)
	}

	for _, iv := range intervals {
		if iv.Contains(startMin, endMin) {
			return true, nil
		}
	}
	return false, nil
}
