package model

import "time"

const (
	SessionScheduled       = "scheduled"
	SessionCompleted       = "completed"
	SessionCancelled       = "cancelled"
	SessionNoShow          = "no_show"
	SessionPendingApproval = "pending_approval"
)

const (
	CancelPenalty   = "penalty"
	CancelNoPenalty = "no_penalty"
)

const (
	MethodOneOff       = "one-off"
	MethodPack         = "pack"
	MethodSubscription = "subscription"
)

// Session is a single 60-minute training appointment. At most one of the
// Source* fields is set; it records which entitlement the booking consumed.
type Session struct {
	ID                  string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TrainerID           string    `json:"trainer_id" bson:"trainer_id" validate:"required,mongodb"`
	ClientID            string    `json:"client_id" bson:"client_id" validate:"required,mongodb"`
	ServiceTypeID       string    `json:"service_type_id" bson:"service_type_id" validate:"required"`
	StartTime           time.Time `json:"start_time" bson:"start_time" validate:"required"`
	DurationMin         int       `json:"duration_min" bson:"duration_min" validate:"required,min=1,max=480"`
	Status              string    `json:"status" bson:"status" validate:"required,oneof=scheduled completed cancelled no_show pending_approval"`
	CancellationReason  string    `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty" validate:"omitempty,oneof=penalty no_penalty"`
	BookingMethod       string    `json:"booking_method" bson:"booking_method" validate:"required,oneof=one-off pack subscription"`
	SourcePackID        string    `json:"source_pack_id,omitempty" bson:"source_pack_id,omitempty" validate:"omitempty,mongodb"`
	SourceSubscription  string    `json:"source_subscription_id,omitempty" bson:"source_subscription_id,omitempty" validate:"omitempty,mongodb"`
	SourceCreditID      string    `json:"source_credit_id,omitempty" bson:"source_credit_id,omitempty" validate:"omitempty,mongodb"`
	RecurringScheduleID string    `json:"recurring_schedule_id,omitempty" bson:"recurring_schedule_id,omitempty" validate:"omitempty,mongodb"`
	Notes               string    `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=1000"`
	CreatedAt           time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt           time.Time `json:"updated_at,omitempty" bson:"updated_at,omitempty" validate:"omitempty"`
}

func (s *Session) EndTime() time.Time {
	return s.StartTime.Add(time.Duration(s.DurationMin) * time.Minute)
}

// Active reports whether the session still occupies its timeslot.
func (s *Session) Active() bool {
	return s.Status != SessionCancelled && s.Status != SessionNoShow
}

// ConsumesEntitlement reports whether the session counts against its pack's
// capacity: every live status plus penalized cancellations.
func (s *Session) ConsumesEntitlement() bool {
	switch s.Status {
	case SessionScheduled, SessionCompleted, SessionNoShow, SessionPendingApproval:
		return true
	case SessionCancelled:
		return s.CancellationReason == CancelPenalty
	}
	return false
}

// SourceCount returns how many entitlement source links are set; a valid
// session has at most one.
func (s *Session) SourceCount() int {
	n := 0
	if s.SourcePackID != "" {
		n++
	}
	if s.SourceSubscription != "" {
		n++
	}
	if s.SourceCreditID != "" {
		n++
	}
	return n
}

type SessionUpdate struct {
	StartTime *time.Time `json:"session_date,omitempty" validate:"omitempty"`
	Notes     *string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
}
