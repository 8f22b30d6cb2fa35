package model

import "time"

const (
	PackActive    = "active"
	PackExhausted = "exhausted"
	PackCancelled = "cancelled"
)

const (
	SubscriptionActive    = "active"
	SubscriptionPaused    = "paused"
	SubscriptionEnded     = "ended"
	SubscriptionCancelled = "cancelled"
)

const (
	CreditAvailable        = "available"
	CreditUsedForSession   = "used_for_session"
	CreditAppliedToPayment = "applied_to_payment"
	CreditExpired          = "expired"
	CreditForfeited        = "forfeited"
	CreditRefunded         = "refunded"
)

// SessionPack is a prepaid bundle of sessions for one service type.
// SessionsRemaining is mutated only through guarded compare-and-swap updates;
// capacity validation recomputes consumption from live session counts.
type SessionPack struct {
	ID                string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TrainerID         string    `json:"trainer_id" bson:"trainer_id" validate:"required,mongodb"`
	ClientID          string    `json:"client_id" bson:"client_id" validate:"required,mongodb"`
	ServiceTypeID     string    `json:"service_type_id" bson:"service_type_id" validate:"required"`
	TotalSessions     int       `json:"total_sessions" bson:"total_sessions" validate:"required,min=1,max=500"`
	SessionsRemaining int       `json:"sessions_remaining" bson:"sessions_remaining" validate:"min=0"`
	Status            string    `json:"status" bson:"status" validate:"required,oneof=active exhausted cancelled"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// ServiceAllocation is a per-period session quota under a subscription.
type ServiceAllocation struct {
	ServiceTypeID     string  `json:"service_type_id" bson:"service_type_id" validate:"required"`
	SessionsPerPeriod int     `json:"sessions_per_period" bson:"sessions_per_period" validate:"required,min=1,max=100"`
	PerSessionValue   float64 `json:"per_session_value" bson:"per_session_value" validate:"min=0"`
}

type Subscription struct {
	ID          string              `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TrainerID   string              `json:"trainer_id" bson:"trainer_id" validate:"required,mongodb"`
	ClientID    string              `json:"client_id" bson:"client_id" validate:"required,mongodb"`
	Status      string              `json:"status" bson:"status" validate:"required,oneof=active paused ended cancelled"`
	Allocations []ServiceAllocation `json:"allocations" bson:"allocations" validate:"required,min=1,dive"`
	CreatedAt   time.Time           `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// AllocationFor returns the allocation covering the service type, if any.
func (s *Subscription) AllocationFor(serviceTypeID string) (ServiceAllocation, bool) {
	for _, a := range s.Allocations {
		if a.ServiceTypeID == serviceTypeID {
			return a, true
		}
	}
	return ServiceAllocation{}, false
}

// SessionCredit is a banked session-equivalent created on a non-penalized
// cancellation of a subscription-sourced session.
type SessionCredit struct {
	ID             string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	SubscriptionID string     `json:"subscription_id" bson:"subscription_id" validate:"required,mongodb"`
	ServiceTypeID  string     `json:"service_type_id" bson:"service_type_id" validate:"required"`
	Value          float64    `json:"value" bson:"value" validate:"min=0"`
	Status         string     `json:"status" bson:"status" validate:"required,oneof=available used_for_session applied_to_payment expired forfeited refunded"`
	Reason         string     `json:"reason,omitempty" bson:"reason,omitempty" validate:"omitempty,max=100"`
	UsedAt         *time.Time `json:"used_at,omitempty" bson:"used_at,omitempty" validate:"omitempty"`
	CreatedAt      time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`
}
