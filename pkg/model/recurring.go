package model

import "time"

// RecurringSchedule records one confirmed batch generation. IdempotencyKey is
// a deterministic hash of the booking-defining fields and carries a unique
// index, so a retried confirm replays instead of duplicating sessions.
type RecurringSchedule struct {
	ID                     string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TrainerID              string    `json:"trainer_id" bson:"trainer_id" validate:"required,mongodb"`
	ClientID               string    `json:"client_id" bson:"client_id" validate:"required,mongodb"`
	StartDate              string    `json:"start_date" bson:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate                string    `json:"end_date" bson:"end_date" validate:"required,datetime=2006-01-02"`
	BookingMethod          string    `json:"booking_method" bson:"booking_method" validate:"required,oneof=one-off pack subscription"`
	ServiceTypeID          string    `json:"service_type_id" bson:"service_type_id" validate:"required"`
	SourcePackID           string    `json:"source_pack_id,omitempty" bson:"source_pack_id,omitempty" validate:"omitempty,mongodb"`
	SourceSubscriptionID   string    `json:"source_subscription_id,omitempty" bson:"source_subscription_id,omitempty" validate:"omitempty,mongodb"`
	PreferenceIDs          []string  `json:"preference_ids" bson:"preference_ids" validate:"required,min=1,max=10,dive,mongodb"`
	IdempotencyKey         string    `json:"idempotency_key" bson:"idempotency_key" validate:"required,len=64,hexadecimal"`
	TotalSessionsGenerated int       `json:"total_sessions_generated" bson:"total_sessions_generated" validate:"min=0"`
	CreatedAt              time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
