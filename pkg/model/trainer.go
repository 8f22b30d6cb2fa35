package model

import "time"

// NotificationPrefs are per-person delivery flags consulted before any
// fire-and-forget publish. The global kill switch lives in config.
type NotificationPrefs struct {
	BookingEnabled      bool `json:"booking_enabled" bson:"booking_enabled"`
	CancellationEnabled bool `json:"cancellation_enabled" bson:"cancellation_enabled"`
	RescheduleEnabled   bool `json:"reschedule_enabled" bson:"reschedule_enabled"`
}

type Trainer struct {
	ID            string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name          string            `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email         string            `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone         string            `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Timezone      string            `json:"timezone,omitempty" bson:"timezone,omitempty" validate:"omitempty,timezone"`
	Notifications NotificationPrefs `json:"notifications" bson:"notifications"`
	CreatedAt     time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type Client struct {
	ID            string            `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TrainerID     string            `json:"trainer_id" bson:"trainer_id" validate:"required,mongodb"`
	Name          string            `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email         string            `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone         string            `json:"phone,omitempty" bson:"phone,omitempty" validate:"omitempty,e164"`
	Notifications NotificationPrefs `json:"notifications" bson:"notifications"`
	CreatedAt     time.Time         `json:"created_at" bson:"created_at" validate:"omitempty"`
}
