package model

import "time"

// ClientTimePreference is a weekly wish used only by the recurring schedule
// generator to propose instants; it is not authoritative for availability.
type ClientTimePreference struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClientID    string    `json:"client_id" bson:"client_id" validate:"required,mongodb"`
	Weekday     Weekday   `json:"weekday" bson:"weekday" validate:"min=0,max=6"`
	StartTime   string    `json:"start_time" bson:"start_time" validate:"required,wall_clock"`
	EndTime     string    `json:"end_time,omitempty" bson:"end_time,omitempty" validate:"omitempty,wall_clock"`
	FlexMinutes int       `json:"flex_minutes" bson:"flex_minutes" validate:"min=0,max=180"`
	Active      bool      `json:"active" bson:"active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
