package model

import "time"

const (
	ExceptionFullDay   = "unavailable_full_day"
	ExceptionPartial   = "unavailable_partial_day"
	ExceptionExtraSlot = "available_extra_slot"
)

// Wall-clock defaults for exceptions with missing times.
const (
	DayStart = "00:00"
	DayEnd   = "23:59"
)

// AvailabilityTemplate is a recurring weekly open window. Multiple templates
// per weekday are allowed and get merged before use.
type AvailabilityTemplate struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TrainerID string    `json:"trainer_id" bson:"trainer_id" validate:"required,mongodb"`
	Weekday   Weekday   `json:"weekday" bson:"weekday" validate:"min=0,max=6"`
	StartTime string    `json:"start_time" bson:"start_time" validate:"required,wall_clock"`
	EndTime   string    `json:"end_time" bson:"end_time" validate:"required,wall_clock"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// AvailabilityException overrides templates on one calendar date. Date is the
// trainer-local day formatted "2006-01-02". Start/end default to the full day
// when omitted.
type AvailabilityException struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	TrainerID string    `json:"trainer_id" bson:"trainer_id" validate:"required,mongodb"`
	Date      string    `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	Type      string    `json:"type" bson:"type" validate:"required,oneof=unavailable_full_day unavailable_partial_day available_extra_slot"`
	StartTime string    `json:"start_time,omitempty" bson:"start_time,omitempty" validate:"omitempty,wall_clock"`
	EndTime   string    `json:"end_time,omitempty" bson:"end_time,omitempty" validate:"omitempty,wall_clock"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// Window returns the exception's wall-clock bounds with full-day defaults
// applied.
func (e *AvailabilityException) Window() (string, string) {
	start, end := e.StartTime, e.EndTime
	if start == "" {
		start = DayStart
	}
	if end == "" {
		end = DayEnd
	}
	return start, end
}
