package model

import "time"

// SessionLock is an advisory lock preventing concurrent bookings of the same
// trainer timeslot. The _id is derived from trainer id + UTC instant, so a
// duplicate-key error on insert means another request holds the slot.
type SessionLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
