package errors

import "errors"

var (
	ErrScheduleNotFound = errors.New("recurring schedule not found")

	ErrPreferenceNotFound = errors.New("client time preference not found")

	ErrInvalidID = errors.New("invalid recurring schedule ID format")
)
