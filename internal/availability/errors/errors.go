package errors

import "errors"

var (
	ErrTemplateNotFound = errors.New("availability template not found")

	ErrExceptionNotFound = errors.New("availability exception not found")

	ErrInvalidID = errors.New("invalid availability ID format")

	ErrInvalidWindow = errors.New("end time must be after start time")
)
