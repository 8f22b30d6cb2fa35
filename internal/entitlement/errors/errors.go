package errors

import "errors"

var (
	ErrPackNotFound = errors.New("session pack not found")

	ErrSubscriptionNotFound = errors.New("subscription not found")

	ErrCreditNotFound = errors.New("session credit not found")

	ErrInvalidID = errors.New("invalid entitlement ID format")

	// ErrStaleCounter signals a lost compare-and-swap race on a pack counter
	// or credit status. The caller decides whether to retry or surface 409.
	ErrStaleCounter = errors.New("entitlement counter was modified concurrently")
)
