package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped) so
// services can translate them into domain errors.
//
// - ErrNotFound: entity does not exist in store
// - ErrConflict: unique key already taken
// - ErrExpired: session has expired
// - ErrUnavailable: backing store temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
