package domain

import "errors"

// Failure taxonomy shared across services and adapters.
//
// None of these are fatal to the process; each is recoverable at the
// single-operation level. NotFound is an empty result, not an error
// state, when listing orders for a date.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrTransientNetwork = errors.New("transient network failure")
	ErrSolverFailure    = errors.New("solver failure")
	ErrRenderFailure    = errors.New("render failure")
)
