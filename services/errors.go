package services

import "errors"

// Errors shared across services and mapped to HTTP status codes in the
// handlers layer. Generation errors stay per-group, scoring errors block
// only the requesting mutation, advancement races are self-healing.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Scoring and match lifecycle
	ErrMatchNotPlayable      = errors.New("match does not have both entrants assigned yet")
	ErrMatchAlreadyCompleted = errors.New("match is already completed")
	ErrMatchAwaitingShootOff = errors.New("match is awaiting a shoot-off, regular sets are closed")
	ErrMatchNotInShootOff    = errors.New("match is not in a shoot-off")
	ErrByeMatchNotScorable   = errors.New("bye matches are not scorable")
	ErrSetNumberOutOfRange   = errors.New("set number out of range")
	ErrSetArrowsMismatch     = errors.New("confirmed set resubmitted with different arrows")
	ErrStaleAdvancement      = errors.New("advancement target slot already taken by a different entrant")

	// Export
	ErrBracketNotCompleted = errors.New("bracket is not completed yet")
	ErrExportUnavailable   = errors.New("results export is not configured")

	// Auth
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrInvalidRole            = errors.New("invalid user role")
)
