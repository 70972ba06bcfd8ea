package services

import "errors"

// Errors shared by the services and mapped to HTTP statuses by the handlers.
var (
	// Generic lookup failure
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed    = errors.New("validation failed")
	ErrPlayerNameRequired  = errors.New("player name is required")
	ErrUnknownSport        = errors.New("sport is not in the catalog")
	ErrInvalidSessionDate  = errors.New("session date could not be parsed")
	ErrInsufficientPlayers = errors.New("not enough players present")
	ErrCourtCapacityUnmet  = errors.New("no match fits on the available courts")
	ErrTiedScore           = errors.New("tied scores are not allowed")

	// Conflicts
	ErrPlayerNameConflict     = errors.New("player name is already in use")
	ErrDuplicateMatch         = errors.New("match already recorded")
	ErrInvalidRoundTransition = errors.New("invalid round state transition")
	ErrAttendanceLocked       = errors.New("attendance cannot change while a round is active or pending")
	ErrNoPendingRounds        = errors.New("no pending rounds left")
	ErrConcurrentUpdate       = errors.New("state changed concurrently, retry the request")

	// Authentication
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrLoginDisabled        = errors.New("organizer login is not configured")

	// Per-entity lookups, more specific than ErrNotFound
	ErrPlayerNotFound     = errors.New("player not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrRoundMatchNotFound = errors.New("round match not found")
)
