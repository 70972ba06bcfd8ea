// Package scheduler turns a roster of present players into court assignments.
// Everything here is pure: callers load persisted state, build a Ledger, and
// persist whatever the functions return.
package scheduler

import "errors"

var (
	ErrInsufficientPlayers = errors.New("not enough players present")
	ErrCourtCapacityUnmet  = errors.New("no match fits on the available courts")
	ErrInvalidTeamSize     = errors.New("team size must be between 1 and 6")
	ErrTiedScore           = errors.New("tied scores are not allowed")
	ErrInvalidScore        = errors.New("scores must not be negative")
	ErrInvalidSide         = errors.New("invalid match side")
)
