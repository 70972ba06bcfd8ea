package models

import "time"

// MatchRecord is an immutable entry in a session's match history. Sides are
// stored in canonical order: each side sorted ascending and Side1 the
// lexicographically smaller of the two.
type MatchRecord struct {
	ID           int       `json:"id" db:"id"`
	SessionID    int       `json:"session_id" db:"session_id"`
	TeamSize     int       `json:"team_size" db:"team_size"`
	Side1        Team      `json:"side1" db:"side1"`
	Side2        Team      `json:"side2" db:"side2"`
	Score1       int       `json:"score1" db:"score1"`
	Score2       int       `json:"score2" db:"score2"`
	WinningSide  int       `json:"winning_side" db:"winning_side"`
	RoundMatchID *int      `json:"round_match_id,omitempty" db:"round_match_id"`
	RecordedAt   time.Time `json:"recorded_at" db:"recorded_at"`
}

// Winners returns the winning side.
func (m MatchRecord) Winners() Team {
	if m.WinningSide == 1 {
		return m.Side1
	}
	return m.Side2
}

// IsDoubles mirrors the history flag used by standings consumers.
func (m MatchRecord) IsDoubles() bool {
	return m.TeamSize == 2
}
