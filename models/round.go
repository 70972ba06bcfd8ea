package models

import "time"

// RoundState is the lifecycle state of a round.
type RoundState string

const (
	RoundPending   RoundState = "pending"
	RoundActive    RoundState = "active"
	RoundCompleted RoundState = "completed"
)

func (s RoundState) String() string {
	return string(s)
}

func (s RoundState) IsValid() bool {
	switch s {
	case RoundPending, RoundActive, RoundCompleted:
		return true
	}
	return false
}

// IsTerminal returns true once the round can no longer change.
func (s RoundState) IsTerminal() bool {
	return s == RoundCompleted
}

// ValidRoundTransitions defines the allowed lifecycle moves for a Round.
var ValidRoundTransitions = map[RoundState][]RoundState{
	RoundPending: {RoundActive},
	RoundActive:  {RoundCompleted},
}

func (s RoundState) CanTransitionTo(next RoundState) bool {
	for _, allowed := range ValidRoundTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Round is one batch of simultaneous matches within a session.
type Round struct {
	ID        int        `json:"id" db:"id"`
	SessionID int        `json:"session_id" db:"session_id"`
	Index     int        `json:"round_index" db:"round_index"`
	Courts    int        `json:"courts" db:"courts"`
	TeamSize  int        `json:"team_size" db:"team_size"`
	State     RoundState `json:"state" db:"state"`
	PoolID    *string    `json:"pool_id,omitempty" db:"pool_id"`
	// Forced mirrors scheduler.PoolRound.Forced.
	Forced    bool      `json:"forced" db:"forced"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	// ActivatedAt is when the round went on court; nil while pending.
	ActivatedAt *time.Time `json:"activated_at,omitempty" db:"activated_at"`

	Matches []RoundMatch `json:"matches,omitempty" db:"-"`
}

// Short reports whether the round uses fewer courts than it was given.
func (r *Round) Short() bool {
	return len(r.Matches) < r.Courts
}

// AllScored reports whether every match in the round has a recorded score.
func (r *Round) AllScored() bool {
	for _, m := range r.Matches {
		if !m.Completed || m.ScoreA == nil || m.ScoreB == nil {
			return false
		}
	}
	return true
}

// RoundMatch is a match assigned to a court in a round.
type RoundMatch struct {
	ID        int  `json:"id" db:"id"`
	RoundID   int  `json:"round_id" db:"round_id"`
	Court     int  `json:"court" db:"court"`
	Singles   bool `json:"singles" db:"singles"`
	SideA     Team `json:"side_a" db:"side_a"`
	SideB     Team `json:"side_b" db:"side_b"`
	Completed bool `json:"completed" db:"completed"`
	ScoreA    *int `json:"score_a,omitempty" db:"score_a"`
	ScoreB    *int `json:"score_b,omitempty" db:"score_b"`

	// PlayedAt is the activation time of the round, filled only by
	// RoundMatchRepository.ListPlayed.
	PlayedAt time.Time `json:"-" db:"-"`
}

// Players returns everyone on court, side A first.
func (m RoundMatch) Players() []int {
	out := make([]int, 0, m.SideA.Size()+m.SideB.Size())
	out = append(out, m.SideA.Players...)
	return append(out, m.SideB.Players...)
}

// TeamSize is the size of the sides in this match; a singles slot match in a
// doubles round reports 1.
func (m RoundMatch) TeamSize() int {
	return m.SideA.Size()
}
