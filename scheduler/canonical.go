package scheduler

import (
	"fmt"
	"slices"

	"github.com/Dosada05/club-scheduler/models"
)

// CanonicalMatch is a match result in order-independent form: each side sorted
// ascending, Side1 the lexicographically smaller side, scores following their
// sides.
type CanonicalMatch struct {
	Side1  []int `json:"side1"`
	Side2  []int `json:"side2"`
	Score1 int   `json:"score1"`
	Score2 int   `json:"score2"`
	// Swapped is set when the submitted side A became Side2.
	Swapped bool `json:"-"`
}

// Canonicalize validates a submitted result and puts it in canonical form.
// Ties never pass: a winner must always be derivable.
func Canonicalize(sideA, sideB []int, scoreA, scoreB int) (CanonicalMatch, error) {
	if len(sideA) == 0 || len(sideB) == 0 {
		return CanonicalMatch{}, fmt.Errorf("%w: both sides need at least one player", ErrInvalidSide)
	}
	if scoreA < 0 || scoreB < 0 {
		return CanonicalMatch{}, fmt.Errorf("%w: %d-%d", ErrInvalidScore, scoreA, scoreB)
	}
	if scoreA == scoreB {
		return CanonicalMatch{}, fmt.Errorf("%w: %d-%d", ErrTiedScore, scoreA, scoreB)
	}

	seen := make(map[int]bool, len(sideA)+len(sideB))
	for _, side := range [][]int{sideA, sideB} {
		for _, p := range side {
			if p <= 0 {
				return CanonicalMatch{}, fmt.Errorf("%w: player id %d", ErrInvalidSide, p)
			}
			if seen[p] {
				return CanonicalMatch{}, fmt.Errorf("%w: player %d appears more than once", ErrInvalidSide, p)
			}
			seen[p] = true
		}
	}

	a, b := slices.Clone(sideA), slices.Clone(sideB)
	slices.Sort(a)
	slices.Sort(b)

	c := CanonicalMatch{Side1: a, Side2: b, Score1: scoreA, Score2: scoreB}
	if slices.Compare(b, a) < 0 {
		c = CanonicalMatch{Side1: b, Side2: a, Score1: scoreB, Score2: scoreA, Swapped: true}
	}
	return c, nil
}

// WinningSide is 1 or 2, whichever canonical side scored strictly more.
func (c CanonicalMatch) WinningSide() int {
	if c.Score1 > c.Score2 {
		return 1
	}
	return 2
}

// Equal reports whether two canonical results describe the same match.
func (c CanonicalMatch) Equal(o CanonicalMatch) bool {
	return slices.Equal(c.Side1, o.Side1) && slices.Equal(c.Side2, o.Side2) &&
		c.Score1 == o.Score1 && c.Score2 == o.Score2
}

// Teams returns the canonical sides as typed teams.
func (c CanonicalMatch) Teams() (models.Team, models.Team) {
	return models.Squad(c.Side1...), models.Squad(c.Side2...)
}

// Record builds the history entry for this result.
func (c CanonicalMatch) Record(sessionID, teamSize int) models.MatchRecord {
	side1, side2 := c.Teams()
	return models.MatchRecord{
		SessionID:   sessionID,
		TeamSize:    teamSize,
		Side1:       side1,
		Side2:       side2,
		Score1:      c.Score1,
		Score2:      c.Score2,
		WinningSide: c.WinningSide(),
	}
}
