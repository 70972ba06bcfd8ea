package scheduler

import (
	"fmt"

	"github.com/Dosada05/club-scheduler/models"
)

// SitOutPolicy decides who rests when the roster does not divide into full matches.
type SitOutPolicy string

const (
	// SitOutFewestPlayed rests the player with the fewest matches this session.
	SitOutFewestPlayed SitOutPolicy = "fewest_played"
	// SitOutMostPlayed rests the player with the most matches this session.
	SitOutMostPlayed SitOutPolicy = "most_played"
)

func (p SitOutPolicy) IsValid() bool {
	switch p {
	case "", SitOutFewestPlayed, SitOutMostPlayed:
		return true
	}
	return false
}

// Match is a court assignment produced by the engine.
type Match struct {
	Court int         `json:"court"`
	SideA models.Team `json:"side_a"`
	SideB models.Team `json:"side_b"`
}

// Singles reports whether both sides are single players.
func (m Match) Singles() bool {
	return m.SideA.Kind == models.TeamSingles && m.SideB.Kind == models.TeamSingles
}

func (m Match) Players() []int {
	out := make([]int, 0, m.SideA.Size()+m.SideB.Size())
	out = append(out, m.SideA.Players...)
	return append(out, m.SideB.Players...)
}

type AssignParams struct {
	Present          []int
	Courts           int
	TeamSize         int
	AllowSinglesSlot bool
	SitOut           SitOutPolicy
}

// Assignment is one round's worth of matches.
type Assignment struct {
	Matches []Match `json:"matches"`
	// SittingOut lists present players with no match this round: rotation
	// sit-outs first, then anyone left over once the courts were full.
	SittingOut []int `json:"sitting_out"`
	// SinglesSlot is set when one court holds a singles match inside a doubles round.
	SinglesSlot bool `json:"singles_slot"`
}

// AssignRound builds a single round from the present roster.
//
// Players are ranked by (matches played, id). Sit-outs are removed until the
// pool divides into full matches; for doubles a remainder of two may instead
// become a singles match when allowed and at least three courts exist. Teams
// are formed in ranking order, avoiding each player's last doubles partner
// when another partner is free, and paired into at most Courts matches.
func AssignRound(p AssignParams, ledger *Ledger) (Assignment, error) {
	if p.TeamSize < 1 || p.TeamSize > models.MaxTeamSize {
		return Assignment{}, fmt.Errorf("%w: got %d", ErrInvalidTeamSize, p.TeamSize)
	}

	pool := dedupe(p.Present)
	fairnessOrder(pool, ledger)

	perMatch := 2 * p.TeamSize
	if len(pool) < perMatch {
		return Assignment{SittingOut: pool}, fmt.Errorf("%w: %d present, %d needed for one match", ErrInsufficientPlayers, len(pool), perMatch)
	}
	if p.Courts < 1 {
		return Assignment{SittingOut: pool}, fmt.Errorf("%w: %d courts", ErrCourtCapacityUnmet, p.Courts)
	}

	var out Assignment
	sitOut := func() {
		i := sitOutIndex(pool, ledger, p.SitOut)
		out.SittingOut = append(out.SittingOut, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
	}

	var reserved []int
	if p.TeamSize == 2 {
		if len(pool)%2 == 1 {
			sitOut()
		}
		if len(pool)%4 == 2 {
			if p.AllowSinglesSlot && p.Courts >= 3 {
				reserved = append(reserved, pool[len(pool)-2:]...)
				pool = pool[:len(pool)-2]
			} else {
				sitOut()
				sitOut()
			}
		}
	} else {
		for len(pool)%perMatch != 0 {
			sitOut()
		}
	}

	teams := formTeams(pool, p.TeamSize, ledger)

	i := 0
	for ; i+1 < len(teams) && len(out.Matches) < p.Courts; i += 2 {
		out.Matches = append(out.Matches, Match{
			Court: len(out.Matches) + 1,
			SideA: teams[i],
			SideB: teams[i+1],
		})
	}
	for _, t := range teams[i:] {
		out.SittingOut = append(out.SittingOut, t.Players...)
	}

	if len(reserved) == 2 {
		if len(out.Matches) < p.Courts {
			out.Matches = append(out.Matches, Match{
				Court: len(out.Matches) + 1,
				SideA: models.Singles(reserved[0]),
				SideB: models.Singles(reserved[1]),
			})
			out.SinglesSlot = true
		} else {
			out.SittingOut = append(out.SittingOut, reserved...)
		}
	}

	if len(out.Matches) == 0 {
		return out, ErrCourtCapacityUnmet
	}
	return out, nil
}

// sitOutIndex picks the next player to rest from a pool in fairness order.
func sitOutIndex(pool []int, ledger *Ledger, policy SitOutPolicy) int {
	if policy != SitOutMostPlayed {
		return 0
	}
	most := ledger.Played(pool[len(pool)-1])
	for i, p := range pool {
		if ledger.Played(p) == most {
			return i
		}
	}
	return len(pool) - 1
}

// formTeams groups an ordered pool into teams of size n. Doubles partners are
// chosen greedily, skipping a player's previous partner while an alternative
// remains.
func formTeams(pool []int, n int, ledger *Ledger) []models.Team {
	teams := make([]models.Team, 0, len(pool)/n)
	switch n {
	case 1:
		for _, p := range pool {
			teams = append(teams, models.Singles(p))
		}
	case 2:
		used := make(map[int]bool, len(pool))
		for i, p := range pool {
			if used[p] {
				continue
			}
			avoid, hasAvoid := ledger.LastPartner(p)
			pick, fallback := -1, -1
			for j := i + 1; j < len(pool); j++ {
				q := pool[j]
				if used[q] {
					continue
				}
				if fallback < 0 {
					fallback = j
				}
				if hasAvoid && q == avoid {
					continue
				}
				pick = j
				break
			}
			if pick < 0 {
				pick = fallback
			}
			if pick < 0 {
				break
			}
			used[p], used[pool[pick]] = true, true
			teams = append(teams, models.Doubles(p, pool[pick]))
		}
	default:
		for i := 0; i+n <= len(pool); i += n {
			teams = append(teams, models.Squad(pool[i:i+n]...))
		}
	}
	return teams
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
