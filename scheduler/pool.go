package scheduler

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/Dosada05/club-scheduler/models"
)

// Ordering is the policy used to line players up before they are grouped into
// fixed pool teams.
type Ordering string

const (
	// OrderByName groups players alphabetically, the predictable "snake" mix.
	OrderByName Ordering = "name"
	// OrderRandom shuffles with the caller's seed.
	OrderRandom Ordering = "random"
	// OrderAsGiven keeps the caller's order.
	OrderAsGiven Ordering = "given"
)

func (o Ordering) IsValid() bool {
	switch o {
	case "", OrderByName, OrderRandom, OrderAsGiven:
		return true
	}
	return false
}

type PoolParams struct {
	Present  []models.Player
	Courts   int
	TeamSize int
	Ordering Ordering
	Seed     int64
}

// PoolRound is one round of a pool. Forced is set only when packing ran with
// no courts, which GeneratePool never does; pool teams are disjoint so the
// first pending matchup always fits an empty round.
type PoolRound struct {
	Matches []Match `json:"matches"`
	Forced  bool    `json:"forced"`
}

// Pool is an exhaustive round-robin fixture list for fixed teams.
type Pool struct {
	Teams  []models.Team `json:"teams"`
	Rounds []PoolRound   `json:"rounds"`
	// Deferred lists the players left without a full team; they sit out the
	// whole pool.
	Deferred []models.Player `json:"deferred,omitempty"`
}

// MatchupCount is the total number of matches across all rounds.
func (p Pool) MatchupCount() int {
	n := 0
	for _, r := range p.Rounds {
		n += len(r.Matches)
	}
	return n
}

// ShortRounds returns the indexes of rounds that use fewer courts than allowed.
func (p Pool) ShortRounds(courts int) []int {
	var short []int
	for i, r := range p.Rounds {
		if len(r.Matches) < courts {
			short = append(short, i)
		}
	}
	return short
}

// GeneratePool partitions the roster into fixed teams, generates every
// team-vs-team matchup once, and packs the matchups greedily into rounds of
// player-disjoint matches no larger than Courts.
func GeneratePool(p PoolParams) (Pool, error) {
	if p.TeamSize < 1 || p.TeamSize > models.MaxTeamSize {
		return Pool{}, fmt.Errorf("%w: got %d", ErrInvalidTeamSize, p.TeamSize)
	}
	if p.Courts < 1 {
		return Pool{}, fmt.Errorf("%w: %d courts", ErrCourtCapacityUnmet, p.Courts)
	}

	players := orderPlayers(p.Present, p.Ordering, p.Seed)

	var pool Pool
	// the remainder is below TeamSize, so it is a single incomplete team
	if remainder := len(players) % p.TeamSize; remainder > 0 {
		cut := len(players) - remainder
		pool.Deferred = append([]models.Player(nil), players[cut:]...)
		players = players[:cut]
	}

	for i := 0; i+p.TeamSize <= len(players); i += p.TeamSize {
		ids := make([]int, 0, p.TeamSize)
		for _, pl := range players[i : i+p.TeamSize] {
			ids = append(ids, pl.ID)
		}
		pool.Teams = append(pool.Teams, models.Squad(ids...))
	}
	if len(pool.Teams) < 2 {
		return Pool{}, fmt.Errorf("%w: %d full teams, 2 needed", ErrInsufficientPlayers, len(pool.Teams))
	}

	pool.Rounds = packRounds(matchups(pool.Teams), p.Courts)
	return pool, nil
}

func orderPlayers(present []models.Player, ordering Ordering, seed int64) []models.Player {
	seen := make(map[int]bool, len(present))
	players := make([]models.Player, 0, len(present))
	for _, pl := range present {
		if seen[pl.ID] {
			continue
		}
		seen[pl.ID] = true
		players = append(players, pl)
	}

	switch ordering {
	case OrderAsGiven:
	case OrderRandom:
		sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(players), func(i, j int) { players[i], players[j] = players[j], players[i] })
	default:
		sort.SliceStable(players, func(i, j int) bool {
			ni, nj := strings.ToLower(players[i].Name), strings.ToLower(players[j].Name)
			if ni != nj {
				return ni < nj
			}
			return players[i].ID < players[j].ID
		})
	}
	return players
}

// matchups lists every unordered pair of teams exactly once, in circle-method
// order so that consecutive matchups tend to be disjoint.
func matchups(teams []models.Team) []Match {
	slots := make([]int, len(teams))
	for i := range slots {
		slots[i] = i
	}
	if len(slots)%2 == 1 {
		slots = append(slots, -1) // bye
	}
	n := len(slots)

	out := make([]Match, 0, len(teams)*(len(teams)-1)/2)
	for round := 0; round < n-1; round++ {
		for i := 0; i < n/2; i++ {
			a, b := slots[i], slots[n-1-i]
			if a < 0 || b < 0 {
				continue
			}
			if a > b {
				a, b = b, a
			}
			out = append(out, Match{SideA: teams[a], SideB: teams[b]})
		}
		// keep slot 0 fixed, rotate the rest clockwise
		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}
	return out
}

// packRounds greedily fills rounds with matchups whose players do not overlap.
// With courts >= 1 the first pending matchup always lands in the empty round,
// so the forced branch below is only a termination guard for courts < 1.
func packRounds(pending []Match, courts int) []PoolRound {
	var rounds []PoolRound
	for len(pending) > 0 {
		busy := make(map[int]bool)
		var round PoolRound
		rest := pending[:0:0]

		for _, m := range pending {
			if len(round.Matches) < courts && disjoint(m, busy) {
				for _, pl := range m.Players() {
					busy[pl] = true
				}
				round.Matches = append(round.Matches, m)
				continue
			}
			rest = append(rest, m)
		}

		if len(round.Matches) == 0 { // guard: courts < 1
			round = PoolRound{Matches: []Match{pending[0]}, Forced: true}
			rest = append(rest[:0:0], pending[1:]...)
		}

		for i := range round.Matches {
			round.Matches[i].Court = i + 1
		}
		rounds = append(rounds, round)
		pending = rest
	}
	return rounds
}

func disjoint(m Match, busy map[int]bool) bool {
	for _, pl := range m.Players() {
		if busy[pl] {
			return false
		}
	}
	return true
}
