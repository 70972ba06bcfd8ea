package scheduler

import (
	"sort"

	"github.com/Dosada05/club-scheduler/models"
)

// Ledger holds per-session fairness counters. It is rebuilt from recorded
// matches for every scheduling call and never cached between calls.
type Ledger struct {
	played      map[int]int
	lastPartner map[int]int
}

func NewLedger() *Ledger {
	return &Ledger{
		played:      make(map[int]int),
		lastPartner: make(map[int]int),
	}
}

// Observe records one match. Matches must be observed oldest first so the
// latest doubles partnership wins.
func (l *Ledger) Observe(sides ...models.Team) {
	for _, side := range sides {
		for _, p := range side.Players {
			l.played[p]++
		}
		if side.Kind == models.TeamDoubles {
			a, b := side.Players[0], side.Players[1]
			l.lastPartner[a] = b
			l.lastPartner[b] = a
		}
	}
}

// Played returns how many matches the player has been on court for.
func (l *Ledger) Played(player int) int {
	if l == nil {
		return 0
	}
	return l.played[player]
}

// LastPartner returns the player's most recent doubles partner.
func (l *Ledger) LastPartner(player int) (int, bool) {
	if l == nil {
		return 0, false
	}
	p, ok := l.lastPartner[player]
	return p, ok
}

// Entry is the ledger as seen by one player.
type Entry struct {
	PlayerID    int  `json:"player_id"`
	Played      int  `json:"played"`
	LastPartner *int `json:"last_partner,omitempty"`
}

// Entries lists the ledger for the given players (or everyone observed when
// players is empty), ordered by player id.
func (l *Ledger) Entries(players ...int) []Entry {
	if len(players) == 0 && l != nil {
		for p := range l.played {
			players = append(players, p)
		}
	}
	ids := append([]int(nil), players...)
	sort.Ints(ids)

	entries := make([]Entry, 0, len(ids))
	for _, p := range ids {
		e := Entry{PlayerID: p, Played: l.Played(p)}
		if partner, ok := l.LastPartner(p); ok {
			e.LastPartner = &partner
		}
		entries = append(entries, e)
	}
	return entries
}

// fairnessOrder sorts ids by (matches played ascending, id ascending).
func fairnessOrder(ids []int, l *Ledger) {
	sort.SliceStable(ids, func(i, j int) bool {
		pi, pj := l.Played(ids[i]), l.Played(ids[j])
		if pi != pj {
			return pi < pj
		}
		return ids[i] < ids[j]
	})
}
