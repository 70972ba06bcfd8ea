package models

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// TeamKind tags the variant of a Team.
type TeamKind string

const (
	TeamSingles TeamKind = "singles"
	TeamDoubles TeamKind = "doubles"
	TeamSquad   TeamKind = "squad"
)

var ErrInvalidTeam = errors.New("invalid team")

// Team is one side of a match. The Kind is fixed by the constructor and always
// agrees with the number of players: singles has one, doubles two, squad three or more.
type Team struct {
	Kind    TeamKind `json:"kind"`
	Players []int    `json:"players"`
}

func Singles(player int) Team {
	return Team{Kind: TeamSingles, Players: []int{player}}
}

func Doubles(first, second int) Team {
	return Team{Kind: TeamDoubles, Players: []int{first, second}}
}

// Squad builds a team of three or more players. Smaller inputs get the matching
// singles or doubles variant.
func Squad(players ...int) Team {
	switch len(players) {
	case 1:
		return Singles(players[0])
	case 2:
		return Doubles(players[0], players[1])
	}
	return Team{Kind: TeamSquad, Players: slices.Clone(players)}
}

// NewTeam validates players and returns the variant matching their count.
func NewTeam(players []int) (Team, error) {
	if len(players) == 0 {
		return Team{}, fmt.Errorf("%w: no players", ErrInvalidTeam)
	}
	if len(players) > MaxTeamSize {
		return Team{}, fmt.Errorf("%w: %d players exceeds maximum of %d", ErrInvalidTeam, len(players), MaxTeamSize)
	}
	seen := make(map[int]struct{}, len(players))
	for _, p := range players {
		if p <= 0 {
			return Team{}, fmt.Errorf("%w: player id %d", ErrInvalidTeam, p)
		}
		if _, dup := seen[p]; dup {
			return Team{}, fmt.Errorf("%w: player %d listed twice", ErrInvalidTeam, p)
		}
		seen[p] = struct{}{}
	}
	return Squad(players...), nil
}

func (t Team) Size() int {
	return len(t.Players)
}

func (t Team) Contains(player int) bool {
	return slices.Contains(t.Players, player)
}

// Partner returns the other member of a doubles team.
func (t Team) Partner(player int) (int, bool) {
	if t.Kind != TeamDoubles {
		return 0, false
	}
	switch player {
	case t.Players[0]:
		return t.Players[1], true
	case t.Players[1]:
		return t.Players[0], true
	}
	return 0, false
}

// Sorted returns the team's players in ascending id order.
func (t Team) Sorted() []int {
	out := slices.Clone(t.Players)
	slices.Sort(out)
	return out
}

// Key encodes the players as a comma separated list, in stored order.
func (t Team) Key() string {
	return JoinIDs(t.Players)
}

// ParseTeam decodes a Key back into a Team.
func ParseTeam(key string) (Team, error) {
	ids, err := SplitIDs(key)
	if err != nil {
		return Team{}, err
	}
	return NewTeam(ids)
}

func JoinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

func SplitIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: bad player id %q", ErrInvalidTeam, part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
