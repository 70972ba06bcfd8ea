package models

// MaxTeamSize is the largest side any sport in the catalog may field.
const MaxTeamSize = 6

// Sport describes how a club plays a given sport: how many players form a side
// and how many courts are normally available.
type Sport struct {
	Name             string `json:"name" yaml:"name"`
	TeamSize         int    `json:"team_size" yaml:"team_size"`
	AllowSinglesSlot bool   `json:"allow_singles_slot" yaml:"allow_singles_slot"`
	DefaultCourts    int    `json:"default_courts" yaml:"default_courts"`
}

// SinglesSlotCapable reports whether the sport can trade a doubles match for a singles match.
func (s Sport) SinglesSlotCapable() bool {
	return s.TeamSize == 2 && s.AllowSinglesSlot
}
