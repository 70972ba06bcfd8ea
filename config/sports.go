package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Dosada05/club-scheduler/models"
	"gopkg.in/yaml.v3"
)

var ErrInvalidCatalog = errors.New("invalid sport catalog")

// SportCatalog is the set of sports a club schedules, keyed by lower-case name.
type SportCatalog struct {
	sports map[string]models.Sport
}

type catalogFile struct {
	Sports []models.Sport `yaml:"sports"`
}

// DefaultSports is used when no SPORTS_FILE is configured.
func DefaultSports() []models.Sport {
	return []models.Sport{
		{Name: "badminton", TeamSize: 2, AllowSinglesSlot: true, DefaultCourts: 3},
		{Name: "pickleball", TeamSize: 2, AllowSinglesSlot: true},
		{Name: "tennis", TeamSize: 2},
		{Name: "table-tennis", TeamSize: 1},
		{Name: "volleyball", TeamSize: 6, DefaultCourts: 1},
		{Name: "basketball", TeamSize: 3, DefaultCourts: 1},
	}
}

// LoadSports reads the catalog from path, or returns the built-in catalog when
// path is empty. Courts left at zero take defaultCourts; the singles slot is
// switched off everywhere when allowSingles is false.
func LoadSports(path string, defaultCourts int, allowSingles bool) (*SportCatalog, error) {
	sports := DefaultSports()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read sports file %s: %w", path, err)
		}
		var f catalogFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidCatalog, path, err)
		}
		sports = f.Sports
	}
	return NewSportCatalog(sports, defaultCourts, allowSingles)
}

func NewSportCatalog(sports []models.Sport, defaultCourts int, allowSingles bool) (*SportCatalog, error) {
	if len(sports) == 0 {
		return nil, fmt.Errorf("%w: no sports defined", ErrInvalidCatalog)
	}
	c := &SportCatalog{sports: make(map[string]models.Sport, len(sports))}
	for _, s := range sports {
		s.Name = strings.TrimSpace(s.Name)
		key := strings.ToLower(s.Name)
		if key == "" {
			return nil, fmt.Errorf("%w: sport without a name", ErrInvalidCatalog)
		}
		if _, dup := c.sports[key]; dup {
			return nil, fmt.Errorf("%w: sport %q listed twice", ErrInvalidCatalog, s.Name)
		}
		if s.TeamSize < 1 || s.TeamSize > models.MaxTeamSize {
			return nil, fmt.Errorf("%w: sport %q has team size %d", ErrInvalidCatalog, s.Name, s.TeamSize)
		}
		if s.DefaultCourts < 0 {
			return nil, fmt.Errorf("%w: sport %q has %d courts", ErrInvalidCatalog, s.Name, s.DefaultCourts)
		}
		if s.DefaultCourts == 0 {
			s.DefaultCourts = defaultCourts
		}
		s.AllowSinglesSlot = s.AllowSinglesSlot && allowSingles && s.TeamSize == 2
		c.sports[key] = s
	}
	return c, nil
}

// Get looks a sport up by name, case-insensitively.
func (c *SportCatalog) Get(name string) (models.Sport, bool) {
	s, ok := c.sports[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// All returns every sport ordered by name.
func (c *SportCatalog) All() []models.Sport {
	out := make([]models.Sport, 0, len(c.sports))
	for _, s := range c.sports {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
