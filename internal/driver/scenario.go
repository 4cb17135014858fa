// Package driver launches Locust load runs and checks their prerequisites.
package driver

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"loadgrade/internal/config"
	"loadgrade/internal/progress"
)

var ErrUnknownScenario = errors.New("unknown scenario")

// Scenario is a named load shape.
type Scenario struct {
	Name        string
	Description string
	Users       int
	SpawnRate   float64 // users started per second
	Duration    time.Duration
}

// Validate checks the scenario can be handed to Locust.
func (s Scenario) Validate() error {
	switch {
	case s.Users <= 0:
		return fmt.Errorf("scenario %s: users must be positive", s.Name)
	case s.SpawnRate <= 0:
		return fmt.Errorf("scenario %s: spawn rate must be positive", s.Name)
	case s.Duration < time.Second:
		return fmt.Errorf("scenario %s: duration must be at least 1s", s.Name)
	}
	return nil
}

// RampUp is how long Locust takes to start every user, capped at Duration.
func (s Scenario) RampUp() time.Duration {
	if s.SpawnRate <= 0 {
		return 0
	}
	ramp := time.Duration(float64(s.Users) / s.SpawnRate * float64(time.Second))
	return min(ramp, s.Duration)
}

// Phases describes the expected user count over the run.
func (s Scenario) Phases() []progress.Phase {
	ramp := s.RampUp()
	return []progress.Phase{
		{Name: "ramp-up", Duration: ramp, StartUsers: 0, EndUsers: s.Users},
		{Name: "steady", Duration: s.Duration - ramp, StartUsers: s.Users, EndUsers: s.Users},
	}
}

// Custom builds an unnamed scenario from explicit parameters.
func Custom(users int, spawnRate float64, duration time.Duration) (Scenario, error) {
	s := Scenario{
		Name:        "custom",
		Description: "Custom load parameters",
		Users:       users,
		SpawnRate:   spawnRate,
		Duration:    duration,
	}
	return s, s.Validate()
}

// Catalog holds the scenarios available by name.
type Catalog map[string]Scenario

// DefaultCatalog returns the built-in scenarios.
func DefaultCatalog() Catalog {
	return Catalog{
		"baseline": {
			Name: "baseline", Description: "Baseline run to establish reference metrics",
			Users: 50, SpawnRate: 5, Duration: 5 * time.Minute,
		},
		"normal": {
			Name: "normal", Description: "Normal daily load",
			Users: 200, SpawnRate: 10, Duration: 10 * time.Minute,
		},
		"peak": {
			Name: "peak", Description: "Peak hour traffic",
			Users: 500, SpawnRate: 20, Duration: 15 * time.Minute,
		},
		"stress": {
			Name: "stress", Description: "Stress run to find the breaking point",
			Users: 1000, SpawnRate: 50, Duration: 10 * time.Minute,
		},
		"endurance": {
			Name: "endurance", Description: "Long run to surface memory leaks",
			Users: 200, SpawnRate: 10, Duration: 2 * time.Hour,
		},
	}
}

// NewCatalog returns the built-in scenarios with overrides applied. An
// override replaces a built-in of the same name entirely; an empty
// description keeps the built-in one.
func NewCatalog(overrides map[string]config.ScenarioConfig) Catalog {
	c := DefaultCatalog()
	for name, o := range overrides {
		desc := o.Description
		if desc == "" {
			desc = c[name].Description
		}
		c[name] = Scenario{
			Name:        name,
			Description: desc,
			Users:       o.Users,
			SpawnRate:   o.SpawnRate,
			Duration:    o.Duration,
		}
	}
	return c
}

// Get looks a scenario up by name.
func (c Catalog) Get(name string) (Scenario, error) {
	s, ok := c[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w %q (available: %s)", ErrUnknownScenario, name, strings.Join(c.Names(), ", "))
	}
	return s, nil
}

// Names returns the scenario names ordered by duration, then name.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if d := c[a].Duration - c[b].Duration; d != 0 {
			if d < 0 {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})
	return names
}
