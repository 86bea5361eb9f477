package model

import (
	"fmt"
	"time"
)

// Technician is a mobile worker with a home base and hour budgets. Roster
// management mutates technicians externally; inside a run they are read-only.
type Technician struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Home           Coordinates `json:"home"`
	MaxDailyHours  float64     `json:"max_daily_hours"`
	MaxWeeklyHours float64     `json:"max_weekly_hours"`
	QualifiedTests []string    `json:"qualified_tests"`
	AllowedStates  []string    `json:"allowed_states"`
	ExcludedStates []string    `json:"excluded_states"`
	Active         bool        `json:"active"`
}

// Validate checks the budget fields the ledger depends on.
func (t Technician) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("technician: id is required")
	}
	if t.MaxDailyHours <= 0 || t.MaxWeeklyHours <= 0 {
		return fmt.Errorf("technician %s: hour budgets must be positive", t.ID)
	}
	return nil
}

// MayWorkState applies the allowed/excluded state lists to a site state.
func (t Technician) MayWorkState(state string) bool {
	for _, s := range t.ExcludedStates {
		if s == state {
			return false
		}
	}
	if len(t.AllowedStates) == 0 {
		return true
	}
	for _, s := range t.AllowedStates {
		if s == state {
			return true
		}
	}
	return false
}

// TimeOff blocks part or all of a technician's capacity over a date range.
// HoursAvailable is the capacity remaining on each covered day; zero means a
// full day off.
type TimeOff struct {
	TechnicianID   string    `json:"technician_id"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	HoursAvailable float64   `json:"hours_available"`
	Approved       bool      `json:"approved"`
	Reason         string    `json:"reason"`
}

// Covers reports whether the range includes the given date.
func (o TimeOff) Covers(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(o.Start.Truncate(24*time.Hour)) && !d.After(o.End.Truncate(24*time.Hour))
}
