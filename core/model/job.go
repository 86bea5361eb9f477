package model

import (
	"fmt"
	"strings"
	"time"
)

// Priority classifies how urgently a job must be worked. Higher values win
// when two jobs compete for the same capacity.
type Priority int

const (
	PriorityNormal Priority = iota
	PriorityAnnual
	PriorityMonthly
	PriorityUrgent
)

var priorityNames = map[Priority]string{
	PriorityNormal:  "normal",
	PriorityAnnual:  "annual",
	PriorityMonthly: "monthly",
	PriorityUrgent:  "urgent",
}

func (p Priority) String() string {
	if s, ok := priorityNames[p]; ok {
		return s
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

// ParsePriority converts the wire representation of a priority class.
// Unknown values map to PriorityNormal.
func ParsePriority(s string) Priority {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "urgent":
		return PriorityUrgent
	case "monthly":
		return PriorityMonthly
	case "annual":
		return PriorityAnnual
	default:
		return PriorityNormal
	}
}

// MarshalJSON encodes the priority as its lowercase name.
func (p Priority) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// UnmarshalJSON accepts the lowercase class name.
func (p *Priority) UnmarshalJSON(b []byte) error {
	*p = ParsePriority(strings.Trim(string(b), `"`))
	return nil
}

// Coordinates is a WGS84 position. The zero value means the position is
// unknown; sites without geocoding cannot be routed.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the position carries usable data.
func (c Coordinates) Valid() bool {
	return c.Lat != 0 || c.Lon != 0
}

// JobStatus tracks a job through its lifecycle.
type JobStatus string

const (
	JobUnscheduled JobStatus = "unscheduled"
	JobScheduled   JobStatus = "scheduled"
	JobCompleted   JobStatus = "completed"
	JobArchived    JobStatus = "archived"
)

// Job is a geotagged work order. Jobs are immutable inside a scheduling run;
// only the external persistence layer transitions their status.
type Job struct {
	WorkOrder     int         `json:"work_order"`
	SiteID        int         `json:"site_id"`
	SiteName      string      `json:"site_name"`
	SiteCity      string      `json:"site_city"`
	SiteState     string      `json:"site_state"`
	Coords        Coordinates `json:"coords"`
	Region        string      `json:"region"`
	Priority      Priority    `json:"priority"`
	DueDate       time.Time   `json:"due_date"`
	DurationHours float64     `json:"duration_hours"`
	NightOnly     bool        `json:"night_only"`
	RecurringSite bool        `json:"recurring_site"`
	EligibleTechs []string    `json:"eligible_techs"`
	Status        JobStatus   `json:"status"`
}

// Validate checks the fields a scheduler relies on.
func (j Job) Validate() error {
	if j.WorkOrder <= 0 {
		return fmt.Errorf("job: work order must be positive")
	}
	if j.DurationHours <= 0 {
		return fmt.Errorf("job %d: %w", j.WorkOrder, ErrMissingDuration)
	}
	return nil
}

// EligibleFor reports whether the technician id appears in the job's
// eligible set.
func (j Job) EligibleFor(techID string) bool {
	for _, id := range j.EligibleTechs {
		if id == techID {
			return true
		}
	}
	return false
}

// DaysUntilDue returns the whole days between date and the due date.
// Negative values mean the job is past due.
func (j Job) DaysUntilDue(date time.Time) int {
	return int(j.DueDate.Sub(date).Hours() / 24)
}
