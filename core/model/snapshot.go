package model

import (
	"fmt"
	"time"
)

// RunParams bound a single scheduling run.
type RunParams struct {
	HorizonStart time.Time `json:"horizon_start"`
	HorizonEnd   time.Time `json:"horizon_end"`
	Force        bool      `json:"force,omitempty"`
}

// Validate checks the horizon is well formed.
func (p RunParams) Validate() error {
	if p.HorizonStart.IsZero() || p.HorizonEnd.IsZero() {
		return fmt.Errorf("run params: horizon start and end are required")
	}
	if p.HorizonEnd.Before(p.HorizonStart) {
		return fmt.Errorf("run params: horizon end precedes start")
	}
	return nil
}

// Snapshot is the immutable input to one engine invocation. It is loaded
// once at the start of a run and never mutated by the engine; concurrent
// runs each get their own snapshot.
type Snapshot struct {
	Jobs        []Job           `json:"jobs"`
	Technicians []Technician    `json:"technicians"`
	Schedule    []ScheduledJob  `json:"schedule"`
	Matrix      []DistanceEntry `json:"distance_matrix"`
	TimeOff     []TimeOff       `json:"time_off"`
	Params      RunParams       `json:"params"`
}

// Validate applies whole-run preconditions. Failures here abort the run
// before any output is produced.
func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("snapshot: nil")
	}
	if len(s.Technicians) == 0 {
		return fmt.Errorf("snapshot: no technicians loaded")
	}
	for _, t := range s.Technicians {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	return s.Params.Validate()
}

// Technician returns the roster entry with the given id.
func (s *Snapshot) Technician(id string) (Technician, bool) {
	for _, t := range s.Technicians {
		if t.ID == id {
			return t, true
		}
	}
	return Technician{}, false
}

// JobByWorkOrder returns the job with the given work order.
func (s *Snapshot) JobByWorkOrder(wo int) (Job, bool) {
	for _, j := range s.Jobs {
		if j.WorkOrder == wo {
			return j, true
		}
	}
	return Job{}, false
}

// Unscheduled returns the jobs still waiting for a placement.
func (s *Snapshot) Unscheduled() []Job {
	var out []Job
	for _, j := range s.Jobs {
		if j.Status == JobUnscheduled || j.Status == "" {
			out = append(out, j)
		}
	}
	return out
}

// DayOf truncates a timestamp to its calendar day in UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
