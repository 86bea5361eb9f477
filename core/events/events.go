// Package events defines the notifications published on the internal bus
// during a scheduling run.
package events

import (
	"time"

	"github.com/fieldops/fieldsched/core/metrics"
	"github.com/fieldops/fieldsched/core/model"
)

// RunStarted is published when a scheduling run begins.
type RunStarted struct {
	RunID string
	Mode  string
	Jobs  int
	Techs int
	Time  time.Time
}

// JobPlaced is published for each placement a run commits.
type JobPlaced struct {
	RunID     string
	Placement model.ScheduledJob
	Time      time.Time
}

// JobUnplaced is published for each job a run could not place.
type JobUnplaced struct {
	RunID     string
	WorkOrder int
	Reason    model.Reason
	Time      time.Time
}

// RunCompleted is published after a run's results are committed.
type RunCompleted struct {
	RunID    string
	Mode     string
	Metrics  metrics.RunMetrics
	Duration time.Duration
	Time     time.Time
}
