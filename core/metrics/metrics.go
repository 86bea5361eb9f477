// Package metrics defines the observability contracts of the engine and the
// per-run summary figures.
package metrics

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/fieldops/fieldsched/core/model"
)

// PlacementRecord is one committed placement, enriched for recording.
type PlacementRecord struct {
	RunID        string
	Mode         string
	WorkOrder    int
	TechnicianID string
	Region       string
	Date         time.Time
	WorkHours    float64
	DriveHours   float64
	Forced       bool
	Time         time.Time
}

// MetricsSink records committed placements for observability purposes.
type MetricsSink interface {
	RecordPlacements(recs []PlacementRecord) error
}

// RunSummary aggregates one scheduling run.
type RunSummary struct {
	RunID    string
	Mode     string
	Metrics  RunMetrics
	Duration time.Duration
	Time     time.Time
}

// RunSummaryRecorder records run summaries. Sinks implement it optionally.
type RunSummaryRecorder interface {
	RecordRunSummary(sum RunSummary) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordPlacements([]PlacementRecord) error { return nil }

func (NopSink) RecordRunSummary(RunSummary) error { return nil }

// RunMetrics is the accounting a run returns alongside its placements.
type RunMetrics struct {
	JobsPlaced      int                `json:"jobs_placed"`
	JobsUnplaced    int                `json:"jobs_unplaced"`
	TotalWorkHours  float64            `json:"total_work_hours"`
	TotalDriveHours float64            `json:"total_drive_hours"`
	// Utilization is committed hours over weekly budget across the
	// horizon, in percent, per technician.
	Utilization     map[string]float64 `json:"utilization"`
	UtilizationMean float64            `json:"utilization_mean"`
	UtilizationStd  float64            `json:"utilization_std"`
}

// ComputeRunMetrics derives the summary from placements and the roster.
func ComputeRunMetrics(placements []model.ScheduledJob, unplaced int, techs []model.Technician, params model.RunParams) RunMetrics {
	m := RunMetrics{
		JobsPlaced:   len(placements),
		JobsUnplaced: unplaced,
		Utilization:  make(map[string]float64, len(techs)),
	}
	committed := make(map[string]float64, len(techs))
	for _, p := range placements {
		m.TotalWorkHours += p.DurationHours
		m.TotalDriveHours += p.DriveHours
		committed[p.TechnicianID] += p.DurationHours + p.DriveHours
	}
	weeks := params.HorizonEnd.Sub(params.HorizonStart).Hours()/24/7 + 1e-9
	if weeks < 1 {
		weeks = 1
	}
	var vals []float64
	for _, t := range techs {
		if t.MaxWeeklyHours <= 0 {
			continue
		}
		u := committed[t.ID] / (t.MaxWeeklyHours * weeks) * 100
		m.Utilization[t.ID] = u
		vals = append(vals, u)
	}
	if len(vals) > 0 {
		m.UtilizationMean = stat.Mean(vals, nil)
		if len(vals) > 1 {
			m.UtilizationStd = stat.StdDev(vals, nil)
		}
	}
	return m
}
