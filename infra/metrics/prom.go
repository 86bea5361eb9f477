package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/fieldops/fieldsched/core/metrics"
)

// PromSink records committed placements in Prometheus metrics.
type PromSink struct {
	placements *prometheus.CounterVec
	workHours  *prometheus.CounterVec
	driveHours *prometheus.CounterVec
	runSeconds *prometheus.HistogramVec
}

// NewPromSink registers placement metrics on the default Prometheus
// registerer. The Prometheus server is started separately.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsched_placements_total",
		Help: "Total number of committed placements",
	}, []string{"technician_id", "mode", "forced"})
	workHours := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsched_work_hours_total",
		Help: "On-site hours committed per technician",
	}, []string{"technician_id"})
	driveHours := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsched_drive_hours_total",
		Help: "Drive hours committed per technician",
	}, []string{"technician_id"})
	runSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fieldsched_run_duration_seconds",
		Help:    "Wall time of scheduling runs",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	if err := reg.Register(placements); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			placements = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(workHours); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			workHours = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(driveHours); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			driveHours = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(runSeconds); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runSeconds = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		placements: placements,
		workHours:  workHours,
		driveHours: driveHours,
		runSeconds: runSeconds,
	}, nil
}

// RecordPlacements increments the counters for each committed placement.
func (s *PromSink) RecordPlacements(recs []coremetrics.PlacementRecord) error {
	for _, r := range recs {
		s.placements.WithLabelValues(r.TechnicianID, r.Mode, strconv.FormatBool(r.Forced)).Inc()
		s.workHours.WithLabelValues(r.TechnicianID).Add(r.WorkHours)
		s.driveHours.WithLabelValues(r.TechnicianID).Add(r.DriveHours)
	}
	return nil
}

// RecordRunSummary observes the run duration histogram.
func (s *PromSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	s.runSeconds.WithLabelValues(sum.Mode).Observe(sum.Duration.Seconds())
	return nil
}
