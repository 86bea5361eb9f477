package schedule

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	jobsPlaced      *prometheus.CounterVec
	jobsUnplaced    *prometheus.CounterVec
	routeDriveHours *prometheus.HistogramVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.CounterVec, *prometheus.HistogramVec) {
	placed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldsched_jobs_placed_total",
			Help: "Number of jobs placed on a technician calendar",
		},
		[]string{"mode"},
	)
	unplaced := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fieldsched_jobs_unplaced_total",
			Help: "Number of jobs a run could not place, by reason code",
		},
		[]string{"mode", "reason"},
	)
	drive := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fieldsched_route_drive_hours",
			Help:    "Drive hours added per placed job",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"mode"},
	)
	return placed, unplaced, drive
}

func init() {
	jobsPlaced, jobsUnplaced, routeDriveHours = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers scheduler metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(jobsPlaced, jobsUnplaced, routeDriveHours)
}

// ResetMetrics reinitializes metric collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	jobsPlaced, jobsUnplaced, routeDriveHours = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
