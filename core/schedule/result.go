package schedule

import (
	"sort"

	"github.com/fieldops/fieldsched/core/metrics"
	"github.com/fieldops/fieldsched/core/model"
)

// UnplacedJob pairs a job the run could not place with the reason.
type UnplacedJob struct {
	Job    model.Job    `json:"job"`
	Reason model.Reason `json:"reason"`
}

// Result is the full accounting of one pass: every job in scope appears
// either in Placements or in Unplaced.
type Result struct {
	Placements []model.ScheduledJob `json:"placements"`
	Unplaced   []UnplacedJob        `json:"unplaced"`
	// SkippedTechs lists technicians excluded from routing, typically for
	// missing home coordinates.
	SkippedTechs []string           `json:"skipped_techs,omitempty"`
	Metrics      metrics.RunMetrics `json:"metrics"`
}

func (r *Result) place(p model.ScheduledJob) {
	r.Placements = append(r.Placements, p)
}

func (r *Result) reject(j model.Job, reason model.Reason) {
	r.Unplaced = append(r.Unplaced, UnplacedJob{Job: j, Reason: reason})
}

// finish sorts the accounting deterministically and computes run metrics.
func (r *Result) finish(snap *model.Snapshot) {
	r.Refresh(snap)
}

// Refresh re-sorts the accounting and recomputes the metrics. Callers that
// adjust the result after the pass, such as a commit boundary moving a
// racing placement into Unplaced, must call it to keep the figures honest.
func (r *Result) Refresh(snap *model.Snapshot) {
	sort.SliceStable(r.Placements, func(i, k int) bool {
		a, b := r.Placements[i], r.Placements[k]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.TechnicianID != b.TechnicianID {
			return a.TechnicianID < b.TechnicianID
		}
		return a.StartHour < b.StartHour
	})
	sort.SliceStable(r.Unplaced, func(i, k int) bool {
		return r.Unplaced[i].Job.WorkOrder < r.Unplaced[k].Job.WorkOrder
	})
	r.Metrics = metrics.ComputeRunMetrics(r.Placements, len(r.Unplaced), snap.Technicians, snap.Params)
}
