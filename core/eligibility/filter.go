// Package eligibility decides whether a technician may perform a job on a
// date. Checks run in a fixed order: active status, qualification, state
// restrictions, approved time off.
package eligibility

import (
	"fmt"
	"time"

	"github.com/fieldops/fieldsched/core/model"
)

// Filter answers eligibility queries against a run's time-off records.
type Filter struct {
	timeOff map[string][]model.TimeOff
}

// New indexes approved time off by technician.
func New(timeOff []model.TimeOff) *Filter {
	f := &Filter{timeOff: make(map[string][]model.TimeOff)}
	for _, o := range timeOff {
		if !o.Approved {
			continue
		}
		f.timeOff[o.TechnicianID] = append(f.timeOff[o.TechnicianID], o)
	}
	return f
}

// IsEligible reports whether the technician may perform the job on the
// date. On rejection the first failing check's reason is returned.
func (f *Filter) IsEligible(tech model.Technician, job model.Job, date time.Time) (bool, *model.Reason) {
	reasons := f.check(tech, job, date, true)
	if len(reasons) == 0 {
		return true, nil
	}
	return false, &reasons[0]
}

// Audit runs every check and returns all failing reasons, for batch
// diagnostics where a single first-failure answer is not enough.
func (f *Filter) Audit(tech model.Technician, job model.Job, date time.Time) []model.Reason {
	return f.check(tech, job, date, false)
}

func (f *Filter) check(tech model.Technician, job model.Job, date time.Time, firstOnly bool) []model.Reason {
	var out []model.Reason
	fail := func(r model.Reason) bool {
		out = append(out, r)
		return firstOnly
	}
	if !tech.Active {
		if fail(model.NewReason(model.ReasonNotActive, fmt.Sprintf("technician %s is inactive", tech.ID))) {
			return out
		}
	}
	if !job.EligibleFor(tech.ID) {
		if fail(model.NewReason(model.ReasonNotQualified, fmt.Sprintf("technician %s not in eligible set for WO %d", tech.ID, job.WorkOrder))) {
			return out
		}
	}
	if job.SiteState != "" && !tech.MayWorkState(job.SiteState) {
		if fail(model.NewReason(model.ReasonStateExcluded, fmt.Sprintf("state %s not allowed for technician %s", job.SiteState, tech.ID))) {
			return out
		}
	}
	if f.fullDayOff(tech.ID, date) {
		if fail(model.NewReason(model.ReasonTimeOff, fmt.Sprintf("technician %s has approved time off on %s", tech.ID, date.Format("2006-01-02")))) {
			return out
		}
	}
	return out
}

func (f *Filter) fullDayOff(techID string, date time.Time) bool {
	for _, o := range f.timeOff[techID] {
		if o.Covers(date) && o.HoursAvailable <= 0 {
			return true
		}
	}
	return false
}

// AvailableHours returns the technician's usable hours on the date: the
// daily budget reduced by any partial-day time off. A full day off yields
// zero.
func (f *Filter) AvailableHours(tech model.Technician, date time.Time) float64 {
	hours := tech.MaxDailyHours
	for _, o := range f.timeOff[tech.ID] {
		if o.Covers(date) && o.HoursAvailable < hours {
			hours = o.HoursAvailable
		}
	}
	if hours < 0 {
		return 0
	}
	return hours
}
