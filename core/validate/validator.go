// Package validate gates assignments before they are committed. The
// validator is a pure function over a snapshot: it mutates nothing and may
// be called repeatedly for what-if checks.
package validate

import (
	"fmt"
	"time"

	"github.com/fieldops/fieldsched/core/capacity"
	"github.com/fieldops/fieldsched/core/eligibility"
	"github.com/fieldops/fieldsched/core/model"
)

// Config tunes the warning thresholds.
type Config struct {
	// PastDueGraceDays is how far past the due date a placement may land
	// before it draws a PAST_DUE warning.
	PastDueGraceDays int `koanf:"past_due_grace_days" json:"past_due_grace_days"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.PastDueGraceDays < 0 {
		c.PastDueGraceDays = 0
	} else if c.PastDueGraceDays == 0 {
		c.PastDueGraceDays = 7
	}
}

// Outcome is the verdict for one candidate. Errors block the commit
// unconditionally; warnings block unless the caller forces.
type Outcome struct {
	WorkOrder int            `json:"work_order"`
	Errors    []model.Reason `json:"errors,omitempty"`
	Warnings  []model.Reason `json:"warnings,omitempty"`
}

// Blocked reports whether the candidate may not be committed. Force
// overrides warnings only, never errors.
func (o Outcome) Blocked(force bool) bool {
	if len(o.Errors) > 0 {
		return true
	}
	return !force && len(o.Warnings) > 0
}

// Validator checks candidate assignments against a snapshot.
type Validator struct {
	cfg Config
}

// New builds a validator.
func New(cfg Config) *Validator {
	cfg.SetDefaults()
	return &Validator{cfg: cfg}
}

// Validate checks every candidate against the snapshot's schedule, roster
// and time off, and against the candidates validated before it in the same
// batch. One outcome is returned per candidate, in input order.
func (v *Validator) Validate(snap *model.Snapshot, candidates []model.ScheduledJob) []Outcome {
	filt := eligibility.New(snap.TimeOff)
	ledger := capacity.New(snap.Technicians)
	ledger.Seed(snap.Schedule)

	out := make([]Outcome, 0, len(candidates))
	var accepted []model.ScheduledJob
	for _, c := range candidates {
		o := v.check(snap, filt, ledger, accepted, c)
		if len(o.Errors) == 0 {
			accepted = append(accepted, c)
		}
		out = append(out, o)
	}
	return out
}

func (v *Validator) check(snap *model.Snapshot, filt *eligibility.Filter, ledger *capacity.Ledger, accepted []model.ScheduledJob, c model.ScheduledJob) Outcome {
	o := Outcome{WorkOrder: c.WorkOrder}
	job, jobOK := snap.JobByWorkOrder(c.WorkOrder)
	if !jobOK {
		o.Errors = append(o.Errors, model.NewReason(model.ReasonConflict,
			fmt.Sprintf("work order %d is not in the snapshot", c.WorkOrder)))
		return o
	}
	tech, techOK := snap.Technician(c.TechnicianID)
	if !techOK {
		o.Errors = append(o.Errors, model.NewReason(model.ReasonNotActive,
			fmt.Sprintf("technician %s is not in the roster", c.TechnicianID)))
		return o
	}

	if ok, reason := filt.IsEligible(tech, job, c.Date); !ok {
		o.Errors = append(o.Errors, *reason)
	}
	for _, s := range snap.Schedule {
		if c.Overlaps(s) {
			o.Errors = append(o.Errors, model.NewReason(model.ReasonTimeOverlap,
				fmt.Sprintf("overlaps work order %d on %s", s.WorkOrder, c.Date.Format("2006-01-02"))))
			break
		}
	}
	for _, s := range accepted {
		if c.Overlaps(s) {
			o.Errors = append(o.Errors, model.NewReason(model.ReasonTimeOverlap,
				fmt.Sprintf("overlaps candidate work order %d", s.WorkOrder)))
			break
		}
	}

	if !ledger.CanAdd(c.TechnicianID, c.Date, c.DurationHours+c.DriveHours) {
		day, week := ledger.Remaining(c.TechnicianID, c.Date)
		o.Warnings = append(o.Warnings, model.NewReason(model.ReasonCapacityExceeded,
			fmt.Sprintf("%.1fh requested with %.1fh day / %.1fh week remaining", c.DurationHours+c.DriveHours, day, week)))
	}
	if !job.DueDate.IsZero() && c.Date.After(job.DueDate.AddDate(0, 0, v.cfg.PastDueGraceDays)) {
		o.Warnings = append(o.Warnings, model.NewReason(model.ReasonPastDue,
			fmt.Sprintf("placed %d days past due", -job.DaysUntilDue(c.Date))))
	}
	if job.NightOnly && nightRestricted(c.Date) {
		o.Warnings = append(o.Warnings, model.NewReason(model.ReasonNightRestricted,
			fmt.Sprintf("night job on %s leaves no recovery day", c.Date.Weekday())))
	}
	return o
}

// nightRestricted reports whether a night job on the date has no working
// day after it to recover on.
func nightRestricted(date time.Time) bool {
	switch date.Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return true
	}
	return false
}
