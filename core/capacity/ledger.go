// Package capacity tracks committed hours per technician per day and week.
// A Ledger belongs to a single scheduling run; it is seeded from the
// existing schedule at snapshot load and mutated only by that run.
package capacity

import (
	"errors"
	"fmt"
	"time"

	"github.com/fieldops/fieldsched/core/model"
)

// ErrDuplicateCommit signals a second commit for the same work order.
var ErrDuplicateCommit = errors.New("capacity: work order already committed")

// ErrOverCapacity signals a non-forced commit that would exceed a budget.
var ErrOverCapacity = errors.New("capacity: budget exceeded")

type dayKey struct {
	tech string
	day  string
}

type weekKey struct {
	tech string
	year int
	week int
}

// Overage records hours accepted past a budget via ForceCommit, for
// utilization reporting.
type Overage struct {
	TechnicianID string
	Date         time.Time
	WorkOrder    int
	Hours        float64
}

type budget struct {
	daily  float64
	weekly float64
}

// Ledger accumulates committed hours. It is not safe for concurrent use;
// each run owns its ledger.
type Ledger struct {
	budgets   map[string]budget
	days      map[dayKey]float64
	weeks     map[weekKey]float64
	committed map[int]struct{}
	overages  []Overage
}

// New builds a ledger for the given roster.
func New(techs []model.Technician) *Ledger {
	l := &Ledger{
		budgets:   make(map[string]budget, len(techs)),
		days:      make(map[dayKey]float64),
		weeks:     make(map[weekKey]float64),
		committed: make(map[int]struct{}),
	}
	for _, t := range techs {
		l.budgets[t.ID] = budget{daily: t.MaxDailyHours, weekly: t.MaxWeeklyHours}
	}
	return l
}

// Seed loads already-committed placements. Hours count toward budgets but
// seeding never fails on overage: the existing schedule is authoritative.
func (l *Ledger) Seed(existing []model.ScheduledJob) {
	for _, s := range existing {
		l.committed[s.WorkOrder] = struct{}{}
		l.add(s.TechnicianID, s.Date, s.DurationHours+s.DriveHours)
	}
}

func keys(tech string, date time.Time) (dayKey, weekKey) {
	y, w := date.ISOWeek()
	return dayKey{tech: tech, day: date.Format("2006-01-02")},
		weekKey{tech: tech, year: y, week: w}
}

func (l *Ledger) add(tech string, date time.Time, hours float64) {
	dk, wk := keys(tech, date)
	l.days[dk] += hours
	l.weeks[wk] += hours
}

// CanAdd reports whether hours fit the technician's remaining daily and
// weekly budget on the given date.
func (l *Ledger) CanAdd(tech string, date time.Time, hours float64) bool {
	b, ok := l.budgets[tech]
	if !ok {
		return false
	}
	dk, wk := keys(tech, date)
	const eps = 1e-9
	return l.days[dk]+hours <= b.daily+eps && l.weeks[wk]+hours <= b.weekly+eps
}

// Remaining returns the unused daily and weekly hours for the date.
func (l *Ledger) Remaining(tech string, date time.Time) (day, week float64) {
	b, ok := l.budgets[tech]
	if !ok {
		return 0, 0
	}
	dk, wk := keys(tech, date)
	return b.daily - l.days[dk], b.weekly - l.weeks[wk]
}

// Committed returns the total hours booked for the technician's day.
func (l *Ledger) Committed(tech string, date time.Time) float64 {
	dk, _ := keys(tech, date)
	return l.days[dk]
}

// WeekCommitted returns the total hours booked for the technician's week.
func (l *Ledger) WeekCommitted(tech string, date time.Time) float64 {
	_, wk := keys(tech, date)
	return l.weeks[wk]
}

// Commit books hours for a work order, enforcing budgets. A work order may
// be committed at most once per run.
func (l *Ledger) Commit(tech string, workOrder int, date time.Time, hours float64) error {
	if _, dup := l.committed[workOrder]; dup {
		return fmt.Errorf("%w: %d", ErrDuplicateCommit, workOrder)
	}
	if !l.CanAdd(tech, date, hours) {
		return fmt.Errorf("%w: tech %s on %s", ErrOverCapacity, tech, date.Format("2006-01-02"))
	}
	l.committed[workOrder] = struct{}{}
	l.add(tech, date, hours)
	return nil
}

// ForceCommit books hours past the budget check and records the overage.
// Duplicate work orders are still rejected.
func (l *Ledger) ForceCommit(tech string, workOrder int, date time.Time, hours float64) error {
	if _, dup := l.committed[workOrder]; dup {
		return fmt.Errorf("%w: %d", ErrDuplicateCommit, workOrder)
	}
	if !l.CanAdd(tech, date, hours) {
		day, week := l.Remaining(tech, date)
		over := max(hours-day, hours-week)
		if over < 0 {
			over = 0
		}
		l.overages = append(l.overages, Overage{
			TechnicianID: tech,
			Date:         date,
			WorkOrder:    workOrder,
			Hours:        over,
		})
	}
	l.committed[workOrder] = struct{}{}
	l.add(tech, date, hours)
	return nil
}

// Overages returns the recorded force-commit excesses.
func (l *Ledger) Overages() []Overage {
	out := make([]Overage, len(l.overages))
	copy(out, l.overages)
	return out
}
