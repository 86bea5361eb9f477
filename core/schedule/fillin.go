package schedule

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fieldops/fieldsched/core/capacity"
	"github.com/fieldops/fieldsched/core/eligibility"
	"github.com/fieldops/fieldsched/core/geo"
	"github.com/fieldops/fieldsched/core/logger"
	"github.com/fieldops/fieldsched/core/model"
)

// FillIn is the gap pass: it finds idle intervals in an already-partially
// scheduled calendar and inserts compatible nearby jobs into them.
type FillIn struct {
	cfg Config
	log logger.Logger
}

// NewFillIn builds the gap scheduler.
func NewFillIn(cfg Config, log logger.Logger) (*FillIn, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, fmt.Errorf("schedule: logger is required")
	}
	return &FillIn{cfg: cfg, log: log}, nil
}

// gap is one idle interval of a technician day. An open trailing interval
// has no end location and charges only the outbound drive leg.
type gap struct {
	start, end float64
	startLoc   geo.Site
	endLoc     *geo.Site
	region     string
}

func (g gap) length() float64 { return g.end - g.start }

type fillRun struct {
	cfg      Config
	log      logger.Logger
	snap     *model.Snapshot
	geom     *geo.Model
	ledger   *capacity.Ledger
	filt     *eligibility.Filter
	res      *Result
	assigned map[int]bool
}

// Run executes the gap pass. Gaps that stay empty are idle time, not
// errors; pool jobs that fit no gap are accounted as unplaced.
func (f *FillIn) Run(ctx context.Context, snap *model.Snapshot) (*Result, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	r := &fillRun{
		cfg:      f.cfg,
		log:      f.log,
		snap:     snap,
		geom:     geo.NewModel(snap.Matrix, f.cfg.SpeedMPH),
		ledger:   capacity.New(snap.Technicians),
		filt:     eligibility.New(snap.TimeOff),
		res:      &Result{},
		assigned: make(map[int]bool),
	}
	r.ledger.Seed(snap.Schedule)
	pool := screenPool(snap, r.res, snap.Unscheduled())

	cancelled := false
techs:
	for _, tech := range r.roster() {
		for day := model.DayOf(snap.Params.HorizonStart); !day.After(snap.Params.HorizonEnd); day = day.AddDate(0, 0, 1) {
			if ctx.Err() != nil {
				cancelled = true
				break techs
			}
			for _, g := range r.dayGaps(tech, day) {
				r.fillGap(tech, day, g, pool)
			}
		}
	}

	for _, j := range pool {
		if r.assigned[j.WorkOrder] {
			continue
		}
		if cancelled {
			r.res.reject(j, model.NewReason(model.ReasonNotAttempted, "run cancelled before the job was attempted"))
		} else {
			r.res.reject(j, model.NewReason(model.ReasonCapacityExceeded,
				fmt.Sprintf("no idle interval in the horizon fits %.1fh plus drive", j.DurationHours)))
		}
	}

	r.res.finish(snap)
	observeRun("fillin", r.res)
	f.log.Infof("fill-in pass: %d placed, %d unplaced, cancelled=%v",
		len(r.res.Placements), len(r.res.Unplaced), cancelled)
	return r.res, nil
}

// roster returns routable active technicians in id order.
func (r *fillRun) roster() []model.Technician {
	var out []model.Technician
	for _, t := range r.snap.Technicians {
		if !t.Active {
			continue
		}
		if !t.Home.Valid() {
			r.res.SkippedTechs = append(r.res.SkippedTechs, t.ID)
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	sort.Strings(r.res.SkippedTechs)
	return out
}

// dayGaps computes the idle intervals of a technician day: before the
// first appointment, between consecutive ones, and after the last, bounded
// by the working-day window. Days without appointments are skipped; the
// batch pass owns empty days.
func (r *fillRun) dayGaps(tech model.Technician, day time.Time) []gap {
	appts := r.appointments(tech.ID, day)
	if len(appts) == 0 {
		return nil
	}
	home := geo.HomeSite(tech)
	var gaps []gap
	cursorEnd := r.cfg.WorkdayStartHour
	loc := home
	region := ""
	for _, a := range appts {
		site, reg := r.siteOf(a)
		if reg != "" {
			region = reg
		}
		if a.StartHour-cursorEnd >= r.cfg.MinGapHours {
			gaps = append(gaps, gap{
				start: cursorEnd, end: a.StartHour,
				startLoc: loc, endLoc: &site, region: reg,
			})
		}
		if end := a.EndHour(); end > cursorEnd {
			cursorEnd = end
			loc = site
		}
	}
	if r.cfg.WorkdayEndHour-cursorEnd >= r.cfg.MinGapHours {
		gaps = append(gaps, gap{
			start: cursorEnd, end: r.cfg.WorkdayEndHour,
			startLoc: loc, endLoc: nil, region: region,
		})
	}
	return gaps
}

func (r *fillRun) appointments(techID string, day time.Time) []model.ScheduledJob {
	var out []model.ScheduledJob
	for _, s := range r.snap.Schedule {
		if s.TechnicianID == techID && model.DayOf(s.Date).Equal(day) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].StartHour < out[k].StartHour })
	return out
}

// siteOf resolves an appointment's location and region via its work order.
// Unresolvable appointments anchor to the site they were booked from.
func (r *fillRun) siteOf(a model.ScheduledJob) (geo.Site, string) {
	if j, ok := r.snap.JobByWorkOrder(a.WorkOrder); ok && j.Coords.Valid() {
		return geo.JobSite(j), j.Region
	}
	return geo.Site{}, ""
}

// fillGap inserts the best-fitting candidates into one idle interval until
// nothing fits. Each insertion shrinks the interval and advances its start
// location.
func (r *fillRun) fillGap(tech model.Technician, day time.Time, g gap, pool []model.Job) {
	for {
		j, inDrive, added, ok := r.bestCandidate(tech, day, g, pool)
		if !ok {
			return
		}
		if err := r.ledger.Commit(tech.ID, j.WorkOrder, day, j.DurationHours+inDrive); err != nil {
			r.assigned[j.WorkOrder] = true
			r.res.reject(j, model.NewReason(model.ReasonConflict, err.Error()))
			continue
		}
		start := g.start + inDrive
		r.res.place(model.ScheduledJob{
			WorkOrder:     j.WorkOrder,
			TechnicianID:  tech.ID,
			Date:          day,
			StartHour:     start,
			DurationHours: j.DurationHours,
			DriveHours:    inDrive,
		})
		r.assigned[j.WorkOrder] = true
		r.log.Debugw("gap filled", map[string]any{
			"work_order": j.WorkOrder,
			"tech":       tech.ID,
			"date":       day.Format("2006-01-02"),
			"gap_start":  g.start,
			"added":      added,
		})
		site := geo.JobSite(j)
		g.start = start + j.DurationHours
		g.startLoc = site
	}
}

// bestCandidate scores the corridor-feasible candidates for the interval
// and returns the winner. The corridor rule: the inbound leg, the job
// itself, the outbound leg to the next appointment, and the slack must all
// fit inside the interval. Open trailing intervals charge no outbound leg.
func (r *fillRun) bestCandidate(tech model.Technician, day time.Time, g gap, pool []model.Job) (model.Job, float64, float64, bool) {
	var (
		best      model.Job
		bestIn    float64
		bestAdded float64
		bestScore float64
		found     bool
	)
	for _, j := range pool {
		if r.assigned[j.WorkOrder] || j.NightOnly {
			continue
		}
		if g.region != "" && j.Region != g.region {
			continue
		}
		site := geo.JobSite(j)
		_, inDrive, err := r.geom.Distance(g.startLoc, site)
		if err != nil {
			continue
		}
		outDrive := 0.0
		if g.endLoc != nil {
			if _, d, err := r.geom.Distance(site, *g.endLoc); err == nil {
				outDrive = d
			} else {
				continue
			}
		}
		added := inDrive + outDrive
		if added+j.DurationHours+r.cfg.CorridorSlackHours > g.length()+hoursEps {
			continue
		}
		if !r.ledger.CanAdd(tech.ID, day, j.DurationHours+inDrive) {
			continue
		}
		if ok, _ := r.filt.IsEligible(tech, j, day); !ok {
			continue
		}
		score := r.score(j, day, added)
		if !found || score > bestScore {
			best, bestIn, bestAdded, bestScore, found = j, inDrive, added, score, true
		}
	}
	return best, bestIn, bestAdded, found
}

// score ranks a candidate by due-date urgency minus the drive it adds.
// Priority class dominates, then proximity to the due date, then drive.
func (r *fillRun) score(j model.Job, day time.Time, addedDrive float64) float64 {
	urgency := 4 * float64(j.Priority)
	if days := j.DaysUntilDue(day); days > 0 {
		urgency -= 0.05 * float64(days)
	} else {
		urgency += 1 // past due or due today
	}
	return urgency - addedDrive
}
