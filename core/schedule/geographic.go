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

const hoursEps = 1e-9

// Geographic is the batch pass: it assigns an unscheduled job pool across
// the planning horizon region by region, building day routes greedily.
type Geographic struct {
	cfg Config
	log logger.Logger
}

// NewGeographic builds the batch scheduler.
func NewGeographic(cfg Config, log logger.Logger) (*Geographic, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		return nil, fmt.Errorf("schedule: logger is required")
	}
	return &Geographic{cfg: cfg, log: log}, nil
}

type techDay struct {
	tech string
	day  string
}

func dayKey(tech string, day time.Time) techDay {
	return techDay{tech: tech, day: day.Format("2006-01-02")}
}

// dayState tracks the routing clock of one technician day. It starts after
// any appointments already on the calendar.
type dayState struct {
	cursor float64
	loc    geo.Site
}

type batchRun struct {
	cfg    Config
	log    logger.Logger
	snap   *model.Snapshot
	geom   *geo.Model
	ledger *capacity.Ledger
	filt   *eligibility.Filter
	res    *Result

	assigned map[int]bool
	days     map[techDay]*dayState
	night    map[techDay]bool
	away     map[string]geo.Site
}

// Run executes the batch pass over the snapshot. Cancellation is checked
// between placements; on cancellation the partial result is returned with
// the remaining pool accounted as NOT_ATTEMPTED.
func (g *Geographic) Run(ctx context.Context, snap *model.Snapshot) (*Result, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	b := &batchRun{
		cfg:      g.cfg,
		log:      g.log,
		snap:     snap,
		geom:     geo.NewModel(snap.Matrix, g.cfg.SpeedMPH),
		ledger:   capacity.New(snap.Technicians),
		filt:     eligibility.New(snap.TimeOff),
		res:      &Result{},
		assigned: make(map[int]bool),
		days:     make(map[techDay]*dayState),
		night:    make(map[techDay]bool),
		away:     make(map[string]geo.Site),
	}
	b.ledger.Seed(snap.Schedule)

	pool := screenPool(snap, b.res, snap.Unscheduled())
	regions := partition(pool)

	cancelled := false
regions:
	for _, region := range regions {
		techs := b.regionTechs(region.jobs)
		for _, tech := range techs {
			for day := model.DayOf(snap.Params.HorizonStart); !day.After(snap.Params.HorizonEnd); day = day.AddDate(0, 0, 1) {
				if ctx.Err() != nil {
					cancelled = true
					break regions
				}
				if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
					continue
				}
				b.scheduleDay(tech, day, region.jobs)
			}
		}
	}

	for _, region := range regions {
		for _, j := range region.jobs {
			if b.assigned[j.WorkOrder] {
				continue
			}
			if cancelled {
				b.res.reject(j, model.NewReason(model.ReasonNotAttempted, "run cancelled before the job was attempted"))
			} else {
				b.res.reject(j, model.NewReason(model.ReasonCapacityExceeded,
					fmt.Sprintf("no technician day in the horizon fits %.1fh plus drive", j.DurationHours)))
			}
		}
	}

	b.res.finish(snap)
	observeRun("geographic", b.res)
	g.log.Infof("geographic pass: %d placed, %d unplaced, cancelled=%v",
		len(b.res.Placements), len(b.res.Unplaced), cancelled)
	return b.res, nil
}

// screenPool drops jobs with data errors or no eligible technician
// anywhere. Dropped jobs are reported, never silently discarded.
func screenPool(snap *model.Snapshot, res *Result, pool []model.Job) []model.Job {
	var out []model.Job
	for _, j := range pool {
		switch {
		case j.DurationHours <= 0:
			res.reject(j, model.NewReason(model.ReasonMissingDuration,
				fmt.Sprintf("work order %d has no usable duration", j.WorkOrder)))
		case !j.Coords.Valid():
			res.reject(j, model.NewReason(model.ReasonMissingCoordinates,
				fmt.Sprintf("site %q is not geocoded", j.SiteName)))
		case !anyEligible(snap, j):
			res.reject(j, model.NewReason(model.ReasonNoEligibleTech,
				fmt.Sprintf("no active qualified technician for work order %d", j.WorkOrder)))
		default:
			out = append(out, j)
		}
	}
	return out
}

func anyEligible(snap *model.Snapshot, j model.Job) bool {
	for _, t := range snap.Technicians {
		if staticEligible(t, j) {
			return true
		}
	}
	return false
}

// staticEligible applies the date-independent eligibility checks.
func staticEligible(t model.Technician, j model.Job) bool {
	if !t.Active || !j.EligibleFor(t.ID) {
		return false
	}
	return j.SiteState == "" || t.MayWorkState(j.SiteState)
}

type regionPool struct {
	name string
	jobs []model.Job
}

// partition splits the pool by region tag and orders each region's jobs by
// priority descending, due date ascending, duration descending. Regions are
// visited in name order so runs are deterministic.
func partition(pool []model.Job) []regionPool {
	byRegion := make(map[string][]model.Job)
	for _, j := range pool {
		byRegion[j.Region] = append(byRegion[j.Region], j)
	}
	names := make([]string, 0, len(byRegion))
	for name := range byRegion {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]regionPool, 0, len(names))
	for _, name := range names {
		jobs := byRegion[name]
		sort.SliceStable(jobs, func(i, k int) bool {
			a, c := jobs[i], jobs[k]
			if a.Priority != c.Priority {
				return a.Priority > c.Priority
			}
			if !a.DueDate.Equal(c.DueDate) {
				return a.DueDate.Before(c.DueDate)
			}
			if a.DurationHours != c.DurationHours {
				return a.DurationHours > c.DurationHours
			}
			return a.WorkOrder < c.WorkOrder
		})
		out = append(out, regionPool{name: name, jobs: jobs})
	}
	return out
}

// regionTechs returns the technicians statically eligible for at least one
// job in the region, in id order. Technicians without home coordinates are
// skipped for routing but reported.
func (b *batchRun) regionTechs(jobs []model.Job) []model.Technician {
	var out []model.Technician
	for _, t := range b.snap.Technicians {
		eligible := false
		for _, j := range jobs {
			if staticEligible(t, j) {
				eligible = true
				break
			}
		}
		if !eligible {
			continue
		}
		if !t.Home.Valid() {
			b.skipTech(t.ID)
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

func (b *batchRun) skipTech(id string) {
	for _, s := range b.res.SkippedTechs {
		if s == id {
			return
		}
	}
	b.res.SkippedTechs = append(b.res.SkippedTechs, id)
	sort.Strings(b.res.SkippedTechs)
}

// dayBudget returns the usable hours for the technician day: the daily
// budget after time off (halved after a night job), net of hours already
// committed on the day, capped by the remaining weekly budget.
func (b *batchRun) dayBudget(tech model.Technician, day time.Time) float64 {
	avail := b.filt.AvailableHours(tech, day)
	if b.night[dayKey(tech.ID, day.AddDate(0, 0, -1))] {
		avail *= b.cfg.NightRecoveryFactor
	}
	avail -= b.ledger.Committed(tech.ID, day)
	if avail < 0 {
		avail = 0
	}
	_, weekRem := b.ledger.Remaining(tech.ID, day)
	return min(avail, weekRem)
}

// state returns the routing clock for the technician day, initialized past
// any appointments already on the calendar.
func (b *batchRun) state(tech model.Technician, day time.Time) *dayState {
	key := dayKey(tech.ID, day)
	if st, ok := b.days[key]; ok {
		return st
	}
	st := &dayState{cursor: b.cfg.WorkdayStartHour, loc: b.startLocation(tech)}
	for _, s := range b.snap.Schedule {
		if s.TechnicianID != tech.ID || !model.DayOf(s.Date).Equal(day) {
			continue
		}
		if end := s.EndHour(); end > st.cursor {
			st.cursor = end
			if j, ok := b.snap.JobByWorkOrder(s.WorkOrder); ok && j.Coords.Valid() {
				st.loc = geo.JobSite(j)
			}
		}
	}
	b.days[key] = st
	return st
}

func (b *batchRun) startLocation(tech model.Technician) geo.Site {
	if loc, ok := b.away[tech.ID]; ok {
		return loc
	}
	return geo.HomeSite(tech)
}

// scheduleDay builds one technician day: a greedy nearest-neighbor route
// through the region pool, night-only jobs at the end, then the homebound
// leg unless the day closes far enough from home to stay out overnight.
func (b *batchRun) scheduleDay(tech model.Technician, day time.Time, jobs []model.Job) {
	budget := b.dayBudget(tech, day)
	if budget <= hoursEps {
		return
	}
	st := b.state(tech, day)
	placedToday := 0

	for budget > hoursEps {
		j, miles, drive, ok := b.pickNearest(tech, day, st, jobs, budget, false)
		if !ok {
			break
		}
		if !b.place(tech, day, st, j, miles, drive) {
			break
		}
		budget -= j.DurationHours + drive
		placedToday++
	}
	for budget > hoursEps {
		j, miles, drive, ok := b.pickNearest(tech, day, st, jobs, budget, true)
		if !ok {
			break
		}
		if !b.place(tech, day, st, j, miles, drive) {
			break
		}
		b.night[dayKey(tech.ID, day)] = true
		budget -= j.DurationHours + drive
		placedToday++
	}

	if placedToday > 0 {
		b.closeDay(tech, day, st)
	}
}

// place commits one job to the ledger and appends the placement.
func (b *batchRun) place(tech model.Technician, day time.Time, st *dayState, j model.Job, miles, drive float64) bool {
	if err := b.ledger.Commit(tech.ID, j.WorkOrder, day, j.DurationHours+drive); err != nil {
		// pickNearest checked CanAdd; a failure here means a duplicate
		// slipped into the pool. Drop it from further attempts.
		b.log.Warnf("commit rejected for work order %d: %v", j.WorkOrder, err)
		b.assigned[j.WorkOrder] = true
		b.res.reject(j, model.NewReason(model.ReasonConflict, err.Error()))
		return false
	}
	start := st.cursor + drive
	b.res.place(model.ScheduledJob{
		WorkOrder:     j.WorkOrder,
		TechnicianID:  tech.ID,
		Date:          day,
		StartHour:     start,
		DurationHours: j.DurationHours,
		DriveHours:    drive,
	})
	b.assigned[j.WorkOrder] = true
	st.cursor = start + j.DurationHours
	st.loc = geo.JobSite(j)
	b.log.Debugw("job placed", map[string]any{
		"work_order": j.WorkOrder,
		"tech":       tech.ID,
		"date":       day.Format("2006-01-02"),
		"start":      start,
		"miles":      miles,
	})
	return true
}

// pickNearest selects the next job for the route: the nearest fitting job
// within the highest priority class that still has fitting candidates.
// Candidate lists are pre-sorted by due date, so distance ties resolve to
// the earlier due date.
func (b *batchRun) pickNearest(tech model.Technician, day time.Time, st *dayState, jobs []model.Job, budget float64, nightPass bool) (model.Job, float64, float64, bool) {
	var (
		best      model.Job
		bestMiles float64
		bestDrive float64
		found     bool
		tier      model.Priority
	)
	for _, j := range jobs {
		if b.assigned[j.WorkOrder] || j.NightOnly != nightPass {
			continue
		}
		if found && j.Priority < tier {
			break
		}
		if b.cfg.RadiusMilesCap > 0 {
			if m, _, err := b.geom.Distance(geo.HomeSite(tech), geo.JobSite(j)); err != nil || m > b.cfg.RadiusMilesCap {
				continue
			}
		}
		miles, drive, err := b.geom.Distance(st.loc, geo.JobSite(j))
		if err != nil {
			continue
		}
		need := j.DurationHours + drive
		if need > budget+hoursEps || !b.ledger.CanAdd(tech.ID, day, need) {
			continue
		}
		start := st.cursor + drive
		if nightPass {
			if start > b.cfg.NightCutoffHour+hoursEps {
				continue
			}
		} else if start+j.DurationHours > b.cfg.WorkdayEndHour+hoursEps {
			continue
		}
		if ok, _ := b.filt.IsEligible(tech, j, day); !ok {
			continue
		}
		if !found || miles < bestMiles {
			best, bestMiles, bestDrive, found, tier = j, miles, drive, true, j.Priority
		}
	}
	return best, bestMiles, bestDrive, found
}

// closeDay decides between the homebound leg and an overnight stop. The
// drive home books no work order and ends the day, so it charges neither
// the clock nor the ledger.
func (b *batchRun) closeDay(tech model.Technician, day time.Time, st *dayState) {
	home := geo.HomeSite(tech)
	miles, _, err := b.geom.Distance(st.loc, home)
	if err != nil {
		delete(b.away, tech.ID)
		return
	}
	if miles > b.cfg.OvernightThresholdMiles && b.overnightAllowed(day) {
		b.away[tech.ID] = st.loc
		b.log.Debugf("technician %s stays out overnight %.0f mi from home", tech.ID, miles)
		return
	}
	delete(b.away, tech.ID)
}

// overnightAllowed reports whether the technician may stay out after this
// day: never before a weekend and never on the last horizon day.
func (b *batchRun) overnightAllowed(day time.Time) bool {
	next := day.AddDate(0, 0, 1)
	if next.After(b.snap.Params.HorizonEnd) {
		return false
	}
	return day.Weekday() != time.Friday
}

// observeRun feeds the pass accounting into the package collectors.
func observeRun(mode string, res *Result) {
	for _, p := range res.Placements {
		jobsPlaced.WithLabelValues(mode).Inc()
		routeDriveHours.WithLabelValues(mode).Observe(p.DriveHours)
	}
	for _, u := range res.Unplaced {
		jobsUnplaced.WithLabelValues(mode, string(u.Reason.Code)).Inc()
	}
}
