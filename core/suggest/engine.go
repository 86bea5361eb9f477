// Package suggest proposes unscheduled jobs for a technician day. The
// engine is stateless; every call recomputes from the snapshot.
package suggest

import (
	"fmt"
	"sort"
	"time"

	"github.com/fieldops/fieldsched/core/eligibility"
	"github.com/fieldops/fieldsched/core/geo"
	"github.com/fieldops/fieldsched/core/model"
)

// Config tunes the candidate radius and the score weights.
type Config struct {
	// RadiusMiles bounds candidates around the technician's day location.
	RadiusMiles float64 `koanf:"radius_miles" json:"radius_miles"`
	// UrgencyWeight and ProximityWeight combine into the score
	// w1*urgency + w2*(1/distance).
	UrgencyWeight   float64 `koanf:"urgency_weight" json:"urgency_weight"`
	ProximityWeight float64 `koanf:"proximity_weight" json:"proximity_weight"`
	// SpeedMPH feeds the distance model's fallback drive times.
	SpeedMPH float64 `koanf:"speed_mph" json:"speed_mph"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.RadiusMiles <= 0 {
		c.RadiusMiles = 60
	}
	if c.UrgencyWeight <= 0 {
		c.UrgencyWeight = 1
	}
	if c.ProximityWeight <= 0 {
		c.ProximityWeight = 10
	}
	if c.SpeedMPH <= 0 {
		c.SpeedMPH = geo.DefaultSpeedMPH
	}
}

// Suggestion is one ranked candidate.
type Suggestion struct {
	Job   model.Job `json:"job"`
	Miles float64   `json:"miles"`
	Score float64   `json:"score"`
}

// Engine ranks unscheduled jobs for a technician day.
type Engine struct {
	cfg Config
}

// New builds an engine.
func New(cfg Config) *Engine {
	cfg.SetDefaults()
	return &Engine{cfg: cfg}
}

// Suggest returns up to limit jobs the technician could take on the date,
// nearest and most urgent first. The anchor location is the technician's
// last placement of the day, or home when the day is empty.
func (e *Engine) Suggest(snap *model.Snapshot, techID string, date time.Time, limit int) ([]Suggestion, error) {
	tech, ok := snap.Technician(techID)
	if !ok {
		return nil, fmt.Errorf("suggest: technician %s not in roster", techID)
	}
	if !tech.Home.Valid() {
		return nil, fmt.Errorf("suggest: technician %s: %w", techID, model.ErrMissingCoordinates)
	}
	geom := geo.NewModel(snap.Matrix, e.cfg.SpeedMPH)
	filt := eligibility.New(snap.TimeOff)
	anchor := e.anchor(snap, tech, date)

	var out []Suggestion
	for _, j := range snap.Unscheduled() {
		if !j.Coords.Valid() || j.DurationHours <= 0 {
			continue
		}
		if ok, _ := filt.IsEligible(tech, j, date); !ok {
			continue
		}
		miles, _, err := geom.Distance(anchor, geo.JobSite(j))
		if err != nil || miles > e.cfg.RadiusMiles {
			continue
		}
		out = append(out, Suggestion{Job: j, Miles: miles, Score: e.score(j, date, miles)})
	}
	sort.SliceStable(out, func(i, k int) bool {
		if out[i].Score != out[k].Score {
			return out[i].Score > out[k].Score
		}
		return out[i].Job.WorkOrder < out[k].Job.WorkOrder
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// anchor is where the technician's day currently ends.
func (e *Engine) anchor(snap *model.Snapshot, tech model.Technician, date time.Time) geo.Site {
	site := geo.HomeSite(tech)
	lastEnd := -1.0
	for _, s := range snap.Schedule {
		if s.TechnicianID != tech.ID || !model.DayOf(s.Date).Equal(model.DayOf(date)) {
			continue
		}
		if s.EndHour() > lastEnd {
			if j, ok := snap.JobByWorkOrder(s.WorkOrder); ok && j.Coords.Valid() {
				site = geo.JobSite(j)
				lastEnd = s.EndHour()
			}
		}
	}
	return site
}

// score is w1*urgency + w2*(1/distance). Urgency grows with the priority
// class and as the due date approaches.
func (e *Engine) score(j model.Job, date time.Time, miles float64) float64 {
	urgency := float64(j.Priority) + 1
	if days := j.DaysUntilDue(date); days <= 0 {
		urgency += 1
	} else {
		urgency += 1 / float64(days+1)
	}
	proximity := 1 / (miles + 1)
	return e.cfg.UrgencyWeight*urgency + e.cfg.ProximityWeight*proximity
}
