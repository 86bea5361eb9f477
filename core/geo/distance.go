// Package geo estimates distance and drive time between job sites. Lookups
// prefer the precomputed site distance matrix and fall back to great-circle
// distance at an average road speed.
package geo

import (
	"fmt"
	"math"

	"github.com/fieldops/fieldsched/core/model"
)

const earthRadiusMiles = 3958.8

// DefaultSpeedMPH is the average effective road speed used to turn miles
// into drive hours when the matrix has no entry for a pair.
const DefaultSpeedMPH = 55.0

// Site is the routable identity of a location: a matrix key plus
// coordinates for the haversine fallback. A zero SiteID (technician homes,
// ad-hoc points) always takes the fallback path.
type Site struct {
	ID     int
	Coords model.Coordinates
}

type pairKey struct {
	lo, hi int
}

func keyFor(a, b int) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// Model answers distance queries for one scheduling run.
type Model struct {
	speedMPH float64
	matrix   map[pairKey]model.DistanceEntry
}

// NewModel indexes the distance matrix. speedMPH <= 0 selects the default.
func NewModel(entries []model.DistanceEntry, speedMPH float64) *Model {
	if speedMPH <= 0 {
		speedMPH = DefaultSpeedMPH
	}
	m := &Model{speedMPH: speedMPH, matrix: make(map[pairKey]model.DistanceEntry, len(entries))}
	for _, e := range entries {
		if e.FromSiteID == 0 || e.ToSiteID == 0 {
			continue
		}
		m.matrix[keyFor(e.FromSiteID, e.ToSiteID)] = e
	}
	return m
}

// Distance returns miles and drive hours between two sites. The matrix is
// consulted first, order-independently; on a miss the haversine distance is
// used. Sites without coordinates yield ErrMissingCoordinates and the caller
// must skip that job rather than abort the batch.
func (m *Model) Distance(a, b Site) (miles, hours float64, err error) {
	if a.ID != 0 && b.ID != 0 {
		if e, ok := m.matrix[keyFor(a.ID, b.ID)]; ok {
			return e.Miles, e.DriveTimeHours, nil
		}
	}
	if !a.Coords.Valid() || !b.Coords.Valid() {
		return 0, 0, fmt.Errorf("geo: site pair (%d,%d): %w", a.ID, b.ID, model.ErrMissingCoordinates)
	}
	miles = Haversine(a.Coords, b.Coords)
	return miles, miles / m.speedMPH, nil
}

// DriveHours converts miles to hours at the model's configured speed.
func (m *Model) DriveHours(miles float64) float64 {
	return miles / m.speedMPH
}

// Haversine computes the great-circle distance in miles between two
// coordinates.
func Haversine(a, b model.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lon1 := a.Lon * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	lon2 := b.Lon * math.Pi / 180

	dlat := lat2 - lat1
	dlon := lon2 - lon1

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMiles * c
}

// JobSite builds the routable site for a job.
func JobSite(j model.Job) Site {
	return Site{ID: j.SiteID, Coords: j.Coords}
}

// HomeSite builds the routable site for a technician's home.
func HomeSite(t model.Technician) Site {
	return Site{Coords: t.Home}
}
