package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/fieldops/fieldsched/core/model"
)

var (
	denver  = model.Coordinates{Lat: 39.7392, Lon: -104.9903}
	boulder = model.Coordinates{Lat: 40.0150, Lon: -105.2705}
)

func TestHaversineKnownDistance(t *testing.T) {
	// Denver to Boulder is roughly 24 miles as the crow flies.
	miles := Haversine(denver, boulder)
	if miles < 22 || miles > 27 {
		t.Fatalf("expected ~24 miles, got %.2f", miles)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	m := NewModel(nil, 0)
	a := Site{ID: 1, Coords: denver}
	b := Site{ID: 2, Coords: boulder}
	d1, h1, err := m.Distance(a, b)
	if err != nil {
		t.Fatalf("distance: %v", err)
	}
	d2, h2, err := m.Distance(b, a)
	if err != nil {
		t.Fatalf("distance: %v", err)
	}
	if d1 != d2 || h1 != h2 {
		t.Fatalf("asymmetric: %v/%v vs %v/%v", d1, h1, d2, h2)
	}
}

func TestMatrixLookupOrderIndependent(t *testing.T) {
	entries := []model.DistanceEntry{{FromSiteID: 7, ToSiteID: 3, Miles: 12.5, DriveTimeHours: 0.4}}
	m := NewModel(entries, 0)
	a := Site{ID: 3, Coords: denver}
	b := Site{ID: 7, Coords: boulder}
	miles, hours, err := m.Distance(a, b)
	if err != nil {
		t.Fatalf("distance: %v", err)
	}
	if miles != 12.5 || hours != 0.4 {
		t.Fatalf("expected matrix values, got %.2f mi %.2f h", miles, hours)
	}
}

func TestFallbackDriveTime(t *testing.T) {
	m := NewModel(nil, 55)
	miles, hours, err := m.Distance(Site{Coords: denver}, Site{Coords: boulder})
	if err != nil {
		t.Fatalf("distance: %v", err)
	}
	if math.Abs(hours-miles/55) > 1e-9 {
		t.Fatalf("drive time %.4f does not match miles/55", hours)
	}
}

func TestMissingCoordinates(t *testing.T) {
	m := NewModel(nil, 0)
	_, _, err := m.Distance(Site{ID: 1}, Site{ID: 2, Coords: boulder})
	if !errors.Is(err, model.ErrMissingCoordinates) {
		t.Fatalf("expected ErrMissingCoordinates, got %v", err)
	}
}
