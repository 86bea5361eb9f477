package suggest

import (
	"testing"
	"time"

	"github.com/fieldops/fieldsched/core/model"
)

var (
	monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	denver = model.Coordinates{Lat: 39.7392, Lon: -104.9903}
	// ~24 mi north of denver
	boulder = model.Coordinates{Lat: 40.0150, Lon: -105.2705}
	// ~97 mi north of denver
	cheyenne = model.Coordinates{Lat: 41.1400, Lon: -104.8202}
)

func testJob(wo int, coords model.Coordinates, prio model.Priority) model.Job {
	return model.Job{
		WorkOrder: wo, SiteID: wo, Coords: coords, Region: "front-range",
		Priority: prio, DueDate: monday.AddDate(0, 0, 20),
		DurationHours: 2, EligibleTechs: []string{"t1"},
	}
}

func testSnapshot(jobs ...model.Job) *model.Snapshot {
	return &model.Snapshot{
		Jobs: jobs,
		Technicians: []model.Technician{
			{ID: "t1", Home: denver, MaxDailyHours: 8, MaxWeeklyHours: 40, Active: true},
		},
		Params: model.RunParams{HorizonStart: monday, HorizonEnd: monday},
	}
}

func TestRadiusFiltersDistantJobs(t *testing.T) {
	snap := testSnapshot(
		testJob(1, boulder, model.PriorityNormal),
		testJob(2, cheyenne, model.PriorityNormal),
	)
	got, err := New(Config{}).Suggest(snap, "t1", monday, 10)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != 1 || got[0].Job.WorkOrder != 1 {
		t.Fatalf("expected only the job inside the 60 mi radius, got %+v", got)
	}
}

func TestUrgencyOutranksProximityAtEqualDistance(t *testing.T) {
	snap := testSnapshot(
		testJob(1, boulder, model.PriorityNormal),
		testJob(2, boulder, model.PriorityUrgent),
	)
	got, err := New(Config{}).Suggest(snap, "t1", monday, 10)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != 2 || got[0].Job.WorkOrder != 2 {
		t.Fatalf("expected the urgent job first, got %+v", got)
	}
}

func TestLimitTruncates(t *testing.T) {
	snap := testSnapshot(
		testJob(1, denver, model.PriorityNormal),
		testJob(2, denver, model.PriorityNormal),
		testJob(3, denver, model.PriorityNormal),
	)
	got, err := New(Config{}).Suggest(snap, "t1", monday, 2)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(got))
	}
}

func TestIneligibleJobsExcluded(t *testing.T) {
	other := testJob(1, denver, model.PriorityUrgent)
	other.EligibleTechs = []string{"t9"}
	got, err := New(Config{}).Suggest(testSnapshot(other), "t1", monday, 10)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("ineligible job must not be suggested, got %+v", got)
	}
}

func TestAnchorFollowsLastPlacement(t *testing.T) {
	scheduled := testJob(900, cheyenne, model.PriorityNormal)
	scheduled.Status = model.JobScheduled
	nearCheyenne := testJob(1, model.Coordinates{Lat: 41.10, Lon: -104.80}, model.PriorityNormal)
	snap := testSnapshot(scheduled, nearCheyenne)
	snap.Schedule = []model.ScheduledJob{
		{WorkOrder: 900, TechnicianID: "t1", Date: monday, StartHour: 8, DurationHours: 4},
	}
	// From home the candidate is ~95 mi away, outside the radius; from the
	// day's last placement it is a short hop.
	got, err := New(Config{}).Suggest(snap, "t1", monday, 10)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != 1 || got[0].Job.WorkOrder != 1 {
		t.Fatalf("expected the candidate near the day's last stop, got %+v", got)
	}
	if got[0].Miles > 10 {
		t.Fatalf("distance should be measured from the last placement, got %.1f mi", got[0].Miles)
	}
}

func TestUnknownTechnicianErrors(t *testing.T) {
	if _, err := New(Config{}).Suggest(testSnapshot(), "ghost", monday, 5); err == nil {
		t.Fatalf("expected an error for an unknown technician")
	}
}
