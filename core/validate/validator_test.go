package validate

import (
	"testing"
	"time"

	"github.com/fieldops/fieldsched/core/model"
)

var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func testSnapshot() *model.Snapshot {
	return &model.Snapshot{
		Jobs: []model.Job{
			{
				WorkOrder: 1, SiteID: 1, SiteState: "CO",
				Coords:        model.Coordinates{Lat: 39.7, Lon: -104.9},
				DueDate:       monday.AddDate(0, 0, 30),
				DurationHours: 2, EligibleTechs: []string{"t1"},
			},
		},
		Technicians: []model.Technician{
			{ID: "t1", Home: model.Coordinates{Lat: 39.7, Lon: -104.9},
				MaxDailyHours: 8, MaxWeeklyHours: 40, Active: true},
		},
		Params: model.RunParams{HorizonStart: monday, HorizonEnd: monday.AddDate(0, 0, 4)},
	}
}

func candidate() model.ScheduledJob {
	return model.ScheduledJob{
		WorkOrder: 1, TechnicianID: "t1", Date: monday,
		StartHour: 9, DurationHours: 2,
	}
}

func validateOne(t *testing.T, snap *model.Snapshot, c model.ScheduledJob) Outcome {
	t.Helper()
	out := New(Config{}).Validate(snap, []model.ScheduledJob{c})
	if len(out) != 1 {
		t.Fatalf("expected one outcome, got %d", len(out))
	}
	return out[0]
}

func hasReason(reasons []model.Reason, code model.ReasonCode) bool {
	for _, r := range reasons {
		if r.Code == code {
			return true
		}
	}
	return false
}

func TestCleanCandidatePasses(t *testing.T) {
	o := validateOne(t, testSnapshot(), candidate())
	if len(o.Errors) != 0 || len(o.Warnings) != 0 {
		t.Fatalf("expected a clean outcome, got %+v", o)
	}
	if o.Blocked(false) {
		t.Fatalf("clean outcome must not block")
	}
}

func TestOverlapIsHardErrorEvenForced(t *testing.T) {
	snap := testSnapshot()
	snap.Schedule = []model.ScheduledJob{
		{WorkOrder: 900, TechnicianID: "t1", Date: monday, StartHour: 8, DurationHours: 3},
	}
	o := validateOne(t, snap, candidate())
	if !hasReason(o.Errors, model.ReasonTimeOverlap) {
		t.Fatalf("expected TIME_OVERLAP error, got %+v", o)
	}
	if !o.Blocked(true) {
		t.Fatalf("force must not clear a time overlap")
	}
}

func TestCapacityWarningIsForceable(t *testing.T) {
	snap := testSnapshot()
	snap.Schedule = []model.ScheduledJob{
		{WorkOrder: 900, TechnicianID: "t1", Date: monday, StartHour: 8, DurationHours: 7},
	}
	c := candidate()
	c.StartHour = 15
	o := validateOne(t, snap, c)
	if len(o.Errors) != 0 {
		t.Fatalf("capacity must be a warning, got errors %+v", o.Errors)
	}
	if !hasReason(o.Warnings, model.ReasonCapacityExceeded) {
		t.Fatalf("expected CAPACITY_EXCEEDED warning, got %+v", o)
	}
	if o.Blocked(true) || !o.Blocked(false) {
		t.Fatalf("capacity warning must block only without force")
	}
}

func TestEligibilityFailureIsHardError(t *testing.T) {
	snap := testSnapshot()
	snap.Technicians[0].Active = false
	o := validateOne(t, snap, candidate())
	if !hasReason(o.Errors, model.ReasonNotActive) {
		t.Fatalf("expected NOT_ACTIVE error, got %+v", o)
	}
	if !o.Blocked(true) {
		t.Fatalf("force must not clear eligibility failures")
	}
}

func TestPastDueWarning(t *testing.T) {
	snap := testSnapshot()
	snap.Jobs[0].DueDate = monday.AddDate(0, 0, -30)
	o := validateOne(t, snap, candidate())
	if !hasReason(o.Warnings, model.ReasonPastDue) {
		t.Fatalf("expected PAST_DUE warning, got %+v", o)
	}
}

func TestPastDueWithinGraceIsClean(t *testing.T) {
	snap := testSnapshot()
	snap.Jobs[0].DueDate = monday.AddDate(0, 0, -3)
	o := validateOne(t, snap, candidate())
	if hasReason(o.Warnings, model.ReasonPastDue) {
		t.Fatalf("3 days past due is inside the default grace, got %+v", o)
	}
}

func TestNightJobOnFridayWarns(t *testing.T) {
	snap := testSnapshot()
	snap.Jobs[0].NightOnly = true
	c := candidate()
	c.Date = monday.AddDate(0, 0, 4) // friday
	o := validateOne(t, snap, c)
	if !hasReason(o.Warnings, model.ReasonNightRestricted) {
		t.Fatalf("expected NIGHT_RESTRICTED warning, got %+v", o)
	}
}

func TestBatchCandidatesCheckedAgainstEachOther(t *testing.T) {
	snap := testSnapshot()
	second := model.Job{
		WorkOrder: 2, SiteID: 2, SiteState: "CO",
		Coords:        model.Coordinates{Lat: 39.7, Lon: -104.9},
		DueDate:       monday.AddDate(0, 0, 30),
		DurationHours: 2, EligibleTechs: []string{"t1"},
	}
	snap.Jobs = append(snap.Jobs, second)
	a := candidate()
	b := candidate()
	b.WorkOrder = 2
	b.StartHour = 10
	out := New(Config{}).Validate(snap, []model.ScheduledJob{a, b})
	if len(out[0].Errors) != 0 {
		t.Fatalf("first candidate should pass, got %+v", out[0])
	}
	if !hasReason(out[1].Errors, model.ReasonTimeOverlap) {
		t.Fatalf("second candidate overlaps the first, got %+v", out[1])
	}
}

func TestUnknownWorkOrderRejected(t *testing.T) {
	c := candidate()
	c.WorkOrder = 999
	o := validateOne(t, testSnapshot(), c)
	if !hasReason(o.Errors, model.ReasonConflict) {
		t.Fatalf("expected an error for an unknown work order, got %+v", o)
	}
}
