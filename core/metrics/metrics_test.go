package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/fieldops/fieldsched/core/model"
)

func TestComputeRunMetrics(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	placements := []model.ScheduledJob{
		{WorkOrder: 1, TechnicianID: "t1", Date: monday, DurationHours: 5, DriveHours: 1},
		{WorkOrder: 2, TechnicianID: "t1", Date: monday.AddDate(0, 0, 1), DurationHours: 4, DriveHours: 0.5},
		{WorkOrder: 3, TechnicianID: "t2", Date: monday, DurationHours: 2, DriveHours: 0.5},
	}
	techs := []model.Technician{
		{ID: "t1", MaxDailyHours: 8, MaxWeeklyHours: 40, Active: true},
		{ID: "t2", MaxDailyHours: 8, MaxWeeklyHours: 40, Active: true},
	}
	params := model.RunParams{HorizonStart: monday, HorizonEnd: monday.AddDate(0, 0, 4)}

	m := ComputeRunMetrics(placements, 2, techs, params)
	if m.JobsPlaced != 3 || m.JobsUnplaced != 2 {
		t.Fatalf("unexpected counts %+v", m)
	}
	if m.TotalWorkHours != 11 || m.TotalDriveHours != 2 {
		t.Fatalf("unexpected totals %+v", m)
	}
	// t1: 10.5h of a 40h week = 26.25%; t2: 2.5h = 6.25%.
	if math.Abs(m.Utilization["t1"]-26.25) > 1e-9 {
		t.Fatalf("unexpected t1 utilization %v", m.Utilization["t1"])
	}
	if math.Abs(m.UtilizationMean-16.25) > 1e-9 {
		t.Fatalf("unexpected mean %v", m.UtilizationMean)
	}
	if m.UtilizationStd <= 0 {
		t.Fatalf("expected a positive stddev, got %v", m.UtilizationStd)
	}
}

func TestUtilizationSkipsZeroBudgetTechs(t *testing.T) {
	m := ComputeRunMetrics(nil, 0, []model.Technician{{ID: "t1"}}, model.RunParams{
		HorizonStart: time.Now(), HorizonEnd: time.Now(),
	})
	if len(m.Utilization) != 0 {
		t.Fatalf("zero-budget technician must be skipped, got %+v", m.Utilization)
	}
}
