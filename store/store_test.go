package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldsched/core/model"
)

var params = model.RunParams{
	HorizonStart: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	HorizonEnd:   time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC),
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func seedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, JobsFile, `[
		{"work_order": 1, "site_id": 10, "site_state": "CO",
		 "coords": {"lat": 39.7, "lon": -104.9}, "region": "front-range",
		 "priority": "urgent", "due_date": "2026-03-20T00:00:00Z",
		 "duration_hours": 2, "eligible_techs": ["t1"], "status": "unscheduled"}
	]`)
	writeFile(t, dir, TechniciansFile, `[
		{"id": "t1", "name": "Tess", "home": {"lat": 39.7, "lon": -104.9},
		 "max_daily_hours": 8, "max_weekly_hours": 40, "active": true}
	]`)
	return dir
}

func TestLoadSnapshot(t *testing.T) {
	dir := seedDir(t)
	writeFile(t, dir, MatrixFile, `[
		{"from_site_id": 10, "to_site_id": 11, "miles": 24, "drive_time_hours": 0.45}
	]`)

	snap, err := LoadSnapshot(dir, params)
	require.NoError(t, err)
	require.Len(t, snap.Jobs, 1)
	assert.Equal(t, model.PriorityUrgent, snap.Jobs[0].Priority)
	assert.Equal(t, "t1", snap.Technicians[0].ID)
	require.Len(t, snap.Matrix, 1)
	assert.Empty(t, snap.Schedule)
	assert.Empty(t, snap.TimeOff)
}

func TestOptionalFilesDefaultEmpty(t *testing.T) {
	snap, err := LoadSnapshot(seedDir(t), params)
	require.NoError(t, err)
	assert.Empty(t, snap.Schedule)
	assert.Empty(t, snap.Matrix)
	assert.Empty(t, snap.TimeOff)
}

func TestMissingRequiredFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, JobsFile, `[]`)
	_, err := LoadSnapshot(dir, params)
	require.Error(t, err)
	assert.Contains(t, err.Error(), TechniciansFile)
}

func TestMalformedFileIsFatal(t *testing.T) {
	dir := seedDir(t)
	writeFile(t, dir, ScheduleFile, `{not json`)
	_, err := LoadSnapshot(dir, params)
	require.Error(t, err)
}

func TestInvalidRosterIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, JobsFile, `[]`)
	writeFile(t, dir, TechniciansFile, `[]`)
	_, err := LoadSnapshot(dir, params)
	require.Error(t, err)
}

func TestWriteResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteResult(path, map[string]int{"jobs_placed": 3}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "jobs_placed")
}
