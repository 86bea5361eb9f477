// Package store loads run snapshots from a directory of JSON files. A
// snapshot that cannot be loaded is a systemic failure: the run aborts
// before producing any output.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fieldops/fieldsched/core/model"
)

// File names expected inside a snapshot directory. Jobs and technicians
// are required; the rest default to empty.
const (
	JobsFile        = "jobs.json"
	TechniciansFile = "technicians.json"
	ScheduleFile    = "schedule.json"
	MatrixFile      = "distance_matrix.json"
	TimeOffFile     = "time_off.json"
)

// LoadSnapshot reads a snapshot from dir and attaches the run parameters.
func LoadSnapshot(dir string, params model.RunParams) (*model.Snapshot, error) {
	snap := &model.Snapshot{Params: params}
	if err := readJSON(filepath.Join(dir, JobsFile), &snap.Jobs, true); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, TechniciansFile), &snap.Technicians, true); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, ScheduleFile), &snap.Schedule, false); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, MatrixFile), &snap.Matrix, false); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, TimeOffFile), &snap.TimeOff, false); err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return snap, nil
}

func readJSON(path string, v any, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("store: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: parse %s: %w", path, err)
	}
	return nil
}

// WriteResult writes a run result as indented JSON. An empty path writes
// to stdout.
func WriteResult(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode result: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	return nil
}
