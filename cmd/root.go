// Package cmd is the command line surface of the scheduling service: thin
// file-in/file-out drivers around the engine.
package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldops/fieldsched/app"
	"github.com/fieldops/fieldsched/config"
	"github.com/fieldops/fieldsched/core/model"
	"github.com/fieldops/fieldsched/store"
)

var (
	cfgPath     string
	snapshotDir string
	fromDate    string
	toDate      string
	outPath     string
)

var rootCmd = &cobra.Command{
	Use:   "fieldsched",
	Short: "Field service job scheduling engine",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVarP(&snapshotDir, "snapshot", "s", ".", "snapshot directory")
	rootCmd.PersistentFlags().StringVar(&fromDate, "from", "", "horizon start (2006-01-02)")
	rootCmd.PersistentFlags().StringVar(&toDate, "to", "", "horizon end (2006-01-02)")
	rootCmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "result file (default stdout)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func newService() (*app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(cfg)
}

func runParams() (model.RunParams, error) {
	var p model.RunParams
	var err error
	if p.HorizonStart, err = parseDate(fromDate); err != nil {
		return p, fmt.Errorf("--from: %w", err)
	}
	if p.HorizonEnd, err = parseDate(toDate); err != nil {
		return p, fmt.Errorf("--to: %w", err)
	}
	return p, p.Validate()
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	return time.Parse("2006-01-02", s)
}

func loadSnapshot() (*model.Snapshot, error) {
	params, err := runParams()
	if err != nil {
		return nil, err
	}
	return store.LoadSnapshot(snapshotDir, params)
}
