package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldops/fieldsched/core/model"
	"github.com/fieldops/fieldsched/store"
)

var (
	candidatesPath string
	validateForce  bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check candidate assignments against the snapshot",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&candidatesPath, "candidates", "", "JSON file of candidate assignments")
	validateCmd.Flags().BoolVar(&validateForce, "force", false, "override warnings (errors still block)")
	rootCmd.AddCommand(validateCmd)
}

type validateReport struct {
	WorkOrder int      `json:"work_order"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
	Blocked   bool     `json:"blocked"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	if candidatesPath == "" {
		return fmt.Errorf("--candidates is required")
	}
	data, err := os.ReadFile(candidatesPath)
	if err != nil {
		return fmt.Errorf("read candidates: %w", err)
	}
	var candidates []model.ScheduledJob
	if err := json.Unmarshal(data, &candidates); err != nil {
		return fmt.Errorf("parse candidates: %w", err)
	}

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	outcomes := svc.Validate(snap, candidates)
	report := make([]validateReport, 0, len(outcomes))
	for _, o := range outcomes {
		r := validateReport{WorkOrder: o.WorkOrder, Blocked: o.Blocked(validateForce)}
		for _, e := range o.Errors {
			r.Errors = append(r.Errors, e.Error())
		}
		for _, w := range o.Warnings {
			r.Warnings = append(r.Warnings, w.Error())
		}
		report = append(report, r)
	}
	return store.WriteResult(outPath, report)
}
