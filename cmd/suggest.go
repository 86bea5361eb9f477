package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldops/fieldsched/store"
)

var (
	suggestDate  string
	suggestLimit int
)

var suggestCmd = &cobra.Command{
	Use:   "suggest <technician-id>",
	Short: "Rank unscheduled jobs for a technician day",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	suggestCmd.Flags().StringVar(&suggestDate, "date", "", "target day (2006-01-02)")
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", 10, "maximum suggestions")
	rootCmd.AddCommand(suggestCmd)
}

func runSuggest(cmd *cobra.Command, args []string) error {
	date, err := parseDate(suggestDate)
	if err != nil {
		return fmt.Errorf("--date: %w", err)
	}
	if fromDate == "" {
		fromDate = suggestDate
	}
	if toDate == "" {
		toDate = suggestDate
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
	got, err := svc.Suggest(snap, args[0], date, suggestLimit)
	if err != nil {
		return err
	}
	return store.WriteResult(outPath, got)
}
