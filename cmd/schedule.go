package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fieldops/fieldsched/store"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the geographic batch pass over a snapshot",
	RunE:  runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	snap, err := loadSnapshot()
	if err != nil {
		return err
	}
	res, err := svc.RunGeographic(ctx, snap)
	if err != nil {
		return err
	}
	return store.WriteResult(outPath, res)
}
