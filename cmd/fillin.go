package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fieldops/fieldsched/store"
)

var fillinCmd = &cobra.Command{
	Use:   "fillin",
	Short: "Fill idle calendar gaps with nearby unscheduled jobs",
	RunE:  runFillIn,
}

func init() {
	rootCmd.AddCommand(fillinCmd)
}

func runFillIn(cmd *cobra.Command, args []string) error {
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
	res, err := svc.RunFillIn(ctx, snap)
	if err != nil {
		return err
	}
	return store.WriteResult(outPath, res)
}
