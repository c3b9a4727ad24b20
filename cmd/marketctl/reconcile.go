package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/coursemarket-backend/internal/app"
)

func reconcilePendingCmd() *cobra.Command {
	var (
		olderThan time.Duration
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "reconcile-pending",
		Short: "Settle pending purchases whose notification never arrived",
		Long: `Looks up every pending purchase with a payment session older than
--older-than at the payment processor and settles the ones the processor
reports as terminal. Safe to run repeatedly.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			tooling, err := app.NewTooling(true)
			if err != nil {
				return err
			}
			defer tooling.Close()

			report, err := tooling.Reconciliation.ReconcilePending(cmd.Context(), olderThan, limit)
			if err != nil {
				return fmt.Errorf("reconcile pending: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"scanned=%d completed=%d failed=%d still_pending=%d errors=%d\n",
				report.Scanned, report.Completed, report.Failed, report.StillPending, report.Errors,
			)
			if report.Errors > 0 {
				return fmt.Errorf("%d purchase(s) could not be reconciled", report.Errors)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*time.Minute, "only consider sessions created before now minus this")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum purchases to look up")
	return cmd
}
