package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var olderThan time.Duration

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Mark STARTED posting runs older than the timeout as FAILED",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireActor(); err != nil {
			return err
		}
		svc, cfg, closeFn, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		timeout := olderThan
		if timeout == 0 {
			timeout = cfg.PostingRunStuckAt
		}
		runs, err := svc.Operator.SweepStuckRuns(cmd.Context(), timeout, actorID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, run := range runs {
			fmt.Fprintf(out, "%s\t%s\t%s\tstarted %s\n", run.TenantID, run.TransactionSetID, run.ID, run.StartedAt.Format(time.RFC3339))
		}
		fmt.Fprintf(out, "%d run(s) marked stuck\n", len(runs))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age after which a STARTED run is stuck (default POSTING_RUN_STUCK_AFTER).")
}
