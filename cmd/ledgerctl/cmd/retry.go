package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var retryReason string

var retryCmd = &cobra.Command{
	Use:   "retry <transaction-set-id>",
	Short: "Clear the FAILED posting run of a set so it can be posted again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireActor(); err != nil {
			return err
		}
		svc, _, closeFn, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		if err := svc.Operator.RetryFailedRun(cmd.Context(), tenantID, args[0], actorID, retryReason); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared failed run of set %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(retryCmd)

	retryCmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant owning the transaction set.")
	retryCmd.Flags().StringVar(&retryReason, "reason", "", "Why the run is retried (recorded on the audit event).")
	_ = retryCmd.MarkFlagRequired("tenant")
	_ = retryCmd.MarkFlagRequired("reason")
}
