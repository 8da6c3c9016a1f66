package cmd

import (
	"fmt"
	"time"

	"github.com/SscSPs/bizledger/internal/dto"
	"github.com/spf13/cobra"
)

var (
	asOfDate           string
	includeDescendants bool
)

var balanceCmd = &cobra.Command{
	Use:   "balance <account-id>",
	Short: "Print the balance of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asOf := time.Now().UTC()
		if asOfDate != "" {
			parsed, err := time.Parse(dto.DateLayout, asOfDate)
			if err != nil {
				return fmt.Errorf("invalid --as-of %q: %w", asOfDate, err)
			}
			asOf = parsed
		}

		svc, _, closeFn, err := openServices(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		b, err := svc.Balance.AccountBalance(cmd.Context(), tenantID, args[0], asOf, includeDescendants)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s as of %s\n  debits  %s\n  credits %s\n  balance %s %s\n",
			b.AccountID, asOf.Format(dto.DateLayout), b.Debits.StringFixed(2), b.Credits.StringFixed(2),
			b.DisplayBalance.StringFixed(2), b.NormalBalance)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant owning the account.")
	balanceCmd.Flags().StringVar(&asOfDate, "as-of", "", "Balance date (YYYY-MM-DD), defaults to today.")
	balanceCmd.Flags().BoolVar(&includeDescendants, "include-descendants", false, "Include child accounts.")
	_ = balanceCmd.MarkFlagRequired("tenant")
}
