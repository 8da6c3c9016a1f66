// Package cmd holds the operator commands of ledgerctl.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/SscSPs/bizledger/internal/adapters/database/pgsql"
	portssvc "github.com/SscSPs/bizledger/internal/core/ports/services"
	"github.com/SscSPs/bizledger/internal/core/services"
	"github.com/SscSPs/bizledger/internal/platform/config"
	"github.com/spf13/cobra"
)

var (
	actorID  string
	tenantID string
	logger   = slog.New(slog.NewJSONHandler(os.Stderr, nil))
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operator tooling for the bizledger posting kernel",
	Long: `ledgerctl runs the explicit, audited recovery actions on posting runs
and offers read-only lookups against the ledger database.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", os.Getenv("USER"), "Actor recorded on audit events.")
}

// openServices connects to the configured database and wires the services.
// The returned closer releases the pool.
func openServices(ctx context.Context) (*portssvc.ServiceContainer, *config.Config, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.StorageDriver != config.StorageDriverPostgres {
		return nil, nil, nil, fmt.Errorf("ledgerctl needs STORAGE_DRIVER=%s, got %q", config.StorageDriverPostgres, cfg.StorageDriver)
	}
	rules, err := config.LoadPostingRules(cfg.PostingRulesFile)
	if err != nil {
		return nil, nil, nil, err
	}

	pool, err := pgsql.NewPgxPool(ctx, cfg.DatabaseURL, true)
	if err != nil {
		return nil, nil, nil, err
	}
	return services.NewServiceContainer(cfg, pgsql.NewRepositoryProvider(pool), rules, nil), cfg, pool.Close, nil
}

func requireActor() error {
	if actorID == "" {
		return errors.New("--actor is required")
	}
	return nil
}
