package cmd

import (
	"github.com/SscSPs/bizledger/internal/adapters/database/pgsql"
	"github.com/SscSPs/bizledger/internal/platform/config"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		return pgsql.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
