package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tgmetrics/channel-metrics-service/internal/config"
	"github.com/tgmetrics/channel-metrics-service/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations and exit",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		db, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		if err := database.Migrate(db); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	},
}
