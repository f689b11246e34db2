package cmd

import (
	"admin-backend/core/database"
	"admin-backend/feature/auth"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// migrateCmd creates or updates the database schema.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long:  `Runs AutoMigrate for every model of every feature.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logg, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logg.Sync()

		db, err := connectDatabase(cmd.Context(), cfg, logg)
		if err != nil {
			return err
		}

		models := auth.Models()
		if err := database.Migrate(db, models...); err != nil {
			return err
		}
		logg.Info("Schema migrated", zap.Int("models", len(models)))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(migrateCmd)
}
