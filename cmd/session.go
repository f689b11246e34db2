package cmd

import (
	"admin-backend/feature/auth"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// sessionCmd groups session maintenance commands.
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Maintain sign-in sessions",
}

// sessionPurgeCmd deletes expired sessions. Expired sessions are also removed
// lazily when presented, this command cleans up the ones never used again.
var sessionPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired sessions",
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

		ctx := cmd.Context()
		db, err := connectDatabase(ctx, cfg, logg)
		if err != nil {
			return err
		}
		c := newCache(ctx, cfg, logg, nil)
		defer c.Backend().Close()

		n, err := auth.NewService(db, c, cfg.Auth, cfg.Retry, logg).PurgeExpired(ctx)
		if err != nil {
			return err
		}
		logg.Info("Expired sessions purged", zap.Int64("count", n))
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionPurgeCmd)
	RootCmd.AddCommand(sessionCmd)
}
