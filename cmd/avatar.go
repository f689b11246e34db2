package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"admin-backend/core/reconcile"
	"admin-backend/feature/auth"
	"admin-backend/feature/users"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	avatarApply bool
	avatarYes   bool
)

// avatarCmd groups avatar storage maintenance commands.
var avatarCmd = &cobra.Command{
	Use:   "avatar",
	Short: "Maintain stored avatars",
}

// avatarReconcileCmd finds drift between users.image and the upload bucket.
var avatarReconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare user avatars with the objects in storage",
	Long: `Lists avatar objects that no user references and users whose avatar
object is missing. With --apply the orphaned objects are deleted and the
dangling references cleared.`,
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
		store := newStorage(ctx, cfg, logg)
		if store == nil {
			return fmt.Errorf("object storage is disabled, set STORAGE_ENABLED=true")
		}
		db, err := connectDatabase(ctx, cfg, logg)
		if err != nil {
			return err
		}
		c := newCache(ctx, cfg, logg, nil)
		defer c.Backend().Close()

		authSvc := auth.NewService(db, c, cfg.Auth, cfg.Retry, logg)
		svc := users.NewService(db, authSvc, c, store, cfg.Storage.Bucket, cfg.Retry, logg)

		plan, err := svc.PlanAvatars(ctx)
		if err != nil {
			return fmt.Errorf("failed to plan reconciliation: %w", err)
		}
		printAvatarPlan(logg, plan)

		if !avatarApply {
			if len(plan.Actions) > 0 {
				logg.Info("No changes made. Use --apply to repair.")
			}
			return nil
		}
		if len(plan.Actions) == 0 {
			logg.Info("No actions required.")
			return nil
		}
		if !avatarYes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), len(plan.Actions)) {
			logg.Warn("Operation cancelled. No changes were made.")
			return nil
		}

		executed, err := svc.ApplyAvatarPlan(ctx, plan)
		if err != nil {
			return fmt.Errorf("failed to apply plan: %w", err)
		}
		logg.Info("Executed actions", zap.Int("count", executed))
		return nil
	},
}

func printAvatarPlan(l *zap.Logger, plan *reconcile.Plan) {
	s := plan.Summary
	l.Info("Avatar reconciliation report",
		zap.Int("total_items", s.TotalItems),
		zap.Int("in_sync", s.InSync),
		zap.Int("missing_storage", s.MissingStorage),
		zap.Int("orphaned", s.Orphaned),
		zap.Int("skipped", s.Skipped))
	for _, a := range plan.Actions {
		l.Info("Planned action", zap.String("type", string(a.Type)), zap.String("key", a.Key), zap.String("reason", a.Reason))
	}
}

// confirm asks for a typed "yes" before destructive actions.
func confirm(in io.Reader, out io.Writer, actions int) bool {
	fmt.Fprintf(out, "About to execute %d actions. Type 'yes' to continue: ", actions)
	line, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(strings.ToLower(line)) == "yes"
}

func init() {
	avatarReconcileCmd.Flags().BoolVar(&avatarApply, "apply", false, "Delete orphaned objects and clear dangling references")
	avatarReconcileCmd.Flags().BoolVar(&avatarYes, "yes", false, "Skip the confirmation prompt")
	avatarCmd.AddCommand(avatarReconcileCmd)
	RootCmd.AddCommand(avatarCmd)
}
