package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"admin-backend/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "admin-backend",
	Short: "Admin Console Backend",
	Long: `Admin Backend serves the HTTP API of the admin console: cookie sessions,
user management, and the supporting cache and rate limiting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context, which
// stops startup retries and triggers the graceful shutdown of start.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err == nil {
		return
	}

	// Commands fail before their own logger exists, so errors get a console logger.
	l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
	if logErr != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	l.Error("command failed", zap.Error(err))
	_ = l.Sync()
	os.Exit(1)
}
