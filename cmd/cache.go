package cmd

import (
	"errors"
	"strings"

	"admin-backend/core/cache"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cacheCmd groups cache maintenance commands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the cache",
}

// cacheClearCmd deletes a namespace, or everything under the configured prefix.
var cacheClearCmd = &cobra.Command{
	Use:   "clear [namespace]",
	Short: "Clear a cache namespace or the whole cache",
	Long: `Deletes every key of the given namespace (for example "users" or "users:list").
Without an argument every key under the configured prefix is deleted.`,
	Args: cobra.MaximumNArgs(1),
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

		c := newCache(cmd.Context(), cfg, logg, nil)
		defer c.Backend().Close()

		target := c
		if len(args) == 1 {
			target = namespaceFor(c, args[0])
		}
		if !target.Clear(cmd.Context()) {
			return errors.New("cache clear failed, see the log for details")
		}
		logg.Info("Cache cleared", zap.String("prefix", cfg.Cache.Prefix), zap.String("namespace", target.Name()))
		return nil
	},
}

// namespaceFor resolves a colon separated path such as "users:list".
func namespaceFor(c *cache.Cache, path string) *cache.Cache {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == ':' }) {
		c = c.Namespace(part)
	}
	return c
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	RootCmd.AddCommand(cacheCmd)
}
