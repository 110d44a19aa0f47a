package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/augment/internal/config"
	"github.com/matzehuels/augment/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the record cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached records and pipelines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			store, _, err := cfg.OpenCache(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			clearer, ok := store.(cache.Clearer)
			if !ok {
				printInfo("The %s backend holds nothing to clear", cfg.Cache.Backend)
				return nil
			}
			n, err := clearer.Clear(cmd.Context())
			if err != nil {
				return err
			}

			printSuccess("Cleared %d cached entries", n)
			printDetail("Backend: %s", describeBackend(cfg))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			fmt.Println(describeBackend(cfg))
			return nil
		},
	}
}

// describeBackend names the location of the configured cache.
func describeBackend(cfg config.Config) string {
	switch cfg.Cache.Backend {
	case config.BackendFile:
		return cfg.Cache.Dir
	case config.BackendRedis:
		return fmt.Sprintf("redis://%s/%d", cfg.Redis.Addr, cfg.Redis.DB)
	case config.BackendMongo:
		return fmt.Sprintf("mongo %s.%s", cfg.Mongo.Database, cfg.Mongo.Collection)
	}
	return cfg.Cache.Backend
}
