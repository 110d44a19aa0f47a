// Package cli implements the augment command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/augment/internal/config"
	"github.com/matzehuels/augment/pkg/buildinfo"
	"github.com/matzehuels/augment/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag; empty means the default location.
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Augment applies reproducible image augmentation pipelines",
		Long:         `Augment applies augmentation pipelines to images and their masks, boxes and keypoints, records every random decision, and replays or reverses recorded runs.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/augment/config.yaml)")

	root.AddCommand(c.applyCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.replayCommand())
	root.AddCommand(c.reverseCommand())
	root.AddCommand(c.describeCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.transformsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config and Runner Factory
// =============================================================================

// loadConfig reads the settings and applies the configured log level
// unless --verbose already lowered it.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil && c.Logger.GetLevel() != LogDebug {
		c.Logger.SetLevel(lvl)
	}
	return cfg, nil
}

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, cfg config.Config, noCache bool) (*pipeline.Runner, error) {
	if noCache {
		cfg.Cache.Backend = config.BackendNone
	}
	store, keyer, err := cfg.OpenCache(ctx)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(store, keyer, c.Logger)
	r.Workers = cfg.Runner.Workers
	return r, nil
}

// resolveSeed picks the --seed flag, then the configured seed, then the
// default.
func resolveSeed(cmd *cobra.Command, flag uint64, cfg config.Config) uint64 {
	if cmd.Flags().Changed("seed") {
		return flag
	}
	if cfg.Runner.Seed != 0 {
		return cfg.Runner.Seed
	}
	return pipeline.DefaultSeed
}

// shortHash abbreviates a content hash for display.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
