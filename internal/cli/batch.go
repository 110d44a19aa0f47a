package cli

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/augment/internal/config"
	"github.com/matzehuels/augment/pkg/observability"
	"github.com/matzehuels/augment/pkg/pipeline"
)

// batchCommand creates the batch command for a directory of samples.
func (c *CLI) batchCommand() *cobra.Command {
	var opts runOpts
	var workers int

	cmd := &cobra.Command{
		Use:   "batch [pipeline] [dir]",
		Short: "Apply a pipeline to every sample in a directory",
		Long: `Apply a pipeline to every image in a directory. Sample i draws from its own
random stream derived from the seed, so output does not depend on --workers.

Records are cached per sample, pipeline and seed: running the same batch
again replays the cached records instead of sampling.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Runner.Workers = workers
			}
			return c.runBatch(cmd, cfg, args[0], args[1], opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "samples processed concurrently (overrides runner.workers)")

	return cmd
}

func (c *CLI) runBatch(cmd *cobra.Command, cfg config.Config, specPath, dir string, opts runOpts) error {
	ctx := cmd.Context()
	prog := newProgress(loggerFromContext(ctx))

	spec, err := pipeline.LoadSpec(specPath)
	if err != nil {
		return err
	}
	samples, err := loadSamples(ctx, dir, spec.Resolver())
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		printWarning("No samples in %s", dir)
		return nil
	}

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	runner.Refresh = opts.refresh

	spinner := newSpinnerWithContext(ctx, "Augmenting...")
	spinner.Start()
	restore := trackProgress(spinner, len(samples))
	res, err := runner.Run(ctx, spec, samples, resolveSeed(cmd, opts.seed, cfg))
	restore()
	if err != nil {
		spinner.StopWithError("Batch failed")
		return err
	}
	spinner.Stop()

	for _, sr := range res.Samples {
		if _, err := writeResult(opts.output, sr); err != nil {
			return err
		}
	}

	prog.done("Batch complete", "samples", res.Stats.Samples, "pipeline", shortHash(res.PipelineHash))
	printSuccess("Augmented %d samples", res.Stats.Samples)
	printStats(res.Stats)
	printFile(opts.output)
	return nil
}

// progressHooks forwards pipeline events and counts finished samples into
// the spinner message.
type progressHooks struct {
	observability.PipelineHooks
	spinner *Spinner
	total   int
	done    atomic.Int64
}

func (h *progressHooks) OnSampleComplete(ctx context.Context, name string, d time.Duration, err error) {
	h.PipelineHooks.OnSampleComplete(ctx, name, d, err)
	h.spinner.SetMessage("Augmenting %d/%d (%s)", h.done.Add(1), h.total, name)
}

// trackProgress installs progressHooks until the returned func is called.
func trackProgress(s *Spinner, total int) func() {
	prev := observability.Pipeline()
	observability.SetPipelineHooks(&progressHooks{PipelineHooks: prev, spinner: s, total: total})
	return func() { observability.SetPipelineHooks(prev) }
}
