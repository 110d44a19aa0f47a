package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/augment/pkg/core/target"
	augio "github.com/matzehuels/augment/pkg/io"
	"github.com/matzehuels/augment/pkg/pipeline"
)

const (
	defaultOutputDir = "out"
	savedSuffix      = ".replay.json" // recorded run next to each output sample
)

// runOpts holds the flags shared by apply and batch.
type runOpts struct {
	output  string // output directory
	seed    uint64 // base seed; sample i draws from stream i
	noCache bool   // skip the record cache entirely
	refresh bool   // sample again and overwrite cached records
}

func (o *runOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", defaultOutputDir, "output directory")
	cmd.Flags().Uint64Var(&o.seed, "seed", pipeline.DefaultSeed, "random seed (overrides runner.seed)")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "do not read or write the record cache")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "ignore cached records and sample again")
}

// applyCommand creates the apply command for a single sample.
func (c *CLI) applyCommand() *cobra.Command {
	var opts runOpts
	var name string

	cmd := &cobra.Command{
		Use:   "apply [pipeline] [image]",
		Short: "Apply a pipeline to one sample and record the run",
		Long: `Apply a pipeline file (TOML, YAML or JSON) to an image, its sidecar
annotations (<stem>.json) and sibling masks (<stem>.<key>.png).

The augmented sample is written to the output directory together with
<name>.replay.json, which replays the exact same run on other samples:

  augment apply pipeline.toml cat.png -o out
  augment replay out/cat.replay.json dog.png`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = filepath.Base(augio.Stem(args[1]))
			}
			return c.runApply(cmd, args[0], args[1], name, opts)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "output file stem (default: input stem)")

	return cmd
}

func (c *CLI) runApply(cmd *cobra.Command, specPath, imagePath, name string, opts runOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	spec, err := pipeline.LoadSpec(specPath)
	if err != nil {
		return err
	}
	data, err := augio.ImportSample(imagePath, spec.Resolver())
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()
	runner.Refresh = opts.refresh

	seed := resolveSeed(cmd, opts.seed, cfg)
	logger.Debug("applying pipeline", "pipeline", specPath, "sample", imagePath, "seed", seed)

	res, err := runner.Run(ctx, spec, []pipeline.Sample{{Name: name, Data: data}}, seed)
	if err != nil {
		return err
	}
	sr := res.Samples[0]
	savedPath, err := writeResult(opts.output, sr)
	if err != nil {
		return err
	}

	printSuccess("Augmented %s", StyleValue.Render(name))
	printStats(res.Stats)
	printFile(filepath.Join(opts.output, name+".png"))
	printFile(savedPath)
	printNextStep("Replay on another sample", "augment replay "+savedPath+" <image>")
	return nil
}

// writeResult exports a sample's output and its recorded run under dir and
// returns the path of the record.
func writeResult(dir string, sr pipeline.SampleResult) (string, error) {
	if err := writeSample(dir, sr.Name, sr.Output); err != nil {
		return "", err
	}
	path := filepath.Join(dir, sr.Name+savedSuffix)
	return path, augio.ExportSaved(sr.Saved, path)
}

func writeSample(dir, name string, data target.Bundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return augio.ExportSample(data, dir, name)
}

// loadSamples reads a single image or every sample in a directory.
func loadSamples(ctx context.Context, path string, resolve target.Resolver) ([]pipeline.Sample, error) {
	paths := []string{path}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		if paths, err = augio.ListSamples(path); err != nil {
			return nil, err
		}
	}

	samples := make([]pipeline.Sample, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := augio.ImportSample(p, resolve)
		if err != nil {
			return nil, err
		}
		samples = append(samples, pipeline.Sample{Name: filepath.Base(augio.Stem(p)), Data: data})
	}
	return samples, nil
}
