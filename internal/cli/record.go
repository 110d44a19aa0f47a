package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/augment/pkg/core/target"
	augio "github.com/matzehuels/augment/pkg/io"
	"github.com/matzehuels/augment/pkg/pipeline"
)

// recordFunc runs a recorded pipeline over one sample.
type recordFunc func(*pipeline.Saved, target.Bundle) (target.Bundle, error)

// replayCommand creates the replay command.
func (c *CLI) replayCommand() *cobra.Command {
	return c.recordCommand("replay", "Replay a recorded run on other samples",
		`Replay a recorded run (<name>.replay.json) on an image or a directory of
images. Every stage that fired in the recording fires again with the same
parameters; stages that were skipped stay skipped.`,
		"Replayed", pipeline.Replay)
}

// reverseCommand creates the reverse command.
func (c *CLI) reverseCommand() *cobra.Command {
	return c.recordCommand("reverse", "Undo a recorded run on augmented samples",
		`Undo a recorded run: the inverse of every applied stage runs in reverse
order, mapping augmented masks, boxes and keypoints back onto the original
frame. Fails if an applied stage has no inverse.`,
		"Reversed", pipeline.Reverse)
}

func (c *CLI) recordCommand(use, short, long, verb string, run recordFunc) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   use + " [record] [image|dir]",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			saved, err := augio.ImportSaved(args[0])
			if err != nil {
				return err
			}
			samples, err := loadSamples(ctx, args[1], saved.Resolver())
			if err != nil {
				return err
			}

			for _, s := range samples {
				out, err := run(saved, s.Data)
				if err != nil {
					return err
				}
				if err := writeSample(output, s.Name, out); err != nil {
					return err
				}
				logger.Debug(use+" sample", "sample", s.Name, "stages", saved.Applied())
			}

			printSuccess("%s %d samples %s", verb, len(samples), StyleDim.Render("("+args[0]+")"))
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", defaultOutputDir, "output directory")

	return cmd
}
