package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	augio "github.com/matzehuels/augment/pkg/io"
	"github.com/matzehuels/augment/pkg/pipeline"
	"github.com/matzehuels/augment/pkg/render/dot"
)

const (
	graphFormatDOT = "dot"
	graphFormatSVG = "svg"
)

// graphCommand creates the graph command that draws a pipeline or a
// recorded run.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		output   string
		format   string
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "graph [pipeline|record]",
		Short: "Draw a pipeline or a recorded run as a Graphviz diagram",
		Long: `Draw a pipeline file or a recorded run as a chain of stages. In a recorded
run, applied stages are filled and skipped stages are dashed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != graphFormatDOT && format != graphFormatSVG {
				return fmt.Errorf("invalid format: %s (must be 'dot' or 'svg')", format)
			}
			src, err := loadDiagram(args[0], dot.Options{Detailed: detailed})
			if err != nil {
				return err
			}

			out := []byte(src)
			if format == graphFormatSVG {
				if out, err = dot.RenderSVG(src); err != nil {
					return err
				}
			}

			if output == "" {
				_, err := os.Stdout.Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return err
			}
			printSuccess("Rendered %s", format)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", graphFormatDOT, "output format: dot, svg")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "show arguments and recorded params")

	return cmd
}

// loadDiagram reads path as a recorded run when it is JSON in the record
// layout, and as a pipeline otherwise.
func loadDiagram(path string, opts dot.Options) (string, error) {
	if f, err := pipeline.FormatOf(path); err == nil && f == pipeline.FormatJSON {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		if isRecord(raw) {
			saved, err := augio.ReadSaved(bytes.NewReader(raw))
			if err != nil {
				return "", err
			}
			return dot.ToDOT(saved, opts), nil
		}
	}

	spec, err := pipeline.LoadSpec(path)
	if err != nil {
		return "", err
	}
	return dot.FromSpec(spec, opts), nil
}

// isRecord reports whether raw holds serialized transforms, which pipeline
// files never do.
func isRecord(raw []byte) bool {
	var probe struct {
		Transforms []map[string]json.RawMessage `json:"transforms"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return false
	}
	for _, t := range probe.Transforms {
		if _, ok := t["transform"]; ok {
			return true
		}
	}
	return false
}
