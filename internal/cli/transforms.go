package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/augment/pkg/core/registry"
	"github.com/matzehuels/augment/pkg/core/transform"
)

// transformsCommand lists the registered transforms.
func (c *CLI) transformsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transforms",
		Short: "List the transforms a pipeline may name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := transformRows()
			fmt.Println(table.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
				Headers("Transform", "Group", "Inverse").
				Rows(rows...).
				StyleFunc(func(row, col int) lipgloss.Style {
					if row == -1 {
						return styleHeader
					}
					if col == 0 {
						return StyleValue
					}
					return StyleDim
				}).
				Render())
			return nil
		},
	}
}

// transformRows describes each registered transform. Whether a transform
// has an inverse is only known for those that build without arguments.
func transformRows() [][]string {
	names := registry.Names()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		group, short, ok := strings.Cut(name, ".")
		if !ok {
			group, short = "", name
		}
		inverse := "needs args"
		if t, err := registry.New(name, registry.Spec{P: 1}); err == nil {
			inverse = "no"
			if _, ok := t.(transform.Reversible); ok {
				inverse = "yes"
			}
		}
		rows = append(rows, []string{short, group, inverse})
	}
	return rows
}
