package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	augio "github.com/matzehuels/augment/pkg/io"
)

// describeCommand creates the describe command for recorded runs.
func (c *CLI) describeCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "describe [record]",
		Short: "Show the stages and parameters of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			saved, err := augio.ImportSaved(args[0])
			if err != nil {
				return err
			}

			if interactive {
				p := tea.NewProgram(NewStageListModel(saved), tea.WithContext(cmd.Context()))
				_, err := p.Run()
				return err
			}

			printKeyValue("Schema", saved.SchemaVersion)
			printKeyValue("Probability", fmt.Sprint(saved.P))
			printKeyValue("Save key", saved.SaveKey)
			printKeyValue("Applied", fmt.Sprintf("%d of %d", saved.Applied(), len(saved.Transforms)))
			fmt.Println(stagesTable(saved))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse stages interactively")

	return cmd
}
