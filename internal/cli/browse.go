package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the graph interactively",
		Long: `Open a terminal browser over the graph. Nodes are listed in topological
order; selecting one shows its metadata and the components it depends on
and is depended on by. Browsing is read-only.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			p := tea.NewProgram(NewBrowseModel(c.graph(), g))
			_, err = p.Run()
			return err
		},
	}
}
