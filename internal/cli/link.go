package cli

import (
	"github.com/spf13/cobra"

	"github.com/fedgraph/fedgraph/pkg/dag"
)

func (c *CLI) linkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "link <task-id> <node>",
		Short: "Link an external task to a node",
		Long: `Attach an external task or ticket identifier to a node. The link is
stored in the node's metadata and survives serialization, so tooling can
map components back to the work items that track them.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID := args[0]
			nodeID := resolveNodeID(args[1])
			err := c.mutateGraph(cmd.Context(), func(g *dag.DAG) error {
				return g.LinkTask(taskID, nodeID)
			})
			if err != nil {
				return err
			}
			printSuccess("Linked task")
			printDetail("%s %s %s", taskID, iconArrow, nodeID)
			return nil
		},
	}
}
