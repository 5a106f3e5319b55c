package cli

import (
	"github.com/spf13/cobra"

	"github.com/fedgraph/fedgraph/pkg/dag"
	fgerrors "github.com/fedgraph/fedgraph/pkg/errors"
)

// edgeCommand groups edge mutation subcommands.
func (c *CLI) edgeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edge",
		Short: "Manage graph edges",
	}
	cmd.AddCommand(c.edgeAddCommand())
	cmd.AddCommand(c.edgeRemoveCommand())
	return cmd
}

func (c *CLI) edgeAddCommand() *cobra.Command {
	var (
		typeFlag     string
		contractFlag string
		metaFlag     []string
	)

	cmd := &cobra.Command{
		Use:   "add <source> <target>",
		Short: "Add a typed edge between two nodes",
		Long: `Add a directed edge between two existing nodes. Source and target may be
given as full node IDs or as component names. The edge is rejected if it
would duplicate an existing (source, target) pair or close a dependency
cycle; a rejected edge leaves the graph untouched.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			edgeType, err := dag.ParseEdgeType(typeFlag)
			if err != nil {
				return err
			}
			if contractFlag != "" {
				if err := fgerrors.ValidateContractPath(contractFlag); err != nil {
					return err
				}
			}
			meta, err := parseMeta(metaFlag)
			if err != nil {
				return err
			}

			e := dag.Edge{
				Source:   resolveNodeID(args[0]),
				Target:   resolveNodeID(args[1]),
				Type:     edgeType,
				Metadata: meta,
				Contract: contractFlag,
			}
			err = c.mutateGraph(cmd.Context(), func(g *dag.DAG) error {
				return g.AddEdge(e)
			})
			if err != nil {
				return err
			}
			printSuccess("Added edge")
			printEdgeLine(e.Source, e.Target, string(e.Type))
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeFlag, "type", "t", string(dag.EdgeTypeDependsOn),
		"edge type (DEPENDS_ON, CONSUMES, OWNS, IMPLEMENTS)")
	cmd.Flags().StringVar(&contractFlag, "contract", "", "path to an interface-contract artifact")
	cmd.Flags().StringArrayVarP(&metaFlag, "meta", "m", nil, "metadata entry as key=value (repeatable)")
	return cmd
}

func (c *CLI) edgeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <source> <target>",
		Aliases: []string{"remove"},
		Short:   "Remove the edge between two nodes",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := resolveNodeID(args[0])
			target := resolveNodeID(args[1])
			err := c.mutateGraph(cmd.Context(), func(g *dag.DAG) error {
				return g.RemoveEdge(source, target)
			})
			if err != nil {
				return err
			}
			printSuccess("Removed edge")
			printDetail("%s %s %s", source, iconArrow, target)
			return nil
		},
	}
}
