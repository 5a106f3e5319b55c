package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fedgraph/fedgraph/pkg/dag"
	fgerrors "github.com/fedgraph/fedgraph/pkg/errors"
)

// nodeCommand groups node mutation and inspection subcommands.
func (c *CLI) nodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "node",
		Short: "Manage graph nodes",
	}
	cmd.AddCommand(c.nodeAddCommand())
	cmd.AddCommand(c.nodeRemoveCommand())
	cmd.AddCommand(c.nodeListCommand())
	cmd.AddCommand(c.nodeShowCommand())
	return cmd
}

func (c *CLI) nodeAddCommand() *cobra.Command {
	var (
		typeFlag string
		metaFlag []string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a component node to the graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if err := fgerrors.ValidateComponentName(name); err != nil {
				return err
			}
			nodeType, err := dag.ParseNodeType(typeFlag)
			if err != nil {
				return err
			}
			meta, err := parseMeta(metaFlag)
			if err != nil {
				return err
			}
			n, err := dag.NewNode(nodeType, name, meta)
			if err != nil {
				return err
			}

			err = c.mutateGraph(cmd.Context(), func(g *dag.DAG) error {
				return g.AddNode(n)
			})
			if err != nil {
				return err
			}
			printSuccess("Added %s %q", styleNodeType(string(n.Type)), n.Name)
			printDetail("id: %s", n.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeFlag, "type", "t", string(dag.NodeTypeComponent),
		"node type (Service, Library, Schema, Endpoint, Component)")
	cmd.Flags().StringArrayVarP(&metaFlag, "meta", "m", nil, "metadata entry as key=value (repeatable)")
	return cmd
}

func (c *CLI) nodeRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a node and every edge touching it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := resolveNodeID(args[0])
			err := c.mutateGraph(cmd.Context(), func(g *dag.DAG) error {
				return g.RemoveNode(id)
			})
			if err != nil {
				return err
			}
			printSuccess("Removed node %s", id)
			return nil
		},
	}
}

func (c *CLI) nodeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all nodes in the graph",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			nodes := g.Nodes()
			if len(nodes) == 0 {
				printInfo("Graph %q is empty", c.graph())
				return nil
			}
			for _, n := range nodes {
				fmt.Printf("%s  %s %s\n",
					styleNodeType(fmt.Sprintf("%-9s", string(n.Type))),
					StyleValue.Render(n.Name),
					StyleDim.Render(n.ID))
			}
			printStats(g.NodeCount(), g.EdgeCount(), false)
			return nil
		},
	}
}

func (c *CLI) nodeShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one node with its metadata and neighbors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			id := resolveNodeID(args[0])
			n, ok := g.Node(id)
			if !ok {
				return fmt.Errorf("%w: %s", dag.ErrNodeNotFound, id)
			}

			printKeyValue("name", n.Name)
			printKeyValue("id", n.ID)
			printKeyValue("type", string(n.Type))
			for _, k := range slices.Sorted(maps.Keys(n.Metadata)) {
				printKeyValue("meta."+k, fmt.Sprintf("%v", n.Metadata[k]))
			}
			if parents := g.Parents(id); len(parents) > 0 {
				printNewline()
				printInfo("Depended on by:")
				for _, p := range parents {
					printDetail("%s", p)
				}
			}
			if children := g.Children(id); len(children) > 0 {
				printNewline()
				printInfo("Depends on:")
				for _, ch := range children {
					printDetail("%s", ch)
				}
			}
			return nil
		},
	}
}

// resolveNodeID accepts either a full node ID or a bare component name.
// Names are more convenient on the command line; full IDs pass through
// unchanged.
func resolveNodeID(arg string) string {
	if strings.HasPrefix(arg, "pkg:") {
		return arg
	}
	return dag.NodeID(arg)
}
