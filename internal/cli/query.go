package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fedgraph/fedgraph/pkg/dag"
	"github.com/fedgraph/fedgraph/pkg/graph"
)

// =============================================================================
// Structural queries
// =============================================================================

func (c *CLI) orderCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "order",
		Short: "Print nodes in topological order",
		Long: `Print every node in dependency order: each node appears before anything
that depends on it. Ties are broken alphabetically, so the order is stable
across runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			for _, id := range g.TopologicalOrder() {
				n, _ := g.Node(id)
				fmt.Println(StyleValue.Render(id) + " " + StyleDim.Render("["+styleNodeType(string(n.Type))+"]"))
			}
			return nil
		},
	}
}

func (c *CLI) ancestorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ancestors <node>",
		Short: "List everything a node transitively depends on",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReachability(cmd, args[0], "no dependencies", (*dag.DAG).Ancestors)
		},
	}
}

func (c *CLI) descendantsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "descendants <node>",
		Short: "List everything that transitively depends on a node",
		Long: `List every node reachable from the given node by following edges
backwards: the blast radius of changing it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReachability(cmd, args[0], "no dependents", (*dag.DAG).Descendants)
		},
	}
}

// runReachability shares the load/lookup/print loop between ancestors and
// descendants.
func (c *CLI) runReachability(cmd *cobra.Command, arg, emptyMsg string, fn func(*dag.DAG, string) ([]string, error)) error {
	st, g, err := c.loadGraph(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	id := resolveNodeID(arg)
	ids, err := fn(g, id)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		printInfo("%s: %s", id, emptyMsg)
		return nil
	}
	for _, rid := range ids {
		n, _ := g.Node(rid)
		fmt.Println(StyleValue.Render(rid) + " " + StyleDim.Render("["+styleNodeType(string(n.Type))+"]"))
	}
	return nil
}

func (c *CLI) subgraphCommand() *cobra.Command {
	var outFlag string

	cmd := &cobra.Command{
		Use:   "subgraph <node>...",
		Short: "Extract the induced subgraph of the given nodes",
		Long: `Extract the subgraph induced by the given nodes: the nodes themselves
plus every edge whose endpoints are both in the set. The result is a valid
graph document, written to stdout or a file.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			ids := make([]string, len(args))
			for i, arg := range args {
				ids[i] = resolveNodeID(arg)
			}
			sub := g.Subgraph(ids)

			if outFlag == "" {
				return graph.Write(sub, os.Stdout)
			}
			if err := graph.WriteFile(sub, outFlag); err != nil {
				return err
			}
			printSuccess("Wrote subgraph")
			printFile(outFlag)
			printStats(sub.NodeCount(), sub.EdgeCount(), false)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFlag, "output", "o", "", "write the subgraph document to a file instead of stdout")
	return cmd
}
