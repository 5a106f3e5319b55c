package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fedgraph/fedgraph/pkg/dag"
	"github.com/fedgraph/fedgraph/pkg/graph"
)

// =============================================================================
// Inspection commands
// =============================================================================

func (c *CLI) fingerprintCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the graph's content fingerprint",
		Long: `Print the SHA-256 fingerprint of the graph's canonical encoding. Two
graphs with the same nodes, edges, and metadata always share a fingerprint,
so comparing fingerprints detects drift between environments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			fp, err := graph.Fingerprint(g)
			if err != nil {
				return err
			}
			fmt.Println(fp)
			return nil
		},
	}
}

func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every graph invariant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := g.Validate(); err != nil {
				printError("Graph is invalid")
				return err
			}
			printSuccess("Graph is valid")
			printStats(g.NodeCount(), g.EdgeCount(), false)
			return nil
		},
	}
}

func (c *CLI) statsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show graph statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			s := g.Stats()
			printKeyValue("Nodes", fmt.Sprintf("%d", s.Nodes))
			printKeyValue("Edges", fmt.Sprintf("%d", s.Edges))
			printKeyValue("Depth", fmt.Sprintf("%d", s.Depth))
			printKeyValue("Sources", fmt.Sprintf("%d", s.Sources))
			printKeyValue("Sinks", fmt.Sprintf("%d", s.Sinks))
			for _, t := range dag.NodeTypes() {
				if count := s.ByType[t]; count > 0 {
					printKeyValue(string(t), fmt.Sprintf("%d", count))
				}
			}
			return nil
		},
	}
}

func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the graph document",
		Long:  `Print the graph's canonical JSON document to stdout.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			return graph.Write(g, cmd.OutOrStdout())
		},
	}
}

func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored graphs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			infos, err := st.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				printInfo("no graphs stored")
				printNextStep("Create one", appName+" init")
				return nil
			}
			for _, info := range infos {
				fmt.Println(StyleValue.Render(info.Name) + " " +
					StyleDim.Render(fmt.Sprintf("%d nodes · %d edges · %s",
						info.Nodes, info.Edges, shortFingerprint(info.Fingerprint))))
			}
			return nil
		},
	}
}

func (c *CLI) historyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show saved revisions of the graph",
		Long: `Show every saved revision of the graph, oldest first. Each save that
changed the graph's content produced a new revision with its own
fingerprint.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			revs, err := st.History(cmd.Context(), c.graph())
			if err != nil {
				return err
			}
			for _, rev := range revs {
				fmt.Println(StyleValue.Render(rev.SavedAt.Local().Format("2006-01-02 15:04:05")) + " " +
					StyleDim.Render(shortFingerprint(rev.Fingerprint)))
			}
			return nil
		},
	}
}

// shortFingerprint abbreviates a 64-char fingerprint for listings.
func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
