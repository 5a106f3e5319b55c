package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fedgraph/fedgraph/pkg/dag"
	"github.com/fedgraph/fedgraph/pkg/graph"
	"github.com/fedgraph/fedgraph/pkg/manifest"
)

// =============================================================================
// Import / Export
// =============================================================================

func (c *CLI) importCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a graph from a manifest or document file",
		Long: `Import a graph from a TOML manifest (.toml) or a canonical JSON graph
document (.json). The imported graph replaces the stored graph of the same
name; the previous content stays available through history.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			prog := newProgress(loggerFromContext(ctx))

			var (
				name string
				g    *dag.DAG
				err  error
			)
			switch strings.ToLower(filepath.Ext(path)) {
			case ".toml":
				name, g, err = manifest.LoadFile(path)
			case ".json":
				g, err = graph.ReadFile(path)
			default:
				return fmt.Errorf("unsupported file %q: want a .toml manifest or .json document", path)
			}
			if err != nil {
				return err
			}

			// Precedence: --graph flag, manifest's declared name, configured default.
			target := c.graphName
			if target == "" {
				target = name
			}
			if target == "" {
				target = c.cfg.Storage.DefaultGraph
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			rev, err := st.Save(ctx, target, g)
			if err != nil {
				return err
			}
			prog.done("import complete")
			printSuccess("Imported %s into graph %q", filepath.Base(path), target)
			printStats(g.NodeCount(), g.EdgeCount(), false)
			printDetail("fingerprint %s", shortFingerprint(rev.Fingerprint))
			return nil
		},
	}
	return cmd
}

func (c *CLI) exportCommand() *cobra.Command {
	var (
		formatFlag string
		outFlag    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the graph as a manifest or document",
		Long: `Export the stored graph as an editable TOML manifest or as its canonical
JSON document. With no --output the result goes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, g, err := c.loadGraph(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			format := strings.ToLower(formatFlag)
			if format == "" {
				format = formatFromExt(outFlag)
			}

			out := cmd.OutOrStdout()
			var f *os.File
			if outFlag != "" {
				f, err = os.Create(outFlag)
				if err != nil {
					return fmt.Errorf("create %s: %w", outFlag, err)
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "toml":
				if err := manifest.FromDAG(c.graph(), g).Encode(out); err != nil {
					return err
				}
			case "json":
				if err := graph.Write(g, out); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unsupported format %q: want toml or json", format)
			}

			if outFlag != "" {
				printSuccess("Exported graph %q", c.graph())
				printFile(outFlag)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "output format: toml or json (default inferred from --output, else json)")
	cmd.Flags().StringVarP(&outFlag, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

// formatFromExt infers the export format from an output filename.
func formatFromExt(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "json"
}
