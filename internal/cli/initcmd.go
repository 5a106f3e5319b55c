package cli

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fedgraph/fedgraph/pkg/dag"
	"github.com/fedgraph/fedgraph/pkg/store"
)

// initCommand scaffolds a project: a .fedgraph/ directory with a config
// stub and an empty default graph in the store.
func (c *CLI) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a fedgraph project in the current directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			dir := filepath.Join(".", ".fedgraph")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}

			configPath := filepath.Join(dir, "config.toml")
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				stub := "# fedgraph project configuration\n\n[storage]\ndefault_graph = \"" + c.graph() + "\"\n"
				if err := os.WriteFile(configPath, []byte(stub), 0o644); err != nil {
					return err
				}
				printSuccess("Created %s", configPath)
			} else {
				printInfo("Config already exists: %s", configPath)
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			name := c.graph()
			if _, err := st.Load(ctx, name); err == nil {
				printInfo("Graph %q already exists", name)
				return nil
			} else if !errors.Is(err, store.ErrGraphNotFound) {
				return err
			}

			if _, err := st.Save(ctx, name, dag.New(nil)); err != nil {
				return err
			}
			printSuccess("Created empty graph %q", name)
			printNextStep("Add your first component", "fedgraph node add \"my service\" --type Service")
			return nil
		},
	}
}
