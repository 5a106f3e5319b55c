package cli

import (
	"github.com/spf13/cobra"

	"github.com/fedgraph/fedgraph/pkg/api"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addrFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph HTTP API",
		Long: `Serve the HTTP API over the configured store. Every CLI operation has an
HTTP counterpart under /api/v1/graphs, so remote clients can read and
mutate graphs without direct store access. The server shuts down cleanly
on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			ca := c.openCache(ctx)
			defer ca.Close()

			addr := addrFlag
			if addr == "" {
				addr = c.cfg.API.Addr
			}

			srv := api.NewServer(st, ca, c.Logger, api.Options{
				Addr:         addr,
				ReadTimeout:  c.cfg.API.ReadTimeout.Value(),
				WriteTimeout: c.cfg.API.WriteTimeout.Value(),
			})

			c.Logger.Info("serving graph API", "addr", addr)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addrFlag, "addr", "", "listen address (default from config)")
	return cmd
}
