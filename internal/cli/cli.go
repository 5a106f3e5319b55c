// Package cli implements the fedgraph command-line interface.
//
// Commands operate on a named graph held in a store (file-backed by default,
// MongoDB for shared deployments) and cover the full engine surface: node
// and edge mutation, structural queries, validation, fingerprinting,
// rendering, manifest import/export, and the HTTP API server. Configuration
// is layered TOML plus FEDGRAPH_* environment variables; --verbose and
// --quiet adjust logging for a single invocation.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fedgraph/fedgraph/internal/config"
	"github.com/fedgraph/fedgraph/pkg/buildinfo"
	"github.com/fedgraph/fedgraph/pkg/cache"
	"github.com/fedgraph/fedgraph/pkg/dag"
	"github.com/fedgraph/fedgraph/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "fedgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	cfg config.Config

	// Persistent flag targets.
	verbose   bool
	quiet     bool
	graphName string
	storeDir  string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Fedgraph manages federated dependency graphs",
		Long:          `Fedgraph is a CLI for building, querying, and persisting typed architecture dependency graphs: components and their relationships form a validated DAG with deterministic serialization and content fingerprints for drift detection.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.BoolVarP(&c.quiet, "quiet", "q", false, "suppress non-error logging")
	pf.StringVarP(&c.graphName, "graph", "g", "", "graph to operate on (default from config)")
	pf.StringVar(&c.storeDir, "dir", "", "override the store directory")

	root.AddCommand(c.initCommand())
	root.AddCommand(c.nodeCommand())
	root.AddCommand(c.edgeCommand())
	root.AddCommand(c.orderCommand())
	root.AddCommand(c.ancestorsCommand())
	root.AddCommand(c.descendantsCommand())
	root.AddCommand(c.subgraphCommand())
	root.AddCommand(c.fingerprintCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.linkCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads configuration and applies log-level flags. Runs once per
// invocation before any command body.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load("")
	if err != nil {
		return err
	}
	if c.storeDir != "" {
		cfg.Storage.Dir = c.storeDir
	}
	c.cfg = cfg

	switch {
	case c.verbose:
		c.Logger.SetLevel(log.DebugLevel)
	case c.quiet:
		c.Logger.SetLevel(log.ErrorLevel)
	default:
		c.Logger.SetLevel(parseLogLevel(cfg.Log.Level))
	}

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// graph returns the graph name to operate on: the --graph flag if given,
// otherwise the configured default.
func (c *CLI) graph() string {
	if c.graphName != "" {
		return c.graphName
	}
	return c.cfg.Storage.DefaultGraph
}

// openStore builds the configured store backend.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	switch c.cfg.Storage.Backend {
	case "mongo":
		dialCtx, cancel := context.WithTimeout(ctx, c.cfg.Mongo.Timeout.Value())
		defer cancel()
		return store.NewMongoStore(dialCtx, c.cfg.Mongo.URI, c.cfg.Mongo.Database)
	default:
		return store.NewFileStore(c.cfg.Storage.Dir)
	}
}

// openCache builds the configured cache backend. Failures fall back to the
// null cache: rendering works without one, just slower.
func (c *CLI) openCache(ctx context.Context) cache.Cache {
	switch c.cfg.Cache.Backend {
	case "null":
		return cache.NewNullCache()
	case "redis":
		rc, err := cache.NewRedisCache(ctx, c.cfg.Redis.URL)
		if err != nil {
			c.Logger.Warn("redis cache unavailable, continuing without cache", "err", err)
			return cache.NewNullCache()
		}
		return rc
	default:
		dir := c.cfg.Cache.Dir
		if dir == "" {
			var err error
			dir, err = cacheDir()
			if err != nil {
				return cache.NewNullCache()
			}
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return cache.NewNullCache()
		}
		return fc
	}
}

// loadGraph opens the store and loads the active graph.
func (c *CLI) loadGraph(ctx context.Context) (store.Store, *dag.DAG, error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	g, err := st.Load(ctx, c.graph())
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("load graph %q: %w", c.graph(), err)
	}
	return st, g, nil
}

// mutateGraph loads the active graph, applies fn, and saves the result when
// fn succeeds. The store is closed either way.
func (c *CLI) mutateGraph(ctx context.Context, fn func(g *dag.DAG) error) error {
	st, g, err := c.loadGraph(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := fn(g); err != nil {
		return err
	}
	if _, err := st.Save(ctx, c.graph(), g); err != nil {
		return fmt.Errorf("save graph %q: %w", c.graph(), err)
	}
	return nil
}

// cacheDir returns the cache directory using XDG standard (~/.cache/fedgraph/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// parseLogLevel maps a config level string to a charm log level.
func parseLogLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// parseMeta converts repeated k=v flags into a metadata map.
func parseMeta(pairs []string) (dag.Metadata, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	meta := make(dag.Metadata, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q: expected key=value", pair)
		}
		meta[k] = v
	}
	return meta, nil
}
