// Package cli implements the fragtree command-line interface.
//
// The commands load candidate graphs from JSON, solve them with one of the
// tree builders, and write or render the resulting fragmentation trees.
// Solved trees are cached (file or redis backend), so repeated runs over
// the same graph and settings are instant.
//
// # Commands
//
//   - solve: compute the best tree (or k best) for a graph
//   - compare: run every strategy on a graph and tabulate scores
//   - batch: solve many graphs concurrently
//   - render: draw a solved tree as DOT, SVG, PNG or PDF
//   - pool: report subset pool usage for a set of graphs
//   - cache, config: manage the result cache and the config file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger is
// also attached to the command context.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/fragtree/pkg/buildinfo"
	"github.com/matzehuels/fragtree/pkg/cache"
	"github.com/matzehuels/fragtree/pkg/config"
	"github.com/matzehuels/fragtree/pkg/observability"
	"github.com/matzehuels/fragtree/pkg/pipeline"
	"github.com/matzehuels/fragtree/pkg/subset"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "fragtree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
	pool       *subset.Pool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "fragtree computes fragmentation trees from MS/MS candidate graphs",
		Long:         `fragtree finds maximum-weight colorful subtrees of fragmentation candidate graphs, exactly or with fast heuristics, and renders the resulting fragmentation trees.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/fragtree/config.toml)")

	root.AddCommand(c.solveCommand())
	root.AddCommand(c.compareCommand())
	root.AddCommand(c.batchCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.poolCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// skipConfig marks commands that run without loading the config file.
const skipConfig = "skip-config"

// setup loads the config file and installs logging hooks before any
// command runs.
func (c *CLI) setup(cmd *cobra.Command) error {
	if cmd.Annotations[skipConfig] == "" {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			return err
		}
		c.cfg = cfg
	}
	c.pool = subset.NewPool(c.cfg.Pool.BudgetBytes)

	hooks := &logHooks{logger: c.Logger}
	observability.SetSolverHooks(hooks)
	observability.SetSubsetPoolHooks(hooks)
	observability.SetCacheHooks(hooks)

	c.Logger.Debug("starting", "build", buildinfo.String(), "command", cmd.CommandPath())
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(cmd *cobra.Command, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(cmd, noCache)
	if err != nil {
		return nil, err
	}
	if reason, off := cache.Off(cc); off {
		c.Logger.Debug("tree cache off", "reason", reason)
	}
	var keyer cache.Keyer
	if c.cfg.Cache.Prefix != "" && c.cfg.Cache.Backend == cache.BackendFile {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), c.cfg.Cache.Prefix)
	}
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

func (c *CLI) newCache(cmd *cobra.Command, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.Disabled("--no-cache"), nil
	}
	dir, err := cacheDir()
	if err != nil {
		dir = ""
	}
	opts := c.cfg.CacheOptions(dir)
	if opts.Backend == cache.BackendFile && opts.Dir == "" {
		return cache.Disabled("no cache directory"), nil
	}
	cc, err := cache.Open(cmd.Context(), opts)
	if err != nil {
		if cache.IsRetryable(err) {
			c.Logger.Warn("cache unavailable, continuing without it", "backend", opts.Backend, "error", err)
			return cache.Disabled(opts.Backend + " unreachable"), nil
		}
		return nil, err
	}
	return cc, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/fragtree/).
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
