package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sbrg/gds/pkg/buildinfo"
	"github.com/sbrg/gds/pkg/cache"
	"github.com/sbrg/gds/pkg/config"
	"github.com/sbrg/gds/pkg/graphdb"
	"github.com/sbrg/gds/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "gds"

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
	Config *config.Config

	configPath string
	graphPath  string
	verbose    bool
	noCache    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Config: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "gds runs graph data science analyses over a Lifelike knowledge graph",
		Long: `gds loads subgraphs from a Lifelike Neo4j database, traces shortest paths
between node sets, ranks nodes by personalized PageRank and exports the
results as Sankey trace graphs, spreadsheets and diagrams.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/gds/config.yaml)")
	pf.StringVar(&c.graphPath, "graph", "", "read the graph from a JSON node-link file instead of Neo4j")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	pf.BoolVar(&c.noCache, "no-cache", false, "disable the result cache")

	root.AddCommand(c.loadCommand())
	root.AddCommand(c.statsCommand())
	root.AddCommand(c.traceCommand())
	root.AddCommand(c.radiateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	registerCompletions(root)

	return root
}

// setup loads the configuration and applies its log level. --verbose wins
// over the configured level.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = LogInfo
	}
	if c.verbose {
		level = LogDebug
	}
	c.SetLogLevel(level)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The caller must Close it.
func (c *CLI) newRunner(ctx context.Context) (*pipeline.Runner, error) {
	src, err := c.newSource(ctx)
	if err != nil {
		return nil, err
	}
	store, err := c.newCache(ctx)
	if err != nil {
		_ = src.Close(ctx)
		return nil, err
	}
	var keyer cache.Keyer
	if b := c.Config.Cache.Backend; b == config.BackendRedis || b == config.BackendMongo {
		// Shared backends may serve several databases.
		keyer = cache.NewScopedKeyer(nil, c.Config.Neo4j.Database+":")
	}
	r := pipeline.NewRunner(src, store, keyer, c.Logger)
	r.TTL = c.Config.Cache.TTL
	return r, nil
}

func (c *CLI) newSource(ctx context.Context) (graphdb.Source, error) {
	if c.graphPath != "" {
		return &graphdb.FileSource{Path: c.graphPath}, nil
	}
	db := c.Config.Neo4j
	c.Logger.Debug("connecting", "uri", db.URI, "database", db.Database)
	return graphdb.Open(ctx, graphdb.Config{
		URI:      db.URI,
		Username: db.Username,
		Password: db.Password,
		Database: db.Database,
	})
}

func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	return cache.Open(ctx, c.Config.Cache)
}

// =============================================================================
// Options Helpers
// =============================================================================

// analysisDefaults returns options seeded from the [analysis] config
// section. Flags override them.
func (c *CLI) analysisDefaults(kind string) pipeline.Options {
	a := c.Config.Analysis
	opts := pipeline.Options{
		Analysis:        kind,
		DisplayProperty: a.DisplayProperty,
		Weight:          a.Weight,
	}
	switch kind {
	case pipeline.AnalysisTrace:
		opts.MaxPaths = a.MaxPaths
	case pipeline.AnalysisRadiate:
		opts.Alpha = a.Alpha
		opts.MaxIter = a.MaxIter
		opts.Tol = a.Tol
	}
	return opts
}

// splitList parses a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
