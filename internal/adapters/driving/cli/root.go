package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sheldonrobinson/AI4All/internal/core/domain"
	"github.com/sheldonrobinson/AI4All/internal/core/ports/driving"
	"github.com/sheldonrobinson/AI4All/internal/logger"
)

// version is the CLI version, overridden at build time via ldflags.
var version = "0.1.0"

// FragmentLister streams the fragments behind a document. The SQLite
// store satisfies it directly.
type FragmentLister interface {
	FragmentsByDocument(ctx context.Context, documentID string, fn func(domain.Fragment) error) error
}

// StatsReader reports knowledge base counters.
type StatsReader interface {
	Stats(ctx context.Context) (documents, fragments int, err error)
}

// Services bundles everything the commands need. The composition root
// builds one and injects it via SetServices before Execute.
type Services struct {
	Query     driving.QueryService
	Ingest    driving.IngestService
	Lifecycle driving.LifecycleService
	Fragments FragmentLister
	Stats     StatsReader
}

// Package-level service handles used by the command handlers.
var (
	queryService     driving.QueryService
	ingestService    driving.IngestService
	lifecycleService driving.LifecycleService
	fragmentLister   FragmentLister
	statsReader      StatsReader
)

// SetServices injects the service implementations into the commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	queryService = s.Query
	ingestService = s.Ingest
	lifecycleService = s.Lifecycle
	fragmentLister = s.Fragments
	statsReader = s.Stats
}

var (
	verboseFlag bool
	configFlag  string
	dbFlag      string

	// initializer builds the services after flag parsing. Installed by
	// the composition root; nil when tests inject stubs directly.
	initializer func() error
)

// SetInitializer installs the hook that builds the services. It runs
// once, after global flags are parsed and before any command handler.
func SetInitializer(fn func() error) {
	initializer = fn
}

// ConfigPath returns the --config override, empty for the default.
func ConfigPath() string { return configFlag }

// DBPath returns the --db override, empty for the configured path.
func DBPath() string { return dbFlag }

var rootCmd = &cobra.Command{
	Use:   "ai4all",
	Short: "Local retrieval-augmented knowledge base",
	Long: `AI4All maintains a local knowledge base of text fragments and answers
natural-language queries against it.

Ingested text is split into chunks, embedded and stored in SQLite.
Queries are answered with hybrid ranking that fuses full-text (BM25)
and semantic (vector) scores.`,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verboseFlag)
		if initializer != nil {
			fn := initializer
			initializer = nil
			return fn()
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"config file path (default ~/.ai4all/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "",
		"knowledge base file path (overrides the config)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
