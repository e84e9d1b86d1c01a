// Package cli wires the cobra commands around the engine verbs.
package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	configfile "github.com/mindsage-labs/mindsage-cli/internal/adapters/driven/config/file"
	"github.com/mindsage-labs/mindsage-cli/internal/adapters/driven/embedding"
	"github.com/mindsage-labs/mindsage-cli/internal/adapters/driven/embedding/noop"
	"github.com/mindsage-labs/mindsage-cli/internal/adapters/driven/embedding/ollama"
	"github.com/mindsage-labs/mindsage-cli/internal/adapters/driven/storage/sqlite"
	"github.com/mindsage-labs/mindsage-cli/internal/capability"
	"github.com/mindsage-labs/mindsage-cli/internal/core/domain"
	"github.com/mindsage-labs/mindsage-cli/internal/core/ports/driven"
	"github.com/mindsage-labs/mindsage-cli/internal/core/services"
	"github.com/mindsage-labs/mindsage-cli/internal/logger"
	"github.com/mindsage-labs/mindsage-cli/internal/normalisers"
)

var (
	flagDataDir    string
	flagConfigDir  string
	flagVerbose    bool
	flagTier       string
	flagNoEmbedder bool
)

var rootCmd = &cobra.Command{
	Use:   "mindsage",
	Short: "Personal knowledge engine with hybrid keyword+semantic search",
	Long: `MindSage ingests documents, chat exports and notes into a local
single-file index and answers queries with hybrid BM25 + vector search,
sized to the capability tier of the device it runs on.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ~/.mindsage/data)")
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "config directory (default ~/.mindsage)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(&flagTier, "tier", "", "capability tier override (base|enhanced|advanced|full)")
	rootCmd.PersistentFlags().BoolVar(&flagNoEmbedder, "no-embedder", false, "disable the neural embedder")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// bootstrap assembles the engine from config, store and embedder.
// The returned shutdown func drains the queue and closes the store.
func bootstrap(ctx context.Context) (*services.Engine, func(), error) {
	configStore, err := configfile.NewConfigStore(flagConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := configStore.Config()

	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = cfg.DataDir
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	tier := resolveTier(cfg)

	var embedder driven.Embedder
	if flagNoEmbedder {
		embedder = noop.New()
	} else {
		embedder = embedding.New(ctx, ollama.Config{
			BaseURL: cfg.EmbedderEndpoint,
			Model:   cfg.EmbedderModel,
		})
	}

	dataRoot := filepath.Dir(store.Path())

	// Record the active embedding provider so collaborators reading
	// providers.json see the same view the engine uses.
	if providers, perr := configfile.NewProviderStore(dataRoot); perr == nil {
		endpoint := cfg.EmbedderEndpoint
		if endpoint == "" {
			endpoint = ollama.DefaultBaseURL
		}
		model := cfg.EmbedderModel
		if model == "" {
			model = ollama.DefaultModel
		}
		if err := providers.SetProvider("embedding", driven.ProviderConfig{
			Endpoint: endpoint,
			Model:    model,
			Enabled:  embedder.Available(),
		}); err != nil {
			logger.Warn("Recording provider config: %v", err)
		}
	}

	ingestState, err := configfile.NewIngestStateStore(dataRoot)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("loading ingest state: %w", err)
	}

	engine := services.NewEngine(store, embedder, services.Options{
		Tier:             tier,
		MaxDocumentBytes: cfg.MaxDocumentBytes,
		Normalisers:      normalisers.Defaults(),
		IngestState:      ingestState,
	})

	shutdown := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := engine.Close(closeCtx); err != nil {
			logger.Warn("Shutdown: %v", err)
		}
	}
	return engine, shutdown, nil
}

// resolveTier prefers the flag, then the config file, then auto-detection.
func resolveTier(cfg configfile.Config) domain.CapabilityTier {
	if flagTier != "" {
		if tier, ok := domain.ParseTier(flagTier); ok {
			return tier
		}
		logger.Warn("Unknown tier %q, auto-detecting", flagTier)
	}
	if cfg.Tier != "" {
		if tier, ok := domain.ParseTier(cfg.Tier); ok {
			return tier
		}
	}
	return capability.Discover().Tier
}

