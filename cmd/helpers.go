package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/trialrag/internal/config"
	"github.com/ziadkadry99/trialrag/internal/embeddings"
	"github.com/ziadkadry99/trialrag/internal/llm"
	"github.com/ziadkadry99/trialrag/internal/logging"
	"github.com/ziadkadry99/trialrag/internal/query"
	"github.com/ziadkadry99/trialrag/internal/trials"
)

// loadConfig loads .env, then the config file with env overrides, and
// validates the result.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `trialrag init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger for one command run.
func newLogger(cfg *config.Config) *zap.Logger {
	return logging.New(verbose, cfg.LogFile)
}

// createEmbedderFromConfig creates the embedding client for cfg.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	e, err := embeddings.NewEmbedder(*cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return e, nil
}

// createLLMProviderFromConfig creates the generation client for cfg.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	p, err := llm.NewProvider(*cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	return p, nil
}

// catalogEntries names every index the serving surfaces expose: the PDF
// index as "pdf" and each configured sponsor as "sponsor/<Name>".
func catalogEntries(cfg *config.Config) ([]query.Entry, error) {
	entries := []query.Entry{{Name: "pdf", Dir: cfg.PDF.IndexDir}}
	sponsors, err := trials.Sponsors(*cfg)
	if err != nil {
		return nil, err
	}
	for _, s := range sponsors {
		entries = append(entries, query.Entry{Name: "sponsor/" + s.Name, Dir: s.IndexDir})
	}
	return entries, nil
}

// newCatalog builds the index catalog shared by `serve` and `server`.
func newCatalog(cfg *config.Config, logger *zap.Logger) (*query.Catalog, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	entries, err := catalogEntries(cfg)
	if err != nil {
		return nil, err
	}
	return query.NewCatalog(*cfg, entries, embedder, provider, logger), nil
}
