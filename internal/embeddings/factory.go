package embeddings

import (
	"fmt"
	"net/http"

	"github.com/ziadkadry99/trialrag/internal/config"
)

// NewEmbedder creates the embedder selected by cfg, sharing the provider,
// base URL and request timeout with the generation client.
func NewEmbedder(cfg config.Config) (Embedder, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout()}

	switch cfg.Provider {
	case config.ProviderOllama:
		return NewOllamaEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDimensions, cfg.BaseURL, httpClient)
	case config.ProviderOpenAI:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("provider openai requires base_url")
		}
		return NewOpenAIEmbedder(cfg.BaseURL, cfg.APIKey, cfg.EmbeddingModel, cfg.EmbeddingDimensions, httpClient), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
