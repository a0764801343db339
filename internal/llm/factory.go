package llm

import (
	"fmt"
	"net/http"

	"github.com/ziadkadry99/trialrag/internal/config"
)

// NewProvider creates the generation provider selected by cfg. Every request
// is bounded by cfg's request timeout.
func NewProvider(cfg config.Config) (Provider, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout()}

	switch cfg.Provider {
	case config.ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOllamaBaseURL
		}
		return NewOllamaProvider(baseURL, cfg.Model, httpClient)

	case config.ProviderOpenAI:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("provider openai requires base_url")
		}
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, httpClient), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Provider)
	}
}
