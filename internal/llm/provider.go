package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// ModelLister is implemented by providers that can enumerate the models
// installed on their server.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}
