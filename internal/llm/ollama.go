package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"
)

// OllamaProvider implements Provider against a local Ollama daemon.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllamaProvider creates a new Ollama provider. httpClient carries the
// request timeout; nil uses http.DefaultClient.
func NewOllamaProvider(baseURL string, model string, httpClient *http.Client) (*OllamaProvider, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &OllamaProvider{
		client: api.NewClient(base, httpClient),
		model:  model,
	}, nil
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	messages := make([]api.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	options := map[string]any{}
	if req.Temperature != 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens != 0 {
		options["num_predict"] = req.MaxTokens
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}

	var out *CompletionResponse
	err := p.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		if out == nil {
			out = &CompletionResponse{}
		}
		out.Content += resp.Message.Content
		if resp.Done {
			out.Model = resp.Model
			out.FinishReason = resp.DoneReason
			out.InputTokens = resp.PromptEvalCount
			out.OutputTokens = resp.EvalCount
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat: %w", classify(err, model))
	}
	if out == nil {
		return nil, fmt.Errorf("ollama chat: empty response")
	}
	return out, nil
}

// ListModels returns the models installed on the daemon (GET /api/tags).
func (p *OllamaProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := p.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("ollama list: %w", err)
	}
	models := make([]ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, ModelInfo{Name: m.Name, Size: m.Size})
	}
	return models, nil
}
