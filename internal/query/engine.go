// Package query answers natural-language questions over an index.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/trialrag/internal/llm"
	"github.com/ziadkadry99/trialrag/internal/logging"
)

// ErrEmptyIndex is returned when the index holds nothing to answer from.
var ErrEmptyIndex = errors.New("index is empty")

// Response is the answer to one question.
type Response struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

func (r *Response) String() string {
	return r.Text
}

// Engine binds a retriever to a generation model.
type Engine struct {
	retriever Retriever
	provider  llm.Provider
	model     string
	logger    *zap.Logger
}

// NewEngine creates a query engine.
func NewEngine(retriever Retriever, provider llm.Provider, model string, logger *zap.Logger) *Engine {
	return &Engine{
		retriever: retriever,
		provider:  provider,
		model:     model,
		logger:    logging.OrNop(logger),
	}
}

// Query retrieves context for question and asks the model to answer it.
func (e *Engine) Query(ctx context.Context, question string) (*Response, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}

	sources, err := e.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}
	if len(sources) == 0 {
		return nil, ErrEmptyIndex
	}
	e.logger.Debug("retrieved context",
		zap.String("question", question),
		zap.Int("nodes", len(sources)))

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model: e.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: textQASystemPrompt},
			{Role: llm.RoleUser, Content: buildQuestionPrompt(question, sources)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("LLM completion: %w", err)
	}
	e.logger.Debug("answered",
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.InputTokens),
		zap.Int("output_tokens", resp.OutputTokens))

	return &Response{
		Text:    strings.TrimSpace(resp.Content),
		Sources: sources,
	}, nil
}
