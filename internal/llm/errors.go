package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
)

// ErrModelNotFound is returned when the server does not have the requested
// model. With Ollama this means it was never pulled onto the host.
var ErrModelNotFound = errors.New("model not found")

// PullHint returns the command that installs model on an Ollama host.
func PullHint(model string) string {
	return "ollama pull " + model
}

// classify maps a server error for model onto ErrModelNotFound when the
// server reported a 404, leaving every other error untouched.
func classify(err error, model string) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		return fmt.Errorf("%w: %q (try: %s): %v", ErrModelNotFound, model, PullHint(model), err)
	}
	return err
}

func isNotFound(err error) bool {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusNotFound {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "not found") && strings.Contains(msg, "model")
}
