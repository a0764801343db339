package embeddings

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
)

// ErrModelNotFound is returned when the server does not have the requested
// embedding model.
var ErrModelNotFound = errors.New("embedding model not found")

func classify(err error, model string) error {
	if err == nil {
		return nil
	}
	var statusErr api.StatusError
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound,
		errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound,
		errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusNotFound,
		strings.Contains(err.Error(), "not found") && strings.Contains(err.Error(), "model"):
		return fmt.Errorf("%w: %q (try: ollama pull %s): %v", ErrModelNotFound, model, model, err)
	}
	return err
}
