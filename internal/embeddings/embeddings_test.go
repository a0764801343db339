package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ziadkadry99/trialrag/internal/config"
)

func fakeOllamaEmbed(t *testing.T, model string, dims int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding embed request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if req.Model != model {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"model \"` + req.Model + `\" not found, try pulling it first"}`))
			return
		}
		out := make([][]float32, len(req.Input))
		for i, s := range req.Input {
			vec := make([]float32, dims)
			vec[len(s)%dims] = 1
			out[i] = vec
		}
		json.NewEncoder(w).Encode(map[string]any{"model": model, "embeddings": out})
	}))
}

func TestOllamaEmbedderBatch(t *testing.T) {
	srv := fakeOllamaEmbed(t, "nomic-embed-text", 8)
	defer srv.Close()

	e, err := NewOllamaEmbedder("nomic-embed-text", 8, srv.URL, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := e.Embed(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
	if vecs[1][2] != 1 {
		t.Errorf("vectors returned out of order: %v", vecs[1])
	}
	if e.Name() != "ollama/nomic-embed-text" {
		t.Errorf("unexpected name %q", e.Name())
	}
}

func TestOllamaEmbedderEmptyInput(t *testing.T) {
	e, err := NewOllamaEmbedder("nomic-embed-text", 8, "http://127.0.0.1:1", nil)
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := e.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("expected no call for empty input, got %v, %v", vecs, err)
	}
}

func TestOllamaEmbedderModelNotFound(t *testing.T) {
	srv := fakeOllamaEmbed(t, "nomic-embed-text", 8)
	defer srv.Close()

	e, err := NewOllamaEmbedder("mxbai-embed-large", 8, srv.URL, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.Embed(context.Background(), []string{"x"})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","model":"local-embed","data":[{"object":"embedding","index":0,"embedding":[0.5,0.5]},{"object":"embedding","index":1,"embedding":[1,0]}]}`))
	}))
	defer srv.Close()

	e := NewOpenAIEmbedder(srv.URL+"/v1", "", "local-embed", 2, srv.Client())
	vecs, err := e.Embed(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 || vecs[1][0] != 1 {
		t.Errorf("unexpected vectors %v", vecs)
	}
}

func TestToChromemFunc(t *testing.T) {
	srv := fakeOllamaEmbed(t, "nomic-embed-text", 4)
	defer srv.Close()

	e, err := NewOllamaEmbedder("nomic-embed-text", 4, srv.URL, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	fn := ToChromemFunc(e)
	vec, err := fn(context.Background(), "abc")
	if err != nil {
		t.Fatalf("chromem func: %v", err)
	}
	if len(vec) != 4 || vec[3] != 1 {
		t.Errorf("unexpected vector %v", vec)
	}
}

func TestNewEmbedder(t *testing.T) {
	cfg := config.DefaultConfig()
	e, err := NewEmbedder(*cfg)
	if err != nil {
		t.Fatalf("NewEmbedder: %v", err)
	}
	if e.Dimensions() != 768 {
		t.Errorf("expected 768 dims, got %d", e.Dimensions())
	}

	cfg.Provider = "bogus"
	if _, err := NewEmbedder(*cfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}
