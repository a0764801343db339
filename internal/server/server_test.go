package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ziadkadry99/trialrag/internal/indexer"
	"github.com/ziadkadry99/trialrag/internal/llm"
	"github.com/ziadkadry99/trialrag/internal/query"
)

// mockCatalog implements Catalog for testing.
type mockCatalog struct {
	asked    []string
	searched []string
	askErr   error
}

func (m *mockCatalog) Indexes() []query.IndexInfo {
	return []query.IndexInfo{
		{Name: "pdf", Dir: "_index", Available: true, Documents: 3, Nodes: 3},
		{Name: "sponsor/Abbott", Dir: "_Datafiles/_Abbott"},
	}
}

func (m *mockCatalog) check(name string) error {
	switch name {
	case "pdf", "sponsor/Pfizer":
		return nil
	case "sponsor/Abbott":
		return fmt.Errorf("opening index: %w", indexer.ErrNoManifest)
	}
	return fmt.Errorf("%w: %q", query.ErrUnknownIndex, name)
}

func (m *mockCatalog) Ask(_ context.Context, name, question string) (*query.Response, error) {
	if err := m.check(name); err != nil {
		return nil, err
	}
	if m.askErr != nil {
		return nil, m.askErr
	}
	m.asked = append(m.asked, name+": "+question)
	return &query.Response{
		Text:    "Acme, Inc.",
		Sources: []query.Source{{NodeID: "doc#0", RefDocID: "doc", Text: "sponsor: Acme, Inc.", Score: 0.8}},
	}, nil
}

func (m *mockCatalog) Search(_ context.Context, name, text string, limit int) ([]query.Source, error) {
	if err := m.check(name); err != nil {
		return nil, err
	}
	m.searched = append(m.searched, fmt.Sprintf("%s: %s (%d)", name, text, limit))
	return nil, nil
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	srv := New(Config{Port: 0}, &mockCatalog{}, nil)

	w := do(t, srv, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", body["status"])
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := New(Config{Port: 0, AllowAll: true}, &mockCatalog{}, nil)

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestListIndexes(t *testing.T) {
	srv := New(Config{}, &mockCatalog{}, nil)

	w := do(t, srv, "GET", "/api/indexes", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var infos []query.IndexInfo
	if err := json.Unmarshal(w.Body.Bytes(), &infos); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(infos) != 2 || infos[1].Name != "sponsor/Abbott" || infos[1].Available {
		t.Errorf("unexpected indexes %+v", infos)
	}
}

func TestQueryIndex(t *testing.T) {
	cat := &mockCatalog{}
	srv := New(Config{}, cat, nil)

	w := do(t, srv, "POST", "/api/indexes/pdf/query", `{"question":"Who is the sponsor?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var body struct {
		Answer  string         `json:"answer"`
		Sources []query.Source `json:"sources"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Answer != "Acme, Inc." || len(body.Sources) != 1 || body.Sources[0].RefDocID != "doc" {
		t.Errorf("unexpected body %+v", body)
	}

	w = do(t, srv, "POST", "/api/indexes/sponsor/Pfizer/query", `{"question":"How many studies?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("sponsor query: expected 200, got %d", w.Code)
	}
	if len(cat.asked) != 2 || cat.asked[1] != "sponsor/Pfizer: How many studies?" {
		t.Errorf("asked = %v", cat.asked)
	}
}

func TestQueryIndexErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		askErr error
		want   int
	}{
		{"bad json", "/api/indexes/pdf/query", `{`, nil, http.StatusBadRequest},
		{"empty question", "/api/indexes/pdf/query", `{"question":"  "}`, nil, http.StatusBadRequest},
		{"unknown index", "/api/indexes/notes/query", `{"question":"q?"}`, nil, http.StatusNotFound},
		{"not built", "/api/indexes/sponsor/Abbott/query", `{"question":"q?"}`, nil, http.StatusNotFound},
		{"empty index", "/api/indexes/pdf/query", `{"question":"q?"}`, query.ErrEmptyIndex, http.StatusConflict},
		{"model missing", "/api/indexes/pdf/query", `{"question":"q?"}`, llm.ErrModelNotFound, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := New(Config{}, &mockCatalog{askErr: tt.askErr}, nil)
			w := do(t, srv, "POST", tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			var body map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["error"] == "" {
				t.Errorf("expected JSON error body, got %q", w.Body.String())
			}
		})
	}
}

func TestSearchIndex(t *testing.T) {
	cat := &mockCatalog{}
	srv := New(Config{}, cat, nil)

	w := do(t, srv, "POST", "/api/indexes/pdf/search", `{"query":"elastography","limit":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"results":[]`) {
		t.Errorf("empty results should encode as [], got %s", w.Body.String())
	}
	if len(cat.searched) != 1 || cat.searched[0] != "pdf: elastography (3)" {
		t.Errorf("searched = %v", cat.searched)
	}

	w = do(t, srv, "POST", "/api/indexes/pdf/search", `{"limit":3}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing query: status = %d, want 400", w.Code)
	}
}
