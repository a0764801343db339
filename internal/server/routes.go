package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/trialrag/internal/indexer"
	"github.com/ziadkadry99/trialrag/internal/query"
)

// registerIndexRoutes mounts index endpoints under /api/indexes. Sponsor
// indexes have two-segment names (sponsor/Abbott).
func registerIndexRoutes(r chi.Router, catalog Catalog) {
	r.Route("/api/indexes", func(r chi.Router) {
		r.Get("/", handleList(catalog))
		r.Post("/{name}/query", handleQuery(catalog))
		r.Post("/{name}/search", handleSearch(catalog))
		r.Post("/{group}/{name}/query", handleQuery(catalog))
		r.Post("/{group}/{name}/search", handleSearch(catalog))
	})
}

type queryRequest struct {
	Question string `json:"question"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type searchResponse struct {
	Results []query.Source `json:"results"`
}

func indexName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if group := chi.URLParam(r, "group"); group != "" {
		return group + "/" + name
	}
	return name
}

func handleList(catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, catalog.Indexes())
	}
}

func handleQuery(catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			writeError(w, http.StatusBadRequest, "question is required")
			return
		}

		resp, err := catalog.Ask(r.Context(), indexName(r), req.Question)
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleSearch(catalog Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.Query) == "" {
			writeError(w, http.StatusBadRequest, "query is required")
			return
		}

		results, err := catalog.Search(r.Context(), indexName(r), req.Query, req.Limit)
		if err != nil {
			writeCatalogError(w, err)
			return
		}
		if results == nil {
			results = []query.Source{}
		}
		writeJSON(w, http.StatusOK, searchResponse{Results: results})
	}
}

func writeCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, query.ErrUnknownIndex), errors.Is(err, indexer.ErrNoManifest):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, query.ErrEmptyIndex), errors.Is(err, indexer.ErrStaleIndex):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
