package query

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/ziadkadry99/trialrag/internal/config"
	"github.com/ziadkadry99/trialrag/internal/embeddings"
	"github.com/ziadkadry99/trialrag/internal/indexer"
	"github.com/ziadkadry99/trialrag/internal/llm"
	"github.com/ziadkadry99/trialrag/internal/logging"
	"github.com/ziadkadry99/trialrag/internal/vectordb"
)

// ErrUnknownIndex is returned for an index name the catalog does not list.
var ErrUnknownIndex = errors.New("unknown index")

// Entry names a persisted index directory.
type Entry struct {
	Name string
	Dir  string
}

// IndexInfo describes a catalog entry and, when built, its manifest.
type IndexInfo struct {
	Name           string    `json:"name"`
	Dir            string    `json:"dir"`
	Available      bool      `json:"available"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`
	Documents      int       `json:"documents,omitempty"`
	Nodes          int       `json:"nodes,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitzero"`
}

type loadedIndex struct {
	store  vectordb.VectorStore
	engine *Engine
}

// Catalog serves questions against a fixed set of persisted indexes,
// loading each on first use and unloading it after server.index_idle_timeout
// without queries. It is safe for concurrent use.
type Catalog struct {
	embedder embeddings.Embedder
	provider llm.Provider
	model    string
	topK     int
	logger   *zap.Logger
	entries  map[string]Entry

	// mu serializes loads so an index is read from disk once.
	mu     sync.Mutex
	loaded *cache.Cache
}

// NewCatalog creates a catalog over entries.
func NewCatalog(cfg config.Config, entries []Entry, embedder embeddings.Embedder, provider llm.Provider, logger *zap.Logger) *Catalog {
	c := &Catalog{
		embedder: embedder,
		provider: provider,
		model:    cfg.Model,
		topK:     cfg.SimilarityTopK,
		logger:   logging.OrNop(logger),
		entries:  make(map[string]Entry, len(entries)),
		loaded:   newEngineCache(cfg.Server.IdleTimeout()),
	}
	for _, e := range entries {
		c.entries[e.Name] = e
	}
	return c
}

// Indexes lists every entry, sorted by name, with manifest details for
// those that have been built.
func (c *Catalog) Indexes() []IndexInfo {
	infos := make([]IndexInfo, 0, len(c.entries))
	for _, e := range c.entries {
		info := IndexInfo{Name: e.Name, Dir: e.Dir}
		if m, err := indexer.ReadManifest(e.Dir); err == nil {
			info.Available = true
			info.EmbeddingModel = m.EmbeddingModel
			info.Documents = m.Documents
			info.Nodes = m.Nodes
			info.CreatedAt = m.CreatedAt
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func (c *Catalog) load(ctx context.Context, name string) (*loadedIndex, error) {
	e, ok := c.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIndex, name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if x, ok := c.loaded.Get(name); ok {
		// Touch the entry so an index in use is never unloaded.
		c.loaded.SetDefault(name, x)
		return x.(*loadedIndex), nil
	}

	m, err := indexer.Open(ctx, e.Dir, c.embedder, nil)
	if err != nil {
		return nil, err
	}
	l := &loadedIndex{
		store:  m.Store,
		engine: NewEngine(&VectorRetriever{Store: m.Store, TopK: c.topK}, c.provider, c.model, c.logger),
	}
	c.loaded.SetDefault(name, l)
	c.logger.Info("index loaded", zap.String("index", name), zap.Int("nodes", m.Store.Count()))
	return l, nil
}

func newEngineCache(idle time.Duration) *cache.Cache {
	if idle <= 0 {
		return cache.New(cache.NoExpiration, 0)
	}
	return cache.New(idle, idle/2)
}

// Ask answers question from the named index.
func (c *Catalog) Ask(ctx context.Context, name, question string) (*Response, error) {
	l, err := c.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return l.engine.Query(ctx, question)
}

// Search returns up to limit nodes of the named index similar to text.
// A non-positive limit uses the configured top k.
func (c *Catalog) Search(ctx context.Context, name, text string, limit int) ([]Source, error) {
	l, err := c.load(ctx, name)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = c.topK
	}
	return Search(ctx, l.store, text, limit, nil)
}
