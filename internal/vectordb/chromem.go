package vectordb

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ziadkadry99/trialrag/internal/embeddings"
)

const collectionName = "nodes"

// ChromemStore implements VectorStore using chromem-go.
type ChromemStore struct {
	db          *chromem.DB
	collection  *chromem.Collection
	embedFunc   chromem.EmbeddingFunc
	concurrency int
}

// NewChromemStore creates a new in-memory ChromemStore. The embedder is only
// used for query text; stored documents carry their own vectors.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:          db,
		collection:  col,
		embedFunc:   ef,
		concurrency: 1,
	}, nil
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: doc.Embedding,
			Metadata:  maps.Clone(doc.Metadata),
		}
	}

	return s.collection.AddDocuments(ctx, chromDocs, s.concurrency)
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int, where map[string]string) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	limit = min(limit, count)
	if len(where) == 0 {
		where = nil
	}

	results, err := s.collection.Query(ctx, query, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: r.Metadata,
			},
			Similarity: r.Similarity,
		}
	}

	return searchResults, nil
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	if err := s.db.ExportToFile(filepath.Join(dir, StoreFile), true, ""); err != nil {
		return fmt.Errorf("export to file: %w", err)
	}
	return nil
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	err := s.db.ImportFromFile(filepath.Join(dir, StoreFile), "")
	if err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}
