package vectordb

import "context"

// StoreFile is the name of the persisted store inside an index directory.
const StoreFile = "chromem.gob.gz"

// VectorStore defines the interface for storing and searching documents by embeddings.
type VectorStore interface {
	// AddDocuments adds or updates documents in the store. Documents with
	// a precomputed Embedding are stored as-is.
	AddDocuments(ctx context.Context, docs []Document) error

	// Search performs a semantic search using the query text. where narrows
	// results by exact metadata match and may be nil.
	Search(ctx context.Context, query string, limit int, where map[string]string) ([]SearchResult, error)

	// Persist saves the store's data to the given directory.
	Persist(ctx context.Context, dir string) error

	// Load restores the store's data from the given directory.
	Load(ctx context.Context, dir string) error

	// Count returns the total number of documents in the store.
	Count() int
}
