package vectordb

// Metadata keys the indexer sets on every stored node.
const (
	MetaRefDocID = "ref_doc_id"
	MetaNodeIdx  = "node_index"
)

// Document is one stored node: the text the generation model sees, the
// vector computed from the text the embedding model sees, and flat metadata.
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}
