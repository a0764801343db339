package query

import (
	"context"
	"fmt"
	"maps"

	"github.com/ziadkadry99/trialrag/internal/document"
	"github.com/ziadkadry99/trialrag/internal/vectordb"
)

// Source is one retrieved node handed to the model.
type Source struct {
	NodeID   string            `json:"node_id"`
	RefDocID string            `json:"ref_doc_id"`
	Text     string            `json:"text"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Retriever selects the nodes relevant to a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]Source, error)
}

// VectorRetriever returns the TopK nodes most similar to the question.
// A non-empty Where keeps only nodes whose metadata holds every pair.
type VectorRetriever struct {
	Store vectordb.VectorStore
	TopK  int
	Where map[string]string
}

// Retrieve implements Retriever.
func (r *VectorRetriever) Retrieve(ctx context.Context, question string) ([]Source, error) {
	return Search(ctx, r.Store, question, r.TopK, r.Where)
}

// Search returns up to limit nodes of store ranked by similarity to text,
// restricted to nodes matching where.
func Search(ctx context.Context, store vectordb.VectorStore, text string, limit int, where map[string]string) ([]Source, error) {
	results, err := store.Search(ctx, text, limit, where)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	sources := make([]Source, len(results))
	for i, r := range results {
		meta := maps.Clone(r.Document.Metadata)
		ref := meta[vectordb.MetaRefDocID]
		delete(meta, vectordb.MetaRefDocID)
		delete(meta, vectordb.MetaNodeIdx)
		sources[i] = Source{
			NodeID:   r.Document.ID,
			RefDocID: ref,
			Text:     r.Document.Content,
			Score:    r.Similarity,
			Metadata: meta,
		}
	}
	return sources, nil
}

// RefDocInfo lists the nodes a source document was split into.
type RefDocInfo struct {
	NodeIDs  []string
	Metadata map[string]string
}

// SummaryIndex keeps nodes in memory and hands every one of them to the
// model, in insertion order, regardless of the question.
type SummaryIndex struct {
	chunkSize int
	overlap   int
	nodes     []document.Node
	refDocs   map[string]*RefDocInfo
}

// NewSummaryIndex creates an empty SummaryIndex that splits inserted
// documents into chunks of chunkSize tokens.
func NewSummaryIndex(chunkSize, overlap int) *SummaryIndex {
	return &SummaryIndex{
		chunkSize: chunkSize,
		overlap:   overlap,
		refDocs:   map[string]*RefDocInfo{},
	}
}

// Insert splits doc into nodes and appends them.
func (s *SummaryIndex) Insert(doc *document.Document) {
	nodes := doc.Nodes(s.chunkSize, s.overlap)
	info, ok := s.refDocs[doc.ID]
	if !ok {
		info = &RefDocInfo{Metadata: maps.Clone(doc.Metadata)}
		s.refDocs[doc.ID] = info
	}
	for _, n := range nodes {
		info.NodeIDs = append(info.NodeIDs, n.ID)
	}
	s.nodes = append(s.nodes, nodes...)
}

// Len returns the number of nodes held.
func (s *SummaryIndex) Len() int {
	return len(s.nodes)
}

// RefDocInfo returns the node breakdown of every inserted document.
func (s *SummaryIndex) RefDocInfo() map[string]RefDocInfo {
	out := make(map[string]RefDocInfo, len(s.refDocs))
	for id, info := range s.refDocs {
		out[id] = RefDocInfo{
			NodeIDs:  append([]string(nil), info.NodeIDs...),
			Metadata: maps.Clone(info.Metadata),
		}
	}
	return out
}

// Retrieve implements Retriever.
func (s *SummaryIndex) Retrieve(ctx context.Context, question string) ([]Source, error) {
	sources := make([]Source, len(s.nodes))
	for i, n := range s.nodes {
		sources[i] = Source{
			NodeID:   n.ID,
			RefDocID: n.RefDocID,
			Text:     n.Content(document.MetadataModeLLM),
			Metadata: maps.Clone(n.Metadata),
		}
	}
	return sources, nil
}
