package indexer

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/trialrag/internal/document"
	"github.com/ziadkadry99/trialrag/internal/embeddings"
	"github.com/ziadkadry99/trialrag/internal/logging"
	"github.com/ziadkadry99/trialrag/internal/progress"
	"github.com/ziadkadry99/trialrag/internal/vectordb"
)

// embedBatchSize is the number of node texts sent per embedding request.
const embedBatchSize = 16

// Pipeline orchestrates index construction: split -> embed -> store.
type Pipeline struct {
	embedder    embeddings.Embedder
	store       vectordb.VectorStore
	chunkSize   int
	overlap     int
	concurrency int
	reporter    progress.Reporter
	logger      *zap.Logger
}

// PipelineResult summarizes the outcome of a build.
type PipelineResult struct {
	Documents int
	Nodes     int
	Tokens    int // estimated, see document.EstimateTokens
	Duration  time.Duration
}

// NewPipeline creates a new Pipeline writing into store.
func NewPipeline(embedder embeddings.Embedder, store vectordb.VectorStore, opts Options) *Pipeline {
	p := &Pipeline{
		embedder:    embedder,
		store:       store,
		chunkSize:   opts.ChunkSize,
		overlap:     opts.ChunkOverlap,
		concurrency: max(1, opts.Concurrency),
		reporter:    opts.Reporter,
		logger:      logging.OrNop(opts.Logger),
	}
	if p.reporter == nil {
		p.reporter = progress.Nop{}
	}
	return p
}

// Run splits docs into nodes, embeds what the embedding model should see
// and stores what the generation model should see.
func (p *Pipeline) Run(ctx context.Context, docs []*document.Document) (*PipelineResult, error) {
	start := time.Now()

	var nodes []document.Node
	for _, doc := range docs {
		nodes = append(nodes, doc.Nodes(p.chunkSize, p.overlap)...)
	}
	p.logger.Debug("split corpus", zap.Int("documents", len(docs)), zap.Int("nodes", len(nodes)))

	vectors, tokens, err := p.embed(ctx, nodes)
	if err != nil {
		return nil, err
	}

	stored := make([]vectordb.Document, len(nodes))
	for i, n := range nodes {
		meta := make(map[string]string, len(n.Metadata)+2)
		for k, v := range n.Metadata {
			meta[k] = v
		}
		meta[vectordb.MetaRefDocID] = n.RefDocID
		meta[vectordb.MetaNodeIdx] = strconv.Itoa(n.Index)

		stored[i] = vectordb.Document{
			ID:        n.ID,
			Content:   n.Content(document.MetadataModeLLM),
			Embedding: vectors[i],
			Metadata:  meta,
		}
	}
	if err := p.store.AddDocuments(ctx, stored); err != nil {
		return nil, fmt.Errorf("store nodes: %w", err)
	}

	return &PipelineResult{
		Documents: len(docs),
		Nodes:     len(nodes),
		Tokens:    tokens,
		Duration:  time.Since(start),
	}, nil
}

// embed computes one vector per node, fanning batches out over at most
// p.concurrency requests. It also returns the estimated token count sent.
func (p *Pipeline) embed(ctx context.Context, nodes []document.Node) ([][]float32, int, error) {
	vectors := make([][]float32, len(nodes))
	if len(nodes) == 0 {
		return vectors, 0, nil
	}

	p.reporter.Start(len(nodes))
	defer p.reporter.Finish()

	var (
		mu     sync.Mutex
		done   int
		tokens int
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for start := 0; start < len(nodes); start += embedBatchSize {
		end := min(start+embedBatchSize, len(nodes))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			batchTokens := 0
			for _, n := range nodes[start:end] {
				text := n.Content(document.MetadataModeEmbed)
				texts = append(texts, text)
				batchTokens += document.EstimateTokens(text)
			}
			vecs, err := p.embedder.Embed(gCtx, texts)
			if err != nil {
				return fmt.Errorf("embedding nodes %s..%s: %w", nodes[start].ID, nodes[end-1].ID, err)
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("embedder returned %d vectors for %d nodes", len(vecs), len(texts))
			}
			copy(vectors[start:end], vecs)

			mu.Lock()
			done += len(vecs)
			tokens += batchTokens
			p.reporter.Update(done, nodes[end-1].ID)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return vectors, tokens, nil
}
