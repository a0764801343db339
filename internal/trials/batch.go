package trials

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ziadkadry99/trialrag/internal/config"
	"github.com/ziadkadry99/trialrag/internal/document"
	"github.com/ziadkadry99/trialrag/internal/embeddings"
	"github.com/ziadkadry99/trialrag/internal/indexer"
	"github.com/ziadkadry99/trialrag/internal/llm"
	"github.com/ziadkadry99/trialrag/internal/logging"
	"github.com/ziadkadry99/trialrag/internal/progress"
	"github.com/ziadkadry99/trialrag/internal/query"
	"github.com/ziadkadry99/trialrag/internal/readers"
)

// InferenceBanner is printed once before any sponsor is questioned.
const InferenceBanner = "= = = Inference = = ="

// Batch processes sponsors one at a time. Nothing is shared between
// sponsors except the model clients.
type Batch struct {
	cfg      config.Config
	embedder embeddings.Embedder
	provider llm.Provider
	out      io.Writer
	logger   *zap.Logger

	// NewReporter creates the progress reporter for one sponsor build.
	NewReporter func(description string) progress.Reporter
}

// NewBatch creates a Batch writing user-facing output to out.
func NewBatch(cfg config.Config, embedder embeddings.Embedder, provider llm.Provider, out io.Writer, logger *zap.Logger) *Batch {
	if out == nil {
		out = io.Discard
	}
	return &Batch{
		cfg:         cfg,
		embedder:    embedder,
		provider:    provider,
		out:         out,
		logger:      logging.OrNop(logger),
		NewReporter: progress.NewReporter,
	}
}

// GenerateIndices builds the index of every sponsor that has none, or
// whose database or embedding model changed. Existing indexes are reloaded
// without touching the database. rebuild forces a build for every sponsor.
func (b *Batch) GenerateIndices(ctx context.Context, sponsors []Sponsor, rebuild bool) error {
	for _, s := range sponsors {
		q, err := BuildQuery(s.Table, b.cfg.Trials.OrderBy, b.cfg.Trials.Columns)
		if err != nil {
			return fmt.Errorf("sponsor %s: %w", s.Name, err)
		}

		src := &announcingSource{
			reader: &readers.DatabaseReader{
				Path:      s.DatabasePath,
				Query:     q,
				Args:      []any{b.cfg.Trials.LimitRecords},
				Sponsor:   s.Name,
				Table:     s.Table,
				KeyColumn: b.cfg.Trials.OrderBy,
				Logger:    b.logger,
			},
			sponsor: s,
			out:     b.out,
		}

		m, err := indexer.Materialize(ctx, s.IndexDir, src, indexer.Options{
			Embedder:     b.embedder,
			Rebuild:      rebuild,
			ChunkSize:    b.cfg.ChunkSize,
			ChunkOverlap: b.cfg.ChunkOverlap,
			Concurrency:  b.cfg.EmbedConcurrency,
			Reporter:     b.NewReporter("Embedding " + s.Name),
			Out:          b.out,
			Logger:       b.logger,
		})
		if err != nil {
			return fmt.Errorf("sponsor %s: %w", s.Name, err)
		}
		b.logger.Debug("sponsor index ready",
			zap.String("sponsor", s.Name),
			zap.Bool("built", m.Built),
			zap.Int("nodes", m.Manifest.Nodes))
	}
	return nil
}

// AskQuestions reloads each sponsor's index and asks it every question.
// Unless Trials.StopAfterFirst is false only the first sponsor is
// processed. It returns the names of the sponsors that were questioned.
func (b *Batch) AskQuestions(ctx context.Context, sponsors []Sponsor, questions []string) ([]string, error) {
	fmt.Fprintf(b.out, "\n\n\n%s\n", InferenceBanner)

	var answered []string
	for _, s := range sponsors {
		fmt.Fprintf(b.out, "\n\n= = = = = Sponsor: %s = = = = =\n\n", s.Name)

		m, err := indexer.Open(ctx, s.IndexDir, b.embedder, b.out)
		if err != nil {
			if errors.Is(err, indexer.ErrNoManifest) {
				return answered, fmt.Errorf("sponsor %s has no index in %s (run `trialrag sponsors index` first): %w", s.Name, s.IndexDir, err)
			}
			return answered, fmt.Errorf("sponsor %s: %w", s.Name, err)
		}

		engine := query.NewEngine(
			&query.VectorRetriever{Store: m.Store, TopK: b.cfg.SimilarityTopK},
			b.provider, b.cfg.Model, b.logger)

		for _, q := range questions {
			resp, err := engine.Query(ctx, q)
			if err != nil {
				return answered, fmt.Errorf("sponsor %s: %w", s.Name, err)
			}
			fmt.Fprintf(b.out, "%s \n\n", resp)
		}
		answered = append(answered, s.Name)

		if b.cfg.Trials.StopAfterFirst {
			break
		}
	}
	return answered, nil
}

// announcingSource prints the sponsor progress lines around the database
// read, so they appear only when an index is actually built.
type announcingSource struct {
	reader  *readers.DatabaseReader
	sponsor Sponsor
	out     io.Writer
}

func (a *announcingSource) Load(ctx context.Context) ([]*document.Document, error) {
	fmt.Fprintf(a.out, "\n\nRetrieve data from SQLite3 file for [%s]\n\n", a.sponsor.Name)
	docs, err := a.reader.Load(ctx)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(a.out, "Database results received.\nWill generate index in directory [%s]\n\n", a.sponsor.IndexDir)
	return docs, nil
}

// Fingerprint reports no fingerprint for a missing database so that an
// existing index can still be reloaded.
func (a *announcingSource) Fingerprint(ctx context.Context) (string, error) {
	fp, err := a.reader.Fingerprint(ctx)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	return fp, err
}
