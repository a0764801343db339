package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/trialrag/internal/document"
	"github.com/ziadkadry99/trialrag/internal/embeddings"
	"github.com/ziadkadry99/trialrag/internal/logging"
	"github.com/ziadkadry99/trialrag/internal/progress"
	"github.com/ziadkadry99/trialrag/internal/vectordb"
)

// Source acquires the corpus an index is built from.
type Source interface {
	Load(ctx context.Context) ([]*document.Document, error)
}

// Fingerprinter is implemented by sources that can cheaply identify their
// current content without loading it. A changed fingerprint forces a rebuild.
type Fingerprinter interface {
	Fingerprint(ctx context.Context) (string, error)
}

// Options controls Materialize.
type Options struct {
	Embedder     embeddings.Embedder
	Rebuild      bool
	ChunkSize    int
	ChunkOverlap int
	Concurrency  int
	Reporter     progress.Reporter
	// Out receives the user-facing progress lines. Nil discards them.
	Out    io.Writer
	Logger *zap.Logger
}

// Materialized is an index ready for querying.
type Materialized struct {
	Dir      string
	Store    vectordb.VectorStore
	Manifest *Manifest
	// Built is true when the index was built by this call rather than reloaded.
	Built bool
}

// Materialize returns the index persisted in dir, building it from src
// first when dir holds no usable index. On reload src is never loaded.
func Materialize(ctx context.Context, dir string, src Source, opts Options) (*Materialized, error) {
	if opts.Embedder == nil {
		return nil, fmt.Errorf("materialize %s: no embedder configured", dir)
	}
	log := logging.OrNop(opts.Logger).With(zap.String("dir", dir))
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	var fingerprint string
	if fp, ok := src.(Fingerprinter); ok {
		var err error
		if fingerprint, err = fp.Fingerprint(ctx); err != nil {
			return nil, fmt.Errorf("fingerprinting source for %s: %w", dir, err)
		}
	}

	if !opts.Rebuild {
		m, err := ReadManifest(dir)
		switch {
		case err == nil:
			if reason := m.Stale(opts.Embedder.Name(), fingerprint); reason != "" {
				log.Info("index is stale, rebuilding", zap.String("reason", reason))
				break
			}
			return reload(ctx, dir, m, opts, out)
		case errors.Is(err, ErrNoManifest):
			if _, statErr := os.Stat(dir); statErr == nil {
				log.Warn("index directory has no usable manifest, rebuilding", zap.Error(err))
			}
		default:
			return nil, fmt.Errorf("reading manifest in %s: %w", dir, err)
		}
	}

	if err := checkReplaceable(dir); err != nil {
		return nil, err
	}
	return build(ctx, dir, src, fingerprint, opts, out, log)
}

// ErrNotAnIndex is returned when a build would replace a directory holding
// files that are not part of an index.
var ErrNotAnIndex = errors.New("directory is not an index")

// checkReplaceable succeeds when dir is missing, empty, or holds nothing but
// index files, so removing it cannot lose anything else.
func checkReplaceable(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspecting index directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.Name() != ManifestFile && e.Name() != vectordb.StoreFile {
			return fmt.Errorf("%w: %s contains %q; builds and --rebuild only replace a directory holding %s and %s, choose a dedicated index directory",
				ErrNotAnIndex, dir, e.Name(), ManifestFile, vectordb.StoreFile)
		}
	}
	return nil
}

// ErrStaleIndex is returned by Open when the persisted index cannot serve
// the configured embedding model.
var ErrStaleIndex = errors.New("index is stale")

// Open reloads the index persisted in dir without consulting any corpus.
// A directory without a manifest yields an error wrapping ErrNoManifest.
func Open(ctx context.Context, dir string, embedder embeddings.Embedder, out io.Writer) (*Materialized, error) {
	if embedder == nil {
		return nil, fmt.Errorf("open %s: no embedder configured", dir)
	}
	if out == nil {
		out = io.Discard
	}
	m, err := ReadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", dir, err)
	}
	if reason := m.Stale(embedder.Name(), ""); reason != "" {
		return nil, fmt.Errorf("%w: %s: %s", ErrStaleIndex, dir, reason)
	}
	return reload(ctx, dir, m, Options{Embedder: embedder}, out)
}

func reload(ctx context.Context, dir string, m *Manifest, opts Options, out io.Writer) (*Materialized, error) {
	fmt.Fprintf(out, "Loading index from directory [%s]\n", dir)

	store, err := vectordb.NewChromemStore(opts.Embedder)
	if err != nil {
		return nil, err
	}
	if err := store.Load(ctx, dir); err != nil {
		return nil, fmt.Errorf("index in %s is corrupt (delete the directory or rebuild): %w", dir, err)
	}
	if got := store.Count(); got != m.Nodes {
		return nil, fmt.Errorf("index in %s is corrupt: manifest lists %d nodes, store holds %d", dir, m.Nodes, got)
	}

	fmt.Fprintln(out, "Index loaded.")
	return &Materialized{Dir: dir, Store: store, Manifest: m}, nil
}

func build(ctx context.Context, dir string, src Source, fingerprint string, opts Options, out io.Writer, log *zap.Logger) (*Materialized, error) {
	docs, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquiring corpus for %s: %w", dir, err)
	}
	if len(docs) == 0 {
		log.Warn("corpus is empty; the index will not be able to answer questions")
	}

	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", parent, err)
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-staging-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	store, err := vectordb.NewChromemStore(opts.Embedder)
	if err != nil {
		return nil, err
	}
	result, err := NewPipeline(opts.Embedder, store, opts).Run(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("building index for %s: %w", dir, err)
	}
	if err := store.Persist(ctx, staging); err != nil {
		return nil, fmt.Errorf("persisting index: %w", err)
	}

	m := &Manifest{
		FormatVersion:  FormatVersion,
		EmbeddingModel: opts.Embedder.Name(),
		Fingerprint:    fingerprint,
		Documents:      result.Documents,
		Nodes:          result.Nodes,
		CreatedAt:      time.Now().UTC(),
	}
	if err := m.Write(staging); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	// The manifest is in place, so the staging directory is a complete index.
	// Recheck in case dir gained files while the corpus was embedded.
	if err := checkReplaceable(dir); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("removing stale index %s: %w", dir, err)
	}
	if err := os.Rename(staging, dir); err != nil {
		return nil, fmt.Errorf("moving index into %s: %w", dir, err)
	}

	log.Debug("index built",
		zap.Int("documents", result.Documents),
		zap.Int("nodes", result.Nodes),
		zap.Int("tokens", result.Tokens),
		zap.Duration("took", result.Duration))
	fmt.Fprintf(out, "Index stored in directory [%s]\n", dir)

	return &Materialized{Dir: dir, Store: store, Manifest: m, Built: true}, nil
}
