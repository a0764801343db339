// Package readers turns on-disk corpora into documents for indexing.
package readers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/trialrag/internal/document"
	"github.com/ziadkadry99/trialrag/internal/logging"
	"github.com/ziadkadry99/trialrag/internal/walker"
)

// File metadata keys set by DirectoryReader.
const (
	MetaFilePath         = "file_path"
	MetaFileName         = "file_name"
	MetaFileType         = "file_type"
	MetaFileSize         = "file_size"
	MetaLastModifiedDate = "last_modified_date"
	MetaPageCount        = "page_count"
)

// hiddenFileKeys are shown to neither model; only the path is useful context.
var hiddenFileKeys = []string{
	MetaFileName,
	MetaFileType,
	MetaFileSize,
	MetaLastModifiedDate,
	MetaPageCount,
}

// DirectoryReader reads every document under a directory tree, one
// Document per file.
type DirectoryReader struct {
	Dir     string
	Include []string
	Exclude []string
	// IndexDir is never read, so an index kept inside Dir does not feed
	// itself back into the corpus.
	IndexDir string
	Logger   *zap.Logger
}

// NewDirectoryReader creates a reader for dir.
func NewDirectoryReader(dir string, include, exclude []string, logger *zap.Logger) *DirectoryReader {
	return &DirectoryReader{Dir: dir, Include: include, Exclude: exclude, Logger: logger}
}

func (r *DirectoryReader) walk() ([]walker.FileInfo, error) {
	log := logging.OrNop(r.Logger)
	var skip []string
	if r.IndexDir != "" {
		skip = []string{r.IndexDir}
	}
	files, err := walker.Walk(walker.Options{
		Root:     r.Dir,
		Include:  r.Include,
		Exclude:  r.Exclude,
		SkipDirs: skip,
		OnSkip: func(rel string, reason walker.SkipReason) {
			log.Debug("skipping file", zap.String("file", rel), zap.String("reason", string(reason)))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("reading data directory %s: %w", r.Dir, err)
	}
	return files, nil
}

// Fingerprint identifies the current directory content without parsing it.
// A missing directory has no fingerprint, so an index built from it earlier
// can still be reloaded.
func (r *DirectoryReader) Fingerprint(ctx context.Context) (string, error) {
	if _, err := os.Stat(r.Dir); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	files, err := r.walk()
	if err != nil {
		return "", err
	}
	// Walk returns files ordered by path.
	h := sha256.New()
	for _, f := range files {
		fmt.Fprintf(h, "%s\x00%s\n", f.RelPath, f.ContentHash)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Load reads every file. Unreadable files are skipped with a warning; a
// missing directory is an error.
func (r *DirectoryReader) Load(ctx context.Context) ([]*document.Document, error) {
	log := logging.OrNop(r.Logger)

	files, err := r.walk()
	if err != nil {
		return nil, err
	}

	docs := make([]*document.Document, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		meta := map[string]string{
			MetaFilePath:         f.Path,
			MetaFileName:         f.Name,
			MetaFileType:         f.FileType,
			MetaFileSize:         strconv.FormatInt(f.Size, 10),
			MetaLastModifiedDate: f.ModTime.Format(time.DateOnly),
		}

		var text string
		if f.FileType == walker.FileTypePDF {
			pages, body, err := ReadPDF(f.Path)
			if err != nil {
				log.Warn("skipping unreadable pdf", zap.String("file", f.RelPath), zap.Error(err))
				continue
			}
			meta[MetaPageCount] = strconv.Itoa(pages)
			text = body
		} else {
			data, err := os.ReadFile(f.Path)
			if err != nil {
				log.Warn("skipping unreadable file", zap.String("file", f.RelPath), zap.Error(err))
				continue
			}
			text = string(data)
		}

		if strings.TrimSpace(text) == "" {
			log.Debug("skipping file without text", zap.String("file", f.RelPath))
			continue
		}

		docs = append(docs, document.New(text, meta,
			document.WithID(f.RelPath),
			document.WithExcludedLLMKeys(hiddenFileKeys...),
			document.WithExcludedEmbedKeys(hiddenFileKeys...),
		))
	}

	log.Debug("read data directory", zap.String("dir", r.Dir), zap.Int("documents", len(docs)))
	return docs, nil
}
