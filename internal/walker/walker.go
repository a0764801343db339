// Package walker discovers the document files under a data directory.
package walker

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// DefaultMaxFileSize is the maximum file size to process (64 MB). Scanned
// protocol PDFs are large.
const DefaultMaxFileSize int64 = 64 << 20

// SkipReason says why Walk left a file out.
type SkipReason string

const (
	SkipIgnored     SkipReason = "matched .gitignore"
	SkipNotIncluded SkipReason = "not matched by include patterns"
	SkipExcluded    SkipReason = "matched exclude patterns"
	SkipTooLarge    SkipReason = "larger than the size limit"
	SkipBinary      SkipReason = "binary content"
	SkipUnreadable  SkipReason = "unreadable"
)

// FileInfo describes one document file found by Walk.
type FileInfo struct {
	Path        string    // Absolute path on disk.
	RelPath     string    // Slash-separated path relative to the root directory.
	Name        string    // Base name.
	Size        int64     // File size in bytes.
	ModTime     time.Time // Last modification time.
	FileType    string    // MIME type, see DetectFileType.
	ContentHash string    // SHA-256 hex digest of the file content.
}

// Options controls Walk.
type Options struct {
	Root        string
	Include     []string // doublestar globs; empty includes everything
	Exclude     []string // doublestar globs
	MaxFileSize int64    // 0 uses DefaultMaxFileSize
	SkipDirs    []string // directories never entered, e.g. an index inside Root

	// OnSkip, when set, is told about every regular file left out.
	OnSkip func(relPath string, reason SkipReason)
}

// Walk returns the document files under opts.Root ordered by path. PDFs are
// always kept; other files containing NUL bytes are treated as binary and
// skipped. A .gitignore at the root is honoured.
func Walk(opts Options) ([]FileInfo, error) {
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("walker: %s is not a directory", root)
	}

	w := &walk{
		opts:    opts,
		root:    root,
		maxSize: opts.MaxFileSize,
		ignore:  loadIgnoreRules(filepath.Join(root, ".gitignore")),
	}
	if w.maxSize <= 0 {
		w.maxSize = DefaultMaxFileSize
	}
	for _, d := range opts.SkipDirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return nil, fmt.Errorf("walker: resolve %s: %w", d, err)
		}
		w.skipDirs = append(w.skipDirs, abs)
	}

	if err := filepath.WalkDir(root, w.visit); err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}
	return w.files, nil
}

type walk struct {
	opts     Options
	root     string
	maxSize  int64
	ignore   ignoreRules
	skipDirs []string
	files    []FileInfo
}

func (w *walk) visit(path string, d fs.DirEntry, walkErr error) error {
	if path == w.root {
		return walkErr
	}
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return nil
	}
	rel = filepath.ToSlash(rel)

	if walkErr != nil {
		// An unreadable subtree or file does not abort the walk.
		w.skip(rel, SkipUnreadable)
		if d != nil && d.IsDir() {
			return filepath.SkipDir
		}
		return nil
	}

	if d.IsDir() {
		if skippedName(d.Name()) || slices.Contains(w.skipDirs, path) || w.ignore.ignored(rel, true) {
			return filepath.SkipDir
		}
		return nil
	}
	if !d.Type().IsRegular() || skippedName(d.Name()) {
		return nil
	}

	if reason, ok := w.accept(path, rel, d); !ok {
		w.skip(rel, reason)
		return nil
	}

	info, err := d.Info()
	if err != nil {
		w.skip(rel, SkipUnreadable)
		return nil
	}
	hash, err := HashFile(path)
	if err != nil {
		w.skip(rel, SkipUnreadable)
		return nil
	}

	w.files = append(w.files, FileInfo{
		Path:        path,
		RelPath:     rel,
		Name:        d.Name(),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		FileType:    DetectFileType(d.Name()),
		ContentHash: hash,
	})
	return nil
}

// accept applies the filters in order of cost.
func (w *walk) accept(path, rel string, d fs.DirEntry) (SkipReason, bool) {
	switch {
	case w.ignore.ignored(rel, false):
		return SkipIgnored, false
	case !MatchesInclude(rel, w.opts.Include):
		return SkipNotIncluded, false
	case MatchesExclude(rel, w.opts.Exclude):
		return SkipExcluded, false
	}

	info, err := d.Info()
	if err != nil {
		return SkipUnreadable, false
	}
	if info.Size() > w.maxSize {
		return SkipTooLarge, false
	}
	if IsPDF(d.Name()) {
		return "", true
	}
	binary, err := looksBinary(path)
	if err != nil {
		return SkipUnreadable, false
	}
	if binary {
		return SkipBinary, false
	}
	return "", true
}

func (w *walk) skip(rel string, reason SkipReason) {
	if w.opts.OnSkip != nil {
		w.opts.OnSkip(rel, reason)
	}
}

// looksBinary reports whether the first 512 bytes of the file hold a NUL.
func looksBinary(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return bytes.IndexByte(buf[:n], 0) >= 0, nil
}

// HashFile computes the SHA-256 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
