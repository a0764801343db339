package indexer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestFile is written last into every index directory; its presence
// marks the directory as a complete index.
const ManifestFile = "manifest.json"

// FormatVersion is bumped whenever the on-disk layout changes.
const FormatVersion = 1

// ErrNoManifest is returned by ReadManifest when the directory holds no manifest.
var ErrNoManifest = errors.New("no index manifest")

// Manifest describes a persisted index.
type Manifest struct {
	FormatVersion  int       `json:"format_version"`
	EmbeddingModel string    `json:"embedding_model"`
	Fingerprint    string    `json:"fingerprint,omitempty"`
	Documents      int       `json:"documents"`
	Nodes          int       `json:"nodes"`
	CreatedAt      time.Time `json:"created_at"`
}

// ReadManifest reads the manifest inside dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoManifest
		}
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %s is not valid JSON: %v", ErrNoManifest, ManifestFile, err)
	}
	return &m, nil
}

// Write writes the manifest into dir.
func (m *Manifest) Write(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644)
}

// Stale reports why an index described by m cannot serve embeddingModel
// and fingerprint, or "" when it can. An empty fingerprint matches any.
func (m *Manifest) Stale(embeddingModel, fingerprint string) string {
	switch {
	case m.FormatVersion != FormatVersion:
		return fmt.Sprintf("format version %d, want %d", m.FormatVersion, FormatVersion)
	case m.EmbeddingModel != embeddingModel:
		return fmt.Sprintf("built with embedding model %q, configured %q", m.EmbeddingModel, embeddingModel)
	case fingerprint != "" && m.Fingerprint != "" && m.Fingerprint != fingerprint:
		return "source data changed since the index was built"
	}
	return ""
}
