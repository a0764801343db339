// Package document holds the unit of source content fed to an index and
// the rules for rendering it to the generation and embedding models.
package document

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Default presentation rules.
const (
	DefaultMetadataSeparator = "\n"
	DefaultMetadataTemplate  = "{key}: {value}"
	DefaultTextTemplate      = "{metadata_str}\n\n{content}"
)

// ErrIDAlreadyAssigned is returned when a document that already has an
// identifier is given a different one.
var ErrIDAlreadyAssigned = errors.New("document id already assigned")

// MetadataMode selects which audience a rendering is for.
type MetadataMode int

const (
	// MetadataModeAll renders every metadata pair.
	MetadataModeAll MetadataMode = iota
	// MetadataModeLLM hides ExcludedLLMMetadataKeys.
	MetadataModeLLM
	// MetadataModeEmbed hides ExcludedEmbedMetadataKeys.
	MetadataModeEmbed
	// MetadataModeNone renders the body only.
	MetadataModeNone
)

func (m MetadataMode) String() string {
	switch m {
	case MetadataModeAll:
		return "all"
	case MetadataModeLLM:
		return "llm"
	case MetadataModeEmbed:
		return "embed"
	case MetadataModeNone:
		return "none"
	default:
		return fmt.Sprintf("MetadataMode(%d)", int(m))
	}
}

// Presentation controls how metadata and body are combined for each
// audience. Zero-valued templates fall back to the defaults.
type Presentation struct {
	ExcludedLLMMetadataKeys   []string
	ExcludedEmbedMetadataKeys []string
	MetadataSeparator         string
	MetadataTemplate          string
	TextTemplate              string
}

// Document is a unit of source content with metadata.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
	Presentation
}

// Option customizes a Document built by New.
type Option func(*Document)

// WithID sets the document identifier.
func WithID(id string) Option {
	return func(d *Document) { d.ID = id }
}

// WithExcludedLLMKeys hides keys from the generation model's view.
func WithExcludedLLMKeys(keys ...string) Option {
	return func(d *Document) { d.ExcludedLLMMetadataKeys = keys }
}

// WithExcludedEmbedKeys hides keys from the embedding model's view.
func WithExcludedEmbedKeys(keys ...string) Option {
	return func(d *Document) { d.ExcludedEmbedMetadataKeys = keys }
}

// WithMetadataSeparator sets the string placed between metadata pairs.
func WithMetadataSeparator(sep string) Option {
	return func(d *Document) { d.MetadataSeparator = sep }
}

// WithMetadataTemplate sets the per-pair template; it may use {key} and {value}.
func WithMetadataTemplate(tmpl string) Option {
	return func(d *Document) { d.MetadataTemplate = tmpl }
}

// WithTextTemplate sets the overall template; it may use {metadata_str}
// and {content}.
func WithTextTemplate(tmpl string) Option {
	return func(d *Document) { d.TextTemplate = tmpl }
}

// New builds a Document with default presentation rules.
func New(text string, metadata map[string]string, opts ...Option) *Document {
	d := &Document{
		Text:     text,
		Metadata: maps.Clone(metadata),
		Presentation: Presentation{
			MetadataSeparator: DefaultMetadataSeparator,
			MetadataTemplate:  DefaultMetadataTemplate,
			TextTemplate:      DefaultTextTemplate,
		},
	}
	if d.Metadata == nil {
		d.Metadata = map[string]string{}
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AssignID sets the identifier. Once set, an identifier never changes.
func (d *Document) AssignID(id string) error {
	if id == "" {
		return fmt.Errorf("document id must not be empty")
	}
	if d.ID != "" && d.ID != id {
		return fmt.Errorf("%w: have %q, got %q", ErrIDAlreadyAssigned, d.ID, id)
	}
	d.ID = id
	return nil
}

// EnsureID assigns a random UUID when the document has no identifier and
// returns the identifier in effect.
func (d *Document) EnsureID() string {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return d.ID
}

// MetadataString renders the metadata pairs visible in mode.
func (d *Document) MetadataString(mode MetadataMode) string {
	return d.Presentation.metadataString(d.Metadata, mode)
}

// Content renders the document for mode.
func (d *Document) Content(mode MetadataMode) string {
	return d.Presentation.render(d.Text, d.Metadata, mode)
}

func (p Presentation) excluded(mode MetadataMode) []string {
	switch mode {
	case MetadataModeLLM:
		return p.ExcludedLLMMetadataKeys
	case MetadataModeEmbed:
		return p.ExcludedEmbedMetadataKeys
	}
	return nil
}

func (p Presentation) metadataString(metadata map[string]string, mode MetadataMode) string {
	if mode == MetadataModeNone || len(metadata) == 0 {
		return ""
	}
	tmpl := p.MetadataTemplate
	if tmpl == "" {
		tmpl = DefaultMetadataTemplate
	}
	sep := p.MetadataSeparator
	if sep == "" {
		sep = DefaultMetadataSeparator
	}

	hidden := p.excluded(mode)
	var pairs []string
	for _, k := range slices.Sorted(maps.Keys(metadata)) {
		if slices.Contains(hidden, k) {
			continue
		}
		pairs = append(pairs, strings.NewReplacer("{key}", k, "{value}", metadata[k]).Replace(tmpl))
	}
	return strings.Join(pairs, sep)
}

func (p Presentation) render(text string, metadata map[string]string, mode MetadataMode) string {
	if mode == MetadataModeNone {
		return text
	}
	meta := p.metadataString(metadata, mode)
	if meta == "" {
		return text
	}
	tmpl := p.TextTemplate
	if tmpl == "" {
		tmpl = DefaultTextTemplate
	}
	return strings.NewReplacer("{metadata_str}", meta, "{content}", text).Replace(tmpl)
}
