package document

import (
	"fmt"
	"maps"
)

// Node is one chunk of a Document. It carries the parent's metadata and
// presentation rules so it renders the same way.
type Node struct {
	ID       string
	RefDocID string
	Index    int
	Text     string
	Metadata map[string]string
	Presentation
}

// NodeID returns the identifier of the n-th chunk of docID.
func NodeID(docID string, n int) string {
	return fmt.Sprintf("%s#%d", docID, n)
}

// Content renders the node for mode.
func (n *Node) Content(mode MetadataMode) string {
	return n.Presentation.render(n.Text, n.Metadata, mode)
}

// MetadataString renders the metadata pairs visible in mode.
func (n *Node) MetadataString(mode MetadataMode) string {
	return n.Presentation.metadataString(n.Metadata, mode)
}

// Nodes splits the document into chunks of at most chunkSize tokens with
// overlap tokens shared between neighbours. A document without an ID gets
// one assigned first.
func (d *Document) Nodes(chunkSize, overlap int) []Node {
	docID := d.EnsureID()
	chunks := SplitText(d.Text, chunkSize, overlap)

	nodes := make([]Node, 0, len(chunks))
	for i, chunk := range chunks {
		p := d.Presentation
		p.ExcludedLLMMetadataKeys = append([]string(nil), p.ExcludedLLMMetadataKeys...)
		p.ExcludedEmbedMetadataKeys = append([]string(nil), p.ExcludedEmbedMetadataKeys...)
		nodes = append(nodes, Node{
			ID:           NodeID(docID, i),
			RefDocID:     docID,
			Index:        i,
			Text:         chunk,
			Metadata:     maps.Clone(d.Metadata),
			Presentation: p,
		})
	}
	return nodes
}
