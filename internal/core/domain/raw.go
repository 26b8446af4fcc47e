package domain

import (
	"path/filepath"
	"strings"
)

// RawDocument is one corpus page before extraction.
type RawDocument struct {
	// SourceID names the page within its corpus, normally its path
	// relative to the corpus root.
	SourceID string

	// URI is where the page was read from.
	URI string

	MIMEType string
	Content  []byte
}

// name prefers SourceID and falls back to URI.
func (r RawDocument) name() string {
	if r.SourceID != "" {
		return r.SourceID
	}
	return r.URI
}

// DocumentID is the base name without its last extension:
// "payments/fiserv.html" becomes "fiserv". Chunk ids derive from it.
func (r RawDocument) DocumentID() string {
	base := filepath.Base(r.name())
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FileName is the base name, extension included.
func (r RawDocument) FileName() string {
	return filepath.Base(r.name())
}

// ChangeType classifies a CorpusChange. The values double as log text.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// CorpusChange reports one page created, rewritten or removed while a
// corpus is being watched.
type CorpusChange struct {
	Type ChangeType
	URI  string
}
