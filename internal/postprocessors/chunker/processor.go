// Package chunker turns extracted documents into retrievable chunks:
// one summary chunk per document plus one chunk per resource and database.
package chunker

import (
	"fmt"
	"strings"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultPreviewLength is the number of characters of document text
// included in the main chunk.
const DefaultPreviewLength = 1000

// Processor builds chunks from structured documents.
type Processor struct {
	previewLength int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithPreviewLength sets how many characters of full text the main chunk carries.
func WithPreviewLength(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.previewLength = n
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{previewLength: DefaultPreviewLength}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkID returns the id of the chunk emitted at position for documentID.
func ChunkID(documentID string, position int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, position)
}

// Chunk emits the main chunk, then one chunk per resource and one per
// database, in document order. Services are not chunked.
func (p *Processor) Chunk(doc *domain.Document) []domain.Chunk {
	if doc == nil {
		return nil
	}

	resources := doc.EntitiesOf(domain.EntityResource)
	databases := doc.EntitiesOf(domain.EntityDatabase)
	chunks := make([]domain.Chunk, 0, 1+len(resources)+len(databases))

	emit := func(kind domain.ChunkKind, content string, metadata map[string]string) {
		metadata[domain.MetaDocumentID] = doc.ID
		metadata[domain.MetaFilename] = doc.FileName
		metadata[domain.MetaChunkType] = string(kind)
		position := len(chunks)
		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(doc.ID, position),
			DocumentID: doc.ID,
			Position:   position,
			Kind:       kind,
			Content:    content,
			Metadata:   metadata,
		})
	}

	emit(domain.ChunkMain, p.mainText(doc), map[string]string{
		domain.MetaTitle:       doc.Title,
		domain.MetaDocType:     doc.DocumentType,
		domain.MetaOwner:       doc.Owner,
		domain.MetaLastUpdated: doc.LastUpdated,
	})

	for _, r := range resources {
		emit(domain.ChunkResource, resourceText(r), map[string]string{
			domain.MetaResourceName: r.Name,
			domain.MetaResourceType: r.Type,
			domain.MetaOwner:        r.Owner,
			domain.MetaLanguages:    r.Languages,
			domain.MetaFrameworks:   r.Frameworks,
		})
	}

	for _, d := range databases {
		emit(domain.ChunkDatabase, databaseText(d), map[string]string{
			domain.MetaDatabaseName: d.Name,
			domain.MetaDatabaseType: d.Type,
			domain.MetaOwner:        d.Owner,
		})
	}

	return chunks
}

func (p *Processor) mainText(doc *domain.Document) string {
	preview := doc.FullText
	if runes := []rune(preview); len(runes) > p.previewLength {
		preview = string(runes[:p.previewLength])
	}
	return fmt.Sprintf("Title: %s\nType: %s\nOwner: %s\nContent: %s...",
		doc.Title, doc.DocumentType, doc.Owner, preview)
}

func resourceText(r domain.SubEntity) string {
	return strings.Join([]string{
		"Resource: " + r.Name,
		"Type: " + r.Type,
		"Description: " + r.Description,
		"Owner: " + r.Owner,
		"Programming Languages: " + r.Languages,
		"Frameworks: " + r.Frameworks,
		"IDE: " + r.IDE,
		"API Endpoints: " + strings.Join(r.Endpoints, ", "),
	}, "\n")
}

func databaseText(d domain.SubEntity) string {
	return strings.Join([]string{
		"Database: " + d.Name,
		"Type: " + d.Type,
		"Description: " + d.Description,
		"Owner: " + d.Owner,
		"Connection: " + d.Connection,
	}, "\n")
}
