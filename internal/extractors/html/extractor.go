package html

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Section headings that select the sub-entity kind. Matching is by substring.
const (
	SectionResources = "Resources and Tools"
	SectionDatabases = "Databases"
	SectionServices  = "Services"
)

// Extractor handles HTML corpus documents.
type Extractor struct{}

// New creates a new HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

var anyElement = regexp.MustCompile(`<[A-Za-z][^>]*>`)

// Extract parses raw into a Document. Missing header fields yield empty
// strings; unknown labels are ignored. Empty, non-UTF-8 or markup-free
// content fails with a *domain.ExtractionError.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	id := raw.DocumentID()

	switch {
	case len(bytes.TrimSpace(raw.Content)) == 0:
		return nil, &domain.ExtractionError{DocumentID: id, Reason: "empty document"}
	case !utf8.Valid(raw.Content):
		return nil, &domain.ExtractionError{DocumentID: id, Reason: "content is not valid UTF-8"}
	case !anyElement.Match(raw.Content):
		return nil, &domain.ExtractionError{DocumentID: id, Reason: "no HTML markup found"}
	}

	root, err := html.Parse(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, &domain.ExtractionError{DocumentID: id, Reason: err.Error()}
	}

	doc := &domain.Document{
		ID:        id,
		FileName:  raw.FileName(),
		SourceURI: raw.URI,
		Entities:  []domain.SubEntity{},
	}

	doc.Title = strings.TrimSpace(textOf(findFirst(root, isAtom(atom.Title))))
	if doc.Title == "" {
		doc.Title = raw.FileName()
	}

	if header := findFirst(root, isWithClass(atom.Div, "header")); header != nil {
		for _, p := range findAll(header, isAtom(atom.P)) {
			text := textOf(p)
			switch {
			case strings.HasPrefix(text, "Document Type:"):
				doc.DocumentType = labelValue(text, "Document Type:")
			case strings.HasPrefix(text, "Owner:"):
				doc.Owner = labelValue(text, "Owner:")
			case strings.HasPrefix(text, "Last Updated:"):
				doc.LastUpdated = labelValue(text, "Last Updated:")
			}
		}
	}

	for _, section := range findAll(root, isWithClass(atom.Div, "section")) {
		heading := findFirst(section, isAtom(atom.H2))
		if heading == nil {
			continue
		}
		kind, ok := sectionKind(textOf(heading))
		if !ok {
			continue
		}
		doc.Entities = append(doc.Entities, extractItems(section, kind)...)
	}

	doc.FullText = visibleText(root)
	return doc, nil
}

func sectionKind(heading string) (domain.EntityKind, bool) {
	switch {
	case strings.Contains(heading, SectionResources):
		return domain.EntityResource, true
	case strings.Contains(heading, SectionDatabases):
		return domain.EntityDatabase, true
	case strings.Contains(heading, SectionServices):
		return domain.EntityService, true
	default:
		return "", false
	}
}

func extractItems(section *html.Node, kind domain.EntityKind) []domain.SubEntity {
	var out []domain.SubEntity
	for _, item := range findAll(section, isWithClass(atom.Li, "resource-item")) {
		name := findFirst(item, isAtom(atom.H3))
		if name == nil {
			continue
		}
		entity := domain.SubEntity{Kind: kind, Name: textOf(name)}
		for _, p := range findAll(item, isAtom(atom.P)) {
			applyLabel(&entity, textOf(p))
		}
		if kind == domain.EntityResource {
			entity.Endpoints = []string{}
			for _, ep := range findAll(item, isWithClass(atom.Li, "endpoint")) {
				entity.Endpoints = append(entity.Endpoints, textOf(ep))
			}
		}
		out = append(out, entity)
	}
	return out
}
