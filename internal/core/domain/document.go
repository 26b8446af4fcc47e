package domain

// EntityKind identifies the kind of a typed sub-entity block.
type EntityKind string

// Sub-entity kinds found in corpus documents.
const (
	// EntityResource is a tool, platform or API listed under "Resources and Tools".
	EntityResource EntityKind = "resource"

	// EntityDatabase is a data store listed under "Databases".
	EntityDatabase EntityKind = "database"

	// EntityService is a service listed under "Services".
	EntityService EntityKind = "service"
)

// SubEntity is one typed item extracted from a document section.
// Fields that do not apply to the entity's kind are left empty.
type SubEntity struct {
	Kind        EntityKind
	Name        string
	Type        string
	Description string
	Owner       string

	// Languages and Frameworks are free-form hints for resources.
	Languages  string
	Frameworks string
	IDE        string

	// Connection is the connection string of a database.
	Connection string

	// Environment is the deployment environment of a service.
	Environment string

	// Endpoints lists the API endpoints of a resource.
	Endpoints []string
}

// Document is the structured form of one raw corpus document.
// It is produced by the content extractor and never modified afterwards.
type Document struct {
	// ID is derived from the source identifier (file stem).
	ID string

	// FileName is the base name of the source.
	FileName string

	// SourceURI is the original location.
	SourceURI string

	Title        string
	Owner        string
	DocumentType string
	LastUpdated  string

	// FullText is the tag-stripped text of the whole document.
	FullText string

	// Entities holds resources, databases and services in document order.
	Entities []SubEntity
}

// EntitiesOf returns the sub-entities of the given kind, preserving order.
func (d *Document) EntitiesOf(kind EntityKind) []SubEntity {
	var out []SubEntity
	for i := range d.Entities {
		if d.Entities[i].Kind == kind {
			out = append(out, d.Entities[i])
		}
	}
	return out
}

// ChunkKind identifies what a chunk summarises.
type ChunkKind string

// Chunk kinds.
const (
	ChunkMain     ChunkKind = "main"
	ChunkResource ChunkKind = "resource"
	ChunkDatabase ChunkKind = "database"
)

// IsValid returns true if the chunk kind is recognised.
func (k ChunkKind) IsValid() bool {
	switch k {
	case ChunkMain, ChunkResource, ChunkDatabase:
		return true
	default:
		return false
	}
}

// Metadata keys attached to chunks and persisted in the vector index.
const (
	MetaDocumentID   = "document_id"
	MetaFilename     = "filename"
	MetaChunkType    = "chunk_type"
	MetaTitle        = "title"
	MetaDocType      = "doc_type"
	MetaOwner        = "owner"
	MetaLastUpdated  = "last_updated"
	MetaResourceName = "resource_name"
	MetaResourceType = "resource_type"
	MetaLanguages    = "programming_languages"
	MetaFrameworks   = "frameworks"
	MetaDatabaseName = "database_name"
	MetaDatabaseType = "database_type"
)

// MetadataKeys lists every metadata key a chunk may carry.
// Index backends with a fixed schema declare one property per key.
var MetadataKeys = []string{
	MetaDocumentID,
	MetaFilename,
	MetaChunkType,
	MetaTitle,
	MetaDocType,
	MetaOwner,
	MetaLastUpdated,
	MetaResourceName,
	MetaResourceType,
	MetaLanguages,
	MetaFrameworks,
	MetaDatabaseName,
	MetaDatabaseType,
}

// Chunk is a retrievable text unit derived from a document.
// Chunks are regenerated from scratch on every reindex.
type Chunk struct {
	// ID is "<document id>_chunk_<position>".
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Position is the emission order within the document.
	Position int

	// Kind is the chunk kind.
	Kind ChunkKind

	// Content is the text that gets embedded.
	Content string

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]string
}

// IndexedVector is one entry persisted in the vector index.
type IndexedVector struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
	Text     string
}

// MetadataFilter restricts a query to entries whose metadata matches every pair.
type MetadataFilter map[string]string

// Matches reports whether metadata satisfies every key/value pair of the filter.
// A nil or empty filter matches everything.
func (f MetadataFilter) Matches(metadata map[string]string) bool {
	for k, v := range f {
		got, ok := metadata[k]
		if !ok || got != v {
			return false
		}
	}
	return true
}
