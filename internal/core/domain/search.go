package domain

// QueryResult represents a single vector index hit.
type QueryResult struct {
	// ID is the chunk identifier.
	ID string `json:"id"`

	// Text is the chunk content.
	Text string `json:"text"`

	// Metadata is the chunk metadata.
	Metadata map[string]string `json:"metadata"`

	// Distance is the cosine distance to the query; smaller is more similar.
	Distance float64 `json:"distance"`
}

// Kind returns the chunk kind recorded in the result metadata.
func (r QueryResult) Kind() ChunkKind {
	return ChunkKind(r.Metadata[MetaChunkType])
}

// IndexResult summarises one corpus indexing pass.
type IndexResult struct {
	// Documents is the number of documents that were extracted and chunked.
	Documents int `json:"documents"`

	// Chunks is the number of chunks written to the index.
	Chunks int `json:"chunks"`

	// Skipped is the number of documents that failed extraction.
	Skipped int `json:"skipped"`

	// Failures describes each skipped document.
	Failures []string `json:"failures,omitempty"`
}

// IndexStats is a read-only view of the vector index contents.
type IndexStats struct {
	TotalChunks    int            `json:"total_chunks"`
	ChunkTypes     map[string]int `json:"chunk_types"`
	ResourceTypes  map[string]int `json:"resource_types"`
	CollectionName string         `json:"collection_name"`
}

// ResourceContext is a resource surfaced while gathering automation context.
// Document holds the text of the chunk the resource was found in.
type ResourceContext struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Owner      string `json:"owner"`
	Languages  string `json:"programming_languages"`
	Frameworks string `json:"frameworks"`
	Document   string `json:"document"`
}

// DatabaseContext is a database surfaced while gathering automation context.
// Document holds the text of the chunk the database was found in.
type DatabaseContext struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Owner    string `json:"owner"`
	Document string `json:"document"`
}

// AutomationContext is the retrieval context handed to workflow generation.
// The recommendation, consideration and approval lists are placeholders
// that the retrieval flow leaves empty.
type AutomationContext struct {
	Resources                  []ResourceContext `json:"relevant_resources"`
	Databases                  []DatabaseContext `json:"relevant_databases"`
	DevelopmentRecommendations []string          `json:"development_recommendations"`
	SecurityConsiderations     []string          `json:"security_considerations"`
	ApprovalRequirements       []string          `json:"approval_requirements"`
}

// NewAutomationContext returns a context with every list initialised.
func NewAutomationContext() AutomationContext {
	return AutomationContext{
		Resources:                  []ResourceContext{},
		Databases:                  []DatabaseContext{},
		DevelopmentRecommendations: []string{},
		SecurityConsiderations:     []string{},
		ApprovalRequirements:       []string{},
	}
}

// ResourceBrief is a short description of one catalogued resource.
type ResourceBrief struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ResourceSummary describes the resource catalog.
type ResourceSummary struct {
	TotalResources int             `json:"total_resources"`
	ByType         map[string]int  `json:"by_type"`
	Resources      []ResourceBrief `json:"resources"`
}
