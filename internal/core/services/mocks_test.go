package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/KKaradi/syfhack10year/internal/adapters/driven/embedding/hash"
	"github.com/KKaradi/syfhack10year/internal/core/domain"
	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
)

// --- Mock implementations ---

// countingEmbedder wraps the feature-hash embedder and records calls.
type countingEmbedder struct {
	inner *hash.EmbeddingService

	mu    sync.Mutex
	calls int
	texts int
	err   error
}

var _ driven.EmbeddingService = (*countingEmbedder)(nil)

func newCountingEmbedder() *countingEmbedder {
	return &countingEmbedder{inner: hash.NewEmbeddingService(hash.DefaultDimensions)}
}

func (m *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.texts += len(texts)
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return m.inner.EmbedBatch(ctx, texts)
}

func (m *countingEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *countingEmbedder) Dimensions() int            { return m.inner.Dimensions() }
func (m *countingEmbedder) ModelName() string          { return "counting-" + m.inner.ModelName() }
func (m *countingEmbedder) Ping(context.Context) error { return nil }
func (m *countingEmbedder) Close() error               { return nil }

// shortEmbedder returns one vector fewer than requested.
type shortEmbedder struct{ countingEmbedder }

func (m *shortEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	return make([][]float32, len(texts)-1), nil
}

// staticSource is a CorpusSource over a fixed document list.
type staticSource struct {
	docs    []domain.RawDocument
	listErr error

	mu    sync.Mutex
	lists int
}

var _ driven.CorpusSource = (*staticSource)(nil)

func (s *staticSource) Root() string { return "static" }

func (s *staticSource) List(context.Context) ([]domain.RawDocument, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.docs, nil
}

func (s *staticSource) Watch(context.Context) (<-chan domain.CorpusChange, error) {
	ch := make(chan domain.CorpusChange)
	close(ch)
	return ch, nil
}

// failingIndex rejects every write and query.
type failingIndex struct{}

var _ driven.VectorIndex = failingIndex{}

func (failingIndex) ReplaceAll(context.Context, []domain.IndexedVector) error {
	return fmt.Errorf("%w: backend down", domain.ErrIndexUnavailable)
}

func (failingIndex) Upsert(context.Context, []domain.IndexedVector) error {
	return fmt.Errorf("%w: backend down", domain.ErrIndexUnavailable)
}

func (failingIndex) Query(context.Context, []float32, int, domain.MetadataFilter) ([]domain.QueryResult, error) {
	return nil, fmt.Errorf("%w: backend down", domain.ErrIndexUnavailable)
}

func (failingIndex) Count(context.Context) (int, error) {
	return 0, fmt.Errorf("%w: backend down", domain.ErrIndexUnavailable)
}

func (failingIndex) Sample(context.Context, int) ([]domain.QueryResult, error) {
	return nil, fmt.Errorf("%w: backend down", domain.ErrIndexUnavailable)
}

func (failingIndex) Close() error { return nil }

// --- Fixtures ---

const fiservPage = `<!DOCTYPE html>
<html>
<head><title>Fiserv Payment Gateway</title></head>
<body>
    <div class="header">
        <p><strong>Document Type:</strong> Payment Processing</p>
        <p><strong>Last Updated:</strong> 2024-02-01</p>
        <p><strong>Owner:</strong> Payments Team</p>
    </div>
    <div class="section">
        <h2>Resources and Tools</h2>
        <ul class="resource-list">
            <li class="resource-item">
                <h3>Fiserv Payment API</h3>
                <p><strong>Type:</strong> API</p>
                <p><strong>Description:</strong> Card authorisation and settlement</p>
                <p><strong>Programming Languages:</strong> Java, Python</p>
                <p><strong>Development Frameworks:</strong> Spring Boot</p>
            </li>
            <li class="resource-item">
                <h3>Fraud Monitor</h3>
                <p><strong>Type:</strong> Service</p>
                <p><strong>Description:</strong> Flags suspicious transactions</p>
            </li>
        </ul>
    </div>
    <div class="section">
        <h2>Databases</h2>
        <ul class="resource-list">
            <li class="resource-item">
                <h3>Transactions DB</h3>
                <p><strong>Type:</strong> PostgreSQL</p>
                <p><strong>Description:</strong> Settled card transactions</p>
            </li>
        </ul>
    </div>
</body>
</html>`

const servicenowPage = `<!DOCTYPE html>
<html>
<head><title>ServiceNow Integration Guide</title></head>
<body>
    <div class="header">
        <p><strong>Document Type:</strong> IT Service Management</p>
        <p><strong>Owner:</strong> IT Operations Team</p>
    </div>
    <div class="section">
        <h2>Resources and Tools</h2>
        <ul class="resource-list">
            <li class="resource-item">
                <h3>ServiceNow REST API</h3>
                <p><strong>Type:</strong> API</p>
                <p><strong>Description:</strong> Incident and change management API</p>
                <p><strong>Programming Languages:</strong> Python, JavaScript</p>
            </li>
        </ul>
    </div>
    <div class="section">
        <h2>Databases</h2>
        <ul class="resource-list">
            <li class="resource-item">
                <h3>CMDB</h3>
                <p><strong>Type:</strong> Oracle</p>
            </li>
        </ul>
    </div>
</body>
</html>`

func corpusDocs() []domain.RawDocument {
	return []domain.RawDocument{
		{SourceID: "fiserv.html", URI: "/corpus/fiserv.html", MIMEType: "text/html", Content: []byte(fiservPage)},
		{SourceID: "servicenow.html", URI: "/corpus/servicenow.html", MIMEType: "text/html", Content: []byte(servicenowPage)},
	}
}
