// Package ollama embeds text through a local Ollama server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/KKaradi/syfhack10year/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL           = "http://localhost:11434"
	DefaultModel             = "nomic-embed-text"
	DefaultTimeout           = 30 * time.Second
	DefaultDimensions        = 768
	DefaultBatchSize         = 64
	DefaultRequestsPerSecond = 10.0
	DefaultBurst             = 4

	embedPath = "/api/embed"
	tagsPath  = "/api/tags"

	// errorBodyLimit caps how much of a failed response ends up in an error.
	errorBodyLimit = 512
)

// ErrModelNotPulled is returned by Ping when the server runs but does not
// have the configured model.
var ErrModelNotPulled = errors.New("ollama: model not pulled")

// Config configures the service. Zero fields take the Default values.
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// Dimensions fixes the vector size. When zero the size is learned
	// from the first response, with DefaultDimensions reported until then.
	Dimensions int

	// BatchSize caps the texts sent in one request.
	BatchSize int

	RequestsPerSecond float64
	Burst             int
}

// EmbeddingService calls the /api/embed batch endpoint.
type EmbeddingService struct {
	client    *http.Client
	limiter   *rate.Limiter
	baseURL   string
	model     string
	batchSize int

	mu         sync.RWMutex
	dimensions int
	fixed      bool
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewEmbeddingService creates a service for cfg.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	s := &EmbeddingService{
		baseURL:    strings.TrimRight(orDefault(cfg.BaseURL, DefaultBaseURL), "/"),
		model:      orDefault(cfg.Model, DefaultModel),
		batchSize:  cfg.BatchSize,
		dimensions: cfg.Dimensions,
		fixed:      cfg.Dimensions > 0,
	}
	if s.batchSize <= 0 {
		s.batchSize = DefaultBatchSize
	}
	if !s.fixed {
		s.dimensions = DefaultDimensions
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	s.client = &http.Client{Timeout: timeout}

	rps, burst := cfg.RequestsPerSecond, cfg.Burst
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return s
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch sends texts in requests of at most BatchSize, waiting on the
// rate limiter before each one.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := min(start+s.batchSize, len(texts))
		batch, err := s.embed(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("ollama: embed texts %d-%d: %w", start, end-1, err)
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	body, err := json.Marshal(embedRequest{Model: s.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var resp embedResponse
	if err := s.do(ctx, http.MethodPost, embedPath, bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Embeddings), len(texts))
	}
	if err := s.checkDimensions(resp.Embeddings); err != nil {
		return nil, err
	}
	return resp.Embeddings, nil
}

// checkDimensions requires every vector to share one length. An unfixed
// service adopts the length of the first vector it sees.
func (s *EmbeddingService) checkDimensions(vectors [][]float32) error {
	if len(vectors) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fixed {
		s.dimensions = len(vectors[0])
		s.fixed = true
	}
	for i, v := range vectors {
		if len(v) != s.dimensions {
			return fmt.Errorf("embedding %d has %d dimensions, want %d", i, len(v), s.dimensions)
		}
	}
	return nil
}

// do sends one request and decodes a 200 response into out. Ollama
// reports failures as {"error": "..."}; anything else is quoted raw.
func (s *EmbeddingService) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		var apiErr struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (s *EmbeddingService) Dimensions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimensions
}

func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping lists the local models and checks the configured one is among them.
// "nomic-embed-text" matches "nomic-embed-text:latest".
func (s *EmbeddingService) Ping(ctx context.Context) error {
	var tags tagsResponse
	if err := s.do(ctx, http.MethodGet, tagsPath, nil, &tags); err != nil {
		return fmt.Errorf("ollama: ping: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == s.model || strings.TrimSuffix(m.Name, ":latest") == s.model {
			return nil
		}
	}
	return fmt.Errorf("%w: %s (run: ollama pull %s)", ErrModelNotPulled, s.model, s.model)
}

func (s *EmbeddingService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
