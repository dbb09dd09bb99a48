// Package openai implements domain.Embedder against any OpenAI-compatible
// embeddings endpoint (OpenAI itself, Nebius, Azure OpenAI, ...).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rci/internal/domain"
	"github.com/kailas-cloud/rci/internal/metrics"
)

// MaxAPIBatchSize is the maximum number of texts sent to the provider in one
// request (spec: batch size ≤ 100 per call).
const MaxAPIBatchSize = 100

// batchSleep is the floor delay between successive batch calls.
const batchSleep = 100 * time.Millisecond

// Embedder is an embedding provider using the OpenAI-compatible API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
	user       string
	provider   string
	logger     *zap.Logger
	sleep      func(time.Duration)
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	User       string
	Provider   string
	Logger     *zap.Logger
}

// NewEmbedder creates an OpenAI-compatible embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
		user:       cfg.User,
		provider:   cfg.Provider,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// Embed implements domain.Embedder: texts are split into batches of at most
// MaxAPIBatchSize, with a rate-limit floor sleep between successive
// batches, and the returned vectors preserve input order regardless of the
// order the provider returns them in.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([]domain.Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([]domain.Vector, len(texts))

	for offset := 0; offset < len(texts); offset += MaxAPIBatchSize {
		if offset > 0 {
			e.sleep(batchSleep)
		}

		end := offset + MaxAPIBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		vectors, err := e.embedBatch(ctx, texts[offset:end])
		if err != nil {
			return nil, err
		}
		copy(out[offset:end], vectors)
	}

	return out, nil
}

// embedBatch performs a single provider call and returns vectors ordered to
// match the input slice, using the response's per-item index.
func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([]domain.Vector, error) {
	req := openai.EmbeddingRequest{
		Input:          texts,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		User:           e.user,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	duration := time.Since(start)

	if err != nil {
		classified := classifyError(err)
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), errorType(classified)).Inc()
		return nil, classified
	}

	if len(resp.Data) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(e.provider, string(e.model), "short_response").Inc()
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrEmbeddingFailed, len(texts), len(resp.Data))
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, string(e.model), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, string(e.model)).Observe(duration.Seconds())

	if resp.Usage.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, string(e.model)).Add(float64(resp.Usage.TotalTokens))
	}

	// Sort by response-side index so ordering matches the input, per spec.
	data := make([]openai.Embedding, len(resp.Data))
	copy(data, resp.Data)
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([]domain.Vector, len(data))
	for i, d := range data {
		vectors[i] = domain.Vector(d.Embedding)
	}

	e.logger.Debug("embedding batch completed",
		zap.String("provider", e.provider),
		zap.String("model", string(e.model)),
		zap.Int("batch_size", len(texts)),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", resp.Usage.TotalTokens))

	return vectors, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// classifyError maps a provider error onto the sentinel error taxonomy:
// quota-related responses become ErrEmbeddingQuotaExceeded, 401-equivalent
// responses become ErrEmbeddingAuthFailed, everything else is wrapped as
// ErrEmbeddingFailed (retryable upstream).
func classifyError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		if reqErr.HTTPStatusCode == 401 {
			return domain.NewAuthFailed("openai", detail)
		}
		if strings.Contains(strings.ToLower(detail), "quota") {
			return domain.NewQuotaExceeded("openai", detail)
		}
		return fmt.Errorf("%w: %d: %s", domain.ErrEmbeddingFailed, reqErr.HTTPStatusCode, detail)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == 401 {
			return domain.NewAuthFailed("openai", apiErr.Message)
		}
		if strings.Contains(strings.ToLower(apiErr.Message), "quota") {
			return domain.NewQuotaExceeded("openai", apiErr.Message)
		}
		return fmt.Errorf("%w: %d: %s", domain.ErrEmbeddingFailed, apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("%w: %v", domain.ErrEmbeddingFailed, err)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return "quota_exceeded"
	case errors.Is(err, domain.ErrEmbeddingAuthFailed):
		return "auth_failed"
	default:
		return "api_error"
	}
}

// extractDetail extracts the "detail" field from a JSON error body (seen on
// Nebius-style OpenAI-compatible error responses).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
