package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rci/internal/domain"
	"github.com/kailas-cloud/rci/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

type embeddingDatum struct {
	Object    string    `json:"object"`
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

// openaiEmbeddingResponse mirrors the OpenAI-compatible API embedding response.
type openaiEmbeddingResponse struct {
	Object string           `json:"object"`
	Data   []embeddingDatum `json:"data"`
	Model  string           `json:"model"`
	Usage  struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

func TestEmbedder_Embed_PreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}

		resp := openaiEmbeddingResponse{Object: "list", Model: "test-model"}
		// Respond out of order to verify the client re-sorts by index.
		resp.Data = []embeddingDatum{
			{Embedding: []float32{2}, Index: 1},
			{Embedding: []float32{1}, Index: 0},
		}
		resp.Usage.PromptTokens = 10
		resp.Usage.TotalTokens = 10

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{
		APIKey:   "test-key",
		BaseURL:  server.URL,
		Model:    "test-model",
		Provider: "test",
		Logger:   zap.NewNop(),
	})

	vectors, err := emb.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][0] != 2 {
		t.Errorf("expected vectors in input order, got %v", vectors)
	}
}

func TestEmbedder_Embed_Empty(t *testing.T) {
	emb := NewEmbedder(&Config{APIKey: "k", Model: "m", Logger: zap.NewNop()})

	vectors, err := emb.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected nil error for empty input, got %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("expected no vectors, got %d", len(vectors))
	}
}

func TestEmbedder_Embed_BatchesAndSleepsBetweenCalls(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		resp := openaiEmbeddingResponse{Object: "list", Model: "test-model"}
		for i := range req.Input {
			resp.Data = append(resp.Data, embeddingDatum{Embedding: []float32{float32(i)}, Index: i})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: server.URL, Model: "m", Logger: zap.NewNop()})

	var slept []time.Duration
	emb.sleep = func(d time.Duration) { slept = append(slept, d) }

	texts := make([]string, MaxAPIBatchSize+1)
	for i := range texts {
		texts[i] = "text"
	}

	vectors, err := emb.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	if calls != 2 {
		t.Fatalf("expected 2 batch calls, got %d", calls)
	}
	if len(slept) != 1 {
		t.Fatalf("expected exactly 1 sleep between batches, got %d", len(slept))
	}
}

func TestEmbedder_Embed_QuotaExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "monthly quota exceeded", "type": "insufficient_quota"},
		})
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: server.URL, Model: "m", Logger: zap.NewNop()})

	_, err := emb.Embed(context.Background(), []string{"hello"})
	if !errors.Is(err, domain.ErrEmbeddingQuotaExceeded) {
		t.Fatalf("expected ErrEmbeddingQuotaExceeded, got %v", err)
	}
}

func TestEmbedder_Embed_AuthFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "invalid api key", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: server.URL, Model: "m", Logger: zap.NewNop()})

	_, err := emb.Embed(context.Background(), []string{"hello"})
	if !errors.Is(err, domain.ErrEmbeddingAuthFailed) {
		t.Fatalf("expected ErrEmbeddingAuthFailed, got %v", err)
	}
}

func TestEmbedder_Embed_GenericAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "internal error", "type": "server_error"},
		})
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: server.URL, Model: "m", Logger: zap.NewNop()})

	_, err := emb.Embed(context.Background(), []string{"hello"})
	if !errors.Is(err, domain.ErrEmbeddingFailed) {
		t.Fatalf("expected ErrEmbeddingFailed, got %v", err)
	}
}
