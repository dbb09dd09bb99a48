package rci

import (
	"context"
	"errors"
	"math"

	"github.com/kailas-cloud/rci/internal/domain"
	"github.com/kailas-cloud/rci/internal/parser"
)

// fakeParser returns a fixed set of ParsedComponent records for any source root.
type fakeParser struct {
	components []parser.ParsedComponent
	warnings   []string
	err        error
}

func (f *fakeParser) ParseAll(ctx context.Context, sourceRoot, packageName string) ([]parser.ParsedComponent, []string, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.components, f.warnings, nil
}

// fakeEmbedder returns a deterministic vector per input text, or fails if err is set.
type fakeEmbedder struct {
	err   error
	calls [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([]domain.Vector, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Vector, len(texts))
	for i, t := range texts {
		out[i] = textVector(t)
	}
	return out, nil
}

// textVector derives a small deterministic vector from a string's length and
// byte sum, just distinct enough for cosine-similarity assertions in tests.
func textVector(t string) domain.Vector {
	var sum float32
	for _, r := range t {
		sum += float32(r)
	}
	return domain.Vector{1, sum / 1000, float32(len(t)) / 100}
}

// fakeStore is an in-memory VectorStore double.
type fakeStore struct {
	docs      []domain.VectorDocument
	addErr    error
	topKErr   error
	clearErr  error
	statsErr  error
	clearCall int
}

func (f *fakeStore) AddBatch(ctx context.Context, docs []domain.VectorDocument) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.docs = append(f.docs, docs...)
	return nil
}

func (f *fakeStore) TopK(ctx context.Context, qv domain.Vector, k int, threshold float64) ([]domain.VectorDocument, []float64, error) {
	return f.TopKFiltered(ctx, qv, domain.Filters{}, k, threshold)
}

func (f *fakeStore) TopKFiltered(ctx context.Context, qv domain.Vector, filters domain.Filters, k int, threshold float64) ([]domain.VectorDocument, []float64, error) {
	if f.topKErr != nil {
		return nil, nil, f.topKErr
	}
	var docs []domain.VectorDocument
	var sims []float64
	for _, d := range f.docs {
		if !filters.IsZero() && !filters.Match(d.Metadata) {
			continue
		}
		sim, err := cosineSim(qv, d.Embedding)
		if err != nil || sim < threshold {
			continue
		}
		docs = append(docs, d)
		sims = append(sims, sim)
	}
	if len(docs) > k {
		docs = docs[:k]
		sims = sims[:k]
	}
	return docs, sims, nil
}

func (f *fakeStore) Clear(ctx context.Context) error {
	f.clearCall++
	if f.clearErr != nil {
		return f.clearErr
	}
	f.docs = nil
	return nil
}

func (f *fakeStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	if f.statsErr != nil {
		return domain.StoreStats{}, f.statsErr
	}
	return domain.StoreStats{TotalDocuments: len(f.docs)}, nil
}

func cosineSim(a, b domain.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, errors.New("dimension mismatch")
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// fakeCache is an in-memory Cache double.
type fakeCache struct {
	entries   map[string]domain.SearchResponse
	clearCall int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]domain.SearchResponse)}
}

func (f *fakeCache) Get(query string, embedding domain.Vector, filters domain.Filters) (domain.SearchResponse, bool) {
	resp, ok := f.entries[query]
	return resp, ok
}

func (f *fakeCache) Set(query string, response domain.SearchResponse, embedding domain.Vector, filters domain.Filters) {
	f.entries[query] = response
}

func (f *fakeCache) Clear() {
	f.clearCall++
	f.entries = make(map[string]domain.SearchResponse)
}

func (f *fakeCache) Observe(durationMS int64) {}
