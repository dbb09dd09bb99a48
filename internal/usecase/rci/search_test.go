package rci

import (
	"context"
	"testing"

	"github.com/kailas-cloud/rci/internal/domain"
)

func descDoc(pkg, component, content string) domain.VectorDocument {
	return domain.VectorDocument{
		ID:        domain.VectorID(component, domain.FacetDescription, content),
		Content:   content,
		Embedding: textVector(content),
		Metadata: domain.Metadata{
			PackageName:   pkg,
			ComponentName: component,
			Type:          domain.FacetDescription,
		},
	}
}

func TestSearch_ReturnsRankedComponents(t *testing.T) {
	store := &fakeStore{docs: []domain.VectorDocument{
		descDoc("widgets", "Button", "a clickable button component"),
		descDoc("widgets", "Card", "a container with a shadow"),
	}}
	svc := newTestService(&fakeParser{}, &fakeEmbedder{}, store, nil)

	resp, err := svc.Search(context.Background(), domain.SearchRequest{Query: "a clickable button component", TopK: 2, Threshold: 0})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Components) == 0 {
		t.Fatal("expected at least one component")
	}
	if resp.Components[0].ComponentName != "Button" {
		t.Fatalf("top match = %q, want Button", resp.Components[0].ComponentName)
	}
}

func TestSearch_TopKLimitsResults(t *testing.T) {
	store := &fakeStore{docs: []domain.VectorDocument{
		descDoc("widgets", "Button", "button one"),
		descDoc("widgets", "Card", "card two"),
		descDoc("widgets", "Modal", "modal three"),
	}}
	svc := newTestService(&fakeParser{}, &fakeEmbedder{}, store, nil)

	resp, err := svc.Search(context.Background(), domain.SearchRequest{Query: "button one", TopK: 1, Threshold: 0})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Components) != 1 {
		t.Fatalf("len(Components) = %d, want 1", len(resp.Components))
	}
}

func TestSearch_FiltersRestrictToMatchingPackage(t *testing.T) {
	store := &fakeStore{docs: []domain.VectorDocument{
		descDoc("widgets", "Button", "a clickable button"),
		descDoc("gadgets", "Button", "a clickable button"),
	}}
	svc := newTestService(&fakeParser{}, &fakeEmbedder{}, store, nil)

	resp, err := svc.Search(context.Background(), domain.SearchRequest{
		Query: "a clickable button", TopK: 5, Threshold: 0,
		Filters: domain.Filters{PackageName: "gadgets"},
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, c := range resp.Components {
		if c.PackageName != "gadgets" {
			t.Fatalf("got component from package %q, want only gadgets", c.PackageName)
		}
	}
}

func TestSearch_NoMatchesProducesEmptySuggestions(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(&fakeParser{}, &fakeEmbedder{}, store, nil)

	resp, err := svc.Search(context.Background(), domain.SearchRequest{Query: "anything", TopK: 5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Components) != 0 {
		t.Fatalf("len(Components) = %d, want 0", len(resp.Components))
	}
	if len(resp.Suggestions) == 0 {
		t.Fatal("expected fallback suggestions on zero results")
	}
}

func TestSearch_CacheHitSkipsStoreQuery(t *testing.T) {
	cached := domain.SearchResponse{Components: []domain.ComponentDoc{{ComponentName: "Cached"}}}
	cache := newFakeCache()
	cache.entries["cached query"] = cached
	store := &fakeStore{docs: []domain.VectorDocument{descDoc("widgets", "Button", "button")}}
	svc := newTestService(&fakeParser{}, &fakeEmbedder{}, store, cache)

	resp, err := svc.Search(context.Background(), domain.SearchRequest{Query: "cached query", TopK: 5})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(resp.Components) != 1 || resp.Components[0].ComponentName != "Cached" {
		t.Fatalf("got %+v, want cached response", resp.Components)
	}
}

func TestSearch_PopulatesCacheOnMiss(t *testing.T) {
	cache := newFakeCache()
	store := &fakeStore{docs: []domain.VectorDocument{descDoc("widgets", "Button", "button")}}
	svc := newTestService(&fakeParser{}, &fakeEmbedder{}, store, cache)

	_, err := svc.Search(context.Background(), domain.SearchRequest{Query: "button", TopK: 5, Threshold: 0})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, ok := cache.entries["button"]; !ok {
		t.Fatal("expected Search to populate the cache on a miss")
	}
}

func TestSearch_EmbedderErrorPropagates(t *testing.T) {
	svc := newTestService(&fakeParser{}, &fakeEmbedder{err: domain.ErrEmbeddingFailed}, &fakeStore{}, nil)

	_, err := svc.Search(context.Background(), domain.SearchRequest{Query: "x", TopK: 5})
	if err == nil {
		t.Fatal("expected error from embedder failure")
	}
}
