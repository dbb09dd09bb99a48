package rci

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/rci/internal/domain"
)

func TestStatus_ReportsAvailableWithStats(t *testing.T) {
	store := &fakeStore{docs: []domain.VectorDocument{{ID: "a"}, {ID: "b"}}}
	svc := newTestService(&fakeParser{}, &fakeEmbedder{}, store, newFakeCache())

	status, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if !status.Available {
		t.Fatal("Available = false, want true")
	}
	if status.Stats.TotalDocuments != 2 {
		t.Fatalf("TotalDocuments = %d, want 2", status.Stats.TotalDocuments)
	}
	if status.Config.EmbeddingModel != "test-model" {
		t.Fatalf("EmbeddingModel = %q, want test-model", status.Config.EmbeddingModel)
	}
}

func TestStatus_UnavailableOnStoreError(t *testing.T) {
	store := &fakeStore{statsErr: errors.New("disk unreachable")}
	svc := newTestService(&fakeParser{}, &fakeEmbedder{}, store, newFakeCache())

	status, err := svc.Status(context.Background())
	if err == nil {
		t.Fatal("expected error from store")
	}
	if status.Available {
		t.Fatal("Available = true, want false on store error")
	}
}

func TestClearCache_EmptiesCache(t *testing.T) {
	cache := newFakeCache()
	cache.entries["q"] = domain.SearchResponse{}
	svc := newTestService(&fakeParser{}, &fakeEmbedder{}, &fakeStore{}, cache)

	svc.ClearCache()

	if cache.clearCall != 1 {
		t.Fatalf("clearCall = %d, want 1", cache.clearCall)
	}
	if len(cache.entries) != 0 {
		t.Fatalf("entries = %v, want empty", cache.entries)
	}
}

func TestClearCache_NoopWithoutCache(t *testing.T) {
	svc := newTestService(&fakeParser{}, &fakeEmbedder{}, &fakeStore{}, nil)
	svc.ClearCache() // must not panic
}
