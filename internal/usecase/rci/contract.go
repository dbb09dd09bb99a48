// Package rci implements the RCI orchestrator: Sync, Search, Status and
// ClearCache, composed over a Parser, an Embedder, a VectorStore and a Cache.
package rci

import (
	"context"

	"github.com/kailas-cloud/rci/internal/domain"
	"github.com/kailas-cloud/rci/internal/parser"
)

// Parser produces ParsedComponent records from a component source tree.
type Parser interface {
	ParseAll(ctx context.Context, sourceRoot, packageName string) ([]parser.ParsedComponent, []string, error)
}

// VectorStore is the durable backing store for component vectors.
type VectorStore interface {
	AddBatch(ctx context.Context, docs []domain.VectorDocument) error
	TopK(ctx context.Context, qv domain.Vector, k int, threshold float64) ([]domain.VectorDocument, []float64, error)
	TopKFiltered(ctx context.Context, qv domain.Vector, filters domain.Filters, k int, threshold float64) ([]domain.VectorDocument, []float64, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (domain.StoreStats, error)
}

// Cache is the smart-cache contract Search and ClearCache use.
type Cache interface {
	Get(query string, embedding domain.Vector, filters domain.Filters) (domain.SearchResponse, bool)
	Set(query string, response domain.SearchResponse, embedding domain.Vector, filters domain.Filters)
	Clear()
	Observe(durationMS int64)
}
