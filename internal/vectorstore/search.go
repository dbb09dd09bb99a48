package vectorstore

import (
	"container/heap"
	"context"
	"fmt"
	"math"

	"github.com/kailas-cloud/rci/internal/domain"
)

// TopK returns the k nearest documents to qv with similarity >= threshold,
// sorted descending by similarity.
func (s *Store) TopK(_ context.Context, qv domain.Vector, k int, threshold float64) ([]domain.VectorDocument, []float64, error) {
	return s.topKFiltered(qv, domain.Filters{}, k, threshold)
}

// TopKFiltered is TopK with metadata filters applied before ranking.
func (s *Store) TopKFiltered(_ context.Context, qv domain.Vector, filters domain.Filters, k int, threshold float64) ([]domain.VectorDocument, []float64, error) {
	return s.topKFiltered(qv, filters, k, threshold)
}

func (s *Store) topKFiltered(qv domain.Vector, filters domain.Filters, k int, threshold float64) ([]domain.VectorDocument, []float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := &scoreHeap{}
	heap.Init(h)

	for _, doc := range s.documents {
		if !filters.IsZero() && !filters.Match(doc.Metadata) {
			continue
		}

		sim, err := cosineSimilarity(qv, doc.Embedding)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", domain.ErrVectorStoreFailed, err)
		}
		if sim < threshold {
			continue
		}

		if h.Len() < k {
			heap.Push(h, scoreItem{doc: doc, score: sim})
		} else if h.Len() > 0 && sim > (*h)[0].score {
			heap.Pop(h)
			heap.Push(h, scoreItem{doc: doc, score: sim})
		}
	}

	items := make([]scoreItem, h.Len())
	for i := len(items) - 1; i >= 0; i-- {
		items[i] = heap.Pop(h).(scoreItem)
	}

	docs := make([]domain.VectorDocument, len(items))
	scores := make([]float64, len(items))
	for i, it := range items {
		docs[i] = it.doc
		scores[i] = it.score
	}
	return docs, scores, nil
}

// cosineSimilarity computes dot(a,b) / (||a||*||b||), returning 0 if either
// vector has zero norm. Dimension mismatch is an error, not a score.
func cosineSimilarity(a, b domain.Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length mismatch: %d != %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// scoreItem is a heap entry pairing a document with its similarity score.
type scoreItem struct {
	doc   domain.VectorDocument
	score float64
}

// scoreHeap is a min-heap on score, used to keep the k highest-scoring items
// seen so far: when full, the smallest of the kept k is evicted first.
type scoreHeap []scoreItem

func (h scoreHeap) Len() int            { return len(h) }
func (h scoreHeap) Less(i, j int) bool  { return h[i].score < h[j].score }
func (h scoreHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoreHeap) Push(x interface{}) { *h = append(*h, x.(scoreItem)) }
func (h *scoreHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
