package cache

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/rci/internal/domain"
)

// cosineSimilarity is intentionally duplicated from internal/vectorstore
// rather than shared: the two packages' copies are small, have no common
// caller, and an imported dependency here would tie cache's lifecycle to
// vectorstore's package boundary for a three-line function.
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
