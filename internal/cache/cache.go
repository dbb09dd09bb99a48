// Package cache implements the two-tier smart cache sitting in front of
// search: an exact-match tier keyed on the normalized query + filters, and a
// semantic tier that matches near-duplicate queries by embedding similarity.
package cache

import (
	"crypto/md5" //nolint:gosec // content-addressed cache key, not security
	"encoding/hex"
	"encoding/json"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/rci/internal/domain"
	"github.com/kailas-cloud/rci/internal/metrics"
)

const (
	// DefaultMaxSize caps both tiers when the caller does not specify one.
	DefaultMaxSize = 1000
	// DefaultMaxAge is the TTL after which an exact-tier entry is stale.
	DefaultMaxAge = 300 * time.Second
	// DefaultThreshold is the semantic-tier cosine similarity cutoff.
	DefaultThreshold = 0.92
)

// Stats summarizes cache effectiveness for the status endpoint.
type Stats struct {
	Size              int     `json:"size"`
	Hits              int64   `json:"hits"`
	Misses            int64   `json:"misses"`
	HitRate           float64 `json:"hitRate"`
	AvgResponseTimeMS float64 `json:"avgResponseTime"`
	OldestEntry       string  `json:"oldestEntry"`
	TotalQueries      int64   `json:"totalQueries"`
}

// SmartCache is a two-tier cache over domain.SearchResponse. The exact tier
// is a hashicorp/golang-lru LRU; its eviction callback drops the matching
// entry from the semantic tier too, so the two never diverge.
type SmartCache struct {
	mu sync.Mutex

	exact        *lru.Cache[string, *domain.CacheEntry]
	semantic     map[string]*domain.CacheEntry
	semanticKeys []string // insertion order, oldest first

	maxSize   int
	maxAge    time.Duration
	threshold float64
	logger    *zap.Logger

	hits, misses, totalQueries int64
	totalResponseMS            float64
	oldestInserted             time.Time
}

// New builds a SmartCache. Zero values fall back to the package defaults.
func New(maxSize int, maxAge time.Duration, threshold float64, logger *zap.Logger) *SmartCache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &SmartCache{
		semantic:  make(map[string]*domain.CacheEntry),
		maxSize:   maxSize,
		maxAge:    maxAge,
		threshold: threshold,
		logger:    logger,
	}
	exact, _ := lru.NewWithEvict[string, *domain.CacheEntry](maxSize, c.onEvicted)
	c.exact = exact
	return c
}

// onEvicted is invoked by the exact-tier LRU whenever it evicts an entry
// (explicit Remove or size-triggered eviction on Add); it keeps the semantic
// tier from holding a reference to an entry the exact tier has dropped.
func (c *SmartCache) onEvicted(key string, _ *domain.CacheEntry) {
	delete(c.semantic, key)
	for i, k := range c.semanticKeys {
		if k == key {
			c.semanticKeys = append(c.semanticKeys[:i], c.semanticKeys[i+1:]...)
			break
		}
	}
}

// ExactKey computes the exact-tier cache key per spec: md5 of the lowercased,
// trimmed query concatenated with the canonical JSON of filters.
func ExactKey(query string, filters domain.Filters) string {
	canonical, _ := json.Marshal(filters)
	payload := strings.ToLower(strings.TrimSpace(query)) + string(canonical)
	sum := md5.Sum([]byte(payload)) //nolint:gosec // content addressing, not security
	return hex.EncodeToString(sum[:])
}

// Get looks up query first in the exact tier, then (if embedding is given)
// scans the semantic tier in insertion order for the first near-duplicate
// above the similarity threshold.
func (c *SmartCache) Get(query string, embedding domain.Vector, filters domain.Filters) (domain.SearchResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalQueries++
	now := time.Now()
	key := ExactKey(query, filters)

	if entry, ok := c.exact.Get(key); ok {
		if now.Sub(entry.CreatedAt) > c.maxAge {
			c.exact.Remove(key)
		} else {
			entry.LastAccessed = now
			entry.HitCount++
			c.hits++
			metrics.CacheTotal.WithLabelValues("exact", "hit").Inc()
			return entry.Response, true
		}
	}
	metrics.CacheTotal.WithLabelValues("exact", "miss").Inc()

	if len(embedding) > 0 {
		for _, k := range c.semanticKeys {
			entry, ok := c.semantic[k]
			if !ok || now.Sub(entry.CreatedAt) > c.maxAge {
				continue
			}
			sim, err := cosineSimilarity(embedding, entry.Embedding)
			if err != nil {
				continue
			}
			if sim >= c.threshold {
				entry.LastAccessed = now
				entry.HitCount++
				c.hits++
				metrics.CacheTotal.WithLabelValues("semantic", "hit").Inc()
				return entry.Response, true
			}
		}
		metrics.CacheTotal.WithLabelValues("semantic", "miss").Inc()
	}

	c.misses++
	return domain.SearchResponse{}, false
}

// Set inserts response under query's exact key, evicting the least recently
// used entry (Get hits refresh recency) if the cache is at capacity. If
// embedding is given, the entry is also inserted into the semantic tier,
// capped at maxSize on its own FIFO order.
func (c *SmartCache) Set(query string, response domain.SearchResponse, embedding domain.Vector, filters domain.Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	key := ExactKey(query, filters)
	entry := &domain.CacheEntry{
		Response:     response,
		CreatedAt:    now,
		LastAccessed: now,
	}
	if len(embedding) > 0 {
		entry.Embedding = embedding
	}
	if c.oldestInserted.IsZero() {
		c.oldestInserted = now
	}

	c.exact.Add(key, entry)

	if len(embedding) > 0 {
		if _, exists := c.semantic[key]; !exists {
			if len(c.semanticKeys) >= c.maxSize {
				oldest := c.semanticKeys[0]
				c.semanticKeys = c.semanticKeys[1:]
				delete(c.semantic, oldest)
			}
			c.semanticKeys = append(c.semanticKeys, key)
		}
		c.semantic[key] = entry
	}
}

// Clear empties both tiers. Cumulative hit/miss counters persist for telemetry.
func (c *SmartCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.exact.Purge()
	c.semantic = make(map[string]*domain.CacheEntry)
	c.semanticKeys = nil
	c.oldestInserted = time.Time{}
}

// Observe records a completed request's wall-clock duration for the
// avgResponseTime stat; callers invoke it once per Search regardless of
// cache outcome.
func (c *SmartCache) Observe(durationMS int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalResponseMS += float64(durationMS)
}

// Stats reports cache effectiveness.
func (c *SmartCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	var avg float64
	if c.totalQueries > 0 {
		avg = c.totalResponseMS / float64(c.totalQueries)
	}
	oldest := ""
	if !c.oldestInserted.IsZero() {
		oldest = c.oldestInserted.Format(time.RFC3339)
	}

	return Stats{
		Size:              c.exact.Len(),
		Hits:              c.hits,
		Misses:            c.misses,
		HitRate:           hitRate,
		AvgResponseTimeMS: avg,
		OldestEntry:       oldest,
		TotalQueries:      c.totalQueries,
	}
}
