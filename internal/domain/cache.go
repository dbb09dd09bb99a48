package domain

import "time"

// CacheEntry is a single cached search response, optionally keyed in the
// semantic tier by the query embedding that produced it.
type CacheEntry struct {
	Response     SearchResponse
	Embedding    Vector
	CreatedAt    time.Time
	LastAccessed time.Time
	HitCount     int
}

// Expired reports whether the entry is older than maxAge as of now.
func (e *CacheEntry) Expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(e.CreatedAt) > maxAge
}
