package domain

// Filters narrows a vector search to documents whose metadata matches.
// A zero-value Filters matches everything.
type Filters struct {
	PackageName   string   `json:"packageName,omitempty"`
	ComponentName string   `json:"componentName,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Type          string   `json:"type,omitempty"`
	Version       string   `json:"version,omitempty"`
}

// IsZero reports whether the filter set is empty (matches everything).
func (f Filters) IsZero() bool {
	return f.PackageName == "" && f.ComponentName == "" && len(f.Tags) == 0 &&
		f.Type == "" && f.Version == ""
}

// Match reports whether the given metadata satisfies the filter set.
// A tags filter passes if ANY requested tag is present (spec §4.3).
func (f Filters) Match(m Metadata) bool {
	if f.PackageName != "" && f.PackageName != m.PackageName {
		return false
	}
	if f.ComponentName != "" && f.ComponentName != m.ComponentName {
		return false
	}
	if f.Version != "" && f.Version != m.Version {
		return false
	}
	if f.Type != "" && f.Type != string(m.Type) {
		return false
	}
	if len(f.Tags) > 0 {
		matched := false
		for _, want := range f.Tags {
			for _, have := range m.Tags {
				if want == have {
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// SearchRequest is the input to RCIService.Search.
type SearchRequest struct {
	Query     string
	TopK      int
	Threshold float64
	Filters   Filters
}

// SearchResponse is the output of RCIService.Search, and the value cached by SmartCache.
type SearchResponse struct {
	Components  []ComponentDoc `json:"components"`
	Scores      []float64      `json:"scores"`
	Confidence  float64        `json:"confidence"`
	Suggestions []string       `json:"suggestions"`
	DurationMS  int64          `json:"duration"`
}

// SyncRequest is the input to RCIService.Sync.
type SyncRequest struct {
	SourcePath   string
	Packages     []string
	ForceReindex bool
}

// SyncStatus enumerates the outcome of a Sync run.
type SyncStatus string

const (
	SyncSuccess SyncStatus = "success"
	SyncPartial SyncStatus = "partial"
	SyncFailed  SyncStatus = "failed"
)

// SyncResponse is the output of RCIService.Sync.
type SyncResponse struct {
	Status         SyncStatus `json:"status"`
	ProcessedCount int        `json:"processedCount"`
	SuccessCount   int        `json:"successCount"`
	FailedCount    int        `json:"failedCount"`
	Errors         []string   `json:"errors"`
	DurationMS     int64      `json:"duration"`
}

// StatusConfig summarizes the service's active configuration for /rag/status.
type StatusConfig struct {
	VectorStore    string `json:"vectorStore"`
	EmbeddingModel string `json:"embeddingModel"`
	Dimension      int    `json:"dimension"`
	CacheEnabled   bool   `json:"cache"`
}

// Status is the output of RCIService.Status.
type Status struct {
	Available bool         `json:"available"`
	Stats     StoreStats   `json:"stats"`
	Config    StatusConfig `json:"config"`
	CheckedAt string       `json:"checkedAt"`
}

// StoreStats summarizes VectorStore contents for Status and /rag/status.
type StoreStats struct {
	TotalComponents int            `json:"totalComponents"`
	TotalDocuments  int            `json:"totalDocuments"`
	IndexSize       int64          `json:"indexSize"`
	LastUpdated     string         `json:"lastUpdated"`
	PackageStats    map[string]int `json:"packageStats"`
}
