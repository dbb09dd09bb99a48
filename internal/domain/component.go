package domain

import "time"

// ComponentDoc is the canonical per-component record produced by the parser
// and consumed by the service's facet-expansion step.
type ComponentDoc struct {
	PackageName   string    `json:"packageName"`
	ComponentName string    `json:"componentName"`
	Description   string    `json:"description"`
	API           string    `json:"api"`
	Examples      []string  `json:"examples"`
	Tags          []string  `json:"tags"`
	Version       string    `json:"version"`
	Dependencies  []string  `json:"dependencies"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// APIUnavailable is the sentinel API text used when no API documentation was found.
const APIUnavailable = "API documentation not available"

// HasContent reports whether the component has at least one non-empty facet,
// the minimum required for it to produce any vectors.
func (c ComponentDoc) HasContent() bool {
	if c.Description != "" {
		return true
	}
	if c.API != "" && c.API != APIUnavailable {
		return true
	}
	for _, ex := range c.Examples {
		if ex != "" {
			return true
		}
	}
	return false
}

// HasTag reports whether the component carries the given tag (case-sensitive;
// tags are normalized to lowercase at parse time).
func (c ComponentDoc) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
