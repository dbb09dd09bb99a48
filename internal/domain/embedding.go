package domain

import "context"

// Vector is a fixed-dimension dense embedding.
type Vector []float32

// Embedder is the shared text-to-vector contract between layers. It embeds a
// batch of texts in one call, preserving input order in the output.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([]Vector, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// ModelDescriptor captures the dimension and context window of an embedding model.
type ModelDescriptor struct {
	Dimensions int
	MaxTokens  int
}

// DefaultModel is the reference model this index is tuned for.
const DefaultModel = "text-embedding-3-small"

// modelDescriptors maps known model names to their dimension/context window.
var modelDescriptors = map[string]ModelDescriptor{
	DefaultModel: {Dimensions: 1536, MaxTokens: 8192},
}

// DescribeModel returns the descriptor for a known model, defaulting to
// {8192, 1536} for unrecognized model names per spec.
func DescribeModel(name string) ModelDescriptor {
	if d, ok := modelDescriptors[name]; ok {
		return d
	}
	return ModelDescriptor{Dimensions: 1536, MaxTokens: 8192}
}
