package rci

import (
	"encoding/json"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rci/internal/domain"
)

// defaultSyncBatchSize bounds component-level parallelism within one Sync batch.
const defaultSyncBatchSize = 10

// Service owns the Parser, Embedder, VectorStore and Cache handles for one
// running index and implements the spec's four operations over them.
type Service struct {
	parser   Parser
	embedder domain.Embedder
	store    VectorStore
	cache    Cache
	logger   *zap.Logger

	cacheEnabled    bool
	vectorStoreType string
	embeddingModel  string
	dimension       int
	batchSize       int
}

// New builds a Service. logger defaults to zap.NewNop() if nil.
func New(
	p Parser, e domain.Embedder, store VectorStore, c Cache,
	cacheEnabled bool, vectorStoreType, embeddingModel string, dimension int,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		parser:          p,
		embedder:        e,
		store:           store,
		cache:           c,
		logger:          logger,
		cacheEnabled:    cacheEnabled,
		vectorStoreType: vectorStoreType,
		embeddingModel:  embeddingModel,
		dimension:       dimension,
		batchSize:       defaultSyncBatchSize,
	}
}

// resolvePackageName reads <sourceRoot>/package.json's "name" field, the way
// the parser itself reads "version"; falls back to the source directory's
// base name when the manifest is absent or has no name.
func resolvePackageName(sourceRoot string) string {
	data, err := os.ReadFile(filepath.Join(sourceRoot, "package.json")) //nolint:gosec // trusted local doc tree
	if err == nil {
		var pkg struct {
			Name string `json:"name"`
		}
		if json.Unmarshal(data, &pkg) == nil && pkg.Name != "" {
			return pkg.Name
		}
	}
	return filepath.Base(sourceRoot)
}
