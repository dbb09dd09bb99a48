// Package vectorstore implements the durable, file-backed vector store: three
// JSON tables (documents, index, meta) under a base path, written atomically
// via temp-file-then-rename so a crash mid-write leaves either the pre- or
// post-state on disk, never a partial one.
package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rci/internal/domain"
)

const (
	documentsFile = "documents.json"
	indexFile     = "index.json"
	metaFile      = "metadata.json"
	storeVersion  = "1.0.0"
)

type storeMeta struct {
	TotalDocuments int       `json:"totalDocuments"`
	LastUpdated    time.Time `json:"lastUpdated"`
	Version        string    `json:"version"`
}

// Store is a single-writer-many-readers file-backed vector store. documents
// and index hold identical records; the split mirrors the three-logical-table
// contract rather than any structural difference in this backing.
type Store struct {
	mu        sync.RWMutex
	basePath  string
	documents []domain.VectorDocument
	meta      storeMeta
	logger    *zap.Logger
}

// New creates a store rooted at basePath. Call Initialize before use.
func New(basePath string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{basePath: basePath, logger: logger}
}

// Initialize creates basePath if absent and loads or creates the backing
// tables.
func (s *Store) Initialize(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return fmt.Errorf("%w: create base path: %v", domain.ErrInitFailed, err)
	}

	if fileExists(s.docsPath()) {
		if err := s.loadLocked(); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInitFailed, err)
		}
		return nil
	}

	s.documents = []domain.VectorDocument{}
	s.meta = storeMeta{TotalDocuments: 0, LastUpdated: time.Now().UTC(), Version: storeVersion}
	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInitFailed, err)
	}
	return nil
}

// AddBatch skips docs whose id already exists and appends the rest.
func (s *Store) AddBatch(_ context.Context, docs []domain.VectorDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]struct{}, len(s.documents))
	for _, d := range s.documents {
		existing[d.ID] = struct{}{}
	}

	added := 0
	for _, d := range docs {
		if _, ok := existing[d.ID]; ok {
			continue
		}
		s.documents = append(s.documents, d)
		existing[d.ID] = struct{}{}
		added++
	}
	if added == 0 {
		return nil
	}

	s.meta.TotalDocuments = len(s.documents)
	s.meta.LastUpdated = time.Now().UTC()

	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStoreFailed, err)
	}
	return nil
}

// Delete removes matching entries from documents and index atomically.
func (s *Store) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	remove := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		remove[id] = struct{}{}
	}

	kept := make([]domain.VectorDocument, 0, len(s.documents))
	for _, d := range s.documents {
		if _, ok := remove[d.ID]; ok {
			continue
		}
		kept = append(kept, d)
	}
	s.documents = kept
	s.meta.TotalDocuments = len(s.documents)
	s.meta.LastUpdated = time.Now().UTC()

	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStoreFailed, err)
	}
	return nil
}

// Clear replaces all tables with empty ones.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documents = []domain.VectorDocument{}
	s.meta = storeMeta{TotalDocuments: 0, LastUpdated: time.Now().UTC(), Version: storeVersion}

	if err := s.persistLocked(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVectorStoreFailed, err)
	}
	return nil
}

// Stats summarizes the store's contents and backing file size on disk.
func (s *Store) Stats(_ context.Context) (domain.StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	components := make(map[string]struct{})
	packages := make(map[string]int)
	for _, d := range s.documents {
		components[d.Metadata.ComponentName] = struct{}{}
		packages[d.Metadata.PackageName]++
	}

	var size int64
	for _, name := range []string{documentsFile, indexFile, metaFile} {
		if info, err := os.Stat(filepath.Join(s.basePath, name)); err == nil {
			size += info.Size()
		}
	}

	return domain.StoreStats{
		TotalComponents: len(components),
		TotalDocuments:  len(s.documents),
		IndexSize:       size,
		LastUpdated:     s.meta.LastUpdated.Format(time.RFC3339),
		PackageStats:    packages,
	}, nil
}

func (s *Store) loadLocked() error {
	data, err := os.ReadFile(s.docsPath())
	if err != nil {
		return fmt.Errorf("read documents: %w", err)
	}
	var docs []domain.VectorDocument
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parse documents: %w", err)
	}
	s.documents = docs

	if data, err := os.ReadFile(s.metaPath()); err == nil {
		var m storeMeta
		if err := json.Unmarshal(data, &m); err == nil {
			s.meta = m
		}
	}
	if s.meta.Version == "" {
		s.meta = storeMeta{TotalDocuments: len(s.documents), LastUpdated: time.Now().UTC(), Version: storeVersion}
	}
	return nil
}

func (s *Store) persistLocked() error {
	if err := writeJSONAtomic(filepath.Join(s.basePath, documentsFile), s.documents); err != nil {
		return err
	}
	if err := writeJSONAtomic(filepath.Join(s.basePath, indexFile), s.documents); err != nil {
		return err
	}
	return writeJSONAtomic(filepath.Join(s.basePath, metaFile), s.meta)
}

func (s *Store) docsPath() string { return filepath.Join(s.basePath, documentsFile) }
func (s *Store) metaPath() string { return filepath.Join(s.basePath, metaFile) }

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// writeJSONAtomic marshals v and writes it to path via a temp file plus
// rename, so a crash mid-write can never leave a half-written file at path.
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file for %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file for %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place for %s: %w", filepath.Base(path), err)
	}
	return nil
}
