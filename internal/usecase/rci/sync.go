package rci

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/rci/internal/domain"
	"github.com/kailas-cloud/rci/internal/metrics"
	"github.com/kailas-cloud/rci/internal/parser"
)

const maxExamplesPerComponent = 3

// Sync parses req.SourcePath, embeds every matching component's facets, and
// writes the resulting vectors in sequential batches of batchSize components
// (components within a batch are embedded concurrently). Per-component
// failures never abort the run; they are collected into the response.
func (s *Service) Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResponse, error) {
	start := time.Now()

	packageName := resolvePackageName(req.SourcePath)
	parsed, warnings, err := s.parser.ParseAll(ctx, req.SourcePath, packageName)
	if err != nil {
		metrics.SyncDuration.WithLabelValues(string(domain.SyncFailed)).Observe(time.Since(start).Seconds())
		return domain.SyncResponse{}, err
	}
	for _, w := range warnings {
		s.logger.Warn("sync warning", zap.String("warning", w))
	}

	processedCount := len(parsed)
	components := filterByPackages(parsed, req.Packages)

	if req.ForceReindex {
		if err := s.store.Clear(ctx); err != nil {
			metrics.SyncDuration.WithLabelValues(string(domain.SyncFailed)).Observe(time.Since(start).Seconds())
			return domain.SyncResponse{}, fmt.Errorf("%w: clear before reindex: %v", domain.ErrVectorStoreFailed, err)
		}
	}

	var (
		successCount int
		errs         []string
		cancelled    bool
	)

	for batchStart := 0; batchStart < len(components); batchStart += s.batchSize {
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Sprintf("cancelled after %d components", batchStart))
			cancelled = true
		default:
		}
		if cancelled {
			break
		}

		end := batchStart + s.batchSize
		if end > len(components) {
			end = len(components)
		}
		batch := components[batchStart:end]

		vectors, batchErrs := s.syncBatch(ctx, batch)
		errs = append(errs, batchErrs...)
		successCount += len(batch) - len(batchErrs)

		if len(vectors) > 0 {
			if err := s.store.AddBatch(ctx, vectors); err != nil {
				errs = append(errs, fmt.Sprintf("store batch starting at %d: %v", batchStart, err))
			}
		}
	}

	if s.cache != nil {
		s.cache.Clear()
	}

	failedCount := len(components) - successCount
	status := domain.SyncSuccess
	switch {
	case cancelled:
		status = domain.SyncPartial
	case len(errs) == 0:
		status = domain.SyncSuccess
	case successCount > 0:
		status = domain.SyncPartial
	default:
		status = domain.SyncFailed
	}

	duration := time.Since(start)
	metrics.SyncDuration.WithLabelValues(string(status)).Observe(duration.Seconds())

	return domain.SyncResponse{
		Status:         status,
		ProcessedCount: processedCount,
		SuccessCount:   successCount,
		FailedCount:    failedCount,
		Errors:         errs,
		DurationMS:     duration.Milliseconds(),
	}, nil
}

// syncBatch embeds every component in batch concurrently and returns the
// union of their vectors plus one error message per component that failed
// (either at parse time or during embedding).
func (s *Service) syncBatch(ctx context.Context, batch []parser.ParsedComponent) ([]domain.VectorDocument, []string) {
	type outcome struct {
		vectors []domain.VectorDocument
		errMsg  string
	}
	results := make([]outcome, len(batch))

	var g errgroup.Group
	for i, pc := range batch {
		i, pc := i, pc
		g.Go(func() error {
			if pc.Status != "success" {
				results[i] = outcome{errMsg: fmt.Sprintf("%s: %s", pc.Info.ComponentName, pc.Error)}
				return nil
			}
			vectors, err := s.createComponentVectors(ctx, pc.Info)
			if err != nil {
				results[i] = outcome{errMsg: fmt.Sprintf("%s: %v", pc.Info.ComponentName, err)}
				return nil
			}
			results[i] = outcome{vectors: vectors}
			return nil
		})
	}
	_ = g.Wait() // per-component failures are folded into results, never returned here

	var vectors []domain.VectorDocument
	var errs []string
	for _, r := range results {
		if r.errMsg != "" {
			errs = append(errs, r.errMsg)
			continue
		}
		vectors = append(vectors, r.vectors...)
	}
	return vectors, errs
}

// createComponentVectors builds up to 1+1+min(3,|examples|) facet texts from
// doc, embeds them in a single batched call, and pairs each resulting vector
// with its facet's VectorDocument. Returns nil if doc has no embeddable facet.
func (s *Service) createComponentVectors(ctx context.Context, doc domain.ComponentDoc) ([]domain.VectorDocument, error) {
	type facet struct {
		text string
		typ  domain.FacetType
	}

	var facets []facet
	if doc.Description != "" {
		facets = append(facets, facet{doc.Description, domain.FacetDescription})
	}
	if doc.API != "" && doc.API != domain.APIUnavailable {
		facets = append(facets, facet{doc.API, domain.FacetAPI})
	}
	exampleCount := 0
	for _, ex := range doc.Examples {
		if ex == "" {
			continue
		}
		if exampleCount >= maxExamplesPerComponent {
			break
		}
		facets = append(facets, facet{ex, domain.FacetExample})
		exampleCount++
	}

	if len(facets) == 0 {
		return nil, nil
	}

	texts := make([]string, len(facets))
	for i, f := range facets {
		texts[i] = f.text
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.VectorDocument, len(facets))
	for i, f := range facets {
		docs[i] = domain.VectorDocument{
			ID:        domain.VectorID(doc.ComponentName, f.typ, f.text),
			Content:   f.text,
			Embedding: vectors[i],
			Metadata: domain.Metadata{
				ComponentName: doc.ComponentName,
				PackageName:   doc.PackageName,
				Type:          f.typ,
				Tags:          doc.Tags,
				Version:       doc.Version,
			},
		}
	}
	return docs, nil
}

func filterByPackages(parsed []parser.ParsedComponent, packages []string) []parser.ParsedComponent {
	if len(packages) == 0 {
		return parsed
	}
	want := make(map[string]struct{}, len(packages))
	for _, p := range packages {
		want[p] = struct{}{}
	}

	out := make([]parser.ParsedComponent, 0, len(parsed))
	for _, pc := range parsed {
		if _, ok := want[pc.Info.PackageName]; ok {
			out = append(out, pc)
		}
	}
	return out
}
