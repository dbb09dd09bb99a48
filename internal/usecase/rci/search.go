package rci

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kailas-cloud/rci/internal/domain"
)

const (
	defaultTopK         = 5
	defaultThreshold    = 0.5
	internalKMultiplier = 20
	internalKCap        = 1000
	substringBoost      = 1.3
	scoreClamp          = 1.0
)

// Search embeds req.Query, consults the cache, queries the store for the
// nearest facets, groups them by component and ranks components by the
// per-group score in spec §4.5.2.
func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (domain.SearchResponse, error) {
	start := time.Now()

	topK := req.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	threshold := req.Threshold
	if threshold == 0 {
		threshold = defaultThreshold
	}

	qvs, err := s.embedder.Embed(ctx, []string{req.Query})
	if err != nil {
		return domain.SearchResponse{}, err
	}
	qv := qvs[0]

	if s.cacheEnabled && s.cache != nil {
		if resp, ok := s.cache.Get(req.Query, qv, req.Filters); ok {
			resp.DurationMS = time.Since(start).Milliseconds()
			s.cache.Observe(resp.DurationMS)
			return resp, nil
		}
	}

	internalK := topK * internalKMultiplier
	if internalK > internalKCap {
		internalK = internalKCap
	}
	if internalK < topK {
		internalK = topK
	}

	var hits []domain.VectorDocument
	var sims []float64
	if !req.Filters.IsZero() {
		hits, sims, err = s.store.TopKFiltered(ctx, qv, req.Filters, internalK, threshold)
	} else {
		hits, sims, err = s.store.TopK(ctx, qv, internalK, threshold)
	}
	if err != nil {
		return domain.SearchResponse{}, fmt.Errorf("%w: %v", domain.ErrSearchFailed, err)
	}

	groups := groupHits(hits, sims, req.Query)
	sortGroups(groups)
	if len(groups) > topK {
		groups = groups[:topK]
	}

	components := make([]domain.ComponentDoc, len(groups))
	totals := make([]float64, len(groups))
	for i, g := range groups {
		components[i] = g.componentDoc()
		totals[i] = g.total
	}

	resp := domain.SearchResponse{
		Components:  components,
		Scores:      totals,
		Confidence:  computeConfidence(totals),
		Suggestions: buildSuggestions(components),
		DurationMS:  time.Since(start).Milliseconds(),
	}

	if s.cacheEnabled && s.cache != nil {
		s.cache.Set(req.Query, resp, qv, req.Filters)
		s.cache.Observe(resp.DurationMS)
	}

	return resp, nil
}

// componentGroup accumulates per-hit scores for one (packageName, componentName) pair.
type componentGroup struct {
	meta   domain.Metadata
	scores []float64
	max    float64
	mean   float64
	total  float64
}

func (g componentGroup) componentDoc() domain.ComponentDoc {
	return domain.ComponentDoc{
		PackageName:   g.meta.PackageName,
		ComponentName: g.meta.ComponentName,
		Tags:          g.meta.Tags,
		Version:       g.meta.Version,
	}
}

// groupHits groups hits by (packageName, componentName) and scores each hit:
// similarity * facet weight, boosted 1.3x if the hit's content contains the
// lowercased query, clamped to 1.0.
func groupHits(hits []domain.VectorDocument, sims []float64, query string) []componentGroup {
	index := make(map[string]*componentGroup)
	var order []string
	lowerQuery := strings.ToLower(query)

	for i, hit := range hits {
		key := hit.Metadata.PackageName + "\x00" + hit.Metadata.ComponentName
		g, ok := index[key]
		if !ok {
			g = &componentGroup{meta: hit.Metadata}
			index[key] = g
			order = append(order, key)
		}

		score := sims[i] * domain.FacetWeight(hit.Metadata.Type)
		if strings.Contains(strings.ToLower(hit.Content), lowerQuery) {
			score *= substringBoost
		}
		if score > scoreClamp {
			score = scoreClamp
		}
		g.scores = append(g.scores, score)
	}

	groups := make([]componentGroup, 0, len(order))
	for _, key := range order {
		g := index[key]
		g.max = maxFloat(g.scores)
		g.mean = meanFloat(g.scores)
		g.total = g.max*0.7 + g.mean*0.3
		groups = append(groups, *g)
	}
	return groups
}

// sortGroups orders by total score descending, tiebreaking on
// (packageName, componentName) ascending for stable ordering.
func sortGroups(groups []componentGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].total != groups[j].total {
			return groups[i].total > groups[j].total
		}
		if groups[i].meta.PackageName != groups[j].meta.PackageName {
			return groups[i].meta.PackageName < groups[j].meta.PackageName
		}
		return groups[i].meta.ComponentName < groups[j].meta.ComponentName
	})
}

func computeConfidence(totals []float64) float64 {
	if len(totals) == 0 {
		return 0
	}
	return meanFloat(totals)*0.6 + maxFloat(totals)*0.4
}

func buildSuggestions(components []domain.ComponentDoc) []string {
	switch len(components) {
	case 0:
		return []string{
			"Try using more general terms in your search",
			"Check if the component name is correct",
		}
	case 1:
		return []string{fmt.Sprintf("Found perfect match: %s", components[0].ComponentName)}
	default:
		return []string{
			fmt.Sprintf("Found %d relevant components", len(components)),
			fmt.Sprintf("Top match: %s", components[0].ComponentName),
		}
	}
}

func maxFloat(xs []float64) float64 {
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func meanFloat(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
