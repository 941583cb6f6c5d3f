package evaluation

import (
	"context"
	"time"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/repositories"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
)

const evalCutoff = 10

type SearchResultProvider interface {
	HybridSearch(ctx context.Context, query string, limit int, filter repositories.CatalogFilter) ([]entities.ScoredItem, error)
}

// Runner runs evaluation across a set of golden queries.
type Runner struct {
	searchService SearchResultProvider
}

func NewRunner(svc SearchResultProvider) *Runner {
	return &Runner{searchService: svc}
}

func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, []EvalResult) {
	logger := observability.LoggerFromContext(ctx)
	summary := &EvalSummary{
		TotalQueries: len(queries),
		ByFacet:      make(map[Facet]*FacetSummary),
	}
	results := make([]EvalResult, 0, len(queries))

	for _, gq := range queries {
		if ctx.Err() != nil {
			break
		}

		start := time.Now()
		hits, err := r.searchService.HybridSearch(ctx, gq.Query, evalCutoff, repositories.CatalogFilter{})
		duration := time.Since(start)

		if err != nil {
			logger.Warn().Err(err).Str("query_id", gq.ID).Msg("Golden query failed")
			summary.FailedQueries++
			continue
		}

		labels := make([]string, 0, len(hits))
		ids := make([]string, 0, len(hits))
		for _, hit := range hits {
			labels = append(labels, facetLabel(gq.Facet, hit.Item, gq.ExpectedLabels))
			ids = append(ids, hit.Item.ID)
		}

		result := EvalResult{
			QueryID:         gq.ID,
			Query:           gq.Query,
			Facet:           gq.Facet,
			RecallAt10:      RecallAtK(gq.ExpectedLabels, labels, evalCutoff),
			MRRAt10:         MRRAtK(gq.ExpectedLabels, labels, evalCutoff),
			PrecisionAt10:   PrecisionAtK(gq.ExpectedLabels, labels, evalCutoff),
			ItemRecallAt10:  RecallAtK(gq.ExpectedItems, ids, evalCutoff),
			ResultCount:     len(hits),
			RetrievedLabels: labels,
			Latency:         duration,
		}

		r.updateSummary(summary, result)
		results = append(results, result)
	}

	r.finalizeSummary(summary, len(results))
	return summary, results
}

// facetLabel picks the label of item that a golden query of the given facet
// is judged on. For festivals the first expected festival the item carries
// wins, so multi-festival items are not penalised for listing order.
func facetLabel(facet Facet, item *entities.CatalogItem, expected []string) string {
	if item == nil || item.Cultural == nil {
		return ""
	}
	c := item.Cultural
	switch facet {
	case FacetCraft:
		return string(c.CraftType)
	case FacetRegion:
		return string(c.Region)
	case FacetFestival:
		for _, label := range expected {
			if f, ok := entities.ParseFestival(label); ok && c.HasFestival(f) {
				return string(f)
			}
		}
		if len(c.FestivalRelevance) > 0 {
			return string(c.FestivalRelevance[0])
		}
	}
	return ""
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.AvgRecallAt10 += res.RecallAt10
	s.AvgMRRAt10 += res.MRRAt10
	s.AvgPrecision += res.PrecisionAt10
	s.AvgLatency += res.Latency
	if res.ResultCount > 0 {
		s.QueriesWithHits++
	}

	if _, ok := s.ByFacet[res.Facet]; !ok {
		s.ByFacet[res.Facet] = &FacetSummary{}
	}
	fs := s.ByFacet[res.Facet]
	fs.Count++
	fs.AvgRecallAt10 += res.RecallAt10
	fs.AvgMRRAt10 += res.MRRAt10
}

func (r *Runner) finalizeSummary(s *EvalSummary, evaluated int) {
	if evaluated > 0 {
		n := float64(evaluated)
		s.AvgRecallAt10 /= n
		s.AvgMRRAt10 /= n
		s.AvgPrecision /= n
		s.AvgLatency /= time.Duration(evaluated)
	}

	for _, fs := range s.ByFacet {
		if fs.Count > 0 {
			n := float64(fs.Count)
			fs.AvgRecallAt10 /= n
			fs.AvgMRRAt10 /= n
		}
	}
}
