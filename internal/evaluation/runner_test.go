package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/repositories"
)

type stubSearch struct {
	results map[string][]entities.ScoredItem
}

func (s stubSearch) HybridSearch(_ context.Context, query string, _ int, _ repositories.CatalogFilter) ([]entities.ScoredItem, error) {
	res, ok := s.results[query]
	if !ok {
		return nil, errors.New("index unavailable")
	}
	return res, nil
}

func scored(id string, craft entities.CraftType, region entities.Region, festivals ...entities.Festival) entities.ScoredItem {
	c := entities.NewCulturalContext(craft, region, entities.SignificanceDecorative, nil, nil, festivals, nil, 0.9, time.Now())
	return entities.ScoredItem{Item: &entities.CatalogItem{ID: id, Cultural: &c}, Score: 0.8}
}

func TestRunner_ScoresByFacet(t *testing.T) {
	search := stubSearch{results: map[string][]entities.ScoredItem{
		"blue pottery": {
			scored("a", entities.CraftJewelry, entities.RegionRajasthan),
			scored("b", entities.CraftPottery, entities.RegionRajasthan),
		},
		"diwali gifts": {
			scored("c", entities.CraftMetalcraft, entities.RegionOdisha, entities.FestivalHoli, entities.FestivalDiwali),
		},
	}}
	queries := []GoldenQuery{
		{ID: "q1", Query: "blue pottery", Facet: FacetCraft, ExpectedLabels: []string{"pottery"}, ExpectedItems: []string{"b"}},
		{ID: "q2", Query: "diwali gifts", Facet: FacetFestival, ExpectedLabels: []string{"diwali"}},
		{ID: "q3", Query: "broken", Facet: FacetRegion, ExpectedLabels: []string{"kerala"}},
	}

	summary, results := NewRunner(search).Run(context.Background(), queries)
	require.Len(t, results, 2)

	assert.InDelta(t, 1.0, results[0].RecallAt10, floatTolerance)
	assert.InDelta(t, 0.5, results[0].MRRAt10, floatTolerance)
	assert.InDelta(t, 0.5, results[0].PrecisionAt10, floatTolerance)
	assert.InDelta(t, 1.0, results[0].ItemRecallAt10, floatTolerance)
	assert.Equal(t, []string{"jewelry", "pottery"}, results[0].RetrievedLabels)

	// The festival label is matched even though it is not listed first.
	assert.Equal(t, []string{"diwali"}, results[1].RetrievedLabels)
	assert.InDelta(t, 1.0, results[1].MRRAt10, floatTolerance)

	assert.Equal(t, 3, summary.TotalQueries)
	assert.Equal(t, 1, summary.FailedQueries)
	assert.Equal(t, 2, summary.QueriesWithHits)
	assert.InDelta(t, 0.75, summary.AvgMRRAt10, floatTolerance)
	assert.Equal(t, 1, summary.ByFacet[FacetCraft].Count)
	assert.Nil(t, summary.ByFacet[FacetRegion])
}

func TestFacetLabel_MissingContext(t *testing.T) {
	assert.Empty(t, facetLabel(FacetCraft, nil, nil))
	assert.Empty(t, facetLabel(FacetRegion, &entities.CatalogItem{ID: "x"}, nil))
}

func TestQualityGate_Check(t *testing.T) {
	gate := DefaultQualityGate()

	assert.Empty(t, gate.Check(&EvalSummary{TotalQueries: 2, AvgRecallAt10: 0.9, AvgMRRAt10: 0.7}))
	assert.Empty(t, gate.Check(&EvalSummary{}))

	violations := gate.Check(&EvalSummary{TotalQueries: 2, AvgRecallAt10: 0.2, AvgMRRAt10: 0.1, FailedQueries: 1})
	assert.Len(t, violations, 3)
}
