package services

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

func culturalCtx(craft entities.CraftType, region entities.Region, materials ...string) entities.CulturalContext {
	return entities.NewCulturalContext(craft, region, entities.SignificanceDecorative, materials, nil, nil, nil, 0.8, time.Unix(0, 0))
}

func candidate(id string, cc entities.CulturalContext) Candidate {
	return Candidate{Item: &entities.CatalogItem{ID: id, Title: id}, Context: cc}
}

func TestSimilarity_WorkedExample(t *testing.T) {
	svc := NewContentSimilarityService(DefaultScoringConfig())
	src := culturalCtx(entities.CraftPottery, entities.RegionRajasthan, "clay", "glaze")
	cand := culturalCtx(entities.CraftPottery, entities.RegionRajasthan, "clay")

	r := svc.Similarity(src, cand, nil)

	assert.Equal(t, 1.0, r.CraftSimilarity)
	assert.Equal(t, 1.0, r.RegionSimilarity)
	assert.InDelta(t, 0.5, r.MaterialSimilarity, 1e-9)
	assert.InDelta(t, 0.65, r.Score, 1e-9)
	assert.Contains(t, r.Reasons, "Same craft: Pottery")
}

func TestSimilarity_DeterministicAndSymmetric(t *testing.T) {
	svc := NewContentSimilarityService(DefaultScoringConfig())
	rng := rand.New(rand.NewSource(7))
	materials := []string{"clay", "silk", "brass", "wood", "glass", "cotton"}
	pick := func() []string {
		var out []string
		for _, m := range materials {
			if rng.Intn(2) == 0 {
				out = append(out, m)
			}
		}
		return out
	}

	crafts := entities.AllCraftTypes()
	regions := entities.AllRegions()
	for i := 0; i < 200; i++ {
		a := entities.NewCulturalContext(crafts[rng.Intn(len(crafts))], regions[rng.Intn(len(regions))],
			entities.SignificanceGiftItem, pick(), pick(), []entities.Festival{entities.FestivalDiwali}, nil, 0.5, time.Unix(0, 0))
		b := entities.NewCulturalContext(crafts[rng.Intn(len(crafts))], regions[rng.Intn(len(regions))],
			entities.SignificanceGiftItem, pick(), pick(), nil, nil, 0.5, time.Unix(0, 0))

		ab := svc.Similarity(a, b, nil)
		assert.Equal(t, ab, svc.Similarity(a, b, nil))

		ba := svc.Similarity(b, a, nil)
		assert.Equal(t, ab.MaterialSimilarity, ba.MaterialSimilarity)
		assert.Equal(t, ab.TechniqueSimilarity, ba.TechniqueSimilarity)
		assert.Equal(t, ab.FestivalSimilarity, ba.FestivalSimilarity)

		for _, v := range []float64{ab.Score, ab.CraftSimilarity, ab.RegionSimilarity, ab.MaterialSimilarity, ab.TechniqueSimilarity, ab.FestivalSimilarity} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestSimilarity_SeasonalRelevance(t *testing.T) {
	svc := NewContentSimilarityService(DefaultScoringConfig())
	cc := entities.NewCulturalContext(entities.CraftMetalcraft, entities.RegionUttarPradesh, entities.SignificanceFestivalItem,
		nil, nil, []entities.Festival{entities.FestivalDiwali, entities.FestivalDhanteras}, nil, 0.5, time.Unix(0, 0))

	assert.InDelta(t, 0.4, svc.SeasonalRelevance(cc, []entities.Festival{entities.FestivalDiwali, entities.FestivalDhanteras}), 1e-9)
	assert.Equal(t, 0.0, svc.SeasonalRelevance(cc, []entities.Festival{entities.FestivalHoli}))
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 0.0, jaccard(nil, []string{"a"}))
	assert.InDelta(t, 1.0/3.0, jaccard([]string{"a", "b"}, []string{"b", "c"}), 1e-9)
	assert.Equal(t, 1.0, jaccard([]string{"a"}, []string{"a", "a"}))
}

func TestFindSimilarItems_Threshold(t *testing.T) {
	svc := NewContentSimilarityService(DefaultScoringConfig())
	src := culturalCtx(entities.CraftPottery, entities.RegionRajasthan, "clay")
	cands := []Candidate{
		candidate("same", culturalCtx(entities.CraftPottery, entities.RegionRajasthan, "clay")),
		candidate("related", culturalCtx(entities.CraftSculpture, entities.RegionGujarat)),
		candidate("far", culturalCtx(entities.CraftTextiles, entities.RegionAssam, "silk")),
	}

	for _, threshold := range []float64{0, 0.2, 0.5, 0.9} {
		for _, diversity := range []bool{false, true} {
			out := svc.FindSimilarItems(context.Background(), src, cands, SimilarityOptions{Limit: 10, Threshold: threshold, Diversity: diversity})
			for _, r := range out {
				assert.GreaterOrEqual(t, r.Score.OverallScore, threshold)
			}
		}
	}

	out := svc.FindSimilarItems(context.Background(), src, cands, SimilarityOptions{Limit: 10, Threshold: 0.1})
	require.Len(t, out, 2)
	assert.Equal(t, "same", out[0].ItemID())
	assert.Equal(t, entities.RecommendationCulturalSimilarity, out[0].RecommendationType)
	require.NotNil(t, out[0].Item.Cultural)
}

func TestFindSimilarItems_BlendsVectorScore(t *testing.T) {
	svc := NewContentSimilarityService(DefaultScoringConfig())
	src := culturalCtx(entities.CraftPottery, entities.RegionRajasthan)
	vec := 1.0
	c := candidate("v", culturalCtx(entities.CraftPottery, entities.RegionRajasthan))
	c.VectorScore = &vec

	out := svc.FindSimilarItems(context.Background(), src, []Candidate{c}, SimilarityOptions{Limit: 1})
	require.Len(t, out, 1)
	assert.InDelta(t, 0.55*0.7+0.3, out[0].Score.OverallScore, 1e-9)
	assert.Equal(t, 1.0, out[0].Score.VectorSimilarity)
}

func TestFindSimilarItems_DiversityCap(t *testing.T) {
	cfg := DefaultScoringConfig()
	svc := NewContentSimilarityService(cfg)
	src := culturalCtx(entities.CraftPottery, entities.RegionRajasthan, "clay")

	rng := rand.New(rand.NewSource(42))
	regions := []entities.Region{entities.RegionRajasthan, entities.RegionGujarat, entities.RegionKerala, entities.RegionAssam}
	var cands []Candidate
	for i := 0; i < 40; i++ {
		cands = append(cands, candidate(fmt.Sprintf("c%d", i),
			culturalCtx(entities.CraftPottery, regions[rng.Intn(len(regions))], "clay")))
	}

	out := svc.FindSimilarItems(context.Background(), src, cands, SimilarityOptions{Limit: 8, Diversity: true})
	require.Len(t, out, 8)

	counts := map[entities.Region]int{}
	for _, r := range out {
		counts[r.Item.Cultural.Region]++
		assert.GreaterOrEqual(t, r.Score.DiversityBonus, -0.2)
		assert.LessOrEqual(t, r.Score.DiversityBonus, 0.2)
		assert.GreaterOrEqual(t, r.Score.OverallScore, 0.0)
		assert.LessOrEqual(t, r.Score.OverallScore, 1.0)
	}
	for region, n := range counts {
		assert.LessOrEqual(t, n, cfg.MaxSameRegionItems, region)
	}
}

func TestFindSimilarItems_DiversityFillsFromCappedRegionsLast(t *testing.T) {
	svc := NewContentSimilarityService(DefaultScoringConfig())
	src := culturalCtx(entities.CraftPottery, entities.RegionRajasthan)
	var cands []Candidate
	for i := 0; i < 4; i++ {
		cands = append(cands, candidate(fmt.Sprintf("r%d", i), culturalCtx(entities.CraftPottery, entities.RegionRajasthan)))
	}
	cands = append(cands, candidate("g", culturalCtx(entities.CraftPottery, entities.RegionGujarat)))

	out := svc.FindSimilarItems(context.Background(), src, cands, SimilarityOptions{Limit: 4, Diversity: true})
	require.Len(t, out, 4)
	assert.Equal(t, []string{"r0", "r1", "g", "r2"}, []string{out[0].ItemID(), out[1].ItemID(), out[2].ItemID(), out[3].ItemID()})
	assert.Less(t, out[3].Score.DiversityBonus, 0.0)
}

func TestFindSimilarItems_SkipsBadCandidate(t *testing.T) {
	svc := NewContentSimilarityService(DefaultScoringConfig())
	src := culturalCtx(entities.CraftPottery, entities.RegionRajasthan)
	cands := []Candidate{
		{Item: nil},
		candidate("ok", culturalCtx(entities.CraftPottery, entities.RegionRajasthan)),
	}
	out := svc.FindSimilarItems(context.Background(), src, cands, SimilarityOptions{Limit: 5})
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].ItemID())
}

func TestFindRegionalDiscoveries(t *testing.T) {
	svc := NewContentSimilarityService(DefaultScoringConfig())
	src := culturalCtx(entities.CraftPottery, entities.RegionRajasthan)
	cands := []Candidate{
		candidate("same-region", culturalCtx(entities.CraftPottery, entities.RegionRajasthan)),
		candidate("neighbour", culturalCtx(entities.CraftPottery, entities.RegionGujarat)),
		candidate("far", culturalCtx(entities.CraftPottery, entities.RegionAssam)),
		candidate("unknown", culturalCtx(entities.CraftPottery, entities.RegionUnknown)),
	}

	out := svc.FindRegionalDiscoveries(context.Background(), src, cands, 10, 1)
	require.Len(t, out, 2)
	assert.Equal(t, "neighbour", out[0].ItemID())
	assert.Equal(t, "far", out[1].ItemID())
	assert.Greater(t, out[0].Score.DiversityBonus, out[1].Score.DiversityBonus)
	assert.Equal(t, entities.RecommendationRegionalDiscovery, out[0].RecommendationType)
}

func TestFindRegionalDiscoveries_UnknownSourceKeepsAllRegions(t *testing.T) {
	svc := NewContentSimilarityService(DefaultScoringConfig())
	src := culturalCtx(entities.CraftPottery, entities.RegionUnknown)
	cands := []Candidate{
		candidate("a", culturalCtx(entities.CraftPottery, entities.RegionRajasthan)),
		candidate("b", culturalCtx(entities.CraftPottery, entities.RegionUnknown)),
	}

	out := svc.FindRegionalDiscoveries(context.Background(), src, cands, 10, 0.5)
	require.Len(t, out, 2)
	ids := []string{out[0].ItemID(), out[1].ItemID()}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
	for _, rec := range out {
		if rec.ItemID() == "b" {
			assert.Contains(t, rec.MatchReasons, "Discover new craftsmanship")
		}
	}
}

func TestFindSeasonalRecommendations_WorkedExample(t *testing.T) {
	svc := NewContentSimilarityService(DefaultScoringConfig())
	gift := entities.NewCulturalContext(entities.CraftMetalcraft, entities.RegionUttarPradesh, entities.SignificanceGiftItem,
		nil, nil, []entities.Festival{entities.FestivalDiwali}, nil, 0.5, time.Unix(0, 0))
	daily := entities.NewCulturalContext(entities.CraftPottery, entities.RegionKerala, entities.SignificanceDailyUse,
		nil, nil, nil, nil, 0.5, time.Unix(0, 0))

	out := svc.FindSeasonalRecommendations(context.Background(),
		[]Candidate{candidate("daily", daily), candidate("gift", gift)},
		[]entities.Festival{entities.FestivalDiwali, entities.FestivalDhanteras}, 10)

	require.Len(t, out, 1)
	assert.Equal(t, "gift", out[0].ItemID())
	assert.InDelta(t, 0.5, out[0].Score.OverallScore, 1e-9)
	assert.Contains(t, out[0].MatchReasons, "Perfect for Diwali")
}

func TestFindCrossCulturalDiscoveries(t *testing.T) {
	svc := NewContentSimilarityService(DefaultScoringConfig())
	src := culturalCtx(entities.CraftPottery, entities.RegionRajasthan, "clay")
	cands := []Candidate{
		candidate("cross-region", culturalCtx(entities.CraftPottery, entities.RegionKerala, "clay")),
		candidate("cross-craft", culturalCtx(entities.CraftTextiles, entities.RegionRajasthan)),
		candidate("identical", culturalCtx(entities.CraftPottery, entities.RegionRajasthan)),
		candidate("unrelated", culturalCtx(entities.CraftTextiles, entities.RegionKerala)),
	}

	out := svc.FindCrossCulturalDiscoveries(context.Background(), src, cands, 10)
	require.Len(t, out, 2)
	assert.Equal(t, "cross-region", out[0].ItemID())
	assert.InDelta(t, 0.9, out[0].Score.OverallScore, 1e-9)
	assert.Equal(t, "cross-craft", out[1].ItemID())
	assert.InDelta(t, 0.4, out[1].Score.OverallScore, 1e-9)
	for _, r := range out {
		assert.GreaterOrEqual(t, r.Score.OverallScore, 0.15)
	}
}
