package taxonomy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

func TestCraftSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, CraftSimilarity(entities.CraftPottery, entities.CraftPottery))
	assert.Equal(t, 0.6, CraftSimilarity(entities.CraftPottery, entities.CraftSculpture))
	assert.Equal(t, 0.6, CraftSimilarity(entities.CraftSculpture, entities.CraftPottery))
	assert.Equal(t, 0.0, CraftSimilarity(entities.CraftPottery, entities.CraftTextiles))
	assert.Equal(t, 0.0, CraftSimilarity(entities.CraftUnknown, entities.CraftUnknown))
}

func TestRelatednessScoresWithinRange(t *testing.T) {
	for pair, s := range craftRelations {
		assert.GreaterOrEqual(t, s, 0.4, "%v", pair)
		assert.LessOrEqual(t, s, 0.6, "%v", pair)
	}
	for pair, s := range neighbouringRegions {
		assert.Greater(t, s, 0.0, "%v", pair)
		assert.Less(t, s, 1.0, "%v", pair)
	}
}

func TestRegionSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, RegionSimilarity(entities.RegionKerala, entities.RegionKerala))
	assert.Equal(t, 0.6, RegionSimilarity(entities.RegionTamilNadu, entities.RegionKerala))
	assert.Equal(t, 0.0, RegionSimilarity(entities.RegionKerala, entities.RegionKashmir))
	assert.Equal(t, 0.0, RegionSimilarity(entities.RegionUnknown, entities.RegionKerala))
	assert.True(t, AreNeighbours(entities.RegionRajasthan, entities.RegionGujarat))
	assert.False(t, AreNeighbours(entities.RegionGujarat, entities.RegionGujarat))
}

func TestFestivalsForMonth(t *testing.T) {
	nov := FestivalsForMonth(time.November)
	assert.Contains(t, nov, entities.FestivalDiwali)
	assert.Contains(t, nov, entities.FestivalDhanteras)
	assert.Contains(t, nov, entities.FestivalWeddingSeason)
	assert.NotContains(t, FestivalsForMonth(time.July), entities.FestivalWeddingSeason)

	nov[0] = entities.FestivalHoli
	assert.Equal(t, entities.FestivalDiwali, FestivalsForMonth(time.November)[0])
}

func TestIsWeddingSeason(t *testing.T) {
	for _, m := range []time.Month{time.October, time.November, time.December, time.January, time.February} {
		assert.True(t, IsWeddingSeason(m), m.String())
	}
	for _, m := range []time.Month{time.March, time.June, time.September} {
		assert.False(t, IsWeddingSeason(m), m.String())
	}
}

func TestSeasonalQueries(t *testing.T) {
	q := SeasonalQueries([]entities.Festival{entities.FestivalDiwali, entities.FestivalDiwali})
	assert.Equal(t, "festival", q[0])
	assert.Contains(t, q, "diwali")
	assert.Contains(t, q, "diwali diya")

	seen := map[string]int{}
	for _, s := range q {
		seen[s]++
	}
	for s, n := range seen {
		assert.Equal(t, 1, n, s)
	}
}

func TestKeywordTablesCoverEveryKnownValue(t *testing.T) {
	for _, c := range entities.AllCraftTypes() {
		assert.NotEmpty(t, CraftKeywords[c], c)
	}
	for _, r := range entities.AllRegions() {
		assert.NotEmpty(t, RegionKeywords[r], r)
	}
	for _, s := range entities.AllSignificances() {
		assert.NotEmpty(t, SignificanceKeywords[s], s)
	}
	for _, f := range entities.AllFestivals() {
		assert.NotEmpty(t, FestivalKeywords[f], f)
	}
}
