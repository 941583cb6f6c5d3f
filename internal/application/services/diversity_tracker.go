package services

import (
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

// DiversityTracker applies the greedy region and craft repetition penalty.
// It is a stateful fold: the penalty a candidate receives depends on the
// candidates accepted before it, so results depend on input order.
type DiversityTracker struct {
	cfg          ScoringConfig
	regionCounts map[entities.Region]int
	craftCounts  map[entities.CraftType]int
}

// NewDiversityTracker returns a tracker with empty counts.
func NewDiversityTracker(cfg ScoringConfig) *DiversityTracker {
	return &DiversityTracker{
		cfg:          cfg,
		regionCounts: make(map[entities.Region]int),
		craftCounts:  make(map[entities.CraftType]int),
	}
}

// RegionCapped reports whether region already holds the maximum number of
// accepted items.
func (d *DiversityTracker) RegionCapped(region entities.Region) bool {
	return d.regionCounts[region] >= d.cfg.MaxSameRegionItems
}

// Penalty returns the adjustment a candidate would receive if accepted now.
func (d *DiversityTracker) Penalty(region entities.Region, craft entities.CraftType) float64 {
	penalty := 0.0
	if d.RegionCapped(region) {
		penalty += d.cfg.SameRegionPenalty
	}
	if d.craftCounts[craft] >= d.cfg.MaxSameCraftItems {
		penalty += d.cfg.SameCraftPenalty
	}
	return penalty
}

// Accept records an accepted candidate.
func (d *DiversityTracker) Accept(region entities.Region, craft entities.CraftType) {
	d.regionCounts[region]++
	d.craftCounts[craft]++
}

// Rank folds over items, which must already be sorted by descending
// score. Candidates from a region at its cap are deferred and admitted,
// penalised, only after every other candidate above threshold has been
// considered. Each returned item has the penalty folded into its
// DiversityBonus and OverallScore, and the result is re-sorted by the
// adjusted score.
func (d *DiversityTracker) Rank(items []entities.RecommendationItem, threshold float64, limit int) []entities.RecommendationItem {
	if limit <= 0 {
		limit = len(items)
	}
	out := make([]entities.RecommendationItem, 0, minInt(limit, len(items)))
	var deferred []entities.RecommendationItem

	for _, item := range items {
		if len(out) >= limit {
			sortByScore(out)
			return out
		}
		region, craft := culturalKeys(item)
		if d.RegionCapped(region) {
			deferred = append(deferred, item)
			continue
		}
		if adjusted, ok := d.admit(item, region, craft, threshold); ok {
			out = append(out, adjusted)
		}
	}

	for _, item := range deferred {
		if len(out) >= limit {
			break
		}
		region, craft := culturalKeys(item)
		if adjusted, ok := d.admit(item, region, craft, threshold); ok {
			out = append(out, adjusted)
		}
	}
	sortByScore(out)
	return out
}

func (d *DiversityTracker) admit(item entities.RecommendationItem, region entities.Region, craft entities.CraftType, threshold float64) (entities.RecommendationItem, bool) {
	penalty := d.Penalty(region, craft)
	bonus := clamp(item.Score.DiversityBonus+penalty, -d.cfg.MaxDiversityBonus, d.cfg.MaxDiversityBonus)
	overall := clamp01(item.Score.OverallScore + (bonus - item.Score.DiversityBonus))
	if overall < threshold {
		return item, false
	}
	item.Score.DiversityBonus = bonus
	item.Score.OverallScore = overall
	if penalty < 0 {
		item.MatchReasons = append(append([]string(nil), item.MatchReasons...), "Diversity adjusted")
	}
	d.Accept(region, craft)
	return item, true
}

func culturalKeys(item entities.RecommendationItem) (entities.Region, entities.CraftType) {
	if item.Item == nil || item.Item.Cultural == nil {
		return entities.RegionUnknown, entities.CraftUnknown
	}
	return item.Item.Cultural.Region, item.Item.Cultural.CraftType
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
