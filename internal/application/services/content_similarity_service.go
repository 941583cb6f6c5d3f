package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/taxonomy"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
)

// Candidate is an item under consideration together with its resolved
// cultural context and, when the search layer supplied one, its vector
// similarity to the query.
type Candidate struct {
	Item        *entities.CatalogItem
	Context     entities.CulturalContext
	VectorScore *float64
}

// SimilarityResult breaks down the cultural similarity of two contexts.
// Score is the weighted sum of the five factors; SeasonalRelevance is
// reported separately and is not part of it.
type SimilarityResult struct {
	Score               float64
	CraftSimilarity     float64
	RegionSimilarity    float64
	MaterialSimilarity  float64
	TechniqueSimilarity float64
	FestivalSimilarity  float64
	SeasonalRelevance   float64
	Reasons             []string
}

// SimilarityOptions controls FindSimilarItems.
type SimilarityOptions struct {
	Limit           int
	Threshold       float64
	Diversity       bool
	ActiveFestivals []entities.Festival
}

// ContentSimilarityService scores items by cultural similarity.
type ContentSimilarityService struct {
	cfg ScoringConfig
}

// NewContentSimilarityService creates a similarity engine.
func NewContentSimilarityService(cfg ScoringConfig) *ContentSimilarityService {
	return &ContentSimilarityService{cfg: cfg}
}

// Similarity computes the weighted cultural similarity of candidate to
// source. It is deterministic and each factor lies in [0,1].
func (s *ContentSimilarityService) Similarity(source, candidate entities.CulturalContext, activeFestivals []entities.Festival) SimilarityResult {
	r := SimilarityResult{
		CraftSimilarity:     taxonomy.CraftSimilarity(source.CraftType, candidate.CraftType),
		RegionSimilarity:    taxonomy.RegionSimilarity(source.Region, candidate.Region),
		MaterialSimilarity:  jaccard(source.Materials, candidate.Materials),
		TechniqueSimilarity: jaccard(source.TraditionalTechniques, candidate.TraditionalTechniques),
		FestivalSimilarity:  jaccard(source.FestivalStrings(), candidate.FestivalStrings()),
		SeasonalRelevance:   s.SeasonalRelevance(candidate, activeFestivals),
	}
	r.Score = clamp01(
		r.CraftSimilarity*s.cfg.CraftWeight +
			r.RegionSimilarity*s.cfg.RegionWeight +
			r.MaterialSimilarity*s.cfg.MaterialWeight +
			r.TechniqueSimilarity*s.cfg.TechniqueWeight +
			r.FestivalSimilarity*s.cfg.FestivalWeight,
	)
	r.Reasons = similarityReasons(source, candidate, r)
	return r
}

// SeasonalRelevance is the per-festival bonus for festivals currently
// active, capped at 1.
func (s *ContentSimilarityService) SeasonalRelevance(candidate entities.CulturalContext, activeFestivals []entities.Festival) float64 {
	matches := 0
	for _, f := range activeFestivals {
		if candidate.HasFestival(f) {
			matches++
		}
	}
	return minFloat(float64(matches)*s.cfg.SeasonalMatchWeight, 1)
}

// FindSimilarItems ranks candidates by similarity to source. A vector
// score, when present, is blended in. Every returned item scores at least
// opts.Threshold after any diversity penalty.
func (s *ContentSimilarityService) FindSimilarItems(ctx context.Context, source entities.CulturalContext, candidates []Candidate, opts SimilarityOptions) []entities.RecommendationItem {
	scored := make([]entities.RecommendationItem, 0, len(candidates))
	for _, c := range candidates {
		item, ok := s.scoreCandidate(ctx, c, func() entities.RecommendationItem {
			r := s.Similarity(source, c.Context, opts.ActiveFestivals)
			overall, vector := r.Score, 0.0
			if c.VectorScore != nil {
				vector = clamp01(*c.VectorScore)
				overall = r.Score*s.cfg.CulturalBlendWeight + vector*s.cfg.VectorBlendWeight
			}
			return entities.RecommendationItem{
				Item: itemWithContext(c),
				Score: entities.RecommendationScore{
					OverallScore:       clamp01(overall),
					CulturalSimilarity: r.Score,
					VectorSimilarity:   vector,
					SeasonalRelevance:  r.SeasonalRelevance,
					RegionalMatch:      r.RegionSimilarity,
					FestivalRelevance:  r.FestivalSimilarity,
				},
				RecommendationType: entities.RecommendationCulturalSimilarity,
				MatchReasons:       r.Reasons,
			}
		})
		if ok {
			scored = append(scored, item)
		}
	}

	sortByScore(scored)
	if opts.Diversity {
		return NewDiversityTracker(s.cfg).Rank(scored, opts.Threshold, opts.Limit)
	}
	return filterAndTruncate(scored, opts.Threshold, opts.Limit)
}

// FindRegionalDiscoveries surfaces items from regions other than the
// source's. Neighbouring regions earn an extra bonus. Items of unknown
// region are only kept when the source region is itself unknown.
func (s *ContentSimilarityService) FindRegionalDiscoveries(ctx context.Context, source entities.CulturalContext, candidates []Candidate, limit int, diversityFactor float64) []entities.RecommendationItem {
	if diversityFactor <= 0 {
		diversityFactor = 1
	}
	scored := make([]entities.RecommendationItem, 0, len(candidates))
	for _, c := range candidates {
		if source.Region != entities.RegionUnknown && c.Context.Region == entities.RegionUnknown {
			continue
		}
		if source.Region != entities.RegionUnknown && c.Context.Region == source.Region {
			continue
		}
		item, ok := s.scoreCandidate(ctx, c, func() entities.RecommendationItem {
			r := s.Similarity(source, c.Context, nil)
			bonus := s.cfg.RegionalDiscoveryBoost * diversityFactor
			reasons := []string{"Discover new craftsmanship"}
			if c.Context.Region != entities.RegionUnknown {
				reasons[0] = fmt.Sprintf("Discover %s craftsmanship", displayName(string(c.Context.Region)))
			}
			if taxonomy.AreNeighbours(source.Region, c.Context.Region) {
				bonus += s.cfg.NeighbouringRegionBonus
				reasons = append(reasons, fmt.Sprintf("Neighbouring tradition to %s", displayName(string(source.Region))))
			}
			bonus = clamp(bonus, -s.cfg.MaxDiversityBonus, s.cfg.MaxDiversityBonus)
			if r.CraftSimilarity == 1 {
				reasons = append(reasons, fmt.Sprintf("Same craft: %s", displayName(string(c.Context.CraftType))))
			}
			return entities.RecommendationItem{
				Item: itemWithContext(c),
				Score: entities.RecommendationScore{
					OverallScore:       clamp01(r.Score + bonus),
					CulturalSimilarity: r.Score,
					RegionalMatch:      r.RegionSimilarity,
					FestivalRelevance:  r.FestivalSimilarity,
					DiversityBonus:     bonus,
				},
				RecommendationType: entities.RecommendationRegionalDiscovery,
				MatchReasons:       reasons,
			}
		})
		if ok {
			scored = append(scored, item)
		}
	}

	sortByScore(scored)
	return NewDiversityTracker(s.cfg).Rank(scored, 0, limit)
}

// FindSeasonalRecommendations scores candidates by the active festivals
// they belong to, with a bonus for gift-like significance.
func (s *ContentSimilarityService) FindSeasonalRecommendations(ctx context.Context, candidates []Candidate, activeFestivals []entities.Festival, limit int) []entities.RecommendationItem {
	scored := make([]entities.RecommendationItem, 0, len(candidates))
	for _, c := range candidates {
		item, ok := s.scoreCandidate(ctx, c, func() entities.RecommendationItem {
			score, reasons := s.seasonalScore(c.Context, activeFestivals)
			return entities.RecommendationItem{
				Item: itemWithContext(c),
				Score: entities.RecommendationScore{
					OverallScore:      clamp01(score),
					SeasonalRelevance: s.SeasonalRelevance(c.Context, activeFestivals),
					FestivalRelevance: clamp01(score),
				},
				RecommendationType: entities.RecommendationFestivalSeasonal,
				MatchReasons:       reasons,
			}
		})
		if ok && item.Score.OverallScore > s.cfg.SeasonalMinScore {
			scored = append(scored, item)
		}
	}

	sortByScore(scored)
	return filterAndTruncate(scored, 0, limit)
}

func (s *ContentSimilarityService) seasonalScore(cc entities.CulturalContext, activeFestivals []entities.Festival) (float64, []string) {
	score := 0.0
	var reasons []string
	for _, f := range activeFestivals {
		if cc.HasFestival(f) {
			score += s.cfg.SeasonalFestivalScore
			reasons = append(reasons, fmt.Sprintf("Perfect for %s", displayName(string(f))))
		}
	}
	if cc.CulturalSignificance.IsSeasonalGift() {
		score += s.cfg.SeasonalSignificanceBonus
		reasons = append(reasons, fmt.Sprintf("Popular %s", displayName(string(cc.CulturalSignificance))))
	}
	return score, reasons
}

// FindCrossCulturalDiscoveries rewards pairs that share a craft across
// regions, or a region across crafts.
func (s *ContentSimilarityService) FindCrossCulturalDiscoveries(ctx context.Context, source entities.CulturalContext, candidates []Candidate, limit int) []entities.RecommendationItem {
	scored := make([]entities.RecommendationItem, 0, len(candidates))
	for _, c := range candidates {
		item, ok := s.scoreCandidate(ctx, c, func() entities.RecommendationItem {
			score, reasons := s.crossCulturalScore(source, c.Context)
			return entities.RecommendationItem{
				Item: itemWithContext(c),
				Score: entities.RecommendationScore{
					OverallScore:       clamp01(score),
					CulturalSimilarity: clamp01(score),
					RegionalMatch:      taxonomy.RegionSimilarity(source.Region, c.Context.Region),
				},
				RecommendationType: entities.RecommendationCrossCultural,
				MatchReasons:       reasons,
			}
		})
		if ok && item.Score.OverallScore >= s.cfg.CrossCulturalMinScore {
			scored = append(scored, item)
		}
	}

	sortByScore(scored)
	return filterAndTruncate(scored, s.cfg.CrossCulturalMinScore, limit)
}

func (s *ContentSimilarityService) crossCulturalScore(source, cand entities.CulturalContext) (float64, []string) {
	knownRegions := source.Region != entities.RegionUnknown && cand.Region != entities.RegionUnknown
	knownCrafts := source.CraftType != entities.CraftUnknown && cand.CraftType != entities.CraftUnknown
	if !knownRegions || !knownCrafts {
		return 0, nil
	}
	switch {
	case source.Region != cand.Region && source.CraftType == cand.CraftType:
		return s.cfg.CrossRegionSameCraftBase + s.cfg.CrossCulturalOverlapWeight*jaccard(source.Materials, cand.Materials),
			[]string{fmt.Sprintf("%s from %s", displayName(string(cand.CraftType)), displayName(string(cand.Region)))}
	case source.Region == cand.Region && source.CraftType != cand.CraftType:
		return s.cfg.SameRegionCrossCraftBase + s.cfg.CrossCulturalOverlapWeight*jaccard(source.TraditionalTechniques, cand.TraditionalTechniques),
			[]string{fmt.Sprintf("Another %s tradition: %s", displayName(string(cand.Region)), displayName(string(cand.CraftType)))}
	}
	return 0, nil
}

// scoreCandidate runs fn, skipping the candidate if it panics.
func (s *ContentSimilarityService) scoreCandidate(ctx context.Context, c Candidate, fn func() entities.RecommendationItem) (item entities.RecommendationItem, ok bool) {
	if c.Item == nil {
		return item, false
	}
	defer func() {
		if r := recover(); r != nil {
			observability.LoggerFromContext(ctx).Warn().
				Str("item_id", c.Item.ID).
				Interface("panic", r).
				Msg("skipping candidate that failed to score")
			ok = false
		}
	}()
	return fn(), true
}

func similarityReasons(source, cand entities.CulturalContext, r SimilarityResult) []string {
	var reasons []string
	switch {
	case r.CraftSimilarity == 1:
		reasons = append(reasons, fmt.Sprintf("Same craft: %s", displayName(string(cand.CraftType))))
	case r.CraftSimilarity > 0:
		reasons = append(reasons, fmt.Sprintf("Related craft: %s", displayName(string(cand.CraftType))))
	}
	switch {
	case r.RegionSimilarity == 1:
		reasons = append(reasons, fmt.Sprintf("Same region: %s", displayName(string(cand.Region))))
	case r.RegionSimilarity > 0:
		reasons = append(reasons, fmt.Sprintf("Neighbouring region: %s", displayName(string(cand.Region))))
	}
	if shared := intersect(source.Materials, cand.Materials); len(shared) > 0 {
		reasons = append(reasons, "Shared materials: "+strings.Join(shared, ", "))
	}
	if shared := intersect(source.TraditionalTechniques, cand.TraditionalTechniques); len(shared) > 0 {
		reasons = append(reasons, "Shared techniques: "+strings.Join(shared, ", "))
	}
	if shared := intersect(source.FestivalStrings(), cand.FestivalStrings()); len(shared) > 0 {
		reasons = append(reasons, "Celebrated during "+strings.Join(shared, ", "))
	}
	return reasons
}

// jaccard is |a∩b| / |a∪b|, or 0 when either set is empty.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	inter := 0
	union := len(set)
	seenB := make(map[string]struct{}, len(b))
	for _, v := range b {
		if _, dup := seenB[v]; dup {
			continue
		}
		seenB[v] = struct{}{}
		if _, ok := set[v]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	var out []string
	for _, v := range b {
		if _, ok := set[v]; ok {
			out = append(out, v)
			delete(set, v)
		}
	}
	return out
}

// itemWithContext returns a copy of the candidate item carrying its
// resolved context and no vector.
func itemWithContext(c Candidate) *entities.CatalogItem {
	out := *c.Item
	cc := c.Context.Clone()
	out.Cultural = &cc
	out.Vector = nil
	return &out
}

// sortByScore orders items by descending overall score, keeping input
// order among ties.
func sortByScore(items []entities.RecommendationItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score.OverallScore > items[j].Score.OverallScore
	})
}

func filterAndTruncate(items []entities.RecommendationItem, threshold float64, limit int) []entities.RecommendationItem {
	out := make([]entities.RecommendationItem, 0, len(items))
	for _, it := range items {
		if it.Score.OverallScore < threshold {
			continue
		}
		out = append(out, it)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func displayName(s string) string {
	words := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
