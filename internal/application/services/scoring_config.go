package services

import "github.com/zatekoja/artisan-discovery/backend/pkg/config"

// ScoringConfig holds every scoring constant used by the recommendation
// engines. All call sites read from one instance so a constant is never
// duplicated with a different value.
type ScoringConfig struct {
	// Cultural similarity weights. They need not sum to 1.
	CraftWeight     float64
	RegionWeight    float64
	MaterialWeight  float64
	TechniqueWeight float64
	FestivalWeight  float64

	// Blend of cultural and vector similarity when a vector score exists.
	CulturalBlendWeight float64
	VectorBlendWeight   float64

	// Seasonal relevance per active festival match, capped at 1.
	SeasonalMatchWeight float64
	// Seasonal request scoring.
	SeasonalFestivalScore     float64
	SeasonalSignificanceBonus float64
	SeasonalMinScore          float64
	// Boost applied to item recommendations when seasonal boosting is on.
	SeasonalBoostWeight float64

	// Greedy diversity penalties.
	MaxSameRegionItems int
	MaxSameCraftItems  int
	SameRegionPenalty  float64
	SameCraftPenalty   float64
	MaxDiversityBonus  float64

	// Regional discovery bonuses.
	RegionalDiscoveryBoost  float64
	NeighbouringRegionBonus float64

	// Cross-cultural comparator.
	CrossRegionSameCraftBase   float64
	SameRegionCrossCraftBase   float64
	CrossCulturalOverlapWeight float64
	CrossCulturalMinScore      float64

	// Cultural analysis confidence.
	BaseConfidence       float64
	AIConfidenceCap      float64
	KeywordConfidenceCap float64
	MinimalConfidence    float64

	// Collaborative filtering.
	MinInteractionsProfile   int
	MinInteractionsCF        int
	SimilarUserLimit         int
	SimilarUserThreshold     float64
	UnfamiliarRegionCutoff   float64
	ExplorationBonusWeight   float64
	UserCraftSimWeight       float64
	UserRegionSimWeight      float64
	UserFestivalSimWeight    float64
	UserTraditionalSimWeight float64
	UserOpennessSimWeight    float64

	// Content-based user scoring weights.
	PreferenceCraftWeight    float64
	PreferenceRegionWeight   float64
	PreferenceFestivalWeight float64
	PreferenceMaterialWeight float64
}

// DefaultScoringConfig returns the documented defaults.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		CraftWeight:     0.30,
		RegionWeight:    0.25,
		MaterialWeight:  0.20,
		TechniqueWeight: 0.15,
		FestivalWeight:  0.10,

		CulturalBlendWeight: 0.7,
		VectorBlendWeight:   0.3,

		SeasonalMatchWeight:       0.2,
		SeasonalFestivalScore:     0.3,
		SeasonalSignificanceBonus: 0.2,
		SeasonalMinScore:          0.1,
		SeasonalBoostWeight:       0.1,

		MaxSameRegionItems: 2,
		MaxSameCraftItems:  3,
		SameRegionPenalty:  -0.1,
		SameCraftPenalty:   -0.05,
		MaxDiversityBonus:  0.2,

		RegionalDiscoveryBoost:  0.1,
		NeighbouringRegionBonus: 0.05,

		CrossRegionSameCraftBase:   0.6,
		SameRegionCrossCraftBase:   0.4,
		CrossCulturalOverlapWeight: 0.3,
		CrossCulturalMinScore:      0.15,

		BaseConfidence:       0.4,
		AIConfidenceCap:      0.8,
		KeywordConfidenceCap: 0.7,
		MinimalConfidence:    0.1,

		MinInteractionsProfile:   3,
		MinInteractionsCF:        5,
		SimilarUserLimit:         20,
		SimilarUserThreshold:     0.1,
		UnfamiliarRegionCutoff:   0.3,
		ExplorationBonusWeight:   0.1,
		UserCraftSimWeight:       0.3,
		UserRegionSimWeight:      0.25,
		UserFestivalSimWeight:    0.2,
		UserTraditionalSimWeight: 0.15,
		UserOpennessSimWeight:    0.1,

		PreferenceCraftWeight:    0.4,
		PreferenceRegionWeight:   0.3,
		PreferenceFestivalWeight: 0.2,
		PreferenceMaterialWeight: 0.1,
	}
}

// ScoringConfigFrom applies the environment overrides in cfg to the defaults.
func ScoringConfigFrom(cfg config.RecommendationConfig) ScoringConfig {
	sc := DefaultScoringConfig()
	if cfg.MinInteractionsProfile > 0 {
		sc.MinInteractionsProfile = cfg.MinInteractionsProfile
	}
	if cfg.MinInteractionsCF > 0 {
		sc.MinInteractionsCF = cfg.MinInteractionsCF
	}
	if cfg.MaxSameRegionItems > 0 {
		sc.MaxSameRegionItems = cfg.MaxSameRegionItems
	}
	if cfg.KeywordConfidenceCap > 0 {
		sc.KeywordConfidenceCap = cfg.KeywordConfidenceCap
	}
	if cfg.AIConfidenceCap > 0 {
		sc.AIConfidenceCap = cfg.AIConfidenceCap
	}
	return sc
}
