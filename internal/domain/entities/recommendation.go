package entities

import "time"

// RecommendationType selects a recommendation strategy.
type RecommendationType string

const (
	RecommendationCulturalSimilarity RecommendationType = "cultural_similarity"
	RecommendationRegionalDiscovery  RecommendationType = "regional_discovery"
	RecommendationFestivalSeasonal   RecommendationType = "festival_seasonal"
	RecommendationCrossCultural      RecommendationType = "cross_cultural"
	RecommendationCollaborative      RecommendationType = "collaborative"
	RecommendationPersonalized       RecommendationType = "personalized"
)

// ParseRecommendationType converts s; ok is false for unknown values.
func ParseRecommendationType(s string) (RecommendationType, bool) {
	t := RecommendationType(normalizeEnum(s))
	switch t {
	case RecommendationCulturalSimilarity, RecommendationRegionalDiscovery,
		RecommendationFestivalSeasonal, RecommendationCrossCultural,
		RecommendationCollaborative, RecommendationPersonalized:
		return t, true
	}
	return "", false
}

// RecommendationScore is the score breakdown of a recommended item.
// DiversityBonus lies in [-0.2, 0.2]; every other field lies in [0,1].
type RecommendationScore struct {
	OverallScore       float64 `json:"overall_score"`
	CulturalSimilarity float64 `json:"cultural_similarity"`
	VectorSimilarity   float64 `json:"vector_similarity"`
	SeasonalRelevance  float64 `json:"seasonal_relevance"`
	RegionalMatch      float64 `json:"regional_match"`
	FestivalRelevance  float64 `json:"festival_relevance"`
	DiversityBonus     float64 `json:"diversity_bonus"`
}

// RecommendationItem is one ranked recommendation.
type RecommendationItem struct {
	Item               *CatalogItem        `json:"item"`
	Score              RecommendationScore `json:"score"`
	RecommendationType RecommendationType  `json:"recommendation_type"`
	MatchReasons       []string            `json:"match_reasons"`
}

// ItemID returns the id of the recommended item.
func (r RecommendationItem) ItemID() string {
	if r.Item == nil {
		return ""
	}
	return r.Item.ID
}

// RecommendationResponse is the result of a recommendation request. A
// failed request is still a well-formed response with Error set.
type RecommendationResponse struct {
	RequestID            string               `json:"request_id"`
	Recommendations      []RecommendationItem `json:"recommendations"`
	TotalRecommendations int                  `json:"total_recommendations"`
	RecommendationTypes  []RecommendationType `json:"recommendation_types"`
	Strategy             string               `json:"strategy,omitempty"`
	SourceItemID         string               `json:"source_item_id,omitempty"`
	UserID               string               `json:"user_id,omitempty"`
	ActiveFestivals      []Festival           `json:"active_festivals,omitempty"`
	ProcessingTimeMs     float64              `json:"processing_time_ms"`
	CacheHits            int                  `json:"cache_hits"`
	GeneratedAt          time.Time            `json:"generated_at"`
	Error                string               `json:"error,omitempty"`
}

// BatchStats aggregates diversity over a batch response.
type BatchStats struct {
	TotalRecommendations int            `json:"total_recommendations"`
	UniqueItems          int            `json:"unique_items"`
	DuplicatesRemoved    int            `json:"duplicates_removed"`
	RegionDistribution   map[string]int `json:"region_distribution"`
	CraftDistribution    map[string]int `json:"craft_distribution"`
	DiversityScore       float64        `json:"diversity_score"`
	FailedItems          []string       `json:"failed_items,omitempty"`
}

// BatchRecommendationResponse holds per-item responses in request order.
type BatchRecommendationResponse struct {
	Results          map[string]*RecommendationResponse `json:"results"`
	ItemOrder        []string                           `json:"item_order"`
	Stats            BatchStats                         `json:"stats"`
	ProcessingTimeMs float64                            `json:"processing_time_ms"`
}
