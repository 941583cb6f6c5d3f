package services

import (
	"time"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

const (
	defaultRecommendationLimit = 10
	maxRecommendationLimit     = 100
)

// ItemRecommendationRequest asks for items related to one catalog item.
type ItemRecommendationRequest struct {
	ItemID              string                        `json:"item_id" validate:"required"`
	RecommendationTypes []entities.RecommendationType `json:"recommendation_types"`
	Limit               int                           `json:"limit" validate:"omitempty,min=1,max=100"`
	SimilarityThreshold float64                       `json:"similarity_threshold" validate:"omitempty,min=0,max=1"`
	IncludeDiversity    bool                          `json:"include_diversity"`
	SeasonalBoost       bool                          `json:"seasonal_boost"`
	ExcludeIDs          []string                      `json:"exclude_ids"`
}

// UserRecommendationRequest asks for items for a user, identified or not.
type UserRecommendationRequest struct {
	UserID              string                        `json:"user_id"`
	InteractionHistory  []string                      `json:"interaction_history"`
	PreferredCrafts     []entities.CraftType          `json:"preferred_crafts"`
	PreferredRegions    []entities.Region             `json:"preferred_regions"`
	PreferredFestivals  []entities.Festival           `json:"preferred_festivals"`
	BudgetRange         *entities.PriceRange          `json:"budget_range"`
	RecommendationTypes []entities.RecommendationType `json:"recommendation_types"`
	Limit               int                           `json:"limit" validate:"omitempty,min=1,max=100"`
	DiversityFactor     float64                       `json:"diversity_factor" validate:"omitempty,min=0,max=1"`
}

// SeasonalRecommendationRequest asks for festival-relevant items. With no
// festivals given, the festivals of the current month are used.
type SeasonalRecommendationRequest struct {
	CurrentFestival   string   `json:"current_festival"`
	UpcomingFestivals []string `json:"upcoming_festivals"`
	Region            string   `json:"region"`
	Limit             int      `json:"limit" validate:"omitempty,min=1,max=100"`
}

// BatchRecommendationRequest fans out item requests.
type BatchRecommendationRequest struct {
	ItemIDs                []string                      `json:"item_ids" validate:"required,min=1,max=50,dive,required"`
	RecommendationsPerItem int                           `json:"recommendations_per_item" validate:"omitempty,min=1,max=50"`
	RecommendationTypes    []entities.RecommendationType `json:"recommendation_types"`
	Deduplicate            bool                          `json:"deduplicate"`
}

// RecommendationOptions tunes the orchestrator.
type RecommendationOptions struct {
	ResponseCacheTTL  time.Duration
	CandidatePoolSize int
	BatchConcurrency  int
	InstanceID        string
}

// ClearCacheResult reports what ClearCache dropped.
type ClearCacheResult struct {
	ResponseEntries int `json:"response_entries"`
	ContextEntries  int `json:"context_entries"`
	AnalysisEntries int `json:"analysis_entries"`
	Profiles        int `json:"profiles"`
}

// OptimizeResult reports what OptimizePerformance evicted.
type OptimizeResult struct {
	ExpiredContexts  int     `json:"expired_contexts"`
	ExpiredAnalyses  int     `json:"expired_analyses"`
	ExpiredResponses int     `json:"expired_responses"`
	DurationMs       float64 `json:"duration_ms"`
}

// ServiceStats is a snapshot of orchestrator statistics.
type ServiceStats struct {
	Requests         int64                    `json:"requests"`
	CacheHits        int64                    `json:"cache_hits"`
	CacheMisses      int64                    `json:"cache_misses"`
	CacheHitRate     float64                  `json:"cache_hit_rate"`
	Errors           int64                    `json:"errors"`
	ContextCacheSize int                      `json:"context_cache_size"`
	Analyzer         AnalyzerStats            `json:"analyzer"`
	Collaborative    CollaborativeFilterStats `json:"collaborative"`
	UptimeSeconds    float64                  `json:"uptime_seconds"`
}

func normalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecommendationLimit
	case limit > maxRecommendationLimit:
		return maxRecommendationLimit
	}
	return limit
}
