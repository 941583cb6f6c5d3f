package services

import (
	"context"
	"time"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/taxonomy"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
)

// SeasonalWarmer is the subset of the recommendation service the warmer
// drives.
type SeasonalWarmer interface {
	GetSeasonalRecommendations(ctx context.Context, req SeasonalRecommendationRequest) *entities.RecommendationResponse
	OptimizePerformance(ctx context.Context) OptimizeResult
}

// CacheWarmingService precomputes seasonal recommendations for the
// current month and prunes expired cache entries.
type CacheWarmingService struct {
	target  SeasonalWarmer
	regions []entities.Region
	limit   int
	now     func() time.Time
}

// NewCacheWarmingService creates a new cache warming service. Each region
// in regions gets its own warmed seasonal response alongside the
// catalog-wide one.
func NewCacheWarmingService(target SeasonalWarmer, regions []entities.Region) *CacheWarmingService {
	return &CacheWarmingService{
		target:  target,
		regions: regions,
		limit:   defaultRecommendationLimit,
		now:     time.Now,
	}
}

// WarmCache computes seasonal responses for this month's festivals so the
// first visitors hit the response cache. It returns how many responses
// were produced without error.
func (s *CacheWarmingService) WarmCache(ctx context.Context) int {
	logger := observability.LoggerFromContext(ctx)
	festivals := taxonomy.FestivalsForMonth(s.now().Month())
	if len(festivals) == 0 {
		logger.Debug().Msg("No festivals this month, skipping seasonal warming")
		return 0
	}

	requests := []SeasonalRecommendationRequest{{Limit: s.limit}}
	for _, f := range festivals {
		requests = append(requests, SeasonalRecommendationRequest{CurrentFestival: string(f), Limit: s.limit})
	}
	for _, r := range s.regions {
		requests = append(requests, SeasonalRecommendationRequest{Region: string(r), Limit: s.limit})
	}

	warmed := 0
	for _, req := range requests {
		if ctx.Err() != nil {
			break
		}
		resp := s.target.GetSeasonalRecommendations(ctx, req)
		if resp.Error != "" {
			logger.Debug().Str("festival", req.CurrentFestival).Str("region", req.Region).Str("error", resp.Error).Msg("Seasonal warming produced no results")
			continue
		}
		warmed++
	}
	logger.Info().Int("warmed", warmed).Int("requested", len(requests)).Msg("Cache warming completed")
	return warmed
}

// StartPeriodicWarming starts a background goroutine that periodically
// warms the cache and evicts expired entries until ctx is cancelled.
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	logger := observability.LoggerFromContext(ctx)
	s.WarmCache(ctx)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("Stopping cache warming service")
				return
			case <-ticker.C:
				s.target.OptimizePerformance(ctx)
				s.WarmCache(ctx)
			}
		}
	}()
	logger.Info().Dur("interval", interval).Msg("Started periodic cache warming")
}
