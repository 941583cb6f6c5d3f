package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

type recordingWarmer struct {
	mu        sync.Mutex
	requests  []SeasonalRecommendationRequest
	optimized int
}

func (w *recordingWarmer) GetSeasonalRecommendations(ctx context.Context, req SeasonalRecommendationRequest) *entities.RecommendationResponse {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append(w.requests, req)
	if req.CurrentFestival == string(entities.FestivalWeddingSeason) {
		return &entities.RecommendationResponse{Error: "no seasonal items"}
	}
	return &entities.RecommendationResponse{}
}

func (w *recordingWarmer) OptimizePerformance(ctx context.Context) OptimizeResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.optimized++
	return OptimizeResult{}
}

func (w *recordingWarmer) optimizeCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.optimized
}

func TestCacheWarming_WarmsMonthFestivalsAndRegions(t *testing.T) {
	w := &recordingWarmer{}
	svc := NewCacheWarmingService(w, []entities.Region{entities.RegionRajasthan})
	svc.now = func() time.Time { return time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC) }

	warmed := svc.WarmCache(context.Background())

	festivals := map[string]bool{}
	for _, r := range w.requests {
		festivals[r.CurrentFestival] = true
	}
	assert.True(t, festivals[""])
	assert.True(t, festivals[string(entities.FestivalDiwali)])
	assert.Equal(t, string(entities.RegionRajasthan), w.requests[len(w.requests)-1].Region)
	assert.Equal(t, len(w.requests)-1, warmed)
}

func TestCacheWarming_PeriodicRunsOptimize(t *testing.T) {
	w := &recordingWarmer{}
	svc := NewCacheWarmingService(w, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc.StartPeriodicWarming(ctx, 10*time.Millisecond)

	assert.Eventually(t, func() bool { return w.optimizeCount() > 0 }, time.Second, 5*time.Millisecond)
}
