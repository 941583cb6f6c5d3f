package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/artisan-discovery/backend/internal/api/handlers"
	"github.com/zatekoja/artisan-discovery/backend/internal/application/services"
)

type stubAdmin struct {
	cleared   int
	optimized int
}

func (s *stubAdmin) ClearCache(ctx context.Context) services.ClearCacheResult {
	s.cleared++
	return services.ClearCacheResult{ResponseEntries: 3, ContextEntries: 7}
}

func (s *stubAdmin) Stats() services.ServiceStats {
	return services.ServiceStats{Requests: 10, CacheHits: 4, CacheMisses: 6, CacheHitRate: 0.4}
}

func (s *stubAdmin) OptimizePerformance(ctx context.Context) services.OptimizeResult {
	s.optimized++
	return services.OptimizeResult{ExpiredContexts: 2}
}

type stubHTTPCache struct {
	entries int
}

func (s *stubHTTPCache) InvalidateAll(ctx context.Context) (int, error) {
	n := s.entries
	s.entries = 0
	return n, nil
}

func TestAdminHandler(t *testing.T) {
	admin := &stubAdmin{}
	httpCache := &stubHTTPCache{entries: 2}
	handler := handlers.NewAdminHandler(admin, httpCache)

	rec := httptest.NewRecorder()
	handler.ClearCache(rec, httptest.NewRequest(http.MethodPost, "/api/admin/cache/clear", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	var cleared services.ClearCacheResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cleared))
	assert.Equal(t, 7, cleared.ContextEntries)
	assert.Equal(t, 1, admin.cleared)
	assert.Contains(t, rec.Body.String(), `"http_entries":2`)
	assert.Equal(t, 0, httpCache.entries)

	rec = httptest.NewRecorder()
	handler.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cache_hit_rate":0.4`)

	rec = httptest.NewRecorder()
	handler.Optimize(rec, httptest.NewRequest(http.MethodPost, "/api/admin/optimize", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, admin.optimized)
}

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	rec := httptest.NewRecorder()
	handlers.NewHealthHandler(map[string]handlers.HealthCheck{"redis": ok, "typesense": ok}).
		Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = httptest.NewRecorder()
	handlers.NewHealthHandler(map[string]handlers.HealthCheck{"redis": ok, "postgres": down}).
		Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"postgres":"connection refused"`)
}
