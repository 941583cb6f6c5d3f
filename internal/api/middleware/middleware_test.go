package middleware

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/artisan-discovery/backend/internal/adapters/cache"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
)

func countingHandler(calls *int, status int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"results":[]}`))
	})
}

func TestCacheMiddleware_HitAfterMiss(t *testing.T) {
	store := cache.NewMemoryAdapter(100, time.Minute)
	m := NewCacheMiddleware(store)
	calls := 0
	handler := m.Middleware(countingHandler(&calls, http.StatusOK))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=diya", nil))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=diya", nil))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, `{"results":[]}`, rec.Body.String())
	assert.Equal(t, 1, calls)

	n, err := m.InvalidateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCacheMiddleware_SkipsUncachedRoutesAndErrors(t *testing.T) {
	store := cache.NewMemoryAdapter(100, time.Minute)
	calls := 0
	handler := NewCacheMiddleware(store).Middleware(countingHandler(&calls, http.StatusOK))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/search", nil))
	}
	assert.Equal(t, 4, calls)

	failing := 0
	handler = NewCacheMiddleware(store).Middleware(countingHandler(&failing, http.StatusBadGateway))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil))
	assert.Equal(t, 2, failing)
}

func TestETag_NotModified(t *testing.T) {
	calls := 0
	handler := ETag(countingHandler(&calls, http.StatusOK))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestCacheControl(t *testing.T) {
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	cases := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/api/search?q=x", "public, max-age=120, must-revalidate"},
		{http.MethodGet, "/api/recommendations/seasonal", "public, max-age=300, must-revalidate"},
		{http.MethodGet, "/api/items/p1/recommendations", "public, max-age=60, must-revalidate"},
		{http.MethodPost, "/api/recommendations/users", "no-store"},
		{http.MethodPost, "/api/recommendations/items", "no-store"},
		{http.MethodPost, "/api/recommendations/seasonal", "no-store"},
		{http.MethodPost, "/api/recommendations/batch", "no-store"},
		{http.MethodPost, "/api/interactions", "no-store"},
		{http.MethodGet, "/api/admin/stats", "no-store"},
		{http.MethodGet, "/health", "no-store"},
		{http.MethodGet, "/api/other", "private, no-cache, must-revalidate"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		CacheControl(noop).ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, rec.Header().Get("Cache-Control"), tc.method+" "+tc.path)
	}
}

func TestResponseOptimization_UserRecommendationsAreNotTagged(t *testing.T) {
	calls := 0
	handler := ResponseOptimization(countingHandler(&calls, http.StatusOK))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/recommendations/users", strings.NewReader(`{}`)))

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("ETag"))
	assert.Equal(t, `{"results":[]}`, rec.Body.String())
}

func TestResponseOptimization_KeepsRoutePolicyAlongsideETag(t *testing.T) {
	calls := 0
	handler := ResponseOptimization(countingHandler(&calls, http.StatusOK))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recommendations/seasonal", nil))

	assert.NotEmpty(t, rec.Header().Get("ETag"))
	assert.Equal(t, "public, max-age=300, must-revalidate", rec.Header().Get("Cache-Control"))
}

func TestCompression_GzipsBody(t *testing.T) {
	calls := 0
	handler := Compression(countingHandler(&calls, http.StatusOK))

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=diya", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, `{"results":[]}`, string(body))
}

func TestCompression_LeavesBodilessResponsesAlone(t *testing.T) {
	handler := Compression(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/interactions", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.Zero(t, rec.Body.Len())
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/api/items/{id}/recommendations", routeLabel("/api/items/blue-vase-17/recommendations"))
	assert.Equal(t, "/api/items", routeLabel("/api/items"))
	assert.Equal(t, "/api/items//recommendations", routeLabel("/api/items//recommendations"))
	assert.Equal(t, "/api/search", routeLabel("/api/search"))
	assert.Equal(t, "items", recommendationKind(routeLabel("/api/items/p1/recommendations")))
	assert.Equal(t, "users", recommendationKind("/api/recommendations/users"))
	assert.Empty(t, recommendationKind("/api/search"))
}

func TestObservabilityMiddleware_NilMetrics(t *testing.T) {
	calls := 0
	handler := ObservabilityMiddleware(nil)(countingHandler(&calls, http.StatusInternalServerError))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/items/p1/recommendations", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1, calls)
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc-123", seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	var captured int
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		captured = w.(*loggingResponseWriter).statusCode
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, http.StatusTeapot, captured)
}

func TestCORS_PreflightAnsweredDirectly(t *testing.T) {
	calls := 0
	handler := CORS([]string{"*"})(countingHandler(&calls, http.StatusOK))

	req := httptest.NewRequest(http.MethodOptions, "/api/recommendations/users", nil)
	req.Header.Set("Origin", "https://shop.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, 0, calls)
}

func TestCORS_AllowList(t *testing.T) {
	calls := 0
	handler := CORS([]string{"https://shop.example/"})(countingHandler(&calls, http.StatusOK))

	req := httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil)
	req.Header.Set("Origin", "https://shop.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "https://shop.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Cache")

	req = httptest.NewRequest(http.MethodGet, "/api/search?q=x", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 2, calls)
}
