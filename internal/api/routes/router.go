package routes

import (
	"net/http"

	"github.com/zatekoja/artisan-discovery/backend/internal/api/handlers"
	"github.com/zatekoja/artisan-discovery/backend/internal/api/middleware"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	recommendationHandler *handlers.RecommendationHandler
	catalogHandler        *handlers.CatalogHandler
	adminHandler          *handlers.AdminHandler
	healthHandler         *handlers.HealthHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
	allowedOrigins  []string
}

// NewRouter creates a new router
func NewRouter(
	recommendationHandler *handlers.RecommendationHandler,
	catalogHandler *handlers.CatalogHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
	allowedOrigins []string,
) *Router {
	return &Router{
		mux:                   http.NewServeMux(),
		recommendationHandler: recommendationHandler,
		catalogHandler:        catalogHandler,
		adminHandler:          adminHandler,
		healthHandler:         healthHandler,
		cacheMiddleware:       cacheMiddleware,
		metrics:               metrics,
		allowedOrigins:        allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", r.healthHandler.Health)

	// Recommendation endpoints
	r.mux.HandleFunc("POST /api/recommendations/items", r.recommendationHandler.ItemRecommendations)
	r.mux.HandleFunc("GET /api/items/{id}/recommendations", r.recommendationHandler.ItemRecommendationsByID)
	r.mux.HandleFunc("POST /api/recommendations/users", r.recommendationHandler.UserRecommendations)
	r.mux.HandleFunc("POST /api/recommendations/seasonal", r.recommendationHandler.SeasonalRecommendations)
	r.mux.HandleFunc("GET /api/recommendations/seasonal", r.recommendationHandler.SeasonalRecommendationsQuery)
	r.mux.HandleFunc("POST /api/recommendations/batch", r.recommendationHandler.BatchRecommendations)
	r.mux.HandleFunc("POST /api/interactions", r.recommendationHandler.RecordInteraction)

	// Catalog endpoints
	r.mux.HandleFunc("GET /api/search", r.catalogHandler.Search)
	r.mux.HandleFunc("POST /api/cultural/analyze", r.catalogHandler.Analyze)
	r.mux.HandleFunc("POST /api/items", r.catalogHandler.IndexItem)

	// Admin endpoints
	r.mux.HandleFunc("POST /api/admin/cache/clear", r.adminHandler.ClearCache)
	r.mux.HandleFunc("GET /api/admin/stats", r.adminHandler.Stats)
	r.mux.HandleFunc("POST /api/admin/optimize", r.adminHandler.Optimize)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.RequestID(handler)

	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORS(r.allowedOrigins)(handler)

	return handler
}
