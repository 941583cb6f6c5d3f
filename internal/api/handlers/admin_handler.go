package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/artisan-discovery/backend/internal/application/services"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
)

// AdminService defines the maintenance operations used by the handler.
type AdminService interface {
	ClearCache(ctx context.Context) services.ClearCacheResult
	Stats() services.ServiceStats
	OptimizePerformance(ctx context.Context) services.OptimizeResult
}

// HTTPCacheInvalidator drops cached HTTP responses.
type HTTPCacheInvalidator interface {
	InvalidateAll(ctx context.Context) (int, error)
}

// AdminHandler handles cache maintenance and statistics requests.
type AdminHandler struct {
	service   AdminService
	httpCache HTTPCacheInvalidator
}

// NewAdminHandler creates a new admin handler. httpCache may be nil.
func NewAdminHandler(service AdminService, httpCache HTTPCacheInvalidator) *AdminHandler {
	return &AdminHandler{service: service, httpCache: httpCache}
}

type clearCacheResponse struct {
	services.ClearCacheResult
	HTTPEntries int `json:"http_entries"`
}

// ClearCache handles POST /api/admin/cache/clear
func (h *AdminHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	resp := clearCacheResponse{ClearCacheResult: h.service.ClearCache(r.Context())}
	if h.httpCache != nil {
		n, err := h.httpCache.InvalidateAll(r.Context())
		if err != nil {
			observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("failed to clear http response cache")
		}
		resp.HTTPEntries = n
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.Stats())
}

// Optimize handles POST /api/admin/optimize
func (h *AdminHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.service.OptimizePerformance(r.Context()))
}
