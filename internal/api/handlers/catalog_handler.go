package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/zatekoja/artisan-discovery/backend/internal/application/services"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/repositories"
	apperrors "github.com/zatekoja/artisan-discovery/backend/pkg/errors"
)

const defaultSearchLimit = 20

// CatalogSearch defines the search and indexing operations used by the handler.
type CatalogSearch interface {
	HybridSearch(ctx context.Context, query string, limit int, filter repositories.CatalogFilter) ([]entities.ScoredItem, error)
	Rerank(query string, results []entities.ScoredItem) []entities.ScoredItem
	IndexItem(ctx context.Context, item *entities.CatalogItem) error
}

// CulturalAnalyzer defines the analysis operation used by the handler.
type CulturalAnalyzer interface {
	Analyze(ctx context.Context, title, description string) services.AnalysisResult
}

// ItemIndexNotifier is told when an item has been (re)indexed.
type ItemIndexNotifier interface {
	NotifyItemIndexed(ctx context.Context, itemID string)
}

// CatalogHandler handles search, analysis and indexing requests.
type CatalogHandler struct {
	search   CatalogSearch
	analyzer CulturalAnalyzer
	notifier ItemIndexNotifier
}

// NewCatalogHandler creates a new catalog handler. notifier may be nil.
func NewCatalogHandler(search CatalogSearch, analyzer CulturalAnalyzer, notifier ItemIndexNotifier) *CatalogHandler {
	return &CatalogHandler{search: search, analyzer: analyzer, notifier: notifier}
}

// Search handles GET /api/search
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	if limit <= 0 || limit > 100 {
		limit = defaultSearchLimit
	}

	filter := repositories.CatalogFilter{}
	for _, s := range splitList(q.Get("region")) {
		if region := entities.ParseRegion(s); region != entities.RegionUnknown {
			filter.Regions = append(filter.Regions, region)
		}
	}
	for _, s := range splitList(q.Get("craft")) {
		if craft := entities.ParseCraftType(s); craft != entities.CraftUnknown {
			filter.CraftTypes = append(filter.CraftTypes, craft)
		}
	}
	filter.Festivals = entities.ParseFestivals(splitList(q.Get("festival")))

	results, err := h.search.HybridSearch(r.Context(), query, limit, filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if q.Get("rerank") == "true" {
		results = h.search.Rerank(query, results)
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

type analyzeRequest struct {
	Title       string `json:"title" validate:"required,max=500"`
	Description string `json:"description" validate:"max=10000"`
}

// Analyze handles POST /api/cultural/analyze
func (h *CatalogHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondWithJSON(w, http.StatusOK, h.analyzer.Analyze(r.Context(), req.Title, req.Description))
}

type indexItemRequest struct {
	ID          string    `json:"id" validate:"required,max=128"`
	Title       string    `json:"title" validate:"required,max=500"`
	Description string    `json:"description" validate:"max=10000"`
	Price       float64   `json:"price" validate:"min=0"`
	ArtisanName string    `json:"artisan_name"`
	ImageURL    string    `json:"image_url" validate:"omitempty,url"`
	Tags        []string  `json:"tags" validate:"max=50"`
	Vector      []float32 `json:"vector"`
}

// IndexItem handles POST /api/items
func (h *CatalogHandler) IndexItem(w http.ResponseWriter, r *http.Request) {
	var req indexItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item := &entities.CatalogItem{
		ID:          strings.TrimSpace(req.ID),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		ArtisanName: req.ArtisanName,
		ImageURL:    req.ImageURL,
		Tags:        req.Tags,
		Vector:      req.Vector,
	}
	if item.ID == "" {
		respondWithAppError(w, r, apperrors.NewValidationError("id is required"))
		return
	}
	if err := h.search.IndexItem(r.Context(), item); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	if h.notifier != nil {
		h.notifier.NotifyItemIndexed(r.Context(), item.ID)
	}

	respondWithJSON(w, http.StatusCreated, item)
}
