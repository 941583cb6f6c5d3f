package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/zatekoja/artisan-discovery/backend/internal/application/services"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
)

// RecommendationService defines the recommendation operations used by the handler.
type RecommendationService interface {
	GetItemRecommendations(ctx context.Context, req services.ItemRecommendationRequest) *entities.RecommendationResponse
	GetUserRecommendations(ctx context.Context, req services.UserRecommendationRequest) *entities.RecommendationResponse
	GetSeasonalRecommendations(ctx context.Context, req services.SeasonalRecommendationRequest) *entities.RecommendationResponse
	BatchRecommendations(ctx context.Context, req services.BatchRecommendationRequest) *entities.BatchRecommendationResponse
	RecordFeedback(ctx context.Context, f *entities.UserInteractionFeedback) error
}

// RecommendationHandler handles recommendation and interaction requests.
// A recommendation that could not be produced is still a 200 response
// whose error field explains why.
type RecommendationHandler struct {
	service RecommendationService
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(service RecommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

// ItemRecommendations handles POST /api/recommendations/items
func (h *RecommendationHandler) ItemRecommendations(w http.ResponseWriter, r *http.Request) {
	var req services.ItemRecommendationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondWithJSON(w, http.StatusOK, h.service.GetItemRecommendations(r.Context(), req))
}

// ItemRecommendationsByID handles GET /api/items/{id}/recommendations
func (h *RecommendationHandler) ItemRecommendationsByID(w http.ResponseWriter, r *http.Request) {
	req := services.ItemRecommendationRequest{
		ItemID:           r.PathValue("id"),
		IncludeDiversity: true,
		SeasonalBoost:    r.URL.Query().Get("seasonal") != "false",
	}
	if req.ItemID == "" {
		respondWithError(w, http.StatusBadRequest, "item ID is required")
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	req.Limit = limit
	for _, t := range splitList(r.URL.Query().Get("types")) {
		req.RecommendationTypes = append(req.RecommendationTypes, entities.RecommendationType(t))
	}
	if err := validateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, h.service.GetItemRecommendations(r.Context(), req))
}

// UserRecommendations handles POST /api/recommendations/users
func (h *RecommendationHandler) UserRecommendations(w http.ResponseWriter, r *http.Request) {
	var req services.UserRecommendationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondWithJSON(w, http.StatusOK, h.service.GetUserRecommendations(r.Context(), req))
}

// SeasonalRecommendations handles POST /api/recommendations/seasonal
func (h *RecommendationHandler) SeasonalRecommendations(w http.ResponseWriter, r *http.Request) {
	var req services.SeasonalRecommendationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondWithJSON(w, http.StatusOK, h.service.GetSeasonalRecommendations(r.Context(), req))
}

// SeasonalRecommendationsQuery handles GET /api/recommendations/seasonal
func (h *RecommendationHandler) SeasonalRecommendationsQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := services.SeasonalRecommendationRequest{
		CurrentFestival:   q.Get("festival"),
		UpcomingFestivals: splitList(q.Get("upcoming")),
		Region:            q.Get("region"),
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	req.Limit = limit
	if err := validateStruct(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, h.service.GetSeasonalRecommendations(r.Context(), req))
}

// BatchRecommendations handles POST /api/recommendations/batch
func (h *RecommendationHandler) BatchRecommendations(w http.ResponseWriter, r *http.Request) {
	var req services.BatchRecommendationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondWithJSON(w, http.StatusOK, h.service.BatchRecommendations(r.Context(), req))
}

type interactionRequest struct {
	UserID                     string   `json:"user_id" validate:"required"`
	ItemID                     string   `json:"item_id" validate:"required_without=RecommendedItemID"`
	RecommendedItemID          string   `json:"recommended_item_id"`
	InteractionType            string   `json:"interaction_type" validate:"required"`
	ExplicitRating             *float64 `json:"explicit_rating" validate:"omitempty,min=0,max=5"`
	InteractionDurationSeconds *float64 `json:"interaction_duration_seconds" validate:"omitempty,min=0"`
	RecommendationType         string   `json:"recommendation_type"`
}

// RecordInteraction handles POST /api/interactions
func (h *RecommendationHandler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	interactionType, ok := entities.ParseInteractionType(req.InteractionType)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "unknown interaction_type "+strconv.Quote(req.InteractionType))
		return
	}
	recType, _ := entities.ParseRecommendationType(req.RecommendationType)

	feedback := &entities.UserInteractionFeedback{
		UserID:                     strings.TrimSpace(req.UserID),
		ItemID:                     strings.TrimSpace(req.ItemID),
		RecommendedItemID:          strings.TrimSpace(req.RecommendedItemID),
		InteractionType:            interactionType,
		ExplicitRating:             req.ExplicitRating,
		InteractionDurationSeconds: req.InteractionDurationSeconds,
		RecommendationType:         recType,
	}
	if err := h.service.RecordFeedback(r.Context(), feedback); err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"id":        feedback.ID,
		"timestamp": feedback.Timestamp,
	})
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return v, true
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
