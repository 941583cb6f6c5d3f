package entities

import "time"

// InteractionType is how a user responded to an item.
type InteractionType string

const (
	InteractionClick    InteractionType = "click"
	InteractionView     InteractionType = "view"
	InteractionPurchase InteractionType = "purchase"
	InteractionLike     InteractionType = "like"
	InteractionSave     InteractionType = "save"
	InteractionIgnore   InteractionType = "ignore"
	InteractionDislike  InteractionType = "dislike"
)

// ParseInteractionType converts s; ok is false for unknown values.
func ParseInteractionType(s string) (InteractionType, bool) {
	t := InteractionType(normalizeEnum(s))
	switch t {
	case InteractionClick, InteractionView, InteractionPurchase, InteractionLike,
		InteractionSave, InteractionIgnore, InteractionDislike:
		return t, true
	}
	return "", false
}

// UserInteractionFeedback is an append-only interaction event.
type UserInteractionFeedback struct {
	ID                         string             `json:"id" db:"id"`
	UserID                     string             `json:"user_id" db:"user_id"`
	ItemID                     string             `json:"item_id" db:"item_id"`
	RecommendedItemID          string             `json:"recommended_item_id" db:"recommended_item_id"`
	InteractionType            InteractionType    `json:"interaction_type" db:"interaction_type"`
	ExplicitRating             *float64           `json:"explicit_rating,omitempty" db:"explicit_rating"`
	InteractionDurationSeconds *float64           `json:"interaction_duration_seconds,omitempty" db:"interaction_duration_seconds"`
	Timestamp                  time.Time          `json:"timestamp" db:"created_at"`
	RecommendationType         RecommendationType `json:"recommendation_type" db:"recommendation_type"`
}

// TargetItemID is the item the interaction was about: the recommended
// item when present, otherwise the item being viewed.
func (f *UserInteractionFeedback) TargetItemID() string {
	if f.RecommendedItemID != "" {
		return f.RecommendedItemID
	}
	return f.ItemID
}

// UserCulturalProfile is a derived per-user preference summary. It is not
// editable by clients.
type UserCulturalProfile struct {
	UserID                string             `json:"user_id"`
	PreferredCraftTypes   map[string]float64 `json:"preferred_craft_types"`
	PreferredRegions      map[string]float64 `json:"preferred_regions"`
	PreferredFestivals    map[string]float64 `json:"preferred_festivals"`
	PreferredMaterials    map[string]float64 `json:"preferred_materials"`
	SeasonalPatterns      map[int]float64    `json:"seasonal_patterns"`
	CulturalOpenness      float64            `json:"cultural_openness"`
	TraditionalPreference float64            `json:"traditional_preference"`
	InteractionCount      int                `json:"interaction_count"`
	LastUpdated           time.Time          `json:"last_updated"`
}

// NewUserCulturalProfile returns an empty profile for userID.
func NewUserCulturalProfile(userID string) *UserCulturalProfile {
	return &UserCulturalProfile{
		UserID:                userID,
		PreferredCraftTypes:   make(map[string]float64),
		PreferredRegions:      make(map[string]float64),
		PreferredFestivals:    make(map[string]float64),
		PreferredMaterials:    make(map[string]float64),
		SeasonalPatterns:      make(map[int]float64),
		CulturalOpenness:      0.5,
		TraditionalPreference: 0.5,
	}
}

// Clone returns a deep copy so callers never share map state with the
// profile store.
func (p *UserCulturalProfile) Clone() *UserCulturalProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.PreferredCraftTypes = cloneScores(p.PreferredCraftTypes)
	out.PreferredRegions = cloneScores(p.PreferredRegions)
	out.PreferredFestivals = cloneScores(p.PreferredFestivals)
	out.PreferredMaterials = cloneScores(p.PreferredMaterials)
	out.SeasonalPatterns = make(map[int]float64, len(p.SeasonalPatterns))
	for k, v := range p.SeasonalPatterns {
		out.SeasonalPatterns[k] = v
	}
	return &out
}

func cloneScores(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
