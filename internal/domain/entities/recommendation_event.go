package entities

import (
	"time"

	"github.com/google/uuid"
)

// RecommendationEventType identifies what changed in the recommendation
// subsystem.
type RecommendationEventType string

const (
	// EventInteractionRecorded is published after a feedback event is stored.
	EventInteractionRecorded RecommendationEventType = "interaction_recorded"
	// EventCacheCleared asks every instance to drop its local caches.
	EventCacheCleared RecommendationEventType = "cache_cleared"
	// EventItemIndexed is published when a catalog item is (re)indexed.
	EventItemIndexed RecommendationEventType = "item_indexed"
)

// RecommendationEvent is broadcast between service instances.
type RecommendationEvent struct {
	ID        string                  `json:"id"`
	EventType RecommendationEventType `json:"event_type"`
	UserID    string                  `json:"user_id,omitempty"`
	ItemID    string                  `json:"item_id,omitempty"`
	Origin    string                  `json:"origin,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// NewRecommendationEvent creates a new event stamped with the current time.
func NewRecommendationEvent(eventType RecommendationEventType, userID, itemID string) *RecommendationEvent {
	return &RecommendationEvent{
		ID:        uuid.New().String(),
		EventType: eventType,
		UserID:    userID,
		ItemID:    itemID,
		Timestamp: time.Now().UTC(),
	}
}
