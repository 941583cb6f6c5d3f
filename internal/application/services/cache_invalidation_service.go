package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/providers"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
)

// LocalCacheController is the part of the recommendation service that
// remote events act on.
type LocalCacheController interface {
	InstanceID() string
	ClearLocalCaches(ctx context.Context) ClearCacheResult
	InvalidateUser(ctx context.Context, userID string)
	InvalidateItem(ctx context.Context, itemID string)
}

// CacheInvalidationService applies recommendation events published by
// other instances to this instance's caches.
type CacheInvalidationService struct {
	target   LocalCacheController
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	started  atomic.Bool
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(target LocalCacheController, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		target:   target,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for events and invalidating cache
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelRecommendations)
	if err != nil {
		return fmt.Errorf("failed to subscribe to recommendation events: %w", err)
	}

	s.started.Store(true)
	go s.processEvents(eventChan)
	observability.GetLogger().Info().Str("instance_id", s.target.InstanceID()).Msg("Cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	if s.started.Load() {
		<-s.done
	}
	observability.GetLogger().Info().Msg("Cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.RecommendationEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.HandleEvent(event)
		}
	}
}

// HandleEvent applies one event. Events this instance published are
// ignored since it already acted on them locally.
func (s *CacheInvalidationService) HandleEvent(event *entities.RecommendationEvent) {
	if event.Origin == s.target.InstanceID() {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()

	logger := observability.GetLogger().With().
		Str("event_id", event.ID).
		Str("event_type", string(event.EventType)).
		Str("origin", event.Origin).
		Logger()

	switch event.EventType {
	case entities.EventCacheCleared:
		res := s.target.ClearLocalCaches(ctx)
		logger.Info().
			Int("response_entries", res.ResponseEntries).
			Int("context_entries", res.ContextEntries).
			Int("analysis_entries", res.AnalysisEntries).
			Int("profiles", res.Profiles).
			Msg("Cleared local caches on remote request")
	case entities.EventInteractionRecorded:
		s.target.InvalidateUser(ctx, event.UserID)
		logger.Debug().Str("user_id", event.UserID).Msg("Invalidated user recommendations")
	case entities.EventItemIndexed:
		s.target.InvalidateItem(ctx, event.ItemID)
		logger.Debug().Str("item_id", event.ItemID).Msg("Invalidated item context")
	default:
		logger.Warn().Msg("Ignoring unknown recommendation event")
	}
}
