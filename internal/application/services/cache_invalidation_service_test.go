package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/artisan-discovery/backend/internal/application/services"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/providers"
)

type recordingController struct {
	mu       sync.Mutex
	clears   int
	users    []string
	items    []string
	instance string
}

func (c *recordingController) InstanceID() string { return c.instance }

func (c *recordingController) ClearLocalCaches(ctx context.Context) services.ClearCacheResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clears++
	return services.ClearCacheResult{ResponseEntries: 3}
}

func (c *recordingController) InvalidateUser(ctx context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, userID)
}

func (c *recordingController) InvalidateItem(ctx context.Context, itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, itemID)
}

func (c *recordingController) clearCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clears
}

// MockEventBus for testing
type MockEventBus struct {
	mu          sync.Mutex
	subscribers map[string][]chan *entities.RecommendationEvent
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{subscribers: make(map[string][]chan *entities.RecommendationEvent)}
}

func (m *MockEventBus) Publish(ctx context.Context, channel string, event *entities.RecommendationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers[channel] {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

func (m *MockEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.RecommendationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan *entities.RecommendationEvent, 10)
	m.subscribers[channel] = append(m.subscribers[channel], ch)
	return ch, nil
}

func (m *MockEventBus) Unsubscribe(ctx context.Context, channel string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers[channel] {
		close(ch)
	}
	delete(m.subscribers, channel)
	return nil
}

func (m *MockEventBus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, channels := range m.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	m.subscribers = map[string][]chan *entities.RecommendationEvent{}
	return nil
}

func (m *MockEventBus) subscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers[providers.EventChannelRecommendations])
}

func TestCacheInvalidationService_Start(t *testing.T) {
	bus := NewMockEventBus()
	service := services.NewCacheInvalidationService(&recordingController{instance: "a"}, bus)

	require.NoError(t, service.Start())
	assert.Equal(t, 1, bus.subscriberCount())

	service.Stop()
}

func TestCacheInvalidationService_RemoteClearEvent(t *testing.T) {
	bus := NewMockEventBus()
	ctrl := &recordingController{instance: "a"}
	service := services.NewCacheInvalidationService(ctrl, bus)
	require.NoError(t, service.Start())
	defer service.Stop()

	event := entities.NewRecommendationEvent(entities.EventCacheCleared, "", "")
	event.Origin = "b"
	require.NoError(t, bus.Publish(context.Background(), providers.EventChannelRecommendations, event))

	assert.Eventually(t, func() bool { return ctrl.clearCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestCacheInvalidationService_IgnoresOwnEvents(t *testing.T) {
	ctrl := &recordingController{instance: "a"}
	service := services.NewCacheInvalidationService(ctrl, NewMockEventBus())

	event := entities.NewRecommendationEvent(entities.EventCacheCleared, "", "")
	event.Origin = "a"
	service.HandleEvent(event)

	assert.Equal(t, 0, ctrl.clearCount())
}

func TestCacheInvalidationService_UserAndItemEvents(t *testing.T) {
	ctrl := &recordingController{instance: "a"}
	service := services.NewCacheInvalidationService(ctrl, NewMockEventBus())

	userEvent := entities.NewRecommendationEvent(entities.EventInteractionRecorded, "u1", "i1")
	userEvent.Origin = "b"
	itemEvent := entities.NewRecommendationEvent(entities.EventItemIndexed, "", "i2")
	itemEvent.Origin = "b"

	service.HandleEvent(userEvent)
	service.HandleEvent(itemEvent)

	assert.Equal(t, []string{"u1"}, ctrl.users)
	assert.Equal(t, []string{"i2"}, ctrl.items)
	assert.Equal(t, 0, ctrl.clearCount())
}

func TestCacheInvalidationService_StopsWhenBusCloses(t *testing.T) {
	bus := NewMockEventBus()
	service := services.NewCacheInvalidationService(&recordingController{instance: "a"}, bus)
	require.NoError(t, service.Start())

	require.NoError(t, bus.Close())

	done := make(chan struct{})
	go func() {
		service.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the bus closed")
	}
}
