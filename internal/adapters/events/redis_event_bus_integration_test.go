//go:build integration

package events

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/entities"
	"github.com/zatekoja/artisan-discovery/backend/internal/domain/providers"
	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/artisan-discovery/backend/pkg/config"
)

func TestRedisEventBusFanoutIntegration(t *testing.T) {
	host := os.Getenv("TEST_REDIS_HOST")
	if host == "" {
		t.Skip("Skipping integration test: TEST_REDIS_HOST not set")
	}
	port, err := strconv.Atoi(os.Getenv("TEST_REDIS_PORT"))
	if err != nil {
		port = 6379
	}

	redisClient, err := redis.NewClient(context.Background(), &config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	defer redisClient.Close()

	eventBus := NewRedisEventBus(redisClient)
	defer eventBus.Close()

	ctx1, cancel1 := context.WithCancel(context.Background())
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel1()
	defer cancel2()

	sub1, err := eventBus.Subscribe(ctx1, providers.EventChannelRecommendations)
	require.NoError(t, err)
	sub2, err := eventBus.Subscribe(ctx2, providers.EventChannelRecommendations)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	event := entities.NewRecommendationEvent(entities.EventInteractionRecorded, "user-1", "jp-001")
	require.NoError(t, eventBus.Publish(context.Background(), providers.EventChannelRecommendations, event))

	for _, sub := range []<-chan *entities.RecommendationEvent{sub1, sub2} {
		select {
		case received := <-sub:
			require.NotNil(t, received)
			assert.Equal(t, event.ID, received.ID)
			assert.Equal(t, entities.EventInteractionRecorded, received.EventType)
			assert.Equal(t, "user-1", received.UserID)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for recommendation event")
		}
	}
}
