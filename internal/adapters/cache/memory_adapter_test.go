package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/artisan-discovery/backend/internal/domain/providers"
)

func TestMemoryAdapter_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter(10, time.Minute)

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 60))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, "k"))
	ok, _ = c.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryAdapter_SetCopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter(10, time.Minute)
	buf := []byte("abc")

	require.NoError(t, c.Set(ctx, "k", buf, 60))
	buf[0] = 'z'

	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestMemoryAdapter_DeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter(10, time.Minute)
	for _, k := range []string{"recommendations:user:u1:a", "recommendations:user:u1:b", "recommendations:user:u2:a", "other"} {
		require.NoError(t, c.Set(ctx, k, []byte("x"), 60))
	}

	n, err := c.DeleteByPrefix(ctx, "recommendations:user:u1:")

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, c.Len())
}

func TestMemoryAdapter_EvictExpired(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryAdapter(10, 20*time.Millisecond)
	require.NoError(t, c.Set(ctx, "a", []byte("x"), 0))
	require.NoError(t, c.Set(ctx, "b", []byte("x"), 0))

	assert.Eventually(t, func() bool {
		_, err := c.Get(ctx, "a")
		return err != nil
	}, time.Second, 5*time.Millisecond)

	c.EvictExpired()
	assert.Equal(t, 0, c.Len())
}
