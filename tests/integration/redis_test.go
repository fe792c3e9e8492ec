package integration

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/reimburse/backend/internal/infrastructure/cache"
	"github.com/reimburse/backend/internal/infrastructure/config"
	"github.com/reimburse/backend/tests/testutil"
)

func newRedisConfig(t *testing.T) config.RedisConfig {
	t.Helper()
	skipIfShort(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	p, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return config.RedisConfig{Host: host, Port: p}
}

func TestRedisIdempotencyStore(t *testing.T) {
	cfg := newRedisConfig(t)
	ctx := context.Background()

	store, err := cache.NewIdempotencyStoreFactory(cfg, cache.WithInMemoryFallback(false)).CreateStore(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	_, isRedis := store.(*cache.RedisIdempotencyStore)
	require.True(t, isRedis, "factory should pick Redis when reachable")

	t.Run("claim, duplicate, release", func(t *testing.T) {
		claimed, err := store.MarkProcessed(ctx, "submit-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, err = store.MarkProcessed(ctx, "submit-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, claimed)

		processed, err := store.IsProcessed(ctx, "submit-1")
		require.NoError(t, err)
		assert.True(t, processed)

		require.NoError(t, store.Release(ctx, "submit-1"))
		claimed, err = store.MarkProcessed(ctx, "submit-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("keys expire", func(t *testing.T) {
		claimed, err := store.MarkProcessed(ctx, "short-lived", time.Second)
		require.NoError(t, err)
		require.True(t, claimed)

		testutil.RequireEventually(t, func() bool {
			processed, err := store.IsProcessed(ctx, "short-lived")
			return err == nil && !processed
		}, 5*time.Second, 100*time.Millisecond, "key should expire")
	})

	t.Run("one winner under contention", func(t *testing.T) {
		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, err := store.MarkProcessed(ctx, "contended", time.Minute); err == nil && ok {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins.Load())
	})
}

func TestIdempotencyStoreFactory_RedisDown(t *testing.T) {
	skipIfShort(t)
	ctx := context.Background()
	down := config.RedisConfig{Host: "127.0.0.1", Port: 1}

	_, err := cache.NewIdempotencyStoreFactory(down, cache.WithInMemoryFallback(false)).CreateStore(ctx)
	assert.Error(t, err)

	store, err := cache.NewIdempotencyStoreFactory(down).CreateStore(ctx)
	require.NoError(t, err)
	_, isMemory := store.(*cache.InMemoryIdempotencyStore)
	assert.True(t, isMemory)
}
