//go:build integration

package ephemeral

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// newContainerStore runs the store against a real Redis so TTL, SCAN
// cursors and DEL replies come from the server rather than miniredis.
func newContainerStore(t *testing.T) *RedisStore {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	opts.MaxRetries = -1

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())

	return NewRedisStore(rdb, Options{MaxRetries: 3, BaseBackoff: 10 * time.Millisecond, MaxBackoff: 50 * time.Millisecond, ScanCount: 100})
}

func TestRedisContainerContract(t *testing.T) {
	s := newContainerStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "otp:a@example.com", "123456", 2*time.Second))
	v, ok, err := s.Get(ctx, "otp:a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "123456", v)

	require.Eventually(t, func() bool {
		_, ok, err := s.Get(ctx, "otp:a@example.com")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond, "key should expire")

	for i := range 250 {
		require.NoError(t, s.Set(ctx, fmt.Sprintf("refresh:u1:%03d", i), "1", time.Minute))
	}
	require.NoError(t, s.Set(ctx, "refresh:u2:keep", "1", time.Minute))

	n, err := s.DeleteByPattern(ctx, "refresh:u1:*")
	require.NoError(t, err)
	assert.Equal(t, 250, n)
	exists, err := s.Exists(ctx, "refresh:u2:keep")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRedisContainerSingleWinner(t *testing.T) {
	s := newContainerStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "refresh:u1:race", "1", time.Minute))

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			removed, err := s.DeleteIfExists(ctx, "refresh:u1:race")
			if err == nil && removed {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), winners.Load())
}
