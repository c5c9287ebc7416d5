package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStatsStore_Record(t *testing.T) {
	store := NewMemoryStatsStore()
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "maintenance.schedule_maintenance.1.0", true, 10*time.Millisecond))
	require.NoError(t, store.Record(ctx, "maintenance.schedule_maintenance.1.0", true, 20*time.Millisecond))
	require.NoError(t, store.Record(ctx, "maintenance.schedule_maintenance.1.0", false, 30*time.Millisecond))

	stats, err := store.Get(ctx, "maintenance.schedule_maintenance.1.0")
	require.NoError(t, err)

	assert.EqualValues(t, 3, stats.Uses)
	assert.EqualValues(t, 2, stats.Successes)
	assert.EqualValues(t, 1, stats.Failures)
	assert.InDelta(t, 20.0, stats.AvgGenerationTime, 0.01)
	assert.False(t, stats.LastUsed.IsZero())
}

func TestMemoryStatsStore_Monotonic(t *testing.T) {
	store := NewMemoryStatsStore()
	ctx := context.Background()

	var prev int64
	for i := 0; i < 10; i++ {
		require.NoError(t, store.Record(ctx, "tpl", i%2 == 0, time.Millisecond))
		stats, err := store.Get(ctx, "tpl")
		require.NoError(t, err)
		assert.Greater(t, stats.Uses, prev)
		assert.Equal(t, stats.Uses, stats.Successes+stats.Failures)
		prev = stats.Uses
	}
}

func TestMemoryStatsStore_UnknownTemplate(t *testing.T) {
	store := NewMemoryStatsStore()

	stats, err := store.Get(context.Background(), "never.used.1.0")
	require.NoError(t, err)
	assert.Zero(t, stats.Uses)
	assert.Zero(t, stats.AvgGenerationTime)
}

func newTestRedisStore(t *testing.T) *RedisStatsStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStatsStoreFromClient(client)
}

func TestRedisStatsStore_Record(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	require.NoError(t, store.Record(ctx, "reservations.reserve_vehicle.2.1", true, 40*time.Millisecond))
	require.NoError(t, store.Record(ctx, "reservations.reserve_vehicle.2.1", false, 20*time.Millisecond))

	stats, err := store.Get(ctx, "reservations.reserve_vehicle.2.1")
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.Uses)
	assert.EqualValues(t, 1, stats.Successes)
	assert.EqualValues(t, 1, stats.Failures)
	assert.InDelta(t, 30.0, stats.AvgGenerationTime, 0.01)
	assert.False(t, stats.LastUsed.IsZero())
}

func TestRedisStatsStore_Isolation(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "a.b.1.0", true, time.Millisecond))

	stats, err := store.Get(ctx, "c.d.1.0")
	require.NoError(t, err)
	assert.Zero(t, stats.Uses)
}
