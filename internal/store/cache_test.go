package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrproute/internal/model"
)

func sampleCached() Cached {
	return Cached{
		Solution: model.Solution{Cost: 9, Optimal: true, Trips: []model.Trip{{Stops: []int{2, 1}, Load: 3, Cost: 9}}},
		Stats:    model.Stats{Frames: 12, Candidates: 4, Valid: 2},
	}
}

func TestCacheKeyStable(t *testing.T) {
	inst := &model.Instance{Cities: []model.City{{ID: 1, Demand: 2}}, Roads: []model.Road{{From: 0, To: 1, Cost: 3}}}
	p := model.Params{Capacity: 5, MaxStops: 2}

	a := CacheKey(inst, p, "heuristic", false)
	assert.Len(t, a, 64)
	assert.Equal(t, a, CacheKey(inst, p, "heuristic", false))
	assert.NotEqual(t, a, CacheKey(inst, p, "exhaustive", false))
	assert.NotEqual(t, a, CacheKey(inst, model.Params{Capacity: 6, MaxStops: 2}, "heuristic", false))
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", sampleCached(), time.Minute))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleCached(), got)

	now = now.Add(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	ctx := context.Background()
	c := NewRedisCache(rdb)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", sampleCached(), time.Minute))
	assert.True(t, mr.Exists("vrp:result:k"))
	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sampleCached(), got)

	mr.FastForward(2 * time.Minute)
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}
