package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"vrproute/internal/model"
)

// Cached is a finished solve kept for identical requests.
type Cached struct {
	Solution model.Solution `json:"solution"`
	Stats    model.Stats    `json:"stats"`
}

// Cache maps request keys to finished solves.
type Cache interface {
	Get(ctx context.Context, key string) (Cached, bool, error)
	Set(ctx context.Context, key string, v Cached, ttl time.Duration) error
}

// CacheKey hashes everything that determines a solve's answer.
func CacheKey(inst *model.Instance, p model.Params, algorithm string, parallel bool) string {
	b, _ := json.Marshal(struct {
		Instance  *model.Instance `json:"i"`
		Params    model.Params    `json:"p"`
		Algorithm string          `json:"a"`
		Parallel  bool            `json:"par"`
	}{inst, p, algorithm, parallel})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// MemoryCache is the process-local Cache used without REDIS_URL.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memItem
	now   func() time.Time
}

type memItem struct {
	v       Cached
	expires time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: map[string]memItem{}, now: time.Now}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (Cached, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if !ok {
		return Cached{}, false, nil
	}
	if !it.expires.IsZero() && c.now().After(it.expires) {
		delete(c.items, key)
		return Cached{}, false, nil
	}
	return it.v, true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, v Cached, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	it := memItem{v: v}
	if ttl > 0 {
		it.expires = c.now().Add(ttl)
	}
	c.items[key] = it
	return nil
}

// RedisCache stores entries as JSON under "vrp:result:<key>".
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Cached, bool, error) {
	data, err := c.rdb.Get(ctx, c.keyName(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Cached{}, false, nil
	}
	if err != nil {
		return Cached{}, false, err
	}
	var v Cached
	if err := json.Unmarshal(data, &v); err != nil {
		return Cached{}, false, err
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, v Cached, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.keyName(key), data, ttl).Err()
}

func (c *RedisCache) keyName(key string) string { return "vrp:result:" + key }
