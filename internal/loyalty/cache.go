package loyalty

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const settingsVersionKey = "loyalty:settings:version"

// SettingsCache keeps program settings hot in Redis. Keys carry a version
// suffix; UpdateSettings bumps the version so stale entries age out under
// their TTL instead of being deleted one by one. Concurrent misses collapse
// onto a single loader call via singleflight. A nil cache is valid and
// degrades to loader-only.
type SettingsCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewSettingsCache instantiates the cache helper.
func NewSettingsCache(client *redis.Client, ttl time.Duration) *SettingsCache {
	return &SettingsCache{client: client, ttl: ttl}
}

func (c *SettingsCache) version(ctx context.Context) (int64, error) {
	ver, err := c.client.Get(ctx, settingsVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.Set(ctx, settingsVersionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// Fetch loads settings from cache or populates them via loader.
func (c *SettingsCache) Fetch(ctx context.Context, loader func(context.Context) (*Settings, error)) (*Settings, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	ver, err := c.version(ctx)
	if err != nil {
		return loader(ctx)
	}
	key := "loyalty:settings:" + strconv.FormatInt(ver, 10)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var s Settings
		if err := json.Unmarshal(payload, &s); err == nil {
			return &s, nil
		}
	}
	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		s, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(s); err == nil {
			_ = c.client.Set(ctx, key, raw, c.ttl).Err()
		}
		return s, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Settings), nil
	}
}

// Bump invalidates cached settings by advancing the version.
func (c *SettingsCache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, settingsVersionKey).Err()
}
