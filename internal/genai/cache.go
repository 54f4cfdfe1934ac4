// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package genai

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces analysis cache keys in Redis.
const keyPrefix = "jobsync:ai:"

// RedisCache is a Redis-backed analysis cache. Cache failures are
// logged and treated as misses — the analyzer must keep working when
// Redis is down.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache creates an analysis cache backed by Redis.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// Get returns the cached analysis for a content hash, if present.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := c.rdb.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		slog.Debug("analysis cache read failed", "error", err)
		return "", false
	}
	return val, true
}

// Set stores an analysis with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.rdb.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		slog.Debug("analysis cache write failed", "error", err)
	}
}
