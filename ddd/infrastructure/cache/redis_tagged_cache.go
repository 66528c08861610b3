package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"video-ingest-service/ddd/domain/gateway"
	"video-ingest-service/internal/resource"
	"video-ingest-service/pkg/assert"
	"video-ingest-service/pkg/logger"
)

const (
	flushAttempts = 3
	flushBackoff  = 50 * time.Millisecond
)

// RedisTaggedCache 以版本号实现标签失效：条目 key 带标签当前版本，Flush 只需自增版本，
// 旧版本条目不再可达，靠 TTL 自然过期
type RedisTaggedCache struct {
	client *redis.Client
}

var (
	taggedCacheOnce    sync.Once
	defaultTaggedCache gateway.TaggedCache
)

// DefaultTaggedCache 全局 feed 缓存
func DefaultTaggedCache() gateway.TaggedCache {
	assert.NotCircular()
	taggedCacheOnce.Do(func() {
		defaultTaggedCache = NewRedisTaggedCache(resource.DefaultRedisResource().Client())
	})
	assert.NotNil(defaultTaggedCache)
	return defaultTaggedCache
}

func NewRedisTaggedCache(client *redis.Client) *RedisTaggedCache {
	return &RedisTaggedCache{client: client}
}

func versionKey(tag string) string {
	return fmt.Sprintf("cache:tag:%s:version", tag)
}

func entryKey(tag string, version int64, key string) string {
	return fmt.Sprintf("cache:%s:v%d:%s", tag, version, key)
}

// Remember 读穿。版本读取失败时绕过缓存直接加载，保证不返回失效前的数据
func (c *RedisTaggedCache) Remember(ctx context.Context, tag, key string, ttl time.Duration, dst interface{}, load gateway.LoadFunc) (bool, error) {
	version, err := c.version(ctx, tag)
	if err != nil {
		logger.Warnf("Cache version read failed, bypassing tag=%s error=%v", tag, err)
		return false, loadInto(ctx, load, dst, nil)
	}

	k := entryKey(tag, version, key)
	raw, err := c.client.Get(ctx, k).Bytes()
	switch {
	case err == nil:
		if jsonErr := json.Unmarshal(raw, dst); jsonErr == nil {
			return true, nil
		}
		logger.Warnf("Cache entry corrupted, reloading key=%s", k)
	case !errors.Is(err, redis.Nil):
		logger.Warnf("Cache read failed key=%s error=%v", k, err)
	}

	return false, loadInto(ctx, load, dst, func(data []byte) {
		if setErr := c.client.Set(ctx, k, data, ttl).Err(); setErr != nil {
			logger.Warnf("Cache write failed key=%s error=%v", k, setErr)
		}
	})
}

// Flush 自增标签版本，短暂重试
func (c *RedisTaggedCache) Flush(ctx context.Context, tag string) error {
	var err error
	for attempt := 1; attempt <= flushAttempts; attempt++ {
		if err = c.client.Incr(ctx, versionKey(tag)).Err(); err == nil {
			return nil
		}
		if attempt == flushAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(flushBackoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("flush cache tag %s: %w", tag, err)
}

func (c *RedisTaggedCache) version(ctx context.Context, tag string) (int64, error) {
	raw, err := c.client.Get(ctx, versionKey(tag)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

// loadInto 调用 load 并经 JSON 写入 dst，命中与未命中返回的形状一致
func loadInto(ctx context.Context, load gateway.LoadFunc, dst interface{}, store func([]byte)) error {
	value, err := load(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	if store != nil {
		store(data)
	}
	return json.Unmarshal(data, dst)
}
