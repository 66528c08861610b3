package resource

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"video-ingest-service/pkg/assert"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/manager"
	"video-ingest-service/pkg/redisclient"
)

var (
	redisResourceOnce sync.Once
	redisSingleton    *RedisResource
)

// RedisResource feed 缓存的 Redis 连接。
// Redis 不是记录的权威来源，启动时不可达只告警，缓存读写自行降级为直读数据库。
type RedisResource struct {
	client   *redisclient.Client
	degraded bool
}

func DefaultRedisResource() *RedisResource {
	assert.NotCircular()
	redisResourceOnce.Do(func() {
		redisSingleton = &RedisResource{}
	})
	assert.NotNil(redisSingleton)
	return redisSingleton
}

func (r *RedisResource) MustOpen() {
	if r.client != nil {
		return
	}
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized")
	}

	r.client = redisclient.Dial(cfg.Redis)
	if err := r.client.Ping(context.Background()); err != nil {
		r.degraded = true
		logger.Warn("Redis unreachable, feed cache degraded", map[string]interface{}{
			"addr":  cfg.Redis.GetRedisAddr(),
			"error": err.Error(),
		})
		return
	}
	logger.Infof("Redis connected addr=%s db=%d", cfg.Redis.GetRedisAddr(), cfg.Redis.DB)
}

// Degraded 启动时 Ping 是否失败
func (r *RedisResource) Degraded() bool { return r.degraded }

func (r *RedisResource) Close() {
	if r.client != nil {
		if err := r.client.Close(); err != nil {
			logger.Warnf("Redis close failed error=%v", err)
		}
	}
}

// Client go-redis 原生客户端，MustOpen 之前为 nil
func (r *RedisResource) Client() *redis.Client {
	if r.client == nil {
		return nil
	}
	return r.client.Raw()
}

type RedisResourcePlugin struct{}

func (p *RedisResourcePlugin) Name() string {
	return "redisResource"
}

func (p *RedisResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultRedisResource()
}
