package redisclient

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"

	"video-ingest-service/pkg/config"
)

// Client feed 缓存使用的 go-redis 客户端
type Client struct {
	native      *redis.Client
	dialTimeout time.Duration
}

// Dial 按配置创建客户端，不做连通性检查；连接在首次命令时建立
func Dial(cfg config.RedisConfig) *Client {
	opts := &redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pickDuration(cfg.DialTimeout, 5*time.Second),
		ReadTimeout:  pickDuration(cfg.ReadTimeout, 3*time.Second),
		WriteTimeout: pickDuration(cfg.WriteTimeout, 3*time.Second),
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &Client{native: redis.NewClient(opts), dialTimeout: opts.DialTimeout}
}

// New 创建客户端并 Ping 一次，失败时关闭连接池
func New(cfg config.RedisConfig) (*Client, error) {
	c := Dial(cfg)
	if err := c.Ping(context.Background()); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

// Ping 以 DialTimeout 为上限检查连通性
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()
	return c.native.Ping(ctx).Err()
}

func (c *Client) Raw() *redis.Client {
	return c.native
}

func (c *Client) Close() error {
	return c.native.Close()
}

func pickDuration(v time.Duration, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}
