package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"video-ingest-service/pkg/errno"
	"video-ingest-service/pkg/restapi"
)

// KeyedLimiter 按调用者维度的令牌桶
type KeyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter perMinute 次/分钟，突发上限同为 perMinute
func NewKeyedLimiter(perMinute int) *KeyedLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &KeyedLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow 消耗 key 的一个令牌
func (l *KeyedLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
		if len(l.limiters) > 1024 {
			l.evictLocked(now)
		}
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (l *KeyedLimiter) evictLocked(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.limiters, k)
		}
	}
}

// RateLimitMiddleware 写接口限流，认证用户按 UUID，匿名按 IP
func RateLimitMiddleware(l *KeyedLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := UserUUID(c)
		if key == "" {
			key = "ip:" + c.ClientIP()
		}
		if !l.Allow(key) {
			restapi.Failed(c, errno.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
