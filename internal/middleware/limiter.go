package middleware

import (
	"sync"

	pkgapp "github.com/haierkeys/bento-note-sync/pkg/app"
	"github.com/haierkeys/bento-note-sync/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// KeyFunc picks the bucket of a request.
type KeyFunc func(c *gin.Context) string

// Limiter keeps one token bucket per key.
// Limiter 按 key 维护令牌桶
type Limiter struct {
	mu       sync.Mutex
	rate     float64
	capacity int64
	key      KeyFunc
	buckets  map[string]*ratelimit.Bucket
}

// NewLimiter allows rate requests per second per key with bursts up to capacity.
// rate <= 0 disables limiting.
func NewLimiter(rate float64, capacity int64, key KeyFunc) *Limiter {
	if capacity <= 0 {
		capacity = int64(rate)
	}
	if capacity <= 0 {
		capacity = 1
	}
	if key == nil {
		key = ClientIPKey
	}
	return &Limiter{
		rate:     rate,
		capacity: capacity,
		key:      key,
		buckets:  make(map[string]*ratelimit.Bucket),
	}
}

// Key returns the bucket key of c.
func (l *Limiter) Key(c *gin.Context) string {
	return l.key(c)
}

// GetBucket returns the bucket of key, creating it on first use.
func (l *Limiter) GetBucket(key string) (*ratelimit.Bucket, bool) {
	if l.rate <= 0 {
		return nil, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = ratelimit.NewBucketWithRate(l.rate, l.capacity)
		l.buckets[key] = b
	}
	return b, true
}

// ClientIPKey 按客户端 IP 限流
func ClientIPKey(c *gin.Context) string {
	return pkgapp.GetRequestIP(c)
}

// RelayCallerKey limits per installation once the relay token is verified, per IP before.
func RelayCallerKey(c *gin.Context) string {
	if claims := pkgapp.GetRelayClaims(c); claims != nil && claims.InstallationID != "" {
		return "iid:" + claims.InstallationID
	}
	return "ip:" + pkgapp.GetRequestIP(c)
}

// RateLimiter creates rate limiting middleware (supports dependency injection)
// RateLimiter 创建限流中间件（支持依赖注入）
func RateLimiter(l *Limiter, reject Reject) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.Key(c)
		if bucket, ok := l.GetBucket(key); ok {
			count := bucket.TakeAvailable(1)
			if count == 0 {
				reject(c, code.ErrorTooManyRequest)
				return
			}
		}

		c.Next()
	}
}
