package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/metrics"
	"github.com/mundo-dos-mangues/mangues-backend/pkg/lifecycle"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const rateLimitLabel = "Muitas requisições, tente novamente mais tarde."

// Limiter 判断某个客户端在当前窗口内是否还能发起请求
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Backend() string
}

// RateLimit 按客户端IP限流。限流器出错时放行并记录警告。
func RateLimit(limiter Limiter, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		allowed, err := limiter.Allow(c.Request.Context(), ip)
		if errors.Is(err, ErrLimiterUnavailable) {
			// 健康检查器已经记录过后端故障，这里不再逐请求告警
			c.Next()
			return
		}
		if err != nil {
			log.Warn("限流器不可用，放行请求",
				zap.String("backend", limiter.Backend()),
				zap.String("ip", ip),
				zap.Error(err),
			)
			c.Next()
			return
		}
		if !allowed {
			metrics.ObserveRateLimitRejection(limiter.Backend())
			log.Warn("请求超过频率限制",
				zap.String("ip", ip),
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": rateLimitLabel})
			return
		}
		c.Next()
	}
}

// ErrLimiterUnavailable 表示限流后端最近一次健康检查失败，本次不再访问它
var ErrLimiterUnavailable = errors.New("限流后端不可用")

// slidingWindowScript 先清理窗口外的记录，只有未超限时才写入本次请求。
// 被拒绝的请求不计入窗口，与 MemoryLimiter 行为一致。
var slidingWindowScript = redis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if redis.call('ZCARD', KEYS[1]) < tonumber(ARGV[3]) then
	redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
	redis.call('PEXPIRE', KEYS[1], ARGV[5])
	return 1
end
return 0
`)

// RedisLimiter 用每个IP一个有序集合实现滑动窗口，多个实例共享计数
type RedisLimiter struct {
	rdb     *redis.Client
	window  time.Duration
	max     int
	prefix  string
	healthy func() bool
	now     func() time.Time
}

// NewRedisLimiter 创建基于Redis的限流器。
// healthy 通常是 database.Status.IsRedisHealthy，为nil时总是访问Redis。
func NewRedisLimiter(rdb *redis.Client, max int, window time.Duration, healthy func() bool) *RedisLimiter {
	return &RedisLimiter{
		rdb:     rdb,
		window:  window,
		max:     max,
		prefix:  "rate_limit:",
		healthy: healthy,
		now:     time.Now,
	}
}

func (l *RedisLimiter) Backend() string { return "redis" }

// Allow 在一个Lua脚本中原子地完成清理、计数和写入
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.healthy != nil && !l.healthy() {
		return false, ErrLimiterUnavailable
	}

	now := l.now()
	cutoff := strconv.FormatInt(now.Add(-l.window).UnixMicro(), 10)
	ttl := (l.window + time.Minute).Milliseconds()

	allowed, err := slidingWindowScript.Run(ctx, l.rdb, []string{l.prefix + key},
		cutoff, now.UnixMicro(), l.max, uuid.NewString(), ttl).Int()
	if err != nil {
		return false, fmt.Errorf("执行限流脚本失败: %w", err)
	}
	return allowed == 1, nil
}

// MemoryLimiter 是单实例的滑动窗口限流器，未启用Redis时使用
type MemoryLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	window   time.Duration
	max      int
	now      func() time.Time
}

// NewMemoryLimiter 创建内存限流器
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		requests: make(map[string][]time.Time),
		window:   window,
		max:      max,
		now:      time.Now,
	}
}

func (l *MemoryLimiter) Backend() string { return "memory" }

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	valid := prune(l.requests[key], now.Add(-l.window))
	if len(valid) >= l.max {
		l.requests[key] = valid
		return false, nil
	}
	l.requests[key] = append(valid, now)
	return true, nil
}

// Sweep 删除所有已经滑出窗口的记录
func (l *MemoryLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	for key, times := range l.requests {
		valid := prune(times, cutoff)
		if len(valid) == 0 {
			delete(l.requests, key)
		} else {
			l.requests[key] = valid
		}
	}
}

// Run 定期清理过期记录，直到生命周期句柄收到停机信号
func (l *MemoryLimiter) Run(h *lifecycle.Handle, interval time.Duration) {
	defer h.Close()
	for {
		if err := h.Sleep(interval); err != nil {
			return
		}
		l.Sweep()
	}
}

func prune(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}
