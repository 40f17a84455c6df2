package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/internal/metrics"
	apperrors "github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/errors"
	"github.com/Manish-N-2006/AI-Practice-Areana-Coding-Questions-Generator/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// IPRateLimiter manages rate limiters for each IP
type IPRateLimiter struct {
	ips   map[string]*rateLimiterEntry
	mu    sync.RWMutex
	r     rate.Limit
	burst int
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a new IP-based rate limiter
// r = requests per second, burst = max burst size
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	rl := &IPRateLimiter{
		ips:   make(map[string]*rateLimiterEntry),
		r:     r,
		burst: burst,
	}

	go rl.cleanup()

	return rl
}

func (rl *IPRateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, entry := range rl.ips {
			if time.Since(entry.lastSeen) > 3*time.Minute {
				delete(rl.ips, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// GetLimiter returns the rate limiter for the given IP
func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.ips[ip]
	if !exists {
		limiter := rate.NewLimiter(rl.r, rl.burst)
		rl.ips[ip] = &rateLimiterEntry{
			limiter:  limiter,
			lastSeen: time.Now(),
		}
		return limiter
	}

	entry.lastSeen = time.Now()
	return entry.limiter
}

var (
	// Login: 20 requests per minute
	AuthLimiter = NewIPRateLimiter(rate.Limit(20.0/60.0), 10)

	// AI endpoints: 30 per minute. The per-user quotas do the real gating.
	AILimiter = NewIPRateLimiter(rate.Limit(30.0/60.0), 10)

	// Full submissions fan out one judge call per test case: 20 per minute
	SubmitLimiter = NewIPRateLimiter(rate.Limit(20.0/60.0), 5)

	// General API: 600 requests per minute (10/sec)
	GeneralLimiter = NewIPRateLimiter(rate.Limit(10.0), 50)
)

// RateLimitMiddleware creates a rate limiting middleware with a custom limiter
func RateLimitMiddleware(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		l := limiter.GetLimiter(ip)

		if !l.Allow() {
			logger.Warn().
				Str("ip", ip).
				Str("path", c.Request.URL.Path).
				Msg("Rate limit exceeded")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too many requests",
				"message": "Rate limit exceeded. Please slow down.",
			})
			return
		}

		c.Next()
	}
}

func AuthRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(AuthLimiter)
}

func AIRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(AILimiter)
}

func SubmitRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(SubmitLimiter)
}

func GeneralRateLimit() gin.HandlerFunc {
	return RateLimitMiddleware(GeneralLimiter)
}

// Cooldown admits at most one call per key within its window. A rejected
// call does not move the window.
type Cooldown interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryCooldown tracks the last admitted call per key in process memory.
// It is not shared between instances; use RedisCooldown for that.
type MemoryCooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

func NewMemoryCooldown(window time.Duration) *MemoryCooldown {
	return &MemoryCooldown{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

const cooldownPruneSize = 10000

func (m *MemoryCooldown) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if t, ok := m.last[key]; ok && now.Sub(t) < m.window {
		return false, nil
	}
	m.last[key] = now

	if len(m.last) > cooldownPruneSize {
		for k, t := range m.last {
			if now.Sub(t) >= m.window {
				delete(m.last, k)
			}
		}
	}
	return true, nil
}

// RedisCooldown uses SET NX with an expiry, so the window holds across instances.
type RedisCooldown struct {
	rdb    *redis.Client
	window time.Duration
}

func NewRedisCooldown(rdb *redis.Client, window time.Duration) *RedisCooldown {
	return &RedisCooldown{rdb: rdb, window: window}
}

func (r *RedisCooldown) Allow(ctx context.Context, key string) (bool, error) {
	return r.rdb.SetNX(ctx, "arena:cooldown:"+key, time.Now().UnixMilli(), r.window).Result()
}

// cooldownKey is the user id when signed in, otherwise the client address.
func cooldownKey(c *gin.Context) string {
	if uid := c.GetString(ContextUserID); uid != "" {
		return uid
	}
	return "guest:" + c.ClientIP()
}

// RunCooldown rejects a caller's second call inside the cooldown window with
// 429 {"status": "rate_limited"}. Store errors fail open.
func RunCooldown(cd Cooldown, window time.Duration) gin.HandlerFunc {
	retryAfter := strconv.Itoa(int((window + time.Second - 1) / time.Second))
	return func(c *gin.Context) {
		key := cooldownKey(c)
		ok, err := cd.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Cooldown store unavailable")
			c.Next()
			return
		}
		if !ok {
			metrics.QuotaRejections.WithLabelValues("run_cooldown").Inc()
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(apperrors.ErrRateLimited.Code, gin.H{
				"status":  apperrors.ErrRateLimited.Kind,
				"error":   apperrors.ErrRateLimited.Message,
				"message": "Please wait before running again.",
			})
			return
		}
		c.Next()
	}
}
