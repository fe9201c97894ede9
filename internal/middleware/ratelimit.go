// ratelimit.go enforces per-client token-bucket limits and answers 429 when a
// bucket is empty. Buckets live in process memory, or in Redis via
// redis_rate when several replicas must share them.
package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"

	"github.com/menuhub/menuhub/internal/config"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests is the number of requests refilled per Period
	Requests int
	Period   time.Duration
	// BurstSize is the bucket capacity
	BurstSize int
	// CleanupInterval is how often idle buckets are dropped
	CleanupInterval time.Duration
}

// APIRateLimitConfig returns the general per-client limit from config.
func APIRateLimitConfig(cfg *config.RateLimitingConfig) RateLimitConfig {
	return RateLimitConfig{
		Requests:        cfg.RequestsPerMinute,
		Period:          time.Minute,
		BurstSize:       cfg.Burst,
		CleanupInterval: 5 * time.Minute,
	}
}

// AuthRateLimitConfig returns stricter limits for login endpoints
func AuthRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Requests:        10,
		Period:          time.Minute,
		BurstSize:       5,
		CleanupInterval: 5 * time.Minute,
	}
}

// FeedbackRateLimitConfig returns the public feedback limit from config.
func FeedbackRateLimitConfig(cfg *config.RateLimitingConfig) RateLimitConfig {
	return RateLimitConfig{
		Requests:        cfg.FeedbackPerHour,
		Period:          time.Hour,
		BurstSize:       cfg.FeedbackPerHour,
		CleanupInterval: 10 * time.Minute,
	}
}

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether the client identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// rateLimitEntry tracks the bucket of a single client
type rateLimitEntry struct {
	tokens     float64
	lastUpdate time.Time
}

// RateLimiter is an in-process token bucket limiter
type RateLimiter struct {
	config  RateLimitConfig
	entries map[string]*rateLimitEntry
	mu      sync.Mutex
	stopCh  chan struct{}
	once    sync.Once
	now     func() time.Time
}

// NewRateLimiter creates a limiter and starts its cleanup goroutine. Call
// Stop on shutdown.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	rl := &RateLimiter{
		config:  cfg,
		entries: make(map[string]*rateLimitEntry),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
	go rl.cleanup()
	return rl
}

// cleanup drops buckets that have refilled completely; they are
// indistinguishable from new clients.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for key, entry := range rl.entries {
				if rl.refill(entry, now) >= float64(rl.config.BurstSize) {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

// Stop stops the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) perSecond() float64 {
	return float64(rl.config.Requests) / rl.config.Period.Seconds()
}

func (rl *RateLimiter) refill(entry *rateLimitEntry, now time.Time) float64 {
	elapsed := now.Sub(entry.lastUpdate).Seconds()
	return math.Min(float64(rl.config.BurstSize), entry.tokens+elapsed*rl.perSecond())
}

// Allow takes one token from key's bucket.
func (rl *RateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	entry, exists := rl.entries[key]
	if !exists {
		entry = &rateLimitEntry{tokens: float64(rl.config.BurstSize), lastUpdate: now}
		rl.entries[key] = entry
	}

	entry.tokens = rl.refill(entry, now)
	entry.lastUpdate = now

	d := Decision{Limit: rl.config.Requests}
	if entry.tokens >= 1 {
		entry.tokens--
		d.Allowed = true
		d.Remaining = int(entry.tokens)
		return d, nil
	}

	wait := (1 - entry.tokens) / rl.perSecond()
	d.RetryAfter = time.Duration(wait * float64(time.Second))
	return d, nil
}

// RedisRateLimiter shares buckets between replicas through Redis (GCRA).
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
	prefix  string
}

// NewRedisRateLimiter creates a limiter backed by client. Keys are stored
// under prefix + "ratelimit:".
func NewRedisRateLimiter(client *redis.Client, cfg RateLimitConfig, prefix string) *RedisRateLimiter {
	return &RedisRateLimiter{
		limiter: redis_rate.NewLimiter(client),
		limit: redis_rate.Limit{
			Rate:   cfg.Requests,
			Burst:  cfg.BurstSize,
			Period: cfg.Period,
		},
		prefix: prefix + "ratelimit:",
	}
}

// Allow takes one token from key's bucket.
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := rl.limiter.Allow(ctx, rl.prefix+key, rl.limit)
	if err != nil {
		return Decision{}, err
	}
	d := Decision{
		Allowed:   res.Allowed > 0,
		Limit:     rl.limit.Rate,
		Remaining: res.Remaining,
	}
	if !d.Allowed {
		d.RetryAfter = res.RetryAfter
	}
	return d, nil
}

// NewLimiter returns a Redis-backed limiter when client is non-nil and an
// in-process one otherwise. The stop function releases the in-process
// limiter's cleanup goroutine.
func NewLimiter(client *redis.Client, cfg RateLimitConfig, prefix string) (Limiter, func()) {
	if client != nil {
		return NewRedisRateLimiter(client, cfg, prefix), func() {}
	}
	rl := NewRateLimiter(cfg)
	return rl, rl.Stop
}

// RateLimitMiddleware rejects requests whose bucket is empty. scope
// separates buckets of different limits for the same client. A limiter error
// lets the request through.
func RateLimitMiddleware(limiter Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + getRateLimitKey(c)

		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			slog.Warn("rate limiter unavailable, allowing request", "scope", scope, "error", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))

		if !d.Allowed {
			retryAfter := int(math.Ceil(d.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// getRateLimitKey prefers the authenticated user and falls back to the
// client IP.
func getRateLimitKey(c *gin.Context) string {
	if id := c.GetString(UserIDKey); id != "" {
		return "user:" + id
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = c.Request.RemoteAddr
	}
	return "ip:" + ip
}
