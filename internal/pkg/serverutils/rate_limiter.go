package serverutils

import (
	"strconv"
	"time"

	"ai-chatbot-be/internal/pkg/apperror"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

type RateLimitConfig struct {
	PerMinute int
	Burst     int
	// KeyFunc picks the bucket for a request. Defaults to the client IP.
	KeyFunc func(ctx *fiber.Ctx) string
}

// RateLimiter keeps one token bucket per key. Idle buckets expire.
type RateLimiter struct {
	cfg      RateLimitConfig
	limit    rate.Limit
	limiters *cache.Cache
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.PerMinute <= 0 {
		cfg.PerMinute = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(ctx *fiber.Ctx) string { return ctx.IP() }
	}
	return &RateLimiter{
		cfg:      cfg,
		limit:    rate.Every(time.Minute / time.Duration(cfg.PerMinute)),
		limiters: cache.New(10*time.Minute, 20*time.Minute),
	}
}

func (r *RateLimiter) limiterFor(key string) *rate.Limiter {
	if v, ok := r.limiters.Get(key); ok {
		r.limiters.SetDefault(key, v)
		return v.(*rate.Limiter)
	}
	limiter := rate.NewLimiter(r.limit, r.cfg.Burst)
	if err := r.limiters.Add(key, limiter, cache.DefaultExpiration); err != nil {
		// Lost the race against another request for the same key.
		if v, ok := r.limiters.Get(key); ok {
			return v.(*rate.Limiter)
		}
	}
	return limiter
}

func (r *RateLimiter) Handler() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if ctx.Method() == fiber.MethodOptions {
			return ctx.Next()
		}

		limiter := r.limiterFor(r.cfg.KeyFunc(ctx))
		ctx.Set("X-RateLimit-Limit", strconv.Itoa(r.cfg.PerMinute))

		if !limiter.Allow() {
			ctx.Set("X-RateLimit-Remaining", "0")
			ctx.Set("Retry-After", strconv.Itoa(int(time.Minute/time.Duration(r.cfg.PerMinute)/time.Second)+1))
			return apperror.New(apperror.CodeRateLimit, "Rate limit exceeded. Please try again later.")
		}

		remaining := int(limiter.Tokens())
		if remaining < 0 {
			remaining = 0
		}
		ctx.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		return ctx.Next()
	}
}
