package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"calmnest-api/internal/config"
	"calmnest-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const (
	defaultRate    = "120-M"
	limiterPrefix  = "calmnest:ratelimit"
	redisPingLimit = 5 * time.Second
)

// RateLimitExceededMessage is returned with a 429.
const RateLimitExceededMessage = "Rate limit exceeded. Please slow down."

// NewLimiterStore returns a Redis-backed store when redisURL is set and an
// in-memory store otherwise. The returned close func releases the Redis client.
func NewLimiterStore(ctx context.Context, redisURL string) (limiter.Store, func() error, error) {
	if redisURL == "" {
		store := memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          limiterPrefix,
			CleanUpInterval: limiter.DefaultCleanUpInterval,
		})
		return store, func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid ratelimit redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingLimit)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to reach ratelimit redis: %w", err)
	}

	store, err := redisstore.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: limiterPrefix})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to create redis limiter store: %w", err)
	}
	return store, client.Close, nil
}

// RateLimit limits requests per client IP at the formatted rate, e.g. "120-M".
func RateLimit(store limiter.Store, rateFormatted string, logger *logger.Logger) (gin.HandlerFunc, error) {
	if rateFormatted == "" {
		rateFormatted = defaultRate
	}
	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", rateFormatted, err)
	}

	instance := limiter.New(store, rate)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			logger.Warn("Rate limit exceeded",
				"client_ip", c.ClientIP(),
				"path", c.Request.URL.Path)
			c.JSON(http.StatusTooManyRequests, gin.H{"ok": false, "error": RateLimitExceededMessage})
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// A broken limiter store must not take the webhook down.
			logger.Error("Rate limiter store failed", "error", err)
			c.Next()
		}),
	), nil
}

// RateLimitFromConfig builds the limiter from configuration. It returns a
// pass-through handler when rate limiting is disabled.
func RateLimitFromConfig(ctx context.Context, cfg config.RateLimitConfig, logger *logger.Logger) (gin.HandlerFunc, func() error, error) {
	if !cfg.Enabled {
		return func(c *gin.Context) { c.Next() }, func() error { return nil }, nil
	}

	store, closeStore, err := NewLimiterStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}

	handler, err := RateLimit(store, cfg.Rate, logger)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return handler, closeStore, nil
}
