package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"workflow/internal/config"
	"workflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
)

const limiterPrefix = "workflow_limiter"

// NewLimiterStore returns a redis-backed store when redis is configured, otherwise
// an in-process one. The returned close function releases the redis client.
func NewLimiterStore(ctx context.Context, cfg config.RedisConfig) (limiter.Store, func() error, error) {
	if !cfg.Enabled() {
		store := memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          limiterPrefix,
			CleanUpInterval: time.Minute,
		})
		return store, func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}

	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:   limiterPrefix,
		MaxRetry: 3,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("create redis limiter store: %w", err)
	}
	return store, client.Close, nil
}

// RateLimit limits requests per client IP. formatted uses the limiter notation, e.g. "10-M".
func RateLimit(store limiter.Store, formatted string, log *zap.Logger) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}

	instance := limiter.New(store, rate)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response.Error(http.StatusTooManyRequests, "Too many attempts. Please try again later."))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// Fail open when the store is unreachable.
			log.Warn("rate limiter unavailable", zap.Error(err), zap.String("request_id", c.GetString(ContextRequestID)))
			c.Next()
		}),
	), nil
}
