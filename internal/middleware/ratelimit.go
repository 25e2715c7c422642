package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/tasklist/internal/request"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	stdlibmw "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

// DefaultRate is used when RATE_LIMIT is empty
const DefaultRate = "10-S"

const rateLimitPrefix = "tasklist_limiter"

// RedisRateLimiter owns the Redis connection backing the rate limit counters
type RedisRateLimiter struct {
	client *redis.Client
}

// NewRedisRateLimiter connects to Redis
func NewRedisRateLimiter(redisURL string) (*RedisRateLimiter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRateLimiter{client: client}, nil
}

// Store returns a limiter store keeping counters in Redis
func (r *RedisRateLimiter) Store() (limiter.Store, error) {
	return redisstore.NewStoreWithOptions(r.client, limiter.StoreOptions{
		Prefix:          rateLimitPrefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})
}

// Ping checks if Redis is reachable
func (r *RedisRateLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisRateLimiter) Close() error {
	return r.client.Close()
}

// RateLimit limits requests per client using a ulule formatted rate such as
// "10-S" or "1000-H". Signed-in requests are keyed by user, others by IP.
func RateLimit(store limiter.Store, formattedRate string) (func(http.Handler) http.Handler, error) {
	if formattedRate == "" {
		formattedRate = DefaultRate
	}
	rate, err := limiter.NewRateFromFormatted(formattedRate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", formattedRate, err)
	}

	mw := stdlibmw.NewMiddleware(limiter.New(store, rate),
		stdlibmw.WithKeyGetter(rateLimitKey),
		stdlibmw.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusTooManyRequests, "Too many requests")
		}),
	)
	return mw.Handler, nil
}

func rateLimitKey(r *http.Request) string {
	if id, ok := request.UserID(r); ok {
		return "user:" + id.String()
	}
	return "ip:" + request.ClientIP(r)
}
