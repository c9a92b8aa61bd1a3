package pkg

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// windowTTL keeps each one-second Redis counter alive slightly past its window.
const windowTTL = 2 * time.Second

// DistributedLimiter combines local rate.Limiter with Redis for global enforcement.
// The Redis side is a fixed one-second window shared by every replica.
type DistributedLimiter struct {
	localLimiter *rate.Limiter
	redisClient  *redis.Client // nil means local-only
	keyPrefix    string        // e.g: "ratelimit:predict"
	globalRate   int
	logger       *zap.Logger
	now          func() time.Time
}

// NewDistributedLimiter creates a limiter; if globalRate=0, it's unlimited.
// A nil redisClient restricts enforcement to this replica.
func NewDistributedLimiter(redisClient *redis.Client, keyPrefix string, globalRate, burst int, logger *zap.Logger) *DistributedLimiter {
	var local *rate.Limiter
	if globalRate > 0 {
		if burst <= 0 {
			burst = globalRate
		}
		local = rate.NewLimiter(rate.Limit(globalRate), burst)
	}
	return &DistributedLimiter{
		localLimiter: local,
		redisClient:  redisClient,
		keyPrefix:    keyPrefix,
		globalRate:   globalRate,
		logger:       logger,
		now:          time.Now,
	}
}

// Allow checks if a token is available; uses Redis for distributed increment.
func (d *DistributedLimiter) Allow(ctx context.Context) bool {
	if d.localLimiter == nil {
		return true // Unlimited
	}

	// Local check first (fast path)
	if !d.localLimiter.Allow() {
		return false
	}
	if d.redisClient == nil {
		return true
	}

	key := d.keyPrefix + ":" + strconv.FormatInt(d.now().Unix(), 10)
	pipe := d.redisClient.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, windowTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		d.logger.Error("redis_rate_limit_error_falling_back_to_local", zap.Error(err))
		return true
	}

	if count := incr.Val(); count > int64(d.globalRate) {
		d.logger.Warn("global_rate_limit_exceeded", zap.Int64("count", count), zap.String("key", key))
		return false
	}
	return true
}
