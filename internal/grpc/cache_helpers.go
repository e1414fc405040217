package grpc

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

const (
	defaultFetchTimeout = 15 * time.Second
	defaultSetTimeout   = 5 * time.Second

	// entries older than this share of their TTL are refreshed in the background on a hit
	refreshAheadRatio = 0.5
	jitterRatio       = 0.1
)

// cacheEntry is what gets stored under a key; FetchedAt drives refresh-ahead.
type cacheEntry[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// addTTLJitter spreads expirations by up to ±10% of ttl.
func addTTLJitter(ttl time.Duration) time.Duration {
	spread := int64(float64(ttl) * jitterRatio)
	if ttl <= 0 || spread <= 0 {
		return ttl
	}
	return ttl + time.Duration(rand.Int63n(2*spread+1)-spread)
}

func needsRefresh(fetchedAt time.Time, ttl time.Duration) bool {
	if fetchedAt.IsZero() {
		return true
	}
	return time.Since(fetchedAt) > time.Duration(float64(ttl)*refreshAheadRatio)
}

func store[T any](ctx context.Context, c Cacher, key string, value T, ttl time.Duration) (time.Duration, error) {
	ttl = addTTLJitter(ttl)
	entry := cacheEntry[T]{Value: value, FetchedAt: time.Now().UTC()}
	return ttl, c.Set(ctx, key, entry, ttl)
}

func refreshInBackground[T any](
	c Cacher,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
) {
	go func() {
		_, _, _ = sf.Do(key+":refresh", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
			defer cancel()

			value, err := fn(ctx)
			if err != nil {
				logger.Warn("background refresh failed", zap.String("key", key), zap.Error(err))
				return nil, err
			}

			setCtx, cancelSet := context.WithTimeout(context.Background(), defaultSetTimeout)
			defer cancelSet()

			if applied, err := store(setCtx, c, key, value, ttl); err != nil {
				logger.Warn("failed to update cache in background", zap.String("key", key), zap.Error(err))
			} else {
				logger.Debug("cache refreshed in background", zap.String("key", key), zap.Duration("ttl", applied))
			}
			return nil, nil
		})
	}()
}

// FindAndCache implements read-through caching with singleflight and refresh-ahead:
// concurrent misses for one key share a single fetch, and hits on entries past half
// their TTL trigger one background refresh. Cache failures degrade to a direct fetch.
// A nil cache calls fn directly.
func FindAndCache[T any](
	ctx context.Context,
	c Cacher,
	sf *singleflight.Group,
	key string,
	ttl time.Duration,
	logger *zap.Logger,
	fn FetchFunc[T],
) (T, error) {
	var zero T
	if logger == nil {
		logger = zap.NewNop()
	}
	if c == nil {
		return fn(ctx)
	}

	var cached cacheEntry[T]
	err := c.Get(ctx, key, &cached)
	switch {
	case err == nil:
		logger.Debug("cache hit", zap.String("key", key))
		if needsRefresh(cached.FetchedAt, ttl) {
			refreshInBackground(c, sf, key, ttl, logger, fn)
		}
		return cached.Value, nil

	case errors.Is(err, redis.Nil):
		logger.Debug("cache miss", zap.String("key", key))

	default:
		logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
	}

	v, err, shared := sf.Do(key, func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), defaultSetTimeout)
			defer cancel()
			if _, err := store(setCtx, c, key, value, ttl); err != nil {
				logger.Warn("failed to set cache on miss", zap.String("key", key), zap.Error(err))
			}
		}()
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}
	if shared {
		logger.Debug("singleflight shared result", zap.String("key", key))
	}
	return value, nil
}
