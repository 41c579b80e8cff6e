package cache

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// RedisStore is the primary backend. Every key is namespaced with the
// configured prefix before it reaches Redis, and the prefix is stripped
// again on the way out, so callers only ever see logical keys. Each call is
// guarded by a circuit breaker: during an outage the breaker opens after
// enough failures and subsequent calls fail immediately instead of waiting
// out the dial timeout, while half-open probes re-detect recovery.
type RedisStore struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	prefix  string
	timeout time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedis wraps an existing Redis client. The caller owns the client
// lifecycle. A timeout <= 0 defaults to DefaultQueryTimeout.
func NewRedis(client *redis.Client, prefix string, timeout time.Duration, log *zap.Logger) *RedisStore {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisStore{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "redis-cache",
			MaxRequests: 3,
			Interval:    30 * time.Second,
			Timeout:     15 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < 5 {
					return false
				}
				return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("redis circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}),
	}
}

// DefaultQueryTimeout bounds each Redis operation so a slow or partitioned
// server degrades the request instead of hanging it.
const DefaultQueryTimeout = 5 * time.Second

func (s *RedisStore) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, s.timeout)
}

func (s *RedisStore) prefixKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + ":" + key
}

func (s *RedisStore) stripPrefix(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimPrefix(key, s.prefix+":")
}

// Healthy reports whether the circuit breaker currently allows requests.
func (s *RedisStore) Healthy() bool {
	return s.breaker.State() != gobreaker.StateOpen
}

// Ping verifies connectivity through the breaker so that a dead server at
// startup counts toward tripping it.
func (s *RedisStore) Ping(ctx context.Context) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.client.Ping(qctx).Err()
	})
	return errors.Wrap(err, "cache: redis ping")
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	res, err := s.breaker.Execute(func() (any, error) {
		val, err := s.client.Get(qctx, s.prefixKey(key)).Result()
		if err == redis.Nil {
			// A miss is an answer, not a transport failure.
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return val, nil
	})
	if err != nil {
		return "", false, errors.Wrap(err, "cache: redis get")
	}
	if res == nil {
		return "", false, nil
	}
	return res.(string), true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.client.Set(qctx, s.prefixKey(key), value, ttl).Err()
	})
	return errors.Wrap(err, "cache: redis set")
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = s.prefixKey(key)
	}
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	_, err := s.breaker.Execute(func() (any, error) {
		return nil, s.client.Del(qctx, prefixed...).Err()
	})
	return errors.Wrap(err, "cache: redis del")
}

func (s *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	res, err := s.breaker.Execute(func() (any, error) {
		n, err := s.client.Exists(qctx, s.prefixKey(key)).Result()
		if err != nil {
			return nil, err
		}
		return n > 0, nil
	})
	if err != nil {
		return false, errors.Wrap(err, "cache: redis exists")
	}
	return res.(bool), nil
}

func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	qctx, cancel := s.queryCtx(ctx)
	defer cancel()
	res, err := s.breaker.Execute(func() (any, error) {
		var keys []string
		iter := s.client.Scan(qctx, 0, s.prefixKey(pattern), 0).Iterator()
		for iter.Next(qctx) {
			keys = append(keys, s.stripPrefix(iter.Val()))
		}
		if err := iter.Err(); err != nil {
			return nil, err
		}
		return keys, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "cache: redis keys")
	}
	return res.([]string), nil
}
