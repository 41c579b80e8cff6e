package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type config struct {
	client        *redis.Client
	prefix        string
	queryTimeout  time.Duration
	sweepInterval time.Duration
	metrics       *Metrics
}

// Option configures a Service.
type Option func(*config)

// WithRedis supplies the Redis client for the primary backend. Without it
// the Service runs on the in-process store only.
func WithRedis(client *redis.Client) Option {
	return func(c *config) { c.client = client }
}

// WithPrefix sets the namespace prepended to every Redis key. Defaults to
// empty (no prefix).
func WithPrefix(prefix string) Option {
	return func(c *config) { c.prefix = prefix }
}

// WithQueryTimeout bounds each Redis operation. Defaults to
// DefaultQueryTimeout.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *config) { c.queryTimeout = d }
}

// WithSweepInterval sets how often the fallback store compacts expired
// entries. Defaults to one minute.
func WithSweepInterval(d time.Duration) Option {
	return func(c *config) { c.sweepInterval = d }
}

// WithMetrics supplies a pre-built Metrics, e.g. to share a registry.
func WithMetrics(m *Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// Service unifies the Redis and in-process stores behind one handle. It is
// constructed once at process start and passed to every consumer. Each
// primitive tries Redis first and retries against the memory store on any
// transport error, so these methods never fail: during an outage the cache
// degrades to process-local, never to broken.
type Service struct {
	remote   *RedisStore
	fallback *MemoryStore
	log      *zap.Logger
	metrics  *Metrics
	group    singleflight.Group
}

// New builds a Service. If a Redis client is configured it is pinged once;
// a failed ping logs a warning and the process starts on the fallback store,
// but every later operation still attempts Redis through the circuit
// breaker, so recovery needs no restart.
func New(ctx context.Context, log *zap.Logger, opts ...Option) *Service {
	cfg := config{queryTimeout: DefaultQueryTimeout, sweepInterval: time.Minute}
	for _, opt := range opts {
		opt(&cfg)
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.metrics == nil {
		cfg.metrics = NewMetrics("quillbill")
	}
	s := &Service{
		fallback: NewMemory(ctx, cfg.sweepInterval),
		log:      log,
		metrics:  cfg.metrics,
	}
	if cfg.client != nil {
		s.remote = NewRedis(cfg.client, cfg.prefix, cfg.queryTimeout, log)
		if err := s.remote.Ping(ctx); err != nil {
			log.Warn("redis unavailable, starting on in-process fallback cache", zap.Error(err))
		} else {
			log.Info("cache connected to redis", zap.String("prefix", cfg.prefix))
		}
	} else {
		log.Info("cache running on in-process store only")
	}
	return s
}

// Backend reports which backend is currently serving: "redis" when the
// remote store is configured and its breaker admits requests, "memory"
// otherwise.
func (s *Service) Backend() string {
	if s.remote != nil && s.remote.Healthy() {
		return "redis"
	}
	return "memory"
}

// Metrics returns the service counters.
func (s *Service) Metrics() *Metrics {
	return s.metrics
}

// Close stops the fallback sweeper. The Redis client is owned by the caller.
func (s *Service) Close() {
	s.fallback.Close()
}

func (s *Service) fellBack(op, key string, err error) {
	s.metrics.Fallbacks.Inc()
	s.log.Warn("cache falling back to in-process store",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err))
}

// Get returns the raw value for key, or ok=false on a miss.
func (s *Service) Get(ctx context.Context, key string) (string, bool) {
	if s.remote != nil {
		val, ok, err := s.remote.Get(ctx, key)
		if err == nil {
			s.observe(key, ok)
			return val, ok
		}
		s.fellBack("get", key, err)
	}
	val, ok, _ := s.fallback.Get(ctx, key)
	s.observe(key, ok)
	return val, ok
}

func (s *Service) observe(key string, hit bool) {
	if hit {
		s.metrics.Hits.Inc()
		s.log.Debug("cache hit", zap.String("key", key))
	} else {
		s.metrics.Misses.Inc()
		s.log.Debug("cache miss", zap.String("key", key))
	}
}

// Set stores value under key with the given ttl.
func (s *Service) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if s.remote != nil {
		err := s.remote.Set(ctx, key, value, ttl)
		if err == nil {
			return
		}
		s.fellBack("set", key, err)
	}
	_ = s.fallback.Set(ctx, key, value, ttl)
}

// Del removes the given keys. Missing keys are a no-op.
func (s *Service) Del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if s.remote != nil {
		err := s.remote.Del(ctx, keys...)
		if err == nil {
			return
		}
		s.fellBack("del", keys[0], err)
	}
	_ = s.fallback.Del(ctx, keys...)
}

// Exists reports whether key holds a live entry.
func (s *Service) Exists(ctx context.Context, key string) bool {
	if s.remote != nil {
		ok, err := s.remote.Exists(ctx, key)
		if err == nil {
			return ok
		}
		s.fellBack("exists", key, err)
	}
	ok, _ := s.fallback.Exists(ctx, key)
	return ok
}

// Keys returns all live keys matching the glob pattern.
func (s *Service) Keys(ctx context.Context, pattern string) []string {
	if s.remote != nil {
		keys, err := s.remote.Keys(ctx, pattern)
		if err == nil {
			return keys
		}
		s.fellBack("keys", pattern, err)
	}
	keys, err := s.fallback.Keys(ctx, pattern)
	if err != nil {
		s.log.Warn("cache key enumeration failed", zap.String("pattern", pattern), zap.Error(err))
		return nil
	}
	return keys
}

// SetJSON serializes v and stores it under key. The only possible failure
// is serialization itself; storage failures are absorbed like every other
// primitive.
func (s *Service) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "cache: marshal value for key %q", key)
	}
	s.Set(ctx, key, string(data), ttl)
	return nil
}

// ClearPattern deletes every key matching the glob pattern and returns how
// many were removed. A pattern matching nothing is a no-op.
func (s *Service) ClearPattern(ctx context.Context, pattern string) int {
	keys := s.Keys(ctx, pattern)
	if len(keys) == 0 {
		return 0
	}
	s.Del(ctx, keys...)
	s.metrics.Invalidations.Add(float64(len(keys)))
	s.log.Info("cache invalidated",
		zap.String("pattern", pattern),
		zap.Int("keys", len(keys)))
	return len(keys)
}

// Sweep compacts expired entries out of the fallback store and returns how
// many were removed. Redis expires its own entries natively.
func (s *Service) Sweep() int {
	return s.fallback.Sweep()
}

// GetJSON reads key and decodes it into T. A missing key or a malformed
// payload both read as a miss; corruption is logged and counted but never
// surfaced.
func GetJSON[T any](ctx context.Context, s *Service, key string) (T, bool) {
	var zero T
	raw, ok := s.Get(ctx, key)
	if !ok {
		return zero, false
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		s.metrics.Errors.Inc()
		s.log.Warn("cache discarding malformed entry", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return out, true
}
