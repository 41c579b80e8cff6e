package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Through is the read-through wrapper. It returns the cached value for key
// if one exists; otherwise it invokes load, stores the result with the
// given ttl, and returns it. Loader errors propagate unchanged and nothing
// is cached for them. A failure to store the computed value is logged and
// the value is still returned, so the cache can always fail without
// breaking the read path.
//
// Concurrent misses on the same key are collapsed: only one loader runs and
// every waiter receives its result. Across processes there is no such
// coordination; racing instances each compute and last write wins, which is
// acceptable for a cache.
func Through[T any](ctx context.Context, s *Service, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if v, ok := GetJSON[T](ctx, s, key); ok {
		return v, nil
	}
	res, err, _ := s.group.Do(key, func() (any, error) {
		// A concurrent flight may have populated the key while this caller
		// was queued behind it.
		if v, ok := GetJSON[T](ctx, s, key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.SetJSON(ctx, key, v, ttl); err != nil {
			s.log.Warn("cache store after compute failed", zap.String("key", key), zap.Error(err))
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}
