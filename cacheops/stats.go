package cacheops

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quillbill/backend/cache"
)

// Snapshot is a point-in-time view of the cache contents.
type Snapshot struct {
	TotalKeys  int            `json:"totalKeys"`
	KeysByType map[string]int `json:"keysByType"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Stats enumerates cache keys for operational introspection.
type Stats struct {
	cache *cache.Service
	log   *zap.Logger
}

// NewStats returns a Stats over svc.
func NewStats(svc *cache.Service, log *zap.Logger) *Stats {
	if log == nil {
		log = zap.NewNop()
	}
	return &Stats{cache: svc, log: log}
}

// Snapshot enumerates all keys and buckets them by the entity type before
// the first ':' separator. An empty cache yields TotalKeys 0 and an empty
// (non-nil) map.
func (s *Stats) Snapshot(ctx context.Context) Snapshot {
	keys := s.cache.Keys(ctx, "*")
	byType := make(map[string]int)
	for _, key := range keys {
		entity, _, _ := strings.Cut(key, ":")
		byType[entity]++
	}
	return Snapshot{
		TotalKeys:  len(keys),
		KeysByType: byType,
		Timestamp:  time.Now().UTC(),
	}
}

// CleanupExpired compacts expired entries out of the in-process fallback
// store and returns how many were removed. Redis handles its own expiry.
func (s *Stats) CleanupExpired() int {
	n := s.cache.Sweep()
	s.log.Info("cache cleanup completed", zap.Int("removed", n))
	return n
}
