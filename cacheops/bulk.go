package cacheops

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/quillbill/backend/cache"
	"github.com/quillbill/backend/cachekeys"
)

// Loader produces a user's cacheable payload from the system of record.
// The cache treats the payload as opaque; it only needs to serialize as
// JSON.
type Loader func(ctx context.Context, userID string) (any, error)

// Bulk implements the operator-facing bulk operations: pre-warming a user's
// hot keys and clearing a user's cache wholesale.
type Bulk struct {
	cache     *cache.Service
	inv       *Invalidator
	log       *zap.Logger
	dashboard Loader
	settings  Loader
}

// NewBulk returns a Bulk. The dashboard and settings loaders back the
// pre-warm path; either may be nil, in which case that entry is skipped.
func NewBulk(svc *cache.Service, inv *Invalidator, log *zap.Logger, dashboard, settings Loader) *Bulk {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bulk{cache: svc, inv: inv, log: log, dashboard: dashboard, settings: settings}
}

// PreWarmUser populates the dashboard and settings entries for a user
// through the same read-through path as a normal request, typically after
// login or on a schedule. Loader failures are logged and never returned:
// pre-warming is best effort and must not fail its caller.
func (b *Bulk) PreWarmUser(ctx context.Context, userID string) {
	b.warm(ctx, userID, cachekeys.Dashboard(userID), cachekeys.TTLMedium, b.dashboard)
	b.warm(ctx, userID, cachekeys.Settings(userID), cachekeys.TTLLong, b.settings)
	b.log.Info("cache pre-warmed", zap.String("user", userID))
}

func (b *Bulk) warm(ctx context.Context, userID, key string, ttl time.Duration, load Loader) {
	if load == nil {
		return
	}
	if _, err := cache.Through(ctx, b.cache, key, ttl, func(ctx context.Context) (any, error) {
		return load(ctx, userID)
	}); err != nil {
		b.log.Error("cache pre-warm failed", zap.String("key", key), zap.Error(err))
	}
}

// ClearUser removes every cache entry belonging to userID. This is the
// explicit operator action equivalent of Invalidator.User.
func (b *Bulk) ClearUser(ctx context.Context, userID string) {
	b.inv.User(ctx, userID)
}
