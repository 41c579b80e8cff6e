// Package cacheops provides the operations layered on top of the cache
// service: post-mutation invalidation, stats, sessions, and the bulk
// pre-warm / clear operations exposed to the control plane.
package cacheops

import (
	"context"

	"go.uber.org/zap"

	"github.com/quillbill/backend/cache"
	"github.com/quillbill/backend/cachekeys"
)

// Invalidator removes exactly the key families affected by an entity
// mutation. It is called synchronously after the mutation has been durably
// committed and never reports failure back to the caller: the mutation is
// not rolled back for a cache problem, and a stale entry is bounded by its
// TTL class anyway.
type Invalidator struct {
	cache *cache.Service
	log   *zap.Logger

	// onInvalidate, when set, observes every pattern clear. It exists so a
	// retry queue or outbox can be layered on later without changing this
	// contract.
	onInvalidate func(pattern string, deleted int)
}

// NewInvalidator returns an Invalidator over svc.
func NewInvalidator(svc *cache.Service, log *zap.Logger) *Invalidator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Invalidator{cache: svc, log: log}
}

// OnInvalidate registers a hook observing every pattern clear.
func (inv *Invalidator) OnInvalidate(fn func(pattern string, deleted int)) {
	inv.onInvalidate = fn
}

func (inv *Invalidator) clear(ctx context.Context, pattern string) {
	deleted := inv.cache.ClearPattern(ctx, pattern)
	if inv.onInvalidate != nil {
		inv.onInvalidate(pattern, deleted)
	}
}

// Clients invalidates the client listings for userID, the single client
// entry when clientID is non-empty, and the dashboard, which surfaces
// client counts.
func (inv *Invalidator) Clients(ctx context.Context, userID, clientID string) {
	inv.clear(ctx, cachekeys.FamilyPattern("clients", userID))
	if clientID != "" {
		inv.cache.Del(ctx, cachekeys.Client(userID, clientID))
	}
	inv.cache.Del(ctx, cachekeys.Dashboard(userID))
}

// Products invalidates the product listings for userID, the single product
// entry when productID is non-empty, and the dashboard.
func (inv *Invalidator) Products(ctx context.Context, userID, productID string) {
	inv.clear(ctx, cachekeys.FamilyPattern("products", userID))
	if productID != "" {
		inv.cache.Del(ctx, cachekeys.Product(userID, productID))
	}
	inv.cache.Del(ctx, cachekeys.Dashboard(userID))
}

// Invoices invalidates the invoice listings for userID, the single invoice
// entry when invoiceID is non-empty, and always the dashboard: invoices
// feed its revenue and status aggregates.
func (inv *Invalidator) Invoices(ctx context.Context, userID, invoiceID string) {
	inv.clear(ctx, cachekeys.FamilyPattern("invoices", userID))
	if invoiceID != "" {
		inv.cache.Del(ctx, cachekeys.Invoice(userID, invoiceID))
	}
	inv.cache.Del(ctx, cachekeys.Dashboard(userID))
}

// Settings deletes the owner's settings entry.
func (inv *Invalidator) Settings(ctx context.Context, userID string) {
	inv.cache.Del(ctx, cachekeys.Settings(userID))
}

// Dashboard deletes the owner's dashboard entry, for dashboard-only
// recomputation.
func (inv *Invalidator) Dashboard(ctx context.Context, userID string) {
	inv.cache.Del(ctx, cachekeys.Dashboard(userID))
}

// Session deletes a session payload.
func (inv *Invalidator) Session(ctx context.Context, token string) {
	inv.cache.Del(ctx, cachekeys.Session(token))
}

// User is the broadest reset: every qualified key for the owner plus the
// user, dashboard, and settings singletons.
func (inv *Invalidator) User(ctx context.Context, userID string) {
	inv.clear(ctx, cachekeys.UserPattern(userID))
	inv.cache.Del(ctx,
		cachekeys.User(userID),
		cachekeys.Dashboard(userID),
		cachekeys.Settings(userID))
	inv.log.Info("user cache cleared", zap.String("user", userID))
}
