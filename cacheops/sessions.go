package cacheops

import (
	"context"

	"github.com/quillbill/backend/cache"
	"github.com/quillbill/backend/cachekeys"
)

// Sessions caches session payloads by token with the session TTL class.
type Sessions struct {
	cache *cache.Service
}

// NewSessions returns a Sessions over svc.
func NewSessions(svc *cache.Service) *Sessions {
	return &Sessions{cache: svc}
}

// Get returns the session payload for token, if cached.
func (s *Sessions) Get(ctx context.Context, token string) (map[string]any, bool) {
	return cache.GetJSON[map[string]any](ctx, s.cache, cachekeys.Session(token))
}

// Put stores the session payload for token.
func (s *Sessions) Put(ctx context.Context, token string, data map[string]any) error {
	return s.cache.SetJSON(ctx, cachekeys.Session(token), data, cachekeys.TTLSession)
}

// Delete removes the session payload for token.
func (s *Sessions) Delete(ctx context.Context, token string) {
	s.cache.Del(ctx, cachekeys.Session(token))
}
