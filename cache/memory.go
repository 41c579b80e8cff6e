package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(now)
}

// MemoryStore is the in-process fallback store. Reads check expiry and
// delete entries observed to be expired; a background goroutine sweeps the
// rest at a configurable interval. All read-modify-write sequences hold the
// mutex, including the expire-on-read delete.
type MemoryStore struct {
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
	items  map[string]memoryEntry
	wg     sync.WaitGroup
	once   sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemory returns a MemoryStore whose sweep goroutine runs every sweep
// interval until Close is called or parent is cancelled. A sweep <= 0
// defaults to one minute.
func NewMemory(parent context.Context, sweep time.Duration) *MemoryStore {
	if sweep <= 0 {
		sweep = time.Minute
	}
	ctx, cancel := context.WithCancel(parent)
	s := &MemoryStore{
		ctx:    ctx,
		cancel: cancel,
		items:  make(map[string]memoryEntry),
	}
	s.wg.Add(1)
	go s.run(sweep)
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return "", false, nil
	}
	if e.expired(time.Now()) {
		delete(s.items, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.items[key] = memoryEntry{value: value, expiresAt: expiresAt}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.items, key)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return false, nil
	}
	if e.expired(time.Now()) {
		delete(s.items, key)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Keys(_ context.Context, pattern string) ([]string, error) {
	re, err := CompilePattern(pattern)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key, e := range s.items {
		if e.expired(now) {
			delete(s.items, key)
			continue
		}
		if re.MatchString(key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// Sweep removes all expired entries immediately and returns how many were
// deleted. Used by the cleanup management action; Redis expires natively.
func (s *MemoryStore) Sweep() int {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for key, e := range s.items {
		if e.expired(now) {
			delete(s.items, key)
			n++
		}
	}
	return n
}

// Len returns the number of entries currently held, including any expired
// entries the sweeper has not visited yet.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Close stops the sweep goroutine. Safe to call more than once.
func (s *MemoryStore) Close() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

func (s *MemoryStore) run(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
