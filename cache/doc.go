// Package cache implements the read-through cache layer that fronts every
// data-read endpoint of the invoicing backend.
//
// # Backends
//
// Two [Store] implementations are provided:
//
//   - [RedisStore] — the primary, shared backend. Keys are namespaced with a
//     uniform prefix so multiple logical applications can share one Redis
//     instance. Every operation runs with a per-query timeout derived from
//     the caller's context and is guarded by a circuit breaker.
//
//   - [MemoryStore] — the in-process fallback used when Redis is unreachable.
//     Entries expire lazily on read and are compacted by a background sweep
//     goroutine. The fallback is scoped to a single process: in a
//     multi-instance deployment it does not provide a coherent view, and an
//     invalidation issued on one instance will not affect another instance's
//     fallback cache. Entries remain bounded by their TTL either way.
//
// # Service
//
// [Service] unifies the two stores. Every primitive (Get, Set, Del, Exists,
// Keys) attempts Redis first and transparently retries against the memory
// store when the remote call fails, so callers never observe a transport
// error. The remote attempt happens per call; once the circuit breaker trips
// during an outage, calls fail fast to the fallback without paying the dial
// timeout, and the breaker's half-open probes pick Redis back up when it
// recovers.
//
// # Read-through
//
// [Through] is the generic read-through helper: it returns the cached value
// for a key or invokes the supplied loader, stores the result, and returns
// it. Loader errors propagate unchanged and are never cached. Concurrent
// misses on the same key are collapsed into a single loader invocation via
// singleflight.
//
// Values are serialized as JSON. A stored entry that fails to decode is
// treated as a cache miss, not an error.
package cache
