package cache

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the cache counters. Each Service owns its own registry so
// tests can construct services freely without duplicate registration.
type Metrics struct {
	registry *prometheus.Registry

	Hits          prometheus.Counter
	Misses        prometheus.Counter
	Fallbacks     prometheus.Counter
	Errors        prometheus.Counter
	Invalidations prometheus.Counter
}

// NewMetrics creates and registers the cache counters under namespace.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		})
		registry.MustRegister(c)
		return c
	}
	return &Metrics{
		registry:      registry,
		Hits:          counter("cache_hits_total", "Cache reads that returned a live entry"),
		Misses:        counter("cache_misses_total", "Cache reads that found no live entry"),
		Fallbacks:     counter("cache_fallbacks_total", "Operations retried against the in-process store after a Redis failure"),
		Errors:        counter("cache_errors_total", "Malformed cached payloads discarded as misses"),
		Invalidations: counter("cache_invalidations_total", "Keys deleted by pattern invalidation"),
	}
}

// Registry returns the underlying registry for exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
