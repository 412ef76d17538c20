package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics counts read-through cache lookups.
type CacheMetrics struct {
	lookups *prometheus.CounterVec
}

// NewCacheMetrics registers the cache metrics on the provided registerer.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_cache_lookups_total",
		Help: "Cache lookups by cache name and result (hit, miss, error).",
	}, []string{"cache", "result"})
	reg.MustRegister(lookups)
	return &CacheMetrics{lookups: lookups}
}

// Hit records a cache hit.
func (c *CacheMetrics) Hit(cache string) { c.inc(cache, "hit") }

// Miss records a cache miss.
func (c *CacheMetrics) Miss(cache string) { c.inc(cache, "miss") }

// Error records a failed cache operation.
func (c *CacheMetrics) Error(cache string) { c.inc(cache, "error") }

func (c *CacheMetrics) inc(cache, result string) {
	if c == nil || c.lookups == nil {
		return
	}
	c.lookups.WithLabelValues(normalizeLabel(cache), result).Inc()
}
