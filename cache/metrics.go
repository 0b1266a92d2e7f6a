package cache

// Metrics exposes cache-level observability hooks, shaped after
// shardcache's Hit/Miss/Evict/Size interface but renamed to this domain.
type Metrics interface {
	// CacheAccess records an attempt to resolve a cargo through the cache
	// (whether or not it was a hit).
	CacheAccess()
	// CacheHit records a successful TryRead.
	CacheHit()
	// Eviction records a slot being reserved by try_gc's victim selection.
	Eviction(policy string)
	// Occupancy reports, for one group, how many of its slots are
	// non-empty out of the total slot count.
	Occupancy(group int, occupied, total int)
}

// NoopMetrics discards every signal. It is the default when no Metrics is
// supplied to NewGroup.
type NoopMetrics struct{}

func (NoopMetrics) CacheAccess()                        {}
func (NoopMetrics) CacheHit()                            {}
func (NoopMetrics) Eviction(string)                      {}
func (NoopMetrics) Occupancy(group int, occupied, total int) {}
