// Package cache implements the content-addressable cache substrate of the
// cache-aware task-assignment core: a grouped, lock-counter-protected
// associative store that pins cargo identities to physical cache cells.
//
// Design
//
//   - Grouping: the grid is partitioned into independent groups, each
//     owning its own fixed-size slot array (cache.Group). There is no
//     cross-group state.
//
//   - Storage: a Group holds parallel slices indexed by slot — cell,
//     cargo, incoming, remaining, getLock, insertOrClearLock, isEmpty —
//     mirroring the struct-of-arrays layout of the source this system was
//     distilled from, folded per group for locality (compare to the
//     teacher's per-shard map+list bundling in shardcache's shard.go).
//
//   - Concurrency: this is NOT a concurrent data structure. The
//     controller is single-threaded and cooperative; get/insert/clear
//     "locks" are plain integer counters that encode reservation state
//     across ticks, not goroutine-safety primitives. Do not add a
//     sync.Mutex here — see the specification's concurrency model.
//
//   - Eviction: pluggable via policy.EvictionPolicy (LRU/FIFO/random);
//     nil disables eviction (TryGC never selects a victim) while inserts
//     and reads still work. cache_type=NONE is a different case, handled
//     at the instance level by not constructing the cache substrate.
//
//   - Metrics: cache.Metrics receives CacheAccess/CacheHit/Eviction/
//     Occupancy signals. NoopMetrics is the default; metrics/prom adapts
//     them to Prometheus counters/gauges, following shardcache's
//     Hit/Miss/Evict/Size shape.
package cache
