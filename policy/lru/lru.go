// Package lru implements the LRU cache-slot eviction policy: the victim is
// the candidate slot with the smallest freshness stamp, and the stamp
// advances on both reads and writes.
package lru

import "github.com/IvanBrykalov/calmapf/policy"

type factory struct{}

// New returns a Factory that constructs per-group LRU policy instances.
func New() policy.Factory { return factory{} }

func (factory) New(n int) policy.EvictionPolicy {
	return &lru{stamp: make([]int64, n)}
}

type lru struct {
	stamp   []int64
	counter int64
}

func (p *lru) Name() string { return "lru" }

func (p *lru) OnWrite(slot int) {
	p.counter++
	p.stamp[slot] = p.counter
}

func (p *lru) OnRead(slot int) {
	p.counter++
	p.stamp[slot] = p.counter
}

func (p *lru) Select(candidates []int) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if p.stamp[c] < p.stamp[best] {
			best = c
		}
	}
	return best, true
}
