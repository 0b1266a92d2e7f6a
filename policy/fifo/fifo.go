// Package fifo implements the FIFO cache-slot eviction policy: the victim
// is the candidate slot with the oldest write stamp. Reads never advance
// the stamp, so repeated hits on a slot do not protect it from eviction.
package fifo

import "github.com/IvanBrykalov/calmapf/policy"

type factory struct{}

// New returns a Factory that constructs per-group FIFO policy instances.
func New() policy.Factory { return factory{} }

func (factory) New(n int) policy.EvictionPolicy {
	return &fifo{stamp: make([]int64, n)}
}

type fifo struct {
	stamp   []int64
	counter int64
}

func (p *fifo) Name() string { return "fifo" }

func (p *fifo) OnWrite(slot int) {
	p.counter++
	p.stamp[slot] = p.counter
}

// OnRead is a no-op: FIFO ignores reads entirely.
func (p *fifo) OnRead(int) {}

func (p *fifo) Select(candidates []int) (int, bool) {
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
