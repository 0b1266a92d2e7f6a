// Package random implements a deterministic random eviction policy: the
// victim is drawn uniformly from the candidate set using a caller-supplied
// PRNG, so runs are reproducible given the same seed (per the
// specification's Non-goal: this package never chooses its own seed).
package random

import (
	"math/rand"

	"github.com/IvanBrykalov/calmapf/policy"
)

type factory struct{ rng *rand.Rand }

// New returns a Factory that constructs per-group random policy instances
// sharing rng. rng must not be nil.
func New(rng *rand.Rand) policy.Factory { return factory{rng: rng} }

func (f factory) New(int) policy.EvictionPolicy { return &random{rng: f.rng} }

type random struct{ rng *rand.Rand }

func (p *random) Name() string { return "random" }

// OnWrite and OnRead are no-ops: random eviction carries no per-slot state.
func (p *random) OnWrite(int) {}
func (p *random) OnRead(int)  {}

func (p *random) Select(candidates []int) (int, bool) {
	if len(candidates) == 0 {
		return 0, false
	}
	return candidates[p.rng.Intn(len(candidates))], true
}
