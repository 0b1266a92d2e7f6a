// Package instance bundles the warehouse graph, the per-group cache and
// goal stream, and the per-agent state into the single object the
// controller drives one planner tick at a time.
package instance

import (
	"math/rand"
	"sort"

	"github.com/IvanBrykalov/calmapf/agentstate"
	"github.com/IvanBrykalov/calmapf/cache"
	"github.com/IvanBrykalov/calmapf/goalstream"
	"github.com/IvanBrykalov/calmapf/grid"
)

// Instance is the cache-aware task-assignment core for one run: the
// graph, one cache group and one goal stream per grid group, and the
// live agent population.
type Instance struct {
	Graph *grid.Graph

	// Caches is indexed by group; a nil slice means the cache substrate
	// is disabled (cache_type=NONE), and every agent is driven by
	// stepWithoutCache instead. A nil entry inside a non-nil slice is not
	// supported: the cache is either on for every group or off for all.
	Caches  []*cache.Group
	Streams []*goalstream.Stream
	Ports   []*grid.Vertex

	Agents []*agentstate.Agent

	LookAhead     int
	DelayDeadline int
	Optimization  bool

	// cargoStepHistory accumulates the sub-step count of every completed
	// delivery across every agent, for Percentiles.
	cargoStepHistory []int

	CacheAccess uint64
	CacheHit    uint64
}

// AssignAgentGroup computes group[a] = a / (numAgents/numGroups), the
// equal-share partition of agents across groups.
func AssignAgentGroup(numAgents, numGroups int) []int {
	if numGroups <= 0 || numAgents%numGroups != 0 {
		panic("instance: num_agents must be a positive multiple of the group count")
	}
	perGroup := numAgents / numGroups
	groups := make([]int, numAgents)
	for i := range groups {
		groups[i] = i / perGroup
	}
	return groups
}

// IsPort reports whether v is one of the instance's unloading ports.
func (inst *Instance) IsPort(v *grid.Vertex) bool {
	for _, p := range inst.Ports {
		if p == v {
			return true
		}
	}
	return false
}

// noCacheLookAhead is the look-ahead window used for goal draws when the
// cache substrate is disabled: a plain FIFO pop with no reordering,
// matching the original controller's no-cache call site, which relies on
// the header-declared default look_ahead=1 rather than the configured
// window (reordering only ever makes sense relative to cache hits).
const noCacheLookAhead = 1

// Tick advances every agent by one planner step. positions holds each
// agent's terminal physical position from the just-completed planner
// trajectory (index-aligned with inst.Agents); subSteps is the number of
// sub-steps that trajectory advanced. It returns the number of agents
// that completed a delivery this tick.
//
// When the cache substrate is enabled, every agent's release event
// (a committed clear/read/insert) is processed before any agent's
// reservation event (a new read/insert/GC attempt) is attempted, per the
// specification's ordering guarantee: a slot one agent frees or fills
// this tick must be visible to every agent's reservation this tick,
// regardless of agent order. stepWithoutCache has no such cross-agent
// cache state to order, so it runs in a single pass.
func (inst *Instance) Tick(positions []*grid.Vertex, subSteps int) int {
	for i, a := range inst.Agents {
		a.Position = positions[i]
	}

	if inst.Caches == nil {
		reachedCount := 0
		for _, a := range inst.Agents {
			inst.stepWithoutCache(a, subSteps)
			if a.DeliveryCompleted {
				reachedCount++
			}
		}
		return reachedCount
	}

	for _, a := range inst.Agents {
		a.BeginTick(subSteps)
	}

	// Release sweep: every commit this tick lands before any reservation
	// below is attempted.
	for _, a := range inst.Agents {
		a.ReleaseStep(inst.Caches[a.Group], inst.Ports[a.Group])
	}

	// Reservation sweep.
	reachedCount := 0
	for _, a := range inst.Agents {
		c := inst.Caches[a.Group]
		stream := inst.Streams[a.Group]
		port := inst.Ports[a.Group]

		accessBefore, hitBefore := a.CacheAccess, a.CacheHit
		a.ReserveStep(inst.LookAhead, inst.DelayDeadline, inst.Optimization, c, stream, port)
		inst.CacheAccess += uint64(a.CacheAccess - accessBefore)
		inst.CacheHit += uint64(a.CacheHit - hitBefore)

		if a.DeliveryCompleted {
			reachedCount++
			inst.cargoStepHistory = append(inst.cargoStepHistory, a.CargoSteps)
		}
	}
	return reachedCount
}

// stepWithoutCache implements the degraded tick processor used when the
// cache substrate is disabled entirely: reaching a port draws a fresh
// goal (used as both Goal and CargoGoal); reaching a cargo cell routes
// the agent to its group's port.
func (inst *Instance) stepWithoutCache(a *agentstate.Agent, subSteps int) {
	a.BeginTick(subSteps)
	if !a.Reached() {
		return
	}
	if inst.IsPort(a.Goal) {
		if a.RemainGoals > 0 {
			a.RemainGoals--
			a.DeliveryCompleted = true
			inst.cargoStepHistory = append(inst.cargoStepHistory, a.CargoCnt)
		}
		a.CargoCnt = 0
		next := inst.Streams[a.Group].NextGoal(noCacheLookAhead, inst.DelayDeadline, nil)
		a.Goal = next
		a.CargoGoal = next
	} else {
		a.Goal = inst.Ports[a.Group]
	}
}

// CacheHitRate is CacheHit/CacheAccess over the life of the instance, or
// 0 if no access has happened yet.
func (inst *Instance) CacheHitRate() float64 {
	if inst.CacheAccess == 0 {
		return 0
	}
	return float64(inst.CacheHit) / float64(inst.CacheAccess)
}

// Percentiles returns the {0,25,50,75,90,95,99,100}th percentiles of
// every completed delivery's sub-step count, in that order. Each
// percentile index is floor(p*n/100) into the ascending-sorted history,
// clamped to the last valid index (the original computation indexes one
// past the end at p=100; this implementation clamps rather than
// reproducing that out-of-bounds read).
func (inst *Instance) Percentiles() []int {
	n := len(inst.cargoStepHistory)
	if n == 0 {
		return make([]int, 8)
	}
	sorted := append([]int(nil), inst.cargoStepHistory...)
	sort.Ints(sorted)

	ps := []float64{0, 25, 50, 75, 90, 95, 99, 100}
	out := make([]int, len(ps))
	for i, p := range ps {
		idx := int(p * float64(n) / 100.0)
		if idx >= n {
			idx = n - 1
		}
		out[i] = sorted[idx]
	}
	return out
}

// RandomStart returns a random permutation of the graph's vertices,
// truncated to numAgents, used to seed each agent's starting position.
func RandomStart(g *grid.Graph, numAgents int, rng *rand.Rand) []*grid.Vertex {
	idx := rng.Perm(g.Size())
	if numAgents > len(idx) {
		panic("instance: num_agents exceeds the number of vertices in the graph")
	}
	starts := make([]*grid.Vertex, numAgents)
	for i := 0; i < numAgents; i++ {
		starts[i] = g.V[idx[i]]
	}
	return starts
}
