// Package agentstate implements the per-agent status machine that drives
// task assignment: each tick, once the planner reports an agent's
// terminal position, Step consults the cache and the goal stream for that
// agent's group and rewrites the agent's next goal and cache reservations.
package agentstate

import (
	"github.com/IvanBrykalov/calmapf/cache"
	"github.com/IvanBrykalov/calmapf/goalstream"
	"github.com/IvanBrykalov/calmapf/grid"
)

// Status is one of the seven states an agent can be in.
type Status int

const (
	// StatusClearing: going to a cache slot to clear a garbage cargo.
	StatusClearing Status = iota
	// StatusToWarehouse: going to the warehouse to pick up CargoGoal.
	StatusToWarehouse
	// StatusToCacheRead: going to a cache slot to read CargoGoal (hit).
	StatusToCacheRead
	// StatusReturningAfterClear: vacating the cleared slot before heading
	// to the warehouse to fetch CargoGoal.
	StatusReturningAfterClear
	// StatusToCacheInsert: carrying CargoGoal to a reserved cache slot.
	StatusToCacheInsert
	// StatusToPortDirect: carrying CargoGoal straight to the port after
	// the insert attempt at the warehouse failed (no empty slot, or the
	// cargo already cached or being inserted).
	StatusToPortDirect
	// StatusToPortFromCache: carrying CargoGoal from a cache slot to the
	// port, after either an insert or a read completed.
	StatusToPortFromCache
)

func (s Status) String() string {
	switch s {
	case StatusClearing:
		return "clearing"
	case StatusToWarehouse:
		return "to_warehouse"
	case StatusToCacheRead:
		return "to_cache_read"
	case StatusReturningAfterClear:
		return "returning_after_clear"
	case StatusToCacheInsert:
		return "to_cache_insert"
	case StatusToPortDirect:
		return "to_port_direct"
	case StatusToPortFromCache:
		return "to_port_from_cache"
	default:
		return "unknown"
	}
}

// Agent is one vehicle's task-assignment state. Position is written by the
// caller from the planner's terminal configuration before Step is called;
// everything else is owned by this package.
type Agent struct {
	ID    int
	Group int

	Position *grid.Vertex
	Goal     *grid.Vertex

	CargoGoal cache.CargoID // cargo currently being pursued
	Garbage   cache.CargoID // cargo being evicted, valid only in StatusClearing/StatusReturningAfterClear

	Status Status

	CargoCnt    int // sub-steps accumulated on the current leg
	CargoSteps  int // sub-steps the most recently completed delivery took
	RemainGoals int

	CacheAccess int
	CacheHit    int

	// DeliveryCompleted is set by ReserveStep when this tick closed out a
	// delivery (status 5/6 reached branch) that counted against a
	// positive RemainGoals. Callers inspect it right after ReserveStep to
	// fold CargoSteps into an instance-wide percentile history; it is
	// cleared again by the next BeginTick.
	DeliveryCompleted bool
}

// NewAgent constructs an agent in its initial state: status 1, heading to
// the warehouse cell of the first assigned goal.
func NewAgent(id, group int, start *grid.Vertex, firstGoal cache.CargoID, remainGoals int) *Agent {
	return &Agent{
		ID:          id,
		Group:       group,
		Position:    start,
		Goal:        firstGoal,
		CargoGoal:   firstGoal,
		Status:      StatusToWarehouse,
		RemainGoals: remainGoals,
	}
}

// Reached reports whether the agent's current position equals its goal.
func (a *Agent) Reached() bool { return a.Position != nil && a.Goal != nil && a.Position.ID == a.Goal.ID }

// BeginTick folds this tick's sub-step count into the current leg and
// clears the previous tick's DeliveryCompleted flag. Callers run BeginTick
// for every agent before calling either ReleaseStep or ReserveStep for
// any agent, so CargoCnt reflects the whole tick regardless of sweep
// order.
func (a *Agent) BeginTick(subSteps int) {
	a.CargoCnt += subSteps
	a.DeliveryCompleted = false
}

// ReleaseStep commits a reservation this agent already holds once it has
// physically reached the corresponding cell: a garbage clear (status 0), a
// cache read (status 2), or a cache insert (status 4). It is a no-op for
// every other status. Callers must run ReleaseStep for every agent before
// running ReserveStep for any agent, so that a slot freed or filled by one
// agent's release is visible to every agent's reservation attempt this
// tick, regardless of agent order — matching the specification's
// read-release-before-any-new-reservation ordering guarantee.
func (a *Agent) ReleaseStep(c *cache.Group, port *grid.Vertex) {
	if !a.Reached() {
		return
	}
	switch a.Status {
	case StatusClearing:
		c.CommitClear(a.Garbage, a.Goal)
		a.Status = StatusReturningAfterClear
		// The agent first vacates the cleared slot, heading next to
		// the warehouse cell that the evicted cargo identity names.
		a.Goal = a.Garbage

	case StatusToCacheRead:
		c.CommitRead(a.CargoGoal, a.Goal)
		a.Status = StatusToPortFromCache
		a.Goal = port

	case StatusToCacheInsert:
		c.CommitInsert(a.CargoGoal, a.Goal)
		a.Status = StatusToPortFromCache
		a.Goal = port
	}
}

// ReserveStep attempts a new cache reservation or advances a leg with no
// cache interaction: status 1 (read ahead / insert at the warehouse),
// status 3 (returning after a clear), status 5 (direct to port, with the
// opportunistic mid-route insert), and status 6 (from cache to port). It
// is a no-op for every other status. See ReleaseStep for the ordering
// guarantee between the two.
func (a *Agent) ReserveStep(lookAhead, delayDeadline int, optimization bool, c *cache.Group, stream *goalstream.Stream, port *grid.Vertex) {
	reached := a.Reached()

	switch a.Status {
	case StatusToWarehouse:
		if reached {
			ins := c.TryInsert(a.CargoGoal, port)
			if ins.OK {
				a.Status = StatusToCacheInsert
			} else {
				a.Status = StatusToPortDirect
			}
			a.Goal = ins.Goal
		} else {
			read := c.TryRead(a.CargoGoal)
			if read.Hit {
				a.CacheAccess++
				a.CacheHit++
				a.Status = StatusToCacheRead
				a.Goal = read.Goal
			}
		}

	case StatusReturningAfterClear:
		if reached {
			a.Status = StatusToWarehouse
			a.Goal = a.CargoGoal
		}

	case StatusToPortDirect:
		if reached {
			a.completeDelivery(lookAhead, delayDeadline, c, stream, port)
		} else if optimization {
			ins := c.TryInsert(a.CargoGoal, port)
			if ins.OK {
				a.Status = StatusToCacheInsert
				a.Goal = ins.Goal
			}
		}

	case StatusToPortFromCache:
		if reached {
			a.completeDelivery(lookAhead, delayDeadline, c, stream, port)
		}
	}
}

// Step advances a by one tick's worth of transitions: BeginTick followed
// by ReleaseStep then ReserveStep for this single agent. It is a
// convenience for single-agent call sites (tests, small examples); a
// caller driving a whole population must instead run BeginTick then
// ReleaseStep for every agent, and only then ReserveStep for every agent,
// via Instance.Tick — never this method — so that releases and
// reservations are properly swept across the whole population (see
// ReleaseStep).
func (a *Agent) Step(subSteps int, lookAhead, delayDeadline int, optimization bool, c *cache.Group, stream *goalstream.Stream, port *grid.Vertex) {
	a.BeginTick(subSteps)
	a.ReleaseStep(c, port)
	a.ReserveStep(lookAhead, delayDeadline, optimization, c, stream, port)
}

// completeDelivery runs the shared status-5/6 "reached" branch: the
// delivery is recorded, the next goal is drawn, and the agent is routed
// to a cache read, a cache clear, or the warehouse depending on what the
// cache has to offer.
func (a *Agent) completeDelivery(lookAhead, delayDeadline int, c *cache.Group, stream *goalstream.Stream, port *grid.Vertex) {
	a.CargoSteps = a.CargoCnt
	a.CargoCnt = 0
	if a.RemainGoals > 0 {
		a.RemainGoals--
		a.DeliveryCompleted = true
	}

	a.CargoGoal = stream.NextGoal(lookAhead, delayDeadline, c)

	read := c.TryRead(a.CargoGoal)
	a.CacheAccess++
	if read.Hit {
		a.CacheHit++
		a.Status = StatusToCacheRead
		a.Goal = read.Goal
		return
	}

	gc := c.TryGC(a.CargoGoal)
	if gc.OK {
		a.Status = StatusClearing
		a.Garbage = gc.Garbage
		a.Goal = gc.Goal
		return
	}

	a.Status = StatusToWarehouse
	a.Goal = a.CargoGoal
}
