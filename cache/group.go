package cache

import (
	"fmt"

	"github.com/IvanBrykalov/calmapf/grid"
	"github.com/IvanBrykalov/calmapf/policy"
)

// CargoID identifies a deliverable cargo. In this system a cargo's
// identity and its warehouse pickup location are the same vertex, so
// CargoID is simply a *grid.Vertex — matching the original controller,
// which passes one Vertex* interchangeably as both.
type CargoID = *grid.Vertex

// ReadResult is the outcome of TryRead.
type ReadResult struct {
	Hit  bool
	Goal *grid.Vertex // cache cell on hit, the cargo's warehouse cell on miss
}

// InsertResult is the outcome of TryInsert.
type InsertResult struct {
	OK   bool
	Goal *grid.Vertex // reserved cache cell on success, fallback port otherwise
}

// GCResult is the outcome of TryGC.
type GCResult struct {
	OK      bool
	Goal    *grid.Vertex // reserved cache cell on success
	Garbage CargoID      // cargo evicted from that cell, valid only if OK
}

// Group is the per-group cache: a fixed-size array of physical cache
// cells with the parallel bookkeeping slices described in the data
// model. All operations run under the single-threaded planner tick; there
// is no internal mutex (see package doc).
type Group struct {
	index int // group id, for metrics labelling

	cells             []*grid.Vertex
	cargo             []CargoID
	incoming          []CargoID
	remaining         []int
	getLock           []int
	insertOrClearLock []int
	isEmpty           []bool

	agentCapacity int
	policy        policy.EvictionPolicy // nil disables eviction only
	metrics       Metrics
}

// NewGroup constructs a cache group over cells, one slot per cell.
// agentCapacity is the number of deliverable copies an insert seeds a slot
// with (remaining = agentCapacity-1 after the inserting agent itself
// consumes one delivery by continuing to the port). factory may be nil to
// disable eviction; metrics may be nil (defaults to NoopMetrics).
func NewGroup(groupIdx int, cells []*grid.Vertex, agentCapacity int, factory policy.Factory, metrics Metrics) *Group {
	if agentCapacity < 1 {
		panic("cache: agentCapacity must be >= 1")
	}
	n := len(cells)
	g := &Group{
		index:             groupIdx,
		cells:             append([]*grid.Vertex(nil), cells...),
		cargo:             make([]CargoID, n),
		incoming:          make([]CargoID, n),
		remaining:         make([]int, n),
		getLock:           make([]int, n),
		insertOrClearLock: make([]int, n),
		isEmpty:           make([]bool, n),
		agentCapacity:     agentCapacity,
		metrics:           metrics,
	}
	for i := range g.isEmpty {
		g.isEmpty[i] = true
	}
	if factory != nil {
		g.policy = factory.New(n)
	}
	if g.metrics == nil {
		g.metrics = NoopMetrics{}
	}
	return g
}

// Len returns the number of physical cache slots in the group.
func (g *Group) Len() int { return len(g.cells) }

func (g *Group) indexOfCargo(cargo CargoID) (int, bool) {
	for i, c := range g.cargo {
		if c == cargo && g.remaining[i] > 0 {
			return i, true
		}
	}
	return -1, false
}

func (g *Group) indexOfIncoming(cargo CargoID) (int, bool) {
	for i, c := range g.incoming {
		if c == cargo {
			return i, true
		}
	}
	return -1, false
}

func (g *Group) indexOfCell(cell *grid.Vertex) int {
	for i, c := range g.cells {
		if c == cell {
			return i
		}
	}
	panic(fmt.Sprintf("cache: cell %v is not part of group %d", cell, g.index))
}

// LookAheadHit is a pure read with no side effects: true iff some slot
// holds cargo with at least one deliverable copy and is not currently
// reserved for an insert or a garbage-clear. Used by the goal stream's
// look-ahead reorder; takes no locks.
func (g *Group) LookAheadHit(cargo CargoID) bool {
	i, ok := g.indexOfCargo(cargo)
	if !ok {
		return false
	}
	return g.insertOrClearLock[i] == 0
}

// TryRead attempts to serve cargo from the cache. On hit it reserves a
// read (increments getLock), advances the eviction policy's read hook,
// and decrements the slot's remaining-delivery count.
func (g *Group) TryRead(cargo CargoID) ReadResult {
	g.metrics.CacheAccess()
	i, ok := g.indexOfCargo(cargo)
	if !ok || g.insertOrClearLock[i] != 0 {
		return ReadResult{Hit: false, Goal: cargo}
	}
	g.getLock[i]++
	if g.policy != nil {
		g.policy.OnRead(i)
	}
	g.remaining[i]--
	g.metrics.CacheHit()
	return ReadResult{Hit: true, Goal: g.cells[i]}
}

// TryInsert reserves an empty slot for cargo carried back from the
// warehouse. Fails (no mutation) if cargo is already cached or already
// reserved by another in-flight inserter, or if no slot is empty —
// eviction is a separate step (TryGC), never attempted here.
func (g *Group) TryInsert(cargo CargoID, fallbackPort *grid.Vertex) InsertResult {
	if _, cached := g.indexOfCargo(cargo); cached {
		return InsertResult{OK: false, Goal: fallbackPort}
	}
	if _, coming := g.indexOfIncoming(cargo); coming {
		return InsertResult{OK: false, Goal: fallbackPort}
	}
	for i, empty := range g.isEmpty {
		if !empty {
			continue
		}
		g.insertOrClearLock[i] = 1
		g.incoming[i] = cargo
		if g.policy != nil {
			g.policy.OnWrite(i)
		}
		g.isEmpty[i] = false
		return InsertResult{OK: true, Goal: g.cells[i]}
	}
	return InsertResult{OK: false, Goal: fallbackPort}
}

// TryGC is called when TryInsert failed because the group is saturated
// (no empty slot). It selects a victim via the active eviction policy
// among unlocked, unread slots and reserves it for clearing.
func (g *Group) TryGC(cargo CargoID) GCResult {
	for _, empty := range g.isEmpty {
		if empty {
			// An empty slot exists: the caller should have inserted
			// directly instead of reaching for garbage collection.
			return GCResult{OK: false, Goal: cargo}
		}
	}
	if g.policy == nil {
		return GCResult{OK: false, Goal: cargo}
	}
	candidates := make([]int, 0, len(g.cells))
	for i := range g.cells {
		if g.insertOrClearLock[i] == 0 && g.getLock[i] == 0 {
			candidates = append(candidates, i)
		}
	}
	victim, ok := g.policy.Select(candidates)
	if !ok {
		return GCResult{OK: false, Goal: cargo}
	}
	g.insertOrClearLock[victim] = 1
	g.metrics.Eviction(g.policy.Name())
	return GCResult{OK: true, Goal: g.cells[victim], Garbage: g.cargo[victim]}
}

// CommitInsert finalizes a reservation made by TryInsert once the
// carrying agent physically reaches cell. Preconditions (fatal if
// violated, per the specification's InvariantViolation class): cell
// holds an incoming reservation for cargo, and cargo is not already
// cached elsewhere.
func (g *Group) CommitInsert(cargo CargoID, cell *grid.Vertex) {
	i := g.indexOfCell(cell)
	if g.incoming[i] != cargo {
		panic(fmt.Sprintf("cache: CommitInsert precondition violated: slot %d has no incoming reservation for %v", i, cargo))
	}
	if _, cached := g.indexOfCargo(cargo); cached {
		panic(fmt.Sprintf("cache: CommitInsert precondition violated: %v is already cached", cargo))
	}
	g.cargo[i] = cargo
	g.remaining[i] = g.agentCapacity - 1
	g.incoming[i] = nil
	g.insertOrClearLock[i] = 0
	g.isEmpty[i] = false
	g.reportOccupancy()
}

// CommitRead finalizes a reservation made by TryRead once the reading
// agent physically reaches cell. Releases the read lock; if the slot is
// now both unlocked and out of deliverable copies, marks it empty.
func (g *Group) CommitRead(cargo CargoID, cell *grid.Vertex) {
	i := g.indexOfCell(cell)
	if g.cargo[i] != cargo {
		panic(fmt.Sprintf("cache: CommitRead precondition violated: slot %d holds %v, not %v", i, g.cargo[i], cargo))
	}
	if g.getLock[i] == 0 {
		panic(fmt.Sprintf("cache: CommitRead precondition violated: slot %d has no outstanding read lock", i))
	}
	g.getLock[i]--
	if g.getLock[i] == 0 && g.remaining[i] == 0 {
		g.isEmpty[i] = true
		g.reportOccupancy()
	}
}

// CommitClear finalizes a reservation made by TryGC once the clearing
// agent physically reaches cell. Releases the insert/clear lock and
// marks the slot empty.
func (g *Group) CommitClear(garbage CargoID, cell *grid.Vertex) {
	i := g.indexOfCell(cell)
	if g.insertOrClearLock[i] != 1 {
		panic(fmt.Sprintf("cache: CommitClear precondition violated: slot %d is not reserved for clearing", i))
	}
	g.insertOrClearLock[i] = 0
	g.isEmpty[i] = true
	g.remaining[i] = 0
	g.cargo[i] = nil
	g.reportOccupancy()
}

func (g *Group) reportOccupancy() {
	occupied := 0
	for _, empty := range g.isEmpty {
		if !empty {
			occupied++
		}
	}
	g.metrics.Occupancy(g.index, occupied, len(g.cells))
}
