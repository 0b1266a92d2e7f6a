package cache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/calmapf/cache"
	"github.com/IvanBrykalov/calmapf/grid"
	"github.com/IvanBrykalov/calmapf/policy/fifo"
	"github.com/IvanBrykalov/calmapf/policy/lru"
)

func cell(id int) *grid.Vertex {
	return &grid.Vertex{ID: id, Index: id, Width: 10, IsCargo: true}
}

func TestGroup_InsertReadRoundTrip(t *testing.T) {
	cells := []*grid.Vertex{cell(0), cell(1)}
	g := cache.NewGroup(0, cells, 2, lru.New(), cache.NoopMetrics{})
	cargo := cell(100)
	port := cell(200)

	ins := g.TryInsert(cargo, port)
	require.True(t, ins.OK)
	g.CommitInsert(cargo, ins.Goal)

	require.True(t, g.LookAheadHit(cargo))

	read := g.TryRead(cargo)
	require.True(t, read.Hit)
	require.Equal(t, ins.Goal, read.Goal)
	g.CommitRead(cargo, read.Goal)
}

func TestGroup_NoDuplicateInsertion(t *testing.T) {
	cells := []*grid.Vertex{cell(0), cell(1)}
	g := cache.NewGroup(0, cells, 2, lru.New(), cache.NoopMetrics{})
	cargo := cell(100)
	port := cell(200)

	first := g.TryInsert(cargo, port)
	require.True(t, first.OK)
	g.CommitInsert(cargo, first.Goal)

	// Cargo is already cached: a second insert attempt must not reserve
	// a fresh slot, even though one is still empty.
	second := g.TryInsert(cargo, port)
	require.False(t, second.OK)
	require.Equal(t, port, second.Goal)
}

func TestGroup_LRUEvictsLeastRecentlyUsed(t *testing.T) {
	cells := []*grid.Vertex{cell(0), cell(1)}
	g := cache.NewGroup(0, cells, 1, lru.New(), cache.NoopMetrics{})
	port := cell(200)
	a, b := cell(10), cell(11)

	insA := g.TryInsert(a, port)
	require.True(t, insA.OK)
	g.CommitInsert(a, insA.Goal)

	insB := g.TryInsert(b, port)
	require.True(t, insB.OK)
	g.CommitInsert(b, insB.Goal)

	// Both slots are now occupied with single-copy cargo and no
	// deliverable remaining. A third insert must fall back to GC.
	c := cell(12)
	third := g.TryInsert(c, port)
	require.False(t, third.OK)

	gc := g.TryGC(c)
	require.True(t, gc.OK)
	require.Equal(t, cache.CargoID(a), gc.Garbage, "LRU must evict a before b since a was written first and never re-read")
	g.CommitClear(gc.Garbage, gc.Goal)
}

func TestGroup_FIFOIgnoresReads(t *testing.T) {
	cells := []*grid.Vertex{cell(0), cell(1)}
	g := cache.NewGroup(0, cells, 5, fifo.New(), cache.NoopMetrics{})
	port := cell(200)
	a, b := cell(10), cell(11)

	insA := g.TryInsert(a, port)
	require.True(t, insA.OK)
	g.CommitInsert(a, insA.Goal)

	insB := g.TryInsert(b, port)
	require.True(t, insB.OK)
	g.CommitInsert(b, insB.Goal)

	// Repeatedly reading a must not protect it from FIFO eviction.
	for i := 0; i < 3; i++ {
		read := g.TryRead(a)
		require.True(t, read.Hit)
		g.CommitRead(a, read.Goal)
	}

	c := cell(12)
	require.False(t, g.TryInsert(c, port).OK)
	gc := g.TryGC(c)
	require.True(t, gc.OK)
	require.Equal(t, cache.CargoID(a), gc.Garbage, "FIFO must still evict a first despite the intervening reads")
}

func TestGroup_InsertLocksBlockLookAhead(t *testing.T) {
	cells := []*grid.Vertex{cell(0)}
	g := cache.NewGroup(0, cells, 2, lru.New(), cache.NoopMetrics{})
	cargo := cell(100)
	port := cell(200)

	ins := g.TryInsert(cargo, port)
	require.True(t, ins.OK)

	// Not yet committed: the cargo is reserved, not yet visible as a hit.
	require.False(t, g.LookAheadHit(cargo))

	g.CommitInsert(cargo, ins.Goal)
	require.True(t, g.LookAheadHit(cargo))
}

func TestGroup_CommitPreconditionPanics(t *testing.T) {
	cells := []*grid.Vertex{cell(0)}
	g := cache.NewGroup(0, cells, 2, lru.New(), cache.NoopMetrics{})
	cargo := cell(100)

	require.Panics(t, func() {
		g.CommitInsert(cargo, cells[0])
	}, "committing an insert with no matching reservation must panic")
}
