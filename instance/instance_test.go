package instance_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/calmapf/agentstate"
	"github.com/IvanBrykalov/calmapf/cache"
	"github.com/IvanBrykalov/calmapf/goalstream"
	"github.com/IvanBrykalov/calmapf/grid"
	"github.com/IvanBrykalov/calmapf/instance"
	"github.com/IvanBrykalov/calmapf/policy/lru"
)

func TestAssignAgentGroup_EqualShares(t *testing.T) {
	groups := instance.AssignAgentGroup(6, 2)
	require.Equal(t, []int{0, 0, 0, 1, 1, 1}, groups)
}

func TestAssignAgentGroup_RejectsUnevenSplit(t *testing.T) {
	require.Panics(t, func() { instance.AssignAgentGroup(5, 2) })
}

func TestInstance_TickDeliversAndRecordsPercentiles(t *testing.T) {
	warehouseA := &grid.Vertex{ID: 1, Index: 1, Width: 10, IsCargo: true}
	cacheCellX := &grid.Vertex{ID: 2, Index: 2, Width: 10, IsCargo: true}
	port := &grid.Vertex{ID: 3, Index: 3, Width: 10}

	c := cache.NewGroup(0, []*grid.Vertex{cacheCellX}, 2, lru.New(), cache.NoopMetrics{})
	stream := goalstream.NewMKStream(0, []*grid.Vertex{warehouseA}, 10, 1, 1, rand.New(rand.NewSource(1)))

	a := agentstate.NewAgent(0, 0, warehouseA, warehouseA, 10)

	inst := &instance.Instance{
		Caches:        []*cache.Group{c},
		Streams:       []*goalstream.Stream{stream},
		Ports:         []*grid.Vertex{port},
		Agents:        []*agentstate.Agent{a},
		LookAhead:     3,
		DelayDeadline: 5,
	}

	require.Equal(t, 0, inst.Tick([]*grid.Vertex{warehouseA}, 1)) // -> status 4
	require.Equal(t, 0, inst.Tick([]*grid.Vertex{cacheCellX}, 1)) // -> status 6
	require.Equal(t, 1, inst.Tick([]*grid.Vertex{port}, 1))       // delivered, cache hit on next goal

	require.Equal(t, uint64(1), inst.CacheHit)
	require.InDelta(t, 1.0, inst.CacheHitRate(), 1e-9)

	percentiles := inst.Percentiles()
	require.Len(t, percentiles, 8)
	require.Equal(t, percentiles[0], percentiles[7], "a single-sample history has identical percentiles throughout")
}

func TestInstance_PercentilesEmptyHistory(t *testing.T) {
	inst := &instance.Instance{}
	require.Equal(t, make([]int, 8), inst.Percentiles())
}
