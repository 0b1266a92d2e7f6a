package goalstream_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IvanBrykalov/calmapf/goalstream"
	"github.com/IvanBrykalov/calmapf/grid"
)

func vtx(id int) *grid.Vertex {
	return &grid.Vertex{ID: id, Index: id, Width: 10, IsCargo: true}
}

// fakeCache reports a hit for exactly one configured vertex.
type fakeCache struct {
	hit *grid.Vertex
}

func (f fakeCache) LookAheadHit(cargo *grid.Vertex) bool { return f.hit != nil && cargo == f.hit }

func TestNextGoal_LookAheadReorder(t *testing.T) {
	a, b, c := vtx(1), vtx(2), vtx(3)
	cargo := []*grid.Vertex{a, b, c}
	s := goalstream.NewZhangStream(0, cargo, 0, rand.New(rand.NewSource(1)))
	s.SeedQueueForTest([]*grid.Vertex{a, b, c}, []int{0, 0, 0})

	cache := fakeCache{hit: b}
	got := s.NextGoal(3, 10, cache)
	require.Equal(t, b, got, "the cache-hit entry must be promoted ahead of the earlier-queued entries")
	require.Equal(t, 2, s.Len())

	remaining, delays := s.DumpForTest()
	require.Equal(t, []*grid.Vertex{a, c}, remaining, "unselected entries must be restored in original order")
	require.Equal(t, []int{1, 1}, delays, "unselected entries must have their delay incremented once")
}

func TestNextGoal_StarvationBound(t *testing.T) {
	a, b, c := vtx(1), vtx(2), vtx(3)
	cargo := []*grid.Vertex{a, b, c}
	s := goalstream.NewZhangStream(0, cargo, 0, rand.New(rand.NewSource(1)))
	s.SeedQueueForTest([]*grid.Vertex{a, b, c}, []int{0, 0, 0})

	cache := fakeCache{hit: nil} // nothing is ever a cache hit in this scenario

	first := s.NextGoal(3, 2, cache)
	require.Equal(t, a, first, "with no cache hits, the original head is returned and the rest wait with delay 1")

	second := s.NextGoal(3, 2, cache)
	require.Equal(t, b, second, "b is next in line, still below the delay deadline")

	third := s.NextGoal(3, 2, cache)
	require.Equal(t, c, third, "c is forced out once its delay reaches the deadline")
}

func TestNextGoal_EmptyQueueFallsBackToRandomCargo(t *testing.T) {
	a, b := vtx(1), vtx(2)
	cargo := []*grid.Vertex{a, b}
	s := goalstream.NewZhangStream(0, cargo, 0, rand.New(rand.NewSource(1)))

	got := s.NextGoal(2, 2, nil)
	require.Contains(t, cargo, got)
	require.Equal(t, 0, s.Len())
}

func TestNewMKStream_RespectsWindowDiversityBudget(t *testing.T) {
	cargo := make([]*grid.Vertex, 20)
	for i := range cargo {
		cargo[i] = vtx(i)
	}
	s := goalstream.NewMKStream(0, cargo, 200, 5, 2, rand.New(rand.NewSource(3)))
	require.Equal(t, 200, s.Len())

	queued, _ := s.DumpForTest()
	for i := 4; i < len(queued); i++ {
		window := queued[i-4 : i+1]
		distinct := map[*grid.Vertex]struct{}{}
		for _, v := range window {
			distinct[v] = struct{}{}
		}
		require.LessOrEqual(t, len(distinct), 2, "a window of the last 5 goals must never contain more than goals_k distinct values")
	}
}

func TestLoadRealFrequencies(t *testing.T) {
	csvData := "product_id,ts\n1,a\n1,b\n2,c\n1,d\n"
	freqs, err := goalstream.LoadRealFrequencies(strings.NewReader(csvData))
	require.NoError(t, err)
	require.Len(t, freqs, 3) // ids 0,1,2
	require.InDelta(t, 0.0, freqs[0], 1e-9)
	require.InDelta(t, 0.75, freqs[1], 1e-9)
	require.InDelta(t, 0.25, freqs[2], 1e-9)
}

func TestLoadRealFrequencies_EmptyFile(t *testing.T) {
	_, err := goalstream.LoadRealFrequencies(strings.NewReader(""))
	require.Error(t, err)
}
