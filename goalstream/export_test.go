package goalstream

import "github.com/IvanBrykalov/calmapf/grid"

// SeedQueueForTest overwrites the stream's queue and delay vectors
// directly, bypassing generator construction, so tests can exercise
// NextGoal against a known fixture.
func (s *Stream) SeedQueueForTest(queue []*grid.Vertex, delay []int) {
	s.queue = append([]*grid.Vertex(nil), queue...)
	s.delay = append([]int(nil), delay...)
}

// DumpForTest returns copies of the current queue and delay vectors.
func (s *Stream) DumpForTest() ([]*grid.Vertex, []int) {
	return append([]*grid.Vertex(nil), s.queue...), append([]int(nil), s.delay...)
}
