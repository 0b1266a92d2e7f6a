// Package goalstream generates and reorders the per-group demand sequence
// consumed by the agent state machine: a bounded-diversity or
// empirical-frequency goal generator feeding an ordered queue, plus a
// cache-aware look-ahead reorder that promotes demands whose cargo is
// already cached, subject to a staleness deadline.
package goalstream

import (
	"math/rand"
	"sort"

	"github.com/IvanBrykalov/calmapf/grid"
)

// CacheLookup is the minimal view goalstream needs of the cache: a pure,
// lock-free hit test. cache.Group satisfies this structurally, avoiding an
// import cycle between the two packages.
type CacheLookup interface {
	LookAheadHit(cargo *grid.Vertex) bool
}

// Stream is one group's goal queue: an ordered list of cargo vertices with
// a parallel per-entry delay counter, plus the group's full cargo set used
// both to build the queue and as the fallback when it runs dry.
type Stream struct {
	group int
	cargo []*grid.Vertex
	queue []*grid.Vertex
	delay []int
	rng   *rand.Rand
}

// Len reports the number of goals still queued.
func (s *Stream) Len() int { return len(s.queue) }

// NewMKStream builds a length-goal queue under the MK(m,k) bounded-diversity
// law: a sliding window of the last m pushed goals is kept, and once the
// window contains k distinct goals the freshly sampled candidate is
// replaced by a uniform draw from that distinct set, forcing temporal
// locality in the resulting sequence.
func NewMKStream(group int, cargo []*grid.Vertex, length, m, k int, rng *rand.Rand) *Stream {
	if len(cargo) == 0 {
		panic("goalstream: cargo set must not be empty")
	}
	s := &Stream{group: group, cargo: cargo, rng: rng}

	var window []*grid.Vertex
	count := make(map[*grid.Vertex]int)
	var distinct []*grid.Vertex

	removeDistinct := func(v *grid.Vertex) {
		for i, d := range distinct {
			if d == v {
				distinct = append(distinct[:i], distinct[i+1:]...)
				return
			}
		}
	}

	for len(s.queue) < length {
		selected := cargo[rng.Intn(len(cargo))]

		if len(window) == m {
			removed := window[0]
			window = window[1:]
			count[removed]--
			if count[removed] == 0 {
				delete(count, removed)
				removeDistinct(removed)
			}
		}

		if len(distinct) == k {
			selected = distinct[rng.Intn(k)]
		}

		window = append(window, selected)
		if count[selected] == 0 {
			distinct = append(distinct, selected)
		}
		count[selected]++
		s.queue = append(s.queue, selected)
		s.delay = append(s.delay, 0)
	}
	return s
}

// NewZhangStream builds a length-goal queue by drawing each goal
// independently from the harmonic-weighted three-class distribution: the
// first 10% of cargo (by the order supplied in cargo) carries 70% of the
// mass, the next 20% carries 20%, and the remaining 70% carries 10%, with
// probability strictly decreasing within each class and the two items at
// every class boundary constrained to equal probability.
func NewZhangStream(group int, cargo []*grid.Vertex, length int, rng *rand.Rand) *Stream {
	if len(cargo) == 0 {
		panic("goalstream: cargo set must not be empty")
	}
	weights := zhangProbabilities(len(cargo))
	return newWeightedStream(group, cargo, length, weights, rng)
}

// NewRealStream builds a length-goal queue by drawing each goal
// independently from frequencies (as produced by LoadRealFrequencies),
// padded or truncated to len(cargo).
func NewRealStream(group int, cargo []*grid.Vertex, length int, frequencies []float64, rng *rand.Rand) *Stream {
	if len(cargo) == 0 {
		panic("goalstream: cargo set must not be empty")
	}
	weights := make([]float64, len(cargo))
	copy(weights, frequencies)
	return newWeightedStream(group, cargo, length, weights, rng)
}

func newWeightedStream(group int, cargo []*grid.Vertex, length int, weights []float64, rng *rand.Rand) *Stream {
	s := &Stream{group: group, cargo: cargo, rng: rng}
	cum := cumulative(weights)
	for i := 0; i < length; i++ {
		idx := weightedSample(cum, rng)
		s.queue = append(s.queue, cargo[idx])
		s.delay = append(s.delay, 0)
	}
	return s
}

// zhangProbabilities implements calculate_probabilities: a harmonic
// weighting within each of the three classes (A: first 10%, B: next 20%,
// C: last 70%), with the item immediately after each class boundary
// pinned to the same probability as the last item of the class before it.
func zhangProbabilities(n int) []float64 {
	probabilities := make([]float64, n)

	aEnd := n / 10 // exclusive boundary of the A-class (int(n*0.1))
	bEnd := n * 3 / 10

	sumA := harmonicSum(0, aEnd-1)
	for i := 0; i < aEnd; i++ {
		probabilities[i] = 0.7 / sumA * (1.0 / float64(i+1))
	}
	if aEnd > 0 && aEnd < n {
		probabilities[aEnd] = probabilities[aEnd-1]
	}

	sumB := harmonicSum(aEnd, bEnd-1)
	for i := aEnd + 1; i < bEnd; i++ {
		probabilities[i] = 0.2 / sumB * (1.0 / float64(i+1))
	}
	if bEnd > 0 && bEnd < n {
		probabilities[bEnd] = probabilities[bEnd-1]
	}

	sumC := harmonicSum(bEnd, n-1)
	for i := bEnd + 1; i < n; i++ {
		probabilities[i] = 0.1 / sumC * (1.0 / float64(i+1))
	}

	return probabilities
}

func harmonicSum(start, end int) float64 {
	sum := 0.0
	for i := start; i <= end; i++ {
		sum += 1.0 / float64(i+1)
	}
	return sum
}

func cumulative(weights []float64) []float64 {
	cum := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		total += w
		cum[i] = total
	}
	return cum
}

// weightedSample draws an index proportional to the weights encoded in
// cum (a running-sum cumulative weight vector), using math/rand for the
// draw and sort.Search for the cumulative-weight binary search — the one
// deliberately stdlib-only piece of this package (see the design notes for
// why no pack dependency covers weighted sampling).
func weightedSample(cum []float64, rng *rand.Rand) int {
	total := cum[len(cum)-1]
	if total <= 0 {
		return rng.Intn(len(cum))
	}
	target := rng.Float64() * total
	idx := sort.Search(len(cum), func(i int) bool { return cum[i] > target })
	if idx == len(cum) {
		idx = len(cum) - 1
	}
	return idx
}

// NextGoal returns the head of the queue, possibly permuted by the
// look-ahead reorder: up to lookAhead entries are popped, scanned in
// order for the first one whose cargo is already cache-hit-able or whose
// recorded delay has reached delayDeadline, and the rest are pushed back
// to the front (in original order) with their delay incremented. cache
// may be nil, in which case the reorder never fires and this degenerates
// to a plain FIFO pop of the head (reordering only ever makes sense
// relative to cache hits). If the queue is empty, a uniformly random
// cargo from the group is returned (and nothing is queued).
func (s *Stream) NextGoal(lookAhead, delayDeadline int, cache CacheLookup) *grid.Vertex {
	if len(s.queue) == 0 {
		return s.cargo[s.rng.Intn(len(s.cargo))]
	}

	size := lookAhead
	if size > len(s.queue) {
		size = len(s.queue)
	}

	tempGoals := make([]*grid.Vertex, 0, size)
	tempDelay := make([]int, 0, size)
	hitIndex := 0

	for i := 0; i < size; i++ {
		tempGoals = append(tempGoals, s.queue[i])
		tempDelay = append(tempDelay, s.delay[i])
	}
	s.queue = s.queue[size:]
	s.delay = s.delay[size:]

	for i := 0; i < size; i++ {
		if cache != nil && (cache.LookAheadHit(tempGoals[i]) || tempDelay[i] >= delayDeadline) {
			hitIndex = i
			break
		}
	}

	selected := tempGoals[hitIndex]
	for i := len(tempGoals) - 1; i >= 0; i-- {
		if i == hitIndex {
			continue
		}
		tempDelay[i]++
		s.queue = append([]*grid.Vertex{tempGoals[i]}, s.queue...)
		s.delay = append([]int{tempDelay[i]}, s.delay...)
	}
	return selected
}
