package random

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandom_DeterministicUnderSeed(t *testing.T) {
	p1 := New(rand.New(rand.NewSource(42))).New(5)
	p2 := New(rand.New(rand.NewSource(42))).New(5)

	cands := []int{0, 1, 2, 3, 4}
	for i := 0; i < 10; i++ {
		v1, ok1 := p1.Select(cands)
		v2, ok2 := p2.Select(cands)
		require.True(t, ok1)
		require.True(t, ok2)
		require.Equal(t, v1, v2, "same seed must reproduce the same eviction sequence")
	}
}

func TestRandom_NoCandidates(t *testing.T) {
	p := New(rand.New(rand.NewSource(1))).New(3)
	_, ok := p.Select(nil)
	require.False(t, ok)
}

func TestRandom_AlwaysWithinCandidates(t *testing.T) {
	p := New(rand.New(rand.NewSource(7))).New(8)
	cands := []int{1, 3, 5}
	for i := 0; i < 50; i++ {
		v, ok := p.Select(cands)
		require.True(t, ok)
		require.Contains(t, cands, v)
	}
}
