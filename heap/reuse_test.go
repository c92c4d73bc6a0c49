package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSteadyStateReuse verifies that a fixed-size alloc/free loop reaches a
// steady state where the arena stops growing.
func TestSteadyStateReuse(t *testing.T) {
	h, a := newLimitedHeap(t, 1<<20)

	// Warm up: let the heap obtain whatever footprint the pattern needs.
	refs := make([]Ref, 32)
	for i := range refs {
		refs[i], _ = mustAlloc(t, h, 512)
	}
	for _, r := range refs {
		require.NoError(t, h.Deallocate(r))
	}

	grown := a.Grown()
	for round := 0; round < 50; round++ {
		for i := range refs {
			refs[i], _ = mustAlloc(t, h, 512)
		}
		for _, r := range refs {
			require.NoError(t, h.Deallocate(r))
		}
	}
	require.Equal(t, grown, a.Grown(), "steady-state loop must not grow the arena")
	require.NoError(t, h.Check())
}

// TestMixedSizeReuse verifies steady-state behavior for a mix of small and
// large classes, freed in a different order than allocated.
func TestMixedSizeReuse(t *testing.T) {
	h, a := newLimitedHeap(t, 4<<20)
	sizes := []int{16, 48, 200, 700, 3000, 24, 512, 9000}

	run := func() {
		refs := make([]Ref, 0, len(sizes)*4)
		for round := 0; round < 4; round++ {
			for _, n := range sizes {
				ref, _ := mustAlloc(t, h, n)
				refs = append(refs, ref)
			}
		}
		// Free odd then even indices so frees interleave with live neighbors.
		for i := 1; i < len(refs); i += 2 {
			require.NoError(t, h.Deallocate(refs[i]))
		}
		for i := 0; i < len(refs); i += 2 {
			require.NoError(t, h.Deallocate(refs[i]))
		}
	}

	run()
	grown := a.Grown()
	for i := 0; i < 20; i++ {
		run()
	}
	require.Equal(t, grown, a.Grown())
	require.NoError(t, h.Check())
}

// TestUniformChurnNeverGrows verifies that 10,000 allocate/free pairs of a
// single small size class grow the arena exactly once.
func TestUniformChurnNeverGrows(t *testing.T) {
	h, a := newLimitedHeap(t, 1<<20)

	for i := 0; i < 10_000; i++ {
		ref, _, err := h.Allocate(16)
		require.NoError(t, err)
		require.NoError(t, h.Deallocate(ref))
		if i == 0 {
			require.Equal(t, 1, a.GrowCalls())
		}
	}
	require.Equal(t, 1, a.GrowCalls())
	require.NoError(t, h.Check())
}

// TestSmallBinRecycling verifies that freeing a small chunk makes the very
// next same-size allocation hit its bin (or victim) rather than splitting.
func TestSmallBinRecycling(t *testing.T) {
	h := newTestHeap(t)

	a1, _ := mustAlloc(t, h, 64)
	mustAlloc(t, h, 64) // pin so a1 cannot merge into the top
	require.NoError(t, h.Deallocate(a1))

	a2, _ := mustAlloc(t, h, 64)
	require.Equal(t, a1, a2, "freed chunk should be reused for the same size class")
}
