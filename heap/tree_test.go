package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/internal/layout"
)

// TestTreeIndexMonotonic verifies that bucket indices never decrease with
// size and stay within range.
func TestTreeIndexMonotonic(t *testing.T) {
	prev := 0
	for size := int32(layout.MaxSmallSize); size < 1<<24; size += 8 {
		idx := treeIndexFor(size)
		if idx < prev || idx >= layout.NumTreeBins {
			t.Fatalf("treeIndexFor(%d) = %d, previous %d", size, idx, prev)
		}
		prev = idx
	}
	require.Equal(t, layout.NumTreeBins-1, treeIndexFor(layout.MaxHeapSize&^7))
}

// TestTreeInsertRemove exercises insertion, duplicate rings, and removal
// through the public allocation paths, auditing the tree after each step.
func TestTreeInsertRemove(t *testing.T) {
	h := newTestHeap(t)

	// Build a population of large free chunks separated by small pins.
	sizes := []int{300, 1000, 300, 5000, 1000, 300, 20000}
	refs := make([]Ref, len(sizes))
	for i, n := range sizes {
		refs[i], _ = mustAlloc(t, h, n)
		mustAlloc(t, h, 8) // pin
	}
	for _, r := range refs {
		require.NoError(t, h.Deallocate(r))
	}
	require.NoError(t, h.Check())

	// Best fit: a 900-byte request must come from a 1000-class chunk, not
	// the 5000 or 20000 ones.
	ref, _ := mustAlloc(t, h, 900)
	u, err := h.UsableSize(ref)
	require.NoError(t, err)
	require.Less(t, u, 1100)
	require.NoError(t, h.Check())

	// Drain the duplicates: three 290-byte requests reuse the 300-class
	// ring without growing.
	grows := h.Stats().GrowCalls
	for i := 0; i < 3; i++ {
		mustAlloc(t, h, 290)
	}
	require.Equal(t, grows, h.Stats().GrowCalls)
	require.NoError(t, h.Check())
}

// TestTreeBestFitPrefersSmallest verifies that among several adequate tree
// chunks the smallest one is chosen.
func TestTreeBestFitPrefersSmallest(t *testing.T) {
	h := newTestHeap(t)

	big, _ := mustAlloc(t, h, 10000)
	mustAlloc(t, h, 8)
	small, _ := mustAlloc(t, h, 600)
	mustAlloc(t, h, 8)

	require.NoError(t, h.Deallocate(big))
	require.NoError(t, h.Deallocate(small))

	ref, _ := mustAlloc(t, h, 500)
	require.Equal(t, small, ref, "best fit should reuse the 600-byte chunk")
	require.NoError(t, h.Check())
}

// TestTreeSmallestServesSmallRequest verifies that a small request with all
// small bins empty splits the smallest tree chunk.
func TestTreeSmallestServesSmallRequest(t *testing.T) {
	h := newTestHeap(t)

	big, _ := mustAlloc(t, h, 2000)
	mustAlloc(t, h, 8)
	require.NoError(t, h.Deallocate(big))

	ref, _ := mustAlloc(t, h, 100)
	require.Equal(t, big, ref, "small request should split the tree chunk")
	require.NoError(t, h.Check())
}
