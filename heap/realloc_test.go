package heap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestReallocGrowInPlace verifies that a chunk adjacent to the top grows
// without moving.
func TestReallocGrowInPlace(t *testing.T) {
	h := newTestHeap(t)

	ref, buf := mustAlloc(t, h, 100)
	fill(buf, 3)

	nref, nbuf, err := h.Realloc(ref, 500)
	require.NoError(t, err)
	require.Equal(t, ref, nref, "chunk next to the top must grow in place")
	requireFilled(t, nbuf[:100], 3)
	require.NoError(t, h.Check())
}

// TestReallocShrinkInPlace verifies shrinking keeps the reference and returns
// the tail to the heap.
func TestReallocShrinkInPlace(t *testing.T) {
	h := newTestHeap(t)

	ref, buf := mustAlloc(t, h, 1000)
	fill(buf, 4)
	mustAlloc(t, h, 16) // pin so the tail must be freed, not merged into top

	nref, nbuf, err := h.Realloc(ref, 200)
	require.NoError(t, err)
	require.Equal(t, ref, nref)
	requireFilled(t, nbuf[:200], 4)
	require.NoError(t, h.Check())

	// The freed tail serves a new request without growth.
	grows := h.Stats().GrowCalls
	mustAlloc(t, h, 700)
	require.Equal(t, grows, h.Stats().GrowCalls)
}

// TestReallocMove verifies the copy path when the chunk cannot grow in place.
func TestReallocMove(t *testing.T) {
	h := newTestHeap(t)

	ref, buf := mustAlloc(t, h, 100)
	fill(buf, 5)
	mustAlloc(t, h, 100) // block in-place growth

	nref, nbuf, err := h.Realloc(ref, 5000)
	require.NoError(t, err)
	require.NotEqual(t, ref, nref, "blocked chunk must move")
	requireFilled(t, nbuf[:100], 5)

	require.False(t, h.OwnsRef(ref), "old reference must be dead after a move")
	require.NoError(t, h.Check())
}

// TestReallocAbsorbFreeNeighbor verifies that a free successor is absorbed
// instead of moving the chunk.
func TestReallocAbsorbFreeNeighbor(t *testing.T) {
	h := newTestHeap(t)

	a, buf := mustAlloc(t, h, 100)
	fill(buf, 6)
	b, _ := mustAlloc(t, h, 400)
	mustAlloc(t, h, 16) // pin so b is binned, not merged into top
	require.NoError(t, h.Deallocate(b))

	nref, nbuf, err := h.Realloc(a, 300)
	require.NoError(t, err)
	require.Equal(t, a, nref, "free successor should be absorbed in place")
	requireFilled(t, nbuf[:100], 6)
	require.NoError(t, h.Check())
}

// TestReallocSameSize verifies that a no-op resize keeps everything stable.
func TestReallocSameSize(t *testing.T) {
	h := newTestHeap(t)

	ref, buf := mustAlloc(t, h, 256)
	fill(buf, 7)

	nref, nbuf, err := h.Realloc(ref, 256)
	require.NoError(t, err)
	require.Equal(t, ref, nref)
	requireFilled(t, nbuf, 7)
}

// TestReallocBadArgs verifies argument validation.
func TestReallocBadArgs(t *testing.T) {
	h := newTestHeap(t)
	ref, _ := mustAlloc(t, h, 32)

	_, _, err := h.Realloc(ref, -1)
	require.ErrorIs(t, err, ErrBadSize)

	_, _, err = h.Realloc(3, 64)
	require.ErrorIs(t, err, ErrBadRef)
}
