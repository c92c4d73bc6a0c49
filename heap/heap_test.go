package heap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/internal/layout"
)

// newTestHeap builds a compact heap over a plain slice arena.
func newTestHeap(t *testing.T) *Heap {
	t.Helper()
	return New(mem.NewSliceArena(), &ConfigCompact)
}

// newLimitedHeap builds a compact heap over a budget-capped arena so tests can
// observe and bound arena growth.
func newLimitedHeap(t *testing.T, budget int) (*Heap, *mem.LimitArena) {
	t.Helper()
	a := mem.NewLimitArena(mem.NewSliceArena(), budget)
	return New(a, &ConfigCompact), a
}

// mustAlloc allocates or fails the test.
func mustAlloc(t *testing.T, h *Heap, n int) (Ref, []byte) {
	t.Helper()
	ref, buf, err := h.Allocate(n)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(buf), n)
	return ref, buf
}

// fill writes a repeating byte pattern derived from seed.
func fill(buf []byte, seed byte) {
	for i := range buf {
		buf[i] = seed + byte(i)
	}
}

// requireFilled checks a pattern written by fill is intact.
func requireFilled(t *testing.T, buf []byte, seed byte) {
	t.Helper()
	for i := range buf {
		if buf[i] != seed+byte(i) {
			t.Fatalf("payload corrupted at byte %d: got 0x%02X want 0x%02X", i, buf[i], seed+byte(i))
		}
	}
}

// TestAllocateBasic verifies that two allocations are usable, disjoint, and
// hold their contents independently.
func TestAllocateBasic(t *testing.T) {
	h := newTestHeap(t)

	r1, b1 := mustAlloc(t, h, 40000)
	fill(b1, 1)

	r2, b2 := mustAlloc(t, h, 40000)
	fill(b2, 2)

	require.NotEqual(t, r1, r2)

	// Re-derive both payloads: the second allocation may have grown the arena.
	b1, err := h.Payload(r1)
	require.NoError(t, err)
	requireFilled(t, b1, 1)

	b2, err = h.Payload(r2)
	require.NoError(t, err)
	requireFilled(t, b2, 2)

	require.NoError(t, h.Check())
}

// TestAllocateZero verifies that a zero-byte request still yields a distinct,
// freeable allocation.
func TestAllocateZero(t *testing.T) {
	h := newTestHeap(t)

	r1, _ := mustAlloc(t, h, 0)
	r2, _ := mustAlloc(t, h, 0)
	require.NotEqual(t, r1, r2)

	u, err := h.UsableSize(r1)
	require.NoError(t, err)
	require.Equal(t, int(layout.MinChunkSize-layout.ChunkOverhead), u)

	require.NoError(t, h.Deallocate(r1))
	require.NoError(t, h.Deallocate(r2))
	require.NoError(t, h.Check())
}

// TestAllocateAlignment verifies that every payload starts on an 8-byte
// boundary regardless of request size.
func TestAllocateAlignment(t *testing.T) {
	h := newTestHeap(t)

	for _, n := range []int{0, 1, 7, 8, 9, 23, 100, 255, 256, 257, 4000, 70000} {
		ref, _ := mustAlloc(t, h, n)
		require.Zero(t, ref%layout.ChunkAlignment, "request of %d bytes", n)
	}
	require.NoError(t, h.Check())
}

// TestAllocateDisjoint verifies that live payload ranges never overlap across
// a spread of size classes.
func TestAllocateDisjoint(t *testing.T) {
	h := newTestHeap(t)

	type span struct{ lo, hi int }
	var spans []span

	for i, n := range []int{8, 24, 100, 300, 1000, 5000, 16, 48, 2000} {
		ref, _ := mustAlloc(t, h, n)
		u, err := h.UsableSize(ref)
		require.NoError(t, err)
		s := span{int(ref), int(ref) + u}
		for j, prev := range spans {
			require.True(t, s.hi <= prev.lo || s.lo >= prev.hi,
				"allocation %d overlaps allocation %d", i, j)
		}
		spans = append(spans, s)
	}
}

// TestAllocateNegative verifies that a negative size is rejected up front.
func TestAllocateNegative(t *testing.T) {
	h := newTestHeap(t)
	_, _, err := h.Allocate(-1)
	require.ErrorIs(t, err, ErrBadSize)
}

// TestAllocateOutOfMemory verifies that exhausting the arena budget surfaces
// ErrNoMemory and leaves the heap usable.
func TestAllocateOutOfMemory(t *testing.T) {
	h, _ := newLimitedHeap(t, 16*1024)

	var refs []Ref
	for {
		ref, _, err := h.Allocate(1024)
		if err != nil {
			require.ErrorIs(t, err, ErrNoMemory)
			break
		}
		refs = append(refs, ref)
	}
	require.NotEmpty(t, refs)
	require.NoError(t, h.Check())

	// Freeing makes room again without any arena growth.
	for _, r := range refs {
		require.NoError(t, h.Deallocate(r))
	}
	_, _, err := h.Allocate(1024)
	require.NoError(t, err)
	require.NoError(t, h.Check())
}

// TestDeallocateDoubleFree verifies that freeing the same reference twice is
// rejected.
func TestDeallocateDoubleFree(t *testing.T) {
	h := newTestHeap(t)

	ref, _ := mustAlloc(t, h, 100)
	require.NoError(t, h.Deallocate(ref))

	err := h.Deallocate(ref)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDoubleFree) || errors.Is(err, ErrBadRef),
		"got %v", err)
}

// TestDeallocateBadRef verifies that unaligned and out-of-range references are
// rejected before any metadata is trusted.
func TestDeallocateBadRef(t *testing.T) {
	h := newTestHeap(t)
	mustAlloc(t, h, 100)

	for _, ref := range []Ref{0, 3, 13, 1 << 30} {
		require.ErrorIs(t, h.Deallocate(ref), ErrBadRef, "ref 0x%X", ref)
	}
}

// TestPayloadAfterGrowth verifies that Payload re-derives a valid slice after
// the arena has been reallocated by later growth.
func TestPayloadAfterGrowth(t *testing.T) {
	h := newTestHeap(t)

	ref, buf := mustAlloc(t, h, 64)
	fill(buf, 9)

	// Force several growths so the slice arena reallocates.
	for i := 0; i < 8; i++ {
		mustAlloc(t, h, 60000)
	}

	buf, err := h.Payload(ref)
	require.NoError(t, err)
	requireFilled(t, buf, 9)
}

// TestOwnsRef verifies live, freed, and foreign references.
func TestOwnsRef(t *testing.T) {
	h := newTestHeap(t)

	ref, _ := mustAlloc(t, h, 32)
	require.True(t, h.OwnsRef(ref))

	require.NoError(t, h.Deallocate(ref))
	require.False(t, h.OwnsRef(ref))

	require.False(t, h.OwnsRef(7))
	require.False(t, h.OwnsRef(1<<28))
}

// TestUsableSize verifies that usable size covers the request and respects
// chunk granularity.
func TestUsableSize(t *testing.T) {
	h := newTestHeap(t)

	ref, _ := mustAlloc(t, h, 10)
	u, err := h.UsableSize(ref)
	require.NoError(t, err)
	require.GreaterOrEqual(t, u, 10)
	require.Equal(t, int32(0), (int32(u)+layout.ChunkOverhead)%layout.ChunkAlignment)
}

// TestStatsCounters verifies the basic accounting invariants after a simple
// workload.
func TestStatsCounters(t *testing.T) {
	h := newTestHeap(t)

	refs := make([]Ref, 0, 10)
	for i := 0; i < 10; i++ {
		ref, _ := mustAlloc(t, h, 128)
		refs = append(refs, ref)
	}
	for _, r := range refs[:5] {
		require.NoError(t, h.Deallocate(r))
	}

	st := h.Stats()
	require.Equal(t, 10, st.AllocCalls)
	require.Equal(t, 5, st.FreeCalls)
	require.Equal(t, st.AllocCalls, st.AllocFastPath+st.AllocSlowPath)
	require.Positive(t, st.GrowCalls)
	require.Equal(t, h.Footprint(), st.GrowBytes-st.TrimBytes)
	require.GreaterOrEqual(t, st.BytesAllocated, st.BytesFreed)
}
