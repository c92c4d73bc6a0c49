package heap

import "github.com/joshuapare/heapkit/internal/layout"

// Stats holds allocator counters for instrumentation and tests.
type Stats struct {
	AllocCalls    int   // Total Allocate() calls
	FreeCalls     int   // Total Deallocate() calls
	AllocFastPath int   // Allocations served without growing the arena
	AllocSlowPath int   // Allocations that required arena growth
	GrowCalls     int   // Number of arena growths
	GrowBytes     int64 // Total bytes obtained from the arena

	BytesAllocated int64 // Total chunk bytes handed out (including overhead)
	BytesFreed     int64 // Total chunk bytes returned

	SplitCount       int // Chunk splits
	CoalesceForward  int // Forward merges during Deallocate
	CoalesceBackward int // Backward merges during Deallocate

	// Allocation source distribution
	SmallBinAllocs int
	TreeBinAllocs  int
	DvAllocs       int
	TopAllocs      int

	TrimCalls int
	TrimBytes int64
}

// Stats returns a copy of the current counters.
func (h *Heap) Stats() Stats { return h.stats }

// Footprint reports the net bytes currently held from the arena.
func (h *Heap) Footprint() int64 {
	return h.stats.GrowBytes - h.stats.TrimBytes
}

// TopSize reports the current size of the top chunk.
func (h *Heap) TopSize() int { return int(h.topSize) }

// NumSegments reports how many segments the heap spans.
func (h *Heap) NumSegments() int { return len(h.segs) }

// BinSnapshot is a point-in-time census of the free structures: chunk counts
// per small bin and per tree bucket, plus the two cached chunks.
type BinSnapshot struct {
	Small   [layout.NumSmallBins]int
	Tree    [layout.NumTreeBins]int
	DvSize  int
	TopSize int
}

// Bins walks the free structures and returns a census. O(free chunks);
// intended for inspection tooling, not hot paths.
func (h *Heap) Bins() BinSnapshot {
	data := h.bytes()
	var s BinSnapshot
	s.DvSize = int(h.dvSize)
	s.TopSize = int(h.topSize)

	for idx := 0; idx < layout.NumSmallBins; idx++ {
		for off := h.smallBins[idx]; off != layout.NilOff; off = fd(data, off) {
			s.Small[idx]++
		}
	}
	for idx := 0; idx < layout.NumTreeBins; idx++ {
		if h.treeBins[idx] == layout.NilOff {
			continue
		}
		stack := []int32{h.treeBins[idx]}
		for len(stack) > 0 {
			t := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			s.Tree[idx]++
			for r := fd(data, t); r != t; r = fd(data, r) {
				s.Tree[idx]++
			}
			if l := left(data, t); l != layout.NilOff {
				stack = append(stack, l)
			}
			if r := right(data, t); r != layout.NilOff {
				stack = append(stack, r)
			}
		}
	}
	return s
}
