package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/layout"
)

// segment is a contiguous region obtained from the arena in one growth.
// The last layout.FenceSize bytes hold a fence: a permanently in-use
// pseudo-chunk that stops forward coalescing and segment walks.
type segment struct {
	base int32
	size int32
}

func (s segment) end() int32      { return s.base + s.size }
func (s segment) fenceOff() int32 { return s.end() - layout.FenceSize }

// segmentFor finds the segment containing off. Segments are created in
// ascending base order, so binary search applies.
func (h *Heap) segmentFor(off int32) (segment, bool) {
	lo, hi := 0, len(h.segs)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		s := h.segs[mid]
		switch {
		case off < s.base:
			hi = mid - 1
		case off >= s.end():
			lo = mid + 1
		default:
			return s, true
		}
	}
	return segment{}, false
}

// writeTop refreshes the top chunk's boundary tags: its free head, the
// prev-foot copy under the fence, and the fence head itself. The top chunk
// always directly precedes its segment's fence, and its predecessor is
// always in use, so prev-in-use is unconditionally set.
func (h *Heap) writeTop(data []byte) {
	writeHead(data, h.topOff, chunkHead{size: h.topSize, prevInUse: true})
	fence := h.topOff + h.topSize
	layout.PutI32(data, int(fence), h.topSize)
	writeHead(data, fence, chunkHead{size: layout.FenceSize, inUse: true})
}

// sysGrow obtains at least nb more usable bytes from the arena. Contiguous
// growth extends the current segment and top chunk; non-contiguous growth
// retires the old top into the bins and starts a fresh segment.
func (h *Heap) sysGrow(nb int32) error {
	want := layout.AlignUpI32(nb+layout.FenceSize+layout.MinChunkSize, h.cfg.GrowthQuantum)
	if want < nb {
		return fmt.Errorf("%w: request of %d bytes overflows the address space", ErrNoMemory, nb)
	}

	base, err := h.a.Grow(int(want))
	if err != nil {
		return fmt.Errorf("%w: arena grow of %d bytes failed: %w", ErrNoMemory, want, err)
	}
	h.stats.GrowCalls++
	h.stats.GrowBytes += int64(want)

	if logAlloc {
		debugLogf("grow #%d: need=%d want=%d base=%d segments=%d",
			h.stats.GrowCalls, nb, want, base, len(h.segs))
	}

	data := h.bytes()

	if n := len(h.segs); n > 0 && int32(base) == h.segs[n-1].end() {
		// Contiguous: the old fence is absorbed into the enlarged top.
		h.segs[n-1].size += want
		h.topSize += want
		h.writeTop(data)
		return nil
	}

	seg := segment{base: int32(base), size: want}
	h.segs = append(h.segs, seg)

	// A fresh segment strands the old top; hand it to the free lists.
	if h.topOff != layout.NilOff && h.topSize > 0 {
		oldOff, oldSize := h.topOff, h.topSize
		h.insertChunk(data, oldOff, oldSize)
	}

	h.topOff = seg.base
	h.topSize = seg.size - layout.FenceSize
	h.writeTop(data)
	return nil
}
