package heap

import (
	"math/bits"

	"github.com/joshuapare/heapkit/internal/layout"
)

// Small bins: one exact-size doubly linked list per 8-byte size class below
// layout.MaxSmallSize, plus a bitmap of non-empty bins so the smallest
// adequate bin is found with a single hardware bit scan.

// smallIndex returns the bin index for a small chunk size.
func smallIndex(size int32) int {
	return int(size >> layout.SmallBinShift)
}

// smallSizeFor returns the exact chunk size held by bin idx.
func smallSizeFor(idx int) int32 {
	return int32(idx) << layout.SmallBinShift
}

// findSmallBin returns the index of the first non-empty small bin at or above
// from, or -1 when none exists.
func (h *Heap) findSmallBin(from int) int {
	m := h.smallMap &^ (uint32(1)<<from - 1)
	if m == 0 {
		return -1
	}
	return bits.TrailingZeros32(m)
}

// pushSmall links a free chunk at the front of its exact-size bin.
func (h *Heap) pushSmall(data []byte, off, size int32) {
	idx := smallIndex(size)
	head := h.smallBins[idx]
	setFd(data, off, head)
	setBk(data, off, layout.NilOff)
	if head != layout.NilOff {
		setBk(data, head, off)
	}
	h.smallBins[idx] = off
	h.smallMap |= 1 << idx
}

// popSmall unlinks and returns the front chunk of a non-empty bin.
func (h *Heap) popSmall(data []byte, idx int) int32 {
	off := h.smallBins[idx]
	next := fd(data, off)
	h.smallBins[idx] = next
	if next != layout.NilOff {
		setBk(data, next, layout.NilOff)
	} else {
		h.smallMap &^= 1 << idx
	}
	return off
}

// unlinkSmall removes a specific chunk from its bin, validating the links it
// touches. Link disagreement means the heap has been corrupted; the caller
// must stop trusting it.
func (h *Heap) unlinkSmall(data []byte, off, size int32) error {
	idx := smallIndex(size)
	f := fd(data, off)
	b := bk(data, off)

	if b == layout.NilOff {
		if h.smallBins[idx] != off {
			return ErrCorrupt
		}
		h.smallBins[idx] = f
	} else {
		if fd(data, b) != off {
			return ErrCorrupt
		}
		setFd(data, b, f)
	}
	if f != layout.NilOff {
		if bk(data, f) != off {
			return ErrCorrupt
		}
		setBk(data, f, b)
	}
	if h.smallBins[idx] == layout.NilOff {
		h.smallMap &^= 1 << idx
	}
	return nil
}
