package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/buf"
	"github.com/joshuapare/heapkit/internal/layout"
)

// Check audits the entire heap for internal consistency: every boundary tag,
// every bin link, the bitmaps, the designated victim, and the top chunk. It
// is O(heap size) and intended for tests and debugging, not hot paths.
//
// The audit cross-references two independent views of free memory. First the
// bins are walked and every binned chunk is recorded; then each segment is
// walked chunk by chunk via boundary tags, and every free chunk found must
// match a bin record exactly (or be the victim or the top). A mismatch in
// either direction reports ErrCorrupt.
func (h *Heap) Check() error {
	data := h.bytes()

	binned, err := h.collectBinned(data)
	if err != nil {
		return err
	}

	if h.dvOff != layout.NilOff {
		hd := readHead(data, h.dvOff)
		if hd.inUse || hd.size != h.dvSize {
			return fmt.Errorf("%w: designated victim tags at 0x%X", ErrCorrupt, h.dvOff)
		}
		if _, dup := binned[h.dvOff]; dup {
			return fmt.Errorf("%w: designated victim 0x%X is also binned", ErrCorrupt, h.dvOff)
		}
	}

	if h.topOff != layout.NilOff {
		hd := readHead(data, h.topOff)
		if hd.inUse || !hd.prevInUse || hd.size != h.topSize {
			return fmt.Errorf("%w: top chunk tags at 0x%X", ErrCorrupt, h.topOff)
		}
		last := h.segs[len(h.segs)-1]
		if h.topOff+h.topSize != last.fenceOff() {
			return fmt.Errorf("%w: top chunk does not reach its fence", ErrCorrupt)
		}
	}

	for _, seg := range h.segs {
		if err := h.checkSegment(data, seg, binned); err != nil {
			return err
		}
	}

	for off := range binned {
		return fmt.Errorf("%w: binned chunk at 0x%X not reachable by segment walk", ErrCorrupt, off)
	}
	return nil
}

// collectBinned walks every small bin list and tree, validating link structure
// and returning the set of binned free chunks keyed by offset.
func (h *Heap) collectBinned(data []byte) (map[int32]int32, error) {
	binned := make(map[int32]int32)

	for idx := 0; idx < layout.NumSmallBins; idx++ {
		head := h.smallBins[idx]
		if (h.smallMap&(1<<idx) != 0) != (head != layout.NilOff) {
			return nil, fmt.Errorf("%w: small bitmap disagrees with bin %d", ErrCorrupt, idx)
		}
		want := smallSizeFor(idx)
		prev := layout.NilOff
		for off := head; off != layout.NilOff; off = fd(data, off) {
			// Link fields are untrusted until the chunk they name checks out.
			if off < 0 || !buf.Has(data, int(off), int(layout.MinChunkSize)) {
				return nil, fmt.Errorf("%w: small bin %d link points outside the arena", ErrCorrupt, idx)
			}
			if _, seen := binned[off]; seen {
				return nil, fmt.Errorf("%w: cycle in small bin %d at 0x%X", ErrCorrupt, idx, off)
			}
			hd := readHead(data, off)
			if hd.inUse || hd.size != want {
				return nil, fmt.Errorf("%w: small-binned chunk tags at 0x%X", ErrCorrupt, off)
			}
			if bk(data, off) != prev {
				return nil, fmt.Errorf("%w: small bin back link at 0x%X", ErrCorrupt, off)
			}
			binned[off] = hd.size
			prev = off
		}
	}

	for idx := 0; idx < layout.NumTreeBins; idx++ {
		root := h.treeBins[idx]
		if (h.treeMap&(1<<idx) != 0) != (root != layout.NilOff) {
			return nil, fmt.Errorf("%w: tree bitmap disagrees with bin %d", ErrCorrupt, idx)
		}
		if root == layout.NilOff {
			continue
		}
		if parent(data, root) != layout.NilOff {
			return nil, fmt.Errorf("%w: tree root 0x%X has a parent", ErrCorrupt, root)
		}
		if err := h.collectTree(data, idx, root, binned); err != nil {
			return nil, err
		}
	}
	return binned, nil
}

// collectTree records every node and ring member of one bucket's tree.
func (h *Heap) collectTree(data []byte, idx int, root int32, binned map[int32]int32) error {
	stack := []int32{root}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if t < 0 || !buf.Has(data, int(t), int(layout.MinTreeChunkSize)) {
			return fmt.Errorf("%w: tree bin %d link points outside the arena", ErrCorrupt, idx)
		}
		if _, seen := binned[t]; seen {
			return fmt.Errorf("%w: cycle in tree bin %d at 0x%X", ErrCorrupt, idx, t)
		}
		hd := readHead(data, t)
		if hd.inUse || hd.size < layout.MaxSmallSize {
			return fmt.Errorf("%w: tree node tags at 0x%X", ErrCorrupt, t)
		}
		if treeIndexFor(hd.size) != idx || treeIndex(data, t) != int32(idx) {
			return fmt.Errorf("%w: tree node 0x%X filed in wrong bucket", ErrCorrupt, t)
		}
		binned[t] = hd.size

		for r := fd(data, t); r != t; r = fd(data, r) {
			if r < 0 || !buf.Has(data, int(r), int(layout.MinTreeChunkSize)) {
				return fmt.Errorf("%w: size ring link points outside the arena", ErrCorrupt)
			}
			if _, seen := binned[r]; seen {
				return fmt.Errorf("%w: cycle in size ring at 0x%X", ErrCorrupt, r)
			}
			rh := readHead(data, r)
			if rh.inUse || rh.size != hd.size || parent(data, r) != layout.RingOff {
				return fmt.Errorf("%w: ring member tags at 0x%X", ErrCorrupt, r)
			}
			binned[r] = rh.size
		}

		if l := left(data, t); l != layout.NilOff {
			if parent(data, l) != t || chunkSize(data, l) >= hd.size {
				return fmt.Errorf("%w: left child of 0x%X", ErrCorrupt, t)
			}
			stack = append(stack, l)
		}
		if r := right(data, t); r != layout.NilOff {
			if parent(data, r) != t || chunkSize(data, r) <= hd.size {
				return fmt.Errorf("%w: right child of 0x%X", ErrCorrupt, t)
			}
			stack = append(stack, r)
		}
	}
	return nil
}

// checkSegment walks one segment chunk by chunk via boundary tags, verifying
// every tag against its neighbors and consuming free chunks from binned.
func (h *Heap) checkSegment(data []byte, seg segment, binned map[int32]int32) error {
	fence := seg.fenceOff()
	off := seg.base
	prevFree := false
	var prevSize int32

	for off < fence {
		hd := readHead(data, off)
		if hd.size < layout.MinChunkSize || hd.size%layout.ChunkAlignment != 0 || off+hd.size > fence {
			return fmt.Errorf("%w: chunk head at 0x%X", ErrCorrupt, off)
		}
		if hd.prevInUse == prevFree {
			return fmt.Errorf("%w: prev-in-use bit at 0x%X", ErrCorrupt, off)
		}
		if prevFree && readPrevFoot(data, off) != prevSize {
			return fmt.Errorf("%w: prev-foot at 0x%X", ErrCorrupt, off)
		}

		if !hd.inUse {
			if prevFree {
				return fmt.Errorf("%w: adjacent free chunks at 0x%X", ErrCorrupt, off)
			}
			switch off {
			case h.topOff:
				// Validated by Check before the walk.
			case h.dvOff:
				if hd.size != h.dvSize {
					return fmt.Errorf("%w: designated victim size at 0x%X", ErrCorrupt, off)
				}
			default:
				size, ok := binned[off]
				if !ok || size != hd.size {
					return fmt.Errorf("%w: free chunk at 0x%X missing from bins", ErrCorrupt, off)
				}
				delete(binned, off)
			}
		}

		prevFree = !hd.inUse
		prevSize = hd.size
		off += hd.size
	}

	if off != fence {
		return fmt.Errorf("%w: segment walk overran the fence at 0x%X", ErrCorrupt, off)
	}
	fh := readHead(data, fence)
	if !fh.inUse || fh.size != layout.FenceSize {
		return fmt.Errorf("%w: fence head at 0x%X", ErrCorrupt, fence)
	}
	return nil
}
