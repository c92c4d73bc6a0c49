package heap

import (
	"math/bits"

	"github.com/joshuapare/heapkit/internal/layout"
)

// Tree bins: chunks at or above layout.MaxSmallSize are kept in one binary
// search tree per logarithmic size bucket, keyed on chunk size. Equal-size
// chunks share a single tree node and hang off it in a circular fd/bk ring;
// ring members carry layout.RingOff in their parent field so they can be
// told apart from nodes during removal.
//
// Descent and best-fit search use plain size comparisons rather than the
// classic bit-shift child selection, which is behaviorally identical and much
// easier to audit.

// treeIndexFor returns the bucket index for a large chunk size.
func treeIndexFor(size int32) int {
	x := uint32(size) >> layout.TreeBinShift
	switch {
	case x == 0:
		return 0
	case x > 0xFFFF:
		return layout.NumTreeBins - 1
	}
	k := 31 - bits.LeadingZeros32(x)
	return (k << 1) + int((uint32(size)>>(uint(k)+layout.TreeBinShift-1))&1)
}

// insertTree places a free chunk into its bucket's tree.
func (h *Heap) insertTree(data []byte, off, size int32) {
	idx := treeIndexFor(size)
	setTreeIndex(data, off, int32(idx))
	setLeft(data, off, layout.NilOff)
	setRight(data, off, layout.NilOff)

	if h.treeMap&(1<<idx) == 0 {
		h.treeBins[idx] = off
		h.treeMap |= 1 << idx
		setParent(data, off, layout.NilOff)
		setFd(data, off, off)
		setBk(data, off, off)
		return
	}

	t := h.treeBins[idx]
	for {
		ts := chunkSize(data, t)
		if size == ts {
			// Same size: join the node's ring, do not extend the tree.
			f := fd(data, t)
			setFd(data, t, off)
			setBk(data, off, t)
			setFd(data, off, f)
			setBk(data, f, off)
			setParent(data, off, layout.RingOff)
			return
		}
		var c int32
		if size < ts {
			c = left(data, t)
			if c == layout.NilOff {
				setLeft(data, t, off)
				break
			}
		} else {
			c = right(data, t)
			if c == layout.NilOff {
				setRight(data, t, off)
				break
			}
		}
		t = c
	}
	setParent(data, off, t)
	setFd(data, off, off)
	setBk(data, off, off)
}

// replaceNodeSlot points the parent (or the bin root slot) at repl instead of
// old. repl may be NilOff. Clears the bucket's bitmap bit when the tree
// empties.
func (h *Heap) replaceNodeSlot(data []byte, p int32, idx int, old, repl int32) error {
	if p == layout.NilOff {
		if h.treeBins[idx] != old {
			return ErrCorrupt
		}
		h.treeBins[idx] = repl
		if repl == layout.NilOff {
			h.treeMap &^= 1 << idx
		} else {
			setParent(data, repl, layout.NilOff)
		}
		return nil
	}
	switch old {
	case left(data, p):
		setLeft(data, p, repl)
	case right(data, p):
		setRight(data, p, repl)
	default:
		return ErrCorrupt
	}
	if repl != layout.NilOff {
		setParent(data, repl, p)
	}
	return nil
}

// removeTree unlinks a specific chunk from its bucket's tree.
func (h *Heap) removeTree(data []byte, off int32) error {
	p := parent(data, off)

	if p == layout.RingOff {
		// Ring member, not a node: splice it out of the ring.
		f := fd(data, off)
		b := bk(data, off)
		if fd(data, b) != off || bk(data, f) != off {
			return ErrCorrupt
		}
		setFd(data, b, f)
		setBk(data, f, b)
		return nil
	}

	idx := int(treeIndex(data, off))
	if idx < 0 || idx >= layout.NumTreeBins {
		return ErrCorrupt
	}

	if f := fd(data, off); f != off {
		// The node has same-size duplicates: promote one to node.
		b := bk(data, off)
		if fd(data, b) != off || bk(data, f) != off {
			return ErrCorrupt
		}
		setFd(data, b, f)
		setBk(data, f, b)
		if l := left(data, off); l != layout.NilOff {
			setLeft(data, f, l)
			setParent(data, l, f)
		} else {
			setLeft(data, f, layout.NilOff)
		}
		if r := right(data, off); r != layout.NilOff {
			setRight(data, f, r)
			setParent(data, r, f)
		} else {
			setRight(data, f, layout.NilOff)
		}
		setTreeIndex(data, f, int32(idx))
		return h.replaceNodeSlot(data, p, idx, off, f)
	}

	// Lone node: standard binary-search-tree deletion.
	l := left(data, off)
	r := right(data, off)
	var repl int32
	switch {
	case l == layout.NilOff:
		repl = r
	case r == layout.NilOff:
		repl = l
	default:
		// Two children: splice in the successor (leftmost of right subtree).
		s := r
		for left(data, s) != layout.NilOff {
			s = left(data, s)
		}
		if s != r {
			sp := parent(data, s)
			sr := right(data, s)
			setLeft(data, sp, sr)
			if sr != layout.NilOff {
				setParent(data, sr, sp)
			}
			setRight(data, s, r)
			setParent(data, r, s)
		}
		setLeft(data, s, l)
		setParent(data, l, s)
		repl = s
	}
	return h.replaceNodeSlot(data, p, idx, off, repl)
}

// treeBestFit returns the smallest tree chunk whose size is at least nb, or
// NilOff. Buckets hold ascending disjoint size ranges, so the first bucket
// containing a fit contains the global best fit.
func (h *Heap) treeBestFit(data []byte, nb int32) int32 {
	start := treeIndexFor(nb)
	m := h.treeMap &^ (uint32(1)<<start - 1)
	for m != 0 {
		idx := bits.TrailingZeros32(m)
		best := layout.NilOff
		var bestSize int32
		t := h.treeBins[idx]
		for t != layout.NilOff {
			ts := chunkSize(data, t)
			if ts >= nb && (best == layout.NilOff || ts < bestSize) {
				best = t
				bestSize = ts
			}
			if ts < nb {
				t = right(data, t)
			} else {
				t = left(data, t)
			}
		}
		if best != layout.NilOff {
			// Prefer a ring duplicate: same size, O(1) removal.
			if f := fd(data, best); f != best {
				return f
			}
			return best
		}
		m &^= 1 << idx
	}
	return layout.NilOff
}

// treeSmallest returns the smallest chunk in any tree bin, or NilOff when all
// trees are empty. Used when a small request finds every small bin empty.
func (h *Heap) treeSmallest(data []byte) int32 {
	if h.treeMap == 0 {
		return layout.NilOff
	}
	idx := bits.TrailingZeros32(h.treeMap)
	t := h.treeBins[idx]
	for left(data, t) != layout.NilOff {
		t = left(data, t)
	}
	if f := fd(data, t); f != t {
		return f
	}
	return t
}
