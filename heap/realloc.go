package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/internal/layout"
)

// Realloc resizes a live allocation to at least n bytes, preserving its
// contents up to the smaller of the old and new usable sizes.
//
// Shrinking splits the chunk in place and frees the tail. Growing first
// tries to absorb the successor (top chunk, designated victim, or a binned
// free chunk); only when the chunk cannot grow in place does it fall back to
// allocate-copy-free, which moves the data and returns a new reference.
func (h *Heap) Realloc(ref Ref, n int) (Ref, []byte, error) {
	if n < 0 {
		return 0, nil, ErrBadSize
	}
	if n > maxRequest {
		return 0, nil, fmt.Errorf("%w: request of %d bytes exceeds address space", ErrNoMemory, n)
	}
	data := h.bytes()
	off, hd, err := h.resolve(data, ref)
	if err != nil {
		return 0, nil, err
	}
	nb := layout.PadRequest(int32(n))
	size := hd.size

	if size >= nb {
		rem := size - nb
		if rem >= layout.MinChunkSize {
			// Split in place and release the tail through the normal free
			// path so it coalesces with whatever follows.
			markInUse(data, off+nb, rem, true)
			markInUse(data, off, nb, hd.prevInUse)
			if ferr := h.Deallocate(Ref(off + nb + layout.PayloadOffset)); ferr != nil {
				return 0, nil, ferr
			}
		}
		return ref, h.payloadAt(data, off, min(size, nb)), nil
	}

	next := off + size

	// Absorb from the top chunk.
	if next == h.topOff && size+h.topSize >= nb+layout.MinChunkSize {
		delta := nb - size
		h.topOff += delta
		h.topSize -= delta
		h.writeTop(data)
		markInUse(data, off, nb, hd.prevInUse)
		h.stats.SplitCount++
		return ref, h.payloadAt(data, off, nb), nil
	}

	// Absorb the designated victim.
	if next == h.dvOff && size+h.dvSize >= nb {
		combined := size + h.dvSize
		rem := combined - nb
		if rem >= layout.MinChunkSize {
			h.dvOff, h.dvSize = off+nb, rem
			markFree(data, off+nb, rem, true)
			markInUse(data, off, nb, hd.prevInUse)
			h.stats.SplitCount++
			return ref, h.payloadAt(data, off, nb), nil
		}
		h.dvOff, h.dvSize = layout.NilOff, 0
		markInUse(data, off, combined, hd.prevInUse)
		return ref, h.payloadAt(data, off, combined), nil
	}

	// Absorb a binned free successor.
	if nh := readHead(data, next); !nh.inUse && size+nh.size >= nb {
		if uerr := h.unlinkFree(data, next, nh.size); uerr != nil {
			return 0, nil, uerr
		}
		combined := size + nh.size
		rem := combined - nb
		if rem >= layout.MinChunkSize {
			markFree(data, off+nb, rem, true)
			markInUse(data, off, nb, hd.prevInUse)
			h.insertChunk(data, off+nb, rem)
			h.stats.SplitCount++
			return ref, h.payloadAt(data, off, nb), nil
		}
		markInUse(data, off, combined, hd.prevInUse)
		return ref, h.payloadAt(data, off, combined), nil
	}

	// Cannot grow in place: move.
	nref, npay, aerr := h.Allocate(n)
	if aerr != nil {
		return 0, nil, aerr
	}
	data = h.bytes() // Allocate may have grown the arena
	copy(npay, h.payloadAt(data, off, size))
	if ferr := h.Deallocate(ref); ferr != nil {
		return 0, nil, ferr
	}
	return nref, npay, nil
}
