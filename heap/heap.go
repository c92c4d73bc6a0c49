package heap

import (
	"fmt"
	"os"

	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/internal/layout"
)

// Debug flag - set to true to enable verbose logging (compile-time toggle).
const debugHeap = false

// Runtime debug flag for allocation logging - controlled by HEAP_LOG_ALLOC env var.
var logAlloc = os.Getenv("HEAP_LOG_ALLOC") != ""

// Ref is a caller-visible reference to a live allocation: the absolute arena
// offset of the chunk payload. Refs are stable across arena growth.
type Ref = uint32

// Config tunes growth behavior. The zero value is not valid; use one of the
// presets or start from ConfigDefault.
type Config struct {
	// Name for this configuration (for benchmarking)
	Name string

	// GrowthQuantum is the granularity of arena growth. Must be a power of
	// two and at least one page for production use; tests shrink it to keep
	// fixtures small.
	GrowthQuantum int32

	// TrimRetain is the top-chunk size Trim leaves resident.
	TrimRetain int32
}

// Predefined configurations.
var (
	// ConfigDefault grows in linear-memory pages, the behavior of the
	// classic sbrk-backed allocator.
	ConfigDefault = Config{
		Name:          "Default",
		GrowthQuantum: layout.PageSize,
		TrimRetain:    layout.PageSize,
	}

	// ConfigCompact grows in 4 KiB steps and trims aggressively. Intended
	// for tests and short-lived heaps.
	ConfigCompact = Config{
		Name:          "Compact",
		GrowthQuantum: 4096,
		TrimRetain:    0,
	}
)

// maxRequest caps a single allocation so padding and growth slack can never
// overflow the 2 GiB offset space.
const maxRequest = layout.MaxHeapSize - 4*layout.PageSize

// Heap is a general-purpose allocator over a growable byte arena.
//
// Free memory is tracked in 32 exact-size small bins (8-byte granularity,
// bitmap-indexed), 32 best-fit tree bins for larger chunks, a designated
// victim caching the most recent split remainder, and the top chunk at the
// extensible end of the newest segment. Allocation tries those sources in
// that order and grows the arena only when all of them fail.
//
// A Heap is not safe for concurrent use; callers must synchronize externally.
type Heap struct {
	a   mem.Arena
	cfg Config

	// Bitmap-indexed free structures. A set bit means the bin is non-empty.
	smallMap  uint32
	treeMap   uint32
	smallBins [layout.NumSmallBins]int32
	treeBins  [layout.NumTreeBins]int32

	// Designated victim: the most recently split remainder, checked before
	// any bin search for medium requests.
	dvOff  int32
	dvSize int32

	// Top chunk: the extensible tail of the newest segment.
	topOff  int32
	topSize int32

	segs []segment

	stats Stats
}

// New creates a heap over the given arena. A nil arena gets a SliceArena; a
// nil config gets ConfigDefault. No memory is obtained until the first
// allocation.
func New(a mem.Arena, cfg *Config) *Heap {
	if a == nil {
		a = mem.NewSliceArena()
	}
	if cfg == nil {
		cfg = &ConfigDefault
	}
	h := &Heap{
		a:      a,
		cfg:    *cfg,
		dvOff:  layout.NilOff,
		topOff: layout.NilOff,
	}
	for i := range h.smallBins {
		h.smallBins[i] = layout.NilOff
	}
	for i := range h.treeBins {
		h.treeBins[i] = layout.NilOff
	}
	return h
}

func (h *Heap) bytes() []byte { return h.a.Bytes() }

// Allocate returns a reference to at least n usable bytes, 8-byte aligned and
// zero-overlapping with every other live allocation. n may be zero; the
// result is then a distinct minimum-size chunk. The returned slice aliases
// heap memory and is invalidated by the next operation that grows the arena;
// re-slice via Payload when in doubt.
func (h *Heap) Allocate(n int) (Ref, []byte, error) {
	h.stats.AllocCalls++

	if n < 0 {
		return 0, nil, ErrBadSize
	}
	if n > maxRequest {
		return 0, nil, fmt.Errorf("%w: request of %d bytes exceeds address space", ErrNoMemory, n)
	}
	nb := layout.PadRequest(int32(n))
	data := h.bytes()

	if logAlloc {
		debugLogf("alloc request=%d padded=%d", n, nb)
	}

	if nb < layout.MaxSmallSize {
		idx := smallIndex(nb)

		// Exact bin, or the next size up: both are remainderless fits.
		if b := h.findSmallBin(idx); b == idx || b == idx+1 {
			size := smallSizeFor(b)
			off := h.popSmall(data, b)
			markInUse(data, off, size, readHead(data, off).prevInUse)
			h.stats.SmallBinAllocs++
			return h.finish(off, size, false), h.payloadAt(data, off, size), nil
		}

		if nb > h.dvSize {
			// Smallest larger small bin, splitting the front chunk.
			if b := h.findSmallBin(idx + 2); b >= 0 {
				size := smallSizeFor(b)
				off := h.popSmall(data, b)
				h.splitToDv(data, off, size, nb)
				h.stats.SmallBinAllocs++
				return h.finish(off, nb, false), h.payloadAt(data, off, nb), nil
			}
			// All small bins empty above us: take the smallest tree chunk.
			if t := h.treeSmallest(data); t != layout.NilOff {
				size := chunkSize(data, t)
				if err := h.removeTree(data, t); err != nil {
					return 0, nil, err
				}
				h.splitToDv(data, t, size, nb)
				h.stats.TreeBinAllocs++
				return h.finish(t, nb, false), h.payloadAt(data, t, nb), nil
			}
		}
	} else if h.treeMap != 0 {
		off, size, err := h.allocLarge(data, nb)
		if err != nil {
			return 0, nil, err
		}
		if off != layout.NilOff {
			h.stats.TreeBinAllocs++
			return h.finish(off, size, false), h.payloadAt(data, off, size), nil
		}
	}

	// Designated victim.
	if nb <= h.dvSize {
		off, size := h.allocFromDv(data, nb)
		h.stats.DvAllocs++
		return h.finish(off, size, false), h.payloadAt(data, off, size), nil
	}

	// Top chunk.
	if nb+layout.MinChunkSize <= h.topSize {
		off := h.splitTop(data, nb)
		h.stats.TopAllocs++
		return h.finish(off, nb, false), h.payloadAt(data, off, nb), nil
	}

	// Everything above failed: ask the arena for more address space. Every
	// bin, the victim, and the top were already inspected, so a growth
	// failure here is a genuine out-of-memory condition.
	if err := h.sysGrow(nb); err != nil {
		return 0, nil, err
	}
	data = h.bytes()
	if nb+layout.MinChunkSize > h.topSize {
		return 0, nil, fmt.Errorf("%w: top chunk short after grow", ErrCorrupt)
	}
	off := h.splitTop(data, nb)
	h.stats.TopAllocs++
	return h.finish(off, nb, true), h.payloadAt(data, off, nb), nil
}

// allocFromDv carves nb bytes from the designated victim, keeping the
// remainder as the new victim when it is still a legal chunk.
func (h *Heap) allocFromDv(data []byte, nb int32) (int32, int32) {
	off, size := h.dvOff, h.dvSize
	pin := readHead(data, off).prevInUse
	rem := size - nb
	if rem >= layout.MinChunkSize {
		h.dvOff, h.dvSize = off+nb, rem
		markFree(data, off+nb, rem, true)
		markInUse(data, off, nb, pin)
		h.stats.SplitCount++
		return off, nb
	}
	h.dvOff, h.dvSize = layout.NilOff, 0
	markInUse(data, off, size, pin)
	return off, size
}

// splitTop carves nb bytes off the front of the top chunk. The caller must
// ensure the remainder stays at least MinChunkSize.
func (h *Heap) splitTop(data []byte, nb int32) int32 {
	off := h.topOff
	h.topOff += nb
	h.topSize -= nb
	h.writeTop(data)
	markInUse(data, off, nb, true)
	h.stats.SplitCount++
	return off
}

// splitToDv marks [off, off+nb) in use and turns the remainder of a size-byte
// free chunk into the new designated victim (or absorbs it when too small).
func (h *Heap) splitToDv(data []byte, off, size, nb int32) {
	pin := readHead(data, off).prevInUse
	rem := size - nb
	if rem >= layout.MinChunkSize {
		markFree(data, off+nb, rem, true)
		markInUse(data, off, nb, pin)
		h.replaceDv(data, off+nb, rem)
		h.stats.SplitCount++
		return
	}
	markInUse(data, off, size, pin)
}

// replaceDv installs a new designated victim, pushing the old one into the
// ordinary free structures.
func (h *Heap) replaceDv(data []byte, off, size int32) {
	if h.dvOff != layout.NilOff && h.dvSize > 0 {
		h.insertChunk(data, h.dvOff, h.dvSize)
	}
	h.dvOff, h.dvSize = off, size
}

// allocLarge serves a large request from the tree bins with a best-fit
// search. Returns NilOff (no error) when the designated victim would leave a
// tighter remainder, so the caller falls through to the victim path.
func (h *Heap) allocLarge(data []byte, nb int32) (int32, int32, error) {
	best := h.treeBestFit(data, nb)
	if best == layout.NilOff {
		return layout.NilOff, 0, nil
	}
	size := chunkSize(data, best)
	if h.dvSize >= nb && h.dvSize-nb < size-nb {
		return layout.NilOff, 0, nil
	}
	if err := h.removeTree(data, best); err != nil {
		return 0, 0, err
	}
	pin := readHead(data, best).prevInUse
	rem := size - nb
	if rem >= layout.MinChunkSize {
		markFree(data, best+nb, rem, true)
		markInUse(data, best, nb, pin)
		h.insertChunk(data, best+nb, rem)
		h.stats.SplitCount++
		return best, nb, nil
	}
	markInUse(data, best, size, pin)
	return best, size, nil
}

// insertChunk files a free chunk into the small or tree bins by size. The
// chunk's boundary tags must already be written.
func (h *Heap) insertChunk(data []byte, off, size int32) {
	if size < layout.MaxSmallSize {
		h.pushSmall(data, off, size)
	} else {
		h.insertTree(data, off, size)
	}
}

// unlinkFree removes a binned free chunk found via boundary tags during
// coalescing.
func (h *Heap) unlinkFree(data []byte, off, size int32) error {
	if size < layout.MaxSmallSize {
		return h.unlinkSmall(data, off, size)
	}
	return h.removeTree(data, off)
}

// Deallocate returns a previously allocated chunk to the heap, coalescing
// with free neighbors and merging into the top chunk or designated victim
// when adjacent. The reference is validated before any metadata is trusted:
// unaligned, unknown, or already-free references are rejected.
func (h *Heap) Deallocate(ref Ref) error {
	h.stats.FreeCalls++
	data := h.bytes()

	off, hd, err := h.resolve(data, ref)
	if err != nil {
		return err
	}
	size := hd.size
	h.stats.BytesFreed += int64(size)

	seg, _ := h.segmentFor(off)
	pin := hd.prevInUse

	// Coalesce backward.
	if !pin {
		psize := readPrevFoot(data, off)
		poff := off - psize
		if psize < layout.MinChunkSize || poff < seg.base {
			return fmt.Errorf("%w: prev-foot of chunk at 0x%X", ErrCorrupt, off)
		}
		ph := readHead(data, poff)
		if ph.inUse || ph.size != psize {
			return fmt.Errorf("%w: boundary tags disagree at 0x%X", ErrCorrupt, poff)
		}
		if poff != h.dvOff {
			if uerr := h.unlinkFree(data, poff, psize); uerr != nil {
				return uerr
			}
		}
		h.stats.CoalesceBackward++
		off = poff
		size += psize
		pin = ph.prevInUse
	}

	next := off + size

	// Merge into the top chunk when adjacent to it.
	if next == h.topOff {
		if off == h.dvOff {
			h.dvOff, h.dvSize = layout.NilOff, 0
		}
		h.topOff = off
		h.topSize += size
		h.writeTop(data)
		return nil
	}

	// Merge with the designated victim when it directly follows.
	if next == h.dvOff {
		size += h.dvSize
		h.dvOff, h.dvSize = off, size
		markFree(data, off, size, pin)
		return nil
	}

	// Coalesce forward with a binned free chunk.
	nh := readHead(data, next)
	if !nh.inUse {
		if uerr := h.unlinkFree(data, next, nh.size); uerr != nil {
			return uerr
		}
		h.stats.CoalesceForward++
		size += nh.size
	}

	if off == h.dvOff {
		// The victim absorbed its freed neighbor; keep it as the victim.
		h.dvSize = size
		markFree(data, off, size, pin)
		return nil
	}

	markFree(data, off, size, pin)
	h.insertChunk(data, off, size)
	return nil
}

// resolve validates a reference and returns its chunk offset and head.
func (h *Heap) resolve(data []byte, ref Ref) (int32, chunkHead, error) {
	if ref < layout.PayloadOffset || ref%layout.ChunkAlignment != 0 {
		return 0, chunkHead{}, ErrBadRef
	}
	off := int32(ref) - layout.PayloadOffset
	seg, ok := h.segmentFor(off)
	if !ok {
		return 0, chunkHead{}, ErrBadRef
	}
	hd := readHead(data, off)
	if hd.size < layout.MinChunkSize || off+hd.size > seg.fenceOff() {
		return 0, chunkHead{}, fmt.Errorf("%w: chunk head at 0x%X", ErrCorrupt, off)
	}
	if !hd.inUse {
		return 0, chunkHead{}, ErrDoubleFree
	}
	return off, hd, nil
}

// finish applies per-allocation accounting and returns the payload reference.
func (h *Heap) finish(off, size int32, grew bool) Ref {
	if grew {
		h.stats.AllocSlowPath++
	} else {
		h.stats.AllocFastPath++
	}
	h.stats.BytesAllocated += int64(size)
	if logAlloc {
		debugLogf("alloc done off=%d size=%d grew=%v", off, size, grew)
	}
	return Ref(off + layout.PayloadOffset)
}

func (h *Heap) payloadAt(data []byte, off, size int32) []byte {
	return data[off+layout.PayloadOffset : off+size]
}

// Payload re-derives the usable byte slice for a live reference. Needed after
// any operation that may have grown the arena, which invalidates previously
// returned slices.
func (h *Heap) Payload(ref Ref) ([]byte, error) {
	data := h.bytes()
	off, hd, err := h.resolve(data, ref)
	if err != nil {
		return nil, err
	}
	return h.payloadAt(data, off, hd.size), nil
}

// UsableSize reports the payload capacity of a live allocation, which may
// exceed the requested size due to alignment and minimum chunk size.
func (h *Heap) UsableSize(ref Ref) (int, error) {
	data := h.bytes()
	_, hd, err := h.resolve(data, ref)
	if err != nil {
		return 0, err
	}
	return int(hd.size - layout.ChunkOverhead), nil
}

// OwnsRef reports whether ref names a live allocation in this heap.
func (h *Heap) OwnsRef(ref Ref) bool {
	data := h.bytes()
	_, _, err := h.resolve(data, ref)
	return err == nil
}

// debugLogf prints debug messages when allocation logging is enabled.
func debugLogf(format string, args ...any) {
	if debugHeap || logAlloc {
		fmt.Fprintf(os.Stderr, "[HEAP] "+format+"\n", args...)
	}
}
