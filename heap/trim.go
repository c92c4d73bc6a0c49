package heap

import (
	"fmt"

	"github.com/joshuapare/heapkit/heap/mem"
	"github.com/joshuapare/heapkit/internal/layout"
)

// Trim gives unused top-chunk memory back to the arena, keeping at least pad
// usable bytes (or the configured TrimRetain, whichever is larger) resident.
// It returns the number of bytes released.
//
// Trim is a no-op when the arena does not support shrinking, when the top
// chunk does not sit at the arena's current end, or when less than one growth
// quantum is releasable.
func (h *Heap) Trim(pad int) (int, error) {
	if pad < 0 {
		return 0, ErrBadSize
	}
	sh, ok := h.a.(mem.Shrinker)
	if !ok || len(h.segs) == 0 {
		return 0, nil
	}
	last := h.segs[len(h.segs)-1]
	if int(last.end()) != h.a.End() || h.topOff < last.base {
		return 0, nil
	}

	keep := max(int32(pad), h.cfg.TrimRetain)
	release := layout.AlignDownI32(h.topSize-keep-layout.MinChunkSize, h.cfg.GrowthQuantum)
	if release < h.cfg.GrowthQuantum {
		return 0, nil
	}

	if err := sh.Shrink(int(release)); err != nil {
		return 0, fmt.Errorf("arena shrink of %d bytes failed: %w", release, err)
	}
	h.segs[len(h.segs)-1].size -= release
	h.topSize -= release
	h.writeTop(h.bytes())

	h.stats.TrimCalls++
	h.stats.TrimBytes += int64(release)
	if logAlloc {
		debugLogf("trim released=%d top=%d", release, h.topSize)
	}
	return int(release), nil
}
