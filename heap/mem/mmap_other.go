//go:build !unix

package mem

import "github.com/joshuapare/heapkit/internal/layout"

// MmapArena falls back to a slice-backed arena on platforms without the
// anonymous-mapping path. The max reservation is enforced as a budget.
type MmapArena struct {
	inner *LimitArena
}

// NewMmapArena returns a slice-backed arena capped at max bytes.
func NewMmapArena(max int) (*MmapArena, error) {
	if max <= 0 {
		return nil, ErrShrinkRange
	}
	if max > layout.MaxHeapSize {
		max = layout.MaxHeapSize
	}
	return &MmapArena{inner: NewLimitArena(NewSliceArena(), max)}, nil
}

// Bytes returns the current address space.
func (a *MmapArena) Bytes() []byte { return a.inner.Bytes() }

// End reports the current top of the address space.
func (a *MmapArena) End() int { return a.inner.End() }

// Grow extends the arena by n bytes.
func (a *MmapArena) Grow(n int) (int, error) { return a.inner.Grow(n) }

// Close releases the arena.
func (a *MmapArena) Close() error {
	a.inner = nil
	return nil
}
