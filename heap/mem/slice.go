package mem

import (
	"github.com/joshuapare/heapkit/internal/layout"
)

// SliceArena is the default in-process address space: a byte slice grown by
// reslicing or reallocation. Growth is always contiguous.
type SliceArena struct {
	data []byte
}

// NewSliceArena returns an empty slice-backed arena.
func NewSliceArena() *SliceArena {
	return &SliceArena{}
}

// Bytes returns the current address space.
func (a *SliceArena) Bytes() []byte { return a.data }

// End reports the current top of the address space.
func (a *SliceArena) End() int { return len(a.data) }

// Grow extends the arena by n zero bytes and returns the base offset of the
// new region.
func (a *SliceArena) Grow(n int) (int, error) {
	if n <= 0 {
		return 0, ErrShrinkRange
	}
	base := len(a.data)
	if int64(base)+int64(n) > layout.MaxHeapSize {
		return 0, ErrTooLarge
	}
	if base+n <= cap(a.data) {
		a.data = a.data[:base+n]
		return base, nil
	}
	// Reallocate with slack so steady growth does not copy every time.
	grown := make([]byte, base+n, nextCap(base+n))
	copy(grown, a.data)
	a.data = grown
	return base, nil
}

// Shrink releases the last n bytes. Capacity is retained for reuse.
func (a *SliceArena) Shrink(n int) error {
	if n < 0 || n > len(a.data) {
		return ErrShrinkRange
	}
	end := len(a.data) - n
	// Zero the released tail so a later Grow hands back clean memory.
	clear(a.data[end:len(a.data)])
	a.data = a.data[:end]
	return nil
}

// nextCap picks a capacity at least need, doubling up to 16 MiB steps.
func nextCap(need int) int {
	c := 1 << 16
	for c < need {
		if c >= 1<<24 {
			c += 1 << 24
		} else {
			c <<= 1
		}
	}
	if c > layout.MaxHeapSize {
		c = layout.MaxHeapSize
	}
	return c
}
