//go:build unix

package mem

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/joshuapare/heapkit/internal/layout"
)

// MmapArena reserves a fixed range of anonymous memory up front and commits
// it page-by-page as the heap grows. Reservation is PROT_NONE, so untouched
// pages cost address space only; growth is always contiguous within the
// reservation.
type MmapArena struct {
	mapping []byte
	end     int
}

// NewMmapArena reserves max bytes of address space. max is rounded up to the
// page size and capped at 2 GiB - 1.
func NewMmapArena(max int) (*MmapArena, error) {
	if max <= 0 {
		return nil, ErrShrinkRange
	}
	if max > layout.MaxHeapSize {
		max = layout.MaxHeapSize
	}
	max = int(layout.AlignUpI32(int32(max), layout.PageSize))
	m, err := unix.Mmap(-1, 0, max, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("mem: reserve %d bytes: %w", max, err)
	}
	return &MmapArena{mapping: m}, nil
}

// Bytes returns the committed part of the reservation.
func (a *MmapArena) Bytes() []byte { return a.mapping[:a.end] }

// End reports the current top of the committed region.
func (a *MmapArena) End() int { return a.end }

// Grow commits n more bytes of the reservation.
func (a *MmapArena) Grow(n int) (int, error) {
	if n <= 0 {
		return 0, ErrShrinkRange
	}
	if a.end+n > len(a.mapping) {
		return 0, ErrTooLarge
	}
	if err := unix.Mprotect(a.mapping[a.end:a.end+n], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return 0, fmt.Errorf("mem: commit %d bytes: %w", n, err)
	}
	base := a.end
	a.end += n
	return base, nil
}

// Shrink decommits the last n bytes, returning the pages to the kernel.
func (a *MmapArena) Shrink(n int) error {
	if n < 0 || n > a.end {
		return ErrShrinkRange
	}
	tail := a.mapping[a.end-n : a.end]
	if err := unix.Madvise(tail, unix.MADV_DONTNEED); err != nil {
		return fmt.Errorf("mem: decommit %d bytes: %w", n, err)
	}
	if err := unix.Mprotect(tail, unix.PROT_NONE); err != nil {
		return fmt.Errorf("mem: decommit %d bytes: %w", n, err)
	}
	a.end -= n
	return nil
}

// Close releases the entire reservation. The arena must not be used after.
func (a *MmapArena) Close() error {
	if a.mapping == nil {
		return nil
	}
	err := unix.Munmap(a.mapping)
	a.mapping = nil
	a.end = 0
	return err
}
