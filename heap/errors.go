package heap

import "errors"

var (
	// ErrNoMemory indicates the arena refused to grow and no free chunk fits.
	ErrNoMemory = errors.New("heap: out of memory")

	// ErrBadRef indicates a reference that is unaligned, out of bounds, or
	// not inside any known segment.
	ErrBadRef = errors.New("heap: bad chunk reference")

	// ErrDoubleFree indicates a reference whose chunk is already free.
	ErrDoubleFree = errors.New("heap: chunk already free")

	// ErrCorrupt indicates boundary tags or free-list links that disagree.
	// The heap must be considered unusable once this is returned.
	ErrCorrupt = errors.New("heap: metadata corrupted")

	// ErrBadSize indicates a negative allocation size.
	ErrBadSize = errors.New("heap: negative allocation size")
)
