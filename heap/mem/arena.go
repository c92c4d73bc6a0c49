// Package mem provides address-space providers for the heap allocator.
//
// An Arena models a growable linear address space, the sbrk-equivalent the
// allocator obtains segments from. Growth is requested in bytes and may fail
// when a platform or policy ceiling is reached; failure is reported as an
// error, never a crash.
//
// Implementations:
//
//   - SliceArena: growable in-process byte slice (the default)
//   - MmapArena: anonymous mapping committed page-by-page (unix)
//   - LimitArena: wrapper enforcing a growth budget, for out-of-memory paths
//   - GapArena: wrapper injecting address gaps between growths, forcing the
//     allocator onto its multi-segment paths
package mem

// Arena is a growable linear address space addressed by byte offsets.
//
// Offsets returned by Grow are stable: Bytes() may be reallocated by a
// growth, but the contents at every previously returned offset survive.
type Arena interface {
	// Bytes returns the current address space. The slice is invalidated by
	// the next Grow call; callers must re-fetch after growing.
	Bytes() []byte

	// Grow extends the address space by at least n bytes and returns the
	// base offset of the new region. The region is zero-filled. Growth is
	// contiguous (base == previous End) unless the implementation documents
	// otherwise.
	Grow(n int) (int, error)

	// End reports the current top of the address space.
	End() int
}

// Shrinker is implemented by arenas that can release their tail back to the
// platform. Arenas without the capability simply do not implement it.
type Shrinker interface {
	// Shrink releases the last n bytes of the address space.
	Shrink(n int) error
}
