// Package heap implements a general-purpose memory allocator over a growable
// byte arena, in the boundary-tag tradition of Doug Lea's malloc.
//
// The heap hands out references (absolute arena offsets) rather than
// pointers, so allocations stay valid when the underlying arena reallocates
// during growth. Every chunk carries its size and two flag bits in a packed
// head word; free chunks additionally record their size in a footer so the
// deallocator can coalesce backward without any global scan.
//
// Free memory is organized by size:
//
//   - 32 exact-size small bins at 8-byte granularity below 256 bytes,
//     indexed by a bitmap so the smallest adequate bin is one bit scan away
//   - 32 best-fit binary search trees for everything larger, one per
//     logarithmic size bucket, with equal-size chunks sharing a node ring
//   - a designated victim caching the most recent split remainder, which
//     keeps consecutive similar-size requests adjacent in memory
//   - the top chunk at the extensible end of the newest segment
//
// Allocation consults those sources in order and grows the arena only when
// all of them fail. Deallocation coalesces both directions eagerly, so two
// free chunks are never adjacent.
//
// Backing memory comes from a mem.Arena; the default SliceArena grows a
// plain byte slice, and MmapArena reserves address space up front so growth
// never moves memory. Heaps are not safe for concurrent use.
//
// Set HEAP_LOG_ALLOC=1 to trace allocator decisions on stderr.
package heap
