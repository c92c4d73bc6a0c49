// Package layout houses the binary layout constants and low-level encoders
// for heap chunks. The goal is to keep all bit-packing and byte-order concerns
// in one place so the allocator packages above can work with plain structs and
// offsets instead of manual bit-twiddling.
package layout

const (
	// PageSize is the growth granularity requested from the address-space
	// provider. Matches a WebAssembly linear-memory page (64 KiB).
	PageSize = 0x10000

	// ChunkAlignment is the required alignment of chunks and payloads.
	ChunkAlignment = 8

	// ChunkAlignMask is the bitmask used for 8-byte alignment (ChunkAlignment - 1).
	ChunkAlignMask = ChunkAlignment - 1

	// PrevFootSize is the size of the leading word of a chunk, holding the
	// previous chunk's size while the previous chunk is free.
	PrevFootSize = 4

	// HeadSize is the size of the head word (size plus packed flags).
	HeadSize = 4

	// ChunkOverhead is the number of bookkeeping bytes at the front of every
	// chunk: the prev-foot word followed by the head word.
	ChunkOverhead = PrevFootSize + HeadSize

	// PayloadOffset is the offset of the caller-visible payload within a chunk.
	PayloadOffset = ChunkOverhead

	// MinChunkSize is the smallest legal chunk: overhead plus room for the
	// fd/bk links a free chunk must carry.
	MinChunkSize = 16

	// MinTreeChunkSize is the smallest chunk that can carry tree-node fields
	// (left, right, parent, bin index) in addition to fd/bk.
	MinTreeChunkSize = 32

	// MaxSmallSize is the exclusive upper bound for chunks tracked in small
	// bins. Chunks at or above this size go to the tree bins.
	MaxSmallSize = 256

	// NumSmallBins is the number of exact-size small bins. Bin index is
	// size >> SmallBinShift, so indices 0 and 1 are never used (sizes below
	// MinChunkSize do not exist).
	NumSmallBins = 32

	// SmallBinShift converts a small chunk size to its bin index.
	SmallBinShift = 3

	// NumTreeBins is the number of size-range buckets for large chunks.
	NumTreeBins = 32

	// TreeBinShift is the power of two of the first tree bucket's base size.
	TreeBinShift = 8

	// FenceSize is the size of the pseudo-chunk terminating every segment.
	// A fence carries only a prev-foot and head word and is permanently
	// marked in use so coalescing can never run past a segment end.
	FenceSize = 8

	// MaxHeapSize caps the arena at 2 GiB - 1 so every offset fits in int32.
	MaxHeapSize = 0x7FFFFFFF
)

// Field offsets within a free chunk, relative to the chunk start.
const (
	FdOffset     = 8  // forward link (all free chunks)
	BkOffset     = 12 // backward link (all free chunks)
	LeftOffset   = 16 // left child (tree chunks only)
	RightOffset  = 20 // right child (tree chunks only)
	ParentOffset = 24 // parent node, or RingOff for same-size ring members
	IndexOffset  = 28 // tree bin index (tree chunks only)
)

// Head word flag bits. Chunk sizes are multiples of 8, leaving the low three
// bits of the head word free for boundary-tag flags.
const (
	FlagInUse     = 0x1
	FlagPrevInUse = 0x2
	FlagMask      = FlagInUse | FlagPrevInUse
	SizeMask      = ^uint32(0x7)
)

// Sentinel offsets used in link fields and bin tables.
const (
	// NilOff marks an empty link or bin slot. Offset 0 is a valid chunk
	// address (the first chunk of the first segment), so links use -1.
	NilOff = int32(-1)

	// RingOff in a chunk's parent field marks a same-size ring member that
	// is not itself a tree node.
	RingOff = int32(-2)
)
