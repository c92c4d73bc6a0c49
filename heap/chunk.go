package heap

import "github.com/joshuapare/heapkit/internal/layout"

// Chunk memory layout, offsets relative to the chunk start:
//
//	+0   prev-foot  size of the previous chunk, valid only while the
//	                previous chunk is free
//	+4   head       chunk size with in-use / prev-in-use flags packed in
//	                the low bits (sizes are multiples of 8)
//	+8   payload    handed to the caller while in use; while free, holds
//	                the fd/bk links and, for tree chunks, the node fields
//
// chunkHead is the unpacked form of the head word. All allocator logic works
// on this struct; the bit packing happens only in readHead/writeHead.
type chunkHead struct {
	size      int32
	inUse     bool
	prevInUse bool
}

func readHead(data []byte, off int32) chunkHead {
	w := layout.ReadU32(data, int(off)+layout.PrevFootSize)
	return chunkHead{
		size:      int32(w & layout.SizeMask),
		inUse:     w&layout.FlagInUse != 0,
		prevInUse: w&layout.FlagPrevInUse != 0,
	}
}

func writeHead(data []byte, off int32, h chunkHead) {
	w := uint32(h.size) & layout.SizeMask
	if h.inUse {
		w |= layout.FlagInUse
	}
	if h.prevInUse {
		w |= layout.FlagPrevInUse
	}
	layout.PutU32(data, int(off)+layout.PrevFootSize, w)
}

func chunkSize(data []byte, off int32) int32 {
	return int32(layout.ReadU32(data, int(off)+layout.PrevFootSize) & layout.SizeMask)
}

func readPrevFoot(data []byte, off int32) int32 {
	return layout.ReadI32(data, int(off))
}

// Free-chunk link accessors. Links are absolute chunk offsets stored
// little-endian inside the chunk body; layout.NilOff marks an empty link.

func fd(data []byte, off int32) int32         { return layout.ReadI32(data, int(off)+layout.FdOffset) }
func setFd(data []byte, off, v int32)         { layout.PutI32(data, int(off)+layout.FdOffset, v) }
func bk(data []byte, off int32) int32         { return layout.ReadI32(data, int(off)+layout.BkOffset) }
func setBk(data []byte, off, v int32)         { layout.PutI32(data, int(off)+layout.BkOffset, v) }
func left(data []byte, off int32) int32       { return layout.ReadI32(data, int(off)+layout.LeftOffset) }
func setLeft(data []byte, off, v int32)       { layout.PutI32(data, int(off)+layout.LeftOffset, v) }
func right(data []byte, off int32) int32      { return layout.ReadI32(data, int(off)+layout.RightOffset) }
func setRight(data []byte, off, v int32)      { layout.PutI32(data, int(off)+layout.RightOffset, v) }
func parent(data []byte, off int32) int32     { return layout.ReadI32(data, int(off)+layout.ParentOffset) }
func setParent(data []byte, off, v int32)     { layout.PutI32(data, int(off)+layout.ParentOffset, v) }
func treeIndex(data []byte, off int32) int32 { return layout.ReadI32(data, int(off)+layout.IndexOffset) }
func setTreeIndex(data []byte, off, v int32) { layout.PutI32(data, int(off)+layout.IndexOffset, v) }

// markFree writes a free chunk's boundary tags: its own head, the prev-foot
// copy at its end, and the cleared prev-in-use bit in the successor's head.
// The successor head must already exist (a chunk, the top chunk, or a fence).
func markFree(data []byte, off, size int32, prevInUse bool) {
	writeHead(data, off, chunkHead{size: size, prevInUse: prevInUse})
	layout.PutI32(data, int(off+size), size)
	nh := readHead(data, off+size)
	nh.prevInUse = false
	writeHead(data, off+size, nh)
}

// markInUse writes an allocated chunk's head and sets the prev-in-use bit in
// the successor's head. No footer is written; an in-use chunk's size is only
// recorded in its own head.
func markInUse(data []byte, off, size int32, prevInUse bool) {
	writeHead(data, off, chunkHead{size: size, inUse: true, prevInUse: prevInUse})
	nh := readHead(data, off+size)
	nh.prevInUse = true
	writeHead(data, off+size, nh)
}
