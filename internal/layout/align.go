package layout

// Alignment utilities. Chunks and payloads are 8-byte aligned; segment growth
// is rounded to the provider's page granularity.

// Align8 returns n aligned up to the next 8-byte boundary.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
func Align8(n int) int {
	return (n + ChunkAlignMask) & ^ChunkAlignMask
}

// Align8I32 returns n aligned up to the next 8-byte boundary.
// int32 version for use in allocator code to avoid G115 warnings.
func Align8I32(n int32) int32 {
	return (n + ChunkAlignMask) & ^int32(ChunkAlignMask)
}

// AlignUpI32 returns n aligned up to the next multiple of quantum.
// quantum must be a power of two.
func AlignUpI32(n, quantum int32) int32 {
	return (n + quantum - 1) & ^(quantum - 1)
}

// AlignDownI32 returns n aligned down to a multiple of quantum.
// quantum must be a power of two.
func AlignDownI32(n, quantum int32) int32 {
	return n & ^(quantum - 1)
}

// PadRequest converts a requested payload size into a legal chunk size:
// overhead added, rounded up to 8 bytes, and never below MinChunkSize.
func PadRequest(n int32) int32 {
	total := Align8I32(n + ChunkOverhead)
	if total < MinChunkSize {
		return MinChunkSize
	}
	return total
}
