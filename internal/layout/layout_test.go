package layout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAlign8 verifies rounding behavior at and around boundaries.
func TestAlign8(t *testing.T) {
	cases := map[int]int{0: 0, 1: 8, 7: 8, 8: 8, 9: 16, 100: 104}
	for in, want := range cases {
		require.Equal(t, want, Align8(in), "Align8(%d)", in)
		require.Equal(t, int32(want), Align8I32(int32(in)))
	}
}

// TestAlignQuantum verifies up/down alignment against a page quantum.
func TestAlignQuantum(t *testing.T) {
	require.Equal(t, int32(4096), AlignUpI32(1, 4096))
	require.Equal(t, int32(4096), AlignUpI32(4096, 4096))
	require.Equal(t, int32(8192), AlignUpI32(4097, 4096))
	require.Equal(t, int32(0), AlignDownI32(4095, 4096))
	require.Equal(t, int32(4096), AlignDownI32(8191, 4096))
}

// TestPadRequest verifies overhead, rounding, and the minimum chunk floor.
func TestPadRequest(t *testing.T) {
	require.Equal(t, int32(MinChunkSize), PadRequest(0))
	require.Equal(t, int32(MinChunkSize), PadRequest(8))
	require.Equal(t, int32(24), PadRequest(9))
	require.Equal(t, int32(264), PadRequest(256))
	require.Zero(t, PadRequest(12345)%ChunkAlignment)
}

// TestEncodingRoundTrip verifies the little-endian accessors agree with each
// other, including negative offsets.
func TestEncodingRoundTrip(t *testing.T) {
	buf := make([]byte, 16)

	PutU32(buf, 4, 0xDEADBEEF)
	require.Equal(t, uint32(0xDEADBEEF), ReadU32(buf, 4))

	PutI32(buf, 8, -2)
	require.Equal(t, int32(-2), ReadI32(buf, 8))
	require.Equal(t, RingOff, ReadI32(buf, 8))
}
