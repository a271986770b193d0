package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLoadStoreWord(t *testing.T) {
	var mem Memory
	require.NoError(t, mem.Store(5, 0xDEADBEEF))
	v, err := mem.Load(5)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), v)

	v, err = mem.Load(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v, "unwritten cells read back as 0")
}

func TestMemoryStoreAllLoadsContiguousRun(t *testing.T) {
	var mem Memory
	require.NoError(t, mem.StoreAll(3000, []uint32{1, 2, 3}))

	for i, want := range []uint32{1, 2, 3} {
		v, err := mem.Load(3000 + uint32(i))
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}
}

func TestMemoryLimit(t *testing.T) {
	var mem Memory
	mem.SetLimit(10)
	require.NoError(t, mem.Store(9, 1))
	err := mem.Store(10, 1)
	require.Error(t, err)
	var mle MemoryLimitError
	assert.ErrorAs(t, err, &mle)
}

// TestWordByteAliasing checks that writing a single byte inside a word
// and reading the word back only changes that one byte's worth of bits.
func TestWordByteAliasing(t *testing.T) {
	var mem Memory
	require.NoError(t, mem.Store(2, 0x11223344))

	require.NoError(t, mem.StoreByte(2*4+1, 0xAB))

	w, err := mem.Word(2 * 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1122AB44), w)
}

func TestHalfStraddlesWordBoundary(t *testing.T) {
	var mem Memory
	require.NoError(t, mem.Store(0, 0xFF000000)) // byte 3 (highest) is 0xFF
	require.NoError(t, mem.Store(1, 0x000000FF)) // byte 0 (lowest) is 0xFF

	// byte 3 of word 0 and byte 0 of word 1 together form this half-word
	half, err := mem.Half(3)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xFFFF), half)
}

func TestUnalignedWordAccessComposesFromHalves(t *testing.T) {
	var mem Memory
	require.NoError(t, mem.StoreWord(2, 0xCAFEBABE))
	v, err := mem.Word(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), v)
}

func TestDwordRoundTrip(t *testing.T) {
	var mem Memory
	require.NoError(t, mem.StoreDword(0, 0x0102030405060708))
	v, err := mem.Dword(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), v)
}

func TestDump(t *testing.T) {
	var mem Memory
	require.NoError(t, mem.Store(3000, 1))
	out := mem.Dump(3000, 3002)
	assert.Equal(t, "3000: 00000001\n3001: 00000000\n", out)
}
