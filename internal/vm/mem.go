package vm

import (
	"fmt"

	"github.com/rill-lang/rill/internal/mem"
)

// MemoryLimitError is returned when an access would cross Limit.
type MemoryLimitError = mem.LimitError

// Memory is the VM's word-addressable array of 32-bit cells, backed by
// internal/mem.Words's sparse page allocator. Byte/half/word/doubleword
// accessors sit on top of the raw word cells; every address passed to
// those takes a BYTE address and composes underlying word accesses,
// splitting any access that straddles a word boundary into two.
type Memory struct {
	words mem.Words
}

// SetLimit caps addressable memory at n words; 0 means unlimited.
func (m *Memory) SetLimit(n uint32) { m.words.Limit = uint(n) }

// Size reports one past the highest word allocated so far. Memory is
// allocated by page, so this can exceed the highest addressed word plus
// one.
func (m *Memory) Size() uint32 { return uint32(m.words.Size()) }

// Load reads the word cell at the given WORD index (not a byte
// address) directly, with no alignment requirement of its own — it IS
// the raw word interface the byte accessors below build on.
func (m *Memory) Load(wordAddr uint32) (uint32, error) {
	return m.words.Load(uint(wordAddr))
}

// Store writes the word cell at the given WORD index.
func (m *Memory) Store(wordAddr uint32, v uint32) error {
	return m.words.Store(uint(wordAddr), v)
}

// StoreAll writes a contiguous run of words starting at wordAddr, used
// to load a compiled program in one call.
func (m *Memory) StoreAll(wordAddr uint32, values []uint32) error {
	return m.words.Store(uint(wordAddr), values...)
}

// Byte reads the single byte at byteAddr, composed from one aligned
// word access.
func (m *Memory) Byte(byteAddr uint32) (byte, error) {
	w, err := m.Load(byteAddr / 4)
	if err != nil {
		return 0, err
	}
	shift := (byteAddr % 4) * 8
	return byte(w >> shift), nil
}

// StoreByte writes the single byte at byteAddr via a read-modify-write
// of its containing word.
func (m *Memory) StoreByte(byteAddr uint32, b byte) error {
	wordAddr := byteAddr / 4
	w, err := m.Load(wordAddr)
	if err != nil {
		return err
	}
	shift := (byteAddr % 4) * 8
	w = w&^(0xFF<<shift) | uint32(b)<<shift
	return m.Store(wordAddr, w)
}

// Half reads a little-endian 16-bit half-word starting at byteAddr,
// which may straddle a word boundary; each constituent byte is its own
// word access.
func (m *Memory) Half(byteAddr uint32) (uint16, error) {
	b0, err := m.Byte(byteAddr)
	if err != nil {
		return 0, err
	}
	b1, err := m.Byte(byteAddr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(b0) | uint16(b1)<<8, nil
}

// StoreHalf writes a little-endian 16-bit half-word at byteAddr.
func (m *Memory) StoreHalf(byteAddr uint32, v uint16) error {
	if err := m.StoreByte(byteAddr, byte(v)); err != nil {
		return err
	}
	return m.StoreByte(byteAddr+1, byte(v>>8))
}

// Word reads a little-endian 32-bit word starting at byteAddr. Unlike
// Load this never requires alignment: an unaligned byteAddr is
// composed from two half-word (and in turn four single-byte) accesses,
// naturally splitting any boundary-straddling read.
func (m *Memory) Word(byteAddr uint32) (uint32, error) {
	if byteAddr%4 == 0 {
		return m.Load(byteAddr / 4)
	}
	lo, err := m.Half(byteAddr)
	if err != nil {
		return 0, err
	}
	hi, err := m.Half(byteAddr + 2)
	if err != nil {
		return 0, err
	}
	return uint32(lo) | uint32(hi)<<16, nil
}

// StoreWord writes a little-endian 32-bit word at byteAddr.
func (m *Memory) StoreWord(byteAddr uint32, v uint32) error {
	if byteAddr%4 == 0 {
		return m.Store(byteAddr/4, v)
	}
	if err := m.StoreHalf(byteAddr, uint16(v)); err != nil {
		return err
	}
	return m.StoreHalf(byteAddr+2, uint16(v>>16))
}

// Dword reads a little-endian 64-bit doubleword starting at byteAddr.
func (m *Memory) Dword(byteAddr uint32) (uint64, error) {
	lo, err := m.Word(byteAddr)
	if err != nil {
		return 0, err
	}
	hi, err := m.Word(byteAddr + 4)
	if err != nil {
		return 0, err
	}
	return uint64(lo) | uint64(hi)<<32, nil
}

// StoreDword writes a little-endian 64-bit doubleword at byteAddr.
func (m *Memory) StoreDword(byteAddr uint32, v uint64) error {
	if err := m.StoreWord(byteAddr, uint32(v)); err != nil {
		return err
	}
	return m.StoreWord(byteAddr+4, uint32(v>>32))
}

// Dump renders the word range [from, to) as "addr: hex" lines, mirroring
// the teacher's dumper.go presentation of dictionary/string storage.
func (m *Memory) Dump(from, to uint32) string {
	var out string
	for addr := from; addr < to; addr++ {
		w, _ := m.Load(addr)
		out += fmt.Sprintf("%04d: %08x\n", addr, w)
	}
	return out
}
