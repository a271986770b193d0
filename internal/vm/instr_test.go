package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		name  string
		instr Instruction
	}{
		{"halt", Instruction{Op: Halt}},
		{"nop", Instruction{Op: Nop}},
		{"ret", Instruction{Op: Ret}},
		{"imm positive", Instruction{Op: Imm, Reg: RA1, Arg20: 12345}},
		{"imm negative", Instruction{Op: Imm, Reg: RA3, Arg20: -7}},
		{"load", Instruction{Op: Load, Reg: RA2, Arg20: -100}},
		{"copy", Instruction{Op: Copy, Reg: RA4, Src: RS1}},
		{"add two registers", Instruction{Op: Add, Reg: RA3, A: Reg(RA1), B: Reg(RA2)}},
		{"add register and literal", Instruction{Op: Add, Reg: RA3, A: Reg(RA1), B: Lit(-5)}},
		{"add two literals", Instruction{Op: Add, Reg: RA1, A: Lit(3), B: Lit(4)}},
		{"push", Instruction{Op: Push, Reg: RA6}},
		{"pop", Instruction{Op: Pop, Reg: SPReg}},
		{"compare", Instruction{Op: Compare, Reg: RA1, Src: RA2}},
		{"loadbool", Instruction{Op: LoadBool, Reg: RA5, LogOp: GE}},
		{"jump always", Instruction{Op: Jump, Cond: Always, Arg20: -20}},
		{"jump zero", Instruction{Op: Jump, Cond: Zero, Arg20: 1000}},
		{"call", Instruction{Op: Call, Arg20: 42}},
		{"loadoff", Instruction{Op: LoadOff, Reg: RA1, Base: RS1, Arg20: -3}},
		{"storeoff", Instruction{Op: StoreOff, Reg: RA2, Base: SPReg, Arg20: 8191}},
		{"sub", Instruction{Op: Sub, Reg: RA1, A: Reg(RA2), B: Lit(-9)}},
		{"mul", Instruction{Op: Mul, Reg: RA3, A: Reg(RA1), B: Reg(RA2)}},
		{"div", Instruction{Op: Div, Reg: RA3, A: Reg(RA1), B: Lit(2)}},
		{"and", Instruction{Op: And, Reg: RA1, A: Reg(RA2), B: Reg(RA3)}},
		{"or", Instruction{Op: Or, Reg: RA1, A: Reg(RA2), B: Lit(1)}},
		{"syscall println", Instruction{Op: Syscall, Reg: RA1, Arg20: int32(SysPrintln)}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			word := Encode(tc.instr)
			got, err := Decode(word)
			require.NoError(t, err)
			assert.Equal(t, tc.instr, got)
		})
	}
}

func TestEncodeProducesExactly32Bits(t *testing.T) {
	word := Encode(Instruction{Op: Add, Reg: RA1, A: Reg(RA2), B: Lit(-1)})
	assert.LessOrEqual(t, word, uint32(1<<32-1))
}

func TestDecodeUnknownOpcode(t *testing.T) {
	word := uint32(0x3F) << 26 // top 6 bits all set, past Ret
	_, err := Decode(word)
	require.Error(t, err)
	var uo UnknownOpcodeError
	assert.ErrorAs(t, err, &uo)
}

func TestRegisterOrLiteralEncodingIsTenBits(t *testing.T) {
	for _, rl := range []RegisterOrLiteral{Reg(RA1), Reg(SPReg), Lit(0), Lit(127), Lit(-128)} {
		enc := rl.encode()
		assert.LessOrEqual(t, enc, uint16(1<<10-1))
		assert.Equal(t, rl, decodeRegisterOrLiteral(enc))
	}
}

func TestSignExtend20(t *testing.T) {
	assert.Equal(t, int32(-1), signExtend20(0xFFFFF))
	assert.Equal(t, int32(0), signExtend20(0))
	assert.Equal(t, int32(-1<<19), signExtend20(1<<19))
	assert.Equal(t, int32(1<<19-1), signExtend20(1<<19-1))
}

func TestSignExtend14(t *testing.T) {
	assert.Equal(t, int32(-1), signExtend14(0x3FFF))
	assert.Equal(t, int32(0), signExtend14(0))
	assert.Equal(t, int32(-1<<13), signExtend14(1<<13))
	assert.Equal(t, int32(1<<13-1), signExtend14(1<<13-1))
}
