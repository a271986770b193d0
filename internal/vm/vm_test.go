package vm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assemble(instrs ...Instruction) []uint32 {
	prog := make([]uint32, len(instrs))
	for i, instr := range instrs {
		prog[i] = Encode(instr)
	}
	return prog
}

func TestRunAddExample(t *testing.T) {
	prog := assemble(
		Instruction{Op: Imm, Reg: RA1, Arg20: 2},
		Instruction{Op: Imm, Reg: RA2, Arg20: 3},
		Instruction{Op: Add, Reg: RA3, A: Reg(RA1), B: Reg(RA2)},
		Instruction{Op: Halt},
	)

	machine := New()
	require.NoError(t, machine.Load(prog))
	require.NoError(t, machine.Run(context.Background()))

	assert.Equal(t, uint32(5), machine.Regs.Get(RA3))
	assert.Equal(t, CondPositive, machine.Regs.Cond)
}

func TestRunPushPopRoundTrip(t *testing.T) {
	prog := assemble(
		Instruction{Op: Imm, Reg: RA1, Arg20: 99},
		Instruction{Op: Push, Reg: RA1},
		Instruction{Op: Imm, Reg: RA1, Arg20: 0},
		Instruction{Op: Pop, Reg: RA2},
		Instruction{Op: Halt},
	)

	machine := New()
	require.NoError(t, machine.Load(prog))
	require.NoError(t, machine.Run(context.Background()))

	assert.Equal(t, uint32(99), machine.Regs.Get(RA2))
	assert.Equal(t, InitialSP, machine.Regs.SP(), "stack returns to its initial depth")
}

func TestRunPopUnderflowHalts(t *testing.T) {
	prog := assemble(Instruction{Op: Pop, Reg: RA1})

	machine := New()
	require.NoError(t, machine.Load(prog))
	err := machine.Run(context.Background())
	require.Error(t, err)
	var he HaltError
	require.ErrorAs(t, err, &he)
	var su StackUnderflowError
	assert.ErrorAs(t, err, &su)
}

func TestRunCompareAndLoadBool(t *testing.T) {
	prog := assemble(
		Instruction{Op: Imm, Reg: RA1, Arg20: 7},
		Instruction{Op: Imm, Reg: RA2, Arg20: 7},
		Instruction{Op: Compare, Reg: RA1, Src: RA2},
		Instruction{Op: LoadBool, Reg: RA3, LogOp: EQ},
		Instruction{Op: Halt},
	)

	machine := New()
	require.NoError(t, machine.Load(prog))
	require.NoError(t, machine.Run(context.Background()))

	assert.Equal(t, uint32(1), machine.Regs.Get(RA3))
}

func TestRunJumpSkipsOverInstruction(t *testing.T) {
	// Imm RA1,1 ; Jump Always,+2 ; Imm RA1,2 ; Halt
	prog := assemble(
		Instruction{Op: Imm, Reg: RA1, Arg20: 1},
		Instruction{Op: Jump, Cond: Always, Arg20: 2},
		Instruction{Op: Imm, Reg: RA1, Arg20: 2},
		Instruction{Op: Halt},
	)

	machine := New()
	require.NoError(t, machine.Load(prog))
	require.NoError(t, machine.Run(context.Background()))

	assert.Equal(t, uint32(1), machine.Regs.Get(RA1), "the skipped Imm must not execute")
}

func TestRunConditionalJumpNotTaken(t *testing.T) {
	prog := assemble(
		Instruction{Op: Imm, Reg: RA1, Arg20: -1}, // sets Cond=Negative
		Instruction{Op: Jump, Cond: Positive, Arg20: 2},
		Instruction{Op: Imm, Reg: RA2, Arg20: 9},
		Instruction{Op: Halt},
	)

	machine := New()
	require.NoError(t, machine.Load(prog))
	require.NoError(t, machine.Run(context.Background()))

	assert.Equal(t, uint32(9), machine.Regs.Get(RA2), "jump condition false, so the next Imm must run")
}

func TestRunCallAndRet(t *testing.T) {
	// main: Imm RA1,10 ; Call +2 ; Halt
	// callee (index 3): Imm RA2,5 ; Ret
	prog := assemble(
		Instruction{Op: Imm, Reg: RA1, Arg20: 10},
		Instruction{Op: Call, Arg20: 2},
		Instruction{Op: Halt},
		Instruction{Op: Imm, Reg: RA2, Arg20: 5},
		Instruction{Op: Ret},
	)

	machine := New()
	require.NoError(t, machine.Load(prog))
	require.NoError(t, machine.Run(context.Background()))

	assert.Equal(t, uint32(10), machine.Regs.Get(RA1))
	assert.Equal(t, uint32(5), machine.Regs.Get(RA2))
}

func TestRunLoadOffStoreOffFrameRelative(t *testing.T) {
	// Copy RS1, SP ; Imm RA1,42 ; StoreOff RA1, RS1, 0 ; LoadOff RA2, RS1, 0 ; Halt
	prog := assemble(
		Instruction{Op: Copy, Reg: RS1, Src: SPReg},
		Instruction{Op: Imm, Reg: RA1, Arg20: 42},
		Instruction{Op: StoreOff, Reg: RA1, Base: RS1, Arg20: 0},
		Instruction{Op: LoadOff, Reg: RA2, Base: RS1, Arg20: 0},
		Instruction{Op: Halt},
	)

	machine := New()
	require.NoError(t, machine.Load(prog))
	require.NoError(t, machine.Run(context.Background()))

	assert.Equal(t, uint32(42), machine.Regs.Get(RA2))
}

func TestRunSubMulDiv(t *testing.T) {
	prog := assemble(
		Instruction{Op: Imm, Reg: RA1, Arg20: 17},
		Instruction{Op: Imm, Reg: RA2, Arg20: 5},
		Instruction{Op: Sub, Reg: RA3, A: Reg(RA1), B: Reg(RA2)},
		Instruction{Op: Mul, Reg: RA4, A: Reg(RA2), B: Lit(3)},
		Instruction{Op: Div, Reg: RA5, A: Reg(RA1), B: Reg(RA2)},
		Instruction{Op: Halt},
	)

	machine := New()
	require.NoError(t, machine.Load(prog))
	require.NoError(t, machine.Run(context.Background()))

	assert.Equal(t, uint32(12), machine.Regs.Get(RA3))
	assert.Equal(t, uint32(15), machine.Regs.Get(RA4))
	assert.Equal(t, uint32(3), machine.Regs.Get(RA5))
}

func TestRunDivByZeroHalts(t *testing.T) {
	prog := assemble(
		Instruction{Op: Imm, Reg: RA1, Arg20: 1},
		Instruction{Op: Imm, Reg: RA2, Arg20: 0},
		Instruction{Op: Div, Reg: RA3, A: Reg(RA1), B: Reg(RA2)},
		Instruction{Op: Halt},
	)

	machine := New()
	require.NoError(t, machine.Load(prog))
	err := machine.Run(context.Background())
	require.Error(t, err)
	var dz DivByZeroError
	assert.ErrorAs(t, err, &dz)
}

func TestWithMemLimitAllowsStoreBelowLimit(t *testing.T) {
	machine := New(WithMemLimit(ProgramBase + 10))
	prog := assemble(
		Instruction{Op: Imm, Reg: RA1, Arg20: 123},
		Instruction{Op: Push, Reg: RA1}, // SP is far below the limit, fine
		Instruction{Op: Halt},
	)
	require.NoError(t, machine.Load(prog))
	require.NoError(t, machine.Run(context.Background()))
	assert.Equal(t, uint32(123), machine.Regs.Get(RA1))
}

func TestRunSyscallPrintsValue(t *testing.T) {
	prog := assemble(
		Instruction{Op: Imm, Reg: RA1, Arg20: 42},
		Instruction{Op: Syscall, Reg: RA1, Arg20: int32(SysPrintln)},
		Instruction{Op: Halt},
	)

	var out strings.Builder
	machine := New(WithOutput(&out))
	require.NoError(t, machine.Load(prog))
	require.NoError(t, machine.Run(context.Background()))

	assert.Equal(t, "42\n", out.String())
}

func TestWithOutputAndWithLogf(t *testing.T) {
	var out strings.Builder
	var trace []string
	machine := New(
		WithOutput(&out),
		WithLogf(func(mess string, args ...interface{}) {
			trace = append(trace, mess)
		}),
	)
	prog := assemble(
		Instruction{Op: Imm, Reg: RA1, Arg20: 1},
		Instruction{Op: Halt},
	)
	require.NoError(t, machine.Load(prog))
	require.NoError(t, machine.Run(context.Background()))

	assert.NotEmpty(t, trace)
	assert.Len(t, trace, 2) // Imm, Halt
}

func TestRunRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prog := assemble(
		Instruction{Op: Imm, Reg: RA1, Arg20: 1},
		Instruction{Op: Halt},
	)
	machine := New()
	require.NoError(t, machine.Load(prog))

	err := machine.Run(ctx)
	require.Error(t, err)
}
