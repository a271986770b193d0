package vm

import "fmt"

// Opcode is the 6-bit operation selector occupying an instruction's top
// bits.
type Opcode uint8

const (
	Halt Opcode = iota
	Nop
	Load
	Imm
	Copy
	Add
	Push
	Pop
	Compare
	LoadBool
	Jump
	// Call/Ret extend the opcode table beyond the documented baseline,
	// needed to give compiled function calls somewhere to land; see
	// DESIGN.md for the calling convention they implement.
	Call
	Ret
	// LoadOff/StoreOff read/write through a register-relative address
	// (base register's value plus a signed offset), rather than the
	// IP-relative address Load uses. The compiler needs these for
	// frame-pointer-relative local variable and parameter access, the
	// same role register-pointer addressing plays in the retrieved
	// original source's virtual machine design.
	LoadOff
	StoreOff
	// Sub/Mul/Div/And/Or round out the arithmetic/logical combinations
	// Binary needs beyond Add; same dst, RegisterOrLiteral, RegisterOrLiteral
	// shape as Add. And/Or are bitwise, which is all booleans (stored as
	// 0/1 words) ever need.
	Sub
	Mul
	Div
	And
	Or
	// Syscall triggers a host-provided builtin (currently print/println,
	// selected by Arg20) with its argument in Reg. The documented opcode
	// table has no I/O instruction at all — grounded on the retrieved
	// original source's own (unimplemented) instruction/args/sys_call.rs,
	// which reserves exactly this "SysCall" shape for the same purpose.
	Syscall
)

var opcodeNames = map[Opcode]string{
	Halt: "Halt", Nop: "Nop", Load: "Load", Imm: "Imm", Copy: "Copy",
	Add: "Add", Push: "Push", Pop: "Pop", Compare: "Compare",
	LoadBool: "LoadBool", Jump: "Jump", Call: "Call", Ret: "Ret",
	LoadOff: "LoadOff", StoreOff: "StoreOff",
	Sub: "Sub", Mul: "Mul", Div: "Div", And: "And", Or: "Or",
	Syscall: "Syscall",
}

// SysFunc selects which builtin Syscall invokes.
type SysFunc int32

const (
	SysPrint SysFunc = iota
	SysPrintln
)

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Opcode(%d)", uint8(op))
}

// Register names a RegisterStore slot. Cond is not separately
// addressable here: it is written implicitly by Compare and by the
// result-writing instructions (see CondFlag), and read by LoadBool and
// conditional Jump.
type Register uint8

const (
	RA1 Register = iota
	RA2
	RA3
	RA4
	RA5
	RA6
	RS1
	RS2
	IPReg
	SPReg
	numRegisters
)

var registerNames = map[Register]string{
	RA1: "RA1", RA2: "RA2", RA3: "RA3", RA4: "RA4", RA5: "RA5", RA6: "RA6",
	RS1: "RS1", RS2: "RS2", IPReg: "IP", SPReg: "SP",
}

func (r Register) String() string {
	if s, ok := registerNames[r]; ok {
		return s
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// JumpCondition selects which Cond values a Jump fires on.
type JumpCondition uint8

const (
	Always JumpCondition = iota
	Zero
	NotZero
	Positive
	Negative
)

var jumpCondNames = map[JumpCondition]string{
	Always: "Always", Zero: "Zero", NotZero: "NotZero", Positive: "Positive", Negative: "Negative",
}

func (c JumpCondition) String() string {
	if s, ok := jumpCondNames[c]; ok {
		return s
	}
	return fmt.Sprintf("JumpCondition(%d)", uint8(c))
}

// LogicalOperator selects which comparison LoadBool tests Cond against.
type LogicalOperator uint8

const (
	EQ LogicalOperator = iota
	NE
	LT
	GT
	LE
	GE
)

var logicalOpNames = map[LogicalOperator]string{
	EQ: "EQ", NE: "NE", LT: "LT", GT: "GT", LE: "LE", GE: "GE",
}

func (op LogicalOperator) String() string {
	if s, ok := logicalOpNames[op]; ok {
		return s
	}
	return fmt.Sprintf("LogicalOperator(%d)", uint8(op))
}

// RegisterOrLiteral is Add's 10-bit operand encoding: a leading mode
// bit selects between a 6-bit register reference and a signed 8-bit
// immediate literal.
type RegisterOrLiteral struct {
	IsLiteral bool
	Reg       Register
	Lit       int8
}

func Reg(r Register) RegisterOrLiteral { return RegisterOrLiteral{Reg: r} }
func Lit(v int8) RegisterOrLiteral     { return RegisterOrLiteral{IsLiteral: true, Lit: v} }

func (rl RegisterOrLiteral) encode() uint16 {
	if rl.IsLiteral {
		return 1<<9 | uint16(uint8(rl.Lit))
	}
	return uint16(rl.Reg) & 0x3F
}

func decodeRegisterOrLiteral(v uint16) RegisterOrLiteral {
	if v&(1<<9) != 0 {
		return RegisterOrLiteral{IsLiteral: true, Lit: int8(uint8(v & 0xFF))}
	}
	return RegisterOrLiteral{Reg: Register(v & 0x3F)}
}

func (rl RegisterOrLiteral) String() string {
	if rl.IsLiteral {
		return fmt.Sprintf("%d", rl.Lit)
	}
	return rl.Reg.String()
}

// Instruction is the decoded form of one 32-bit instruction word. Not
// every field is meaningful for every Op; see Encode/Decode for the
// per-opcode layout.
type Instruction struct {
	Op    Opcode
	Reg   Register          // Load/Imm/Copy dst, Push/Pop r, Compare l, LoadBool dst, LoadOff dst, StoreOff src
	Arg20 int32             // Load/Imm offset, Jump/Call PC-relative offset, LoadOff/StoreOff register offset (sign-extended)
	Src   Register          // Copy src, Compare r
	Base  Register          // LoadOff/StoreOff base register
	A, B  RegisterOrLiteral // Add operands
	Cond  JumpCondition     // Jump condition (packed into the Reg field's bit position)
	LogOp LogicalOperator   // LoadBool operator (packed into the low bits of Arg20)
}

const arg20Mask = 1<<20 - 1
const arg14Mask = 1<<14 - 1

func signExtend20(v uint32) int32 {
	v &= arg20Mask
	if v&(1<<19) != 0 {
		v |= ^uint32(arg20Mask)
	}
	return int32(v)
}

func signExtend14(v uint32) int32 {
	v &= arg14Mask
	if v&(1<<13) != 0 {
		v |= ^uint32(arg14Mask)
	}
	return int32(v)
}

// Encode packs i into its 32-bit wire form. Panics never occur; out of
// range fields are simply masked, matching the teacher's preference for
// narrow, always-succeeding codec functions with validation left to
// higher layers (the compiler never emits out-of-range fields).
func Encode(i Instruction) uint32 {
	word := uint32(i.Op&0x3F) << 26
	switch i.Op {
	case Halt, Nop, Ret:
		// opcode only
	case Load, Imm, Syscall:
		word |= uint32(i.Reg&0x3F) << 20
		word |= uint32(i.Arg20) & arg20Mask
	case Copy:
		word |= uint32(i.Reg&0x3F) << 20
		word |= uint32(i.Src) & 0x3F
	case Add, Sub, Mul, Div, And, Or:
		word |= uint32(i.Reg&0x3F) << 20
		word |= uint32(i.A.encode())<<10 | uint32(i.B.encode())
	case Push, Pop:
		word |= uint32(i.Reg&0x3F) << 20
	case Compare:
		word |= uint32(i.Reg&0x3F) << 20
		word |= uint32(i.Src) & 0x3F
	case LoadBool:
		word |= uint32(i.Reg&0x3F) << 20
		word |= uint32(i.LogOp) & 0x3F
	case Jump, Call:
		word |= uint32(i.Cond&0x3F) << 20
		word |= uint32(i.Arg20) & arg20Mask
	case LoadOff, StoreOff:
		word |= uint32(i.Reg&0x3F) << 20
		word |= uint32(i.Base&0x3F) << 14
		word |= uint32(i.Arg20) & arg14Mask
	}
	return word
}

// UnknownOpcodeError is returned by Decode when the top 6 bits don't
// name a defined Opcode.
type UnknownOpcodeError struct{ Opcode Opcode }

func (e UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode %v", e.Opcode)
}

// Decode unpacks a 32-bit wire word back into an Instruction.
func Decode(word uint32) (Instruction, error) {
	op := Opcode(word >> 26 & 0x3F)
	regField := Register(word >> 20 & 0x3F)
	other := word & arg20Mask

	switch op {
	case Halt, Nop, Ret:
		return Instruction{Op: op}, nil
	case Load, Imm, Syscall:
		return Instruction{Op: op, Reg: regField, Arg20: signExtend20(other)}, nil
	case Copy:
		return Instruction{Op: op, Reg: regField, Src: Register(other & 0x3F)}, nil
	case Add, Sub, Mul, Div, And, Or:
		a := decodeRegisterOrLiteral(uint16(other >> 10 & 0x3FF))
		b := decodeRegisterOrLiteral(uint16(other & 0x3FF))
		return Instruction{Op: op, Reg: regField, A: a, B: b}, nil
	case Push, Pop:
		return Instruction{Op: op, Reg: regField}, nil
	case Compare:
		return Instruction{Op: op, Reg: regField, Src: Register(other & 0x3F)}, nil
	case LoadBool:
		return Instruction{Op: op, Reg: regField, LogOp: LogicalOperator(other & 0x3F)}, nil
	case Jump, Call:
		return Instruction{Op: op, Cond: JumpCondition(regField & 0x3F), Arg20: signExtend20(other)}, nil
	case LoadOff, StoreOff:
		base := Register(other >> 14 & 0x3F)
		return Instruction{Op: op, Reg: regField, Base: base, Arg20: signExtend14(other & arg14Mask)}, nil
	default:
		return Instruction{}, UnknownOpcodeError{Opcode: op}
	}
}
