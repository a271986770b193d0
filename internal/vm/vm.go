package vm

import (
	"context"
	"fmt"
	"io"

	"github.com/rill-lang/rill/internal/flushio"
)

// HaltError wraps whatever error caused the fetch-execute loop to stop;
// a Halt instruction with no error yields a nil Unwrap.
type HaltError struct{ error }

func (err HaltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("vm halted: %v", err.error)
	}
	return "vm halted"
}
func (err HaltError) Unwrap() error { return err.error }

// StackUnderflowError is returned by Pop when SP has reached InitialSP.
type StackUnderflowError struct{ SP uint32 }

func (e StackUnderflowError) Error() string {
	return fmt.Sprintf("stack underflow @SP=%d", e.SP)
}

// DivByZeroError is returned by Div when the divisor resolves to 0.
// Not part of spec.md §7's VM taxonomy (the documented opcode table
// has no Div at all); added for symmetry with interp's DivByZeroError
// now that compiled integer division exists.
type DivByZeroError struct{ IP uint32 }

func (e DivByZeroError) Error() string {
	return fmt.Sprintf("division by zero @%d", e.IP)
}

// VM is the register-based bytecode machine: a RegisterStore, a paged
// Memory the program and stack live in, and the logging/output plumbing
// every run of gothird's FIRST VM carried.
type VM struct {
	Regs RegisterStore
	Mem  Memory

	out     flushio.WriteFlusher
	logfn   func(mess string, args ...interface{})
	closers []io.Closer

	steps uint64
}

// VMOption configures a VM at construction time, mirroring the
// teacher's functional-options layering (single option, flattened
// slice, or the zero-value noption).
type VMOption interface{ apply(vm *VM) }

type noption struct{}

func (noption) apply(vm *VM) {}

type options []VMOption

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(vm)
		}
	}
}

// VMOptions flattens a list of options into one, collapsing nil/noption
// entries and nested option slices.
func VMOptions(opts ...VMOption) VMOption {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type outputOption struct{ io.Writer }

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
	if cl, ok := o.Writer.(io.Closer); ok {
		vm.closers = append(vm.closers, cl)
	}
}

// WithOutput directs print output at w.
func WithOutput(w io.Writer) VMOption { return outputOption{w} }

type memLimitOption uint32

func (lim memLimitOption) apply(vm *VM) { vm.Mem.SetLimit(uint32(lim)) }

// WithMemLimit caps addressable memory at limit words; exceeding it
// surfaces as MemoryLimitError.
func WithMemLimit(limit uint32) VMOption { return memLimitOption(limit) }

type logfOption func(mess string, args ...interface{})

func (fn logfOption) apply(vm *VM) { vm.logfn = fn }

// WithLogf enables per-step tracing through fn, in the teacher's
// "mess, args..." logf shape.
func WithLogf(fn func(mess string, args ...interface{})) VMOption { return logfOption(fn) }

// New constructs a VM with IP/SP at their initial addresses and the
// given options layered on top of the defaults.
func New(opts ...VMOption) *VM {
	vm := &VM{Regs: *NewRegisterStore()}
	VMOptions(WithOutput(io.Discard)).apply(vm)
	VMOptions(opts...).apply(vm)
	return vm
}

// Load copies prog into memory starting at ProgramBase and resets IP to
// ProgramBase. SP stays at InitialSP unless a prior Run moved it
// (Load is meant to be called once per fresh VM).
func (vm *VM) Load(prog []uint32) error {
	if err := vm.Mem.StoreAll(ProgramBase, prog); err != nil {
		return err
	}
	vm.Regs.SetIP(ProgramBase)
	return nil
}

// Run drives the fetch-decode-execute loop until a Halt instruction, a
// runtime error, or ctx cancellation stops it. A clean Halt (no wrapped
// error) is reported as a nil error, matching the teacher's treatment of
// halt-as-control-flow rather than halt-as-failure.
func (vm *VM) Run(ctx context.Context) error {
	defer vm.out.Flush()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		halted, err := vm.step()
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
}

func (vm *VM) logf(mark string, mess string, args ...interface{}) {
	if vm.logfn != nil {
		vm.logfn(mark+" "+mess, args...)
	}
}

// step fetches, decodes, and executes the instruction at IP, advancing
// IP past it (except on Jump/Call, which set IP themselves). Returns
// true once a Halt instruction has executed.
func (vm *VM) step() (bool, error) {
	ip := vm.Regs.IP()
	word, err := vm.Mem.Load(ip)
	if err != nil {
		return false, HaltError{err}
	}
	instr, err := Decode(word)
	if err != nil {
		return false, HaltError{err}
	}
	vm.Regs.SetIP(ip + 1)
	vm.logf("#", "%v @%d", instr.Op, ip)
	vm.steps++

	switch instr.Op {
	case Halt:
		return true, nil
	case Nop:
		return false, nil
	case Load:
		v, err := vm.Mem.Load(uint32(int64(ip) + int64(instr.Arg20)))
		if err != nil {
			return false, HaltError{err}
		}
		vm.Regs.SetArith(instr.Reg, int64(int32(v)))
		return false, nil
	case Imm:
		vm.Regs.SetArith(instr.Reg, int64(instr.Arg20))
		return false, nil
	case Copy:
		vm.Regs.SetArith(instr.Reg, int64(int32(vm.Regs.Get(instr.Src))))
		return false, nil
	case Add:
		a := vm.resolve(instr.A)
		b := vm.resolve(instr.B)
		vm.Regs.SetArith(instr.Reg, a+b)
		return false, nil
	case Sub:
		a := vm.resolve(instr.A)
		b := vm.resolve(instr.B)
		vm.Regs.SetArith(instr.Reg, a-b)
		return false, nil
	case Mul:
		a := vm.resolve(instr.A)
		b := vm.resolve(instr.B)
		vm.Regs.SetArith(instr.Reg, a*b)
		return false, nil
	case Div:
		a := vm.resolve(instr.A)
		b := vm.resolve(instr.B)
		if b == 0 {
			return false, HaltError{DivByZeroError{ip}}
		}
		vm.Regs.SetArith(instr.Reg, a/b)
		return false, nil
	case And:
		a := vm.resolve(instr.A)
		b := vm.resolve(instr.B)
		vm.Regs.SetArith(instr.Reg, a&b)
		return false, nil
	case Or:
		a := vm.resolve(instr.A)
		b := vm.resolve(instr.B)
		vm.Regs.SetArith(instr.Reg, a|b)
		return false, nil
	case Push:
		sp := vm.Regs.SP()
		if err := vm.Mem.Store(sp, vm.Regs.Get(instr.Reg)); err != nil {
			return false, HaltError{err}
		}
		vm.Regs.SetSP(sp + 1)
		return false, nil
	case Pop:
		sp := vm.Regs.SP()
		if sp <= InitialSP {
			return false, HaltError{StackUnderflowError{sp}}
		}
		sp--
		v, err := vm.Mem.Load(sp)
		if err != nil {
			return false, HaltError{err}
		}
		vm.Regs.Set(instr.Reg, v)
		vm.Regs.SetSP(sp)
		return false, nil
	case Compare:
		l := int64(int32(vm.Regs.Get(instr.Reg)))
		r := int64(int32(vm.Regs.Get(instr.Src)))
		vm.Regs.Cond = condFlagOf(l - r)
		return false, nil
	case LoadBool:
		var b uint32
		if vm.condHolds(instr.LogOp) {
			b = 1
		}
		vm.Regs.Set(instr.Reg, b)
		return false, nil
	case Jump:
		if vm.jumpConditionHolds(instr.Cond) {
			vm.Regs.SetIP(uint32(int64(ip) + int64(instr.Arg20)))
		}
		return false, nil
	case Call:
		ra := vm.Regs.IP() // address of the instruction after Call
		sp := vm.Regs.SP()
		if err := vm.Mem.Store(sp, ra); err != nil {
			return false, HaltError{err}
		}
		vm.Regs.SetSP(sp + 1)
		vm.Regs.SetIP(uint32(int64(ip) + int64(instr.Arg20)))
		return false, nil
	case Ret:
		sp := vm.Regs.SP()
		if sp <= InitialSP {
			return true, nil // returning from main halts
		}
		sp--
		ra, err := vm.Mem.Load(sp)
		if err != nil {
			return false, HaltError{err}
		}
		vm.Regs.SetSP(sp)
		vm.Regs.SetIP(ra)
		return false, nil
	case LoadOff:
		addr := uint32(int64(vm.Regs.Get(instr.Base)) + int64(instr.Arg20))
		v, err := vm.Mem.Load(addr)
		if err != nil {
			return false, HaltError{err}
		}
		vm.Regs.SetArith(instr.Reg, int64(int32(v)))
		return false, nil
	case StoreOff:
		addr := uint32(int64(vm.Regs.Get(instr.Base)) + int64(instr.Arg20))
		if err := vm.Mem.Store(addr, vm.Regs.Get(instr.Reg)); err != nil {
			return false, HaltError{err}
		}
		return false, nil
	case Syscall:
		v := int32(vm.Regs.Get(instr.Reg))
		s := fmt.Sprintf("%d", v)
		if SysFunc(instr.Arg20) == SysPrintln {
			s += "\n"
		}
		if _, err := io.WriteString(vm.out, s); err != nil {
			return false, HaltError{err}
		}
		return false, nil
	default:
		return false, HaltError{UnknownOpcodeError{instr.Op}}
	}
}

// Step executes exactly one instruction, for the `debug` CLI verb's
// single-step mode. Returns true once a Halt instruction has executed,
// matching Run's per-step return shape.
func (vm *VM) Step(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return vm.step()
}

// IP reports the current instruction pointer, for step-mode prompts.
func (vm *VM) IP() uint32 { return vm.Regs.IP() }

func (vm *VM) resolve(rl RegisterOrLiteral) int64 {
	if rl.IsLiteral {
		return int64(rl.Lit)
	}
	return int64(int32(vm.Regs.Get(rl.Reg)))
}

func (vm *VM) condHolds(op LogicalOperator) bool {
	c := vm.Regs.Cond
	switch op {
	case EQ:
		return c == CondZero
	case NE:
		return c != CondZero
	case LT:
		return c == CondNegative
	case GT:
		return c == CondPositive
	case LE:
		return c == CondNegative || c == CondZero
	case GE:
		return c == CondPositive || c == CondZero
	default:
		return false
	}
}

func (vm *VM) jumpConditionHolds(c JumpCondition) bool {
	switch c {
	case Always:
		return true
	case Zero:
		return vm.Regs.Cond == CondZero
	case NotZero:
		return vm.Regs.Cond != CondZero
	case Positive:
		return vm.Regs.Cond == CondPositive
	case Negative:
		return vm.Regs.Cond == CondNegative
	default:
		return false
	}
}

// Print writes the VM's output flusher directly; used by debug tooling
// to inject a prompt between instructions without disturbing program
// output ordering.
func (vm *VM) Print(s string) error {
	_, err := io.WriteString(vm.out, s)
	if err != nil {
		return err
	}
	return vm.out.Flush()
}

// Close releases any closers registered by options (e.g. an output file
// passed via WithOutput).
func (vm *VM) Close() error {
	var firstErr error
	for _, cl := range vm.closers {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
