// Package compiler lowers a parsed Rill ast.Module to VM instruction
// words, implementing spec.md §4.4's single-pass codegen with a
// deferred patch list for forward jump/label resolution.
package compiler

import (
	"github.com/rill-lang/rill/internal/ast"
	"github.com/rill-lang/rill/internal/token"
	"github.com/rill-lang/rill/internal/vm"
)

// ProgramWordBudget is the "fixed 1024-word buffer" spec.md §3
// describes for the program under construction. The constant pool (for
// widened integer literals, spec.md §9 open question 3) is appended
// immediately after the emitted instructions, not after this budget.
const ProgramWordBudget = 1024

// blockID is an opaque compiler-internal jump target, per spec.md's
// GLOSSARY: "a symbolic jump target that becomes a PC-relative offset
// at finish()".
type blockID int

type blockState struct {
	hint   string
	addr   int
	bound  bool
}

// pendingJump is one entry in the deferred patch list: a Jump/Call
// instruction (everything but its Arg20 offset) written at patchAddr,
// waiting on block to be bound.
type pendingJump struct {
	patchAddr int
	block     blockID
	instr     vm.Instruction
}

// pendingConst is a Load instruction referencing a constant-pool slot
// that isn't known in final-address terms until finish() knows the
// total instruction count.
type pendingConst struct {
	patchAddr int
	constIdx  int
	instr     vm.Instruction
}

// Compiler holds the write cursor, label table, deferred patch lists,
// and symbol table spec.md §3's "Program under construction" names.
type Compiler struct {
	prog   []uint32
	blocks []blockState

	pendingJumps  []pendingJump
	pendingConsts []pendingConst
	constPool     []uint32

	structs   map[string]*ast.Struct
	protos    map[string]*ast.FunctionProto
	funcBlock map[string]blockID

	syms *symbolTable

	breakStack    []blockID
	continueStack []blockID
	loopBase      []int32

	curFunc   string
	curIsMain bool
}

func newCompiler() *Compiler {
	return &Compiler{
		structs:   map[string]*ast.Struct{},
		protos:    map[string]*ast.FunctionProto{},
		funcBlock: map[string]blockID{},
	}
}

// appendBlock allocates a new unbound block, optionally named for
// diagnostics/debugging (the hint has no effect on codegen).
func (c *Compiler) appendBlock(hint string) blockID {
	c.blocks = append(c.blocks, blockState{hint: hint})
	return blockID(len(c.blocks) - 1)
}

// blockInsertionPoint binds id to the current write cursor.
func (c *Compiler) blockInsertionPoint(id blockID) error {
	if int(id) < 0 || int(id) >= len(c.blocks) {
		return BlockNotFoundError{id}
	}
	b := &c.blocks[id]
	if b.bound {
		return BlockAlreadyDefinedError{id}
	}
	b.bound = true
	b.addr = len(c.prog)
	return nil
}

// emit appends instr (fully resolved; no outstanding block reference)
// and returns its address.
func (c *Compiler) emit(instr vm.Instruction) int {
	addr := len(c.prog)
	c.prog = append(c.prog, vm.Encode(instr))
	return addr
}

// emitJump appends a Jump/Call whose Arg20 depends on block: resolved
// immediately with a PC-relative offset if block is already bound
// (spec.md §4.4), otherwise a placeholder word is reserved and patched
// at finish().
func (c *Compiler) emitJump(instr vm.Instruction, block blockID) int {
	addr := len(c.prog)
	if int(block) >= 0 && int(block) < len(c.blocks) && c.blocks[block].bound {
		instr.Arg20 = int32(c.blocks[block].addr - addr)
		c.prog = append(c.prog, vm.Encode(instr))
		return addr
	}
	c.prog = append(c.prog, 0)
	c.pendingJumps = append(c.pendingJumps, pendingJump{patchAddr: addr, block: block, instr: instr})
	return addr
}

// emitConstLoad appends a Load of a constant-pool word, adding v to the
// pool if it isn't already there (simple linear dedup; pools are small).
func (c *Compiler) emitConstLoad(dst vm.Register, v uint32) int {
	idx := -1
	for i, existing := range c.constPool {
		if existing == v {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = len(c.constPool)
		c.constPool = append(c.constPool, v)
	}
	addr := len(c.prog)
	c.prog = append(c.prog, 0)
	c.pendingConsts = append(c.pendingConsts, pendingConst{
		patchAddr: addr,
		constIdx:  idx,
		instr:     vm.Instruction{Op: vm.Load, Reg: dst},
	})
	return addr
}

// finish resolves every deferred jump and constant-pool load against
// final addresses, then appends the constant pool after the
// instruction stream.
func (c *Compiler) finish() ([]uint32, error) {
	for _, pj := range c.pendingJumps {
		if int(pj.block) < 0 || int(pj.block) >= len(c.blocks) {
			return nil, BlockNotFoundError{pj.block}
		}
		b := c.blocks[pj.block]
		if !b.bound {
			return nil, UnresolvedLabelError{pj.block}
		}
		instr := pj.instr
		instr.Arg20 = int32(b.addr - pj.patchAddr)
		c.prog[pj.patchAddr] = vm.Encode(instr)
	}

	constBase := len(c.prog)
	for _, pc := range c.pendingConsts {
		instr := pc.instr
		instr.Arg20 = int32(constBase + pc.constIdx - pc.patchAddr)
		c.prog[pc.patchAddr] = vm.Encode(instr)
	}

	out := make([]uint32, 0, len(c.prog)+len(c.constPool))
	out = append(out, c.prog...)
	out = append(out, c.constPool...)
	return out, nil
}

// sizeOf returns a type's frame footprint in words: 1 for int/bool,
// the (recursively flattened) field count for a struct, 0 for void.
// Floats and strings have no compiled-path representation (spec.md's
// Non-goals exclude compiled floating point; there is no VM string
// representation either), so both surface as TypeMismatchError rather
// than silently picking a width.
func (c *Compiler) sizeOf(t ast.TypeID, span token.Span) (int32, error) {
	switch t.Kind {
	case ast.IntType, ast.BoolType:
		return 1, nil
	case ast.VoidType:
		return 0, nil
	case ast.UserType:
		st, ok := c.structs[t.Name]
		if !ok {
			return 0, TypeNotFoundError{Name: t.Name, Span: span}
		}
		var total int32
		for _, f := range st.Fields {
			sz, err := c.sizeOf(f.Type, span)
			if err != nil {
				return 0, err
			}
			total += sz
		}
		return total, nil
	default:
		return 0, TypeMismatchError{
			Expected: ast.Int, Got: t,
			Reason: "compiled execution only supports int, bool, void, and struct values",
			Span:   span,
		}
	}
}
