package compiler

import (
	"github.com/rill-lang/rill/internal/ast"
	"github.com/rill-lang/rill/internal/token"
	"github.com/rill-lang/rill/internal/vm"
)

// maxImmediate/minImmediate bound spec.md's 20-bit sign-extended Arg20;
// literals outside this range are widened via the constant pool (open
// question 3) instead of truncated.
const (
	maxImmediate = 1<<19 - 1
	minImmediate = -(1 << 19)
)

// Compile lowers m to a flat word program: a Call to main followed by
// a safety-net Halt, then every function's body, then the constant
// pool (spec.md §3's "Program under construction" / §4.4).
func Compile(m *ast.Module) ([]uint32, error) {
	c := newCompiler()
	for _, s := range m.Structs {
		c.structs[s.Name] = s
	}
	var mainDecl *ast.FunctionDecl
	for _, fn := range m.Functions {
		c.protos[fn.Proto.Name] = &fn.Proto
		c.funcBlock[fn.Proto.Name] = c.appendBlock(fn.Proto.Name)
		if fn.Proto.Name == "main" {
			mainDecl = fn
		}
	}
	if mainDecl == nil {
		return nil, NoMainFunctionError{}
	}

	c.emitJump(vm.Instruction{Op: vm.Call}, c.funcBlock["main"])
	c.emit(vm.Instruction{Op: vm.Halt})

	for _, fn := range m.Functions {
		if err := c.compileFunction(fn); err != nil {
			return nil, err
		}
	}
	return c.finish()
}

func (c *Compiler) compileFunction(fn *ast.FunctionDecl) error {
	isMain := fn.Proto.Name == "main"
	if !isMain && fn.Proto.ReturnType.Kind == ast.UserType {
		return TypeMismatchError{
			Expected: ast.Void, Got: fn.Proto.ReturnType,
			Reason: "compiled function return values are limited to int, bool, and void",
			Span:   fn.Proto.Span,
		}
	}

	c.syms = newSymbolTable()
	c.curFunc = fn.Proto.Name
	c.curIsMain = isMain
	c.breakStack = nil
	c.continueStack = nil
	c.loopBase = nil

	if err := c.blockInsertionPoint(c.funcBlock[fn.Proto.Name]); err != nil {
		return err
	}

	var total int32
	sizes := make([]int32, len(fn.Proto.Arguments))
	for i, p := range fn.Proto.Arguments {
		sz, err := c.sizeOf(p.Type, fn.Proto.Span)
		if err != nil {
			return err
		}
		sizes[i] = sz
		total += sz
	}
	if !isMain {
		c.emit(vm.Instruction{Op: vm.Push, Reg: vm.RS1})
	}
	c.emit(vm.Instruction{Op: vm.Copy, Reg: vm.RS1, Src: vm.SPReg})
	cur := int32(-2 - total)
	for i, p := range fn.Proto.Arguments {
		c.syms.declareParam(p.Name, p.Type, cur, sizes[i])
		cur += sizes[i]
	}
	c.syms.top().nextOffset = 0

	body, ok := fn.Body.(*ast.Block)
	if !ok {
		body = ast.NewBlock(nil, fn.Body, fn.Body.ExprSpan())
	}
	for _, stmt := range body.Stmts {
		if err := c.compileStatement(stmt); err != nil {
			return err
		}
	}
	if body.Tail != nil {
		typ, err := c.compileExpr(body.Tail)
		if err != nil {
			return err
		}
		if !isMain && fn.Proto.ReturnType.Kind != ast.VoidType && !typ.Equal(fn.Proto.ReturnType) {
			return TypeMismatchError{
				Expected: fn.Proto.ReturnType, Got: typ,
				Reason: "function return value", Span: body.Tail.ExprSpan(),
			}
		}
	}

	c.emitReturnSequence()
	return nil
}

// emitReturnSequence appends the function-exit code: Halt for main, or
// the frame-pointer epilogue (discard locals, restore the caller's FP,
// Ret) for every other function — spec.md §9 open question 2, resolved
// in DESIGN.md.
func (c *Compiler) emitReturnSequence() {
	if c.curIsMain {
		c.emit(vm.Instruction{Op: vm.Halt})
		return
	}
	c.emit(vm.Instruction{Op: vm.Copy, Reg: vm.SPReg, Src: vm.RS1})
	c.emit(vm.Instruction{Op: vm.Pop, Reg: vm.RS1})
	c.emit(vm.Instruction{Op: vm.Ret})
}

// dropWords discards n words from the top of the stack without
// reading them, used to unwind a loop iteration's locals and to
// discard a struct-valued expression statement's result.
func (c *Compiler) dropWords(n int32) {
	if n <= 0 {
		return
	}
	if n <= 127 {
		c.emit(vm.Instruction{Op: vm.Sub, Reg: vm.SPReg, A: vm.Reg(vm.SPReg), B: vm.Lit(int8(n))})
		return
	}
	c.emit(vm.Instruction{Op: vm.Imm, Reg: vm.RS2, Arg20: n})
	c.emit(vm.Instruction{Op: vm.Sub, Reg: vm.SPReg, A: vm.Reg(vm.SPReg), B: vm.Reg(vm.RS2)})
}

// compileStatement compiles e for its side effects only; a struct-typed
// result (represented on the VM stack, not in a register) is dropped
// since nothing but Let keeps one around.
func (c *Compiler) compileStatement(e ast.Expr) error {
	typ, err := c.compileExpr(e)
	if err != nil {
		return err
	}
	if _, isLet := e.(*ast.Let); isLet {
		return nil
	}
	sz, err := c.sizeOf(typ, e.ExprSpan())
	if err != nil {
		return err
	}
	c.dropWords(sz)
	return nil
}

// compileExpr lowers e. Scalar results (int/bool/void) are left in
// RA1; struct results are left as size(t) freshly pushed words on top
// of the stack, per spec.md's "fields kept in declaration order,
// addressed by index" design note — pushing them in field order at
// the current SP is exactly that layout.
func (c *Compiler) compileExpr(e ast.Expr) (ast.TypeID, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return c.compileLiteral(n)
	case *ast.Variable:
		return c.compileVariableRead(n)
	case *ast.StructLiteral:
		return c.compileStructLiteral(n)
	case *ast.FunctionCall:
		return c.compileFunctionCall(n)
	case *ast.Binary:
		return c.compileBinary(n)
	case *ast.Dot:
		return c.compileDot(n)
	case *ast.Assignment:
		return c.compileAssignment(n)
	case *ast.Let:
		return c.compileLet(n)
	case *ast.If:
		return c.compileIf(n)
	case *ast.Loop:
		return c.compileLoop(n)
	case *ast.Block:
		return c.compileNestedBlock(n)
	case *ast.Return:
		return c.compileReturn(n)
	case *ast.Break:
		return c.compileBreak(n)
	case *ast.Continue:
		return c.compileContinue(n)
	default:
		return ast.Void, TypeMismatchError{Expected: ast.Int, Got: ast.Void, Reason: "unsupported expression in compiled code", Span: e.ExprSpan()}
	}
}

func (c *Compiler) compileLiteral(lit *ast.Literal) (ast.TypeID, error) {
	switch lit.Kind {
	case token.IntLit:
		v := lit.IntVal
		if v >= minImmediate && v <= maxImmediate {
			c.emit(vm.Instruction{Op: vm.Imm, Reg: vm.RA1, Arg20: int32(v)})
		} else {
			c.emitConstLoad(vm.RA1, uint32(v))
		}
		return ast.Int, nil
	case token.BoolLit:
		var v int32
		if lit.BoolVal {
			v = 1
		}
		c.emit(vm.Instruction{Op: vm.Imm, Reg: vm.RA1, Arg20: v})
		return ast.Bool, nil
	default:
		return ast.Void, TypeMismatchError{
			Expected: ast.Int, Got: ast.Float,
			Reason: "compiled execution only supports int and bool literals",
			Span:   lit.Span,
		}
	}
}

func (c *Compiler) compileVariableRead(v *ast.Variable) (ast.TypeID, error) {
	sym, ok := c.syms.find(v.Name)
	if !ok {
		return ast.Void, VariableNotFoundError{Name: v.Name, Span: v.Span}
	}
	if sym.Type.Kind == ast.UserType {
		for i := int32(0); i < sym.Size; i++ {
			c.emit(vm.Instruction{Op: vm.LoadOff, Reg: vm.RA1, Base: vm.RS1, Arg20: sym.Offset + i})
			c.emit(vm.Instruction{Op: vm.Push, Reg: vm.RA1})
		}
		return sym.Type, nil
	}
	c.emit(vm.Instruction{Op: vm.LoadOff, Reg: vm.RA1, Base: vm.RS1, Arg20: sym.Offset})
	return sym.Type, nil
}

func (c *Compiler) compileStructLiteral(sl *ast.StructLiteral) (ast.TypeID, error) {
	st, ok := c.structs[sl.Name]
	if !ok {
		return ast.Void, TypeNotFoundError{Name: sl.Name, Span: sl.Span}
	}
	byName := make(map[string]ast.Expr, len(sl.Fields))
	for _, f := range sl.Fields {
		byName[f.Field] = f.Value
	}
	declared := make(map[string]bool, len(st.Fields))
	for _, f := range st.Fields {
		declared[f.Name] = true
	}
	for _, f := range sl.Fields {
		if !declared[f.Field] {
			return ast.Void, StructFieldNotFoundError{Struct: sl.Name, Field: f.Field, Span: sl.Span}
		}
	}
	for _, field := range st.Fields {
		val, ok := byName[field.Name]
		if !ok {
			return ast.Void, StructFieldNotInitializedError{Struct: sl.Name, Field: field.Name, Span: sl.Span}
		}
		typ, err := c.compileExpr(val)
		if err != nil {
			return ast.Void, err
		}
		if !typ.Equal(field.Type) {
			return ast.Void, TypeMismatchError{Expected: field.Type, Got: typ, Reason: "struct field initializer", Span: val.ExprSpan()}
		}
		if field.Type.Kind != ast.UserType {
			c.emit(vm.Instruction{Op: vm.Push, Reg: vm.RA1})
		}
	}
	return ast.User(sl.Name), nil
}

// lvalue resolves e to a base register plus frame offset, used by both
// Dot reads and (indirectly, via Variable) assignment.
type lvalue struct {
	base   vm.Register
	offset int32
	typ    ast.TypeID
}

func (c *Compiler) resolveLValue(e ast.Expr) (lvalue, error) {
	switch n := e.(type) {
	case *ast.Variable:
		sym, ok := c.syms.find(n.Name)
		if !ok {
			return lvalue{}, VariableNotFoundError{Name: n.Name, Span: n.Span}
		}
		return lvalue{base: vm.RS1, offset: sym.Offset, typ: sym.Type}, nil
	case *ast.Dot:
		base, err := c.resolveLValue(n.LHS)
		if err != nil {
			return lvalue{}, err
		}
		if base.typ.Kind != ast.UserType {
			return lvalue{}, FailedToAccessFieldError{Reason: "left-hand side is not a struct", Span: n.Span}
		}
		st, ok := c.structs[base.typ.Name]
		if !ok {
			return lvalue{}, TypeNotFoundError{Name: base.typ.Name, Span: n.Span}
		}
		var fieldOffset int32
		var fieldType ast.TypeID
		found := false
		for _, f := range st.Fields {
			if f.Name == n.Dot.Field {
				fieldType = f.Type
				found = true
				break
			}
			sz, err := c.sizeOf(f.Type, n.Span)
			if err != nil {
				return lvalue{}, err
			}
			fieldOffset += sz
		}
		if !found {
			return lvalue{}, StructFieldNotFoundError{Struct: base.typ.Name, Field: n.Dot.Field, Span: n.Span}
		}
		return lvalue{base: base.base, offset: base.offset + fieldOffset, typ: fieldType}, nil
	default:
		return lvalue{}, FailedToAccessFieldError{Reason: "left-hand side of . must be a variable or field access", Span: e.ExprSpan()}
	}
}

func (c *Compiler) compileDot(d *ast.Dot) (ast.TypeID, error) {
	lv, err := c.resolveLValue(d)
	if err != nil {
		return ast.Void, err
	}
	sz, err := c.sizeOf(lv.typ, d.Span)
	if err != nil {
		return ast.Void, err
	}
	if lv.typ.Kind == ast.UserType {
		for i := int32(0); i < sz; i++ {
			c.emit(vm.Instruction{Op: vm.LoadOff, Reg: vm.RA1, Base: lv.base, Arg20: lv.offset + i})
			c.emit(vm.Instruction{Op: vm.Push, Reg: vm.RA1})
		}
		return lv.typ, nil
	}
	c.emit(vm.Instruction{Op: vm.LoadOff, Reg: vm.RA1, Base: lv.base, Arg20: lv.offset})
	return lv.typ, nil
}

func (c *Compiler) compileFunctionCall(fc *ast.FunctionCall) (ast.TypeID, error) {
	if fc.Name == "print" || fc.Name == "println" {
		return c.compileBuiltinPrint(fc)
	}
	proto, ok := c.protos[fc.Name]
	if !ok {
		return ast.Void, FunctionNotFoundError{Name: fc.Name, Span: fc.Span}
	}
	if len(fc.Args) != len(proto.Arguments) {
		return ast.Void, InvalidNumberOfArgumentsError{Name: fc.Name, Expected: len(proto.Arguments), Got: len(fc.Args), Span: fc.Span}
	}
	var total int32
	for i, arg := range fc.Args {
		typ, err := c.compileExpr(arg)
		if err != nil {
			return ast.Void, err
		}
		want := proto.Arguments[i].Type
		if !typ.Equal(want) {
			return ast.Void, TypeMismatchError{Expected: want, Got: typ, Reason: "function argument", Span: arg.ExprSpan()}
		}
		sz, err := c.sizeOf(want, arg.ExprSpan())
		if err != nil {
			return ast.Void, err
		}
		if want.Kind != ast.UserType && sz > 0 {
			c.emit(vm.Instruction{Op: vm.Push, Reg: vm.RA1})
		}
		total += sz
	}
	c.emitJump(vm.Instruction{Op: vm.Call}, c.funcBlock[fc.Name])
	c.dropWords(total)
	return proto.ReturnType, nil
}

func (c *Compiler) compileBuiltinPrint(fc *ast.FunctionCall) (ast.TypeID, error) {
	if len(fc.Args) != 1 {
		return ast.Void, InvalidNumberOfArgumentsError{Name: fc.Name, Expected: 1, Got: len(fc.Args), Span: fc.Span}
	}
	typ, err := c.compileExpr(fc.Args[0])
	if err != nil {
		return ast.Void, err
	}
	if typ.Kind != ast.IntType && typ.Kind != ast.BoolType {
		return ast.Void, TypeMismatchError{
			Expected: ast.Int, Got: typ,
			Reason: "compiled print/println only accepts int or bool", Span: fc.Args[0].ExprSpan(),
		}
	}
	sel := vm.SysPrint
	if fc.Name == "println" {
		sel = vm.SysPrintln
	}
	c.emit(vm.Instruction{Op: vm.Syscall, Reg: vm.RA1, Arg20: int32(sel)})
	return ast.Void, nil
}

var logicalOps = map[ast.BinaryOperator]vm.LogicalOperator{
	ast.Eq: vm.EQ, ast.Neq: vm.NE, ast.Lt: vm.LT, ast.Gt: vm.GT, ast.Lte: vm.LE, ast.Gte: vm.GE,
}

func (c *Compiler) compileBinary(b *ast.Binary) (ast.TypeID, error) {
	lhsType, err := c.compileExpr(b.LHS)
	if err != nil {
		return ast.Void, err
	}
	c.emit(vm.Instruction{Op: vm.Push, Reg: vm.RA1})
	rhsType, err := c.compileExpr(b.RHS)
	if err != nil {
		return ast.Void, err
	}
	c.emit(vm.Instruction{Op: vm.Pop, Reg: vm.RA2}) // RA2 = lhs, RA1 = rhs

	if !lhsType.Equal(rhsType) {
		return ast.Void, TypeMismatchError{Expected: lhsType, Got: rhsType, Reason: "binary operands", Span: b.Span}
	}

	switch b.Op {
	case ast.Add, ast.Sub, ast.Mul, ast.Div:
		if lhsType.Kind != ast.IntType {
			return ast.Void, TypeMismatchError{Expected: ast.Int, Got: lhsType, Reason: "arithmetic operand", Span: b.Span}
		}
		op := map[ast.BinaryOperator]vm.Opcode{ast.Add: vm.Add, ast.Sub: vm.Sub, ast.Mul: vm.Mul, ast.Div: vm.Div}[b.Op]
		c.emit(vm.Instruction{Op: op, Reg: vm.RA1, A: vm.Reg(vm.RA2), B: vm.Reg(vm.RA1)})
		return ast.Int, nil
	case ast.And, ast.Or:
		if lhsType.Kind != ast.BoolType {
			return ast.Void, TypeMismatchError{Expected: ast.Bool, Got: lhsType, Reason: "logical operand", Span: b.Span}
		}
		op := vm.And
		if b.Op == ast.Or {
			op = vm.Or
		}
		c.emit(vm.Instruction{Op: op, Reg: vm.RA1, A: vm.Reg(vm.RA2), B: vm.Reg(vm.RA1)})
		return ast.Bool, nil
	case ast.Eq, ast.Neq, ast.Lt, ast.Lte, ast.Gt, ast.Gte:
		if lhsType.Kind == ast.UserType || lhsType.Kind == ast.VoidType {
			return ast.Void, TypeMismatchError{Expected: ast.Int, Got: lhsType, Reason: "comparison operand", Span: b.Span}
		}
		if (b.Op == ast.Lt || b.Op == ast.Lte || b.Op == ast.Gt || b.Op == ast.Gte) && lhsType.Kind != ast.IntType {
			return ast.Void, TypeMismatchError{Expected: ast.Int, Got: lhsType, Reason: "ordering requires int operands", Span: b.Span}
		}
		c.emit(vm.Instruction{Op: vm.Compare, Reg: vm.RA2, Src: vm.RA1})
		c.emit(vm.Instruction{Op: vm.LoadBool, Reg: vm.RA1, LogOp: logicalOps[b.Op]})
		return ast.Bool, nil
	default:
		return ast.Void, TypeMismatchError{Expected: ast.Int, Got: lhsType, Reason: "unsupported operator in compiled code", Span: b.Span}
	}
}

func (c *Compiler) compileAssignment(a *ast.Assignment) (ast.TypeID, error) {
	sym, ok := c.syms.find(a.Name)
	if !ok {
		return ast.Void, VariableNotFoundError{Name: a.Name, Span: a.Span}
	}
	typ, err := c.compileExpr(a.Value)
	if err != nil {
		return ast.Void, err
	}
	if !typ.Equal(sym.Type) {
		return ast.Void, TypeMismatchError{Expected: sym.Type, Got: typ, Reason: "assignment", Span: a.Span}
	}
	if sym.Type.Kind != ast.UserType {
		c.emit(vm.Instruction{Op: vm.StoreOff, Reg: vm.RA1, Base: vm.RS1, Arg20: sym.Offset})
		return ast.Void, nil
	}
	for i := sym.Size - 1; i >= 0; i-- {
		c.emit(vm.Instruction{Op: vm.Pop, Reg: vm.RA1})
		c.emit(vm.Instruction{Op: vm.StoreOff, Reg: vm.RA1, Base: vm.RS1, Arg20: sym.Offset + i})
	}
	return ast.Void, nil
}

func (c *Compiler) compileLet(l *ast.Let) (ast.TypeID, error) {
	valType, err := c.compileExpr(l.Value)
	if err != nil {
		return ast.Void, err
	}
	declType := valType
	if l.Type != nil {
		declType = *l.Type
		if !declType.Equal(valType) {
			return ast.Void, TypeMismatchError{Expected: declType, Got: valType, Reason: "let initializer", Span: l.Span}
		}
	}
	if declType.Kind == ast.VoidType {
		return ast.Void, TypeMismatchError{Expected: ast.Int, Got: declType, Reason: "let cannot bind a void value", Span: l.Span}
	}
	size, err := c.sizeOf(declType, l.Span)
	if err != nil {
		return ast.Void, err
	}
	if declType.Kind != ast.UserType {
		c.emit(vm.Instruction{Op: vm.Push, Reg: vm.RA1})
	}
	if !c.syms.declare(l.Name, declType, size) {
		return ast.Void, VariableAlreadyDeclaredError{Name: l.Name, Span: l.Span}
	}
	return ast.Void, nil
}

func (c *Compiler) compileIf(n *ast.If) (ast.TypeID, error) {
	endBlock := c.appendBlock("if_end")
	arms := append([]ast.CondBlock{n.IfBlock}, n.ElseIfs...)
	resultType := ast.Void

	for _, arm := range arms {
		nextBlock := c.appendBlock("if_next")
		condType, err := c.compileExpr(arm.Cond)
		if err != nil {
			return ast.Void, err
		}
		if condType.Kind != ast.BoolType {
			return ast.Void, TypeMismatchError{Expected: ast.Bool, Got: condType, Reason: "if condition", Span: arm.Cond.ExprSpan()}
		}
		// LoadBool leaves Cond as the comparison set it, so re-derive
		// Cond from the 0/1 value in RA1 (adding 0 updates Cond the way
		// Compare RA1, 0 would) before branching on Zero.
		c.emit(vm.Instruction{Op: vm.Add, Reg: vm.RA1, A: vm.Reg(vm.RA1), B: vm.Lit(0)})
		c.emitJump(vm.Instruction{Op: vm.Jump, Cond: vm.Zero}, nextBlock)
		btyp, err := c.compileBlockBody(arm.Block)
		if err != nil {
			return ast.Void, err
		}
		resultType = btyp
		c.emitJump(vm.Instruction{Op: vm.Jump, Cond: vm.Always}, endBlock)
		if err := c.blockInsertionPoint(nextBlock); err != nil {
			return ast.Void, err
		}
	}
	if n.ElseBlock != nil {
		btyp, err := c.compileBlockBody(n.ElseBlock)
		if err != nil {
			return ast.Void, err
		}
		resultType = btyp
	} else {
		resultType = ast.Void
	}
	if err := c.blockInsertionPoint(endBlock); err != nil {
		return ast.Void, err
	}
	return resultType, nil
}

// compileBlockBody compiles a block in the enclosing function's own
// scope chain (a fresh child scope, popped on exit) and returns its
// tail value's type, leaving the value in place exactly like
// compileExpr does for any other expression.
func (c *Compiler) compileBlockBody(b *ast.Block) (ast.TypeID, error) {
	c.syms.push()
	defer c.syms.pop()
	for _, stmt := range b.Stmts {
		if err := c.compileStatement(stmt); err != nil {
			return ast.Void, err
		}
	}
	if b.Tail == nil {
		return ast.Void, nil
	}
	return c.compileExpr(b.Tail)
}

func (c *Compiler) compileNestedBlock(b *ast.Block) (ast.TypeID, error) {
	typ, err := c.compileBlockBody(b)
	if err != nil {
		return ast.Void, err
	}
	if typ.Kind == ast.UserType {
		return ast.Void, TypeMismatchError{
			Expected: ast.Int, Got: typ,
			Reason: "a nested block's tail value must be int, bool, or void in compiled code",
			Span:   b.Span,
		}
	}
	return typ, nil
}

func (c *Compiler) compileLoop(n *ast.Loop) (ast.TypeID, error) {
	head := c.appendBlock("loop_head")
	exit := c.appendBlock("loop_exit")
	if err := c.blockInsertionPoint(head); err != nil {
		return ast.Void, err
	}

	base := c.syms.top().nextOffset
	c.breakStack = append(c.breakStack, exit)
	c.continueStack = append(c.continueStack, head)
	c.loopBase = append(c.loopBase, base)

	c.syms.push()
	for _, stmt := range n.Body.Stmts {
		if err := c.compileStatement(stmt); err != nil {
			return ast.Void, err
		}
	}
	if n.Body.Tail != nil {
		if err := c.compileStatement(n.Body.Tail); err != nil {
			return ast.Void, err
		}
	}
	c.dropWords(c.syms.top().nextOffset - base)
	c.syms.pop()

	c.emitJump(vm.Instruction{Op: vm.Jump, Cond: vm.Always}, head)
	if err := c.blockInsertionPoint(exit); err != nil {
		return ast.Void, err
	}

	c.breakStack = c.breakStack[:len(c.breakStack)-1]
	c.continueStack = c.continueStack[:len(c.continueStack)-1]
	c.loopBase = c.loopBase[:len(c.loopBase)-1]
	return ast.Void, nil
}

func (c *Compiler) compileReturn(r *ast.Return) (ast.TypeID, error) {
	if r.Value != nil {
		if _, err := c.compileExpr(r.Value); err != nil {
			return ast.Void, err
		}
	}
	c.emitReturnSequence()
	return ast.Void, nil
}

func (c *Compiler) compileBreak(b *ast.Break) (ast.TypeID, error) {
	if len(c.breakStack) == 0 {
		return ast.Void, NotInLoopError{Span: b.Span}
	}
	top := len(c.breakStack) - 1
	c.dropWords(c.syms.top().nextOffset - c.loopBase[top])
	c.emitJump(vm.Instruction{Op: vm.Jump, Cond: vm.Always}, c.breakStack[top])
	return ast.Void, nil
}

func (c *Compiler) compileContinue(n *ast.Continue) (ast.TypeID, error) {
	if len(c.continueStack) == 0 {
		return ast.Void, NotInLoopError{Span: n.Span}
	}
	top := len(c.continueStack) - 1
	c.dropWords(c.syms.top().nextOffset - c.loopBase[top])
	c.emitJump(vm.Instruction{Op: vm.Jump, Cond: vm.Always}, c.continueStack[top])
	return ast.Void, nil
}
