package interp

import (
	"fmt"

	"github.com/rill-lang/rill/internal/ast"
	"github.com/rill-lang/rill/internal/flushio"
	"github.com/rill-lang/rill/internal/token"
)

// Error kinds. Return/Break/Continue are deliberately NOT modeled as
// errors (see signal below) so this taxonomy stays limited to actual
// failures.

type UndefinedVariableError struct {
	Name string
	Span token.Span
}

func (e UndefinedVariableError) Error() string {
	return fmt.Sprintf("%v: undefined variable %q", e.Span, e.Name)
}

type VariableAlreadyDeclaredError struct {
	Name string
	Span token.Span
}

func (e VariableAlreadyDeclaredError) Error() string {
	return fmt.Sprintf("%v: %q already declared in this scope", e.Span, e.Name)
}

type UndefinedFunctionError struct {
	Name string
	Span token.Span
}

func (e UndefinedFunctionError) Error() string {
	return fmt.Sprintf("%v: undefined function %q", e.Span, e.Name)
}

type UndefinedStructError struct {
	Name string
	Span token.Span
}

func (e UndefinedStructError) Error() string {
	return fmt.Sprintf("%v: undefined struct %q", e.Span, e.Name)
}

type ArityMismatchError struct {
	Name string
	Want int
	Got  int
	Span token.Span
}

func (e ArityMismatchError) Error() string {
	return fmt.Sprintf("%v: %q expects %d argument(s), got %d", e.Span, e.Name, e.Want, e.Got)
}

type TypeMismatchError struct {
	Expected string
	Got      ast.TypeID
	Span     token.Span
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%v: expected %s, got %v", e.Span, e.Expected, e.Got)
}

type DivByZeroError struct{ Span token.Span }

func (e DivByZeroError) Error() string { return fmt.Sprintf("%v: division by zero", e.Span) }

type StructFieldNotFoundError struct {
	Struct string
	Field  string
	Span   token.Span
}

func (e StructFieldNotFoundError) Error() string {
	return fmt.Sprintf("%v: %s has no field %q", e.Span, e.Struct, e.Field)
}

type NotInLoopError struct{ Span token.Span }

func (e NotInLoopError) Error() string { return fmt.Sprintf("%v: not inside a loop", e.Span) }

type InvalidOperandsError struct {
	Op   ast.BinaryOperator
	LHS  ast.TypeID
	RHS  ast.TypeID
	Span token.Span
}

func (e InvalidOperandsError) Error() string {
	return fmt.Sprintf("%v: invalid operands to %v: %v, %v", e.Span, e.Op, e.LHS, e.RHS)
}

// signal is how return/break/continue unwind the evaluation stack: a
// dedicated non-error control-flow result, never surfaced to callers as
// an error.
type signal int

const (
	sigNone signal = iota
	sigReturn
	sigBreak
	sigContinue
)

type outcome struct {
	Value  Value
	Signal signal
}

func value(v Value) outcome { return outcome{Value: v} }

// environment is an explicit stack of lexical scopes. Variables are
// stored as pointers so Assignment can mutate in place without
// re-walking the stack twice.
type environment struct {
	scopes []map[string]*Value
}

func newEnvironment() *environment {
	return &environment{scopes: []map[string]*Value{{}}}
}

func (e *environment) push() { e.scopes = append(e.scopes, map[string]*Value{}) }

func (e *environment) pop() { e.scopes = e.scopes[:len(e.scopes)-1] }

func (e *environment) declare(name string, v Value, span token.Span) error {
	top := e.scopes[len(e.scopes)-1]
	if _, ok := top[name]; ok {
		return VariableAlreadyDeclaredError{Name: name, Span: span}
	}
	top[name] = &v
	return nil
}

func (e *environment) lookup(name string) (*Value, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i][name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Interpreter walks a Module's AST directly, one function call at a
// time, using an explicit scope stack rather than relying on Go's call
// stack for anything but the metacircular recursion itself.
type Interpreter struct {
	functions map[string]*ast.FunctionDecl
	structs   map[string]*ast.Struct
	out       flushio.WriteFlusher
}

// New builds an Interpreter over m, registering print/println as
// built-ins. out receives print/println output and is flushed after
// every call so it never lags behind a later raw-mode debug prompt.
func New(m *ast.Module, out flushio.WriteFlusher) *Interpreter {
	it := &Interpreter{
		functions: make(map[string]*ast.FunctionDecl, len(m.Functions)),
		structs:   make(map[string]*ast.Struct, len(m.Structs)),
		out:       out,
	}
	for _, fn := range m.Functions {
		it.functions[fn.Proto.Name] = fn
	}
	for _, st := range m.Structs {
		it.structs[st.Name] = st
	}
	return it
}

// Run calls "main" with no arguments and returns its result value.
func (it *Interpreter) Run() (Value, error) {
	fn, ok := it.functions["main"]
	if !ok {
		return Void, UndefinedFunctionError{Name: "main"}
	}
	return it.call(fn, nil, token.Span{})
}

func (it *Interpreter) call(fn *ast.FunctionDecl, args []Value, span token.Span) (Value, error) {
	if len(args) != len(fn.Proto.Arguments) {
		return Void, ArityMismatchError{Name: fn.Proto.Name, Want: len(fn.Proto.Arguments), Got: len(args), Span: span}
	}
	env := newEnvironment()
	for i, param := range fn.Proto.Arguments {
		if !param.Type.Equal(args[i].Type) {
			return Void, TypeMismatchError{Expected: param.Type.String(), Got: args[i].Type, Span: span}
		}
		if err := env.declare(param.Name, args[i], span); err != nil {
			return Void, err
		}
	}
	out, err := it.eval(fn.Body, env)
	if err != nil {
		return Void, err
	}
	switch out.Signal {
	case sigBreak, sigContinue:
		return Void, NotInLoopError{Span: span}
	default:
		return out.Value, nil
	}
}

func (it *Interpreter) callBuiltin(name string, args []Value, span token.Span) (outcome, bool, error) {
	switch name {
	case "print":
		for _, a := range args {
			fmt.Fprint(it.out, a.Display())
		}
		return value(Void), true, it.out.Flush()
	case "println":
		for _, a := range args {
			fmt.Fprint(it.out, a.Display())
		}
		fmt.Fprintln(it.out)
		return value(Void), true, it.out.Flush()
	default:
		return outcome{}, false, nil
	}
}

// eval evaluates e, returning its value and any in-flight unwind
// signal. A non-nil error always means evaluation truly failed; signals
// are carried in the outcome, never in err.
func (it *Interpreter) eval(e ast.Expr, env *environment) (outcome, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return it.evalLiteral(n)
	case *ast.Variable:
		v, ok := env.lookup(n.Name)
		if !ok {
			return outcome{}, UndefinedVariableError{Name: n.Name, Span: n.Span}
		}
		return value(*v), nil
	case *ast.StructLiteral:
		return it.evalStructLiteral(n, env)
	case *ast.FunctionCall:
		return it.evalCall(n, env)
	case *ast.Binary:
		return it.evalBinary(n, env)
	case *ast.Dot:
		return it.evalDot(n, env)
	case *ast.Assignment:
		return it.evalAssignment(n, env)
	case *ast.Let:
		v, err := it.eval(n.Value, env)
		if err != nil || v.Signal != sigNone {
			return v, err
		}
		if n.Type != nil && !n.Type.Equal(v.Value.Type) {
			return outcome{}, TypeMismatchError{Expected: n.Type.String(), Got: v.Value.Type, Span: n.Span}
		}
		if err := env.declare(n.Name, v.Value, n.Span); err != nil {
			return outcome{}, err
		}
		return value(Void), nil
	case *ast.If:
		return it.evalIf(n, env)
	case *ast.Loop:
		return it.evalLoop(n, env)
	case *ast.Block:
		return it.evalBlock(n, env)
	case *ast.Return:
		if n.Value == nil {
			return outcome{Value: Void, Signal: sigReturn}, nil
		}
		v, err := it.eval(n.Value, env)
		if err != nil || v.Signal != sigNone {
			return v, err
		}
		return outcome{Value: v.Value, Signal: sigReturn}, nil
	case *ast.Break:
		return outcome{Value: Void, Signal: sigBreak}, nil
	case *ast.Continue:
		return outcome{Value: Void, Signal: sigContinue}, nil
	default:
		return outcome{}, fmt.Errorf("interp: unhandled expression type %T", e)
	}
}

func (it *Interpreter) evalLiteral(n *ast.Literal) (outcome, error) {
	switch n.Kind {
	case token.IntLit:
		return value(IntValue(n.IntVal)), nil
	case token.FloatLit:
		return value(FloatValue(n.FloatVal)), nil
	case token.StringLit:
		return value(StringValue(n.StrVal)), nil
	case token.BoolLit:
		return value(BoolValue(n.BoolVal)), nil
	default:
		return outcome{}, fmt.Errorf("interp: unhandled literal kind %v", n.Kind)
	}
}

func (it *Interpreter) evalStructLiteral(n *ast.StructLiteral, env *environment) (outcome, error) {
	st, ok := it.structs[n.Name]
	if !ok {
		return outcome{}, UndefinedStructError{Name: n.Name, Span: n.Span}
	}
	fields := make(map[string]Value, len(st.Fields))
	order := make([]string, 0, len(st.Fields))
	for _, f := range st.Fields {
		order = append(order, f.Name)
	}
	for _, init := range n.Fields {
		decl, ok := fieldDecl(st, init.Field)
		if !ok {
			return outcome{}, StructFieldNotFoundError{Struct: n.Name, Field: init.Field, Span: n.Span}
		}
		v, err := it.eval(init.Value, env)
		if err != nil || v.Signal != sigNone {
			return v, err
		}
		if !decl.Type.Equal(v.Value.Type) {
			return outcome{}, TypeMismatchError{Expected: decl.Type.String(), Got: v.Value.Type, Span: n.Span}
		}
		fields[init.Field] = v.Value
	}
	for _, f := range st.Fields {
		if _, ok := fields[f.Name]; !ok {
			return outcome{}, StructFieldNotFoundError{Struct: n.Name, Field: f.Name, Span: n.Span}
		}
	}
	return value(StructValue(n.Name, order, fields)), nil
}

func fieldDecl(st *ast.Struct, name string) (ast.Param, bool) {
	for _, f := range st.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return ast.Param{}, false
}

func (it *Interpreter) evalCall(n *ast.FunctionCall, env *environment) (outcome, error) {
	args := make([]Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := it.eval(a, env)
		if err != nil || v.Signal != sigNone {
			return v, err
		}
		args = append(args, v.Value)
	}
	if out, handled, err := it.callBuiltin(n.Name, args, n.Span); handled {
		return out, err
	}
	fn, ok := it.functions[n.Name]
	if !ok {
		return outcome{}, UndefinedFunctionError{Name: n.Name, Span: n.Span}
	}
	v, err := it.call(fn, args, n.Span)
	return value(v), err
}

func (it *Interpreter) evalDot(n *ast.Dot, env *environment) (outcome, error) {
	lhs, err := it.eval(n.LHS, env)
	if err != nil || lhs.Signal != sigNone {
		return lhs, err
	}
	if lhs.Value.Type.Kind != ast.UserType {
		return outcome{}, TypeMismatchError{Expected: "struct", Got: lhs.Value.Type, Span: n.Span}
	}
	fv, ok := lhs.Value.Fields[n.Dot.Field]
	if !ok {
		return outcome{}, StructFieldNotFoundError{Struct: lhs.Value.Type.Name, Field: n.Dot.Field, Span: n.Span}
	}
	return value(fv), nil
}

func (it *Interpreter) evalAssignment(n *ast.Assignment, env *environment) (outcome, error) {
	v, err := it.eval(n.Value, env)
	if err != nil || v.Signal != sigNone {
		return v, err
	}
	slot, ok := env.lookup(n.Name)
	if !ok {
		return outcome{}, UndefinedVariableError{Name: n.Name, Span: n.Span}
	}
	if !slot.Type.Equal(v.Value.Type) {
		return outcome{}, TypeMismatchError{Expected: slot.Type.String(), Got: v.Value.Type, Span: n.Span}
	}
	*slot = v.Value
	return value(v.Value), nil
}

func (it *Interpreter) evalIf(n *ast.If, env *environment) (outcome, error) {
	arms := append([]ast.CondBlock{n.IfBlock}, n.ElseIfs...)
	for _, arm := range arms {
		cond, err := it.eval(arm.Cond, env)
		if err != nil || cond.Signal != sigNone {
			return cond, err
		}
		if cond.Value.Type.Kind != ast.BoolType {
			return outcome{}, TypeMismatchError{Expected: "bool", Got: cond.Value.Type, Span: arm.Cond.ExprSpan()}
		}
		if cond.Value.Bool {
			return it.evalBlock(arm.Block, env)
		}
	}
	if n.ElseBlock != nil {
		return it.evalBlock(n.ElseBlock, env)
	}
	return value(Void), nil
}

func (it *Interpreter) evalLoop(n *ast.Loop, env *environment) (outcome, error) {
	for {
		out, err := it.evalBlock(n.Body, env)
		if err != nil {
			return outcome{}, err
		}
		switch out.Signal {
		case sigBreak:
			return value(Void), nil
		case sigReturn:
			return out, nil
		case sigContinue, sigNone:
			continue
		}
	}
}

func (it *Interpreter) evalBlock(n *ast.Block, env *environment) (outcome, error) {
	env.push()
	defer env.pop()
	for _, stmt := range n.Stmts {
		out, err := it.eval(stmt, env)
		if err != nil {
			return outcome{}, err
		}
		if out.Signal != sigNone {
			return out, nil
		}
	}
	if n.Tail == nil {
		return value(Void), nil
	}
	return it.eval(n.Tail, env)
}

func (it *Interpreter) evalBinary(n *ast.Binary, env *environment) (outcome, error) {
	lhs, err := it.eval(n.LHS, env)
	if err != nil || lhs.Signal != sigNone {
		return lhs, err
	}
	rhs, err := it.eval(n.RHS, env)
	if err != nil || rhs.Signal != sigNone {
		return rhs, err
	}
	l, r := lhs.Value, rhs.Value

	switch n.Op {
	case ast.Eq:
		return value(BoolValue(valuesEqual(l, r))), nil
	case ast.Neq:
		return value(BoolValue(!valuesEqual(l, r))), nil
	case ast.And:
		if l.Type.Kind != ast.BoolType || r.Type.Kind != ast.BoolType {
			return outcome{}, InvalidOperandsError{Op: n.Op, LHS: l.Type, RHS: r.Type, Span: n.Span}
		}
		return value(BoolValue(l.Bool && r.Bool)), nil
	case ast.Or:
		if l.Type.Kind != ast.BoolType || r.Type.Kind != ast.BoolType {
			return outcome{}, InvalidOperandsError{Op: n.Op, LHS: l.Type, RHS: r.Type, Span: n.Span}
		}
		return value(BoolValue(l.Bool || r.Bool)), nil
	case ast.Lt, ast.Lte, ast.Gt, ast.Gte:
		return it.evalComparison(n, l, r)
	case ast.Add:
		return it.evalAdd(n, l, r)
	case ast.Sub, ast.Mul, ast.Div:
		return it.evalArith(n, l, r)
	default:
		return outcome{}, InvalidOperandsError{Op: n.Op, LHS: l.Type, RHS: r.Type, Span: n.Span}
	}
}

func valuesEqual(l, r Value) bool {
	if l.Type.Kind != r.Type.Kind {
		return false
	}
	switch l.Type.Kind {
	case ast.IntType:
		return l.Int == r.Int
	case ast.FloatType:
		return l.Float == r.Float
	case ast.StringType:
		return l.Str == r.Str
	case ast.BoolType:
		return l.Bool == r.Bool
	case ast.VoidType:
		return true
	default:
		return false
	}
}

func asFloat(v Value) (float64, bool) {
	switch v.Type.Kind {
	case ast.IntType:
		return float64(v.Int), true
	case ast.FloatType:
		return v.Float, true
	default:
		return 0, false
	}
}

func (it *Interpreter) evalComparison(n *ast.Binary, l, r Value) (outcome, error) {
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return outcome{}, InvalidOperandsError{Op: n.Op, LHS: l.Type, RHS: r.Type, Span: n.Span}
	}
	var result bool
	switch n.Op {
	case ast.Lt:
		result = lf < rf
	case ast.Lte:
		result = lf <= rf
	case ast.Gt:
		result = lf > rf
	case ast.Gte:
		result = lf >= rf
	}
	return value(BoolValue(result)), nil
}

func (it *Interpreter) evalAdd(n *ast.Binary, l, r Value) (outcome, error) {
	if l.Type.Kind == ast.StringType || r.Type.Kind == ast.StringType {
		if l.Type.Kind == ast.VoidType || r.Type.Kind == ast.VoidType {
			return outcome{}, InvalidOperandsError{Op: n.Op, LHS: l.Type, RHS: r.Type, Span: n.Span}
		}
		return value(StringValue(l.Display() + r.Display())), nil
	}
	return it.evalArith(n, l, r)
}

func (it *Interpreter) evalArith(n *ast.Binary, l, r Value) (outcome, error) {
	if l.Type.Kind != r.Type.Kind || (l.Type.Kind != ast.IntType && l.Type.Kind != ast.FloatType) {
		return outcome{}, InvalidOperandsError{Op: n.Op, LHS: l.Type, RHS: r.Type, Span: n.Span}
	}
	if l.Type.Kind == ast.IntType {
		if n.Op == ast.Div && r.Int == 0 {
			return outcome{}, DivByZeroError{Span: n.Span}
		}
		switch n.Op {
		case ast.Add:
			return value(IntValue(l.Int + r.Int)), nil
		case ast.Sub:
			return value(IntValue(l.Int - r.Int)), nil
		case ast.Mul:
			return value(IntValue(l.Int * r.Int)), nil
		case ast.Div:
			return value(IntValue(l.Int / r.Int)), nil
		}
	}
	switch n.Op {
	case ast.Add:
		return value(FloatValue(l.Float + r.Float)), nil
	case ast.Sub:
		return value(FloatValue(l.Float - r.Float)), nil
	case ast.Mul:
		return value(FloatValue(l.Float * r.Float)), nil
	case ast.Div:
		return value(FloatValue(l.Float / r.Float)), nil // IEEE infinity on divide-by-zero, per spec
	}
	return outcome{}, InvalidOperandsError{Op: n.Op, LHS: l.Type, RHS: r.Type, Span: n.Span}
}
