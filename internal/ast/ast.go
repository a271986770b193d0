// Package ast defines the spanned abstract syntax tree produced by the
// parser and consumed by the interpreter and compiler.
package ast

import (
	"fmt"

	"github.com/rill-lang/rill/internal/token"
)

// TypeID names a type: a primitive, void, a user struct, or a function
// signature.
type TypeID struct {
	Kind TypeKind
	// Name is set when Kind == UserType.
	Name string
	// Args/Ret are set when Kind == FunctionType.
	Args []TypeID
	Ret  *TypeID
}

// TypeKind enumerates the primitive and compound shapes a TypeID can take.
type TypeKind int

const (
	IntType TypeKind = iota
	FloatType
	StringType
	BoolType
	VoidType
	UserType
	FunctionType
)

func (t TypeID) String() string {
	switch t.Kind {
	case IntType:
		return "int"
	case FloatType:
		return "float"
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	case VoidType:
		return "void"
	case UserType:
		return t.Name
	case FunctionType:
		s := "fn("
		for i, a := range t.Args {
			if i > 0 {
				s += ", "
			}
			s += a.String()
		}
		s += ")"
		if t.Ret != nil {
			s += " -> " + t.Ret.String()
		}
		return s
	default:
		return fmt.Sprintf("TypeID(%d)", int(t.Kind))
	}
}

// Equal reports whether two TypeIDs denote the same type.
func (t TypeID) Equal(o TypeID) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case UserType:
		return t.Name == o.Name
	case FunctionType:
		if len(t.Args) != len(o.Args) {
			return false
		}
		for i := range t.Args {
			if !t.Args[i].Equal(o.Args[i]) {
				return false
			}
		}
		if (t.Ret == nil) != (o.Ret == nil) {
			return false
		}
		return t.Ret == nil || t.Ret.Equal(*o.Ret)
	default:
		return true
	}
}

var (
	Int    = TypeID{Kind: IntType}
	Float  = TypeID{Kind: FloatType}
	String = TypeID{Kind: StringType}
	Bool   = TypeID{Kind: BoolType}
	Void   = TypeID{Kind: VoidType}
)

// User builds a TypeID naming a user struct.
func User(name string) TypeID { return TypeID{Kind: UserType, Name: name} }

// BinaryOperator enumerates the binary operators usable in Binary
// expressions.
type BinaryOperator int

const (
	Add BinaryOperator = iota
	Sub
	Mul
	Div
	And
	Or
	Eq
	Neq
	Lt
	Lte
	Gt
	Gte
	Assign
)

func (op BinaryOperator) String() string {
	switch op {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case And:
		return "&&"
	case Or:
		return "||"
	case Eq:
		return "=="
	case Neq:
		return "!="
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Gt:
		return ">"
	case Gte:
		return ">="
	case Assign:
		return "="
	default:
		return fmt.Sprintf("BinaryOperator(%d)", int(op))
	}
}

// Param is a single (name, type) pair, used for function arguments and
// struct fields.
type Param struct {
	Name string
	Type TypeID
}

// Module is the top-level compilation unit: a set of functions and
// structs parsed from a single source.
type Module struct {
	Name      string
	Functions []*FunctionDecl
	Structs   []*Struct
	Span      token.Span
}

// FunctionProto is a function's name, parameter list, and return type,
// without its body.
type FunctionProto struct {
	Name       string
	Arguments  []Param
	ReturnType TypeID
	Span       token.Span
}

// FunctionDecl is a top-level function: its prototype plus a body
// expression (always a Block in practice, since the grammar only
// produces function bodies as blocks).
type FunctionDecl struct {
	Proto FunctionProto
	Body  Expr
	Span  token.Span
}

// Struct is a top-level struct declaration: an ordered list of
// (name, type) fields, addressed by declaration order at compile time.
type Struct struct {
	Name   string
	Fields []Param
	Span   token.Span
}

// Expr is any expression node. All concrete expression types implement
// it and carry their own Span.
type Expr interface {
	ExprSpan() token.Span
	exprNode()
}

type baseExpr struct{ Span token.Span }

func (b baseExpr) ExprSpan() token.Span { return b.Span }

// Literal is an int, float, string, or bool constant.
type Literal struct {
	baseExpr
	Kind     token.LitKind
	IntVal   int64
	FloatVal float64
	StrVal   string
	BoolVal  bool
}

func (*Literal) exprNode() {}

// Variable references a named binding.
type Variable struct {
	baseExpr
	Name string
}

func (*Variable) exprNode() {}

// FieldInit is one `field: expr` entry inside a StructLiteral.
type FieldInit struct {
	Field string
	Value Expr
}

// StructLiteral constructs a struct value: `Name { field: expr, ... }`.
type StructLiteral struct {
	baseExpr
	Name   string
	Fields []FieldInit
}

func (*StructLiteral) exprNode() {}

// FunctionCall invokes a named function with positional arguments.
type FunctionCall struct {
	baseExpr
	Name string
	Args []Expr
}

func (*FunctionCall) exprNode() {}

// Binary combines two expressions with an operator.
type Binary struct {
	baseExpr
	LHS Expr
	Op  BinaryOperator
	RHS Expr
}

func (*Binary) exprNode() {}

// DotExpr is the right-hand side of a `.` expression: currently only
// field access by name.
type DotExpr struct {
	Field string
}

// Dot is field access: `lhs.field`.
type Dot struct {
	baseExpr
	LHS  Expr
	Dot  DotExpr
}

func (*Dot) exprNode() {}

// Assignment assigns a new value to a named variable: `name = expr`.
type Assignment struct {
	baseExpr
	Name  string
	Value Expr
}

func (*Assignment) exprNode() {}

// Let declares a new local binding: `let name (: Type)? = expr`.
type Let struct {
	baseExpr
	Name  string
	Type  *TypeID
	Value Expr
}

func (*Let) exprNode() {}

// CondBlock is one `cond { ... }` arm of an If expression.
type CondBlock struct {
	Cond  Expr
	Block *Block
}

// If is an if/else-if/else expression chain.
type If struct {
	baseExpr
	IfBlock     CondBlock
	ElseIfs     []CondBlock
	ElseBlock   *Block // nil if there is no else
}

func (*If) exprNode() {}

// Loop is an unconditional loop over a body block, exited only via
// Break or Return.
type Loop struct {
	baseExpr
	Body *Block
}

func (*Loop) exprNode() {}

// Block is a sequence of statements plus an optional trailing
// expression (the block's value, when present with no semicolon).
type Block struct {
	baseExpr
	Stmts []Expr
	Tail  Expr // nil if the block has no tail expression
}

func (*Block) exprNode() {}

// Return exits the enclosing function, optionally with a value.
type Return struct {
	baseExpr
	Value Expr // nil for a bare `return;`
}

func (*Return) exprNode() {}

// Break exits the innermost enclosing Loop.
type Break struct{ baseExpr }

func (*Break) exprNode() {}

// Continue restarts the innermost enclosing Loop.
type Continue struct{ baseExpr }

func (*Continue) exprNode() {}

// Constructors below let other packages (chiefly parser) build nodes
// without naming the unexported baseExpr field directly.

func NewIntLiteral(v int64, sp token.Span) *Literal {
	return &Literal{baseExpr{sp}, token.IntLit, v, 0, "", false}
}

func NewFloatLiteral(v float64, sp token.Span) *Literal {
	return &Literal{baseExpr{sp}, token.FloatLit, 0, v, "", false}
}

func NewStringLiteral(v string, sp token.Span) *Literal {
	return &Literal{baseExpr{sp}, token.StringLit, 0, 0, v, false}
}

func NewBoolLiteral(v bool, sp token.Span) *Literal {
	return &Literal{baseExpr{sp}, token.BoolLit, 0, 0, "", v}
}

func NewVariable(name string, sp token.Span) *Variable {
	return &Variable{baseExpr{sp}, name}
}

func NewStructLiteral(name string, fields []FieldInit, sp token.Span) *StructLiteral {
	return &StructLiteral{baseExpr{sp}, name, fields}
}

func NewFunctionCall(name string, args []Expr, sp token.Span) *FunctionCall {
	return &FunctionCall{baseExpr{sp}, name, args}
}

func NewBinary(lhs Expr, op BinaryOperator, rhs Expr, sp token.Span) *Binary {
	return &Binary{baseExpr{sp}, lhs, op, rhs}
}

func NewDot(lhs Expr, field string, sp token.Span) *Dot {
	return &Dot{baseExpr{sp}, lhs, DotExpr{field}}
}

func NewAssignment(name string, value Expr, sp token.Span) *Assignment {
	return &Assignment{baseExpr{sp}, name, value}
}

func NewLet(name string, ty *TypeID, value Expr, sp token.Span) *Let {
	return &Let{baseExpr{sp}, name, ty, value}
}

func NewIf(ifBlock CondBlock, elseIfs []CondBlock, elseBlock *Block, sp token.Span) *If {
	return &If{baseExpr{sp}, ifBlock, elseIfs, elseBlock}
}

func NewLoop(body *Block, sp token.Span) *Loop {
	return &Loop{baseExpr{sp}, body}
}

func NewBlock(stmts []Expr, tail Expr, sp token.Span) *Block {
	return &Block{baseExpr{sp}, stmts, tail}
}

func NewReturn(value Expr, sp token.Span) *Return {
	return &Return{baseExpr{sp}, value}
}

func NewBreak(sp token.Span) *Break { return &Break{baseExpr{sp}} }

func NewContinue(sp token.Span) *Continue { return &Continue{baseExpr{sp}} }
