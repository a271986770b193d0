package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/ast"
	"github.com/rill-lang/rill/internal/source"
)

func mustParse(t *testing.T, text string) *ast.Module {
	t.Helper()
	m, err := Parse(source.FromString("test.rill", text))
	require.NoError(t, err)
	return m
}

func TestParseFunction(t *testing.T) {
	m := mustParse(t, `fn add(a: int, b: int) -> int { return a + b; }`)
	require.Len(t, m.Functions, 1)
	fn := m.Functions[0]
	assert.Equal(t, "add", fn.Proto.Name)
	require.Len(t, fn.Proto.Arguments, 2)
	assert.Equal(t, ast.Int, fn.Proto.Arguments[0].Type)
	assert.Equal(t, ast.Int, fn.Proto.ReturnType)

	block, ok := fn.Body.(*ast.Block)
	require.True(t, ok)
	require.Len(t, block.Stmts, 1)
	ret, ok := block.Stmts[0].(*ast.Return)
	require.True(t, ok)
	bin, ok := ret.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Add, bin.Op)
}

func TestParseFunctionDefaultsToVoidReturn(t *testing.T) {
	m := mustParse(t, `fn noop() { }`)
	require.Len(t, m.Functions, 1)
	assert.Equal(t, ast.Void, m.Functions[0].Proto.ReturnType)
}

func TestParseStruct(t *testing.T) {
	m := mustParse(t, `struct Point { x: int, y: int }`)
	require.Len(t, m.Structs, 1)
	st := m.Structs[0]
	assert.Equal(t, "Point", st.Name)
	require.Len(t, st.Fields, 2)
	assert.Equal(t, "x", st.Fields[0].Name)
}

func TestParseEmptyStruct(t *testing.T) {
	m := mustParse(t, `struct Marker;`)
	require.Len(t, m.Structs, 1)
	assert.Empty(t, m.Structs[0].Fields)
}

func TestOperatorPrecedence(t *testing.T) {
	m := mustParse(t, `fn f() -> int { 1 + 2 * 3 }`)
	block := m.Functions[0].Body.(*ast.Block)
	require.NotNil(t, block.Tail)
	top, ok := block.Tail.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Add, top.Op)
	rhs, ok := top.RHS.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Mul, rhs.Op)
}

func TestLogicalPrecedenceAboveEquality(t *testing.T) {
	m := mustParse(t, `fn f() -> bool { 1 == 1 && 2 == 2 }`)
	block := m.Functions[0].Body.(*ast.Block)
	top, ok := block.Tail.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.And, top.Op)
	_, ok = top.LHS.(*ast.Binary)
	assert.True(t, ok)
	_, ok = top.RHS.(*ast.Binary)
	assert.True(t, ok)
}

func TestUnaryDesugarsToBinary(t *testing.T) {
	m := mustParse(t, `fn f() -> int { -x }`)
	block := m.Functions[0].Body.(*ast.Block)
	neg, ok := block.Tail.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Sub, neg.Op)
	lit, ok := neg.LHS.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, int64(0), lit.IntVal)
}

func TestFunctionCall(t *testing.T) {
	m := mustParse(t, `fn f() -> int { add(1, 2) }`)
	block := m.Functions[0].Body.(*ast.Block)
	call, ok := block.Tail.(*ast.FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "add", call.Name)
	require.Len(t, call.Args, 2)
}

func TestDotChain(t *testing.T) {
	m := mustParse(t, `fn f() -> int { a.b.c }`)
	block := m.Functions[0].Body.(*ast.Block)
	outer, ok := block.Tail.(*ast.Dot)
	require.True(t, ok)
	assert.Equal(t, "c", outer.Dot.Field)
	inner, ok := outer.LHS.(*ast.Dot)
	require.True(t, ok)
	assert.Equal(t, "b", inner.Dot.Field)
}

func TestStructLiteral(t *testing.T) {
	m := mustParse(t, `fn f() -> Point { Point { x: 1, y: 2 } }`)
	block := m.Functions[0].Body.(*ast.Block)
	sl, ok := block.Tail.(*ast.StructLiteral)
	require.True(t, ok)
	assert.Equal(t, "Point", sl.Name)
	require.Len(t, sl.Fields, 2)
	assert.Equal(t, "x", sl.Fields[0].Field)
}

func TestIfConditionSuppressesStructLiteral(t *testing.T) {
	m := mustParse(t, `fn f() -> int { if x { 1 } else { 2 } }`)
	block := m.Functions[0].Body.(*ast.Block)
	ifExpr, ok := block.Tail.(*ast.If)
	require.True(t, ok)
	_, ok = ifExpr.IfBlock.Cond.(*ast.Variable)
	assert.True(t, ok, "condition should parse as a bare variable, not a struct literal")
	require.NotNil(t, ifExpr.ElseBlock)
}

func TestIfElseIfChain(t *testing.T) {
	m := mustParse(t, `fn f() -> int { if a { 1 } else if b { 2 } else { 3 } }`)
	block := m.Functions[0].Body.(*ast.Block)
	ifExpr := block.Tail.(*ast.If)
	require.Len(t, ifExpr.ElseIfs, 1)
	require.NotNil(t, ifExpr.ElseBlock)
}

func TestLoopWithBreak(t *testing.T) {
	m := mustParse(t, `fn f() { loop { break; } }`)
	block := m.Functions[0].Body.(*ast.Block)
	require.Empty(t, block.Stmts)
	loop, ok := block.Tail.(*ast.Loop)
	require.True(t, ok)
	require.Len(t, loop.Body.Stmts, 1)
	_, ok = loop.Body.Stmts[0].(*ast.Break)
	assert.True(t, ok)
}

func TestAssignment(t *testing.T) {
	m := mustParse(t, `fn f() { x = 1 + 2; }`)
	block := m.Functions[0].Body.(*ast.Block)
	assign, ok := block.Stmts[0].(*ast.Assignment)
	require.True(t, ok)
	assert.Equal(t, "x", assign.Name)
}

func TestAssignmentTargetMustBeVariable(t *testing.T) {
	_, err := Parse(source.FromString("test.rill", `fn f() { 1 = 2; }`))
	require.Error(t, err)
}

func TestLetWithTypeAnnotation(t *testing.T) {
	m := mustParse(t, `fn f() { let x: int = 1; }`)
	block := m.Functions[0].Body.(*ast.Block)
	let, ok := block.Stmts[0].(*ast.Let)
	require.True(t, ok)
	require.NotNil(t, let.Type)
	assert.Equal(t, ast.Int, *let.Type)
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	m := mustParse(t, `fn f() -> int { (1 + 2) * 3 }`)
	block := m.Functions[0].Body.(*ast.Block)
	top, ok := block.Tail.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, ast.Mul, top.Op)
	_, ok = top.LHS.(*ast.Binary)
	assert.True(t, ok)
}

func TestPrintThenParseIsIdempotent(t *testing.T) {
	m1 := mustParse(t, `fn add(a: int, b: int) -> int { return a + b * 2; }`)
	printed := ast.Print(m1)
	m2, err := Parse(source.FromString("printed.rill", printed))
	require.NoError(t, err)
	assert.Equal(t, ast.Print(m1), ast.Print(m2))
}

func TestUnexpectedTokenError(t *testing.T) {
	_, err := Parse(source.FromString("test.rill", `fn f( { }`))
	require.Error(t, err)
	var uerr UnexpectedTokenError
	assert.ErrorAs(t, err, &uerr)
}

func TestUnexpectedEOFError(t *testing.T) {
	_, err := Parse(source.FromString("test.rill", `fn f(`))
	require.Error(t, err)
	var eerr UnexpectedEOFError
	assert.ErrorAs(t, err, &eerr)
}
