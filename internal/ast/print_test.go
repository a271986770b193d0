package ast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rill-lang/rill/internal/token"
)

func TestPrintBinaryIsFullyParenthesised(t *testing.T) {
	e := NewBinary(
		NewIntLiteral(1, token.Span{}),
		Add,
		NewBinary(NewIntLiteral(2, token.Span{}), Mul, NewIntLiteral(3, token.Span{}), token.Span{}),
		token.Span{},
	)
	var sb strings.Builder
	PrintExpr(&sb, e)
	assert.Equal(t, "(1 + (2 * 3))", sb.String())
}

func TestPrintStructLiteral(t *testing.T) {
	e := NewStructLiteral("Point", []FieldInit{
		{Field: "x", Value: NewIntLiteral(1, token.Span{})},
		{Field: "y", Value: NewIntLiteral(2, token.Span{})},
	}, token.Span{})
	var sb strings.Builder
	PrintExpr(&sb, e)
	assert.Equal(t, "Point { x: 1, y: 2 }", sb.String())
}

func TestPrintIfElse(t *testing.T) {
	e := NewIf(
		CondBlock{Cond: NewVariable("ok", token.Span{}), Block: NewBlock(nil, NewIntLiteral(1, token.Span{}), token.Span{})},
		nil,
		NewBlock(nil, NewIntLiteral(2, token.Span{}), token.Span{}),
		token.Span{},
	)
	var sb strings.Builder
	PrintExpr(&sb, e)
	assert.Equal(t, "if ok { 1 } else { 2 }", sb.String())
}

func TestPrintModuleRoundTrip(t *testing.T) {
	m := &Module{
		Name: "test",
		Functions: []*FunctionDecl{
			{
				Proto: FunctionProto{Name: "add", Arguments: []Param{{Name: "a", Type: Int}, {Name: "b", Type: Int}}, ReturnType: Int},
				Body: NewBlock(nil, NewBinary(
					NewVariable("a", token.Span{}), Add, NewVariable("b", token.Span{}), token.Span{},
				), token.Span{}),
			},
		},
	}
	out := Print(m)
	assert.Contains(t, out, "fn add(a: int, b: int) -> int")
	assert.Contains(t, out, "(a + b)")
}
