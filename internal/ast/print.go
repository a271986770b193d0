package ast

import (
	"fmt"
	"strings"

	"github.com/rill-lang/rill/internal/token"
)

// Print renders a module as source text. Expressions are rendered fully
// parenthesised so that Print is a right inverse of parsing: parsing the
// printed text back reproduces an equivalent tree (testable property,
// spec.md property 4).
func Print(m *Module) string {
	var sb strings.Builder
	for i, s := range m.Structs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		printStruct(&sb, s)
	}
	if len(m.Structs) > 0 && len(m.Functions) > 0 {
		sb.WriteByte('\n')
	}
	for i, fn := range m.Functions {
		if i > 0 {
			sb.WriteByte('\n')
		}
		printFunc(&sb, fn)
	}
	return sb.String()
}

func printStruct(sb *strings.Builder, s *Struct) {
	if len(s.Fields) == 0 {
		fmt.Fprintf(sb, "struct %s;\n", s.Name)
		return
	}
	fmt.Fprintf(sb, "struct %s { ", s.Name)
	for i, f := range s.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%s: %s", f.Name, f.Type)
	}
	sb.WriteString(" }\n")
}

func printFunc(sb *strings.Builder, fn *FunctionDecl) {
	fmt.Fprintf(sb, "fn %s(", fn.Proto.Name)
	for i, a := range fn.Proto.Arguments {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "%s: %s", a.Name, a.Type)
	}
	fmt.Fprintf(sb, ") -> %s ", fn.Proto.ReturnType)
	PrintExpr(sb, fn.Body)
	sb.WriteByte('\n')
}

// PrintExpr renders a single expression, fully parenthesised.
func PrintExpr(sb *strings.Builder, e Expr) {
	switch n := e.(type) {
	case *Literal:
		switch n.Kind {
		case token.IntLit:
			fmt.Fprintf(sb, "%d", n.IntVal)
		case token.FloatLit:
			fmt.Fprintf(sb, "%v", n.FloatVal)
		case token.StringLit:
			fmt.Fprintf(sb, "%q", n.StrVal)
		case token.BoolLit:
			fmt.Fprintf(sb, "%v", n.BoolVal)
		}
	case *Variable:
		sb.WriteString(n.Name)
	case *StructLiteral:
		fmt.Fprintf(sb, "%s { ", n.Name)
		for i, f := range n.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(sb, "%s: ", f.Field)
			PrintExpr(sb, f.Value)
		}
		sb.WriteString(" }")
	case *FunctionCall:
		fmt.Fprintf(sb, "%s(", n.Name)
		for i, a := range n.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			PrintExpr(sb, a)
		}
		sb.WriteString(")")
	case *Binary:
		sb.WriteString("(")
		PrintExpr(sb, n.LHS)
		fmt.Fprintf(sb, " %s ", n.Op)
		PrintExpr(sb, n.RHS)
		sb.WriteString(")")
	case *Dot:
		PrintExpr(sb, n.LHS)
		fmt.Fprintf(sb, ".%s", n.Dot.Field)
	case *Assignment:
		fmt.Fprintf(sb, "(%s = ", n.Name)
		PrintExpr(sb, n.Value)
		sb.WriteString(")")
	case *Let:
		sb.WriteString("let ")
		sb.WriteString(n.Name)
		if n.Type != nil {
			fmt.Fprintf(sb, ": %s", *n.Type)
		}
		sb.WriteString(" = ")
		PrintExpr(sb, n.Value)
	case *If:
		sb.WriteString("if ")
		PrintExpr(sb, n.IfBlock.Cond)
		sb.WriteString(" ")
		PrintExpr(sb, n.IfBlock.Block)
		for _, ei := range n.ElseIfs {
			sb.WriteString(" else if ")
			PrintExpr(sb, ei.Cond)
			sb.WriteString(" ")
			PrintExpr(sb, ei.Block)
		}
		if n.ElseBlock != nil {
			sb.WriteString(" else ")
			PrintExpr(sb, n.ElseBlock)
		}
	case *Loop:
		sb.WriteString("loop ")
		PrintExpr(sb, n.Body)
	case *Block:
		sb.WriteString("{ ")
		for _, s := range n.Stmts {
			PrintExpr(sb, s)
			sb.WriteString("; ")
		}
		if n.Tail != nil {
			PrintExpr(sb, n.Tail)
			sb.WriteString(" ")
		}
		sb.WriteString("}")
	case *Return:
		sb.WriteString("return")
		if n.Value != nil {
			sb.WriteString(" ")
			PrintExpr(sb, n.Value)
		}
	case *Break:
		sb.WriteString("break")
	case *Continue:
		sb.WriteString("continue")
	default:
		sb.WriteString("<?>")
	}
}
