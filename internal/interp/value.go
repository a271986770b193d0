// Package interp implements a tree-walking evaluator over internal/ast.
package interp

import (
	"fmt"

	"github.com/rill-lang/rill/internal/ast"
)

// Value is a tagged runtime cell: a type id plus the matching payload.
// Closed over the same kinds as ast.TypeID so invalid operations are
// caught by a type switch rather than by reflection.
type Value struct {
	Type   ast.TypeID
	Int    int64
	Float  float64
	Str    string
	Bool   bool
	Fields map[string]Value // set when Type.Kind == ast.UserType
	order  []string         // declaration order, for Display/equality
}

// Void is the single value of type void.
var Void = Value{Type: ast.Void}

func IntValue(v int64) Value    { return Value{Type: ast.Int, Int: v} }
func FloatValue(v float64) Value { return Value{Type: ast.Float, Float: v} }
func StringValue(v string) Value { return Value{Type: ast.String, Str: v} }
func BoolValue(v bool) Value    { return Value{Type: ast.Bool, Bool: v} }

// StructValue builds a struct value, fixing field declaration order.
func StructValue(typeName string, order []string, fields map[string]Value) Value {
	return Value{Type: ast.User(typeName), Fields: fields, order: order}
}

// Display renders a value the way print/println do.
func (v Value) Display() string {
	switch v.Type.Kind {
	case ast.IntType:
		return fmt.Sprintf("%d", v.Int)
	case ast.FloatType:
		return fmt.Sprintf("%v", v.Float)
	case ast.StringType:
		return v.Str
	case ast.BoolType:
		return fmt.Sprintf("%v", v.Bool)
	case ast.VoidType:
		return "void"
	case ast.UserType:
		s := v.Type.Name + " { "
		for i, name := range v.order {
			if i > 0 {
				s += ", "
			}
			s += name + ": " + v.Fields[name].Display()
		}
		return s + " }"
	default:
		return fmt.Sprintf("<value %v>", v.Type)
	}
}
