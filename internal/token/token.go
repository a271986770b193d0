// Package token defines the spanned token stream produced by the
// tokenizer and consumed by the parser.
package token

import (
	"fmt"

	"github.com/rill-lang/rill/internal/source"
)

// Span is a pair of source positions plus a canonical "last" position,
// carried by every token and AST node for diagnostics. Last is the
// position of the final rune consumed, useful for pointing at the end
// of a multi-rune lexeme without recomputing it from End.
type Span struct {
	Start source.Pos
	End   source.Pos
	Last  source.Pos
}

func (sp Span) String() string {
	if sp.Start.Line == sp.End.Line {
		return fmt.Sprintf("%v:%v-%v", sp.Start.Name, sp.Start.Line, sp.End.Column)
	}
	return fmt.Sprintf("%v:%v:%v-%v:%v", sp.Start.Name, sp.Start.Line, sp.Start.Column, sp.End.Line, sp.End.Column)
}

// Contains reports whether sp fully covers other, which AST nodes use
// (best effort, only asserted on leaves by tests) to check the span
// invariant that a child's span is a subrange of its parent's.
func (sp Span) Contains(other Span) bool {
	return other.Start.Offset >= sp.Start.Offset && other.End.Offset <= sp.End.Offset
}

// Kind tags what a Token is: either a user Identifier or keyword
// (IdentKind) or a Literal (LitKind).
type Kind int

const (
	// Identifier-shaped tokens: user identifiers, keywords, punctuation
	// and operator glyphs.
	Ident Kind = iota
	// Literal-shaped tokens: Int, Float, String, Bool.
	Literal
)

// IdentKind enumerates every Identifier-shaped token: user identifiers,
// and every keyword/operator/punctuation glyph.
type IdentKind int

const (
	Name IdentKind = iota // a user identifier, e.g. "foo"

	// keywords
	KwFn
	KwLet
	KwIf
	KwElse
	KwLoop
	KwWhile
	KwFor
	KwReturn
	KwBreak
	KwContinue
	KwStruct
	KwTrue
	KwFalse

	// punctuation and operators
	LParen
	RParen
	LBrace
	RBrace
	Comma
	Colon
	Semicolon
	Dot
	Arrow      // ->
	ColonColon // ::

	Plus
	Minus
	Star
	Slash
	Bang

	Eq       // =
	EqEq     // ==
	NotEq    // !=
	Lt       // <
	Lte      // <=
	Gt       // >
	Gte      // >=
	AndAnd   // &&
	OrOr     // ||
)

var identKindNames = map[IdentKind]string{
	Name:       "identifier",
	KwFn:       "fn",
	KwLet:      "let",
	KwIf:       "if",
	KwElse:     "else",
	KwLoop:     "loop",
	KwWhile:    "while",
	KwFor:      "for",
	KwReturn:   "return",
	KwBreak:    "break",
	KwContinue: "continue",
	KwStruct:   "struct",
	KwTrue:     "true",
	KwFalse:    "false",
	LParen:     "(",
	RParen:     ")",
	LBrace:     "{",
	RBrace:     "}",
	Comma:      ",",
	Colon:      ":",
	Semicolon:  ";",
	Dot:        ".",
	Arrow:      "->",
	ColonColon: "::",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	Slash:      "/",
	Bang:       "!",
	Eq:         "=",
	EqEq:       "==",
	NotEq:      "!=",
	Lt:         "<",
	Lte:        "<=",
	Gt:         ">",
	Gte:        ">=",
	AndAnd:     "&&",
	OrOr:       "||",
}

func (ik IdentKind) String() string {
	if s, ok := identKindNames[ik]; ok {
		return s
	}
	return fmt.Sprintf("IdentKind(%d)", int(ik))
}

// Keywords maps the reserved-word spelling to its IdentKind. Looked up
// after lexing an identifier-shaped run, by exact match.
var Keywords = map[string]IdentKind{
	"fn":       KwFn,
	"let":      KwLet,
	"if":       KwIf,
	"else":     KwElse,
	"loop":     KwLoop,
	"while":    KwWhile,
	"for":      KwFor,
	"return":   KwReturn,
	"break":    KwBreak,
	"continue": KwContinue,
	"struct":   KwStruct,
	"true":     KwTrue,
	"false":    KwFalse,
}

// LitKind enumerates the literal payload kinds.
type LitKind int

const (
	IntLit LitKind = iota
	FloatLit
	StringLit
	BoolLit
)

func (lk LitKind) String() string {
	switch lk {
	case IntLit:
		return "int"
	case FloatLit:
		return "float"
	case StringLit:
		return "string"
	case BoolLit:
		return "bool"
	default:
		return fmt.Sprintf("LitKind(%d)", int(lk))
	}
}

// Token is a tagged union of Identifier(kind) and Literal(kind), spanned
// in the source it was lexed from.
type Token struct {
	Kind Kind
	Span Span

	// valid when Kind == Ident
	IdentKind IdentKind
	Text      string // the raw lexeme; for Name, the identifier spelling

	// valid when Kind == Literal
	LitKind LitKind
	IntVal  int64
	FloatVal float64
	StrVal   string
	BoolVal  bool
}

// IsKeyword reports whether the token is a reserved word (as opposed to
// a user identifier or punctuation).
func (t Token) IsKeyword() bool {
	_, ok := Keywords[t.Text]
	return t.Kind == Ident && t.IdentKind != Name && ok
}

func (t Token) String() string {
	switch t.Kind {
	case Ident:
		return t.IdentKind.String()
	case Literal:
		switch t.LitKind {
		case IntLit:
			return fmt.Sprintf("Int(%d)", t.IntVal)
		case FloatLit:
			return fmt.Sprintf("Float(%v)", t.FloatVal)
		case StringLit:
			return fmt.Sprintf("String(%q)", t.StrVal)
		case BoolLit:
			return fmt.Sprintf("Bool(%v)", t.BoolVal)
		}
	}
	return "<invalid token>"
}
