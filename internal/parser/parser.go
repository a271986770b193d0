// Package parser implements a recursive-descent (Pratt for expressions)
// parser that converts a token stream into a spanned ast.Module.
package parser

import (
	"fmt"

	"github.com/rill-lang/rill/internal/ast"
	"github.com/rill-lang/rill/internal/source"
	"github.com/rill-lang/rill/internal/token"
)

// UnexpectedTokenError is returned when the parser finds a token other
// than what the grammar at that point requires.
type UnexpectedTokenError struct {
	Expected string
	Got      token.Token
	Span     token.Span
}

func (e UnexpectedTokenError) Error() string {
	return fmt.Sprintf("%v: expected %s, got %v", e.Span, e.Expected, e.Got)
}

// UnexpectedEOFError is returned when the token stream ends mid-grammar.
type UnexpectedEOFError struct{ Expected string }

func (e UnexpectedEOFError) Error() string {
	return fmt.Sprintf("unexpected end of input, expected %s", e.Expected)
}

// InvalidOperatorError is returned when a token cannot begin any binary
// or unary operator in the position it was found.
type InvalidOperatorError struct {
	Got  token.Token
	Span token.Span
}

func (e InvalidOperatorError) Error() string {
	return fmt.Sprintf("%v: invalid operator %v", e.Span, e.Got)
}

// Parser is a recursive-descent parser over a slice of tokens produced
// by a single lexing pass. The first error aborts parsing; no recovery
// is attempted.
type Parser struct {
	toks []token.Token
	pos  int

	// noStructLiteral suppresses parsing `Name { ... }` as a struct
	// literal; set while parsing if/loop condition heads so that
	// `if x { ... }` parses as a condition followed by a block, not as
	// a struct literal condition. Other curly-brace-using languages
	// that allow this same grammar shape resolve the ambiguity the
	// same way.
	noStructLiteral bool
}

// Parse lexes src in full and parses it into a Module.
func Parse(src *source.Source) (*ast.Module, error) {
	toks, err := token.All(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseModule(src.Name())
}

func (p *Parser) peek() (token.Token, bool) {
	if p.pos >= len(p.toks) {
		return token.Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *Parser) peekIdent(kind token.IdentKind) bool {
	t, ok := p.peek()
	return ok && t.Kind == token.Ident && t.IdentKind == kind
}

func (p *Parser) expectIdent(kind token.IdentKind, what string) (token.Token, error) {
	t, ok := p.peek()
	if !ok {
		return token.Token{}, UnexpectedEOFError{Expected: what}
	}
	if t.Kind != token.Ident || t.IdentKind != kind {
		return token.Token{}, UnexpectedTokenError{Expected: what, Got: t, Span: t.Span}
	}
	p.pos++
	return t, nil
}

func (p *Parser) expectName() (string, token.Span, error) {
	t, ok := p.peek()
	if !ok {
		return "", token.Span{}, UnexpectedEOFError{Expected: "identifier"}
	}
	if t.Kind != token.Ident || t.IdentKind != token.Name {
		return "", token.Span{}, UnexpectedTokenError{Expected: "identifier", Got: t, Span: t.Span}
	}
	p.pos++
	return t.Text, t.Span, nil
}

func spanFrom(start, end token.Span) token.Span {
	return token.Span{Start: start.Start, End: end.End, Last: end.Last}
}

func (p *Parser) parseModule(name string) (*ast.Module, error) {
	m := &ast.Module{Name: name}
	var first, last token.Span
	for {
		t, ok := p.peek()
		if !ok {
			break
		}
		if first == (token.Span{}) {
			first = t.Span
		}
		switch {
		case t.Kind == token.Ident && t.IdentKind == token.KwFn:
			fn, err := p.parseFunction()
			if err != nil {
				return nil, err
			}
			m.Functions = append(m.Functions, fn)
			last = fn.Span
		case t.Kind == token.Ident && t.IdentKind == token.KwStruct:
			st, err := p.parseStruct()
			if err != nil {
				return nil, err
			}
			m.Structs = append(m.Structs, st)
			last = st.Span
		default:
			return nil, UnexpectedTokenError{Expected: "fn or struct", Got: t, Span: t.Span}
		}
	}
	m.Span = spanFrom(first, last)
	return m, nil
}

func (p *Parser) parseStruct() (*ast.Struct, error) {
	kw, _ := p.expectIdent(token.KwStruct, "struct")
	name, _, err := p.expectName()
	if err != nil {
		return nil, err
	}
	t, ok := p.peek()
	if !ok {
		return nil, UnexpectedEOFError{Expected: "{ or ;"}
	}
	if t.Kind == token.Ident && t.IdentKind == token.Semicolon {
		p.pos++
		return &ast.Struct{Name: name, Span: spanFrom(kw.Span, t.Span)}, nil
	}
	if _, err := p.expectIdent(token.LBrace, "{"); err != nil {
		return nil, err
	}
	var fields []ast.Param
	for {
		if p.peekIdent(token.RBrace) {
			break
		}
		if len(fields) > 0 {
			if _, err := p.expectIdent(token.Comma, ","); err != nil {
				return nil, err
			}
			if p.peekIdent(token.RBrace) {
				break
			}
		}
		fname, _, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectIdent(token.Colon, ":"); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.Param{Name: fname, Type: ty})
	}
	end, err := p.expectIdent(token.RBrace, "}")
	if err != nil {
		return nil, err
	}
	return &ast.Struct{Name: name, Fields: fields, Span: spanFrom(kw.Span, end.Span)}, nil
}

func (p *Parser) parseType() (ast.TypeID, error) {
	name, _, err := p.expectName()
	if err != nil {
		return ast.TypeID{}, err
	}
	switch name {
	case "int":
		return ast.Int, nil
	case "float":
		return ast.Float, nil
	case "string":
		return ast.String, nil
	case "bool":
		return ast.Bool, nil
	case "void":
		return ast.Void, nil
	default:
		return ast.User(name), nil
	}
}

func (p *Parser) parseFunction() (*ast.FunctionDecl, error) {
	kw, _ := p.expectIdent(token.KwFn, "fn")
	name, _, err := p.expectName()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectIdent(token.LParen, "("); err != nil {
		return nil, err
	}
	var args []ast.Param
	for {
		if p.peekIdent(token.RParen) {
			break
		}
		if len(args) > 0 {
			if _, err := p.expectIdent(token.Comma, ","); err != nil {
				return nil, err
			}
			if p.peekIdent(token.RParen) {
				break
			}
		}
		aname, _, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectIdent(token.Colon, ":"); err != nil {
			return nil, err
		}
		ty, err := p.parseType()
		if err != nil {
			return nil, err
		}
		args = append(args, ast.Param{Name: aname, Type: ty})
	}
	if _, err := p.expectIdent(token.RParen, ")"); err != nil {
		return nil, err
	}
	ret := ast.Void
	if p.peekIdent(token.Arrow) {
		p.pos++
		var err error
		ret, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	proto := ast.FunctionProto{Name: name, Arguments: args, ReturnType: ret, Span: kw.Span}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	proto.Span = spanFrom(kw.Span, body.Span)
	return &ast.FunctionDecl{Proto: proto, Body: body, Span: proto.Span}, nil
}

func (p *Parser) parseBlock() (*ast.Block, error) {
	open, err := p.expectIdent(token.LBrace, "{")
	if err != nil {
		return nil, err
	}
	var stmts []ast.Expr
	var tail ast.Expr
	for {
		if p.peekIdent(token.RBrace) {
			break
		}
		t, ok := p.peek()
		if !ok {
			return nil, UnexpectedEOFError{Expected: "statement or }"}
		}
		if t.Kind == token.Ident && t.IdentKind == token.KwLet {
			stmt, err := p.parseLet()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectIdent(token.Semicolon, ";"); err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
			continue
		}
		if t.Kind == token.Ident && t.IdentKind == token.KwReturn {
			stmt, err := p.parseReturn()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectIdent(token.Semicolon, ";"); err != nil {
				return nil, err
			}
			stmts = append(stmts, stmt)
			continue
		}
		if t.Kind == token.Ident && t.IdentKind == token.KwBreak {
			p.pos++
			if _, err := p.expectIdent(token.Semicolon, ";"); err != nil {
				return nil, err
			}
			stmts = append(stmts, ast.NewBreak(t.Span))
			continue
		}
		if t.Kind == token.Ident && t.IdentKind == token.KwContinue {
			p.pos++
			if _, err := p.expectIdent(token.Semicolon, ";"); err != nil {
				return nil, err
			}
			stmts = append(stmts, ast.NewContinue(t.Span))
			continue
		}

		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peekIdent(token.Semicolon) {
			p.pos++
			stmts = append(stmts, expr)
			continue
		}
		// A block-like expression (if/loop/block) needs no semicolon
		// to stand as a statement; it only becomes the block's tail
		// when it is also the last thing in the block.
		if isBlockLike(expr) && !p.peekIdent(token.RBrace) {
			stmts = append(stmts, expr)
			continue
		}
		tail = expr
		break
	}
	end, err := p.expectIdent(token.RBrace, "}")
	if err != nil {
		return nil, err
	}
	return ast.NewBlock(stmts, tail, spanFrom(open.Span, end.Span)), nil
}

func isBlockLike(e ast.Expr) bool {
	switch e.(type) {
	case *ast.If, *ast.Loop, *ast.Block:
		return true
	default:
		return false
	}
}

func (p *Parser) parseLet() (ast.Expr, error) {
	kw, _ := p.expectIdent(token.KwLet, "let")
	name, _, err := p.expectName()
	if err != nil {
		return nil, err
	}
	var ty *ast.TypeID
	if p.peekIdent(token.Colon) {
		p.pos++
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ty = &t
	}
	if _, err := p.expectIdent(token.Eq, "="); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewLet(name, ty, value, spanFrom(kw.Span, value.ExprSpan())), nil
}

func (p *Parser) parseReturn() (ast.Expr, error) {
	kw, _ := p.expectIdent(token.KwReturn, "return")
	if p.peekIdent(token.Semicolon) {
		return ast.NewReturn(nil, kw.Span), nil
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewReturn(value, spanFrom(kw.Span, value.ExprSpan())), nil
}

// parseExpr parses a full expression, including assignment, which binds
// loosest of all.
func (p *Parser) parseExpr() (ast.Expr, error) {
	lhs, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.peekIdent(token.Eq) {
		return lhs, nil
	}
	v, ok := lhs.(*ast.Variable)
	if !ok {
		t, _ := p.peek()
		return nil, UnexpectedTokenError{Expected: "assignment target must be a variable", Got: t, Span: t.Span}
	}
	p.pos++ // consume '='
	rhs, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewAssignment(v.Name, rhs, spanFrom(lhs.ExprSpan(), rhs.ExprSpan())), nil
}

func (p *Parser) parseOr() (ast.Expr, error) {
	lhs, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peekIdent(token.OrOr) {
		p.pos++
		rhs, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinary(lhs, ast.Or, rhs, spanFrom(lhs.ExprSpan(), rhs.ExprSpan()))
	}
	return lhs, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	lhs, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.peekIdent(token.AndAnd) {
		p.pos++
		rhs, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinary(lhs, ast.And, rhs, spanFrom(lhs.ExprSpan(), rhs.ExprSpan()))
	}
	return lhs, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	lhs, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOperator
		switch {
		case p.peekIdent(token.EqEq):
			op = ast.Eq
		case p.peekIdent(token.NotEq):
			op = ast.Neq
		default:
			return lhs, nil
		}
		p.pos++
		rhs, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinary(lhs, op, rhs, spanFrom(lhs.ExprSpan(), rhs.ExprSpan()))
	}
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOperator
		switch {
		case p.peekIdent(token.Lt):
			op = ast.Lt
		case p.peekIdent(token.Lte):
			op = ast.Lte
		case p.peekIdent(token.Gt):
			op = ast.Gt
		case p.peekIdent(token.Gte):
			op = ast.Gte
		default:
			return lhs, nil
		}
		p.pos++
		rhs, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinary(lhs, op, rhs, spanFrom(lhs.ExprSpan(), rhs.ExprSpan()))
	}
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOperator
		switch {
		case p.peekIdent(token.Plus):
			op = ast.Add
		case p.peekIdent(token.Minus):
			op = ast.Sub
		default:
			return lhs, nil
		}
		p.pos++
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinary(lhs, op, rhs, spanFrom(lhs.ExprSpan(), rhs.ExprSpan()))
	}
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		var op ast.BinaryOperator
		switch {
		case p.peekIdent(token.Star):
			op = ast.Mul
		case p.peekIdent(token.Slash):
			op = ast.Div
		default:
			return lhs, nil
		}
		p.pos++
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		lhs = ast.NewBinary(lhs, op, rhs, spanFrom(lhs.ExprSpan(), rhs.ExprSpan()))
	}
}

// parseUnary handles prefix `!` and `-`, desugared into binary
// expressions against a zero/false literal so the AST keeps a single
// Binary node shape rather than a separate Unary node.
func (p *Parser) parseUnary() (ast.Expr, error) {
	t, ok := p.peek()
	if ok && t.Kind == token.Ident && (t.IdentKind == token.Bang || t.IdentKind == token.Minus) {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		sp := spanFrom(t.Span, operand.ExprSpan())
		if t.IdentKind == token.Bang {
			return ast.NewBinary(ast.NewBoolLiteral(false, t.Span), ast.Eq, operand, sp), nil
		}
		return ast.NewBinary(ast.NewIntLiteral(0, t.Span), ast.Sub, operand, sp), nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.peekIdent(token.Dot) {
		p.pos++
		field, fieldSpan, err := p.expectName()
		if err != nil {
			return nil, err
		}
		expr = ast.NewDot(expr, field, spanFrom(expr.ExprSpan(), fieldSpan))
	}
	return expr, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t, ok := p.peek()
	if !ok {
		return nil, UnexpectedEOFError{Expected: "expression"}
	}

	switch {
	case t.Kind == token.Literal:
		p.pos++
		switch t.LitKind {
		case token.IntLit:
			return ast.NewIntLiteral(t.IntVal, t.Span), nil
		case token.FloatLit:
			return ast.NewFloatLiteral(t.FloatVal, t.Span), nil
		case token.StringLit:
			return ast.NewStringLiteral(t.StrVal, t.Span), nil
		case token.BoolLit:
			return ast.NewBoolLiteral(t.BoolVal, t.Span), nil
		}

	case t.Kind == token.Ident && t.IdentKind == token.LParen:
		p.pos++
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectIdent(token.RParen, ")"); err != nil {
			return nil, err
		}
		return inner, nil

	case t.Kind == token.Ident && t.IdentKind == token.KwIf:
		return p.parseIf()

	case t.Kind == token.Ident && t.IdentKind == token.KwLoop:
		return p.parseLoop()

	case t.Kind == token.Ident && t.IdentKind == token.Name:
		p.pos++
		if p.peekIdent(token.LParen) {
			return p.parseCall(t.Text, t.Span)
		}
		if !p.noStructLiteral && p.peekIdent(token.LBrace) {
			return p.parseStructLiteral(t.Text, t.Span)
		}
		return ast.NewVariable(t.Text, t.Span), nil
	}

	return nil, UnexpectedTokenError{Expected: "expression", Got: t, Span: t.Span}
}

func (p *Parser) parseCall(name string, start token.Span) (ast.Expr, error) {
	if _, err := p.expectIdent(token.LParen, "("); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for {
		if p.peekIdent(token.RParen) {
			break
		}
		if len(args) > 0 {
			if _, err := p.expectIdent(token.Comma, ","); err != nil {
				return nil, err
			}
			if p.peekIdent(token.RParen) {
				break
			}
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	end, err := p.expectIdent(token.RParen, ")")
	if err != nil {
		return nil, err
	}
	return ast.NewFunctionCall(name, args, spanFrom(start, end.Span)), nil
}

func (p *Parser) parseStructLiteral(name string, start token.Span) (ast.Expr, error) {
	if _, err := p.expectIdent(token.LBrace, "{"); err != nil {
		return nil, err
	}
	var fields []ast.FieldInit
	for {
		if p.peekIdent(token.RBrace) {
			break
		}
		if len(fields) > 0 {
			if _, err := p.expectIdent(token.Comma, ","); err != nil {
				return nil, err
			}
			if p.peekIdent(token.RBrace) {
				break
			}
		}
		fname, _, err := p.expectName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectIdent(token.Colon, ":"); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.FieldInit{Field: fname, Value: value})
	}
	end, err := p.expectIdent(token.RBrace, "}")
	if err != nil {
		return nil, err
	}
	return ast.NewStructLiteral(name, fields, spanFrom(start, end.Span)), nil
}

func (p *Parser) parseCondBlock() (ast.CondBlock, error) {
	p.noStructLiteral = true
	cond, err := p.parseExpr()
	p.noStructLiteral = false
	if err != nil {
		return ast.CondBlock{}, err
	}
	block, err := p.parseBlock()
	if err != nil {
		return ast.CondBlock{}, err
	}
	return ast.CondBlock{Cond: cond, Block: block}, nil
}

func (p *Parser) parseIf() (ast.Expr, error) {
	kw, _ := p.expectIdent(token.KwIf, "if")
	ifBlock, err := p.parseCondBlock()
	if err != nil {
		return nil, err
	}
	var elseIfs []ast.CondBlock
	var elseBlock *ast.Block
	end := ifBlock.Block.ExprSpan()
	for p.peekIdent(token.KwElse) {
		p.pos++
		if p.peekIdent(token.KwIf) {
			p.pos++
			cb, err := p.parseCondBlock()
			if err != nil {
				return nil, err
			}
			elseIfs = append(elseIfs, cb)
			end = cb.Block.ExprSpan()
			continue
		}
		blk, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		elseBlock = blk
		end = blk.ExprSpan()
		break
	}
	return ast.NewIf(ifBlock, elseIfs, elseBlock, spanFrom(kw.Span, end)), nil
}

func (p *Parser) parseLoop() (ast.Expr, error) {
	kw, _ := p.expectIdent(token.KwLoop, "loop")
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return ast.NewLoop(body, spanFrom(kw.Span, body.Span)), nil
}
