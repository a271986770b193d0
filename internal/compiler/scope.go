package compiler

import "github.com/rill-lang/rill/internal/ast"

// symbol is a resolved local binding: its frame-pointer-relative word
// offset, declared type, and word size (1 for int/bool, the field
// count for a struct).
type symbol struct {
	Offset int32
	Type   ast.TypeID
	Size   int32
}

// scope is one lexical level of the symbol table: an ordered set of
// bindings plus the next free frame offset, inherited from the parent
// scope on push and restored on pop (spec.md §3's "Pushing a child
// scope inherits the parent's current offset; popping restores it").
type scope struct {
	vars       map[string]symbol
	nextOffset int32
}

// symbolTable is a stack of lexical scopes; spec.md's "global table"
// has no counterpart here since the grammar has no top-level variable
// declarations, only functions and structs (tracked separately by the
// Compiler). find_var degrades to "walk inner to outer".
type symbolTable struct {
	scopes []*scope
}

func newSymbolTable() *symbolTable {
	return &symbolTable{scopes: []*scope{{vars: map[string]symbol{}}}}
}

// push opens a child scope inheriting the current frame offset.
func (st *symbolTable) push() {
	top := st.scopes[len(st.scopes)-1]
	st.scopes = append(st.scopes, &scope{vars: map[string]symbol{}, nextOffset: top.nextOffset})
}

// pop discards the innermost scope, restoring the parent's frame
// offset (the locals it declared are no longer reachable).
func (st *symbolTable) pop() {
	st.scopes = st.scopes[:len(st.scopes)-1]
}

func (st *symbolTable) top() *scope { return st.scopes[len(st.scopes)-1] }

// declare binds name at the current scope's frame offset, advancing it
// by size words. Returns false if name is already declared in THIS
// scope (shadowing an outer scope's binding is fine).
func (st *symbolTable) declare(name string, typ ast.TypeID, size int32) bool {
	s := st.top()
	if _, ok := s.vars[name]; ok {
		return false
	}
	s.vars[name] = symbol{Offset: s.nextOffset, Type: typ, Size: size}
	s.nextOffset += size
	return true
}

// declareParam binds a parameter at a caller-side (negative) frame
// offset without consuming frame-offset budget the way a local does —
// params live below the frame pointer, computed once from the full
// parameter list rather than accumulated through declare.
func (st *symbolTable) declareParam(name string, typ ast.TypeID, offset int32, size int32) {
	s := st.scopes[0]
	s.vars[name] = symbol{Offset: offset, Type: typ, Size: size}
}

// find walks inner to outer scopes for name.
func (st *symbolTable) find(name string) (symbol, bool) {
	for i := len(st.scopes) - 1; i >= 0; i-- {
		if sym, ok := st.scopes[i].vars[name]; ok {
			return sym, true
		}
	}
	return symbol{}, false
}
