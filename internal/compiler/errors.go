package compiler

import (
	"fmt"

	"github.com/rill-lang/rill/internal/ast"
	"github.com/rill-lang/rill/internal/token"
)

// The error taxonomy below is spec.md §7's "Semantic (interpreter and
// compiler)" and "VM" flat lists, the compiler-owned subset: one small
// typed value per failure mode, each carrying the originating span,
// following the teacher's internals.go/isolate.go style rather than
// sentinel errors or a single generic "CompileError".

type VariableNotFoundError struct {
	Name string
	Span token.Span
}

func (e VariableNotFoundError) Error() string {
	return fmt.Sprintf("%s: undeclared variable %q", e.Span, e.Name)
}

type VariableAlreadyDeclaredError struct {
	Name string
	Span token.Span
}

func (e VariableAlreadyDeclaredError) Error() string {
	return fmt.Sprintf("%s: %q already declared in this scope", e.Span, e.Name)
}

type FunctionNotFoundError struct {
	Name string
	Span token.Span
}

func (e FunctionNotFoundError) Error() string {
	return fmt.Sprintf("%s: undeclared function %q", e.Span, e.Name)
}

type TypeNotFoundError struct {
	Name string
	Span token.Span
}

func (e TypeNotFoundError) Error() string {
	return fmt.Sprintf("%s: undeclared type %q", e.Span, e.Name)
}

// TypeMismatchError also carries compiled-path scope narrowings (e.g.
// a float or string typed expression reaching codegen) in Reason —
// spec.md §1's Non-goals exclude compiled floating point; this repo
// additionally scopes strings out of the compiled path the same way,
// there being no VM representation for one (see DESIGN.md).
type TypeMismatchError struct {
	Expected ast.TypeID
	Got      ast.TypeID
	Reason   string
	Span     token.Span
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: type mismatch: expected %v, got %v (%s)", e.Span, e.Expected, e.Got, e.Reason)
}

type InvalidNumberOfArgumentsError struct {
	Name     string
	Expected int
	Got      int
	Span     token.Span
}

func (e InvalidNumberOfArgumentsError) Error() string {
	return fmt.Sprintf("%s: %q expects %d argument(s), got %d", e.Span, e.Name, e.Expected, e.Got)
}

type StructFieldNotFoundError struct {
	Struct string
	Field  string
	Span   token.Span
}

func (e StructFieldNotFoundError) Error() string {
	return fmt.Sprintf("%s: %s has no field %q", e.Span, e.Struct, e.Field)
}

type StructFieldNotInitializedError struct {
	Struct string
	Field  string
	Span   token.Span
}

func (e StructFieldNotInitializedError) Error() string {
	return fmt.Sprintf("%s: %s literal missing field %q", e.Span, e.Struct, e.Field)
}

type FailedToAccessFieldError struct {
	Reason string
	Span   token.Span
}

func (e FailedToAccessFieldError) Error() string {
	return fmt.Sprintf("%s: cannot access field: %s", e.Span, e.Reason)
}

type InvalidAssignmentTargetError struct {
	Span token.Span
}

func (e InvalidAssignmentTargetError) Error() string {
	return fmt.Sprintf("%s: invalid assignment target", e.Span)
}

type NoMainFunctionError struct{}

func (e NoMainFunctionError) Error() string { return "no main function" }

type NotInLoopError struct {
	Span token.Span
}

func (e NotInLoopError) Error() string {
	return fmt.Sprintf("%s: break/continue outside a loop", e.Span)
}

// UnresolvedLabelError, BlockAlreadyDefinedError, and BlockNotFoundError
// are spec.md §7's VM-listed errors that are actually raised at compile
// time against the block/patch machinery (the VM itself never sees a
// block id, only resolved PC-relative offsets).
type UnresolvedLabelError struct{ Block blockID }

func (e UnresolvedLabelError) Error() string {
	return fmt.Sprintf("block %d never bound to an address", e.Block)
}

type BlockAlreadyDefinedError struct{ Block blockID }

func (e BlockAlreadyDefinedError) Error() string {
	return fmt.Sprintf("block %d already bound to an address", e.Block)
}

type BlockNotFoundError struct{ Block blockID }

func (e BlockNotFoundError) Error() string {
	return fmt.Sprintf("block %d does not exist", e.Block)
}

type NoScopeForVariableError struct{ Name string }

func (e NoScopeForVariableError) Error() string {
	return fmt.Sprintf("no enclosing scope to bind %q in", e.Name)
}
