// Package isolate runs a stage of the Rill pipeline (tokenizer, parser,
// interpreter, compiler, or VM) inside a monitored goroutine, turning a
// panic or a runtime.Goexit call into a regular error instead of
// letting either take down the process. Generalized from the teacher's
// root-level isolate()/panicError pair into an importable package.
package isolate

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Run executes f in its own goroutine and waits for it to finish.
// On the happy path it returns f's own error unchanged. A panic inside
// f surfaces as a PanicError; a call to runtime.Goexit (f returning by
// falling off the end of a goroutine that called it, rather than by a
// plain return) surfaces as an ExitError.
func Run(name string, f func() error) error {
	result := make(chan error, 1)

	go func() {
		returned := false
		defer func() {
			if v := recover(); v != nil {
				result <- PanicError{Name: name, Value: v, Stack: debug.Stack()}
				return
			}
			// Reaching here without a recovered panic and without f
			// having returned means the goroutine is unwinding because
			// f called runtime.Goexit.
			if !returned {
				result <- ExitError(name)
			}
		}()

		err := f()
		returned = true
		result <- err
	}()

	return <-result
}

// ExitError reports that the named stage called runtime.Goexit instead
// of returning normally.
type ExitError string

func (name ExitError) Error() string {
	if name == "" {
		return "runtime.Goexit called"
	}
	return fmt.Sprintf("%v called runtime.Goexit", string(name))
}

// PanicError wraps a recovered panic value with the name of the stage
// that panicked and the stack at the point of the panic.
type PanicError struct {
	Name  string
	Value interface{}
	Stack []byte
}

func (pe PanicError) Error() string { return fmt.Sprint(pe) }

// Format implements fmt.Formatter so that "%+v" appends the recorded
// stack trace after the one-line message "%v" gives.
func (pe PanicError) Format(f fmt.State, c rune) {
	if pe.Name == "" {
		fmt.Fprintf(f, "paniced: %v", pe.Value)
	} else {
		fmt.Fprintf(f, "%v paniced: %v", pe.Name, pe.Value)
	}
	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "\nPanic stack: %s", pe.Stack)
	}
}

// Unwrap exposes the panic value itself when it was an error, so
// callers can errors.As/errors.Is through a recovered panic(err).
func (pe PanicError) Unwrap() error {
	err, _ := pe.Value.(error)
	return err
}

// Stack returns the recorded panic stack trace from err, or "" if err
// is nil or doesn't wrap a PanicError.
func Stack(err error) string {
	var pe PanicError
	if errors.As(err, &pe) {
		return string(pe.Stack)
	}
	return ""
}
