package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// machine is the subset of *vm.VM the step loop needs; the VM returned
// by vm.New satisfies it directly.
type machine interface {
	Step(ctx context.Context) (bool, error)
	IP() uint32
}

// stepLoop single-steps m, printing the current instruction pointer
// between steps and waiting for a single keypress before continuing:
// Enter/space/'c' to continue, 'q' to quit early. Falls back to
// stepping without a pause when stdin isn't a terminal or cannot be
// put into raw mode.
func stepLoop(ctx context.Context, m machine) error {
	fd := int(os.Stdin.Fd())
	interactive := term.IsTerminal(fd)

	var oldState *term.State
	if interactive {
		var err error
		oldState, err = term.MakeRaw(fd)
		if err != nil {
			interactive = false
		} else {
			defer term.Restore(fd, oldState)
		}
	}

	for {
		halted, err := m.Step(ctx)
		if err != nil {
			return err
		}
		color.Cyan("@%d", m.IP())
		if halted {
			return nil
		}
		if !interactive {
			continue
		}
		var buf [1]byte
		if _, err := os.Stdin.Read(buf[:]); err != nil {
			return err
		}
		switch buf[0] {
		case 'q', 'Q', 3: // 3 == Ctrl-C
			fmt.Fprintln(os.Stderr, "\nquit")
			return nil
		}
	}
}
