// Package source implements the character source that feeds the
// tokenizer: a restartable sequence of Unicode scalars drawn from memory
// or a file, with line/column tracking.
package source

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/rill-lang/rill/internal/fileinput"
	"github.com/rill-lang/rill/internal/runeio"
)

// Pos is a single position in a source: a byte offset plus the 1-based
// line and column it falls on. Column counts runes, not bytes.
type Pos struct {
	Name   string
	Offset int
	Line   int
	Column int
}

func (p Pos) String() string { return fmt.Sprintf("%v:%v:%v", p.Name, p.Line, p.Column) }

// Source is a restartable rune reader over one named input (a file or an
// in-memory string). Restartable means Restart rewinds it to re-read the
// same bytes from the start without re-touching the filesystem.
type Source struct {
	name string
	data []byte

	rr     runeio.Reader
	offset int
	line   int
	column int
}

// Open creates a Source that reads the named file's full contents.
func Open(name string) (*Source, error) {
	return OpenFiles(name)
}

// OpenFiles creates a Source by concatenating one or more named files into
// a single rune stream, read left to right in argument order. A name of
// "-" reads os.Stdin in that position instead of opening a file. This
// lets a module be split across files on the command line the same way
// the teacher's FIRST/THIRD driver queued multiple inputs through
// internal/fileinput.Input.
//
// With exactly one name that isn't "-", this is equivalent to a plain
// os.ReadFile: no queueing overhead, and the display Name is just that
// file's name. Otherwise the display Name is the given names joined
// with "+".
func OpenFiles(names ...string) (*Source, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("source: no input files given")
	}
	if len(names) == 1 && names[0] != "-" {
		data, err := os.ReadFile(names[0])
		if err != nil {
			return nil, err
		}
		src := &Source{name: names[0], data: data}
		src.Restart()
		return src, nil
	}

	var in fileinput.Input
	for _, name := range names {
		if name == "-" {
			in.Queue = append(in.Queue, os.Stdin)
			continue
		}
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		in.Queue = append(in.Queue, f)
	}

	var buf bytes.Buffer
	for {
		r, n, err := in.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// Input reports the switch to the next queued file as a
			// zero-width rune; it is not part of the text.
			continue
		}
		buf.WriteRune(r)
	}

	src := &Source{name: joinNames(names), data: buf.Bytes()}
	src.Restart()
	return src, nil
}

func joinNames(names []string) string {
	if len(names) == 1 {
		return names[0]
	}
	joined := names[0]
	for _, name := range names[1:] {
		joined += "+" + name
	}
	return joined
}

// FromString creates a Source over an in-memory string, useful for tests
// and for the entry text fed by the CLI's one-off fixtures.
func FromString(name, text string) *Source {
	src := &Source{name: name, data: []byte(text)}
	src.Restart()
	return src
}

// Name returns the source's display name.
func (src *Source) Name() string { return src.name }

// Restart rewinds the source to its first byte, resetting line/column
// tracking. It never re-touches the filesystem: the original bytes are
// retained in memory.
func (src *Source) Restart() {
	src.rr = runeio.NewReader(bytes.NewReader(src.data))
	src.offset = 0
	src.line = 1
	src.column = 1
}

// Pos returns the position of the next rune ReadRune will return.
func (src *Source) Pos() Pos {
	return Pos{Name: src.name, Offset: src.offset, Line: src.line, Column: src.column}
}

// ReadRune reads the next Unicode scalar, advancing line/column tracking.
// Returns io.EOF once exhausted.
func (src *Source) ReadRune() (rune, Pos, error) {
	at := src.Pos()
	r, n, err := src.rr.ReadRune()
	if err != nil {
		return 0, at, err
	}
	src.offset += n
	if r == '\n' {
		src.line++
		src.column = 1
	} else {
		src.column++
	}
	return r, at, nil
}

var _ io.RuneReader = (*runeReaderAdapter)(nil)

type runeReaderAdapter struct{ src *Source }

func (a *runeReaderAdapter) ReadRune() (rune, int, error) {
	r, _, err := a.src.ReadRune()
	return r, len(string(r)), err
}

// AsRuneReader adapts Source to the plain io.RuneReader interface, for
// callers (like runeio helpers) that don't need position tracking.
func (src *Source) AsRuneReader() io.RuneReader { return &runeReaderAdapter{src} }
