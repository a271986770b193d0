// Command rillgen is a developer tool: it runs every testdata/*.rill
// fixture concurrently through the parse/compile/VM pipeline and
// writes (or, with -check, verifies) the matching testdata/*.expected
// golden file.
//
// Adapted from the teacher's scripts/gen_vm_expects.go, keeping its
// errgroup.WithContext concurrency shape and golang.org/x/net/context
// usage at the same call site; everything it generates is new (golden
// stdout fixtures instead of generated Go source).
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/context"
	"golang.org/x/sync/errgroup"

	"github.com/rill-lang/rill/internal/compiler"
	"github.com/rill-lang/rill/internal/parser"
	"github.com/rill-lang/rill/internal/source"
	"github.com/rill-lang/rill/internal/vm"
)

func main() {
	dir := flag.String("dir", "testdata", "fixture directory containing *.rill files")
	check := flag.Bool("check", false, "verify golden files instead of writing them")
	flag.Parse()

	ctx := context.Background()
	if err := run(ctx, *dir, *check); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, dir string, check bool) error {
	fixtures, err := filepath.Glob(filepath.Join(dir, "*.rill"))
	if err != nil {
		return err
	}

	eg, ctx := errgroup.WithContext(ctx)
	mismatches := make([]string, len(fixtures))

	for i, fixture := range fixtures {
		i, fixture := i, fixture
		eg.Go(func() error {
			got, err := runFixture(ctx, fixture)
			if err != nil {
				return fmt.Errorf("%s: %w", fixture, err)
			}

			expectedPath := strings.TrimSuffix(fixture, ".rill") + ".expected"
			if check {
				want, err := os.ReadFile(expectedPath)
				if err != nil {
					return fmt.Errorf("%s: %w", expectedPath, err)
				}
				if string(want) != got {
					mismatches[i] = fixture
				}
				return ctx.Err()
			}
			return os.WriteFile(expectedPath, []byte(got), 0o644)
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	var bad []string
	for _, m := range mismatches {
		if m != "" {
			bad = append(bad, m)
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("golden mismatch: %s", strings.Join(bad, ", "))
	}
	return nil
}

func runFixture(ctx context.Context, path string) (string, error) {
	src, err := source.Open(path)
	if err != nil {
		return "", err
	}
	m, err := parser.Parse(src)
	if err != nil {
		return "", err
	}
	prog, err := compiler.Compile(m)
	if err != nil {
		return "", err
	}

	var out bytes.Buffer
	machine := vm.New(vm.WithOutput(&out))
	if err := machine.Load(prog); err != nil {
		return "", err
	}
	if err := machine.Run(ctx); err != nil {
		return "", err
	}
	return out.String(), nil
}
