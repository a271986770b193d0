package interp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/flushio"
	"github.com/rill-lang/rill/internal/parser"
	"github.com/rill-lang/rill/internal/source"
)

func run(t *testing.T, text string) (Value, string, error) {
	t.Helper()
	m, err := parser.Parse(source.FromString("test.rill", text))
	require.NoError(t, err)
	var sb strings.Builder
	it := New(m, flushio.NewWriteFlusher(&sb))
	v, err := it.Run()
	return v, sb.String(), err
}

func TestRunArithmeticAndPrintln(t *testing.T) {
	_, out, err := run(t, `fn main() -> void { println(1 + 2); }`)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestRunFunctionCall(t *testing.T) {
	_, out, err := run(t, `
		fn add(a: int, b: int) -> int { return a + b; }
		fn main() -> void { println(add(40, 2)); }
	`)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestRunStructFieldAccess(t *testing.T) {
	_, out, err := run(t, `
		struct Point { x: int, y: int }
		fn main() -> void {
			let p = Point { x: 3, y: 4 };
			println(p.x + p.y);
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestRunLoopBreak(t *testing.T) {
	_, out, err := run(t, `
		fn main() -> void {
			let i = 0;
			loop {
				if i == 3 { break; }
				println(i);
				i = i + 1;
			}
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "0\n1\n2\n", out)
}

func TestRunIfElseValue(t *testing.T) {
	v, _, err := run(t, `fn main() -> int { if 1 == 1 { 10 } else { 20 } }`)
	require.NoError(t, err)
	assert.Equal(t, int64(10), v.Int)
}

func TestRunDivByZero(t *testing.T) {
	_, _, err := run(t, `fn main() -> void { println(1 / 0); }`)
	require.Error(t, err)
	var dz DivByZeroError
	assert.ErrorAs(t, err, &dz)
}

func TestRunFloatDivByZeroIsInfinity(t *testing.T) {
	v, _, err := run(t, `fn main() -> float { 1.0 / 0.0 }`)
	require.NoError(t, err)
	assert.True(t, v.Float > 0)
	assert.Greater(t, v.Float, 1e300)
}

func TestRunStringConcatenation(t *testing.T) {
	_, out, err := run(t, `fn main() -> void { println("x" + "y"); }`)
	require.NoError(t, err)
	assert.Equal(t, "xy\n", out)
}

func TestRunStringPlusNonVoid(t *testing.T) {
	_, out, err := run(t, `fn main() -> void { println("n=" + 5); }`)
	require.NoError(t, err)
	assert.Equal(t, "n=5\n", out)
}

func TestRunVariableAlreadyDeclared(t *testing.T) {
	_, _, err := run(t, `fn main() -> void { let x = 1; let x = 2; }`)
	require.Error(t, err)
	var vad VariableAlreadyDeclaredError
	assert.ErrorAs(t, err, &vad)
}

func TestRunUndefinedVariable(t *testing.T) {
	_, _, err := run(t, `fn main() -> void { println(missing); }`)
	require.Error(t, err)
	var uv UndefinedVariableError
	assert.ErrorAs(t, err, &uv)
}

func TestRunStructFieldNotFound(t *testing.T) {
	_, _, err := run(t, `
		struct Point { x: int, y: int }
		fn main() -> void { let p = Point { x: 1, y: 2, z: 3 }; }
	`)
	require.Error(t, err)
	var sfe StructFieldNotFoundError
	assert.ErrorAs(t, err, &sfe)
}

func TestRunArityMismatch(t *testing.T) {
	_, _, err := run(t, `
		fn add(a: int, b: int) -> int { return a + b; }
		fn main() -> void { println(add(1)); }
	`)
	require.Error(t, err)
	var am ArityMismatchError
	assert.ErrorAs(t, err, &am)
}

func TestScopeShadowingInInnerBlockDoesNotLeak(t *testing.T) {
	_, out, err := run(t, `
		fn main() -> void {
			let i = 100;
			loop {
				let i = 1;
				println(i);
				break;
			}
			println(i);
		}
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n100\n", out)
}
