package isolate

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRuntimeError mimics a bug in a compiled program's generated
// address arithmetic tripping a Go runtime panic (e.g. a bad jump
// target indexing past the instruction slice) rather than a deliberate
// panic(error) call: this is the actual class of bug isolate.Run
// guards cmd/rill's "vm" stage against (cmd/rill/main.go's runPipeline).
func fakeRuntimeError() error {
	var instructions []uint32
	return errors.New(fmt.Sprint(instructions[3]))
}

func TestRunPassesThroughNormalCompletion(t *testing.T) {
	err := Run("vm", func() error { return nil })
	assert.NoError(t, err)
}

func TestRunPassesThroughNormalError(t *testing.T) {
	err := Run("vm", func() error { return errors.New("halt: division by zero") })
	require.Error(t, err)
	assert.Equal(t, "halt: division by zero", err.Error())
	assert.Equal(t, "", Stack(err), "a plain returned error carries no panic stack")
}

func TestRunRecoversRuntimePanicFromStage(t *testing.T) {
	err := Run("vm", fakeRuntimeError)
	require.Error(t, err)

	var pe PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "vm", pe.Name)
	assert.Contains(t, err.Error(), "vm paniced")
	assert.Contains(t, err.Error(), "index out of range")
	assert.NotEmpty(t, Stack(err), "a recovered panic must carry its stack trace")
}

func TestRunUnwrapsPanickedError(t *testing.T) {
	cause := errors.New("bad opcode")
	err := Run("vm", func() error { panic(cause) })
	require.Error(t, err)
	assert.Same(t, cause, errors.Unwrap(err), "Unwrap must expose the original panic(error) value")
}

func TestRunWrapsNonErrorPanicValue(t *testing.T) {
	err := Run("vm", func() error { panic("stack underflow") })
	require.Error(t, err)
	assert.Equal(t, "vm paniced: stack underflow", err.Error())
	assert.Nil(t, errors.Unwrap(err), "a panic(string) has no error value to unwrap")
}

func TestRunSurfacesGoexitAsExitError(t *testing.T) {
	err := Run("vm", func() error {
		runtime.Goexit()
		return nil // unreachable
	})
	require.Error(t, err)
	assert.Equal(t, "vm called runtime.Goexit", err.Error())
	assert.Equal(t, "", Stack(err), "Goexit is not a panic and carries no stack")
}

func TestRunWithEmptyNameOmitsPrefix(t *testing.T) {
	err := Run("", func() error { panic("shrug") })
	assert.Equal(t, "paniced: shrug", err.Error())
}

func TestVerboseFormatAppendsStackTrace(t *testing.T) {
	err := Run("vm", func() error { panic("nope") })
	require.Error(t, err)

	assert.True(t,
		strings.HasSuffix(fmt.Sprintf("%+v", err), Stack(err)),
		"expected verbose format to end with the stack trace")
	assert.False(t,
		strings.Contains(fmt.Sprintf("%v", err), "Panic stack"),
		"the plain %v form must stay a one-liner")
}
