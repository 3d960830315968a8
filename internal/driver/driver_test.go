package driver_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mna/mainer"

	"github.com/mna/loxvm/internal/driver"
	"github.com/mna/loxvm/lang/gc"
	"github.com/mna/loxvm/lang/vm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMachine(stdout, stderr *bytes.Buffer) *vm.VM {
	machine := vm.New(gc.New())
	machine.Stdout = stdout
	machine.Stderr = stderr
	return machine
}

func TestRunFileSuccess(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.lox")
	require.NoError(t, os.WriteFile(path, []byte(`print 1 + 1;`), 0o600))

	var stdout, stderr bytes.Buffer
	machine := newMachine(&stdout, &stderr)
	stdio := mainer.Stdio{Stdout: &stdout, Stderr: &stderr}

	code := driver.RunFile(machine, stdio, path)
	assert.Equal(t, driver.ExitOK, code)
	assert.Equal(t, "2\n", stdout.String())
}

func TestRunFileMissingPathIsIOError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	machine := newMachine(&stdout, &stderr)
	stdio := mainer.Stdio{Stdout: &stdout, Stderr: &stderr}

	code := driver.RunFile(machine, stdio, filepath.Join(t.TempDir(), "missing.lox"))
	assert.Equal(t, driver.ExitIOError, code)
}

func TestRunFileCompileError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.lox")
	require.NoError(t, os.WriteFile(path, []byte(`var = ;`), 0o600))

	var stdout, stderr bytes.Buffer
	machine := newMachine(&stdout, &stderr)
	stdio := mainer.Stdio{Stdout: &stdout, Stderr: &stderr}

	code := driver.RunFile(machine, stdio, path)
	assert.Equal(t, driver.ExitCompileError, code)
}

func TestRunFileRuntimeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boom.lox")
	require.NoError(t, os.WriteFile(path, []byte(`print nope;`), 0o600))

	var stdout, stderr bytes.Buffer
	machine := newMachine(&stdout, &stderr)
	stdio := mainer.Stdio{Stdout: &stdout, Stderr: &stderr}

	code := driver.RunFile(machine, stdio, path)
	assert.Equal(t, driver.ExitRuntimeError, code)
}

func TestRunREPLProcessesEachLineIndependently(t *testing.T) {
	var stdout, stderr bytes.Buffer
	machine := newMachine(&stdout, &stderr)
	stdio := mainer.Stdio{
		Stdin:  strings.NewReader("print 1;\nprint nope;\nprint 2;\n"),
		Stdout: &stdout,
		Stderr: &stderr,
	}

	code := driver.RunREPL(machine, stdio)
	assert.Equal(t, driver.ExitOK, code, "a bad line must not stop the REPL")
	assert.Contains(t, stdout.String(), "1\n")
	assert.Contains(t, stdout.String(), "2\n")
	assert.NotEmpty(t, stderr.String())
}

func TestCmdHelpAndVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	c := driver.Cmd{BuildVersion: "1.0.0", BuildDate: "2026-01-01"}
	stdio := mainer.Stdio{Stdout: &stdout, Stderr: &stderr}

	code := c.Main([]string{"loxvm", "-h"}, stdio)
	assert.Equal(t, driver.ExitOK, code)
	assert.Contains(t, stdout.String(), "usage:")

	stdout.Reset()
	code = c.Main([]string{"loxvm", "-v"}, stdio)
	assert.Equal(t, driver.ExitOK, code)
	assert.Contains(t, stdout.String(), "1.0.0")
}

func TestCmdValidateRejectsExtraArgs(t *testing.T) {
	c := &driver.Cmd{}
	c.SetArgs([]string{"a.lox", "b.lox"})
	assert.Error(t, c.Validate())
}
