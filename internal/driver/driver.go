// Package driver implements the REPL / file-execution front end spec.md §6
// describes as an external collaborator: with no path argument, read one
// line at a time from stdin and interpret it; with one path argument, read
// the whole file and interpret it once. Exit codes follow the classic
// clox contract (0 success, 65 compile error, 70 runtime error, 74 I/O
// error).
//
// Grounded on the teacher's cmd/nenuphar + internal/maincmd split: a
// mainer.Cmd-shaped struct parsed by mainer.Parser, one method per
// sub-behavior, os.Exit(int(...)) left to cmd/loxvm/main.go.
package driver

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/loxvm/internal/vmconfig"
	"github.com/mna/loxvm/internal/xlog"
	"github.com/mna/loxvm/lang/gc"
	"github.com/mna/loxvm/lang/vm"
)

const binName = "loxvm"

// Exit codes, per spec.md §6 "Program entry".
const (
	ExitOK           mainer.ExitCode = 0
	ExitCompileError mainer.ExitCode = 65
	ExitRuntimeError mainer.ExitCode = 70
	ExitIOError      mainer.ExitCode = 74
)

var shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

var longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

With no <path>, starts a REPL reading one line at a time from standard
input. With a <path>, reads and interprets the whole file once.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)

// Cmd is the parsed command line, populated by mainer.Parser.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args  []string
	flags map[string]bool
}

func (c *Cmd) SetArgs(args []string) { c.args = args }

func (c *Cmd) SetFlags(flags map[string]bool) { c.flags = flags }

func (c *Cmd) Validate() error {
	if len(c.args) > 1 {
		return fmt.Errorf("at most one file path may be given, got %d", len(c.args))
	}
	return nil
}

// Main parses args and dispatches to the REPL or a single file run.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: true, EnvPrefix: "LOXVM_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return ExitIOError
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return ExitOK
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return ExitOK
	}

	cfg, err := vmconfig.Load()
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid configuration: %s\n", err)
		return ExitIOError
	}

	heap := gc.New()
	heap.StressGC = cfg.StressGC
	logger := xlog.New(stdio.Stderr, cfg.LogLevel)
	heap.Trace = xlog.TraceWriter{Logger: logger, Component: "gc"}

	machine := vm.New(heap)
	machine.Stdout = stdio.Stdout
	machine.Stderr = stdio.Stderr
	machine.MaxSteps = cfg.MaxSteps
	machine.Trace = xlog.TraceWriter{Logger: logger, Component: "vm"}

	if len(c.args) == 1 {
		return RunFile(machine, stdio, c.args[0])
	}
	return RunREPL(machine, stdio)
}

// RunFile reads path and interprets it once.
func RunFile(machine *vm.VM, stdio mainer.Stdio, path string) mainer.ExitCode {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return ExitIOError
	}
	return resultToExitCode(machine.Interpret(string(src)))
}

// RunREPL reads one line at a time from stdio.Stdin, interpreting each as
// a complete program. A compile or runtime error in one line does not stop
// the REPL. It returns ExitOK at EOF, or ExitIOError if reading stdin fails.
func RunREPL(machine *vm.VM, stdio mainer.Stdio) mainer.ExitCode {
	scan := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scan.Scan() {
			break
		}
		machine.Interpret(scan.Text())
	}
	if err := scan.Err(); err != nil && err != io.EOF {
		fmt.Fprintf(stdio.Stderr, "%s\n", err)
		return ExitIOError
	}
	return ExitOK
}

func resultToExitCode(r vm.Result) mainer.ExitCode {
	switch r {
	case vm.OK:
		return ExitOK
	case vm.CompileError:
		return ExitCompileError
	default:
		return ExitRuntimeError
	}
}
