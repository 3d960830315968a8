package vm

import (
	"fmt"
	"strings"
)

// traceLine is one entry of a runtime-error stack trace: the source line
// and the enclosing function's display name ("script" for the top-level).
type traceLine struct {
	line int
	name string
}

// runtimeError formats msg, appends the current call-frame stack as a
// trace (innermost frame first, matching original_source/clox/src/vm.c's
// runtimeError), writes the report to the VM's error output, keeps it as
// lastError, and resets the stack.
//
// Repeated frames collapse per resolved Open Question (c): consecutive
// trace lines with the same line number and function name are printed once,
// with a " (repeated N times)" suffix when N is greater than 1.
func (vm *VM) runtimeError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)

	var lines []traceLine
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		fn := fr.closure.Fn
		line := fn.Chunk.GetLine(fr.ip - 1)
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		lines = append(lines, traceLine{line: line, name: name})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", msg)
	var prev *traceLine
	repeats := 0
	flush := func() {
		if prev == nil {
			return
		}
		if repeats > 1 {
			fmt.Fprintf(&b, "[line %d] in %s (repeated %d times)\n", prev.line, prev.name, repeats)
		} else {
			fmt.Fprintf(&b, "[line %d] in %s\n", prev.line, prev.name)
		}
	}
	for i := range lines {
		cur := lines[i]
		if prev != nil && cur == *prev {
			repeats++
			continue
		}
		flush()
		prev = &lines[i]
		repeats = 1
	}
	flush()

	vm.lastError = b.String()
	fmt.Fprint(vm.errOut(), vm.lastError)

	vm.resetStack()
}
