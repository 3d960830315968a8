package vm

import (
	"fmt"

	"github.com/mna/loxvm/lang/chunk"
)

// traceInstruction writes two lines to vm.Trace: the current stack
// contents, then the instruction about to execute, mirroring clox's
// DEBUG_TRACE_EXECUTION build flag.
func (vm *VM) traceInstruction(fr *frame) {
	fmt.Fprint(vm.Trace, "          ")
	for _, v := range vm.stack {
		fmt.Fprintf(vm.Trace, "[ %s ]", v.String())
	}
	fmt.Fprintln(vm.Trace)

	c := vm.frameChunk(fr)
	line := c.GetLine(fr.ip)
	op := chunk.Op(c.Code[fr.ip])
	fmt.Fprintf(vm.Trace, "%04d %4d %s\n", fr.ip, line, op)
}
