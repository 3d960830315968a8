package vm

import "github.com/mna/loxvm/lang/object"

// frame is one call's bookkeeping: the closure it is executing, its
// instruction pointer into that closure's function chunk, and the base
// index into the VM's value stack where its locals begin (spec.md §4.5
// "CALL"). Grounded on original_source/clox/include/vm.h's CallFrame and
// rendered in the teacher's lang/machine.Frame idiom (a small plain struct,
// not an interface).
type frame struct {
	closure *object.Closure
	ip      int
	slots   int
}
