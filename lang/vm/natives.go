package vm

import (
	"errors"
	"time"

	"github.com/mna/loxvm/lang/object"
	"github.com/mna/loxvm/lang/value"
)

// defineNatives installs clock, len and gc as globals, grounded on
// original_source/clox/src/vm.c's defineNative/clockNative and on
// spec.md §6 "Natives provided".
func (vm *VM) defineNatives() {
	vm.defineNative("clock", vm.nativeClock)
	vm.defineNative("len", vm.nativeLen)
	vm.defineNative("gc", vm.nativeGC)
}

func (vm *VM) defineNative(name string, fn object.NativeFn) {
	s := vm.heap.Intern(vm.roots(), name)
	n := vm.heap.AllocNative(vm.roots(), name, fn)
	vm.globals.Set(s, value.ObjVal(n))
}

func (vm *VM) nativeClock(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.NilValue, errors.New("clock() takes no arguments")
	}
	return value.NumberVal(float64(time.Now().UnixNano()) / 1e9), nil
}

// nativeLen returns the number of characters of a string or elements of a
// list (spec.md §6 "len(x)").
func (vm *VM) nativeLen(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.NilValue, errors.New("len() takes exactly one argument")
	}
	arg := args[0]
	k, ok := arg.ObjKind()
	if !ok {
		return value.NilValue, errors.New("len() argument must be a string or list")
	}
	switch k {
	case value.KindString:
		return value.NumberVal(float64(len(arg.AsObj().(*object.String).Chars))), nil
	case value.KindList:
		return value.NumberVal(float64(arg.AsObj().(*object.List).Len())), nil
	default:
		return value.NilValue, errors.New("len() argument must be a string or list")
	}
}

// nativeGC forces an immediate collection, returning nil (spec.md §6
// "gc()"). The post-collection byte count remains available to tests
// through the heap directly (gc.Heap.BytesAllocated).
func (vm *VM) nativeGC(args []value.Value) (value.Value, error) {
	if len(args) != 0 {
		return value.NilValue, errors.New("gc() takes no arguments")
	}
	vm.heap.Collect(vm.roots())
	return value.NilValue, nil
}
