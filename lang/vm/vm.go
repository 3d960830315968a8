// Package vm implements the stack-based bytecode interpreter: the value
// stack, call-frame stack, upvalue machinery, and the fetch-decode-execute
// loop for every opcode chunk emits (spec.md §4.5).
//
// It is grounded on original_source/clox/src/vm.c for the core dispatch
// loop and opcode semantics (exactly followed for RETURN, arithmetic,
// globals, locals, jumps, CALL/CLOSURE/upvalues) and, for the class/method/
// list opcodes vm.c's particular snapshot does not implement, on the
// standard behavior spec.md §4.5 specifies directly (bindMethod/
// invokeFromClass-style dispatch, INHERIT copying the method table,
// getter auto-invocation on property access). Structurally it follows the
// teacher's lang/machine.Thread: a single long-lived struct carrying
// Stdout/Stderr and a step budget rather than package-level VM globals
// (spec.md §9, §5 "single-threaded").
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/mna/loxvm/lang/chunk"
	"github.com/mna/loxvm/lang/compiler"
	"github.com/mna/loxvm/lang/gc"
	"github.com/mna/loxvm/lang/object"
	"github.com/mna/loxvm/lang/value"
)

// Result is the outcome of one Interpret call (spec.md §6 "interpret()").
type Result uint8

const (
	// OK means the program ran to completion with no error.
	OK Result = iota
	// CompileError means the compiler reported at least one diagnostic; no
	// code ran.
	CompileError
	// RuntimeError means compilation succeeded but execution raised an
	// uncaught error.
	RuntimeError
)

// maxFrames bounds call-frame depth (spec.md §8 "stack overflow test").
const maxFrames = 1024

// VM executes compiled Lox programs against a shared heap. A zero VM is not
// ready to use; construct one with New.
type VM struct {
	heap *gc.Heap

	stack  []value.Value
	frames []frame

	openUpvalues *object.Upvalue
	globals      *object.Table
	initString   *object.String

	// Stdout and Stderr receive PRINT output and runtime-error reports
	// (spec.md §6). Default to os.Stdout/os.Stderr when nil.
	Stdout io.Writer
	Stderr io.Writer

	// Trace, if non-nil, receives a stack dump line and a disassembled line
	// per executed instruction, mirroring clox's DEBUG_TRACE_EXECUTION.
	Trace io.Writer

	// MaxSteps bounds the number of executed instructions before Interpret
	// aborts with a runtime error, guarding against runaway scripts. A value
	// <= 0 means unlimited.
	MaxSteps int64

	steps int64

	// lastError is the most recently formatted runtime-error report,
	// exposed for tests.
	lastError string
}

// LastError returns the most recently formatted runtime-error report, or
// "" if none has occurred.
func (vm *VM) LastError() string { return vm.lastError }

// New returns a VM sharing heap, with the natives clock/len/gc pre-defined
// as globals (spec.md §6 "Natives provided").
func New(heap *gc.Heap) *VM {
	vm := &VM{
		heap:    heap,
		globals: object.NewTable(64),
	}
	vm.initString = heap.Intern(vm.roots(), "init")
	vm.defineNatives()
	return vm
}

func (vm *VM) out() io.Writer {
	if vm.Stdout != nil {
		return vm.Stdout
	}
	return os.Stdout
}

func (vm *VM) errOut() io.Writer {
	if vm.Stderr != nil {
		return vm.Stderr
	}
	return os.Stderr
}

// roots gathers the current GC roots: the value stack, every active
// frame's closure, the open-upvalue list, the globals table, and the
// cached "init" string (spec.md §4.6).
func (vm *VM) roots() gc.Roots {
	closures := make([]*object.Closure, len(vm.frames))
	for i, fr := range vm.frames {
		closures[i] = fr.closure
	}
	var openUVs []*object.Upvalue
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		openUVs = append(openUVs, uv)
	}
	return gc.Roots{
		Stack:         vm.stack,
		FrameClosures: closures,
		OpenUpvalues:  openUVs,
		Globals:       vm.globals,
		InitString:    vm.initString,
	}
}

func (vm *VM) resetStack() {
	vm.stack = vm.stack[:0]
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil
}

func (vm *VM) push(v value.Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() value.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

// Interpret compiles and runs source to completion (spec.md §6
// "interpret()").
func (vm *VM) Interpret(source string) Result {
	fn, errs := compiler.Compile(vm.heap, source)
	if errs.HasErrors() {
		for _, e := range errs.Errs() {
			fmt.Fprintln(vm.errOut(), e.Error())
		}
		return CompileError
	}
	return vm.run(fn)
}

func (vm *VM) run(script *object.Function) Result {
	vm.resetStack()
	vm.steps = 0

	vm.push(value.ObjVal(script))
	closure := vm.heap.AllocClosure(vm.roots(), script, 0)
	vm.pop()
	vm.push(value.ObjVal(closure))
	if !vm.call(closure, 0) {
		return RuntimeError
	}

	return vm.execute()
}

func (vm *VM) currentFrame() *frame { return &vm.frames[len(vm.frames)-1] }

func (vm *VM) frameChunk(fr *frame) *chunk.Chunk { return fr.closure.Fn.Chunk }

func (vm *VM) readByte(fr *frame) byte {
	b := vm.frameChunk(fr).Code[fr.ip]
	fr.ip++
	return b
}

func (vm *VM) readUint16(fr *frame) uint16 {
	hi := vm.readByte(fr)
	lo := vm.readByte(fr)
	return uint16(hi)<<8 | uint16(lo)
}

func (vm *VM) readConstant(fr *frame, idx int) value.Value {
	return vm.frameChunk(fr).Constants[idx]
}
