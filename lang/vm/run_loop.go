package vm

import (
	"fmt"
	"math"

	"github.com/mna/loxvm/lang/chunk"
	"github.com/mna/loxvm/lang/object"
	"github.com/mna/loxvm/lang/value"
)

// execute is the fetch-decode-execute loop, one case per opcode in
// lang/chunk/opcode.go. Grounded on original_source/clox/src/vm.c's run()
// for RETURN, arithmetic/comparison, globals, locals/upvalues, jumps and
// CALL/CLOSURE; the class/list opcodes (CLASS, METHOD, INHERIT,
// GET_PROPERTY, SET_PROPERTY, INVOKE, GET_SUPER, INVOKE_SUPER, MAKE_LIST,
// GET_ELEMENT, SET_ELEMENT) follow spec.md §4.5's own description, since
// this particular vm.c snapshot never implements them.
func (vm *VM) execute() Result {
	return vm.runFrames(0)
}

// runFrames runs the fetch-decode-execute loop until the call-frame stack
// unwinds back to targetDepth, then returns. Passing 0 drains the whole
// program (the top-level Interpret path); a getter auto-invoked from
// GET_PROPERTY instead passes the frame depth captured just before its
// call, so control returns to the surrounding instruction as soon as that
// one call completes, with its result left on the stack exactly as an
// explicit CALL would leave it.
func (vm *VM) runFrames(targetDepth int) Result {
	for len(vm.frames) > targetDepth {
		if vm.MaxSteps > 0 {
			vm.steps++
			if vm.steps > vm.MaxSteps {
				vm.runtimeError("Step limit exceeded.")
				return RuntimeError
			}
		}

		fr := vm.currentFrame()
		if vm.Trace != nil {
			vm.traceInstruction(fr)
		}

		op := chunk.Op(vm.readByte(fr))
		switch op {
		case chunk.RETURN:
			result := vm.pop()
			fr := vm.currentFrame()
			vm.closeUpvalues(fr.slots)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) > 0 {
				vm.stack = vm.stack[:fr.slots]
				vm.push(result)
			}

		case chunk.CONSTANT:
			idx := int(vm.readByte(fr))
			vm.push(vm.readConstant(fr, idx))
		case chunk.CONSTANT_LONG:
			idx := int(vm.readUint16(fr))
			vm.push(vm.readConstant(fr, idx))

		case chunk.NIL:
			vm.push(value.NilValue)
		case chunk.TRUE:
			vm.push(value.BoolVal(true))
		case chunk.FALSE:
			vm.push(value.BoolVal(false))

		case chunk.POP:
			vm.pop()

		case chunk.EQUAL:
			b := vm.pop()
			a := vm.pop()
			vm.push(value.BoolVal(value.Equal(a, b)))

		case chunk.GREATER, chunk.LESS:
			if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
				vm.runtimeError("Operands must be numbers.")
				return RuntimeError
			}
			b := vm.pop().AsNumber()
			a := vm.pop().AsNumber()
			if op == chunk.GREATER {
				vm.push(value.BoolVal(a > b))
			} else {
				vm.push(value.BoolVal(a < b))
			}

		case chunk.ADD:
			if !vm.add() {
				return RuntimeError
			}

		case chunk.SUBTRACT, chunk.MULTIPLY, chunk.DIVIDE, chunk.POWER:
			if !vm.arith(op) {
				return RuntimeError
			}

		case chunk.NOT:
			vm.push(value.BoolVal(!vm.pop().Truthy()))

		case chunk.NEGATE:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError("Operand must be a number.")
				return RuntimeError
			}
			vm.push(value.NumberVal(-vm.pop().AsNumber()))

		case chunk.PRINT:
			fmt.Fprintln(vm.out(), vm.pop().String())

		case chunk.DEFINE_GLOBAL:
			idx := int(vm.readByte(fr))
			vm.defineGlobal(fr, idx)
		case chunk.DEFINE_GLOBAL_LONG:
			idx := int(vm.readUint16(fr))
			vm.defineGlobal(fr, idx)

		case chunk.GET_GLOBAL:
			idx := int(vm.readByte(fr))
			if !vm.getGlobal(fr, idx) {
				return RuntimeError
			}
		case chunk.GET_GLOBAL_LONG:
			idx := int(vm.readUint16(fr))
			if !vm.getGlobal(fr, idx) {
				return RuntimeError
			}

		case chunk.SET_GLOBAL:
			idx := int(vm.readByte(fr))
			if !vm.setGlobal(fr, idx) {
				return RuntimeError
			}
		case chunk.SET_GLOBAL_LONG:
			idx := int(vm.readUint16(fr))
			if !vm.setGlobal(fr, idx) {
				return RuntimeError
			}

		case chunk.GET_LOCAL:
			slot := int(vm.readUint16(fr))
			vm.push(vm.stack[fr.slots+slot])
		case chunk.SET_LOCAL:
			slot := int(vm.readUint16(fr))
			vm.stack[fr.slots+slot] = vm.peek(0)

		case chunk.GET_UPVALUE:
			slot := int(vm.readUint16(fr))
			uv := fr.closure.Upvalues[slot]
			vm.push(vm.upvalueValue(uv))
		case chunk.SET_UPVALUE:
			slot := int(vm.readUint16(fr))
			uv := fr.closure.Upvalues[slot]
			vm.setUpvalueValue(uv, vm.peek(0))

		case chunk.CLOSE_UPVALUE:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case chunk.JUMP:
			offset := int(vm.readUint16(fr))
			fr.ip += offset
		case chunk.JUMP_IF_FALSE:
			offset := int(vm.readUint16(fr))
			if !vm.peek(0).Truthy() {
				fr.ip += offset
			}
		case chunk.LOOP:
			offset := int(vm.readUint16(fr))
			fr.ip -= offset

		case chunk.CALL:
			argCount := int(vm.readByte(fr))
			if !vm.callValue(vm.peek(argCount), argCount) {
				return RuntimeError
			}

		case chunk.CLOSURE:
			idx := int(vm.readUint16(fr))
			fn := vm.readConstant(fr, idx).AsObj().(*object.Function)
			closure := vm.heap.AllocClosure(vm.roots(), fn, len(fn.Upvalues))
			// One (isLocal byte, 16-bit index) pair per upvalue follows the
			// CLOSURE operand in the code stream itself (emitted by
			// lang/compiler's function()), not read from fn.Upvalues, mirroring
			// original_source/clox/src/vm.c's OP_CLOSURE case exactly.
			for i := range fn.Upvalues {
				isLocal := vm.readByte(fr)
				index := int(vm.readUint16(fr))
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(fr.slots + index)
				} else {
					closure.Upvalues[i] = fr.closure.Upvalues[index]
				}
			}
			vm.push(value.ObjVal(closure))

		case chunk.CLASS:
			idx := int(vm.readUint16(fr))
			name := vm.readConstant(fr, idx).AsObj().(*object.String)
			vm.push(value.ObjVal(vm.heap.AllocClass(vm.roots(), name)))

		case chunk.METHOD:
			idx := int(vm.readUint16(fr))
			name := vm.readConstant(fr, idx).AsObj().(*object.String)
			method := vm.peek(0)
			klass := vm.peek(1).AsObj().(*object.Class)
			klass.Methods.Set(name, method)
			vm.pop()

		case chunk.INHERIT:
			superVal := vm.peek(1)
			if !superVal.IsObj() {
				vm.runtimeError("Superclass must be a class.")
				return RuntimeError
			}
			superclass, ok := superVal.AsObj().(*object.Class)
			if !ok {
				vm.runtimeError("Superclass must be a class.")
				return RuntimeError
			}
			subclass := vm.peek(0).AsObj().(*object.Class)
			subclass.Methods.AddAllFrom(superclass.Methods)
			vm.pop()

		case chunk.GET_PROPERTY:
			idx := int(vm.readUint16(fr))
			name := vm.readConstant(fr, idx).AsObj().(*object.String)
			if !vm.getProperty(name) {
				return RuntimeError
			}

		case chunk.SET_PROPERTY:
			idx := int(vm.readUint16(fr))
			name := vm.readConstant(fr, idx).AsObj().(*object.String)
			if !vm.setProperty(name) {
				return RuntimeError
			}

		case chunk.INVOKE:
			idx := int(vm.readUint16(fr))
			name := vm.readConstant(fr, idx).AsObj().(*object.String)
			argCount := int(vm.readByte(fr))
			if !vm.invoke(name, argCount) {
				return RuntimeError
			}

		case chunk.GET_SUPER:
			idx := int(vm.readUint16(fr))
			name := vm.readConstant(fr, idx).AsObj().(*object.String)
			superclass := vm.pop().AsObj().(*object.Class)
			if !vm.bindMethod(superclass, name) {
				return RuntimeError
			}

		case chunk.INVOKE_SUPER:
			idx := int(vm.readUint16(fr))
			name := vm.readConstant(fr, idx).AsObj().(*object.String)
			argCount := int(vm.readByte(fr))
			superclass := vm.pop().AsObj().(*object.Class)
			if !vm.invokeFromClass(superclass, name, argCount) {
				return RuntimeError
			}

		case chunk.MAKE_LIST:
			count := int(vm.readUint16(fr))
			elems := vm.stack[len(vm.stack)-count:]
			list := vm.heap.AllocList(vm.roots(), elems)
			vm.stack = vm.stack[:len(vm.stack)-count]
			vm.push(value.ObjVal(list))

		case chunk.GET_ELEMENT:
			if !vm.getElement() {
				return RuntimeError
			}

		case chunk.SET_ELEMENT:
			if !vm.setElement() {
				return RuntimeError
			}

		default:
			vm.runtimeError("Unknown opcode %d.", byte(op))
			return RuntimeError
		}
	}
	return OK
}

func (vm *VM) defineGlobal(fr *frame, idx int) {
	name := vm.readConstant(fr, idx).AsObj().(*object.String)
	vm.globals.Set(name, vm.peek(0))
	vm.pop()
}

func (vm *VM) getGlobal(fr *frame, idx int) bool {
	name := vm.readConstant(fr, idx).AsObj().(*object.String)
	v, ok := vm.globals.Get(name)
	if !ok {
		vm.runtimeError("Undefined variable '%s'.", name.Chars)
		return false
	}
	vm.push(v)
	return true
}

// setGlobal implements clox's "assigning to an undeclared global is a
// runtime error, and must not silently create it" rule: Table.Set reports
// whether it inserted a brand new key, so a new-key insertion is undone
// immediately (spec.md §4.5 "SET_GLOBAL").
func (vm *VM) setGlobal(fr *frame, idx int) bool {
	name := vm.readConstant(fr, idx).AsObj().(*object.String)
	if vm.globals.Set(name, vm.peek(0)) {
		vm.globals.Delete(name)
		vm.runtimeError("Undefined variable '%s'.", name.Chars)
		return false
	}
	return true
}

func (vm *VM) upvalueValue(uv *object.Upvalue) value.Value {
	if uv.IsClosed() {
		return uv.Closed
	}
	return vm.stack[uv.Location]
}

func (vm *VM) setUpvalueValue(uv *object.Upvalue, v value.Value) {
	if uv.IsClosed() {
		uv.Closed = v
		return
	}
	vm.stack[uv.Location] = v
}

// add implements ADD's two cases: numeric addition, and string
// concatenation where either operand may be a non-string value that gets
// stringified first (spec.md §4.5 "ADD").
func (vm *VM) add() bool {
	b := vm.peek(0)
	a := vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		bv := vm.pop().AsNumber()
		av := vm.pop().AsNumber()
		vm.push(value.NumberVal(av + bv))
		return true
	case isString(a) || isString(b):
		bv := vm.pop()
		av := vm.pop()
		s := vm.stringify(av) + vm.stringify(bv)
		vm.push(value.ObjVal(vm.heap.Intern(vm.roots(), s)))
		return true
	default:
		vm.runtimeError("Operands must be two numbers or two strings.")
		return false
	}
}

func isString(v value.Value) bool {
	k, ok := v.ObjKind()
	return ok && k == value.KindString
}

// stringify renders v for ADD's implicit string coercion: numbers use
// FormatNumberPrecision at the 10-digit precision spec.md §4.5 "ADD"
// specifies; every other kind prints exactly as PRINT would.
func (vm *VM) stringify(v value.Value) string {
	if v.IsNumber() {
		return value.FormatNumberPrecision(v.AsNumber(), 10)
	}
	return v.String()
}

func (vm *VM) arith(op chunk.Op) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError("Operands must be numbers.")
		return false
	}
	b := vm.pop().AsNumber()
	a := vm.pop().AsNumber()
	var r float64
	switch op {
	case chunk.SUBTRACT:
		r = a - b
	case chunk.MULTIPLY:
		r = a * b
	case chunk.DIVIDE:
		r = a / b
	case chunk.POWER:
		r = math.Pow(a, b)
	}
	vm.push(value.NumberVal(r))
	return true
}

// getProperty implements field lookup with method/getter fallback: an
// instance field takes priority, then a bound method, auto-invoked
// immediately if it was declared as a getter (spec.md §3 "Getter",
// §4.5 "GET_PROPERTY").
func (vm *VM) getProperty(name *object.String) bool {
	receiver := vm.peek(0)
	inst, ok := instanceOf(receiver)
	if !ok {
		vm.runtimeError("Only instances have properties.")
		return false
	}
	if v, ok := inst.Fields.Get(name); ok {
		vm.pop()
		vm.push(v)
		return true
	}
	method, ok := inst.Class.FindMethod(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	closure := method.AsObj().(*object.Closure)
	if closure.Fn.IsGetter() {
		vm.pop()
		vm.push(receiver)
		depth := len(vm.frames)
		if !vm.call(closure, 0) {
			return false
		}
		return vm.runFrames(depth) == OK
	}
	return vm.bindMethod(inst.Class, name)
}

func (vm *VM) setProperty(name *object.String) bool {
	receiver := vm.peek(1)
	inst, ok := instanceOf(receiver)
	if !ok {
		vm.runtimeError("Only instances have fields.")
		return false
	}
	v := vm.pop()
	inst.Fields.Set(name, v)
	vm.pop()
	vm.push(v)
	return true
}

func instanceOf(v value.Value) (*object.Instance, bool) {
	if !v.IsObj() {
		return nil, false
	}
	inst, ok := v.AsObj().(*object.Instance)
	return inst, ok
}

// getElement implements `list[index]` (spec.md §4.5 "GET_ELEMENT"):
// list, index on the stack, in that order, replaced by the single element
// value. A negative index is out of range; this dialect has no Python-style
// negative indexing.
func (vm *VM) getElement() bool {
	idxVal := vm.pop()
	listVal := vm.pop()
	list, idx, ok := vm.listAndIndex(listVal, idxVal)
	if !ok {
		return false
	}
	vm.push(list.Elems[idx])
	return true
}

// setElement implements `list[index] = value` as an expression: list,
// index, value on the stack, replaced by value itself, so the assignment
// can be chained or used as a subexpression (spec.md §4.5 "SET_ELEMENT").
func (vm *VM) setElement() bool {
	v := vm.pop()
	idxVal := vm.pop()
	listVal := vm.pop()
	list, idx, ok := vm.listAndIndex(listVal, idxVal)
	if !ok {
		return false
	}
	list.Elems[idx] = v
	vm.push(v)
	return true
}

func (vm *VM) listAndIndex(listVal, idxVal value.Value) (*object.List, int, bool) {
	if k, ok := listVal.ObjKind(); !ok || k != value.KindList {
		vm.runtimeError("Only lists support subscripting.")
		return nil, 0, false
	}
	if !idxVal.IsNumber() {
		vm.runtimeError("List index must be a number.")
		return nil, 0, false
	}
	list := listVal.AsObj().(*object.List)
	idx := int(idxVal.AsNumber())
	if idx < 0 || idx >= list.Len() {
		vm.runtimeError("Index out of bounds.")
		return nil, 0, false
	}
	return list, idx, true
}

