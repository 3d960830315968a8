package vm

import (
	"github.com/mna/loxvm/lang/object"
	"github.com/mna/loxvm/lang/value"
)

// call pushes a new frame for closure with argCount arguments already on
// the stack (receiver/callee slot included), per spec.md §4.5 "CALL".
func (vm *VM) call(closure *object.Closure, argCount int) bool {
	arity := closure.Fn.Arity
	if closure.Fn.IsGetter() {
		arity = 0
	}
	if argCount != arity {
		vm.runtimeError("Expected %d arguments but got %d.", arity, argCount)
		return false
	}
	if len(vm.frames) == maxFrames {
		vm.runtimeError("Stack overflow.")
		return false
	}
	vm.frames = append(vm.frames, frame{
		closure: closure,
		ip:      0,
		slots:   len(vm.stack) - argCount - 1,
	})
	return true
}

// callValue dispatches CALL by the callee's kind (spec.md §4.5 "CALL
// dispatch"): a Closure pushes a frame, a Native runs immediately and
// leaves its result on the stack, a Class constructs an Instance (and
// chains into its "init" if it has one), a BoundMethod calls its
// underlying Closure with the bound receiver installed in slot 0.
func (vm *VM) callValue(callee value.Value, argCount int) bool {
	if !callee.IsObj() {
		vm.runtimeError("Can only call functions and classes.")
		return false
	}
	switch o := callee.AsObj().(type) {
	case *object.Closure:
		return vm.call(o, argCount)
	case *object.Native:
		args := vm.stack[len(vm.stack)-argCount:]
		result, err := o.Fn(args)
		if err != nil {
			vm.runtimeError("%s", err.Error())
			return false
		}
		vm.stack = vm.stack[:len(vm.stack)-argCount-1]
		vm.push(result)
		return true
	case *object.Class:
		inst := vm.heap.AllocInstance(vm.roots(), o)
		vm.stack[len(vm.stack)-argCount-1] = value.ObjVal(inst)
		if init, ok := o.FindMethod(vm.initString); ok {
			return vm.call(init.AsObj().(*object.Closure), argCount)
		}
		if argCount != 0 {
			vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			return false
		}
		return true
	case *object.BoundMethod:
		vm.stack[len(vm.stack)-argCount-1] = o.Receiver
		return vm.call(o.Method, argCount)
	default:
		vm.runtimeError("Can only call functions and classes.")
		return false
	}
}

// captureUpvalue returns the open Upvalue aliasing stack slot, reusing an
// existing one if the VM-wide open-upvalue list (sorted by descending slot
// index, spec.md §3 "Upvalue") already has one for this exact slot.
func (vm *VM) captureUpvalue(slot int) *object.Upvalue {
	var prev *object.Upvalue
	uv := vm.openUpvalues
	for uv != nil && uv.Location > slot {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && uv.Location == slot {
		return uv
	}
	created := vm.heap.AllocUpvalue(vm.roots(), slot)
	created.Next = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues migrates every open upvalue whose Location is >= slot from
// open to closed, copying the live stack value into the upvalue itself
// before the slot goes out of scope (spec.md §4.5 "CLOSE_UPVALUE").
func (vm *VM) closeUpvalues(slot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Location >= slot {
		uv := vm.openUpvalues
		uv.Close(vm.stack[uv.Location])
		vm.openUpvalues = uv.Next
	}
}

// bindMethod resolves name on klass and replaces the receiver on top of the
// stack with a BoundMethod pairing it to the found Closure (spec.md §4.5
// "GET_PROPERTY", "GET_SUPER").
func (vm *VM) bindMethod(klass *object.Class, name *object.String) bool {
	method, ok := klass.FindMethod(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	bound := vm.heap.AllocBoundMethod(vm.roots(), vm.peek(0), method.AsObj().(*object.Closure))
	vm.pop()
	vm.push(value.ObjVal(bound))
	return true
}

// invokeFromClass dispatches a method call once the receiver's class is
// known (used both by INVOKE, where it's the receiver's own class, and by
// INVOKE_SUPER, where it's an ancestor's). A getter resolved here is called
// exactly as any other method: INVOKE always supplies explicit arguments
// (spec.md §4.5 "INVOKE").
func (vm *VM) invokeFromClass(klass *object.Class, name *object.String, argCount int) bool {
	method, ok := klass.FindMethod(name)
	if !ok {
		vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	return vm.call(method.AsObj().(*object.Closure), argCount)
}

// invoke fuses GET_PROPERTY+CALL for the common `receiver.name(args)` shape
// (spec.md §4.5 "INVOKE"): an instance field holding a callable takes
// priority over a method of the same name, exactly as a plain
// GET_PROPERTY followed by CALL would behave.
func (vm *VM) invoke(name *object.String, argCount int) bool {
	receiver := vm.peek(argCount)
	if !receiver.IsObj() {
		vm.runtimeError("Only instances have methods.")
		return false
	}
	inst, ok := receiver.AsObj().(*object.Instance)
	if !ok {
		vm.runtimeError("Only instances have methods.")
		return false
	}
	if v, ok := inst.Fields.Get(name); ok {
		vm.stack[len(vm.stack)-argCount-1] = v
		return vm.callValue(v, argCount)
	}
	return vm.invokeFromClass(inst.Class, name, argCount)
}
