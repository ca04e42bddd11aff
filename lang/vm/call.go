package vm

import (
	"github.com/mna/corvid/internal/diag"
	"github.com/mna/corvid/lang/value"
)

// callValue dispatches a call to whatever kind of callable sits at
// stack[sp-argCount-1] (spec.md §4.6 call_value): a closure, a native, a
// class (producing an instance and running its initializer if any), or a
// bound method.
func (vm *VM) callValue(callee value.Value, argCount int) *diag.RuntimeError {
	if !callee.IsObj() {
		return vm.fail("Can only call functions and classes.")
	}
	switch o := callee.AsObj().(type) {
	case *value.ObjBoundMethod:
		vm.stack[vm.sp-argCount-1] = o.Receiver
		return vm.callClosure(o.Method, argCount)
	case *value.ObjClass:
		inst := vm.gc.NewInstance(o)
		vm.stack[vm.sp-argCount-1] = value.FromObj(inst)
		if init, ok := o.Methods.Get(vm.initString); ok {
			return vm.callClosure(init.AsObj().(*value.ObjClosure), argCount)
		}
		if argCount != 0 {
			return vm.fail("Expected 0 arguments but got %d.", argCount)
		}
		return nil
	case *value.ObjClosure:
		return vm.callClosure(o, argCount)
	case *value.ObjNative:
		if argCount != o.Arity {
			return vm.fail("Expected %d arguments but got %d.", o.Arity, argCount)
		}
		args := vm.stack[vm.sp-argCount : vm.sp]
		result, err := o.Fn(args)
		vm.sp -= argCount + 1
		if err != nil {
			return vm.fail("%s", err.Error())
		}
		vm.push(result)
		return nil
	default:
		return vm.fail("Can only call functions and classes.")
	}
}

func (vm *VM) callClosure(closure *value.ObjClosure, argCount int) *diag.RuntimeError {
	if argCount != closure.Function.Arity {
		return vm.fail("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if len(vm.frames) == framesMax {
		return vm.fail("Stack overflow.")
	}
	vm.frames = append(vm.frames, callFrame{
		closure:   closure,
		slotsBase: vm.sp - argCount - 1,
	})
	return nil
}

// call is the entry point used by Interpret for the implicit top-level
// call; it never fails because the wrapping closure is freshly created by
// the caller with zero arguments.
func (vm *VM) call(closure *value.ObjClosure, argCount int) {
	vm.frames = append(vm.frames, callFrame{closure: closure, slotsBase: vm.sp - argCount - 1})
}

// invoke implements the fused OP_INVOKE dispatch: a field holding a
// callable shadows a method of the same name (spec.md §4.6).
func (vm *VM) invoke(fr *callFrame, name *value.ObjString, argCount int) *diag.RuntimeError {
	receiver := vm.peek(argCount)
	if !receiver.IsObjType(value.ObjInstanceT) {
		return vm.fail("Only instances have methods.")
	}
	inst := receiver.AsObj().(*value.ObjInstance)
	if v, ok := inst.Fields.Get(name); ok {
		vm.stack[vm.sp-argCount-1] = v
		return vm.callValue(v, argCount)
	}
	return vm.invokeFromClass(inst.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *value.ObjClass, name *value.ObjString, argCount int) *diag.RuntimeError {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.fail("Undefined property '%s'.", name.Chars)
	}
	return vm.callClosure(method.AsObj().(*value.ObjClosure), argCount)
}

// bindMethod looks up name on class, binds it to the receiver currently at
// the top of the stack, and replaces that receiver with the bound method.
func (vm *VM) bindMethod(fr *callFrame, class *value.ObjClass, name *value.ObjString) *diag.RuntimeError {
	method, ok := class.Methods.Get(name)
	if !ok {
		return vm.fail("Undefined property '%s'.", name.Chars)
	}
	bound := vm.gc.NewBoundMethod(vm.peek(0), method.AsObj().(*value.ObjClosure))
	vm.pop()
	vm.push(value.FromObj(bound))
	return nil
}
