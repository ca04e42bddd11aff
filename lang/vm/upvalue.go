package vm

import "github.com/mna/corvid/lang/value"

// captureUpvalue returns an open upvalue for the stack slot at index,
// reusing an existing one if some other closure already captured that exact
// slot (spec.md §4.6: "two closures that both capture the same variable
// instance must share the upvalue object"). The open list is kept sorted by
// descending stack index, matching original_source/'s captureUpvalue.
func (vm *VM) captureUpvalue(index int) *value.ObjUpvalue {
	var prev *value.ObjUpvalue
	uv := vm.openUpvalues
	for uv != nil && uv.Index > index {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && uv.Index == index {
		return uv
	}

	created := vm.gc.NewUpvalue(&vm.stack[index], index)
	created.Next = uv
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above fromIndex, moving each
// captured value's storage off the stack and into the upvalue itself (spec.md
// §4.6 close_upvalues), then removes them from the open list.
func (vm *VM) closeUpvalues(fromIndex int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Index >= fromIndex {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.Next
	}
}
