package vm

import (
	"errors"

	"github.com/mna/corvid/lang/value"
)

// defineNatives2 wires the list/length surface of spec.md §9's
// domain-stack expansion: the language has no list-literal syntax, so
// lists are built and inspected entirely through natives.
func (vm *VM) defineNatives2() {
	vm.defineNative("newList", 0, func(args []value.Value) (value.Value, error) {
		return value.FromObj(vm.gc.NewList()), nil
	})

	vm.defineNative("push", 2, func(args []value.Value) (value.Value, error) {
		list, ok := asList(args[0])
		if !ok {
			return value.Null, errors.New("push() expects a list as its first argument.")
		}
		list.Values = append(list.Values, args[1])
		return args[0], nil
	})

	vm.defineNative("get", 2, func(args []value.Value) (value.Value, error) {
		list, ok := asList(args[0])
		if !ok {
			return value.Null, errors.New("get() expects a list as its first argument.")
		}
		if !args[1].IsNumber() {
			return value.Null, errors.New("get() expects a number index.")
		}
		idx := int(args[1].AsNumber())
		if idx < 0 || idx >= len(list.Values) {
			return value.Null, errors.New("List index out of range.")
		}
		return list.Values[idx], nil
	})

	vm.defineNative("length", 1, func(args []value.Value) (value.Value, error) {
		switch {
		case args[0].IsObjType(value.ObjListT):
			l, _ := asList(args[0])
			return value.Number(float64(len(l.Values))), nil
		case args[0].IsObjType(value.ObjStringT):
			s := args[0].AsObj().(*value.ObjString)
			return value.Number(float64(len(s.Chars))), nil
		default:
			return value.Null, errors.New("length() expects a string or a list.")
		}
	})
}

func asList(v value.Value) (*value.ObjList, bool) {
	if !v.IsObjType(value.ObjListT) {
		return nil, false
	}
	return v.AsObj().(*value.ObjList), true
}
