// Package value implements the tagged Value representation, the heap object
// model, the bytecode Chunk container, and the open-addressed hash table
// that backs string interning, globals, and instance/class storage.
//
// These four concerns share one package rather than the teacher's
// compiler/machine split because spec.md §3 ties them together directly: a
// Chunk's constant pool holds Values, a Function object (itself a Value) owns
// a Chunk, and Class/Instance objects hold Tables of Values. Splitting them
// across packages the way the teacher splits compiler (Funcode/Program) from
// machine (Value) would recreate an import cycle without the teacher's own
// workaround (the teacher's compiler stores constants as untyped
// map[interface{}]uint32 and only machine converts them to Values at load
// time) — see DESIGN.md.
package value

import "fmt"

// Kind is the tag discriminating the variants of Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is a tagged union over {null, bool, number, object-reference}, the
// "union form" permitted by spec.md §9 as an alternative to NaN-boxing.
type Value struct {
	kind Kind
	num  float64 // number payload, or 0/1 for bool
	obj  Obj     // object payload, valid only when kind == KindObj
}

// Null is the singleton null value.
var Null = Value{kind: KindNull}

// Bool returns a Value wrapping b.
func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, num: 1}
	}
	return Value{kind: KindBool, num: 0}
}

// Number returns a Value wrapping the float64 n.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// FromObj returns a Value wrapping the heap object o.
func FromObj(o Obj) Value { return Value{kind: KindObj, obj: o} }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBool reports whether v is a boolean.
func (v Value) IsBool() bool { return v.kind == KindBool }

// IsNumber reports whether v is a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsObj reports whether v is a heap object reference.
func (v Value) IsObj() bool { return v.kind == KindObj }

// AsBool returns the bool payload. Callers must check IsBool first.
func (v Value) AsBool() bool { return v.num != 0 }

// AsNumber returns the float64 payload. Callers must check IsNumber first.
func (v Value) AsNumber() float64 { return v.num }

// AsObj returns the object payload. Callers must check IsObj first.
func (v Value) AsObj() Obj { return v.obj }

// IsObjType reports whether v is a heap object of the given type.
func (v Value) IsObjType(t ObjType) bool { return v.kind == KindObj && v.obj.ObjType() == t }

// IsFalsey implements the language's truthiness rule: null and false are
// falsey, everything else (including 0 and "") is truthy.
func (v Value) IsFalsey() bool {
	return v.IsNull() || (v.IsBool() && !v.AsBool())
}

// Equal implements spec.md §4.6's equality rule: null==null, bool==bool,
// number==number by IEEE-754 equality, and object references by pointer
// equality (which is correct for strings because they are interned).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.num == b.num
	case KindNumber:
		return a.num == b.num
	case KindObj:
		return a.obj == b.obj
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.AsBool())
	case KindNumber:
		return formatNumber(v.num)
	case KindObj:
		return v.obj.String()
	}
	return "<invalid value>"
}

func formatNumber(n float64) string {
	return fmt.Sprintf("%g", n)
}

// TypeName returns a short, user-facing name of v's runtime type, used in
// runtime error messages.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindObj:
		return v.obj.ObjType().String()
	}
	return "invalid"
}
