package value

import (
	"fmt"
	"strings"
)

// ObjType discriminates the heap object variants of spec.md §3.
type ObjType uint8

const (
	ObjStringT ObjType = iota
	ObjFunctionT
	ObjNativeT
	ObjClosureT
	ObjUpvalueT
	ObjClassT
	ObjInstanceT
	ObjBoundMethodT
	ObjListT
)

func (t ObjType) String() string {
	switch t {
	case ObjStringT:
		return "string"
	case ObjFunctionT:
		return "function"
	case ObjNativeT:
		return "native"
	case ObjClosureT:
		return "closure"
	case ObjUpvalueT:
		return "upvalue"
	case ObjClassT:
		return "class"
	case ObjInstanceT:
		return "instance"
	case ObjBoundMethodT:
		return "bound method"
	case ObjListT:
		return "list"
	}
	return "unknown"
}

// Obj is implemented by every heap-allocated value. Every variant embeds
// Header, giving it the common {type_tag, is_marked, next_in_all_objects}
// fields spec.md §3 requires for the GC sweep list.
type Obj interface {
	fmt.Stringer
	ObjType() ObjType
	header() *Header
}

// Header is the common object prefix threaded onto the VM's sweep list by
// the GC (spec.md §3, §4.7). It is not exported for direct manipulation;
// the gc package accesses it through the Obj interface's accessor methods
// below (Marked, SetMarked, Next, SetNext) so that only one package owns the
// sweep-list invariant.
type Header struct {
	typ    ObjType
	marked bool
	next   Obj
	size   int
}

// Marked reports whether the GC has visited this object in the current
// mark phase.
func Marked(o Obj) bool { return o.header().marked }

// SetMarked sets the mark bit used by the GC's tri-color sweep.
func SetMarked(o Obj, marked bool) { o.header().marked = marked }

// Next returns the next object on the all-objects sweep list.
func Next(o Obj) Obj { return o.header().next }

// SetNext links o onto the sweep list ahead of next.
func SetNext(o Obj, next Obj) { o.header().next = next }

// Size returns the approximate allocation weight recorded for o, used by
// the GC's bytesAllocated/nextGC threshold bookkeeping (spec.md §4.7).
func Size(o Obj) int { return o.header().size }

// approximate per-variant weights used for the allocation-triggered GC
// threshold; Go's own allocator and GC do the real memory accounting; these
// only drive when this collector's mark-sweep pass runs, per spec.md's
// "triggered by allocation" model.
const (
	sizeString      = 32
	sizeFunction    = 64
	sizeNative      = 48
	sizeClosure     = 48
	sizeUpvalue     = 32
	sizeClass       = 48
	sizeInstance    = 48
	sizeBoundMethod = 32
	sizeList        = 48
)

func newHeader(t ObjType, size int) Header { return Header{typ: t, size: size} }

// ObjString is an interned, immutable string. Two ObjStrings with equal
// content are always the same pointer (spec.md §3 invariant); Hash is
// precomputed FNV-1a over Chars.
type ObjString struct {
	Header
	Chars string
	Hash  uint32
}

func NewObjString(s string, hash uint32) *ObjString {
	return &ObjString{Header: newHeader(ObjStringT, sizeString), Chars: s, Hash: hash}
}

func (s *ObjString) ObjType() ObjType  { return ObjStringT }
func (s *ObjString) header() *Header   { return &s.Header }
func (s *ObjString) String() string    { return s.Chars }

// FNV1a32 computes the 32-bit FNV-1a hash of s, used both by the intern
// table and by find_string probing (spec.md §4.2, §4.3).
func FNV1a32(s string) uint32 {
	const (
		offsetBasis uint32 = 2166136261
		prime       uint32 = 16777619
	)
	h := offsetBasis
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime
	}
	return h
}

// ObjFunction is a compiled, not-yet-closed-over function: arity, upvalue
// count, its chunk, and an optional name (empty for the top-level script).
type ObjFunction struct {
	Header
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString
}

func NewObjFunction() *ObjFunction {
	return &ObjFunction{Header: newHeader(ObjFunctionT, sizeFunction), Chunk: NewChunk()}
}

func (f *ObjFunction) ObjType() ObjType { return ObjFunctionT }
func (f *ObjFunction) header() *Header  { return &f.Header }
func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// NativeFn is a natively implemented callable: an argument slice in, a
// value or error out. It does not receive the VM, keeping value free of any
// dependency on the vm package.
type NativeFn func(args []Value) (Value, error)

// ObjNative wraps a NativeFn as a callable heap object.
type ObjNative struct {
	Header
	Name  string
	Arity int
	Fn    NativeFn
}

func NewObjNative(name string, arity int, fn NativeFn) *ObjNative {
	return &ObjNative{Header: newHeader(ObjNativeT, sizeNative), Name: name, Arity: arity, Fn: fn}
}

func (n *ObjNative) ObjType() ObjType { return ObjNativeT }
func (n *ObjNative) header() *Header  { return &n.Header }
func (n *ObjNative) String() string   { return fmt.Sprintf("<native fn %s>", n.Name) }

// ObjUpvalue indirects to a captured variable. While open, Location points
// into the owning VM's value stack; once closed (the variable's scope has
// exited), Location points at Closed, which owns the value from then on.
type ObjUpvalue struct {
	Header
	Location *Value
	Closed   Value
	Next     *ObjUpvalue // next open upvalue, list sorted by descending stack index
	Index    int         // stack slot Location pointed at while open; stale once closed
}

func NewObjUpvalue(slot *Value, index int) *ObjUpvalue {
	return &ObjUpvalue{Header: newHeader(ObjUpvalueT, sizeUpvalue), Location: slot, Index: index}
}

func (u *ObjUpvalue) ObjType() ObjType { return ObjUpvalueT }
func (u *ObjUpvalue) header() *Header  { return &u.Header }
func (u *ObjUpvalue) String() string   { return "upvalue" }

// Close moves the referenced stack value into the upvalue's own storage and
// retargets Location at it, per spec.md §4.6 close_upvalues.
func (u *ObjUpvalue) Close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// ObjClosure pairs a Function with the array of upvalues it captured at
// creation time; the array's length is fixed at function.upvalue_count.
type ObjClosure struct {
	Header
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

func NewObjClosure(fn *ObjFunction) *ObjClosure {
	return &ObjClosure{
		Header:   newHeader(ObjClosureT, sizeClosure),
		Function: fn,
		Upvalues: make([]*ObjUpvalue, fn.UpvalueCount),
	}
}

func (c *ObjClosure) ObjType() ObjType { return ObjClosureT }
func (c *ObjClosure) header() *Header  { return &c.Header }
func (c *ObjClosure) String() string   { return c.Function.String() }

// ObjClass is a class: its name and its method table (string -> closure).
type ObjClass struct {
	Header
	Name    *ObjString
	Methods *Table
}

func NewObjClass(name *ObjString) *ObjClass {
	return &ObjClass{Header: newHeader(ObjClassT, sizeClass), Name: name, Methods: NewTable()}
}

func (c *ObjClass) ObjType() ObjType { return ObjClassT }
func (c *ObjClass) header() *Header  { return &c.Header }
func (c *ObjClass) String() string   { return c.Name.Chars }

// ObjInstance is an instance of a class: the class reference plus a field
// table (string -> value), keyed by interned strings only.
type ObjInstance struct {
	Header
	Class  *ObjClass
	Fields *Table
}

func NewObjInstance(class *ObjClass) *ObjInstance {
	return &ObjInstance{Header: newHeader(ObjInstanceT, sizeInstance), Class: class, Fields: NewTable()}
}

func (i *ObjInstance) ObjType() ObjType { return ObjInstanceT }
func (i *ObjInstance) header() *Header  { return &i.Header }
func (i *ObjInstance) String() string   { return fmt.Sprintf("%s instance", i.Class.Name.Chars) }

// ObjBoundMethod pairs a receiver value with the method closure looked up
// on its class, produced by GET_PROPERTY/INVOKE when the name resolves to a
// method rather than a field.
type ObjBoundMethod struct {
	Header
	Receiver Value
	Method   *ObjClosure
}

func NewObjBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	return &ObjBoundMethod{Header: newHeader(ObjBoundMethodT, sizeBoundMethod), Receiver: receiver, Method: method}
}

func (b *ObjBoundMethod) ObjType() ObjType { return ObjBoundMethodT }
func (b *ObjBoundMethod) header() *Header  { return &b.Header }
func (b *ObjBoundMethod) String() string   { return b.Method.String() }

// ObjList is the one native collection type the runtime exposes (spec.md
// §9's domain-stack expansion: the §3 data model names List as a heap
// variant but spec.md never gives it operations, so this wires a minimal
// append/len/index surface).
type ObjList struct {
	Header
	Name   string
	Values []Value
}

func NewObjList() *ObjList {
	return &ObjList{Header: newHeader(ObjListT, sizeList), Name: "list"}
}

func (l *ObjList) ObjType() ObjType { return ObjListT }
func (l *ObjList) header() *Header  { return &l.Header }
func (l *ObjList) String() string {
	parts := make([]string, len(l.Values))
	for i, v := range l.Values {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
