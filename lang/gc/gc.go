// Package gc implements the precise, tri-color mark-sweep collector of
// spec.md §4.7. It owns the all-objects sweep list and the string intern
// table (spec.md §4.3), and coordinates with external root providers — the
// VM and the active compiler chain — the way the original's markRoots
// composes VM roots with markCompilerRoots.
//
// Go already garbage-collects its own heap; this package nonetheless
// implements the mark-sweep bookkeeping the spec calls for (object headers,
// an explicit sweep list, an allocation-triggered threshold, weak-reference
// cleanup of the intern table) because that bookkeeping, not the underlying
// memory reclamation, is the subsystem under spec. Unlinking an object from
// the sweep list during Sweep is what actually makes it eligible for Go's
// own GC to reclaim the memory.
package gc

import (
	"fmt"
	"io"

	"golang.org/x/exp/slices"

	"github.com/mna/corvid/internal/debugflags"
	"github.com/mna/corvid/lang/value"
)

const (
	initialNextGC = 1 << 20 // 1MiB of simulated allocation weight
	growthFactor  = 2
)

// RootProvider is implemented by any subsystem that owns GC roots. The VM
// registers its value stack, call frames, open upvalues, and globals; the
// compiler chain registers every currently-active function being compiled
// (spec.md §4.7 markCompilerRoots).
type RootProvider interface {
	MarkRoots(gc *GC)
}

// GC is the collector plus the heap state it owns: the sweep list, the
// string intern table, and the gray worklist.
type GC struct {
	objects value.Obj // head of the all-objects sweep list
	strings *value.Table
	gray    []value.Obj

	bytesAllocated int
	nextGC         int

	roots []RootProvider

	// LogWriter, if non-nil, receives allocation/mark/sweep trace lines when
	// debugflags.LogGC is true.
	LogWriter io.Writer
}

// New returns a GC with an empty heap and a fresh intern table.
func New() *GC {
	return &GC{strings: value.NewTable(), nextGC: initialNextGC}
}

// AddRoot registers a root provider. The VM and the compiler's root chain
// both call this once at construction.
func (g *GC) AddRoot(p RootProvider) { g.roots = append(g.roots, p) }

// RemoveRoot unregisters a root provider previously passed to AddRoot. The
// compiler calls this once compilation finishes, since its function chain
// stops existing as a root once the resulting ObjFunction is handed off to
// whatever will run it (the VM registers its own roots separately).
func (g *GC) RemoveRoot(p RootProvider) {
	if i := slices.Index(g.roots, p); i >= 0 {
		g.roots = slices.Delete(g.roots, i, i+1)
	}
}

func (g *GC) logf(format string, args ...interface{}) {
	if debugflags.LogGC && g.LogWriter != nil {
		fmt.Fprintf(g.LogWriter, format, args...)
	}
}

func (g *GC) track(o value.Obj) {
	if debugflags.StressGC || g.bytesAllocated+value.Size(o) > g.nextGC {
		g.Collect()
	}

	value.SetNext(o, g.objects)
	g.objects = o
	g.bytesAllocated += value.Size(o)
	g.logf("alloc %p %s (%d bytes, %d total)\n", o, o.ObjType(), value.Size(o), g.bytesAllocated)
}

// Intern returns the canonical ObjString for s, allocating a new one only
// if no string with equal content is already interned (spec.md §4.3). Go's
// strings are immutable value types, so there is no separate "take
// ownership of an already-allocated buffer" step the way copy_string vs
// take_string distinguishes in the original; both collapse to this one
// content-addressed lookup-or-allocate.
func (g *GC) Intern(s string) *value.ObjString {
	hash := value.FNV1a32(s)
	if existing := g.strings.FindString(s, hash); existing != nil {
		return existing
	}
	obj := value.NewObjString(s, hash)
	g.track(obj)
	g.strings.Set(obj, value.Null)
	return obj
}

// NewFunction allocates a fresh, empty function object.
func (g *GC) NewFunction() *value.ObjFunction {
	fn := value.NewObjFunction()
	g.track(fn)
	return fn
}

// NewNative allocates a native callable.
func (g *GC) NewNative(name string, arity int, fn value.NativeFn) *value.ObjNative {
	n := value.NewObjNative(name, arity, fn)
	g.track(n)
	return n
}

// NewClosure allocates a closure over fn, with an upvalue array sized to
// fn.UpvalueCount.
func (g *GC) NewClosure(fn *value.ObjFunction) *value.ObjClosure {
	c := value.NewObjClosure(fn)
	g.track(c)
	return c
}

// NewUpvalue allocates an open upvalue pointing at the stack slot at index.
func (g *GC) NewUpvalue(slot *value.Value, index int) *value.ObjUpvalue {
	u := value.NewObjUpvalue(slot, index)
	g.track(u)
	return u
}

// NewClass allocates an empty class named name.
func (g *GC) NewClass(name *value.ObjString) *value.ObjClass {
	c := value.NewObjClass(name)
	g.track(c)
	return c
}

// NewInstance allocates an instance of class.
func (g *GC) NewInstance(class *value.ObjClass) *value.ObjInstance {
	i := value.NewObjInstance(class)
	g.track(i)
	return i
}

// NewBoundMethod allocates a bound method pairing receiver with method.
func (g *GC) NewBoundMethod(receiver value.Value, method *value.ObjClosure) *value.ObjBoundMethod {
	b := value.NewObjBoundMethod(receiver, method)
	g.track(b)
	return b
}

// NewList allocates an empty list.
func (g *GC) NewList() *value.ObjList {
	l := value.NewObjList()
	g.track(l)
	return l
}

// MarkValue marks v's underlying object, if it has one.
func (g *GC) MarkValue(v value.Value) {
	if v.IsObj() {
		g.MarkObject(v.AsObj())
	}
}

// MarkObject marks o and pushes it onto the gray worklist for later
// tracing, unless it is already marked (which also breaks cycles).
func (g *GC) MarkObject(o value.Obj) {
	if o == nil || value.Marked(o) {
		return
	}
	g.logf("mark %p %s\n", o, o.ObjType())
	value.SetMarked(o, true)
	g.gray = append(g.gray, o)
}

// Collect runs one full mark-sweep cycle: mark roots, trace references,
// drop unreachable intern-table entries, sweep (spec.md §4.7).
func (g *GC) Collect() {
	g.logf("-- gc begin\n")

	for _, r := range g.roots {
		r.MarkRoots(g)
	}
	g.traceReferences()
	g.strings.DeleteUnreachable()
	before := g.bytesAllocated
	g.sweep()

	g.nextGC = g.bytesAllocated * growthFactor
	if g.nextGC < initialNextGC {
		g.nextGC = initialNextGC
	}
	g.logf("-- gc end, collected %d bytes, next at %d\n", before-g.bytesAllocated, g.nextGC)
}

func (g *GC) traceReferences() {
	for len(g.gray) > 0 {
		n := len(g.gray) - 1
		o := g.gray[n]
		g.gray = g.gray[:n]
		g.blacken(o)
	}
}

// blacken marks every object directly reachable from o, per spec.md §4.7
// step 2's per-variant child list.
func (g *GC) blacken(o value.Obj) {
	g.logf("blacken %p %s\n", o, o.ObjType())
	switch v := o.(type) {
	case *value.ObjString:
		// no children
	case *value.ObjFunction:
		if v.Name != nil {
			g.MarkObject(v.Name)
		}
		for _, c := range v.Chunk.Constants {
			g.MarkValue(c)
		}
	case *value.ObjNative:
		// no children
	case *value.ObjClosure:
		g.MarkObject(v.Function)
		for _, uv := range v.Upvalues {
			if uv != nil {
				g.MarkObject(uv)
			}
		}
	case *value.ObjUpvalue:
		g.MarkValue(v.Closed)
	case *value.ObjClass:
		g.MarkObject(v.Name)
		v.Methods.Each(func(k *value.ObjString, val value.Value) {
			g.MarkObject(k)
			g.MarkValue(val)
		})
	case *value.ObjInstance:
		g.MarkObject(v.Class)
		v.Fields.Each(func(k *value.ObjString, val value.Value) {
			g.MarkObject(k)
			g.MarkValue(val)
		})
	case *value.ObjBoundMethod:
		g.MarkValue(v.Receiver)
		g.MarkObject(v.Method)
	case *value.ObjList:
		for _, e := range v.Values {
			g.MarkValue(e)
		}
	}
}

// sweep walks the all-objects list, unlinking and discarding every
// unmarked object and clearing the mark bit on survivors (spec.md §4.7 step
// 4). Go's own GC reclaims the memory once nothing references the unlinked
// object.
func (g *GC) sweep() {
	var prev value.Obj
	obj := g.objects
	for obj != nil {
		next := value.Next(obj)
		if value.Marked(obj) {
			value.SetMarked(obj, false)
			prev = obj
		} else {
			g.logf("free %p %s\n", obj, obj.ObjType())
			if prev == nil {
				g.objects = next
			} else {
				value.SetNext(prev, next)
			}
			g.bytesAllocated -= value.Size(obj)
		}
		obj = next
	}
}

// AllMarked runs mark+trace from every root, then reports whether every
// object on the sweep list ended up marked, i.e. whether a sweep right now
// would free nothing. It does not sweep, and it clears every mark before
// returning. Used by tests verifying spec.md §8 invariant 2.
func (g *GC) AllMarked() bool {
	for _, r := range g.roots {
		r.MarkRoots(g)
	}
	g.traceReferences()
	ok := true
	obj := g.objects
	for obj != nil {
		if !value.Marked(obj) {
			ok = false
		}
		value.SetMarked(obj, false)
		obj = value.Next(obj)
	}
	return ok
}
