package value

// Table is the generic open-addressed hash table of spec.md §4.2: keys are
// interned strings (so key equality is pointer equality), values are
// Values. It backs the string intern table, the VM's globals, and every
// class's method table / instance's field table.
//
// This is a hand-rolled structure rather than a wrapper over a third-party
// map (see DESIGN.md for why the teacher's github.com/dolthub/swiss was not
// reused here): spec.md pins down linear probing, a fixed 0.75 growth
// threshold, and tombstone-based deletion that preserves probe sequences,
// none of which a general-purpose Go map or SwissTable exposes.
type Table struct {
	count    int // live entries + tombstones
	entries  []entry
}

type entry struct {
	key   *ObjString // nil means empty or tombstone
	value Value
	// tombstone is true for a deleted slot; key is nil but the slot is not
	// free for find_string's purposes until resize reclaims it.
	tombstone bool
}

const tableMaxLoad = 0.75

// NewTable returns an empty Table.
func NewTable() *Table { return &Table{} }

// Count returns the number of live entries plus tombstones, per spec.md
// §4.2's count semantics.
func (t *Table) Count() int { return t.count }

// Get returns the value stored under key, and whether it was found.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Value{}, false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return Value{}, false
	}
	return e.value, true
}

// Set inserts or updates key -> value. It returns true if this created a new
// entry (as opposed to overwriting an existing one).
func (t *Table) Set(key *ObjString, v Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow(growCapacity(len(t.entries)))
	}
	e := t.findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew && !e.tombstone {
		t.count++
	}
	e.key = key
	e.value = v
	e.tombstone = false
	return isNew
}

// Delete removes key, leaving a tombstone behind so later probes that
// passed through this slot still find their target (spec.md §4.2).
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = Bool(true)
	e.tombstone = true
	return true
}

// Each calls f for every live (non-tombstone) entry. The callback must not
// mutate the table.
func (t *Table) Each(f func(key *ObjString, v Value)) {
	for i := range t.entries {
		if t.entries[i].key != nil {
			f(t.entries[i].key, t.entries[i].value)
		}
	}
}

// DeleteUnreachable removes every entry whose key is unmarked, used by the
// GC's weak-reference pass over the intern table (spec.md §4.7 step 3).
func (t *Table) DeleteUnreachable() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !Marked(e.key) {
			e.key = nil
			e.value = Bool(true)
			e.tombstone = true
		}
	}
}

// AddAll copies every live entry of src into t, used by OP_INHERIT to copy a
// superclass's method table into a subclass (spec.md §4.6).
func (t *Table) AddAll(src *Table) {
	src.Each(func(k *ObjString, v Value) {
		t.Set(k, v)
	})
}

// FindString implements spec.md §4.2's find_string variant: it compares by
// (length, hash, bytes) so the intern table can locate an existing string by
// content without first allocating an ObjString to use as a lookup key.
func (t *Table) FindString(s string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	mask := uint32(len(t.entries) - 1)
	idx := hash & mask
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if !e.tombstone {
				return nil
			}
		} else if len(e.key.Chars) == len(s) && e.key.Hash == hash && e.key.Chars == s {
			return e.key
		}
		idx = (idx + 1) & mask
	}
}

// findEntry performs linear probing with tombstone reuse, per spec.md
// §4.2: "insertions reuse the first tombstone seen if the key is not
// found."
func (t *Table) findEntry(entries []entry, key *ObjString) *entry {
	mask := uint32(len(entries) - 1)
	idx := key.Hash & mask
	var tombstone *entry
	for {
		e := &entries[idx]
		if e.key == nil {
			if !e.tombstone {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		idx = (idx + 1) & mask
	}
}

func growCapacity(cap int) int {
	if cap < 8 {
		return 8
	}
	return cap * 2
}

// grow reallocates the backing array at newCap and reinserts every live
// entry, recomputing count in the process (tombstones are dropped, per
// spec.md §4.2: "count ... is reset and recomputed on resize").
func (t *Table) grow(newCap int) {
	newEntries := make([]entry, newCap)
	t.count = 0
	for _, e := range t.entries {
		if e.key == nil {
			continue
		}
		dst := t.findEntry(newEntries, e.key)
		dst.key = e.key
		dst.value = e.value
		t.count++
	}
	t.entries = newEntries
}
