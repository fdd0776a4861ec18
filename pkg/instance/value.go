package instance

import (
	"jsouthworth.net/go/dyn"
	"jsouthworth.net/go/immutable/hashmap"
	"jsouthworth.net/go/immutable/vector"

	"mercator-hq/ganymede/pkg/yang"
)

// Object is an immutable set of named members. Interior nodes of a data
// tree, including list entries, are objects. Member names are stored in
// their fully qualified form, so two members with the same local name
// from different modules never collide.
type Object struct {
	store *hashmap.Map
}

// NewObject returns an object with no members.
func NewObject() *Object {
	return &Object{store: hashmap.Empty()}
}

// At returns the value of the named member and whether it is present.
func (o *Object) At(name yang.QName) (any, bool) {
	return o.store.Find(name.String())
}

// Contains reports whether the named member is present.
func (o *Object) Contains(name yang.QName) bool {
	return o.store.Contains(name.String())
}

// Assoc returns an object with the named member set to v. The receiver
// is returned unchanged when the member already holds v.
func (o *Object) Assoc(name yang.QName, v any) *Object {
	store := o.store.Assoc(name.String(), v)
	if store == o.store {
		return o
	}
	return &Object{store: store}
}

// Delete returns an object without the named member.
func (o *Object) Delete(name yang.QName) *Object {
	store := o.store.Delete(name.String())
	if store == o.store {
		return o
	}
	return &Object{store: store}
}

// Len returns the number of members.
func (o *Object) Len() int {
	return o.store.Length()
}

// Range calls fn for each member until it returns false. Iteration
// order is unspecified.
func (o *Object) Range(fn func(name yang.QName, v any) bool) {
	o.store.Range(func(entry hashmap.Entry) bool {
		key := entry.Key().(string)
		module, local, ok := yang.SplitPName(key)
		if !ok {
			// Opaque members keep their name verbatim.
			module, local = "", key
		}
		return fn(yang.NewQName(module, local), entry.Value())
	})
}

// Array is an immutable sequence of values. List and leaf-list members
// are arrays; list entries are objects, leaf-list entries scalars.
type Array struct {
	store *vector.Vector
}

// NewArray returns an empty array.
func NewArray() *Array {
	return &Array{store: vector.Empty()}
}

// At returns the value at index i and whether the index is in range.
func (a *Array) At(i int) (any, bool) {
	return a.store.Find(i)
}

// Assoc returns an array with index i set to v. The receiver is
// returned unchanged when the index already holds v.
func (a *Array) Assoc(i int, v any) *Array {
	store := a.store.Assoc(i, v)
	if store == a.store {
		return a
	}
	return &Array{store: store}
}

// Append returns an array with v added after the last entry.
func (a *Array) Append(v any) *Array {
	return &Array{store: a.store.Append(v)}
}

// Delete returns an array without the entry at index i.
func (a *Array) Delete(i int) *Array {
	store := a.store.Delete(i)
	if store == a.store {
		return a
	}
	return &Array{store: store}
}

// Len returns the number of entries.
func (a *Array) Len() int {
	return a.store.Length()
}

// Range calls fn for each entry in order until it returns false.
func (a *Array) Range(fn func(i int, v any) bool) {
	a.store.Range(func(i int, v interface{}) bool {
		return fn(i, v)
	})
}

// Equal reports whether two stored values are equal. Objects compare by
// membership, arrays entry by entry, and scalars by dyn.Equal, which
// covers the slice-valued bits and binary representations.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case *Object:
		bo, ok := b.(*Object)
		if !ok || av.Len() != bo.Len() {
			return false
		}
		eq := true
		av.Range(func(name yang.QName, v any) bool {
			bv, present := bo.At(name)
			if !present || !Equal(v, bv) {
				eq = false
			}
			return eq
		})
		return eq
	case *Array:
		ba, ok := b.(*Array)
		if !ok || av.Len() != ba.Len() {
			return false
		}
		eq := true
		av.Range(func(i int, v any) bool {
			bv, _ := ba.At(i)
			if !Equal(v, bv) {
				eq = false
			}
			return eq
		})
		return eq
	}
	return dyn.Equal(a, b)
}
