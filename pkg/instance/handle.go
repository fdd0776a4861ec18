package instance

import (
	"strconv"
	"strings"

	"mercator-hq/ganymede/pkg/schema"
	"mercator-hq/ganymede/pkg/yang"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// Handle is a focus into a data tree. It pairs the value at the focus
// with the chain of handles leading back to the root, so moving up
// splices the focus value into a fresh copy of the parent. Handles are
// immutable; every move and edit returns a new handle.
type Handle struct {
	schema *schema.Node
	parent *Handle
	name   yang.QName
	index  int
	entry  bool
	value  any
}

// Schema returns the schema node the focus is matched against. It is
// nil inside anydata and anyxml content.
func (h *Handle) Schema() *schema.Node { return h.schema }

// Value returns the value at the focus. Interior nodes hold *Object,
// lists and leaf-lists hold *Array, leaves hold scalars.
func (h *Handle) Value() any { return h.value }

// Up returns the parent focus with the current value spliced in. Edits
// made below therefore become visible in the returned handle. Moving up
// from the root fails with NonexistentInstance.
func (h *Handle) Up() (*Handle, error) {
	if h.parent == nil {
		return nil, &yangErrors.NonexistentInstance{Path: h.Path(), Detail: "the root has no parent"}
	}
	p := *h.parent
	if h.entry {
		p.value = p.value.(*Array).Assoc(h.index, h.value)
	} else {
		p.value = p.value.(*Object).Assoc(h.name, h.value)
	}
	return &p, nil
}

// Root returns the root focus with all edits along the ancestor chain
// spliced in.
func (h *Handle) Root() *Handle {
	cur := h
	for cur.parent != nil {
		cur, _ = cur.Up()
	}
	return cur
}

// Member returns the focus of the named member of the current object.
func (h *Handle) Member(name yang.QName) (*Handle, error) {
	obj, ok := h.value.(*Object)
	if !ok {
		return nil, &yangErrors.InstanceValueError{Path: h.Path(), Detail: "member access on a non-object"}
	}
	v, ok := obj.At(name)
	if !ok {
		return nil, &yangErrors.NonexistentInstance{Path: h.Path(), Detail: "no member " + name.String()}
	}
	var cn *schema.Node
	if h.schema != nil {
		cn = h.schema.DataChild(name)
	}
	return &Handle{schema: cn, parent: h, name: name, value: v}, nil
}

// Entry returns the focus of the i-th entry of the current array. Entry
// handles keep the array's schema node, so list entries answer member
// lookups with the list's children.
func (h *Handle) Entry(i int) (*Handle, error) {
	arr, ok := h.value.(*Array)
	if !ok {
		return nil, &yangErrors.InstanceValueError{Path: h.Path(), Detail: "entry access on a non-array"}
	}
	v, ok := arr.At(i)
	if !ok {
		return nil, &yangErrors.NonexistentInstance{Path: h.Path(), Detail: "no entry " + strconv.Itoa(i)}
	}
	return &Handle{schema: h.schema, parent: h, index: i, entry: true, value: v}, nil
}

// LookupEntry returns the focus of the list entry whose members match
// every value in keys.
func (h *Handle) LookupEntry(keys map[yang.QName]any) (*Handle, error) {
	arr, ok := h.value.(*Array)
	if !ok {
		return nil, &yangErrors.InstanceValueError{Path: h.Path(), Detail: "entry lookup on a non-array"}
	}
	found := -1
	arr.Range(func(i int, v any) bool {
		obj, ok := v.(*Object)
		if !ok {
			return true
		}
		for name, want := range keys {
			got, present := obj.At(name)
			if !present || !Equal(got, want) {
				return true
			}
		}
		found = i
		return false
	})
	if found < 0 {
		return nil, &yangErrors.NonexistentInstance{Path: h.Path(), Detail: "no entry matching the given keys"}
	}
	return h.Entry(found)
}

// LookupValue returns the focus of the leaf-list entry equal to v.
func (h *Handle) LookupValue(v any) (*Handle, error) {
	arr, ok := h.value.(*Array)
	if !ok {
		return nil, &yangErrors.InstanceValueError{Path: h.Path(), Detail: "value lookup on a non-array"}
	}
	found := -1
	arr.Range(func(i int, ev any) bool {
		if Equal(ev, v) {
			found = i
			return false
		}
		return true
	})
	if found < 0 {
		return nil, &yangErrors.NonexistentInstance{Path: h.Path(), Detail: "no entry with the given value"}
	}
	return h.Entry(found)
}

// Replace returns a focus at the same position holding v.
func (h *Handle) Replace(v any) *Handle {
	n := *h
	n.value = v
	return &n
}

// Assoc returns a focus at the same position with the named member of
// the current object set to v.
func (h *Handle) Assoc(name yang.QName, v any) (*Handle, error) {
	obj, ok := h.value.(*Object)
	if !ok {
		return nil, &yangErrors.InstanceValueError{Path: h.Path(), Detail: "member assoc on a non-object"}
	}
	return h.Replace(obj.Assoc(name, v)), nil
}

// Delete returns a focus at the same position without the named member.
func (h *Handle) Delete(name yang.QName) (*Handle, error) {
	obj, ok := h.value.(*Object)
	if !ok {
		return nil, &yangErrors.InstanceValueError{Path: h.Path(), Detail: "member delete on a non-object"}
	}
	return h.Replace(obj.Delete(name)), nil
}

// Path renders the position of the focus. Members render as
// /module:name with the module omitted while it repeats, entries as a
// one-based [n] suffix. The root renders as /.
func (h *Handle) Path() string {
	if h.parent == nil {
		return "/"
	}
	var chain []*Handle
	for cur := h; cur.parent != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	var b strings.Builder
	module := ""
	for i := len(chain) - 1; i >= 0; i-- {
		cur := chain[i]
		if cur.entry {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(cur.index + 1))
			b.WriteByte(']')
			continue
		}
		b.WriteByte('/')
		if cur.name.Module != module {
			b.WriteString(cur.name.Module)
			b.WriteByte(':')
			module = cur.name.Module
		}
		b.WriteString(cur.name.Name)
	}
	return b.String()
}
