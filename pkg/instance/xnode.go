package instance

import (
	"fmt"
	"sort"

	"mercator-hq/ganymede/pkg/xpath"
	"mercator-hq/ganymede/pkg/yang"
)

// Handle implements xpath.Node, so constraint expressions evaluate
// directly over a focus. In the expression data model arrays are
// invisible: each list or leaf-list entry appears as a child of the
// node holding the list, named after the list itself.

// Name returns the member name at the focus. Entries take the name of
// the list they belong to, the root returns the zero name.
func (h *Handle) Name() yang.QName {
	if h.entry {
		return h.parent.name
	}
	return h.name
}

// Parent returns the enclosing element node. Entries skip the handle
// holding their array.
func (h *Handle) Parent() xpath.Node {
	p, err := h.Up()
	if err != nil {
		return nil
	}
	if h.entry {
		pp, err := p.Up()
		if err != nil {
			return nil
		}
		return pp
	}
	return p
}

// Children returns the element children of the focus in schema order,
// with array members flattened into their entries. Opaque objects
// order their members by name.
func (h *Handle) Children() []xpath.Node {
	switch v := h.value.(type) {
	case *Object:
		if h.schema != nil {
			var out []xpath.Node
			for _, cn := range h.schema.DataChildren() {
				mv, ok := v.At(cn.Name)
				if !ok {
					continue
				}
				out = flattenMember(out, &Handle{schema: cn, parent: h, name: cn.Name, value: mv})
			}
			return out
		}
		names := make([]yang.QName, 0, v.Len())
		v.Range(func(name yang.QName, _ any) bool {
			names = append(names, name)
			return true
		})
		sort.Slice(names, func(i, j int) bool { return names[i].String() < names[j].String() })
		var out []xpath.Node
		for _, name := range names {
			mv, _ := v.At(name)
			out = flattenMember(out, &Handle{parent: h, name: name, value: mv})
		}
		return out
	case *Array:
		var out []xpath.Node
		v.Range(func(i int, ev any) bool {
			out = append(out, &Handle{schema: h.schema, parent: h, index: i, entry: true, value: ev})
			return true
		})
		return out
	}
	return nil
}

func flattenMember(out []xpath.Node, member *Handle) []xpath.Node {
	arr, ok := member.value.(*Array)
	if !ok {
		return append(out, member)
	}
	arr.Range(func(i int, ev any) bool {
		out = append(out, &Handle{schema: member.schema, parent: member, index: i, entry: true, value: ev})
		return true
	})
	return out
}

// StringValue returns the canonical form of a scalar focus. Interior
// nodes return the empty string.
func (h *Handle) StringValue() string {
	switch h.value.(type) {
	case *Object, *Array:
		return ""
	}
	if h.schema != nil && h.schema.Type != nil {
		if s, err := h.schema.Type.CanonicalString(h.value); err == nil {
			return s
		}
	}
	return fmt.Sprint(h.value)
}
