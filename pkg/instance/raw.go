package instance

import (
	"sort"
	"strconv"

	"mercator-hq/ganymede/pkg/schema"
	"mercator-hq/ganymede/pkg/types"
	"mercator-hq/ganymede/pkg/yang"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// FromRaw matches a decoded value tree against the schema subtree
// rooted at sn and returns a root focus over the result. Members not
// declared in the schema fail with RawMemberError, values of the wrong
// shape with RawTypeError and malformed scalars with YangTypeError,
// each carrying a JSON pointer into raw.
func FromRaw(sn *schema.Node, raw any) (*Handle, error) {
	v, err := fromRaw(sn, raw, "")
	if err != nil {
		return nil, err
	}
	return &Handle{schema: sn, value: v}, nil
}

func fromRaw(sn *schema.Node, raw any, ptr string) (any, error) {
	switch sn.Kind {
	case schema.KindLeaf:
		return leafFromRaw(sn.Type, raw, ptr)
	case schema.KindLeafList:
		items, ok := raw.([]any)
		if !ok {
			return nil, &yangErrors.RawTypeError{Pointer: ptr, Detail: "expected an array"}
		}
		arr := NewArray()
		for i, item := range items {
			v, err := leafFromRaw(sn.Type, item, ptr+"/"+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			arr = arr.Append(v)
		}
		return arr, nil
	case schema.KindList:
		items, ok := raw.([]any)
		if !ok {
			return nil, &yangErrors.RawTypeError{Pointer: ptr, Detail: "expected an array of objects"}
		}
		arr := NewArray()
		for i, item := range items {
			eptr := ptr + "/" + strconv.Itoa(i)
			m, ok := item.(map[string]any)
			if !ok {
				return nil, &yangErrors.RawTypeError{Pointer: eptr, Detail: "expected an object"}
			}
			obj, err := objectFromRaw(sn, m, eptr)
			if err != nil {
				return nil, err
			}
			arr = arr.Append(obj)
		}
		return arr, nil
	case schema.KindAnydata, schema.KindAnyxml:
		return opaqueFromRaw(raw), nil
	default:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, &yangErrors.RawTypeError{Pointer: ptr, Detail: "expected an object"}
		}
		return objectFromRaw(sn, m, ptr)
	}
}

func leafFromRaw(t types.Type, raw any, ptr string) (any, error) {
	switch rv := raw.(type) {
	case map[string]any:
		return nil, &yangErrors.RawTypeError{Pointer: ptr, Detail: "expected a scalar"}
	case []any:
		// [null] is the interchange form of the empty type.
		if len(rv) != 1 || rv[0] != nil {
			return nil, &yangErrors.RawTypeError{Pointer: ptr, Detail: "expected a scalar"}
		}
	}
	return t.FromRaw(raw)
}

// objectFromRaw matches the members of m against the children of sn.
// Member names follow the interchange convention: a module qualifier is
// required on top-level members and inherited from the parent node
// elsewhere. Names iterate sorted so the first failure is stable.
func objectFromRaw(sn *schema.Node, m map[string]any, ptr string) (*Object, error) {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	obj := NewObject()
	for _, k := range names {
		mptr := ptr + "/" + k
		module, local, ok := yang.SplitPName(k)
		if !ok {
			return nil, &yangErrors.RawMemberError{Pointer: mptr}
		}
		if module == "" {
			if sn.Name.IsZero() {
				return nil, &yangErrors.RawMemberError{Pointer: mptr}
			}
			module = sn.Name.Module
		}
		cn := sn.DataChild(yang.NewQName(module, local))
		if cn == nil {
			return nil, &yangErrors.RawMemberError{Pointer: mptr}
		}
		v, err := fromRaw(cn, m[k], mptr)
		if err != nil {
			return nil, err
		}
		obj = obj.Assoc(cn.Name, v)
	}
	return obj, nil
}

// opaqueFromRaw converts anydata and anyxml content without schema
// guidance. Member names are kept verbatim and scalars stay in their
// decoded form.
func opaqueFromRaw(raw any) any {
	switch rv := raw.(type) {
	case map[string]any:
		obj := NewObject()
		for k, v := range rv {
			module, local, ok := yang.SplitPName(k)
			if !ok {
				module, local = "", k
			}
			obj = obj.Assoc(yang.NewQName(module, local), opaqueFromRaw(v))
		}
		return obj
	case []any:
		arr := NewArray()
		for _, v := range rv {
			arr = arr.Append(opaqueFromRaw(v))
		}
		return arr
	}
	return raw
}

// Raw converts the subtree at the focus back into a generic value
// tree. Member names qualify their module only when it differs from the
// parent's, and scalars take their interchange form, with 64-bit
// integers and decimals rendered as strings.
func (h *Handle) Raw() any {
	return toRaw(h.schema, h.Name().Module, h.value)
}

func toRaw(sn *schema.Node, module string, v any) any {
	switch val := v.(type) {
	case *Object:
		out := make(map[string]any, val.Len())
		val.Range(func(name yang.QName, mv any) bool {
			var cn *schema.Node
			if sn != nil {
				cn = sn.DataChild(name)
			}
			key := name.Name
			inner := module
			if name.Module != "" && name.Module != module {
				key = name.Module + ":" + name.Name
				inner = name.Module
			}
			out[key] = toRaw(cn, inner, mv)
			return true
		})
		return out
	case *Array:
		out := make([]any, 0, val.Len())
		val.Range(func(i int, ev any) bool {
			out = append(out, toRaw(sn, module, ev))
			return true
		})
		return out
	}
	if sn == nil || sn.Type == nil {
		return v
	}
	return rawScalar(sn.Type, v)
}

func rawScalar(t types.Type, v any) any {
	switch rt := t.(type) {
	case *types.LeafrefType:
		if rt.Target() != nil {
			return rawScalar(rt.Target(), v)
		}
	case *types.UnionType:
		for _, m := range rt.Members() {
			if m.Contains(v) {
				return rawScalar(m, v)
			}
		}
	}
	switch t.Name() {
	case "int8", "int16", "int32", "uint8", "uint16", "uint32", "boolean":
		return v
	case "empty":
		return []any{nil}
	}
	s, err := t.CanonicalString(v)
	if err != nil {
		return v
	}
	return s
}
