package datamodel

import (
	"mercator-hq/ganymede/pkg/instance"
	"mercator-hq/ganymede/pkg/schema"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// AddDefaults returns a focus at the same position whose subtree has
// schema defaults filled in: absent leafs and leaf-lists that carry
// defaults, absent non-presence containers whose subtree would hold a
// default, and the defaults of a choice's selected case, or of its
// default case when no case is selected. The input is never modified.
func (dm *DataModel) AddDefaults(h *instance.Handle) (*instance.Handle, error) {
	sn := h.Schema()
	obj, ok := h.Value().(*instance.Object)
	if sn == nil || !ok {
		return nil, &yangErrors.InstanceValueError{Path: h.Path(), Detail: "defaults apply to object nodes"}
	}
	return h.Replace(addDefaults(sn, obj)), nil
}

func addDefaults(sn *schema.Node, obj *instance.Object) *instance.Object {
	for _, cn := range defaultable(sn, obj) {
		switch cn.Kind {
		case schema.KindLeaf:
			if cn.Default != nil && !obj.Contains(cn.Name) {
				obj = obj.Assoc(cn.Name, cn.Default)
			}
		case schema.KindLeafList:
			if cn.Default == nil || obj.Contains(cn.Name) {
				continue
			}
			vals, ok := cn.Default.([]any)
			if !ok {
				continue
			}
			arr := instance.NewArray()
			for _, dv := range vals {
				arr = arr.Append(dv)
			}
			obj = obj.Assoc(cn.Name, arr)
		case schema.KindContainer:
			if v, present := obj.At(cn.Name); present {
				sub, ok := v.(*instance.Object)
				if !ok {
					continue
				}
				if filled := addDefaults(cn, sub); filled != sub {
					obj = obj.Assoc(cn.Name, filled)
				}
				continue
			}
			if cn.Presence {
				continue
			}
			// A non-presence container materializes only when its
			// subtree contributes at least one default.
			if filled := addDefaults(cn, instance.NewObject()); filled.Len() > 0 {
				obj = obj.Assoc(cn.Name, filled)
			}
		case schema.KindList:
			v, present := obj.At(cn.Name)
			if !present {
				continue
			}
			arr, ok := v.(*instance.Array)
			if !ok {
				continue
			}
			updated := arr
			for i := 0; i < arr.Len(); i++ {
				ev, _ := arr.At(i)
				sub, ok := ev.(*instance.Object)
				if !ok {
					continue
				}
				if filled := addDefaults(cn, sub); filled != sub {
					updated = updated.Assoc(i, filled)
				}
			}
			if updated != arr {
				obj = obj.Assoc(cn.Name, updated)
			}
		}
	}
	return obj
}

// defaultable resolves the children defaults may apply to, descending
// into the selected case of each choice, or its default case when no
// case has members present.
func defaultable(sn *schema.Node, obj *instance.Object) []*schema.Node {
	var out []*schema.Node
	for _, c := range sn.Children() {
		switch c.Kind {
		case schema.KindChoice:
			var sel *schema.Node
			for _, cs := range c.Children() {
				if casePresent(cs, obj) {
					sel = cs
					break
				}
			}
			if sel == nil && !c.DefaultCase.IsZero() {
				sel = c.Child(c.DefaultCase)
			}
			if sel != nil {
				out = append(out, defaultable(sel, obj)...)
			}
		case schema.KindCase, schema.KindRPC, schema.KindNotification,
			schema.KindInput, schema.KindOutput,
			schema.KindAnydata, schema.KindAnyxml:
			// No defaults below these.
		default:
			out = append(out, c)
		}
	}
	return out
}
