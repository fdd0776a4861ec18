package datamodel

import (
	"fmt"

	"mercator-hq/ganymede/pkg/instance"
	"mercator-hq/ganymede/pkg/schema"
	"mercator-hq/ganymede/pkg/types"
	"mercator-hq/ganymede/pkg/xpath"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// Validate checks the document below root and returns the first
// violation found, or nil. The walk is read-only; root is unchanged.
func (dm *DataModel) Validate(root *instance.Handle) error {
	errs := dm.validate(root, true)
	if errs.HasErrors() {
		return errs.Errors[0]
	}
	return nil
}

// ValidateAll checks the document below root and collects every
// violation. It returns nil when the document is valid, otherwise the
// error is a *yangErrors.ErrorList.
func (dm *DataModel) ValidateAll(root *instance.Handle) error {
	return dm.validate(root, false).ToError()
}

func (dm *DataModel) validate(root *instance.Handle, failFast bool) *yangErrors.ErrorList {
	root = root.Root()
	v := &validator{
		env:      dm.env(root),
		root:     root,
		failFast: failFast,
		errs:     yangErrors.NewErrorList(),
	}
	v.node(root)
	return v.errs
}

type validator struct {
	env      *xpath.Env
	root     *instance.Handle
	failFast bool
	errs     *yangErrors.ErrorList
}

func (v *validator) stopped() bool {
	return v.failFast && v.errs.HasErrors()
}

func (v *validator) schema(path, tag, message string) {
	v.errs.AddSchema(path, tag, message)
}

func (v *validator) semantic(path, tag, message string) {
	v.errs.AddSemantic(path, tag, message)
}

// node dispatches the checks for one focus. List and leaf-list members
// check cardinality on the whole array and then everything else per
// entry, since conditions and values attach to entries.
func (v *validator) node(h *instance.Handle) {
	if v.stopped() {
		return
	}
	sn := h.Schema()
	if sn == nil {
		// Opaque content below anydata is not checked.
		return
	}
	switch sn.Kind {
	case schema.KindAnydata, schema.KindAnyxml:
		v.conds(h, sn)
	case schema.KindLeaf:
		v.conds(h, sn)
		v.leafValue(h, sn, h.Value())
	case schema.KindLeafList:
		arr, ok := h.Value().(*instance.Array)
		if !ok {
			v.semantic(h.Path(), yangErrors.TagInvalidValue, "not an array")
			return
		}
		v.bounds(h, sn, arr.Len())
		v.leafListEntries(h, sn, arr)
	case schema.KindList:
		arr, ok := h.Value().(*instance.Array)
		if !ok {
			v.semantic(h.Path(), yangErrors.TagInvalidValue, "not an array")
			return
		}
		v.bounds(h, sn, arr.Len())
		v.listKeys(h, sn, arr)
		v.listUnique(h, sn, arr)
		for i := 0; i < arr.Len() && !v.stopped(); i++ {
			eh, err := h.Entry(i)
			if err != nil {
				return
			}
			v.conds(eh, sn)
			v.object(eh, sn)
		}
	default:
		v.conds(h, sn)
		v.object(h, sn)
	}
}

// object checks the structure of an interior node and descends into the
// present members.
func (v *validator) object(h *instance.Handle, sn *schema.Node) {
	obj, ok := h.Value().(*instance.Object)
	if !ok {
		v.semantic(h.Path(), yangErrors.TagInvalidValue, "not an object")
		return
	}
	v.structure(h, sn, obj)
	for _, cn := range sn.DataChildren() {
		if v.stopped() {
			return
		}
		if !obj.Contains(cn.Name) {
			continue
		}
		ch, err := h.Member(cn.Name)
		if err != nil {
			return
		}
		v.node(ch)
	}
}

// structure checks mandatory members and choice consistency against the
// direct schema children of sn. The members of a selected case are
// checked recursively, so nested choices and case-local mandatories
// apply.
func (v *validator) structure(h *instance.Handle, sn *schema.Node, obj *instance.Object) {
	for _, c := range sn.Children() {
		if v.stopped() {
			return
		}
		switch c.Kind {
		case schema.KindChoice:
			v.choice(h, c, obj)
		case schema.KindCase, schema.KindRPC, schema.KindNotification,
			schema.KindInput, schema.KindOutput:
			// Not part of the data contents of this node.
		default:
			if c.Mandatory && !obj.Contains(c.Name) {
				v.schema(h.Path(), yangErrors.TagMissingData,
					fmt.Sprintf("member %q is mandatory", c.Name.String()))
			}
		}
	}
}

func (v *validator) choice(h *instance.Handle, ch *schema.Node, obj *instance.Object) {
	var selected []*schema.Node
	for _, cs := range ch.Children() {
		if casePresent(cs, obj) {
			selected = append(selected, cs)
		}
	}
	switch {
	case len(selected) > 1:
		v.schema(h.Path(), yangErrors.TagMultipleCases,
			fmt.Sprintf("members of %d cases of choice %q are present", len(selected), ch.Name.String()))
	case len(selected) == 0:
		if ch.Mandatory {
			v.schema(h.Path(), yangErrors.TagMissingChoice,
				fmt.Sprintf("choice %q requires one of its cases", ch.Name.String()))
		}
	default:
		v.structure(h, selected[0], obj)
	}
}

// casePresent reports whether any data descendant of the case has an
// instance in obj. Case members live flat in the enclosing object.
func casePresent(cs *schema.Node, obj *instance.Object) bool {
	for _, c := range cs.Children() {
		if c.Kind == schema.KindChoice {
			for _, nested := range c.Children() {
				if casePresent(nested, obj) {
					return true
				}
			}
			continue
		}
		if obj.Contains(c.Name) {
			return true
		}
	}
	return false
}

func (v *validator) bounds(h *instance.Handle, sn *schema.Node, n int) {
	if sn.MinElements > 0 && uint64(n) < sn.MinElements {
		v.schema(h.Path(), yangErrors.TagTooFewElements,
			fmt.Sprintf("%d entries, minimum %d", n, sn.MinElements))
	}
	if sn.MaxElements > 0 && uint64(n) > sn.MaxElements {
		v.schema(h.Path(), yangErrors.TagTooManyElements,
			fmt.Sprintf("%d entries, maximum %d", n, sn.MaxElements))
	}
}

func (v *validator) leafListEntries(h *instance.Handle, sn *schema.Node, arr *instance.Array) {
	var seen []any
	for i := 0; i < arr.Len() && !v.stopped(); i++ {
		eh, err := h.Entry(i)
		if err != nil {
			return
		}
		v.conds(eh, sn)
		v.leafValue(eh, sn, eh.Value())
		if !sn.Config {
			continue
		}
		// Config leaf-list values must be unique.
		for _, prev := range seen {
			if instance.Equal(prev, eh.Value()) {
				v.semantic(eh.Path(), yangErrors.TagDataNotUnique, "duplicate leaf-list value")
				break
			}
		}
		seen = append(seen, eh.Value())
	}
}

func (v *validator) listKeys(h *instance.Handle, sn *schema.Node, arr *instance.Array) {
	if len(sn.Keys) == 0 {
		return
	}
	var tuples [][]any
	for i := 0; i < arr.Len() && !v.stopped(); i++ {
		eh, err := h.Entry(i)
		if err != nil {
			return
		}
		obj, ok := eh.Value().(*instance.Object)
		if !ok {
			tuples = append(tuples, nil)
			continue
		}
		tuple := make([]any, 0, len(sn.Keys))
		complete := true
		for _, key := range sn.Keys {
			kv, present := obj.At(key)
			if !present {
				v.schema(eh.Path(), yangErrors.TagMissingKey,
					fmt.Sprintf("key %q is missing", key.String()))
				complete = false
				continue
			}
			tuple = append(tuple, kv)
		}
		if !complete {
			tuples = append(tuples, nil)
			continue
		}
		for j, prev := range tuples {
			if prev != nil && tupleEqual(prev, tuple) {
				v.semantic(eh.Path(), yangErrors.TagDuplicateKey,
					fmt.Sprintf("key tuple repeats entry %d", j+1))
				break
			}
		}
		tuples = append(tuples, tuple)
	}
}

// listUnique checks each unique group of the list. Entries missing any
// leaf of a group do not participate in that group's comparison.
func (v *validator) listUnique(h *instance.Handle, sn *schema.Node, arr *instance.Array) {
	for _, group := range sn.Unique {
		if v.stopped() {
			return
		}
		var tuples [][]any
		for i := 0; i < arr.Len(); i++ {
			eh, err := h.Entry(i)
			if err != nil {
				return
			}
			tuple := make([]any, 0, len(group))
			for _, route := range group {
				val, found := routeValue(eh, route)
				if !found {
					tuple = nil
					break
				}
				tuple = append(tuple, val)
			}
			if tuple == nil {
				tuples = append(tuples, nil)
				continue
			}
			for j, prev := range tuples {
				if prev != nil && tupleEqual(prev, tuple) {
					v.semantic(eh.Path(), yangErrors.TagDataNotUnique,
						fmt.Sprintf("unique tuple repeats entry %d", j+1))
					break
				}
			}
			tuples = append(tuples, tuple)
		}
	}
}

func routeValue(h *instance.Handle, route schema.Route) (any, bool) {
	cur := h
	for _, step := range route {
		next, err := cur.Member(step)
		if err != nil {
			return nil, false
		}
		cur = next
	}
	return cur.Value(), true
}

func tupleEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !instance.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// conds evaluates the when and must expressions attached to sn with h
// as the context node. A must carrying an error-app-tag reports under
// that tag.
func (v *validator) conds(h *instance.Handle, sn *schema.Node) {
	for _, when := range sn.Whens {
		if v.stopped() {
			return
		}
		val, err := when.Evaluate(v.env, h)
		if err != nil {
			v.semantic(h.Path(), yangErrors.TagWhenDisabled,
				fmt.Sprintf("when %q: %v", when.String(), err))
			continue
		}
		if !val.Boolean() {
			v.semantic(h.Path(), yangErrors.TagWhenDisabled,
				fmt.Sprintf("when %q is false", when.String()))
		}
	}
	for _, m := range sn.Musts {
		if v.stopped() {
			return
		}
		val, err := m.Expr.Evaluate(v.env, h)
		if err != nil {
			v.semantic(h.Path(), yangErrors.TagMustViolation,
				fmt.Sprintf("must %q: %v", m.Expr.String(), err))
			continue
		}
		if val.Boolean() {
			continue
		}
		tag := yangErrors.TagMustViolation
		if m.AppTag != "" {
			tag = m.AppTag
		}
		message := m.Message
		if message == "" {
			message = fmt.Sprintf("must %q is false", m.Expr.String())
		}
		v.semantic(h.Path(), tag, message)
	}
}

// leafValue checks a scalar against the restriction chain and the
// referential rules of its type.
func (v *validator) leafValue(h *instance.Handle, sn *schema.Node, val any) {
	if sn.Type == nil {
		return
	}
	if !sn.Type.Contains(val) {
		v.semantic(h.Path(), yangErrors.TagInvalidValue,
			fmt.Sprintf("value %v is not in type %s", val, sn.Type.Name()))
		return
	}
	switch t := sn.Type.(type) {
	case *types.LeafrefType:
		v.leafrefTarget(h, t, val)
	case *types.InstanceIDType:
		v.instanceIDTarget(h, t, val)
	}
}

// leafrefTarget checks referential integrity of a leafref value by
// evaluating the target path relative to the leaf and looking for a
// node with the same canonical form.
func (v *validator) leafrefTarget(h *instance.Handle, t *types.LeafrefType, val any) {
	if !t.RequireInstance() {
		return
	}
	want, err := t.CanonicalString(val)
	if err != nil {
		return
	}
	res, err := t.Expr().Evaluate(v.env, h)
	if err != nil {
		v.semantic(h.Path(), yangErrors.TagInstanceRequired,
			fmt.Sprintf("leafref path %q: %v", t.Path(), err))
		return
	}
	ns, ok := res.(xpath.NodeSet)
	if ok {
		for _, n := range ns {
			if n.StringValue() == want {
				return
			}
		}
	}
	v.semantic(h.Path(), yangErrors.TagInstanceRequired,
		fmt.Sprintf("no instance at %q has value %q", t.Path(), want))
}

// instanceIDTarget checks that an instance-identifier value is well
// formed and, when required, that it addresses an existing node.
func (v *validator) instanceIDTarget(h *instance.Handle, t *types.InstanceIDType, val any) {
	text, ok := val.(string)
	if !ok {
		return
	}
	iid, err := instance.ParseInstanceID(text)
	if err != nil {
		v.semantic(h.Path(), yangErrors.TagInvalidValue,
			fmt.Sprintf("malformed instance-identifier %q", text))
		return
	}
	if !t.RequireInstance() {
		return
	}
	if _, err := v.root.AtInstanceID(iid); err != nil {
		v.semantic(h.Path(), yangErrors.TagInstanceRequired,
			fmt.Sprintf("instance %q does not exist", text))
	}
}
