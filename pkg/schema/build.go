package schema

import (
	"strconv"
	"strings"

	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/types"
	"mercator-hq/ganymede/pkg/xpath"
	"mercator-hq/ganymede/pkg/yang"
	"mercator-hq/ganymede/pkg/yang/ast"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// schemaKeywords are the statements that produce schema nodes.
var schemaKeywords = map[string]bool{
	"container": true, "leaf": true, "leaf-list": true, "list": true,
	"choice": true, "anydata": true, "anyxml": true, "uses": true,
	"rpc": true, "action": true, "notification": true,
}

// shorthandKeywords are the statements a choice accepts directly,
// wrapped in an implicit case of the same name.
var shorthandKeywords = map[string]bool{
	"container": true, "leaf": true, "leaf-list": true, "list": true,
	"choice": true, "anydata": true, "anyxml": true,
}

// buildCtx carries the statement-text context down a build walk: the
// typedef scope with its (sub)module, the module name new nodes belong
// to, and whether config statements are void because the walk is inside
// an rpc or notification.
type buildCtx struct {
	scope    types.Scope
	nsModule string
	noConfig bool
	usesSeen map[*ast.Statement]bool
}

// Builder compiles module statement trees into a schema Tree.
type Builder struct {
	ctx      *registry.Context
	resolver *types.Resolver

	augments        []augmentWork
	lists           []*listFix
	leafrefs        []*leafrefFix
	pendingDefaults []pendingDefault
}

type augmentWork struct {
	stmt *ast.Statement
	src  *registry.Module
	// main is the augmenting main module; added nodes carry its name.
	main string
}

// listFix defers key and unique resolution until augments have been
// applied, since both may name augmented children.
type listFix struct {
	node    *Node
	keys    []yang.QName
	uniques [][]Route
}

// leafrefFix defers leafref target resolution until the whole tree
// exists, since paths may point forward or across modules.
type leafrefFix struct {
	node *Node
	lref *types.LeafrefType
}

// pendingDefault is a declared default whose type contains a leafref,
// parseable only once the target type is known.
type pendingDefault struct {
	node  *Node
	texts []string
}

// Build compiles every implemented module of the context into a schema
// tree. The build is all or nothing: on error no tree is returned.
func Build(ctx *registry.Context) (*Tree, error) {
	b := &Builder{ctx: ctx, resolver: types.NewResolver(ctx)}
	root := &Node{Kind: KindSchema, Config: true}

	for _, mod := range ctx.ImplementedModules() {
		sources := append([]*registry.Module{mod}, mod.Submodules...)
		for _, src := range sources {
			bc := buildCtx{
				scope:    types.Scope{Stmts: []*ast.Statement{src.Statement}, MID: src.ID},
				nsModule: mod.ID.Name,
				usesSeen: make(map[*ast.Statement]bool),
			}
			for _, stmt := range src.Statement.Substatements {
				if !schemaKeywords[stmt.Keyword] {
					continue
				}
				if err := b.buildChild(root, stmt, bc); err != nil {
					return nil, err
				}
			}
			for _, aug := range src.Statement.FindAll("augment") {
				b.augments = append(b.augments, augmentWork{stmt: aug, src: src, main: mod.ID.Name})
			}
		}
	}

	if err := b.applyAugments(root); err != nil {
		return nil, err
	}
	if err := b.finishLists(); err != nil {
		return nil, err
	}
	if err := b.finishLeafrefs(root); err != nil {
		return nil, err
	}
	return &Tree{ctx: ctx, root: root}, nil
}

func (b *Builder) buildChild(parent *Node, stmt *ast.Statement, bc buildCtx) error {
	enabled, err := b.ctx.IfFeatures(stmt, bc.scope.MID)
	if err != nil {
		return err
	}
	if !enabled {
		if stmt.Keyword != "uses" {
			parent.prune(yang.NewQName(bc.nsModule, stmt.Argument))
		}
		return nil
	}

	switch stmt.Keyword {
	case "container":
		return b.buildContainer(parent, stmt, bc)
	case "leaf":
		return b.buildLeaf(parent, stmt, bc, false)
	case "leaf-list":
		return b.buildLeaf(parent, stmt, bc, true)
	case "list":
		return b.buildList(parent, stmt, bc)
	case "choice":
		return b.buildChoice(parent, stmt, bc)
	case "anydata":
		return b.buildAny(parent, stmt, bc, KindAnydata)
	case "anyxml":
		return b.buildAny(parent, stmt, bc, KindAnyxml)
	case "uses":
		return b.expandUses(parent, stmt, bc)
	case "rpc", "action":
		return b.buildRPC(parent, stmt, bc)
	case "notification":
		return b.buildNotification(parent, stmt, bc)
	}
	return nil
}

// newNode creates a node with the attributes shared by every kind and
// links it under parent.
func (b *Builder) newNode(parent *Node, kind Kind, stmt *ast.Statement, bc buildCtx) (*Node, error) {
	n := &Node{
		Name:   yang.NewQName(bc.nsModule, stmt.Argument),
		Kind:   kind,
		Parent: parent,
	}
	cfg, err := b.effectiveConfig(parent, stmt, bc)
	if err != nil {
		return nil, err
	}
	n.Config = cfg
	if d, ok := stmt.ArgumentOf("description"); ok {
		n.Description = d
	}
	if err := b.attachConditions(n, stmt, bc); err != nil {
		return nil, err
	}
	if err := parent.addChild(n); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *Builder) effectiveConfig(parent *Node, stmt *ast.Statement, bc buildCtx) (bool, error) {
	declared, hasDecl, err := boolArg(stmt, "config")
	if err != nil {
		return false, err
	}
	if bc.noConfig {
		return false, nil
	}
	if !parent.Config {
		if hasDecl && declared {
			return false, &yangErrors.WrongArgument{
				Keyword:  "config",
				Argument: "true",
				Reason:   "under the config false node " + parent.SchemaPath(),
			}
		}
		return false, nil
	}
	if hasDecl {
		return declared, nil
	}
	return true, nil
}

func (b *Builder) attachConditions(n *Node, stmt *ast.Statement, bc buildCtx) error {
	resolve := b.ctx.ModuleNameResolver(bc.scope.MID)
	if w := stmt.Find("when"); w != nil {
		expr, err := xpath.Parse(w.Argument, resolve)
		if err != nil {
			return err
		}
		n.Whens = append(n.Whens, expr)
	}
	for _, m := range stmt.FindAll("must") {
		expr, err := xpath.Parse(m.Argument, resolve)
		if err != nil {
			return err
		}
		must := &Must{Expr: expr}
		must.Message, _ = m.ArgumentOf("error-message")
		must.AppTag, _ = m.ArgumentOf("error-app-tag")
		n.Musts = append(n.Musts, must)
	}
	return nil
}

// buildChildren builds the schema substatements of a block statement,
// with the block entered into the typedef scope.
func (b *Builder) buildChildren(n *Node, stmt *ast.Statement, bc buildCtx) error {
	bc.scope = bc.scope.Enter(stmt)
	for _, sub := range stmt.Substatements {
		if !schemaKeywords[sub.Keyword] {
			continue
		}
		if err := b.buildChild(n, sub, bc); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildContainer(parent *Node, stmt *ast.Statement, bc buildCtx) error {
	n, err := b.newNode(parent, KindContainer, stmt, bc)
	if err != nil {
		return err
	}
	n.Presence = stmt.Find("presence") != nil
	if err := b.buildChildren(n, stmt, bc); err != nil {
		return err
	}
	// A presence container is never mandatory; a non-presence one is
	// mandatory exactly when a child is.
	n.Mandatory = !n.Presence && anyMandatory(n)
	return nil
}

func anyMandatory(n *Node) bool {
	for _, c := range n.children {
		if c.Mandatory {
			return true
		}
	}
	return false
}

func (b *Builder) buildLeaf(parent *Node, stmt *ast.Statement, bc buildCtx, leafList bool) error {
	kind := KindLeaf
	if leafList {
		kind = KindLeafList
	}
	n, err := b.newNode(parent, kind, stmt, bc)
	if err != nil {
		return err
	}

	typeStmt := stmt.Find("type")
	if typeStmt == nil {
		return &yangErrors.StatementNotFound{Keyword: "type", In: stmt.Keyword + " " + stmt.Argument}
	}
	t, err := b.resolver.Resolve(typeStmt, bc.scope)
	if err != nil {
		return err
	}
	n.Type = t
	if u, ok := stmt.ArgumentOf("units"); ok {
		n.Units = u
	} else {
		n.Units = t.Units()
	}
	b.registerLeafrefs(n, t)

	if leafList {
		if err := b.elementBounds(n, stmt); err != nil {
			return err
		}
		n.UserOrdered = userOrdered(stmt)
		n.Mandatory = n.MinElements > 0
		return b.leafListDefaults(n, stmt.FindAll("default"))
	}

	declared, _, err := boolArg(stmt, "mandatory")
	if err != nil {
		return err
	}
	if err := b.leafDefault(n, stmt); err != nil {
		return err
	}
	n.Mandatory = declared && n.Default == nil
	return nil
}

// leafDefault computes a leaf's effective default: its own default
// statement, else the type's.
func (b *Builder) leafDefault(n *Node, stmt *ast.Statement) error {
	if text, ok := stmt.ArgumentOf("default"); ok {
		if typeHasLeafref(n.Type) {
			b.pendingDefaults = append(b.pendingDefaults, pendingDefault{node: n, texts: []string{text}})
			return nil
		}
		v, err := n.Type.ParseValue(text)
		if err != nil {
			return err
		}
		n.Default = v
		return nil
	}
	if v, ok := n.Type.Default(); ok {
		n.Default = v
	}
	return nil
}

func (b *Builder) leafListDefaults(n *Node, stmts []*ast.Statement) error {
	if len(stmts) > 0 {
		if typeHasLeafref(n.Type) {
			texts := make([]string, 0, len(stmts))
			for _, d := range stmts {
				texts = append(texts, d.Argument)
			}
			b.pendingDefaults = append(b.pendingDefaults, pendingDefault{node: n, texts: texts})
			return nil
		}
		vals := make([]any, 0, len(stmts))
		for _, d := range stmts {
			v, err := n.Type.ParseValue(d.Argument)
			if err != nil {
				return err
			}
			vals = append(vals, v)
		}
		n.Default = vals
		return nil
	}
	if v, ok := n.Type.Default(); ok {
		n.Default = []any{v}
	}
	return nil
}

func (b *Builder) buildList(parent *Node, stmt *ast.Statement, bc buildCtx) error {
	n, err := b.newNode(parent, KindList, stmt, bc)
	if err != nil {
		return err
	}
	if err := b.elementBounds(n, stmt); err != nil {
		return err
	}
	n.UserOrdered = userOrdered(stmt)
	if err := b.buildChildren(n, stmt, bc); err != nil {
		return err
	}
	n.Mandatory = n.MinElements > 0

	fix := &listFix{node: n}
	if keyArg, ok := stmt.ArgumentOf("key"); ok {
		for _, name := range strings.Fields(keyArg) {
			qn, err := b.nodeID(name, bc)
			if err != nil {
				return err
			}
			fix.keys = append(fix.keys, qn)
		}
	}
	for _, u := range stmt.FindAll("unique") {
		var group []Route
		for _, path := range strings.Fields(u.Argument) {
			route, err := b.parseRoute(path, bc)
			if err != nil {
				return err
			}
			group = append(group, route)
		}
		fix.uniques = append(fix.uniques, group)
	}
	b.lists = append(b.lists, fix)
	return nil
}

func (b *Builder) buildChoice(parent *Node, stmt *ast.Statement, bc buildCtx) error {
	n, err := b.newNode(parent, KindChoice, stmt, bc)
	if err != nil {
		return err
	}
	declared, _, err := boolArg(stmt, "mandatory")
	if err != nil {
		return err
	}
	n.Mandatory = declared

	cbc := bc
	cbc.scope = bc.scope.Enter(stmt)
	for _, sub := range stmt.Substatements {
		switch {
		case sub.Keyword == "case":
			err = b.buildCase(n, sub, cbc)
		case shorthandKeywords[sub.Keyword]:
			err = b.buildShorthandCase(n, sub, cbc)
		default:
			continue
		}
		if err != nil {
			return err
		}
	}

	if dc, ok := stmt.ArgumentOf("default"); ok {
		qn, err := b.nodeID(dc, bc)
		if err != nil {
			return err
		}
		switch {
		case n.Child(qn) != nil:
			n.DefaultCase = qn
		case !n.pruned[qn]:
			return &yangErrors.NonexistentSchemaNode{Name: qn, Under: n.SchemaPath(), Detail: "default case"}
		}
	}
	return nil
}

func (b *Builder) buildCase(choice *Node, stmt *ast.Statement, bc buildCtx) error {
	enabled, err := b.ctx.IfFeatures(stmt, bc.scope.MID)
	if err != nil {
		return err
	}
	if !enabled {
		choice.prune(yang.NewQName(bc.nsModule, stmt.Argument))
		return nil
	}
	n, err := b.newNode(choice, KindCase, stmt, bc)
	if err != nil {
		return err
	}
	return b.buildChildren(n, stmt, bc)
}

// buildShorthandCase wraps a bare data node under a choice into an
// implicit case of the same name.
func (b *Builder) buildShorthandCase(choice *Node, stmt *ast.Statement, bc buildCtx) error {
	enabled, err := b.ctx.IfFeatures(stmt, bc.scope.MID)
	if err != nil {
		return err
	}
	qn := yang.NewQName(bc.nsModule, stmt.Argument)
	if !enabled {
		choice.prune(qn)
		return nil
	}
	cs := &Node{Name: qn, Kind: KindCase, Parent: choice, Config: choice.Config}
	if err := choice.addChild(cs); err != nil {
		return err
	}
	return b.buildChild(cs, stmt, bc)
}

func (b *Builder) buildAny(parent *Node, stmt *ast.Statement, bc buildCtx, kind Kind) error {
	n, err := b.newNode(parent, kind, stmt, bc)
	if err != nil {
		return err
	}
	declared, _, err := boolArg(stmt, "mandatory")
	if err != nil {
		return err
	}
	n.Mandatory = declared
	return nil
}

// buildRPC builds an rpc or action node. The input and output children
// always exist, even when the statement declares neither.
func (b *Builder) buildRPC(parent *Node, stmt *ast.Statement, bc buildCtx) error {
	n, err := b.newNode(parent, KindRPC, stmt, bc)
	if err != nil {
		return err
	}
	n.Config = false

	rbc := bc
	rbc.noConfig = true
	rbc.scope = bc.scope.Enter(stmt)

	for _, side := range []struct {
		name string
		kind Kind
	}{{"input", KindInput}, {"output", KindOutput}} {
		c := &Node{Name: yang.NewQName(bc.nsModule, side.name), Kind: side.kind, Parent: n}
		if err := n.addChild(c); err != nil {
			return err
		}
		body := stmt.Find(side.name)
		if body == nil {
			continue
		}
		if err := b.attachConditions(c, body, rbc); err != nil {
			return err
		}
		if err := b.buildChildren(c, body, rbc); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildNotification(parent *Node, stmt *ast.Statement, bc buildCtx) error {
	n, err := b.newNode(parent, KindNotification, stmt, bc)
	if err != nil {
		return err
	}
	n.Config = false
	nbc := bc
	nbc.noConfig = true
	return b.buildChildren(n, stmt, nbc)
}

// expandUses inlines a grouping at its point of use. The grouping body
// is interpreted in its defining module, while the created nodes belong
// to the using module.
func (b *Builder) expandUses(parent *Node, stmt *ast.Statement, bc buildCtx) error {
	g, defScope, err := b.findGrouping(stmt.Argument, bc.scope)
	if err != nil {
		return err
	}
	if bc.usesSeen[g] {
		return &yangErrors.WrongArgument{
			Keyword:  "uses",
			Argument: stmt.Argument,
			Reason:   "circular grouping reference",
		}
	}
	bc.usesSeen[g] = true
	defer delete(bc.usesSeen, g)

	var usesWhen *xpath.Expr
	if w := stmt.Find("when"); w != nil {
		usesWhen, err = xpath.Parse(w.Argument, b.ctx.ModuleNameResolver(bc.scope.MID))
		if err != nil {
			return err
		}
	}

	gbc := buildCtx{
		scope:    defScope.Enter(g),
		nsModule: bc.nsModule,
		noConfig: bc.noConfig,
		usesSeen: bc.usesSeen,
	}
	start := len(parent.children)
	for _, sub := range g.Substatements {
		if !schemaKeywords[sub.Keyword] {
			continue
		}
		if err := b.buildChild(parent, sub, gbc); err != nil {
			return err
		}
	}
	if usesWhen != nil {
		for _, c := range parent.children[start:] {
			c.Whens = append(c.Whens, usesWhen)
		}
	}

	for _, ref := range stmt.FindAll("refine") {
		if err := b.applyRefine(parent, ref, bc); err != nil {
			return err
		}
	}
	return nil
}

// findGrouping locates the grouping a uses statement names, together
// with the scope its body is interpreted in.
func (b *Builder) findGrouping(name string, scope types.Scope) (*ast.Statement, types.Scope, error) {
	prefix, local, ok := yang.SplitPName(name)
	if !ok {
		return nil, types.Scope{}, &yangErrors.BadPrefName{Name: name}
	}
	own, err := b.ctx.ResolvePrefix("", scope.MID)
	if err != nil {
		return nil, types.Scope{}, err
	}
	if prefix != "" {
		target, err := b.ctx.ResolvePrefix(prefix, scope.MID)
		if err != nil {
			return nil, types.Scope{}, err
		}
		if target.Name != own.Name {
			return b.topLevelGrouping(yang.NewQName(target.Name, local))
		}
	}
	for i, enclosing := range scope.Stmts {
		if g := enclosing.FindWithArgument("grouping", local); g != nil {
			return g, types.Scope{Stmts: scope.Stmts[i:], MID: scope.MID}, nil
		}
	}
	return b.topLevelGrouping(yang.NewQName(own.Name, local))
}

func (b *Builder) topLevelGrouping(qn yang.QName) (*ast.Statement, types.Scope, error) {
	g, mid, err := b.ctx.Definition("grouping", qn)
	if err != nil {
		return nil, types.Scope{}, err
	}
	mod, err := b.ctx.Module(mid)
	if err != nil {
		return nil, types.Scope{}, err
	}
	return g, types.Scope{Stmts: []*ast.Statement{mod.Statement}, MID: mid}, nil
}

func (b *Builder) applyRefine(parent *Node, ref *ast.Statement, bc buildCtx) error {
	route, err := b.parseRoute(ref.Argument, bc)
	if err != nil {
		return err
	}
	n := parent
	for _, qn := range route {
		n = n.Child(qn)
		if n == nil {
			return &yangErrors.NonexistentSchemaNode{Name: qn, Under: parent.SchemaPath(), Detail: "refine target"}
		}
	}

	if defaults := ref.FindAll("default"); len(defaults) > 0 {
		switch n.Kind {
		case KindLeafList:
			if err := b.leafListDefaults(n, defaults); err != nil {
				return err
			}
		case KindLeaf:
			if err := b.leafDefault(n, ref); err != nil {
				return err
			}
			if n.Default != nil {
				n.Mandatory = false
			}
		case KindChoice:
			qn, err := b.nodeID(defaults[0].Argument, bc)
			if err != nil {
				return err
			}
			n.DefaultCase = qn
		}
	}
	if declared, hasDecl, err := boolArg(ref, "mandatory"); err != nil {
		return err
	} else if hasDecl {
		n.Mandatory = declared && (n.Kind != KindLeaf || n.Default == nil)
	}
	if ref.Find("presence") != nil {
		n.Presence = true
		n.Mandatory = false
	}
	if declared, hasDecl, err := boolArg(ref, "config"); err != nil {
		return err
	} else if hasDecl {
		setConfig(n, declared)
	}
	if err := b.elementBounds(n, ref); err != nil {
		return err
	}
	if n.Kind == KindList || n.Kind == KindLeafList {
		n.Mandatory = n.MinElements > 0
	}
	if d, ok := ref.ArgumentOf("description"); ok {
		n.Description = d
	}
	if u, ok := ref.ArgumentOf("units"); ok {
		n.Units = u
	}
	resolve := b.ctx.ModuleNameResolver(bc.scope.MID)
	for _, m := range ref.FindAll("must") {
		expr, err := xpath.Parse(m.Argument, resolve)
		if err != nil {
			return err
		}
		must := &Must{Expr: expr}
		must.Message, _ = m.ArgumentOf("error-message")
		must.AppTag, _ = m.ArgumentOf("error-app-tag")
		n.Musts = append(n.Musts, must)
	}
	return nil
}

func setConfig(n *Node, cfg bool) {
	n.Config = cfg
	for _, c := range n.children {
		setConfig(c, cfg)
	}
}

// applyAugments applies collected augments, retrying the ones whose
// target is produced by another augment until no progress remains.
func (b *Builder) applyAugments(root *Node) error {
	pending := b.augments
	for len(pending) > 0 {
		var next []augmentWork
		progress := false
		for _, aw := range pending {
			target, skip, err := b.augmentTarget(root, aw)
			if err != nil {
				return err
			}
			if skip {
				progress = true
				continue
			}
			if target == nil {
				next = append(next, aw)
				continue
			}
			if err := b.applyAugment(target, aw); err != nil {
				return err
			}
			progress = true
		}
		if !progress {
			aw := next[0]
			return &yangErrors.InvalidSchemaPath{Path: aw.stmt.Argument}
		}
		pending = next
	}
	return nil
}

// augmentTarget resolves an augment's absolute target path. A nil node
// without skip means the target may appear once other augments run; a
// feature-pruned step means the augment is dropped.
func (b *Builder) augmentTarget(root *Node, aw augmentWork) (*Node, bool, error) {
	arg := aw.stmt.Argument
	if arg == "" || arg[0] != '/' {
		return nil, false, &yangErrors.InvalidSchemaPath{Path: arg}
	}
	cur := root
	for _, seg := range strings.Split(arg[1:], "/") {
		prefix, local, ok := yang.SplitPName(seg)
		if !ok {
			return nil, false, &yangErrors.BadPrefName{Name: seg}
		}
		module := aw.main
		if prefix != "" {
			target, err := b.ctx.ResolvePrefix(prefix, aw.src.ID)
			if err != nil {
				return nil, false, err
			}
			module = target.Name
		}
		qn := yang.NewQName(module, local)
		if cur.pruned[qn] {
			return nil, true, nil
		}
		c := cur.Child(qn)
		if c == nil {
			return nil, false, nil
		}
		cur = c
	}
	return cur, false, nil
}

func (b *Builder) applyAugment(target *Node, aw augmentWork) error {
	bc := buildCtx{
		scope:    types.Scope{Stmts: []*ast.Statement{aw.src.Statement}, MID: aw.src.ID},
		nsModule: aw.main,
		noConfig: inRPCRegion(target),
		usesSeen: make(map[*ast.Statement]bool),
	}

	enabled, err := b.ctx.IfFeatures(aw.stmt, aw.src.ID)
	if err != nil {
		return err
	}
	if !enabled {
		for _, sub := range aw.stmt.Substatements {
			if schemaKeywords[sub.Keyword] || sub.Keyword == "case" {
				target.prune(yang.NewQName(aw.main, sub.Argument))
			}
		}
		return nil
	}

	var augWhen *xpath.Expr
	if w := aw.stmt.Find("when"); w != nil {
		augWhen, err = xpath.Parse(w.Argument, b.ctx.ModuleNameResolver(aw.src.ID))
		if err != nil {
			return err
		}
	}

	start := len(target.children)
	for _, sub := range aw.stmt.Substatements {
		switch {
		case target.Kind == KindChoice && sub.Keyword == "case":
			err = b.buildCase(target, sub, bc)
		case target.Kind == KindChoice && shorthandKeywords[sub.Keyword]:
			err = b.buildShorthandCase(target, sub, bc)
		case schemaKeywords[sub.Keyword]:
			err = b.buildChild(target, sub, bc)
		default:
			continue
		}
		if err != nil {
			return err
		}
	}
	if augWhen != nil {
		for _, c := range target.children[start:] {
			c.Whens = append(c.Whens, augWhen)
		}
	}

	// A mandatory node added into a container chain changes the
	// containers' own mandatory state.
	for p := target; p != nil && p.Kind == KindContainer; p = p.Parent {
		p.Mandatory = !p.Presence && anyMandatory(p)
	}
	return nil
}

func inRPCRegion(n *Node) bool {
	for p := n; p != nil; p = p.Parent {
		switch p.Kind {
		case KindRPC, KindInput, KindOutput, KindNotification:
			return true
		}
	}
	return false
}

// finishLists resolves key and unique references once the full tree
// exists.
func (b *Builder) finishLists() error {
	for _, fix := range b.lists {
		n := fix.node
		for _, k := range fix.keys {
			kn, err := n.GetSchemaDescendant(Route{k})
			if err != nil {
				return err
			}
			if kn.Kind != KindLeaf {
				return &yangErrors.BadSchemaNodeType{Path: kn.DataPath(), Expected: "leaf"}
			}
			n.Keys = append(n.Keys, k)
		}
		for _, group := range fix.uniques {
			for _, route := range group {
				target, err := n.GetSchemaDescendant(route)
				if err != nil {
					return err
				}
				if target.Kind != KindLeaf {
					return &yangErrors.BadSchemaNodeType{Path: target.DataPath(), Expected: "leaf"}
				}
			}
			n.Unique = append(n.Unique, group)
		}
	}
	return nil
}

// finishLeafrefs resolves every deferred leafref target, rejects
// circular chains, and parses defaults that had to wait for a target
// type.
func (b *Builder) finishLeafrefs(root *Node) error {
	for _, fix := range b.leafrefs {
		target, err := b.leafrefTarget(root, fix)
		if err != nil {
			return err
		}
		fix.lref.SetTarget(target.Type)
	}
	for _, fix := range b.leafrefs {
		seen := make(map[*types.LeafrefType]bool)
		for t := fix.lref; t != nil; {
			if seen[t] {
				return &yangErrors.InvalidLeafrefPath{Node: fix.node.DataPath(), Path: fix.lref.Path()}
			}
			seen[t] = true
			next, isRef := t.Target().(*types.LeafrefType)
			if !isRef {
				break
			}
			t = next
		}
	}
	for _, pd := range b.pendingDefaults {
		if pd.node.Kind == KindLeafList {
			vals := make([]any, 0, len(pd.texts))
			for _, text := range pd.texts {
				v, err := pd.node.Type.ParseValue(text)
				if err != nil {
					return err
				}
				vals = append(vals, v)
			}
			pd.node.Default = vals
			continue
		}
		v, err := pd.node.Type.ParseValue(pd.texts[0])
		if err != nil {
			return err
		}
		pd.node.Default = v
		pd.node.Mandatory = false
	}
	return nil
}

func (b *Builder) leafrefTarget(root *Node, fix *leafrefFix) (*Node, error) {
	invalid := func() error {
		return &yangErrors.InvalidLeafrefPath{Node: fix.node.DataPath(), Path: fix.lref.Path()}
	}
	steps, absolute, ok := fix.lref.Expr().LocationSteps()
	if !ok {
		return nil, invalid()
	}
	cur := fix.node
	if absolute {
		cur = root
	}
	for _, st := range steps {
		if st.Up {
			cur = cur.DataParent()
			if cur == nil {
				return nil, invalid()
			}
			continue
		}
		d, h := cur.classify(st.Name)
		if h != hitData {
			return nil, invalid()
		}
		cur = d
	}
	if cur.Kind != KindLeaf && cur.Kind != KindLeafList {
		return nil, invalid()
	}
	return cur, nil
}

func (b *Builder) registerLeafrefs(n *Node, t types.Type) {
	switch tt := t.(type) {
	case *types.LeafrefType:
		b.leafrefs = append(b.leafrefs, &leafrefFix{node: n, lref: tt})
	case *types.UnionType:
		for _, m := range tt.Members() {
			b.registerLeafrefs(n, m)
		}
	}
}

func typeHasLeafref(t types.Type) bool {
	switch tt := t.(type) {
	case *types.LeafrefType:
		return true
	case *types.UnionType:
		for _, m := range tt.Members() {
			if typeHasLeafref(m) {
				return true
			}
		}
	}
	return false
}

// nodeID resolves one node identifier: an unprefixed name belongs to
// the namespace module, a prefixed one resolves through the text's
// prefix map.
func (b *Builder) nodeID(name string, bc buildCtx) (yang.QName, error) {
	prefix, local, ok := yang.SplitPName(name)
	if !ok {
		return yang.QName{}, &yangErrors.BadPrefName{Name: name}
	}
	if prefix == "" {
		return yang.NewQName(bc.nsModule, local), nil
	}
	target, err := b.ctx.ResolvePrefix(prefix, bc.scope.MID)
	if err != nil {
		return yang.QName{}, err
	}
	return yang.NewQName(target.Name, local), nil
}

// parseRoute splits a relative descendant path into qualified steps.
func (b *Builder) parseRoute(path string, bc buildCtx) (Route, error) {
	var route Route
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			return nil, &yangErrors.InvalidSchemaPath{Path: path}
		}
		qn, err := b.nodeID(seg, bc)
		if err != nil {
			return nil, err
		}
		route = append(route, qn)
	}
	return route, nil
}

func (b *Builder) elementBounds(n *Node, stmt *ast.Statement) error {
	if text, ok := stmt.ArgumentOf("min-elements"); ok {
		v, err := strconv.ParseUint(text, 10, 64)
		if err != nil {
			return &yangErrors.WrongArgument{Keyword: "min-elements", Argument: text, Reason: "not a non-negative integer"}
		}
		n.MinElements = v
	}
	if text, ok := stmt.ArgumentOf("max-elements"); ok && text != "unbounded" {
		v, err := strconv.ParseUint(text, 10, 64)
		if err != nil || v == 0 {
			return &yangErrors.WrongArgument{Keyword: "max-elements", Argument: text, Reason: "not a positive integer"}
		}
		n.MaxElements = v
	}
	return nil
}

func userOrdered(stmt *ast.Statement) bool {
	o, _ := stmt.ArgumentOf("ordered-by")
	return o == "user"
}

func boolArg(stmt *ast.Statement, keyword string) (value, declared bool, err error) {
	text, ok := stmt.ArgumentOf(keyword)
	if !ok {
		return false, false, nil
	}
	switch text {
	case "true":
		return true, true, nil
	case "false":
		return false, true, nil
	}
	return false, false, &yangErrors.WrongArgument{Keyword: keyword, Argument: text, Reason: "not a boolean"}
}
