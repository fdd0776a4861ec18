package registry

import (
	"log/slog"
	"sort"

	"mercator-hq/ganymede/pkg/yang"
	"mercator-hq/ganymede/pkg/yang/ast"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// ModuleID identifies a module or submodule, optionally pinned to a
// revision.
type ModuleID struct {
	Name     string
	Revision yang.Revision
}

// String renders "name" or "name@revision".
func (m ModuleID) String() string {
	if m.Revision == "" {
		return m.Name
	}
	return m.Name + "@" + string(m.Revision)
}

// Module is a registered module or submodule together with everything
// resolution needs: its statement tree, prefix bindings and feature
// declarations.
type Module struct {
	ID          ModuleID
	Statement   *ast.Statement
	Namespace   string
	Prefix      string
	Conformance Conformance

	// Submodule marks included submodules; BelongsTo then names the
	// owning module.
	Submodule bool
	BelongsTo string

	// Submodules lists this module's included submodules.
	Submodules []*Module

	// prefixMap binds each prefix visible in this (sub)module's text,
	// including its own, to the target module.
	prefixMap map[string]ModuleID
	// imports lists imported module names, the edges walked by cycle
	// detection.
	imports []string
}

// Loader obtains the statement tree of a module or submodule. An empty
// revision means any revision is acceptable.
type Loader interface {
	Load(name string, revision yang.Revision) (*ast.Statement, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(name string, revision yang.Revision) (*ast.Statement, error)

// Load implements Loader.
func (f LoaderFunc) Load(name string, revision yang.Revision) (*ast.Statement, error) {
	return f(name, revision)
}

// Option configures context construction.
type Option func(*Context)

// WithLogger sets the logger used during construction.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Context is the immutable registry of a data model's modules.
type Context struct {
	library *Library
	logger  *slog.Logger

	modules     map[ModuleID]*Module
	byName      map[string][]*Module // revision-sorted, newest first
	implemented map[string]*Module

	features   map[yang.QName]bool
	identities map[yang.QName][]yang.QName
}

// NewContext builds a Context from YANG library data, loading each
// listed module and submodule through loader.
func NewContext(lib *Library, loader Loader, opts ...Option) (*Context, error) {
	c := &Context{
		library:     lib,
		logger:      slog.Default().With("component", "registry"),
		modules:     make(map[ModuleID]*Module),
		byName:      make(map[string][]*Module),
		implemented: make(map[string]*Module),
		features:    make(map[yang.QName]bool),
		identities:  make(map[yang.QName][]yang.QName),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.registerModules(loader); err != nil {
		return nil, err
	}
	if err := c.bindPrefixes(); err != nil {
		return nil, err
	}
	if err := c.checkImportCycles(); err != nil {
		return nil, err
	}
	if err := c.checkFeatures(); err != nil {
		return nil, err
	}
	if err := c.indexIdentities(); err != nil {
		return nil, err
	}

	c.logger.Debug("context ready",
		"modules", len(c.modules),
		"implemented", len(c.implemented),
		"identities", len(c.identities))
	return c, nil
}

// registerModules loads every library module and submodule, verifies
// the text against the library entry, and indexes the results.
func (c *Context) registerModules(loader Loader) error {
	for _, lm := range c.library.Modules {
		stmt, err := loader.Load(lm.Name, lm.Revision)
		if err != nil {
			return err
		}
		if stmt.Keyword != "module" || stmt.Argument != lm.Name {
			return &yangErrors.BadYangLibraryData{
				Reason: "text of " + lm.Name + " is not the expected module",
			}
		}
		if err := checkRevision(stmt, lm.Name, lm.Revision); err != nil {
			return err
		}

		prefix, ok := stmt.ArgumentOf("prefix")
		if !ok {
			return &yangErrors.StatementNotFound{Keyword: "prefix", In: "module " + lm.Name}
		}

		mod := &Module{
			ID:          ModuleID{Name: lm.Name, Revision: lm.Revision},
			Statement:   stmt,
			Namespace:   lm.Namespace,
			Prefix:      prefix,
			Conformance: lm.Conformance,
		}

		if lm.Conformance == Implement {
			if prev, exists := c.implemented[lm.Name]; exists {
				if prev.ID.Revision != lm.Revision {
					return &yangErrors.MultipleImplementedRevisions{Name: lm.Name}
				}
			} else {
				c.implemented[lm.Name] = mod
			}
		}

		c.modules[mod.ID] = mod
		c.byName[lm.Name] = append(c.byName[lm.Name], mod)

		for _, feature := range lm.Features {
			c.features[yang.NewQName(lm.Name, feature)] = true
		}

		for _, ls := range lm.Submodules {
			sub, err := c.registerSubmodule(loader, mod, ls)
			if err != nil {
				return err
			}
			mod.Submodules = append(mod.Submodules, sub)
		}

		// Every include in the text must be backed by a library
		// entry, or definitions would silently go missing.
		for _, inc := range stmt.FindAll("include") {
			found := false
			for _, sub := range mod.Submodules {
				if sub.ID.Name == inc.Argument {
					found = true
					break
				}
			}
			if !found {
				return &yangErrors.ModuleNotRegistered{Name: inc.Argument}
			}
		}

		c.logger.Debug("registered module",
			"module", mod.ID.String(),
			"conformance", lm.Conformance.String(),
			"submodules", len(mod.Submodules))
	}

	for name := range c.byName {
		mods := c.byName[name]
		sort.Slice(mods, func(i, j int) bool {
			return mods[i].ID.Revision.Compare(mods[j].ID.Revision) > 0
		})
	}
	return nil
}

func (c *Context) registerSubmodule(loader Loader, parent *Module, ls LibrarySubmodule) (*Module, error) {
	stmt, err := loader.Load(ls.Name, ls.Revision)
	if err != nil {
		return nil, err
	}
	if stmt.Keyword != "submodule" || stmt.Argument != ls.Name {
		return nil, &yangErrors.BadYangLibraryData{
			Reason: "text of " + ls.Name + " is not the expected submodule",
		}
	}
	belongsTo := stmt.Find("belongs-to")
	if belongsTo == nil {
		return nil, &yangErrors.StatementNotFound{Keyword: "belongs-to", In: "submodule " + ls.Name}
	}
	if belongsTo.Argument != parent.ID.Name {
		return nil, &yangErrors.BadYangLibraryData{
			Reason: "submodule " + ls.Name + " belongs to " + belongsTo.Argument +
				", not " + parent.ID.Name,
		}
	}
	prefix, ok := belongsTo.ArgumentOf("prefix")
	if !ok {
		return nil, &yangErrors.StatementNotFound{Keyword: "prefix", In: "belongs-to " + parent.ID.Name}
	}
	if err := checkRevision(stmt, ls.Name, ls.Revision); err != nil {
		return nil, err
	}

	sub := &Module{
		ID:          ModuleID{Name: ls.Name, Revision: ls.Revision},
		Statement:   stmt,
		Namespace:   parent.Namespace,
		Prefix:      prefix,
		Conformance: parent.Conformance,
		Submodule:   true,
		BelongsTo:   parent.ID.Name,
	}
	c.modules[sub.ID] = sub
	c.byName[ls.Name] = append(c.byName[ls.Name], sub)
	return sub, nil
}

// checkRevision verifies that a revision pinned by the library appears
// in the module text.
func checkRevision(stmt *ast.Statement, name string, rev yang.Revision) error {
	if rev == "" {
		return nil
	}
	if stmt.FindWithArgument("revision", string(rev)) == nil {
		return &yangErrors.BadYangLibraryData{
			Reason: "module " + name + " lacks revision " + string(rev),
		}
	}
	return nil
}

// bindPrefixes fills each (sub)module's prefix map from its import and
// belongs-to statements.
func (c *Context) bindPrefixes() error {
	for _, mod := range c.modules {
		mod.prefixMap = make(map[string]ModuleID)

		if mod.Submodule {
			parent, err := c.lastRevision(mod.BelongsTo)
			if err != nil {
				return err
			}
			mod.prefixMap[mod.Prefix] = parent.ID
		} else {
			mod.prefixMap[mod.Prefix] = mod.ID
		}

		for _, imp := range mod.Statement.FindAll("import") {
			prefix, ok := imp.ArgumentOf("prefix")
			if !ok {
				return &yangErrors.StatementNotFound{
					Keyword: "prefix",
					In:      "import " + imp.Argument + " in " + mod.ID.Name,
				}
			}

			var target *Module
			if revDate, pinned := imp.ArgumentOf("revision-date"); pinned {
				id := ModuleID{Name: imp.Argument, Revision: yang.Revision(revDate)}
				reg, exists := c.modules[id]
				if !exists {
					return &yangErrors.ModuleNotRegistered{Name: id.Name, Revision: id.Revision}
				}
				target = reg
			} else {
				reg, err := c.lastRevision(imp.Argument)
				if err != nil {
					return err
				}
				target = reg
			}

			mod.prefixMap[prefix] = target.ID
			mod.imports = append(mod.imports, target.ID.Name)
		}
	}
	return nil
}

// checkImportCycles rejects cyclic module imports with a depth-first
// search over the import edges.
func (c *Context) checkImportCycles() error {
	const (
		unvisited = iota
		active
		done
	)
	state := make(map[string]int)
	var stack []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case active:
			cycle := append([]string{}, stack...)
			for i, n := range cycle {
				if n == name {
					cycle = cycle[i:]
					break
				}
			}
			return &yangErrors.CyclicImports{Cycle: append(cycle, name)}
		}
		state[name] = active
		stack = append(stack, name)
		for _, mod := range c.byName[name] {
			for _, dep := range mod.imports {
				if err := visit(dep); err != nil {
					return err
				}
			}
			for _, sub := range mod.Submodules {
				for _, dep := range sub.imports {
					if dep == name {
						continue
					}
					if err := visit(dep); err != nil {
						return err
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = done
		return nil
	}

	for name, mods := range c.byName {
		if mods[0].Submodule {
			continue
		}
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// checkFeatures verifies that every enabled feature is declared by its
// module and that its if-feature prerequisites hold.
func (c *Context) checkFeatures() error {
	for qn := range c.features {
		mod, exists := c.implemented[qn.Module]
		if !exists {
			// Feature metadata on import-only modules is allowed by
			// the library model and irrelevant here.
			continue
		}

		decl := findInModule(mod, "feature", qn.Name)
		if decl == nil {
			return &yangErrors.DefinitionNotFound{Kind: "feature", Name: qn.String()}
		}
		for _, ifFeature := range decl.FindAll("if-feature") {
			sat, err := c.FeatureExpr(ifFeature.Argument, mod.ID)
			if err != nil {
				return err
			}
			if !sat {
				return &yangErrors.FeaturePrerequisiteError{Feature: qn.Name, Module: qn.Module}
			}
		}
	}
	return nil
}

// indexIdentities builds the identity derivation graph from every
// registered module, with feature-gated identities pruned.
func (c *Context) indexIdentities() error {
	for _, mod := range c.modules {
		if mod.Submodule {
			continue
		}
		sources := append([]*Module{mod}, mod.Submodules...)
		for _, src := range sources {
			for _, ident := range src.Statement.FindAll("identity") {
				enabled, err := c.IfFeatures(ident, src.ID)
				if err != nil {
					return err
				}
				if !enabled {
					continue
				}

				qn := yang.NewQName(mod.ID.Name, ident.Argument)
				var bases []yang.QName
				for _, base := range ident.FindAll("base") {
					baseQN, err := c.TranslatePName(base.Argument, src.ID)
					if err != nil {
						return err
					}
					bases = append(bases, baseQN)
				}
				c.identities[qn] = bases
			}
		}
	}
	return nil
}

// IfFeatures evaluates every if-feature carried by a statement, in the
// context of the (sub)module mid.
func (c *Context) IfFeatures(stmt *ast.Statement, mid ModuleID) (bool, error) {
	for _, ifFeature := range stmt.FindAll("if-feature") {
		sat, err := c.FeatureExpr(ifFeature.Argument, mid)
		if err != nil {
			return false, err
		}
		if !sat {
			return false, nil
		}
	}
	return true, nil
}

// findInModule finds a named definition in a module's own text or in
// any of its submodules.
func findInModule(mod *Module, keyword, name string) *ast.Statement {
	if stmt := mod.Statement.FindWithArgument(keyword, name); stmt != nil {
		return stmt
	}
	for _, sub := range mod.Submodules {
		if stmt := sub.Statement.FindWithArgument(keyword, name); stmt != nil {
			return stmt
		}
	}
	return nil
}

// Definition finds a top-level definition, such as a typedef or a
// grouping, in the module named by qn.Module or one of its submodules.
// The returned ModuleID identifies the (sub)module whose text holds the
// definition, which is the context for resolving prefixes inside it.
func (c *Context) Definition(keyword string, qn yang.QName) (*ast.Statement, ModuleID, error) {
	mod, err := c.Module(ModuleID{Name: qn.Module})
	if err != nil {
		return nil, ModuleID{}, err
	}
	if stmt := mod.Statement.FindWithArgument(keyword, qn.Name); stmt != nil {
		return stmt, mod.ID, nil
	}
	for _, sub := range mod.Submodules {
		if stmt := sub.Statement.FindWithArgument(keyword, qn.Name); stmt != nil {
			return stmt, sub.ID, nil
		}
	}
	return nil, ModuleID{}, &yangErrors.DefinitionNotFound{Kind: keyword, Name: qn.String()}
}

// Library returns the library data the context was built from.
func (c *Context) Library() *Library { return c.library }

// Module returns the registered module with the exact ID.
func (c *Context) Module(id ModuleID) (*Module, error) {
	if mod, exists := c.modules[id]; exists {
		return mod, nil
	}
	if id.Revision == "" {
		return c.lastRevision(id.Name)
	}
	return nil, &yangErrors.ModuleNotRegistered{Name: id.Name, Revision: id.Revision}
}

// ImplementedModule returns the implemented revision of the named
// module.
func (c *Context) ImplementedModule(name string) (*Module, error) {
	if mod, exists := c.implemented[name]; exists {
		return mod, nil
	}
	if _, registered := c.byName[name]; registered {
		return nil, &yangErrors.ModuleNotImplemented{Name: name}
	}
	return nil, &yangErrors.ModuleNotRegistered{Name: name}
}

// ImplementedModules returns the implemented modules sorted by name.
func (c *Context) ImplementedModules() []*Module {
	out := make([]*Module, 0, len(c.implemented))
	for _, mod := range c.implemented {
		out = append(out, mod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Name < out[j].ID.Name })
	return out
}

// LastRevision returns the newest registered revision of the named
// module.
func (c *Context) LastRevision(name string) (ModuleID, error) {
	mod, err := c.lastRevision(name)
	if err != nil {
		return ModuleID{}, err
	}
	return mod.ID, nil
}

func (c *Context) lastRevision(name string) (*Module, error) {
	mods := c.byName[name]
	if len(mods) == 0 {
		return nil, &yangErrors.ModuleNotRegistered{Name: name}
	}
	return mods[0], nil
}

// ResolvePrefix maps a prefix to the module it binds to in the context
// of the (sub)module mid. The empty prefix resolves to mid's own main
// module.
func (c *Context) ResolvePrefix(prefix string, mid ModuleID) (ModuleID, error) {
	mod, err := c.Module(mid)
	if err != nil {
		return ModuleID{}, err
	}
	if prefix == "" {
		if mod.Submodule {
			return mod.prefixMap[mod.Prefix], nil
		}
		return mod.ID, nil
	}
	target, exists := mod.prefixMap[prefix]
	if !exists {
		return ModuleID{}, &yangErrors.UnknownPrefix{Prefix: prefix, Module: mid.Name}
	}
	return target, nil
}

// TranslatePName resolves a prefixed name appearing in the text of mid
// into a qualified name. An absent prefix defaults to mid's own main
// module.
func (c *Context) TranslatePName(pname string, mid ModuleID) (yang.QName, error) {
	prefix, local, ok := yang.SplitPName(pname)
	if !ok {
		return yang.QName{}, &yangErrors.BadPrefName{Name: pname}
	}
	target, err := c.ResolvePrefix(prefix, mid)
	if err != nil {
		return yang.QName{}, err
	}
	return yang.NewQName(target.Name, local), nil
}

// ModuleNameResolver returns a prefix resolver for expressions written
// in the text of mid, mapping prefixes to module names.
func (c *Context) ModuleNameResolver(mid ModuleID) func(prefix string) (string, error) {
	return func(prefix string) (string, error) {
		target, err := c.ResolvePrefix(prefix, mid)
		if err != nil {
			return "", err
		}
		return target.Name, nil
	}
}

// FeatureSupported reports whether the named feature is enabled.
func (c *Context) FeatureSupported(feature yang.QName) bool {
	return c.features[feature]
}
