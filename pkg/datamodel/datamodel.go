package datamodel

import (
	"mercator-hq/ganymede/pkg/instance"
	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/schema"
	"mercator-hq/ganymede/pkg/xpath"
	"mercator-hq/ganymede/pkg/yang"
)

// DataModel is a compiled data model: the frozen module context plus the
// schema tree built from it. It is immutable and safe for concurrent
// use.
type DataModel struct {
	ctx  *registry.Context
	tree *schema.Tree
}

// New builds a data model from YANG-library metadata. Module statement
// trees are fetched through loader. Any registry or schema error aborts
// the build; no partial model is ever returned.
func New(libraryData []byte, loader registry.Loader) (*DataModel, error) {
	lib, err := registry.ParseLibrary(libraryData)
	if err != nil {
		return nil, err
	}
	return NewFromLibrary(lib, loader)
}

// NewFromLibrary builds a data model from an already parsed library.
// Callers that adjust the library first, enabling extra features for
// example, use this instead of New.
func NewFromLibrary(lib *registry.Library, loader registry.Loader) (*DataModel, error) {
	ctx, err := registry.NewContext(lib, loader)
	if err != nil {
		return nil, err
	}
	tree, err := schema.Build(ctx)
	if err != nil {
		return nil, err
	}
	return &DataModel{ctx: ctx, tree: tree}, nil
}

// Context returns the frozen module context.
func (dm *DataModel) Context() *registry.Context { return dm.ctx }

// Schema returns the compiled schema tree.
func (dm *DataModel) Schema() *schema.Tree { return dm.tree }

// GetDataNode resolves an absolute data path. See schema.Tree.
func (dm *DataModel) GetDataNode(path string) (*schema.Node, error) {
	return dm.tree.GetDataNode(path)
}

// GetSchemaNode resolves an absolute schema path. See schema.Tree.
func (dm *DataModel) GetSchemaNode(path string) (*schema.Node, error) {
	return dm.tree.GetSchemaNode(path)
}

// FromRaw matches a decoded JSON document against the schema tree and
// returns the root focus of the resulting instance tree.
func (dm *DataModel) FromRaw(raw any) (*instance.Handle, error) {
	return instance.FromRaw(dm.tree.Root(), raw)
}

// env builds the expression environment for a document, wiring absolute
// paths to its root and identity derivation to the context.
func (dm *DataModel) env(root *instance.Handle) *xpath.Env {
	return &xpath.Env{
		Root: root,
		DerivedFrom: func(value string, base yang.QName) bool {
			module, local, ok := yang.SplitPName(value)
			if !ok || module == "" {
				return false
			}
			return dm.ctx.DerivedFrom(yang.NewQName(module, local), base)
		},
	}
}
