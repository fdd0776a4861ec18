package schema

import (
	"strings"

	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/yang"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// Tree is the compiled schema of one data model. It is immutable and
// safe for concurrent use.
type Tree struct {
	ctx  *registry.Context
	root *Node
}

// Root returns the synthetic root node above all module trees.
func (t *Tree) Root() *Node { return t.root }

// Context returns the module context the tree was built from.
func (t *Tree) Context() *registry.Context { return t.ctx }

// GetDataNode resolves a slash-separated, module-qualified data path.
// It returns (nil, nil) when the path names something that exists in
// the schema but is not addressable as data: a feature-pruned node, a
// choice or case, or anything inside an rpc or notification. A name the
// schema never declares yields NonexistentSchemaNode.
func (t *Tree) GetDataNode(path string) (*Node, error) {
	steps, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	n := t.root
	for _, qn := range steps {
		d, h := n.classify(qn)
		switch h {
		case hitData:
			n = d
		case hitShadow, hitPruned:
			return nil, nil
		default:
			return nil, &yangErrors.NonexistentSchemaNode{Name: qn, Under: n.DataPath()}
		}
	}
	return n, nil
}

// GetSchemaNode resolves a slash-separated, module-qualified schema
// path, where every level is named explicitly: choices, cases, and the
// input and output of rpcs. Feature-pruned names yield (nil, nil).
func (t *Tree) GetSchemaNode(path string) (*Node, error) {
	steps, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	n := t.root
	for _, qn := range steps {
		if n.pruned[qn] {
			return nil, nil
		}
		c := n.Child(qn)
		if c == nil {
			return nil, &yangErrors.NonexistentSchemaNode{Name: qn, Under: n.SchemaPath()}
		}
		n = c
	}
	return n, nil
}

// parsePath splits "/mod:name/name2" into qualified-name steps. The
// first step must carry a module name; later steps without one inherit
// the previous step's module.
func parsePath(path string) ([]yang.QName, error) {
	if path == "" || path[0] != '/' {
		return nil, &yangErrors.InvalidSchemaPath{Path: path}
	}
	if path == "/" {
		return nil, nil
	}
	segments := strings.Split(path[1:], "/")
	steps := make([]yang.QName, 0, len(segments))
	module := ""
	for _, seg := range segments {
		prefix, local, ok := yang.SplitPName(seg)
		if !ok {
			return nil, &yangErrors.BadPrefName{Name: seg}
		}
		if prefix != "" {
			module = prefix
		} else if module == "" {
			return nil, &yangErrors.InvalidSchemaPath{Path: path}
		}
		steps = append(steps, yang.NewQName(module, local))
	}
	return steps, nil
}
