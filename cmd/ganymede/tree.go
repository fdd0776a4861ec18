package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/ganymede/pkg/cli"
	"mercator-hq/ganymede/pkg/schema"
)

var treeCmd = &cobra.Command{
	Use:   "tree [path]",
	Short: "Print the compiled schema tree",
	Long: `Print the compiled schema tree in a pyang-like text form.

Node markers:
  rw / ro    config and state data
  -x  -w  -n rpc, rpc input, notification
  name?      optional leaf or presence of a choice
  name!      presence container
  name*      list or leaf-list, lists show their keys in brackets
  :(name)    case of a choice

With a path argument only the subtree below that schema node is
printed. The path is slash-separated and module-qualified, naming
every level including choices and cases.

Examples:
  # Full tree
  ganymede tree --library yang-library.json --module-dir modules/

  # One subtree
  ganymede tree /dc:cluster/dc:node`,
	Args: cobra.MaximumNArgs(1),
	RunE: printSchemaTree,
}

func init() {
	rootCmd.AddCommand(treeCmd)

	addModelFlags(treeCmd)
}

func printSchemaTree(cmd *cobra.Command, args []string) error {
	cfg, err := loadRuntimeConfig()
	if err != nil {
		return err
	}
	dm, err := buildModel(cfg)
	if err != nil {
		return cli.NewCommandError("tree", err)
	}

	if len(args) == 1 {
		node, err := dm.GetSchemaNode(args[0])
		if err != nil {
			return cli.NewCommandError("tree", err)
		}
		if node == nil {
			return cli.NewCommandError("tree", fmt.Errorf("schema node %q is disabled by if-feature", args[0]))
		}
		writeSubtree(os.Stdout, node)
		return nil
	}

	writeTree(os.Stdout, dm.Schema().Root())
	return nil
}

// writeTree renders the whole schema tree, grouping top-level nodes
// under a header per defining module.
func writeTree(w io.Writer, root *schema.Node) {
	var order []string
	byModule := make(map[string][]*schema.Node)
	for _, c := range root.Children() {
		m := c.Name.Module
		if _, ok := byModule[m]; !ok {
			order = append(order, m)
		}
		byModule[m] = append(byModule[m], c)
	}

	for i, m := range order {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "module: %s\n", m)
		nodes := byModule[m]
		width := idWidth(nodes)
		for j, c := range nodes {
			writeNode(w, c, "  ", j == len(nodes)-1, width)
		}
	}
}

// writeSubtree renders one schema node and everything below it.
func writeSubtree(w io.Writer, n *schema.Node) {
	writeNode(w, n, "", true, len([]rune(nodeID(n))))
}

func writeNode(w io.Writer, n *schema.Node, prefix string, last bool, width int) {
	id := nodeID(n)

	var line string
	if n.Kind == schema.KindCase {
		line = prefix + "+--:" + id
	} else {
		line = prefix + "+--" + nodeFlags(n) + " " + id
	}
	if typeName := nodeType(n); typeName != "" {
		line += strings.Repeat(" ", width-len([]rune(id))+3) + typeName
	}
	fmt.Fprintln(w, line)

	childPrefix := prefix + "|  "
	if last {
		childPrefix = prefix + "   "
	}
	children := n.Children()
	childWidth := idWidth(children)
	for i, c := range children {
		writeNode(w, c, childPrefix, i == len(children)-1, childWidth)
	}
}

// idWidth returns the widest node id among siblings, so type names
// line up in a column.
func idWidth(nodes []*schema.Node) int {
	width := 0
	for _, n := range nodes {
		if l := len([]rune(nodeID(n))); l > width {
			width = l
		}
	}
	return width
}

// nodeFlags returns the two-character access marker.
func nodeFlags(n *schema.Node) string {
	switch n.Kind {
	case schema.KindRPC:
		return "-x"
	case schema.KindInput:
		return "-w"
	case schema.KindNotification:
		return "-n"
	}
	if n.Config {
		return "rw"
	}
	return "ro"
}

// nodeID renders the node name with its kind markers.
func nodeID(n *schema.Node) string {
	name := localName(n)
	switch n.Kind {
	case schema.KindContainer:
		if n.Presence {
			return name + "!"
		}
		return name
	case schema.KindList:
		id := name + "*"
		if len(n.Keys) > 0 {
			keys := make([]string, len(n.Keys))
			for i, k := range n.Keys {
				keys[i] = k.Name
			}
			id += " [" + strings.Join(keys, " ") + "]"
		}
		return id
	case schema.KindLeafList:
		return name + "*"
	case schema.KindLeaf, schema.KindAnydata, schema.KindAnyxml:
		if !n.Mandatory && !isKeyLeaf(n) {
			return name + "?"
		}
		return name
	case schema.KindChoice:
		if n.Mandatory {
			return "(" + name + ")"
		}
		return "(" + name + ")?"
	case schema.KindCase:
		return "(" + name + ")"
	}
	return name
}

// localName qualifies the name with its module when it differs from
// the parent, which happens under augment.
func localName(n *schema.Node) string {
	p := n.Parent
	if p != nil && p.Kind != schema.KindSchema && p.Name.Module != n.Name.Module {
		return n.Name.String()
	}
	return n.Name.Name
}

// isKeyLeaf reports whether the leaf is a key of its parent list. Keys
// are never optional, so they carry no "?" marker.
func isKeyLeaf(n *schema.Node) bool {
	p := n.Parent
	if p == nil || p.Kind != schema.KindList {
		return false
	}
	for _, k := range p.Keys {
		if k == n.Name {
			return true
		}
	}
	return false
}

// nodeType returns the text for the type column, empty for nodes that
// have none.
func nodeType(n *schema.Node) string {
	switch n.Kind {
	case schema.KindLeaf, schema.KindLeafList:
		if n.Type != nil {
			return n.Type.Name()
		}
	case schema.KindAnydata:
		return "<anydata>"
	case schema.KindAnyxml:
		return "<anyxml>"
	}
	return ""
}
