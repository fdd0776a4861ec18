package schema

import (
	"errors"
	"testing"

	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/types"
	"mercator-hq/ganymede/pkg/yang"
	"mercator-hq/ganymede/pkg/yang/ast"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
	"mercator-hq/ganymede/pkg/yang/parser"
)

const swModule = `module sw {
  yang-version 1.1;
  namespace "urn:example:sw";
  prefix sw;

  feature ecmp;

  typedef tz-name {
    type string;
    default "UTC";
  }

  grouping endpoint {
    leaf host {
      type string;
      mandatory true;
    }
    leaf port {
      type uint16;
      default 8080;
    }
  }

  container system {
    leaf hostname { type string; }
    leaf timezone { type tz-name; }
    leaf timezone-dst {
      type tz-name;
      default "CET";
    }
    container clock {
      leaf tick {
        type uint32;
        mandatory true;
      }
    }
    container snapshot {
      presence "a snapshot was taken";
      leaf id {
        type string;
        mandatory true;
      }
    }
  }

  container mgmt {
    leaf addr { type string; }
  }

  container routing {
    list route {
      key "dest table";
      unique "nexthop/address";
      leaf dest { type string; }
      leaf table { type uint8; }
      container nexthop {
        leaf address { type string; }
      }
      leaf metric {
        type uint16;
        default 100;
      }
    }
    leaf-list dns {
      type string;
      ordered-by user;
      max-elements 3;
      default "10.0.0.1";
      default "10.0.0.2";
    }
    leaf-list ports {
      type uint16;
      min-elements 1;
    }
    leaf active-route {
      type leafref {
        path "../route/dest";
      }
    }
    leaf backup-route {
      type leafref {
        path "../active-route";
        require-instance false;
      }
    }
    leaf ecmp-limit {
      if-feature ecmp;
      type uint8;
    }
  }

  container conn {
    must "enabled" {
      error-message "connection requires enabled";
    }
    uses endpoint {
      when "../enabled";
      refine port {
        default 9090;
      }
    }
    leaf enabled {
      type boolean;
      default true;
    }
  }

  choice transport {
    default tcp;
    case tcp {
      leaf tcp-port { type uint16; }
    }
    leaf udp-port { type uint16; }
    leaf sctp-port {
      if-feature ecmp;
      type uint16;
    }
  }

  container state {
    config false;
    leaf uptime { type uint64; }
    leaf boot-image { type string; }
  }

  rpc reset {
    input {
      leaf delay {
        type uint16;
        default 0;
      }
    }
    output {
      leaf at { type string; }
    }
  }

  rpc ping;

  notification link-down {
    leaf if-name { type string; }
  }
}`

const swxModule = `module swx {
  yang-version 1.1;
  namespace "urn:example:swx";
  prefix swx;

  import sw {
    prefix s;
  }

  augment "/s:routing/swx:isis" {
    leaf area { type string; }
  }

  augment "/s:routing" {
    container isis {
      leaf level {
        type uint8;
        default 2;
      }
    }
  }

  augment "/s:system" {
    leaf domain { type string; }
  }

  augment "/s:mgmt" {
    leaf vrf {
      type string;
      mandatory true;
    }
  }

  augment "/s:transport" {
    case quic {
      leaf quic-port { type uint16; }
    }
    leaf tls-port { type uint16; }
  }

  augment "/s:reset/s:input" {
    leaf force { type boolean; }
  }
}`

const swLibrary = `{
  "ietf-yang-library:modules-state": {
    "module-set-id": "sw1",
    "module": [
      {"name": "sw", "namespace": "urn:example:sw", "conformance-type": "implement"},
      {"name": "swx", "namespace": "urn:example:swx", "conformance-type": "implement"}
    ]
  }
}`

const swLibraryEcmp = `{
  "ietf-yang-library:modules-state": {
    "module-set-id": "sw2",
    "module": [
      {"name": "sw", "namespace": "urn:example:sw", "conformance-type": "implement",
       "feature": ["ecmp"]},
      {"name": "swx", "namespace": "urn:example:swx", "conformance-type": "implement"}
    ]
  }
}`

func swSources() map[string]string {
	return map[string]string{"sw": swModule, "swx": swxModule}
}

func buildTree(t *testing.T, library string, sources map[string]string) (*Tree, error) {
	t.Helper()
	lib, err := registry.ParseLibrary([]byte(library))
	if err != nil {
		t.Fatalf("ParseLibrary failed: %v", err)
	}
	loader := registry.LoaderFunc(func(name string, rev yang.Revision) (*ast.Statement, error) {
		text, ok := sources[name]
		if !ok {
			return nil, &yangErrors.ModuleNotFound{Name: name, Revision: rev}
		}
		return parser.Parse([]byte(text), name+".yang")
	})
	ctx, err := registry.NewContext(lib, loader)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	return Build(ctx)
}

func mustTree(t *testing.T, library string, sources map[string]string) *Tree {
	t.Helper()
	tree, err := buildTree(t, library, sources)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return tree
}

func mustDataNode(t *testing.T, tree *Tree, path string) *Node {
	t.Helper()
	n, err := tree.GetDataNode(path)
	if err != nil {
		t.Fatalf("GetDataNode(%s) failed: %v", path, err)
	}
	if n == nil {
		t.Fatalf("GetDataNode(%s) found nothing", path)
	}
	return n
}

func mustSchemaNode(t *testing.T, tree *Tree, path string) *Node {
	t.Helper()
	n, err := tree.GetSchemaNode(path)
	if err != nil {
		t.Fatalf("GetSchemaNode(%s) failed: %v", path, err)
	}
	if n == nil {
		t.Fatalf("GetSchemaNode(%s) found nothing", path)
	}
	return n
}

func TestTreeStructure(t *testing.T) {
	tree := mustTree(t, swLibrary, swSources())

	root, err := tree.GetDataNode("/")
	if err != nil || root == nil || root.Kind != KindSchema {
		t.Fatalf("GetDataNode(/) = %v, %v", root, err)
	}
	if root != tree.Root() {
		t.Error("GetDataNode(/) is not the root")
	}

	system := mustDataNode(t, tree, "/sw:system")
	if system.Kind != KindContainer || !system.Config {
		t.Errorf("system: kind %v config %v", system.Kind, system.Config)
	}
	if system.DataPath() != "/sw:system" {
		t.Errorf("system.DataPath() = %s", system.DataPath())
	}

	kinds := []struct {
		path string
		kind Kind
	}{
		{"/sw:system/sw:hostname", KindLeaf},
		{"/sw:routing/sw:route", KindList},
		{"/sw:routing/sw:dns", KindLeafList},
		{"/sw:routing/sw:route/sw:nexthop", KindContainer},
	}
	for _, tt := range kinds {
		if n := mustDataNode(t, tree, tt.path); n.Kind != tt.kind {
			t.Errorf("%s: kind = %v, want %v", tt.path, n.Kind, tt.kind)
		}
	}

	// config false propagates to every descendant
	state := mustDataNode(t, tree, "/sw:state")
	if state.Config {
		t.Error("state is config")
	}
	if uptime := mustDataNode(t, tree, "/sw:state/sw:uptime"); uptime.Config {
		t.Error("state/uptime is config")
	}

	// a misspelled name under an existing node is a hard error
	_, err = tree.GetDataNode("/sw:system/sw:nope")
	var nerr *yangErrors.NonexistentSchemaNode
	if !errors.As(err, &nerr) {
		t.Errorf("missing node error = %v", err)
	}
	if _, err := tree.GetDataNode("sw:system"); err == nil {
		t.Error("relative path accepted")
	}
}

func TestMandatoryPropagation(t *testing.T) {
	tree := mustTree(t, swLibrary, swSources())

	tests := []struct {
		path string
		want bool
	}{
		{"/sw:system/sw:clock", true},
		{"/sw:system/sw:clock/sw:tick", true},
		{"/sw:system/sw:snapshot", false},
		{"/sw:system/sw:snapshot/sw:id", true},
		{"/sw:system", true},
		{"/sw:system/sw:hostname", false},
		{"/sw:conn", true},
		{"/sw:conn/sw:host", true},
		{"/sw:routing/sw:ports", true},
		{"/sw:routing/sw:dns", false},
		{"/sw:mgmt", true},
	}
	for _, tt := range tests {
		if n := mustDataNode(t, tree, tt.path); n.Mandatory != tt.want {
			t.Errorf("%s: Mandatory = %v, want %v", tt.path, n.Mandatory, tt.want)
		}
	}
	if snap := mustDataNode(t, tree, "/sw:system/sw:snapshot"); !snap.Presence {
		t.Error("snapshot is not a presence container")
	}
}

func TestDefaults(t *testing.T) {
	tree := mustTree(t, swLibrary, swSources())

	tests := []struct {
		path string
		want any
	}{
		{"/sw:system/sw:timezone", "UTC"},
		{"/sw:system/sw:timezone-dst", "CET"},
		{"/sw:routing/sw:route/sw:metric", uint64(100)},
		{"/sw:conn/sw:port", uint64(9090)},
		{"/sw:conn/sw:enabled", true},
		{"/sw:routing/swx:isis/swx:level", uint64(2)},
		{"/sw:system/sw:hostname", nil},
	}
	for _, tt := range tests {
		if n := mustDataNode(t, tree, tt.path); n.Default != tt.want {
			t.Errorf("%s: Default = %v, want %v", tt.path, n.Default, tt.want)
		}
	}

	dns := mustDataNode(t, tree, "/sw:routing/sw:dns")
	vals, ok := dns.Default.([]any)
	if !ok || len(vals) != 2 || vals[0] != "10.0.0.1" || vals[1] != "10.0.0.2" {
		t.Errorf("dns.Default = %v", dns.Default)
	}
}

func TestChoiceAddressing(t *testing.T) {
	tree := mustTree(t, swLibrary, swSources())

	// the choice and its cases are transparent on data paths
	tcp := mustDataNode(t, tree, "/sw:tcp-port")
	if tcp.Kind != KindLeaf {
		t.Fatalf("tcp-port kind = %v", tcp.Kind)
	}
	udp := mustDataNode(t, tree, "/sw:udp-port")

	if n, err := tree.GetDataNode("/sw:transport"); n != nil || err != nil {
		t.Errorf("GetDataNode(/sw:transport) = %v, %v", n, err)
	}

	choice := mustSchemaNode(t, tree, "/sw:transport")
	if choice.Kind != KindChoice {
		t.Fatalf("transport kind = %v", choice.Kind)
	}
	if choice.DefaultCase != yang.NewQName("sw", "tcp") {
		t.Errorf("DefaultCase = %v", choice.DefaultCase)
	}

	// a bare data node under a choice sits in an implicit case of the
	// same name
	leaf := mustSchemaNode(t, tree, "/sw:transport/sw:udp-port/sw:udp-port")
	if leaf != udp {
		t.Error("schema and data addressing disagree about udp-port")
	}
	if udp.SchemaPath() != "/sw:transport/udp-port/udp-port" {
		t.Errorf("udp.SchemaPath() = %s", udp.SchemaPath())
	}
	if udp.DataPath() != "/sw:udp-port" {
		t.Errorf("udp.DataPath() = %s", udp.DataPath())
	}

	cs := choice.Case(udp)
	if cs == nil || cs.Kind != KindCase || cs.Name != yang.NewQName("sw", "udp-port") {
		t.Errorf("Case(udp) = %v", cs)
	}
	if choice.Case(tcp) == nil {
		t.Error("Case(tcp) not found")
	}
	if choice.Case(mustDataNode(t, tree, "/sw:system")) != nil {
		t.Error("Case matched a node outside the choice")
	}

	dataKids := tree.Root().DataChildren()
	for _, c := range dataKids {
		if c.Kind == KindChoice || c.Kind == KindCase {
			t.Errorf("DataChildren leaked %v", c.Name)
		}
	}
}

func TestRPCAndNotification(t *testing.T) {
	tree := mustTree(t, swLibrary, swSources())

	reset := mustSchemaNode(t, tree, "/sw:reset")
	if reset.Kind != KindRPC || reset.Config {
		t.Fatalf("reset: kind %v config %v", reset.Kind, reset.Config)
	}

	// rpcs and their interiors are absent from data paths without error
	if n, err := tree.GetDataNode("/sw:reset"); n != nil || err != nil {
		t.Errorf("GetDataNode(/sw:reset) = %v, %v", n, err)
	}
	if n, err := tree.GetDataNode("/sw:reset/sw:delay"); n != nil || err != nil {
		t.Errorf("GetDataNode(/sw:reset/sw:delay) = %v, %v", n, err)
	}

	input := mustSchemaNode(t, tree, "/sw:reset/sw:input")
	if input.Kind != KindInput || input.Config {
		t.Errorf("input: kind %v config %v", input.Kind, input.Config)
	}
	delay := mustSchemaNode(t, tree, "/sw:reset/sw:input/sw:delay")
	if delay.Config || delay.Default != uint64(0) {
		t.Errorf("delay: config %v default %v", delay.Config, delay.Default)
	}
	output := mustSchemaNode(t, tree, "/sw:reset/sw:output")
	if output.Kind != KindOutput {
		t.Errorf("output kind = %v", output.Kind)
	}

	// input and output exist even when the statement declares neither
	pingIn := mustSchemaNode(t, tree, "/sw:ping/sw:input")
	if pingIn.Kind != KindInput || len(pingIn.Children()) != 0 {
		t.Errorf("ping input: kind %v children %d", pingIn.Kind, len(pingIn.Children()))
	}

	note := mustSchemaNode(t, tree, "/sw:link-down")
	if note.Kind != KindNotification || note.Config {
		t.Errorf("link-down: kind %v config %v", note.Kind, note.Config)
	}
	if n, err := tree.GetDataNode("/sw:link-down"); n != nil || err != nil {
		t.Errorf("GetDataNode(/sw:link-down) = %v, %v", n, err)
	}
	if name := mustSchemaNode(t, tree, "/sw:link-down/sw:if-name"); name.Config {
		t.Error("notification leaf is config")
	}
}

func TestAugments(t *testing.T) {
	tree := mustTree(t, swLibrary, swSources())

	// augmented nodes carry the augmenting module's name
	domain := mustDataNode(t, tree, "/sw:system/swx:domain")
	if domain.Name != yang.NewQName("swx", "domain") {
		t.Errorf("domain.Name = %v", domain.Name)
	}
	if domain.DataPath() != "/sw:system/swx:domain" {
		t.Errorf("domain.DataPath() = %s", domain.DataPath())
	}

	// an augment may target a node created by a later augment
	area := mustDataNode(t, tree, "/sw:routing/swx:isis/swx:area")
	if area.DataPath() != "/sw:routing/swx:isis/area" {
		t.Errorf("area.DataPath() = %s", area.DataPath())
	}

	// cases added into a foreign choice
	quic := mustDataNode(t, tree, "/swx:quic-port")
	choice := mustSchemaNode(t, tree, "/sw:transport")
	if cs := choice.Case(quic); cs == nil || cs.Name != yang.NewQName("swx", "quic") {
		t.Errorf("Case(quic-port) = %v", cs)
	}
	tls := mustDataNode(t, tree, "/swx:tls-port")
	if cs := choice.Case(tls); cs == nil || cs.Name != yang.NewQName("swx", "tls-port") {
		t.Errorf("Case(tls-port) = %v", cs)
	}

	// augmenting an rpc input keeps the subtree config false
	force := mustSchemaNode(t, tree, "/sw:reset/sw:input/swx:force")
	if force.Config {
		t.Error("force is config")
	}
}

func TestListKeysAndUnique(t *testing.T) {
	tree := mustTree(t, swLibrary, swSources())

	route := mustDataNode(t, tree, "/sw:routing/sw:route")
	wantKeys := []yang.QName{yang.NewQName("sw", "dest"), yang.NewQName("sw", "table")}
	if len(route.Keys) != 2 || route.Keys[0] != wantKeys[0] || route.Keys[1] != wantKeys[1] {
		t.Fatalf("route.Keys = %v", route.Keys)
	}
	for _, k := range route.Keys {
		kn, err := route.GetSchemaDescendant(Route{k})
		if err != nil || kn.Kind != KindLeaf {
			t.Errorf("key %v: %v, %v", k, kn, err)
		}
	}

	if len(route.Unique) != 1 || len(route.Unique[0]) != 1 {
		t.Fatalf("route.Unique = %v", route.Unique)
	}
	target, err := route.GetSchemaDescendant(route.Unique[0][0])
	if err != nil || target.Name != yang.NewQName("sw", "address") {
		t.Errorf("unique target = %v, %v", target, err)
	}

	dns := mustDataNode(t, tree, "/sw:routing/sw:dns")
	if !dns.UserOrdered || dns.MaxElements != 3 || dns.MinElements != 0 {
		t.Errorf("dns bounds: ordered %v max %d min %d", dns.UserOrdered, dns.MaxElements, dns.MinElements)
	}
	ports := mustDataNode(t, tree, "/sw:routing/sw:ports")
	if ports.MinElements != 1 || ports.MaxElements != 0 {
		t.Errorf("ports bounds: min %d max %d", ports.MinElements, ports.MaxElements)
	}
}

func TestUsesAndRefine(t *testing.T) {
	tree := mustTree(t, swLibrary, swSources())

	host := mustDataNode(t, tree, "/sw:conn/sw:host")
	if !host.Mandatory {
		t.Error("host lost mandatory through uses")
	}
	if len(host.Whens) != 1 {
		t.Errorf("host.Whens = %d", len(host.Whens))
	}
	port := mustDataNode(t, tree, "/sw:conn/sw:port")
	if len(port.Whens) != 1 {
		t.Errorf("port.Whens = %d", len(port.Whens))
	}

	conn := mustDataNode(t, tree, "/sw:conn")
	if len(conn.Musts) != 1 || conn.Musts[0].Message != "connection requires enabled" {
		t.Errorf("conn.Musts = %v", conn.Musts)
	}
}

func TestFeaturePruning(t *testing.T) {
	tree := mustTree(t, swLibrary, swSources())

	// disabled names are quietly absent on both path styles
	if n, err := tree.GetDataNode("/sw:routing/sw:ecmp-limit"); n != nil || err != nil {
		t.Errorf("ecmp-limit = %v, %v", n, err)
	}
	if n, err := tree.GetDataNode("/sw:sctp-port"); n != nil || err != nil {
		t.Errorf("sctp-port = %v, %v", n, err)
	}
	if n, err := tree.GetSchemaNode("/sw:routing/sw:ecmp-limit"); n != nil || err != nil {
		t.Errorf("schema ecmp-limit = %v, %v", n, err)
	}

	enabled := mustTree(t, swLibraryEcmp, swSources())
	limit := mustDataNode(t, enabled, "/sw:routing/sw:ecmp-limit")
	if limit.Kind != KindLeaf {
		t.Errorf("ecmp-limit kind = %v", limit.Kind)
	}
	mustDataNode(t, enabled, "/sw:sctp-port")
}

func TestLeafrefResolution(t *testing.T) {
	tree := mustTree(t, swLibrary, swSources())

	active := mustDataNode(t, tree, "/sw:routing/sw:active-route")
	lref, ok := active.Type.(*types.LeafrefType)
	if !ok {
		t.Fatalf("active-route type = %T", active.Type)
	}
	if !lref.RequireInstance() {
		t.Error("require-instance lost its default")
	}
	if lref.Target() == nil {
		t.Fatal("active-route target unresolved")
	}
	v, err := active.Type.ParseValue("a-route")
	if err != nil || v != "a-route" {
		t.Errorf("ParseValue through leafref = %v, %v", v, err)
	}

	backup := mustDataNode(t, tree, "/sw:routing/sw:backup-route")
	bref := backup.Type.(*types.LeafrefType)
	if bref.RequireInstance() {
		t.Error("require-instance false ignored")
	}
	if _, ok := bref.Target().(*types.LeafrefType); !ok {
		t.Errorf("backup-route target = %T, want a chained leafref", bref.Target())
	}
}

func TestBuildErrors(t *testing.T) {
	const badcfg = `module badcfg {
  yang-version 1.1;
  namespace "urn:example:badcfg";
  prefix bc;
  container oper {
    config false;
    container sub {
      config true;
      leaf x { type uint8; }
    }
  }
}`
	const badref = `module badref {
  yang-version 1.1;
  namespace "urn:example:badref";
  prefix br;
  container top {
    leaf a {
      type leafref {
        path "../nosuch";
      }
    }
  }
}`
	const badaug = `module badaug {
  yang-version 1.1;
  namespace "urn:example:badaug";
  prefix ba;
  augment "/ba:nosuch" {
    leaf x { type uint8; }
  }
}`
	library := func(name string) string {
		return `{
  "ietf-yang-library:modules-state": {
    "module-set-id": "e1",
    "module": [
      {"name": "` + name + `", "namespace": "urn:example:` + name + `", "conformance-type": "implement"}
    ]
  }
}`
	}

	_, err := buildTree(t, library("badcfg"), map[string]string{"badcfg": badcfg})
	var werr *yangErrors.WrongArgument
	if !errors.As(err, &werr) || werr.Keyword != "config" {
		t.Errorf("config under config false: %v", err)
	}

	_, err = buildTree(t, library("badref"), map[string]string{"badref": badref})
	var lerr *yangErrors.InvalidLeafrefPath
	if !errors.As(err, &lerr) {
		t.Errorf("dangling leafref: %v", err)
	}

	_, err = buildTree(t, library("badaug"), map[string]string{"badaug": badaug})
	var perr *yangErrors.InvalidSchemaPath
	if !errors.As(err, &perr) {
		t.Errorf("dangling augment: %v", err)
	}
}
