//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/audit"
	"mercator-hq/ganymede/pkg/audit/export"
	"mercator-hq/ganymede/pkg/audit/recorder"
	"mercator-hq/ganymede/pkg/audit/retention"
	"mercator-hq/ganymede/pkg/audit/storage"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/datamodel"
	"mercator-hq/ganymede/pkg/source"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

const sysTypesModule = `module sys-types {
  yang-version 1.1;
  namespace "urn:example:sys-types";
  prefix st;

  revision "2026-01-15";

  typedef port {
    type uint16 {
      range "1..65535";
    }
  }
}`

const sysModule = `module sys {
  yang-version 1.1;
  namespace "urn:example:sys";
  prefix sys;

  import sys-types {
    prefix st;
  }

  container host {
    leaf name {
      type string;
      mandatory true;
    }
    leaf api-port {
      type st:port;
    }
    list iface {
      key "name";
      leaf name {
        type string;
      }
      leaf mtu {
        type uint16 {
          range "576..9216";
        }
      }
    }
  }
}`

const libraryDoc = `{
  "ietf-yang-library:modules-state": {
    "module-set-id": "integration-1",
    "module": [
      {"name": "sys", "namespace": "urn:example:sys", "conformance-type": "implement"},
      {"name": "sys-types", "revision": "2026-01-15", "namespace": "urn:example:sys-types", "conformance-type": "import"}
    ]
  }
}`

// writeModules lays out a module directory plus library document the way
// a deployment would and returns both paths.
func writeModules(t *testing.T) (dir, library string) {
	t.Helper()
	dir = t.TempDir()

	files := map[string]string{
		"sys.yang":                  sysModule,
		"sys-types@2026-01-15.yang": sysTypesModule,
		"yang-library.json":         libraryDoc,
	}
	for name, text := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir, filepath.Join(dir, "yang-library.json")
}

func buildFromDir(t *testing.T, dir, library string) *datamodel.DataModel {
	t.Helper()
	data, err := os.ReadFile(library)
	if err != nil {
		t.Fatalf("failed to read library: %v", err)
	}
	src := source.NewDirSource([]string{dir}, nil)
	dm, err := datamodel.New(data, source.Loader(src))
	if err != nil {
		t.Fatalf("failed to build model: %v", err)
	}
	return dm
}

func parseDoc(t *testing.T, dm *datamodel.DataModel, doc string) error {
	t.Helper()
	var raw any
	if err := json.Unmarshal([]byte(doc), &raw); err != nil {
		t.Fatalf("bad fixture JSON: %v", err)
	}
	root, err := dm.FromRaw(raw)
	if err != nil {
		return err
	}
	return dm.ValidateAll(root)
}

// TestDirectorySourceModel builds a model from revisioned module files
// on disk and validates documents against it end to end.
func TestDirectorySourceModel(t *testing.T) {
	dir, library := writeModules(t)
	dm := buildFromDir(t, dir, library)

	if got := dm.Context().Library().ModuleSetID; got != "integration-1" {
		t.Errorf("ModuleSetID = %q, want %q", got, "integration-1")
	}

	// The api-port leaf resolves its type through the imported module.
	node, err := dm.GetSchemaNode("/sys:host/api-port")
	if err != nil {
		t.Fatalf("GetSchemaNode(api-port) failed: %v", err)
	}
	if node.Type == nil {
		t.Fatal("api-port has no resolved type")
	}

	if err := parseDoc(t, dm, `{"sys:host": {"name": "alpha", "api-port": 8080}}`); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}

	err = parseDoc(t, dm, `{"sys:host": {"api-port": 0}}`)
	var list *yangErrors.ErrorList
	if !errors.As(err, &list) {
		t.Fatalf("invalid document error = %v, want ErrorList", err)
	}
	if !list.HasTag(yangErrors.TagMissingData) {
		t.Errorf("violations = %v, want missing-data for host name", list.Errors)
	}
	if !list.HasTag(yangErrors.TagInvalidValue) {
		t.Errorf("violations = %v, want invalid-value for api-port 0", list.Errors)
	}
}

// TestConfigDrivenModel wires the configuration layer to the module
// source the way the CLI does.
func TestConfigDrivenModel(t *testing.T) {
	dir, library := writeModules(t)

	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	cfgText := "modules:\n" +
		"  library: " + library + "\n" +
		"  search_paths:\n" +
		"    - " + dir + "\n" +
		"validation:\n" +
		"  mode: collect\n"
	if err := os.WriteFile(cfgFile, []byte(cfgText), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	dm := buildFromDir(t, cfg.Modules.SearchPaths[0], cfg.Modules.Library)
	if err := parseDoc(t, dm, `{"sys:host": {"name": "alpha"}}`); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
}

// TestAuditTrailRoundTrip records validation outcomes through the async
// recorder into SQLite, queries them back, and exports them.
func TestAuditTrailRoundTrip(t *testing.T) {
	dir, library := writeModules(t)
	dm := buildFromDir(t, dir, library)

	storeCfg := storage.DefaultConfig()
	storeCfg.Path = filepath.Join(t.TempDir(), "audit.db")
	store, err := storage.NewSQLite(storeCfg, nil)
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	defer store.Close()

	rec := recorder.NewRecorder(store, nil, nil)
	ctx := context.Background()

	docs := map[string]string{
		"good.json": `{"sys:host": {"name": "alpha"}}`,
		"bad.json":  `{"sys:host": {"iface": [{"name": "eth0", "mtu": 100}]}}`,
	}
	for name, doc := range docs {
		started := time.Now()
		verr := parseDoc(t, dm, doc)
		r := audit.NewRecord(dm.Context().Library().ModuleSetID, name, []byte(doc), started, verr)
		if err := rec.Record(ctx, r); err != nil {
			t.Fatalf("Record(%s) failed: %v", name, err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	invalid, err := store.Query(ctx, &audit.Query{Outcome: audit.OutcomeInvalid, Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(invalid) != 1 {
		t.Fatalf("len(invalid) = %d, want 1", len(invalid))
	}
	got := invalid[0]
	if got.Document != "bad.json" {
		t.Errorf("Document = %q, want %q", got.Document, "bad.json")
	}
	if got.Violations == 0 {
		t.Error("Violations = 0, want > 0")
	}
	if got.ViolationTags[yangErrors.TagMissingData] == 0 {
		t.Errorf("ViolationTags = %v, want missing-data", got.ViolationTags)
	}

	all, err := store.Query(ctx, &audit.Query{Limit: 10})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	var buf bytes.Buffer
	if err := export.NewJSONExporter(false).Export(ctx, all, &buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	var exported []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &exported); err != nil {
		t.Fatalf("exported JSON does not parse: %v", err)
	}
	if len(exported) != 2 {
		t.Errorf("len(exported) = %d, want 2", len(exported))
	}
}

// TestRetentionPruneByCount prunes the oldest records beyond the
// configured maximum.
func TestRetentionPruneByCount(t *testing.T) {
	store := storage.NewMemory()
	defer store.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		started := time.Now().Add(time.Duration(i-5) * time.Hour)
		r := audit.NewRecord("integration-1", "doc.json", nil, started, nil)
		if err := store.Store(ctx, r); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}

	pruner := retention.NewPruner(store, &retention.Config{MaxRecords: 2}, nil)
	deleted, err := pruner.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	remaining, err := store.Count(ctx, &audit.Query{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if remaining != 2 {
		t.Errorf("remaining = %d, want 2", remaining)
	}
}
