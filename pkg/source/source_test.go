package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/yang"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

func writeModule(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeModule(t, dir, "sys@2025-06-01.yang", "module sys { prefix s1; }")
	writeModule(t, dir, "sys@2026-01-15.yang", "module sys { prefix s2; }")
	writeModule(t, dir, "net.yang", "module net { prefix n; }")

	src := NewDirSource([]string{dir}, nil)

	data, origin, err := src.Load("sys", yang.Revision("2025-06-01"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "module sys { prefix s1; }" {
		t.Errorf("wrong revision loaded: %s", data)
	}
	if filepath.Base(origin) != "sys@2025-06-01.yang" {
		t.Errorf("origin = %q", origin)
	}

	// Unspecified revision takes the newest dated file.
	data, origin, err = src.Load("sys", "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if filepath.Base(origin) != "sys@2026-01-15.yang" {
		t.Errorf("origin = %q, want newest revision", origin)
	}
	_ = data

	// A plain file satisfies a revisioned request when no dated file
	// exists.
	if _, origin, err = src.Load("net", yang.Revision("2026-01-01")); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if filepath.Base(origin) != "net.yang" {
		t.Errorf("origin = %q", origin)
	}

	_, _, err = src.Load("missing", "")
	var nf *yangErrors.ModuleNotFound
	if !errors.As(err, &nf) || nf.Name != "missing" {
		t.Errorf("Load(missing) = %v", err)
	}
}

func TestDirSourceSearchOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeModule(t, first, "net.yang", "module net { prefix a; }")
	writeModule(t, second, "net.yang", "module net { prefix b; }")
	writeModule(t, second, "extra.yang", "module extra { prefix e; }")

	src := NewDirSource([]string{first, second}, nil)

	data, _, err := src.Load("net", "")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if string(data) != "module net { prefix a; }" {
		t.Errorf("first search path did not win: %s", data)
	}

	if _, _, err := src.Load("extra", ""); err != nil {
		t.Errorf("fallthrough to second path failed: %v", err)
	}
}

func TestMemSource(t *testing.T) {
	src := NewMemSource()
	src.Add("sys", "2025-06-01", []byte("old"))
	src.Add("sys", "2026-01-15", []byte("new"))
	src.Add("net", "", []byte("plain"))

	data, origin, err := src.Load("sys", "2025-06-01")
	if err != nil || string(data) != "old" {
		t.Errorf("Load = %s, %v", data, err)
	}
	if origin != "sys@2025-06-01.yang" {
		t.Errorf("origin = %q", origin)
	}

	data, _, err = src.Load("sys", "")
	if err != nil || string(data) != "new" {
		t.Errorf("newest = %s, %v", data, err)
	}

	// The unrevisioned entry stands in for any requested revision.
	if data, _, err = src.Load("net", "2026-01-01"); err != nil || string(data) != "plain" {
		t.Errorf("Load = %s, %v", data, err)
	}

	// Replacement by same revision.
	src.Add("sys", "2026-01-15", []byte("newer"))
	if data, _, _ = src.Load("sys", "2026-01-15"); string(data) != "newer" {
		t.Errorf("replace failed: %s", data)
	}

	var nf *yangErrors.ModuleNotFound
	if _, _, err = src.Load("sys", "1999-01-01"); !errors.As(err, &nf) {
		t.Errorf("Load(stale rev) = %v", err)
	}
}

func TestLoader(t *testing.T) {
	src := NewMemSource()
	src.Add("m", "", []byte("module m { namespace \"urn:m\"; prefix m; }"))
	src.Add("bad", "", []byte("module bad {"))

	loader := Loader(src)

	stmt, err := loader("m", "")
	if err != nil {
		t.Fatalf("loader failed: %v", err)
	}
	if stmt.Keyword != "module" || stmt.Argument != "m" {
		t.Errorf("parsed %s %q", stmt.Keyword, stmt.Argument)
	}

	var nf *yangErrors.ModuleNotFound
	if _, err := loader("ghost", ""); !errors.As(err, &nf) {
		t.Errorf("loader(ghost) = %v", err)
	}

	if _, err := loader("bad", ""); err == nil {
		t.Error("no error for unterminated module text")
	}
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(&WatcherConfig{
		Paths:            []string{dir},
		DebounceInterval: 20 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func() error {
			select {
			case changed <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// Give the event loop time to register the directory.
	time.Sleep(100 * time.Millisecond)
	writeModule(t, dir, "sys.yang", "module sys { prefix s; }")

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("no change event for a module write")
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Watch returned %v", err)
	}
}

func TestWatcherMissingPath(t *testing.T) {
	w, err := NewWatcher(&WatcherConfig{
		Paths: []string{filepath.Join(t.TempDir(), "absent")},
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if err := w.Watch(context.Background(), func() error { return nil }); err == nil {
		t.Error("Watch succeeded on a missing path")
	}
	w.watcher.Close()
}
