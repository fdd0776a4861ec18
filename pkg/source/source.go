package source

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/yang"
	"mercator-hq/ganymede/pkg/yang/ast"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
	"mercator-hq/ganymede/pkg/yang/parser"
)

// Source locates the text of a module or submodule. An empty revision
// means any revision is acceptable, preferring the newest. The second
// return value names the origin of the text (a file path for directory
// sources) and feeds parser coordinates.
type Source interface {
	Load(name string, rev yang.Revision) ([]byte, string, error)
}

// Loader adapts a Source to the registry loader contract by parsing the
// located text into a statement tree.
func Loader(src Source) registry.LoaderFunc {
	return func(name string, rev yang.Revision) (*ast.Statement, error) {
		data, origin, err := src.Load(name, rev)
		if err != nil {
			return nil, err
		}
		return parser.Parse(data, origin)
	}
}

// DirSource loads module text from a list of directories laid out as
// "name.yang" or "name@revision.yang". Directories are tried in order;
// the first hit wins.
type DirSource struct {
	paths  []string
	logger *slog.Logger
}

// NewDirSource creates a directory-backed source over the given search
// paths.
func NewDirSource(paths []string, logger *slog.Logger) *DirSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirSource{paths: paths, logger: logger}
}

// Load implements Source.
func (s *DirSource) Load(name string, rev yang.Revision) ([]byte, string, error) {
	for _, dir := range s.paths {
		path, ok := findModuleFile(dir, name, rev)
		if !ok {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read module file %q: %w", path, err)
		}
		s.logger.Debug("loaded module source", "module", name, "revision", rev.String(), "path", path)
		return data, path, nil
	}
	return nil, "", &yangErrors.ModuleNotFound{Name: name, Revision: rev}
}

// findModuleFile resolves a module name to a file in dir. With a known
// revision the exact "name@rev.yang" form is preferred and a plain
// "name.yang" accepted as fallback; without one the plain form wins and
// otherwise the newest dated file is taken. ISO dates sort
// chronologically as strings, so lexicographic order suffices.
func findModuleFile(dir, name string, rev yang.Revision) (string, bool) {
	plain := filepath.Join(dir, name+".yang")
	if rev != "" {
		exact := filepath.Join(dir, fmt.Sprintf("%s@%s.yang", name, rev))
		if fileExists(exact) {
			return exact, true
		}
		if fileExists(plain) {
			return plain, true
		}
		return "", false
	}
	if fileExists(plain) {
		return plain, true
	}
	matches, err := filepath.Glob(filepath.Join(dir, name+"@*.yang"))
	if err != nil || len(matches) == 0 {
		return "", false
	}
	sort.Strings(matches)
	return matches[len(matches)-1], true
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// MemSource holds module text registered in memory. It is safe for
// concurrent use.
type MemSource struct {
	mu      sync.RWMutex
	modules map[string][]memEntry
}

type memEntry struct {
	rev  yang.Revision
	text []byte
}

// NewMemSource creates an empty in-memory source.
func NewMemSource() *MemSource {
	return &MemSource{modules: make(map[string][]memEntry)}
}

// Add registers module text under the given name and revision,
// replacing any text previously registered under the same pair.
func (s *MemSource) Add(name string, rev yang.Revision, text []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.modules[name]
	for i, e := range entries {
		if e.rev == rev {
			entries[i].text = text
			return
		}
	}
	s.modules[name] = append(entries, memEntry{rev: rev, text: text})
}

// Load implements Source. The synthetic origin follows the file naming
// convention so parser coordinates read naturally.
func (s *MemSource) Load(name string, rev yang.Revision) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.modules[name]
	if e, ok := pickEntry(entries, rev); ok {
		origin := name + ".yang"
		if e.rev != "" {
			origin = fmt.Sprintf("%s@%s.yang", name, e.rev)
		}
		return e.text, origin, nil
	}
	return nil, "", &yangErrors.ModuleNotFound{Name: name, Revision: rev}
}

// pickEntry mirrors the directory resolution order over registered
// entries.
func pickEntry(entries []memEntry, rev yang.Revision) (memEntry, bool) {
	if rev != "" {
		for _, e := range entries {
			if e.rev == rev {
				return e, true
			}
		}
	}
	var newest memEntry
	var found bool
	for _, e := range entries {
		if e.rev == "" {
			return e, true
		}
		if !found || e.rev.Compare(newest.rev) > 0 {
			newest, found = e, true
		}
	}
	// With a requested revision only the unrevisioned entry may stand
	// in for it.
	if rev != "" {
		return memEntry{}, false
	}
	return newest, found
}
