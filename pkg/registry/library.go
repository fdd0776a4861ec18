package registry

import (
	"encoding/json"
	"fmt"

	"mercator-hq/ganymede/pkg/yang"
	yangErrors "mercator-hq/ganymede/pkg/yang/errors"
)

// Library is decoded RFC 7895 YANG library data: the authoritative list
// of modules making up a data model.
type Library struct {
	// ModuleSetID identifies this module set; servers bump it when
	// the set changes.
	ModuleSetID string
	// Modules lists every module in the set, in library order.
	Modules []LibraryModule
}

// LibraryModule is one module entry of the library.
type LibraryModule struct {
	Name        string
	Revision    yang.Revision
	Namespace   string
	Conformance Conformance
	// Features lists the features of this module that are enabled.
	Features []string
	// Submodules lists the submodules included by this module.
	Submodules []LibrarySubmodule
	// Deviations names modules containing deviations of this module.
	Deviations []string
}

// LibrarySubmodule is one submodule entry of a library module.
type LibrarySubmodule struct {
	Name     string
	Revision yang.Revision
}

// Conformance says how a module participates in the data model.
type Conformance int

const (
	// Implement means the module's data nodes are part of the schema
	// tree.
	Implement Conformance = iota
	// Import means only the module's definitions (typedefs,
	// groupings, identities) are used.
	Import
)

func (c Conformance) String() string {
	if c == Import {
		return "import"
	}
	return "implement"
}

// rawLibrary mirrors the RFC 7895 JSON encoding.
type rawLibrary struct {
	ModulesState *struct {
		ModuleSetID string      `json:"module-set-id"`
		Module      []rawModule `json:"module"`
	} `json:"ietf-yang-library:modules-state"`
}

type rawModule struct {
	Name        string         `json:"name"`
	Revision    string         `json:"revision"`
	Namespace   string         `json:"namespace"`
	Feature     []string       `json:"feature"`
	Conformance string         `json:"conformance-type"`
	Submodule   []rawSubmodule `json:"submodule"`
	Deviation   []string       `json:"deviation"`
}

type rawSubmodule struct {
	Name     string `json:"name"`
	Revision string `json:"revision"`
}

// ParseLibrary decodes and checks YANG library data. Structural
// problems are reported as BadYangLibraryData.
func ParseLibrary(data []byte) (*Library, error) {
	var raw rawLibrary
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &yangErrors.BadYangLibraryData{Reason: err.Error()}
	}
	if raw.ModulesState == nil {
		return nil, &yangErrors.BadYangLibraryData{Reason: `missing "ietf-yang-library:modules-state"`}
	}

	lib := &Library{ModuleSetID: raw.ModulesState.ModuleSetID}
	seen := make(map[ModuleID]bool)

	for _, rm := range raw.ModulesState.Module {
		if !yang.IsIdentifier(rm.Name) {
			return nil, &yangErrors.BadYangLibraryData{Reason: fmt.Sprintf("bad module name %q", rm.Name)}
		}
		rev := yang.Revision(rm.Revision)
		if !rev.Valid() {
			return nil, &yangErrors.BadYangLibraryData{
				Reason: fmt.Sprintf("bad revision %q of module %s", rm.Revision, rm.Name),
			}
		}
		if rm.Namespace == "" {
			return nil, &yangErrors.BadYangLibraryData{
				Reason: "missing namespace of module " + rm.Name,
			}
		}

		var conformance Conformance
		switch rm.Conformance {
		case "implement":
			conformance = Implement
		case "import":
			conformance = Import
		default:
			return nil, &yangErrors.BadYangLibraryData{
				Reason: fmt.Sprintf("bad conformance-type %q of module %s", rm.Conformance, rm.Name),
			}
		}

		id := ModuleID{Name: rm.Name, Revision: rev}
		if seen[id] {
			return nil, &yangErrors.BadYangLibraryData{Reason: "duplicate module " + id.String()}
		}
		seen[id] = true

		lm := LibraryModule{
			Name:        rm.Name,
			Revision:    rev,
			Namespace:   rm.Namespace,
			Conformance: conformance,
			Features:    rm.Feature,
			Deviations:  rm.Deviation,
		}
		for _, rs := range rm.Submodule {
			if !yang.IsIdentifier(rs.Name) {
				return nil, &yangErrors.BadYangLibraryData{
					Reason: fmt.Sprintf("bad submodule name %q in module %s", rs.Name, rm.Name),
				}
			}
			srev := yang.Revision(rs.Revision)
			if !srev.Valid() {
				return nil, &yangErrors.BadYangLibraryData{
					Reason: fmt.Sprintf("bad revision %q of submodule %s", rs.Revision, rs.Name),
				}
			}
			lm.Submodules = append(lm.Submodules, LibrarySubmodule{Name: rs.Name, Revision: srev})
		}
		lib.Modules = append(lib.Modules, lm)
	}

	if len(lib.Modules) == 0 {
		return nil, &yangErrors.BadYangLibraryData{Reason: "empty module list"}
	}
	return lib, nil
}
