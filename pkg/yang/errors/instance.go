package errors

import "fmt"

// RawMemberError indicates a member in raw data that the schema does
// not define. The pointer names the offending member.
type RawMemberError struct {
	Pointer string
}

func (e *RawMemberError) Error() string {
	return "unknown member " + e.Pointer
}

// RawTypeError indicates raw data whose shape does not match the
// schema, for example a scalar where an object is required.
type RawTypeError struct {
	Pointer string
	Detail  string
}

func (e *RawTypeError) Error() string {
	return fmt.Sprintf("bad raw value at %s: %s", e.Pointer, e.Detail)
}

// NonexistentInstance indicates navigation to an instance node that is
// not present in the data tree.
type NonexistentInstance struct {
	Path   string
	Detail string
}

func (e *NonexistentInstance) Error() string {
	return fmt.Sprintf("nonexistent instance at %s: %s", e.Path, e.Detail)
}

// InstanceValueError indicates an operation applied to an instance node
// whose value has the wrong shape, for example entry access on a leaf.
type InstanceValueError struct {
	Path   string
	Detail string
}

func (e *InstanceValueError) Error() string {
	return fmt.Sprintf("bad instance value at %s: %s", e.Path, e.Detail)
}

// InvalidKeyValue indicates a list key or leaf-list value that cannot
// be used for entry lookup.
type InvalidKeyValue struct {
	Value string
}

func (e *InvalidKeyValue) Error() string {
	return fmt.Sprintf("invalid key value %q", e.Value)
}
