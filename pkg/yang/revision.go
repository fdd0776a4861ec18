package yang

import "time"

// Revision is a YANG revision label in "YYYY-MM-DD" form. The empty
// string stands for an unspecified revision.
type Revision string

// Valid reports whether the revision is empty or a well-formed date.
func (r Revision) Valid() bool {
	if r == "" {
		return true
	}
	_, err := time.Parse("2006-01-02", string(r))
	return err == nil
}

// Compare orders two revisions lexicographically, which coincides with
// chronological order for well-formed dates. The empty revision sorts
// before any dated one.
func (r Revision) Compare(other Revision) int {
	switch {
	case r < other:
		return -1
	case r > other:
		return 1
	default:
		return 0
	}
}

func (r Revision) String() string { return string(r) }
