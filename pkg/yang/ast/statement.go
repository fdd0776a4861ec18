package ast

// Statement is one YANG statement: a keyword, an optional argument and
// zero or more substatements. Extension statements carry their prefix
// in the keyword ("prefix:keyword"); the core grammar never does.
type Statement struct {
	// Keyword is the statement keyword, e.g. "leaf" or "md:annotation".
	Keyword string
	// Argument is the statement argument with quoting and string
	// concatenation already resolved.
	Argument string
	// HasArgument distinguishes an empty argument from a missing one.
	HasArgument bool
	// Location points at the keyword in the source file.
	Location Location
	// Substatements are the nested statements in source order.
	Substatements []*Statement
}

// Find returns the first substatement with the given keyword, or nil.
func (s *Statement) Find(keyword string) *Statement {
	for _, sub := range s.Substatements {
		if sub.Keyword == keyword {
			return sub
		}
	}
	return nil
}

// FindAll returns all substatements with the given keyword, in source
// order. The result is nil when there are none.
func (s *Statement) FindAll(keyword string) []*Statement {
	var out []*Statement
	for _, sub := range s.Substatements {
		if sub.Keyword == keyword {
			out = append(out, sub)
		}
	}
	return out
}

// FindWithArgument returns the first substatement matching both keyword
// and argument, or nil.
func (s *Statement) FindWithArgument(keyword, argument string) *Statement {
	for _, sub := range s.Substatements {
		if sub.Keyword == keyword && sub.Argument == argument {
			return sub
		}
	}
	return nil
}

// ArgumentOf returns the argument of the first substatement with the
// given keyword, and whether such a substatement exists.
func (s *Statement) ArgumentOf(keyword string) (string, bool) {
	if sub := s.Find(keyword); sub != nil {
		return sub.Argument, true
	}
	return "", false
}

// Visitor visits statements during a Walk traversal.
type Visitor interface {
	// Visit is called for each statement. Returning false prunes the
	// statement's substatements from the traversal.
	Visit(s *Statement) bool
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(s *Statement) bool

// Visit implements Visitor.
func (f VisitorFunc) Visit(s *Statement) bool { return f(s) }

// Walk traverses the statement tree depth-first in source order,
// calling v.Visit for each statement.
func Walk(s *Statement, v Visitor) {
	if s == nil {
		return
	}
	if !v.Visit(s) {
		return
	}
	for _, sub := range s.Substatements {
		Walk(sub, v)
	}
}
