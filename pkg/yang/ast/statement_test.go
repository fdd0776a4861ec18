package ast

import "testing"

func sampleModule() *Statement {
	return &Statement{
		Keyword: "module", Argument: "test", HasArgument: true,
		Substatements: []*Statement{
			{Keyword: "namespace", Argument: "urn:example:test", HasArgument: true},
			{Keyword: "prefix", Argument: "t", HasArgument: true},
			{Keyword: "import", Argument: "other", HasArgument: true,
				Substatements: []*Statement{
					{Keyword: "prefix", Argument: "o", HasArgument: true},
				}},
			{Keyword: "import", Argument: "third", HasArgument: true,
				Substatements: []*Statement{
					{Keyword: "prefix", Argument: "th", HasArgument: true},
				}},
			{Keyword: "leaf", Argument: "leafA", HasArgument: true,
				Substatements: []*Statement{
					{Keyword: "type", Argument: "string", HasArgument: true},
				}},
		},
	}
}

func TestFind(t *testing.T) {
	m := sampleModule()

	if got := m.Find("prefix"); got == nil || got.Argument != "t" {
		t.Fatalf("Find(prefix) = %v, want prefix t", got)
	}
	if got := m.Find("revision"); got != nil {
		t.Fatalf("Find(revision) = %v, want nil", got)
	}
	// Find does not descend into substatements.
	if got := m.Find("type"); got != nil {
		t.Fatalf("Find(type) = %v, want nil", got)
	}
}

func TestFindAll(t *testing.T) {
	m := sampleModule()

	imports := m.FindAll("import")
	if len(imports) != 2 {
		t.Fatalf("FindAll(import) returned %d statements, want 2", len(imports))
	}
	if imports[0].Argument != "other" || imports[1].Argument != "third" {
		t.Errorf("FindAll(import) order = %q, %q; want other, third",
			imports[0].Argument, imports[1].Argument)
	}
	if got := m.FindAll("revision"); got != nil {
		t.Errorf("FindAll(revision) = %v, want nil", got)
	}
}

func TestFindWithArgument(t *testing.T) {
	m := sampleModule()

	if got := m.FindWithArgument("import", "third"); got == nil {
		t.Fatal("FindWithArgument(import, third) = nil")
	}
	if got := m.FindWithArgument("import", "missing"); got != nil {
		t.Fatalf("FindWithArgument(import, missing) = %v, want nil", got)
	}
}

func TestArgumentOf(t *testing.T) {
	m := sampleModule()

	if arg, ok := m.ArgumentOf("namespace"); !ok || arg != "urn:example:test" {
		t.Errorf("ArgumentOf(namespace) = %q, %v", arg, ok)
	}
	if _, ok := m.ArgumentOf("contact"); ok {
		t.Error("ArgumentOf(contact) reported present")
	}
}

func TestWalk(t *testing.T) {
	m := sampleModule()

	var keywords []string
	Walk(m, VisitorFunc(func(s *Statement) bool {
		keywords = append(keywords, s.Keyword)
		return s.Keyword != "import" // prune import bodies
	}))

	want := []string{"module", "namespace", "prefix", "import", "import", "leaf", "type"}
	if len(keywords) != len(want) {
		t.Fatalf("Walk visited %v, want %v", keywords, want)
	}
	for i := range want {
		if keywords[i] != want[i] {
			t.Fatalf("Walk visited %v, want %v", keywords, want)
		}
	}
}

func TestLocationString(t *testing.T) {
	loc := Location{File: "test.yang", Line: 4, Column: 3}
	if got := loc.String(); got != "test.yang:4:3" {
		t.Errorf("String() = %q, want test.yang:4:3", got)
	}
	if got := (Location{}).String(); got != "<unknown>" {
		t.Errorf("zero String() = %q, want <unknown>", got)
	}
	if (Location{}).IsValid() {
		t.Error("zero location reported valid")
	}
	if !loc.IsValid() {
		t.Error("populated location reported invalid")
	}
}
