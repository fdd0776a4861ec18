package yang

import "testing"

func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "simple", input: "interface", want: true},
		{name: "underscore start", input: "_hidden", want: true},
		{name: "hyphen and dot", input: "if-mib.v2", want: true},
		{name: "empty", input: "", want: false},
		{name: "leading digit", input: "9lives", want: false},
		{name: "leading hyphen", input: "-prefixed", want: false},
		{name: "embedded space", input: "two words", want: false},
		{name: "embedded colon", input: "a:b", want: false},
		{name: "xml prefix lower", input: "xmlfoo", want: false},
		{name: "xml prefix mixed", input: "XmlBar", want: false},
		{name: "xfoo is fine", input: "xfoo", want: true},
		{name: "xm alone", input: "xm", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsIdentifier(tt.input); got != tt.want {
				t.Errorf("IsIdentifier(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitPName(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantPrefix string
		wantName   string
		wantOK     bool
	}{
		{name: "prefixed", input: "t:foo", wantPrefix: "t", wantName: "foo", wantOK: true},
		{name: "unprefixed", input: "foo", wantPrefix: "", wantName: "foo", wantOK: true},
		{name: "bad local part", input: "t:1foo", wantOK: false},
		{name: "bad prefix", input: "1t:foo", wantOK: false},
		{name: "double colon", input: "a:b:c", wantOK: false},
		{name: "empty", input: "", wantOK: false},
		{name: "trailing colon", input: "t:", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, name, ok := SplitPName(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("SplitPName(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if prefix != tt.wantPrefix || name != tt.wantName {
				t.Errorf("SplitPName(%q) = (%q, %q), want (%q, %q)",
					tt.input, prefix, name, tt.wantPrefix, tt.wantName)
			}
		})
	}
}

func TestQNameString(t *testing.T) {
	tests := []struct {
		name  string
		qname QName
		want  string
	}{
		{name: "qualified", qname: NewQName("test", "contA"), want: "test:contA"},
		{name: "unqualified", qname: QName{Name: "leafA"}, want: "leafA"},
		{name: "zero", qname: QName{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.qname.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRevision(t *testing.T) {
	if !Revision("2026-03-01").Valid() {
		t.Error("well-formed revision reported invalid")
	}
	if !Revision("").Valid() {
		t.Error("empty revision reported invalid")
	}
	if Revision("2026-13-01").Valid() {
		t.Error("month 13 reported valid")
	}
	if Revision("26-03-01").Valid() {
		t.Error("two-digit year reported valid")
	}

	if got := Revision("2025-01-01").Compare("2026-01-01"); got != -1 {
		t.Errorf("Compare older/newer = %d, want -1", got)
	}
	if got := Revision("").Compare("2026-01-01"); got != -1 {
		t.Errorf("Compare empty/dated = %d, want -1", got)
	}
	if got := Revision("2026-01-01").Compare("2026-01-01"); got != 0 {
		t.Errorf("Compare equal = %d, want 0", got)
	}
}
