package reactive

import (
	stderrors "errors"
	"testing"

	"github.com/vango-dev/vstore/internal/errors"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"", nil},
		{"count", []string{"count"}},
		{"a.b.c", []string{"a", "b", "c"}},
		{"a.b[2].c", []string{"a", "b", "[2]", "c"}},
		{"items[0][1]", []string{"items", "[0]", "[1]"}},
		{"[3]", []string{"[3]"}},
		{"a_1.B2", []string{"a_1", "B2"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			segs, err := ParsePath(tt.path)
			if err != nil {
				t.Fatalf("ParsePath(%q) error: %v", tt.path, err)
			}
			if len(segs) != len(tt.want) {
				t.Fatalf("ParsePath(%q) = %v, want %v", tt.path, segs, tt.want)
			}
			for i, s := range segs {
				if s.String() != tt.want[i] {
					t.Errorf("segment %d = %q, want %q", i, s.String(), tt.want[i])
				}
			}
		})
	}
}

func TestParsePathMalformed(t *testing.T) {
	bad := []string{
		"a-b",
		"a b",
		"a..b",
		".a",
		"a.",
		"a[",
		"a]",
		"a[x]",
		"a[-1]",
		"a[0]b",
		"state.items['x']",
	}
	for _, p := range bad {
		t.Run(p, func(t *testing.T) {
			_, err := ParsePath(p)
			if err == nil {
				t.Fatalf("ParsePath(%q) succeeded, want error", p)
			}
			if !stderrors.Is(err, errors.New("E204")) {
				t.Errorf("ParsePath(%q) error = %v, want E204", p, err)
			}
		})
	}
}

func TestJoinPath(t *testing.T) {
	if got := JoinPath("", "a", false); got != "a" {
		t.Errorf("got %q", got)
	}
	if got := JoinPath("a", "b", false); got != "a.b" {
		t.Errorf("got %q", got)
	}
	if got := JoinPath("a.b", "2", true); got != "a.b[2]" {
		t.Errorf("got %q", got)
	}
}

func TestRootSegment(t *testing.T) {
	tests := map[string]string{
		"count":    "count",
		"a.b":      "a",
		"items[0]": "items",
		"":         "",
	}
	for in, want := range tests {
		if got := RootSegment(in); got != want {
			t.Errorf("RootSegment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsWithin(t *testing.T) {
	tests := []struct {
		path, prefix string
		want         bool
	}{
		{"a.b", "a.b", true},
		{"a.b.c", "a.b", true},
		{"a.b[0]", "a.b", true},
		{"a.bc", "a.b", false},
		{"a", "a.b", false},
		{"anything", "", true},
	}
	for _, tt := range tests {
		if got := IsWithin(tt.path, tt.prefix); got != tt.want {
			t.Errorf("IsWithin(%q, %q) = %v, want %v", tt.path, tt.prefix, got, tt.want)
		}
	}
}
