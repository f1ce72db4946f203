package cmd

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/expr-lang/expr/parser"

	"github.com/ardnew/ytsub/entry"
)

func TestMatcher(t *testing.T) {
	e, err := entry.Decode(
		strings.NewReader(`{"id": "x", "title": "Live Show", "duration": 93.5, "view_count": 42, "tags": ["music", "live"]}`),
		entry.FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		src     string
		want    bool
		wantErr bool
	}{
		{"", true, false},
		{"view_count == 42", true, false},
		{"duration > 90 && duration < 100", true, false},
		{`title contains "Live"`, true, false},
		{`"music" in tags`, true, false},
		{`subscription_name startsWith "Con"`, true, false},
		{`subscription_name == "Other"`, false, false},
		{"missing > 1", false, true},
		{"duration > 90", true, false},
		{`date == nil`, true, false},
		{`upper(title) == "LIVE SHOW"`, true, false},
		{`len(tags) == 2 && duration < 100`, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			m, err := compileMatch(tt.src)
			if err != nil {
				t.Fatal(err)
			}

			got, err := m.match(e, "Concerts")
			if (err != nil) != tt.wantErr {
				t.Fatalf("match() error = %v, wantErr %v", err, tt.wantErr)
			}

			if err != nil && !errors.Is(err, ErrMatch) {
				t.Errorf("match() error = %v, want ErrMatch", err)
			}

			if got != tt.want {
				t.Errorf("match() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestShadowedBuiltins tests that only bare references to builtin names are
// treated as metadata fields.
func TestShadowedBuiltins(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"view_count > 1", nil},
		{"duration > 90 && duration < 100", []string{"duration"}},
		{`date != nil || now() != nil`, []string{"date"}},
		{`upper(title) == "X"`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tree, err := parser.Parse(tt.src)
			if err != nil {
				t.Fatal(err)
			}

			if got := shadowedBuiltins(tree.Node); !slices.Equal(got, tt.want) {
				t.Errorf("shadowedBuiltins() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompileMatch_Errors(t *testing.T) {
	for _, src := range []string{"view_count >", `"not a bool"`, "1 +"} {
		if _, err := compileMatch(src); !errors.Is(err, ErrMatch) {
			t.Errorf("compileMatch(%q) error = %v, want ErrMatch", src, err)
		}
	}
}

func TestMatchValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"integer", json.Number("7"), int64(7)},
		{"float", json.Number("1.25"), 1.25},
		{"string", "s", "s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchValue(tt.in); got != tt.want {
				t.Errorf("matchValue(%v) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
			}
		})
	}

	nested := matchValue(map[string]any{"n": []any{json.Number("3")}}).(map[string]any)
	if list, ok := nested["n"].([]any); !ok || list[0] != int64(3) {
		t.Errorf("nested = %v", nested)
	}
}
