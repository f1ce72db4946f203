package script

import (
	"context"
	"testing"
)

func TestToScript(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, ""},
		{"string", "a {b}", "a {b}"},
		{"int", 5, "{%int(5)}"},
		{"negative int", int64(-3), "{%int(-3)}"},
		{"float", 1.5, "{%float(1.5)}"},
		{"integral float", 2.0, "{%float(2.0)}"},
		{"true", true, "{%bool(True)}"},
		{"false", false, "{%bool(False)}"},
		{"list", []any{1, "a"}, `{%from_json('''[1, "a"]''')}`},
		{"sorted keys", map[string]any{"b": 1, "a": map[string]any{"d": 2, "c": 3}}, `{%from_json('''{"a": {"c": 3, "d": 2}, "b": 1}''')}`},
		{"non-ascii", map[string]any{"k": "é"}, `{%from_json('''{"k": "é"}''')}`},
		{"quote run collapsed", []any{"it'''s", "a''b"}, `{%from_json('''["it's", "a''b"]''')}`},
		{"value", Integer(9), "{%int(9)}"},
		{"empty value", Empty(), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToScript(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToScript_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"absence", nil, ""},
		{"integer", 5, "5"},
		{"float", 1.5, "1.5"},
		{"boolean", true, "True"},
		{"large float", 1e20, "1e+20"},
		{"small float", -2.5e-7, "-2.5e-07"},
		{"infinity", float64Inf(), "inf"},
		{"structured", map[string]any{"x": []any{1, 2.5, nil, false, "q\"{}"}}, `{"x": [1, 2.5, null, false, "q\"{}"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := ToScript(tt.input)

			got, err := NewContext().EvaluateString(context.Background(), script)
			if err != nil {
				t.Fatalf("evaluate %q: %v", script, err)
			}

			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToScript_StructuredRoundTripIsLossless(t *testing.T) {
	input := map[string]any{
		"title": "Ünïcode ‘quotes’ and 'single' ''pairs''",
		"tags":  []any{"a", "b"},
		"n":     int64(3),
		"f":     0.25,
		"deep":  map[string]any{"k": []any{map[string]any{"z": true}}},
	}

	want, err := FromNative(input)
	if err != nil {
		t.Fatal(err)
	}

	c := NewContext()
	if err := c.Define("payload", ToScript(input)); err != nil {
		t.Fatal(err)
	}

	got, err := c.Resolve(context.Background(), "payload")
	if err != nil {
		t.Fatal(err)
	}

	if !got.Equal(want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestBoolOf(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", false},
		{"false", false},
		{"False", false},
		{"FALSE", false},
		{"0", false},
		{"0.0", false},
		{"-0", false},
		{`""`, false},
		{"[]", false},
		{"{}", false},
		{"null", false},
		{" 0 ", false},
		{"hello", true},
		{"true", true},
		{"True", true},
		{"1", true},
		{"[0]", true},
		{`{"a": false}`, true},
		{`"false"`, true},
		{"none", true},
		{"0x0", true},
	}

	for _, tt := range tests {
		if got := BoolOf(tt.input); got != tt.want {
			t.Errorf("BoolOf(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func float64Inf() float64 {
	var zero float64

	return 1 / zero
}
