package repl

import (
	"slices"
	"strings"
	"testing"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		cursor     int
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{"no function call", "{title}", 7, "", 0, false},
		{"first arg", "{%upper(", 8, "upper", 0, true},
		{"first arg with value", "{%upper(ti", 10, "upper", 0, true},
		{"second arg", "{%replace(title,", 16, "replace", 1, true},
		{"third arg with value", "{%replace(title, 'a', 'b'", 25, "replace", 2, true},
		{"closed call", "{%upper(title)}", 15, "", 0, false},
		{"nested inner", "{%concat(%upper(ti", 18, "upper", 0, true},
		{"nested after inner", "{%concat(%upper(title), ", 24, "concat", 1, true},
		{"comma in quotes", "{%concat('a,b', ", 16, "concat", 1, true},
		{"paren in quotes", `{%concat("(", `, 14, "concat", 1, true},
		{"cursor before paren", "{%upper(title)}", 2, "", 0, false},
		{"no sigil", "(title", 6, "", 0, false},
		{"cursor past end", "{%upper(", 50, "upper", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, tt.cursor)

			if got.inCall != tt.wantInCall || got.name != tt.wantName || got.argIndex != tt.wantIndex {
				t.Errorf("detectFunctionCall(%q, %d) = %+v, want {name:%s argIndex:%d inCall:%v}",
					tt.input, tt.cursor, got, tt.wantName, tt.wantIndex, tt.wantInCall)
			}
		})
	}
}

func TestCallName(t *testing.T) {
	tests := []struct {
		input string
		paren int
		want  string
	}{
		{"%upper(", 6, "upper"},
		{"{%regex_sub(", 11, "regex_sub"},
		{"upper(", 5, ""},
		{"%(", 1, ""},
		{"(", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := callName(tt.input, tt.paren); got != tt.want {
				t.Errorf("callName(%q, %d) = %q, want %q", tt.input, tt.paren, got, tt.want)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	tests := []struct {
		name       string
		wantParams []string
		wantSig    string
	}{
		{"upper", []string{"String"}, "upper(String) -> String"},
		{"replace", []string{"String", "String", "String", "[Integer]"}, "replace(String, String, String, [Integer]) -> String"},
		{"concat", []string{"String", "..."}, ""},
		{"if", []string{"Any"}, ""},
		{"nonexistent", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, params := getSignature(tt.name)

			if tt.wantParams == nil {
				if sig != "" || params != nil {
					t.Errorf("getSignature(%q) = %q, %v, want nothing", tt.name, sig, params)
				}

				return
			}

			if !strings.HasPrefix(sig, tt.name+"(") {
				t.Errorf("signature %q should start with %q", sig, tt.name+"(")
			}

			if tt.wantSig != "" && sig != tt.wantSig {
				t.Errorf("signature = %q, want %q", sig, tt.wantSig)
			}

			if !slices.Equal(params, tt.wantParams) {
				t.Errorf("params = %v, want %v", params, tt.wantParams)
			}
		})
	}
}

func TestRenderSignatureHint(t *testing.T) {
	tests := []struct {
		name      string
		signature string
		params    []string
		argIdx    int
		contains  []string
	}{
		{
			name:      "empty",
			signature: "",
		},
		{
			name:      "first param",
			signature: "replace(String, String, String, [Integer]) -> String",
			params:    []string{"String", "String", "String", "[Integer]"},
			argIdx:    0,
			contains:  []string{"%replace", "[Integer]", "-> String"},
		},
		{
			name:      "variadic",
			signature: "concat(String, ...) -> String",
			params:    []string{"String", "..."},
			argIdx:    5,
			contains:  []string{"%concat", "..."},
		},
		{
			name:      "malformed",
			signature: "broken",
			contains:  []string{"broken"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderSignatureHint(tt.signature, tt.params, tt.argIdx)

			if tt.signature == "" && got != "" {
				t.Errorf("empty signature rendered %q", got)
			}

			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("hint %q missing %q", got, want)
				}
			}
		})
	}
}

func BenchmarkDetectFunctionCall(b *testing.B) {
	input := "{%concat(%upper(title), ' - ', %replace(channel, 'a', "

	for b.Loop() {
		_ = detectFunctionCall(input, len(input))
	}
}

func BenchmarkGetSignature(b *testing.B) {
	for b.Loop() {
		_, _ = getSignature("replace")
	}
}
