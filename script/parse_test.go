package script

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestParse_Nodes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // output of Template.Print
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "literal only",
			input: "plain text",
			want:  "Literal: \"plain text\"\n",
		},
		{
			name:  "variable",
			input: "{title}",
			want:  "Variable: title\n",
		},
		{
			name:  "variable with padding",
			input: "{  title\t}",
			want:  "Variable: title\n",
		},
		{
			name:  "mixed",
			input: "a {b} c",
			want:  "Literal: \"a \"\nVariable: b\nLiteral: \" c\"\n",
		},
		{
			name:  "stray close brace is literal",
			input: "a } b",
			want:  "Literal: \"a } b\"\n",
		},
		{
			name:  "call without arguments",
			input: "{%now()}",
			want:  "Call: now\n",
		},
		{
			name:  "call with variable",
			input: "{%sanitize(title)}",
			want:  "Call: sanitize\n  Variable: title\n",
		},
		{
			name:  "nested calls",
			input: "{%upper(%lower(%string(x)))}",
			want:  "Call: upper\n  Call: lower\n    Call: string\n      Variable: x\n",
		},
		{
			name:  "constants",
			input: `{%f("a", 'b', 5, -3, 1.5, 1e+16, True, False)}`,
			want: "Call: f\n" +
				"  String: \"a\"\n" +
				"  String: \"b\"\n" +
				"  Integer: 5\n" +
				"  Integer: -3\n" +
				"  Float: 1.5\n" +
				"  Float: 1e+16\n" +
				"  Boolean: True\n" +
				"  Boolean: False\n",
		},
		{
			name:  "raw string keeps braces and quotes",
			input: `{%from_json('''{"a": "it's {x}"}''')}`,
			want:  "Call: from_json\n  String: \"{\\\"a\\\": \\\"it's {x}\\\"}\"\n",
		},
		{
			name:  "raw string keeps newlines",
			input: "{%f('''a\nb''')}",
			want:  "Call: f\n  String: \"a\\nb\"\n",
		},
		{
			name:  "escapes",
			input: `{%f("q\"t\\n", 'it\'s')}`,
			want:  "Call: f\n  String: \"q\\\"t\\\\n\"\n  String: \"it's\"\n",
		},
		{
			name:  "whitespace between arguments",
			input: "{%f( a ,\n b )}",
			want:  "Call: f\n  Variable: a\n  Variable: b\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Parse(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			var buf bytes.Buffer

			if err := tmpl.Print(&buf); err != nil {
				t.Fatalf("print error: %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   *Error
		line   int
		column int
	}{
		{"empty expression", "a {} b", ErrEmptyExpression, 1, 3},
		{"blank expression", "{  }", ErrEmptyExpression, 1, 1},
		{"unterminated variable", "abc {title", ErrUnterminatedExpression, 1, 5},
		{"unterminated open brace", "{", ErrUnterminatedExpression, 1, 1},
		{"unterminated call", "{%f(a, b", ErrUnterminatedExpression, 1, 1},
		{"unterminated call close", "{%f(a)", ErrUnterminatedExpression, 1, 1},
		{"unterminated raw string", "{%f('''abc)}", ErrUnterminatedStringLiteral, 1, 5},
		{"unterminated quoted string", `{%f("abc)}`, ErrUnterminatedStringLiteral, 1, 5},
		{"missing function name", "{%(a)}", ErrUnknownFunctionSyntax, 1, 3},
		{"missing paren", "{%f a}", ErrUnknownFunctionSyntax, 1, 5},
		{"missing comma", "{%f(a b)}", ErrUnknownFunctionSyntax, 1, 7},
		{"trailing comma", "{%f(a,)}", ErrUnknownFunctionSyntax, 1, 7},
		{"text after call", "{%f(a) x}", ErrUnknownFunctionSyntax, 1, 8},
		{"bare sign", "{%f(-)}", ErrUnknownFunctionSyntax, 1, 6},
		{"invalid variable", "{1abc}", ErrInvalidVariableName, 1, 2},
		{"two words", "{a b}", ErrInvalidVariableName, 1, 4},
		{"second line", "ok\n  {}", ErrEmptyExpression, 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), tt.input)
			if err == nil {
				t.Fatal("expected error")
			}

			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}

			if pe.Pos.Line != tt.line || pe.Pos.Column != tt.column {
				t.Errorf("position: got %s, want %d:%d", pe.Pos, tt.line, tt.column)
			}

			if pe.Source != tt.input {
				t.Errorf("source: got %q, want %q", pe.Source, tt.input)
			}
		})
	}
}

func TestParse_StringLiteralBytes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"invalid utf8", "{%concat('a\xffb')}", "a\xffb"},
		{"invalid utf8 after escape", "{%concat('\\\xfe')}", "\\\xfe"},
		{"multibyte", `{%concat("héllo")}`, "héllo"},
		{"triple quoted", "{%concat('''\xff''')}", "\xff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Parse(context.Background(), tt.input)
			if err != nil {
				t.Fatal(err)
			}

			call, ok := tmpl.Nodes[0].(*Call)
			if !ok || len(call.Args) != 1 {
				t.Fatalf("unexpected nodes %#v", tmpl.Nodes)
			}

			c, ok := call.Args[0].(*Constant)
			if !ok {
				t.Fatalf("argument is %T", call.Args[0])
			}

			if got := c.Value.String(); got != tt.want {
				t.Errorf("literal = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseError_Snippet(t *testing.T) {
	_, err := Parse(context.Background(), "file {}.mp4")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}

	want := "  1 | file {}.mp4\n" +
		"           ^\n"
	if got := pe.Snippet(); got != want {
		t.Errorf("snippet:\n%q\nwant:\n%q", got, want)
	}

	if msg := pe.Error(); !strings.HasPrefix(msg, "parse error at line 1, column 6: empty expression") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestParse_ErrorsAreNotOtherKinds(t *testing.T) {
	_, err := Parse(context.Background(), "{}")
	if errors.Is(err, ErrUnterminatedExpression) {
		t.Error("empty expression must not match unterminated expression")
	}

	if errors.Is(err, ErrUnknownVariable) {
		t.Error("parse error must not match a resolution error")
	}
}

func TestTemplate_VariablesAndFunctions(t *testing.T) {
	tmpl := MustParse("{a}{%f(b, %g(a, c), 'x')}{b}{%f(d)}")

	vars := slices.Collect(tmpl.Variables())
	if want := []string{"a", "b", "c", "d"}; !slices.Equal(vars, want) {
		t.Errorf("variables: got %v, want %v", vars, want)
	}

	funcs := slices.Collect(tmpl.Functions())
	if want := []string{"f", "g"}; !slices.Equal(funcs, want) {
		t.Errorf("functions: got %v, want %v", funcs, want)
	}
}

func TestTemplate_IsLiteral(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"abc", true},
		{"a } b", true},
		{"{a}", false},
		{"x {%f()} y", false},
	}

	for _, tt := range tests {
		if got := MustParse(tt.input).IsLiteral(); got != tt.want {
			t.Errorf("IsLiteral(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"title", true},
		{"_x1", true},
		{"Upload_Year", true},
		{"", false},
		{"1a", false},
		{"a-b", false},
		{"a b", false},
	}

	for _, tt := range tests {
		if got := IsIdentifier(tt.name); got != tt.want {
			t.Errorf("IsIdentifier(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
