package script

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "My Video 01", "My Video 01"},
		{"colon and question mark", "My: Video?", "My： Video？"},
		{"slashes", `a/b\c`, "a⧸b⧹c"},
		{"windows specials", `"*<>|`, "＂＊＜＞｜"},
		{"control characters", "a\x00b\tc\nd\x7f", "abcd"},
		{"trailing dots and spaces", "name. . ", "name"},
		{"leading dots kept", "..hidden", "..hidden"},
		{"only dots", "...", ""},
		{"reserved", "CON", "CON_"},
		{"reserved lower case", "nul", "nul_"},
		{"reserved after trim", "aux.", "aux_"},
		{"reserved with extension is fine", "con.txt", "con.txt"},
		{"not reserved", "COM10", "COM10"},
		{"invalid utf-8", "a\xffb", "ab"},
		{"unicode kept", "日本語 ✓", "日本語 ✓"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func FuzzSanitize(f *testing.F) {
	f.Add("My: Video?")
	f.Add(`a/b\c"*<>|`)
	f.Add("CON")
	f.Add("lpt1. ")
	f.Add("x\x00y\x1f.")
	f.Add("\xff\xfe")

	f.Fuzz(func(t *testing.T, input string) {
		once := Sanitize(input)

		if twice := Sanitize(once); twice != once {
			t.Fatalf("not idempotent: %q -> %q -> %q", input, once, twice)
		}

		if !utf8.ValidString(once) {
			t.Fatalf("invalid UTF-8 output %q", once)
		}

		if strings.ContainsAny(once, `/\:*?"<>|`) {
			t.Fatalf("illegal character in %q", once)
		}

		for _, r := range once {
			if r < 0x20 || r == 0x7f {
				t.Fatalf("control character in %q", once)
			}
		}

		if strings.HasSuffix(once, ".") || strings.HasSuffix(once, " ") {
			t.Fatalf("trailing dot or space in %q", once)
		}

		if _, ok := reservedNames[strings.ToUpper(once)]; ok {
			t.Fatalf("reserved name %q", once)
		}
	})
}
