package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ardnew/ytsub/script"
)

const videoJSON = `{
  "id": "abc123",
  "extractor": "youtube",
  "title": "My: Video?",
  "channel": "Nature Channel",
  "ext": "mp4",
  "upload_date": "20210304",
  "view_count": 1500
}`

// TestEvalRun tests rendering templates against an entry file.
func TestEvalRun(t *testing.T) {
	path := writeFile(t, t.TempDir(), "video.info.json", videoJSON)

	tests := []struct {
		name      string
		template  string
		overrides map[string]string
		want      string
		wantErr   error
	}{
		{"metadata", "{title}", nil, "My: Video?", nil},
		{"sanitized", "{title_sanitized}", nil, "My： Video？", nil},
		{"date", "{upload_date_standardized}", nil, "2021-03-04", nil},
		{"function", "{%upper(channel)}", nil, "NATURE CHANNEL", nil},
		{"override", "{show}/{uid}.{ext}", map[string]string{"show": "{channel}"}, "Nature Channel/abc123.mp4", nil},
		{"unknown", "{nope}", nil, "", script.ErrUnknownVariable},
		{"syntax", "{title", nil, "", script.ErrUnterminatedExpression},
		{"override collision", "{title}", map[string]string{"title": "x"}, "", script.ErrVariableCollision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer

			e := &Eval{
				Template:  tt.template,
				Variables: Variables{Entry: path, Override: tt.overrides},
			}

			err := e.Run(context.Background(), &out)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Eval.Run() error = %v, want %v", err, tt.wantErr)
				}

				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if got := strings.TrimSuffix(out.String(), "\n"); got != tt.want {
				t.Errorf("Eval.Run() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestEvalRun_Stdin tests reading the entry from stdin.
func TestEvalRun_Stdin(t *testing.T) {
	saved := stdin
	stdin = strings.NewReader(videoJSON)

	t.Cleanup(func() { stdin = saved })

	var out bytes.Buffer

	e := &Eval{Template: "{uid}", Variables: Variables{Entry: stdinSource}}
	if err := e.Run(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	if out.String() != "abc123\n" {
		t.Errorf("Eval.Run() = %q", out.String())
	}
}

// TestEvalRun_MissingEntry tests that an unreadable entry is reported.
func TestEvalRun_MissingEntry(t *testing.T) {
	e := &Eval{Template: "{uid}", Variables: Variables{Entry: "/nonexistent/entry.json"}}

	if err := e.Run(context.Background(), &bytes.Buffer{}); !errors.Is(err, ErrReadEntry) {
		t.Errorf("Eval.Run() error = %v, want ErrReadEntry", err)
	}
}

// TestVarsRun tests listing variables in each output format.
func TestVarsRun(t *testing.T) {
	path := writeFile(t, t.TempDir(), "video.info.json", videoJSON)

	t.Run("text", func(t *testing.T) {
		var out bytes.Buffer

		v := &Vars{Format: formatText, Filter: "UPLOAD_Y", Variables: Variables{Entry: path}}
		if err := v.Run(context.Background(), &out); err != nil {
			t.Fatal(err)
		}

		if !strings.Contains(out.String(), "upload_year") || !strings.Contains(out.String(), "2021") {
			t.Errorf("output = %q", out.String())
		}

		if strings.Contains(out.String(), "title") {
			t.Errorf("filter kept title: %q", out.String())
		}
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer

		v := &Vars{
			Format:    formatJSON,
			Variables: Variables{Entry: path, Override: map[string]string{"root": "/media"}},
		}
		if err := v.Run(context.Background(), &out); err != nil {
			t.Fatal(err)
		}

		var got map[string]any
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatal(err)
		}

		if got["root"] != "/media" || got["uid"] != "abc123" {
			t.Errorf("root = %v, uid = %v", got["root"], got["uid"])
		}

		if got["upload_year"] != float64(2021) {
			t.Errorf("upload_year = %v (%T)", got["upload_year"], got["upload_year"])
		}

		// The entry has no thumbnail, so thumbnail_ext cannot resolve.
		if _, ok := got["thumbnail_ext"]; ok {
			t.Error("unresolved variable included in JSON output")
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var out bytes.Buffer

		v := &Vars{Format: formatYAML, Filter: "uid", Variables: Variables{Entry: path}}
		if err := v.Run(context.Background(), &out); err != nil {
			t.Fatal(err)
		}

		if !strings.Contains(out.String(), "uid: abc123") {
			t.Errorf("output = %q", out.String())
		}
	})
}

// TestParseRun tests printing the syntax tree and references.
func TestParseRun(t *testing.T) {
	var out bytes.Buffer

	p := &Parse{Template: "{%upper(title)} - {uid} {title}", Refs: true}
	if err := p.Run(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	want := "variables: title, uid\nfunctions: upper\n"
	if out.String() != want {
		t.Errorf("Parse.Run() = %q, want %q", out.String(), want)
	}

	out.Reset()

	p = &Parse{Template: "{uid}"}
	if err := p.Run(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.String(), "uid") {
		t.Errorf("tree = %q", out.String())
	}

	err := (&Parse{Template: "{%f(x"}).Run(context.Background(), &out)
	if !errors.Is(err, script.ErrUnterminatedExpression) {
		t.Errorf("Parse.Run() error = %v, want ErrUnterminatedExpression", err)
	}

	var pe *script.ParseError
	if !errors.As(err, &pe) || pe.Pos.Line != 1 {
		t.Errorf("Parse.Run() error = %v, want a positioned parse error", err)
	}

	if !strings.Contains(err.Error(), "^") {
		t.Errorf("Parse.Run() error = %q, want a caret snippet", err.Error())
	}
}

// TestBoolRun tests the boolean interpretation of rendered values.
func TestBoolRun(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"False", false},
		{"0", false},
		{"[]", false},
		{"null", false},
		{"true", true},
		{"1", true},
		{"anything", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			var out bytes.Buffer

			if err := (&Bool{Value: tt.value}).Run(context.Background(), &out); err != nil {
				t.Fatal(err)
			}

			if got := strings.TrimSpace(out.String()) == "true"; got != tt.want {
				t.Errorf("Bool(%q) = %q, want %v", tt.value, out.String(), tt.want)
			}
		})
	}
}

// TestBoolRun_Exit tests the exit status of --exit.
func TestBoolRun_Exit(t *testing.T) {
	saved := exit

	t.Cleanup(func() { exit = saved })

	code := -1
	exit = func(c int) { code = c }

	var out bytes.Buffer

	if err := (&Bool{Value: "false", Exit: true}).Run(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	if code != 1 || out.Len() != 0 {
		t.Errorf("false: code %d, output %q", code, out.String())
	}

	code = -1

	if err := (&Bool{Value: "yes", Exit: true}).Run(context.Background(), &out); err != nil {
		t.Fatal(err)
	}

	if code != -1 {
		t.Errorf("true: exit called with %d", code)
	}
}
