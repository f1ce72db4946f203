package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ardnew/ytsub/script"
)

const presetYAML = `
presets:
  base:
    source: youtube
    overrides:
      root: /media
      count: 5
    output_options:
      output_directory: "{root}"
      file_name: "{uid}.{ext}"
  tv_show:
    preset: base
    overrides:
      root: /media/tv
      show_dir: "{root}/{subscription_name_sanitized}"
    output_options:
      output_directory: "{show_dir}"
      file_name: "{upload_date_standardized} - {title_sanitized}.{ext}"
  music:
    preset: [base]
    source: soundcloud
    output_options:
      thumbnail_name: "{uid}.{thumbnail_ext}"
`

func decodePresets(t *testing.T, data string) *Presets {
	t.Helper()

	p, err := DecodePresets(context.Background(), []byte(data))
	if err != nil {
		t.Fatal(err)
	}

	return p
}

func TestDecodePresets(t *testing.T) {
	p := decodePresets(t, presetYAML)

	if got := p.Names(); !slices.Equal(got, []string{"base", "music", "tv_show"}) {
		t.Errorf("Names() = %v", got)
	}

	base, ok := p.Get("base")
	if !ok {
		t.Fatal("base not found")
	}

	if base.Overrides["count"] != "{%int(5)}" {
		t.Errorf("non-string override = %q", base.Overrides["count"])
	}

	music, _ := p.Get("music")
	if !slices.Equal(music.Parents, []string{"base"}) {
		t.Errorf("Parents = %v", music.Parents)
	}
}

func TestPresets_Resolve(t *testing.T) {
	p := decodePresets(t, presetYAML)

	tests := []struct {
		name      string
		presets   []string
		source    string
		applied   []string
		overrides map[string]string
		output    OutputOptions
	}{
		{
			name:    "inherits parent",
			presets: []string{"tv_show"},
			source:  "youtube",
			applied: []string{"base", "tv_show"},
			overrides: map[string]string{
				"root":     "/media/tv",
				"count":    "{%int(5)}",
				"show_dir": "{root}/{subscription_name_sanitized}",
			},
			output: OutputOptions{
				OutputDirectory: "{show_dir}",
				FileName:        "{upload_date_standardized} - {title_sanitized}.{ext}",
			},
		},
		{
			name:    "later preset wins",
			presets: []string{"tv_show", "music"},
			source:  "soundcloud",
			applied: []string{"base", "tv_show", "base", "music"},
			overrides: map[string]string{
				"root":     "/media",
				"count":    "{%int(5)}",
				"show_dir": "{root}/{subscription_name_sanitized}",
			},
			output: OutputOptions{
				OutputDirectory: "{root}",
				FileName:        "{uid}.{ext}",
				ThumbnailName:   "{uid}.{thumbnail_ext}",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Resolve(tt.presets...)
			if err != nil {
				t.Fatal(err)
			}

			if got.Source != tt.source {
				t.Errorf("Source = %q, want %q", got.Source, tt.source)
			}

			if !slices.Equal(got.Parents, tt.applied) {
				t.Errorf("applied = %v, want %v", got.Parents, tt.applied)
			}

			if len(got.Overrides) != len(tt.overrides) {
				t.Errorf("Overrides = %v, want %v", got.Overrides, tt.overrides)
			}

			for k, v := range tt.overrides {
				if got.Overrides[k] != v {
					t.Errorf("Overrides[%s] = %q, want %q", k, got.Overrides[k], v)
				}
			}

			if got.OutputOptions != tt.output {
				t.Errorf("OutputOptions = %+v, want %+v", got.OutputOptions, tt.output)
			}
		})
	}
}

func TestPresets_ResolveErrors(t *testing.T) {
	p := decodePresets(t, `
presets:
  a:
    preset: b
  b:
    preset: [c]
  c:
    preset: a
  d:
    preset: missing
`)

	tests := []struct {
		name   string
		preset string
		attr   string
		want   string
	}{
		{"cycle", "a", "chain", "a -> b -> c -> a"},
		{"missing parent", "d", "parent", "d"},
		{"missing", "nope", "preset", "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Resolve(tt.preset)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}

			var se *script.Error
			if !errors.As(err, &se) {
				t.Fatalf("expected *script.Error, got %T", err)
			}

			if v, ok := se.Attr(tt.attr); !ok || v.String() != tt.want {
				t.Errorf("%s = %v, want %q", tt.attr, v, tt.want)
			}
		})
	}
}

func TestDecodePresets_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		key  string
		kind error
	}{
		{
			name: "unterminated template",
			data: "presets:\n  p:\n    overrides:\n      a: \"{title\"\n",
			key:  "presets.p.overrides.a",
			kind: script.ErrUnterminatedExpression,
		},
		{
			name: "bad output option",
			data: "presets:\n  p:\n    output_options:\n      file_name: \"{}\"\n",
			key:  "presets.p.output_options.file_name",
			kind: script.ErrEmptyExpression,
		},
		{
			name: "unknown field",
			data: "presets:\n  p:\n    overides: {}\n",
		},
		{
			name: "not yaml",
			data: "presets: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePresets(context.Background(), []byte(tt.data))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}

			if tt.kind != nil && !errors.Is(err, tt.kind) {
				t.Errorf("expected %v in chain, got %v", tt.kind, err)
			}

			if tt.key == "" {
				return
			}

			var se *script.Error
			if errors.As(err, &se) {
				if v, ok := se.Attr("key"); !ok || v.String() != tt.key {
					t.Errorf("key = %v, want %q", v, tt.key)
				}
			}
		})
	}
}

func TestLoadPresets_FirstWins(t *testing.T) {
	dir := t.TempDir()

	first := filepath.Join(dir, "first.yaml")
	second := filepath.Join(dir, "second.yaml")

	write(t, first, "presets:\n  p:\n    source: youtube\n")
	write(t, second, "presets:\n  p:\n    source: soundcloud\n  q:\n    source: generic\n")

	p, err := LoadPresets(context.Background(), []string{first, second})
	if err != nil {
		t.Fatal(err)
	}

	if got, _ := p.Get("p"); got.Source != "youtube" {
		t.Errorf("p.Source = %q, want youtube", got.Source)
	}

	if !p.Has("q") {
		t.Error("q not loaded from the second file")
	}

	if _, err := LoadPresets(context.Background(), []string{filepath.Join(dir, "none.yaml")}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func write(t *testing.T, path, data string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
}
