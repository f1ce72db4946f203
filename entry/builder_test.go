package entry

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/ardnew/ytsub/script"
)

func TestBuilder_EntryScenario(t *testing.T) {
	b, err := NewBuilder("youtube", map[string]string{
		"file_title": "{upload_date_standardized} - {title}",
		"season":     "{upload_year}",
	})
	if err != nil {
		t.Fatal(err)
	}

	c, err := b.Build(context.Background(), New(sampleFields()))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		template string
		want     string
	}{
		{"{uid}", "abc123"},
		{"{thumbnail_ext}", "jpg"},
		{"{upload_year}", "2021"},
		{"{upload_month_padded}/{upload_day_padded}", "01/01"},
		{"{upload_date_standardized}", "2021-01-01"},
		{"{sanitized_title}", "My： Video？"},
		{"{title_sanitized}", "My： Video？"},
		{"{file_title_sanitized}", "2021-01-01 - My： Video？"},
		{"{channel}/Season {season}", "Some Channel/Season 2021"},
		{"{%add(season, 1)}", "2022"},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			got, err := c.EvaluateString(context.Background(), tt.template)
			if err != nil {
				t.Fatal(err)
			}

			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuilder_SanitizedForEveryName(t *testing.T) {
	b, err := NewBuilder("soundcloud", map[string]string{"album": "x"})
	if err != nil {
		t.Fatal(err)
	}

	c, err := b.Build(context.Background(), New(sampleFields()))
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range c.Declared() {
		if len(name) > len(SanitizedSuffix) && name[len(name)-len(SanitizedSuffix):] == SanitizedSuffix {
			continue
		}

		if !c.Has(name + SanitizedSuffix) {
			t.Errorf("%s has no sanitized variant", name)
		}
	}

	for _, name := range []string{"artist_sanitized", "track_number_sanitized", "album_sanitized"} {
		if !c.Has(name) {
			t.Errorf("missing %s", name)
		}
	}

	if c.Has("channel") {
		t.Error("soundcloud context should not define youtube variables")
	}
}

func TestNewBuilder_Errors(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		overrides map[string]string
		want      error
	}{
		{
			name:      "function name",
			overrides: map[string]string{"sanitize": "x"},
			want:      script.ErrReservedName,
		},
		{
			name:      "shadows entry variable",
			overrides: map[string]string{"title": "x"},
			want:      script.ErrVariableCollision,
		},
		{
			name:      "shadows source variable",
			source:    "youtube",
			overrides: map[string]string{"channel": "x"},
			want:      script.ErrVariableCollision,
		},
		{
			name:      "explicit sanitized variant",
			overrides: map[string]string{"title_sanitized": "x"},
			want:      script.ErrVariableCollision,
		},
		{
			name:      "explicit sanitized override variant",
			overrides: map[string]string{"a": "x", "a_sanitized": "y"},
			want:      script.ErrVariableCollision,
		},
		{
			name:      "invalid name",
			overrides: map[string]string{"not valid": "x"},
			want:      script.ErrInvalidVariableName,
		},
		{
			name:   "unknown source",
			source: "myspace",
			want:   ErrUnknownSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(tt.source, tt.overrides)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestBuilder_MissingMetadataIsLazy(t *testing.T) {
	b, err := NewBuilder("", map[string]string{"name": "{title}"})
	if err != nil {
		t.Fatal(err)
	}

	c, err := b.Build(context.Background(), New(map[string]any{"id": "abc123"}))
	if err != nil {
		t.Fatalf("building with sparse metadata failed: %v", err)
	}

	if got, err := c.EvaluateString(context.Background(), "{uid}"); err != nil || got != "abc123" {
		t.Fatalf("got %q, %v", got, err)
	}

	_, err = c.EvaluateString(context.Background(), "{name_sanitized}")
	if !errors.Is(err, script.ErrMetadata) {
		t.Fatalf("expected ErrMetadata, got %v", err)
	}

	var se *script.Error
	if errors.As(err, &se) {
		if v, ok := se.Attr("field"); !ok || v.String() != "title" {
			t.Errorf("field attribute = %v", v)
		}
	}
}

func TestBuilder_OverrideCycle(t *testing.T) {
	b, err := NewBuilder("", map[string]string{"a": "{b}", "b": "{a}"})
	if err != nil {
		t.Fatal(err)
	}

	c, err := b.Build(context.Background(), New(sampleFields()))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.ResolveString(context.Background(), "a"); !errors.Is(err, script.ErrCyclicReference) {
		t.Errorf("expected ErrCyclicReference, got %v", err)
	}
}

func TestBuilder_ContextsAreIndependent(t *testing.T) {
	b, err := NewBuilder("", map[string]string{"label": "{uid}-{ext}"})
	if err != nil {
		t.Fatal(err)
	}

	ids := []string{"one", "two", "three"}
	got := make([]string, 0, len(ids))

	for _, id := range ids {
		c, err := b.Build(context.Background(), New(map[string]any{"id": id, "ext": "mkv"}))
		if err != nil {
			t.Fatal(err)
		}

		s, err := c.ResolveString(context.Background(), "label")
		if err != nil {
			t.Fatal(err)
		}

		got = append(got, s)
	}

	want := []string{"one-mkv", "two-mkv", "three-mkv"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBuilder_OverridesAreCopied(t *testing.T) {
	overrides := map[string]string{"a": "1"}

	b, err := NewBuilder("", overrides)
	if err != nil {
		t.Fatal(err)
	}

	overrides["a"] = "2"

	if b.Overrides()["a"] != "1" {
		t.Error("builder shares the caller's map")
	}
}

func TestBuilder_WithSubtitleVariables(t *testing.T) {
	base, err := NewBuilder("", map[string]string{"subtitle_file": "{uid}.{lang}.{subtitles_ext}"})
	if err != nil {
		t.Fatal(err)
	}

	b, err := base.WithVariables(SubtitleVariables("vtt")...)
	if err != nil {
		t.Fatal(err)
	}

	if len(b.Variables()) != len(base.Variables())+2 {
		t.Errorf("got %d variables, want %d", len(b.Variables()), len(base.Variables())+2)
	}

	e := New(map[string]any{
		"id": "x",
		"requested_subtitles": map[string]any{
			"es": map[string]any{}, "en": map[string]any{},
		},
	})

	c, err := b.Build(context.Background(), e)
	if err != nil {
		t.Fatal(err)
	}

	if got, err := c.EvaluateString(context.Background(), "{subtitle_file}"); err != nil || got != "x.en,es.vtt" {
		t.Errorf("subtitle_file = %q, %v", got, err)
	}

	one, err := b.BuildWith(context.Background(), e, map[string]script.Value{VarLang: script.String("es")})
	if err != nil {
		t.Fatal(err)
	}

	if got, err := one.EvaluateString(context.Background(), "{subtitle_file} {lang_sanitized}"); err != nil || got != "x.es.vtt es" {
		t.Errorf("subtitle_file = %q, %v", got, err)
	}

	// The base builder is unchanged.
	c, err = base.Build(context.Background(), e)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.EvaluateString(context.Background(), "{subtitle_file}"); !errors.Is(err, script.ErrUnknownVariable) {
		t.Errorf("base builder resolved lang: %v", err)
	}
}

func TestBuilder_WithVariablesCollision(t *testing.T) {
	b, err := NewBuilder("", map[string]string{VarLang: "en"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := b.WithVariables(SubtitleVariables("srt")...); !errors.Is(err, script.ErrVariableCollision) {
		t.Errorf("expected ErrVariableCollision, got %v", err)
	}
}

func TestSubtitleVariables_NoSubtitles(t *testing.T) {
	for _, fields := range []map[string]any{
		{"id": "x"},
		{"id": "x", "requested_subtitles": nil},
		{"id": "x", "requested_subtitles": map[string]any{}},
	} {
		e := New(fields)

		if langs := e.SubtitleLanguages(); len(langs) != 0 {
			t.Errorf("SubtitleLanguages() = %v", langs)
		}

		if _, err := SubtitleVariables("srt")[0].Get(e); !errors.Is(err, script.ErrMetadata) {
			t.Errorf("lang of %v: expected ErrMetadata, got %v", fields, err)
		}
	}
}
