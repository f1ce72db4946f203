package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/ardnew/ytsub/entry"
	"github.com/ardnew/ytsub/script"
)

// DefaultSubtitlesType is the subtitle format used when none is configured.
const DefaultSubtitlesType = "srt"

// SubtitleOptions control the subtitle files written for each entry.
// Boolean options are pointers so an unset option does not replace one set
// by a parent preset.
type SubtitleOptions struct {
	SubtitlesName      string `json:"subtitles_name,omitempty"                 yaml:"subtitles_name,omitempty"`
	SubtitlesType      string `json:"subtitles_type,omitempty"                 yaml:"subtitles_type,omitempty"`
	Languages          Names  `json:"languages,omitempty"                      yaml:"languages,omitempty"`
	EmbedSubtitles     *bool  `json:"embed_subtitles,omitempty"                yaml:"embed_subtitles,omitempty"`
	AllowAutoGenerated *bool  `json:"allow_auto_generated_subtitles,omitempty" yaml:"allow_auto_generated_subtitles,omitempty"`
}

// Enabled reports whether subtitle files are named, which adds the lang and
// subtitles_ext variables.
func (o SubtitleOptions) Enabled() bool { return o.SubtitlesName != "" }

// Type returns the subtitle format.
func (o SubtitleOptions) Type() string {
	if o.SubtitlesType == "" {
		return DefaultSubtitlesType
	}

	return o.SubtitlesType
}

// Langs returns the requested language codes.
func (o SubtitleOptions) Langs() []string {
	if len(o.Languages) == 0 {
		return []string{"en"}
	}

	return slices.Clone(o.Languages)
}

// Embed reports whether subtitles are embedded in the media file.
func (o SubtitleOptions) Embed() bool { return o.EmbedSubtitles != nil && *o.EmbedSubtitles }

// AutoGenerated reports whether automatically generated subtitles are
// accepted.
func (o SubtitleOptions) AutoGenerated() bool {
	return o.AllowAutoGenerated != nil && *o.AllowAutoGenerated
}

// merge returns o with every field set in p applied over it.
func (o SubtitleOptions) merge(p SubtitleOptions) SubtitleOptions {
	if p.SubtitlesName != "" {
		o.SubtitlesName = p.SubtitlesName
	}

	if p.SubtitlesType != "" {
		o.SubtitlesType = p.SubtitlesType
	}

	if p.Languages != nil {
		o.Languages = slices.Clone(p.Languages)
	}

	if p.EmbedSubtitles != nil {
		o.EmbedSubtitles = p.EmbedSubtitles
	}

	if p.AllowAutoGenerated != nil {
		o.AllowAutoGenerated = p.AllowAutoGenerated
	}

	return o
}

func (o SubtitleOptions) validate(ctx context.Context, opts options, key string) error {
	key += ".subtitle_options"

	if o.SubtitlesType != "" && !slices.Contains(entry.SubtitleTypes, o.SubtitlesType) {
		return ErrInvalidConfig.With(
			slog.String("key", key+".subtitles_type"),
			slog.String("reason", "unsupported subtitle type"),
			slog.String("value", o.SubtitlesType),
		)
	}

	if o.SubtitlesName == "" {
		return nil
	}

	if _, err := opts.parse(ctx, o.SubtitlesName); err != nil {
		return invalid(err, key+".subtitles_name")
	}

	return nil
}

// Subtitle is a subtitle file rendered for one language of an entry.
type Subtitle struct {
	Lang     string `json:"lang"      yaml:"lang"`
	FileName string `json:"file_name" yaml:"file_name"`
	Path     string `json:"path"      yaml:"path"`
}

// renderSubtitles names one subtitle file per requested language of e, with
// lang bound to that language.
func (s *Subscription) renderSubtitles(ctx context.Context, e *entry.Entry, dir string) ([]Subtitle, error) {
	if !s.SubtitleOptions.Enabled() {
		return nil, nil
	}

	langs := e.SubtitleLanguages()
	out := make([]Subtitle, 0, len(langs))

	for _, lang := range langs {
		c, err := s.builder.BuildWith(ctx, e, map[string]script.Value{
			entry.VarLang: script.String(lang),
		})
		if err != nil {
			return nil, s.annotate(err, e, "subtitles_name")
		}

		name, err := c.EvaluateString(ctx, s.SubtitleOptions.SubtitlesName)
		if err != nil {
			return nil, s.annotate(err, e, "subtitles_name")
		}

		out = append(out, Subtitle{Lang: lang, FileName: name, Path: filepath.Join(dir, name)})
	}

	return out, nil
}
