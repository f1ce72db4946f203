package config

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/ardnew/ytsub/entry"
	"github.com/ardnew/ytsub/script"
)

// Output is the set of file names rendered for one entry of a subscription.
type Output struct {
	Subscription    string `json:"subscription"             yaml:"subscription"`
	UID             string `json:"uid"                      yaml:"uid"`
	OutputDirectory string `json:"output_directory"         yaml:"output_directory"`
	FileName        string `json:"file_name"                yaml:"file_name"`
	ThumbnailName   string `json:"thumbnail_name,omitempty" yaml:"thumbnail_name,omitempty"`
	InfoJSONName    string `json:"info_json_name,omitempty" yaml:"info_json_name,omitempty"`
	Path            string `json:"path"                     yaml:"path"`

	Subtitles []Subtitle `json:"subtitles,omitempty" yaml:"subtitles,omitempty"`
}

// Context builds the variable context of e for the subscription.
func (s *Subscription) Context(ctx context.Context, e *entry.Entry) (*script.Context, error) {
	c, err := s.builder.Build(ctx, e)
	if err != nil {
		return nil, s.annotate(err, e, "")
	}

	return c, nil
}

// Render evaluates the output options of the subscription for e.
func (s *Subscription) Render(ctx context.Context, e *entry.Entry) (*Output, error) {
	c, err := s.Context(ctx, e)
	if err != nil {
		return nil, err
	}

	out := &Output{Subscription: s.Name, UID: e.ID()}

	targets := []*string{
		&out.OutputDirectory,
		&out.FileName,
		&out.ThumbnailName,
		&out.InfoJSONName,
	}

	for i, f := range s.OutputOptions.fields() {
		if f[1] == "" {
			continue
		}

		v, err := c.EvaluateString(ctx, f[1])
		if err != nil {
			return nil, s.annotate(err, e, f[0])
		}

		*targets[i] = v
	}

	out.Path = filepath.Join(out.OutputDirectory, out.FileName)

	if out.Subtitles, err = s.renderSubtitles(ctx, e, out.OutputDirectory); err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Subscription) annotate(err error, e *entry.Entry, option string) error {
	attrs := []slog.Attr{slog.String("subscription", s.Name)}

	if _, ok := script.AttrOf(err, "entry"); !ok {
		if id := e.ID(); id != "" {
			attrs = append(attrs, slog.String("entry", id))
		}
	}

	if option != "" {
		attrs = append(attrs, slog.String("option", option))
	}

	return script.WrapError(err).With(attrs...)
}
