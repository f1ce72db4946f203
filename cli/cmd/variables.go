package cmd

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/ardnew/ytsub/entry"
	"github.com/ardnew/ytsub/log"
	"github.com/ardnew/ytsub/script"
)

// Variables selects the entry, source, and overrides a command builds its
// variable context from.
type Variables struct {
	Entry    string            `help:"Entry metadata file (JSON or YAML), or '-' for stdin."                  placeholder:"FILE"          short:"e"`
	Source   string            `enum:",${sources}"                                                             help:"Source whose variables are defined (default: from the entry extractor)." placeholder:"NAME"`
	Override map[string]string `help:"Define an override variable. Repeat for each variable." mapsep:"none" placeholder:"NAME=TEMPLATE" short:"o"`
}

// load reads the selected entry. Without --entry the entry is empty, so
// metadata variables fail only when they are evaluated.
func (v *Variables) load() (*entry.Entry, error) {
	if v.Entry == "" {
		return entry.New(nil), nil
	}

	return loadEntry(v.Entry)
}

// loadEntry reads an entry file, or JSON from stdin when path is "-".
func loadEntry(path string) (*entry.Entry, error) {
	var (
		e   *entry.Entry
		err error
	)

	if path == stdinSource {
		e, err = entry.Decode(stdin, entry.FormatJSON)
	} else {
		e, err = entry.Load(path)
	}

	if err != nil {
		return nil, ErrReadEntry.Wrap(err).With(slog.String("entry", path))
	}

	return e, nil
}

// source returns the source name for e: the --source flag, or the source
// registered for the entry's extractor.
func (v *Variables) source(e *entry.Entry) string {
	if v.Source != "" {
		return v.Source
	}

	extractor, _ := e.String("extractor")

	return entry.SourceFor(extractor).Name
}

// build loads the entry and returns it with its variable context.
func (v *Variables) build(ctx context.Context) (*entry.Entry, *script.Context, error) {
	e, err := v.load()
	if err != nil {
		return nil, nil, err
	}

	source := v.source(e)

	b, err := entry.NewBuilder(source, v.Override, scriptOptions(ctx)...)
	if err != nil {
		return nil, nil, ErrOverride.Wrap(err)
	}

	sc, err := b.Build(ctx, e)
	if err != nil {
		return nil, nil, err
	}

	log.DebugContext(ctx, "variables built",
		slog.String("source", source),
		slog.String("entry", e.ID()),
		slog.Any("overrides", slices.Sorted(maps.Keys(v.Override))))

	return e, sc, nil
}
