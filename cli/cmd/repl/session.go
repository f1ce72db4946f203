package repl

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/ytsub/entry"
	"github.com/ardnew/ytsub/log"
	"github.com/ardnew/ytsub/script"
)

// Session is the state evaluated by the REPL: an entry, the source whose
// variables it defines, and the override variables layered on top.
type Session struct {
	source    string // empty derives the source from the entry extractor
	overrides map[string]string
	entry     *entry.Entry
	opts      []script.Option
	logger    log.Logger

	vars *script.Context
}

// NewSession builds the variable context of e. source may be empty to use
// the source registered for the entry's extractor.
func NewSession(
	ctx context.Context,
	e *entry.Entry,
	source string,
	overrides map[string]string,
	logger log.Logger,
	opts ...script.Option,
) (*Session, error) {
	if e == nil {
		e = entry.New(nil)
	}

	s := &Session{
		source:    source,
		overrides: maps.Clone(overrides),
		entry:     e,
		opts:      opts,
		logger:    logger,
	}

	if s.overrides == nil {
		s.overrides = make(map[string]string)
	}

	vars, err := s.build(ctx, s.entry, s.overrides)
	if err != nil {
		return nil, err
	}

	s.vars = vars

	return s, nil
}

// Source returns the name of the source in effect.
func (s *Session) Source() string {
	return s.sourceOf(s.entry)
}

func (s *Session) sourceOf(e *entry.Entry) string {
	if s.source != "" {
		return s.source
	}

	extractor, _ := e.String("extractor")

	return entry.SourceFor(extractor).Name
}

// Entry returns the loaded entry.
func (s *Session) Entry() *entry.Entry { return s.entry }

// Overrides returns a copy of the override variables.
func (s *Session) Overrides() map[string]string { return maps.Clone(s.overrides) }

// Names returns every variable name in sorted order.
func (s *Session) Names() []string { return s.vars.Names() }

// Template returns the template of a declared variable.
func (s *Session) Template(name string) (string, bool) { return s.vars.Source(name) }

func (s *Session) build(
	ctx context.Context,
	e *entry.Entry,
	overrides map[string]string,
) (*script.Context, error) {
	b, err := entry.NewBuilder(s.sourceOf(e), overrides, s.opts...)
	if err != nil {
		return nil, err
	}

	vars, err := b.Build(ctx, e)
	if err != nil {
		return nil, err
	}

	s.logger.TraceContext(ctx, "repl session built",
		slog.String("source", s.sourceOf(e)),
		slog.String("entry", e.ID()),
		slog.Int("overrides", len(overrides)))

	return vars, nil
}

// apply rebuilds the context from e and overrides, keeping the current state
// when the build fails.
func (s *Session) apply(ctx context.Context, e *entry.Entry, overrides map[string]string) error {
	vars, err := s.build(ctx, e, overrides)
	if err != nil {
		return err
	}

	s.entry, s.overrides, s.vars = e, overrides, vars

	return nil
}

// Set defines or replaces an override variable.
func (s *Session) Set(ctx context.Context, name, template string) error {
	next := maps.Clone(s.overrides)
	next[name] = template

	return s.apply(ctx, s.entry, next)
}

// Unset removes an override variable.
func (s *Session) Unset(ctx context.Context, name string) error {
	if _, ok := s.overrides[name]; !ok {
		return script.ErrUnknownVariable.With(slog.String("variable", name))
	}

	next := maps.Clone(s.overrides)
	delete(next, name)

	return s.apply(ctx, s.entry, next)
}

// SetOverrides replaces every override variable.
func (s *Session) SetOverrides(ctx context.Context, overrides map[string]string) error {
	next := maps.Clone(overrides)
	if next == nil {
		next = make(map[string]string)
	}

	return s.apply(ctx, s.entry, next)
}

// Load replaces the entry with one read from path.
func (s *Session) Load(ctx context.Context, path string) error {
	e, err := entry.Load(path)
	if err != nil {
		return err
	}

	return s.apply(ctx, e, s.overrides)
}

// Eval evaluates input as a template. Input without braces is taken as a
// single expression, so "title" evaluates the variable title.
func (s *Session) Eval(ctx context.Context, input string) (script.Value, error) {
	src := input
	if !strings.ContainsAny(src, "{}") {
		src = "{" + src + "}"
	}

	tmpl, err := script.Parse(ctx, src, s.opts...)
	if err != nil {
		return script.Value{}, err
	}

	return s.vars.EvaluateValue(ctx, tmpl)
}

// declared returns the names of the override variables in sorted order.
func (s *Session) declared() []string {
	return slices.Sorted(maps.Keys(s.overrides))
}
