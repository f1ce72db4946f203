package entry

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/ardnew/ytsub/script"
)

// SanitizedSuffix is appended to a variable name to form the name of its
// filesystem-safe variant.
const SanitizedSuffix = "_sanitized"

// Builder assembles the variable context of each entry from a fixed set of
// entry variables and override templates. A Builder is immutable and may be
// shared by concurrent batches.
type Builder struct {
	source    *Source
	variables []Variable
	overrides map[string]string
	names     []string // overrides, sorted
	opts      []script.Option
}

// NewBuilder returns a Builder for entries of the named source. Override
// names are validated against the entry variables, the function registry and
// each other, so a Builder that is returned without error never fails to
// build a context because of a naming conflict.
func NewBuilder(
	source string,
	overrides map[string]string,
	opts ...script.Option,
) (*Builder, error) {
	if source == "" {
		source = DefaultSource
	}

	src, err := LookupSource(source)
	if err != nil {
		return nil, err
	}

	vars := slices.Concat(BaseVariables(), MediaVariables(), src.Variables)

	b := &Builder{
		source:    src,
		variables: vars,
		overrides: maps.Clone(overrides),
		names:     slices.Sorted(maps.Keys(overrides)),
		opts:      opts,
	}

	// A context with placeholder values reports every naming conflict.
	if _, err := b.build(nil, nil); err != nil {
		return nil, err
	}

	return b, nil
}

// WithVariables returns a copy of b that also binds vars. The names are
// checked the same way NewBuilder checks overrides.
func (b *Builder) WithVariables(vars ...Variable) (*Builder, error) {
	out := &Builder{
		source:    b.source,
		variables: slices.Concat(b.variables, vars),
		overrides: b.overrides,
		names:     b.names,
		opts:      b.opts,
	}

	if _, err := out.build(nil, nil); err != nil {
		return nil, err
	}

	return out, nil
}

// Source returns the source the Builder was created for.
func (b *Builder) Source() *Source { return b.source }

// Variables returns the entry variables the Builder binds, in declaration
// order.
func (b *Builder) Variables() []Variable { return slices.Clone(b.variables) }

// Overrides returns a copy of the override templates.
func (b *Builder) Overrides() map[string]string { return maps.Clone(b.overrides) }

// Build returns the variable context of e. Entry variables are resolved
// lazily, so a missing metadata field is only reported when a template
// refers to it.
func (b *Builder) Build(ctx context.Context, e *Entry) (*script.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return b.build(e, nil)
}

// BuildWith is like Build, but binds the entry variables named in values to
// those values instead of reading them from e.
func (b *Builder) BuildWith(
	ctx context.Context,
	e *Entry,
	values map[string]script.Value,
) (*script.Context, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return b.build(e, values)
}

func (b *Builder) build(e *Entry, values map[string]script.Value) (*script.Context, error) {
	c := script.NewContext(b.opts...)

	for _, v := range b.variables {
		var err error

		if val, ok := values[v.Name]; ok {
			err = c.DefineValue(v.Name, val)
		} else if e == nil {
			err = c.DefineValue(v.Name, script.Empty())
		} else {
			get := v.Get
			err = c.DefineAccessor(v.Name, func() (script.Value, error) { return get(e) })
		}

		if err != nil {
			return nil, err
		}
	}

	for _, name := range b.names {
		if err := c.Define(name, b.overrides[name]); err != nil {
			return nil, b.overrideError(err, name)
		}
	}

	for _, name := range c.Declared() {
		sanitized := name + SanitizedSuffix

		if c.Has(sanitized) {
			return nil, script.ErrVariableCollision.With(
				slog.String("variable", sanitized),
				slog.String("reason", "generated from "+name),
			)
		}

		if err := c.Define(sanitized, "{%sanitize("+name+")}"); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (b *Builder) overrideError(err error, name string) error {
	if slices.ContainsFunc(b.variables, func(v Variable) bool { return v.Name == name }) {
		return script.WrapError(err).With(slog.String("reason", "shadows an entry variable"))
	}

	return err
}
