package script

import (
	"context"
	"log/slog"
	"slices"
	"strings"
)

// Accessor computes the value of a variable bound directly to host data.
type Accessor func() (Value, error)

// definition is the source of a single variable: a template that is parsed
// on first use, or an accessor.
type definition struct {
	source   string
	accessor Accessor
}

// Context maps variable names to their definitions for a single item and
// memoizes resolved values for the lifetime of the Context.
//
// A Context is not safe for concurrent use. Build one per item; the templates
// and functions it refers to are shared read-only across all of them.
type Context struct {
	opts  options
	defs  map[string]definition
	order []string
	memo  map[string]Value
	chain []string
}

// NewContext returns an empty Context.
func NewContext(opts ...Option) *Context {
	return &Context{
		opts: makeOptions(opts...),
		defs: make(map[string]definition),
		memo: make(map[string]Value),
	}
}

// Define binds name to a template. The template is parsed when the variable
// is first resolved.
func (c *Context) Define(name, template string) error {
	return c.define(name, definition{source: template})
}

// DefineAccessor binds name to an accessor.
func (c *Context) DefineAccessor(name string, fn Accessor) error {
	return c.define(name, definition{accessor: fn})
}

// DefineValue binds name to a constant value.
func (c *Context) DefineValue(name string, v Value) error {
	return c.define(name, definition{
		accessor: func() (Value, error) { return v, nil },
	})
}

func (c *Context) define(name string, def definition) error {
	switch {
	case !IsIdentifier(name):
		return ErrInvalidVariableName.With(slog.String("variable", name))
	case c.opts.functions.Has(name):
		return ErrReservedName.With(slog.String("variable", name))
	}

	if _, ok := c.defs[name]; ok {
		return ErrVariableCollision.With(slog.String("variable", name))
	}

	c.defs[name] = def
	c.order = append(c.order, name)

	return nil
}

// Has reports whether name is defined.
func (c *Context) Has(name string) bool {
	_, ok := c.defs[name]

	return ok
}

// Names returns every defined variable name in sorted order.
func (c *Context) Names() []string {
	return slices.Sorted(slices.Values(c.order))
}

// Declared returns every defined variable name in declaration order.
func (c *Context) Declared() []string {
	return slices.Clone(c.order)
}

// Source returns the template bound to name. It reports false for accessor
// bound and undefined variables.
func (c *Context) Source(name string) (string, bool) {
	def, ok := c.defs[name]
	if !ok || def.accessor != nil {
		return "", false
	}

	return def.source, true
}

// Resolve returns the typed value of a variable, evaluating its definition on
// first use. A template made of a single expression yields that expression's
// value; any other template yields a String.
func (c *Context) Resolve(ctx context.Context, name string) (Value, error) {
	if v, ok := c.memo[name]; ok {
		return v, nil
	}

	def, ok := c.defs[name]
	if !ok {
		err := ErrUnknownVariable.With(slog.String("variable", name))
		if len(c.chain) > 0 {
			err = err.With(slog.String("chain", strings.Join(c.chain, " -> ")))
		}

		return Value{}, err
	}

	if i := slices.Index(c.chain, name); i >= 0 {
		cycle := append(slices.Clone(c.chain[i:]), name)

		return Value{}, ErrCyclicReference.With(
			slog.String("variable", name),
			slog.String("chain", strings.Join(cycle, " -> ")),
		)
	}

	if len(c.chain) >= c.opts.maxDepth {
		return Value{}, ErrMaxDepth.With(
			slog.String("variable", name),
			slog.Int("depth", len(c.chain)),
		)
	}

	c.chain = append(c.chain, name)
	defer func() { c.chain = c.chain[:len(c.chain)-1] }()

	v, err := c.compute(ctx, name, def)
	if err != nil {
		return Value{}, err
	}

	c.memo[name] = v

	c.opts.logger.TraceContext(ctx, "resolved variable",
		slog.String("variable", name),
		slog.String("kind", v.Kind().String()))

	return v, nil
}

func (c *Context) compute(
	ctx context.Context,
	name string,
	def definition,
) (Value, error) {
	if def.accessor != nil {
		v, err := def.accessor()
		if err != nil {
			return Value{}, withVariable(err, name)
		}

		return v, nil
	}

	tmpl, err := c.opts.cache.Parse(ctx, def.source)
	if err != nil {
		return Value{}, WrapError(err).With(slog.String("variable", name))
	}

	v, err := c.EvaluateValue(ctx, tmpl)
	if err != nil {
		return Value{}, withVariable(err, name)
	}

	return v, nil
}

// ResolveString returns the textual form of a variable.
func (c *Context) ResolveString(ctx context.Context, name string) (string, error) {
	v, err := c.Resolve(ctx, name)
	if err != nil {
		return "", err
	}

	return v.String(), nil
}

// Evaluate renders a template to a string. On error, no partial output is
// returned.
func (c *Context) Evaluate(ctx context.Context, tmpl *Template) (string, error) {
	var sb strings.Builder

	for _, n := range tmpl.Nodes {
		v, err := c.eval(ctx, n)
		if err != nil {
			return "", err
		}

		sb.WriteString(v.String())
	}

	return sb.String(), nil
}

// EvaluateString parses source through the Context's template cache and
// renders it.
func (c *Context) EvaluateString(ctx context.Context, source string) (string, error) {
	tmpl, err := c.opts.cache.Parse(ctx, source)
	if err != nil {
		return "", err
	}

	return c.Evaluate(ctx, tmpl)
}

// EvaluateValue evaluates a template to a typed value. A template made of a
// single expression yields that expression's value; anything else yields the
// rendered String.
func (c *Context) EvaluateValue(ctx context.Context, tmpl *Template) (Value, error) {
	if n, ok := tmpl.single(); ok {
		return c.eval(ctx, n)
	}

	s, err := c.Evaluate(ctx, tmpl)
	if err != nil {
		return Value{}, err
	}

	return String(s), nil
}

func (c *Context) eval(ctx context.Context, n Node) (Value, error) {
	switch n := n.(type) {
	case *Literal:
		return String(n.Text), nil

	case *Constant:
		return n.Value, nil

	case *Variable:
		return c.Resolve(ctx, n.Name)

	case *Call:
		f, ok := c.opts.functions.Lookup(n.Name)
		if !ok {
			return Value{}, ErrUnknownFunction.With(
				slog.String("function", n.Name),
				slog.String("position", n.Pos.String()),
			)
		}

		args := make([]Value, len(n.Args))

		for i, arg := range n.Args {
			v, err := c.eval(ctx, arg)
			if err != nil {
				return Value{}, err
			}

			args[i] = v
		}

		v, err := f.Call(args)
		if err != nil {
			return Value{}, withAttrs(err, slog.String("position", n.Pos.String()))
		}

		return v, nil
	}

	return Value{}, nil
}

// withVariable annotates err with the variable being resolved, unless a
// nested resolution already did.
func withVariable(err error, name string) error {
	if _, ok := AttrOf(err, "variable"); ok {
		return err
	}

	return withAttrs(err, slog.String("variable", name))
}

func withAttrs(err error, attrs ...slog.Attr) error {
	e, ok := err.(*Error) //nolint:errorlint // only annotate our own errors
	if !ok {
		return err
	}

	return e.With(attrs...)
}
