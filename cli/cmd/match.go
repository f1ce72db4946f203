package cmd

import (
	"encoding/json"
	"log/slog"
	"maps"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/ytsub/config"
	"github.com/ardnew/ytsub/entry"
)

// matcher is a compiled --match expression. A nil matcher accepts every
// entry.
type matcher struct {
	src     string
	program *vm.Program
}

// compileMatch compiles src once for the whole batch. Metadata fields are
// only known per entry, so undefined identifiers evaluate to nil instead of
// failing compilation.
func compileMatch(src string) (*matcher, error) {
	if src == "" {
		return nil, nil //nolint:nilnil // no expression accepts everything
	}

	tree, err := parser.Parse(src)
	if err != nil {
		return nil, ErrMatch.Wrap(err).With(slog.String("match", src))
	}

	opts := []expr.Option{expr.AllowUndefinedVariables(), expr.AsBool()}

	for _, name := range shadowedBuiltins(tree.Node) {
		opts = append(opts, expr.DisableBuiltin(name))
	}

	program, err := expr.Compile(src, opts...)
	if err != nil {
		return nil, ErrMatch.Wrap(err).With(slog.String("match", src))
	}

	return &matcher{src: src, program: program}, nil
}

// builtinRefs collects identifiers that name an expr builtin but are not
// called. Metadata fields such as duration and date are referenced this way,
// and the field must win over the builtin function.
type builtinRefs []string

func (r *builtinRefs) Visit(node *ast.Node) {
	if id, ok := (*node).(*ast.IdentifierNode); ok {
		if _, isBuiltin := builtin.Index[id.Value]; isBuiltin && !slices.Contains(*r, id.Value) {
			*r = append(*r, id.Value)
		}
	}
}

func shadowedBuiltins(node ast.Node) []string {
	var refs builtinRefs

	ast.Walk(&node, &refs)

	return refs
}

// match evaluates the expression against the metadata of e. The name of the
// subscription being rendered is bound to subscription_name.
func (m *matcher) match(e *entry.Entry, subscription string) (bool, error) {
	if m == nil {
		return true, nil
	}

	env := matchEnv(e.Fields())
	env[config.VarSubscriptionName] = subscription

	out, err := expr.Run(m.program, env)
	if err != nil {
		return false, ErrMatch.Wrap(err).With(
			slog.String("match", m.src),
			slog.String("entry", e.ID()))
	}

	ok, _ := out.(bool)

	return ok, nil
}

// matchEnv converts decoded metadata into values expr can compare. JSON
// numbers become int64 when integral and float64 otherwise.
func matchEnv(fields map[string]any) map[string]any {
	env := make(map[string]any, len(fields)+1)

	for k, v := range maps.All(fields) {
		env[k] = matchValue(v)
	}

	return env
}

func matchValue(v any) any {
	switch v := v.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}

		if f, err := v.Float64(); err == nil {
			return f
		}

		return v.String()

	case map[string]any:
		return matchEnv(v)

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = matchValue(item)
		}

		return out

	default:
		return v
	}
}
