package script

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
)

// Types is a set of value kinds accepted by a function parameter.
type Types uint16

// Any accepts a value of every kind.
const Any Types = 1<<KindEmpty | 1<<KindString | 1<<KindInteger |
	1<<KindFloat | 1<<KindBoolean | 1<<KindArray | 1<<KindObject

// Common parameter type sets.
var (
	Str     = Of(KindString)
	Int     = Of(KindInteger)
	Numeric = Of(KindInteger, KindFloat)
	Scalar  = Of(KindString, KindInteger, KindFloat, KindBoolean)
	Arr     = Of(KindArray)
	Obj     = Of(KindObject)
)

// Of returns the set of the given kinds.
func Of(kinds ...Kind) Types {
	var t Types

	for _, k := range kinds {
		t |= 1 << k
	}

	return t
}

// Has reports whether k is in the set.
func (t Types) Has(k Kind) bool { return t&(1<<k) != 0 }

// String returns the kinds in the set joined by "|".
func (t Types) String() string {
	if t == Any {
		return "Any"
	}

	var part []string

	for k := KindEmpty; k <= KindObject; k++ {
		if t.Has(k) {
			part = append(part, k.String())
		}
	}

	return strings.Join(part, "|")
}

// Function describes a registered script function.
type Function struct {
	Name string

	// MinArgs and MaxArgs bound the number of arguments. MaxArgs < 0 means the
	// function is variadic.
	MinArgs int
	MaxArgs int

	// Params lists the accepted kinds of each argument position. Arguments
	// beyond len(Params) use the last entry.
	Params []Types

	// Result is the kind returned on success, used for documentation only.
	Result string

	// Doc is a one-line description.
	Doc string

	Impl func(args []Value) (Value, error)
}

// Signature returns a human readable signature such as
// "replace(String, String, String, [Integer]) -> String".
func (f *Function) Signature() string {
	var sb strings.Builder

	sb.WriteString(f.Name)
	sb.WriteByte('(')

	n := len(f.Params)
	if f.MaxArgs >= 0 && f.MaxArgs < n {
		n = f.MaxArgs
	}

	for i := range n {
		if i > 0 {
			sb.WriteString(", ")
		}

		if i == f.MinArgs {
			sb.WriteByte('[')
		}

		sb.WriteString(f.Params[i].String())
	}

	if f.MaxArgs < 0 {
		sb.WriteString(", ...")
	}

	if n > f.MinArgs {
		sb.WriteByte(']')
	}

	sb.WriteByte(')')

	if f.Result != "" {
		sb.WriteString(" -> ")
		sb.WriteString(f.Result)
	}

	return sb.String()
}

// param returns the accepted kinds at argument position i.
func (f *Function) param(i int) Types {
	if len(f.Params) == 0 {
		return Any
	}

	if i >= len(f.Params) {
		return f.Params[len(f.Params)-1]
	}

	return f.Params[i]
}

// Call checks the arity and argument kinds, then invokes the function.
func (f *Function) Call(args []Value) (Value, error) {
	if len(args) < f.MinArgs || (f.MaxArgs >= 0 && len(args) > f.MaxArgs) {
		return Value{}, ErrType.With(
			slog.String("function", f.Name),
			slog.Int("args", len(args)),
			slog.String("expected", f.Signature()),
		)
	}

	for i, arg := range args {
		if want := f.param(i); !want.Has(arg.Kind()) {
			return Value{}, ErrType.With(
				slog.String("function", f.Name),
				slog.Int("argument", i+1),
				slog.String("expected", want.String()),
				slog.String("got", arg.Kind().String()),
			)
		}
	}

	v, err := f.Impl(args)
	if err != nil {
		return Value{}, ErrType.Wrap(err).With(slog.String("function", f.Name))
	}

	return v, nil
}

// Registry is an immutable table of functions keyed by name.
type Registry struct {
	funcs map[string]*Function
	names []string
}

// NewRegistry returns a registry of the given functions. Later definitions of
// the same name replace earlier ones.
func NewRegistry(funcs ...*Function) *Registry {
	r := &Registry{funcs: make(map[string]*Function, len(funcs))}

	for _, f := range funcs {
		r.funcs[f.Name] = f
	}

	r.names = make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		r.names = append(r.names, name)
	}

	slices.Sort(r.names)

	return r
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (*Function, bool) {
	f, ok := r.funcs[name]

	return f, ok
}

// Has reports whether name is a registered function.
func (r *Registry) Has(name string) bool {
	_, ok := r.funcs[name]

	return ok
}

// Names returns the registered function names in sorted order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// Call invokes the function registered under name.
func (r *Registry) Call(name string, args []Value) (Value, error) {
	f, ok := r.funcs[name]
	if !ok {
		return Value{}, ErrUnknownFunction.With(slog.String("function", name))
	}

	return f.Call(args)
}

var builtins = sync.OnceValue(func() *Registry {
	funcs := slices.Concat(
		coreFunctions(),
		stringFunctions(),
		numericFunctions(),
		logicFunctions(),
		structuredFunctions(),
		regexFunctions(),
	)

	return NewRegistry(funcs...)
})

// Functions returns the registry of built-in functions. It is built once and
// shared by all evaluations.
func Functions() *Registry {
	return builtins()
}

// IsFunction reports whether name is a built-in function name.
func IsFunction(name string) bool {
	return Functions().Has(name)
}
