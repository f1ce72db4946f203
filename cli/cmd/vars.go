package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/ardnew/ytsub/log"
)

// Vars prints every variable of an entry's context with its value.
type Vars struct {
	Format string `default:"text" enum:"text,json,yaml" help:"Output format." short:"f"`
	Filter string `help:"Only print variables whose name contains this text." placeholder:"TEXT" short:"m"`

	Variables `embed:""`
}

// Run executes the vars command.
//
// Variables that fail to resolve, typically because the entry lacks the
// metadata they read, are reported in text output and omitted from JSON and
// YAML output.
func (v *Vars) Run(ctx context.Context, out io.Writer) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	_, sc, err := v.build(ctx)
	if err != nil {
		return err
	}

	names := slices.DeleteFunc(sc.Names(), func(name string) bool {
		return v.Filter != "" &&
			!strings.Contains(strings.ToLower(name), strings.ToLower(v.Filter))
	})
	slices.Sort(names)

	values := make(map[string]any, len(names))
	failed := make(map[string]error)

	for _, name := range names {
		val, err := sc.Resolve(ctx, name)
		if err != nil {
			failed[name] = err

			log.DebugContext(ctx, "variable unresolved",
				slog.String("variable", name), log.Err(err))

			continue
		}

		values[name] = val.Native()
	}

	if v.Format != formatText {
		return encode(out, v.Format, values)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	for _, name := range names {
		if err, ok := failed[name]; ok {
			fmt.Fprintf(tw, "%s\t!\t%s\n", name, err)

			continue
		}

		val, _ := sc.Resolve(ctx, name)
		fmt.Fprintf(tw, "%s\t=\t%s\n", name, val.Repr())
	}

	return tw.Flush()
}
