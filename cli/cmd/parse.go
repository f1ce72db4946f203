package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/ardnew/ytsub/script"
)

// Parse prints the syntax tree of a template.
type Parse struct {
	Template string `arg:"" help:"Template to parse." name:"template"`

	Refs bool `help:"Print the referenced variables and functions instead of the tree." short:"r"`
}

// Run executes the parse command.
func (p *Parse) Run(ctx context.Context, out io.Writer) error {
	tmpl, err := cacheFrom(ctx).Parse(ctx, p.Template)
	if err != nil {
		return script.WrapError(err).
			With(slog.String("command", "parse"))
	}

	if !p.Refs {
		return tmpl.Print(out)
	}

	vars := slices.Sorted(tmpl.Variables())
	funcs := slices.Sorted(tmpl.Functions())

	_, err = fmt.Fprintf(out, "variables: %s\nfunctions: %s\n",
		strings.Join(slices.Compact(vars), ", "),
		strings.Join(slices.Compact(funcs), ", "))

	return err
}
