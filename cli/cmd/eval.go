package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ardnew/ytsub/script"
)

// Eval renders a template against the variables of an entry.
type Eval struct {
	Template string `arg:"" help:"Template to render." name:"template"`

	Variables `embed:""`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context, out io.Writer) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	_, sc, err := e.build(ctx)
	if err != nil {
		return err
	}

	result, err := sc.EvaluateString(ctx, e.Template)
	if err != nil {
		return script.WrapError(err).
			With(slog.String("command", "eval"))
	}

	_, err = fmt.Fprintln(out, result)

	return err
}
