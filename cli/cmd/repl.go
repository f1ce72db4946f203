package cmd

import (
	"context"
	"io"

	"github.com/ardnew/ytsub/cli/cmd/repl"
	"github.com/ardnew/ytsub/log"
	"github.com/ardnew/ytsub/pkg"
)

// Repl starts an interactive session evaluating templates against an entry.
type Repl struct {
	NoHistory bool `help:"Do not read or write the history file."`

	Variables `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context, _ io.Writer) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	e, err := r.load()
	if err != nil {
		return err
	}

	s, err := repl.NewSession(ctx, e, r.Source, r.Override, log.Default(), scriptOptions(ctx)...)
	if err != nil {
		return ErrOverride.Wrap(err)
	}

	history := pkg.CachePath(repl.HistoryFile)
	if r.NoHistory {
		history = ""
	}

	return repl.Run(ctx, s, history, log.Default())
}
