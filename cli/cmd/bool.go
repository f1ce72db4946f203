package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ardnew/ytsub/script"
)

// Bool prints the boolean interpretation of a rendered value.
type Bool struct {
	Value string `arg:"" help:"Rendered value to interpret." name:"value"`

	Exit bool `help:"Print nothing; exit with status 0 for true and 1 for false." short:"x"`
}

// exit terminates the process for --exit. Tests replace it.
var exit = os.Exit

// Run executes the bool command.
func (b *Bool) Run(_ context.Context, out io.Writer) error {
	v := script.BoolOf(b.Value)

	if b.Exit {
		if !v {
			exit(1)
		}

		return nil
	}

	_, err := fmt.Fprintln(out, v)

	return err
}
