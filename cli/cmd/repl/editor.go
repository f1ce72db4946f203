package repl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ytsub/log"
)

const defaultEditor = "vi"

// editOverridesCommand implements [tea.ExecCommand] for the edit-apply-retry
// loop. It writes the session overrides to a temp YAML file, opens the
// user's editor, and applies the result. When the edited overrides do not
// decode or do not build, the user is prompted to re-edit; declining exits
// the program.
type editOverridesCommand struct {
	session *Session
	ctxFunc func() context.Context
	logger  log.Logger
	applied bool
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editOverridesCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editOverridesCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editOverridesCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. An empty file cancels the edit.
func (c *editOverridesCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := encodeOverrides(c.session.Overrides())
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(os.TempDir(), "ytsub-repl-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Close(); err != nil {
		return err
	}

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath); err != nil {
			return err
		}

		data, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}

		applyErr := c.apply(ctx, data)

		c.logger.TraceContext(ctx, "editor apply attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", applyErr == nil),
		)

		if applyErr == nil {
			c.applied = true

			return nil
		}

		fmt.Fprintf(c.stderr, "\nError: %s\n", applyErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		content = data
	}
}

func (c *editOverridesCommand) apply(ctx context.Context, data []byte) error {
	var overrides map[string]string
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return err
	}

	return c.session.SetOverrides(ctx, overrides)
}

// encodeOverrides renders overrides as a YAML mapping. Multi-line templates
// use literal block style.
func encodeOverrides(overrides map[string]string) ([]byte, error) {
	if len(overrides) == 0 {
		return []byte("# name: template\n"), nil
	}

	return yaml.MarshalWithOptions(overrides, yaml.UseLiteralStyleIfMultiline(true))
}

// runEditor runs the user's editor on path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
