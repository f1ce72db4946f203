package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestWrapError_ParseError(t *testing.T) {
	_, perr := Parse(context.Background(), "abc {%f(x")
	if perr == nil {
		t.Fatal("Parse() should fail")
	}

	err := WrapError(perr).With(slog.String("command", "eval"))

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("errors.As(%v, *ParseError) = false", err)
	}

	if !errors.Is(err, ErrUnterminatedExpression) {
		t.Errorf("errors.Is(%v, ErrUnterminatedExpression) = false", err)
	}

	msg := err.Error()
	for _, want := range []string{"line 1", "column", "abc {%f(x", "^"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}

	if v, ok := err.Attr("command"); !ok || v.String() != "eval" {
		t.Errorf("Attr(command) = %v, %v", v, ok)
	}
}

func TestWrapError(t *testing.T) {
	sentinel := ErrType.With(slog.String("function", "add"))
	if got := WrapError(sentinel); got != sentinel {
		t.Errorf("WrapError(*Error) = %v, want the same error", got)
	}

	plain := errors.New("boom")
	if got := WrapError(plain); !errors.Is(got, plain) || got.Error() != "boom" {
		t.Errorf("WrapError(plain) = %v", got)
	}
}

func TestAttrOf(t *testing.T) {
	inner := ErrMetadata.With(slog.String("entry", "c3"))
	err := ErrType.Wrap(fmt.Errorf("render: %w", inner)).With(slog.String("option", "file_name"))

	if v, ok := AttrOf(err, "entry"); !ok || v.String() != "c3" {
		t.Errorf("AttrOf(entry) = %v, %v", v, ok)
	}

	if v, ok := AttrOf(err, "option"); !ok || v.String() != "file_name" {
		t.Errorf("AttrOf(option) = %v, %v", v, ok)
	}

	if _, ok := AttrOf(err, "missing"); ok {
		t.Error("AttrOf(missing) found an attribute")
	}

	if _, ok := AttrOf(nil, "entry"); ok {
		t.Error("AttrOf(nil) found an attribute")
	}
}

func TestContext_ResolveParseError(t *testing.T) {
	c := newContext(t, map[string]string{"broken": "{%upper(title"})

	_, err := c.Resolve(context.Background(), "broken")

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Resolve() error = %v, want a *ParseError", err)
	}

	if v, ok := AttrOf(err, "variable"); !ok || v.String() != "broken" {
		t.Errorf("variable attribute = %v, %v", v, ok)
	}
}
