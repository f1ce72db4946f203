package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func swapDefault(t *testing.T, l Logger) {
	t.Helper()

	prev := Default()
	prevSlog := slog.Default()

	SetDefault(l)
	t.Cleanup(func() {
		SetDefault(prev)
		slog.SetDefault(prevSlog)
	})
}

func TestDefault_PackageFunctions(t *testing.T) {
	var buf bytes.Buffer

	swapDefault(t, Make(&buf, WithLevel(LevelTrace), WithPretty(false), WithTimeLayout("none")))

	ctx := context.Background()

	Trace("a")
	Debug("b")
	Info("c")
	Warn("d")
	Error("e")
	TraceContext(ctx, "f")
	DebugContext(ctx, "g")
	InfoContext(ctx, "h")
	WarnContext(ctx, "i")
	ErrorContext(ctx, "j")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 10 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}

	for i, msg := range strings.Split("abcdefghij", "") {
		if !strings.HasSuffix(lines[i], "msg="+msg) {
			t.Errorf("line %d = %q, want msg=%s", i, lines[i], msg)
		}
	}
}

func TestDefault_CallerNamesCallSite(t *testing.T) {
	var buf bytes.Buffer

	swapDefault(t, Make(&buf, WithPretty(false), WithTimeLayout("none"), WithCaller(true)))

	logs := []struct {
		name string
		log  func()
	}{
		{"Warn", func() { Warn("here") }},
		{"ErrorContext", func() { ErrorContext(context.Background(), "here") }},
		{"Logger.Warn", func() { Default().Warn("here") }},
	}

	for _, tt := range logs {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log()

			if !strings.Contains(buf.String(), "default_test.go:") {
				t.Errorf("source should name the caller: %q", buf.String())
			}
		})
	}
}

func TestConfig_ReconfiguresDefault(t *testing.T) {
	var buf bytes.Buffer

	swapDefault(t, Make(&buf, WithPretty(false), WithTimeLayout("none")))

	Info("hidden")
	Config(WithLevel(LevelInfo))
	Info("shown")

	if got := buf.String(); strings.Contains(got, "hidden") || !strings.Contains(got, "shown") {
		t.Errorf("unexpected output %q", got)
	}
}

func TestSetDefault_SharesSlogDefault(t *testing.T) {
	var buf bytes.Buffer

	swapDefault(t, Make(&buf, WithPretty(false), WithTimeLayout("none")))

	slog.Warn("via slog")

	if !strings.Contains(buf.String(), `msg="via slog"`) {
		t.Errorf("slog default not redirected: %q", buf.String())
	}
}
