// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// A [Logger] is configured once at creation with functional options and
// accepts only typed [slog.Attr] values:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("RFC3339Nano"))
//
//	logger.Info("rendered", slog.String("path", out.Path))
//
// The zero Logger discards everything, which lets library packages take a
// Logger option without forcing callers to provide one.
//
// # Levels
//
// In addition to the slog levels, [LevelTrace] sits below [LevelDebug] and is
// used for per-template and per-variable events that are too noisy for
// normal debugging.
//
// # Errors
//
// [Err] wraps an error as an attribute. Errors implementing
// [slog.LogValuer] are expanded into their structured attributes, so the
// variable, template, and position of a failure appear as separate fields.
//
// # Pretty output
//
// With [WithPretty] enabled (the default), text and JSON output are colored
// using styles bound to the output writer. Color is omitted automatically
// when the writer is not a terminal. Group attributes are flattened into
// dotted keys.
//
// # Package-level logging
//
// [Default] returns a process-wide logger used by the package-level
// functions [Trace], [Debug], [Info], [Warn], and [Error]. The command line
// entry point replaces it with [SetDefault] once flags are parsed.
package log
