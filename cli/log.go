package cli

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ytsub/log"
)

// logFormat configures the logger format as a side effect of parsing via
// encoding.TextUnmarshaler, so errors reported during parsing already use it.
type logFormat string

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *logFormat) UnmarshalText(text []byte) error {
	*f = logFormat(text)
	log.Config(log.WithFormat(log.ParseFormat(string(*f))))

	return nil
}

// logLevel configures the logger level as a side effect of parsing via
// encoding.TextUnmarshaler.
type logLevel string

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *logLevel) UnmarshalText(text []byte) error {
	*l = logLevel(text)
	log.Config(log.WithLevel(log.ParseLevel(string(*l))))

	return nil
}

type logConfig struct {
	Level      logLevel  `default:"warn"    enum:"${logLevelEnum}"  help:"Set log level."`
	Format     logFormat `default:"text"    enum:"${logFormatEnum}" help:"Set log format."`
	TimeLayout string    `default:"RFC3339"                         help:"Set timestamp format ('none' omits it)."`
	Caller     bool      `default:"false"                           help:"Include caller information."       negatable:""`
	Pretty     bool      `default:"true"                            help:"Enable colorized pretty printing." negatable:""`
}

func (*logConfig) vars() kong.Vars {
	lower := func(names []string) string {
		for i := range names {
			names[i] = strings.ToLower(names[i])
		}

		return strings.Join(names, ",")
	}

	return kong.Vars{
		"logLevelEnum":  lower(slices.Collect(log.Levels())),
		"logFormatEnum": lower(slices.Collect(log.Formats())),
	}
}

func (*logConfig) group() kong.Group {
	var group kong.Group

	group.Key = "log"
	group.Title = "Logging options"

	return group
}

// start applies the parsed configuration to the default logger. The returned
// function is deferred until the command returns.
func (f *logConfig) start(ctx context.Context) func() {
	log.Config(
		log.WithLevel(log.ParseLevel(string(f.Level))),
		log.WithFormat(log.ParseFormat(string(f.Format))),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)

	log.DebugContext(ctx, "logger initialized",
		slog.String("level", string(f.Level)),
		slog.String("format", string(f.Format)),
		slog.String("time", f.TimeLayout),
		slog.Bool("caller", f.Caller),
		slog.Bool("pretty", f.Pretty),
	)

	return func() {}
}

// scan applies logger flags found in args before kong parses them, so the
// logger is configured regardless of flag position. Boolean flags do not go
// through encoding.TextUnmarshaler and are only seen here.
func (f *logConfig) scan(args []string) {
	boolFlag := func(dst *bool, opt func(bool) log.Option) func(string, bool, bool) {
		return func(value string, assigned, negated bool) {
			v := true

			if assigned {
				b, err := strconv.ParseBool(value)
				if err != nil {
					return
				}

				v = b
			}

			if negated {
				v = !v
			}

			*dst = v
			log.Config(opt(v))
		}
	}

	flags := map[string]func(value string, assigned, negated bool){
		"level":  func(v string, _, _ bool) { _ = f.Level.UnmarshalText([]byte(v)) },
		"format": func(v string, _, _ bool) { _ = f.Format.UnmarshalText([]byte(v)) },
		"pretty": boolFlag(&f.Pretty, log.WithPretty),
		"caller": boolFlag(&f.Caller, log.WithCaller),
	}

	valued := map[string]bool{"level": true, "format": true}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return
		}

		var negated bool

		switch {
		case strings.HasPrefix(arg, "--log-"):
			arg = strings.TrimPrefix(arg, "--log-")

		case strings.HasPrefix(arg, "--no-log-"):
			arg = strings.TrimPrefix(arg, "--no-log-")
			negated = true

		default:
			continue
		}

		name, value, assigned := strings.Cut(arg, "=")

		apply, ok := flags[name]
		if !ok || (negated && valued[name]) {
			continue
		}

		// Valued flags consume the next argument when not assigned inline.
		if valued[name] && !assigned {
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
				continue
			}

			i++
			value = args[i]
		}

		apply(value, assigned, negated)
	}
}
