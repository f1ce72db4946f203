// Package cli contains the command line interface for ytsub.
//
// # Usage
//
// Templates are rendered against the metadata of a downloaded entry:
//
//	ytsub eval -e video.info.json '{title} [{uid}].{ext}'
//	ytsub vars -e video.info.json -o 'root=/media'
//	ytsub batch -s subscriptions.yaml *.info.json
//	ytsub repl -e video.info.json
//
// Eval is the default command, so the template may be given without it.
//
// # Configuration
//
// Flag defaults are read, in increasing precedence, from the YAML file
// written by "ytsub init", from YTSUB_* environment variables, and from the
// command line. Nested keys of the configuration file are joined with
// hyphens, so the following sets --log-level:
//
//	log:
//	  level: debug
//
// Before flags are parsed, a ".env" file in the working directory or the
// configuration directory seeds the environment. Variables already set are
// never replaced.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize text output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o ytsub .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/ytsub/pprof)
package cli
