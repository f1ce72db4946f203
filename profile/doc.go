// Package profile provides optional runtime profiling for ytsub.
//
// Profiling uses [github.com/pkg/profile] and is compiled in only with the
// "pprof" build tag:
//
//	go build -tags pprof .
//
// Without the tag, [Modes] is empty and [Profiler.Start] returns a stopper
// that does nothing, so callers never need their own build tags.
//
// A batch render of a large subscription file is the usual target:
//
//	ytsub --pprof-mode cpu --pprof-dir ./profiles batch -s subs.yaml entries/*.json
//	go tool pprof -http=: ./profiles/cpu.pprof
//
// Profile files are named after the mode (cpu.pprof, mem.pprof, and so on).
// The default directory is the "pprof" subdirectory of the user cache
// directory.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
