package profile

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Profiler configures a profiling session.
//
// The zero value, or one with an empty or unknown Mode, starts nothing.
type Profiler struct {
	// Mode is one of [Modes].
	Mode string
	// Path is the output directory. Empty uses the working directory.
	Path string
	// Quiet suppresses the profiler's own log output.
	Quiet bool
}

// Start begins profiling and returns a [Stopper] that ends it. Both Start
// and Stop are always safe to call.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p.Mode, p.Path, p.Quiet)
}

// Enabled reports whether p would start a profiler in this build.
func (p Profiler) Enabled() bool {
	_, ok := mode[p.Mode]

	return ok
}

type ignore struct{}

func (ignore) Stop() {}
