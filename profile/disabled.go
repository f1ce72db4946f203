//go:build !pprof

package profile

// mode is empty without the pprof build tag.
var mode = map[string]struct{}{}

// Modes returns nil without the pprof build tag.
func Modes() []string { return nil }

func start(string, string, bool) Stopper { return ignore{} }
