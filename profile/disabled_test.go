//go:build !pprof

package profile

import "testing"

func TestModes_Disabled(t *testing.T) {
	if m := Modes(); m != nil {
		t.Errorf("Modes() = %v, want nil", m)
	}

	p := Profiler{Mode: "cpu", Path: t.TempDir()}
	if p.Enabled() {
		t.Error("cpu should not be enabled without the pprof tag")
	}

	if _, ok := p.Start().(ignore); !ok {
		t.Error("Start should return a no-op stopper")
	}
}
