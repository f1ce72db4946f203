//go:build pprof

package profile

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestModes_Enabled(t *testing.T) {
	m := Modes()

	if !slices.Contains(m, "cpu") || slices.Contains(m, "quiet") {
		t.Errorf("Modes() = %v", m)
	}

	if !slices.IsSorted(m) {
		t.Errorf("Modes() not sorted: %v", m)
	}
}

func TestProfiler_WritesProfile(t *testing.T) {
	dir := t.TempDir()

	p := Profiler{Mode: "mem", Path: dir, Quiet: true}
	if !p.Enabled() {
		t.Fatal("mem should be enabled")
	}

	p.Start().Stop()

	if _, err := os.Stat(filepath.Join(dir, "mem.pprof")); err != nil {
		t.Errorf("profile not written: %v", err)
	}
}

func TestProfiler_UnknownModeStartsNothing(t *testing.T) {
	dir := t.TempDir()

	for _, m := range []string{"quiet", "bogus"} {
		if _, ok := (Profiler{Mode: m, Path: dir}).Start().(ignore); !ok {
			t.Errorf("Profiler{Mode: %q}.Start() started a profiler", m)
		}
	}

	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Errorf("unexpected files %v", entries)
	}
}
