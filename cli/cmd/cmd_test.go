package cmd

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// TestMain isolates the user configuration and cache directories, which
// commands search for presets and history.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "ytsub-cmd-test-*")
	if err != nil {
		panic(err)
	}

	os.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	os.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))

	code := m.Run()

	os.RemoveAll(dir)
	os.Exit(code)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

// TestUniqueFiles tests deduplication of paths naming the same file.
func TestUniqueFiles(t *testing.T) {
	dir := t.TempDir()

	a := writeFile(t, dir, "a.json", "{}")
	b := writeFile(t, dir, "b.json", "{}")
	link := filepath.Join(dir, "link.json")

	if err := os.Symlink(a, link); err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(dir, "missing.json")

	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{"empty", nil, []string{}},
		{"distinct", []string{a, b}, []string{a, b}},
		{"duplicate", []string{a, b, a}, []string{a, b}},
		{"symlink", []string{link, a}, []string{link}},
		{"stdin last", []string{"-", a, "-"}, []string{a, "-"}},
		{"missing kept", []string{missing, missing}, []string{missing, missing}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := uniqueFiles(tt.paths); !slices.Equal(got, tt.want) {
				t.Errorf("uniqueFiles(%v) = %v, want %v", tt.paths, got, tt.want)
			}
		})
	}
}

// TestCacheFrom tests that commands share the cache stored in the context.
func TestCacheFrom(t *testing.T) {
	if cacheFrom(context.Background()) == nil {
		t.Fatal("cacheFrom() without a cache should return a new cache")
	}

	c := cacheFrom(context.Background())
	ctx := WithCache(context.Background(), c)

	if cacheFrom(ctx) != c {
		t.Error("cacheFrom() did not return the stored cache")
	}

	if kongContextFrom(context.Background()) != nil {
		t.Error("kongContextFrom() without a kong context should be nil")
	}
}
