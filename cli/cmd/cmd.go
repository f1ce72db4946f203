package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ytsub/log"
	"github.com/ardnew/ytsub/script"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type cacheKey struct{}

// WithCache returns a new context.Context carrying the template cache shared
// by every command in the process.
func WithCache(ctx context.Context, cache *script.Cache) context.Context {
	return context.WithValue(ctx, cacheKey{}, cache)
}

func cacheFrom(ctx context.Context) *script.Cache {
	if c, ok := ctx.Value(cacheKey{}).(*script.Cache); ok && c != nil {
		return c
	}

	return script.NewCache(script.WithLogger(log.Default()))
}

// scriptOptions returns the options every command evaluates templates with.
func scriptOptions(ctx context.Context) []script.Option {
	return []script.Option{
		script.WithLogger(log.Default()),
		script.WithCache(cacheFrom(ctx)),
	}
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// uniqueFiles returns paths with duplicates removed, keeping the first
// occurrence. Two paths are duplicates when they resolve to the same device
// and inode, so symlinks and relative spellings of one file collapse. All
// occurrences of "-" collapse into a single "-" placed last, so stdin is read
// after every regular file. Paths that cannot be resolved are kept as given
// so that opening them reports the error.
func uniqueFiles(paths []string) []string {
	out := make([]string, 0, len(paths))
	seen := make(map[fileKey]struct{}, len(paths))
	stdin := false

	for _, path := range paths {
		if path == stdinSource {
			stdin = true

			continue
		}

		key, ok := resolveFileKey(path)
		if ok {
			if _, dup := seen[key]; dup {
				continue
			}

			seen[key] = struct{}{}
		}

		out = append(out, path)
	}

	if stdin {
		out = append(out, stdinSource)
	}

	return out
}

// resolveFileKey resolves path through symlinks and returns its fileKey.
func resolveFileKey(path string) (fileKey, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return fileKey{}, false
	}

	return makeFileKey(info)
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert // Dev is int32 on darwin
}

// stdin is the reader used for the "-" source. Tests replace it.
var stdin io.Reader = os.Stdin
