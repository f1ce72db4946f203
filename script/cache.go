package script

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ardnew/ytsub/log"
)

// Cache memoizes parsed templates keyed by their literal text. It is
// append-only and safe for concurrent use. Parse failures are cached too,
// since they never depend on the item being evaluated.
type Cache struct {
	entries sync.Map // string -> *state
	logger  log.Logger
}

// state tracks the one-time parse of a single template.
type state struct {
	once sync.Once
	tmpl *Template
	err  error
}

// defaultCache is shared by every [Context] that is not given its own.
var defaultCache = NewCache()

// NewCache returns an empty template cache. Only [WithLogger] applies.
func NewCache(opts ...Option) *Cache {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	return &Cache{logger: o.logger}
}

// Parse returns the parsed template for source, parsing it at most once no
// matter how many goroutines ask for it concurrently.
func (c *Cache) Parse(ctx context.Context, source string) (*Template, error) {
	value, loaded := c.entries.LoadOrStore(source, new(state))

	st, ok := value.(*state)
	if !ok {
		return Parse(ctx, source, WithLogger(c.logger))
	}

	st.once.Do(func() {
		st.tmpl, st.err = Parse(ctx, source, WithLogger(c.logger))
	})

	c.logger.TraceContext(ctx, "template cache",
		slog.Bool("hit", loaded),
		slog.String("template", source))

	return st.tmpl, st.err
}

// Len returns the number of templates held by the cache.
func (c *Cache) Len() int {
	n := 0

	c.entries.Range(func(_, _ any) bool {
		n++

		return true
	})

	return n
}

// Clear removes all cached templates. Templates already returned remain
// valid.
func (c *Cache) Clear() {
	c.entries.Clear()
}

// ParseCached parses source using the process-wide template cache.
func ParseCached(ctx context.Context, source string) (*Template, error) {
	return defaultCache.Parse(ctx, source)
}

// ClearCache clears the process-wide template cache. Useful for testing.
func ClearCache() {
	defaultCache.Clear()
}
