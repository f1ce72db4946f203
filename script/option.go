package script

import "github.com/ardnew/ytsub/log"

// DefaultMaxDepth is the default limit on nested variable resolution.
const DefaultMaxDepth = 256

// options holds the settings shared by parsing, caching, and evaluation.
type options struct {
	logger    log.Logger
	cache     *Cache
	functions *Registry
	maxDepth  int
}

// Option configures parsing or evaluation behavior.
type Option func(*options)

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCache sets the template cache used to parse variable definitions.
// The process-wide cache is used by default.
func WithCache(cache *Cache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithFunctions sets the function registry used to evaluate calls.
// [Functions] is used by default.
func WithFunctions(r *Registry) Option {
	return func(o *options) {
		o.functions = r
	}
}

// WithMaxDepth sets the maximum depth of nested variable resolution.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

func makeOptions(opts ...Option) options {
	o := options{maxDepth: DefaultMaxDepth}

	for _, opt := range opts {
		opt(&o)
	}

	if o.cache == nil {
		o.cache = defaultCache
	}

	if o.functions == nil {
		o.functions = Functions()
	}

	if o.maxDepth <= 0 {
		o.maxDepth = DefaultMaxDepth
	}

	return o
}
