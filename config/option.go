package config

import (
	"context"

	"github.com/ardnew/ytsub/log"
	"github.com/ardnew/ytsub/script"
)

type options struct {
	logger log.Logger
	cache  *script.Cache
}

// Option configures how configuration files are loaded.
type Option func(*options)

// WithLogger sets the logger used while loading and validating
// configuration. The logger is also passed to every variable context built
// for a subscription.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCache sets the template cache used to validate and later evaluate
// templates. The process-wide cache is used by default.
func WithCache(cache *script.Cache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

func makeOptions(opts ...Option) options {
	var o options

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func (o options) parse(ctx context.Context, source string) (*script.Template, error) {
	if o.cache != nil {
		return o.cache.Parse(ctx, source)
	}

	return script.ParseCached(ctx, source)
}

func (o options) scriptOptions() []script.Option {
	opts := []script.Option{script.WithLogger(o.logger)}

	if o.cache != nil {
		opts = append(opts, script.WithCache(o.cache))
	}

	return opts
}
