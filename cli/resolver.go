package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

// resolve is a [kong.ConfigurationLoader] that reads YAML configuration
// files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve, "/path/to/config.yaml")
//
// Keys are flag names. Nested mappings are joined with hyphens, so both of
// these set --log-level:
//
//	log-level: debug
//
//	log:
//	  level: debug
//
// Underscores may be used in place of hyphens. Lists set repeatable flags,
// and a mapping also sets a map flag of the same name:
//
//	override:
//	  root: /media
//
// Command-line flags override config file values.
func resolve(r io.Reader) (kong.Resolver, error) {
	var root map[string]any

	err := yaml.NewDecoder(r).Decode(&root)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	conf := make(config)
	conf.flatten("", root)

	return conf, nil
}

// config implements [kong.Resolver] for YAML configs.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := r[flag.Name]; ok {
		return value, nil
	}

	if value, ok := r[strings.ReplaceAll(flag.Name, "-", "_")]; ok {
		return value, nil
	}

	// Not found: kong uses the default.
	return nil, nil
}

// flatten adds every value of m to r under its hyphen-joined key path.
func (r config) flatten(prefix string, m map[string]any) {
	for key, value := range m {
		if prefix != "" {
			key = prefix + "-" + key
		}

		if sub, ok := value.(map[string]any); ok {
			r[key] = flagValue(sub)
			r.flatten(key, sub)

			continue
		}

		r[key] = flagValue(value)
	}
}

// flagValue converts a decoded YAML value into a form kong can parse. Kong
// parses scalars from text, so numbers become strings.
func flagValue(value any) any {
	switch v := value.(type) {
	case int, int64, uint64, int32, uint32:
		return fmt.Sprint(v)

	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)

	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = flagValue(item)
		}

		return out

	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = flagValue(item)
		}

		return out

	default:
		return v
	}
}
