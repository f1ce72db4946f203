package config

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ytsub/script"
)

// ErrInvalidConfig is returned when a preset or subscription file cannot be
// decoded or fails validation.
var ErrInvalidConfig = script.NewError("invalid configuration")

// Names is a list of preset names. In YAML it may be written as a single
// string or as a sequence.
type Names []string

// UnmarshalYAML implements [yaml.InterfaceUnmarshaler].
func (n *Names) UnmarshalYAML(unmarshal func(any) error) error {
	var one string
	if err := unmarshal(&one); err == nil {
		*n = Names{one}

		return nil
	}

	var many []string
	if err := unmarshal(&many); err != nil {
		return err
	}

	*n = many

	return nil
}

// Overrides maps variable names to templates. Values that are not strings
// are converted to the equivalent template with [script.ToScript].
type Overrides map[string]string

// UnmarshalYAML implements [yaml.InterfaceUnmarshaler].
func (o *Overrides) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}

	out := make(Overrides, len(raw))
	for k, v := range raw {
		out[k] = script.ToScript(plain(v))
	}

	*o = out

	return nil
}

// OutputOptions are the templates that name the files written for each
// entry.
type OutputOptions struct {
	OutputDirectory string `json:"output_directory,omitempty" yaml:"output_directory,omitempty"`
	FileName        string `json:"file_name,omitempty"        yaml:"file_name,omitempty"`
	ThumbnailName   string `json:"thumbnail_name,omitempty"   yaml:"thumbnail_name,omitempty"`
	InfoJSONName    string `json:"info_json_name,omitempty"   yaml:"info_json_name,omitempty"`
}

// fields returns the option keys and their templates in a fixed order.
func (o OutputOptions) fields() [][2]string {
	return [][2]string{
		{"output_directory", o.OutputDirectory},
		{"file_name", o.FileName},
		{"thumbnail_name", o.ThumbnailName},
		{"info_json_name", o.InfoJSONName},
	}
}

// merge returns o with every non-empty field of p applied over it.
func (o OutputOptions) merge(p OutputOptions) OutputOptions {
	pick := func(a, b string) string {
		if b != "" {
			return b
		}

		return a
	}

	return OutputOptions{
		OutputDirectory: pick(o.OutputDirectory, p.OutputDirectory),
		FileName:        pick(o.FileName, p.FileName),
		ThumbnailName:   pick(o.ThumbnailName, p.ThumbnailName),
		InfoJSONName:    pick(o.InfoJSONName, p.InfoJSONName),
	}
}

// Preset is a named, reusable set of configuration. A preset may inherit
// from other presets, which are applied first in the order listed.
type Preset struct {
	Name          string        `json:"-"                        yaml:"-"`
	Parents       Names         `json:"preset,omitempty"         yaml:"preset,omitempty"`
	Source        string        `json:"source,omitempty"         yaml:"source,omitempty"`
	Overrides     Overrides     `json:"overrides,omitempty"      yaml:"overrides,omitempty"`
	OutputOptions OutputOptions `json:"output_options,omitempty" yaml:"output_options,omitempty"`

	SubtitleOptions SubtitleOptions `json:"subtitle_options,omitempty" yaml:"subtitle_options,omitempty"`
}

// apply layers p over dst.
func (p *Preset) apply(dst *Preset) {
	if p.Source != "" {
		dst.Source = p.Source
	}

	if dst.Overrides == nil {
		dst.Overrides = make(Overrides, len(p.Overrides))
	}

	maps.Copy(dst.Overrides, p.Overrides)

	dst.OutputOptions = dst.OutputOptions.merge(p.OutputOptions)
	dst.SubtitleOptions = dst.SubtitleOptions.merge(p.SubtitleOptions)
}

// validate parses every template in p. key is the path of p in its file.
func (p *Preset) validate(ctx context.Context, o options, key string) error {
	for _, name := range slices.Sorted(maps.Keys(p.Overrides)) {
		if _, err := o.parse(ctx, p.Overrides[name]); err != nil {
			return invalid(err, key+".overrides."+name)
		}
	}

	for _, f := range p.OutputOptions.fields() {
		if f[1] == "" {
			continue
		}

		if _, err := o.parse(ctx, f[1]); err != nil {
			return invalid(err, key+".output_options."+f[0])
		}
	}

	return p.SubtitleOptions.validate(ctx, o, key)
}

// Presets is a set of presets indexed by name.
type Presets struct {
	presets map[string]*Preset
}

// presetFile is the layout of a preset file.
type presetFile struct {
	Presets map[string]*Preset `yaml:"presets"`
}

// NewPresets returns a set holding the given presets.
func NewPresets(presets ...*Preset) *Presets {
	p := &Presets{presets: make(map[string]*Preset, len(presets))}

	for _, preset := range presets {
		p.presets[preset.Name] = preset
	}

	return p
}

// LoadPresets reads and merges preset files. When several files define the
// same preset, the first definition wins, so paths are listed from highest
// to lowest precedence.
func LoadPresets(ctx context.Context, paths []string, opts ...Option) (*Presets, error) {
	o := makeOptions(opts...)
	set := NewPresets()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, ErrInvalidConfig.Wrap(err).With(slog.String("path", path))
		}

		p, err := DecodePresets(ctx, data, opts...)
		if err != nil {
			return nil, script.WrapError(err).With(slog.String("path", path))
		}

		for _, name := range p.Names() {
			if _, ok := set.presets[name]; ok {
				o.logger.DebugContext(ctx, "preset shadowed",
					slog.String("preset", name),
					slog.String("path", path))

				continue
			}

			set.presets[name] = p.presets[name]
		}
	}

	return set, nil
}

// DecodePresets decodes a preset file and validates the templates of every
// preset in it.
func DecodePresets(ctx context.Context, data []byte, opts ...Option) (*Presets, error) {
	o := makeOptions(opts...)

	var file presetFile
	if err := yaml.UnmarshalWithOptions(data, &file, yaml.DisallowUnknownField()); err != nil {
		return nil, ErrInvalidConfig.Wrap(err)
	}

	set := NewPresets()

	for _, name := range slices.Sorted(maps.Keys(file.Presets)) {
		p := file.Presets[name]
		if p == nil {
			p = &Preset{}
		}

		p.Name = name

		if err := p.validate(ctx, o, "presets."+name); err != nil {
			return nil, err
		}

		set.presets[name] = p
	}

	o.logger.TraceContext(ctx, "decoded presets", slog.Int("count", len(set.presets)))

	return set, nil
}

// Has reports whether a preset is defined.
func (p *Presets) Has(name string) bool {
	if p == nil {
		return false
	}

	_, ok := p.presets[name]

	return ok
}

// Get returns the preset defined under name.
func (p *Presets) Get(name string) (*Preset, bool) {
	if p == nil {
		return nil, false
	}

	preset, ok := p.presets[name]

	return preset, ok
}

// Names returns the preset names in sorted order.
func (p *Presets) Names() []string {
	if p == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(p.presets))
}

// with returns a copy of p that also holds preset.
func (p *Presets) with(preset *Preset) *Presets {
	out := NewPresets(preset)

	if p != nil {
		for name, v := range p.presets {
			if _, ok := out.presets[name]; !ok {
				out.presets[name] = v
			}
		}
	}

	return out
}

// Resolve flattens the named presets and their parents into a single
// preset. Presets are applied in order, each after its own parents. The
// returned preset's Parents lists every applied preset in application order.
func (p *Presets) Resolve(names ...string) (*Preset, error) {
	out := &Preset{Overrides: Overrides{}}

	for _, name := range names {
		if err := p.resolve(name, nil, out); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (p *Presets) resolve(name string, chain []string, out *Preset) error {
	if slices.Contains(chain, name) {
		return ErrInvalidConfig.With(
			slog.String("preset", name),
			slog.String("reason", "cyclic preset inheritance"),
			slog.String("chain", strings.Join(append(chain, name), " -> ")),
		)
	}

	preset, ok := p.Get(name)
	if !ok {
		attrs := []slog.Attr{
			slog.String("preset", name),
			slog.String("reason", "preset does not exist"),
		}

		if len(chain) > 0 {
			attrs = append(attrs, slog.String("parent", chain[len(chain)-1]))
		}

		return ErrInvalidConfig.With(attrs...)
	}

	chain = append(chain, name)

	for _, parent := range preset.Parents {
		if err := p.resolve(parent, chain, out); err != nil {
			return err
		}
	}

	preset.apply(out)
	out.Parents = append(out.Parents, name)

	return nil
}

// invalid reports err as a configuration error at key.
func invalid(err error, key string) error {
	return ErrInvalidConfig.Wrap(err).With(slog.String("key", key))
}

// plain converts ordered YAML mappings to maps, recursively.
func plain(v any) any {
	switch v := v.(type) {
	case yaml.MapSlice:
		m := make(map[string]any, len(v))
		for _, item := range v {
			m[keyString(item.Key)] = plain(item.Value)
		}

		return m

	case map[string]any:
		m := make(map[string]any, len(v))
		for k, x := range v {
			m[k] = plain(x)
		}

		return m

	case []any:
		s := make([]any, len(v))
		for i, x := range v {
			s[i] = plain(x)
		}

		return s
	}

	return v
}
