package config

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ytsub/entry"
	"github.com/ardnew/ytsub/script"
)

// Variables defined for every subscription.
const (
	VarSubscriptionName   = "subscription_name"
	VarSubscriptionValue  = "subscription_value"
	VarSubscriptionMap    = "subscription_map"
	varSubscriptionIndent = "subscription_indent"
)

// FilePresetKey is the subscription file key whose value is a preset applied
// to every subscription in that file.
const FilePresetKey = "__preset__"

// SubscriptionValueN returns the name of the variable holding the n-th
// (1-based) value of a list subscription.
func SubscriptionValueN(n int) string {
	return VarSubscriptionValue + "_" + strconv.Itoa(n)
}

// SubscriptionIndentN returns the name of the variable holding the n-th
// (1-based) indent value of a subscription group.
func SubscriptionIndentN(n int) string {
	return varSubscriptionIndent + "_" + strconv.Itoa(n)
}

// Subscription is a fully resolved subscription: its presets have been
// flattened and every template has been validated.
type Subscription struct {
	Name          string
	Key           string // path of the subscription in its file
	Presets       []string
	Source        string
	Overrides     Overrides
	OutputOptions OutputOptions

	SubtitleOptions SubtitleOptions

	builder *entry.Builder
}

// Builder returns the variable context builder of the subscription.
func (s *Subscription) Builder() *entry.Builder { return s.builder }

// leaf is a subscription as written, before presets are applied.
type leaf struct {
	name      string
	key       string
	presets   []string
	overrides Overrides
	inline    *Preset // explicit form only
}

// LoadSubscriptions reads a subscription file. Preset names in the file are
// looked up in presets.
func LoadSubscriptions(
	ctx context.Context,
	path string,
	presets *Presets,
	opts ...Option,
) ([]*Subscription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrInvalidConfig.Wrap(err).With(slog.String("path", path))
	}

	subs, err := DecodeSubscriptions(ctx, data, presets, opts...)
	if err != nil {
		return nil, script.WrapError(err).With(slog.String("path", path))
	}

	return subs, nil
}

// DecodeSubscriptions decodes a subscription file. Subscriptions are returned
// in file order.
//
// Each top-level key names a subscription, or a group of them:
//
//	"Name": "value"               subscription_value
//	"Name": ["a", "b"]            subscription_value, subscription_value_1..N
//	"~Name": {var: template}      the mapping becomes overrides
//	"+Name": {key: any}           subscription_map, the mapping as a value
//	"preset | = Indent": {...}    nested group applying presets and
//	                              subscription_indent_1..N
//	"Name": {preset: ..., ...}    explicit preset form
func DecodeSubscriptions(
	ctx context.Context,
	data []byte,
	presets *Presets,
	opts ...Option,
) ([]*Subscription, error) {
	o := makeOptions(opts...)

	var root any
	if err := yaml.UnmarshalWithOptions(data, &root, yaml.UseOrderedMap()); err != nil {
		return nil, ErrInvalidConfig.Wrap(err)
	}

	if root == nil {
		return nil, nil
	}

	top, ok := root.(yaml.MapSlice)
	if !ok {
		return nil, ErrInvalidConfig.With(slog.String("reason", "subscription file must be a mapping"))
	}

	var global []string

	for i, item := range top {
		if keyString(item.Key) != FilePresetKey {
			continue
		}

		fp, err := decodePreset(item.Value, FilePresetKey)
		if err != nil {
			return nil, err
		}

		if err := fp.validate(ctx, o, FilePresetKey); err != nil {
			return nil, err
		}

		presets = presets.with(fp)
		global = []string{FilePresetKey}
		top = append(top[:i:i], top[i+1:]...)

		break
	}

	w := walker{presets: presets}
	if err := w.walk(top, "", nil, nil); err != nil {
		return nil, err
	}

	subs := make([]*Subscription, 0, len(w.leaves))
	seen := make(map[string]string, len(w.leaves))

	for _, l := range w.leaves {
		if prev, ok := seen[l.name]; ok {
			return nil, ErrInvalidConfig.With(
				slog.String("key", l.key),
				slog.String("reason", "duplicate subscription name"),
				slog.String("previous", prev),
			)
		}

		seen[l.name] = l.key

		s, err := resolveLeaf(ctx, o, presets, l, global)
		if err != nil {
			return nil, err
		}

		subs = append(subs, s)
	}

	o.logger.DebugContext(ctx, "decoded subscriptions", slog.Int("count", len(subs)))

	return subs, nil
}

type walker struct {
	presets *Presets
	leaves  []leaf
}

func (w *walker) walk(node yaml.MapSlice, path string, presets, indents []string) error {
	for _, item := range node {
		key := keyString(item.Key)

		objKey := key
		if path != "" {
			objKey = path + "." + key
		}

		if err := w.item(key, objKey, item.Value, presets, indents); err != nil {
			return err
		}
	}

	return nil
}

func (w *walker) item(key, objKey string, value any, presets, indents []string) error {
	switch v := value.(type) {
	case string:
		return w.leaf(key, objKey, presets, indents, Overrides{VarSubscriptionValue: v})

	case []any:
		add := make(Overrides, len(v)+1)

		for i, x := range v {
			s, ok := x.(string)
			if !ok {
				s = script.ToScript(plain(x))
			}

			if i == 0 {
				add[VarSubscriptionValue] = s
			}

			add[SubscriptionValueN(i+1)] = s
		}

		return w.leaf(key, objKey, presets, indents, add)

	case yaml.MapSlice:
		switch {
		case strings.HasPrefix(key, "~"):
			add := make(Overrides, len(v))
			for _, kv := range v {
				add[keyString(kv.Key)] = overrideValue(kv.Value)
			}

			return w.leaf(strings.TrimLeft(key[1:], " \t"), objKey, presets, indents, add)

		case strings.HasPrefix(key, "+"):
			add := Overrides{VarSubscriptionMap: script.ToScript(plain(v))}

			return w.leaf(strings.TrimLeft(key[1:], " \t"), objKey, presets, indents, add)
		}

		groupPresets, groupIndents, ok, err := w.presetIndentKey(key, objKey)
		if err != nil {
			return err
		}

		if ok {
			return w.walk(v, objKey,
				concat(presets, groupPresets),
				concat(indents, groupIndents))
		}

		inline, err := decodePreset(v, objKey)
		if err != nil {
			return err
		}

		overrides := maps.Clone(inline.Overrides)
		if overrides == nil {
			overrides = Overrides{}
		}

		maps.Copy(overrides, indentOverrides(indents))
		inline.Overrides = overrides

		w.leaves = append(w.leaves, leaf{
			name:    key,
			key:     objKey,
			presets: concat(inline.Parents, presets),
			inline:  inline,
		})

		return nil
	}

	return ErrInvalidConfig.With(
		slog.String("key", objKey),
		slog.String("reason", "subscription value should either be a string, list, or object"),
	)
}

func (w *walker) leaf(name, objKey string, presets, indents []string, add Overrides) error {
	if w.presets.Has(name) {
		return ErrInvalidConfig.With(
			slog.String("key", objKey),
			slog.String("reason", fmt.Sprintf(
				"%s conflicts with an existing preset name and cannot be used as a subscription name",
				name)),
		)
	}

	overrides := indentOverrides(indents)
	maps.Copy(overrides, add)

	w.leaves = append(w.leaves, leaf{
		name:      name,
		key:       objKey,
		presets:   concat(presets),
		overrides: overrides,
	})

	return nil
}

// presetIndentKey splits a group key such as "music | = Rock" into the
// presets and indent values it names. It reports false if the key names
// neither.
func (w *walker) presetIndentKey(key, objKey string) ([]string, []string, bool, error) {
	var presets, indents []string

	for sub := range strings.SplitSeq(key, "|") {
		sub = strings.TrimSpace(sub)

		switch {
		case strings.HasPrefix(sub, "="):
			indents = append(indents, strings.TrimSpace(sub[1:]))

		case w.presets.Has(sub):
			presets = append(presets, sub)

		case len(presets) > 0 || len(indents) > 0:
			return nil, nil, false, ErrInvalidConfig.With(
				slog.String("key", objKey),
				slog.String("reason", fmt.Sprintf(
					"'%s' in '%s' is not a preset name. "+
						"To use as a subscription indent value, define it as '= %s'",
					sub, strings.TrimSpace(key), sub)),
			)
		}
	}

	if len(presets) == 0 && len(indents) == 0 {
		return nil, nil, false, nil
	}

	return presets, indents, true, nil
}

// resolveLeaf applies presets to a subscription and validates the result.
func resolveLeaf(
	ctx context.Context,
	o options,
	presets *Presets,
	l leaf,
	global []string,
) (*Subscription, error) {
	names := concat(l.presets, global)

	merged, err := presets.Resolve(names...)
	if err != nil {
		return nil, script.WrapError(err).With(slog.String("key", l.key))
	}

	if l.inline != nil {
		l.inline.apply(merged)
	}

	maps.Copy(merged.Overrides, l.overrides)
	merged.Overrides[VarSubscriptionName] = l.name

	s := &Subscription{
		Name:          l.name,
		Key:           l.key,
		Presets:       merged.Parents,
		Source:        merged.Source,
		Overrides:     merged.Overrides,
		OutputOptions: merged.OutputOptions,

		SubtitleOptions: merged.SubtitleOptions,
	}

	if err := s.validate(ctx, o); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Subscription) validate(ctx context.Context, o options) error {
	p := &Preset{
		Overrides:       s.Overrides,
		OutputOptions:   s.OutputOptions,
		SubtitleOptions: s.SubtitleOptions,
	}
	if err := p.validate(ctx, o, s.Key); err != nil {
		return err
	}

	for _, f := range s.OutputOptions.fields()[:2] {
		if f[1] == "" {
			return ErrInvalidConfig.With(
				slog.String("key", s.Key+".output_options."+f[0]),
				slog.String("reason", "required option is not set"),
			)
		}
	}

	b, err := entry.NewBuilder(s.Source, s.Overrides, o.scriptOptions()...)
	if err != nil {
		return invalid(err, s.Key)
	}

	if s.SubtitleOptions.Enabled() {
		b, err = b.WithVariables(entry.SubtitleVariables(s.SubtitleOptions.Type())...)
		if err != nil {
			return invalid(err, s.Key+".subtitle_options")
		}
	}

	s.builder = b

	return nil
}

// decodePreset converts a YAML mapping into a preset by re-encoding it.
func decodePreset(v any, key string) (*Preset, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, invalid(err, key)
	}

	var p Preset
	if err := yaml.UnmarshalWithOptions(data, &p, yaml.DisallowUnknownField()); err != nil {
		return nil, invalid(err, key)
	}

	p.Name = key

	return &p, nil
}

func indentOverrides(indents []string) Overrides {
	out := make(Overrides, len(indents))
	for i, v := range indents {
		out[SubscriptionIndentN(i+1)] = v
	}

	return out
}

func overrideValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return script.ToScript(plain(v))
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}

	return fmt.Sprint(k)
}

// concat returns a new slice holding the elements of every list.
func concat(lists ...[]string) []string {
	var n int
	for _, l := range lists {
		n += len(l)
	}

	out := make([]string, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}

	return out
}
