package entry

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/ytsub/script"
)

// ErrDecode is returned when an entry file cannot be read or decoded.
var ErrDecode = script.NewError("cannot decode entry")

// Format identifies the encoding of an entry file.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatOf returns the format implied by the extension of path. Unknown
// extensions are treated as JSON, the format yt-dlp writes.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Entry is the raw metadata of one media item, as written by yt-dlp to an
// .info.json file. An Entry is never modified after it is created.
type Entry struct {
	fields map[string]any
	path   string
}

// New returns an Entry holding a copy of fields.
func New(fields map[string]any) *Entry {
	return &Entry{fields: maps.Clone(fields)}
}

// Load reads an entry from a JSON or YAML file.
func Load(path string) (*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ErrDecode.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	e, err := Decode(f, FormatOf(path))
	if err != nil {
		return nil, script.WrapError(err).With(slog.String("path", path))
	}

	e.path = path

	return e, nil
}

// Decode reads an entry in the given format from r. JSON numbers keep their
// integer or float form.
func Decode(r io.Reader, format Format) (*Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrDecode.Wrap(err)
	}

	fields := make(map[string]any)

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &fields); err != nil {
			return nil, ErrDecode.Wrap(err).With(slog.String("format", "yaml"))
		}

	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()

		if err := dec.Decode(&fields); err != nil {
			return nil, ErrDecode.Wrap(err).With(slog.String("format", "json"))
		}
	}

	return &Entry{fields: fields}, nil
}

// Path returns the file the entry was loaded from, if any.
func (e *Entry) Path() string { return e.path }

// ID returns the entry's id field, or "" if it has none.
func (e *Entry) ID() string {
	s, err := e.String("id")
	if err != nil {
		return ""
	}

	return s
}

// Get returns the raw value of a metadata field.
func (e *Entry) Get(key string) (any, bool) {
	v, ok := e.fields[key]

	return v, ok
}

// Keys returns the metadata field names in sorted order.
func (e *Entry) Keys() []string {
	return slices.Sorted(maps.Keys(e.fields))
}

// Fields returns a shallow copy of the metadata.
func (e *Entry) Fields() map[string]any {
	return maps.Clone(e.fields)
}

// String returns a scalar field as text. Numbers are formatted in decimal.
func (e *Entry) String(key string) (string, error) {
	raw, ok := e.fields[key]
	if !ok || raw == nil {
		return "", e.missing(key)
	}

	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool, int, int64, uint64, float64:
		val, err := script.FromNative(v)
		if err != nil {
			return "", e.malformed(key, err.Error())
		}

		return val.String(), nil
	}

	return "", e.malformed(key, "not a scalar")
}

// Integer returns a field as an integer. Integral strings are accepted.
func (e *Entry) Integer(key string) (int64, error) {
	raw, ok := e.fields[key]
	if !ok || raw == nil {
		return 0, e.missing(key)
	}

	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		return int64(v), nil
	case float64:
		if v == float64(int64(v)) {
			return int64(v), nil
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i, nil
		}
	}

	return 0, e.malformed(key, "not an integer")
}

// Value returns a field converted to a script value of any kind.
func (e *Entry) Value(key string) (script.Value, error) {
	raw, ok := e.fields[key]
	if !ok {
		return script.Value{}, e.missing(key)
	}

	v, err := script.FromNative(raw)
	if err != nil {
		return script.Value{}, e.malformed(key, err.Error())
	}

	return v, nil
}

func (e *Entry) missing(key string) error {
	return script.ErrMetadata.With(e.attrs(key, "missing field")...)
}

func (e *Entry) malformed(key, reason string) error {
	return script.ErrMetadata.With(e.attrs(key, reason)...)
}

func (e *Entry) attrs(key, reason string) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("field", key),
		slog.String("reason", reason),
	}

	if key != "id" {
		if id := e.ID(); id != "" {
			attrs = append(attrs, slog.String("entry", id))
		}
	}

	return attrs
}
