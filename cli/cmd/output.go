package cmd

import (
	"encoding/json"
	"io"
	"log/slog"

	"github.com/goccy/go-yaml"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// encode writes v to out as JSON or YAML.
func encode(out io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)

		if err := enc.Encode(v); err != nil {
			return ErrJSONMarshal.Wrap(err)
		}

		return nil

	case formatYAML:
		data, err := yaml.MarshalWithOptions(v, yaml.UseLiteralStyleIfMultiline(true))
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		_, err = out.Write(data)

		return err

	default:
		return ErrInvalidFormat.With(slog.String("format", format))
	}
}
