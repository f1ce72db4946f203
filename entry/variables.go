package entry

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/ardnew/ytsub/script"
)

// Variable is an entry-derived variable: a name bound to an accessor that
// computes its value from an [Entry].
type Variable struct {
	Name string
	Doc  string
	Get  func(*Entry) (script.Value, error)
}

// BaseVariables returns the variables every entry provides regardless of
// source.
func BaseVariables() []Variable {
	return []Variable{
		{
			Name: "uid",
			Doc:  "Unique identifier of the entry.",
			Get:  stringField("id"),
		},
		{
			Name: "extractor",
			Doc:  "Name of the extractor that produced the entry.",
			Get:  stringField("extractor"),
		},
	}
}

// MediaVariables returns the variables describing a single media item.
func MediaVariables() []Variable {
	return []Variable{
		{
			Name: "title",
			Doc:  "Title of the entry.",
			Get:  stringField("title"),
		},
		{
			Name: "sanitized_title",
			Doc:  "Title of the entry, safe for use in a file name.",
			Get: func(e *Entry) (script.Value, error) {
				s, err := e.String("title")
				if err != nil {
					return script.Value{}, err
				}

				return script.String(script.Sanitize(s)), nil
			},
		},
		{
			Name: "ext",
			Doc:  "File extension of the downloaded media.",
			Get:  stringField("ext"),
		},
		{
			Name: "thumbnail_ext",
			Doc:  "File extension of the thumbnail, taken from its URL.",
			Get: func(e *Entry) (script.Value, error) {
				s, err := e.String("thumbnail")
				if err != nil {
					return script.Value{}, err
				}

				return script.String(s[strings.LastIndexByte(s, '.')+1:]), nil
			},
		},
		{
			Name: "upload_date",
			Doc:  "Upload date as YYYYMMDD.",
			Get:  stringField("upload_date"),
		},
		{
			Name: "upload_year",
			Doc:  "Upload year as an integer.",
			Get: func(e *Entry) (script.Value, error) {
				d, err := uploadDateOf(e)
				if err != nil {
					return script.Value{}, err
				}

				return script.Integer(d.year), nil
			},
		},
		{
			Name: "upload_month_padded",
			Doc:  "Upload month as two digits.",
			Get:  uploadPart(func(d uploadDate) string { return d.month }),
		},
		{
			Name: "upload_day_padded",
			Doc:  "Upload day of the month as two digits.",
			Get:  uploadPart(func(d uploadDate) string { return d.day }),
		},
		{
			Name: "upload_month",
			Doc:  "Upload month as an integer.",
			Get:  uploadNumber("upload_month", func(d uploadDate) string { return d.month }),
		},
		{
			Name: "upload_day",
			Doc:  "Upload day of the month as an integer.",
			Get:  uploadNumber("upload_day", func(d uploadDate) string { return d.day }),
		},
		{
			Name: "upload_date_standardized",
			Doc:  "Upload date as YYYY-MM-DD.",
			Get: func(e *Entry) (script.Value, error) {
				d, err := uploadDateOf(e)
				if err != nil {
					return script.Value{}, err
				}

				return script.String(fmt.Sprintf("%d-%s-%s", d.year, d.month, d.day)), nil
			},
		},
		{
			Name: "description",
			Doc:  "Description of the entry.",
			Get:  stringField("description"),
		},
	}
}

func stringField(key string) func(*Entry) (script.Value, error) {
	return func(e *Entry) (script.Value, error) {
		s, err := e.String(key)
		if err != nil {
			return script.Value{}, err
		}

		return script.String(s), nil
	}
}

// firstPresent returns the first of keys the entry has, or keys[0].
func firstPresent(e *Entry, keys ...string) string {
	for _, k := range keys {
		if v, ok := e.Get(k); ok && v != nil {
			return k
		}
	}

	return keys[0]
}

// stringFieldOf reads the first present of keys as a string.
func stringFieldOf(keys ...string) func(*Entry) (script.Value, error) {
	return func(e *Entry) (script.Value, error) {
		return stringField(firstPresent(e, keys...))(e)
	}
}

// integerField reads the first present of keys as an integer.
func integerField(keys ...string) func(*Entry) (script.Value, error) {
	return func(e *Entry) (script.Value, error) {
		n, err := e.Integer(firstPresent(e, keys...))
		if err != nil {
			return script.Value{}, err
		}

		return script.Integer(n), nil
	}
}

// uploadDate is the decomposed upload_date field.
type uploadDate struct {
	year  int64
	month string
	day   string
}

func uploadDateOf(e *Entry) (uploadDate, error) {
	s, err := e.String("upload_date")
	if err != nil {
		return uploadDate{}, err
	}

	if len(s) != 8 || strings.IndexFunc(s, notDigit) >= 0 {
		return uploadDate{}, e.malformed("upload_date", "expected YYYYMMDD")
	}

	year, err := strconv.ParseInt(s[:4], 10, 64)
	if err != nil {
		return uploadDate{}, e.malformed("upload_date", "invalid year")
	}

	return uploadDate{year: year, month: s[4:6], day: s[6:8]}, nil
}

func notDigit(r rune) bool { return r < '0' || r > '9' }

func uploadPart(part func(uploadDate) string) func(*Entry) (script.Value, error) {
	return func(e *Entry) (script.Value, error) {
		d, err := uploadDateOf(e)
		if err != nil {
			return script.Value{}, err
		}

		return script.String(part(d)), nil
	}
}

func uploadNumber(name string, part func(uploadDate) string) func(*Entry) (script.Value, error) {
	return func(e *Entry) (script.Value, error) {
		d, err := uploadDateOf(e)
		if err != nil {
			return script.Value{}, err
		}

		digits := strings.TrimLeft(part(d), "0")

		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return script.Value{}, script.ErrMetadata.With(
				slog.String("field", "upload_date"),
				slog.String("reason", "invalid "+strings.TrimPrefix(name, "upload_")),
				slog.String("entry", e.ID()),
			)
		}

		return script.Integer(n), nil
	}
}
