package script

import (
	"errors"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

func stringFunctions() []*Function {
	return []*Function{
		{
			Name:    "string",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Any},
			Result: "String",
			Doc:    "Convert a value to its textual form",
			Impl: func(args []Value) (Value, error) {
				return String(args[0].String()), nil
			},
		},
		{
			Name:    "lower",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Str},
			Result: "String",
			Doc:    "Lower-case a string",
			Impl: func(args []Value) (Value, error) {
				return String(strings.ToLower(args[0].str)), nil
			},
		},
		{
			Name:    "upper",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Str},
			Result: "String",
			Doc:    "Upper-case a string",
			Impl: func(args []Value) (Value, error) {
				return String(strings.ToUpper(args[0].str)), nil
			},
		},
		{
			Name:    "capitalize",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Str},
			Result: "String",
			Doc:    "Upper-case the first character and lower-case the rest",
			Impl: func(args []Value) (Value, error) {
				return String(capitalize(args[0].str)), nil
			},
		},
		{
			Name:    "titlecase",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Str},
			Result: "String",
			Doc:    "Upper-case the first letter of every word",
			Impl: func(args []Value) (Value, error) {
				return String(titlecase(args[0].str)), nil
			},
		},
		{
			Name:    "replace",
			MinArgs: 3, MaxArgs: 4,
			Params: []Types{Str, Str, Str, Int},
			Result: "String",
			Doc:    "Replace occurrences of old with new, at most count times",
			Impl: func(args []Value) (Value, error) {
				count := int64(-1)
				if len(args) == 4 {
					count = args[3].num
				}

				return String(strings.Replace(
					args[0].str, args[1].str, args[2].str, int(count))), nil
			},
		},
		{
			Name:    "concat",
			MinArgs: 1, MaxArgs: -1,
			Params: []Types{Str},
			Result: "String",
			Doc:    "Join strings end to end",
			Impl: func(args []Value) (Value, error) {
				var sb strings.Builder

				for _, arg := range args {
					sb.WriteString(arg.str)
				}

				return String(sb.String()), nil
			},
		},
		{
			Name:    "strip",
			MinArgs: 1, MaxArgs: 2,
			Params: []Types{Str, Str},
			Result: "String",
			Doc:    "Remove leading and trailing whitespace, or the given characters",
			Impl: func(args []Value) (Value, error) {
				if len(args) == 2 {
					return String(strings.Trim(args[0].str, args[1].str)), nil
				}

				return String(strings.TrimSpace(args[0].str)), nil
			},
		},
		{
			Name:    "pad",
			MinArgs: 3, MaxArgs: 3,
			Params: []Types{Str, Int, Str},
			Result: "String",
			Doc:    "Left-pad a string with a character up to a length",
			Impl: func(args []Value) (Value, error) {
				s, length, fill := args[0].str, args[1].num, args[2].str
				if utf8.RuneCountInString(fill) != 1 {
					return Value{}, errors.New("pad character must be one character")
				}

				n := int(length) - utf8.RuneCountInString(s)
				if n <= 0 {
					return String(s), nil
				}

				return String(strings.Repeat(fill, n) + s), nil
			},
		},
		{
			Name:    "slice",
			MinArgs: 2, MaxArgs: 3,
			Params: []Types{Of(KindString, KindArray), Int, Int},
			Result: "String|Array",
			Doc:    "Return the elements from start up to end; negative indices count from the end",
			Impl:   sliceValue,
		},
		{
			Name:    "contains",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Of(KindString, KindArray, KindObject), Any},
			Result: "Boolean",
			Doc:    "Report whether a string has a substring, an array an element, or an object a key",
			Impl: func(args []Value) (Value, error) {
				haystack, needle := args[0], args[1]

				switch haystack.kind {
				case KindString:
					return Boolean(strings.Contains(haystack.str, needle.String())), nil
				case KindArray:
					return Boolean(slices.ContainsFunc(haystack.arr, needle.Equal)), nil
				default:
					_, ok := haystack.obj.Get(needle.String())

					return Boolean(ok), nil
				}
			},
		},
		{
			Name:    "length",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Of(KindString, KindArray, KindObject)},
			Result: "Integer",
			Doc:    "Count the characters of a string or the elements of an array or object",
			Impl: func(args []Value) (Value, error) {
				if s, ok := args[0].AsString(); ok {
					return Integer(int64(utf8.RuneCountInString(s))), nil
				}

				n, _ := args[0].Len()

				return Integer(int64(n)), nil
			},
		},
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}

	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// titlecase upper-cases each letter that follows a non-letter and
// lower-cases every other letter.
func titlecase(s string) string {
	var sb strings.Builder

	sb.Grow(len(s))

	prevLetter := false

	for _, r := range s {
		if prevLetter {
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(unicode.ToTitle(r))
		}

		prevLetter = unicode.IsLetter(r)
	}

	return sb.String()
}

func sliceValue(args []Value) (Value, error) {
	var n int

	runes := []rune(nil)
	if args[0].kind == KindString {
		runes = []rune(args[0].str)
		n = len(runes)
	} else {
		n = len(args[0].arr)
	}

	start := clampIndex(args[1].num, n)
	end := n

	if len(args) == 3 {
		end = clampIndex(args[2].num, n)
	}

	if end < start {
		end = start
	}

	if args[0].kind == KindString {
		return String(string(runes[start:end])), nil
	}

	return Array(args[0].arr[start:end]...), nil
}

// clampIndex resolves a possibly negative index against length n and clamps
// it to [0, n].
func clampIndex(i int64, n int) int {
	if i < 0 {
		i += int64(n)
	}

	return int(max(0, min(i, int64(n))))
}
