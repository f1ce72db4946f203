package script

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

func coreFunctions() []*Function {
	return []*Function{
		{
			Name:    "sanitize",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Any},
			Result: "String",
			Doc:    "Make a value safe to use as a file or directory name",
			Impl: func(args []Value) (Value, error) {
				return String(Sanitize(args[0].String())), nil
			},
		},
		{
			Name:    "int",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Scalar},
			Result: "Integer",
			Doc:    "Convert a value to an integer",
			Impl: func(args []Value) (Value, error) {
				i, err := toInteger(args[0])
				if err != nil {
					return Value{}, err
				}

				return Integer(i), nil
			},
		},
		{
			Name:    "float",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Scalar},
			Result: "Float",
			Doc:    "Convert a value to a float",
			Impl: func(args []Value) (Value, error) {
				f, err := toFloat(args[0])
				if err != nil {
					return Value{}, err
				}

				return Float(f), nil
			},
		},
		{
			Name:    "bool",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Any},
			Result: "Boolean",
			Doc:    "Convert a value to a boolean",
			Impl: func(args []Value) (Value, error) {
				b, err := toBoolean(args[0])
				if err != nil {
					return Value{}, err
				}

				return Boolean(b), nil
			},
		},
		{
			Name:    "from_json",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Str},
			Result: "Any",
			Doc:    "Parse JSON text into a value",
			Impl: func(args []Value) (Value, error) {
				v, err := ParseJSON(args[0].str)
				if err != nil {
					return Value{}, fmt.Errorf("invalid JSON: %w", err)
				}

				return v, nil
			},
		},
	}
}

func toInteger(v Value) (int64, error) {
	switch v.kind {
	case KindInteger:
		return v.num, nil
	case KindBoolean:
		if v.bln {
			return 1, nil
		}

		return 0, nil
	case KindFloat:
		if math.IsNaN(v.flt) || math.IsInf(v.flt, 0) ||
			v.flt >= math.MaxInt64 || v.flt < math.MinInt64 {
			return 0, fmt.Errorf("float %s is not representable as an integer",
				formatFloat(v.flt))
		}

		return int64(v.flt), nil
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(v.str), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v.str)
		}

		return i, nil
	}

	return 0, fmt.Errorf("%s is not convertible to an integer", v.kind)
}

func toFloat(v Value) (float64, error) {
	switch v.kind {
	case KindFloat:
		return v.flt, nil
	case KindInteger:
		return float64(v.num), nil
	case KindBoolean:
		if v.bln {
			return 1, nil
		}

		return 0, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
				return f, nil
			}

			return 0, fmt.Errorf("%q is not a float", v.str)
		}

		return f, nil
	}

	return 0, fmt.Errorf("%s is not convertible to a float", v.kind)
}

// toBoolean applies the literal and JSON rules of [BoolOf] to strings, but
// rejects text that is neither.
func toBoolean(v Value) (bool, error) {
	if v.kind != KindString {
		return v.Truthy(), nil
	}

	switch {
	case strings.EqualFold(v.str, "true"):
		return true, nil
	case v.str == "" || strings.EqualFold(v.str, "false"):
		return false, nil
	}

	parsed, err := ParseJSON(v.str)
	if err != nil {
		return false, fmt.Errorf("%q is not a boolean", v.str)
	}

	return parsed.Truthy(), nil
}
