package script

import (
	"fmt"
	"strings"
)

func logicFunctions() []*Function {
	return []*Function{
		{
			Name:    "if",
			MinArgs: 3, MaxArgs: 3,
			Params: []Types{Any},
			Result: "Any",
			Doc:    "Return the second argument if the first is truthy, else the third",
			Impl: func(args []Value) (Value, error) {
				if args[0].Truthy() {
					return args[1], nil
				}

				return args[2], nil
			},
		},
		{
			Name:    "not",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Any},
			Result: "Boolean",
			Doc:    "Negate the truthiness of a value",
			Impl: func(args []Value) (Value, error) {
				return Boolean(!args[0].Truthy()), nil
			},
		},
		{
			Name:    "and",
			MinArgs: 1, MaxArgs: -1,
			Params: []Types{Any},
			Result: "Boolean",
			Doc:    "Report whether every value is truthy",
			Impl: func(args []Value) (Value, error) {
				for _, arg := range args {
					if !arg.Truthy() {
						return Boolean(false), nil
					}
				}

				return Boolean(true), nil
			},
		},
		{
			Name:    "or",
			MinArgs: 1, MaxArgs: -1,
			Params: []Types{Any},
			Result: "Boolean",
			Doc:    "Report whether any value is truthy",
			Impl: func(args []Value) (Value, error) {
				for _, arg := range args {
					if arg.Truthy() {
						return Boolean(true), nil
					}
				}

				return Boolean(false), nil
			},
		},
		{
			Name:    "eq",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Any},
			Result: "Boolean",
			Doc:    "Report whether two values are equal; integers and floats compare by value",
			Impl: func(args []Value) (Value, error) {
				return Boolean(looseEqual(args[0], args[1])), nil
			},
		},
		{
			Name:    "ne",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Any},
			Result: "Boolean",
			Doc:    "Report whether two values differ",
			Impl: func(args []Value) (Value, error) {
				return Boolean(!looseEqual(args[0], args[1])), nil
			},
		},
		{
			Name:    "lt",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Of(KindString, KindInteger, KindFloat)},
			Result: "Boolean",
			Doc:    "Report whether the first value orders before the second",
			Impl: func(args []Value) (Value, error) {
				c, err := compare(args[0], args[1])
				if err != nil {
					return Value{}, err
				}

				return Boolean(c < 0), nil
			},
		},
		{
			Name:    "gt",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Of(KindString, KindInteger, KindFloat)},
			Result: "Boolean",
			Doc:    "Report whether the first value orders after the second",
			Impl: func(args []Value) (Value, error) {
				c, err := compare(args[0], args[1])
				if err != nil {
					return Value{}, err
				}

				return Boolean(c > 0), nil
			},
		},
		{
			Name:    "is_empty",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Any},
			Result: "Boolean",
			Doc:    "Report whether a value is Empty or an empty string, array, or object",
			Impl: func(args []Value) (Value, error) {
				if args[0].IsEmpty() {
					return Boolean(true), nil
				}

				n, ok := args[0].Len()

				return Boolean(ok && n == 0), nil
			},
		},
	}
}

func isNumber(v Value) bool {
	return v.kind == KindInteger || v.kind == KindFloat
}

func looseEqual(a, b Value) bool {
	if isNumber(a) && isNumber(b) && a.kind != b.kind {
		return asFloat(a) == asFloat(b)
	}

	return a.Equal(b)
}

// compare orders two numbers or two strings.
func compare(a, b Value) (int, error) {
	switch {
	case isNumber(a) && isNumber(b):
		if a.kind == KindInteger && b.kind == KindInteger {
			switch {
			case a.num < b.num:
				return -1, nil
			case a.num > b.num:
				return 1, nil
			}

			return 0, nil
		}

		fa, fb := asFloat(a), asFloat(b)

		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		}

		return 0, nil

	case a.kind == KindString && b.kind == KindString:
		return strings.Compare(a.str, b.str), nil
	}

	return 0, fmt.Errorf("cannot compare %s with %s", a.kind, b.kind)
}
