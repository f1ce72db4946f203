package script

import (
	"errors"
	"math"
)

var (
	errDivideByZero    = errors.New("division by zero")
	errIntegerOverflow = errors.New("integer overflow")
)

func numericFunctions() []*Function {
	return []*Function{
		{
			Name:    "add",
			MinArgs: 2, MaxArgs: -1,
			Params: []Types{Numeric},
			Result: "Integer|Float",
			Doc:    "Sum numbers",
			Impl: fold(
				func(a, b int64) (int64, error) {
					if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
						return 0, errIntegerOverflow
					}

					return a + b, nil
				},
				func(a, b float64) (float64, error) { return a + b, nil },
			),
		},
		{
			Name:    "sub",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Numeric},
			Result: "Integer|Float",
			Doc:    "Subtract the second number from the first",
			Impl: fold(
				func(a, b int64) (int64, error) {
					if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
						return 0, errIntegerOverflow
					}

					return a - b, nil
				},
				func(a, b float64) (float64, error) { return a - b, nil },
			),
		},
		{
			Name:    "mul",
			MinArgs: 2, MaxArgs: -1,
			Params: []Types{Numeric},
			Result: "Integer|Float",
			Doc:    "Multiply numbers",
			Impl: fold(
				func(a, b int64) (int64, error) {
					if a == 0 || b == 0 {
						return 0, nil
					}

					c := a * b
					if c/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
						return 0, errIntegerOverflow
					}

					return c, nil
				},
				func(a, b float64) (float64, error) { return a * b, nil },
			),
		},
		{
			Name:    "div",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Numeric},
			Result: "Float",
			Doc:    "Divide the first number by the second",
			Impl: func(args []Value) (Value, error) {
				a, b := asFloat(args[0]), asFloat(args[1])
				if b == 0 {
					return Value{}, errDivideByZero
				}

				return Float(a / b), nil
			},
		},
		{
			Name:    "mod",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Numeric},
			Result: "Integer|Float",
			Doc:    "Remainder of dividing the first number by the second, with the sign of the divisor",
			Impl: fold(
				func(a, b int64) (int64, error) {
					if b == 0 {
						return 0, errDivideByZero
					}

					m := a % b
					if m != 0 && (m < 0) != (b < 0) {
						m += b
					}

					return m, nil
				},
				func(a, b float64) (float64, error) {
					if b == 0 {
						return 0, errDivideByZero
					}

					m := math.Mod(a, b)
					if m != 0 && (m < 0) != (b < 0) {
						m += b
					}

					return m, nil
				},
			),
		},
		{
			Name:    "max",
			MinArgs: 1, MaxArgs: -1,
			Params: []Types{Numeric},
			Result: "Integer|Float",
			Doc:    "Largest of the numbers",
			Impl: pick(func(a, b Value) bool {
				return asFloat(b) > asFloat(a)
			}),
		},
		{
			Name:    "min",
			MinArgs: 1, MaxArgs: -1,
			Params: []Types{Numeric},
			Result: "Integer|Float",
			Doc:    "Smallest of the numbers",
			Impl: pick(func(a, b Value) bool {
				return asFloat(b) < asFloat(a)
			}),
		},
	}
}

// fold returns an implementation applying a binary operator left to right.
// The result is an Integer if every argument is, otherwise a Float.
func fold(
	ints func(a, b int64) (int64, error),
	floats func(a, b float64) (float64, error),
) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		allInt := true

		for _, arg := range args {
			if arg.kind != KindInteger {
				allInt = false

				break
			}
		}

		if allInt {
			acc := args[0].num

			for _, arg := range args[1:] {
				var err error

				if acc, err = ints(acc, arg.num); err != nil {
					return Value{}, err
				}
			}

			return Integer(acc), nil
		}

		acc := asFloat(args[0])

		for _, arg := range args[1:] {
			var err error

			if acc, err = floats(acc, asFloat(arg)); err != nil {
				return Value{}, err
			}
		}

		return Float(acc), nil
	}
}

// pick returns an implementation selecting the argument preferred by better.
func pick(better func(cur, next Value) bool) func([]Value) (Value, error) {
	return func(args []Value) (Value, error) {
		best := args[0]

		for _, arg := range args[1:] {
			if better(best, arg) {
				best = arg
			}
		}

		return best, nil
	}
}

// asFloat returns the numeric value of an Integer or Float.
func asFloat(v Value) float64 {
	if v.kind == KindInteger {
		return float64(v.num)
	}

	return v.flt
}
