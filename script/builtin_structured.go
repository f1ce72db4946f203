package script

import (
	"bytes"
	"fmt"
)

func structuredFunctions() []*Function {
	return []*Function{
		{
			Name:    "array_at",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Arr, Int},
			Result: "Any",
			Doc:    "Element of an array at an index; negative indices count from the end",
			Impl: func(args []Value) (Value, error) {
				items, i := args[0].arr, args[1].num
				if i < 0 {
					i += int64(len(items))
				}

				if i < 0 || i >= int64(len(items)) {
					return Value{}, fmt.Errorf("index %d out of range for array of length %d",
						args[1].num, len(items))
				}

				return items[i], nil
			},
		},
		{
			Name:    "map_get",
			MinArgs: 2, MaxArgs: 3,
			Params: []Types{Obj, Str, Any},
			Result: "Any",
			Doc:    "Value of an object at a key, or the default if the key is absent",
			Impl: func(args []Value) (Value, error) {
				if v, ok := args[0].obj.Get(args[1].str); ok {
					return v, nil
				}

				if len(args) == 3 {
					return args[2], nil
				}

				return Value{}, fmt.Errorf("key %q not found", args[1].str)
			},
		},
		{
			Name:    "map_contains",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Obj, Str},
			Result: "Boolean",
			Doc:    "Report whether an object has a key",
			Impl: func(args []Value) (Value, error) {
				_, ok := args[0].obj.Get(args[1].str)

				return Boolean(ok), nil
			},
		},
		{
			Name:    "to_json",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Any},
			Result: "String",
			Doc:    "Encode a value as JSON text",
			Impl: func(args []Value) (Value, error) {
				var buf bytes.Buffer

				encodeJSON(&buf, args[0], false)

				return String(buf.String()), nil
			},
		},
	}
}
