package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the type held by a [Value].
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindInteger
	KindFloat
	KindBoolean
	KindArray
	KindObject
)

// String returns the name of the kind as it appears in error messages.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindString:
		return "String"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindBoolean:
		return "Boolean"
	case KindArray:
		return "Array"
	case KindObject:
		return "Object"
	default:
		return "Unknown"
	}
}

// Value is an immutable script value. The zero Value is Empty.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	bln  bool
	arr  []Value
	obj  *Object
}

// Object is an insertion-ordered mapping of string keys to values.
type Object struct {
	keys []string
	vals map[string]Value
}

// Empty returns the Empty value.
func Empty() Value { return Value{} }

// String returns a String value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Integer returns an Integer value.
func Integer(i int64) Value { return Value{kind: KindInteger, num: i} }

// Float returns a Float value.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Boolean returns a Boolean value.
func Boolean(b bool) Value { return Value{kind: KindBoolean, bln: b} }

// Array returns an Array value holding a copy of items.
func Array(items ...Value) Value {
	return Value{kind: KindArray, arr: slices.Clone(items)}
}

// NewObject returns an empty Object with room for n keys.
func NewObject(n int) *Object {
	return &Object{
		keys: make([]string, 0, n),
		vals: make(map[string]Value, n),
	}
}

// Set assigns key to v, appending key if it is new. Set is only meant for
// building an Object before it is wrapped by [ObjectValue].
func (o *Object) Set(key string, v Value) *Object {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}

	o.vals[key] = v

	return o
}

// Get returns the value stored at key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}

	v, ok := o.vals[key]

	return v, ok
}

// Keys returns the keys of o in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}

	return slices.Clone(o.keys)
}

// Len returns the number of keys in o.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}

	return len(o.keys)
}

// ObjectValue returns an Object value holding a copy of o.
func ObjectValue(o *Object) Value {
	cp := NewObject(o.Len())
	if o != nil {
		for _, k := range o.keys {
			cp.Set(k, o.vals[k])
		}
	}

	return Value{kind: KindObject, obj: cp}
}

// Kind returns the type held by v.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is the Empty value.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// AsString returns the string held by a String value.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsInteger returns the integer held by an Integer value.
func (v Value) AsInteger() (int64, bool) { return v.num, v.kind == KindInteger }

// AsFloat returns the float held by a Float value.
func (v Value) AsFloat() (float64, bool) { return v.flt, v.kind == KindFloat }

// AsBoolean returns the boolean held by a Boolean value.
func (v Value) AsBoolean() (bool, bool) { return v.bln, v.kind == KindBoolean }

// AsArray returns a copy of the items held by an Array value.
func (v Value) AsArray() ([]Value, bool) {
	return slices.Clone(v.arr), v.kind == KindArray
}

// AsObject returns the mapping held by an Object value. The returned Object
// must not be modified.
func (v Value) AsObject() (*Object, bool) { return v.obj, v.kind == KindObject }

// Len returns the length of a String (in bytes), Array, or Object.
func (v Value) Len() (int, bool) {
	switch v.kind {
	case KindString:
		return len(v.str), true
	case KindArray:
		return len(v.arr), true
	case KindObject:
		return v.obj.Len(), true
	default:
		return 0, false
	}
}

// Truthy reports whether v is considered true by the logic functions:
// Empty, false, zero numbers, and empty strings, arrays, and objects are
// false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindString:
		return v.str != ""
	case KindInteger:
		return v.num != 0
	case KindFloat:
		return v.flt != 0
	case KindBoolean:
		return v.bln
	case KindArray:
		return len(v.arr) > 0
	case KindObject:
		return v.obj.Len() > 0
	default:
		return false
	}
}

// Equal reports whether v and w hold the same kind and contents.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}

	switch v.kind {
	case KindEmpty:
		return true
	case KindString:
		return v.str == w.str
	case KindInteger:
		return v.num == w.num
	case KindFloat:
		return v.flt == w.flt
	case KindBoolean:
		return v.bln == w.bln
	case KindArray:
		return slices.EqualFunc(v.arr, w.arr, Value.Equal)
	case KindObject:
		if v.obj.Len() != w.obj.Len() {
			return false
		}

		for i, k := range v.obj.keys {
			if w.obj.keys[i] != k || !v.obj.vals[k].Equal(w.obj.vals[k]) {
				return false
			}
		}

		return true
	default:
		return false
	}
}

// String returns the textual form of v as spliced into template output.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return strconv.FormatInt(v.num, 10)
	case KindFloat:
		return formatFloat(v.flt)
	case KindBoolean:
		return formatBool(v.bln)
	case KindArray, KindObject:
		var buf bytes.Buffer

		encodeJSON(&buf, v, false)

		return buf.String()
	default:
		return ""
	}
}

// Repr returns the textual form of v with strings quoted.
func (v Value) Repr() string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}

	return v.String()
}

// Native converts v to plain Go values: nil, string, int64, float64, bool,
// []any, or map[string]any.
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return v.num
	case KindFloat:
		return v.flt
	case KindBoolean:
		return v.bln
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Native()
		}

		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for _, k := range v.obj.keys {
			out[k] = v.obj.vals[k].Native()
		}

		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler. Object keys keep insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	encodeJSON(&buf, v, false)

	return buf.Bytes(), nil
}

// FromNative converts a Go value to a Value. Maps with string keys become
// Objects with sorted keys; any other type is converted through its JSON
// encoding.
func FromNative(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Empty(), nil
	case Value:
		return x, nil
	case string:
		return String(x), nil
	case bool:
		return Boolean(x), nil
	case int:
		return Integer(int64(x)), nil
	case int8:
		return Integer(int64(x)), nil
	case int16:
		return Integer(int64(x)), nil
	case int32:
		return Integer(int64(x)), nil
	case int64:
		return Integer(x), nil
	case uint:
		return Integer(int64(x)), nil
	case uint8:
		return Integer(int64(x)), nil
	case uint16:
		return Integer(int64(x)), nil
	case uint32:
		return Integer(int64(x)), nil
	case uint64:
		if x > math.MaxInt64 {
			return Float(float64(x)), nil
		}

		return Integer(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		return numberValue(x)
	case []any:
		items := make([]Value, len(x))

		for i, item := range x {
			v, err := FromNative(item)
			if err != nil {
				return Value{}, err
			}

			items[i] = v
		}

		return Value{kind: KindArray, arr: items}, nil
	case map[string]any:
		obj := NewObject(len(x))

		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}

		slices.Sort(keys)

		for _, k := range keys {
			v, err := FromNative(x[k])
			if err != nil {
				return Value{}, err
			}

			obj.Set(k, v)
		}

		return Value{kind: KindObject, obj: obj}, nil
	}

	// Slices of concrete types, typed maps, structs, and anything else that
	// has a JSON form.
	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Empty(), nil
	}

	data, err := json.Marshal(x)
	if err != nil {
		return Value{}, ErrType.Wrap(err).
			With(slog.String("type", fmt.Sprintf("%T", x)))
	}

	return ParseJSON(string(data))
}

// ParseJSON decodes JSON text into a Value, preserving object key order and
// distinguishing integers from floats.
func ParseJSON(text string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}

	// Reject trailing data such as "1 2" or "{} x".
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}

		return Value{}, err
	}

	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, io.ErrUnexpectedEOF
		}

		return Value{}, err
	}

	switch tok := tok.(type) {
	case nil:
		return Empty(), nil
	case bool:
		return Boolean(tok), nil
	case string:
		return String(tok), nil
	case json.Number:
		return numberValue(tok)
	case json.Delim:
		switch tok {
		case '[':
			items := make([]Value, 0)

			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}

				items = append(items, item)
			}

			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}

			return Value{kind: KindArray, arr: items}, nil

		case '{':
			obj := NewObject(0)

			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}

				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("invalid object key %v", keyTok)
				}

				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}

				obj.Set(key, item)
			}

			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}

			return Value{kind: KindObject, obj: obj}, nil
		}
	}

	return Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}

func numberValue(n json.Number) (Value, error) {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return Integer(i), nil
	}

	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil {
		return Value{}, err
	}

	return Float(f), nil
}

// formatBool returns the script spelling of a boolean.
func formatBool(b bool) string {
	if b {
		return "True"
	}

	return "False"
}

// formatFloat returns the shortest decimal form of f that reads back to the
// same value, always distinguishable from an integer: 1.5, 2.0, 1e+16.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	if f != 0 {
		e := strconv.FormatFloat(f, 'e', -1, 64)

		exp, _ := strconv.Atoi(e[strings.LastIndexByte(e, 'e')+1:])
		if exp < -4 || exp >= 16 {
			return e
		}
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}

	return s
}

// encodeJSON writes v as JSON using ", " and ": " separators. Non-ASCII text
// is written as is. With sortKeys, object keys are emitted in sorted order at
// every level; otherwise insertion order is kept.
func encodeJSON(buf *bytes.Buffer, v Value, sortKeys bool) {
	switch v.kind {
	case KindEmpty:
		buf.WriteString("null")
	case KindString:
		encodeJSONString(buf, v.str)
	case KindInteger:
		buf.WriteString(strconv.FormatInt(v.num, 10))
	case KindFloat:
		switch {
		case math.IsNaN(v.flt):
			buf.WriteString("NaN")
		case math.IsInf(v.flt, 1):
			buf.WriteString("Infinity")
		case math.IsInf(v.flt, -1):
			buf.WriteString("-Infinity")
		default:
			buf.WriteString(formatFloat(v.flt))
		}
	case KindBoolean:
		buf.WriteString(strconv.FormatBool(v.bln))
	case KindArray:
		buf.WriteByte('[')

		for i, item := range v.arr {
			if i > 0 {
				buf.WriteString(", ")
			}

			encodeJSON(buf, item, sortKeys)
		}

		buf.WriteByte(']')
	case KindObject:
		keys := v.obj.keys
		if sortKeys {
			keys = slices.Sorted(slices.Values(keys))
		}

		buf.WriteByte('{')

		for i, k := range keys {
			if i > 0 {
				buf.WriteString(", ")
			}

			encodeJSONString(buf, k)
			buf.WriteString(": ")
			encodeJSON(buf, v.obj.vals[k], sortKeys)
		}

		buf.WriteByte('}')
	}
}

func encodeJSONString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer

	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)

	// Encoding a string cannot fail.
	_ = enc.Encode(s)

	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
}
