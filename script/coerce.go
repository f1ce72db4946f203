package script

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToScript returns the template text that, evaluated against an empty
// context, reproduces x.
//
// Nil becomes "" and a string is returned as is. Integers, floats, and
// booleans become calls to int, float, and bool. Anything else is encoded as
// JSON with sorted keys and wrapped in a from_json call with a ''' delimited
// argument. Runs of three or more single quotes in the JSON are collapsed to
// one so they cannot end the argument early, which loses those quotes.
func ToScript(x any) string {
	v, ok := x.(Value)
	if !ok {
		switch x := x.(type) {
		case string:
			return x
		case json.Number:
			if nv, err := numberValue(x); err == nil {
				v = nv
			} else {
				v = String(x.String())
			}
		default:
			var err error

			// Values without a JSON form have no script form either.
			if v, err = FromNative(x); err != nil {
				return ""
			}
		}
	}

	switch v.Kind() {
	case KindString:
		return v.str
	case KindInteger:
		return "{%int(" + strconv.FormatInt(v.num, 10) + ")}"
	case KindFloat:
		if math.IsNaN(v.flt) || math.IsInf(v.flt, 0) {
			return "{%float('" + formatFloat(v.flt) + "')}"
		}

		return "{%float(" + formatFloat(v.flt) + ")}"
	case KindBoolean:
		return "{%bool(" + formatBool(v.bln) + ")}"
	case KindArray, KindObject:
		var buf bytes.Buffer

		encodeJSON(&buf, v, true)

		return "{%from_json('''" + collapseQuotes(buf.String()) + "''')}"
	default:
		return ""
	}
}

// collapseQuotes replaces every run of three or more single quotes with one.
func collapseQuotes(s string) string {
	if !strings.Contains(s, "'''") {
		return s
	}

	var sb strings.Builder

	sb.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '\'' {
			sb.WriteByte(s[i])
			i++

			continue
		}

		j := i
		for j < len(s) && s[j] == '\'' {
			j++
		}

		if j-i >= 3 {
			sb.WriteByte('\'')
		} else {
			sb.WriteString(s[i:j])
		}

		i = j
	}

	return sb.String()
}

// BoolOf converts the output of an evaluation to a boolean.
//
// The empty string and "false" in any letter case are false. Otherwise, if s
// is valid JSON it is false exactly when it decodes to false, zero, "", [],
// {}, or null. Anything that is not valid JSON is true.
func BoolOf(s string) bool {
	if s == "" || strings.EqualFold(s, "false") {
		return false
	}

	v, err := ParseJSON(s)
	if err != nil {
		return true
	}

	return v.Truthy()
}
