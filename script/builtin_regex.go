package script

import (
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

// regexTimeout bounds a single match so a pathological pattern fails an
// item instead of stalling a batch.
const regexTimeout = 2 * time.Second

// regexCache holds compiled patterns keyed by mode and source.
var regexCache sync.Map // string -> *regexp2.Regexp

type regexMode byte

const (
	regexSearch    regexMode = 's'
	regexMatch     regexMode = 'm'
	regexFullmatch regexMode = 'f'
)

func regexFunctions() []*Function {
	return []*Function{
		{
			Name:    "regex_match",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Str, Str},
			Result: "Array",
			Doc:    "Match a pattern at the start of a string; returns the string and its groups, or []",
			Impl: func(args []Value) (Value, error) {
				return regexFind(regexMatch, args[0].str, args[1].str)
			},
		},
		{
			Name:    "regex_search",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Str, Str},
			Result: "Array",
			Doc:    "Match a pattern anywhere in a string; returns the string and its groups, or []",
			Impl: func(args []Value) (Value, error) {
				return regexFind(regexSearch, args[0].str, args[1].str)
			},
		},
		{
			Name:    "regex_fullmatch",
			MinArgs: 2, MaxArgs: 2,
			Params: []Types{Str, Str},
			Result: "Array",
			Doc:    "Match a pattern against a whole string; returns the string and its groups, or []",
			Impl: func(args []Value) (Value, error) {
				return regexFind(regexFullmatch, args[0].str, args[1].str)
			},
		},
		{
			Name:    "regex_capture_groups",
			MinArgs: 1, MaxArgs: 1,
			Params: []Types{Str},
			Result: "Integer",
			Doc:    "Number of capture groups in a pattern",
			Impl: func(args []Value) (Value, error) {
				re, err := compileRegex(regexSearch, args[0].str)
				if err != nil {
					return Value{}, err
				}

				return Integer(int64(len(re.GetGroupNumbers()) - 1)), nil
			},
		},
		{
			Name:    "regex_sub",
			MinArgs: 3, MaxArgs: 3,
			Params: []Types{Str, Str, Str},
			Result: "String",
			Doc:    `Replace every match of a pattern; the replacement may refer to groups as \1 or \g<name>`,
			Impl: func(args []Value) (Value, error) {
				re, err := compileRegex(regexSearch, args[0].str)
				if err != nil {
					return Value{}, err
				}

				out, err := re.Replace(args[2].str, replacement(args[1].str), -1, -1)
				if err != nil {
					return Value{}, err
				}

				return String(out), nil
			},
		},
	}
}

// regexFind returns [input, group1, group2, ...] for the first match of
// pattern in input, or an empty Array. Groups that did not participate in the
// match are empty strings.
func regexFind(mode regexMode, pattern, input string) (Value, error) {
	re, err := compileRegex(mode, pattern)
	if err != nil {
		return Value{}, err
	}

	m, err := re.FindStringMatch(input)
	if err != nil {
		return Value{}, err
	}

	if m == nil {
		return Array(), nil
	}

	groups := m.Groups()
	items := make([]Value, 0, len(groups))
	items = append(items, String(input))

	for _, g := range groups[1:] {
		if len(g.Captures) == 0 {
			items = append(items, String(""))

			continue
		}

		items = append(items, String(g.String()))
	}

	return Value{kind: KindArray, arr: items}, nil
}

func compileRegex(mode regexMode, pattern string) (*regexp2.Regexp, error) {
	key := string(mode) + pattern

	if re, ok := regexCache.Load(key); ok {
		return re.(*regexp2.Regexp), nil
	}

	expr := pythonSyntax(pattern)

	switch mode {
	case regexMatch:
		expr = `\A(?:` + expr + `)`
	case regexFullmatch:
		expr = `\A(?:` + expr + `)\z`
	case regexSearch:
	}

	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return nil, err
	}

	re.MatchTimeout = regexTimeout

	actual, _ := regexCache.LoadOrStore(key, re)

	return actual.(*regexp2.Regexp), nil
}

// pythonSyntax rewrites the named-group forms "(?P<name>" and "(?P=name)" to
// their equivalents "(?<name>" and "\k<name>".
func pythonSyntax(pattern string) string {
	if !strings.Contains(pattern, "(?P") {
		return pattern
	}

	var sb strings.Builder

	for i := 0; i < len(pattern); i++ {
		switch {
		case pattern[i] == '\\' && i+1 < len(pattern):
			sb.WriteString(pattern[i : i+2])
			i++

		case strings.HasPrefix(pattern[i:], "(?P<"):
			sb.WriteString("(?<")
			i += len("(?P<") - 1

		case strings.HasPrefix(pattern[i:], "(?P="):
			end := strings.IndexByte(pattern[i:], ')')
			if end < 0 {
				sb.WriteString(pattern[i:])

				return sb.String()
			}

			sb.WriteString(`\k<` + pattern[i+len("(?P="):i+end] + ">")
			i += end

		default:
			sb.WriteByte(pattern[i])
		}
	}

	return sb.String()
}

// replacement rewrites a replacement string using \1 and \g<name> group
// references into one using ${1} and ${name}, escaping literal dollars.
func replacement(repl string) string {
	var sb strings.Builder

	for i := 0; i < len(repl); i++ {
		ch := repl[i]

		switch {
		case ch == '$':
			sb.WriteString("$$")

		case ch != '\\' || i+1 == len(repl):
			sb.WriteByte(ch)

		case isDigit(rune(repl[i+1])):
			j := i + 1
			for j < len(repl) && j < i+3 && isDigit(rune(repl[j])) {
				j++
			}

			sb.WriteString("${" + repl[i+1:j] + "}")
			i = j - 1

		case repl[i+1] == 'g' && strings.HasPrefix(repl[i+2:], "<"):
			end := strings.IndexByte(repl[i:], '>')
			if end < 0 {
				sb.WriteString(repl[i:])

				return sb.String()
			}

			sb.WriteString("${" + repl[i+3:i+end] + "}")
			i += end

		default:
			i++

			switch repl[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte('\\')
				sb.WriteByte(repl[i])
			}
		}
	}

	return sb.String()
}
