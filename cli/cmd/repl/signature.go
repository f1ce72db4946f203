package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/ardnew/ytsub/script"
)

// Signature hint styles.
var (
	signatureStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	signatureNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("6")).
				Bold(true)
	currentParamStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)
	signatureSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// functionCall is a function call detected around the cursor.
type functionCall struct {
	name     string // function name without the sigil
	argIndex int    // 0-based index of the argument under the cursor
	inCall   bool   // cursor is inside the argument list
}

// detectFunctionCall reports the innermost "%name(" call whose argument list
// contains the cursor. Parentheses and commas inside quoted strings are
// ignored.
func detectFunctionCall(input string, cursor int) functionCall {
	if cursor > len(input) {
		cursor = len(input)
	}

	// Scan forward so quotes are tracked in reading order, keeping a stack
	// of open calls.
	type open struct {
		name string
		args int
	}

	var (
		stack []open
		quote rune
	)

	for i := 0; i < cursor; {
		r, size := utf8.DecodeRuneInString(input[i:])

		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}

		case r == '"' || r == '\'':
			quote = r

		case r == '(':
			stack = append(stack, open{name: callName(input, i)})

		case r == ')':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case r == ',':
			if len(stack) > 0 {
				stack[len(stack)-1].args++
			}
		}

		i += size
	}

	if len(stack) == 0 {
		return functionCall{}
	}

	top := stack[len(stack)-1]
	if top.name == "" {
		return functionCall{}
	}

	return functionCall{name: top.name, argIndex: top.args, inCall: true}
}

// callName returns the function name before the parenthesis at paren, or ""
// when it is not preceded by "%name".
func callName(input string, paren int) string {
	start := paren

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if !script.IsIdentifier(string(r)) && (r < '0' || r > '9') {
			break
		}

		start -= size
	}

	if start == paren || start == 0 || input[start-1] != functionSigil {
		return ""
	}

	return input[start:paren]
}

// getSignature returns the signature of a registered function and the label
// of each parameter. Optional parameters are bracketed and a trailing "..."
// marks a variadic function.
func getSignature(name string) (signature string, params []string) {
	fn, ok := script.Functions().Lookup(name)
	if !ok {
		return "", nil
	}

	n := len(fn.Params)
	if fn.MaxArgs >= 0 && fn.MaxArgs < n {
		n = fn.MaxArgs
	}

	params = make([]string, 0, n+1)

	for i := range n {
		label := fn.Params[i].String()
		if i >= fn.MinArgs {
			label = "[" + label + "]"
		}

		params = append(params, label)
	}

	if fn.MaxArgs < 0 {
		params = append(params, "...")
	}

	return fn.Signature(), params
}

// renderSignatureHint renders "%name(params) -> result" with the parameter
// under the cursor highlighted. Arguments past the last parameter highlight
// a trailing "...".
func renderSignatureHint(
	signature string,
	params []string,
	currentArgIdx int,
) string {
	if signature == "" {
		return ""
	}

	openParen := strings.Index(signature, "(")
	closeParen := strings.LastIndex(signature, ")")

	if openParen == -1 || closeParen < openParen {
		return signatureStyle.Render(signature)
	}

	name := signature[:openParen]
	result := signature[closeParen+1:]

	var b strings.Builder

	b.WriteString(signatureNameStyle.Render(string(functionSigil) + name))
	b.WriteString(signatureStyle.Render("("))

	for i, param := range params {
		if i > 0 {
			b.WriteString(signatureSeparatorStyle.Render(", "))
		}

		variadic := param == "..."

		if (variadic && currentArgIdx >= i) || (!variadic && currentArgIdx == i) {
			b.WriteString(currentParamStyle.Render(param))
		} else {
			b.WriteString(signatureStyle.Render(param))
		}
	}

	b.WriteString(signatureStyle.Render(")" + result))

	return b.String()
}
