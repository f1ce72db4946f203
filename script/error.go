package script

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Parse errors. These are detected while parsing a template and never depend
// on the variables of any particular item.
var (
	ErrUnterminatedExpression    = NewError("unterminated expression")
	ErrUnterminatedStringLiteral = NewError("unterminated string literal")
	ErrUnknownFunctionSyntax     = NewError("malformed function call")
	ErrEmptyExpression           = NewError("empty expression")
	ErrInvalidVariableName       = NewError("invalid variable name")
)

// Resolution errors. These are detected while evaluating a template against
// a specific [Context].
var (
	ErrUnknownVariable = NewError("unknown variable")
	ErrCyclicReference = NewError("cyclic variable reference")
	ErrUnknownFunction = NewError("unknown function")
	ErrMaxDepth        = NewError("maximum resolution depth exceeded")
)

// ErrType is returned when a function receives the wrong number of arguments,
// an argument of the wrong type, or input it cannot convert.
var ErrType = NewError("type error")

// ErrMetadata is returned when a required entry field is missing or cannot be
// parsed into its expected shape.
var ErrMetadata = NewError("metadata error")

// Context construction errors.
var (
	ErrVariableCollision = NewError("variable declared more than once")
	ErrReservedName      = NewError("variable name is reserved for a function")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
//
// Errors derived from a sentinel via [Error.Wrap] or [Error.With] match that
// sentinel with [errors.Is].
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	kind  *Error      // Sentinel this error was derived from
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	e := &Error{msg: msg}
	e.kind = e

	return e
}

// WrapError wraps a standard error into an Error. An *Error is returned
// as is. Any other error, including a *ParseError, is kept whole in the
// chain so its position and snippet survive.
func WrapError(err error) *Error {
	if e, ok := err.(*Error); ok { //nolint:errorlint // only the outermost error
		return e
	}

	return &Error{err: err}
}

// AttrOf returns the first attribute named key found on an *Error in the
// chain of err.
func AttrOf(err error, key string) (slog.Value, bool) {
	for ; err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok { //nolint:errorlint // walking the chain
			if v, ok := e.Attr(key); ok {
				return v, true
			}
		}
	}

	return slog.Value{}, false
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2+len(e.attrs))

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if detail := e.detail(); detail != "" {
		part[len(part)-1] += " (" + detail + ")"
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// detail renders the identifying attributes of e in a compact form.
func (e *Error) detail() string {
	if e.msg == "" || len(e.attrs) == 0 {
		return ""
	}

	var sb strings.Builder

	for _, a := range e.attrs {
		switch a.Key {
		case "template", "source":
			// Reported by ParseError's snippet, too noisy inline.
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(a.Key)
		sb.WriteByte('=')

		if a.Value.Kind() == slog.KindString {
			sb.WriteString(strconv.Quote(a.Value.String()))
		} else {
			sb.WriteString(a.Value.String())
		}
	}

	return sb.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.kind == nil {
		return false
	}

	return e.kind == t.kind
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
		kind:  e.kind,
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
		kind:  e.kind,
	}
}

// Attr returns the value of the first attribute with the given key.
func (e *Error) Attr(key string) (slog.Value, bool) {
	for _, a := range e.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}

	return slog.Value{}, false
}

// Position identifies a location within a template.
type Position struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
	Column int // 1-based, in runes
}

// String returns "line:column".
func (p Position) String() string {
	return strconv.Itoa(p.Line) + ":" + strconv.Itoa(p.Column)
}

// ParseError reports a malformed template. It wraps one of the parse error
// sentinels, so errors.Is(err, ErrEmptyExpression) and friends work.
type ParseError struct {
	Kind   *Error
	Source string
	Pos    Position
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var buf strings.Builder

	buf.WriteString("parse error at line ")
	buf.WriteString(strconv.Itoa(e.Pos.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Pos.Column))
	buf.WriteString(": ")
	buf.WriteString(e.Kind.Error())

	if snippet := e.Snippet(); snippet != "" {
		buf.WriteString(":\n")
		buf.WriteString(snippet)
	}

	return buf.String()
}

// Unwrap returns the error kind.
func (e *ParseError) Unwrap() error { return e.Kind }

// LogValue implements slog.LogValuer.
func (e *ParseError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Kind.msg),
		slog.String("template", e.Source),
		slog.Int("offset", e.Pos.Offset),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
	)
}

// Snippet returns the offending template line with a caret under the error
// column.
func (e *ParseError) Snippet() string {
	lines := strings.Split(e.Source, "\n")
	if e.Pos.Line <= 0 || e.Pos.Line > len(lines) {
		return ""
	}

	var src strings.Builder

	// Print the line with line number
	src.WriteString("  ")
	src.WriteString(strconv.Itoa(e.Pos.Line))
	src.WriteString(" | ")
	src.WriteString(lines[e.Pos.Line-1])
	src.WriteRune('\n')

	// +5 accounts for: 2 leading spaces + " | " (3 chars)
	padding := strings.Repeat(" ", len(strconv.Itoa(e.Pos.Line))+5)
	if e.Pos.Column > 0 {
		padding += strings.Repeat(" ", e.Pos.Column-1)
	}

	src.WriteString(padding + "^\n")

	return src.String()
}
