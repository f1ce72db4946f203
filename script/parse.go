package script

import (
	"bytes"
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Parse parses a template string into its AST.
//
// Text outside braces is literal. "{name}" references a variable and
// "{%name(arg, ...)}" calls a function. Each argument is a variable name, a
// nested "%name(...)" call, a quoted string, a number, or True/False. A stray
// "}" outside an expression is kept as literal text.
//
// Errors are returned as [*ParseError] wrapping one of the parse sentinels.
func Parse(ctx context.Context, source string, opts ...Option) (*Template, error) {
	o := makeOptions(opts...)

	p := &parser{
		input:  []byte(source),
		source: source,
		line:   1,
		col:    1,
	}

	tmpl, err := p.parseTemplate()
	if err != nil {
		o.logger.TraceContext(ctx, "parse failed",
			slog.String("template", source),
			slog.Any("error", err))

		return nil, err
	}

	o.logger.TraceContext(ctx, "parse complete",
		slog.String("template", source),
		slog.Int("node_count", len(tmpl.Nodes)))

	return tmpl, nil
}

// MustParse is like [Parse] but panics if the template cannot be parsed.
// It is intended for templates that are constants of the program.
func MustParse(source string) *Template {
	tmpl, err := Parse(context.Background(), source)
	if err != nil {
		panic(err)
	}

	return tmpl
}

// parser holds the parser state.
type parser struct {
	input  []byte
	source string
	pos    int
	line   int
	col    int

	// start of the expression being parsed, for unterminated errors
	expr Position
}

// parseTemplate parses the entire input as literal text and expressions.
func (p *parser) parseTemplate() (*Template, error) {
	tmpl := &Template{
		Source: p.source,
		Nodes:  make([]Node, 0),
	}

	for !p.eof() {
		if p.peek() == '{' {
			n, err := p.parseExpression()
			if err != nil {
				return nil, err
			}

			tmpl.Nodes = append(tmpl.Nodes, n)

			continue
		}

		pos := p.position()
		start := p.pos

		for !p.eof() && p.peek() != '{' {
			p.advance()
		}

		tmpl.Nodes = append(tmpl.Nodes, &Literal{
			Text: string(p.input[start:p.pos]),
			Pos:  pos,
		})
	}

	return tmpl, nil
}

// parseExpression parses: '{' ( Identifier | '%' Call ) '}'.
func (p *parser) parseExpression() (Node, error) {
	p.expr = p.position()
	p.advance() // skip '{'
	p.skipWhitespace()

	switch {
	case p.eof():
		return nil, p.fail(ErrUnterminatedExpression, p.expr)

	case p.peek() == '}':
		return nil, p.fail(ErrEmptyExpression, p.expr)

	case p.peek() == '%':
		call, err := p.parseCall()
		if err != nil {
			return nil, err
		}

		if err := p.closeExpression(ErrUnknownFunctionSyntax); err != nil {
			return nil, err
		}

		return call, nil
	}

	pos := p.position()

	name := p.parseIdentifier()
	if name == "" {
		return nil, p.fail(ErrInvalidVariableName, pos)
	}

	if err := p.closeExpression(ErrInvalidVariableName); err != nil {
		return nil, err
	}

	return &Variable{Name: name, Pos: pos}, nil
}

// closeExpression consumes the closing brace of an expression. If anything
// else follows, the expression is reported as kind, or as unterminated when
// no closing brace exists at all.
func (p *parser) closeExpression(kind *Error) error {
	p.skipWhitespace()

	if p.expect('}') {
		return nil
	}

	if p.eof() || bytes.IndexByte(p.input[p.pos:], '}') < 0 {
		return p.fail(ErrUnterminatedExpression, p.expr)
	}

	return p.fail(kind, p.position())
}

// parseCall parses: '%' Identifier '(' [ Arg { ',' Arg } ] ')'.
func (p *parser) parseCall() (*Call, error) {
	pos := p.position()
	p.advance() // skip '%'

	name := p.parseIdentifier()
	if name == "" {
		return nil, p.fail(ErrUnknownFunctionSyntax.
			With(slog.String("expected", "function name")), p.position())
	}

	p.skipWhitespace()

	if p.eof() {
		return nil, p.fail(ErrUnterminatedExpression, p.expr)
	}

	if !p.expect('(') {
		return nil, p.fail(ErrUnknownFunctionSyntax.
			With(slog.String("function", name),
				slog.String("expected", "(")), p.position())
	}

	call := &Call{Name: name, Args: make([]Node, 0), Pos: pos}

	p.skipWhitespace()

	if p.expect(')') {
		return call, nil
	}

	for {
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}

		call.Args = append(call.Args, arg)

		p.skipWhitespace()

		switch {
		case p.eof():
			return nil, p.fail(ErrUnterminatedExpression, p.expr)
		case p.expect(','):
			continue
		case p.expect(')'):
			return call, nil
		}

		return nil, p.fail(ErrUnknownFunctionSyntax.
			With(slog.String("function", name),
				slog.String("expected", ", or )")), p.position())
	}
}

// parseArg parses a single function argument.
func (p *parser) parseArg() (Node, error) {
	p.skipWhitespace()

	if p.eof() {
		return nil, p.fail(ErrUnterminatedExpression, p.expr)
	}

	ch := p.peek()

	switch {
	case ch == '%':
		call, err := p.parseCall()
		if err != nil {
			return nil, err
		}

		return call, nil

	case ch == '\'' && p.peekN(3) == "'''":
		return p.parseRawString()

	case ch == '"' || ch == '\'':
		return p.parseQuotedString(ch)

	case ch == '-' || ch == '+' || isDigit(ch):
		return p.parseNumber()

	case isIdentifierStart(ch):
		pos := p.position()
		name := p.parseIdentifier()

		switch name {
		case "True":
			return &Constant{Value: Boolean(true), Pos: pos}, nil
		case "False":
			return &Constant{Value: Boolean(false), Pos: pos}, nil
		}

		return &Variable{Name: name, Pos: pos}, nil
	}

	return nil, p.fail(ErrUnknownFunctionSyntax.
		With(slog.String("expected", "argument")), p.position())
}

// parseRawString parses a ''' delimited string. Its content is taken as is.
func (p *parser) parseRawString() (Node, error) {
	pos := p.position()

	for range 3 {
		p.advance()
	}

	start := p.pos

	for !p.eof() {
		if p.peekN(3) == "'''" {
			text := string(p.input[start:p.pos])

			for range 3 {
				p.advance()
			}

			return &Constant{Value: String(text), Pos: pos}, nil
		}

		p.advance()
	}

	return nil, p.fail(ErrUnterminatedStringLiteral, pos)
}

// parseQuotedString parses a string delimited by quote, with backslash
// escapes.
func (p *parser) parseQuotedString(quote rune) (Node, error) {
	pos := p.position()
	p.advance() // skip opening quote

	var sb strings.Builder

	for !p.eof() {
		ch := p.peek()

		switch ch {
		case quote:
			p.advance()

			return &Constant{Value: String(sb.String()), Pos: pos}, nil

		case '\\':
			p.advance()

			if p.eof() {
				return nil, p.fail(ErrUnterminatedStringLiteral, pos)
			}

			switch esc := p.peek(); esc {
			case '\\', '"', '\'':
				sb.WriteRune(esc)
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte('\\')
				p.copyRune(&sb)

				continue
			}

			p.advance()

		default:
			p.copyRune(&sb)
		}
	}

	return nil, p.fail(ErrUnterminatedStringLiteral, pos)
}

// parseNumber parses an integer or float numeral with an optional sign.
func (p *parser) parseNumber() (Node, error) {
	pos := p.position()
	start := p.pos

	if ch := p.peek(); ch == '-' || ch == '+' {
		p.advance()
	}

	if !p.skipDigits() {
		return nil, p.fail(ErrUnknownFunctionSyntax.
			With(slog.String("expected", "digit")), p.position())
	}

	isFloat := false

	if p.peek() == '.' {
		isFloat = true

		p.advance()
		p.skipDigits()
	}

	if ch := p.peek(); ch == 'e' || ch == 'E' {
		isFloat = true

		p.advance()

		if ch := p.peek(); ch == '-' || ch == '+' {
			p.advance()
		}

		if !p.skipDigits() {
			return nil, p.fail(ErrUnknownFunctionSyntax.
				With(slog.String("expected", "exponent")), p.position())
		}
	}

	text := strings.TrimPrefix(string(p.input[start:p.pos]), "+")

	if !isFloat {
		if i, err := strconv.ParseInt(text, 10, 64); err == nil {
			return &Constant{Value: Integer(i), Pos: pos}, nil
		}
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.fail(ErrUnknownFunctionSyntax.
			With(slog.String("number", text)), pos)
	}

	return &Constant{Value: Float(f), Pos: pos}, nil
}

// parseIdentifier parses an identifier token, returning "" if none is
// present.
func (p *parser) parseIdentifier() string {
	start := p.pos

	if p.eof() || !isIdentifierStart(p.peek()) {
		return ""
	}

	for !p.eof() && isIdentifierContinue(p.peek()) {
		p.advance()
	}

	return string(p.input[start:p.pos])
}

func (p *parser) skipDigits() bool {
	start := p.pos

	for !p.eof() && isDigit(p.peek()) {
		p.advance()
	}

	return p.pos > start
}

func (p *parser) fail(kind *Error, pos Position) *ParseError {
	return &ParseError{Kind: kind, Source: p.source, Pos: pos}
}

// Helper methods

func (p *parser) peek() rune {
	if p.eof() {
		return 0
	}

	r, _ := utf8.DecodeRune(p.input[p.pos:])

	return r
}

func (p *parser) peekN(n int) string {
	if p.pos+n > len(p.input) {
		return string(p.input[p.pos:])
	}

	return string(p.input[p.pos : p.pos+n])
}

// copyRune writes the source bytes of the next rune to sb and advances past
// it. Invalid UTF-8 is copied unchanged.
func (p *parser) copyRune(sb *strings.Builder) {
	start := p.pos
	p.advance()
	sb.Write(p.input[start:p.pos])
}

func (p *parser) advance() {
	if p.eof() {
		return
	}

	r, size := utf8.DecodeRune(p.input[p.pos:])

	p.pos += size
	if r == '\n' {
		p.line++
		p.col = 1
	} else {
		p.col++
	}
}

func (p *parser) expect(ch rune) bool {
	if p.peek() == ch {
		p.advance()

		return true
	}

	return false
}

func (p *parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *parser) position() Position {
	return Position{
		Offset: p.pos,
		Line:   p.line,
		Column: p.col,
	}
}

func (p *parser) skipWhitespace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.advance()
	}
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentifierStart(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentifierContinue(ch rune) bool {
	return isIdentifierStart(ch) || isDigit(ch)
}

// IsIdentifier reports whether name is a valid variable or function name.
func IsIdentifier(name string) bool {
	if name == "" || !isIdentifierStart(rune(name[0])) {
		return false
	}

	for _, ch := range name[1:] {
		if !isIdentifierContinue(ch) {
			return false
		}
	}

	return true
}
