// Package script implements the template language used to compute file
// names, path components, and metadata fields from the variables of a single
// media item.
//
// # Syntax
//
// Text outside braces is literal and passes through unchanged. Inside braces
// there are two expression forms:
//
//	{name}                  variable reference
//	{%name(arg, arg, ...)}  function call
//
// Each argument is itself an expression without the braces:
//
//	title                   variable reference
//	%lower(title)           nested call, to any depth
//	"text" or 'text'        quoted string with \\ \" \' \n \t escapes
//	'''text'''              raw string, taken verbatim (braces, quotes, newlines)
//	42, -3, 1.5, 1e+16      integer and float numerals
//	True, False             booleans
//
// Whitespace around arguments is insignificant. A "}" outside an expression is
// literal text.
//
// Informal EBNF:
//
//	Template   → ( Literal | Expression )*
//	Expression → '{' ( Identifier | Call ) '}'
//	Call       → '%' Identifier '(' ( Arg ( ',' Arg )* )? ')'
//	Arg        → Identifier | Call | String | Number | 'True' | 'False'
//
// # Values
//
// Every intermediate result is a [Value]: String, Integer, Float, Boolean,
// Array, Object, or Empty. Function arguments keep their type; a value is
// turned into text only when spliced into surrounding literal text or when a
// whole template is rendered. A variable whose template is exactly one
// expression yields that expression's typed value when used as an argument:
//
//	year: {%int("2021")}
//	next: {%add(year, 1)}   // Integer 2022, rendered as "2022"
//
// # Evaluation
//
// A [Context] holds the variables of one item: templates, parsed on first use
// through a shared [Cache], and accessors bound to host data. Resolved values
// are memoized per Context, and a variable that requires itself fails with
// [ErrCyclicReference]. Functions come from an immutable [Registry]; see
// [Functions] for the built-in set.
//
//	ctx := script.NewContext()
//	_ = ctx.Define("name", "{%upper(first)} {last}")
//	_ = ctx.DefineValue("first", script.String("ada"))
//	_ = ctx.DefineValue("last", script.String("lovelace"))
//	out, err := ctx.EvaluateString(context.Background(), "{name}")
//	// out == "ADA lovelace"
//
// Parse errors are reported as [*ParseError] with a caret snippet. All other
// errors are [*Error] values matching one of the package sentinels with
// [errors.Is], and carry slog attributes naming the variable, function, and
// position involved.
package script
