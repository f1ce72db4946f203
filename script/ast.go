package script

import (
	"io"
	"iter"
	"strconv"
	"strings"
)

// Template is the parsed form of a template string. It is immutable once
// returned by [Parse] and may be evaluated concurrently against any number of
// contexts.
type Template struct {
	Source string
	Nodes  []Node
}

// Node is an element of a parsed template.
//
// A template's top level holds [*Literal], [*Variable], and [*Call] nodes.
// Call arguments hold [*Variable], [*Call], and [*Constant] nodes.
type Node interface {
	// Position returns the location of the node within its template.
	Position() Position
	node()
}

// Literal is a run of text outside any expression.
type Literal struct {
	Text string
	Pos  Position
}

// Variable references a variable by name.
type Variable struct {
	Name string
	Pos  Position
}

// Call invokes a registered function.
type Call struct {
	Name string
	Args []Node
	Pos  Position
}

// Constant is a literal argument: a quoted string, a number, or True/False.
type Constant struct {
	Value Value
	Pos   Position
}

func (n *Literal) Position() Position  { return n.Pos }
func (n *Variable) Position() Position { return n.Pos }
func (n *Call) Position() Position     { return n.Pos }
func (n *Constant) Position() Position { return n.Pos }

func (*Literal) node()  {}
func (*Variable) node() {}
func (*Call) node()     {}
func (*Constant) node() {}

// IsLiteral reports whether the template contains no expressions.
func (t *Template) IsLiteral() bool {
	for _, n := range t.Nodes {
		if _, ok := n.(*Literal); !ok {
			return false
		}
	}

	return true
}

// single returns the only node of t when t is exactly one expression with no
// surrounding text.
func (t *Template) single() (Node, bool) {
	if len(t.Nodes) != 1 {
		return nil, false
	}

	if _, ok := t.Nodes[0].(*Literal); ok {
		return nil, false
	}

	return t.Nodes[0], true
}

// Variables returns the distinct variable names referenced anywhere in t, in
// order of first appearance.
func (t *Template) Variables() iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]struct{})

		var walk func(n Node) bool

		walk = func(n Node) bool {
			switch n := n.(type) {
			case *Variable:
				if _, ok := seen[n.Name]; ok {
					return true
				}

				seen[n.Name] = struct{}{}

				return yield(n.Name)

			case *Call:
				for _, arg := range n.Args {
					if !walk(arg) {
						return false
					}
				}
			}

			return true
		}

		for _, n := range t.Nodes {
			if !walk(n) {
				return
			}
		}
	}
}

// Functions returns the distinct function names called anywhere in t, in order
// of first appearance.
func (t *Template) Functions() iter.Seq[string] {
	return func(yield func(string) bool) {
		seen := make(map[string]struct{})

		var walk func(n Node) bool

		walk = func(n Node) bool {
			call, ok := n.(*Call)
			if !ok {
				return true
			}

			if _, dup := seen[call.Name]; !dup {
				seen[call.Name] = struct{}{}

				if !yield(call.Name) {
					return false
				}
			}

			for _, arg := range call.Args {
				if !walk(arg) {
					return false
				}
			}

			return true
		}

		for _, n := range t.Nodes {
			if !walk(n) {
				return
			}
		}
	}
}

// Print writes a formatted representation of the template's AST to w.
func (t *Template) Print(w io.Writer) error {
	for _, n := range t.Nodes {
		if err := printNode(w, n, 0); err != nil {
			return err
		}
	}

	return nil
}

func printNode(w io.Writer, n Node, indent int) error {
	prefix := strings.Repeat("  ", indent)

	var line string

	switch n := n.(type) {
	case *Literal:
		line = "Literal: " + strconv.Quote(n.Text)
	case *Variable:
		line = "Variable: " + n.Name
	case *Constant:
		line = n.Value.Kind().String() + ": " + n.Value.Repr()
	case *Call:
		line = "Call: " + n.Name
	}

	if _, err := io.WriteString(w, prefix+line+"\n"); err != nil {
		return err
	}

	if call, ok := n.(*Call); ok {
		for _, arg := range call.Args {
			if err := printNode(w, arg, indent+1); err != nil {
				return err
			}
		}
	}

	return nil
}
