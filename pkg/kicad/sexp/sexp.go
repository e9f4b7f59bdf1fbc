// Package sexp reads the s-expression syntax of KiCad files into a tree
// and provides the navigation helpers the file loaders use.
package sexp

import (
	"fmt"
	"io"
	"strings"
)

// Node is an atom or a list.
type Node struct {
	// Value is the atom text, unquoted.
	Value string
	// Quoted is set for atoms written as strings.
	Quoted bool
	// Children are the elements of a list node.
	Children []*Node
	// Line is where the node starts.
	Line int

	list bool
}

// Atom returns a leaf node.
func Atom(v string) *Node { return &Node{Value: v} }

// List returns a list node.
func List(children ...*Node) *Node { return &Node{Children: children, list: true} }

func (n *Node) IsLeaf() bool { return n != nil && !n.list }

// Len is the number of list elements, 0 for atoms.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	return len(n.Children)
}

// At returns element i of a list, or nil.
func (n *Node) At(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// Name is the leading symbol of a list, e.g. "wire" for (wire ...).
func (n *Node) Name() string {
	if n == nil {
		return ""
	}
	if !n.list {
		return n.Value
	}
	if head := n.At(0); head.IsLeaf() {
		return head.Value
	}
	return ""
}

func (n *Node) String() string {
	if n == nil {
		return "nil"
	}
	if !n.list {
		if n.Quoted {
			return fmt.Sprintf("%q", n.Value)
		}
		return n.Value
	}
	var b strings.Builder
	b.WriteByte('(')
	for i, c := range n.Children {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Parse reads every top-level expression from r.
func Parse(r io.Reader) ([]*Node, error) {
	p := &parser{lex: newLexer(r)}
	var out []*Node
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if tok.typ == tokenEOF {
			return out, nil
		}
		n, err := p.expr(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
}

// ParseString is Parse over a string.
func ParseString(s string) ([]*Node, error) {
	return Parse(strings.NewReader(s))
}

type parser struct {
	lex *lexer
}

func (p *parser) expr(tok token) (*Node, error) {
	switch tok.typ {
	case tokenLeftParen:
		return p.list(tok.line)
	case tokenSymbol:
		return &Node{Value: tok.value, Line: tok.line}, nil
	case tokenString:
		return &Node{Value: tok.value, Quoted: true, Line: tok.line}, nil
	case tokenRightParen:
		return nil, fmt.Errorf("line %d: unexpected ')'", tok.line)
	}
	return nil, fmt.Errorf("line %d: unexpected EOF", tok.line)
}

func (p *parser) list(line int) (*Node, error) {
	n := &Node{list: true, Line: line}
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch tok.typ {
		case tokenRightParen:
			return n, nil
		case tokenEOF:
			return nil, fmt.Errorf("line %d: unexpected EOF in list", line)
		}
		child, err := p.expr(tok)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
}
