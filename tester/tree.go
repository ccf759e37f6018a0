package tester

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/soutome/atnkit/driver"
)

// Tree is the expectation-side parse tree of a test case. Non-terminal
// nodes carry a kind (the rule name); terminal nodes carry a lexeme. The
// kind "error" matches an error node and "_" matches any rule.
type Tree struct {
	Parent   *Tree
	Offset   int
	Kind     string
	Children []*Tree
	Lexeme   string
	IsError  bool
}

func NewNonTerminalTree(kind string, children ...*Tree) *Tree {
	return &Tree{
		Kind:     kind,
		Children: children,
	}
}

func NewTerminalNode(lexeme string) *Tree {
	return &Tree{
		Lexeme: lexeme,
	}
}

func NewErrorNode() *Tree {
	return &Tree{
		Kind:    "error",
		IsError: true,
	}
}

// Fill populates the parent and offset of every node, which the diff uses
// to print paths.
func (t *Tree) Fill() *Tree {
	for i, c := range t.Children {
		c.Parent = t
		c.Offset = i
		c.Fill()
	}
	return t
}

func (t *Tree) path() string {
	if t.Parent == nil {
		return t.label()
	}
	return fmt.Sprintf("%v.[%v]%v", t.Parent.path(), t.Offset, t.label())
}

func (t *Tree) label() string {
	if t.Kind != "" {
		return t.Kind
	}
	return fmt.Sprintf("%#v", t.Lexeme)
}

func (t *Tree) Format() []byte {
	var b bytes.Buffer
	t.format(&b, 0)
	return b.Bytes()
}

func (t *Tree) format(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("    ")
	}
	if t.Kind == "" {
		fmt.Fprintf(buf, "%#v", t.Lexeme)
		return
	}
	buf.WriteString("(")
	buf.WriteString(t.Kind)
	for _, c := range t.Children {
		buf.WriteString("\n")
		c.format(buf, depth+1)
	}
	buf.WriteString(")")
}

// FromParseTree converts a parse tree the driver built into the
// expectation shape.
func FromParseTree(t driver.Tree, ruleNames []string) *Tree {
	switch n := t.(type) {
	case *driver.ErrorNode:
		e := NewErrorNode()
		e.Lexeme = n.Text()
		return e
	case *driver.TerminalNode:
		return NewTerminalNode(n.Text())
	case *driver.ParserRuleContext:
		name := fmt.Sprintf("%v", n.RuleIndex())
		if n.RuleIndex() >= 0 && n.RuleIndex() < len(ruleNames) {
			name = ruleNames[n.RuleIndex()]
		}
		children := make([]*Tree, len(n.Children()))
		for i, c := range n.Children() {
			children[i] = FromParseTree(c, ruleNames)
		}
		return NewNonTerminalTree(name, children...)
	}
	return nil
}

// TreeDiff is one mismatch between an expected and an actual tree.
type TreeDiff struct {
	ExpectedPath string
	ActualPath   string
	Message      string
}

func newTreeDiff(expected, actual *Tree, message string) *TreeDiff {
	return &TreeDiff{
		ExpectedPath: expected.path(),
		ActualPath:   actual.path(),
		Message:      message,
	}
}

// DiffTree compares two trees structurally. The expected kind "_" matches
// any rule, and an expected error node matches any error lexeme.
func DiffTree(expected, actual *Tree) []*TreeDiff {
	if expected == nil && actual == nil {
		return nil
	}
	if expected.IsError {
		if !actual.IsError {
			return []*TreeDiff{
				newTreeDiff(expected, actual, fmt.Sprintf("expected an error node but got '%v'", actual.label())),
			}
		}
		return nil
	}
	if expected.Kind != "_" && actual.Kind != expected.Kind {
		msg := fmt.Sprintf("unexpected kind: expected '%v' but got '%v'", expected.Kind, actual.Kind)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if expected.Kind == "" && expected.Lexeme != actual.Lexeme {
		msg := fmt.Sprintf("unexpected lexeme: expected '%v' but got '%v'", expected.Lexeme, actual.Lexeme)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if len(actual.Children) != len(expected.Children) {
		msg := fmt.Sprintf("unexpected node count: expected %v but got %v", len(expected.Children), len(actual.Children))
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	var diffs []*TreeDiff
	for i, exp := range expected.Children {
		if ds := DiffTree(exp, actual.Children[i]); len(ds) > 0 {
			diffs = append(diffs, ds...)
		}
	}
	return diffs
}

// ParseTree reads the `(rule child ...)` expectation DSL. Children are
// nested trees, bare words, or single-quoted lexemes; `(error)` stands for
// an error node.
func ParseTree(r io.Reader) (*Tree, error) {
	s := newTreeScanner(r)
	t, err := parseTreeNode(s)
	if err != nil {
		return nil, err
	}
	tok, err := s.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != treeTokEOF {
		return nil, fmt.Errorf("only one tree is allowed per test case")
	}
	return t.Fill(), nil
}

func parseTreeNode(s *treeScanner) (*Tree, error) {
	tok, err := s.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != treeTokOpen {
		return nil, fmt.Errorf("a tree must start with '('")
	}
	name, err := s.next()
	if err != nil {
		return nil, err
	}
	if name.kind != treeTokWord {
		return nil, fmt.Errorf("a tree node needs a rule name")
	}

	var children []*Tree
	for {
		tok, err := s.peek()
		if err != nil {
			return nil, err
		}
		switch tok.kind {
		case treeTokClose:
			s.consume()
			if name.text == "error" {
				if len(children) > 0 {
					return nil, fmt.Errorf("an error node cannot take children")
				}
				return NewErrorNode(), nil
			}
			return NewNonTerminalTree(name.text, children...), nil
		case treeTokOpen:
			child, err := parseTreeNode(s)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		case treeTokWord, treeTokString:
			s.consume()
			children = append(children, NewTerminalNode(tok.text))
		case treeTokEOF:
			return nil, fmt.Errorf("unexpected end of tree: missing ')'")
		}
	}
}

type treeTokKind int

const (
	treeTokEOF = treeTokKind(iota)
	treeTokOpen
	treeTokClose
	treeTokWord
	treeTokString
)

type treeTok struct {
	kind treeTokKind
	text string
}

type treeScanner struct {
	r      *bufio.Reader
	peeked *treeTok
}

func newTreeScanner(r io.Reader) *treeScanner {
	return &treeScanner{
		r: bufio.NewReader(r),
	}
}

func (s *treeScanner) peek() (*treeTok, error) {
	if s.peeked == nil {
		tok, err := s.scan()
		if err != nil {
			return nil, err
		}
		s.peeked = tok
	}
	return s.peeked, nil
}

func (s *treeScanner) consume() {
	s.peeked = nil
}

func (s *treeScanner) next() (*treeTok, error) {
	tok, err := s.peek()
	if err != nil {
		return nil, err
	}
	s.consume()
	return tok, nil
}

func (s *treeScanner) scan() (*treeTok, error) {
	var c rune
	for {
		var err error
		c, _, err = s.r.ReadRune()
		if err == io.EOF {
			return &treeTok{kind: treeTokEOF}, nil
		}
		if err != nil {
			return nil, err
		}
		if !strings.ContainsRune(" \t\r\n", c) {
			break
		}
	}
	switch c {
	case '(':
		return &treeTok{kind: treeTokOpen}, nil
	case ')':
		return &treeTok{kind: treeTokClose}, nil
	case '\'':
		var b strings.Builder
		for {
			c, _, err := s.r.ReadRune()
			if err != nil {
				return nil, fmt.Errorf("unterminated string in tree")
			}
			if c == '\'' {
				return &treeTok{kind: treeTokString, text: b.String()}, nil
			}
			b.WriteRune(c)
		}
	}
	var b strings.Builder
	b.WriteRune(c)
	for {
		c, _, err := s.r.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.ContainsRune(" \t\r\n()'", c) {
			s.r.UnreadRune()
			break
		}
		b.WriteRune(c)
	}
	return &treeTok{kind: treeTokWord, text: b.String()}, nil
}
