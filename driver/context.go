package driver

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soutome/atnkit/automaton"
)

// Tree is a node of a parse tree: a rule context, a matched terminal, or
// an error node left behind by recovery.
type Tree interface {
	tree()
}

// TerminalNode is a matched token leaf.
type TerminalNode struct {
	Tok Token
}

func (n *TerminalNode) tree() {}

func (n *TerminalNode) Text() string {
	return n.Tok.Text()
}

// ErrorNode marks a token that was inserted or deleted during error
// recovery, or consumed while resynchronizing.
type ErrorNode struct {
	TerminalNode
}

// ParserRuleContext is a parse-tree node for one rule invocation. It also
// serves as the invocation-chain link the prediction machinery walks.
type ParserRuleContext struct {
	parent        *ParserRuleContext
	invokingState int
	ruleIndex     int

	start, stop Token
	children    []Tree

	// err records the recognition error that aborted the rule, if any.
	err error
}

func (c *ParserRuleContext) tree() {}

func newParserRuleContext(parent *ParserRuleContext, invokingState, ruleIndex int) ParserRuleContext {
	return ParserRuleContext{
		parent:        parent,
		invokingState: invokingState,
		ruleIndex:     ruleIndex,
	}
}

func (c *ParserRuleContext) Parent() *ParserRuleContext {
	return c.parent
}

// ParentCtx implements automaton.RuleContext.
func (c *ParserRuleContext) ParentCtx() automaton.RuleContext {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

// InvokingState implements automaton.RuleContext. The root context returns
// -1.
func (c *ParserRuleContext) InvokingState() int {
	return c.invokingState
}

func (c *ParserRuleContext) RuleIndex() int {
	return c.ruleIndex
}

// IsEmpty reports whether the context is an invocation-chain root.
func (c *ParserRuleContext) IsEmpty() bool {
	return c.invokingState < 0
}

// Start returns the first token the rule matched; Stop the last. Stop is
// nil until the rule exits and may precede Start when the rule matched
// nothing.
func (c *ParserRuleContext) Start() Token {
	return c.start
}

func (c *ParserRuleContext) Stop() Token {
	return c.stop
}

func (c *ParserRuleContext) Children() []Tree {
	return c.children
}

func (c *ParserRuleContext) ChildCount() int {
	return len(c.children)
}

// Err returns the recognition error recorded while parsing the rule, or
// nil.
func (c *ParserRuleContext) Err() error {
	return c.err
}

func (c *ParserRuleContext) addChild(child Tree) {
	c.children = append(c.children, child)
}

func (c *ParserRuleContext) removeLastChild() {
	if len(c.children) > 0 {
		c.children = c.children[:len(c.children)-1]
	}
}

func (c *ParserRuleContext) addTokenNode(tok Token) *TerminalNode {
	n := &TerminalNode{Tok: tok}
	c.addChild(n)
	return n
}

func (c *ParserRuleContext) addErrorNode(tok Token) *ErrorNode {
	n := &ErrorNode{TerminalNode{Tok: tok}}
	c.addChild(n)
	return n
}

// InterpreterRuleContext is the rule context the interpreter builds when no
// generated context class exists. It carries nothing beyond the base
// context, so it is an alias rather than a wrapper.
type InterpreterRuleContext = ParserRuleContext

func NewInterpreterRuleContext(parent *ParserRuleContext, invokingState, ruleIndex int) *InterpreterRuleContext {
	c := newParserRuleContext(parent, invokingState, ruleIndex)
	return &c
}

// TreeToString renders the tree in LISP form: `(s (e x) ;)`. Terminals
// print their text; error nodes print their text in angle brackets.
func TreeToString(t Tree, ruleNames []string) string {
	var b strings.Builder
	writeTree(&b, t, ruleNames)
	return b.String()
}

func writeTree(b *strings.Builder, t Tree, ruleNames []string) {
	switch n := t.(type) {
	case *ErrorNode:
		fmt.Fprintf(b, "<%v>", n.Text())
	case *TerminalNode:
		b.WriteString(n.Text())
	case *ParserRuleContext:
		writeContext(b, n, ruleNames)
	}
}

func writeContext(b *strings.Builder, c *ParserRuleContext, ruleNames []string) {
	name := ruleName(ruleNames, c.ruleIndex)
	if len(c.children) == 0 {
		fmt.Fprintf(b, "(%v)", name)
		return
	}
	fmt.Fprintf(b, "(%v", name)
	for _, child := range c.children {
		b.WriteString(" ")
		writeTree(b, child, ruleNames)
	}
	b.WriteString(")")
}

func ruleName(ruleNames []string, ruleIndex int) string {
	if ruleIndex >= 0 && ruleIndex < len(ruleNames) {
		return ruleNames[ruleIndex]
	}
	return strconv.Itoa(ruleIndex)
}

// PrintTree prints `t` with box-drawing rule lines.
func PrintTree(w io.Writer, t Tree, ruleNames []string) {
	printTree(w, t, ruleNames, "", "")
}

func printTree(w io.Writer, t Tree, ruleNames []string, ruledLine string, childRuledLinePrefix string) {
	if t == nil {
		return
	}

	var children []Tree
	switch n := t.(type) {
	case *ErrorNode:
		fmt.Fprintf(w, "%v<error> %v\n", ruledLine, strconv.Quote(n.Text()))
	case *TerminalNode:
		fmt.Fprintf(w, "%v%v\n", ruledLine, strconv.Quote(n.Text()))
	case *ParserRuleContext:
		fmt.Fprintf(w, "%v%v\n", ruledLine, ruleName(ruleNames, n.ruleIndex))
		children = n.children
	}

	num := len(children)
	for i, child := range children {
		var line string
		if num > 1 && i < num-1 {
			line = "├─ "
		} else {
			line = "└─ "
		}

		var prefix string
		if i >= num-1 {
			prefix = "   "
		} else {
			prefix = "│  "
		}

		printTree(w, child, ruleNames, childRuledLinePrefix+line, childRuledLinePrefix+prefix)
	}
}
