package tester

import (
	"strings"
	"testing"
)

func TestParseTree(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		tree    *Tree
	}{
		{
			caption: "a tree with a terminal",
			src:     `(s x)`,
			tree:    NewNonTerminalTree("s", NewTerminalNode("x")),
		},
		{
			caption: "quoted terminals keep spaces and parentheses",
			src:     `(s '( x )')`,
			tree:    NewNonTerminalTree("s", NewTerminalNode("( x )")),
		},
		{
			caption: "nested trees",
			src:     `(e (e (e 1) + (e 2)) + (e 3))`,
			tree: NewNonTerminalTree("e",
				NewNonTerminalTree("e",
					NewNonTerminalTree("e", NewTerminalNode("1")),
					NewTerminalNode("+"),
					NewNonTerminalTree("e", NewTerminalNode("2")),
				),
				NewTerminalNode("+"),
				NewNonTerminalTree("e", NewTerminalNode("3")),
			),
		},
		{
			caption: "an empty rule",
			src:     `(s)`,
			tree:    NewNonTerminalTree("s"),
		},
		{
			caption: "an error node",
			src:     `(s (error))`,
			tree:    NewNonTerminalTree("s", NewErrorNode()),
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			tree, err := ParseTree(strings.NewReader(tt.src))
			if err != nil {
				t.Fatal(err)
			}
			if diffs := DiffTree(tt.tree.Fill(), tree); len(diffs) > 0 {
				t.Fatalf("unexpected tree: %v", diffs[0].Message)
			}
		})
	}
}

func TestParseTree_Errors(t *testing.T) {
	tests := []struct {
		caption string
		src     string
	}{
		{caption: "a tree without parentheses", src: `s`},
		{caption: "a missing closing parenthesis", src: `(s x`},
		{caption: "trailing content", src: `(s) (s)`},
		{caption: "an error node with children", src: `(error x)`},
		{caption: "an unterminated string", src: `(s 'x)`},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			if _, err := ParseTree(strings.NewReader(tt.src)); err == nil {
				t.Fatal("an error must occur")
			}
		})
	}
}

func TestDiffTree(t *testing.T) {
	tests := []struct {
		caption  string
		expected string
		actual   string
		diffs    int
	}{
		{caption: "equal trees", expected: `(s (e x))`, actual: `(s (e x))`, diffs: 0},
		{caption: "wildcard kind matches anything", expected: `(_ (e x))`, actual: `(s (e x))`, diffs: 0},
		{caption: "different kinds", expected: `(s (e x))`, actual: `(s (t x))`, diffs: 1},
		{caption: "different lexemes", expected: `(s x)`, actual: `(s y)`, diffs: 1},
		{caption: "different child counts", expected: `(s x)`, actual: `(s x y)`, diffs: 1},
		{caption: "multiple diffs are all reported", expected: `(s x (e a))`, actual: `(s y (e b))`, diffs: 2},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			expected, err := ParseTree(strings.NewReader(tt.expected))
			if err != nil {
				t.Fatal(err)
			}
			actual, err := ParseTree(strings.NewReader(tt.actual))
			if err != nil {
				t.Fatal(err)
			}
			if diffs := DiffTree(expected, actual); len(diffs) != tt.diffs {
				t.Fatalf("want %v diffs, got %v", tt.diffs, len(diffs))
			}
		})
	}
}

func TestParseTestCase(t *testing.T) {
	src := `The parser accepts an assignment.
---
x = 3
---
(s x = 3)
`
	c, err := ParseTestCase(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if c.Description != "The parser accepts an assignment." {
		t.Fatalf("unexpected description: %#v", c.Description)
	}
	if string(c.Source) != "x = 3" {
		t.Fatalf("unexpected source: %#v", string(c.Source))
	}
	want := NewNonTerminalTree("s",
		NewTerminalNode("x"),
		NewTerminalNode("="),
		NewTerminalNode("3"),
	).Fill()
	if diffs := DiffTree(want, c.Output); len(diffs) > 0 {
		t.Fatalf("unexpected tree: %v", diffs[0].Message)
	}
}

func TestParseTestCase_PartCountMismatch(t *testing.T) {
	tests := []struct {
		caption string
		src     string
	}{
		{caption: "two parts", src: "desc\n---\nsource"},
		{caption: "four parts", src: "desc\n---\nsource\n---\n(s)\n---\nextra"},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			if _, err := ParseTestCase(strings.NewReader(tt.src)); err == nil {
				t.Fatal("an error must occur")
			}
		})
	}
}
