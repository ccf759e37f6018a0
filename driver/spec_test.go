package driver

import (
	"testing"

	aspec "github.com/soutome/atnkit/spec/atn"
)

func TestNewGrammarFromCompiled(t *testing.T) {
	orig := alternationGrammar()
	serialized, err := aspec.Serialize(orig.ATN)
	if err != nil {
		t.Fatal(err)
	}
	compiled := &aspec.CompiledATN{
		Name: "alternation",
		Syntactic: &aspec.Syntactic{
			Serialized:    serialized,
			RuleNames:     orig.RuleNames,
			SymbolicNames: orig.Vocabulary.Symbolic,
		},
	}

	g, err := NewGrammarFromCompiled(compiled)
	if err != nil {
		t.Fatal(err)
	}

	p, err := NewParser(streamOf(tok(1, "x"), tok(2, "!")), g)
	if err != nil {
		t.Fatal(err)
	}
	tree, err := p.Parse(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.SyntaxErrors()) > 0 {
		t.Fatalf("unexpected syntax errors: %v", p.SyntaxErrors()[0].Message)
	}
	if want := "(s (e x !))"; TreeToString(tree, g.RuleNames) != want {
		t.Fatalf("want %v, got %v", want, TreeToString(tree, g.RuleNames))
	}
}

func TestNewGrammarFromCompiled_Validation(t *testing.T) {
	orig := alternationGrammar()
	serialized, err := aspec.Serialize(orig.ATN)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("missing syntactic section", func(t *testing.T) {
		if _, err := NewGrammarFromCompiled(&aspec.CompiledATN{Name: "x"}); err == nil {
			t.Fatal("an error must occur")
		}
	})

	t.Run("rule name count mismatch", func(t *testing.T) {
		c := &aspec.CompiledATN{
			Name: "x",
			Syntactic: &aspec.Syntactic{
				Serialized: serialized,
				RuleNames:  []string{"s"},
			},
		}
		if _, err := NewGrammarFromCompiled(c); err == nil {
			t.Fatal("an error must occur")
		}
	})
}
