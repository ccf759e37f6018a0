package driver

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/soutome/atnkit/automaton"
	"github.com/soutome/atnkit/prediction"
	"golang.org/x/sync/errgroup"
)

func parseToString(t *testing.T, g *Grammar, input *TokenStream, opts ...ParserOption) (string, []*SyntaxError) {
	t.Helper()
	p, err := NewParser(input, g, opts...)
	if err != nil {
		t.Fatal(err)
	}
	tree, err := p.Parse(0)
	if err != nil {
		t.Fatal(err)
	}
	return TreeToString(tree, g.RuleNames), p.SyntaxErrors()
}

func TestParse_Sequence(t *testing.T) {
	g := sequenceGrammar("ID", "'='", "INT")
	input := streamOf(tok(1, "x"), tok(2, "="), tok(3, "3"))

	got, synErrs := parseToString(t, g, input)
	if len(synErrs) > 0 {
		t.Fatalf("unexpected syntax errors: %v", synErrs[0].Message)
	}
	if want := "(s x = 3)"; got != want {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestParse_AlternationPicksMinimumViableAlt(t *testing.T) {
	g := alternationGrammar()
	input := streamOf(tok(1, "x"))

	got, synErrs := parseToString(t, g, input)
	if len(synErrs) > 0 {
		t.Fatalf("unexpected syntax errors: %v", synErrs[0].Message)
	}
	if want := "(s (e x))"; got != want {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestParse_DecisionOverride(t *testing.T) {
	g := alternationGrammar()

	p, err := NewParser(streamOf(tok(1, "x")), g)
	if err != nil {
		t.Fatal(err)
	}
	p.AddDecisionOverride(0, 0, 2)
	tree, err := p.Parse(0)
	if err != nil {
		t.Fatal(err)
	}
	if !p.OverrideDecisionReached() {
		t.Fatal("override was not applied")
	}

	// Alternative 2 requires '!' after the identifier; recovery conjures
	// the missing token at EOF.
	if want := "(s (e x <<missing '!'>>))"; TreeToString(tree, g.RuleNames) != want {
		t.Fatalf("want %v, got %v", want, TreeToString(tree, g.RuleNames))
	}
	if len(p.SyntaxErrors()) != 1 {
		t.Fatalf("want 1 syntax error, got %v", len(p.SyntaxErrors()))
	}
}

func TestParse_OverrideLeavesOtherDecisionsAlone(t *testing.T) {
	g := alternationGrammar()

	p, err := NewParser(streamOf(tok(1, "x"), tok(2, "!")), g)
	if err != nil {
		t.Fatal(err)
	}
	// The override keys do not match any prediction; the parse must be
	// unaffected.
	p.AddDecisionOverride(0, 5, 1)
	tree, err := p.Parse(0)
	if err != nil {
		t.Fatal(err)
	}
	if p.OverrideDecisionReached() {
		t.Fatal("override fired at the wrong position")
	}
	if want := "(s (e x !))"; TreeToString(tree, g.RuleNames) != want {
		t.Fatalf("want %v, got %v", want, TreeToString(tree, g.RuleNames))
	}
}

func TestParse_LeftRecursionIsLeftAssociative(t *testing.T) {
	g := leftRecursiveGrammar()

	tests := []struct {
		caption string
		tokens  []Token
		want    string
	}{
		{
			caption: "single operand",
			tokens:  []Token{tok(1, "1")},
			want:    "(s (e 1))",
		},
		{
			caption: "one application",
			tokens:  []Token{tok(1, "1"), tok(2, "+"), tok(1, "2")},
			want:    "(s (e (e 1) + (e 2)))",
		},
		{
			caption: "two applications nest on the left",
			tokens:  []Token{tok(1, "1"), tok(2, "+"), tok(1, "2"), tok(2, "+"), tok(1, "3")},
			want:    "(s (e (e (e 1) + (e 2)) + (e 3)))",
		},
		{
			caption: "three applications",
			tokens:  []Token{tok(1, "1"), tok(2, "+"), tok(1, "2"), tok(2, "+"), tok(1, "3"), tok(2, "+"), tok(1, "4")},
			want:    "(s (e (e (e (e 1) + (e 2)) + (e 3)) + (e 4)))",
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			got, synErrs := parseToString(t, g, streamOf(tt.tokens...))
			if len(synErrs) > 0 {
				t.Fatalf("unexpected syntax errors: %v", synErrs[0].Message)
			}
			if got != tt.want {
				t.Fatalf("want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParse_PredicateSelectsAlternative(t *testing.T) {
	tests := []struct {
		caption string
		pred    bool
		want    string
	}{
		{caption: "predicate false takes alternative 2", pred: false, want: "(s x)"},
		{caption: "predicate true takes alternative 1", pred: true, want: "(s x)"},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			g := predicatedGrammar()
			p, err := NewParser(streamOf(tok(1, "x")), g, SemanticAction(&boolHandler{result: tt.pred}))
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
			if got := TreeToString(tree, g.RuleNames); got != tt.want {
				t.Fatalf("want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestParse_SingleTokenDeletionRecovery(t *testing.T) {
	g := sequenceGrammar("A", "B", "C")
	input := streamOf(tok(1, "a"), tok(2, "b"), tok(automaton.TokenInvalidType, "X"), tok(3, "c"))

	p, err := NewParser(input, g)
	if err != nil {
		t.Fatal(err)
	}
	tree, err := p.Parse(0)
	if err != nil {
		t.Fatal(err)
	}

	synErrs := p.SyntaxErrors()
	if len(synErrs) != 1 {
		t.Fatalf("want 1 syntax error, got %v", len(synErrs))
	}
	if want := "extraneous input 'X' expecting C"; synErrs[0].Message != want {
		t.Fatalf("want %#v, got %#v", want, synErrs[0].Message)
	}

	if want := "(s a b <X> c)"; TreeToString(tree, g.RuleNames) != want {
		t.Fatalf("want %v, got %v", want, TreeToString(tree, g.RuleNames))
	}
}

func TestParse_SLLModeAgreesWithLL(t *testing.T) {
	for _, mode := range []prediction.Mode{prediction.ModeSLL, prediction.ModeLL} {
		t.Run(mode.String(), func(t *testing.T) {
			g := alternationGrammar()
			p, err := NewParser(streamOf(tok(1, "x"), tok(2, "!")), g, PredictionMode(mode))
			if err != nil {
				t.Fatal(err)
			}
			tree, err := p.Parse(0)
			if err != nil {
				t.Fatal(err)
			}
			if want := "(s (e x !))"; TreeToString(tree, g.RuleNames) != want {
				t.Fatalf("want %v, got %v", want, TreeToString(tree, g.RuleNames))
			}
		})
	}
}

func TestParse_BailErrorStrategyAborts(t *testing.T) {
	g := sequenceGrammar("A", "B")
	input := streamOf(tok(1, "a"), tok(1, "a"))

	p, err := NewParser(input, g, ErrorHandler(NewBailErrorStrategy()))
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Parse(0)
	if err == nil {
		t.Fatal("bail strategy must abort the parse")
	}
	if _, ok := err.(*InputMismatchError); !ok {
		t.Fatalf("want InputMismatchError, got %T", err)
	}
}

func TestAdaptivePredict_RestoresStreamPosition(t *testing.T) {
	g := alternationGrammar()
	input := streamOf(tok(1, "x"), tok(2, "!"))

	sim := prediction.NewSimulator(g.ATN, prediction.NewDecisionDFAs(g.ATN), prediction.NewContextCache(), allTrueEvaluator{})
	alt, err := sim.AdaptivePredict(input, 0, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if alt != 2 {
		t.Fatalf("want alt 2, got %v", alt)
	}
	if input.Index() != 0 {
		t.Fatalf("prediction must restore the stream, index is %v", input.Index())
	}
}

func TestParse_ConcurrentParsersShareDFAs(t *testing.T) {
	g := leftRecursiveGrammar()

	intTok := func(v int) Token { return tok(1, fmt.Sprintf("%v", v)) }
	plus := func() Token { return tok(2, "+") }

	var eg errgroup.Group
	for i := 0; i < 4; i++ {
		i := i
		eg.Go(func() error {
			for n := 0; n < 25; n++ {
				var tokens []Token
				want := fmt.Sprintf("(e %v)", i)
				tokens = append(tokens, intTok(i))
				for k := 0; k < n%4; k++ {
					tokens = append(tokens, plus(), intTok(k))
					want = fmt.Sprintf("(e %v + (e %v))", want, k)
				}
				input := streamOf(tokens...)
				p, err := NewParser(input, g)
				if err != nil {
					return err
				}
				tree, err := p.Parse(0)
				if err != nil {
					return err
				}
				if len(p.SyntaxErrors()) > 0 {
					return fmt.Errorf("unexpected syntax error: %v", p.SyntaxErrors()[0].Message)
				}
				got := TreeToString(tree, g.RuleNames)
				if diff := cmp.Diff("(s "+want+")", got); diff != "" {
					return fmt.Errorf("unexpected tree (-want +got):\n%v", diff)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}

	if g.DFA(0).NumStates() == 0 {
		t.Fatal("shared DFA must have accumulated states")
	}
}
