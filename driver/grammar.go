package driver

import (
	"fmt"

	"github.com/soutome/atnkit/automaton"
	"github.com/soutome/atnkit/prediction"
)

// Grammar bundles an ATN with its vocabulary, rule names, and the shared
// prediction caches. One Grammar may drive any number of parsers
// concurrently; the DFA table and context cache converge regardless of
// interleaving.
type Grammar struct {
	ATN        *automaton.ATN
	Vocabulary *Vocabulary
	RuleNames  []string

	dfas  []*prediction.DFA
	cache *prediction.ContextCache
}

func NewGrammar(atn *automaton.ATN, vocab *Vocabulary, ruleNames []string) *Grammar {
	if len(ruleNames) != atn.RuleCount() {
		panic(fmt.Sprintf("rule name count %v does not match ATN rule count %v", len(ruleNames), atn.RuleCount()))
	}
	return &Grammar{
		ATN:        atn,
		Vocabulary: vocab,
		RuleNames:  ruleNames,
		dfas:       prediction.NewDecisionDFAs(atn),
		cache:      prediction.NewContextCache(),
	}
}

// DFA exposes the shared DFA of a decision, mainly for inspection and
// tests.
func (g *Grammar) DFA(decision int) *prediction.DFA {
	return g.dfas[decision]
}

// RuleIndex resolves a rule by name; -1 when unknown.
func (g *Grammar) RuleIndex(name string) int {
	for i, n := range g.RuleNames {
		if n == name {
			return i
		}
	}
	return -1
}
