package driver

import (
	"github.com/soutome/atnkit/automaton"
)

// The grammars below are hand-assembled ATNs with the same shapes a
// grammar compiler emits: blocks bracketed by block start/end states, star
// loops for left-recursive rules, and rule transitions carried by a state
// whose transition 0 is the call.

type atnAssembler struct {
	atn *automaton.ATN
}

func newATNAssembler(maxTokenType int) *atnAssembler {
	return &atnAssembler{
		atn: automaton.NewATN(automaton.GrammarTypeParser, maxTokenType),
	}
}

func (b *atnAssembler) state(kind automaton.StateKind, rule int) *automaton.State {
	s := automaton.NewState(kind, rule)
	b.atn.AddState(s)
	return s
}

func (b *atnAssembler) rule(start, stop *automaton.State) {
	start.StopState = stop
	b.atn.RuleToStartState = append(b.atn.RuleToStartState, start)
	b.atn.RuleToStopState = append(b.atn.RuleToStopState, stop)
}

func (b *atnAssembler) epsilon(from, to *automaton.State) {
	from.AddTransition(automaton.NewEpsilonTransition(to))
}

func (b *atnAssembler) atom(from, to *automaton.State, ttype int) {
	from.AddTransition(automaton.NewAtomTransition(to, ttype))
}

func (b *atnAssembler) build() *automaton.ATN {
	b.atn.ConnectRuleReturns()
	return b.atn
}

func symbolicVocabulary(tokenNames ...string) *Vocabulary {
	return NewVocabulary(nil, append([]string{""}, tokenNames...), nil)
}

// sequenceGrammar builds `s: T1 T2 ... Tn ;` with token types 1..n.
func sequenceGrammar(tokenNames ...string) *Grammar {
	b := newATNAssembler(len(tokenNames))
	start := b.state(automaton.StateKindRuleStart, 0)
	stop := b.state(automaton.StateKindRuleStop, 0)
	prev := b.state(automaton.StateKindBasic, 0)
	b.epsilon(start, prev)
	for i := range tokenNames {
		next := b.state(automaton.StateKindBasic, 0)
		b.atom(prev, next, i+1)
		prev = next
	}
	b.epsilon(prev, stop)
	b.rule(start, stop)
	return NewGrammar(b.build(), symbolicVocabulary(tokenNames...), []string{"s"})
}

// alternationGrammar builds
//
//	s: e ;
//	e: ID | ID '!' ;
//
// with ID=1 and BANG=2. The block of e owns decision 0.
func alternationGrammar() *Grammar {
	b := newATNAssembler(2)
	const (
		tokID   = 1
		tokBang = 2
	)

	sStart := b.state(automaton.StateKindRuleStart, 0)
	sStop := b.state(automaton.StateKindRuleStop, 0)
	n1 := b.state(automaton.StateKindBasic, 0)
	n2 := b.state(automaton.StateKindBasic, 0)

	eStart := b.state(automaton.StateKindRuleStart, 1)
	eStop := b.state(automaton.StateKindRuleStop, 1)
	d := b.state(automaton.StateKindBlockStart, 1)
	be := b.state(automaton.StateKindBlockEnd, 1)
	a1 := b.state(automaton.StateKindBasic, 1)
	a2 := b.state(automaton.StateKindBasic, 1)
	c1 := b.state(automaton.StateKindBasic, 1)
	c2 := b.state(automaton.StateKindBasic, 1)
	c3 := b.state(automaton.StateKindBasic, 1)

	b.rule(sStart, sStop)
	b.rule(eStart, eStop)

	b.epsilon(sStart, n1)
	n1.AddTransition(automaton.NewRuleTransition(eStart, 1, 0, n2))
	b.epsilon(n2, sStop)

	b.epsilon(eStart, d)
	d.EndState = be
	b.atn.DefineDecisionState(d)
	b.epsilon(d, a1)
	b.epsilon(d, c1)
	b.atom(a1, a2, tokID)
	b.epsilon(a2, be)
	b.atom(c1, c2, tokID)
	b.atom(c2, c3, tokBang)
	b.epsilon(c3, be)
	b.epsilon(be, eStop)

	return NewGrammar(b.build(), symbolicVocabulary("ID", "'!'"), []string{"s", "e"})
}

// leftRecursiveGrammar builds the transformed form of
//
//	s: e ;
//	e: e '+' e | INT ;
//
// with INT=1 and PLUS=2, namely `e[p]: INT ({2 >= p}? '+' e[3])* ;`.
// The star loop entry of e owns decision 0.
func leftRecursiveGrammar() *Grammar {
	b := newATNAssembler(2)
	const (
		tokInt  = 1
		tokPlus = 2
	)

	sStart := b.state(automaton.StateKindRuleStart, 0)
	sStop := b.state(automaton.StateKindRuleStop, 0)
	n1 := b.state(automaton.StateKindBasic, 0)
	n2 := b.state(automaton.StateKindBasic, 0)

	eStart := b.state(automaton.StateKindRuleStart, 1)
	eStop := b.state(automaton.StateKindRuleStop, 1)
	p1 := b.state(automaton.StateKindBasic, 1)
	p2 := b.state(automaton.StateKindBasic, 1)
	sle := b.state(automaton.StateKindStarLoopEntry, 1)
	sbs := b.state(automaton.StateKindStarBlockStart, 1)
	be := b.state(automaton.StateKindBlockEnd, 1)
	slb := b.state(automaton.StateKindStarLoopBack, 1)
	le := b.state(automaton.StateKindLoopEnd, 1)
	q1 := b.state(automaton.StateKindBasic, 1)
	q2 := b.state(automaton.StateKindBasic, 1)

	eStart.IsPrecedenceRule = true
	b.rule(sStart, sStop)
	b.rule(eStart, eStop)

	b.epsilon(sStart, n1)
	n1.AddTransition(automaton.NewRuleTransition(eStart, 1, 0, n2))
	b.epsilon(n2, sStop)

	b.epsilon(eStart, p1)
	b.atom(p1, p2, tokInt)
	b.epsilon(p2, sle)

	sle.PrecedenceRuleDecision = true
	sle.LoopBack = slb
	le.LoopBack = slb
	sbs.EndState = be
	b.atn.DefineDecisionState(sle)
	b.epsilon(sle, sbs)
	b.epsilon(sle, le)

	sbs.AddTransition(automaton.NewPrecedencePredicateTransition(q1, 2))
	b.atom(q1, q2, tokPlus)
	q2.AddTransition(automaton.NewRuleTransition(eStart, 1, 3, be))
	b.epsilon(be, slb)
	b.epsilon(slb, sle)
	b.epsilon(le, eStop)

	return NewGrammar(b.build(), symbolicVocabulary("INT", "'+'"), []string{"s", "e"})
}

// predicatedGrammar builds `s: {p()}? ID | ID ;` with ID=1. The block of s
// owns decision 0.
func predicatedGrammar() *Grammar {
	b := newATNAssembler(1)
	const tokID = 1

	sStart := b.state(automaton.StateKindRuleStart, 0)
	sStop := b.state(automaton.StateKindRuleStop, 0)
	d := b.state(automaton.StateKindBlockStart, 0)
	be := b.state(automaton.StateKindBlockEnd, 0)
	a0 := b.state(automaton.StateKindBasic, 0)
	a1 := b.state(automaton.StateKindBasic, 0)
	a2 := b.state(automaton.StateKindBasic, 0)
	c0 := b.state(automaton.StateKindBasic, 0)
	c1 := b.state(automaton.StateKindBasic, 0)

	b.rule(sStart, sStop)

	b.epsilon(sStart, d)
	d.EndState = be
	b.atn.DefineDecisionState(d)
	b.epsilon(d, a0)
	b.epsilon(d, c0)
	a0.AddTransition(automaton.NewPredicateTransition(a1, 0, 0, false))
	b.atom(a1, a2, tokID)
	b.epsilon(a2, be)
	b.atom(c0, c1, tokID)
	b.epsilon(c1, be)
	b.epsilon(be, sStop)

	return NewGrammar(b.build(), symbolicVocabulary("ID"), []string{"s"})
}

func tok(ttype int, text string) Token {
	return &CommonToken{
		Type: ttype,
		Txt:  text,
	}
}

func streamOf(tokens ...Token) *TokenStream {
	s, err := NewTokenStream(NewListTokenSource(tokens))
	if err != nil {
		panic(err)
	}
	return s
}

// allTrueEvaluator satisfies prediction.Evaluator for driving a simulator
// without a parser.
type allTrueEvaluator struct{}

func (allTrueEvaluator) Sempred(_ automaton.RuleContext, _, _ int) bool {
	return true
}

func (allTrueEvaluator) Precpred(_ automaton.RuleContext, _ int) bool {
	return true
}

// boolHandler answers every user predicate with a fixed value.
type boolHandler struct {
	result bool
}

func (h *boolHandler) Sempred(_ automaton.RuleContext, _, _ int) bool {
	return h.result
}

func (h *boolHandler) Action(_ automaton.RuleContext, _, _ int) {
}
