package automaton

import (
	"fmt"
	"sync"
)

// Reserved token types shared by every grammar.
const (
	TokenEOF         = -1
	TokenEpsilon     = -2
	TokenInvalidType = 0
	TokenMinUserType = 1
)

// GrammarType tells whether an ATN was compiled from a lexer or a parser
// grammar.
type GrammarType int

const (
	GrammarTypeLexer  = GrammarType(0)
	GrammarTypeParser = GrammarType(1)
)

func (t GrammarType) String() string {
	if t == GrammarTypeLexer {
		return "lexer"
	}
	return "parser"
}

// RuleContext is the minimal view of an invocation chain the automaton
// needs to resolve what may follow a rule invocation. The driver's rule
// contexts implement it.
type RuleContext interface {
	ParentCtx() RuleContext
	InvokingState() int
}

// ATN is an augmented transition network: the compiled form of a grammar.
// It is immutable once construction finishes and may be shared by any
// number of parsers.
type ATN struct {
	GrammarType  GrammarType
	MaxTokenType int

	States          []*State
	DecisionToState []*State

	RuleToStartState []*State
	RuleToStopState  []*State

	// RuleToTokenType maps a lexer rule to the token type it emits.
	// Parser ATNs leave it nil.
	RuleToTokenType []int

	lookMu sync.Mutex
}

func NewATN(grammarType GrammarType, maxTokenType int) *ATN {
	return &ATN{
		GrammarType:  grammarType,
		MaxTokenType: maxTokenType,
	}
}

func (a *ATN) AddState(s *State) {
	if s != nil {
		s.Num = len(a.States)
	}
	a.States = append(a.States, s)
}

// DefineDecisionState registers `s` as a decision state and assigns its
// decision number.
func (a *ATN) DefineDecisionState(s *State) int {
	a.DecisionToState = append(a.DecisionToState, s)
	s.Decision = len(a.DecisionToState) - 1
	return s.Decision
}

func (a *ATN) DecisionState(decision int) *State {
	if decision < 0 || decision >= len(a.DecisionToState) {
		return nil
	}
	return a.DecisionToState[decision]
}

func (a *ATN) RuleCount() int {
	return len(a.RuleToStartState)
}

// ConnectRuleReturns hangs an epsilon transition off every rule stop state
// toward the follow state of each call of that rule. Call it exactly once,
// after all states and transitions exist; the closure relies on these
// links to leave a rule when the call stack is exhausted.
func (a *ATN) ConnectRuleReturns() {
	for _, s := range a.States {
		if s == nil {
			continue
		}
		for _, t := range s.Transitions {
			if t.Kind != TransitionKindRule {
				continue
			}
			outermostPrecedenceReturn := -1
			if a.RuleToStartState[t.RuleIndex].IsPrecedenceRule && t.Precedence == 0 {
				outermostPrecedenceReturn = t.RuleIndex
			}
			stop := a.RuleToStopState[t.RuleIndex]
			stop.AddTransition(NewRuleReturnTransition(t.FollowState, outermostPrecedenceReturn))
		}
	}
}

// NextTokens computes the set of tokens that can follow `s` within its rule.
// The result contains TokenEpsilon when the end of the rule is reachable
// without consuming a token. Results are cached on the state; the cache is
// safe for concurrent use.
func (a *ATN) NextTokens(s *State) *IntervalSet {
	a.lookMu.Lock()
	defer a.lookMu.Unlock()
	if s.nextTokens != nil {
		return s.nextTokens
	}
	s.nextTokens = a.look(s, nil)
	return s.nextTokens
}

// ExpectedTokens computes the set of tokens acceptable in state `stateNum`
// given the invocation chain `ctx`. Unlike NextTokens it follows the chain
// through rule stops, so the result never contains TokenEpsilon.
func (a *ATN) ExpectedTokens(stateNum int, ctx RuleContext) *IntervalSet {
	if stateNum < 0 || stateNum >= len(a.States) {
		panic(fmt.Sprintf("invalid state number %v", stateNum))
	}
	following := a.NextTokens(a.States[stateNum])
	if !following.Contains(TokenEpsilon) {
		return following
	}

	expected := NewIntervalSet()
	expected.AddSet(following)
	for ctx != nil && ctx.InvokingState() >= 0 && following.Contains(TokenEpsilon) {
		invoking := a.States[ctx.InvokingState()]
		rt := invoking.Transitions[0]
		following = a.NextTokens(rt.FollowState)
		expected.AddSet(following)
		ctx = ctx.ParentCtx()
	}

	set := NewIntervalSet()
	for _, in := range expected.Intervals() {
		if in.Contains(TokenEpsilon) {
			if in.Start < TokenEpsilon {
				set.AddRange(in.Start, TokenEpsilon-1)
			}
			if in.Stop > TokenEpsilon+1 {
				set.AddRange(TokenEpsilon+1, in.Stop-1)
			}
		} else {
			set.addInterval(in)
		}
	}
	if following.Contains(TokenEpsilon) {
		set.AddOne(TokenEOF)
	}
	return set
}
