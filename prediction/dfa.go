package prediction

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/soutome/atnkit/automaton"
)

// DFAState memoizes one prediction outcome: the frozen configuration set
// that produced it, outgoing edges by input symbol, and either a predicted
// alternative or the predicates that still have to decide one.
type DFAState struct {
	num     int
	configs *ATNConfigSet

	// edges maps an input symbol to the successor state. Reads and writes
	// go through the owning DFA, which guards them with its lock.
	edges map[int]*DFAState

	isAcceptState bool

	// Prediction is the alternative to return when the state is an accept
	// state without predicates.
	Prediction int

	// RequiresFullContext marks an SLL accept state whose decision needs
	// the full-context fallback.
	RequiresFullContext bool

	// Predicates carries (semantic context, alt) pairs for predicated
	// accept states; nil otherwise.
	Predicates []*PredPrediction
}

// PredPrediction pairs a semantic context with the alternative to predict
// when it evaluates true.
type PredPrediction struct {
	Pred SemanticContext
	Alt  int
}

func (p *PredPrediction) String() string {
	return fmt.Sprintf("(%v, %v)", p.Pred, p.Alt)
}

func NewDFAState(configs *ATNConfigSet) *DFAState {
	return &DFAState{
		num:        -1,
		configs:    configs,
		edges:      map[int]*DFAState{},
		Prediction: InvalidAlt,
	}
}

func (d *DFAState) Configs() *ATNConfigSet {
	return d.configs
}

func (d *DFAState) IsAcceptState() bool {
	return d.isAcceptState
}

func (d *DFAState) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "s%v:%v", d.num, d.configs)
	if d.isAcceptState {
		b.WriteString("=>")
		if d.Predicates != nil {
			ss := make([]string, len(d.Predicates))
			for i, p := range d.Predicates {
				ss[i] = p.String()
			}
			fmt.Fprintf(&b, "[%v]", strings.Join(ss, ", "))
		} else {
			fmt.Fprintf(&b, "%v", d.Prediction)
		}
	}
	return b.String()
}

// DFA caches prediction outcomes for one decision. It is shared by every
// parser using the same ATN and is safe for concurrent use: states and
// edges are only ever added, never removed, and insertion is idempotent
// under the lock.
type DFA struct {
	Decision      int
	DecisionState *automaton.State

	mu        sync.RWMutex
	states    map[uint32][]*DFAState
	numStates int
	s0        *DFAState

	// precedenceDfa marks the DFA of a left-recursive rule's primary
	// decision: s0 is a dummy whose edges are indexed by precedence rather
	// than input symbol.
	precedenceDfa bool
}

func NewDFA(decisionState *automaton.State, decision int) *DFA {
	d := &DFA{
		Decision:      decision,
		DecisionState: decisionState,
		states:        map[uint32][]*DFAState{},
	}
	if decisionState != nil && decisionState.Kind == automaton.StateKindStarLoopEntry && decisionState.PrecedenceRuleDecision {
		d.precedenceDfa = true
		s0 := NewDFAState(NewATNConfigSet(false))
		s0.configs.Freeze()
		d.s0 = s0
	}
	return d
}

func (d *DFA) IsPrecedenceDfa() bool {
	return d.precedenceDfa
}

// S0 returns the entry state, or nil when the decision has not been
// simulated yet. For precedence DFAs use PrecedenceStartState.
func (d *DFA) S0() *DFAState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.s0
}

func (d *DFA) SetS0(s *DFAState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.s0 = s
}

// PrecedenceStartState returns the entry state for the given precedence,
// or nil when that precedence has not been simulated yet.
func (d *DFA) PrecedenceStartState(precedence int) *DFAState {
	if !d.precedenceDfa {
		panic("only precedence DFAs have precedence start states")
	}
	if precedence < 0 {
		return nil
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.s0.edges[precedence]
}

func (d *DFA) SetPrecedenceStartState(precedence int, start *DFAState) {
	if !d.precedenceDfa {
		panic("only precedence DFAs have precedence start states")
	}
	if precedence < 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.s0.edges[precedence] = start
}

// AddState interns `s`: when an equal state (same frozen configuration set)
// is already present, the existing one is returned and `s` is discarded.
func (d *DFA) AddState(s *DFAState) *DFAState {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := s.configs.Hash()
	for _, cand := range d.states[h] {
		if cand.configs.Equal(s.configs) {
			return cand
		}
	}
	s.num = d.numStates
	d.numStates++
	d.states[h] = append(d.states[h], s)
	return s
}

// Edge returns the successor of `from` on `symbol`, or nil.
func (d *DFA) Edge(from *DFAState, symbol int) *DFAState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return from.edges[symbol]
}

// AddEdge links `from` to `to` on `symbol`. Edge addition is monotonic: a
// concurrent writer that got there first wins and its target is returned.
func (d *DFA) AddEdge(from *DFAState, symbol int, to *DFAState) *DFAState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := from.edges[symbol]; ok {
		return existing
	}
	from.edges[symbol] = to
	return to
}

// NumStates returns the number of interned states.
func (d *DFA) NumStates() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.numStates
}

// States returns the interned states sorted by state number.
func (d *DFA) States() []*DFAState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var ss []*DFAState
	for _, bucket := range d.states {
		ss = append(ss, bucket...)
	}
	sort.Slice(ss, func(i, j int) bool {
		return ss[i].num < ss[j].num
	})
	return ss
}

// NewDecisionDFAs builds the shared DFA table for an ATN, one DFA per
// decision.
func NewDecisionDFAs(atn *automaton.ATN) []*DFA {
	dfas := make([]*DFA, len(atn.DecisionToState))
	for i, s := range atn.DecisionToState {
		dfas[i] = NewDFA(s, i)
	}
	return dfas
}
