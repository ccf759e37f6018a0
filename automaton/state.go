package automaton

import "fmt"

// StateKind identifies the variant of an ATN state. The numeric values are
// part of the serialized form.
type StateKind int

const (
	StateKindInvalid        = StateKind(0)
	StateKindBasic          = StateKind(1)
	StateKindRuleStart      = StateKind(2)
	StateKindBlockStart     = StateKind(3)
	StateKindPlusBlockStart = StateKind(4)
	StateKindStarBlockStart = StateKind(5)
	StateKindTokensStart    = StateKind(6)
	StateKindRuleStop       = StateKind(7)
	StateKindBlockEnd       = StateKind(8)
	StateKindStarLoopBack   = StateKind(9)
	StateKindStarLoopEntry  = StateKind(10)
	StateKindPlusLoopBack   = StateKind(11)
	StateKindLoopEnd        = StateKind(12)
)

func (k StateKind) String() string {
	switch k {
	case StateKindBasic:
		return "basic"
	case StateKindRuleStart:
		return "rule start"
	case StateKindBlockStart:
		return "block start"
	case StateKindPlusBlockStart:
		return "plus block start"
	case StateKindStarBlockStart:
		return "star block start"
	case StateKindTokensStart:
		return "tokens start"
	case StateKindRuleStop:
		return "rule stop"
	case StateKindBlockEnd:
		return "block end"
	case StateKindStarLoopBack:
		return "star loop back"
	case StateKindStarLoopEntry:
		return "star loop entry"
	case StateKindPlusLoopBack:
		return "plus loop back"
	case StateKindLoopEnd:
		return "loop end"
	}
	return "invalid"
}

// InvalidDecision marks a state that doesn't own a decision.
const InvalidDecision = -1

// State is a node of an ATN. All variants share the header fields; the
// remaining fields are meaningful only for the kinds noted on each.
type State struct {
	Num         int
	Rule        int
	Kind        StateKind
	Transitions []*Transition

	// Decision is a decision number (>= 0) when the state heads a decision.
	Decision  int
	NonGreedy bool

	// StopState links a rule start state to the stop state of its rule.
	// IsPrecedenceRule marks the start state of a left-recursive rule.
	StopState        *State
	IsPrecedenceRule bool

	// EndState links a block start state to its block end state.
	EndState *State

	// LoopBack links a star loop entry or loop end state to its loop-back
	// state. PrecedenceRuleDecision marks the loop entry decision of a
	// left-recursive rule.
	LoopBack               *State
	PrecedenceRuleDecision bool

	epsilonOnly bool
	nextTokens  *IntervalSet
}

func NewState(kind StateKind, rule int) *State {
	return &State{
		Num:      -1,
		Rule:     rule,
		Kind:     kind,
		Decision: InvalidDecision,
	}
}

func (s *State) AddTransition(t *Transition) {
	if len(s.Transitions) == 0 {
		s.epsilonOnly = t.IsEpsilon()
	} else if s.epsilonOnly != t.IsEpsilon() {
		panic(fmt.Sprintf("state %v has both epsilon and non-epsilon transitions", s.Num))
	}
	s.Transitions = append(s.Transitions, t)
}

// OnlyHasEpsilonTransitions reports whether every outgoing transition is an
// epsilon transition.
func (s *State) OnlyHasEpsilonTransitions() bool {
	return s.epsilonOnly
}

// IsDecision reports whether the state owns a decision, that is, whether
// the simulator must predict an alternative to leave it.
func (s *State) IsDecision() bool {
	return s.Decision >= 0
}

func (s *State) String() string {
	return fmt.Sprintf("%v (%v)", s.Num, s.Kind)
}
