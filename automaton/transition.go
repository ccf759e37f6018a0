package automaton

import "fmt"

// TransitionKind identifies the variant of a transition. The numeric values
// are part of the serialized form.
type TransitionKind int

const (
	TransitionKindInvalid             = TransitionKind(0)
	TransitionKindEpsilon             = TransitionKind(1)
	TransitionKindRange               = TransitionKind(2)
	TransitionKindRule                = TransitionKind(3)
	TransitionKindPredicate           = TransitionKind(4)
	TransitionKindAtom                = TransitionKind(5)
	TransitionKindAction              = TransitionKind(6)
	TransitionKindSet                 = TransitionKind(7)
	TransitionKindNotSet              = TransitionKind(8)
	TransitionKindWildcard            = TransitionKind(9)
	TransitionKindPrecedencePredicate = TransitionKind(10)
)

func (k TransitionKind) String() string {
	switch k {
	case TransitionKindEpsilon:
		return "epsilon"
	case TransitionKindRange:
		return "range"
	case TransitionKindRule:
		return "rule"
	case TransitionKindPredicate:
		return "predicate"
	case TransitionKindAtom:
		return "atom"
	case TransitionKindAction:
		return "action"
	case TransitionKindSet:
		return "set"
	case TransitionKindNotSet:
		return "not set"
	case TransitionKindWildcard:
		return "wildcard"
	case TransitionKindPrecedencePredicate:
		return "precedence predicate"
	}
	return "invalid"
}

// Transition is an edge of an ATN. All variants share the header fields;
// the remaining fields are meaningful only for the kinds noted on each.
type Transition struct {
	Kind   TransitionKind
	Target *State

	// Label is the match set of an atom, range, set, or not-set transition.
	Label *IntervalSet

	// RuleIndex, Precedence, and FollowState describe a rule transition.
	// RuleIndex also identifies the rule of a predicate or action.
	RuleIndex   int
	Precedence  int
	FollowState *State

	// PredIndex, ActionIndex, and IsCtxDependent describe predicate and
	// action transitions.
	PredIndex      int
	ActionIndex    int
	IsCtxDependent bool

	// OutermostPrecedenceReturn is set on the epsilon return transition of
	// a rule stop state when the return leaves an outermost (precedence 0)
	// invocation of a left-recursive rule; -1 otherwise.
	OutermostPrecedenceReturn int
}

func NewEpsilonTransition(target *State) *Transition {
	return &Transition{
		Kind:                      TransitionKindEpsilon,
		Target:                    target,
		OutermostPrecedenceReturn: -1,
	}
}

// NewRuleReturnTransition builds the epsilon transition hung off a rule
// stop state toward a follow state. `outermostPrecedenceReturn` is the
// called rule's index when the return leaves a precedence-0 invocation of
// a left-recursive rule, -1 otherwise.
func NewRuleReturnTransition(followState *State, outermostPrecedenceReturn int) *Transition {
	return &Transition{
		Kind:                      TransitionKindEpsilon,
		Target:                    followState,
		OutermostPrecedenceReturn: outermostPrecedenceReturn,
	}
}

func NewAtomTransition(target *State, ttype int) *Transition {
	return &Transition{
		Kind:   TransitionKindAtom,
		Target: target,
		Label:  NewIntervalSetOf(ttype),
	}
}

func NewRangeTransition(target *State, lo, hi int) *Transition {
	return &Transition{
		Kind:   TransitionKindRange,
		Target: target,
		Label:  NewIntervalSetOfRange(lo, hi),
	}
}

func NewSetTransition(target *State, label *IntervalSet) *Transition {
	if label == nil {
		label = NewIntervalSetOf(TokenInvalidType)
	}
	return &Transition{
		Kind:   TransitionKindSet,
		Target: target,
		Label:  label,
	}
}

func NewNotSetTransition(target *State, label *IntervalSet) *Transition {
	t := NewSetTransition(target, label)
	t.Kind = TransitionKindNotSet
	return t
}

func NewWildcardTransition(target *State) *Transition {
	return &Transition{
		Kind:   TransitionKindWildcard,
		Target: target,
	}
}

func NewRuleTransition(ruleStart *State, ruleIndex, precedence int, followState *State) *Transition {
	return &Transition{
		Kind:        TransitionKindRule,
		Target:      ruleStart,
		RuleIndex:   ruleIndex,
		Precedence:  precedence,
		FollowState: followState,
	}
}

func NewPredicateTransition(target *State, ruleIndex, predIndex int, isCtxDependent bool) *Transition {
	return &Transition{
		Kind:           TransitionKindPredicate,
		Target:         target,
		RuleIndex:      ruleIndex,
		PredIndex:      predIndex,
		IsCtxDependent: isCtxDependent,
	}
}

func NewPrecedencePredicateTransition(target *State, precedence int) *Transition {
	return &Transition{
		Kind:       TransitionKindPrecedencePredicate,
		Target:     target,
		Precedence: precedence,
	}
}

func NewActionTransition(target *State, ruleIndex, actionIndex int, isCtxDependent bool) *Transition {
	return &Transition{
		Kind:           TransitionKindAction,
		Target:         target,
		RuleIndex:      ruleIndex,
		ActionIndex:    actionIndex,
		IsCtxDependent: isCtxDependent,
	}
}

// IsEpsilon reports whether the transition consumes no input symbol.
func (t *Transition) IsEpsilon() bool {
	switch t.Kind {
	case TransitionKindEpsilon, TransitionKindRule, TransitionKindPredicate,
		TransitionKindPrecedencePredicate, TransitionKindAction:
		return true
	}
	return false
}

// Matches reports whether the transition can consume `symbol`. The vocabulary
// bounds clamp wildcard and negated matches.
func (t *Transition) Matches(symbol, minVocab, maxVocab int) bool {
	switch t.Kind {
	case TransitionKindAtom, TransitionKindRange, TransitionKindSet:
		return t.Label.Contains(symbol)
	case TransitionKindNotSet:
		return symbol >= minVocab && symbol <= maxVocab && !t.Label.Contains(symbol)
	case TransitionKindWildcard:
		return symbol >= minVocab && symbol <= maxVocab
	}
	return false
}

func (t *Transition) String() string {
	switch t.Kind {
	case TransitionKindRule:
		return fmt.Sprintf("rule(%v) -> %v", t.RuleIndex, t.Target.Num)
	case TransitionKindPredicate:
		return fmt.Sprintf("pred(%v:%v) -> %v", t.RuleIndex, t.PredIndex, t.Target.Num)
	case TransitionKindPrecedencePredicate:
		return fmt.Sprintf("prec(>=%v) -> %v", t.Precedence, t.Target.Num)
	case TransitionKindAction:
		return fmt.Sprintf("action(%v:%v) -> %v", t.RuleIndex, t.ActionIndex, t.Target.Num)
	case TransitionKindAtom, TransitionKindRange, TransitionKindSet, TransitionKindNotSet:
		return fmt.Sprintf("%v%v -> %v", t.Kind, t.Label, t.Target.Num)
	}
	return fmt.Sprintf("%v -> %v", t.Kind, t.Target.Num)
}
