package atn

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/soutome/atnkit/automaton"
)

// Deserialize reconstructs an ATN from a serialized unit stream. It
// refuses streams with an unknown version or UUID and validates the
// structural links it reads; a stream that passes yields a ready-to-use,
// immutable ATN with rule-return transitions wired.
func Deserialize(data []uint16) (*automaton.ATN, error) {
	r := &reader{data: data}

	version, err := r.take()
	if err != nil {
		return nil, err
	}
	if version != SerializedVersion {
		return nil, fmt.Errorf("unsupported serialized ATN version %v (want %v)", version, SerializedVersion)
	}
	var u uuid.UUID
	for i := 0; i < 16; i += 2 {
		v, err := r.take()
		if err != nil {
			return nil, err
		}
		u[i] = byte(v)
		u[i+1] = byte(v >> 8)
	}
	if u != SerializedUUID {
		return nil, fmt.Errorf("unsupported serialized ATN UUID %v (want %v)", u, SerializedUUID)
	}

	grammarType, err := r.take()
	if err != nil {
		return nil, err
	}
	maxTokenType, err := r.take()
	if err != nil {
		return nil, err
	}
	a := automaton.NewATN(automaton.GrammarType(grammarType), maxTokenType)

	// State table.
	stateCount, err := r.take()
	if err != nil {
		return nil, err
	}
	stateArgs := make([]int, stateCount)
	for i := 0; i < stateCount; i++ {
		kind, err := r.take()
		if err != nil {
			return nil, err
		}
		if automaton.StateKind(kind) == automaton.StateKindInvalid {
			if _, err := r.take(); err != nil {
				return nil, err
			}
			if _, err := r.take(); err != nil {
				return nil, err
			}
			a.AddState(nil)
			continue
		}
		rule, err := r.take()
		if err != nil {
			return nil, err
		}
		arg, err := r.take()
		if err != nil {
			return nil, err
		}
		s := automaton.NewState(automaton.StateKind(kind), rule)
		stateArgs[i] = arg
		a.AddState(s)
	}
	stateAt := func(num int) (*automaton.State, error) {
		if num < 0 || num >= len(a.States) || a.States[num] == nil {
			return nil, fmt.Errorf("serialized ATN references invalid state %v", num)
		}
		return a.States[num], nil
	}
	// Resolve the block-end and loop-back links now that all states exist.
	for i, s := range a.States {
		if s == nil || stateArgs[i] == noValue {
			continue
		}
		linked, err := stateAt(stateArgs[i])
		if err != nil {
			return nil, err
		}
		switch s.Kind {
		case automaton.StateKindBlockStart, automaton.StateKindPlusBlockStart, automaton.StateKindStarBlockStart:
			s.EndState = linked
		case automaton.StateKindStarLoopEntry, automaton.StateKindLoopEnd:
			s.LoopBack = linked
		}
	}

	// Rule table.
	ruleCount, err := r.take()
	if err != nil {
		return nil, err
	}
	a.RuleToStartState = make([]*automaton.State, ruleCount)
	a.RuleToStopState = make([]*automaton.State, ruleCount)
	if a.GrammarType == automaton.GrammarTypeLexer {
		a.RuleToTokenType = make([]int, ruleCount)
	}
	for i := 0; i < ruleCount; i++ {
		startNum, err := r.take()
		if err != nil {
			return nil, err
		}
		stopNum, err := r.take()
		if err != nil {
			return nil, err
		}
		flags, err := r.take()
		if err != nil {
			return nil, err
		}
		tokenType, err := r.take()
		if err != nil {
			return nil, err
		}
		start, err := stateAt(startNum)
		if err != nil {
			return nil, err
		}
		stop, err := stateAt(stopNum)
		if err != nil {
			return nil, err
		}
		if start.Kind != automaton.StateKindRuleStart || stop.Kind != automaton.StateKindRuleStop {
			return nil, fmt.Errorf("rule %v start/stop states have wrong kinds %v/%v", i, start.Kind, stop.Kind)
		}
		start.IsPrecedenceRule = flags&1 != 0
		start.StopState = stop
		a.RuleToStartState[i] = start
		a.RuleToStopState[i] = stop
		if a.GrammarType == automaton.GrammarTypeLexer && tokenType != noValue {
			a.RuleToTokenType[i] = tokenType - tokenOffset
		}
	}

	// Set table.
	setCount, err := r.take()
	if err != nil {
		return nil, err
	}
	sets := make([]*automaton.IntervalSet, setCount)
	for i := 0; i < setCount; i++ {
		n, err := r.take()
		if err != nil {
			return nil, err
		}
		set := automaton.NewIntervalSet()
		for j := 0; j < n; j++ {
			lo, err := r.take()
			if err != nil {
				return nil, err
			}
			hi, err := r.take()
			if err != nil {
				return nil, err
			}
			set.AddRange(lo-tokenOffset, hi-tokenOffset)
		}
		sets[i] = set
	}

	// Edge table.
	edgeCount, err := r.take()
	if err != nil {
		return nil, err
	}
	for i := 0; i < edgeCount; i++ {
		var vs [6]int
		for j := range vs {
			v, err := r.take()
			if err != nil {
				return nil, err
			}
			vs[j] = v
		}
		src, err := stateAt(vs[0])
		if err != nil {
			return nil, err
		}
		trg, err := stateAt(vs[2])
		if err != nil {
			return nil, err
		}
		kind := automaton.TransitionKind(vs[1])
		arg1, arg2, arg3 := vs[3], vs[4], vs[5]

		var t *automaton.Transition
		switch kind {
		case automaton.TransitionKindEpsilon:
			t = automaton.NewEpsilonTransition(trg)
		case automaton.TransitionKindWildcard:
			t = automaton.NewWildcardTransition(trg)
		case automaton.TransitionKindAtom:
			t = automaton.NewAtomTransition(trg, arg1-tokenOffset)
		case automaton.TransitionKindRange:
			t = automaton.NewRangeTransition(trg, arg1-tokenOffset, arg2-tokenOffset)
		case automaton.TransitionKindSet, automaton.TransitionKindNotSet:
			if arg1 >= len(sets) {
				return nil, fmt.Errorf("edge %v references invalid set %v", i, arg1)
			}
			if kind == automaton.TransitionKindSet {
				t = automaton.NewSetTransition(trg, sets[arg1])
			} else {
				t = automaton.NewNotSetTransition(trg, sets[arg1])
			}
		case automaton.TransitionKindRule:
			// trg is the follow state; the target is the called rule's
			// start state.
			if arg1 >= ruleCount {
				return nil, fmt.Errorf("edge %v references invalid rule %v", i, arg1)
			}
			t = automaton.NewRuleTransition(a.RuleToStartState[arg1], arg1, arg2, trg)
		case automaton.TransitionKindPredicate:
			t = automaton.NewPredicateTransition(trg, arg1, arg2, arg3 != 0)
		case automaton.TransitionKindPrecedencePredicate:
			t = automaton.NewPrecedencePredicateTransition(trg, arg1)
		case automaton.TransitionKindAction:
			t = automaton.NewActionTransition(trg, arg1, arg2, arg3 != 0)
		default:
			return nil, fmt.Errorf("edge %v has invalid transition kind %v", i, vs[1])
		}
		src.AddTransition(t)
	}

	// Decision table.
	decisionCount, err := r.take()
	if err != nil {
		return nil, err
	}
	for i := 0; i < decisionCount; i++ {
		num, err := r.take()
		if err != nil {
			return nil, err
		}
		s, err := stateAt(num)
		if err != nil {
			return nil, err
		}
		a.DefineDecisionState(s)
	}
	if r.pos != len(r.data) {
		return nil, fmt.Errorf("serialized ATN has %v trailing units", len(r.data)-r.pos)
	}

	markPrecedenceDecisions(a)
	a.ConnectRuleReturns()
	return a, nil
}

// markPrecedenceDecisions flags the loop-entry decision of each
// left-recursive rule: a star loop entry whose loop-end exit leads
// straight to the rule stop state.
func markPrecedenceDecisions(a *automaton.ATN) {
	for _, s := range a.States {
		if s == nil || s.Kind != automaton.StateKindStarLoopEntry {
			continue
		}
		if !a.RuleToStartState[s.Rule].IsPrecedenceRule {
			continue
		}
		maybeLoopEnd := s.Transitions[len(s.Transitions)-1].Target
		if maybeLoopEnd.Kind != automaton.StateKindLoopEnd {
			continue
		}
		if maybeLoopEnd.OnlyHasEpsilonTransitions() &&
			maybeLoopEnd.Transitions[0].Target.Kind == automaton.StateKindRuleStop {
			s.PrecedenceRuleDecision = true
		}
	}
}

type reader struct {
	data []uint16
	pos  int
}

func (r *reader) take() (int, error) {
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("serialized ATN truncated at unit %v", r.pos)
	}
	v := r.data[r.pos]
	r.pos++
	return int(v), nil
}
