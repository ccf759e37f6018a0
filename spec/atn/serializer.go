package atn

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/soutome/atnkit/automaton"
)

// The serialized ATN is a stream of little-endian 16-bit units: version,
// UUID, grammar header, state table, rule table, set table, edge table,
// and decision table. Token types are stored shifted by tokenOffset so the
// reserved negative types fit in a unit.

// SerializedVersion is the format version this runtime reads and writes.
const SerializedVersion = 1

// SerializedUUID tags streams of the current layout. Deserialize refuses
// any other tag.
var SerializedUUID = uuid.MustParse("59627784-3be5-417a-b9eb-8131a7286089")

const (
	tokenOffset = 2
	noValue     = 0xffff
)

// Serialize encodes `a` into the 16-bit unit stream. The rule-return
// epsilon transitions hung off rule stop states are derived data and are
// not written; Deserialize reconstructs them.
func Serialize(a *automaton.ATN) ([]uint16, error) {
	w := &writer{}

	w.put(SerializedVersion)
	u := SerializedUUID
	for i := 0; i < 16; i += 2 {
		w.put(int(u[i]) | int(u[i+1])<<8)
	}

	w.put(int(a.GrammarType))
	w.put(a.MaxTokenType)

	// State table.
	if len(a.States) > noValue {
		return nil, fmt.Errorf("too many states to serialize: %v", len(a.States))
	}
	w.put(len(a.States))
	for i, s := range a.States {
		if s == nil {
			w.put(int(automaton.StateKindInvalid))
			w.put(noValue)
			w.put(noValue)
			continue
		}
		if s.Num != i {
			return nil, fmt.Errorf("state number %v out of order at %v", s.Num, i)
		}
		w.put(int(s.Kind))
		w.put(s.Rule)
		switch s.Kind {
		case automaton.StateKindBlockStart, automaton.StateKindPlusBlockStart, automaton.StateKindStarBlockStart:
			w.put(stateNumOrNone(s.EndState))
		case automaton.StateKindStarLoopEntry, automaton.StateKindLoopEnd:
			w.put(stateNumOrNone(s.LoopBack))
		default:
			w.put(noValue)
		}
	}

	// Rule table.
	w.put(len(a.RuleToStartState))
	for r, start := range a.RuleToStartState {
		w.put(start.Num)
		w.put(a.RuleToStopState[r].Num)
		flags := 0
		if start.IsPrecedenceRule {
			flags |= 1
		}
		w.put(flags)
		if a.GrammarType == automaton.GrammarTypeLexer && a.RuleToTokenType != nil {
			w.put(a.RuleToTokenType[r] + tokenOffset)
		} else {
			w.put(noValue)
		}
	}

	// Set table: unique labels of set and not-set transitions.
	var sets []*automaton.IntervalSet
	setIndex := func(label *automaton.IntervalSet) int {
		for i, s := range sets {
			if s.Equal(label) {
				return i
			}
		}
		sets = append(sets, label)
		return len(sets) - 1
	}
	type edge struct {
		src, kind, trg, arg1, arg2, arg3 int
	}
	var edges []edge
	for _, s := range a.States {
		if s == nil || s.Kind == automaton.StateKindRuleStop {
			continue
		}
		for _, t := range s.Transitions {
			e := edge{src: s.Num, kind: int(t.Kind), arg1: noValue, arg2: noValue, arg3: noValue}
			switch t.Kind {
			case automaton.TransitionKindEpsilon, automaton.TransitionKindWildcard:
				e.trg = t.Target.Num
			case automaton.TransitionKindAtom:
				e.trg = t.Target.Num
				e.arg1 = t.Label.Min() + tokenOffset
			case automaton.TransitionKindRange:
				in := t.Label.Intervals()[0]
				e.trg = t.Target.Num
				e.arg1 = in.Start + tokenOffset
				e.arg2 = in.Stop - 1 + tokenOffset
			case automaton.TransitionKindSet, automaton.TransitionKindNotSet:
				e.trg = t.Target.Num
				e.arg1 = setIndex(t.Label)
			case automaton.TransitionKindRule:
				e.trg = t.FollowState.Num
				e.arg1 = t.RuleIndex
				e.arg2 = t.Precedence
			case automaton.TransitionKindPredicate:
				e.trg = t.Target.Num
				e.arg1 = t.RuleIndex
				e.arg2 = t.PredIndex
				e.arg3 = boolBit(t.IsCtxDependent)
			case automaton.TransitionKindPrecedencePredicate:
				e.trg = t.Target.Num
				e.arg1 = t.Precedence
			case automaton.TransitionKindAction:
				e.trg = t.Target.Num
				e.arg1 = t.RuleIndex
				e.arg2 = t.ActionIndex
				e.arg3 = boolBit(t.IsCtxDependent)
			default:
				return nil, fmt.Errorf("cannot serialize transition kind %v", t.Kind)
			}
			edges = append(edges, e)
		}
	}

	w.put(len(sets))
	for _, set := range sets {
		ins := set.Intervals()
		w.put(len(ins))
		for _, in := range ins {
			w.put(in.Start + tokenOffset)
			w.put(in.Stop - 1 + tokenOffset)
		}
	}

	// Edge table.
	w.put(len(edges))
	for _, e := range edges {
		w.put(e.src)
		w.put(e.kind)
		w.put(e.trg)
		w.put(e.arg1)
		w.put(e.arg2)
		w.put(e.arg3)
	}

	// Decision table.
	w.put(len(a.DecisionToState))
	for _, s := range a.DecisionToState {
		w.put(s.Num)
	}

	return w.data, nil
}

type writer struct {
	data []uint16
}

func (w *writer) put(v int) {
	w.data = append(w.data, uint16(v))
}

func stateNumOrNone(s *automaton.State) int {
	if s == nil {
		return noValue
	}
	return s.Num
}

func boolBit(b bool) int {
	if b {
		return 1
	}
	return 0
}
