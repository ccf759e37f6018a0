package atn

import (
	"testing"

	"github.com/soutome/atnkit/automaton"
)

// buildSampleATN assembles an ATN exercising every serializable state and
// transition variant:
//
//	s: e ';' ;
//	e[p]: (A | 'a'..'z' | ~[XY] | .) ({2 >= p}? '+' e[3] {act})* ;
func buildSampleATN() *automaton.ATN {
	a := automaton.NewATN(automaton.GrammarTypeParser, 30)
	add := func(kind automaton.StateKind, rule int) *automaton.State {
		s := automaton.NewState(kind, rule)
		a.AddState(s)
		return s
	}

	sStart := add(automaton.StateKindRuleStart, 0)
	sStop := add(automaton.StateKindRuleStop, 0)
	n1 := add(automaton.StateKindBasic, 0)
	n2 := add(automaton.StateKindBasic, 0)
	n3 := add(automaton.StateKindBasic, 0)

	eStart := add(automaton.StateKindRuleStart, 1)
	eStop := add(automaton.StateKindRuleStop, 1)
	blk := add(automaton.StateKindBlockStart, 1)
	blkEnd := add(automaton.StateKindBlockEnd, 1)
	b1 := add(automaton.StateKindBasic, 1)
	b2 := add(automaton.StateKindBasic, 1)
	b3 := add(automaton.StateKindBasic, 1)
	b4 := add(automaton.StateKindBasic, 1)
	sle := add(automaton.StateKindStarLoopEntry, 1)
	sbs := add(automaton.StateKindStarBlockStart, 1)
	lbe := add(automaton.StateKindBlockEnd, 1)
	slb := add(automaton.StateKindStarLoopBack, 1)
	le := add(automaton.StateKindLoopEnd, 1)
	q1 := add(automaton.StateKindBasic, 1)
	q2 := add(automaton.StateKindBasic, 1)
	q3 := add(automaton.StateKindBasic, 1)

	eStart.IsPrecedenceRule = true
	sStart.StopState = sStop
	eStart.StopState = eStop
	a.RuleToStartState = []*automaton.State{sStart, eStart}
	a.RuleToStopState = []*automaton.State{sStop, eStop}

	sStart.AddTransition(automaton.NewEpsilonTransition(n1))
	n1.AddTransition(automaton.NewRuleTransition(eStart, 1, 0, n2))
	n2.AddTransition(automaton.NewAtomTransition(n3, 5))
	n3.AddTransition(automaton.NewEpsilonTransition(sStop))

	eStart.AddTransition(automaton.NewEpsilonTransition(blk))
	blk.EndState = blkEnd
	a.DefineDecisionState(blk)
	blk.AddTransition(automaton.NewEpsilonTransition(b1))
	blk.AddTransition(automaton.NewEpsilonTransition(b2))
	blk.AddTransition(automaton.NewEpsilonTransition(b3))
	blk.AddTransition(automaton.NewEpsilonTransition(b4))
	b1.AddTransition(automaton.NewAtomTransition(blkEnd, 1))
	b2.AddTransition(automaton.NewRangeTransition(blkEnd, 10, 20))
	notLabel := automaton.NewIntervalSet()
	notLabel.AddOne(7)
	notLabel.AddOne(9)
	b3.AddTransition(automaton.NewNotSetTransition(blkEnd, notLabel))
	b4.AddTransition(automaton.NewWildcardTransition(blkEnd))
	blkEnd.AddTransition(automaton.NewEpsilonTransition(sle))

	sle.LoopBack = slb
	le.LoopBack = slb
	sbs.EndState = lbe
	a.DefineDecisionState(sle)
	sle.AddTransition(automaton.NewEpsilonTransition(sbs))
	sle.AddTransition(automaton.NewEpsilonTransition(le))
	sbs.AddTransition(automaton.NewPrecedencePredicateTransition(q1, 2))
	q1.AddTransition(automaton.NewAtomTransition(q2, 6))
	q2.AddTransition(automaton.NewRuleTransition(eStart, 1, 3, q3))
	q3.AddTransition(automaton.NewActionTransition(lbe, 1, 0, false))
	lbe.AddTransition(automaton.NewEpsilonTransition(slb))
	slb.AddTransition(automaton.NewEpsilonTransition(sle))
	le.AddTransition(automaton.NewEpsilonTransition(eStop))

	a.ConnectRuleReturns()
	return a
}

func TestSerializeRoundTrip(t *testing.T) {
	orig := buildSampleATN()
	data, err := Serialize(orig)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatal(err)
	}

	if got.GrammarType != orig.GrammarType {
		t.Fatalf("grammar type: want %v, got %v", orig.GrammarType, got.GrammarType)
	}
	if got.MaxTokenType != orig.MaxTokenType {
		t.Fatalf("max token type: want %v, got %v", orig.MaxTokenType, got.MaxTokenType)
	}
	if len(got.States) != len(orig.States) {
		t.Fatalf("state count: want %v, got %v", len(orig.States), len(got.States))
	}
	if len(got.DecisionToState) != len(orig.DecisionToState) {
		t.Fatalf("decision count: want %v, got %v", len(orig.DecisionToState), len(got.DecisionToState))
	}

	for i, want := range orig.States {
		g := got.States[i]
		if g.Kind != want.Kind || g.Rule != want.Rule || g.Decision != want.Decision {
			t.Fatalf("state %v: want (%v, rule %v, decision %v), got (%v, rule %v, decision %v)",
				i, want.Kind, want.Rule, want.Decision, g.Kind, g.Rule, g.Decision)
		}
		if len(g.Transitions) != len(want.Transitions) {
			t.Fatalf("state %v: want %v transitions, got %v", i, len(want.Transitions), len(g.Transitions))
		}
		for j, wt := range want.Transitions {
			gt := g.Transitions[j]
			if gt.Kind != wt.Kind || gt.Target.Num != wt.Target.Num {
				t.Fatalf("state %v transition %v: want %v, got %v", i, j, wt, gt)
			}
			if wt.Label != nil && !gt.Label.Equal(wt.Label) {
				t.Fatalf("state %v transition %v label: want %v, got %v", i, j, wt.Label, gt.Label)
			}
			if wt.Kind == automaton.TransitionKindRule {
				if gt.RuleIndex != wt.RuleIndex || gt.Precedence != wt.Precedence || gt.FollowState.Num != wt.FollowState.Num {
					t.Fatalf("state %v transition %v rule payload mismatch", i, j)
				}
			}
		}
	}

	// The precedence decision flag is derived, not stored.
	for i, want := range orig.States {
		if want.Kind == automaton.StateKindStarLoopEntry {
			if got.States[i].PrecedenceRuleDecision != true {
				t.Fatalf("state %v must be marked as a precedence decision", i)
			}
		}
	}
	for r := range orig.RuleToStartState {
		if got.RuleToStartState[r].Num != orig.RuleToStartState[r].Num {
			t.Fatalf("rule %v start state mismatch", r)
		}
		if got.RuleToStopState[r].Num != orig.RuleToStopState[r].Num {
			t.Fatalf("rule %v stop state mismatch", r)
		}
		if got.RuleToStartState[r].IsPrecedenceRule != orig.RuleToStartState[r].IsPrecedenceRule {
			t.Fatalf("rule %v precedence flag mismatch", r)
		}
	}
}

func TestDeserialize_RefusesUnknownVersion(t *testing.T) {
	data, err := Serialize(buildSampleATN())
	if err != nil {
		t.Fatal(err)
	}
	data[0] = SerializedVersion + 1
	if _, err := Deserialize(data); err == nil {
		t.Fatal("an unknown version must be refused")
	}
}

func TestDeserialize_RefusesUnknownUUID(t *testing.T) {
	data, err := Serialize(buildSampleATN())
	if err != nil {
		t.Fatal(err)
	}
	data[3] ^= 0xffff
	if _, err := Deserialize(data); err == nil {
		t.Fatal("an unknown UUID must be refused")
	}
}

func TestDeserialize_RefusesTruncatedStream(t *testing.T) {
	data, err := Serialize(buildSampleATN())
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 1, 9, len(data) / 2, len(data) - 1} {
		if _, err := Deserialize(data[:n]); err == nil {
			t.Fatalf("a stream truncated to %v units must be refused", n)
		}
	}
}
