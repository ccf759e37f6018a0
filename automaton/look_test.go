package automaton

import "testing"

// Grammar under test:
//
//	s: t ';' ;
//	t: A | B t ;
//
// with A=1, B=2, SEMI=3.
func buildLookTestATN() (*ATN, map[string]*State) {
	a := NewATN(GrammarTypeParser, 3)
	st := map[string]*State{}
	add := func(name string, kind StateKind, rule int) *State {
		s := NewState(kind, rule)
		a.AddState(s)
		st[name] = s
		return s
	}

	sStart := add("sStart", StateKindRuleStart, 0)
	sStop := add("sStop", StateKindRuleStop, 0)
	n1 := add("n1", StateKindBasic, 0)
	n2 := add("n2", StateKindBasic, 0)
	n3 := add("n3", StateKindBasic, 0)

	tStart := add("tStart", StateKindRuleStart, 1)
	tStop := add("tStop", StateKindRuleStop, 1)
	d := add("d", StateKindBlockStart, 1)
	a1 := add("a1", StateKindBasic, 1)
	a2 := add("a2", StateKindBasic, 1)
	b1 := add("b1", StateKindBasic, 1)
	b2 := add("b2", StateKindBasic, 1)
	b3 := add("b3", StateKindBasic, 1)
	be := add("be", StateKindBlockEnd, 1)

	a.RuleToStartState = []*State{sStart, tStart}
	a.RuleToStopState = []*State{sStop, tStop}
	sStart.StopState = sStop
	tStart.StopState = tStop

	sStart.AddTransition(NewEpsilonTransition(n1))
	n1.AddTransition(NewRuleTransition(tStart, 1, 0, n2))
	n2.AddTransition(NewAtomTransition(n3, 3))
	n3.AddTransition(NewEpsilonTransition(sStop))

	tStart.AddTransition(NewEpsilonTransition(d))
	d.EndState = be
	a.DefineDecisionState(d)
	d.AddTransition(NewEpsilonTransition(a1))
	d.AddTransition(NewEpsilonTransition(b1))
	a1.AddTransition(NewAtomTransition(a2, 1))
	a2.AddTransition(NewEpsilonTransition(be))
	b1.AddTransition(NewAtomTransition(b2, 2))
	b2.AddTransition(NewRuleTransition(tStart, 1, 0, b3))
	b3.AddTransition(NewEpsilonTransition(be))
	be.AddTransition(NewEpsilonTransition(tStop))

	a.ConnectRuleReturns()
	return a, st
}

func TestATN_NextTokens(t *testing.T) {
	a, st := buildLookTestATN()

	tests := []struct {
		state string
		want  []int
	}{
		{state: "sStart", want: []int{1, 2}},
		{state: "n1", want: []int{1, 2}},
		{state: "n2", want: []int{3}},
		{state: "tStart", want: []int{1, 2}},
		{state: "a2", want: []int{TokenEpsilon}},
		{state: "b2", want: []int{1, 2}},
		{state: "n3", want: []int{TokenEpsilon}},
	}
	for _, tt := range tests {
		t.Run(tt.state, func(t *testing.T) {
			got := a.NextTokens(st[tt.state])
			want := NewIntervalSet()
			for _, v := range tt.want {
				want.AddOne(v)
			}
			if !got.Equal(want) {
				t.Fatalf("want %v, got %v", want, got)
			}
		})
	}
}

func TestATN_NextTokensIsCached(t *testing.T) {
	a, st := buildLookTestATN()
	first := a.NextTokens(st["n2"])
	second := a.NextTokens(st["n2"])
	if first != second {
		t.Fatal("NextTokens must return the cached set on the second call")
	}
}

type chainCtx struct {
	parent        *chainCtx
	invokingState int
}

func (c *chainCtx) ParentCtx() RuleContext {
	if c.parent == nil {
		return nil
	}
	return c.parent
}

func (c *chainCtx) InvokingState() int {
	return c.invokingState
}

func TestATN_ExpectedTokens(t *testing.T) {
	a, st := buildLookTestATN()

	// At a2 (end of t's alternative A) with t invoked from n1, the parse
	// can only continue with ';'.
	root := &chainCtx{invokingState: -1}
	inT := &chainCtx{parent: root, invokingState: st["n1"].Num}
	got := a.ExpectedTokens(st["a2"].Num, inT)
	want := NewIntervalSetOf(3)
	if !got.Equal(want) {
		t.Fatalf("want %v, got %v", want, got)
	}

	// At the end of the start rule, only EOF remains.
	got = a.ExpectedTokens(st["n3"].Num, root)
	want = NewIntervalSetOf(TokenEOF)
	if !got.Equal(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}
