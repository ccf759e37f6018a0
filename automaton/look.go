package automaton

// lookChain is a transient follow-state stack used while computing LOOK
// sets. It only tracks rule invocations made during the traversal itself;
// invocations made before the start state are the caller's business.
type lookChain struct {
	parent *lookChain
	follow *State
}

type lookKey struct {
	state  int
	follow int
}

func (a *ATN) look(s *State, chain *lookChain) *IntervalSet {
	set := NewIntervalSet()
	a.lookImpl(s, chain, set, map[lookKey]bool{})
	return set
}

func (a *ATN) lookImpl(s *State, chain *lookChain, set *IntervalSet, busy map[lookKey]bool) {
	k := lookKey{state: s.Num, follow: -1}
	if chain != nil {
		k.follow = chain.follow.Num
	}
	if busy[k] {
		return
	}
	busy[k] = true

	if s.Kind == StateKindRuleStop {
		if chain == nil {
			set.AddOne(TokenEpsilon)
			return
		}
		a.lookImpl(chain.follow, chain.parent, set, busy)
		return
	}

	for _, t := range s.Transitions {
		switch t.Kind {
		case TransitionKindRule:
			a.lookImpl(t.Target, &lookChain{parent: chain, follow: t.FollowState}, set, busy)
		case TransitionKindEpsilon, TransitionKindPredicate,
			TransitionKindPrecedencePredicate, TransitionKindAction:
			a.lookImpl(t.Target, chain, set, busy)
		case TransitionKindAtom, TransitionKindRange, TransitionKindSet:
			set.AddSet(t.Label)
		case TransitionKindNotSet:
			set.AddSet(t.Label.Complement(TokenMinUserType, a.MaxTokenType))
		case TransitionKindWildcard:
			set.AddRange(TokenMinUserType, a.MaxTokenType)
		}
	}
}
