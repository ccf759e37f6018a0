package prediction

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/soutome/atnkit/automaton"
)

// Mode selects how aggressively prediction terminates and how ambiguity is
// reported.
type Mode int

const (
	// ModeSLL predicts with the decision's local context only. It is the
	// fastest mode but may report conflicts that full context would
	// resolve.
	ModeSLL = Mode(0)

	// ModeLL falls back to full-context prediction when SLL conflicts.
	// This is the default and never behaves differently from exhaustive
	// lookahead on conflict-free input.
	ModeLL = Mode(1)

	// ModeLLExactAmbigDetection behaves like ModeLL but keeps simulating
	// until it can tell exact ambiguity apart from conflicts that longer
	// lookahead would resolve.
	ModeLLExactAmbigDetection = Mode(2)
)

func (m Mode) String() string {
	switch m {
	case ModeSLL:
		return "SLL"
	case ModeLL:
		return "LL"
	case ModeLLExactAmbigDetection:
		return "LL exact ambiguity detection"
	}
	return "invalid"
}

// HasSLLConflictTerminatingPrediction reports whether SLL simulation can
// stop at `set`: it can when every configuration sits in a rule stop state,
// or when some alt subset holds more than one alternative and no state is
// committed to a single alternative.
func HasSLLConflictTerminatingPrediction(mode Mode, set *ATNConfigSet) bool {
	// When all configs sit in rule stop states, lookahead is exhausted
	// regardless of the conflict structure.
	if AllConfigsInRuleStopStates(set) {
		return true
	}

	if mode == ModeSLL && set.HasSemanticContext {
		// Pure-SLL mode treats predicates as opaque: strip them and test
		// the conflict structure alone.
		stripped := NewATNConfigSet(set.FullCtx)
		for _, c := range set.Configs() {
			stripped.Add(c.TransformWithSemCtx(c.State, None), nil)
		}
		set = stripped
	}

	altSubsets := set.GetConflictingAltSubsets()
	return HasConflictingAltSet(altSubsets) && !hasStateAssociatedWithOneAlt(set)
}

// HasConfigInRuleStopState reports whether any configuration of the set is
// in a rule stop state.
func HasConfigInRuleStopState(set *ATNConfigSet) bool {
	for _, c := range set.Configs() {
		if c.State.Kind == automaton.StateKindRuleStop {
			return true
		}
	}
	return false
}

// AllConfigsInRuleStopStates reports whether every configuration of the set
// is in a rule stop state.
func AllConfigsInRuleStopStates(set *ATNConfigSet) bool {
	for _, c := range set.Configs() {
		if c.State.Kind != automaton.StateKindRuleStop {
			return false
		}
	}
	return true
}

// ResolvesToJustOneViableAlt returns the single viable alternative of the
// subsets, or InvalidAlt when the subsets disagree. Full-context prediction
// terminates on a non-invalid result.
func ResolvesToJustOneViableAlt(altSubsets []*bitset.BitSet) int {
	return GetSingleViableAlt(altSubsets)
}

// AllSubsetsConflict reports whether every alt subset has more than one
// member.
func AllSubsetsConflict(altSubsets []*bitset.BitSet) bool {
	return !hasNonConflictingAltSet(altSubsets)
}

// hasNonConflictingAltSet reports whether any subset contains exactly one
// alternative.
func hasNonConflictingAltSet(altSubsets []*bitset.BitSet) bool {
	for _, alts := range altSubsets {
		if alts.Count() == 1 {
			return true
		}
	}
	return false
}

// HasConflictingAltSet reports whether any subset contains more than one
// alternative.
func HasConflictingAltSet(altSubsets []*bitset.BitSet) bool {
	for _, alts := range altSubsets {
		if alts.Count() > 1 {
			return true
		}
	}
	return false
}

// AllSubsetsEqual reports whether every subset holds the same
// alternatives.
func AllSubsetsEqual(altSubsets []*bitset.BitSet) bool {
	if len(altSubsets) == 0 {
		return true
	}
	first := altSubsets[0]
	for _, alts := range altSubsets[1:] {
		if !alts.Equal(first) {
			return false
		}
	}
	return true
}

// GetAlts unions the subsets.
func GetAlts(altSubsets []*bitset.BitSet) *bitset.BitSet {
	all := bitset.New(8)
	for _, alts := range altSubsets {
		all.InPlaceUnion(alts)
	}
	return all
}

// GetSingleViableAlt returns the minimum alternative when every subset
// agrees on it, InvalidAlt otherwise.
func GetSingleViableAlt(altSubsets []*bitset.BitSet) int {
	viable := bitset.New(8)
	for _, alts := range altSubsets {
		min, ok := alts.NextSet(0)
		if !ok {
			continue
		}
		viable.Set(min)
		if viable.Count() > 1 {
			return InvalidAlt
		}
	}
	min, ok := viable.NextSet(0)
	if !ok {
		return InvalidAlt
	}
	return int(min)
}

func hasStateAssociatedWithOneAlt(set *ATNConfigSet) bool {
	for _, alts := range set.GetStateToAltMap() {
		if alts.Count() == 1 {
			return true
		}
	}
	return false
}
