package prediction

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/soutome/atnkit/automaton"
)

// InvalidAlt marks the absence of a predicted alternative. Valid
// alternatives are 1-based.
const InvalidAlt = 0

// ATNConfigSet is an insertion-ordered set of configurations keyed by
// (state, alt, semantic context). Adding a configuration whose key is
// already present merges the call stacks instead of storing a duplicate.
//
// Once frozen, a set is a DFA-state cache key and must not change; any
// further Add panics.
type ATNConfigSet struct {
	configs []*ATNConfig
	lookup  map[configKey][]*ATNConfig

	// FullCtx tells whether the set was built during full-context
	// prediction, which keeps empty stacks distinct when merging.
	FullCtx bool

	HasSemanticContext   bool
	DipsIntoOuterContext bool

	UniqueAlt       int
	ConflictingAlts *bitset.BitSet

	readonly   bool
	cachedHash uint32
}

func NewATNConfigSet(fullCtx bool) *ATNConfigSet {
	return &ATNConfigSet{
		lookup:    map[configKey][]*ATNConfig{},
		FullCtx:   fullCtx,
		UniqueAlt: InvalidAlt,
	}
}

// Add inserts `cfg` or, when a configuration with the same key exists,
// merges the call stacks. It reports whether the set changed.
func (s *ATNConfigSet) Add(cfg *ATNConfig, cache *MergeCache) bool {
	if s.readonly {
		panic("cannot add a config to a frozen set")
	}
	if cfg.SemCtx != None {
		s.HasSemanticContext = true
	}
	if cfg.ReachesIntoOuterContext > 0 {
		s.DipsIntoOuterContext = true
	}

	key := cfg.key()
	for _, existing := range s.lookup[key] {
		if !existing.SemCtx.Equal(cfg.SemCtx) {
			continue
		}
		merged := Merge(existing.Context, cfg.Context, !s.FullCtx, cache)
		if cfg.ReachesIntoOuterContext > existing.ReachesIntoOuterContext {
			existing.ReachesIntoOuterContext = cfg.ReachesIntoOuterContext
		}
		existing.PrecedenceFilterSuppressed = existing.PrecedenceFilterSuppressed || cfg.PrecedenceFilterSuppressed
		if merged == existing.Context {
			return false
		}
		existing.Context = merged
		return true
	}

	s.lookup[key] = append(s.lookup[key], cfg)
	s.configs = append(s.configs, cfg)
	return true
}

func (s *ATNConfigSet) Len() int {
	return len(s.configs)
}

func (s *ATNConfigSet) IsEmpty() bool {
	return len(s.configs) == 0
}

// Configs returns the configurations in first-insertion order. The caller
// must not mutate the slice.
func (s *ATNConfigSet) Configs() []*ATNConfig {
	return s.configs
}

func (s *ATNConfigSet) ReadOnly() bool {
	return s.readonly
}

// Freeze makes the set immutable and precomputes its hash.
func (s *ATNConfigSet) Freeze() {
	if s.readonly {
		return
	}
	s.readonly = true
	s.lookup = nil
	s.cachedHash = s.computeHash()
}

func (s *ATNConfigSet) computeHash() uint32 {
	h := hashInit()
	for _, c := range s.configs {
		h = hashUpdate(h, c.Hash())
	}
	if s.FullCtx {
		h = hashUpdate(h, 1)
	}
	return hashFinish(h, len(s.configs)+1)
}

func (s *ATNConfigSet) Hash() uint32 {
	if s.readonly {
		return s.cachedHash
	}
	return s.computeHash()
}

// Equal compares two sets including call stacks and the full-context flag.
func (s *ATNConfigSet) Equal(o *ATNConfigSet) bool {
	if s == o {
		return true
	}
	if s.FullCtx != o.FullCtx || len(s.configs) != len(o.configs) {
		return false
	}
	for i, c := range s.configs {
		if !c.Equal(o.configs[i]) {
			return false
		}
	}
	return true
}

// Alts returns the set of alternatives present in the set.
func (s *ATNConfigSet) Alts() *bitset.BitSet {
	alts := bitset.New(8)
	for _, c := range s.configs {
		alts.Set(uint(c.Alt))
	}
	return alts
}

// GetUniqueAlt returns the only alternative present, or InvalidAlt when the
// set holds more than one.
func (s *ATNConfigSet) GetUniqueAlt() int {
	alt := InvalidAlt
	for _, c := range s.configs {
		if alt == InvalidAlt {
			alt = c.Alt
		} else if c.Alt != alt {
			return InvalidAlt
		}
	}
	return alt
}

// OptimizeConfigs interns every call stack through `cache`, collapsing
// structurally equal context subgraphs across configurations.
func (s *ATNConfigSet) OptimizeConfigs(cache *ContextCache) {
	if s.readonly {
		panic("cannot optimize a frozen set")
	}
	for _, c := range s.configs {
		if c.Context != nil {
			c.Context = cache.GetCached(c.Context)
		}
	}
}

// GetConflictingAltSubsets groups configurations by (state, context) and
// returns each group's set of alternatives. Two alternatives conflict when
// they appear together in a group.
func (s *ATNConfigSet) GetConflictingAltSubsets() []*bitset.BitSet {
	type stateCtxKey struct {
		state   int
		ctxHash uint32
	}
	order := make([]stateCtxKey, 0, len(s.configs))
	groups := map[stateCtxKey]*bitset.BitSet{}
	for _, c := range s.configs {
		k := stateCtxKey{state: c.State.Num}
		if c.Context != nil {
			k.ctxHash = c.Context.Hash()
		}
		alts, ok := groups[k]
		if !ok {
			alts = bitset.New(8)
			groups[k] = alts
			order = append(order, k)
		}
		alts.Set(uint(c.Alt))
	}
	subsets := make([]*bitset.BitSet, 0, len(order))
	for _, k := range order {
		subsets = append(subsets, groups[k])
	}
	return subsets
}

// GetStateToAltMap groups alternatives by state alone.
func (s *ATNConfigSet) GetStateToAltMap() map[int]*bitset.BitSet {
	m := map[int]*bitset.BitSet{}
	for _, c := range s.configs {
		alts, ok := m[c.State.Num]
		if !ok {
			alts = bitset.New(8)
			m[c.State.Num] = alts
		}
		alts.Set(uint(c.Alt))
	}
	return m
}

// RemoveAllConfigsNotInRuleStopState returns a set holding only
// configurations sitting in a rule stop state. With lookToEndOfRule, a
// configuration in an epsilon-only state whose rule end is reachable
// without consuming input is moved to the rule stop state instead of
// dropped.
func (s *ATNConfigSet) RemoveAllConfigsNotInRuleStopState(atn *automaton.ATN, lookToEndOfRule bool, cache *MergeCache) *ATNConfigSet {
	if s.allConfigsInRuleStopStates() {
		return s
	}
	result := NewATNConfigSet(s.FullCtx)
	for _, c := range s.configs {
		if c.State.Kind == automaton.StateKindRuleStop {
			result.Add(c, cache)
			continue
		}
		if lookToEndOfRule && c.State.OnlyHasEpsilonTransitions() {
			next := atn.NextTokens(c.State)
			if next.Contains(automaton.TokenEpsilon) {
				stop := atn.RuleToStopState[c.State.Rule]
				result.Add(c.Transform(stop), cache)
			}
		}
	}
	return result
}

func (s *ATNConfigSet) allConfigsInRuleStopStates() bool {
	for _, c := range s.configs {
		if c.State.Kind != automaton.StateKindRuleStop {
			return false
		}
	}
	return true
}

// SplitAccordingToSemanticValidity partitions the configurations by
// predicate evaluation against the outer context. Configurations carrying
// None always succeed.
func (s *ATNConfigSet) SplitAccordingToSemanticValidity(eval Evaluator, outerCtx automaton.RuleContext) (succeeded, failed *ATNConfigSet) {
	succeeded = NewATNConfigSet(s.FullCtx)
	failed = NewATNConfigSet(s.FullCtx)
	for _, c := range s.configs {
		if c.SemCtx != None && !c.SemCtx.Eval(eval, outerCtx) {
			failed.Add(c, nil)
			continue
		}
		succeeded.Add(c, nil)
	}
	return succeeded, failed
}

// ApplyPrecedenceFilter implements the precedence filter for left-recursive
// rules: the first pass collects the contexts of alternative-1
// configurations whose precedence predicates hold; the second drops
// higher alternatives that share (state, context) with an alternative-1
// entry unless they were marked suppressed.
func (s *ATNConfigSet) ApplyPrecedenceFilter(eval Evaluator, outerCtx automaton.RuleContext, cache *MergeCache) *ATNConfigSet {
	statesFromAlt1 := map[int]*PredictionContext{}
	result := NewATNConfigSet(s.FullCtx)

	for _, c := range s.configs {
		if c.Alt != 1 {
			continue
		}
		updated := c.SemCtx.EvalPrecedence(eval, outerCtx)
		if updated == nil {
			continue
		}
		statesFromAlt1[c.State.Num] = c.Context
		if !updated.Equal(c.SemCtx) {
			result.Add(c.TransformWithSemCtx(c.State, updated), cache)
		} else {
			result.Add(c, cache)
		}
	}

	for _, c := range s.configs {
		if c.Alt == 1 {
			continue
		}
		if !c.PrecedenceFilterSuppressed {
			if ctx, ok := statesFromAlt1[c.State.Num]; ok && ctx.Equal(c.Context) {
				// Covered by the primary alternative.
				continue
			}
		}
		result.Add(c, cache)
	}
	return result
}

// GetAltThatFinishedDecisionEntryRule returns the minimum alternative among
// configurations that finished the decision's entry rule, or InvalidAlt.
func (s *ATNConfigSet) GetAltThatFinishedDecisionEntryRule() int {
	alt := InvalidAlt
	for _, c := range s.configs {
		if c.ReachesIntoOuterContext > 0 ||
			(c.State.Kind == automaton.StateKindRuleStop && c.Context.HasEmptyPath()) {
			if alt == InvalidAlt || c.Alt < alt {
				alt = c.Alt
			}
		}
	}
	return alt
}

func (s *ATNConfigSet) String() string {
	ss := make([]string, len(s.configs))
	for i, c := range s.configs {
		ss[i] = c.String()
	}
	str := "[" + strings.Join(ss, ", ") + "]"
	if s.HasSemanticContext {
		str += fmt.Sprintf(",hasSemanticContext=%v", s.HasSemanticContext)
	}
	if s.UniqueAlt != InvalidAlt {
		str += fmt.Sprintf(",uniqueAlt=%v", s.UniqueAlt)
	}
	if s.ConflictingAlts != nil {
		str += fmt.Sprintf(",conflictingAlts=%v", s.ConflictingAlts)
	}
	if s.DipsIntoOuterContext {
		str += ",dipsIntoOuterContext"
	}
	return str
}
