package prediction

import (
	"testing"

	"github.com/soutome/atnkit/automaton"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState(num int, kind automaton.StateKind) *automaton.State {
	s := automaton.NewState(kind, 0)
	s.Num = num
	return s
}

func TestATNConfigSet_AddMergesSameKey(t *testing.T) {
	st := testState(1, automaton.StateKindBasic)
	set := NewATNConfigSet(false)
	cache := NewMergeCache()

	c1 := NewConfig(st, 1, NewSingletonContext(Empty, 5))
	c2 := NewConfig(st, 1, NewSingletonContext(Empty, 7))
	require.True(t, set.Add(c1, cache))
	set.Add(c2, cache)

	require.Equal(t, 1, set.Len())
	merged := set.Configs()[0]
	require.Equal(t, 2, merged.Context.Length())
	assert.Equal(t, 5, merged.Context.ReturnState(0))
	assert.Equal(t, 7, merged.Context.ReturnState(1))
}

func TestATNConfigSet_AddKeepsDistinctKeys(t *testing.T) {
	st1 := testState(1, automaton.StateKindBasic)
	st2 := testState(2, automaton.StateKindBasic)
	set := NewATNConfigSet(false)
	cache := NewMergeCache()

	ctx := NewSingletonContext(Empty, 5)
	set.Add(NewConfig(st1, 1, ctx), cache)
	set.Add(NewConfig(st1, 2, ctx), cache)
	set.Add(NewConfig(st2, 1, ctx), cache)
	set.Add(NewConfigWithSemCtx(st1, 1, ctx, NewPredicate(0, 0, false)), cache)

	assert.Equal(t, 4, set.Len())
	assert.True(t, set.HasSemanticContext)
	assert.Equal(t, InvalidAlt, set.GetUniqueAlt())
}

func TestATNConfigSet_AddTracksOuterContextDepth(t *testing.T) {
	st := testState(1, automaton.StateKindBasic)
	set := NewATNConfigSet(false)
	cache := NewMergeCache()

	c1 := NewConfig(st, 1, NewSingletonContext(Empty, 5))
	c2 := NewConfig(st, 1, NewSingletonContext(Empty, 7))
	c2.ReachesIntoOuterContext = 2
	c2.PrecedenceFilterSuppressed = true
	set.Add(c1, cache)
	set.Add(c2, cache)

	merged := set.Configs()[0]
	assert.Equal(t, 2, merged.ReachesIntoOuterContext)
	assert.True(t, merged.PrecedenceFilterSuppressed)
	assert.True(t, set.DipsIntoOuterContext)
}

func TestATNConfigSet_FreezeRejectsMutation(t *testing.T) {
	st := testState(1, automaton.StateKindBasic)
	set := NewATNConfigSet(false)
	set.Add(NewConfig(st, 1, Empty), nil)
	set.Freeze()

	assert.Panics(t, func() {
		set.Add(NewConfig(st, 2, Empty), nil)
	})
}

func TestATNConfigSet_HashEqualIgnoreInsertionHistory(t *testing.T) {
	st1 := testState(1, automaton.StateKindBasic)
	st2 := testState(2, automaton.StateKindBasic)

	build := func() *ATNConfigSet {
		set := NewATNConfigSet(false)
		cache := NewMergeCache()
		set.Add(NewConfig(st1, 1, NewSingletonContext(Empty, 5)), cache)
		set.Add(NewConfig(st2, 2, Empty), cache)
		return set
	}
	a := build()
	b := build()
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestATNConfigSet_GetConflictingAltSubsets(t *testing.T) {
	st1 := testState(1, automaton.StateKindBasic)
	st2 := testState(2, automaton.StateKindBasic)
	ctx := NewSingletonContext(Empty, 5)

	set := NewATNConfigSet(false)
	cache := NewMergeCache()
	set.Add(NewConfig(st1, 1, ctx), cache)
	set.Add(NewConfig(st1, 2, ctx), cache)
	set.Add(NewConfig(st2, 3, Empty), cache)

	subsets := set.GetConflictingAltSubsets()
	require.Len(t, subsets, 2)
	assert.Equal(t, uint(2), subsets[0].Count())
	assert.True(t, subsets[0].Test(1) && subsets[0].Test(2))
	assert.Equal(t, uint(1), subsets[1].Count())
	assert.True(t, subsets[1].Test(3))
}

func TestATNConfigSet_GetAltThatFinishedDecisionEntryRule(t *testing.T) {
	stop := testState(3, automaton.StateKindRuleStop)
	basic := testState(1, automaton.StateKindBasic)

	set := NewATNConfigSet(false)
	cache := NewMergeCache()
	set.Add(NewConfig(basic, 1, Empty), cache)
	assert.Equal(t, InvalidAlt, set.GetAltThatFinishedDecisionEntryRule())

	set.Add(NewConfig(stop, 3, Empty), cache)
	set.Add(NewConfig(stop, 2, Empty), cache)
	assert.Equal(t, 2, set.GetAltThatFinishedDecisionEntryRule())
}

func TestATNConfigSet_SplitAccordingToSemanticValidity(t *testing.T) {
	st := testState(1, automaton.StateKindBasic)
	set := NewATNConfigSet(false)
	set.Add(NewConfig(st, 1, Empty), nil)
	set.Add(NewConfigWithSemCtx(st, 2, Empty, NewPredicate(0, 0, false)), nil)
	set.Add(NewConfigWithSemCtx(st, 3, Empty, NewPredicate(0, 1, false)), nil)

	eval := &tableEvaluator{preds: map[int]bool{0: true, 1: false}}
	succeeded, failed := set.SplitAccordingToSemanticValidity(eval, nil)
	assert.Equal(t, 2, succeeded.Len())
	assert.Equal(t, 1, failed.Len())
	assert.Equal(t, 3, failed.Configs()[0].Alt)
}

// tableEvaluator answers predicates from a table; precedence predicates
// hold at or above the configured threshold.
type tableEvaluator struct {
	preds     map[int]bool
	threshold int
}

func (e *tableEvaluator) Sempred(_ automaton.RuleContext, _, predIndex int) bool {
	return e.preds[predIndex]
}

func (e *tableEvaluator) Precpred(_ automaton.RuleContext, precedence int) bool {
	return precedence >= e.threshold
}
