package prediction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAndOr_ShortCircuitAgainstNone(t *testing.T) {
	p := NewPredicate(0, 0, false)
	assert.Equal(t, SemanticContext(p), And(None, p))
	assert.Equal(t, SemanticContext(p), And(p, None))
	assert.Equal(t, None, Or(None, p))
	assert.Equal(t, None, Or(p, None))
}

func TestAnd_DeduplicatesAndFlattens(t *testing.T) {
	p0 := NewPredicate(0, 0, false)
	p1 := NewPredicate(0, 1, false)
	p2 := NewPredicate(0, 2, false)

	inner := And(p0, p1)
	flat := And(inner, p2)
	and, ok := flat.(*AND)
	require.True(t, ok)
	assert.Len(t, and.Operands, 3)

	dedup := And(inner, p0)
	assert.True(t, dedup.Equal(inner))
}

func TestAnd_KeepsWeakestPrecedencePredicate(t *testing.T) {
	weak := NewPrecedencePredicate(2)
	strong := NewPrecedencePredicate(5)
	got := And(weak, strong)
	assert.True(t, got.Equal(weak))

	gotOr := Or(weak, strong)
	assert.True(t, gotOr.Equal(strong))
}

func TestSemanticContext_StructuralEquality(t *testing.T) {
	a := And(NewPredicate(0, 0, false), NewPredicate(0, 1, false))
	b := And(NewPredicate(0, 1, false), NewPredicate(0, 0, false))
	assert.True(t, a.Equal(b), "operand order must not matter")
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestEval_AndOr(t *testing.T) {
	p0 := NewPredicate(0, 0, false)
	p1 := NewPredicate(0, 1, false)
	eval := &tableEvaluator{preds: map[int]bool{0: true, 1: false}}

	assert.True(t, p0.Eval(eval, nil))
	assert.False(t, p1.Eval(eval, nil))
	assert.False(t, And(p0, p1).Eval(eval, nil))
	assert.True(t, Or(p0, p1).Eval(eval, nil))
}

func TestEvalPrecedence_Predicate(t *testing.T) {
	eval := &tableEvaluator{threshold: 3}

	held := NewPrecedencePredicate(5)
	assert.Equal(t, None, held.EvalPrecedence(eval, nil))

	failed := NewPrecedencePredicate(2)
	assert.Nil(t, failed.EvalPrecedence(eval, nil))
}

func TestEvalPrecedence_FoldsConjunctions(t *testing.T) {
	eval := &tableEvaluator{threshold: 3, preds: map[int]bool{0: true}}
	user := NewPredicate(0, 0, false)

	// All precedence predicates hold and a user predicate remains: the
	// result keeps only the user predicate.
	mixed := And(NewPrecedencePredicate(5), user)
	got := mixed.EvalPrecedence(eval, nil)
	require.NotNil(t, got)
	assert.True(t, got.Equal(user))

	// A failing precedence predicate falsifies the conjunction.
	falsified := And(NewPrecedencePredicate(2), user)
	assert.Nil(t, falsified.EvalPrecedence(eval, nil))

	// All held and nothing else: None.
	allHeld := And(NewPrecedencePredicate(5), NewPrecedencePredicate(4))
	assert.Equal(t, None, allHeld.EvalPrecedence(eval, nil))
}

func TestEvalPrecedence_FoldsDisjunctions(t *testing.T) {
	eval := &tableEvaluator{threshold: 3, preds: map[int]bool{0: false}}
	user := NewPredicate(0, 0, false)

	// One held precedence predicate satisfies the disjunction.
	or := Or(NewPrecedencePredicate(5), user)
	assert.Equal(t, None, or.EvalPrecedence(eval, nil))

	// A failed precedence predicate drops out of the disjunction.
	or = Or(NewPrecedencePredicate(2), user)
	got := or.EvalPrecedence(eval, nil)
	require.NotNil(t, got)
	assert.True(t, got.Equal(user))
}
