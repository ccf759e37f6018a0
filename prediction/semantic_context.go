package prediction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/soutome/atnkit/automaton"
)

// Evaluator evaluates user predicates and precedence predicates during
// prediction and interpretation. The driver's parser implements it.
type Evaluator interface {
	// Sempred evaluates the user predicate `predIndex` of rule `ruleIndex`.
	// Context-dependent predicates receive the local rule context in `ctx`.
	Sempred(ctx automaton.RuleContext, ruleIndex, predIndex int) bool

	// Precpred reports whether `precedence` is at least the precedence the
	// surrounding left-recursive rule is currently parsing at.
	Precpred(ctx automaton.RuleContext, precedence int) bool
}

// SemanticContext is a boolean combination of predicates attached to a
// configuration. Values are immutable; structurally equal contexts compare
// equal.
type SemanticContext interface {
	Eval(eval Evaluator, ctx automaton.RuleContext) bool

	// EvalPrecedence folds the precedence predicates of the context.
	// It returns None when everything left is true, nil when the context is
	// falsified, and a reduced context otherwise.
	EvalPrecedence(eval Evaluator, ctx automaton.RuleContext) SemanticContext

	Hash() uint32
	Equal(o SemanticContext) bool
	String() string
}

// Predicate is a reference to a user predicate.
type Predicate struct {
	RuleIndex      int
	PredIndex      int
	IsCtxDependent bool
}

// None is the always-true semantic context.
var None SemanticContext = &Predicate{RuleIndex: -1, PredIndex: -1}

func NewPredicate(ruleIndex, predIndex int, isCtxDependent bool) *Predicate {
	return &Predicate{
		RuleIndex:      ruleIndex,
		PredIndex:      predIndex,
		IsCtxDependent: isCtxDependent,
	}
}

func (p *Predicate) Eval(eval Evaluator, ctx automaton.RuleContext) bool {
	if p == None {
		return true
	}
	var localctx automaton.RuleContext
	if p.IsCtxDependent {
		localctx = ctx
	}
	return eval.Sempred(localctx, p.RuleIndex, p.PredIndex)
}

func (p *Predicate) EvalPrecedence(eval Evaluator, ctx automaton.RuleContext) SemanticContext {
	return p
}

func (p *Predicate) Hash() uint32 {
	h := hashInit()
	h = hashUpdate(h, uint32(p.RuleIndex))
	h = hashUpdate(h, uint32(p.PredIndex))
	if p.IsCtxDependent {
		h = hashUpdate(h, 1)
	}
	return hashFinish(h, 3)
}

func (p *Predicate) Equal(o SemanticContext) bool {
	q, ok := o.(*Predicate)
	if !ok {
		return false
	}
	return p.RuleIndex == q.RuleIndex && p.PredIndex == q.PredIndex && p.IsCtxDependent == q.IsCtxDependent
}

func (p *Predicate) String() string {
	if p == None {
		return "{true}?"
	}
	return fmt.Sprintf("{%v:%v}?", p.RuleIndex, p.PredIndex)
}

// PrecedencePredicate guards an alternative of a left-recursive rule.
type PrecedencePredicate struct {
	Precedence int
}

func NewPrecedencePredicate(precedence int) *PrecedencePredicate {
	return &PrecedencePredicate{
		Precedence: precedence,
	}
}

func (p *PrecedencePredicate) Eval(eval Evaluator, ctx automaton.RuleContext) bool {
	return eval.Precpred(ctx, p.Precedence)
}

func (p *PrecedencePredicate) EvalPrecedence(eval Evaluator, ctx automaton.RuleContext) SemanticContext {
	if eval.Precpred(ctx, p.Precedence) {
		return None
	}
	return nil
}

func (p *PrecedencePredicate) Hash() uint32 {
	return hashFinish(hashUpdate(hashInit(), uint32(p.Precedence)), 1)
}

func (p *PrecedencePredicate) Equal(o SemanticContext) bool {
	q, ok := o.(*PrecedencePredicate)
	if !ok {
		return false
	}
	return p.Precedence == q.Precedence
}

func (p *PrecedencePredicate) String() string {
	return fmt.Sprintf("{%v>=prec}?", p.Precedence)
}

// AND is a conjunction of semantic contexts. Operands are deduplicated,
// flattened, and sorted.
type AND struct {
	Operands []SemanticContext
}

// OR is a disjunction of semantic contexts. Operands are deduplicated,
// flattened, and sorted.
type OR struct {
	Operands []SemanticContext
}

// And conjoins two contexts, short-circuiting against None.
func And(a, b SemanticContext) SemanticContext {
	if a == nil || a == None {
		return b
	}
	if b == nil || b == None {
		return a
	}
	operands := collectOperands(a, b, true)
	if len(operands) == 1 {
		return operands[0]
	}
	return &AND{Operands: operands}
}

// Or disjoins two contexts, short-circuiting against None.
func Or(a, b SemanticContext) SemanticContext {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a == None || b == None {
		return None
	}
	operands := collectOperands(a, b, false)
	if len(operands) == 1 {
		return operands[0]
	}
	return &OR{Operands: operands}
}

// collectOperands flattens nested same-operator nodes, deduplicates, keeps
// only the weakest (AND) or strongest (OR) precedence predicate, and sorts.
func collectOperands(a, b SemanticContext, conjunction bool) []SemanticContext {
	var flat []SemanticContext
	for _, op := range []SemanticContext{a, b} {
		switch v := op.(type) {
		case *AND:
			if conjunction {
				flat = append(flat, v.Operands...)
				continue
			}
			flat = append(flat, v)
		case *OR:
			if !conjunction {
				flat = append(flat, v.Operands...)
				continue
			}
			flat = append(flat, v)
		default:
			flat = append(flat, op)
		}
	}

	var reduced *PrecedencePredicate
	operands := make([]SemanticContext, 0, len(flat))
	for _, op := range flat {
		if pp, ok := op.(*PrecedencePredicate); ok {
			if reduced == nil {
				reduced = pp
			} else if conjunction && pp.Precedence < reduced.Precedence {
				reduced = pp
			} else if !conjunction && pp.Precedence > reduced.Precedence {
				reduced = pp
			}
			continue
		}
		dup := false
		for _, seen := range operands {
			if seen.Equal(op) {
				dup = true
				break
			}
		}
		if !dup {
			operands = append(operands, op)
		}
	}
	if reduced != nil {
		operands = append(operands, reduced)
	}
	sort.Slice(operands, func(i, j int) bool {
		return operands[i].String() < operands[j].String()
	})
	return operands
}

func (c *AND) Eval(eval Evaluator, ctx automaton.RuleContext) bool {
	for _, op := range c.Operands {
		if !op.Eval(eval, ctx) {
			return false
		}
	}
	return true
}

func (c *AND) EvalPrecedence(eval Evaluator, ctx automaton.RuleContext) SemanticContext {
	differs := false
	var operands []SemanticContext
	for _, op := range c.Operands {
		evaluated := op.EvalPrecedence(eval, ctx)
		differs = differs || evaluated != op
		if evaluated == nil {
			// One falsified operand falsifies the conjunction.
			return nil
		}
		if evaluated != None {
			operands = append(operands, evaluated)
		}
	}
	if !differs {
		return c
	}
	if len(operands) == 0 {
		return None
	}
	result := operands[0]
	for _, op := range operands[1:] {
		result = And(result, op)
	}
	return result
}

func (c *AND) Hash() uint32 {
	h := hashInit()
	for _, op := range c.Operands {
		h = hashUpdate(h, op.Hash())
	}
	return hashFinish(hashUpdate(h, 41), len(c.Operands)+1)
}

func (c *AND) Equal(o SemanticContext) bool {
	q, ok := o.(*AND)
	if !ok {
		return false
	}
	return operandsEqual(c.Operands, q.Operands)
}

func (c *AND) String() string {
	return joinOperands(c.Operands, "&&")
}

func (c *OR) Eval(eval Evaluator, ctx automaton.RuleContext) bool {
	for _, op := range c.Operands {
		if op.Eval(eval, ctx) {
			return true
		}
	}
	return false
}

func (c *OR) EvalPrecedence(eval Evaluator, ctx automaton.RuleContext) SemanticContext {
	differs := false
	var operands []SemanticContext
	for _, op := range c.Operands {
		evaluated := op.EvalPrecedence(eval, ctx)
		differs = differs || evaluated != op
		if evaluated == None {
			// One true operand satisfies the disjunction.
			return None
		}
		if evaluated != nil {
			operands = append(operands, evaluated)
		}
	}
	if !differs {
		return c
	}
	if len(operands) == 0 {
		return nil
	}
	result := operands[0]
	for _, op := range operands[1:] {
		result = Or(result, op)
	}
	return result
}

func (c *OR) Hash() uint32 {
	h := hashInit()
	for _, op := range c.Operands {
		h = hashUpdate(h, op.Hash())
	}
	return hashFinish(hashUpdate(h, 67), len(c.Operands)+1)
}

func (c *OR) Equal(o SemanticContext) bool {
	q, ok := o.(*OR)
	if !ok {
		return false
	}
	return operandsEqual(c.Operands, q.Operands)
}

func (c *OR) String() string {
	return joinOperands(c.Operands, "||")
}

func operandsEqual(a, b []SemanticContext) bool {
	if len(a) != len(b) {
		return false
	}
	for i, op := range a {
		if !op.Equal(b[i]) {
			return false
		}
	}
	return true
}

func joinOperands(operands []SemanticContext, sep string) string {
	ss := make([]string, len(operands))
	for i, op := range operands {
		ss[i] = op.String()
	}
	return "(" + strings.Join(ss, sep) + ")"
}
