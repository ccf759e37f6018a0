package prediction

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/soutome/atnkit/automaton"
)

// EmptyReturnState is the return state of the empty-stack sentinel. It
// sorts above every real state number, so arrays that can reach the empty
// stack keep the sentinel at the end.
const EmptyReturnState = math.MaxInt32

// PredictionContext is a graph-structured call stack: each node records the
// states a rule invocation returns to, with one parent link per return
// state. Contexts are immutable once created and may be shared freely.
//
// A context with a single return state is a singleton; the empty-stack
// sentinel Empty is the singleton whose return state is EmptyReturnState
// and whose parent is nil. Array contexts keep their return states sorted
// and their parents parallel.
type PredictionContext struct {
	parents      []*PredictionContext
	returnStates []int
	cachedHash   uint32
}

// Empty represents the empty call stack. Merging against it under the
// wildcard root rule absorbs the other operand.
var Empty = &PredictionContext{
	parents:      []*PredictionContext{nil},
	returnStates: []int{EmptyReturnState},
	cachedHash:   hashFinish(hashUpdate(hashInit(), uint32(EmptyReturnState)), 1),
}

func computeContextHash(parents []*PredictionContext, returnStates []int) uint32 {
	h := hashInit()
	for _, p := range parents {
		if p != nil {
			h = hashUpdate(h, p.cachedHash)
		}
	}
	for _, r := range returnStates {
		h = hashUpdate(h, uint32(r))
	}
	return hashFinish(h, len(parents)+len(returnStates))
}

// NewSingletonContext returns a context representing a call stack with
// `returnState` on top of `parent`.
func NewSingletonContext(parent *PredictionContext, returnState int) *PredictionContext {
	if returnState == EmptyReturnState && parent == nil {
		return Empty
	}
	return &PredictionContext{
		parents:      []*PredictionContext{parent},
		returnStates: []int{returnState},
		cachedHash:   computeContextHash([]*PredictionContext{parent}, []int{returnState}),
	}
}

// NewArrayContext returns a context with parallel parents and return
// states. The slices must be sorted by return state and are not copied.
// Single-entry arrays collapse to singletons.
func NewArrayContext(parents []*PredictionContext, returnStates []int) *PredictionContext {
	if len(parents) != len(returnStates) || len(parents) == 0 {
		panic("malformed array context")
	}
	if len(parents) == 1 {
		return NewSingletonContext(parents[0], returnStates[0])
	}
	return &PredictionContext{
		parents:      parents,
		returnStates: returnStates,
		cachedHash:   computeContextHash(parents, returnStates),
	}
}

func (c *PredictionContext) Length() int {
	return len(c.returnStates)
}

func (c *PredictionContext) Parent(i int) *PredictionContext {
	return c.parents[i]
}

func (c *PredictionContext) ReturnState(i int) int {
	return c.returnStates[i]
}

func (c *PredictionContext) isSingleton() bool {
	return len(c.returnStates) == 1
}

// IsEmpty reports whether the context is the empty-stack sentinel.
func (c *PredictionContext) IsEmpty() bool {
	return c == Empty || (len(c.returnStates) == 1 && c.returnStates[0] == EmptyReturnState && c.parents[0] == nil)
}

// HasEmptyPath reports whether an empty-stack leaf is reachable, that is,
// whether popping the context may fall off the start rule.
func (c *PredictionContext) HasEmptyPath() bool {
	return c.returnStates[len(c.returnStates)-1] == EmptyReturnState
}

func (c *PredictionContext) Hash() uint32 {
	return c.cachedHash
}

// Equal reports structural equality.
func (c *PredictionContext) Equal(o *PredictionContext) bool {
	return c.equal(o, make(map[contextPair]bool))
}

type contextPair struct {
	a, b *PredictionContext
}

func (c *PredictionContext) equal(o *PredictionContext, visited map[contextPair]bool) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	if c.cachedHash != o.cachedHash || len(c.returnStates) != len(o.returnStates) {
		return false
	}
	pair := contextPair{c, o}
	if visited[pair] {
		return true
	}
	visited[pair] = true
	for i, r := range c.returnStates {
		if r != o.returnStates[i] {
			return false
		}
	}
	for i, p := range c.parents {
		q := o.parents[i]
		if p == nil || q == nil {
			if p != q {
				return false
			}
			continue
		}
		if !p.equal(q, visited) {
			return false
		}
	}
	return true
}

func (c *PredictionContext) String() string {
	if c.IsEmpty() {
		return "$"
	}
	var b strings.Builder
	b.WriteString("[")
	for i, r := range c.returnStates {
		if i > 0 {
			b.WriteString(", ")
		}
		if r == EmptyReturnState {
			b.WriteString("$")
			continue
		}
		fmt.Fprintf(&b, "%v", r)
		if c.parents[i] != nil && !c.parents[i].IsEmpty() {
			fmt.Fprintf(&b, " %v", c.parents[i])
		}
	}
	b.WriteString("]")
	return b.String()
}

// FromRuleContext converts an invocation chain into a prediction context.
// A nil chain and the chain root both map to Empty.
func FromRuleContext(a *automaton.ATN, ctx automaton.RuleContext) *PredictionContext {
	if ctx == nil || ctx.InvokingState() < 0 {
		return Empty
	}
	parent := FromRuleContext(a, ctx.ParentCtx())
	invoking := a.States[ctx.InvokingState()]
	rt := invoking.Transitions[0]
	return NewSingletonContext(parent, rt.FollowState.Num)
}

// ContextCache interns prediction-context graphs so structurally equal
// subgraphs collapse to one object. It is safe for concurrent use.
type ContextCache struct {
	mu sync.Mutex
	m  map[uint32][]*PredictionContext
}

func NewContextCache() *ContextCache {
	return &ContextCache{
		m: map[uint32][]*PredictionContext{},
	}
}

func (c *ContextCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, b := range c.m {
		n += len(b)
	}
	return n
}

// add returns the canonical object for `ctx`, registering it if absent.
// The caller must hold c.mu.
func (c *ContextCache) add(ctx *PredictionContext) *PredictionContext {
	if ctx.IsEmpty() {
		return Empty
	}
	for _, cand := range c.m[ctx.cachedHash] {
		if cand.Equal(ctx) {
			return cand
		}
	}
	c.m[ctx.cachedHash] = append(c.m[ctx.cachedHash], ctx)
	return ctx
}

// GetCached interns `ctx` and every node reachable from it.
func (c *ContextCache) GetCached(ctx *PredictionContext) *PredictionContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getCached(ctx, map[*PredictionContext]*PredictionContext{})
}

func (c *ContextCache) getCached(ctx *PredictionContext, visited map[*PredictionContext]*PredictionContext) *PredictionContext {
	if ctx.IsEmpty() {
		return Empty
	}
	if cached, ok := visited[ctx]; ok {
		return cached
	}
	for _, cand := range c.m[ctx.cachedHash] {
		if cand.Equal(ctx) {
			visited[ctx] = cand
			return cand
		}
	}

	changed := false
	parents := make([]*PredictionContext, len(ctx.parents))
	for i, p := range ctx.parents {
		if p == nil {
			continue
		}
		parents[i] = c.getCached(p, visited)
		if parents[i] != p {
			changed = true
		}
	}
	updated := ctx
	if changed {
		if len(parents) == 1 {
			updated = NewSingletonContext(parents[0], ctx.returnStates[0])
		} else {
			returnStates := make([]int, len(ctx.returnStates))
			copy(returnStates, ctx.returnStates)
			updated = NewArrayContext(parents, returnStates)
		}
	}
	canonical := c.add(updated)
	visited[updated] = canonical
	visited[ctx] = canonical
	return canonical
}
