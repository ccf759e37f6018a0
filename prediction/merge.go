package prediction

// MergeCache memoizes context merges within one prediction. It is owned by
// a single goroutine and needs no locking.
type MergeCache struct {
	m map[contextPair]*PredictionContext
}

func NewMergeCache() *MergeCache {
	return &MergeCache{
		m: map[contextPair]*PredictionContext{},
	}
}

func (c *MergeCache) get(a, b *PredictionContext) (*PredictionContext, bool) {
	if c == nil {
		return nil, false
	}
	if r, ok := c.m[contextPair{a, b}]; ok {
		return r, true
	}
	r, ok := c.m[contextPair{b, a}]
	return r, ok
}

func (c *MergeCache) put(a, b *PredictionContext, r *PredictionContext) {
	if c == nil {
		return
	}
	c.m[contextPair{a, b}] = r
}

// Merge combines two call stacks, collapsing equal prefixes and sharing
// suffixes. With rootIsWildcard (SLL prediction) the empty stack matches
// anything and absorbs the other operand; without it (full-context
// prediction) empty stacks stay distinct. Merge is commutative up to
// structural equality and idempotent.
func Merge(a, b *PredictionContext, rootIsWildcard bool, cache *MergeCache) *PredictionContext {
	if a == b || a.Equal(b) {
		return a
	}
	if r, ok := cache.get(a, b); ok {
		return r
	}

	var r *PredictionContext
	switch {
	case a.isSingleton() && b.isSingleton():
		r = mergeSingletons(a, b, rootIsWildcard, cache)
	case rootIsWildcard && a.IsEmpty():
		r = a
	case rootIsWildcard && b.IsEmpty():
		r = b
	default:
		r = mergeArrays(a, b, rootIsWildcard, cache)
	}
	cache.put(a, b, r)
	return r
}

// mergeRoot handles merges involving the empty-stack sentinel. It returns
// nil when neither operand is the sentinel.
func mergeRoot(a, b *PredictionContext, rootIsWildcard bool) *PredictionContext {
	if rootIsWildcard {
		if a.IsEmpty() {
			return Empty
		}
		if b.IsEmpty() {
			return Empty
		}
		return nil
	}
	if a.IsEmpty() && b.IsEmpty() {
		return Empty
	}
	if a.IsEmpty() {
		return NewArrayContext(
			[]*PredictionContext{b.parents[0], nil},
			[]int{b.returnStates[0], EmptyReturnState},
		)
	}
	if b.IsEmpty() {
		return NewArrayContext(
			[]*PredictionContext{a.parents[0], nil},
			[]int{a.returnStates[0], EmptyReturnState},
		)
	}
	return nil
}

func mergeSingletons(a, b *PredictionContext, rootIsWildcard bool, cache *MergeCache) *PredictionContext {
	if r := mergeRoot(a, b, rootIsWildcard); r != nil {
		return r
	}

	aState := a.returnStates[0]
	bState := b.returnStates[0]
	if aState == bState {
		// Equal tops: the merged parent covers both suffixes.
		parent := mergeParents(a.parents[0], b.parents[0], rootIsWildcard, cache)
		if parent == a.parents[0] {
			return a
		}
		if parent == b.parents[0] {
			return b
		}
		return NewSingletonContext(parent, aState)
	}

	if parentsEqual(a.parents[0], b.parents[0]) {
		// Distinct tops over one suffix collapse into a two-branch array
		// sharing the parent.
		parent := a.parents[0]
		if aState < bState {
			return NewArrayContext([]*PredictionContext{parent, parent}, []int{aState, bState})
		}
		return NewArrayContext([]*PredictionContext{parent, parent}, []int{bState, aState})
	}
	if aState < bState {
		return NewArrayContext([]*PredictionContext{a.parents[0], b.parents[0]}, []int{aState, bState})
	}
	return NewArrayContext([]*PredictionContext{b.parents[0], a.parents[0]}, []int{bState, aState})
}

func mergeArrays(a, b *PredictionContext, rootIsWildcard bool, cache *MergeCache) *PredictionContext {
	// Merge-sort union keyed by return state; equal keys union their
	// parents.
	var parents []*PredictionContext
	var returnStates []int
	i, j := 0, 0
	for i < len(a.returnStates) && j < len(b.returnStates) {
		switch {
		case a.returnStates[i] == b.returnStates[j]:
			var parent *PredictionContext
			if parentsEqual(a.parents[i], b.parents[j]) {
				parent = a.parents[i]
			} else {
				parent = mergeParents(a.parents[i], b.parents[j], rootIsWildcard, cache)
			}
			parents = append(parents, parent)
			returnStates = append(returnStates, a.returnStates[i])
			i++
			j++
		case a.returnStates[i] < b.returnStates[j]:
			parents = append(parents, a.parents[i])
			returnStates = append(returnStates, a.returnStates[i])
			i++
		default:
			parents = append(parents, b.parents[j])
			returnStates = append(returnStates, b.returnStates[j])
			j++
		}
	}
	for ; i < len(a.returnStates); i++ {
		parents = append(parents, a.parents[i])
		returnStates = append(returnStates, a.returnStates[i])
	}
	for ; j < len(b.returnStates); j++ {
		parents = append(parents, b.parents[j])
		returnStates = append(returnStates, b.returnStates[j])
	}

	m := NewArrayContext(parents, returnStates)
	if m.Equal(a) {
		return a
	}
	if m.Equal(b) {
		return b
	}
	return m
}

// mergeParents merges two parent links, either of which may be nil (the
// link above the empty-stack sentinel).
func mergeParents(a, b *PredictionContext, rootIsWildcard bool, cache *MergeCache) *PredictionContext {
	if a == nil || b == nil {
		if a == b {
			return nil
		}
		// A nil parent only hangs below the sentinel's return state, which
		// never collides with a real return state.
		panic("cannot merge a parent with the link above the empty stack")
	}
	return Merge(a, b, rootIsWildcard, cache)
}

func parentsEqual(a, b *PredictionContext) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}
