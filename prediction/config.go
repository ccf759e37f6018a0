package prediction

import (
	"fmt"

	"github.com/soutome/atnkit/automaton"
)

// ATNConfig is one point of the simulator's search space: an ATN state
// reached while predicting alternative Alt, the call stack that got there,
// and the predicates that must hold for the path to be viable.
type ATNConfig struct {
	State   *automaton.State
	Alt     int
	Context *PredictionContext
	SemCtx  SemanticContext

	// ReachesIntoOuterContext counts how often the closure fell off the end
	// of the start rule and into the outer context while producing this
	// configuration. Non-zero values make the owning set dip into the outer
	// context.
	ReachesIntoOuterContext int

	// PrecedenceFilterSuppressed exempts the configuration from the
	// precedence filter applied at left-recursive decisions.
	PrecedenceFilterSuppressed bool
}

func NewConfig(state *automaton.State, alt int, context *PredictionContext) *ATNConfig {
	return NewConfigWithSemCtx(state, alt, context, None)
}

func NewConfigWithSemCtx(state *automaton.State, alt int, context *PredictionContext, semCtx SemanticContext) *ATNConfig {
	if semCtx == nil {
		panic("config semantic context must not be nil")
	}
	return &ATNConfig{
		State:   state,
		Alt:     alt,
		Context: context,
		SemCtx:  semCtx,
	}
}

// Transform returns a copy of c moved to `state`, keeping alt, context, and
// flags.
func (c *ATNConfig) Transform(state *automaton.State) *ATNConfig {
	d := *c
	d.State = state
	return &d
}

// TransformWithContext returns a copy of c moved to `state` with a new call
// stack.
func (c *ATNConfig) TransformWithContext(state *automaton.State, context *PredictionContext) *ATNConfig {
	d := *c
	d.State = state
	d.Context = context
	return &d
}

// TransformWithSemCtx returns a copy of c moved to `state` with a new
// semantic context.
func (c *ATNConfig) TransformWithSemCtx(state *automaton.State, semCtx SemanticContext) *ATNConfig {
	d := *c
	d.State = state
	d.SemCtx = semCtx
	return &d
}

// key is the set-membership identity: context is merged, not compared.
func (c *ATNConfig) key() configKey {
	return configKey{
		state:   c.State.Num,
		alt:     c.Alt,
		semHash: c.SemCtx.Hash(),
	}
}

// Hash identifies the full configuration including its call stack. The DFA
// keys frozen sets by this.
func (c *ATNConfig) Hash() uint32 {
	h := hashInit()
	h = hashUpdate(h, uint32(c.State.Num))
	h = hashUpdate(h, uint32(c.Alt))
	if c.Context != nil {
		h = hashUpdate(h, c.Context.Hash())
	}
	h = hashUpdate(h, c.SemCtx.Hash())
	return hashFinish(h, 4)
}

// Equal compares the full configuration including its call stack.
func (c *ATNConfig) Equal(o *ATNConfig) bool {
	if c == o {
		return true
	}
	if c.State.Num != o.State.Num || c.Alt != o.Alt || !c.SemCtx.Equal(o.SemCtx) {
		return false
	}
	if c.Context == nil || o.Context == nil {
		return c.Context == o.Context
	}
	if c.PrecedenceFilterSuppressed != o.PrecedenceFilterSuppressed {
		return false
	}
	return c.Context.Equal(o.Context)
}

func (c *ATNConfig) String() string {
	s := fmt.Sprintf("(%v,%v,%v", c.State.Num, c.Alt, c.Context)
	if c.SemCtx != None {
		s += fmt.Sprintf(",%v", c.SemCtx)
	}
	if c.ReachesIntoOuterContext > 0 {
		s += fmt.Sprintf(",up=%v", c.ReachesIntoOuterContext)
	}
	return s + ")"
}

type configKey struct {
	state   int
	alt     int
	semHash uint32
}
