package prediction

import (
	"github.com/bits-and-blooms/bitset"
	"github.com/sirupsen/logrus"
	"github.com/soutome/atnkit/automaton"
)

// TokenStream is the view of the token source the simulator needs: 1-based
// lookahead by token type and repositioning via marks. The driver's
// buffered stream implements it.
type TokenStream interface {
	// LA returns the type of the k-th lookahead token. k is 1-based;
	// automaton.TokenEOF marks the end of input.
	LA(k int) int
	Index() int
	Consume()
	Seek(index int)
	Mark() int
	Release(marker int)
}

// Reporter receives prediction diagnostics. All methods may be called
// concurrently when parsers share a DFA.
type Reporter interface {
	ReportAttemptingFullContext(dfa *DFA, conflictingAlts *bitset.BitSet, configs *ATNConfigSet, startIndex, stopIndex int)
	ReportContextSensitivity(dfa *DFA, prediction int, configs *ATNConfigSet, startIndex, stopIndex int)
	ReportAmbiguity(dfa *DFA, d *DFAState, startIndex, stopIndex int, exact bool, ambigAlts *bitset.BitSet, configs *ATNConfigSet)
}

type noopReporter struct{}

func (noopReporter) ReportAttemptingFullContext(*DFA, *bitset.BitSet, *ATNConfigSet, int, int) {}
func (noopReporter) ReportContextSensitivity(*DFA, int, *ATNConfigSet, int, int)               {}
func (noopReporter) ReportAmbiguity(*DFA, *DFAState, int, int, bool, *bitset.BitSet, *ATNConfigSet) {
}

// errorState is the sentinel target of DFA edges leading to "no viable
// alternative". It is never returned to callers.
var errorState = func() *DFAState {
	s := NewDFAState(NewATNConfigSet(false))
	s.configs.Freeze()
	s.num = -2
	return s
}()

// SimulatorOption configures a Simulator.
type SimulatorOption func(s *Simulator)

// WithMode sets the prediction mode. The default is ModeLL.
func WithMode(mode Mode) SimulatorOption {
	return func(s *Simulator) {
		s.mode = mode
	}
}

// WithReporter installs a diagnostics reporter.
func WithReporter(r Reporter) SimulatorOption {
	return func(s *Simulator) {
		s.reporter = r
	}
}

// WithLogger enables structured trace logging of prediction decisions.
func WithLogger(l *logrus.Logger) SimulatorOption {
	return func(s *Simulator) {
		s.logger = l
	}
}

// Simulator performs adaptive LL(*) prediction over an ATN. One simulator
// belongs to one parser; the DFA table and the context cache may be shared
// with any number of other simulators over the same ATN. All remaining
// state is scoped to a single AdaptivePredict call.
type Simulator struct {
	atn      *automaton.ATN
	dfas     []*DFA
	cache    *ContextCache
	eval     Evaluator
	mode     Mode
	reporter Reporter
	logger   *logrus.Logger

	// Transient per-prediction state.
	input        TokenStream
	startIndex   int
	outerContext automaton.RuleContext
	dfa          *DFA
	mergeCache   *MergeCache
}

// NewSimulator builds a simulator over `atn`. `dfas` must come from
// NewDecisionDFAs over the same ATN; passing the same slice and cache to
// several simulators shares prediction results between them.
func NewSimulator(atn *automaton.ATN, dfas []*DFA, cache *ContextCache, eval Evaluator, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		atn:      atn,
		dfas:     dfas,
		cache:    cache,
		eval:     eval,
		mode:     ModeLL,
		reporter: noopReporter{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Mode() Mode {
	return s.mode
}

func (s *Simulator) DFA(decision int) *DFA {
	return s.dfas[decision]
}

func (s *Simulator) trace() *logrus.Entry {
	if s.logger == nil {
		return nil
	}
	return s.logger.WithField("decision", s.dfa.Decision)
}

// AdaptivePredict predicts the alternative to take at `decision` given the
// upcoming input. `precedence` is the precedence the surrounding
// left-recursive rule is parsing at (0 outside precedence rules). The
// stream is restored to its entry position on every path.
func (s *Simulator) AdaptivePredict(input TokenStream, decision, precedence int, outerContext automaton.RuleContext) (int, error) {
	dfa := s.dfas[decision]
	s.input = input
	s.startIndex = input.Index()
	s.outerContext = outerContext
	s.dfa = dfa
	s.mergeCache = NewMergeCache()
	defer func() {
		s.mergeCache = nil
		s.dfa = nil
		s.input = nil
	}()

	m := input.Mark()
	index := s.startIndex
	defer func() {
		input.Seek(index)
		input.Release(m)
	}()

	if t := s.trace(); t != nil {
		t.WithFields(logrus.Fields{"index": index, "mode": s.mode.String()}).Debug("adaptive predict")
	}

	var s0 *DFAState
	if dfa.IsPrecedenceDfa() {
		s0 = dfa.PrecedenceStartState(precedence)
	} else {
		s0 = dfa.S0()
	}

	if s0 == nil {
		fullCtx := false
		s0Closure := s.computeStartState(dfa.DecisionState, nil, fullCtx)

		if dfa.IsPrecedenceDfa() {
			// The start configs of a precedence decision depend on the
			// precedence the rule is parsing at, so each precedence gets
			// its own entry state behind the filter.
			s0Closure = s0Closure.ApplyPrecedenceFilter(s.eval, outerContext, s.mergeCache)
			s0 = s.addDFAState(dfa, NewDFAState(s0Closure))
			dfa.SetPrecedenceStartState(precedence, s0)
		} else {
			s0 = s.addDFAState(dfa, NewDFAState(s0Closure))
			dfa.SetS0(s0)
		}
	}

	alt, err := s.execATN(dfa, s0, input, index, outerContext)
	if t := s.trace(); t != nil {
		t.WithFields(logrus.Fields{"alt": alt, "err": err != nil}).Debug("prediction done")
	}
	return alt, err
}

func (s *Simulator) execATN(dfa *DFA, s0 *DFAState, input TokenStream, startIndex int, outerContext automaton.RuleContext) (int, error) {
	previousD := s0
	t := input.LA(1)

	for {
		D := dfa.Edge(previousD, t)
		if D == nil {
			D = s.computeTargetState(dfa, previousD, t)
		}
		if D == errorState {
			// The SLL walk died. Before surfacing the error, fall back to
			// an alternative that at least finished the decision entry
			// rule on the input so far.
			e := s.noViableAlt(input, previousD.configs, startIndex)
			input.Seek(startIndex)
			alt := s.synValidOrSemInvalidAltThatFinishedDecisionEntryRule(previousD.configs, outerContext)
			if alt != InvalidAlt {
				return alt, nil
			}
			return InvalidAlt, e
		}

		if D.RequiresFullContext && s.mode != ModeSLL {
			conflictingAlts := D.configs.ConflictingAlts
			if D.Predicates != nil {
				conflictIndex := input.Index()
				if conflictIndex != startIndex {
					input.Seek(startIndex)
				}
				conflictingAlts = s.evalSemanticContext(D.Predicates, outerContext, true)
				if conflictingAlts.Count() == 1 {
					alt, _ := conflictingAlts.NextSet(0)
					return int(alt), nil
				}
				if conflictIndex != startIndex {
					// Restore the conflict position so the full-context
					// report below carries it as the stop index.
					input.Seek(conflictIndex)
				}
			}

			if tr := s.trace(); tr != nil {
				tr.Debug("SLL conflict, retrying with full context")
			}
			s.reporter.ReportAttemptingFullContext(dfa, conflictingAlts, D.configs, startIndex, input.Index())
			fullCtx := true
			s0Closure := s.computeStartState(dfa.DecisionState, outerContext, fullCtx)
			return s.execATNWithFullContext(dfa, D, s0Closure, input, startIndex, outerContext)
		}

		if D.IsAcceptState() {
			if D.Predicates == nil {
				return D.Prediction, nil
			}

			stopIndex := input.Index()
			input.Seek(startIndex)
			alts := s.evalSemanticContext(D.Predicates, outerContext, true)
			switch alts.Count() {
			case 0:
				return InvalidAlt, s.noViableAlt(input, D.configs, startIndex)
			case 1:
				alt, _ := alts.NextSet(0)
				return int(alt), nil
			default:
				// Report as ambiguous: more than one predicate was true.
				s.reporter.ReportAmbiguity(dfa, D, startIndex, stopIndex, false, alts, D.configs)
				alt, _ := alts.NextSet(0)
				return int(alt), nil
			}
		}

		previousD = D
		if t != automaton.TokenEOF {
			input.Consume()
			t = input.LA(1)
		}
	}
}

// computeTargetState computes the DFA successor of `previousD` on `t`,
// interns it, and links the edge. errorState marks a dead end.
func (s *Simulator) computeTargetState(dfa *DFA, previousD *DFAState, t int) *DFAState {
	reach := s.computeReachSet(previousD.configs, t, false)
	if reach == nil {
		s.addDFAEdge(dfa, previousD, t, errorState)
		return errorState
	}

	D := NewDFAState(reach)
	predictedAlt := reach.GetUniqueAlt()
	if predictedAlt != InvalidAlt {
		D.isAcceptState = true
		D.configs.UniqueAlt = predictedAlt
		D.Prediction = predictedAlt
	} else if HasSLLConflictTerminatingPrediction(s.mode, reach) {
		D.configs.ConflictingAlts = GetAlts(reach.GetConflictingAltSubsets())
		D.RequiresFullContext = true
		D.isAcceptState = true
		min, _ := D.configs.ConflictingAlts.NextSet(0)
		D.Prediction = int(min)
	}

	if D.isAcceptState && D.configs.HasSemanticContext {
		s.predicateDFAState(D, dfa.DecisionState)
		if D.Predicates != nil {
			D.Prediction = InvalidAlt
		}
	}

	return s.addDFAEdge(dfa, previousD, t, D)
}

func (s *Simulator) predicateDFAState(D *DFAState, decisionState *automaton.State) {
	nalts := len(decisionState.Transitions)
	var altsToCollectPredsFrom *bitset.BitSet
	if D.configs.ConflictingAlts != nil {
		altsToCollectPredsFrom = D.configs.ConflictingAlts
	} else {
		altsToCollectPredsFrom = D.configs.Alts()
	}
	altToPred := s.predsForAmbigAlts(altsToCollectPredsFrom, D.configs, nalts)
	if altToPred != nil {
		D.Predicates = s.predicatePredictions(altsToCollectPredsFrom, altToPred)
		D.Prediction = InvalidAlt
	} else {
		min, _ := altsToCollectPredsFrom.NextSet(0)
		D.Prediction = int(min)
	}
}

func (s *Simulator) predsForAmbigAlts(ambigAlts *bitset.BitSet, configs *ATNConfigSet, nalts int) []SemanticContext {
	altToPred := make([]SemanticContext, nalts+1)
	for _, c := range configs.Configs() {
		if ambigAlts.Test(uint(c.Alt)) {
			altToPred[c.Alt] = Or(altToPred[c.Alt], c.SemCtx)
		}
	}
	nPredAlts := 0
	for i := 1; i <= nalts; i++ {
		if altToPred[i] == nil {
			altToPred[i] = None
		} else if altToPred[i] != None {
			nPredAlts++
		}
	}
	if nPredAlts == 0 {
		return nil
	}
	return altToPred
}

func (s *Simulator) predicatePredictions(ambigAlts *bitset.BitSet, altToPred []SemanticContext) []*PredPrediction {
	var pairs []*PredPrediction
	containsPredicate := false
	for i := 1; i < len(altToPred); i++ {
		pred := altToPred[i]
		if ambigAlts != nil && ambigAlts.Test(uint(i)) {
			pairs = append(pairs, &PredPrediction{Pred: pred, Alt: i})
		}
		if pred != None {
			containsPredicate = true
		}
	}
	if !containsPredicate {
		return nil
	}
	return pairs
}

// evalSemanticContext evaluates predicated alternatives against the outer
// context and returns the alternatives whose predicates held. With
// `complete` false, evaluation stops at the first winner.
func (s *Simulator) evalSemanticContext(predPredictions []*PredPrediction, outerContext automaton.RuleContext, complete bool) *bitset.BitSet {
	predictions := bitset.New(8)
	for _, pair := range predPredictions {
		if pair.Pred == None {
			predictions.Set(uint(pair.Alt))
			if !complete {
				break
			}
			continue
		}
		if pair.Pred.Eval(s.eval, outerContext) {
			predictions.Set(uint(pair.Alt))
			if !complete {
				break
			}
		}
	}
	return predictions
}

func (s *Simulator) execATNWithFullContext(dfa *DFA, D *DFAState, s0 *ATNConfigSet, input TokenStream, startIndex int, outerContext automaton.RuleContext) (int, error) {
	fullCtx := true
	foundExactAmbig := false
	var reach *ATNConfigSet
	previous := s0
	input.Seek(startIndex)
	t := input.LA(1)
	predictedAlt := InvalidAlt

	for {
		reach = s.computeReachSet(previous, t, fullCtx)
		if reach == nil {
			e := s.noViableAlt(input, previous, startIndex)
			input.Seek(startIndex)
			alt := s.synValidOrSemInvalidAltThatFinishedDecisionEntryRule(previous, outerContext)
			if alt != InvalidAlt {
				return alt, nil
			}
			return InvalidAlt, e
		}

		altSubSets := reach.GetConflictingAltSubsets()
		reach.UniqueAlt = reach.GetUniqueAlt()
		if reach.UniqueAlt != InvalidAlt {
			predictedAlt = reach.UniqueAlt
			break
		}
		if s.mode != ModeLLExactAmbigDetection {
			predictedAlt = ResolvesToJustOneViableAlt(altSubSets)
			if predictedAlt != InvalidAlt {
				break
			}
		} else if AllSubsetsConflict(altSubSets) && AllSubsetsEqual(altSubSets) {
			foundExactAmbig = true
			min, _ := GetAlts(altSubSets).NextSet(0)
			predictedAlt = int(min)
			break
		}

		previous = reach
		if t != automaton.TokenEOF {
			input.Consume()
			t = input.LA(1)
		}
	}

	if reach.UniqueAlt != InvalidAlt {
		s.reporter.ReportContextSensitivity(dfa, predictedAlt, reach, startIndex, input.Index())
		return predictedAlt, nil
	}

	// The conflict survived full context: a genuine ambiguity. The minimum
	// viable alternative wins.
	s.reporter.ReportAmbiguity(dfa, D, startIndex, input.Index(), foundExactAmbig, reach.Alts(), reach)
	return predictedAlt, nil
}

func (s *Simulator) computeReachSet(closure *ATNConfigSet, t int, fullCtx bool) *ATNConfigSet {
	intermediate := NewATNConfigSet(fullCtx)

	// Configs already in a rule stop state see the symbol after the
	// decision entry rule; they only survive the step when the whole set
	// runs out of input or full context tracks them.
	var skippedStopStates []*ATNConfig

	for _, c := range closure.Configs() {
		if c.State.Kind == automaton.StateKindRuleStop {
			if fullCtx || t == automaton.TokenEOF {
				skippedStopStates = append(skippedStopStates, c)
			}
			continue
		}
		for _, trans := range c.State.Transitions {
			if trans.Matches(t, automaton.TokenMinUserType, s.atn.MaxTokenType) || (t == automaton.TokenEOF && trans.Kind == automaton.TransitionKindAtom && trans.Label.Contains(automaton.TokenEOF)) {
				intermediate.Add(c.Transform(trans.Target), s.mergeCache)
			}
		}
	}

	var reach *ATNConfigSet
	if skippedStopStates == nil && t != automaton.TokenEOF {
		if intermediate.Len() == 1 || intermediate.GetUniqueAlt() != InvalidAlt {
			// No closure needed: the step is unambiguous already.
			reach = intermediate
		}
	}
	if reach == nil {
		reach = NewATNConfigSet(fullCtx)
		busy := newBusySet()
		treatEOFAsEpsilon := t == automaton.TokenEOF
		for _, c := range intermediate.Configs() {
			s.closure(c, reach, busy, false, fullCtx, 0, treatEOFAsEpsilon)
		}
	}

	if t == automaton.TokenEOF {
		// End of input: only configurations that finished a rule are
		// viable.
		reach = reach.RemoveAllConfigsNotInRuleStopState(s.atn, reach == intermediate, s.mergeCache)
	}

	if skippedStopStates != nil && (!fullCtx || !HasConfigInRuleStopState(reach)) {
		for _, c := range skippedStopStates {
			reach.Add(c, s.mergeCache)
		}
	}

	if reach.IsEmpty() {
		return nil
	}
	return reach
}

func (s *Simulator) computeStartState(p *automaton.State, ctx automaton.RuleContext, fullCtx bool) *ATNConfigSet {
	initialContext := FromRuleContext(s.atn, ctx)
	configs := NewATNConfigSet(fullCtx)
	busy := newBusySet()
	for i, t := range p.Transitions {
		c := NewConfig(t.Target, i+1, initialContext)
		s.closure(c, configs, busy, true, fullCtx, 0, false)
	}
	return configs
}

// closure expands `config` through epsilon transitions into `configs`,
// popping contexts at rule stops and pushing them at rule calls. `depth`
// tracks how far the expansion is from the decision entry; once it latches
// negative the configuration has left the entry context for good.
func (s *Simulator) closure(config *ATNConfig, configs *ATNConfigSet, busy *busySet, collectPredicates, fullCtx bool, depth int, treatEOFAsEpsilon bool) {
	if config.State.Kind == automaton.StateKindRuleStop {
		if !config.Context.IsEmpty() {
			for i := 0; i < config.Context.Length(); i++ {
				if config.Context.ReturnState(i) == EmptyReturnState {
					if fullCtx {
						configs.Add(config.TransformWithContext(config.State, Empty), s.mergeCache)
						continue
					}
					// No context info: chase the follow links below.
					s.closureWork(config, configs, busy, collectPredicates, fullCtx, depth, treatEOFAsEpsilon)
					continue
				}
				returnState := s.atn.States[config.Context.ReturnState(i)]
				d := config.TransformWithContext(returnState, config.Context.Parent(i))
				s.closure(d, configs, busy, collectPredicates, fullCtx, depth-1, treatEOFAsEpsilon)
			}
			return
		}
		if fullCtx {
			// Reached the end of the start rule under full context.
			configs.Add(config, s.mergeCache)
			return
		}
	}
	s.closureWork(config, configs, busy, collectPredicates, fullCtx, depth, treatEOFAsEpsilon)
}

func (s *Simulator) closureWork(config *ATNConfig, configs *ATNConfigSet, busy *busySet, collectPredicates, fullCtx bool, depth int, treatEOFAsEpsilon bool) {
	p := config.State
	if !p.OnlyHasEpsilonTransitions() {
		configs.Add(config, s.mergeCache)
	}

	for _, t := range p.Transitions {
		continueCollecting := collectPredicates && t.Kind != automaton.TransitionKindAction
		c := s.epsilonTarget(config, t, continueCollecting, depth == 0, fullCtx, treatEOFAsEpsilon)
		if c == nil {
			continue
		}

		newDepth := depth
		if p.Kind == automaton.StateKindRuleStop {
			// The configuration fell off the end of the decision entry
			// rule and continues in the outer context.
			if s.dfa != nil && s.dfa.IsPrecedenceDfa() {
				if t.OutermostPrecedenceReturn == s.dfa.DecisionState.Rule {
					c.PrecedenceFilterSuppressed = true
				}
			}
			c.ReachesIntoOuterContext++
			if !busy.add(c) {
				// Right-recursive rules revisit this point forever.
				continue
			}
			configs.DipsIntoOuterContext = true
			newDepth--
		} else if !t.IsEpsilon() {
			if !busy.add(c) {
				continue
			}
		} else if t.Kind == automaton.TransitionKindRule {
			// Latch once the depth goes negative: after leaving the entry
			// context there is no way back in.
			if newDepth >= 0 {
				newDepth++
			}
		}

		s.closure(c, configs, busy, continueCollecting, fullCtx, newDepth, treatEOFAsEpsilon)
	}
}

func (s *Simulator) epsilonTarget(config *ATNConfig, t *automaton.Transition, collectPredicates, inContext, fullCtx, treatEOFAsEpsilon bool) *ATNConfig {
	switch t.Kind {
	case automaton.TransitionKindRule:
		newContext := NewSingletonContext(config.Context, t.FollowState.Num)
		return config.TransformWithContext(t.Target, newContext)
	case automaton.TransitionKindPrecedencePredicate:
		return s.precedenceTransition(config, t, collectPredicates, inContext, fullCtx)
	case automaton.TransitionKindPredicate:
		return s.predTransition(config, t, collectPredicates, inContext, fullCtx)
	case automaton.TransitionKindAction, automaton.TransitionKindEpsilon:
		return config.Transform(t.Target)
	case automaton.TransitionKindAtom, automaton.TransitionKindRange, automaton.TransitionKindSet:
		if treatEOFAsEpsilon && t.Matches(automaton.TokenEOF, 0, 1) {
			return config.Transform(t.Target)
		}
		return nil
	}
	return nil
}

func (s *Simulator) precedenceTransition(config *ATNConfig, t *automaton.Transition, collectPredicates, inContext, fullCtx bool) *ATNConfig {
	if !collectPredicates || !inContext {
		return config.Transform(t.Target)
	}
	pred := NewPrecedencePredicate(t.Precedence)
	if fullCtx {
		// Under full context the predicate can be decided right now; the
		// stream has to look like it did at decision entry while the user
		// code runs.
		currentPosition := s.input.Index()
		s.input.Seek(s.startIndex)
		succeeds := pred.Eval(s.eval, s.outerContext)
		s.input.Seek(currentPosition)
		if succeeds {
			return config.Transform(t.Target)
		}
		return nil
	}
	return config.TransformWithSemCtx(t.Target, And(config.SemCtx, pred))
}

func (s *Simulator) predTransition(config *ATNConfig, t *automaton.Transition, collectPredicates, inContext, fullCtx bool) *ATNConfig {
	if !collectPredicates || (t.IsCtxDependent && !inContext) {
		return config.Transform(t.Target)
	}
	pred := NewPredicate(t.RuleIndex, t.PredIndex, t.IsCtxDependent)
	if fullCtx {
		currentPosition := s.input.Index()
		s.input.Seek(s.startIndex)
		succeeds := pred.Eval(s.eval, s.outerContext)
		s.input.Seek(currentPosition)
		if succeeds {
			return config.Transform(t.Target)
		}
		return nil
	}
	return config.TransformWithSemCtx(t.Target, And(config.SemCtx, pred))
}

// synValidOrSemInvalidAltThatFinishedDecisionEntryRule prefers an
// alternative that finished the entry rule with passing predicates, then
// one whose predicates failed, over reporting no viable alternative.
func (s *Simulator) synValidOrSemInvalidAltThatFinishedDecisionEntryRule(configs *ATNConfigSet, outerContext automaton.RuleContext) int {
	succeeded, failed := configs.SplitAccordingToSemanticValidity(s.eval, outerContext)
	if alt := succeeded.GetAltThatFinishedDecisionEntryRule(); alt != InvalidAlt {
		return alt
	}
	if failed.Len() > 0 {
		if alt := failed.GetAltThatFinishedDecisionEntryRule(); alt != InvalidAlt {
			return alt
		}
	}
	return InvalidAlt
}

func (s *Simulator) noViableAlt(input TokenStream, configs *ATNConfigSet, startIndex int) error {
	return &NoViableAltError{
		Decision:       s.dfa.Decision,
		StartIndex:     startIndex,
		OffendingIndex: input.Index(),
		Configs:        configs,
	}
}

func (s *Simulator) addDFAEdge(dfa *DFA, from *DFAState, t int, to *DFAState) *DFAState {
	if to == nil {
		return nil
	}
	if to != errorState {
		to = s.addDFAState(dfa, to)
	}
	if from == nil || t < automaton.TokenEOF || t > s.atn.MaxTokenType {
		return to
	}
	return dfa.AddEdge(from, t, to)
}

// addDFAState freezes the state's configuration set and interns the state
// in the decision's DFA.
func (s *Simulator) addDFAState(dfa *DFA, D *DFAState) *DFAState {
	if D == errorState {
		return D
	}
	if !D.configs.ReadOnly() {
		D.configs.OptimizeConfigs(s.cache)
		D.configs.Freeze()
	}
	return dfa.AddState(D)
}

// busySet guards closure against revisiting a configuration, comparing
// full configurations including call stacks.
type busySet struct {
	m map[uint32][]*ATNConfig
}

func newBusySet() *busySet {
	return &busySet{
		m: map[uint32][]*ATNConfig{},
	}
}

// add reports whether the config was newly added.
func (b *busySet) add(c *ATNConfig) bool {
	h := c.Hash()
	for _, cand := range b.m[h] {
		if cand.Equal(c) {
			return false
		}
	}
	b.m[h] = append(b.m[h], c)
	return true
}
