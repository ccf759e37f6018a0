package driver

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/soutome/atnkit/automaton"
	"github.com/soutome/atnkit/prediction"
)

// SemanticHandler supplies the user-defined predicates and actions a
// grammar refers to. A nil handler treats every predicate as true and
// every action as a no-op.
type SemanticHandler interface {
	Sempred(ctx automaton.RuleContext, ruleIndex, predIndex int) bool
	Action(ctx automaton.RuleContext, ruleIndex, actionIndex int)
}

// SyntaxError is one recovered error of a parse.
type SyntaxError struct {
	Row               int
	Col               int
	Message           string
	Token             Token
	ExpectedTerminals []string
}

type ParserOption func(p *Parser) error

// SemanticAction installs the handler for grammar predicates and actions.
func SemanticAction(h SemanticHandler) ParserOption {
	return func(p *Parser) error {
		p.sem = h
		return nil
	}
}

// ErrorHandler replaces the default error strategy.
func ErrorHandler(s ErrorStrategy) ParserOption {
	return func(p *Parser) error {
		p.errHandler = s
		return nil
	}
}

// PredictionMode selects the simulator's prediction mode.
func PredictionMode(m prediction.Mode) ParserOption {
	return func(p *Parser) error {
		p.mode = m
		return nil
	}
}

// TraceLogger enables structured prediction tracing.
func TraceLogger(l *logrus.Logger) ParserOption {
	return func(p *Parser) error {
		p.logger = l
		return nil
	}
}

// DiagnosticReporter receives ambiguity and context-sensitivity reports.
func DiagnosticReporter(r prediction.Reporter) ParserOption {
	return func(p *Parser) error {
		p.reporter = r
		return nil
	}
}

type parentContextPair struct {
	parent        *ParserRuleContext
	invokingState int
}

type decisionOverride struct {
	decision   int
	tokenIndex int
	forcedAlt  int
}

// Parser walks an ATN directly, predicting alternatives with the adaptive
// simulator and building an InterpreterRuleContext tree. One parser parses
// one token stream at a time; any number of parsers may share a Grammar.
type Parser struct {
	grammar    *Grammar
	input      *TokenStream
	sim        *prediction.Simulator
	errHandler ErrorStrategy
	sem        SemanticHandler
	mode       prediction.Mode
	logger     *logrus.Logger
	reporter   prediction.Reporter

	ctx             *ParserRuleContext
	state           int
	precedenceStack []int

	// parentContextStack holds the (parent, invoking state) pairs used to
	// unroll left recursion. Only enterRecursionRule pushes; visitRuleStopState
	// pops, and so does Parse when a left-recursive start rule finishes.
	parentContextStack []parentContextPair

	// pushRecursionContextStates are the loop-entry decisions of
	// left-recursive rules; an epsilon step from one of them opens a new
	// recursion level.
	pushRecursionContextStates map[int]bool

	override        decisionOverride
	overrideReached bool
	synErrs         []*SyntaxError
}

func NewParser(input *TokenStream, grammar *Grammar, opts ...ParserOption) (*Parser, error) {
	p := &Parser{
		grammar:    grammar,
		input:      input,
		errHandler: NewDefaultErrorStrategy(),
		mode:       prediction.ModeLL,
		override:   decisionOverride{decision: -1, tokenIndex: -1},
		state:      -1,
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	var simOpts []prediction.SimulatorOption
	simOpts = append(simOpts, prediction.WithMode(p.mode))
	if p.logger != nil {
		simOpts = append(simOpts, prediction.WithLogger(p.logger))
	}
	if p.reporter != nil {
		simOpts = append(simOpts, prediction.WithReporter(p.reporter))
	}
	p.sim = prediction.NewSimulator(grammar.ATN, grammar.dfas, grammar.cache, p, simOpts...)

	p.pushRecursionContextStates = map[int]bool{}
	for _, s := range grammar.ATN.States {
		if s != nil && s.Kind == automaton.StateKindStarLoopEntry && s.PrecedenceRuleDecision {
			p.pushRecursionContextStates[s.Num] = true
		}
	}
	return p, nil
}

// AddDecisionOverride forces alternative `forcedAlt` (1-based) the next
// time `decision` is predicted at input position `tokenIndex`. The
// override fires at most once per Parse call; if recovery skips the
// position it never fires.
func (p *Parser) AddDecisionOverride(decision, tokenIndex, forcedAlt int) {
	p.override = decisionOverride{
		decision:   decision,
		tokenIndex: tokenIndex,
		forcedAlt:  forcedAlt,
	}
	p.overrideReached = false
}

// OverrideDecisionReached reports whether the override installed with
// AddDecisionOverride has fired.
func (p *Parser) OverrideDecisionReached() bool {
	return p.overrideReached
}

// SyntaxErrors returns the errors recovered during the last Parse call.
func (p *Parser) SyntaxErrors() []*SyntaxError {
	return p.synErrs
}

// Sempred implements prediction.Evaluator.
func (p *Parser) Sempred(ctx automaton.RuleContext, ruleIndex, predIndex int) bool {
	if p.sem == nil {
		return true
	}
	return p.sem.Sempred(ctx, ruleIndex, predIndex)
}

// Precpred implements prediction.Evaluator.
func (p *Parser) Precpred(ctx automaton.RuleContext, precedence int) bool {
	return precedence >= p.precedenceStack[len(p.precedenceStack)-1]
}

func (p *Parser) action(ctx automaton.RuleContext, ruleIndex, actionIndex int) {
	if p.sem != nil {
		p.sem.Action(ctx, ruleIndex, actionIndex)
	}
}

// Parse interprets the ATN from the start state of `startRule` and returns
// the parse tree. Recovered errors are collected in SyntaxErrors; the
// returned error is non-nil when `startRule` is out of range, when the
// error strategy aborted the parse, or when the walk failed with an error
// that is not a RecognitionError.
func (p *Parser) Parse(startRule int) (*InterpreterRuleContext, error) {
	atn := p.grammar.ATN
	if startRule < 0 || startRule >= atn.RuleCount() {
		return nil, fmt.Errorf("start rule %v out of range 0..%v", startRule, atn.RuleCount()-1)
	}
	p.reset()

	startState := atn.RuleToStartState[startRule]
	rootContext := NewInterpreterRuleContext(nil, -1, startRule)
	if startState.IsPrecedenceRule {
		p.enterRecursionRule(rootContext, startState.Num, startRule, 0)
	} else {
		p.enterRule(rootContext, startState.Num, startRule)
	}

	for {
		st := atn.States[p.state]
		if st.Kind == automaton.StateKindRuleStop {
			if p.ctx.IsEmpty() {
				if startState.IsPrecedenceRule {
					result := p.ctx
					top := p.popParentContext()
					p.unrollRecursionContexts(top.parent)
					return result, nil
				}
				p.exitRule()
				return rootContext, nil
			}
			p.visitRuleStopState(st)
			continue
		}

		err := p.visitState(st)
		if err == nil {
			continue
		}
		recErr, ok := err.(RecognitionError)
		if !ok {
			return rootContext, err
		}
		// Park the walk at the rule end, record the error, and let the
		// strategy resynchronize.
		p.state = atn.RuleToStopState[st.Rule].Num
		p.ctx.err = recErr
		p.errHandler.ReportError(p, recErr)
		if abort := p.recover(recErr); abort != nil {
			return rootContext, abort
		}
	}
}

func (p *Parser) reset() {
	p.input.Seek(0)
	p.errHandler.Reset(p)
	p.ctx = nil
	p.state = -1
	p.synErrs = nil
	p.precedenceStack = append(p.precedenceStack[:0], 0)
	p.parentContextStack = p.parentContextStack[:0]
	p.overrideReached = false
}

func (p *Parser) visitState(st *automaton.State) error {
	altNum := 1
	if len(st.Transitions) > 1 {
		var err error
		altNum, err = p.visitDecisionState(st)
		if err != nil {
			return err
		}
	}

	tr := st.Transitions[altNum-1]
	switch tr.Kind {
	case automaton.TransitionKindEpsilon:
		if p.pushRecursionContextStates[st.Num] && tr.Target.Kind != automaton.StateKindLoopEnd {
			// The loop of a left-recursive rule took another turn: wrap
			// the context parsed so far in a fresh recursion level.
			top := p.parentContextStack[len(p.parentContextStack)-1]
			localctx := NewInterpreterRuleContext(top.parent, top.invokingState, p.ctx.ruleIndex)
			p.pushNewRecursionContext(localctx, p.grammar.ATN.RuleToStartState[st.Rule].Num)
		}
	case automaton.TransitionKindAtom:
		if err := p.match(tr.Label.Min()); err != nil {
			return err
		}
	case automaton.TransitionKindRange, automaton.TransitionKindSet, automaton.TransitionKindNotSet:
		if !tr.Matches(p.input.LA(1), automaton.TokenMinUserType, p.grammar.ATN.MaxTokenType) {
			if _, err := p.errHandler.RecoverInline(p); err != nil {
				return err
			}
		}
		if err := p.matchWildcard(); err != nil {
			return err
		}
	case automaton.TransitionKindWildcard:
		if err := p.matchWildcard(); err != nil {
			return err
		}
	case automaton.TransitionKindRule:
		ruleStart := tr.Target
		ruleIndex := ruleStart.Rule
		localctx := NewInterpreterRuleContext(p.ctx, st.Num, ruleIndex)
		if ruleStart.IsPrecedenceRule {
			p.enterRecursionRule(localctx, ruleStart.Num, ruleIndex, tr.Precedence)
		} else {
			p.enterRule(localctx, tr.Target.Num, ruleIndex)
		}
	case automaton.TransitionKindPredicate:
		if !p.Sempred(p.ctx, tr.RuleIndex, tr.PredIndex) {
			return &FailedPredicateError{
				Offending: p.currentToken(),
				Ctx:       p.ctx,
				RuleIndex: tr.RuleIndex,
				PredIndex: tr.PredIndex,
				Msg:       fmt.Sprintf("sempred(_ctx, %v, %v)", tr.RuleIndex, tr.PredIndex),
			}
		}
	case automaton.TransitionKindPrecedencePredicate:
		if !p.Precpred(p.ctx, tr.Precedence) {
			return &FailedPredicateError{
				Offending: p.currentToken(),
				Ctx:       p.ctx,
				RuleIndex: st.Rule,
				PredIndex: -1,
				Msg:       fmt.Sprintf("precpred(_ctx, %v)", tr.Precedence),
			}
		}
	case automaton.TransitionKindAction:
		p.action(p.ctx, tr.RuleIndex, tr.ActionIndex)
	default:
		panic(fmt.Sprintf("unexpected transition kind %v at state %v", tr.Kind, st.Num))
	}

	p.state = tr.Target.Num
	return nil
}

func (p *Parser) visitDecisionState(st *automaton.State) (int, error) {
	if !st.IsDecision() {
		panic(fmt.Sprintf("state %v has %v transitions but no decision", st.Num, len(st.Transitions)))
	}
	if err := p.errHandler.Sync(p); err != nil {
		return 0, err
	}

	decision := st.Decision
	if decision == p.override.decision && p.input.Index() == p.override.tokenIndex && !p.overrideReached {
		p.overrideReached = true
		return p.override.forcedAlt, nil
	}

	alt, err := p.sim.AdaptivePredict(p.input, decision, p.precedence(), p.ctx)
	if err != nil {
		nva, ok := err.(*prediction.NoViableAltError)
		if !ok {
			return 0, err
		}
		return 0, &NoViableAltError{
			Offending:  p.input.Get(nva.OffendingIndex),
			StartToken: p.input.Get(nva.StartIndex),
			Ctx:        p.ctx,
			Inner:      nva,
		}
	}
	return alt, nil
}

func (p *Parser) visitRuleStopState(st *automaton.State) {
	ruleStart := p.grammar.ATN.RuleToStartState[st.Rule]
	if ruleStart.IsPrecedenceRule {
		top := p.popParentContext()
		p.unrollRecursionContexts(top.parent)
		p.state = top.invokingState
	} else {
		p.exitRule()
	}

	// The resumed state holds the rule transition that made the call;
	// continue at its follow state.
	rt := p.grammar.ATN.States[p.state].Transitions[0]
	p.state = rt.FollowState.Num
}

func (p *Parser) match(ttype int) error {
	t := p.currentToken()
	if t.TokenType() == ttype {
		p.errHandler.ReportMatch(p)
		p.consume()
		return nil
	}
	t, err := p.errHandler.RecoverInline(p)
	if err != nil {
		return err
	}
	if p.input.LT(-1) != t {
		// A conjured-up missing token never reaches the stream; record it
		// as an error node.
		p.ctx.addErrorNode(t)
	}
	return nil
}

func (p *Parser) matchWildcard() error {
	t := p.currentToken()
	if t.TokenType() > 0 {
		p.errHandler.ReportMatch(p)
		p.consume()
		return nil
	}
	t, err := p.errHandler.RecoverInline(p)
	if err != nil {
		return err
	}
	if p.input.LT(-1) != t {
		p.ctx.addErrorNode(t)
	}
	return nil
}

func (p *Parser) consume() Token {
	o := p.currentToken()
	if o.TokenType() != automaton.TokenEOF {
		p.input.Consume()
	}
	if p.errHandler.InErrorRecoveryMode(p) {
		p.ctx.addErrorNode(o)
	} else {
		p.ctx.addTokenNode(o)
	}
	return o
}

func (p *Parser) enterRule(localctx *ParserRuleContext, state, ruleIndex int) {
	p.state = state
	p.ctx = localctx
	p.ctx.start = p.input.LT(1)
	if parent := localctx.parent; parent != nil {
		parent.addChild(localctx)
	}
}

func (p *Parser) exitRule() {
	p.ctx.stop = p.input.LT(-1)
	p.state = p.ctx.invokingState
	p.ctx = p.ctx.parent
}

func (p *Parser) enterRecursionRule(localctx *ParserRuleContext, state, ruleIndex, precedence int) {
	p.parentContextStack = append(p.parentContextStack, parentContextPair{
		parent:        p.ctx,
		invokingState: localctx.invokingState,
	})
	p.precedenceStack = append(p.precedenceStack, precedence)
	p.state = state
	p.ctx = localctx
	p.ctx.start = p.input.LT(1)
}

func (p *Parser) popParentContext() parentContextPair {
	top := p.parentContextStack[len(p.parentContextStack)-1]
	p.parentContextStack = p.parentContextStack[:len(p.parentContextStack)-1]
	return top
}

func (p *Parser) pushNewRecursionContext(localctx *ParserRuleContext, state int) {
	previous := p.ctx
	previous.parent = localctx
	previous.invokingState = state
	previous.stop = p.input.LT(-1)

	p.ctx = localctx
	localctx.start = previous.start
	localctx.addChild(previous)
}

func (p *Parser) unrollRecursionContexts(parentCtx *ParserRuleContext) {
	p.precedenceStack = p.precedenceStack[:len(p.precedenceStack)-1]
	p.ctx.stop = p.input.LT(-1)
	retCtx := p.ctx

	p.ctx = parentCtx
	retCtx.parent = parentCtx
	if parentCtx != nil {
		parentCtx.addChild(retCtx)
	}
}

func (p *Parser) recover(e RecognitionError) error {
	i := p.input.Index()
	if abort := p.errHandler.Recover(p, e); abort != nil {
		return abort
	}
	if p.input.Index() != i {
		return nil
	}

	// Recovery consumed nothing; leave an error node so the offending
	// token is not lost from the tree.
	if ime, ok := e.(*InputMismatchError); ok {
		tok := e.OffendingToken()
		expectedTokenType := automaton.TokenInvalidType
		if !ime.Expected.IsEmpty() {
			expectedTokenType = ime.Expected.Min()
		}
		row, col := tok.Position()
		p.ctx.addErrorNode(&CommonToken{
			Type: expectedTokenType,
			Txt:  tok.Text(),
			Row:  row,
			Col:  col,
		})
		return nil
	}
	tok := e.OffendingToken()
	row, col := tok.Position()
	p.ctx.addErrorNode(&CommonToken{
		Type: automaton.TokenInvalidType,
		Txt:  tok.Text(),
		Row:  row,
		Col:  col,
	})
	return nil
}

func (p *Parser) precedence() int {
	if len(p.precedenceStack) == 0 {
		return -1
	}
	return p.precedenceStack[len(p.precedenceStack)-1]
}

func (p *Parser) atn() *automaton.ATN {
	return p.grammar.ATN
}

func (p *Parser) ruleContext() *ParserRuleContext {
	return p.ctx
}

func (p *Parser) currentToken() Token {
	return p.input.LT(1)
}

func (p *Parser) expectedTokens() *automaton.IntervalSet {
	return p.grammar.ATN.ExpectedTokens(p.state, p.ctx)
}

func (p *Parser) notifyErrorListeners(msg string, offending Token, e RecognitionError) {
	row, col := 0, 0
	if offending != nil {
		row, col = offending.Position()
	}
	var expected []string
	if p.state >= 0 && p.state < len(p.grammar.ATN.States) {
		for _, tt := range p.expectedTokens().Values() {
			expected = append(expected, p.grammar.Vocabulary.DisplayName(tt))
		}
	}
	p.synErrs = append(p.synErrs, &SyntaxError{
		Row:               row,
		Col:               col,
		Message:           msg,
		Token:             offending,
		ExpectedTerminals: expected,
	})
}

// displayIntervalSet renders a token set with vocabulary names.
func (p *Parser) displayIntervalSet(set *automaton.IntervalSet) string {
	if set.IsEmpty() {
		return "{}"
	}
	names := make([]string, 0, set.Length())
	for _, tt := range set.Values() {
		names = append(names, p.grammar.Vocabulary.DisplayName(tt))
	}
	if len(names) == 1 {
		return names[0]
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// textRange joins the text of the tokens from `start` through `stop`.
func (p *Parser) textRange(start, stop Token) string {
	i := p.tokenIndex(start)
	j := p.tokenIndex(stop)
	if i < 0 || j < 0 || j < i {
		return tokenErrorDisplay(start)
	}
	var texts []string
	for k := i; k <= j; k++ {
		t := p.input.Get(k)
		if t.TokenType() == automaton.TokenEOF {
			texts = append(texts, "<EOF>")
			continue
		}
		texts = append(texts, t.Text())
	}
	return strings.Join(texts, " ")
}

func (p *Parser) tokenIndex(tok Token) int {
	for i := 0; i < p.input.Size(); i++ {
		if p.input.Get(i) == tok {
			return i
		}
	}
	return -1
}
