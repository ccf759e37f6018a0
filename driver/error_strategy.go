package driver

import (
	"fmt"

	"github.com/soutome/atnkit/automaton"
)

// ErrorStrategy decides how a parser reports and recovers from recognition
// errors.
type ErrorStrategy interface {
	// Reset puts the strategy back into its initial state for a new parse.
	Reset(p *Parser)

	// Sync resynchronizes the input at a decision point before prediction
	// runs. A non-nil error aborts the current rule.
	Sync(p *Parser) error

	// ReportError notifies listeners about `e` exactly once per error
	// burst.
	ReportError(p *Parser, e RecognitionError)

	// ReportMatch tells the strategy a token matched, ending any error
	// burst.
	ReportMatch(p *Parser)

	// Recover consumes input until the parser can plausibly continue. A
	// non-nil return aborts the parse.
	Recover(p *Parser, e RecognitionError) error

	// RecoverInline repairs a failed match, returning the matched or
	// conjured-up token, or an error when inline repair is impossible.
	RecoverInline(p *Parser) (Token, error)

	// InErrorRecoveryMode reports whether the strategy is inside an error
	// burst.
	InErrorRecoveryMode(p *Parser) bool
}

// DefaultErrorStrategy recovers with single-token deletion and insertion
// at match sites and resync-set consumption elsewhere. One strategy value
// belongs to one parser.
type DefaultErrorStrategy struct {
	errorRecoveryMode bool
	lastErrorIndex    int
	lastErrorStates   map[int]bool
}

func NewDefaultErrorStrategy() *DefaultErrorStrategy {
	return &DefaultErrorStrategy{
		lastErrorIndex: -1,
	}
}

func (s *DefaultErrorStrategy) Reset(p *Parser) {
	s.errorRecoveryMode = false
	s.lastErrorIndex = -1
	s.lastErrorStates = nil
}

func (s *DefaultErrorStrategy) beginErrorCondition(p *Parser) {
	s.errorRecoveryMode = true
}

func (s *DefaultErrorStrategy) endErrorCondition(p *Parser) {
	s.errorRecoveryMode = false
	s.lastErrorIndex = -1
	s.lastErrorStates = nil
}

func (s *DefaultErrorStrategy) InErrorRecoveryMode(p *Parser) bool {
	return s.errorRecoveryMode
}

func (s *DefaultErrorStrategy) ReportMatch(p *Parser) {
	s.endErrorCondition(p)
}

func (s *DefaultErrorStrategy) ReportError(p *Parser, e RecognitionError) {
	if s.errorRecoveryMode {
		// Only one report per burst.
		return
	}
	s.beginErrorCondition(p)
	switch err := e.(type) {
	case *NoViableAltError:
		s.reportNoViableAlternative(p, err)
	case *InputMismatchError:
		s.reportInputMismatch(p, err)
	case *FailedPredicateError:
		s.reportFailedPredicate(p, err)
	default:
		p.notifyErrorListeners(e.Error(), e.OffendingToken(), e)
	}
}

func (s *DefaultErrorStrategy) reportNoViableAlternative(p *Parser, e *NoViableAltError) {
	input := "<unknown input>"
	if e.StartToken != nil {
		if e.StartToken.TokenType() == automaton.TokenEOF {
			input = "<EOF>"
		} else {
			input = p.textRange(e.StartToken, e.Offending)
		}
	}
	msg := fmt.Sprintf("no viable alternative at input %v", input)
	p.notifyErrorListeners(msg, e.Offending, e)
}

func (s *DefaultErrorStrategy) reportInputMismatch(p *Parser, e *InputMismatchError) {
	msg := fmt.Sprintf("mismatched input %v expecting %v",
		tokenErrorDisplay(e.Offending), p.displayIntervalSet(e.Expected))
	p.notifyErrorListeners(msg, e.Offending, e)
}

func (s *DefaultErrorStrategy) reportFailedPredicate(p *Parser, e *FailedPredicateError) {
	msg := fmt.Sprintf("rule %v %v", ruleName(p.grammar.RuleNames, e.Ctx.ruleIndex), e.Error())
	p.notifyErrorListeners(msg, e.Offending, e)
}

func (s *DefaultErrorStrategy) reportUnwantedToken(p *Parser) {
	if s.errorRecoveryMode {
		return
	}
	s.beginErrorCondition(p)
	t := p.currentToken()
	msg := fmt.Sprintf("extraneous input %v expecting %v",
		tokenErrorDisplay(t), p.displayIntervalSet(p.expectedTokens()))
	p.notifyErrorListeners(msg, t, nil)
}

func (s *DefaultErrorStrategy) reportMissingToken(p *Parser) {
	if s.errorRecoveryMode {
		return
	}
	s.beginErrorCondition(p)
	t := p.currentToken()
	expecting := p.expectedTokens()
	msg := fmt.Sprintf("missing %v at %v",
		p.displayIntervalSet(expecting), tokenErrorDisplay(t))
	p.notifyErrorListeners(msg, t, nil)
}

func (s *DefaultErrorStrategy) Sync(p *Parser) error {
	if s.errorRecoveryMode {
		return nil
	}
	st := p.atn().States[p.state]
	la := p.input.LA(1)
	next := p.atn().NextTokens(st)
	if next.Contains(la) || next.Contains(automaton.TokenEpsilon) {
		return nil
	}

	switch st.Kind {
	case automaton.StateKindBlockStart, automaton.StateKindStarBlockStart,
		automaton.StateKindPlusBlockStart, automaton.StateKindPlusLoopBack:
		if s.singleTokenDeletion(p) != nil {
			return nil
		}
		return &InputMismatchError{
			Offending: p.currentToken(),
			Ctx:       p.ruleContext(),
			Expected:  p.expectedTokens(),
		}
	case automaton.StateKindStarLoopBack:
		s.reportUnwantedToken(p)
		expecting := p.expectedTokens()
		expecting.AddSet(s.errorRecoverySet(p))
		s.consumeUntil(p, expecting)
	}
	return nil
}

func (s *DefaultErrorStrategy) Recover(p *Parser, e RecognitionError) error {
	if s.lastErrorStates[p.state] && s.lastErrorIndex == p.input.Index() {
		// The previous recovery got stuck on this exact token; force
		// progress.
		p.consume()
	}
	s.lastErrorIndex = p.input.Index()
	if s.lastErrorStates == nil {
		s.lastErrorStates = map[int]bool{}
	}
	s.lastErrorStates[p.state] = true
	s.consumeUntil(p, s.errorRecoverySet(p))
	return nil
}

func (s *DefaultErrorStrategy) RecoverInline(p *Parser) (Token, error) {
	if matched := s.singleTokenDeletion(p); matched != nil {
		p.consume()
		return matched, nil
	}
	if s.singleTokenInsertion(p) {
		return s.missingSymbol(p), nil
	}
	return nil, &InputMismatchError{
		Offending: p.currentToken(),
		Ctx:       p.ruleContext(),
		Expected:  p.expectedTokens(),
	}
}

// singleTokenDeletion returns the token after the current one when
// deleting the current token lets the parse continue, nil otherwise.
func (s *DefaultErrorStrategy) singleTokenDeletion(p *Parser) Token {
	nextTokenType := p.input.LA(2)
	expecting := p.expectedTokens()
	if !expecting.Contains(nextTokenType) {
		return nil
	}
	s.reportUnwantedToken(p)
	p.consume()
	matched := p.currentToken()
	s.ReportMatch(p)
	return matched
}

// singleTokenInsertion reports whether conjuring up the missing token and
// continuing from the state after the match would succeed.
func (s *DefaultErrorStrategy) singleTokenInsertion(p *Parser) bool {
	currentSymbol := p.input.LA(1)
	currentState := p.atn().States[p.state]
	next := currentState.Transitions[0].Target
	expectingAtLL2 := p.atn().ExpectedTokens(next.Num, p.ruleContext())
	if expectingAtLL2.Contains(currentSymbol) {
		s.reportMissingToken(p)
		return true
	}
	return false
}

func (s *DefaultErrorStrategy) missingSymbol(p *Parser) Token {
	expecting := p.expectedTokens()
	expectedTokenType := automaton.TokenInvalidType
	if !expecting.IsEmpty() {
		expectedTokenType = expecting.Min()
	}
	var text string
	if expectedTokenType == automaton.TokenEOF {
		text = "<missing EOF>"
	} else {
		text = fmt.Sprintf("<missing %v>", p.grammar.Vocabulary.DisplayName(expectedTokenType))
	}
	row, col := 0, 0
	if cur := p.currentToken(); cur != nil {
		row, col = cur.Position()
	}
	return &CommonToken{
		Type: expectedTokenType,
		Txt:  text,
		Row:  row,
		Col:  col,
	}
}

// errorRecoverySet unions the follow sets along the rule-invocation chain.
func (s *DefaultErrorStrategy) errorRecoverySet(p *Parser) *automaton.IntervalSet {
	recoverSet := automaton.NewIntervalSet()
	ctx := p.ruleContext()
	for ctx != nil && ctx.invokingState >= 0 {
		invokingState := p.atn().States[ctx.invokingState]
		rt := invokingState.Transitions[0]
		follow := p.atn().NextTokens(rt.FollowState)
		recoverSet.AddSet(follow)
		ctx = ctx.parent
	}
	recoverSet.Remove(automaton.TokenEpsilon)
	return recoverSet
}

func (s *DefaultErrorStrategy) consumeUntil(p *Parser, set *automaton.IntervalSet) {
	for {
		ttype := p.input.LA(1)
		if ttype == automaton.TokenEOF || set.Contains(ttype) {
			return
		}
		p.consume()
	}
}

// BailErrorStrategy aborts the parse at the first recognition error
// instead of recovering.
type BailErrorStrategy struct {
	DefaultErrorStrategy
}

func NewBailErrorStrategy() *BailErrorStrategy {
	return &BailErrorStrategy{}
}

func (s *BailErrorStrategy) Sync(p *Parser) error {
	return nil
}

func (s *BailErrorStrategy) Recover(p *Parser, e RecognitionError) error {
	return e
}

func (s *BailErrorStrategy) RecoverInline(p *Parser) (Token, error) {
	return nil, &InputMismatchError{
		Offending: p.currentToken(),
		Ctx:       p.ruleContext(),
		Expected:  p.expectedTokens(),
	}
}
