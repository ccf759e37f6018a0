package driver

import (
	"fmt"

	"github.com/soutome/atnkit/automaton"
	"github.com/soutome/atnkit/prediction"
)

// RecognitionError is a recoverable input-level error. The interpreter
// catches it at the failing state, records it on the rule context, and
// hands it to the error strategy.
type RecognitionError interface {
	error
	OffendingToken() Token
	Context() *ParserRuleContext
	recognitionError()
}

// InputMismatchError reports that the current token does not satisfy the
// expected set.
type InputMismatchError struct {
	Offending Token
	Ctx       *ParserRuleContext
	Expected  *automaton.IntervalSet
}

func (e *InputMismatchError) recognitionError() {}

func (e *InputMismatchError) OffendingToken() Token {
	return e.Offending
}

func (e *InputMismatchError) Context() *ParserRuleContext {
	return e.Ctx
}

func (e *InputMismatchError) Error() string {
	return fmt.Sprintf("mismatched input %v", tokenErrorDisplay(e.Offending))
}

// NoViableAltError reports that prediction exhausted every alternative.
type NoViableAltError struct {
	Offending  Token
	StartToken Token
	Ctx        *ParserRuleContext

	// Inner carries the dying configuration set and decision for
	// diagnostics.
	Inner *prediction.NoViableAltError
}

func (e *NoViableAltError) recognitionError() {}

func (e *NoViableAltError) OffendingToken() Token {
	return e.Offending
}

func (e *NoViableAltError) Context() *ParserRuleContext {
	return e.Ctx
}

func (e *NoViableAltError) Error() string {
	return fmt.Sprintf("no viable alternative at input %v", tokenErrorDisplay(e.Offending))
}

// FailedPredicateError reports a semantic or precedence predicate that
// evaluated false during interpretation.
type FailedPredicateError struct {
	Offending Token
	Ctx       *ParserRuleContext
	RuleIndex int
	PredIndex int
	Msg       string
}

func (e *FailedPredicateError) recognitionError() {}

func (e *FailedPredicateError) OffendingToken() Token {
	return e.Offending
}

func (e *FailedPredicateError) Context() *ParserRuleContext {
	return e.Ctx
}

func (e *FailedPredicateError) Error() string {
	return fmt.Sprintf("failed predicate: {%v}?", e.Msg)
}

func tokenErrorDisplay(t Token) string {
	if t == nil {
		return "<no token>"
	}
	if t.TokenType() == automaton.TokenEOF {
		return "<EOF>"
	}
	return fmt.Sprintf("'%v'", t.Text())
}
