package driver

import (
	"strconv"

	"github.com/soutome/atnkit/automaton"
)

// Vocabulary maps token types to their literal ('+'), symbolic (PLUS), and
// display names. The arrays are indexed by token type; missing entries are
// empty strings.
type Vocabulary struct {
	Literal  []string
	Symbolic []string
	Display  []string
}

func NewVocabulary(literal, symbolic, display []string) *Vocabulary {
	return &Vocabulary{
		Literal:  literal,
		Symbolic: symbolic,
		Display:  display,
	}
}

func (v *Vocabulary) MaxTokenType() int {
	max := len(v.Literal)
	if len(v.Symbolic) > max {
		max = len(v.Symbolic)
	}
	if len(v.Display) > max {
		max = len(v.Display)
	}
	return max - 1
}

func (v *Vocabulary) LiteralName(tokenType int) string {
	if v != nil && tokenType >= 0 && tokenType < len(v.Literal) {
		return v.Literal[tokenType]
	}
	return ""
}

func (v *Vocabulary) SymbolicName(tokenType int) string {
	if tokenType == automaton.TokenEOF {
		return "EOF"
	}
	if v != nil && tokenType >= 0 && tokenType < len(v.Symbolic) {
		return v.Symbolic[tokenType]
	}
	return ""
}

// DisplayName resolves a user-facing name: display, then literal, then
// symbolic, then the decimal token type.
func (v *Vocabulary) DisplayName(tokenType int) string {
	if v != nil && tokenType >= 0 && tokenType < len(v.Display) {
		if name := v.Display[tokenType]; name != "" {
			return name
		}
	}
	if name := v.LiteralName(tokenType); name != "" {
		return name
	}
	if name := v.SymbolicName(tokenType); name != "" {
		return name
	}
	return strconv.Itoa(tokenType)
}
