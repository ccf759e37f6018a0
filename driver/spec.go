package driver

import (
	"fmt"
	"io"

	aspec "github.com/soutome/atnkit/spec/atn"
)

// NewGrammarFromCompiled deserializes a compiled ATN envelope into a
// Grammar ready to drive parsers.
func NewGrammarFromCompiled(c *aspec.CompiledATN) (*Grammar, error) {
	if c.Syntactic == nil {
		return nil, fmt.Errorf("compiled ATN %v has no syntactic section", c.Name)
	}
	a, err := aspec.Deserialize(c.Syntactic.Serialized)
	if err != nil {
		return nil, err
	}
	if len(c.Syntactic.RuleNames) != a.RuleCount() {
		return nil, fmt.Errorf("compiled ATN %v names %v rules but the ATN has %v", c.Name, len(c.Syntactic.RuleNames), a.RuleCount())
	}
	vocab := NewVocabulary(c.Syntactic.LiteralNames, c.Syntactic.SymbolicNames, c.Syntactic.DisplayNames)
	return NewGrammar(a, vocab, c.Syntactic.RuleNames), nil
}

// NewTokenStreamFromCompiled tokenizes `src` with the envelope's lexical
// section and buffers the result.
func NewTokenStreamFromCompiled(c *aspec.CompiledATN, src io.Reader) (*TokenStream, error) {
	if c.Lexical == nil {
		return nil, fmt.Errorf("compiled ATN %v has no lexical section", c.Name)
	}
	ts, err := NewLexerTokenSource(c.Lexical.Spec, src, c.Lexical.KindToToken, c.Lexical.Skip)
	if err != nil {
		return nil, err
	}
	return NewTokenStream(ts)
}
