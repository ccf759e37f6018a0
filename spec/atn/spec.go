package atn

import (
	mlspec "github.com/nihei9/maleeni/spec"
)

// CompiledATN is the on-disk envelope a grammar compiler emits and the
// runtime consumes: the serialized ATN payload plus the naming tables and
// an optional lexical section.
type CompiledATN struct {
	Name      string     `json:"name"`
	Lexical   *Lexical   `json:"lexical,omitempty"`
	Syntactic *Syntactic `json:"syntactic"`
}

// Lexical carries the compiled maleeni lex spec used to tokenize source
// text, with the mapping from lexical kinds to grammar token types.
type Lexical struct {
	Spec *mlspec.CompiledLexSpec `json:"spec"`

	// KindToToken maps a maleeni kind ID to a token type.
	KindToToken []int `json:"kind_to_token"`

	// Skip marks kind IDs the token source drops (whitespace, comments).
	Skip []int `json:"skip"`
}

// Syntactic carries the serialized ATN and its naming tables.
type Syntactic struct {
	// Serialized is the little-endian 16-bit unit stream produced by
	// Serialize.
	Serialized []uint16 `json:"serialized"`

	RuleNames []string `json:"rule_names"`

	// Vocabulary arrays, indexed by token type.
	LiteralNames  []string `json:"literal_names"`
	SymbolicNames []string `json:"symbolic_names"`
	DisplayNames  []string `json:"display_names"`
}
