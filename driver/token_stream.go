package driver

import (
	"fmt"

	"github.com/soutome/atnkit/automaton"
)

// TokenStream is a fully buffered token sequence with random access. It
// satisfies the simulator's stream interface; marks are free because the
// buffer never evicts.
type TokenStream struct {
	tokens []Token
	index  int
}

// NewTokenStream drains `src` into a buffer. The source's error, if any,
// surfaces here rather than in the middle of a parse.
func NewTokenStream(src TokenSource) (*TokenStream, error) {
	s := &TokenStream{}
	for {
		tok, err := src.Next()
		if err != nil {
			return nil, err
		}
		s.tokens = append(s.tokens, tok)
		if tok.TokenType() == automaton.TokenEOF {
			return s, nil
		}
	}
}

func (s *TokenStream) Size() int {
	return len(s.tokens)
}

func (s *TokenStream) Index() int {
	return s.index
}

// Get returns the token at absolute position `i`.
func (s *TokenStream) Get(i int) Token {
	if i < 0 || i >= len(s.tokens) {
		panic(fmt.Sprintf("token index %v out of range 0..%v", i, len(s.tokens)-1))
	}
	return s.tokens[i]
}

// LT returns the k-th lookahead token; k may be negative to look behind.
// k must not be 0.
func (s *TokenStream) LT(k int) Token {
	switch {
	case k > 0:
		i := s.index + k - 1
		if i >= len(s.tokens) {
			i = len(s.tokens) - 1
		}
		return s.tokens[i]
	case k < 0:
		i := s.index + k
		if i < 0 {
			return nil
		}
		return s.tokens[i]
	}
	panic("LT(0) is undefined")
}

// LA returns the type of the k-th lookahead token.
func (s *TokenStream) LA(k int) int {
	t := s.LT(k)
	if t == nil {
		return automaton.TokenInvalidType
	}
	return t.TokenType()
}

func (s *TokenStream) Consume() {
	if s.index < len(s.tokens)-1 {
		s.index++
	}
}

func (s *TokenStream) Seek(index int) {
	if index < 0 || index >= len(s.tokens) {
		panic(fmt.Sprintf("seek position %v out of range 0..%v", index, len(s.tokens)-1))
	}
	s.index = index
}

// Mark and Release are no-ops on a fully buffered stream; Mark returns a
// dummy marker for interface symmetry.
func (s *TokenStream) Mark() int {
	return -1
}

func (s *TokenStream) Release(marker int) {
}
