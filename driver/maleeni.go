package driver

import (
	"fmt"
	"io"

	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
	"github.com/soutome/atnkit/automaton"
)

// maleeniToken adapts a maleeni token to the parser's token view.
type maleeniToken struct {
	typ int
	tok *mldriver.Token
}

func (t *maleeniToken) TokenType() int {
	return t.typ
}

func (t *maleeniToken) Text() string {
	if t.tok.EOF {
		return ""
	}
	return string(t.tok.Lexeme)
}

func (t *maleeniToken) Position() (int, int) {
	return t.tok.Row, t.tok.Col
}

type maleeniTokenSource struct {
	lex         *mldriver.Lexer
	kindToToken []int
	skip        []int
}

// NewLexerTokenSource tokenizes `src` with a compiled maleeni lex spec.
// kindToToken maps maleeni kind IDs to grammar token types; kinds with a
// non-zero entry in `skip` are dropped (whitespace, comments). Invalid
// input maps to automaton.TokenInvalidType, which no parsing path accepts,
// so it surfaces as a syntax error.
func NewLexerTokenSource(spec *mlspec.CompiledLexSpec, src io.Reader, kindToToken []int, skip []int) (TokenSource, error) {
	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(spec), src)
	if err != nil {
		return nil, err
	}
	return &maleeniTokenSource{
		lex:         lex,
		kindToToken: kindToToken,
		skip:        skip,
	}, nil
}

func (s *maleeniTokenSource) Next() (Token, error) {
	for {
		tok, err := s.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			return &maleeniToken{typ: automaton.TokenEOF, tok: tok}, nil
		}
		if tok.Invalid {
			return &maleeniToken{typ: automaton.TokenInvalidType, tok: tok}, nil
		}
		kind := int(tok.KindID)
		if kind < len(s.skip) && s.skip[kind] > 0 {
			continue
		}
		if kind >= len(s.kindToToken) {
			return nil, fmt.Errorf("lexical kind %v has no token type mapping", kind)
		}
		return &maleeniToken{typ: s.kindToToken[kind], tok: tok}, nil
	}
}
