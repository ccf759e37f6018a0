package driver

import (
	"testing"

	"github.com/soutome/atnkit/automaton"
)

func TestVocabulary_DisplayNameResolutionOrder(t *testing.T) {
	v := NewVocabulary(
		[]string{"", "'lit'", "", ""},
		[]string{"", "SYM1", "SYM2", ""},
		[]string{"", "shown", "", ""},
	)

	tests := []struct {
		caption   string
		tokenType int
		want      string
	}{
		{caption: "display wins", tokenType: 1, want: "shown"},
		{caption: "symbolic when no display or literal", tokenType: 2, want: "SYM2"},
		{caption: "decimal fallback", tokenType: 3, want: "3"},
		{caption: "out of range falls back to decimal", tokenType: 9, want: "9"},
		{caption: "EOF has a fixed symbolic name", tokenType: automaton.TokenEOF, want: "EOF"},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			if got := v.DisplayName(tt.tokenType); got != tt.want {
				t.Fatalf("want %v, got %v", tt.want, got)
			}
		})
	}
}

func TestVocabulary_LiteralBeforeSymbolic(t *testing.T) {
	v := NewVocabulary([]string{"", "'+'"}, []string{"", "PLUS"}, nil)
	if got := v.DisplayName(1); got != "'+'" {
		t.Fatalf("want '+', got %v", got)
	}
	if got := v.SymbolicName(1); got != "PLUS" {
		t.Fatalf("want PLUS, got %v", got)
	}
}
