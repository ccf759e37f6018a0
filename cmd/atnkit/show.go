package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/soutome/atnkit/automaton"
	"github.com/soutome/atnkit/driver"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "show <compiled ATN file path>",
		Short:   "Describe the rules, decisions, and states of an ATN",
		Example: `  atnkit show grammar.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runShow,
	}
	rootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	compiled, err := readCompiledATN(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a compiled ATN: %w", err)
	}
	gram, err := driver.NewGrammarFromCompiled(compiled)
	if err != nil {
		return err
	}
	a := gram.ATN

	fmt.Fprintf(os.Stdout, "name: %v\n", compiled.Name)
	fmt.Fprintf(os.Stdout, "grammar type: %v\n", a.GrammarType)
	fmt.Fprintf(os.Stdout, "max token type: %v\n", a.MaxTokenType)
	fmt.Fprintf(os.Stdout, "states: %v\n", len(a.States))
	fmt.Fprintf(os.Stdout, "decisions: %v\n", len(a.DecisionToState))

	fmt.Fprintf(os.Stdout, "\nrules:\n")
	for r, start := range a.RuleToStartState {
		var attrs []string
		if start.IsPrecedenceRule {
			attrs = append(attrs, "left recursive")
		}
		suffix := ""
		if len(attrs) > 0 {
			suffix = fmt.Sprintf(" (%v)", strings.Join(attrs, ", "))
		}
		fmt.Fprintf(os.Stdout, "  %4v %v: states %v..%v%v\n",
			r, gram.RuleNames[r], start.Num, a.RuleToStopState[r].Num, suffix)
	}

	fmt.Fprintf(os.Stdout, "\ndecision states:\n")
	for d, s := range a.DecisionToState {
		kind := s.Kind.String()
		if s.PrecedenceRuleDecision {
			kind += ", precedence"
		}
		fmt.Fprintf(os.Stdout, "  %4v state %v in %v (%v), %v alternatives\n",
			d, s.Num, gram.RuleNames[s.Rule], kind, len(s.Transitions))
	}

	fmt.Fprintf(os.Stdout, "\nvocabulary:\n")
	for tt := automaton.TokenMinUserType; tt <= a.MaxTokenType; tt++ {
		fmt.Fprintf(os.Stdout, "  %4v %v\n", tt, gram.Vocabulary.DisplayName(tt))
	}

	return nil
}
