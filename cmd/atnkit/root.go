package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	aspec "github.com/soutome/atnkit/spec/atn"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "atnkit",
	Short: "Drive an ATN-based adaptive parser",
	Long: `atnkit interprets compiled ATN files:
- Parses a text stream and prints the parse tree.
- Describes the states, decisions, and rules of an ATN.
- Runs tree-pattern test cases against a grammar.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}

func readCompiledATN(path string) (*aspec.CompiledATN, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c aspec.CompiledATN
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "cannot parse the compiled ATN %v", path)
	}
	return &c, nil
}
