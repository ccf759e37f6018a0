package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	verr "github.com/soutome/atnkit/error"
	"github.com/soutome/atnkit/tester"
	"github.com/spf13/cobra"
)

var testFlags = struct {
	startRule *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "test <compiled ATN file path> <test file path>|<test directory path>",
		Short:   "Run tree-pattern test cases against a grammar",
		Example: `  atnkit test grammar.json test`,
		Args:    cobra.ExactArgs(2),
		RunE:    runTest,
	}
	testFlags.startRule = cmd.Flags().String("start-rule", "", "rule to start parsing from (default the first rule)")
	rootCmd.AddCommand(cmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	compiled, err := readCompiledATN(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a compiled ATN: %w", err)
	}

	cs := tester.ListTestCases(args[1])
	errOccurred := false
	for _, c := range cs {
		if c.Error != nil {
			e := &verr.SourceError{
				Cause:      c.Error,
				SourceName: c.FilePath,
			}
			fmt.Fprintf(os.Stderr, "Failed to read a test case or a directory:\n%v\n", e)
			errOccurred = true
		}
	}
	if errOccurred {
		return errors.New("Cannot run test")
	}

	t := &tester.Tester{
		Compiled:  compiled,
		StartRule: *testFlags.startRule,
		Cases:     cs,
	}
	rs := t.Run()

	passed := color.New(color.FgGreen)
	failed := color.New(color.FgRed)
	testFailed := false
	for _, r := range rs {
		if r.Passed() {
			passed.Fprintf(os.Stdout, "Passed")
			fmt.Fprintf(os.Stdout, " %v\n", r.TestCasePath)
			continue
		}
		failed.Fprintf(os.Stdout, "Failed")
		msg := r.String()
		if len(msg) > len("Failed") {
			fmt.Fprintf(os.Stdout, "%v\n", msg[len("Failed"):])
		} else {
			fmt.Fprintf(os.Stdout, "\n")
		}
		testFailed = true
	}
	if testFailed {
		return errors.New("Test failed")
	}
	return nil
}
