package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/sirupsen/logrus"
	"github.com/soutome/atnkit/driver"
	"github.com/soutome/atnkit/prediction"
	"github.com/spf13/cobra"
)

var parseFlags = struct {
	source    *string
	startRule *string
	onlyParse *bool
	sll       *bool
	trace     *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <compiled ATN file path>",
		Short:   "Parse a text stream",
		Example: `  cat src | atnkit parse grammar.json`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.startRule = cmd.Flags().String("start-rule", "", "rule to start parsing from (default the first rule)")
	parseFlags.onlyParse = cmd.Flags().Bool("only-parse", false, "when this option is enabled, the command doesn't print a parse tree")
	parseFlags.sll = cmd.Flags().Bool("sll", false, "predict with SLL only, without the full-context fallback")
	parseFlags.trace = cmd.Flags().Bool("trace", false, "log prediction decisions to stderr")
	rootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) (retErr error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		err, ok := v.(error)
		if !ok {
			retErr = fmt.Errorf("an unexpected error occurred: %v", v)
			fmt.Fprintf(os.Stderr, "%v:\n%v", retErr, string(debug.Stack()))
			return
		}
		retErr = err
		fmt.Fprintf(os.Stderr, "%v:\n%v", retErr, string(debug.Stack()))
	}()

	compiled, err := readCompiledATN(args[0])
	if err != nil {
		return fmt.Errorf("Cannot read a compiled ATN: %w", err)
	}
	gram, err := driver.NewGrammarFromCompiled(compiled)
	if err != nil {
		return err
	}

	startRule := 0
	if *parseFlags.startRule != "" {
		startRule = gram.RuleIndex(*parseFlags.startRule)
		if startRule < 0 {
			return fmt.Errorf("start rule %v is not defined", *parseFlags.startRule)
		}
	}

	src := os.Stdin
	if *parseFlags.source != "" {
		f, err := os.Open(*parseFlags.source)
		if err != nil {
			return fmt.Errorf("Cannot open the source file %s: %w", *parseFlags.source, err)
		}
		defer f.Close()
		src = f
	}
	input, err := driver.NewTokenStreamFromCompiled(compiled, src)
	if err != nil {
		return err
	}

	var opts []driver.ParserOption
	if *parseFlags.sll {
		opts = append(opts, driver.PredictionMode(prediction.ModeSLL))
	}
	if *parseFlags.trace {
		logger := logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.DebugLevel)
		opts = append(opts, driver.TraceLogger(logger))
	}

	p, err := driver.NewParser(input, gram, opts...)
	if err != nil {
		return err
	}
	tree, err := p.Parse(startRule)
	if err != nil {
		return err
	}

	synErrs := p.SyntaxErrors()
	for _, synErr := range synErrs {
		fmt.Fprintf(os.Stderr, "%v:%v: %v", synErr.Row+1, synErr.Col+1, synErr.Message)
		if len(synErr.ExpectedTerminals) > 0 {
			fmt.Fprintf(os.Stderr, "; expected: %v", synErr.ExpectedTerminals[0])
			for _, t := range synErr.ExpectedTerminals[1:] {
				fmt.Fprintf(os.Stderr, ", %v", t)
			}
		}
		fmt.Fprintf(os.Stderr, "\n")
	}

	if !*parseFlags.onlyParse {
		driver.PrintTree(os.Stdout, tree, gram.RuleNames)
	}
	if len(synErrs) > 0 {
		return fmt.Errorf("%v syntax error(s) occurred", len(synErrs))
	}
	return nil
}
