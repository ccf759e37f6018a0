package tester

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/soutome/atnkit/driver"
	aspec "github.com/soutome/atnkit/spec/atn"
	"golang.org/x/sync/errgroup"
)

// TestCase is one tree-pattern test: a description, source text to parse,
// and the expected tree.
type TestCase struct {
	Description string
	Source      []byte
	Output      *Tree
}

// ParseTestCase reads a test-case file: three parts separated by `---`
// lines holding the description, the source text, and the expected tree.
func ParseTestCase(r io.Reader) (*TestCase, error) {
	parts, err := splitIntoParts(r)
	if err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("too many or too few part delimiters: a test case consists of just three parts: %v parts found", len(parts))
	}

	tree, err := ParseTree(bytes.NewReader(parts[2]))
	if err != nil {
		return nil, err
	}

	return &TestCase{
		Description: string(parts[0]),
		Source:      parts[1],
		Output:      tree,
	}, nil
}

var reDelim = regexp.MustCompile(`^\s*---+\s*$`)

func splitIntoParts(r io.Reader) ([][]byte, error) {
	var bufs [][]byte
	s := bufio.NewScanner(r)
	for {
		buf, err := readPart(s)
		if err != nil {
			return nil, err
		}
		if buf == nil {
			break
		}
		bufs = append(bufs, buf)
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return bufs, nil
}

func readPart(s *bufio.Scanner) ([]byte, error) {
	if !s.Scan() {
		return nil, s.Err()
	}
	buf := &bytes.Buffer{}
	line := s.Bytes()
	if reDelim.Match(line) {
		// Return an empty slice because (*bytes.Buffer).Bytes() returns
		// nil if we have never written data.
		return []byte{}, nil
	}
	if _, err := buf.Write(line); err != nil {
		return nil, err
	}
	for s.Scan() {
		line := s.Bytes()
		if reDelim.Match(line) {
			return buf.Bytes(), nil
		}
		if _, err := buf.Write([]byte("\n")); err != nil {
			return nil, err
		}
		if _, err := buf.Write(line); err != nil {
			return nil, err
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TestCaseWithMetadata pairs a test case with where it came from.
type TestCaseWithMetadata struct {
	TestCase *TestCase
	FilePath string
	Error    error
}

// ListTestCases walks `testPath` and parses every file found.
func ListTestCases(testPath string) []*TestCaseWithMetadata {
	fi, err := os.Stat(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	if !fi.IsDir() {
		c, err := parseTestCaseFile(testPath)
		return []*TestCaseWithMetadata{
			{
				TestCase: c,
				FilePath: testPath,
				Error:    err,
			},
		}
	}

	es, err := os.ReadDir(testPath)
	if err != nil {
		return []*TestCaseWithMetadata{
			{
				FilePath: testPath,
				Error:    err,
			},
		}
	}
	var cases []*TestCaseWithMetadata
	for _, e := range es {
		cs := ListTestCases(filepath.Join(testPath, e.Name()))
		cases = append(cases, cs...)
	}
	return cases
}

func parseTestCaseFile(testCasePath string) (*TestCase, error) {
	f, err := os.Open(testCasePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTestCase(f)
}

// TestResult is the outcome of one test case.
type TestResult struct {
	TestCasePath string
	Error        error
	Diffs        []*TreeDiff
}

func (r *TestResult) Passed() bool {
	return r.Error == nil && len(r.Diffs) == 0
}

func (r *TestResult) String() string {
	if r.Error != nil {
		const indent1 = "    "
		const indent2 = indent1 + indent1

		msgLines := strings.Split(r.Error.Error(), "\n")
		return fmt.Sprintf("Failed %v:\n%v%v", r.TestCasePath, indent1, strings.Join(msgLines, "\n"+indent1))
	}
	if len(r.Diffs) > 0 {
		const indent = "    "
		var diffLines []string
		for _, diff := range r.Diffs {
			diffLines = append(diffLines, diff.Message)
			diffLines = append(diffLines, fmt.Sprintf("%vexpected path: %v", indent, diff.ExpectedPath))
			diffLines = append(diffLines, fmt.Sprintf("%vactual path:   %v", indent, diff.ActualPath))
		}
		return fmt.Sprintf("Failed %v:\n%v%v", r.TestCasePath, indent, strings.Join(diffLines, "\n"+indent))
	}
	return fmt.Sprintf("Passed %v", r.TestCasePath)
}

// Tester runs test cases against one compiled ATN. Cases run concurrently;
// they share the compiled grammar's DFA cache but nothing else.
type Tester struct {
	Compiled  *aspec.CompiledATN
	StartRule string
	Cases     []*TestCaseWithMetadata
}

func (t *Tester) Run() []*TestResult {
	gram, err := driver.NewGrammarFromCompiled(t.Compiled)
	if err != nil {
		rs := make([]*TestResult, len(t.Cases))
		for i, c := range t.Cases {
			rs[i] = &TestResult{
				TestCasePath: c.FilePath,
				Error:        err,
			}
		}
		return rs
	}

	startRule := 0
	if t.StartRule != "" {
		startRule = gram.RuleIndex(t.StartRule)
		if startRule < 0 {
			rs := make([]*TestResult, len(t.Cases))
			for i, c := range t.Cases {
				rs[i] = &TestResult{
					TestCasePath: c.FilePath,
					Error:        fmt.Errorf("start rule %v is not defined", t.StartRule),
				}
			}
			return rs
		}
	}

	rs := make([]*TestResult, len(t.Cases))
	var eg errgroup.Group
	for i, c := range t.Cases {
		i, c := i, c
		eg.Go(func() error {
			rs[i] = runTest(t.Compiled, gram, startRule, c)
			return nil
		})
	}
	// The group never returns an error; failures land in the results.
	_ = eg.Wait()
	return rs
}

func runTest(compiled *aspec.CompiledATN, gram *driver.Grammar, startRule int, c *TestCaseWithMetadata) *TestResult {
	if c.Error != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        c.Error,
		}
	}

	input, err := driver.NewTokenStreamFromCompiled(compiled, bytes.NewReader(c.TestCase.Source))
	if err != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        errors.Wrap(err, "cannot tokenize the source"),
		}
	}
	p, err := driver.NewParser(input, gram)
	if err != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        err,
		}
	}
	tree, err := p.Parse(startRule)
	if err != nil {
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        errors.Wrap(err, "parse aborted"),
		}
	}
	if synErrs := p.SyntaxErrors(); len(synErrs) > 0 {
		var b strings.Builder
		for i, synErr := range synErrs {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%v:%v: %v", synErr.Row+1, synErr.Col+1, synErr.Message)
		}
		return &TestResult{
			TestCasePath: c.FilePath,
			Error:        fmt.Errorf("syntax error occurred:\n%v", b.String()),
		}
	}

	actual := FromParseTree(tree, gram.RuleNames).Fill()
	return &TestResult{
		TestCasePath: c.FilePath,
		Diffs:        DiffTree(c.TestCase.Output, actual),
	}
}
