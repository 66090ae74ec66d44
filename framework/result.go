package framework

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// TestID identifies a test or subtest as the path of names leading to it.
type TestID struct {
	Path []string
}

func (t TestID) String() string {
	return strings.Join(t.Path, "/")
}

// TestResult is the outcome of a single test.
type TestResult struct {
	TestID  TestID
	Errors  []error
	Skipped bool
}

// Results is the outcome of a full test run.
type Results struct {
	Tests    []TestResult
	Failures []TestResult
}

// OK returns true if no tests failed.
func (r Results) OK() bool {
	return len(r.Failures) == 0
}

// FailedTestIDs returns the IDs of all failed tests, in run order.
func (r Results) FailedTestIDs() []TestID {
	var ret []TestID
	for _, f := range r.Failures {
		ret = append(ret, f.TestID)
	}
	return ret
}

// PrintResults writes a summary of the test run to dest.
func PrintResults(dest io.Writer, results Results) {
	if results.OK() {
		color.New(color.FgGreen, color.Bold).Fprintf(dest, "All %d tests passed\n", len(results.Tests))
		return
	}

	color.New(color.FgRed, color.Bold).Fprintf(dest, "FAILED %d tests out of %d:\n",
		len(results.Failures), len(results.Tests))
	for _, f := range results.Failures {
		color.New(color.FgRed).Fprintf(dest, "  %s\n", f.TestID)
		for _, err := range f.Errors {
			for _, line := range strings.Split(err.Error(), "\n") {
				fmt.Fprintf(dest, "    %s\n", line)
			}
		}
	}
}
