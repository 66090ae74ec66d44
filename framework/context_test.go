package framework

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCapturingIDs(filter Filter, action func(*Context)) (Results, []TestID) {
	logger := &recordingTestLogger{}
	results := Run(filter, logger, action)
	return results, logger.skipped
}

type recordingTestLogger struct {
	started  []TestID
	skipped  []TestID
	finished []TestID
}

func (l *recordingTestLogger) TestStarted(id TestID) { l.started = append(l.started, id) }

func (l *recordingTestLogger) TestError(id TestID, err error) {}
func (l *recordingTestLogger) TestFinished(id TestID, failed bool, debugOutput CapturedOutput) {
	l.finished = append(l.finished, id)
}
func (l *recordingTestLogger) TestSkipped(id TestID, reason string) {
	l.skipped = append(l.skipped, id)
}

func TestRunRecordsPassingAndFailingTests(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("passes", func(c *Context) {})
		c.Run("fails", func(c *Context) {
			c.Errorf("something went wrong")
		})
	})

	assert.False(t, results.OK())
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "fails", results.Failures[0].TestID.String())
	require.Len(t, results.Failures[0].Errors, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "something went wrong")
}

func TestFailNowStopsTestImmediately(t *testing.T) {
	reachedAfterFailNow := false
	results := Run(nil, nil, func(c *Context) {
		c.Run("stops", func(c *Context) {
			c.Errorf("fatal problem")
			c.FailNow()
			reachedAfterFailNow = true
		})
		c.Run("still runs", func(c *Context) {})
	})

	assert.False(t, reachedAfterFailNow)
	assert.Len(t, results.Tests, 2)
	assert.Len(t, results.Failures, 1)
}

func TestRootScopeIsNotRecordedAsATest(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("only", func(c *Context) {})
	})

	require.Len(t, results.Tests, 1)
	for _, result := range results.Tests {
		assert.NotEmpty(t, result.TestID.Path)
	}
}

func TestRootScopeFailureIsStillReported(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("passes", func(c *Context) {})
		c.Errorf("cleanup after the tests failed")
	})

	assert.False(t, results.OK())
	require.Len(t, results.Failures, 1)
	assert.Empty(t, results.Failures[0].TestID.Path)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "cleanup after the tests failed")
}

func TestUnexpectedPanicBecomesFailure(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("panics", func(c *Context) {
			panic("boom")
		})
	})

	require.Len(t, results.Failures, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "boom")
}

func TestSubtestIDsAreFullPaths(t *testing.T) {
	var sawID TestID
	_ = Run(nil, nil, func(c *Context) {
		c.Run("parent", func(c *Context) {
			c.Run("child", func(c *Context) {
				sawID = c.ID()
			})
		})
	})
	assert.Equal(t, "parent/child", sawID.String())
}

func TestDeferredCleanupsRunInReverseOrderEvenOnFailure(t *testing.T) {
	var cleanups []string
	_ = Run(nil, nil, func(c *Context) {
		c.Run("fails with cleanups", func(c *Context) {
			c.Defer(func() { cleanups = append(cleanups, "first") })
			c.Defer(func() { cleanups = append(cleanups, "second") })
			c.Errorf("oops")
			c.FailNow()
		})
	})
	assert.Equal(t, []string{"second", "first"}, cleanups)
}

func TestSkippedTestIsNotAFailure(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run("skips", func(c *Context) {
			c.SkipWithReason("not applicable here")
			c.Errorf("should never be reached")
		})
	})
	assert.True(t, results.OK())
}

func TestFilterExcludesTests(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("^excluded"))

	ran := map[string]bool{}
	results, skipped := runCapturingIDs(filters.AsFilter, func(c *Context) {
		c.Run("included", func(c *Context) { ran["included"] = true })
		c.Run("excluded", func(c *Context) { ran["excluded"] = true })
	})

	assert.True(t, ran["included"])
	assert.False(t, ran["excluded"])
	require.Len(t, skipped, 1)
	assert.Equal(t, "excluded", skipped[0].String())
	assert.Len(t, results.Tests, 1)
}
