package todotests

import (
	"github.com/todoapp/todo-contract-tests/client"
	"github.com/todoapp/todo-contract-tests/framework"
)

// RunTestSuite runs the full contract test suite against the service
// described by config.
func RunTestSuite(
	config client.ServiceConfig,
	filter framework.Filter,
	testLogger framework.TestLogger,
) framework.Results {
	return framework.Run(filter, testLogger, func(c *framework.Context) {
		t := newTestScope(c, &environment{config: config})

		t.Run("create", DoCreateTests)
		t.Run("read", DoReadTests)
		t.Run("update", DoUpdateTests)
		t.Run("delete", DoDeleteTests)
		t.Run("notifications", DoNotificationTests)
		t.Run("concurrency", DoConcurrencyTests)
		t.Run("load", DoLoadTests)

		t.CleanSlate()
	})
}
