package todotests

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/todoapp/todo-contract-tests/client"
	"github.com/todoapp/todo-contract-tests/framework"
	"github.com/todoapp/todo-contract-tests/notifications"
)

const (
	connectTimeout = time.Second * 5

	// How long after a create we allow the push notification to arrive.
	notificationTimeout = time.Second

	// How long we watch the channel to conclude that no notification was sent.
	noNotificationWindow = time.Second * 2

	// Fan-out size for the concurrency checks.
	concurrentActors = 5

	// If the concurrent actors have not all finished by then, something has
	// hung and the test fails outright rather than waiting forever.
	actorJoinTimeout = time.Second * 30
)

type environment struct {
	config client.ServiceConfig
}

// T represents a test or subtest in the Todo contract test suite.
//
// It implements the same basic functionality as Go's testing.T, but outside
// of the Go test runner, with per-test debug log capture provided by the
// framework package. To make assertions, pass the *T to the assert and
// require packages as if it were a *testing.T.
//
// It also carries the Todo-specific test API: a service client bound to this
// test's debug logger, and helpers for the setups and verifications that
// recur throughout the suite.
type T struct {
	context *framework.Context
	env     *environment
	client  *client.TodoServiceClient
}

func newTestScope(c *framework.Context, env *environment) *T {
	return &T{
		context: c,
		env:     env,
		client:  client.NewTodoServiceClient(env.config, c.DebugLogger()),
	}
}

// Errorf is called by assertions to log a test failure. It does not cause an
// immediate exit.
func (t *T) Errorf(format string, args ...interface{}) {
	t.context.Errorf(format, args...)
}

// FailNow is called by assertions when a test should fail and immediately
// exit. The methods in the require package call FailNow.
func (t *T) FailNow() {
	t.context.FailNow()
}

// Run runs a subtest, giving it a fresh T and an empty todo list: any todos
// left over from earlier tests are deleted first so tests are isolated from
// each other.
func (t *T) Run(name string, action func(*T)) {
	t.context.Run(name, func(c *framework.Context) {
		t1 := newTestScope(c, t.env)
		t1.CleanSlate()
		action(t1)
	})
}

// Debug logs some debug output for the test, shown only when debug output is
// enabled for the run.
func (t *T) Debug(format string, args ...interface{}) {
	t.context.Debug(format, args...)
}

// Defer registers a cleanup to run when this test ends.
func (t *T) Defer(cleanup func()) {
	t.context.Defer(cleanup)
}

// Client returns the service client for this test.
func (t *T) Client() *client.TodoServiceClient {
	return t.client
}

// CleanSlate deletes every todo in the service. Failure to clean up is fatal
// since later assertions would be meaningless.
func (t *T) CleanSlate() {
	require.NoError(t, t.client.DeleteAll(), "could not clean up todos")
}

var lastGeneratedID int64

// nextUniqueID returns a process-unique, strictly increasing id. Tests use
// these so entities from different tests can never collide even when the
// cleanup between them fails.
func nextUniqueID() int64 {
	for {
		id := time.Now().UnixMicro()
		last := atomic.LoadInt64(&lastGeneratedID)
		if id <= last {
			id = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastGeneratedID, last, id) {
			return id
		}
	}
}

// UniqueID returns an id that no other test in this process has used.
func (t *T) UniqueID() int64 {
	return nextUniqueID()
}

// UniqueText returns a text value tagged with a unique suffix.
func (t *T) UniqueText(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, nextUniqueID())
}

// CreateTestTodo creates a todo with the given text and verifies that the
// service both accepted it and lists it afterward. It fails the test
// immediately on any problem, since nothing later would make sense.
func (t *T) CreateTestTodo(text string) client.Todo {
	todo := client.Todo{ID: t.UniqueID(), Text: text, Completed: false}
	resp, err := t.client.CreateTodo(todo)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode,
		"could not create test todo %s", todo)
	t.RequireTodoExists(todo.ID)
	return todo
}

// ListTodos fetches the full todo list, failing the test if the request does
// not succeed.
func (t *T) ListTodos() []client.Todo {
	resp, err := t.client.GetTodos()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, "unexpected status listing todos")
	todos, err := resp.Todos()
	require.NoError(t, err)
	return todos
}

// RequireTodoExists asserts that the authoritative list contains a todo with
// the given id, and returns it.
func (t *T) RequireTodoExists(id int64) client.Todo {
	for _, todo := range t.ListTodos() {
		if todo.ID == id {
			return todo
		}
	}
	require.Fail(t, "todo not found", "expected todo with id %d in the list", id)
	return client.Todo{} // unreachable
}

// RequireTodoAbsent asserts that no todo with the given id is listed.
func (t *T) RequireTodoAbsent(id int64) {
	for _, todo := range t.ListTodos() {
		if todo.ID == id {
			require.Fail(t, "todo unexpectedly present",
				"todo with id %d should not exist, found %s", id, todo)
		}
	}
}

// RequireTodoCount asserts on the total number of listed todos.
func (t *T) RequireTodoCount(expected int) {
	todos := t.ListTodos()
	require.Len(t, todos, expected, "unexpected number of todos in the service")
}

// NewNotificationBuffer returns an unconnected notification client bound to
// the push endpoint of this test's client and the test's debug logger.
func (t *T) NewNotificationBuffer() *notifications.Buffer {
	return notifications.NewBuffer(t.client.Config().WSURL, t.context.DebugLogger())
}

// ConnectedNotificationBuffer returns a connected notification client that
// will be closed automatically when the test ends.
func (t *T) ConnectedNotificationBuffer() *notifications.Buffer {
	buffer := t.NewNotificationBuffer()
	require.NoError(t, buffer.Connect(connectTimeout), "could not open notification channel")
	t.Defer(func() { _ = buffer.Close() })
	return buffer
}
