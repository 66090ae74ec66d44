package todotests

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/todoapp/todo-contract-tests/client"
)

func DoCreateTests(t *T) {
	t.Run("valid todo is created and listed", func(t *T) {
		todo := client.Todo{ID: t.UniqueID(), Text: t.UniqueText("create-basic"), Completed: false}
		resp, err := t.Client().CreateTodo(todo)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		created := t.RequireTodoExists(todo.ID)
		assert.Equal(t, todo.Text, created.Text)
		assert.False(t, created.Completed)
	})

	t.Run("todo can be created already completed", func(t *T) {
		todo := client.Todo{ID: t.UniqueID(), Text: t.UniqueText("create-completed"), Completed: true}
		resp, err := t.Client().CreateTodo(todo)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		created := t.RequireTodoExists(todo.ID)
		assert.True(t, created.Completed)
	})

	t.Run("duplicate id is rejected", func(t *T) {
		existing := t.CreateTestTodo(t.UniqueText("create-original"))

		duplicate := client.Todo{ID: existing.ID, Text: t.UniqueText("create-duplicate"), Completed: false}
		resp, err := t.Client().CreateTodo(duplicate)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode,
			"creating a second todo with id %d should be rejected", existing.ID)

		// The original entity must be untouched and the duplicate must not exist.
		kept := t.RequireTodoExists(existing.ID)
		assert.Equal(t, existing.Text, kept.Text)
		t.RequireTodoCount(1)
	})

	t.Run("missing id is rejected", func(t *T) {
		text := t.UniqueText("create-without-id")
		resp, err := t.Client().CreateTodoFields(client.TodoFields{
			Text:      ldvalue.String(text),
			Completed: ldvalue.Bool(false),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		requireNoTodoWithText(t, text)
	})

	t.Run("wrong-typed id is rejected", func(t *T) {
		text := t.UniqueText("create-string-id")
		resp, err := t.Client().CreateTodoFields(client.TodoFields{
			ID:        ldvalue.String("not-a-number"),
			Text:      ldvalue.String(text),
			Completed: ldvalue.Bool(false),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		requireNoTodoWithText(t, text)
	})

	t.Run("missing text is rejected", func(t *T) {
		id := t.UniqueID()
		resp, err := t.Client().CreateTodoFields(client.TodoFields{
			ID:        ldvalue.Float64(float64(id)),
			Completed: ldvalue.Bool(false),
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		t.RequireTodoAbsent(id)
	})
}

// requireNoTodoWithText asserts that no listed todo carries the given text,
// which is how we verify a rejected creation left no trace when the request
// had no usable id to look up.
func requireNoTodoWithText(t *T, text string) {
	for _, todo := range t.ListTodos() {
		if todo.Text == text {
			require.Fail(t, "rejected todo was created anyway", "found %s", todo)
		}
	}
}
