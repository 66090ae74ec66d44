package todotests

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"

	"github.com/todoapp/todo-contract-tests/client"
)

func DoUpdateTests(t *T) {
	t.Run("updates the text", func(t *T) {
		existing := t.CreateTestTodo(t.UniqueText("update-text"))

		updated := existing
		updated.Text = t.UniqueText("update-text-new")
		resp, err := t.Client().UpdateTodo(existing.ID, updated)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		assert.Equal(t, updated, t.RequireTodoExists(existing.ID))
	})

	t.Run("updates the completion status", func(t *T) {
		existing := t.CreateTestTodo(t.UniqueText("update-completed"))

		updated := existing
		updated.Completed = !existing.Completed
		resp, err := t.Client().UpdateTodo(existing.ID, updated)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		assert.Equal(t, updated.Completed, t.RequireTodoExists(existing.ID).Completed)
	})

	t.Run("unknown id returns not found", func(t *T) {
		missingID := t.UniqueID()
		todo := client.Todo{ID: missingID, Text: t.UniqueText("update-missing"), Completed: false}

		resp, err := t.Client().UpdateTodo(missingID, todo)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("body id mismatched with path id is rejected", func(t *T) {
		existing := t.CreateTestTodo(t.UniqueText("update-target"))
		other := t.CreateTestTodo(t.UniqueText("update-other"))

		body := client.Todo{ID: other.ID, Text: t.UniqueText("update-mismatch"), Completed: true}
		resp, err := t.Client().UpdateTodo(existing.ID, body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode,
			"update with body id %d against path id %d should be rejected", other.ID, existing.ID)

		// Both entities must be untouched.
		assert.Equal(t, existing, t.RequireTodoExists(existing.ID))
		assert.Equal(t, other, t.RequireTodoExists(other.ID))
	})

	t.Run("missing field is rejected", func(t *T) {
		existing := t.CreateTestTodo(t.UniqueText("update-fields"))

		withoutID := existing.Fields()
		withoutID.ID = ldvalue.Null()
		withoutText := existing.Fields()
		withoutText.Text = ldvalue.Null()
		withoutCompleted := existing.Fields()
		withoutCompleted.Completed = ldvalue.Null()

		cases := map[string]client.TodoFields{
			"id":        withoutID,
			"text":      withoutText,
			"completed": withoutCompleted,
		}
		for missingField, fields := range cases {
			resp, err := t.Client().UpdateTodoFields(existing.ID, fields)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode,
				"update without %q field should be rejected", missingField)

			assert.Equal(t, existing, t.RequireTodoExists(existing.ID),
				"todo should be unchanged after rejected update without %q", missingField)
		}
	})
}
