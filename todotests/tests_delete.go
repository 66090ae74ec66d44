package todotests

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func DoDeleteTests(t *T) {
	t.Run("deletes with valid credentials", func(t *T) {
		todo := t.CreateTestTodo(t.UniqueText("delete-basic"))

		resp, err := t.Client().DeleteTodo(todo.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		t.RequireTodoAbsent(todo.ID)
	})

	t.Run("rejects delete without credentials", func(t *T) {
		todo := t.CreateTestTodo(t.UniqueText("delete-no-auth"))

		resp, err := t.Client().DeleteTodoNoAuth(todo.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		// The entity must survive the unauthorized attempt.
		t.RequireTodoExists(todo.ID)
	})

	t.Run("rejects delete with invalid credentials", func(t *T) {
		todo := t.CreateTestTodo(t.UniqueText("delete-bad-auth"))

		resp, err := t.Client().DeleteTodoWithCredentials(todo.ID, "invalid", "invalid")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		t.RequireTodoExists(todo.ID)
	})

	t.Run("unknown id returns not found", func(t *T) {
		resp, err := t.Client().DeleteTodo(t.UniqueID())
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("negative id returns not found", func(t *T) {
		resp, err := t.Client().DeleteTodo(-t.UniqueID())
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("deleted todo is no longer retrievable", func(t *T) {
		todo := t.CreateTestTodo(t.UniqueText("delete-verify"))

		resp, err := t.Client().DeleteTodo(todo.ID)
		require.NoError(t, err)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		getResp, err := t.Client().GetTodo(todo.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, getResp.StatusCode)
	})

	t.Run("deletes several todos", func(t *T) {
		const count = 5
		var ids []int64
		for i := 0; i < count; i++ {
			ids = append(ids, t.CreateTestTodo(t.UniqueText("delete-multi")).ID)
		}
		t.RequireTodoCount(count)

		for _, id := range ids {
			resp, err := t.Client().DeleteTodo(id)
			require.NoError(t, err)
			assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		}
		t.RequireTodoCount(0)
	})
}
