package todotests

import (
	"net/http"
	"strings"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func DoReadTests(t *T) {
	t.Run("lists all todos with exact contents", func(t *T) {
		first := t.CreateTestTodo(t.UniqueText("read-first"))
		second := t.CreateTestTodo(t.UniqueText("read-second"))

		resp, err := t.Client().GetTodos()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json"),
			"unexpected content type %q", resp.Header.Get("Content-Type"))

		todos, err := resp.Todos()
		require.NoError(t, err)
		assert.Len(t, todos, 2)
		assert.Contains(t, todos, first)
		assert.Contains(t, todos, second)
	})

	t.Run("fetches a single todo by id", func(t *T) {
		created := t.CreateTestTodo(t.UniqueText("read-by-id"))

		resp, err := t.Client().GetTodo(created.ID)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		todo, err := resp.Todo()
		require.NoError(t, err)
		assert.Equal(t, created, todo)
	})

	t.Run("unknown id returns not found", func(t *T) {
		resp, err := t.Client().GetTodo(t.UniqueID())
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("empty service returns an empty list", func(t *T) {
		resp, err := t.Client().GetTodos()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		todos, err := resp.Todos()
		require.NoError(t, err)
		assert.Empty(t, todos)
	})

	t.Run("pagination with offset and limit", func(t *T) {
		var created []int64
		for i := 0; i < 5; i++ {
			todo := t.CreateTestTodo(t.UniqueText("read-page"))
			created = append(created, todo.ID)
		}

		resp, err := t.Client().GetTodosPage(1, 2)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		page, err := resp.Todos()
		require.NoError(t, err)
		require.Len(t, page, 2)
		for _, todo := range page {
			assert.Contains(t, created, todo.ID)
		}
	})

	t.Run("limit larger than list returns everything", func(t *T) {
		t.CreateTestTodo(t.UniqueText("read-limit"))

		resp, err := t.Client().GetTodosPage(0, 100)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		page, err := resp.Todos()
		require.NoError(t, err)
		assert.Len(t, page, 1)
	})
}
