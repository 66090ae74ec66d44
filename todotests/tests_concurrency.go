package todotests

import (
	"fmt"
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todoapp/todo-contract-tests/client"
	"github.com/todoapp/todo-contract-tests/framework"
)

func DoConcurrencyTests(t *T) {
	t.Run("same id has exactly one winner", func(t *T) {
		sharedID := t.UniqueID()

		// Response codes from racing calls against a possibly non-atomic
		// backend cannot be trusted to identify the winner, so the assertion
		// is on the authoritative end state only: exactly one entity with
		// the contested id, no matter what each actor was told.
		result, err := framework.RunActors(concurrentActors, actorJoinTimeout, func(index int) framework.ActorOutcome {
			todo := client.Todo{
				ID:        sharedID,
				Text:      fmt.Sprintf("contender-%d", index),
				Completed: false,
			}
			resp, err := t.Client().CreateTodo(todo)
			if err != nil || resp.StatusCode != http.StatusCreated {
				return framework.OutcomeRejected
			}
			return framework.OutcomeAccepted
		})
		require.NoError(t, err)
		t.Debug("actor outcomes: %d accepted, %d rejected", result.Accepted(), result.Rejected())

		t.RequireTodoExists(sharedID)
		t.RequireTodoCount(1)
	})

	t.Run("distinct ids all succeed", func(t *T) {
		ids := make([]int64, concurrentActors)
		texts := make([]string, concurrentActors)
		for i := range ids {
			ids[i] = t.UniqueID()
			texts[i] = fmt.Sprintf("worker-%d-todo", i)
		}

		result, err := framework.RunActors(concurrentActors, actorJoinTimeout, func(index int) framework.ActorOutcome {
			todo := client.Todo{ID: ids[index], Text: texts[index], Completed: false}
			resp, err := t.Client().CreateTodo(todo)
			if err != nil || resp.StatusCode != http.StatusCreated {
				return framework.OutcomeRejected
			}
			return framework.OutcomeAccepted
		})
		require.NoError(t, err)
		assert.Equal(t, concurrentActors, result.Accepted(), "all non-conflicting creations should succeed")

		t.RequireTodoCount(concurrentActors)
		for i, id := range ids {
			created := t.RequireTodoExists(id)
			assert.Equal(t, texts[i], created.Text, "todo %d should carry its own actor's text", id)
		}
	})
}
