package todotests

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todoapp/todo-contract-tests/notifications"
)

// newTodoNotification is the payload the service pushes to every subscriber
// when a todo is created. Updates and deletes push nothing.
type newTodoNotification struct {
	Type      string `json:"type"`
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

func parseNotification(t *T, raw string) newTodoNotification {
	var n newTodoNotification
	require.NoError(t, json.Unmarshal([]byte(raw), &n), "malformed notification %q", raw)
	return n
}

// awaitNotifications blocks until the buffer holds exactly count messages and
// returns them. The buffer's wait counts only arrivals after it is armed, so
// a push that lands between the triggering request and the wait would be
// missed by a bare WaitForMessages call; re-checking the snapshot around the
// wait closes that gap.
func awaitNotifications(t *T, buffer *notifications.Buffer, count int, timeout time.Duration) []string {
	deadline := time.Now().Add(timeout)
	for {
		messages := buffer.ReceivedMessages()
		if len(messages) >= count {
			require.Len(t, messages, count, "received more notifications than expected")
			return messages
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			require.Fail(t, "notifications did not arrive",
				"wanted %d notifications within %s, have %d", count, timeout, len(messages))
		}
		buffer.WaitForMessages(count-len(messages), remaining)
	}
}

func DoNotificationTests(t *T) {
	t.Run("connection can be established", func(t *T) {
		buffer := t.ConnectedNotificationBuffer()
		assert.True(t, buffer.IsConnected())
	})

	t.Run("creation pushes one matching notification", func(t *T) {
		buffer := t.ConnectedNotificationBuffer()

		todo := t.CreateTestTodo(t.UniqueText("notify-create"))

		messages := awaitNotifications(t, buffer, 1, notificationTimeout)
		n := parseNotification(t, messages[0])
		assert.Equal(t, "new_todo", n.Type)
		assert.Equal(t, todo.ID, n.ID)
		assert.Equal(t, todo.Text, n.Text)
		assert.Equal(t, todo.Completed, n.Completed)
	})

	t.Run("each creation pushes its own notification", func(t *T) {
		buffer := t.ConnectedNotificationBuffer()

		const count = 3
		var created []int64
		for i := 0; i < count; i++ {
			created = append(created, t.CreateTestTodo(t.UniqueText("notify-multi")).ID)
		}

		var notified []int64
		for _, raw := range awaitNotifications(t, buffer, count, notificationTimeout*count) {
			notified = append(notified, parseNotification(t, raw).ID)
		}
		assert.Equal(t, created, notified, "notifications should arrive in creation order")
	})

	t.Run("update pushes nothing", func(t *T) {
		todo := t.CreateTestTodo(t.UniqueText("notify-update"))

		buffer := t.ConnectedNotificationBuffer()

		updated := todo
		updated.Text = t.UniqueText("notify-update-new")
		resp, err := t.Client().UpdateTodo(todo.ID, updated)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		assert.False(t, buffer.WaitForMessages(1, noNotificationWindow),
			"update operations must not push notifications")
		assert.Empty(t, buffer.ReceivedMessages())
	})

	t.Run("delete pushes nothing", func(t *T) {
		todo := t.CreateTestTodo(t.UniqueText("notify-delete"))

		buffer := t.ConnectedNotificationBuffer()

		resp, err := t.Client().DeleteTodo(todo.ID)
		require.NoError(t, err)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		assert.False(t, buffer.WaitForMessages(1, noNotificationWindow),
			"delete operations must not push notifications")
		assert.Empty(t, buffer.ReceivedMessages())
	})

	t.Run("reconnect resets the client without redialing", func(t *T) {
		buffer := t.ConnectedNotificationBuffer()

		t.CreateTestTodo(t.UniqueText("notify-reconnect"))
		awaitNotifications(t, buffer, 1, notificationTimeout)

		require.NoError(t, buffer.Reconnect())
		assert.False(t, buffer.IsConnected())
		assert.Empty(t, buffer.ReceivedMessages())

		// A fresh session starts only on the explicit Connect, and then
		// receives pushes again.
		require.NoError(t, buffer.Connect(connectTimeout))
		todo := t.CreateTestTodo(t.UniqueText("notify-after-reconnect"))

		messages := awaitNotifications(t, buffer, 1, notificationTimeout)
		assert.Equal(t, todo.ID, parseNotification(t, messages[0]).ID)
	})
}
