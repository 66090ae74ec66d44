package todotests

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todoapp/todo-contract-tests/client"
	"github.com/todoapp/todo-contract-tests/framework"
)

const (
	loadWorkers          = 5
	loadRequestsPerActor = 10
	loadJoinTimeout      = time.Second * 30
)

// loadStats aggregates latency observations from concurrent workers.
type loadStats struct {
	lock      sync.Mutex
	successes int
	totalTime time.Duration
	maxTime   time.Duration
}

func (s *loadStats) record(ok bool, elapsed time.Duration) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if !ok {
		return
	}
	s.successes++
	s.totalTime += elapsed
	if elapsed > s.maxTime {
		s.maxTime = elapsed
	}
}

func (s *loadStats) report(t *T, operation string, wallTime time.Duration) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	total := loadWorkers * loadRequestsPerActor
	average := time.Duration(0)
	if s.successes > 0 {
		average = s.totalTime / time.Duration(s.successes)
	}
	t.Debug("%s: %d/%d succeeded, avg %s, max %s, wall time %s",
		operation, s.successes, total, average, s.maxTime, wallTime)
	return s.successes
}

// timedCall runs one request and feeds its latency into the stats.
func timedCall(stats *loadStats, call func() bool) {
	start := time.Now()
	ok := call()
	stats.record(ok, time.Since(start))
}

func DoLoadTests(t *T) {
	t.Run("concurrent creation", func(t *T) {
		stats := &loadStats{}
		start := time.Now()

		_, err := framework.RunActors(loadWorkers, loadJoinTimeout, func(index int) framework.ActorOutcome {
			for j := 0; j < loadRequestsPerActor; j++ {
				todo := client.Todo{
					ID:        t.UniqueID(),
					Text:      fmt.Sprintf("load-create-user%d-todo%d", index, j),
					Completed: false,
				}
				timedCall(stats, func() bool {
					resp, err := t.Client().CreateTodo(todo)
					return err == nil && resp.StatusCode == http.StatusCreated
				})
			}
			return framework.OutcomeAccepted
		})
		require.NoError(t, err)

		successes := stats.report(t, "CREATE", time.Since(start))
		assert.Equal(t, loadWorkers*loadRequestsPerActor, successes)
		t.RequireTodoCount(loadWorkers * loadRequestsPerActor)
	})

	t.Run("concurrent reads", func(t *T) {
		var ids []int64
		for i := 0; i < 10; i++ {
			ids = append(ids, t.CreateTestTodo(fmt.Sprintf("load-read-todo%d", i)).ID)
		}

		stats := &loadStats{}
		start := time.Now()

		_, err := framework.RunActors(loadWorkers, loadJoinTimeout, func(index int) framework.ActorOutcome {
			for j := 0; j < loadRequestsPerActor; j++ {
				id := ids[j%len(ids)]
				timedCall(stats, func() bool {
					resp, err := t.Client().GetTodo(id)
					return err == nil && resp.StatusCode == http.StatusOK
				})
			}
			return framework.OutcomeAccepted
		})
		require.NoError(t, err)

		successes := stats.report(t, "READ", time.Since(start))
		assert.Equal(t, loadWorkers*loadRequestsPerActor, successes)
	})

	t.Run("concurrent updates", func(t *T) {
		var todos []client.Todo
		for i := 0; i < 10; i++ {
			todos = append(todos, t.CreateTestTodo(fmt.Sprintf("load-update-todo%d", i)))
		}

		stats := &loadStats{}
		start := time.Now()

		_, err := framework.RunActors(loadWorkers, loadJoinTimeout, func(index int) framework.ActorOutcome {
			for j := 0; j < loadRequestsPerActor; j++ {
				target := todos[j%len(todos)]
				updated := client.Todo{
					ID:        target.ID,
					Text:      fmt.Sprintf("updated-by-user%d-req%d", index, j),
					Completed: !target.Completed,
				}
				timedCall(stats, func() bool {
					resp, err := t.Client().UpdateTodo(target.ID, updated)
					return err == nil && resp.StatusCode == http.StatusOK
				})
			}
			return framework.OutcomeAccepted
		})
		require.NoError(t, err)

		successes := stats.report(t, "UPDATE", time.Since(start))
		assert.Equal(t, loadWorkers*loadRequestsPerActor, successes)
	})

	t.Run("concurrent deletes", func(t *T) {
		// Each worker deletes only its own todos, so every delete should
		// succeed exactly once.
		perWorker := make([][]int64, loadWorkers)
		for i := 0; i < loadWorkers; i++ {
			for j := 0; j < loadRequestsPerActor; j++ {
				perWorker[i] = append(perWorker[i],
					t.CreateTestTodo(fmt.Sprintf("load-delete-user%d-todo%d", i, j)).ID)
			}
		}

		stats := &loadStats{}
		start := time.Now()

		_, err := framework.RunActors(loadWorkers, loadJoinTimeout, func(index int) framework.ActorOutcome {
			for _, id := range perWorker[index] {
				timedCall(stats, func() bool {
					resp, err := t.Client().DeleteTodo(id)
					return err == nil && resp.StatusCode == http.StatusNoContent
				})
			}
			return framework.OutcomeAccepted
		})
		require.NoError(t, err)

		successes := stats.report(t, "DELETE", time.Since(start))
		assert.Equal(t, loadWorkers*loadRequestsPerActor, successes)
		t.RequireTodoCount(0)
	})
}
