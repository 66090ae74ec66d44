package framework

import (
	"fmt"
	"sync"
	"time"
)

// ActorOutcome is the result of one concurrent actor's attempt at a mutating
// operation: either the backend accepted it or it was rejected. Transport
// errors count as rejections; whether the operation truly happened is always
// decided by re-reading the backend's state afterward, never by trusting the
// per-actor outcome alone.
type ActorOutcome int

const (
	OutcomeRejected ActorOutcome = iota
	OutcomeAccepted
)

func (o ActorOutcome) String() string {
	if o == OutcomeAccepted {
		return "accepted"
	}
	return "rejected"
}

// RaceResult collects the outcomes reported by each actor, indexed by actor.
type RaceResult struct {
	Outcomes []ActorOutcome
}

// Accepted returns how many actors reported success.
func (r RaceResult) Accepted() int {
	n := 0
	for _, o := range r.Outcomes {
		if o == OutcomeAccepted {
			n++
		}
	}
	return n
}

// Rejected returns how many actors reported failure.
func (r RaceResult) Rejected() int {
	return len(r.Outcomes) - r.Accepted()
}

// RunActors launches n concurrent actors, each performing one blocking
// operation, and waits for all of them to finish. Each actor receives its own
// index so it can build a distinct payload.
//
// The join is bounded: if any actor is still running after joinTimeout, an
// error is returned and the caller should treat the whole check as a hard
// failure rather than keep waiting on a hung worker. A timed-out join leaks
// the stuck goroutines, which is acceptable in a test process that is about
// to report a fatal failure anyway.
func RunActors(n int, joinTimeout time.Duration, actor func(index int) ActorOutcome) (RaceResult, error) {
	if n <= 0 {
		return RaceResult{}, fmt.Errorf("actor count must be positive, got %d", n)
	}

	outcomes := make([]ActorOutcome, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(index int) {
			defer wg.Done()
			outcomes[index] = actor(index)
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	deadline := time.NewTimer(joinTimeout)
	defer deadline.Stop()
	select {
	case <-done:
		return RaceResult{Outcomes: outcomes}, nil
	case <-deadline.C:
		return RaceResult{}, fmt.Errorf("%d concurrent actors did not all finish within %s", n, joinTimeout)
	}
}
