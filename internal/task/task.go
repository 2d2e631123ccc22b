// internal/task/task.go
package task

import "sync"

// Token is a cooperative cancellation token for one pending read.
// States: pending -> delivered | dropped. Dropped is terminal and is
// reached when Cancel wins the race against completion; a dropped
// operation never invokes its callback. Cancellation is not an error
// and is never surfaced as one.
type Token struct {
	mu        sync.Mutex
	cancelled bool
	settled   bool
}

func NewToken() *Token {
	return &Token{}
}

// Cancel requests that the wrapped operation's result be dropped.
// Idempotent; safe after delivery (a delivered result stays delivered).
func (t *Token) Cancel() {
	t.mu.Lock()
	t.cancelled = true
	t.mu.Unlock()
}

// Cancelled reports whether Cancel has been called.
func (t *Token) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Run executes op in the background and hands its outcome to deliver,
// unless tok was cancelled first. The cancel-vs-complete decision is
// made under the token's lock at completion time, so a caller that
// cancels before completion is guaranteed zero invocations — success
// and failure outcomes alike are suppressed.
func Run[T any](tok *Token, op func() (T, error), deliver func(T, error)) {
	go func() {
		v, err := op()

		tok.mu.Lock()
		if tok.cancelled || tok.settled {
			tok.mu.Unlock()
			return
		}
		tok.settled = true
		tok.mu.Unlock()

		// Invoked outside the lock so the callback may touch its own
		// token. The settled flag above keeps delivery at-most-once.
		deliver(v, err)
	}()
}
