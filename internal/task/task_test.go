// internal/task/task_test.go
package task

import (
	"errors"
	"testing"
	"time"
)

func TestRun_DeliversOnCompletion(t *testing.T) {
	tok := NewToken()
	done := make(chan struct{})

	var got string
	var gotErr error
	Run(tok, func() (string, error) {
		return "microos", nil
	}, func(v string, err error) {
		got, gotErr = v, err
		close(done)
	})

	<-done
	if got != "microos" || gotErr != nil {
		t.Fatalf("got=%q err=%v", got, gotErr)
	}
}

func TestRun_DeliversFailure(t *testing.T) {
	tok := NewToken()
	done := make(chan struct{})

	var gotErr error
	Run(tok, func() (string, error) {
		return "", errors.New("unreachable")
	}, func(_ string, err error) {
		gotErr = err
		close(done)
	})

	<-done
	if gotErr == nil {
		t.Fatal("expected failure delivery")
	}
}

func TestCancel_BeforeCompletionSuppressesDelivery(t *testing.T) {
	tok := NewToken()

	started := make(chan struct{})
	finished := make(chan struct{})
	delivered := make(chan struct{}, 1)

	Run(tok, func() (int, error) {
		close(started)
		time.Sleep(30 * time.Millisecond) // deliberately delayed read
		return 42, nil
	}, func(int, error) {
		delivered <- struct{}{}
	})

	<-started
	tok.Cancel()
	tok.Cancel() // idempotent

	// Let the operation complete.
	go func() {
		time.Sleep(60 * time.Millisecond)
		close(finished)
	}()
	<-finished

	select {
	case <-delivered:
		t.Fatal("cancelled operation invoked its callback")
	default:
	}
	if !tok.Cancelled() {
		t.Fatal("token not marked cancelled")
	}
}

func TestCancel_SuppressesFailureToo(t *testing.T) {
	tok := NewToken()
	delivered := make(chan struct{}, 1)
	started := make(chan struct{})

	Run(tok, func() (int, error) {
		close(started)
		time.Sleep(30 * time.Millisecond)
		return 0, errors.New("boom")
	}, func(int, error) {
		delivered <- struct{}{}
	})

	<-started
	tok.Cancel()

	time.Sleep(60 * time.Millisecond)
	select {
	case <-delivered:
		t.Fatal("cancelled operation delivered its failure")
	default:
	}
}

func TestCancel_AfterDeliveryIsHarmless(t *testing.T) {
	tok := NewToken()
	done := make(chan struct{})

	Run(tok, func() (int, error) { return 1, nil }, func(int, error) {
		close(done)
	})

	<-done
	tok.Cancel()
}

func TestRun_DeliversAtMostOnce(t *testing.T) {
	tok := NewToken()
	done := make(chan struct{})
	count := 0

	Run(tok, func() (int, error) { return 1, nil }, func(int, error) {
		count++
		close(done)
	})

	<-done
	if count != 1 {
		t.Fatalf("deliveries=%d want 1", count)
	}
}

func TestRun_CallbackMayTouchItsOwnToken(t *testing.T) {
	tok := NewToken()
	done := make(chan struct{})

	Run(tok, func() (string, error) {
		return "microos", nil
	}, func(v string, err error) {
		// A callback inspecting or cancelling its own token must not
		// deadlock against the delivery decision.
		tok.Cancel()
		if !tok.Cancelled() {
			t.Error("Cancel inside callback not observed")
		}
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("delivery deadlocked on the token")
	}
}
