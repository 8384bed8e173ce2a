package ipc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

// waitPending blocks until the channel holds n unclaimed requests.
func waitPending(t *testing.T, ch *Channel[string, string], n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for ch.Pending() != n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d pending, have %d", n, ch.Pending())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestExecuteReceiveRoundTrip(t *testing.T) {
	ch := NewChannel[string, string]()

	go func() {
		req, err := ch.Receive(context.Background())
		if err != nil {
			t.Errorf("receive: %v", err)
			return
		}
		req.Complete("pong:" + req.Command())
	}()

	resp, err := ch.Execute(context.Background(), "ping")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp != "pong:ping" {
		t.Errorf("expected pong:ping, got %q", resp)
	}
}

func TestExecuteFail(t *testing.T) {
	ch := NewChannel[string, string]()
	wantErr := errors.New("hardware fault")

	go func() {
		req, err := ch.Receive(context.Background())
		if err != nil {
			t.Errorf("receive: %v", err)
			return
		}
		req.Fail(wantErr)
	}()

	_, err := ch.Execute(context.Background(), "ping")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestFIFOMatching(t *testing.T) {
	const n = 8
	ch := NewChannel[string, string]()
	ctx := context.Background()

	// Stagger the issuers so the queue order is deterministic.
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		cmd := fmt.Sprintf("cmd-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := ch.Execute(ctx, cmd)
			if err != nil {
				t.Errorf("execute %s: %v", cmd, err)
				return
			}
			if resp != "ok:"+cmd {
				t.Errorf("response %q does not match command %q", resp, cmd)
			}
		}()
		waitPending(t, ch, i+1)
	}

	// The N-th receive must claim the N-th command.
	for i := 0; i < n; i++ {
		req, err := ch.Receive(ctx)
		if err != nil {
			t.Fatalf("receive %d: %v", i, err)
		}
		want := fmt.Sprintf("cmd-%d", i)
		if req.Command() != want {
			t.Errorf("receive %d: expected %q, got %q", i, want, req.Command())
		}
		req.Complete("ok:" + req.Command())
	}
	wg.Wait()
}

func TestConcurrentIssuersEachMatched(t *testing.T) {
	const n = 32
	ch := NewChannel[string, string]()
	ctx := context.Background()

	go func() {
		for {
			req, err := ch.Receive(ctx)
			if err != nil {
				return
			}
			req.Complete("ok:" + req.Command())
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		cmd := fmt.Sprintf("cmd-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := ch.Execute(ctx, cmd)
			if err != nil {
				t.Errorf("execute %s: %v", cmd, err)
				return
			}
			if resp != "ok:"+cmd {
				t.Errorf("response %q does not match command %q", resp, cmd)
			}
		}()
	}
	wg.Wait()
	ch.Close()
}

func TestCloseFailsPendingAndFuture(t *testing.T) {
	ch := NewChannel[string, string]()

	errc := make(chan error, 1)
	go func() {
		_, err := ch.Execute(context.Background(), "ping")
		errc <- err
	}()
	waitPending(t, ch, 1)

	ch.Close()

	if err := <-errc; !errors.Is(err, ErrChannelClosed) {
		t.Errorf("pending execute: expected ErrChannelClosed, got %v", err)
	}
	if _, err := ch.Execute(context.Background(), "ping"); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("future execute: expected ErrChannelClosed, got %v", err)
	}
	if _, err := ch.Receive(context.Background()); !errors.Is(err, ErrChannelClosed) {
		t.Errorf("receive: expected ErrChannelClosed, got %v", err)
	}

	// Close is idempotent.
	ch.Close()
}

func TestAbandonedExecuteStillCompletes(t *testing.T) {
	ch := NewChannel[string, string]()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := ch.Execute(ctx, "ping")
		errc <- err
	}()
	waitPending(t, ch, 1)
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	// The request was not dropped: the fulfiller still claims and
	// completes it, and the response is discarded without blocking.
	req, err := ch.Receive(context.Background())
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	req.Complete("discarded")

	// The channel remains usable afterwards.
	go func() {
		req, err := ch.Receive(context.Background())
		if err != nil {
			t.Errorf("receive: %v", err)
			return
		}
		req.Complete("ok")
	}()
	if resp, err := ch.Execute(context.Background(), "again"); err != nil || resp != "ok" {
		t.Errorf("execute after abandonment: resp=%q err=%v", resp, err)
	}
}

func TestCompleteExactlyOnce(t *testing.T) {
	ch := NewChannel[string, string]()

	go func() {
		req, err := ch.Receive(context.Background())
		if err != nil {
			t.Errorf("receive: %v", err)
			return
		}
		req.Complete("first")
		req.Complete("second")
		req.Fail(errors.New("late failure"))
	}()

	resp, err := ch.Execute(context.Background(), "ping")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp != "first" {
		t.Errorf("expected first completion to win, got %q", resp)
	}
}

func TestReceiveContextCancelled(t *testing.T) {
	ch := NewChannel[string, string]()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ch.Receive(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
