package ipc

import (
	"context"
	"errors"
	"sync"
)

// Channel errors.
var (
	ErrChannelClosed = errors.New("channel is closed")
)

// result carries the outcome of one completed request.
type result[R any] struct {
	resp R
	err  error
}

// Request is the fulfiller-side handle for one claimed command.
// It must be completed exactly once with Complete or Fail; further
// completions are ignored.
type Request[C, R any] struct {
	cmd  C
	done chan result[R]
	once sync.Once
}

// Command returns the command carried by the request.
func (r *Request[C, R]) Command() C {
	return r.cmd
}

// Complete resolves the matching Execute call with a response.
func (r *Request[C, R]) Complete(resp R) {
	r.once.Do(func() {
		r.done <- result[R]{resp: resp}
	})
}

// Fail resolves the matching Execute call with an error.
func (r *Request[C, R]) Fail(err error) {
	r.once.Do(func() {
		r.done <- result[R]{err: err}
	})
}

// Channel is a single-outstanding request/response rendezvous between
// an issuing task and a fulfilling task.
type Channel[C, R any] struct {
	mu      sync.Mutex
	queue   []*Request[C, R]
	arrival chan struct{} // closed and replaced on every enqueue
	closed  bool
}

// NewChannel creates a new, open channel.
func NewChannel[C, R any]() *Channel[C, R] {
	return &Channel[C, R]{
		arrival: make(chan struct{}),
	}
}

// Execute submits a command and blocks until the fulfilling side
// completes it, returning the response. Concurrent callers are serviced
// in call order; no request is dropped or superseded.
//
// There is no built-in timeout. If ctx is cancelled while waiting, the
// call returns ctx.Err(); the request is still eventually completed by
// the fulfilling side and its response is discarded.
func (ch *Channel[C, R]) Execute(ctx context.Context, cmd C) (R, error) {
	var zero R

	// Buffered so a late completion after cancellation never blocks
	// the fulfiller.
	req := &Request[C, R]{cmd: cmd, done: make(chan result[R], 1)}

	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return zero, ErrChannelClosed
	}
	ch.queue = append(ch.queue, req)
	close(ch.arrival)
	ch.arrival = make(chan struct{})
	ch.mu.Unlock()

	select {
	case res := <-req.done:
		return res.resp, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Receive blocks until a request is available and claims it.
// The returned handle must be completed exactly once.
func (ch *Channel[C, R]) Receive(ctx context.Context) (*Request[C, R], error) {
	for {
		ch.mu.Lock()
		if ch.closed {
			ch.mu.Unlock()
			return nil, ErrChannelClosed
		}
		if len(ch.queue) > 0 {
			req := ch.queue[0]
			ch.queue = ch.queue[1:]
			ch.mu.Unlock()
			return req, nil
		}
		arrival := ch.arrival
		ch.mu.Unlock()

		select {
		case <-arrival:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Pending returns the number of submitted requests not yet claimed by
// the fulfilling side.
func (ch *Channel[C, R]) Pending() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.queue)
}

// Close marks the fulfilling side as permanently gone. Queued and
// future Execute calls fail with ErrChannelClosed. Requests already
// claimed via Receive must still be completed by their holder.
// Close is safe to call multiple times.
func (ch *Channel[C, R]) Close() {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return
	}
	ch.closed = true
	pending := ch.queue
	ch.queue = nil
	close(ch.arrival)
	ch.mu.Unlock()

	for _, req := range pending {
		req.Fail(ErrChannelClosed)
	}
}
