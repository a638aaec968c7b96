package broadcast

import "context"

// Waker is an edge-coalescing wake-up signal: any number of Wake calls
// with no intervening Wait collapse into a single pending wake-up, the
// same semantics as a condition variable or thread-park token.
type Waker struct {
	ch chan struct{}
}

// NewWaker creates a Waker with no pending wake-up.
func NewWaker() *Waker {
	return &Waker{ch: make(chan struct{}, 1)}
}

// Wake signals the waker without blocking. If a wake-up is already
// pending, this is a no-op.
func (w *Waker) Wake() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until Wake has been called at least once since the last
// Wait returned, or until ctx is done.
func (w *Waker) Wait(ctx context.Context) error {
	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
