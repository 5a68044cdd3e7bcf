package devmem

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ViewFuture is the eventual result of a MapCurrent call: a mapped View or an
// error, settled exactly once by the backend fulfilling the request.
//
// Callers consume it with Await, or select on Done and then Await with an
// already-settled future to chain continuations.
type ViewFuture struct {
	once sync.Once
	done chan struct{}
	view View
	err  error
}

// NewViewFuture returns a pending future for a backend to settle with Resolve
// or Reject.
func NewViewFuture() *ViewFuture {
	return &ViewFuture{done: make(chan struct{})}
}

// ResolvedViewFuture returns a future already settled with the given view.
// Backends with no transfer to perform (host memory) use this to keep
// MapCurrent's asynchronous signature while completing immediately.
func ResolvedViewFuture(view View) *ViewFuture {
	f := NewViewFuture()
	f.Resolve(view)
	return f
}

// RejectedViewFuture returns a future already settled with the given error.
// Used for mapping requests a backend rejects before any asynchronous work
// begins.
func RejectedViewFuture(err error) *ViewFuture {
	f := NewViewFuture()
	f.Reject(err)
	return f
}

// Resolve settles the future with a mapped view. Only the first Resolve or
// Reject takes effect.
func (f *ViewFuture) Resolve(view View) {
	f.once.Do(func() {
		f.view = view
		close(f.done)
	})
}

// Reject settles the future with a non-nil error. Only the first Resolve or
// Reject takes effect.
func (f *ViewFuture) Reject(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed once the future is settled.
func (f *ViewFuture) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or ctx is canceled, whichever comes
// first, and returns the mapped View or the failure.
//
// An already-settled result is returned even if ctx is also done, so ready
// futures never fail on a dead context. A cancellation never leaves the
// caller hanging: it surfaces as the context's error.
func (f *ViewFuture) Await(ctx context.Context) (View, error) {
	select {
	case <-f.done:
		return f.view, f.err
	default:
	}
	select {
	case <-f.done:
		return f.view, f.err
	case <-ctx.Done():
		return nil, errors.WithMessage(ctx.Err(), "awaiting mapped view")
	}
}
