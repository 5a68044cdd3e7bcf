package devmem

import (
	"context"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// Deferred is a Buffer whose contents are still being produced by an upstream
// asynchronous operation, typically the execution of a prior program step.
//
// The producer settles it once with Resolve (handing over the backing buffer)
// or Reject (the producing operation failed). Consumers hold the Deferred as
// an ordinary Buffer: MapCurrent waits for settlement and then maps the
// backing buffer, so a producer failure surfaces on the mapping future
// exactly like a transfer failure would. MapDiscard and Clone cannot wait and
// fail synchronously while the contents are pending.
//
// The size is declared up front and the backing buffer must match it.
type Deferred struct {
	size uint64
	done chan struct{}

	mu      sync.Mutex
	settled bool
	result  Buffer
	err     error
}

var _ Buffer = (*Deferred)(nil)

// NewDeferred returns a Deferred buffer of the given declared size, to be
// settled by the producer of its contents.
func NewDeferred(size uint64) *Deferred {
	return &Deferred{size: size, done: make(chan struct{})}
}

// Resolve hands the produced backing buffer over to consumers. It fails if
// the buffer's size differs from the declared size or if the Deferred was
// already settled.
func (d *Deferred) Resolve(buffer Buffer) error {
	if buffer == nil {
		return errors.Errorf("cannot resolve deferred buffer with a nil buffer")
	}
	if buffer.Size() != d.size {
		return errors.Errorf("deferred buffer declared %s but was resolved with a buffer of %s",
			humanize.IBytes(d.size), humanize.IBytes(buffer.Size()))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settled {
		return errors.Errorf("deferred buffer already settled")
	}
	d.result = buffer
	d.settled = true
	close(d.done)
	return nil
}

// Reject records that the producing operation failed. Consumers observe err
// on every subsequent mapping attempt. Only the first settlement takes
// effect.
func (d *Deferred) Reject(err error) {
	if err == nil {
		err = errors.Errorf("deferred buffer rejected without a cause")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.settled {
		return
	}
	d.err = err
	d.settled = true
	close(d.done)
}

// Size returns the declared size, known before the contents exist.
func (d *Deferred) Size() uint64 {
	return d.size
}

// MapCurrent waits for the producer to settle the buffer and then maps the
// backing buffer's current contents. A producer failure rejects the returned
// future with the producer's error; a canceled ctx rejects it with the
// context's error.
func (d *Deferred) MapCurrent(ctx context.Context) *ViewFuture {
	select {
	case <-d.done:
		if d.err != nil {
			return RejectedViewFuture(errors.WithMessage(d.err, "buffer contents were never produced"))
		}
		return d.result.MapCurrent(ctx)
	default:
	}
	future := NewViewFuture()
	go func() {
		select {
		case <-d.done:
			if d.err != nil {
				future.Reject(errors.WithMessage(d.err, "buffer contents were never produced"))
				return
			}
			view, err := d.result.MapCurrent(ctx).Await(ctx)
			if err != nil {
				future.Reject(err)
				return
			}
			future.Resolve(view)
		case <-ctx.Done():
			future.Reject(errors.WithMessage(ctx.Err(), "awaiting deferred buffer contents"))
		}
	}()
	return future
}

// MapDiscard delegates to the backing buffer once settled. While the contents
// are pending it fails synchronously: MapDiscard is cheap by contract and
// cannot block on the producer.
func (d *Deferred) MapDiscard(ctx context.Context) (View, error) {
	select {
	case <-d.done:
	default:
		return nil, errors.Errorf("buffer contents are still being produced, MapDiscard cannot wait for them")
	}
	if d.err != nil {
		return nil, errors.WithMessage(d.err, "buffer contents were never produced")
	}
	return d.result.MapDiscard(ctx)
}

// Clone delegates to the backing buffer once settled, and fails synchronously
// while the contents are pending.
func (d *Deferred) Clone() (Buffer, error) {
	select {
	case <-d.done:
	default:
		return nil, errors.Errorf("buffer contents are still being produced, Clone cannot wait for them")
	}
	if d.err != nil {
		return nil, errors.WithMessage(d.err, "buffer contents were never produced")
	}
	return d.result.Clone()
}
