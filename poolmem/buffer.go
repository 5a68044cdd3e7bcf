package poolmem

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/gomem/devmem"
	"github.com/gomem/devmem/internal/xsync"
	"github.com/pkg/errors"
)

// Buffer is a devmem.Buffer over pooled host storage.
//
// Views alias the backing storage, like hostmem, but their lifetimes are
// counted: WriteBack retires a view, Finalize refuses to recycle the storage
// while any view is live, and WaitViews blocks until none remain.
type Buffer struct {
	alloc *Allocator
	size  uint64
	views *xsync.DynamicWaitGroup

	mu   sync.Mutex
	data []byte // nil once finalized
}

var _ devmem.Buffer = (*Buffer)(nil)

func newBuffer(alloc *Allocator, data []byte) *Buffer {
	return &Buffer{
		alloc: alloc,
		size:  uint64(len(data)),
		views: xsync.NewDynamicWaitGroup(),
		data:  data,
	}
}

// Size returns the buffer's capacity in bytes. Valid even after Finalize.
func (b *Buffer) Size() uint64 {
	return b.size
}

// mapView hands out a live view over the backing storage.
func (b *Buffer) mapView() (*View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, errors.Errorf("buffer (%d bytes) was already finalized", b.size)
	}
	b.views.Add(1)
	return &View{buffer: b, data: b.data}, nil
}

// MapCurrent maps the buffer's current contents. The storage is host
// resident, so the returned future is already settled; a request against a
// finalized buffer comes back as an already-rejected future.
func (b *Buffer) MapCurrent(ctx context.Context) *devmem.ViewFuture {
	view, err := b.mapView()
	if err != nil {
		return devmem.RejectedViewFuture(err)
	}
	return devmem.ResolvedViewFuture(view)
}

// MapDiscard maps the buffer without the contents-preservation guarantee.
// There is no transfer to skip on this backend, so the prior contents happen
// to be visible anyway; callers must not rely on that.
func (b *Buffer) MapDiscard(ctx context.Context) (devmem.View, error) {
	return b.mapView()
}

// Clone copies the buffer into a fresh pooled allocation. The copy counts
// against the allocator's capacity limit.
func (b *Buffer) Clone() (devmem.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return nil, errors.Errorf("cannot clone buffer (%d bytes), it was already finalized", b.size)
	}
	cloned, err := b.alloc.Allocate(b.size)
	if err != nil {
		return nil, errors.WithMessage(err, "cloning buffer")
	}
	copy(cloned.(*Buffer).data, b.data)
	return cloned, nil
}

// WaitViews blocks until every view mapped from the buffer was written back,
// or ctx is canceled. Call it before handing the buffer to program
// execution.
func (b *Buffer) WaitViews(ctx context.Context) error {
	return errors.WithMessage(b.views.Wait(ctx), "waiting for views to be written back")
}

// Finalize returns the backing storage to the pool. The buffer must have no
// live views and must never be used again: the storage will back future
// allocations.
//
// Callers must not race Finalize with new mapping requests on the same
// buffer.
func (b *Buffer) Finalize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.data == nil {
		return errors.Errorf("buffer (%d bytes) was already finalized", b.size)
	}
	if outstanding := b.views.Count(); outstanding > 0 {
		return errors.Errorf("cannot finalize buffer (%d bytes): %d views still outstanding",
			b.size, outstanding)
	}
	b.alloc.release(b.data)
	b.data = nil
	return nil
}

// View is a mapping of a pooled Buffer. It aliases the backing storage;
// WriteBack retires it and drops the buffer's live-view count.
type View struct {
	buffer  *Buffer
	data    []byte
	retired atomic.Bool
}

var _ devmem.View = (*View)(nil)

// Data returns the mapped bytes, read/write. Invalid once the view was
// written back.
func (v *View) Data() []byte {
	return v.data
}

// Size returns the number of bytes mapped.
func (v *View) Size() int {
	return len(v.data)
}

// WriteBack retires the view. The mapping aliases canonical storage, so
// there is nothing to flush, but the buffer's live-view count drops and a
// pending WaitViews may unblock. Writing back the same view twice is an
// error.
func (v *View) WriteBack(ctx context.Context) error {
	if v.retired.Swap(true) {
		return errors.Errorf("view was already written back")
	}
	v.buffer.views.Done()
	return nil
}

// String returns a copy of the mapped bytes as text, for diagnostics.
func (v *View) String() string {
	if v.retired.Load() {
		return "<retired view>"
	}
	return string(v.data)
}
