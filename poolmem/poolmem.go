// Package poolmem implements the devmem interfaces backed by host memory
// recycled through size-keyed pools, with optional capacity accounting.
//
// It behaves like hostmem through the devmem contract, with two differences
// it documents explicitly:
//
//   - Allocated buffers are NOT zero-initialized: backing storage is recycled
//     and may hold bytes from a previously finalized buffer.
//   - Buffers have an explicit release point, Buffer.Finalize, which returns
//     the storage to the pool. A finalized buffer must never be used again.
//
// The backend also tracks live views per buffer: Finalize fails while views
// are outstanding, and Buffer.WaitViews blocks until every view was written
// back -- the barrier a runtime needs before handing a buffer to execution.
//
// The configuration string accepts "limit=<size>" (e.g. "limit=64MiB",
// parsed by humanize.ParseBytes) to cap the total bytes live at once;
// Allocate fails with devmem.ErrExhausted beyond the cap.
package poolmem

import (
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gomem/devmem"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
	"k8s.io/klog/v2"
)

// BackendName to be used in DEVMEM_BACKEND to select this backend.
const BackendName = "pool"

func init() {
	devmem.Register(BackendName, New)
}

// New constructs a pooled Allocator from a configuration string: empty for no
// capacity limit, or "limit=<size>" to cap total live bytes.
func New(config string) (devmem.Allocator, error) {
	var limit uint64
	for _, part := range strings.Split(config, ",") {
		if part == "" {
			continue
		}
		key, value, found := strings.Cut(part, "=")
		if !found || key != "limit" {
			return nil, errors.Errorf("unknown configuration %q for the %q backend, expected \"limit=<size>\"",
				part, BackendName)
		}
		var err error
		limit, err = humanize.ParseBytes(value)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing limit %q for the %q backend", value, BackendName)
		}
	}
	return NewAllocator(limit), nil
}

// NewAllocator returns a pooled Allocator capping total live bytes at
// limitBytes, or unlimited if limitBytes is 0.
func NewAllocator(limitBytes uint64) *Allocator {
	a := &Allocator{limitBytes: limitBytes}
	if limitBytes > 0 {
		a.limit = semaphore.NewWeighted(int64(limitBytes))
	}
	return a
}

// Allocator produces Buffers whose backing storage is recycled through
// size-keyed pools. Safe for concurrent use.
type Allocator struct {
	// pools maps size (uint64) to a *sync.Pool of []byte of that size.
	pools sync.Map

	// limit caps the total bytes live at once; nil means unlimited.
	limit      *semaphore.Weighted
	limitBytes uint64
}

var _ devmem.Allocator = (*Allocator)(nil)

// getPool for the given buffer size.
func (a *Allocator) getPool(size uint64) *sync.Pool {
	poolInterface, ok := a.pools.Load(size)
	if !ok {
		poolInterface, _ = a.pools.LoadOrStore(size, &sync.Pool{
			New: func() any {
				return make([]byte, size)
			},
		})
	}
	return poolInterface.(*sync.Pool)
}

// Allocate returns a Buffer of size bytes drawn from the pool.
//
// Contents are unspecified: the storage may be recycled from a finalized
// buffer. Callers that need zeros must write them. Fails with a wrapped
// devmem.ErrExhausted when the allocation would exceed the configured limit.
func (a *Allocator) Allocate(size uint64) (devmem.Buffer, error) {
	if a.limit != nil && !a.limit.TryAcquire(int64(size)) {
		return nil, errors.Wrapf(devmem.ErrExhausted,
			"allocating %s would exceed the %q backend limit of %s",
			humanize.IBytes(size), BackendName, humanize.IBytes(a.limitBytes))
	}
	data := a.getPool(size).Get().([]byte)
	klog.V(2).Infof("poolmem: allocated %s", humanize.IBytes(size))
	return newBuffer(a, data), nil
}

// release returns backing storage to its pool and credits the limit.
func (a *Allocator) release(data []byte) {
	a.getPool(uint64(len(data))).Put(data) //nolint:staticcheck // slices of one size share a pool
	if a.limit != nil {
		a.limit.Release(int64(len(data)))
	}
	klog.V(2).Infof("poolmem: released %s", humanize.IBytes(uint64(len(data))))
}
