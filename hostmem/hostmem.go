// Package hostmem implements the devmem interfaces backed by plain host
// memory.
//
// It is the default and reference backend: there is no device, so mapping
// needs no transfer, views alias the backing storage directly, and WriteBack
// is a no-op. Any accelerated backend's observable behavior through the
// devmem contract must be indistinguishable from this one, absent concurrent
// mutation.
package hostmem

import (
	"github.com/dustin/go-humanize"
	"github.com/gomem/devmem"
	"k8s.io/klog/v2"
)

// BackendName to be used in DEVMEM_BACKEND to select this backend.
const BackendName = "host"

func init() {
	devmem.Register(BackendName, New)
}

// New constructs the host memory Allocator. There are no configurations, the
// string is simply ignored.
func New(_ string) (devmem.Allocator, error) {
	return Allocator{}, nil
}

// Allocator produces Buffers backed by zero-initialized host memory. It is
// stateless and safe for concurrent use.
type Allocator struct{}

var _ devmem.Allocator = Allocator{}

// Allocate returns a new zero-initialized Buffer of size bytes.
//
// Zero initialization is documented behavior of this backend and may be
// relied upon.
func (Allocator) Allocate(size uint64) (devmem.Buffer, error) {
	klog.V(2).Infof("hostmem: allocating %s", humanize.IBytes(size))
	return NewBuffer(size), nil
}
