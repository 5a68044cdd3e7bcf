package hostmem

import (
	"context"
	"sync/atomic"

	"github.com/gomem/devmem"
	"github.com/pkg/errors"
)

// Buffer is a devmem.Buffer backed by a host byte slice.
//
// Views alias the backing slice directly (the mapping is canonical), so the
// write-back ordering guarantee falls out of program order. Two live writable
// Views over the same Buffer are caller error, as for every backend.
type Buffer struct {
	data []byte
}

var _ devmem.Buffer = (*Buffer)(nil)

// NewBuffer returns a zero-initialized host Buffer of size bytes.
func NewBuffer(size uint64) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

// FromBytes returns a host Buffer initialized with a copy of data. The caller
// keeps ownership of the slice passed in.
func FromBytes(data []byte) *Buffer {
	buffer := &Buffer{data: make([]byte, len(data))}
	copy(buffer.data, data)
	return buffer
}

// Size returns the buffer's capacity in bytes.
func (b *Buffer) Size() uint64 {
	return uint64(len(b.data))
}

// MapCurrent returns an already-resolved future: there is no device to
// transfer from. The View aliases the backing storage.
func (b *Buffer) MapCurrent(ctx context.Context) *devmem.ViewFuture {
	return devmem.ResolvedViewFuture(&View{data: b.data})
}

// MapDiscard is identical to MapCurrent for this backend: with no transfer to
// skip, there is no distinction between discarding and preserving contents.
func (b *Buffer) MapDiscard(ctx context.Context) (devmem.View, error) {
	return &View{data: b.data}, nil
}

// Clone returns an independent Buffer holding a full copy of the current
// contents. Later writes to either buffer do not affect the other.
func (b *Buffer) Clone() (devmem.Buffer, error) {
	return FromBytes(b.data), nil
}

// View is a mapping of a host Buffer. It aliases the buffer's storage, which
// is already canonical, so WriteBack has nothing to flush; it only retires
// the view.
type View struct {
	data    []byte
	retired atomic.Bool
}

var _ devmem.View = (*View)(nil)

// Data returns the mapped bytes, read/write.
func (v *View) Data() []byte {
	return v.data
}

// Size returns the number of bytes mapped.
func (v *View) Size() int {
	return len(v.data)
}

// WriteBack retires the view. The view aliases the authoritative storage, so
// every write already landed there and nothing is flushed, but the caller
// must not touch Data afterward. Writing back the same view twice is an
// error.
func (v *View) WriteBack(ctx context.Context) error {
	if v.retired.Swap(true) {
		return errors.Errorf("view was already written back")
	}
	return nil
}

// String returns a copy of the mapped bytes as text, for diagnostics.
func (v *View) String() string {
	if v.retired.Load() {
		return "<retired view>"
	}
	return string(v.data)
}
