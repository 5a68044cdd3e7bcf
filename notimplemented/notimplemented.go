// Package notimplemented implements the devmem interfaces with operations
// that all return a "not implemented" error.
//
// Embed its types to bootstrap a new backend: override what the backend
// supports and inherit the default failure for the rest. In particular,
// embedding Buffer gives a backend the default Clone contract -- most device
// backends cannot cheaply duplicate device-resident storage.
package notimplemented

import (
	"context"

	"github.com/gomem/devmem"
	"github.com/pkg/errors"
)

// NotImplementedError is returned, wrapped, by every method.
//
// It doesn't contain a stack, attach a stack to it with
// errors.Wrapf(NotImplementedError, "...") when using it.
var NotImplementedError = devmem.ErrNotImplemented

// Buffer returns NotImplementedError from every operation. Size reports 0;
// backends always override Size.
type Buffer struct{}

var _ devmem.Buffer = Buffer{}

// Size returns 0.
func (Buffer) Size() uint64 { return 0 }

// MapCurrent returns a future rejected with NotImplementedError.
func (Buffer) MapCurrent(ctx context.Context) *devmem.ViewFuture {
	return devmem.RejectedViewFuture(errors.Wrapf(NotImplementedError, "in MapCurrent()"))
}

// MapDiscard returns NotImplementedError.
func (Buffer) MapDiscard(ctx context.Context) (devmem.View, error) {
	return nil, errors.Wrapf(NotImplementedError, "in MapDiscard()")
}

// Clone returns NotImplementedError.
func (Buffer) Clone() (devmem.Buffer, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Clone()")
}

// View returns NotImplementedError from WriteBack and maps no bytes.
type View struct{}

var _ devmem.View = View{}

// Data returns nil.
func (View) Data() []byte { return nil }

// Size returns 0.
func (View) Size() int { return 0 }

// WriteBack returns NotImplementedError.
func (View) WriteBack(ctx context.Context) error {
	return errors.Wrapf(NotImplementedError, "in WriteBack()")
}

// String describes the view as unmapped.
func (View) String() string { return "<unmapped view>" }

// Allocator returns NotImplementedError from Allocate.
type Allocator struct{}

var _ devmem.Allocator = Allocator{}

// Allocate returns NotImplementedError.
func (Allocator) Allocate(size uint64) (devmem.Buffer, error) {
	return nil, errors.Wrapf(NotImplementedError, "in Allocate()")
}
