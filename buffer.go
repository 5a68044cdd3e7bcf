package devmem

import "context"

// View is a live mapping of a Buffer's bytes into directly accessible memory.
//
// A View is exclusively owned by the caller that requested it and is never
// shared. Its bytes are valid from creation until WriteBack returns; after
// that the backend may unmap or recycle the underlying storage and any
// further access through Data is undefined.
type View interface {
	// Data returns the mapped byte range, read/write. The slice is valid
	// only until WriteBack is called.
	Data() []byte

	// Size returns the number of bytes mapped, always <= the owning
	// Buffer's size.
	Size() int

	// WriteBack propagates any local mutation back to the buffer's
	// authoritative storage and retires the view. It is a no-op for
	// backends where the mapping already aliases canonical storage, but
	// must still be called so the backend can account for the view's
	// lifetime. After WriteBack the caller must not touch Data again.
	//
	// A mapping request issued after WriteBack returns observes the
	// written contents.
	WriteBack(ctx context.Context) error

	// String returns a read-only copy of the mapped bytes as text.
	// Meant for diagnostics, not for round-tripping binary data.
	String() string
}

// Buffer is an opaque handle to a fixed-size region of addressable storage
// whose physical location is backend specific.
//
// Buffers are shared: every holder of the handle refers to the same storage,
// and the storage lives until the last holder drops it (or the backend's
// explicit release, where it has one). Mutation only ever happens through a
// View, never directly on the Buffer.
//
// All Views derived from a Buffer must be written back before the Buffer is
// handed to program execution; violating this is caller error with undefined
// consequences.
type Buffer interface {
	// Size returns the buffer's capacity in bytes, fixed at construction.
	Size() uint64

	// MapCurrent asynchronously maps a read/write View of the buffer's
	// current contents. The mapping may require a transfer from the
	// device, so the result is delivered through a future.
	//
	// Both failure channels of the original request converge on the
	// returned future: a request the backend rejects outright comes back
	// as an already-rejected future, and a transfer (or upstream
	// computation) failure rejects the future when it is observed. Either
	// way the caller holds no usable View.
	//
	// A canceled ctx rejects the future with the context's error rather
	// than hanging.
	MapCurrent(ctx context.Context) *ViewFuture

	// MapDiscard synchronously maps a read/write View without guaranteeing
	// the buffer's prior contents are preserved. Backends use this to skip
	// the device read-back when the caller intends to overwrite the whole
	// region, so it is expected to be fast.
	MapDiscard(ctx context.Context) (View, error)

	// Clone produces an independent Buffer with the same size and
	// contents. Backends that cannot cheaply duplicate device-resident
	// storage return an ErrNotImplemented-wrapped error; see the
	// notimplemented subpackage for the embeddable default.
	Clone() (Buffer, error)
}
