package devmem

import "github.com/pkg/errors"

// ErrNotImplemented indicates a capability the backend does not implement,
// e.g. Clone on a backend that cannot duplicate device-resident storage.
//
// It doesn't carry a stack; attach one with errors.Wrapf(ErrNotImplemented, "...")
// when returning it.
var ErrNotImplemented = errors.New("operation not implemented")

// ErrExhausted indicates the backend cannot satisfy an allocation or mapping
// request because a resource (device memory, configured capacity) ran out.
//
// It doesn't carry a stack; attach one with errors.Wrapf(ErrExhausted, "...")
// when returning it.
var ErrExhausted = errors.New("backend resources exhausted")
