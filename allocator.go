package devmem

// Allocator is a factory producing new Buffers from a backend's pool.
//
// Allocators are stateless from the caller's perspective and safe for
// concurrent use unless a concrete backend documents otherwise. Their
// lifetime is owned by whatever component configures the backend.
type Allocator interface {
	// Allocate returns a new Buffer of exactly size bytes, freshly backed.
	// Contents are unspecified -- callers must not assume zero
	// initialization unless the concrete backend documents it. Failure
	// (e.g. out of device memory) is reported as an error; it is never
	// approximated with a smaller buffer.
	Allocate(size uint64) (Buffer, error)
}
