package devmem

import (
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

// ConstBufferManager tracks the constant buffers identified while compiling a
// program, deduplicated by name, along with the Allocator to use when a new
// constant must be materialized.
//
// It is a registry, not a service: compilation stages pass it by reference,
// reading and populating Buffers as they hoist constant data. One is created
// per compilation and discarded when compilation completes; it is not safe
// for concurrent use.
type ConstBufferManager struct {
	// Allocator used to materialize constant buffers on demand.
	Allocator Allocator

	// Buffers maps constant name to its materialized buffer.
	Buffers map[string]Buffer
}

// NewConstBufferManager returns an empty manager materializing through the
// given allocator.
func NewConstBufferManager(allocator Allocator) *ConstBufferManager {
	return &ConstBufferManager{
		Allocator: allocator,
		Buffers:   make(map[string]Buffer),
	}
}

// Lookup returns the buffer registered under name, if any.
func (m *ConstBufferManager) Lookup(name string) (Buffer, bool) {
	buffer, found := m.Buffers[name]
	return buffer, found
}

// Intern returns the buffer registered under name, materializing and
// registering it with the given function if it is not yet present. The
// materialize function is not called when the name is already registered --
// this is the deduplication point for constants hoisted more than once.
func (m *ConstBufferManager) Intern(name string, materialize func() (Buffer, error)) (Buffer, error) {
	if buffer, found := m.Buffers[name]; found {
		return buffer, nil
	}
	buffer, err := materialize()
	if err != nil {
		return nil, errors.WithMessagef(err, "materializing constant buffer %q", name)
	}
	if m.Buffers == nil {
		m.Buffers = make(map[string]Buffer)
	}
	m.Buffers[name] = buffer
	return buffer, nil
}

// InternAnonymous registers the buffer under a freshly generated unique name
// and returns that name. Used for constants hoisted from expressions that
// carry no source-level name of their own.
func (m *ConstBufferManager) InternAnonymous(buffer Buffer) string {
	name := "const-" + uuid.NewString()
	if m.Buffers == nil {
		m.Buffers = make(map[string]Buffer)
	}
	m.Buffers[name] = buffer
	return name
}

// Names returns the registered constant names, sorted.
func (m *ConstBufferManager) Names() []string {
	names := maps.Keys(m.Buffers)
	sort.Strings(names)
	return names
}
