// Package devmem defines the memory abstraction a compute runtime uses to
// allocate, map, mutate, and synchronize regions of storage that may live on
// the host, on an accelerator, or on a remote execution target.
//
// The contracts here (Buffer, View, Allocator) are capability interfaces:
// each backend implements them with its own allocation and transfer strategy,
// and registers itself by name so callers can select one at runtime. The
// hostmem subpackage is the reference backend, backed by plain host memory;
// any other backend must be observably indistinguishable from it when
// exercised through these interfaces alone.
//
// Mapping a buffer's current contents may require a device transfer, so
// Buffer.MapCurrent is asynchronous and returns a *ViewFuture. All other
// operations are synchronous. Errors are returned, never panicked, except in
// MustNew which panics with a stack trace on a misconfigured backend.
package devmem

import (
	"os"
	"sort"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"k8s.io/klog/v2"
)

// Constructor builds an Allocator for a backend, given a backend-specific
// configuration string (possibly empty).
type Constructor func(config string) (Allocator, error)

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register a backend constructor under the given name.
//
// To be safe, call Register during initialization of a package. The first
// backend registered becomes the default when no configuration names one.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// List returns the names of the registered backends, sorted.
func List() []string {
	names := maps.Keys(registeredConstructors)
	sort.Strings(names)
	return names
}

// DefaultConfig is the backend configuration to use if the environment
// variable ConfigEnvVar is not set.
var DefaultConfig string

// ConfigEnvVar is the environment variable holding the default backend
// configuration.
//
// The format of the configuration is "<backend_name>:<backend_configuration>".
// "<backend_name>" is a registered backend (e.g.: "host") and
// "<backend_configuration>" is backend specific (e.g.: for the pool backend,
// "limit=64MiB").
const ConfigEnvVar = "DEVMEM_BACKEND"

// New returns the Allocator of the default backend.
//
// The default is:
//
// 1. The environment variable ConfigEnvVar, if set.
// 2. The variable DefaultConfig, if not empty.
// 3. The first registered backend, with an empty configuration.
//
// It fails if no backend was registered.
func New() (Allocator, error) {
	if config, found := os.LookupEnv(ConfigEnvVar); found {
		return NewWithConfig(config)
	}
	if DefaultConfig != "" {
		return NewWithConfig(DefaultConfig)
	}
	return NewWithConfig("")
}

// NewWithConfig returns the Allocator of the backend selected by the given
// configuration string, formatted as "<backend_name>:<backend_configuration>".
// A configuration without a ":" is taken as a backend name alone; an empty
// configuration selects the first registered backend.
func NewWithConfig(config string) (Allocator, error) {
	if len(registeredConstructors) == 0 {
		return nil, errors.Errorf(
			`no registered backends -- maybe import the default host one with import _ "github.com/gomem/devmem/hostmem"?`)
	}
	backendName := firstRegistered
	var backendConfig string
	if idx := strings.Index(config, ":"); idx != -1 {
		backendName = config[:idx]
		backendConfig = config[idx+1:]
	} else if config != "" {
		backendName = config
	}
	constructor, found := registeredConstructors[backendName]
	if !found {
		return nil, errors.Errorf("can't find backend %q for configuration %q given, available backends are %q",
			backendName, config, List())
	}
	klog.V(1).Infof("devmem: creating backend %q with configuration %q", backendName, backendConfig)
	allocator, err := constructor(backendConfig)
	if err != nil {
		return nil, errors.WithMessagef(err, "creating backend %q", backendName)
	}
	return allocator, nil
}

// MustNew is like New but panics with a stack trace on error.
func MustNew() Allocator {
	allocator, err := New()
	if err != nil {
		exceptions.Panicf("devmem.MustNew: %+v", err)
	}
	return allocator
}
