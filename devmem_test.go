package devmem_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/gomem/devmem"
	"github.com/gomem/devmem/hostmem"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"

	_ "github.com/gomem/devmem/poolmem"
)

var allocator devmem.Allocator

func init() {
	klog.InitFlags(nil)
}

func setup() {
	fmt.Printf("Available backends: %q\n", devmem.List())
	if os.Getenv(devmem.ConfigEnvVar) == "" {
		must.M(os.Setenv(devmem.ConfigEnvVar, hostmem.BackendName))
	} else {
		fmt.Printf("\t$%s=%q\n", devmem.ConfigEnvVar, os.Getenv(devmem.ConfigEnvVar))
	}
	allocator = devmem.MustNew()
}

func TestMain(m *testing.M) {
	setup()
	os.Exit(m.Run())
}

func TestList(t *testing.T) {
	require.Equal(t, []string{"host", "pool"}, devmem.List())
}

func TestNewWithConfig(t *testing.T) {
	alloc, err := devmem.NewWithConfig(hostmem.BackendName)
	require.NoError(t, err)
	require.NotNil(t, alloc)

	// Empty configuration selects the first registered backend.
	alloc, err = devmem.NewWithConfig("")
	require.NoError(t, err)
	require.NotNil(t, alloc)

	// A colon-less configuration is a backend name, not a configuration
	// for the first registered backend.
	alloc, err = devmem.NewWithConfig("pool")
	require.NoError(t, err)
	require.NotNil(t, alloc)

	_, err = devmem.NewWithConfig("quantum")
	require.ErrorContains(t, err, `can't find backend "quantum"`)
}

func TestNewWithConfigBackendConfiguration(t *testing.T) {
	// "<backend_name>:<backend_configuration>" hands the tail to the backend.
	alloc, err := devmem.NewWithConfig("pool:limit=1MiB")
	require.NoError(t, err)
	require.NotNil(t, alloc)

	_, err = devmem.NewWithConfig("pool:frobnicate=yes")
	require.ErrorContains(t, err, `creating backend "pool"`)
}

func TestAllocatorFromEnv(t *testing.T) {
	buffer := must.M1(allocator.Allocate(16))
	require.Equal(t, uint64(16), buffer.Size())
}
