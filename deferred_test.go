package devmem_test

import (
	"context"
	"testing"
	"time"

	"github.com/gomem/devmem"
	"github.com/gomem/devmem/hostmem"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDeferredResolve(t *testing.T) {
	ctx := context.Background()
	deferred := devmem.NewDeferred(3)
	require.Equal(t, uint64(3), deferred.Size())

	// Map before the producer finishes; the future settles on Resolve.
	future := deferred.MapCurrent(ctx)
	go func() {
		time.Sleep(10 * time.Millisecond)
		must.M(deferred.Resolve(hostmem.FromBytes([]byte{1, 2, 3})))
	}()
	view, err := future.Await(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, view.Data())
	require.NoError(t, view.WriteBack(ctx))

	// Mapping after settlement takes the fast path.
	view, err = deferred.MapCurrent(ctx).Await(ctx)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, view.Data())
}

func TestDeferredRejectPropagatesToMapCurrent(t *testing.T) {
	ctx := context.Background()
	deferred := devmem.NewDeferred(8)
	cause := errors.New("upstream computation failed")

	pending := deferred.MapCurrent(ctx)
	deferred.Reject(cause)

	_, err := pending.Await(ctx)
	require.ErrorIs(t, err, cause)

	// Every later mapping observes the same failure, never a garbage view.
	_, err = deferred.MapCurrent(ctx).Await(ctx)
	require.ErrorIs(t, err, cause)
	_, err = deferred.MapDiscard(ctx)
	require.ErrorIs(t, err, cause)
	_, err = deferred.Clone()
	require.ErrorIs(t, err, cause)
}

func TestDeferredSynchronousFailuresWhilePending(t *testing.T) {
	ctx := context.Background()
	deferred := devmem.NewDeferred(8)

	_, err := deferred.MapDiscard(ctx)
	require.ErrorContains(t, err, "still being produced")
	_, err = deferred.Clone()
	require.ErrorContains(t, err, "still being produced")
}

func TestDeferredSizeMismatch(t *testing.T) {
	deferred := devmem.NewDeferred(8)
	err := deferred.Resolve(hostmem.NewBuffer(4))
	require.ErrorContains(t, err, "resolved with a buffer of")

	// The mismatch did not settle it.
	require.NoError(t, deferred.Resolve(hostmem.NewBuffer(8)))
	err = deferred.Resolve(hostmem.NewBuffer(8))
	require.ErrorContains(t, err, "already settled")
}

func TestDeferredMapCurrentCancellation(t *testing.T) {
	deferred := devmem.NewDeferred(8)
	ctx, cancel := context.WithCancel(context.Background())
	future := deferred.MapCurrent(ctx)
	cancel()
	_, err := future.Await(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}
