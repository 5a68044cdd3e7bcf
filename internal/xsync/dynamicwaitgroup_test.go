package xsync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWaitOnIdleGroup(t *testing.T) {
	dwg := NewDynamicWaitGroup()
	require.EqualValues(t, 0, dwg.Count())
	require.NoError(t, dwg.Wait(context.Background()))
}

func TestWaitBlocksUntilDone(t *testing.T) {
	dwg := NewDynamicWaitGroup()
	dwg.Add(2)
	require.EqualValues(t, 2, dwg.Count())

	var lastDone atomic.Bool
	go func() {
		dwg.Done()
		time.Sleep(5 * time.Millisecond)
		lastDone.Store(true)
		dwg.Done()
	}()
	require.NoError(t, dwg.Wait(context.Background()))
	require.True(t, lastDone.Load())
}

func TestCountCanRiseWhileWaiting(t *testing.T) {
	dwg := NewDynamicWaitGroup()
	dwg.Add(1)
	go func() {
		dwg.Add(1) // Raise while the waiter is blocked.
		dwg.Done()
		dwg.Done()
	}()
	require.NoError(t, dwg.Wait(context.Background()))

	// After going idle the group is reusable.
	dwg.Add(1)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.ErrorIs(t, dwg.Wait(ctx), context.DeadlineExceeded)
	dwg.Done()
}

func TestNegativeCounterPanics(t *testing.T) {
	dwg := NewDynamicWaitGroup()
	require.Panics(t, func() { dwg.Done() })
}
