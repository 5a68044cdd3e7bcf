// Package xsync holds synchronization helpers used by the devmem backends.
package xsync

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// DynamicWaitGroup is a WaitGroup-like counter whose count may be raised
// again while waiters are blocked, and whose Wait honors a context.
//
// Backends use it to count live views on a buffer: Add on map, Done on
// write-back, Wait before handing the buffer to execution.
type DynamicWaitGroup struct {
	mu    sync.Mutex
	count int64

	// idle is closed whenever count reaches zero and replaced when it
	// rises again; waiters block on the channel current at call time.
	idle chan struct{}
}

// NewDynamicWaitGroup returns a DynamicWaitGroup with a zero counter.
func NewDynamicWaitGroup() *DynamicWaitGroup {
	dwg := &DynamicWaitGroup{idle: make(chan struct{})}
	close(dwg.idle)
	return dwg
}

// Add changes the counter by delta. It panics if the counter would go
// negative, like the standard WaitGroup.
func (dwg *DynamicWaitGroup) Add(delta int) {
	dwg.mu.Lock()
	defer dwg.mu.Unlock()
	newCount := dwg.count + int64(delta)
	if newCount < 0 {
		panic(errors.Errorf("DynamicWaitGroup: negative counter"))
	}
	if dwg.count == 0 && newCount > 0 {
		dwg.idle = make(chan struct{})
	} else if dwg.count > 0 && newCount == 0 {
		close(dwg.idle)
	}
	dwg.count = newCount
}

// Done decrements the counter by one.
func (dwg *DynamicWaitGroup) Done() {
	dwg.Add(-1)
}

// Count returns the current counter value.
func (dwg *DynamicWaitGroup) Count() int64 {
	dwg.mu.Lock()
	defer dwg.mu.Unlock()
	return dwg.count
}

// Wait blocks until the counter reaches zero or ctx is canceled. A nil
// return means the counter was zero at some instant after the call; it may
// have been raised again since.
func (dwg *DynamicWaitGroup) Wait(ctx context.Context) error {
	dwg.mu.Lock()
	idle := dwg.idle
	dwg.mu.Unlock()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
