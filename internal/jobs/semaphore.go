package jobs

import "context"

// semaphore implements a simple counting semaphore for limiting concurrency.
// A nil semaphore never blocks.
type semaphore struct {
	ch chan struct{}
}

// newSemaphore creates a semaphore with the given capacity; capacity <= 0
// means unbounded and returns nil.
func newSemaphore(capacity int) *semaphore {
	if capacity <= 0 {
		return nil
	}
	return &semaphore{
		ch: make(chan struct{}, capacity),
	}
}

// acquire acquires a semaphore slot, blocking if necessary
func (s *semaphore) acquire(ctx context.Context) error {
	if s == nil {
		return nil
	}
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release releases a semaphore slot
func (s *semaphore) release() {
	if s == nil {
		return
	}
	<-s.ch
}
