// Package lock provides keyed mutual exclusion for work that must not run
// twice for the same key: an in-process implementation and a Redis one for
// several replicas sharing a scratch directory.
package lock

import (
	"context"
	"fmt"
	"sync"
)

// Release frees a held lock.
type Release func(ctx context.Context) error

// Locker acquires exclusive access to a key, blocking until the key is free
// or ctx is done.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

var _ Locker = (*Local)(nil)

// Local is an in-process keyed mutex. The zero value is not usable; use NewLocal.
type Local struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

// NewLocal creates an empty in-process locker.
func NewLocal() *Local {
	return &Local{held: make(map[string]chan struct{})}
}

// Acquire waits for key to be free. Waiters are woken when the holder
// releases and race for the key again.
func (l *Local) Acquire(ctx context.Context, key string) (Release, error) {
	for {
		l.mu.Lock()
		done, busy := l.held[key]
		if !busy {
			done = make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			return l.release(key, done), nil
		}
		l.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		}
	}
}

func (l *Local) release(key string, done chan struct{}) Release {
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
			close(done)
		})
		return nil
	}
}
