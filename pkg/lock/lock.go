package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when the context ends before the lock is free.
var ErrNotAcquired = errors.New("lock not acquired")

// Release gives the lock back. It is safe to call more than once.
type Release func()

// Locker serialises work on a key, such as one booking id.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}
