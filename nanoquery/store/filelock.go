package store

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// FileLock is a cross-process lock on the snapshot file
type FileLock interface {
	// TryLockContext acquires an exclusive lock, retrying until ctx ends
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)

	// TryRLockContext acquires a shared lock, retrying until ctx ends
	TryRLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)

	// Unlock releases whichever lock is held
	Unlock() error
}

// FileLockFactory creates FileLock instances
type FileLockFactory interface {
	New(path string) FileLock
}

// FlockFactory creates locks backed by github.com/gofrs/flock
type FlockFactory struct{}

// New implements FileLockFactory
func (FlockFactory) New(path string) FileLock {
	return flock.New(path)
}
