package view

import "sync"

// OperationType tells the lock manager whether an operation only reads the
// registry or modifies it
type OperationType int

const (
	// ReadOperation runs concurrently with other reads
	ReadOperation OperationType = iota

	// WriteOperation runs exclusively
	WriteOperation
)

// lockManager centralizes the registry's read/write locking so every entry
// point takes the right lock and releases it on return, panics included.
type lockManager struct {
	mu sync.RWMutex
}

// execute runs fn under the lock for opType
func (lm *lockManager) execute(opType OperationType, fn func()) {
	switch opType {
	case ReadOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case WriteOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	fn()
}
