// Package locks implements the per-entity lock table that keeps two local
// mutations of the same entity from interleaving.
//
// Locks are never waited on: Acquire fails immediately when the key is held.
// They live in memory only, so a crash drops all of them.
package locks

import "sync"

type Table struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func New() *Table {
	return &Table{held: map[string]struct{}{}}
}

// Acquire takes the lock for key and reports whether it succeeded.
func (t *Table) Acquire(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.held[key]; ok {
		return false
	}
	t.held[key] = struct{}{}
	return true
}

// Release frees key. Releasing a free key is a no-op.
func (t *Table) Release(key string) {
	t.mu.Lock()
	delete(t.held, key)
	t.mu.Unlock()
}

func (t *Table) Held(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.held[key]
	return ok
}
