// Package kmutex provides a keyed mutex used to serialize batch operations
// per owner. Entries are reference counted and swept once idle, so transient
// coordination state stays bounded.
package kmutex

import (
	"sync"
	"time"
)

type entry struct {
	mu       sync.Mutex
	refs     int
	lastUsed time.Time
}

type KMutex struct {
	mu    sync.Mutex
	locks map[int64]*entry
}

func New() *KMutex {
	return &KMutex{
		locks: make(map[int64]*entry),
	}
}

func (k *KMutex) Lock(key int64) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

func (k *KMutex) Unlock(key int64) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("kmutex: unlock of unlocked key")
	}
	e.refs--
	e.lastUsed = time.Now()
	k.mu.Unlock()

	e.mu.Unlock()
}

// Sweep drops entries that have been idle longer than maxIdle and are not
// held. Returns the number of entries removed.
func (k *KMutex) Sweep(maxIdle time.Duration) int {
	k.mu.Lock()
	defer k.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxIdle)
	for key, e := range k.locks {
		if e.refs == 0 && e.lastUsed.Before(cutoff) {
			delete(k.locks, key)
			removed++
		}
	}
	return removed
}

func (k *KMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
