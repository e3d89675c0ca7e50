package store

import (
	"context"
	"fmt"
	"sync"
)

// KeyedLocker serializes work per key. Each key gets a one-slot semaphore;
// callers holding different keys never block each other.
type KeyedLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewKeyedLocker creates an empty locker
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{slots: make(map[string]*slot)}
}

// Lock waits for the key's slot and returns the release function. Release
// must be called exactly once.
func (l *KeyedLocker) Lock(ctx context.Context, key string) (func(), error) {
	s := l.acquireRef(key)

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.releaseRef(key, s)
		return nil, fmt.Errorf("waiting for lock on %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.releaseRef(key, s)
		})
	}, nil
}

// Active reports how many keys currently have holders or waiters.
func (l *KeyedLocker) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *KeyedLocker) acquireRef(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	return s
}

// releaseRef drops the slot once nobody holds or waits on it.
func (l *KeyedLocker) releaseRef(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
