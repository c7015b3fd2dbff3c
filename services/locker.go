package services

import (
	"context"
	"sync"
)

// KeyedLocker hands out at most one lock per key.
type KeyedLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{held: make(map[string]chan struct{})}
}

// TryLock returns ok=false immediately when key is already held.
// The returned unlock is safe to call more than once.
func (l *KeyedLocker) TryLock(key string) (unlock func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return func() {}, false
	}
	return l.acquire(key), true
}

// Lock waits until key is free or ctx is done.
func (l *KeyedLocker) Lock(ctx context.Context, key string) (unlock func(), err error) {
	for {
		l.mu.Lock()
		released, busy := l.held[key]
		if !busy {
			unlock = l.acquire(key)
			l.mu.Unlock()
			return unlock, nil
		}
		l.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// acquire must be called with mu held.
func (l *KeyedLocker) acquire(key string) func() {
	released := make(chan struct{})
	l.held[key] = released

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
			close(released)
		})
	}
}
