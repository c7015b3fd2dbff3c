package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyedLocker(t *testing.T) {
	req := require.New(t)
	locks := NewKeyedLocker()

	unlock, ok := locks.TryLock("h1")
	req.True(ok)

	_, ok = locks.TryLock("h1")
	req.False(ok, "second holder is refused")

	other, ok := locks.TryLock("h2")
	req.True(ok, "keys are independent")
	other()

	unlock()
	unlock()

	again, ok := locks.TryLock("h1")
	req.True(ok)
	again()
}

func TestKeyedLocker_LockWaitsForRelease(t *testing.T) {
	req := require.New(t)
	locks := NewKeyedLocker()
	unlock, ok := locks.TryLock("h1")
	req.True(ok)

	acquired := make(chan struct{})
	go func() {
		next, err := locks.Lock(context.Background(), "h1")
		if err == nil {
			close(acquired)
			next()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	case <-time.After(50 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock never handed over")
	}
}

func TestKeyedLocker_LockHonoursContext(t *testing.T) {
	locks := NewKeyedLocker()
	unlock, _ := locks.TryLock("h1")
	defer unlock()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := locks.Lock(ctx, "h1")

	require.ErrorIs(t, err, context.DeadlineExceeded)
}
