package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowHasher records peak concurrency.
type slowHasher struct {
	delay   time.Duration
	running atomic.Int32
	peak    atomic.Int32
}

func (h *slowHasher) Hash(password string) (string, error) {
	n := h.running.Add(1)
	defer h.running.Add(-1)
	for {
		p := h.peak.Load()
		if n <= p || h.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(h.delay)
	return "h:" + password, nil
}

func (h *slowHasher) Verify(password, hash string) (bool, error) {
	got, _ := h.Hash(password)
	return got == hash, nil
}

func TestHashPool_BoundsConcurrency(t *testing.T) {
	h := &slowHasher{delay: 20 * time.Millisecond}
	pool := NewHashPool(h, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := pool.Hash(context.Background(), "pw")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, h.peak.Load(), int32(2))
	assert.GreaterOrEqual(t, h.peak.Load(), int32(1))
}

func TestHashPool_Verify(t *testing.T) {
	pool := NewHashPool(&slowHasher{}, 1)

	ok, err := pool.Verify(context.Background(), "pw", "h:pw")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = pool.Verify(context.Background(), "pw", "h:other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPool_CancelledWhileWaiting(t *testing.T) {
	pool := NewHashPool(&slowHasher{}, 1)
	pool.slots <- struct{}{} // occupy the only slot
	defer pool.release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := pool.Hash(ctx, "pw")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewHashPool_DefaultsWorkers(t *testing.T) {
	pool := NewHashPool(&slowHasher{}, 0)
	assert.Positive(t, cap(pool.slots))
}
