package auth

import (
	"context"
	"runtime"
	"time"
)

// HashPool bounds how many hash/verify computations run at once so that a burst of
// logins cannot starve request handling of CPU. Callers wait for a slot and give up
// when their context ends.
type HashPool struct {
	hasher PasswordHasher
	slots  chan struct{}
}

// NewHashPool wraps hasher with at most workers concurrent computations.
// A non-positive workers selects runtime.NumCPU().
func NewHashPool(hasher PasswordHasher, workers int) *HashPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &HashPool{hasher: hasher, slots: make(chan struct{}, workers)}
}

// Hash computes a digest on a pool slot.
func (p *HashPool) Hash(ctx context.Context, password string) (string, error) {
	if err := p.acquire(ctx); err != nil {
		return "", err
	}
	defer p.release()
	return p.hasher.Hash(password)
}

// Verify checks a password on a pool slot.
func (p *HashPool) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := p.acquire(ctx); err != nil {
		return false, err
	}
	defer p.release()
	return p.hasher.Verify(password, hash)
}

func (p *HashPool) acquire(ctx context.Context) error {
	start := time.Now()
	select {
	case p.slots <- struct{}{}:
		hashWaitSeconds.Observe(time.Since(start).Seconds())
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *HashPool) release() {
	<-p.slots
}
