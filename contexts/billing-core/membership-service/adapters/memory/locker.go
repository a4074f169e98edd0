package memory

import (
	"context"
	"sync"
	"time"

	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
)

// Locker serializes writers per entity key. Acquire waits briefly for the
// holder to release and reports a conflict when the wait expires, so callers
// surface a retryable error instead of queueing unboundedly.
type Locker struct {
	mu      sync.Mutex
	slots   map[string]chan struct{}
	maxWait time.Duration
}

func NewLocker(maxWait time.Duration) *Locker {
	if maxWait <= 0 {
		maxWait = 2 * time.Second
	}
	return &Locker{
		slots:   make(map[string]chan struct{}),
		maxWait: maxWait,
	}
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[key] = slot
	}
	l.mu.Unlock()

	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-timer.C:
		return nil, domainerrors.ErrConflict
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
