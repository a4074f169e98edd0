package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	domainerrors "memberhub/contexts/billing-core/membership-service/domain/errors"
)

func TestLockerSerializesPerKey(t *testing.T) {
	locker := NewLocker(20 * time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "membership:mem-1")
	if err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	if _, err := locker.Acquire(ctx, "membership:mem-1"); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("held key must conflict, got %v", err)
	}

	// A different key is independent.
	otherRelease, err := locker.Acquire(ctx, "membership:mem-2")
	if err != nil {
		t.Fatalf("independent key failed: %v", err)
	}
	otherRelease()

	release()
	release2, err := locker.Acquire(ctx, "membership:mem-1")
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	release2()
}

func TestLockerHonorsContextCancellation(t *testing.T) {
	locker := NewLocker(time.Minute)
	release, err := locker.Acquire(context.Background(), "membership:mem-1")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(ctx, "membership:mem-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want context.DeadlineExceeded", err)
	}
}
