package sync2

import (
	"testing"
	"time"
)

func TestLockBasicMutualExclusion(t *testing.T) {
	ctx := ctxFor(newFakeHolder(1, 5))

	l := NewLock()
	l.Acquire(ctx)
	if !l.IsHeldBy(ctx) {
		t.Fatal("expected lock held by current thread")
	}
	l.Release(ctx)
	if l.IsHeldBy(ctx) {
		t.Fatal("expected lock not held after release")
	}
}

func TestLockRecursiveAcquirePanics(t *testing.T) {
	ctx := ctxFor(newFakeHolder(1, 5))

	l := NewLock()
	l.Acquire(ctx)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on recursive Acquire")
		}
	}()
	l.Acquire(ctx)
}

func TestLockReleaseByNonHolderPanics(t *testing.T) {
	a := ctxFor(newFakeHolder(1, 5))
	b := ctxFor(newFakeHolder(2, 5))

	l := NewLock()
	l.Acquire(a)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic releasing a lock held by someone else")
		}
	}()
	l.Release(b)
}

// TestLockPriorityInheritance exercises spec.md §4.1's single-hop priority
// inheritance: a low-priority holder is boosted while a higher-priority
// thread waits on it, and restored on release.
func TestLockPriorityInheritance(t *testing.T) {
	low := newFakeHolder(1, 1)  // LOW
	high := newFakeHolder(2, 3) // HIGH
	lowCtx := ctxFor(low)
	highCtx := ctxFor(high)

	l := NewLock()
	l.Acquire(lowCtx)

	waiting := make(chan struct{})
	go func() {
		close(waiting)
		l.Acquire(highCtx)
		l.Release(highCtx)
	}()

	<-waiting
	// Give the waiter time to block on l and boost low's priority.
	deadline := time.After(time.Second)
	for low.Priority() != 3 {
		select {
		case <-deadline:
			t.Fatalf("priority was not inherited: got %d want 3", low.Priority())
		default:
			time.Sleep(time.Millisecond)
		}
	}

	l.Release(lowCtx)

	if low.Priority() != 1 {
		t.Fatalf("priority was not restored: got %d want 1", low.Priority())
	}
}


