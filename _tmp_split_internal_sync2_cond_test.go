package sync2

import (
	"testing"
	"time"
)

// TestCondWaitSignal is a single-slot producer/consumer: the consumer
// waits while empty, the producer fills and signals.
func TestCondWaitSignal(t *testing.T) {
	producerCtx := ctxFor(newFakeHolder(1, 1))
	consumerCtx := ctxFor(newFakeHolder(2, 1))

	l := NewLock()
	cond := NewCond(l)
	filled := false
	var value int

	consumerDone := make(chan int)
	go func() {
		l.Acquire(consumerCtx)
		for !filled {
			cond.Wait(consumerCtx)
		}
		v := value
		l.Release(consumerCtx)
		consumerDone <- v
	}()

	// Give the consumer a chance to start waiting first.
	time.Sleep(20 * time.Millisecond)

	l.Acquire(producerCtx)
	value = 42
	filled = true
	cond.Signal()
	l.Release(producerCtx)

	select {
	case got := <-consumerDone:
		if got != 42 {
			t.Fatalf("consumer observed %d, want 42", got)
		}
	case <-time.After(time.Second):
		t.Fatal("consumer never woke up")
	}
}

func TestCondBroadcastWakesAll(t *testing.T) {
	l := NewLock()
	cond := NewCond(l)
	const n = 4
	woke := make(chan int, n)

	for i := 0; i < n; i++ {
		i := i
		go func() {
			ctx := ctxFor(newFakeHolder(uint64(10+i), 1))
			l.Acquire(ctx)
			cond.Wait(ctx)
			l.Release(ctx)
			woke <- i
		}()
	}

	time.Sleep(30 * time.Millisecond)

	broadcasterCtx := ctxFor(newFakeHolder(1, 1))
	l.Acquire(broadcasterCtx)
	cond.Broadcast()
	l.Release(broadcasterCtx)

	for i := 0; i < n; i++ {
		select {
		case <-woke:
		case <-time.After(time.Second):
			t.Fatalf("only %d of %d waiters woke from Broadcast", i, n)
		}
	}
}


