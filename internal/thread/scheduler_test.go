package thread

import (
	"context"
	"testing"
	"time"

	"github.com/nachos-go/nachos/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForkRunsFunction(t *testing.T) {
	s, boot := NewScheduler(metrics.NewNoop())
	ran := make(chan int, 1)

	s.Fork("worker", Normal, false, func(ctx context.Context, arg any) {
		ran <- arg.(int)
	}, 7)

	s.Yield(boot.Context())

	select {
	case v := <-ran:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("forked thread never ran")
	}
}

func TestYieldIsNoOpWithNothingReady(t *testing.T) {
	s, boot := NewScheduler(metrics.NewNoop())
	// Scheduler is fresh; boot is the only thread, so Yield must return
	// immediately rather than block waiting for a dispatch partner.
	done := make(chan struct{})
	go func() {
		s.Yield(boot.Context())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Yield blocked with nothing else ready")
	}
}

func TestHighPriorityRunsBeforeLow(t *testing.T) {
	s, boot := NewScheduler(metrics.NewNoop())
	order := make(chan string, 2)

	s.Fork("low", Low, false, func(ctx context.Context, arg any) {
		order <- "low"
	}, nil)
	s.Fork("high", High, false, func(ctx context.Context, arg any) {
		order <- "high"
	}, nil)

	// Both are ready; Yield dispatches the highest-priority ready thread
	// first.
	s.Yield(boot.Context())
	s.Yield(boot.Context())

	first := <-order
	assert.Equal(t, "high", first)
}

func TestJoinReturnsExitStatus(t *testing.T) {
	s, boot := NewScheduler(metrics.NewNoop())

	child := s.Fork("child", Normal, true, func(ctx context.Context, arg any) {
		// Nothing to do; Fork's wrapper calls Finish(0) on return, but we
		// want a specific status, so finish explicitly before returning.
		s.Finish(ctx, 99)
	}, nil)

	status := s.Join(boot.Context(), child)
	assert.Equal(t, 99, status)
}

func TestJoinSelfPanics(t *testing.T) {
	s, boot := NewScheduler(metrics.NewNoop())
	assert.Panics(t, func() {
		s.Join(boot.Context(), boot)
	})
}

func TestJoinNonJoinablePanics(t *testing.T) {
	s, boot := NewScheduler(metrics.NewNoop())
	child := s.Fork("child", Normal, false, func(ctx context.Context, arg any) {}, nil)
	s.Yield(boot.Context())
	assert.Panics(t, func() {
		s.Join(boot.Context(), child)
	})
}

func TestJoinBlocksUntilChildFinishes(t *testing.T) {
	s, boot := NewScheduler(metrics.NewNoop())
	release := make(chan struct{})

	child := s.Fork("child", Normal, true, func(ctx context.Context, arg any) {
		<-release
		s.Finish(ctx, 3)
	}, nil)

	joinDone := make(chan int, 1)
	joinerCtx := boot.Context()
	go func() {
		joinDone <- s.Join(joinerCtx, child)
	}()

	select {
	case <-joinDone:
		t.Fatal("Join returned before child finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)

	select {
	case status := <-joinDone:
		assert.Equal(t, 3, status)
	case <-time.After(time.Second):
		t.Fatal("Join never returned after child finished")
	}
}

func TestSleepWithNothingReadyParksUntilReadyToRun(t *testing.T) {
	s, boot := NewScheduler(metrics.NewNoop())
	woke := make(chan struct{})

	// boot is the only thread; there is nothing else to dispatch to, so
	// Sleep must park boot directly rather than deadlock the scheduler.
	go func() {
		s.Sleep(boot.Context())
		close(woke)
	}()

	select {
	case <-woke:
		t.Fatal("Sleep returned with nothing to wake it")
	case <-time.After(20 * time.Millisecond):
	}

	require.Eventually(t, func() bool {
		return s.Current() == nil
	}, time.Second, time.Millisecond)

	s.ReadyToRun(boot)

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("ReadyToRun never woke the sleeping thread")
	}
}

func TestCheckPreemptionYieldsOnlyWhenPending(t *testing.T) {
	s, boot := NewScheduler(metrics.NewNoop())
	ran := make(chan struct{}, 1)
	s.Fork("worker", Normal, false, func(ctx context.Context, arg any) {
		ran <- struct{}{}
	}, nil)

	// No tick pending: CheckPreemption must not yield.
	s.CheckPreemption(boot.Context())
	select {
	case <-ran:
		t.Fatal("worker ran without a pending preemption")
	case <-time.After(10 * time.Millisecond):
	}

	s.yieldPending.Store(true)
	s.CheckPreemption(boot.Context())
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("worker never ran after a pending preemption")
	}
}
