// Copyright 2024 The Nachos-Go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package thread

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nachos-go/nachos/internal/collections"
	"github.com/nachos-go/nachos/internal/klog"
	"github.com/nachos-go/nachos/internal/metrics"
)

// Scheduler is the multi-level priority ready queue and dispatcher
// (spec.md §4.2). Exactly one Thread is ever running: every other forked
// Thread's goroutine is parked receiving on its own resume channel, so the
// dispatch step of handing the baton to a new Thread and waiting to get it
// back is what gives the simulator its single-logical-processor semantics,
// without needing a real interrupt mask.
type Scheduler struct {
	mu      sync.Mutex
	ready   [numPriorities]collections.Queue[*Thread]
	current *Thread

	// GUARDED_BY(mu)
	joinWaiters map[uint64]*Thread

	idCounter atomic.Uint64
	metrics   metrics.Handle

	disablePeriodicYield atomic.Bool
	yieldPending         atomic.Bool
	timerStop            chan struct{}
}

// NewScheduler creates a scheduler and a boot Thread representing the
// goroutine that calls NewScheduler — it is already Running and does not
// wait on its resume channel, since it is the CPU's initial occupant.
func NewScheduler(m metrics.Handle) (*Scheduler, *Thread) {
	s := &Scheduler{
		joinWaiters: make(map[uint64]*Thread),
		metrics:     m,
	}
	for i := range s.ready {
		s.ready[i] = collections.NewQueue[*Thread]()
	}
	s.disablePeriodicYield.Store(true)

	boot := newThread(s.idCounter.Add(1), "main", Normal, false)
	boot.state.Store(int32(Running))
	s.current = boot
	return s, boot
}

func (s *Scheduler) pushLocked(t *Thread) {
	s.ready[t.Priority()].Push(t)
}

// popHighestLocked removes and returns the thread at the front of the
// highest-priority non-empty queue, or nil if none are ready.
func (s *Scheduler) popHighestLocked() *Thread {
	for p := int(High); p >= int(Low); p-- {
		q := s.ready[p]
		if !q.IsEmpty() {
			return q.Pop()
		}
	}
	return nil
}

// Fork allocates a new Thread, making it Ready, and starts its goroutine.
// fn is called with a context carrying the new Thread as its sync2.Holder
// once the scheduler first dispatches to it; Finish(0) runs automatically
// when fn returns, matching the "Fork sets up an initial frame that on
// dispatch enables interrupts, calls func(arg), calls Finish(0)" contract
// (spec.md §4.2).
func (s *Scheduler) Fork(name string, priority Priority, joinable bool, fn func(ctx context.Context, arg any), arg any) *Thread {
	t := newThread(s.idCounter.Add(1), name, priority, joinable)
	s.metrics.ThreadForked()
	klog.Debug("thread", "fork %q id=%d priority=%s joinable=%v", name, t.id, priority, joinable)

	go func() {
		<-t.resume
		fn(t.ctx, arg)
		s.Finish(t.ctx, 0)
	}()

	s.mu.Lock()
	t.state.Store(int32(Ready))
	s.pushLocked(t)
	s.mu.Unlock()
	return t
}

// dispatch hands the baton from me to next and blocks until me is
// redispatched by some future call into the scheduler.
func (s *Scheduler) dispatch(me, next *Thread) {
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.metrics.ContextSwitch()
	next.state.Store(int32(Running))
	next.resume <- struct{}{}

	<-me.resume
	s.mu.Lock()
	s.current = me
	s.mu.Unlock()
	me.state.Store(int32(Running))
}

// Yield puts the calling thread back on the ready queue at its current
// priority and runs the next ready thread; a no-op if none is ready.
func (s *Scheduler) Yield(ctx context.Context) {
	me := threadFromContext(ctx)

	s.mu.Lock()
	next := s.popHighestLocked()
	if next == nil {
		s.mu.Unlock()
		return
	}
	me.state.Store(int32(Ready))
	s.pushLocked(me)
	s.mu.Unlock()

	s.dispatch(me, next)
}

// Sleep runs the next ready thread without re-queueing the caller. The
// caller must have arranged, by some other path (a semaphore V, a
// condition Signal, Finish's join wakeup below), to be made Ready again
// via ReadyToRun. If nothing is ready when Sleep is called, the CPU goes
// idle: the calling goroutine parks directly on its resume channel, and
// ReadyToRun dispatches it the moment something wakes it, without
// requiring a handoff partner.
func (s *Scheduler) Sleep(ctx context.Context) {
	me := threadFromContext(ctx)
	me.state.Store(int32(Blocked))

	s.mu.Lock()
	next := s.popHighestLocked()
	if next == nil {
		s.current = nil
		s.mu.Unlock()

		<-me.resume

		s.mu.Lock()
		s.current = me
		s.mu.Unlock()
		me.state.Store(int32(Running))
		return
	}
	s.mu.Unlock()

	s.dispatch(me, next)
}

// ReadyToRun moves t onto its ready queue. If the CPU is currently idle
// (the previous occupant Sleep'd with nothing ready), t is dispatched
// immediately; otherwise it waits its turn behind whatever is already
// current, exactly as the next thread to call Yield/Sleep/Finish will
// find it in the ready queue.
func (s *Scheduler) ReadyToRun(t *Thread) {
	s.mu.Lock()
	idle := s.current == nil
	t.state.Store(int32(Ready))
	s.pushLocked(t)
	if !idle {
		s.mu.Unlock()
		return
	}
	next := s.popHighestLocked()
	s.current = next
	s.mu.Unlock()

	if next != nil {
		s.metrics.ContextSwitch()
		next.state.Store(int32(Running))
		next.resume <- struct{}{}
	}
}

// Finish terminates the calling thread with the given exit status. If the
// thread was forked joinable, status is delivered to whichever thread is
// (or later becomes) its Join caller. The thread's goroutine returns from
// this call and exits; it is never dispatched again.
//
// Unlike the original design, no to-be-destroyed stack reclamation step is
// needed here: the goroutine backing the thread simply returns and the Go
// runtime reclaims it, which is the point of mapping Thread onto a real
// coroutine primitive (Design Notes §9) instead of hand-rolled stacks.
func (s *Scheduler) Finish(ctx context.Context, status int) {
	me := threadFromContext(ctx)

	s.mu.Lock()
	me.state.Store(int32(Finished))
	waiter := s.joinWaiters[me.id]
	delete(s.joinWaiters, me.id)
	s.mu.Unlock()

	if me.joinable {
		me.exitStatus <- status
	}
	s.metrics.ThreadFinished()
	klog.Debug("thread", "finish %q id=%d status=%d", me.name, me.id, status)

	if waiter != nil {
		s.ReadyToRun(waiter)
	}

	s.mu.Lock()
	next := s.popHighestLocked()
	if next == nil {
		s.current = nil
		s.mu.Unlock()
		return
	}
	s.current = next
	s.mu.Unlock()

	s.metrics.ContextSwitch()
	next.state.Store(int32(Running))
	next.resume <- struct{}{}
}

// Join blocks the calling thread until target, which must have been
// forked joinable, calls Finish, then returns its exit status. Join may
// not be called by a thread on itself, and at most one thread may join a
// given target (spec.md §4.2).
func (s *Scheduler) Join(ctx context.Context, target *Thread) int {
	me := threadFromContext(ctx)
	if target.id == me.id {
		panic("thread: a thread cannot Join itself")
	}
	if !target.joinable {
		panic("thread: Join called on a thread that was not forked joinable")
	}

	s.mu.Lock()
	if target.State() == Finished {
		s.mu.Unlock()
		return <-target.exitStatus
	}
	if _, exists := s.joinWaiters[target.id]; exists {
		s.mu.Unlock()
		panic("thread: target already has a joiner")
	}
	s.joinWaiters[target.id] = me
	s.mu.Unlock()

	s.Sleep(ctx)
	return <-target.exitStatus
}

// Current returns the thread presently dispatched, or nil if the CPU is
// idle (only possible between Sleep finding nothing ready and the next
// ReadyToRun).
func (s *Scheduler) Current() *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetDisablePeriodicYield is the deterministic-test knob named in spec.md
// §4.2: while disabled, the periodic timer (if started) never sets the
// yield-pending flag.
func (s *Scheduler) SetDisablePeriodicYield(disabled bool) {
	s.disablePeriodicYield.Store(disabled)
}

// StartTimer begins delivering a simulated timer interrupt every quantum.
// While periodic yield is enabled, each tick sets a yield-pending flag that
// CheckPreemption consumes, rather than interrupting execution inline.
// NewScheduler starts with periodic yield disabled, so ticks have no effect
// until SetDisablePeriodicYield(false) is called, and nothing in
// internal/trap or internal/kernel calls CheckPreemption.
func (s *Scheduler) StartTimer(quantum time.Duration) {
	s.timerStop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(quantum)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if !s.disablePeriodicYield.Load() {
					s.metrics.TimerTick()
					s.yieldPending.Store(true)
				}
			case <-s.timerStop:
				return
			}
		}
	}()
}

// StopTimer halts a timer started by StartTimer. A no-op if none is
// running.
func (s *Scheduler) StopTimer() {
	if s.timerStop != nil {
		close(s.timerStop)
		s.timerStop = nil
	}
}

// CheckPreemption yields on behalf of the calling thread if the periodic
// timer has a pending tick, clearing the flag first so at most one extra
// Yield happens per tick.
func (s *Scheduler) CheckPreemption(ctx context.Context) {
	if s.yieldPending.CompareAndSwap(true, false) {
		s.Yield(ctx)
	}
}


