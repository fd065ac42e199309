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

// Package thread implements the thread control block and cooperative
// scheduler (spec.md §4.2): Fork, Yield, Sleep, Join, Finish, and the
// three-level priority ready queue, built on top of goroutines as the
// stackful execution context (Design Notes §9 names this the natural
// mapping for a language with its own coroutines).
package thread

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nachos-go/nachos/internal/sync2"
)

// Priority is one of the scheduler's three ready-queue levels.
type Priority int

const (
	Low Priority = iota
	Normal
	High
	numPriorities
)

func (p Priority) String() string {
	switch p {
	case Low:
		return "LOW"
	case Normal:
		return "NORMAL"
	case High:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// State is a thread's position in the JUST_CREATED -> READY -> RUNNING ->
// BLOCKED -> terminal lifecycle (spec.md §4.2).
type State int32

const (
	JustCreated State = iota
	Ready
	Running
	Blocked
	Finished
)

// Thread is the unit of scheduling: a name, a priority (current and
// original, for priority-inheritance restoration), joinability, and an
// exit-status rendezvous. It implements sync2.Holder so it can be carried
// in a context.Context and used directly as the identity argument to
// sync2's locks, conditions, and channels.
type Thread struct {
	id   uint64
	name string

	// priority and originalPriority are accessed by both the owning
	// goroutine and, via Prioritize/RestoreOriginalPriority, by whichever
	// thread is currently blocked on a Lock this thread holds. Kept atomic
	// rather than GUARDED_BY the scheduler lock so sync2 (which does not
	// know about the scheduler) can call Prioritize directly.
	priority         atomic.Int32
	originalPriority atomic.Int32

	joinable bool
	state    atomic.Int32

	// resume is the baton: the scheduler sends on it to dispatch this
	// thread, and the thread's own goroutine blocks receiving from it
	// whenever it is not the one logically running. Exactly one Thread's
	// resume channel is ever receivable at a time, which is what makes
	// "exactly one thread is current" (spec.md §4.2) true by construction
	// rather than by convention.
	resume chan struct{}

	// exitStatus delivers Finish's status to at most one Join caller.
	// Buffered so Finish never blocks waiting for a joiner that may never
	// arrive (spec.md's rendezvous is a logical one, not a blocking one
	// enforced at Finish time).
	exitStatus chan int

	ctx context.Context

	// state GUARDED_BY(stateMu) rather than atomic.Value since both cwd and
	// addressSpace must admit a nil value (a thread may have neither), which
	// atomic.Value rejects after its first Store.
	stateMu sync.Mutex

	// cwd holds the thread's current-working-directory handle, typed as
	// any so this package does not need to import the file system: the
	// façade stores and retrieves its own *filemgr.OpenFileHandle here.
	cwd any

	// addressSpace similarly holds the thread's optional *vm.AddressSpace,
	// kept untyped here for the same reason.
	addressSpace any
}

func newThread(id uint64, name string, priority Priority, joinable bool) *Thread {
	t := &Thread{
		id:         id,
		name:       name,
		joinable:   joinable,
		resume:     make(chan struct{}),
		exitStatus: make(chan int, 1),
	}
	t.priority.Store(int32(priority))
	t.originalPriority.Store(int32(priority))
	t.state.Store(int32(JustCreated))
	t.ctx = sync2.WithHolder(context.Background(), t)
	return t
}

// ID returns the thread's scheduler-assigned identity. Part of sync2.Holder.
func (t *Thread) ID() uint64 { return t.id }

// Name returns the thread's diagnostic name, set at Fork time.
func (t *Thread) Name() string { return t.name }

// Priority returns the thread's current (possibly inherited) priority.
// Part of sync2.Holder.
func (t *Thread) Priority() int { return int(t.priority.Load()) }

// Prioritize raises the thread's current priority to p if p is higher than
// what it already has. Called by sync2.Lock.Acquire for priority
// inheritance; never lowers a priority (that is RestoreOriginalPriority's
// job). Part of sync2.Holder.
func (t *Thread) Prioritize(p int) {
	for {
		cur := t.priority.Load()
		if int32(p) <= cur {
			return
		}
		if t.priority.CompareAndSwap(cur, int32(p)) {
			return
		}
	}
}

// RestoreOriginalPriority undoes any inheritance boost, returning the
// thread to the priority it was forked with. Part of sync2.Holder.
func (t *Thread) RestoreOriginalPriority() {
	t.priority.Store(t.originalPriority.Load())
}

// State returns the thread's current lifecycle state.
func (t *Thread) State() State { return State(t.state.Load()) }

// Context returns a context.Context carrying this thread as its
// sync2.Holder, suitable for passing to sync2 and Scheduler calls made on
// this thread's behalf.
func (t *Thread) Context() context.Context { return t.ctx }

func threadFromContext(ctx context.Context) *Thread {
	h := sync2.HolderFromContext(ctx)
	t, ok := h.(*Thread)
	if !ok {
		panic("thread: context Holder is not a *thread.Thread")
	}
	return t
}

// FromContext extracts the Thread carried by ctx, for packages outside
// thread (nachosfs, vm, trap) that need to reach the calling thread's own
// state rather than go through the Scheduler. Panics under the same
// conditions as HolderFromContext if ctx carries no Thread.
func FromContext(ctx context.Context) *Thread {
	return threadFromContext(ctx)
}

// Cwd returns the thread's current-working-directory handle, or nil if
// none has been set (e.g. the boot thread before any ChangeDirectory).
// Typed as any so this package need not import the file system; callers
// type-assert to *filemgr.OpenFileHandle.
func (t *Thread) Cwd() any {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.cwd
}

// SetCwd installs h as the thread's current-working-directory handle.
// Called only by internal/nachosfs's ChangeDirectory and at process
// creation.
func (t *Thread) SetCwd(h any) {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	t.cwd = h
}

// AddressSpace returns the thread's optional address space, or nil if the
// thread has none (a pure kernel thread). Typed as any for the same
// reason as Cwd; callers type-assert to *vm.AddressSpace.
func (t *Thread) AddressSpace() any {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	return t.addressSpace
}

// SetAddressSpace installs as the thread's address space. Called once at
// process creation by internal/trap.
func (t *Thread) SetAddressSpace(as any) {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	t.addressSpace = as
}
