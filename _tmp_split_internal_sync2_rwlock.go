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

package sync2

import "context"

// RWLock is a writer-priority read/write lock (spec.md §4.1): a reader
// yields while any writer waits or writes. A writer calling AcquireRead or
// ReleaseRead while it already holds the write lock is a no-op
// (reentrancy). Transitions are guarded by one internal Lock and one Cond,
// exactly as spec.md prescribes, rather than a second independent
// implementation.
type RWLock struct {
	mu   *Lock
	cond *Cond

	// GUARDED_BY(mu)
	activeReaders  int
	waitingWriters int
	activeWriter   Holder
}

// NewRWLock creates an unheld read/write lock.
func NewRWLock() *RWLock {
	rw := &RWLock{mu: NewLock()}
	rw.cond = NewCond(rw.mu)
	return rw
}

// AcquireRead blocks while a writer holds or awaits the lock, then marks
// the caller as an active reader.
func (rw *RWLock) AcquireRead(ctx context.Context) {
	me := HolderFromContext(ctx)

	rw.mu.Acquire(ctx)
	defer rw.mu.Release(ctx)

	if rw.activeWriter != nil && rw.activeWriter.ID() == me.ID() {
		// Reentrant: the write holder is allowed to read without blocking.
		return
	}

	for rw.waitingWriters > 0 || rw.activeWriter != nil {
		rw.cond.Wait(ctx)
	}
	rw.activeReaders++
}

// ReleaseRead relinquishes a read hold taken by AcquireRead.
func (rw *RWLock) ReleaseRead(ctx context.Context) {
	me := HolderFromContext(ctx)

	rw.mu.Acquire(ctx)
	defer rw.mu.Release(ctx)

	if rw.activeWriter != nil && rw.activeWriter.ID() == me.ID() {
		return
	}

	if rw.activeReaders == 0 {
		panic("sync2: RWLock.ReleaseRead called with no active readers")
	}
	rw.activeReaders--
	if rw.activeReaders == 0 {
		rw.cond.Broadcast()
	}
}

// AcquireWrite blocks while any reader is active or another writer holds
// or awaits the lock, then takes exclusive ownership.
func (rw *RWLock) AcquireWrite(ctx context.Context) {
	me := HolderFromContext(ctx)

	rw.mu.Acquire(ctx)
	rw.waitingWriters++
	for rw.activeReaders > 0 || rw.activeWriter != nil {
		rw.cond.Wait(ctx)
	}
	rw.waitingWriters--
	rw.activeWriter = me
	rw.mu.Release(ctx)
}

// ReleaseWrite relinquishes the write hold.
func (rw *RWLock) ReleaseWrite(ctx context.Context) {
	me := HolderFromContext(ctx)

	rw.mu.Acquire(ctx)
	defer rw.mu.Release(ctx)

	if rw.activeWriter == nil || rw.activeWriter.ID() != me.ID() {
		panic("sync2: RWLock.ReleaseWrite called by a non-writer")
	}
	rw.activeWriter = nil
	rw.cond.Broadcast()
}


