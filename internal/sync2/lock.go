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

import (
	"context"
	"sync"
)

// Lock is a mutual-exclusion lock built on a binary Semaphore (spec.md
// §4.1). It panics on recursive acquisition by the same holder, records the
// current owner, and implements single-hop priority inheritance: Acquire
// raises a lower-priority owner to the caller's priority for the duration
// of the hold; Release restores the former owner's original priority.
type Lock struct {
	sem *Semaphore

	// GUARDED_BY(meta)
	meta  sync.Mutex
	owner Holder
}

// NewLock creates an unheld lock.
func NewLock() *Lock {
	return &Lock{sem: NewSemaphore(1)}
}

// Acquire blocks until the lock is free, then takes it. ctx must carry the
// calling thread's Holder (see WithHolder). Panics if the current holder
// already holds the lock.
func (l *Lock) Acquire(ctx context.Context) {
	me := HolderFromContext(ctx)

	l.meta.Lock()
	if l.owner != nil && l.owner.ID() == me.ID() {
		l.meta.Unlock()
		panic("sync2: Lock acquired recursively by current holder")
	}
	owner := l.owner
	l.meta.Unlock()

	// Priority inheritance: boost the current owner, if any, to at least
	// our priority before blocking on it, preventing unbounded priority
	// inversion (spec.md §5).
	if owner != nil && owner.Priority() < me.Priority() {
		owner.Prioritize(me.Priority())
	}

	l.sem.P()

	l.meta.Lock()
	l.owner = me
	l.meta.Unlock()
}

// Release relinquishes the lock, restoring the holder's original priority
// if Acquire boosted it. Panics if the caller does not hold the lock.
func (l *Lock) Release(ctx context.Context) {
	me := HolderFromContext(ctx)

	l.meta.Lock()
	if l.owner == nil || l.owner.ID() != me.ID() {
		l.meta.Unlock()
		panic("sync2: Release called by a thread that does not hold the lock")
	}
	l.owner = nil
	l.meta.Unlock()

	me.RestoreOriginalPriority()
	l.sem.V()
}

// IsHeldBy reports whether the Holder carried by ctx currently holds the
// lock.
func (l *Lock) IsHeldBy(ctx context.Context) bool {
	me := HolderFromContext(ctx)
	l.meta.Lock()
	defer l.meta.Unlock()
	return l.owner != nil && l.owner.ID() == me.ID()
}

// Owner returns the current holder, or nil if the lock is free. For
// diagnostics and condition-variable bookkeeping only.
func (l *Lock) Owner() Holder {
	l.meta.Lock()
	defer l.meta.Unlock()
	return l.owner
}
