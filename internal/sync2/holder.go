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

// Package sync2 implements the kernel's synchronization primitives
// (spec.md §4.1): Semaphore, Lock, Cond, RWLock and Channel. The Nachos
// source these are modeled on protects each primitive's internal state by
// disabling the simulated CPU's interrupts; Go has no such mechanism to
// hand to a goroutine, so each primitive instead owns a private mutex,
// which gives the identical atomicity guarantee on the single
// logical-processor, cooperatively-scheduled model spec.md §5 describes
// (at most one thread is ever actually running kernel code at a time).
package sync2

import "context"

// Holder identifies the calling thread for Lock ownership checks and
// priority inheritance (spec.md §4.1). internal/thread.Thread is the only
// implementation.
type Holder interface {
	// ID uniquely identifies this holder for ownership comparisons.
	ID() uint64

	// Priority returns the holder's current (possibly inherited) priority.
	Priority() int

	// Prioritize raises the holder's current priority to at least p,
	// remembering its original priority so RestoreOriginalPriority can
	// undo the boost later. A no-op if p is not higher than the current
	// priority.
	Prioritize(p int)

	// RestoreOriginalPriority undoes any boost applied by Prioritize,
	// restoring the priority the holder had before it started waiting on
	// a lock another, lower-priority holder held.
	RestoreOriginalPriority()
}

type holderKey struct{}

// WithHolder returns a context carrying h as the calling thread's identity,
// for use with Lock/Cond/RWLock/Channel. This is the idiomatic Go stand-in
// for Nachos's global `currentThread` pointer (Design Notes §9): rather
// than a package-level mutable global — which cannot be resolved correctly
// once more than one goroutine is genuinely, concurrently inside kernel
// code, as Go (unlike single-core Nachos) allows — the calling thread's
// identity travels explicitly on the context every blocking kernel
// primitive already takes, the same context.Context the teacher threads
// through every blocking GCS call.
func WithHolder(ctx context.Context, h Holder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

// HolderFromContext extracts the Holder installed by WithHolder. Panics if
// none is present: every call site into sync2 from kernel code must run
// under a context derived from a Thread's own context (internal/thread
// guarantees this when it starts a thread body).
func HolderFromContext(ctx context.Context) Holder {
	h, _ := ctx.Value(holderKey{}).(Holder)
	if h == nil {
		panic("sync2: context has no associated Holder; use sync2.WithHolder")
	}
	return h
}
