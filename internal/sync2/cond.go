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

	"github.com/nachos-go/nachos/internal/collections"
)

// Cond is a Mesa-style condition variable associated with a Lock (spec.md
// §4.1). Wait must be called with the associated lock held; it atomically
// releases the lock, blocks the caller, and reacquires the lock before
// returning. Signal wakes one waiter, Broadcast wakes all; a Signal or
// Broadcast with no waiter present is simply lost, per Mesa semantics.
type Cond struct {
	lock *Lock

	mu      sync.Mutex
	waiters collections.Queue[*Semaphore]
}

// NewCond creates a condition variable associated with lock.
func NewCond(lock *Lock) *Cond {
	return &Cond{lock: lock, waiters: collections.NewQueue[*Semaphore]()}
}

// Wait requires the associated lock to be held by ctx's Holder.
func (c *Cond) Wait(ctx context.Context) {
	if !c.lock.IsHeldBy(ctx) {
		panic("sync2: Cond.Wait called without holding the associated lock")
	}

	wake := NewSemaphore(0)
	c.mu.Lock()
	c.waiters.Push(wake)
	c.mu.Unlock()

	c.lock.Release(ctx)
	wake.P()
	c.lock.Acquire(ctx)
}

// Signal wakes one waiter, if any, in FIFO order.
func (c *Cond) Signal() {
	c.mu.Lock()
	if c.waiters.IsEmpty() {
		c.mu.Unlock()
		return
	}
	wake := c.waiters.Pop()
	c.mu.Unlock()

	wake.V()
}

// Broadcast wakes every current waiter.
func (c *Cond) Broadcast() {
	c.mu.Lock()
	pending := make([]*Semaphore, 0, c.waiters.Len())
	for !c.waiters.IsEmpty() {
		pending = append(pending, c.waiters.Pop())
	}
	c.mu.Unlock()

	for _, wake := range pending {
		wake.V()
	}
}
