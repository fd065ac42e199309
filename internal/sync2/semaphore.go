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
	"sync"

	"github.com/nachos-go/nachos/internal/collections"
)

// Semaphore is a counting, non-negative semaphore with FIFO wakeup order
// (spec.md §4.1). P decrements the count, blocking the caller if the
// pre-decrement value was zero; V increments it, waking one blocked waiter
// if any are queued.
type Semaphore struct {
	mu      sync.Mutex
	value   int
	waiters collections.Queue[chan struct{}]
}

// NewSemaphore creates a semaphore with the given initial, non-negative
// value.
func NewSemaphore(value int) *Semaphore {
	if value < 0 {
		panic("sync2: semaphore initial value must be non-negative")
	}
	return &Semaphore{value: value, waiters: collections.NewQueue[chan struct{}]()}
}

// P decrements the semaphore, blocking the caller until a value is
// available if necessary.
func (s *Semaphore) P() {
	s.mu.Lock()
	if s.value > 0 {
		s.value--
		s.mu.Unlock()
		return
	}

	wake := make(chan struct{})
	s.waiters.Push(wake)
	s.mu.Unlock()

	<-wake
}

// V increments the semaphore, unblocking the longest-waiting blocked P
// caller, if any (FIFO order per spec.md §4.1). If a waiter is woken the
// count is not incremented: the unit being signaled is handed directly to
// that waiter, exactly as if it had decremented the count itself.
func (s *Semaphore) V() {
	s.mu.Lock()
	if !s.waiters.IsEmpty() {
		wake := s.waiters.Pop()
		s.mu.Unlock()
		close(wake)
		return
	}

	s.value++
	s.mu.Unlock()
}

// Value returns the current count, for tests and diagnostics only; it is
// not meaningful to act on without additional synchronization.
func (s *Semaphore) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}
