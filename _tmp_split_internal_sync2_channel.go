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

// Channel is unbuffered, synchronous, single-word rendezvous message
// passing (spec.md §4.1): exactly one Send meets exactly one Receive.
// Multiple senders serialize among themselves via sendLock, multiple
// receivers via recvLock; the handshake itself uses a pair of semaphores so
// the receiver observes the value its paired sender wrote. The channel is
// stateless between transactions — this is not a replacement for Go's
// built-in chan, it exists because Thread.Join (spec.md §4.2) is specified
// in terms of exactly this primitive.
type Channel[T any] struct {
	sendLock *Lock
	recvLock *Lock

	valueReady *Semaphore // posted by Send once value is stored
	valueTaken *Semaphore // posted by Receive once value is copied out

	value T
}

// NewChannel creates an empty rendezvous channel.
func NewChannel[T any]() *Channel[T] {
	return &Channel[T]{
		sendLock:   NewLock(),
		recvLock:   NewLock(),
		valueReady: NewSemaphore(0),
		valueTaken: NewSemaphore(0),
	}
}

// Send blocks until a Receive has consumed value. After Send returns, some
// Receive has observed value.
func (c *Channel[T]) Send(ctx context.Context, value T) {
	c.sendLock.Acquire(ctx)
	defer c.sendLock.Release(ctx)

	c.value = value
	c.valueReady.V()
	c.valueTaken.P()
}

// Receive blocks until a Send has a value waiting, then returns it.
func (c *Channel[T]) Receive(ctx context.Context) T {
	c.recvLock.Acquire(ctx)
	defer c.recvLock.Release(ctx)

	c.valueReady.P()
	v := c.value
	c.valueTaken.V()
	return v
}


