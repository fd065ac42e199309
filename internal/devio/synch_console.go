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

package devio

import (
	"context"

	"github.com/nachos-go/nachos/internal/device"
	"github.com/nachos-go/nachos/internal/sync2"
)

// SynchConsole offers line-buffered single-character reads and writes over
// an AsyncConsole. EOF on read is surfaced via the ok return being false,
// terminating bulk reads (spec.md §4.3).
type SynchConsole struct {
	console   *device.AsyncConsole
	readLock  *sync2.Lock
	writeLock *sync2.Lock
	readDone  *sync2.Semaphore
	writeDone *sync2.Semaphore
}

// NewSynchConsole wraps console for synchronous access. Reads and writes
// use independent locks, since they are unrelated directions of a
// full-duplex device.
func NewSynchConsole(console *device.AsyncConsole) *SynchConsole {
	return &SynchConsole{
		console:   console,
		readLock:  sync2.NewLock(),
		writeLock: sync2.NewLock(),
		readDone:  sync2.NewSemaphore(0),
		writeDone: sync2.NewSemaphore(0),
	}
}

// ReadByte blocks until a byte is available, returning (byte, true), or
// returns (0, false) at end of stream.
func (c *SynchConsole) ReadByte(ctx context.Context) (byte, bool) {
	c.readLock.Acquire(ctx)
	defer c.readLock.Release(ctx)

	var result int
	c.console.ReadByte(func(b int) {
		result = b
		c.readDone.V()
	})
	c.readDone.P()
	if result == device.EOF {
		return 0, false
	}
	return byte(result), true
}

// WriteByte blocks until b has been written to the console.
func (c *SynchConsole) WriteByte(ctx context.Context, b byte) {
	c.writeLock.Acquire(ctx)
	defer c.writeLock.Release(ctx)

	c.console.WriteByte(b, func() { c.writeDone.V() })
	c.writeDone.P()
}

// ReadLine blocks reading bytes until a newline or EOF, returning the line
// without its trailing newline. ok is false only if no bytes at all were
// read before EOF.
func (c *SynchConsole) ReadLine(ctx context.Context) (line []byte, ok bool) {
	for {
		b, readOK := c.ReadByte(ctx)
		if !readOK {
			return line, len(line) > 0
		}
		if b == '\n' {
			return line, true
		}
		line = append(line, b)
	}
}

// WriteLine writes line followed by a newline.
func (c *SynchConsole) WriteLine(ctx context.Context, line []byte) {
	for _, b := range line {
		c.WriteByte(ctx, b)
	}
	c.WriteByte(ctx, '\n')
}
