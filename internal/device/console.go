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

package device

import (
	"bufio"
	"io"
)

// EOF is the sentinel AsyncConsole.ReadByte's done callback reports in
// place of a byte when the input stream is exhausted, terminating bulk
// reads (spec.md §4.3).
const EOF = -1

// AsyncConsole wraps a byte-oriented input/output stream, completing each
// read or write on its own goroutine to simulate a single-character
// interrupt-driven terminal.
type AsyncConsole struct {
	in  *bufio.Reader
	out io.Writer
}

// NewAsyncConsole wraps in and out as the console's input and output
// streams.
func NewAsyncConsole(in io.Reader, out io.Writer) *AsyncConsole {
	return &AsyncConsole{in: bufio.NewReader(in), out: out}
}

// ReadByte asynchronously reads a single byte, calling done with the byte
// value or EOF.
func (c *AsyncConsole) ReadByte(done func(b int)) {
	go func() {
		b, err := c.in.ReadByte()
		if err != nil {
			done(EOF)
			return
		}
		done(int(b))
	}()
}

// WriteByte asynchronously writes a single byte, calling done once it has
// been flushed to the output stream.
func (c *AsyncConsole) WriteByte(b byte, done func()) {
	go func() {
		_, _ = c.out.Write([]byte{b})
		done()
	}()
}
