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

package trap

import "context"

// ReadBuffer, WriteBuffer, ReadString, and WriteString give a Program
// access to its own process's user-memory transfer primitives without
// reaching into Process's unexported fields (spec.md §4.10).

func (m *Machine) ReadBuffer(vaddr, size int) ([]byte, error) {
	return ReadBufferFromUser(m.Process.mmu, m.Process.as, m.Process.tlbFill, vaddr, size)
}

func (m *Machine) WriteBuffer(vaddr int, buf []byte) error {
	return WriteBufferToUser(m.Process.mmu, m.Process.as, m.Process.tlbFill, vaddr, buf)
}

func (m *Machine) ReadString(vaddr, maxLen int) (string, bool, error) {
	return ReadStringFromUser(m.Process.mmu, m.Process.as, m.Process.tlbFill, vaddr, maxLen)
}

func (m *Machine) WriteString(vaddr int, s string) error {
	return WriteStringToUser(m.Process.mmu, m.Process.as, m.Process.tlbFill, vaddr, s)
}

// Argv reads a NULL-terminated argv pointer array starting at vaddr
// (spec.md §5's supplemented Exec-with-arguments).
func (m *Machine) Argv(vaddr int) ([]string, error) {
	return m.Dispatcher.ReadArgv(m.Process, vaddr)
}

// Exec, Join, Create, Remove, Open, Close, Read, Write, ChangeDirectory,
// CreateDirectory, ListDirectoryContents, RemoveDirectory, and PS forward
// to the Dispatcher with this Machine's own process already supplied,
// the convenience surface a Program's syscall-handling code calls
// instead of threading the Dispatcher and Process through by hand.

func (m *Machine) Exec(ctx context.Context, path string, argv []string, codeSize, initDataSize int, prog Program) (int, error) {
	return m.Dispatcher.Exec(ctx, path, argv, codeSize, initDataSize, prog)
}

func (m *Machine) Join(ctx context.Context, pid int) (int, error) {
	return m.Dispatcher.Join(ctx, pid)
}

func (m *Machine) Create(ctx context.Context, path string, size int) error {
	return m.Dispatcher.Create(ctx, path, size)
}

func (m *Machine) Remove(ctx context.Context, path string) error {
	return m.Dispatcher.Remove(ctx, path)
}

func (m *Machine) Open(ctx context.Context, path string) (int, error) {
	return m.Dispatcher.Open(ctx, m.Process, path)
}

func (m *Machine) Close(ctx context.Context, fd int) error {
	return m.Dispatcher.Close(ctx, m.Process, fd)
}

func (m *Machine) Read(ctx context.Context, fd, size int) ([]byte, error) {
	return m.Dispatcher.Read(ctx, m.Process, fd, size)
}

func (m *Machine) Write(ctx context.Context, fd int, buf []byte) (int, error) {
	return m.Dispatcher.Write(ctx, m.Process, fd, buf)
}

func (m *Machine) ChangeDirectory(ctx context.Context, path string) error {
	return m.Dispatcher.ChangeDirectory(ctx, path)
}

func (m *Machine) CreateDirectory(ctx context.Context, path string) error {
	return m.Dispatcher.CreateDirectory(ctx, path)
}

func (m *Machine) ListDirectoryContents(ctx context.Context, path string) ([]string, error) {
	return m.Dispatcher.ListDirectoryContents(ctx, path)
}

func (m *Machine) RemoveDirectory(ctx context.Context, path string) error {
	return m.Dispatcher.RemoveDirectory(ctx, path)
}

func (m *Machine) PS() []ProcessInfo {
	return m.Dispatcher.PS()
}


