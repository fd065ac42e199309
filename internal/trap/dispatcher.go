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

import (
	"context"
	"fmt"

	"github.com/nachos-go/nachos/internal/cpu"
	"github.com/nachos-go/nachos/internal/devio"
	"github.com/nachos-go/nachos/internal/filemgr"
	"github.com/nachos-go/nachos/internal/kerrors"
	"github.com/nachos-go/nachos/internal/klog"
	"github.com/nachos-go/nachos/internal/metrics"
	"github.com/nachos-go/nachos/internal/nachosfs"
	"github.com/nachos-go/nachos/internal/thread"
	"github.com/nachos-go/nachos/internal/vm"
)

// Machine is what a Program closure is handed in place of a fetched
// instruction stream: the same MMU and register access a trapped-into
// syscall handler would use, plus the Dispatcher itself so the program can
// issue further syscalls (spec.md §1, §4.10).
type Machine struct {
	Process    *Process
	Dispatcher *Dispatcher
}

// Program is a simulated user program: it is handed its own Machine and
// argv, and returns the status it would have passed to the Exit syscall.
// Real Nachos decodes and executes a MIPS instruction stream one
// instruction at a time; that fetch/decode/execute loop is outside this
// repository's scope (spec.md §1), so a Program stands in for it exactly
// as a Go closure stands in for a kernel thread's body in
// internal/thread.Scheduler.Fork.
type Program func(ctx context.Context, m *Machine, argv []string) int

// Dispatcher wires together everything a syscall needs to serve a
// process's requests: the scheduler threads run on, the file-system
// façade, the process table, and the core map new address spaces share
// (spec.md §4.10's syscall surface).
type Dispatcher struct {
	scheduler *thread.Scheduler
	fs        *nachosfs.FileSystem
	table     *ProcessTable
	coreMap   *vm.CoreMap
	metrics   metrics.Handle
	vmConfig  vm.Config
	maxArgLen int
	tlbSize   int
	console   *devio.SynchConsole
}

// NewDispatcher builds a Dispatcher. vmConfig is the template every Exec'd
// address space is constructed with (load mode, replacement policy, swap
// directory); maxArgLen bounds ReadStringFromUser calls made on behalf of
// syscalls (spec.md §7's "oversize name" BadArgument case); tlbSize is the
// per-process TLB size (0 disables TLB simulation, spec.md §4.9's "or no
// TLB"); console backs FDConsoleIn/FDConsoleOut (spec.md §6).
func NewDispatcher(s *thread.Scheduler, fs *nachosfs.FileSystem, table *ProcessTable, coreMap *vm.CoreMap, m metrics.Handle, vmConfig vm.Config, maxArgLen, tlbSize int, console *devio.SynchConsole) *Dispatcher {
	return &Dispatcher{scheduler: s, fs: fs, table: table, coreMap: coreMap, metrics: m, vmConfig: vmConfig, maxArgLen: maxArgLen, tlbSize: tlbSize, console: console}
}

// execAdapter wraps an *filemgr.OpenFileHandle opened once at Exec time so
// it satisfies vm.Executable's random-access ReadAt, since the handle's
// own ReadAt is stateful (Seek then sequential read) rather than
// offset-addressed.
type execAdapter struct {
	ctx context.Context
	h   *filemgr.OpenFileHandle
}

func (e execAdapter) ReadAt(p []byte, off int64) (int, error) {
	e.h.Seek(int(off))
	n := e.h.ReadAt(e.ctx, p)
	if n < len(p) {
		return n, fmt.Errorf("trap: short read at offset %d: %w", off, kerrors.BadArgument)
	}
	return n, nil
}

// Exec loads path as a new process's program image and forks a thread to
// run prog, returning the new pid (spec.md §4.10 Exec/§5's supplemented
// argv passing). codeSize and initDataSize describe the executable's
// layout, matching AddressSpace.New's segment split.
func (d *Dispatcher) Exec(ctx context.Context, path string, argv []string, codeSize, initDataSize int, prog Program) (int, error) {
	d.metrics.SyscallDispatched("Exec")
	h, err := d.fs.Open(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("trap: exec %q: %w", path, err)
	}

	p := &Process{
		name:    path,
		mmu:     cpu.NewSimMMUWithMemory(d.coreMap.PhysMem(), d.tlbSize),
		regs:    cpu.NewSimRegisters(),
		tlbFill: newTLBFiller(),
		files:   make(map[int]*filemgr.OpenFileHandle),
		nextFD:  firstUserFD,
	}

	pid, err := d.table.add(p)
	if err != nil {
		_ = d.fs.Close(ctx, h)
		return 0, err
	}

	as, err := vm.New(pid, execAdapter{ctx: ctx, h: h}, codeSize, initDataSize, d.coreMap, d.vmConfig)
	if err != nil {
		d.table.release(pid)
		_ = d.fs.Close(ctx, h)
		return 0, err
	}
	p.as = as
	p.thread = d.scheduler.Fork(path, thread.Normal, true, func(ctx context.Context, arg any) {
		status := prog(ctx, &Machine{Process: p, Dispatcher: d}, argv)
		p.mu.Lock()
		p.exitCode = status
		p.hasExited = true
		p.mu.Unlock()
		if err := as.Close(); err != nil {
			klog.Debug("trap", "exec %q pid=%d: close address space: %v", path, pid, err)
		}
		if err := d.fs.Close(ctx, h); err != nil {
			klog.Debug("trap", "exec %q pid=%d: close executable: %v", path, pid, err)
		}
	}, nil)

	return pid, nil
}

// Join blocks until pid exits, returning its status, and removes it from
// the process table (spec.md §4.10 Join).
func (d *Dispatcher) Join(ctx context.Context, pid int) (int, error) {
	d.metrics.SyscallDispatched("Join")
	p, ok := d.table.Get(pid)
	if !ok {
		return 0, fmt.Errorf("trap: join pid %d: %w", pid, kerrors.NotFound)
	}
	status := d.scheduler.Join(ctx, p.thread)
	d.table.release(pid)
	return status, nil
}

// PS serves the PS syscall: every currently-live process (spec.md §5).
func (d *Dispatcher) PS() []ProcessInfo {
	d.metrics.SyscallDispatched("PS")
	return d.table.List()
}

// ReadArgv reads a NULL-terminated argv pointer array out of p's user
// memory starting at vaddr, bounding each string by the dispatcher's
// configured maxArgLen (spec.md §5/§7).
func (d *Dispatcher) ReadArgv(p *Process, vaddr int) ([]string, error) {
	return ReadArgvFromUser(p.mmu, p.as, p.tlbFill, vaddr, d.maxArgLen)
}

// Create creates an empty file of the given size (spec.md §4.10 Create).
func (d *Dispatcher) Create(ctx context.Context, path string, size int) error {
	d.metrics.SyscallDispatched("Create")
	return d.fs.CreateFile(ctx, path, size)
}

// Remove deletes a file, deferred if it is still open (spec.md §4.10 Remove).
func (d *Dispatcher) Remove(ctx context.Context, path string) error {
	d.metrics.SyscallDispatched("Remove")
	return d.fs.RemoveFile(ctx, path)
}

// Open opens path on behalf of p, returning a file descriptor (spec.md
// §4.10 Open).
func (d *Dispatcher) Open(ctx context.Context, p *Process, path string) (int, error) {
	d.metrics.SyscallDispatched("Open")
	h, err := d.fs.Open(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("trap: open %q: %w", path, err)
	}
	return p.allocFD(h), nil
}

// Close releases fd (spec.md §4.10 Close).
func (d *Dispatcher) Close(ctx context.Context, p *Process, fd int) error {
	d.metrics.SyscallDispatched("Close")
	h, ok := p.releaseFD(fd)
	if !ok {
		return fmt.Errorf("trap: close fd %d: %w", fd, kerrors.BadArgument)
	}
	return d.fs.Close(ctx, h)
}

// Read reads up to size bytes from fd (spec.md §4.10 Read). FDConsoleIn
// reads from the console one byte at a time instead of the file system.
func (d *Dispatcher) Read(ctx context.Context, p *Process, fd, size int) ([]byte, error) {
	d.metrics.SyscallDispatched("Read")
	if size <= 0 {
		return nil, fmt.Errorf("trap: read fd %d: %w", fd, kerrors.BadArgument)
	}
	if fd == FDConsoleIn {
		buf := make([]byte, 0, size)
		for i := 0; i < size; i++ {
			b, ok := d.console.ReadByte(ctx)
			if !ok {
				break
			}
			buf = append(buf, b)
		}
		return buf, nil
	}
	h, ok := p.fileByFD(fd)
	if !ok {
		return nil, fmt.Errorf("trap: read fd %d: %w", fd, kerrors.BadArgument)
	}
	buf := make([]byte, size)
	n := h.ReadAt(ctx, buf)
	return buf[:n], nil
}

// Write writes buf to fd (spec.md §4.10 Write). FDConsoleOut writes to the
// console instead of the file system.
func (d *Dispatcher) Write(ctx context.Context, p *Process, fd int, buf []byte) (int, error) {
	d.metrics.SyscallDispatched("Write")
	if len(buf) == 0 {
		return -1, fmt.Errorf("trap: write fd %d: %w", fd, kerrors.BadArgument)
	}
	if fd == FDConsoleOut {
		for _, b := range buf {
			d.console.WriteByte(ctx, b)
		}
		return len(buf), nil
	}
	h, ok := p.fileByFD(fd)
	if !ok {
		return 0, fmt.Errorf("trap: write fd %d: %w", fd, kerrors.BadArgument)
	}
	return h.WriteAt(ctx, buf), nil
}

// ChangeDirectory, CreateDirectory, ListDirectoryContents, and
// RemoveDirectory forward directly to the file-system façade (spec.md
// §4.10's directory syscalls have no process-local state).
func (d *Dispatcher) ChangeDirectory(ctx context.Context, path string) error {
	d.metrics.SyscallDispatched("ChangeDirectory")
	return d.fs.ChangeDirectory(ctx, path)
}

func (d *Dispatcher) CreateDirectory(ctx context.Context, path string) error {
	d.metrics.SyscallDispatched("CreateDirectory")
	return d.fs.CreateDirectory(ctx, path)
}

func (d *Dispatcher) ListDirectoryContents(ctx context.Context, path string) ([]string, error) {
	d.metrics.SyscallDispatched("ListDirectoryContents")
	entries, err := d.fs.ListDirectoryContents(ctx, path)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names, nil
}

func (d *Dispatcher) RemoveDirectory(ctx context.Context, path string) error {
	d.metrics.SyscallDispatched("RemoveDirectory")
	return d.fs.RemoveDirectory(ctx, path)
}
