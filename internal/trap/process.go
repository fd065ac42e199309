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

// Package trap is the exception/syscall dispatcher (spec.md §4.10):
// reading the syscall identifier and arguments off the conventional
// registers, user-pointer transfer through the MMU with page-fault retry,
// the page-fault and read-only-violation handlers, and the bounded
// process table. CPU instruction fetch/decode/execute is outside this
// repository's scope (spec.md §1 names the CPU/MMU as external
// collaborator interfaces); what would run on that external CPU is
// represented here as a Program — a Go closure given a *Machine through
// which it issues the same syscalls real user code would trap into,
// exactly as internal/thread.Scheduler.Fork represents a kernel thread's
// body as a Go closure rather than a fetched instruction stream.
package trap

import (
	"fmt"
	"sync"

	"github.com/nachos-go/nachos/internal/cpu"
	"github.com/nachos-go/nachos/internal/filemgr"
	"github.com/nachos-go/nachos/internal/kerrors"
	"github.com/nachos-go/nachos/internal/thread"
	"github.com/nachos-go/nachos/internal/vm"
)

// Reserved file descriptors for console input/output (spec.md §6).
const (
	FDConsoleIn  = 0
	FDConsoleOut = 1
	firstUserFD  = 2
)

// Process is one running program: its thread, optional address space
// (pure kernel threads created directly on the scheduler have none), its
// own MMU/registers, and its open-file-descriptor table (spec.md §4.10's
// "process table" maps pid to thread; the rest of Process is what a
// syscall needs to serve that thread's requests).
type Process struct {
	pid     int
	name    string
	thread  *thread.Thread
	as      *vm.AddressSpace
	mmu     cpu.MMU
	regs    cpu.Registers
	tlbFill *tlbFiller

	mu        sync.Mutex
	files     map[int]*filemgr.OpenFileHandle
	nextFD    int
	exitCode  int
	hasExited bool
}

// PID returns the process id.
func (p *Process) PID() int { return p.pid }

// Name returns the process's diagnostic name (the path it was Exec'd with).
func (p *Process) Name() string { return p.name }

// AddressSpace returns the process's address space, or nil for a
// kernel-only process.
func (p *Process) AddressSpace() *vm.AddressSpace { return p.as }

// MMU returns the process's MMU.
func (p *Process) MMU() cpu.MMU { return p.mmu }

// Registers returns the process's register file.
func (p *Process) Registers() cpu.Registers { return p.regs }

func (p *Process) allocFD(h *filemgr.OpenFileHandle) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	fd := p.nextFD
	p.nextFD++
	p.files[fd] = h
	return fd
}

func (p *Process) fileByFD(fd int) (*filemgr.OpenFileHandle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.files[fd]
	return h, ok
}

func (p *Process) releaseFD(fd int) (*filemgr.OpenFileHandle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.files[fd]
	if ok {
		delete(p.files, fd)
	}
	return h, ok
}

// ProcessTable is the bounded pid->Process map (spec.md §4.10): a new id
// is allocated at Exec, released at Join.
type ProcessTable struct {
	mu       sync.Mutex
	capacity int
	procs    map[int]*Process
	nextPID  int
}

// NewProcessTable creates a process table admitting at most capacity
// concurrently-live processes.
func NewProcessTable(capacity int) *ProcessTable {
	return &ProcessTable{capacity: capacity, procs: make(map[int]*Process)}
}

// add allocates a pid for p and records it, failing with BadArgument if
// the table is at capacity (spec.md's "bounded map").
func (t *ProcessTable) add(p *Process) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.procs) >= t.capacity {
		return 0, fmt.Errorf("trap: process table full: %w", kerrors.BadArgument)
	}
	t.nextPID++
	pid := t.nextPID
	p.pid = pid
	t.procs[pid] = p
	return pid, nil
}

// release removes pid from the table, called once its exit status has
// been delivered to a Join (or discarded, if never joined).
func (t *ProcessTable) release(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.procs, pid)
}

// Get returns the live process for pid.
func (t *ProcessTable) Get(pid int) (*Process, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.procs[pid]
	return p, ok
}

// ProcessInfo is one row of the PS syscall's listing.
type ProcessInfo struct {
	PID  int
	Name string
}

// List returns every currently-live process (spec.md's PS syscall).
func (t *ProcessTable) List() []ProcessInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ProcessInfo, 0, len(t.procs))
	for _, p := range t.procs {
		out = append(out, ProcessInfo{PID: p.pid, Name: p.name})
	}
	return out
}
